package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// JSONBalance is one element of the JSON output array. Amounts are decimal
// strings of satoshis.
type JSONBalance struct {
	Address  string `json:"address"`
	Paid     string `json:"paid"`
	Pending  string `json:"pending"`
	Received string `json:"received"`
}

// JSON streams results as elements of one array.
//
// An element gets a trailing comma while other queries are still
// outstanding, so elements appear in completion order and the last one to
// complete has none. A failed query emits no element; if it completes last,
// the element before it keeps a dangling comma and the array is not valid
// JSON.
type JSON struct {
	out    io.Writer
	errOut io.Writer
}

func (j *JSON) Begin() {
	fmt.Fprintln(j.out, "[")
}

func (j *JSON) Render(o Outcome) {
	if o.Err != nil {
		renderFailure(j.errOut, o.Err)
		return
	}

	data, err := json.MarshalIndent(JSONBalance{
		Address:  o.Address.EncodeAddress(),
		Paid:     strconv.FormatUint(o.Result.Paid, 10),
		Pending:  strconv.FormatUint(o.Result.Pending, 10),
		Received: strconv.FormatUint(o.Result.Received, 10),
	}, "", "  ")
	if err != nil {
		renderFailure(j.errOut, err)
		return
	}

	j.out.Write(data)
	if o.Remaining > 0 {
		fmt.Fprint(j.out, ",")
	}
	fmt.Fprintln(j.out)
}

func (j *JSON) End() {
	fmt.Fprintln(j.out, "]")
}
