package output

import (
	"fmt"
	"io"
)

// Text prints one plain labeled block per address.
type Text struct {
	out    io.Writer
	errOut io.Writer
}

func (t *Text) Begin() {}

func (t *Text) Render(o Outcome) {
	if o.Err != nil {
		renderFailure(t.errOut, o.Err)
		return
	}
	fmt.Fprintf(t.out, "Address: %s\n", o.Address.EncodeAddress())
	fmt.Fprintf(t.out, "  Paid balance:    %d\n", o.Result.Paid)
	fmt.Fprintf(t.out, "  Pending balance: %d\n", o.Result.Pending)
	fmt.Fprintf(t.out, "  Total received:  %d\n", o.Result.Received)
	fmt.Fprintln(t.out)
}

func (t *Text) End() {}
