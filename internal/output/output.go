// Package output renders per-address balance results as they arrive.
package output

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/dmagro/addr-balance/internal/balance"
)

// Format selects how a whole run is rendered.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// FailurePrefix starts every per-address failure line on the error stream.
const FailurePrefix = "balance: Failed to fetch history: "

// Outcome is the completion of one address query.
type Outcome struct {
	Index     int // position in the input list
	Address   btcutil.Address
	Result    balance.Result
	Err       error
	Remaining int // queries still outstanding after this one
}

// Renderer writes a run's output. Render is called once per address, in
// completion order, and never concurrently with itself.
type Renderer interface {
	Begin()
	Render(o Outcome)
	End()
}

// New returns the renderer for format writing results to out and failures
// to errOut.
func New(format Format, out, errOut io.Writer) (Renderer, error) {
	switch format {
	case FormatText, "":
		return &Text{out: out, errOut: errOut}, nil
	case FormatJSON:
		return &JSON{out: out, errOut: errOut}, nil
	case FormatTable:
		return &Table{out: out, errOut: errOut}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func renderFailure(w io.Writer, err error) {
	fmt.Fprintf(w, "%s%v\n", FailurePrefix, err)
}
