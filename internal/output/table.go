package output

import (
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/rodaine/table"
)

// Table buffers results and prints them in input order once the run ends.
type Table struct {
	out    io.Writer
	errOut io.Writer
	rows   []Outcome
}

func (t *Table) Begin() {}

func (t *Table) Render(o Outcome) {
	if o.Err != nil {
		renderFailure(t.errOut, o.Err)
		return
	}
	t.rows = append(t.rows, o)
}

func (t *Table) End() {
	sort.Slice(t.rows, func(i, j int) bool { return t.rows[i].Index < t.rows[j].Index })

	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("Address", "Paid", "Pending", "Received").WithWriter(t.out)
	tbl.WithHeaderFormatter(headerFmt)

	for _, r := range t.rows {
		tbl.AddRow(r.Address.EncodeAddress(), r.Result.Paid, r.Result.Pending, r.Result.Received)
	}
	tbl.Print()
}
