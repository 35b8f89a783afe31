package main

import (
	"encoding/json"
	"io"
	"os"
	"text/tabwriter"

	"golang.org/x/term"
)

// output prints command results as aligned tables on a terminal and as
// indented JSON otherwise.
type output struct {
	w     io.Writer
	table bool
}

var out = newOutput(os.Stdout)

func newOutput(f *os.File) *output {
	return &output{w: f, table: term.IsTerminal(int(f.Fd()))}
}

// render writes v. table draws the terminal form; when it is nil the JSON
// form is used everywhere.
func (o *output) render(v any, table func(tw *tabwriter.Writer)) error {
	if !o.table || table == nil {
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}
