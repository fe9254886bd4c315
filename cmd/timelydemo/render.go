package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// tickSummary is one row of the per-tick progress report printed by run,
// and the unit record checkpointed to --checkpoint-dir.
type tickSummary struct {
	Tick     int `json:"tick"`
	Consumed int `json:"consumed"`
	Produced int `json:"produced"`
	Internal int `json:"internal"`
}

// renderTickTable writes the accumulated tick summaries as a table, the way
// internal/analyzers/common/formatter.go renders analyzer reports with
// go-pretty rather than hand-formatted strings.
func renderTickTable(w io.Writer, rows []tickSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"tick", "consumed", "produced", "internal"})

	for _, r := range rows {
		t.AppendRow(table.Row{
			r.Tick,
			humanize.Comma(int64(r.Consumed)),
			humanize.Comma(int64(r.Produced)),
			humanize.Comma(int64(r.Internal)),
		})
	}

	t.Render()
	fmt.Fprintln(w)
}
