package query

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const noRows = "(no rows)"

// Render writes r as a pipe-delimited table. An empty result renders as
// "(no rows)" below the header.
func Render(w io.Writer, r Result) error {
	widths := make([]int, len(r.Columns))
	for i, c := range r.Columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for _, row := range r.Rows {
		for i, v := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(v))
			}
		}
	}

	var b strings.Builder
	writeRow(&b, r.Columns, widths)
	seps := make([]string, len(widths))
	for i, wd := range widths {
		seps[i] = strings.Repeat("-", wd)
	}
	writeRow(&b, seps, widths)
	if r.Empty() {
		b.WriteString(noRows)
		b.WriteByte('\n')
	}
	for _, row := range r.Rows {
		writeRow(&b, row, widths)
	}

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	b.WriteString("|")
	for i, wd := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		b.WriteString(" ")
		b.WriteString(runewidth.FillRight(cell, wd))
		b.WriteString(" |")
	}
	b.WriteByte('\n')
}
