// Package csvout writes the text of pages as comma separated records. Each
// grid row of a page becomes one record.
package csvout

import (
	"context"
	"encoding/csv"
	"io"

	"pressroom/pkg/layout"
	"pressroom/pkg/output"
)

type Sink struct {
	// PageBands keeps page header and footer text.
	PageBands bool
	// Comma is the field delimiter, ',' when zero.
	Comma rune

	w   *csv.Writer
	out io.Writer
}

func NewSink(w io.Writer) *Sink { return &Sink{out: w} }

func (s *Sink) writer() *csv.Writer {
	if s.w == nil {
		s.w = csv.NewWriter(s.out)
		if s.Comma != 0 {
			s.w.Comma = s.Comma
		}
	}
	return s.w
}

func (s *Sink) ProcessPage(ctx context.Context, page *layout.LogicalPageBox, _ int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.writer().WriteAll(Records(page, s.PageBands))
}

// Records returns the rows of page. Empty rows are dropped and trailing
// empty fields trimmed.
func Records(page *layout.LogicalPageBox, withPageBands bool) [][]string {
	g := output.NewGrid(output.TextBoxes(page, withPageBands))
	rows := make([][]string, len(g.Rows))
	for _, c := range g.Cells {
		row := rows[c.Row]
		for len(row) <= c.Col {
			row = append(row, "")
		}
		row[c.Col] = c.Text
		rows[c.Row] = row
	}
	out := rows[:0]
	for _, r := range rows {
		if len(r) > 0 {
			out = append(out, r)
		}
	}
	return out
}

func (s *Sink) Close() error {
	w := s.writer()
	w.Flush()
	return w.Error()
}

// Discard stops writing. Records already flushed stay in the writer.
func (s *Sink) Discard() { s.w = nil }
