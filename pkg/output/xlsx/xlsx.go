// Package xlsx writes pages as worksheets. Each page becomes one sheet whose
// columns and rows follow the edges of the page's text boxes.
package xlsx

import (
	"context"
	"fmt"
	"io"

	"github.com/unidoc/unioffice/measurement"
	"github.com/unidoc/unioffice/spreadsheet"
	"github.com/unidoc/unioffice/spreadsheet/reference"

	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
	"pressroom/pkg/output"
)

// Sink collects one sheet per page and saves the workbook on Close.
type Sink struct {
	W io.Writer
	// PageBands keeps page headers and footers in the sheets.
	PageBands bool

	wb     *spreadsheet.Workbook
	styles map[[2]bool]spreadsheet.CellStyle
}

func NewSink(w io.Writer) *Sink { return &Sink{W: w} }

func (s *Sink) workbook() *spreadsheet.Workbook {
	if s.wb == nil {
		s.wb = spreadsheet.New()
		s.styles = map[[2]bool]spreadsheet.CellStyle{}
	}
	return s.wb
}

func (s *Sink) ProcessPage(ctx context.Context, page *layout.LogicalPageBox, _ int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wb := s.workbook()
	sheet := wb.AddSheet()
	sheet.SetName(fmt.Sprintf("Page %d", page.Number))

	g := output.NewGrid(output.TextBoxes(page, s.PageBands))
	for i := 0; i+1 < len(g.Columns); i++ {
		sheet.Column(uint32(i + 1)).SetWidth(measurement.Distance(geom.ToPt(g.ColumnWidth(i))) * measurement.Point)
	}
	for i := 0; i+1 < len(g.Rows); i++ {
		sheet.Row(uint32(i + 1)).SetHeight(measurement.Distance(geom.ToPt(g.RowHeight(i))) * measurement.Point)
	}
	for _, c := range g.Cells {
		ref := cellRef(c.Row, c.Col)
		cell := sheet.Cell(ref)
		cell.SetString(c.Text)
		if cs, ok := s.style(c.Node); ok {
			cell.SetStyle(cs)
		}
		if c.RowSpan > 1 || c.ColSpan > 1 {
			sheet.AddMergedCells(ref, cellRef(c.Row+c.RowSpan-1, c.Col+c.ColSpan-1))
		}
	}
	return nil
}

// style returns the shared cell style for bold or italic text.
func (s *Sink) style(n *layout.RenderNode) (spreadsheet.CellStyle, bool) {
	texts := layout.FindByType(n, layout.NodeText)
	if len(texts) == 0 {
		return spreadsheet.CellStyle{}, false
	}
	k := [2]bool{texts[0].Font.Bold, texts[0].Font.Italic}
	if k == ([2]bool{}) {
		return spreadsheet.CellStyle{}, false
	}
	if cs, ok := s.styles[k]; ok {
		return cs, true
	}
	font := s.wb.StyleSheet.AddFont()
	if k[0] {
		font.SetBold(true)
	}
	if k[1] {
		font.SetItalic(true)
	}
	cs := s.wb.StyleSheet.AddCellStyle()
	cs.SetFont(font)
	s.styles[k] = cs
	return cs, true
}

func (s *Sink) Close() error {
	wb := s.workbook()
	if len(wb.Sheets()) == 0 {
		wb.AddSheet().SetName("Page 1")
	}
	return wb.Save(s.W)
}

// Discard drops the workbook.
func (s *Sink) Discard() { s.wb = nil }

func cellRef(row, col int) string {
	return fmt.Sprintf("%s%d", reference.IndexToColumn(uint32(col)), row+1)
}
