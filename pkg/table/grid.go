// Package table lays out table boxes: it builds the cell grid, assigns
// column indices, computes column widths and row heights and resolves the
// collapsing border model.
package table

import (
	"pressroom/pkg/layout"
	"pressroom/pkg/style"
)

// rowRef is one grid row and the section box holding it. section is the
// table itself for rows placed directly in the table.
type rowRef struct {
	row     *layout.RenderNode
	section *layout.RenderNode
}

// Grid is the cell grid of one table.
type Grid struct {
	Table    *layout.RenderNode
	Columns  []*layout.RenderNode
	Sections []*layout.RenderNode
	rows     []rowRef
	// Cells in source order.
	Cells []*layout.RenderNode
	// Slots maps grid positions to the covering cell, nil for holes.
	Slots [][]*layout.RenderNode
	// NumCols covers both the column definitions and the widest row.
	NumCols int
	// Collapsed marks columns with visibility collapse.
	Collapsed []bool
}

// Rows returns the row boxes in grid order.
func (g *Grid) Rows() []*layout.RenderNode {
	out := make([]*layout.RenderNode, len(g.rows))
	for i, r := range g.rows {
		out[i] = r.row
	}
	return out
}

// NewGrid collects the columns, rows and cells below table and places the
// cells, skipping slots taken by row spans from earlier rows.
func NewGrid(table *layout.RenderNode) *Grid {
	g := &Grid{Table: table}
	for _, c := range table.Children {
		switch c.Type {
		case layout.NodeTableColGroup:
			for _, col := range c.Children {
				if col.Type == layout.NodeTableCol {
					g.Columns = append(g.Columns, col)
				}
			}
		case layout.NodeTableCol:
			g.Columns = append(g.Columns, c)
		case layout.NodeTableSection:
			g.Sections = append(g.Sections, c)
			for _, r := range c.Children {
				if r.Type == layout.NodeTableRow {
					g.addRow(r, c)
				}
			}
		case layout.NodeTableRow:
			g.addRow(c, table)
		}
	}

	defined := 0
	for _, col := range g.Columns {
		defined += col.Colspan()
	}
	if defined > g.NumCols {
		g.NumCols = defined
	}
	for i := range g.Slots {
		for len(g.Slots[i]) < g.NumCols {
			g.Slots[i] = append(g.Slots[i], nil)
		}
	}
	g.Collapsed = make([]bool, g.NumCols)
	idx := 0
	for _, col := range g.Columns {
		collapsed := col.Style != nil && col.Style.Keyword(style.Visibility) == "collapse"
		for k := 0; k < col.Colspan(); k++ {
			if collapsed {
				g.Collapsed[idx+k] = true
			}
		}
		idx += col.Colspan()
	}
	return g
}

func (g *Grid) addRow(row, section *layout.RenderNode) {
	r := len(g.rows)
	g.rows = append(g.rows, rowRef{row: row, section: section})
	g.ensureRows(r + 1)

	col := 0
	for _, cell := range row.Children {
		if cell.Type != layout.NodeTableCell || cell.Cell == nil {
			continue
		}
		for col < len(g.Slots[r]) && g.Slots[r][col] != nil {
			col++
		}
		cell.Cell.Row, cell.Cell.Col = r, col
		g.ensureRows(r + cell.Cell.Rowspan)
		for dr := 0; dr < cell.Cell.Rowspan; dr++ {
			slots := g.Slots[r+dr]
			for len(slots) < col+cell.Cell.Colspan {
				slots = append(slots, nil)
			}
			for dc := 0; dc < cell.Cell.Colspan; dc++ {
				slots[col+dc] = cell
			}
			g.Slots[r+dr] = slots
		}
		g.Cells = append(g.Cells, cell)
		col += cell.Cell.Colspan
		if col > g.NumCols {
			g.NumCols = col
		}
	}
}

func (g *Grid) ensureRows(n int) {
	for len(g.Slots) < n {
		g.Slots = append(g.Slots, nil)
	}
}

// lastRow clamps the final row of a cell's span to the rows that exist.
// Spans reaching past the last row end at the last row.
func (g *Grid) lastRow(cell *layout.RenderNode) int {
	last := cell.Cell.Row + cell.Cell.Rowspan - 1
	if last >= len(g.rows) {
		last = len(g.rows) - 1
	}
	return last
}

// AssignColumnIndices numbers the column definitions so that a column with
// colspan N covers a contiguous run of N indices, then freezes them.
func (g *Grid) AssignColumnIndices() error {
	idx := 0
	for _, col := range g.Columns {
		if err := col.SetColumnIndex(idx); err != nil {
			// a finalized table laid out again keeps its numbering
			if col.ColumnIndex() != idx {
				return err
			}
		}
		idx += col.Colspan()
	}
	layout.FinalizeColumns(g.Table)
	return nil
}
