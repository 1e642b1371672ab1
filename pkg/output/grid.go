// Package output holds what the page sinks share: extraction of the text
// boxes of a page and the cell grid cut from their edges.
package output

import (
	"slices"

	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
)

// TextBox is a visible paragraph of a page in page coordinates.
type TextBox struct {
	Node *layout.RenderNode
	Rect geom.Rect
	Text string
}

// TextBoxes returns the visible paragraphs of page in document order.
// Header and footer areas are skipped when withPageBands is false.
func TextBoxes(page *layout.LogicalPageBox, withPageBands bool) []TextBox {
	var out []TextBox
	layout.Walk(page.RenderNode, func(n *layout.RenderNode) bool {
		if !n.Visible && n.Type != layout.NodeLogicalPage && n.Type != layout.NodePageArea {
			return false
		}
		if !withPageBands && (n == page.Header || n == page.Footer) {
			return false
		}
		if n.Type == layout.NodeParagraph {
			if n.Content != "" {
				out = append(out, TextBox{Node: n, Rect: n.AbsRect(), Text: n.Content})
			}
			return false
		}
		return true
	})
	return out
}

// Cell is a text box placed on a Grid. Spans are at least 1.
type Cell struct {
	TextBox
	Row, Col         int
	RowSpan, ColSpan int
}

// Grid is the table of cells cut by the distinct box edges. Columns and
// Rows hold the edge positions, one more than there are columns or rows.
type Grid struct {
	Columns []geom.Unit
	Rows    []geom.Unit
	Cells   []Cell
}

// ColumnWidth returns the width of column i.
func (g *Grid) ColumnWidth(i int) geom.Unit { return g.Columns[i+1] - g.Columns[i] }

// RowHeight returns the height of row i.
func (g *Grid) RowHeight(i int) geom.Unit { return g.Rows[i+1] - g.Rows[i] }

// NewGrid places boxes on a grid. A box whose top left cell is taken by an
// earlier box is moved down into the first free row.
func NewGrid(boxes []TextBox) *Grid {
	g := &Grid{}
	for _, b := range boxes {
		g.Columns = append(g.Columns, b.Rect.X, b.Rect.Right())
		g.Rows = append(g.Rows, b.Rect.Y, b.Rect.Bottom())
	}
	slices.Sort(g.Columns)
	g.Columns = slices.Compact(g.Columns)
	slices.Sort(g.Rows)
	g.Rows = slices.Compact(g.Rows)

	taken := map[[2]int]bool{}
	for _, b := range boxes {
		c := Cell{TextBox: b}
		c.Col, _ = slices.BinarySearch(g.Columns, b.Rect.X)
		c.Row, _ = slices.BinarySearch(g.Rows, b.Rect.Y)
		right, _ := slices.BinarySearch(g.Columns, b.Rect.Right())
		bottom, _ := slices.BinarySearch(g.Rows, b.Rect.Bottom())
		c.ColSpan = max(1, right-c.Col)
		c.RowSpan = max(1, bottom-c.Row)
		for taken[[2]int{c.Row, c.Col}] {
			c.Row++
			c.RowSpan = 1
		}
		for r := c.Row; r < c.Row+c.RowSpan; r++ {
			for col := c.Col; col < c.Col+c.ColSpan; col++ {
				taken[[2]int{r, col}] = true
			}
		}
		g.Cells = append(g.Cells, c)
	}
	// boxes pushed below the last edge get rows of zero height
	for _, c := range g.Cells {
		for len(g.Rows) < c.Row+c.RowSpan+1 {
			g.Rows = append(g.Rows, g.Rows[len(g.Rows)-1])
		}
	}
	return g
}
