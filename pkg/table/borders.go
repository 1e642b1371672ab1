package table

import (
	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
	"pressroom/pkg/style"
)

// Side indices of BoxDefinition border arrays.
const (
	top = iota
	right
	bottom
	left
)

// styleRank orders border styles for conflict resolution; higher wins.
var styleRank = map[string]int{
	"hidden": 100,
	"double": 8,
	"solid":  7,
	"dashed": 6,
	"dotted": 5,
	"ridge":  4,
	"outset": 3,
	"groove": 2,
	"inset":  1,
	"none":   0,
}

// candidate is one border competing for a shared edge. order is the
// document position of its owner; earlier owners win ties.
type candidate struct {
	edge  layout.BorderEdge
	order int
}

// Wins reports whether a takes precedence over b: the wider border wins,
// then the higher ranked style, then the owner earlier in the document.
// A hidden border suppresses every other border.
func (a candidate) Wins(b candidate) bool {
	if (a.edge.Style == "hidden") != (b.edge.Style == "hidden") {
		return a.edge.Style == "hidden"
	}
	if a.edge.Width != b.edge.Width {
		return a.edge.Width > b.edge.Width
	}
	ra, rb := styleRank[a.edge.Style], styleRank[b.edge.Style]
	if ra != rb {
		return ra > rb
	}
	return a.order < b.order
}

// ownEdges returns the borders a node declares. They are read from the
// resolved style so that repeated layouts see the declared widths rather
// than the halves installed by an earlier collapse pass.
func ownEdges(n *layout.RenderNode) [4]layout.BorderEdge {
	var out [4]layout.BorderEdge
	for i := range out {
		out[i] = layout.BorderEdge{Style: n.Def.BorderStyles[i], Color: n.Def.BorderColors[i]}
	}
	if n.Style == nil {
		out[top].Width = n.Def.Border.Top
		out[right].Width = n.Def.Border.Right
		out[bottom].Width = n.Def.Border.Bottom
		out[left].Width = n.Def.Border.Left
		return out
	}
	for i, s := range style.Sides {
		out[i].Width = geom.Pt(n.Style.Points(s.BorderWidth))
	}
	return out
}

func resolveEdge(cands ...candidate) layout.BorderEdge {
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Wins(best) {
			best = c
		}
	}
	if best.edge.Style == "hidden" || best.edge.Style == "none" {
		return layout.BorderEdge{Style: best.edge.Style}
	}
	return best.edge
}

// collapseBorders resolves every shared cell edge to a single border and
// installs half of each resolved width as the cell's border inset. Rows and
// columns add their outer edges to the competition; ties go to the cell,
// then the row, then the column, then the table. A cell spanning several
// rows or columns competes with every neighbour along its side. The table
// keeps half of its widest outer edge per side.
func collapseBorders(g *Grid) {
	rows := g.Rows()
	nc := len(g.Cells)
	own := make(map[*layout.RenderNode][4]layout.BorderEdge, nc)
	order := make(map[*layout.RenderNode]int, nc)
	for i, c := range g.Cells {
		order[c] = i
		own[c] = ownEdges(c)
	}
	rowEdges := make([][4]layout.BorderEdge, len(rows))
	for i, r := range rows {
		rowEdges[i] = ownEdges(r)
	}
	colEdges := make([]*[4]layout.BorderEdge, g.NumCols)
	idx := 0
	for _, col := range g.Columns {
		e := ownEdges(col)
		for k := 0; k < col.Colspan() && idx+k < g.NumCols; k++ {
			colEdges[idx+k] = &e
		}
		idx += col.Colspan()
	}
	tableEdges := ownEdges(g.Table)

	slot := func(r, c int) *layout.RenderNode {
		if r < 0 || r >= len(g.Slots) || c < 0 || c >= len(g.Slots[r]) {
			return nil
		}
		return g.Slots[r][c]
	}
	var cands []candidate
	addCell := func(c *layout.RenderNode, side int) {
		cands = append(cands, candidate{edge: own[c][side], order: order[c]})
	}
	addNeighbour := func(self, nb *layout.RenderNode, side int) {
		if nb != nil && nb != self {
			addCell(nb, side)
		}
	}
	addRow := func(r, side int) {
		if r >= 0 && r < len(rows) {
			cands = append(cands, candidate{edge: rowEdges[r][side], order: nc + r})
		}
	}
	addCol := func(c, side int) {
		if c >= 0 && c < g.NumCols && colEdges[c] != nil {
			cands = append(cands, candidate{edge: colEdges[c][side], order: nc + len(rows) + c})
		}
	}
	tableOrder := nc + len(rows) + g.NumCols

	var outer [4]geom.Unit
	for _, cell := range g.Cells {
		info := cell.Cell
		r0, c0 := info.Row, info.Col
		r1, c1 := g.lastRow(cell), c0+info.Colspan-1
		var edges [4]layout.BorderEdge
		for side := range edges {
			cands = cands[:0]
			addCell(cell, side)
			var boundary bool
			switch side {
			case top:
				boundary = r0 == 0
				addRow(r0, top)
				addRow(r0-1, bottom)
				for c := c0; c <= c1; c++ {
					addNeighbour(cell, slot(r0-1, c), bottom)
					if boundary {
						addCol(c, top)
					}
				}
			case bottom:
				boundary = r1 >= len(rows)-1
				addRow(r1, bottom)
				addRow(r1+1, top)
				for c := c0; c <= c1; c++ {
					addNeighbour(cell, slot(r1+1, c), top)
					if boundary {
						addCol(c, bottom)
					}
				}
			case left:
				boundary = c0 == 0
				addCol(c0, left)
				addCol(c0-1, right)
				for r := r0; r <= r1; r++ {
					addNeighbour(cell, slot(r, c0-1), right)
					if boundary {
						addRow(r, left)
					}
				}
			case right:
				boundary = c1 >= g.NumCols-1
				addCol(c1, right)
				addCol(c1+1, left)
				for r := r0; r <= r1; r++ {
					addNeighbour(cell, slot(r, c1+1), left)
					if boundary {
						addRow(r, right)
					}
				}
			}
			if boundary {
				cands = append(cands, candidate{edge: tableEdges[side], order: tableOrder})
			}
			edges[side] = resolveEdge(cands...)
			if boundary {
				outer[side] = geom.Max(outer[side], edges[side].Width)
			}
		}
		cell.Borders = &edges
		cell.Def.Border = geom.Insets{
			Top:    edges[top].Width / 2,
			Right:  edges[right].Width / 2,
			Bottom: edges[bottom].Width / 2,
			Left:   edges[left].Width / 2,
		}
	}
	// row and column borders are painted by the cells
	for _, r := range rows {
		r.Borders = &[4]layout.BorderEdge{}
	}
	for _, c := range g.Columns {
		c.Borders = &[4]layout.BorderEdge{}
	}
	g.Table.Def.Border = geom.Insets{
		Top:    outer[top] / 2,
		Right:  outer[right] / 2,
		Bottom: outer[bottom] / 2,
		Left:   outer[left] / 2,
	}
}

// separateBorders restores the declared borders of every cell.
func separateBorders(g *Grid) {
	for _, cell := range g.Cells {
		e := ownEdges(cell)
		cell.Borders = &e
		cell.Def.Border = geom.Insets{Top: e[top].Width, Right: e[right].Width, Bottom: e[bottom].Width, Left: e[left].Width}
	}
}
