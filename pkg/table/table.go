package table

import (
	"fmt"
	"sort"

	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
	"pressroom/pkg/style"
)

// Layouter implements layout.TableLayouter.
type Layouter struct{}

// New returns a table layouter. Install it as the Tables field of a
// layout.Layouter.
func New() *Layouter { return &Layouter{} }

var _ layout.TableLayouter = (*Layouter)(nil)

type model struct {
	grid     *Grid
	fixed    bool
	collapse bool
	spacing  geom.Unit
}

func prepare(table *layout.RenderNode) *model {
	m := &model{grid: NewGrid(table)}
	if table.Table == nil {
		table.Table = &layout.TableInfo{}
	}
	if table.Style != nil {
		m.fixed = table.Style.Keyword(style.TableLayout) == "fixed"
	}
	m.collapse = table.Table.Collapse
	if !m.collapse {
		m.spacing = table.Table.Spacing
	}
	if m.collapse {
		collapseBorders(m.grid)
	} else {
		separateBorders(m.grid)
	}
	return m
}

// outerSpacing is the total spacing around and between visible columns.
func (m *model) outerSpacing() geom.Unit {
	if m.spacing == 0 {
		return 0
	}
	return m.spacing * geom.Unit(visibleColumns(m.grid.Collapsed)+1)
}

// TableContentWidths returns the minimum and maximum border box widths of
// the table.
func (t *Layouter) TableContentWidths(l *layout.Layouter, table *layout.RenderNode) (minW, maxW geom.Unit, err error) {
	m := prepare(table)
	cols, spans, err := columnConstraints(l, m.grid, m.fixed, m.spacing)
	if err != nil {
		return 0, 0, err
	}
	// run the span pass so the sums include spanning cells
	Widths(cols, spans, m.grid.Collapsed, 0)
	for i, c := range cols {
		if m.grid.Collapsed[i] {
			continue
		}
		if c.fixed {
			minW += c.width
			maxW += c.width
			continue
		}
		minW += c.minWidth
		maxW += c.maxWidth
	}
	extra := m.outerSpacing() + table.Def.Insets().Horizontal()
	minW = geom.Max(minW+extra, table.Def.MinWidth)
	return minW, geom.Max(maxW+extra, minW), nil
}

// LayoutTable sizes the columns, lays out every cell, computes the row
// heights and positions sections, rows, cells and column boxes.
func (t *Layouter) LayoutTable(l *layout.Layouter, table *layout.RenderNode, width geom.Unit) error {
	m := prepare(table)
	g := m.grid
	if err := g.AssignColumnIndices(); err != nil {
		return fmt.Errorf("table %s: %w", table.Name, err)
	}
	in := table.Def.Insets()
	content := geom.Max(0, width-in.Horizontal()-m.outerSpacing())

	cols, spans, err := columnConstraints(l, g, m.fixed, m.spacing)
	if err != nil {
		return err
	}
	widths := Widths(cols, spans, g.Collapsed, content)

	colX := make([]geom.Unit, g.NumCols)
	x := m.spacing
	for i, w := range widths {
		colX[i] = x
		if !g.Collapsed[i] {
			x += w + m.spacing
		}
	}
	innerW := x
	if g.NumCols == 0 {
		innerW = geom.Max(0, width-in.Horizontal())
	}
	table.Width = geom.Max(width, innerW+in.Horizontal())

	// cells
	for _, cell := range g.Cells {
		info := cell.Cell
		w := spanWidth(widths, g.Collapsed, m.spacing, info.Col, info.Colspan)
		if w == 0 {
			// only collapsed columns
			cell.Visible = false
			cell.Width, cell.Height = 0, 0
			continue
		}
		if err := l.LayoutWithWidth(cell, w); err != nil {
			return err
		}
		// content wider than the column is clipped to the grid
		cell.Width = w
	}

	heights := rowHeights(g, m.spacing)
	tops := make([]geom.Unit, len(heights))
	y := in.Top + m.spacing
	for i, h := range heights {
		tops[i] = y
		y += h + m.spacing
	}
	contentH := y - in.Top
	if len(heights) == 0 {
		contentH = 0
	}
	h := contentH + in.Vertical()
	if table.Def.PreferredHeight != layout.Auto {
		h = geom.Max(h, table.Def.PreferredHeight)
	}
	table.Height = geom.Max(h, table.Def.MinHeight)

	for _, cell := range g.Cells {
		info := cell.Cell
		last := g.lastRow(cell)
		if info.Row > last {
			continue
		}
		cellH := tops[last] + heights[last] - tops[info.Row]
		alignCell(cell, cellH)
		cell.X = colX[info.Col]
		cell.Y = 0
	}

	rowsOf := map[*layout.RenderNode][]int{}
	for i, r := range g.rows {
		rowsOf[r.section] = append(rowsOf[r.section], i)
		r.row.Width = innerW
		r.row.Height = heights[i]
	}
	for _, sec := range g.Sections {
		sec.X = in.Left
		sec.Width = innerW
		idx := rowsOf[sec]
		if len(idx) == 0 {
			sec.Y, sec.Height = in.Top, 0
			continue
		}
		first, last := idx[0], idx[len(idx)-1]
		sec.Y = tops[first]
		sec.Height = tops[last] + heights[last] - tops[first]
		for _, i := range idx {
			r := g.rows[i].row
			r.X = 0
			r.Y = tops[i] - sec.Y
		}
	}
	for _, i := range rowsOf[table] {
		r := g.rows[i].row
		r.X = in.Left
		r.Y = tops[i]
	}

	positionColumns(g, table, widths, colX, in, contentH)
	table.Table.ColumnWidths = widths
	table.Table.RowHeights = heights
	return nil
}

// rowHeights takes the tallest single-row cell of every row, then lets
// cells spanning rows add their deficit to the last spanned row.
func rowHeights(g *Grid, spacing geom.Unit) []geom.Unit {
	heights := make([]geom.Unit, len(g.rows))
	for i, r := range g.rows {
		d := r.row.Def
		if d.PreferredHeight != layout.Auto {
			heights[i] = d.PreferredHeight
		}
		heights[i] = geom.Max(heights[i], d.MinHeight)
	}
	var spanning []*layout.RenderNode
	for _, cell := range g.Cells {
		if g.lastRow(cell) > cell.Cell.Row {
			spanning = append(spanning, cell)
			continue
		}
		heights[cell.Cell.Row] = geom.Max(heights[cell.Cell.Row], cell.Height)
	}
	sort.SliceStable(spanning, func(a, b int) bool { return spanning[a].Cell.Rowspan < spanning[b].Cell.Rowspan })
	for _, cell := range spanning {
		first, last := cell.Cell.Row, g.lastRow(cell)
		var have geom.Unit
		for r := first; r <= last; r++ {
			have += heights[r]
		}
		have += spacing * geom.Unit(last-first)
		if deficit := cell.Height - have; deficit > 0 {
			heights[last] += deficit
		}
	}
	return heights
}

// alignCell stretches a laid out cell to its row height and shifts its
// content by the cell's vertical-align.
func alignCell(cell *layout.RenderNode, h geom.Unit) {
	extra := h - cell.Height
	cell.Height = h
	if extra <= 0 || cell.Style == nil {
		return
	}
	var shift geom.Unit
	switch cell.Style.Keyword(style.VerticalAlign) {
	case "middle":
		shift = extra / 2
	case "bottom":
		shift = extra
	default:
		return
	}
	for _, c := range cell.Children {
		c.Y += shift
	}
}

// positionColumns gives column boxes the geometry of the columns they
// cover. Collapsed columns get no width and are not painted.
func positionColumns(g *Grid, table *layout.RenderNode, widths, colX []geom.Unit, in geom.Insets, height geom.Unit) {
	for _, c := range table.Children {
		if c.Type == layout.NodeTableColGroup {
			c.X, c.Y = in.Left, in.Top
			c.Width = geom.Max(0, table.Width-in.Horizontal())
			c.Height = height
		}
	}
	for _, col := range g.Columns {
		first := col.ColumnIndex()
		if first < 0 || first >= len(widths) {
			continue
		}
		col.Width = spanWidth(widths, g.Collapsed, 0, first, col.Colspan())
		col.X = colX[first]
		if col.Parent == table {
			col.X += in.Left
		}
		col.Y = 0
		if col.Parent == table {
			col.Y = in.Top
		}
		col.Height = height
		if g.Collapsed[first] {
			col.Visible = false
		}
	}
}
