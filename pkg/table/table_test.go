package table

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
	"pressroom/pkg/report"
	"pressroom/pkg/resolver"
	"pressroom/pkg/style"
	"pressroom/pkg/text"
)

func pt(v int) geom.Unit { return geom.PtInt(v) }

func newTable() *layout.RenderNode {
	t := layout.NewBox(layout.NodeTable, report.NewInstanceID(), report.TypeTable, nil, nil, nil)
	t.Table = &layout.TableInfo{}
	return t
}

func column(parent *layout.RenderNode, span int, width geom.Unit) *layout.RenderNode {
	attrs := report.AttributeMap{}
	attrs.Set(report.NSTable, report.AttrColspan, span)
	c := layout.NewTableColumn(report.NewInstanceID(), nil, attrs, nil)
	c.Def.PreferredWidth = width
	parent.AddChild(c)
	return c
}

func row(parent *layout.RenderNode) *layout.RenderNode {
	r := layout.NewBox(layout.NodeTableRow, report.NewInstanceID(), report.TypeTableRow, nil, nil, nil)
	parent.AddChild(r)
	return r
}

// cell adds a cell whose content is a fixed size box.
func cell(r *layout.RenderNode, colspan, rowspan int, w, h int) *layout.RenderNode {
	attrs := report.AttributeMap{}
	attrs.Set(report.NSTable, report.AttrColspan, colspan)
	attrs.Set(report.NSTable, report.AttrRowspan, rowspan)
	c := layout.NewTableCell(report.NewInstanceID(), nil, attrs, nil)
	box := layout.NewBox(layout.NodeRectangle, report.NewInstanceID(), report.TypeRectangle, nil, nil, nil)
	box.Def.PreferredWidth, box.Def.PreferredHeight = pt(w), pt(h)
	c.AddChild(box)
	r.AddChild(c)
	return c
}

func run(t *testing.T, tbl *layout.RenderNode, width int) {
	t.Helper()
	l := layout.NewLayouter(text.FixedMeasurer{}, New(), nil)
	require.NoError(t, l.Layout(tbl, pt(width)))
	require.NoError(t, layout.CheckContainment(tbl))
}

func TestAutoColumnsShareRemainderByMinimumWidth(t *testing.T) {
	tbl := newTable()
	column(tbl, 1, layout.Auto)
	column(tbl, 1, pt(50))
	column(tbl, 1, layout.Auto)
	r := row(tbl)
	a := cell(r, 1, 1, 30, 10)
	b := cell(r, 1, 1, 10, 10)
	c := cell(r, 1, 1, 60, 10)

	run(t, tbl, 200)

	assert.Equal(t, []geom.Unit{pt(50), pt(50), pt(100)}, tbl.Table.ColumnWidths)
	assert.Equal(t, pt(0), a.X)
	assert.Equal(t, pt(50), b.X)
	assert.Equal(t, pt(100), c.X)
	assert.Equal(t, pt(200), tbl.Width)
}

func TestWidthsSumExactly(t *testing.T) {
	cols := []columnInfo{{minWidth: pt(1)}, {minWidth: pt(1)}, {minWidth: pt(1)}}
	w := Widths(cols, nil, make([]bool, 3), geom.Pt(100.001))
	assert.Equal(t, geom.Pt(100.001), w[0]+w[1]+w[2])
	assert.Equal(t, w[0], w[1])
}

func TestWidthsTooNarrowUsesMinimum(t *testing.T) {
	cols := []columnInfo{{minWidth: pt(80)}, {fixed: true, width: pt(50)}, {minWidth: pt(90)}}
	w := Widths(cols, nil, make([]bool, 3), pt(100))
	assert.Equal(t, []geom.Unit{pt(80), pt(50), pt(90)}, w)
}

func TestSpanRaisesAutoColumns(t *testing.T) {
	cols := []columnInfo{{minWidth: pt(10)}, {minWidth: pt(30)}, {fixed: true, width: pt(20)}}
	spans := []spanNeed{{first: 0, span: 3, minWidth: pt(100)}}
	Widths(cols, spans, make([]bool, 3), 0)
	// 40 missing, split 1:3 over the auto columns; the fixed one stays
	assert.Equal(t, pt(20), cols[0].minWidth)
	assert.Equal(t, pt(60), cols[1].minWidth)
	assert.Equal(t, pt(20), cols[2].width)
}

func TestColspanCellCoversItsColumns(t *testing.T) {
	tbl := newTable()
	tbl.Table.Spacing = pt(4)
	group := layout.NewBox(layout.NodeTableColGroup, report.NewInstanceID(), report.TypeTableColGroup, nil, nil, nil)
	tbl.AddChild(group)
	first := column(group, 2, layout.Auto)
	last := column(group, 1, layout.Auto)

	r1 := row(tbl)
	wide := cell(r1, 2, 1, 150, 10)
	cell(r1, 1, 1, 20, 10)
	r2 := row(tbl)
	cell(r2, 1, 1, 20, 10)
	cell(r2, 1, 1, 20, 10)
	cell(r2, 1, 1, 20, 10)

	run(t, tbl, 300)

	assert.Equal(t, 0, first.ColumnIndex())
	assert.Equal(t, 2, last.ColumnIndex())
	w := tbl.Table.ColumnWidths
	require.Len(t, w, 3)
	assert.Equal(t, w[0]+w[1]+pt(4), wide.Width)
	assert.Equal(t, pt(300), w[0]+w[1]+w[2]+pt(16))
	assert.Equal(t, first.Width, w[0]+w[1])
}

func TestRowspanDeficitGoesToLastRow(t *testing.T) {
	tbl := newTable()
	r1 := row(tbl)
	tall := cell(r1, 1, 2, 10, 50)
	cell(r1, 1, 1, 10, 10)
	r2 := row(tbl)
	right := cell(r2, 1, 1, 10, 10)

	run(t, tbl, 100)

	assert.Equal(t, []geom.Unit{pt(10), pt(40)}, tbl.Table.RowHeights)
	assert.Equal(t, pt(50), tall.Height)
	assert.Equal(t, 1, right.Cell.Col, "slot under the row span is skipped")
	assert.Equal(t, pt(10), r2.Y)
}

func TestCollapsingBorders(t *testing.T) {
	tbl := newTable()
	tbl.Table.Collapse = true
	r := row(tbl)
	a := cell(r, 1, 1, 10, 10)
	b := cell(r, 1, 1, 10, 10)
	c := cell(r, 1, 1, 10, 10)

	a.Def.Border.Right, a.Def.BorderStyles[right] = pt(2), "dotted"
	b.Def.Border.Left, b.Def.BorderStyles[left] = pt(1), "double"
	b.Def.Border.Right, b.Def.BorderStyles[right] = pt(2), "dashed"
	c.Def.Border.Left, c.Def.BorderStyles[left] = pt(2), "solid"

	run(t, tbl, 90)

	assert.Equal(t, "dotted", a.Borders[right].Style, "wider border wins")
	assert.Equal(t, a.Borders[right], b.Borders[left])
	assert.Equal(t, "solid", b.Borders[right].Style, "style rank breaks width ties")
	assert.Equal(t, pt(1), b.Def.Border.Right, "half the shared border")
}

func TestRowBorderJoinsTheCollapse(t *testing.T) {
	tbl := newTable()
	tbl.Table.Collapse = true
	r1 := row(tbl)
	a := cell(r1, 1, 1, 10, 10)
	r2 := row(tbl)
	b := cell(r2, 1, 1, 10, 10)

	a.Def.Border.Bottom, a.Def.BorderStyles[bottom] = pt(1), "solid"
	r2.Def.Border.Top, r2.Def.BorderStyles[top] = pt(4), "dashed"

	run(t, tbl, 50)

	assert.Equal(t, layout.BorderEdge{Width: pt(4), Style: "dashed"}, a.Borders[bottom], "wider row border wins")
	assert.Equal(t, a.Borders[bottom], b.Borders[top])
	assert.Equal(t, pt(2), b.Def.Border.Top)
	assert.Equal(t, [4]layout.BorderEdge{}, *r2.Borders, "rows paint nothing of their own")
}

func TestRowBorderLosesTiesToCell(t *testing.T) {
	tbl := newTable()
	tbl.Table.Collapse = true
	col := column(tbl, 1, layout.Auto)
	r := row(tbl)
	a := cell(r, 1, 1, 10, 10)

	a.Def.Border.Left, a.Def.BorderStyles[left] = pt(2), "solid"
	r.Def.Border.Left, r.Def.BorderStyles[left] = pt(2), "solid"
	r.Def.BorderColors[left] = color.RGBA{R: 255, A: 255}
	col.Def.Border.Left, col.Def.BorderStyles[left] = pt(2), "solid"
	col.Def.BorderColors[left] = color.RGBA{B: 255, A: 255}

	run(t, tbl, 50)

	assert.Equal(t, color.RGBA{}, a.Borders[left].Color, "the cell's own border wins the tie")
}

func TestColumnBorderBetweenCells(t *testing.T) {
	tbl := newTable()
	tbl.Table.Collapse = true
	column(tbl, 1, layout.Auto)
	second := column(tbl, 1, layout.Auto)
	r := row(tbl)
	a := cell(r, 1, 1, 10, 10)
	b := cell(r, 1, 1, 10, 10)

	second.Def.Border.Left, second.Def.BorderStyles[left] = pt(3), "double"

	run(t, tbl, 60)

	assert.Equal(t, "double", a.Borders[right].Style)
	assert.Equal(t, a.Borders[right], b.Borders[left])
}

func TestSpanningCellMeetsEveryNeighbour(t *testing.T) {
	tbl := newTable()
	tbl.Table.Collapse = true
	r1 := row(tbl)
	wide := cell(r1, 2, 1, 10, 10)
	r2 := row(tbl)
	cell(r2, 1, 1, 10, 10)
	under := cell(r2, 1, 1, 10, 10)

	under.Def.Border.Top, under.Def.BorderStyles[top] = pt(4), "solid"

	run(t, tbl, 60)

	assert.Equal(t, 1, under.Cell.Col)
	assert.Equal(t, layout.BorderEdge{Width: pt(4), Style: "solid"}, wide.Borders[bottom],
		"a neighbour under the second spanned column takes part")
	assert.Equal(t, wide.Borders[bottom], under.Borders[top])
}

func TestBorderTieGoesToEarlierCell(t *testing.T) {
	a := candidate{edge: layout.BorderEdge{Width: pt(1), Style: "solid"}, order: 0}
	b := candidate{edge: layout.BorderEdge{Width: pt(1), Style: "solid"}, order: 1}
	assert.True(t, a.Wins(b))
	assert.False(t, b.Wins(a))
	hidden := candidate{edge: layout.BorderEdge{Style: "hidden"}, order: 5}
	assert.True(t, hidden.Wins(a))
}

func TestSeparatedSpacing(t *testing.T) {
	tbl := newTable()
	tbl.Table.Spacing = pt(5)
	r := row(tbl)
	a := cell(r, 1, 1, 10, 10)
	b := cell(r, 1, 1, 10, 10)

	run(t, tbl, 115)

	assert.Equal(t, pt(5), a.X)
	assert.Equal(t, pt(60), b.X)
	assert.Equal(t, pt(50), b.Width)
	assert.Equal(t, pt(20), tbl.Height)
}

func TestContentWidths(t *testing.T) {
	tbl := newTable()
	column(tbl, 1, layout.Auto)
	column(tbl, 1, pt(50))
	r := row(tbl)
	cell(r, 1, 1, 30, 10)
	cell(r, 1, 1, 10, 10)
	l := layout.NewLayouter(text.FixedMeasurer{}, New(), nil)
	minW, maxW, err := New().TableContentWidths(l, tbl)
	require.NoError(t, err)
	assert.Equal(t, pt(80), minW)
	assert.Equal(t, pt(80), maxW)
}

func TestRelayoutKeepsFinalizedColumns(t *testing.T) {
	tbl := newTable()
	col := column(tbl, 2, layout.Auto)
	r := row(tbl)
	cell(r, 2, 1, 40, 10)
	run(t, tbl, 100)
	first := append([]geom.Unit(nil), tbl.Table.ColumnWidths...)
	run(t, tbl, 100)
	assert.Equal(t, first, tbl.Table.ColumnWidths)
	assert.Equal(t, 0, col.ColumnIndex())
}

func TestCollapsedColumnFromStyle(t *testing.T) {
	f := resolver.NewFactory(nil, nil)
	require.NoError(t, f.Build())
	b := &layout.Builder{Resolver: f}

	tbl := report.NewBand(report.TypeTable, "t")
	group := report.NewBand(report.TypeTableColGroup, "cols")
	tbl.AddElement(group)
	for i := 0; i < 3; i++ {
		group.AddElement(report.NewElement(report.TypeTableCol, "col"))
	}
	group.Element(1).StyleSheet().Set(style.Visibility, style.Keyword("collapse"))
	body := report.NewBand(report.TypeTableBody, "body")
	tbl.AddElement(body)
	tr := report.NewBand(report.TypeTableRow, "row")
	body.AddElement(tr)
	for i := 0; i < 3; i++ {
		td := report.NewBand(report.TypeTableCell, "cell")
		box := report.NewElement(report.TypeRectangle, "box")
		box.StyleSheet().Set(style.Width, style.Points(30))
		box.StyleSheet().Set(style.Height, style.Points(10))
		td.AddElement(box)
		tr.AddElement(td)
	}

	n, err := b.Build(context.Background(), tbl, nil, nil, pt(300), nil)
	require.NoError(t, err)
	run(t, n, 300)

	assert.Equal(t, []geom.Unit{pt(150), 0, pt(150)}, n.Table.ColumnWidths)
	cells := layout.FindByType(n, layout.NodeTableCell)
	require.Len(t, cells, 3)
	assert.False(t, cells[1].Visible)
	assert.Equal(t, 2, cells[2].Cell.Col, "collapsed column keeps its index")
	assert.Equal(t, pt(150), cells[2].X)
	cols := layout.FindByType(n, layout.NodeTableCol)
	assert.False(t, cols[1].Visible)
}
