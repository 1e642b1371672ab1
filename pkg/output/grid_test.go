package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
	"pressroom/pkg/report"
)

func para(s string, x, y, w, h int) *layout.RenderNode {
	n := layout.NewBox(layout.NodeParagraph, 0, report.TypeMessage, nil, nil, nil)
	n.Content = s
	n.X, n.Y = geom.PtInt(x), geom.PtInt(y)
	n.Width, n.Height = geom.PtInt(w), geom.PtInt(h)
	return n
}

func box(x, y int, children ...*layout.RenderNode) *layout.RenderNode {
	n := layout.NewBox(layout.NodeBlock, 0, report.TypeBand, nil, nil, nil)
	n.X, n.Y = geom.PtInt(x), geom.PtInt(y)
	for _, c := range children {
		n.AddChild(c)
	}
	return n
}

func page() *layout.LogicalPageBox {
	return layout.NewLogicalPage(1, report.PageDefinition{
		Paper:   geom.PaperSize{Name: "test", Width: 200, Height: 200},
		Margins: geom.Uniform(geom.PtInt(10)),
	})
}

func TestTextBoxesUseAbsoluteCoordinates(t *testing.T) {
	p := page()
	hidden := para("hidden", 0, 0, 10, 10)
	hidden.Visible = false
	p.Content.AddChild(box(5, 5, para("a", 10, 0, 20, 10), hidden, para("", 0, 0, 1, 1)))
	p.Header.AddChild(para("head", 0, 0, 10, 10))

	boxes := TextBoxes(p, false)
	require.Len(t, boxes, 1)
	assert.Equal(t, "a", boxes[0].Text)
	assert.Equal(t, geom.PtInt(25), boxes[0].Rect.X)
	assert.Equal(t, geom.PtInt(15), boxes[0].Rect.Y)

	assert.Len(t, TextBoxes(p, true), 2)
}

func TestGridFromEdges(t *testing.T) {
	p := page()
	p.Content.AddChild(box(0, 0,
		para("title", 0, 0, 60, 10),
		para("a", 0, 10, 30, 10),
		para("b", 30, 10, 30, 10),
	))
	g := NewGrid(TextBoxes(p, false))

	require.Len(t, g.Cells, 3)
	assert.Equal(t, Cell{TextBox: g.Cells[0].TextBox, Row: 0, Col: 0, RowSpan: 1, ColSpan: 2}, g.Cells[0])
	assert.Equal(t, [2]int{1, 1}, [2]int{g.Cells[2].Row, g.Cells[2].Col})
	assert.Equal(t, geom.PtInt(30), g.ColumnWidth(1))
	assert.Equal(t, geom.PtInt(10), g.RowHeight(0))
}

func TestGridMovesCollidingBoxesDown(t *testing.T) {
	p := page()
	p.Content.AddChild(box(0, 0, para("a", 0, 0, 30, 10), para("b", 0, 0, 30, 10)))
	g := NewGrid(TextBoxes(p, false))

	require.Len(t, g.Cells, 2)
	assert.Equal(t, 1, g.Cells[1].Row)
	assert.Len(t, g.Rows, 3)
	assert.Equal(t, geom.Unit(0), g.RowHeight(1))
}
