package xlsx

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unidoc/unioffice/spreadsheet"

	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
	"pressroom/pkg/report"
	"pressroom/pkg/text"
)

func para(s string, x, y, w, h int) *layout.RenderNode {
	n := layout.NewBox(layout.NodeParagraph, 0, report.TypeMessage, nil, nil, nil)
	n.Content = s
	n.X, n.Y = geom.PtInt(x), geom.PtInt(y)
	n.Width, n.Height = geom.PtInt(w), geom.PtInt(h)
	return n
}

func testPage(n int) *layout.LogicalPageBox {
	p := layout.NewLogicalPage(n, report.PageDefinition{
		Paper:   geom.PaperSize{Name: "test", Width: 200, Height: 200},
		Margins: geom.Uniform(geom.PtInt(10)),
	})
	p.Content.AddChild(para("Customers", 0, 0, 60, 12))
	p.Content.AddChild(para("Alice", 0, 12, 30, 12))
	p.Content.AddChild(para("42", 30, 12, 30, 12))
	return p
}

func TestOneSheetPerPage(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf)
	ctx := context.Background()
	require.NoError(t, s.ProcessPage(ctx, testPage(1), 2))
	require.NoError(t, s.ProcessPage(ctx, testPage(2), 2))
	require.NoError(t, s.Close())

	wb, err := spreadsheet.Read(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	sheets := wb.Sheets()
	require.Len(t, sheets, 2)
	assert.Equal(t, "Page 2", sheets[1].Name())

	sh := sheets[0]
	assert.Equal(t, "Customers", sh.Cell("A1").GetString())
	assert.Equal(t, "Alice", sh.Cell("A2").GetString())
	assert.Equal(t, "42", sh.Cell("B2").GetString())
	require.NotNil(t, sh.X().MergeCells)
	assert.Equal(t, "A1:B1", sh.X().MergeCells.MergeCell[0].RefAttr)
}

func bold(n *layout.RenderNode) *layout.RenderNode {
	t := layout.NewBox(layout.NodeText, 0, report.TypeMessage, nil, nil, nil)
	t.Content = n.Content
	t.Font = text.Font{Size: 10, Bold: true}
	n.AddChild(t)
	return n
}

func TestBoldCellsShareAStyle(t *testing.T) {
	p := layout.NewLogicalPage(1, report.PageDefinition{
		Paper:   geom.PaperSize{Name: "test", Width: 200, Height: 200},
		Margins: geom.Uniform(geom.PtInt(10)),
	})
	p.Content.AddChild(bold(para("Name", 0, 0, 30, 12)))
	p.Content.AddChild(bold(para("Total", 30, 0, 30, 12)))
	p.Content.AddChild(para("Alice", 0, 12, 30, 12))

	var buf bytes.Buffer
	s := NewSink(&buf)
	require.NoError(t, s.ProcessPage(context.Background(), p, 1))
	require.NoError(t, s.Close())
	assert.Len(t, s.styles, 1)

	wb, err := spreadsheet.Read(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	sh := wb.Sheets()[0]
	name, total := sh.Cell("A1").X().SAttr, sh.Cell("B1").X().SAttr
	require.NotNil(t, name)
	require.NotNil(t, total)
	assert.Equal(t, *name, *total)
	assert.Equal(t, "Alice", sh.Cell("A2").GetString())
}

func TestEmptyWorkbookHasASheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSink(&buf).Close())
	wb, err := spreadsheet.Read(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Len(t, wb.Sheets(), 1)
}

func TestCellRef(t *testing.T) {
	assert.Equal(t, "A1", cellRef(0, 0))
	assert.Equal(t, "AA10", cellRef(9, 26))
}
