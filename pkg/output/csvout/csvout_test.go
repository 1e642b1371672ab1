package csvout

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
	"pressroom/pkg/report"
)

func para(s string, x, y int) *layout.RenderNode {
	n := layout.NewBox(layout.NodeParagraph, 0, report.TypeMessage, nil, nil, nil)
	n.Content = s
	n.X, n.Y = geom.PtInt(x), geom.PtInt(y)
	n.Width, n.Height = geom.PtInt(30), geom.PtInt(10)
	return n
}

func testPage(n int, rows ...[]string) *layout.LogicalPageBox {
	p := layout.NewLogicalPage(n, report.PageDefinition{
		Paper:   geom.PaperSize{Name: "test", Width: 200, Height: 200},
		Margins: geom.Uniform(geom.PtInt(10)),
	})
	for r, row := range rows {
		for c, s := range row {
			if s != "" {
				p.Content.AddChild(para(s, c*30, r*10))
			}
		}
	}
	p.Footer.AddChild(para("page footer", 0, 0))
	return p
}

func TestRecordsFollowTheGrid(t *testing.T) {
	p := testPage(1, []string{"name", "qty"}, []string{"apple", "3"}, []string{"", "7"})
	assert.Equal(t, [][]string{{"name", "qty"}, {"apple", "3"}, {"", "7"}}, Records(p, false))
}

func TestSinkWritesAllPages(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf)
	s.Comma = ';'
	ctx := context.Background()
	require.NoError(t, s.ProcessPage(ctx, testPage(1, []string{"a", "b, c"}), 2))
	require.NoError(t, s.ProcessPage(ctx, testPage(2, []string{"d"}), 2))
	require.NoError(t, s.Close())
	assert.Equal(t, "a;b, c\nd\n", buf.String())
}

func TestPageBands(t *testing.T) {
	p := testPage(1, []string{"a"})
	assert.Equal(t, [][]string{{"a"}, {"page footer"}}, Records(p, true))
}
