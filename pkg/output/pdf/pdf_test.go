package pdf

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
	"pressroom/pkg/report"
	"pressroom/pkg/text"
)

func testPage(n int, content string) *layout.LogicalPageBox {
	page := layout.NewLogicalPage(n, report.PageDefinition{
		Paper:   geom.PaperSize{Name: "test", Width: 200, Height: 100},
		Margins: geom.Uniform(geom.PtInt(10)),
	})
	para := layout.NewBox(layout.NodeParagraph, 1, report.TypeMessage, nil, nil, nil)
	para.Width, para.Height = geom.PtInt(100), geom.PtInt(12)
	para.Def.Background = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	line := layout.NewBox(layout.NodeLine, 0, report.TypeMessage, nil, nil, nil)
	line.Width, line.Height = geom.PtInt(100), geom.PtInt(12)
	line.Line = &layout.Line{Baseline: geom.PtInt(10)}
	t := layout.NewBox(layout.NodeText, 0, report.TypeMessage, nil, nil, nil)
	t.Content = content
	t.Font = text.Font{Family: "sans-serif", Size: 10}
	t.Width, t.Height = geom.PtInt(40), geom.PtInt(12)
	line.AddChild(t)
	para.AddChild(line)

	img := layout.NewBox(layout.NodeImage, 2, report.TypeImage, nil, nil, nil)
	img.Image = image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Width, img.Height = geom.PtInt(20), geom.PtInt(20)
	layout.StackArea(page.Content, para, img)
	return page
}

func TestPagesAreWritten(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf, "Sales")
	s.Compress = false
	ctx := context.Background()
	require.NoError(t, s.ProcessPage(ctx, testPage(1, "Hello"), 2))
	require.NoError(t, s.ProcessPage(ctx, testPage(2, "World"), 2))
	assert.Equal(t, 2, s.PageCount())
	require.NoError(t, s.Close())

	out := buf.String()
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, out, "(Hello) Tj")
	assert.Contains(t, out, "(World) Tj")
	assert.Contains(t, out, "/MediaBox [0 0 200.00 100.00]")
}

func TestEmptyDocumentHasOnePage(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf, "")
	require.NoError(t, s.Close())
	assert.Equal(t, 1, s.PageCount())
	assert.NotZero(t, buf.Len())
}

func TestDiscardWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf, "")
	require.NoError(t, s.ProcessPage(context.Background(), testPage(1, "x"), 1))
	s.Discard()
	assert.Zero(t, buf.Len())
	assert.Zero(t, s.PageCount())
}

func TestCoreFonts(t *testing.T) {
	for _, tc := range []struct {
		font          text.Font
		family, style string
	}{
		{text.Font{Family: "sans-serif"}, "Helvetica", ""},
		{text.Font{Family: "serif", Bold: true}, "Times", "B"},
		{text.Font{Family: "Courier New", Bold: true, Italic: true}, "Courier", "BI"},
		{text.Font{Family: "monospace", Italic: true}, "Courier", "I"},
	} {
		f, s := coreFont(tc.font)
		assert.Equal(t, tc.family, f, tc.font.Family)
		assert.Equal(t, tc.style, s, tc.font.Family)
	}
}
