package raster

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
	"pressroom/pkg/report"
	"pressroom/pkg/text"
	"pressroom/pkg/visualtest"
)

type basicFaces struct{}

func (basicFaces) Face(text.Font) (font.Face, error) { return basicfont.Face7x13, nil }

var red = color.RGBA{R: 0xff, A: 0xff}

func testPage(n int) *layout.LogicalPageBox {
	page := layout.NewLogicalPage(n, report.PageDefinition{
		Paper:   geom.PaperSize{Name: "test", Width: 100, Height: 50},
		Margins: geom.Uniform(geom.PtInt(10)),
	})
	b := layout.NewBox(layout.NodeBlock, 1, report.TypeRectangle, nil, nil, nil)
	b.Width, b.Height = geom.PtInt(20), geom.PtInt(20)
	b.Def.Background = red
	layout.StackArea(page.Content, b)
	return page
}

func TestSizeFollowsDPI(t *testing.T) {
	page := testPage(1)
	w, h := NewRenderer(72, basicFaces{}).Size(page)
	assert.Equal(t, []int{100, 50}, []int{w, h})
	w, h = NewRenderer(144, basicFaces{}).Size(page)
	assert.Equal(t, []int{200, 100}, []int{w, h})
}

func TestBackgroundIsPainted(t *testing.T) {
	img := NewRenderer(72, basicFaces{}).Render(testPage(1))

	assert.Equal(t, red, color.RGBAModel.Convert(img.At(15, 15)))
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, color.RGBAModel.Convert(img.At(5, 5)))
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, color.RGBAModel.Convert(img.At(35, 15)))
}

func TestPageMatchesHandDrawnImage(t *testing.T) {
	want := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			c := color.RGBA{0xff, 0xff, 0xff, 0xff}
			if x >= 20 && x < 60 && y >= 20 && y < 60 {
				c = red
			}
			want.SetRGBA(x, y, c)
		}
	}
	got := NewRenderer(144, basicFaces{}).Render(testPage(1))
	res, err := visualtest.Compare(got, want, visualtest.Options{Tolerance: 2, FuzzyRadius: 1})
	require.NoError(t, err)
	assert.True(t, res.Match, "%d pixels differ", res.DifferentPixels)
}

func TestInvisibleBoxesAreSkipped(t *testing.T) {
	page := testPage(1)
	page.Content.Children[0].Visible = false
	img := NewRenderer(72, basicFaces{}).Render(page)
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, color.RGBAModel.Convert(img.At(15, 15)))
}

func TestBorderIsPainted(t *testing.T) {
	page := testPage(1)
	b := page.Content.Children[0]
	b.Def.Background = color.RGBA{}
	b.Def.Border = geom.Uniform(geom.PtInt(4))
	for i := range b.Def.BorderStyles {
		b.Def.BorderStyles[i] = "solid"
	}
	img := NewRenderer(72, basicFaces{}).Render(page)

	black := color.RGBA{A: 0xff}
	assert.Equal(t, black, color.RGBAModel.Convert(img.At(12, 20)), "left border")
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, color.RGBAModel.Convert(img.At(20, 20)), "inside")
}

func TestEdgesPreferCollapsedBorders(t *testing.T) {
	n := layout.NewBox(layout.NodeTableCell, 1, report.TypeTableCell, nil, nil, nil)
	n.Def.Border = geom.Uniform(geom.PtInt(1))
	n.Def.BorderStyles = [4]string{"solid", "solid", "solid", "solid"}
	assert.Equal(t, geom.PtInt(1), Edges(n)[2].Width)

	collapsed := [4]layout.BorderEdge{{Width: geom.PtInt(3), Style: "double"}}
	n.Borders = &collapsed
	assert.Equal(t, geom.PtInt(3), Edges(n)[0].Width)
	assert.Equal(t, "double", Edges(n)[0].Style)
}

func TestSinkWritesAndDiscards(t *testing.T) {
	dir := t.TempDir()
	s := NewSink(dir, NewRenderer(72, basicFaces{}))
	ctx := context.Background()
	require.NoError(t, s.ProcessPage(ctx, testPage(1), 2))
	require.NoError(t, s.ProcessPage(ctx, testPage(2), 2))
	require.NoError(t, s.Close())

	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "page-001.png"),
		filepath.Join(dir, "page-002.png"),
	}, s.Files())
	_, err := os.Stat(filepath.Join(dir, "page-002.png"))
	require.NoError(t, err)

	s.Discard()
	_, err = os.Stat(filepath.Join(dir, "page-001.png"))
	assert.True(t, os.IsNotExist(err))
}
