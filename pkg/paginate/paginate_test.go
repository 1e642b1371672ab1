package paginate

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
	"pressroom/pkg/report"
	"pressroom/pkg/state"
	"pressroom/pkg/style"
)

func pt(v int) geom.Unit { return geom.PtInt(v) }

// 200x300 paper with 10pt margins leaves 280pt of content height.
var smallPage = report.PageDefinition{
	Paper:   geom.PaperSize{Name: "test", Width: 200, Height: 300},
	Margins: geom.Uniform(geom.PtInt(10)),
}

func box(h int) *layout.RenderNode {
	b := layout.NewBox(layout.NodeBlock, report.NewInstanceID(), report.TypeBand, nil, nil, nil)
	b.Width, b.Height = pt(180), pt(h)
	return b
}

// styled gives b a resolved style with the given boolean keys set.
func styled(b *layout.RenderNode, keys ...*style.Key) *layout.RenderNode {
	values := make([]style.Value, style.DefaultRegistry.Len())
	for _, k := range keys {
		values[k.Index] = style.Bool(true)
	}
	b.Style = style.NewResolvedStyleSheet(values)
	return b
}

func key(row int) state.Key { return state.Key{Path: "master", Row: row, Event: "item"} }

func addAll(t *testing.T, p *Paginator, boxes ...*layout.RenderNode) []*layout.LogicalPageBox {
	t.Helper()
	var pages []*layout.LogicalPageBox
	for i, b := range boxes {
		done, err := p.Add(b, key(i))
		require.NoError(t, err)
		pages = append(pages, done...)
	}
	last, err := p.Finish()
	require.NoError(t, err)
	return append(pages, last...)
}

func TestBoxesFlowOntoNextPage(t *testing.T) {
	p := New(smallPage, nil)
	pages := addAll(t, p, box(100), box(100), box(100))

	require.Len(t, pages, 2)
	assert.Len(t, pages[0].Content.Children, 2)
	assert.Len(t, pages[1].Content.Children, 1)
	assert.Equal(t, 2, pages[1].Number)
	assert.Equal(t, []state.Key{key(0), key(2)}, p.PageStarts())
}

func TestEmptyRunYieldsOnePage(t *testing.T) {
	p := New(smallPage, nil)
	p.Footer = func(page int) (*layout.RenderNode, error) { return box(20), nil }
	pages := addAll(t, p)
	require.Len(t, pages, 1)
	assert.Equal(t, pt(270), pages[0].Footer.Y)
}

func TestHeaderAndFooterReduceUsableHeight(t *testing.T) {
	p := New(smallPage, nil)
	var seen []int
	p.Header = func(page int) (*layout.RenderNode, error) {
		seen = append(seen, page)
		return box(40), nil
	}
	p.Footer = func(int) (*layout.RenderNode, error) { return box(40), nil }
	pages := addAll(t, p, box(100), box(100), box(100))

	// 200pt per page remain
	require.Len(t, pages, 2)
	assert.Equal(t, []int{1, 2}, seen)
	assert.Equal(t, pt(50), pages[0].Content.Y)
}

func TestPageBreakBeforeAndAfter(t *testing.T) {
	p := New(smallPage, nil)
	pages := addAll(t, p,
		box(10),
		styled(box(10), style.PageBreakBefore),
		styled(box(10), style.PageBreakAfter),
		box(10),
	)
	// the break-before box opens page 2 and the break-after box ends it
	require.Len(t, pages, 3)
	assert.Len(t, pages[0].Content.Children, 1)
	assert.Len(t, pages[1].Content.Children, 2)
	assert.Len(t, pages[2].Content.Children, 1)
}

func TestBreakBeforeOnEmptyPageIsIgnored(t *testing.T) {
	p := New(smallPage, nil)
	pages := addAll(t, p, styled(box(10), style.PageBreakBefore))
	assert.Len(t, pages, 1)
}

func TestSplitAtChildBoundary(t *testing.T) {
	b := box(0)
	for i := 0; i < 4; i++ {
		c := box(100)
		c.Y = pt(100 * i)
		b.AddChild(c)
	}
	b.Height = pt(400)

	p := New(smallPage, nil)
	pages := addAll(t, p, b)

	require.Len(t, pages, 2)
	head := pages[0].Content.Children[0]
	tail := pages[1].Content.Children[0]
	assert.Len(t, head.Children, 2)
	assert.Equal(t, pt(200), head.Height)
	require.Len(t, tail.Children, 2)
	assert.Equal(t, pt(0), tail.Children[0].Y)
	assert.Equal(t, pt(200), tail.Height)
	assert.Len(t, b.Children, 4, "the original box is untouched")
}

func TestKeepTogetherMovesBoxToNextPage(t *testing.T) {
	b := styled(box(200), style.AvoidPageBreak)
	for i := 0; i < 2; i++ {
		c := box(100)
		c.Y = pt(100 * i)
		b.AddChild(c)
	}
	p := New(smallPage, nil)
	pages := addAll(t, p, box(150), b)

	require.Len(t, pages, 2)
	assert.Len(t, pages[0].Content.Children, 1)
	assert.Same(t, b, pages[1].Content.Children[0])
}

func TestOversizeBoxIsPlacedAloneWithWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := New(smallPage, logger)
	pages := addAll(t, p, box(10), styled(box(400), style.AvoidPageBreak), box(10))

	require.Len(t, pages, 3)
	assert.Equal(t, pt(400), pages[1].Content.Height)
	assert.Contains(t, buf.String(), "box taller than the page content area")
}

func TestRepeatedBoxesOnOverflowPages(t *testing.T) {
	p := New(smallPage, nil)
	p.Repeat = []*layout.RenderNode{box(30)}
	pages := addAll(t, p, box(200), box(200))

	require.Len(t, pages, 2)
	assert.Len(t, pages[0].Content.Children, 1)
	require.Len(t, pages[1].Content.Children, 2)
	assert.Equal(t, pt(30), pages[1].Content.Children[1].Y)
}
