package resolver

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressroom/pkg/config"
	"pressroom/pkg/style"
)

func syntheticModules(r *rand.Rand, n int) []*Module {
	reg := style.NewRegistry()
	keys := make([]*style.Key, n)
	for i := range keys {
		keys[i] = reg.Register(style.Key{Name: fmt.Sprintf("k%d", i), Domain: style.DomainOf(style.TypeNumber)})
	}
	// edges only point from later to earlier positions of a random
	// permutation, so the graph is acyclic
	perm := r.Perm(n)
	mods := make([]*Module, n)
	for pos, idx := range perm {
		var req []*style.Key
		for j := 0; j < pos; j++ {
			if r.Intn(4) == 0 {
				req = append(req, keys[perm[j]])
			}
		}
		mods[pos] = &Module{Key: keys[idx], Computed: HandlerFunc{Requires: req}}
	}
	r.Shuffle(n, func(i, j int) { mods[i], mods[j] = mods[j], mods[i] })
	return mods
}

func TestSortRespectsRequirements(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for round := 0; round < 50; round++ {
		mods := syntheticModules(r, 5+r.Intn(30))
		order, err := Sort(mods)
		require.NoError(t, err)
		require.Len(t, order, len(mods))
		pos := map[*style.Key]int{}
		for i, m := range order {
			pos[m.Key] = i
		}
		for _, m := range order {
			for _, req := range m.RequiredStyles() {
				assert.Less(t, pos[req], pos[m.Key], "%s resolved before %s", m.Key.Name, req.Name)
			}
		}
	}
}

func TestSortIsDeterministic(t *testing.T) {
	mods := syntheticModules(rand.New(rand.NewSource(7)), 20)
	a, err := Sort(mods)
	require.NoError(t, err)
	reversed := make([]*Module, len(mods))
	for i, m := range mods {
		reversed[len(mods)-1-i] = m
	}
	b, err := Sort(reversed)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSortCycle(t *testing.T) {
	reg := style.NewRegistry()
	a := reg.Register(style.Key{Name: "a"})
	b := reg.Register(style.Key{Name: "b"})
	c := reg.Register(style.Key{Name: "c"})
	mods := []*Module{
		{Key: a, Computed: HandlerFunc{Requires: []*style.Key{b}}},
		{Key: b, Computed: HandlerFunc{Requires: []*style.Key{a}}},
		{Key: c, Computed: HandlerFunc{Requires: []*style.Key{c}}},
	}
	_, err := Sort(mods)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCyclicDependency))
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"a", "b"}, ce.Keys)
}

func TestFactoryBuildRejectsCycle(t *testing.T) {
	f := NewFactory(nil, nil, WithoutDefaults())
	require.NoError(t, f.Register(style.Width, StageComputed, HandlerFunc{Requires: []*style.Key{style.Height}}))
	require.NoError(t, f.Register(style.Height, StageAuto, HandlerFunc{Requires: []*style.Key{style.Width}}))
	assert.ErrorIs(t, f.Build(), ErrCyclicDependency)
}

func TestDefaultOrder(t *testing.T) {
	f := NewFactory(nil, nil)
	require.NoError(t, f.Build())
	pos := map[*style.Key]int{}
	for i, k := range f.Order() {
		pos[k] = i
	}
	assert.Less(t, pos[style.FontSize], pos[style.LineHeight])
	assert.Less(t, pos[style.FontSize], pos[style.MaxFontSize])
	assert.Less(t, pos[style.MarginLeft], pos[style.Width])
	assert.Less(t, pos[style.TextColor], pos[style.BorderLeftColor])
	assert.Less(t, pos[style.FontWeight], pos[style.FontFamily])

	assert.ErrorIs(t, f.Register(style.Width, StageAuto, widthAutoHandler), ErrFactoryBuilt)
}

func TestScaleFactors(t *testing.T) {
	meta := NewOutputMetaData(config.Default())
	sizes := meta.PredefinedSizes()
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		s := r.Float64() * 40
		larger := meta.LargerSize(s)
		assert.Contains(t, sizes[:], larger)
		want := sizes[6]
		for _, p := range sizes {
			if p > s {
				want = p
				break
			}
		}
		assert.Equal(t, want, larger, "larger of %v", s)
		assert.Equal(t, meta.DefaultFontSize*meta.ScaleLargerFactor(s)/100, larger)

		smaller := meta.SmallerSize(s)
		want = sizes[0]
		for j := 6; j >= 0; j-- {
			if sizes[j] < s {
				want = sizes[j]
				break
			}
		}
		assert.Equal(t, want, smaller, "smaller of %v", s)
	}
}

func TestScaleFactorsEdges(t *testing.T) {
	meta := NewOutputMetaData(config.Default())
	assert.Equal(t, 200.0, meta.ScaleLargerFactor(1000))
	assert.Equal(t, 60.0, meta.ScaleSmallerFactor(0))
	assert.Equal(t, 120.0, meta.ScaleLargerFactor(12))
	assert.Equal(t, 89.0, meta.ScaleSmallerFactor(12))
}

func resolve(t *testing.T, f *Factory, decl string, parent *style.ResolvedStyleSheet, cb float64) *style.ResolvedStyleSheet {
	t.Helper()
	sheet, err := style.NewParser(nil, nil).ParseDeclarations(decl)
	require.NoError(t, err)
	rs, err := f.ResolveElementStyle("test", sheet, parent, cb, -1)
	require.NoError(t, err)
	return rs
}

func TestResolveElementStyle(t *testing.T) {
	f := NewFactory(nil, nil)
	require.NoError(t, f.Build())

	root := resolve(t, f, "font-size: 12pt; color: #ff0000; layout: block", nil, 400)
	rs := resolve(t, f, `font-size: larger; width: 50%; padding: 2em 0;
		border-top: thin solid; border-bottom-width: thick; border-left: 1mm dotted blue`, root, 200)

	assert.InDelta(t, 14.4, rs.Points(style.FontSize), 1e-9)
	assert.Equal(t, 100.0, rs.Points(style.Width))
	assert.InDelta(t, 28.8, rs.Points(style.PaddingTop), 1e-9)
	assert.Equal(t, 0.0, rs.Points(style.PaddingLeft))
	assert.Equal(t, BorderThin, rs.Points(style.BorderTopWidth))
	assert.Equal(t, 0.0, rs.Points(style.BorderBottomWidth), "no border style")
	assert.InDelta(t, 72/25.4, rs.Points(style.BorderLeftWidth), 1e-9)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rs.Color(style.TextColor), "inherited")
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rs.Color(style.BorderTopColor), "currentcolor")
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, rs.Color(style.BorderLeftColor))
	assert.Equal(t, color.RGBA{}, rs.Color(style.BackgroundColor))
	assert.Equal(t, 0.0, rs.Points(style.MinFontSize))
	assert.Equal(t, float64(math.MaxInt16), rs.Points(style.MaxFontSize))
	assert.InDelta(t, 14.4*LineHeightNormal, rs.Points(style.LineHeight), 1e-9)
	assert.Equal(t, style.Number(400), rs.StyleProperty(style.FontWeight))
	assert.Equal(t, style.String("Go"), rs.StyleProperty(style.FontFamily))

	auto := resolve(t, f, "margin-left: 10pt; margin-right: 5%", root, 200)
	assert.Equal(t, 180.0, auto.Points(style.Width), "auto width fills the block")
}

func TestResolveAutoWidthOutsideBlock(t *testing.T) {
	f := NewFactory(nil, nil)
	require.NoError(t, f.Build())
	row := resolve(t, f, "layout: row", nil, 400)
	rs := resolve(t, f, "height: 50%", row, 300)
	assert.True(t, rs.IsAuto(style.Width))
	assert.True(t, rs.IsAuto(style.Height), "unknown height basis")
}

func TestMinMaxFontSize(t *testing.T) {
	f := NewFactory(nil, nil)
	require.NoError(t, f.Build())
	rs := resolve(t, f, "font-size: 10pt; min-font-size: larger; max-font-size: 150%", nil, -1)
	// the next step above 10pt is "small"
	assert.InDelta(t, 10.68, rs.Points(style.MinFontSize), 1e-9)
	assert.Equal(t, 15.0, rs.Points(style.MaxFontSize))
	assert.InDelta(t, 10.68, EffectiveFontSize(rs), 1e-9)
}

func TestFontWeightRelative(t *testing.T) {
	f := NewFactory(nil, nil)
	require.NoError(t, f.Build())
	root := resolve(t, f, "font-weight: bold", nil, -1)
	rs := resolve(t, f, "font-weight: bolder", root, -1)
	assert.Equal(t, style.Number(900), rs.StyleProperty(style.FontWeight))
	rs = resolve(t, f, "font-weight: lighter", root, -1)
	assert.Equal(t, style.Number(400), rs.StyleProperty(style.FontWeight))
}

func TestFontFamilyFallback(t *testing.T) {
	meta := NewOutputMetaData(config.Default())
	meta.Available = map[string]bool{"helvetica": true}
	f := NewFactory(nil, nil, WithOutputMetaData(meta))
	require.NoError(t, f.Build())

	rs := resolve(t, f, "font-family: Wingdings, Helvetica", nil, -1)
	assert.Equal(t, style.String("Helvetica"), rs.StyleProperty(style.FontFamily))
	rs = resolve(t, f, "font-family: monospace", nil, -1)
	assert.Equal(t, style.String("Go Mono"), rs.StyleProperty(style.FontFamily))
	rs = resolve(t, f, "font-family: Wingdings", nil, -1)
	assert.Equal(t, style.String("Go"), rs.StyleProperty(style.FontFamily))
}

func TestHandlerFailureFallsBack(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	f := NewFactory(nil, nil, WithLogger(logger))
	require.NoError(t, f.Register(style.Width, StageComputed, HandlerFunc{
		Fn: func(DocumentContext, LayoutElement, *style.Key) error { return errors.New("boom") },
	}))
	require.NoError(t, f.Build())

	rs := resolve(t, f, "width: 30pt; height: 20pt", nil, -1)
	assert.True(t, rs.IsAuto(style.Width))
	assert.Equal(t, 20.0, rs.Points(style.Height))
	assert.Contains(t, buf.String(), "style resolution failed")
	assert.Contains(t, buf.String(), "key=width")
}

func TestVerify(t *testing.T) {
	f := NewFactory(nil, nil)
	require.NoError(t, f.Build())
	sheet := style.NewElementStyleSheet()
	ls := f.Specify(sheet, nil)
	require.NoError(t, f.PerformResolve(f, &Node{Style: ls, CBWidth: -1, CBHeight: -1}))
	require.NoError(t, f.Verify(ls))

	ls.SetValue(style.Height, style.Length(1, style.UnitMm))
	assert.Error(t, f.Verify(ls))
}

func TestPerformResolveRequiresBuild(t *testing.T) {
	f := NewFactory(nil, nil)
	err := f.PerformResolve(f, &Node{Style: NewLayoutStyle(style.DefaultRegistry.Len())})
	assert.ErrorIs(t, err, ErrNotBuilt)
}
