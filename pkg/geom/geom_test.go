package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPtRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, 100, 12.5, 595.28} {
		assert.InDelta(t, v, ToPt(Pt(v)), 1.0/4096, "value %v", v)
	}
	assert.Equal(t, Pt(100), PtInt(100))
}

func TestMulDiv(t *testing.T) {
	assert.Equal(t, Pt(75), MulDiv(Pt(150), Pt(1), Pt(2)))
	assert.Equal(t, Unit(0), MulDiv(Pt(150), Pt(1), 0))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, Pt(5), Clamp(Pt(1), Pt(5), Pt(10)))
	assert.Equal(t, Pt(10), Clamp(Pt(20), Pt(5), Pt(10)))
	assert.Equal(t, Pt(20), Clamp(Pt(20), Pt(5), -1))
}

func TestRectUnion(t *testing.T) {
	a := Rect{X: Pt(0), Y: Pt(0), Width: Pt(10), Height: Pt(10)}
	b := Rect{X: Pt(5), Y: Pt(20), Width: Pt(10), Height: Pt(5)}
	u := a.Union(b)
	assert.Equal(t, Rect{X: 0, Y: 0, Width: Pt(15), Height: Pt(25)}, u)
	assert.True(t, u.Contains(a))
	assert.True(t, u.Contains(b))
}

func TestLookupPaper(t *testing.T) {
	p, err := LookupPaper("a4")
	assert.NoError(t, err)
	assert.Equal(t, PaperA4, p)
	assert.Equal(t, p.Height, p.Landscape().Width)

	_, err = LookupPaper("B7")
	assert.Error(t, err)
}
