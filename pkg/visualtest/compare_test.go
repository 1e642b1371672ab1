package visualtest

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

func TestIdenticalImagesMatch(t *testing.T) {
	res, err := Compare(filled(10, 10, red), filled(10, 10, red), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, res.Match)
	assert.Zero(t, res.DifferentPixels)
	assert.Equal(t, 100, res.TotalPixels)
}

func TestDifferentImages(t *testing.T) {
	res, err := Compare(filled(10, 10, red), filled(10, 10, blue), Options{KeepDiff: true})
	require.NoError(t, err)
	assert.False(t, res.Match)
	assert.Equal(t, 100, res.DifferentPixels)
	assert.Equal(t, 255, res.MaxDifference)
	assert.Equal(t, red, res.Diff.RGBAAt(3, 3))

	path := filepath.Join(t.TempDir(), "diff.png")
	assert.NoError(t, res.SaveDiff(path))
}

func TestTolerance(t *testing.T) {
	res, err := Compare(filled(4, 4, color.RGBA{100, 100, 100, 255}), filled(4, 4, color.RGBA{102, 100, 99, 255}), Options{Tolerance: 2})
	require.NoError(t, err)
	assert.True(t, res.Match)
}

func TestFuzzyRadius(t *testing.T) {
	a := filled(10, 10, red)
	b := filled(10, 10, red)
	a.SetRGBA(5, 5, blue)
	b.SetRGBA(6, 5, blue)

	res, err := Compare(a, b, Options{})
	require.NoError(t, err)
	assert.False(t, res.Match)

	res, err = Compare(a, b, Options{FuzzyRadius: 1})
	require.NoError(t, err)
	assert.True(t, res.Match)
}

func TestMaxDifferentPercent(t *testing.T) {
	a := filled(10, 10, red)
	a.SetRGBA(0, 0, blue)
	res, err := Compare(a, filled(10, 10, red), Options{MaxDifferentPercent: 1})
	require.NoError(t, err)
	assert.True(t, res.Match)
	assert.Equal(t, 1, res.DifferentPixels)
}

func TestSizeMismatch(t *testing.T) {
	_, err := Compare(filled(2, 2, red), filled(3, 2, red), DefaultOptions())
	assert.ErrorIs(t, err, ErrSizeMismatch)
}
