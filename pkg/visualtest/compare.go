// Package visualtest compares rendered pages with expected images.
package visualtest

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
)

// Result describes how two images differ.
type Result struct {
	Match           bool
	DifferentPixels int
	TotalPixels     int
	// MaxDifference is the largest channel difference seen, 0-255.
	MaxDifference int
	// Diff marks differing pixels red over a gray copy of the actual image.
	Diff *image.RGBA
}

type Options struct {
	// Tolerance is the allowed difference per color channel.
	Tolerance int
	// FuzzyRadius lets a pixel match any expected pixel within the radius,
	// which absorbs one pixel shifts of glyph edges.
	FuzzyRadius int
	// MaxDifferentPercent accepts images with at most this share of
	// different pixels.
	MaxDifferentPercent float64
	// KeepDiff fills Result.Diff.
	KeepDiff bool
}

func DefaultOptions() Options {
	return Options{Tolerance: 2}
}

// ErrSizeMismatch is wrapped when the bounds of the images differ.
var ErrSizeMismatch = errors.New("image sizes differ")

// Compare compares actual with expected pixel by pixel.
func Compare(actual, expected image.Image, opts Options) (*Result, error) {
	ab, eb := actual.Bounds(), expected.Bounds()
	if ab.Size() != eb.Size() {
		return &Result{}, fmt.Errorf("%w: actual=%v, expected=%v", ErrSizeMismatch, ab, eb)
	}
	res := &Result{Match: true, TotalPixels: ab.Dx() * ab.Dy()}
	if opts.KeepDiff {
		res.Diff = image.NewRGBA(image.Rect(0, 0, ab.Dx(), ab.Dy()))
	}
	off := eb.Min.Sub(ab.Min)
	for y := ab.Min.Y; y < ab.Max.Y; y++ {
		for x := ab.Min.X; x < ab.Max.X; x++ {
			a := rgba8(actual.At(x, y))
			d := difference(a, rgba8(expected.At(x+off.X, y+off.Y)))
			res.MaxDifference = max(res.MaxDifference, d)
			same := d <= opts.Tolerance ||
				(opts.FuzzyRadius > 0 && fuzzyMatch(a, expected, x+off.X, y+off.Y, opts))
			if !same {
				res.Match = false
				res.DifferentPixels++
			}
			if res.Diff != nil {
				px := color.RGBA{a[0], a[0], a[0], 0xff}
				if !same {
					px = color.RGBA{0xff, 0, 0, 0xff}
				}
				res.Diff.SetRGBA(x-ab.Min.X, y-ab.Min.Y, px)
			}
		}
	}
	if !res.Match && opts.MaxDifferentPercent > 0 && res.TotalPixels > 0 {
		if float64(res.DifferentPixels)/float64(res.TotalPixels)*100 <= opts.MaxDifferentPercent {
			res.Match = true
		}
	}
	return res, nil
}

// SaveDiff writes the diff image of r to path.
func (r *Result) SaveDiff(path string) error {
	if r.Diff == nil {
		return errors.New("no diff image kept")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return gg.SavePNG(path, r.Diff)
}

func fuzzyMatch(a [4]uint8, expected image.Image, x, y int, opts Options) bool {
	b := expected.Bounds()
	r := opts.FuzzyRadius
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			p := image.Pt(x+dx, y+dy)
			if !p.In(b) {
				continue
			}
			if difference(a, rgba8(expected.At(p.X, p.Y))) <= opts.Tolerance {
				return true
			}
		}
	}
	return false
}

func rgba8(c color.Color) [4]uint8 {
	r, g, b, a := c.RGBA()
	return [4]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func difference(a, b [4]uint8) int {
	d := 0
	for i := range a {
		d = max(d, abs(int(a[i])-int(b[i])))
	}
	return d
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
