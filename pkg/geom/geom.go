// Package geom holds the fixed-point geometry used by the layout engine.
//
// All box coordinates are stored as fixed.Int52_12 values in points, so
// repeated layout runs produce bit-identical results.
package geom

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// Unit is an internal layout length: points in 52.12 fixed point.
type Unit = fixed.Int52_12

const one = 1 << 12

// Pt converts a length in points to internal units.
func Pt(v float64) Unit {
	return Unit(math.Round(v * one))
}

// PtInt converts an integral point value to internal units.
func PtInt(v int) Unit {
	return Unit(int64(v) << 12)
}

// ToPt converts internal units back to points.
func ToPt(u Unit) float64 {
	return float64(u) / one
}

// MulDiv returns a*b/c rounded toward zero. A zero divisor yields zero.
func MulDiv(a, b, c Unit) Unit {
	if c == 0 {
		return 0
	}
	return Unit(int64(a) * int64(b) / int64(c))
}

// Scale multiplies u by a float factor.
func Scale(u Unit, f float64) Unit {
	return Unit(math.Round(float64(u) * f))
}

func Max(a, b Unit) Unit {
	if a > b {
		return a
	}
	return b
}

func Min(a, b Unit) Unit {
	if a < b {
		return a
	}
	return b
}

// Clamp limits u to [lo, hi]. A negative hi means unbounded.
func Clamp(u, lo, hi Unit) Unit {
	if u < lo {
		u = lo
	}
	if hi >= 0 && u > hi {
		u = hi
	}
	return u
}

// Insets are the four edge widths of a margin, border or padding area.
type Insets struct {
	Top    Unit
	Right  Unit
	Bottom Unit
	Left   Unit
}

// Horizontal returns Left+Right.
func (i Insets) Horizontal() Unit { return i.Left + i.Right }

// Vertical returns Top+Bottom.
func (i Insets) Vertical() Unit { return i.Top + i.Bottom }

// Add sums two insets edge by edge.
func (i Insets) Add(o Insets) Insets {
	return Insets{Top: i.Top + o.Top, Right: i.Right + o.Right, Bottom: i.Bottom + o.Bottom, Left: i.Left + o.Left}
}

// Uniform returns insets with the same width on every edge.
func Uniform(u Unit) Insets {
	return Insets{Top: u, Right: u, Bottom: u, Left: u}
}

// Rect is an axis aligned rectangle.
type Rect struct {
	X      Unit
	Y      Unit
	Width  Unit
	Height Unit
}

func (r Rect) Right() Unit  { return r.X + r.Width }
func (r Rect) Bottom() Unit { return r.Y + r.Height }

// Contains reports whether o lies completely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Union returns the smallest rectangle covering r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Width == 0 && r.Height == 0 {
		return o
	}
	x := Min(r.X, o.X)
	y := Min(r.Y, o.Y)
	return Rect{X: x, Y: y, Width: Max(r.Right(), o.Right()) - x, Height: Max(r.Bottom(), o.Bottom()) - y}
}
