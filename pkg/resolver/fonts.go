package resolver

import (
	"fmt"
	"math"
	"strings"

	"pressroom/pkg/config"
	"pressroom/pkg/style"
)

// ScaleLargerFactor returns the scaling factor of the smallest predefined
// size strictly greater than size, or the factor of the largest step.
func (m *OutputMetaData) ScaleLargerFactor(size float64) float64 {
	return m.factors[m.largerStep(size)]
}

// ScaleSmallerFactor returns the scaling factor of the largest predefined
// size strictly smaller than size, or the factor of the smallest step.
func (m *OutputMetaData) ScaleSmallerFactor(size float64) float64 {
	return m.factors[m.smallerStep(size)]
}

// LargerSize returns the predefined size chosen by ScaleLargerFactor.
func (m *OutputMetaData) LargerSize(size float64) float64 { return m.sizes[m.largerStep(size)] }

// SmallerSize returns the predefined size chosen by ScaleSmallerFactor.
func (m *OutputMetaData) SmallerSize(size float64) float64 { return m.sizes[m.smallerStep(size)] }

func (m *OutputMetaData) largerStep(size float64) int {
	for i, s := range m.sizes {
		if size < s {
			return i
		}
	}
	return len(m.sizes) - 1
}

func (m *OutputMetaData) smallerStep(size float64) int {
	for i := len(m.sizes) - 1; i >= 0; i-- {
		if size > m.sizes[i] {
			return i
		}
	}
	return 0
}

// predefinedSize maps xx-small..xx-large to points.
func (m *OutputMetaData) predefinedSize(kw string) (float64, bool) {
	for i, step := range config.SizeSteps {
		if step == kw {
			return m.sizes[i], true
		}
	}
	return 0, false
}

var fontSizeHandler = HandlerFunc{
	Fn: func(doc DocumentContext, el LayoutElement, key *style.Key) error {
		ls := el.LayoutStyle()
		v := ls.Value(key)
		meta := doc.OutputMetaData()
		parent := parentFontSize(doc, el)
		var size float64
		switch v.Type {
		case style.TypeKeyword:
			switch v.Str {
			case "larger":
				size = meta.LargerSize(parent)
			case "smaller":
				size = meta.SmallerSize(parent)
			default:
				s, ok := meta.predefinedSize(v.Str)
				if !ok {
					return fmt.Errorf("unknown font size %q", v.Str)
				}
				size = s
			}
		case style.TypePercentage:
			size = parent * v.Num / 100
		case style.TypeNumber:
			size = v.Num
		case style.TypeLength:
			pt, err := ToPoints(v, parent, meta.DeviceResolution)
			if err != nil {
				return err
			}
			size = pt
		default:
			return fmt.Errorf("invalid font size %v", v)
		}
		if size <= 0 || math.IsNaN(size) {
			return fmt.Errorf("font size %v must be positive", size)
		}
		ls.SetValue(key, style.Points(size))
		return nil
	},
}

// minMaxFontSizeHandler resolves min-font-size and max-font-size. Anything
// that is not a size leaves the bound open: 0pt for the minimum and
// math.MaxInt16 pt for the maximum.
var minMaxFontSizeHandler = HandlerFunc{
	Requires: []*style.Key{style.FontSize},
	Fn: func(doc DocumentContext, el LayoutElement, key *style.Key) error {
		ls := el.LayoutStyle()
		v := ls.Value(key)
		meta := doc.OutputMetaData()
		fs := fontSizeOf(doc, el)
		switch v.Type {
		case style.TypeLength:
			return convertLength(doc, el, key)
		case style.TypePercentage:
			ls.SetValue(key, style.Points(fs*v.Num/100))
			return nil
		case style.TypeKeyword:
			switch v.Str {
			case "larger":
				ls.SetValue(key, style.Points(meta.DefaultFontSize*meta.ScaleLargerFactor(fs)/100))
				return nil
			case "smaller":
				ls.SetValue(key, style.Points(meta.DefaultFontSize*meta.ScaleSmallerFactor(fs)/100))
				return nil
			}
			if s, ok := meta.predefinedSize(v.Str); ok {
				ls.SetValue(key, style.Points(s))
				return nil
			}
		}
		if key == style.MaxFontSize {
			ls.SetValue(key, style.Points(math.MaxInt16))
		} else {
			ls.SetValue(key, style.Points(0))
		}
		return nil
	},
}

// EffectiveFontSize clamps the font size of a resolved sheet to its min and
// max font size.
func EffectiveFontSize(rs *style.ResolvedStyleSheet) float64 {
	fs := rs.Points(style.FontSize)
	if lo, ok := rs.LengthProperty(style.MinFontSize); ok && fs < lo {
		fs = lo
	}
	if hi, ok := rs.LengthProperty(style.MaxFontSize); ok && hi > 0 && fs > hi {
		fs = hi
	}
	return fs
}

// fontFamilyHandler picks the first family of a comma separated list the
// output target knows, mapping generic families. "none" is kept and means no
// text. Everything else falls back to the default family.
var fontFamilyHandler = HandlerFunc{
	Requires: []*style.Key{style.FontWeight, style.FontVariant, style.FontSmooth, style.FontStretch},
	Fn: func(doc DocumentContext, el LayoutElement, key *style.Key) error {
		ls := el.LayoutStyle()
		v := ls.Value(key)
		meta := doc.OutputMetaData()
		var candidates []string
		switch v.Type {
		case style.TypeKeyword:
			if v.Str == "none" {
				return nil
			}
			candidates = []string{v.Str}
		case style.TypeString:
			candidates = strings.Split(v.Str, ",")
		}
		for _, c := range candidates {
			if fam, ok := meta.NormalizeFontFamily(c); ok {
				ls.SetValue(key, style.String(fam))
				return nil
			}
		}
		def, ok := meta.NormalizeFontFamily(meta.DefaultFontFamily)
		if !ok {
			def = meta.DefaultFontFamily
		}
		ls.SetValue(key, style.String(def))
		return nil
	},
}

var fontWeightHandler = HandlerFunc{
	Fn: func(doc DocumentContext, el LayoutElement, key *style.Key) error {
		ls := el.LayoutStyle()
		v := ls.Value(key)
		parent := 400.0
		if p := el.ParentElement(); p != nil {
			if pv := p.LayoutStyle().Value(key); pv.Type == style.TypeNumber {
				parent = pv.Num
			}
		}
		var w float64
		switch {
		case v.Type == style.TypeNumber:
			w = v.Num
		case v.IsKeyword("normal"):
			w = 400
		case v.IsKeyword("bold"):
			w = 700
		case v.IsKeyword("bolder"):
			switch {
			case parent < 400:
				w = 400
			case parent < 600:
				w = 700
			default:
				w = 900
			}
		case v.IsKeyword("lighter"):
			switch {
			case parent < 600:
				w = 100
			case parent < 800:
				w = 400
			default:
				w = 700
			}
		default:
			return fmt.Errorf("invalid font weight %v", v)
		}
		ls.SetValue(key, style.Number(math.Max(1, math.Min(1000, w))))
		return nil
	},
}
