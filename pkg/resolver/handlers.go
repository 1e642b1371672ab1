package resolver

import (
	"fmt"
	"image/color"

	"pressroom/pkg/style"
)

var defaultInk = color.RGBA{A: 255}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc struct {
	Requires []*style.Key
	Fn       func(doc DocumentContext, el LayoutElement, key *style.Key) error
}

func (h HandlerFunc) RequiredStyles() []*style.Key { return h.Requires }

func (h HandlerFunc) Resolve(doc DocumentContext, el LayoutElement, key *style.Key) error {
	return h.Fn(doc, el, key)
}

// ToPoints converts a length to points. em lengths are relative to fontSize.
func ToPoints(v style.Value, fontSize, dpi float64) (float64, error) {
	if v.Type != style.TypeLength {
		return 0, fmt.Errorf("%v is not a length", v)
	}
	switch v.Unit {
	case style.UnitPt:
		return v.Num, nil
	case style.UnitPx:
		if dpi <= 0 {
			dpi = 72
		}
		return v.Num * 72 / dpi, nil
	case style.UnitMm:
		return v.Num * 72 / 25.4, nil
	case style.UnitCm:
		return v.Num * 72 / 2.54, nil
	case style.UnitIn:
		return v.Num * 72, nil
	case style.UnitEm:
		return v.Num * fontSize, nil
	}
	return 0, fmt.Errorf("unknown unit in %v", v)
}

func fontSizeOf(doc DocumentContext, el LayoutElement) float64 {
	if el == nil {
		return doc.OutputMetaData().DefaultFontSize
	}
	if fs, ok := el.LayoutStyle().Points(style.FontSize); ok && fs > 0 {
		return fs
	}
	return doc.OutputMetaData().DefaultFontSize
}

func parentFontSize(doc DocumentContext, el LayoutElement) float64 {
	return fontSizeOf(doc, el.ParentElement())
}

// convertLength converts non-point lengths in place.
func convertLength(doc DocumentContext, el LayoutElement, key *style.Key) error {
	ls := el.LayoutStyle()
	v := ls.Value(key)
	if v.Type != style.TypeLength || v.Unit == style.UnitPt {
		return nil
	}
	pt, err := ToPoints(v, fontSizeOf(doc, el), doc.OutputMetaData().DeviceResolution)
	if err != nil {
		return err
	}
	ls.SetValue(key, style.Points(pt))
	return nil
}

var lengthHandler = HandlerFunc{
	Requires: []*style.Key{style.FontSize},
	Fn:       convertLength,
}

// percentageHandler resolves percentages against the containing block. An
// unknown basis yields unknown, which is auto for keys that allow it and
// zero otherwise.
func percentageHandler(vertical bool) Handler {
	return HandlerFunc{Fn: func(doc DocumentContext, el LayoutElement, key *style.Key) error {
		ls := el.LayoutStyle()
		v := ls.Value(key)
		if v.Type != style.TypePercentage {
			return nil
		}
		basis := el.ContainingBlockWidth()
		if vertical {
			basis = -1
			if hc, ok := el.(heightContext); ok {
				basis = hc.ContainingBlockHeight()
			}
		}
		if basis < 0 {
			if key.Resolved.Has(style.TypeAuto) {
				ls.SetValue(key, style.Auto)
			} else {
				ls.SetValue(key, style.Points(0))
			}
			return nil
		}
		ls.SetValue(key, style.Points(basis*v.Num/100))
		return nil
	}}
}

// widthAutoHandler stretches auto widths to the containing block inside
// block layouts. In other layouts auto width means shrink to fit and is left
// for the layouter.
var widthAutoHandler = HandlerFunc{
	Requires: []*style.Key{style.MarginLeft, style.MarginRight},
	Fn: func(doc DocumentContext, el LayoutElement, key *style.Key) error {
		cb := el.ContainingBlockWidth()
		if cb < 0 {
			return nil
		}
		if p := el.ParentElement(); p != nil && !p.LayoutStyle().Value(style.Layout).IsKeyword(style.LayoutBlock) {
			return nil
		}
		ls := el.LayoutStyle()
		ml, _ := ls.Points(style.MarginLeft)
		mr, _ := ls.Points(style.MarginRight)
		w := cb - ml - mr
		if w < 0 {
			w = 0
		}
		ls.SetValue(key, style.Points(w))
		return nil
	},
}

func (f *Factory) register(key *style.Key, stage Stage, h Handler) {
	if err := f.Register(key, stage, h); err != nil {
		f.logger.Debug("skipping default resolve handler", "key", key.Name, "err", err)
	}
}

func (f *Factory) registerDefaults() {
	horizontal := []*style.Key{style.Width, style.MinWidth, style.MaxWidth, style.PosX}
	vertical := []*style.Key{style.Height, style.MinHeight, style.MaxHeight, style.PosY}
	for _, k := range horizontal {
		f.register(k, StageComputed, lengthHandler)
		f.register(k, StagePercentage, percentageHandler(false))
	}
	for _, k := range vertical {
		f.register(k, StageComputed, lengthHandler)
		f.register(k, StagePercentage, percentageHandler(true))
	}
	f.register(style.Width, StageAuto, widthAutoHandler)
	for _, side := range style.Sides {
		for _, k := range []*style.Key{side.Margin, side.Padding} {
			f.register(k, StageComputed, lengthHandler)
			f.register(k, StagePercentage, percentageHandler(false))
		}
		f.register(side.BorderWidth, StageComputed, borderWidthHandler(side.BorderStyle))
		f.register(side.BorderColor, StageComputed, colorHandler)
	}
	f.register(style.BorderSpacing, StageComputed, lengthHandler)

	f.register(style.FontSize, StageComputed, fontSizeHandler)
	f.register(style.MinFontSize, StageComputed, minMaxFontSizeHandler)
	f.register(style.MaxFontSize, StageComputed, minMaxFontSizeHandler)
	f.register(style.FontFamily, StageComputed, fontFamilyHandler)
	f.register(style.FontWeight, StageComputed, fontWeightHandler)
	f.register(style.LineHeight, StageComputed, lineHeightHandler)

	f.register(style.TextColor, StageComputed, colorHandler)
	f.register(style.BackgroundColor, StageComputed, colorHandler)
}
