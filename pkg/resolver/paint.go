package resolver

import (
	"fmt"

	"pressroom/pkg/style"
)

// Border widths of the thin, medium and thick keywords in points.
const (
	BorderThin   = 0.5
	BorderMedium = 1
	BorderThick  = 2
)

// colorHandler resolves currentcolor and color keywords. For the color key
// itself currentcolor refers to the parent's color.
var colorHandler = HandlerFunc{
	Requires: []*style.Key{style.TextColor},
	Fn: func(doc DocumentContext, el LayoutElement, key *style.Key) error {
		ls := el.LayoutStyle()
		v := ls.Value(key)
		if v.Type != style.TypeKeyword {
			if v.Type == style.TypeColor {
				return nil
			}
			return fmt.Errorf("invalid color %v", v)
		}
		if v.Str == "currentcolor" {
			src := ls
			if key == style.TextColor {
				p := el.ParentElement()
				if p == nil {
					ls.SetValue(key, style.ColorValue(defaultInk))
					return nil
				}
				src = p.LayoutStyle()
			}
			c := src.Value(style.TextColor)
			if c.Type != style.TypeColor {
				c = style.ColorValue(defaultInk)
			}
			ls.SetValue(key, c)
			return nil
		}
		c, ok := style.ParseColor(v.Str)
		if !ok {
			return fmt.Errorf("invalid color %q", v.Str)
		}
		ls.SetValue(key, style.ColorValue(c))
		return nil
	},
}

// borderWidthHandler resolves one side's border width. A side without a
// visible border style has zero width.
func borderWidthHandler(styleKey *style.Key) Handler {
	return HandlerFunc{
		Requires: []*style.Key{styleKey, style.FontSize},
		Fn: func(doc DocumentContext, el LayoutElement, key *style.Key) error {
			ls := el.LayoutStyle()
			bs := ls.Value(styleKey)
			if bs.IsKeyword("none") || bs.IsKeyword("hidden") || !bs.IsSet() {
				ls.SetValue(key, style.Points(0))
				return nil
			}
			v := ls.Value(key)
			switch {
			case v.IsKeyword("thin"):
				ls.SetValue(key, style.Points(BorderThin))
			case v.IsKeyword("medium"):
				ls.SetValue(key, style.Points(BorderMedium))
			case v.IsKeyword("thick"):
				ls.SetValue(key, style.Points(BorderThick))
			case v.Type == style.TypeLength:
				if err := convertLength(doc, el, key); err != nil {
					return err
				}
				if pt, _ := ls.Points(key); pt < 0 {
					return fmt.Errorf("negative border width %v", pt)
				}
			default:
				return fmt.Errorf("invalid border width %v", v)
			}
			return nil
		},
	}
}

// LineHeightNormal is the factor applied to the font size for "normal".
const LineHeightNormal = 1.2

var lineHeightHandler = HandlerFunc{
	Requires: []*style.Key{style.FontSize},
	Fn: func(doc DocumentContext, el LayoutElement, key *style.Key) error {
		ls := el.LayoutStyle()
		v := ls.Value(key)
		fs := fontSizeOf(doc, el)
		switch v.Type {
		case style.TypeKeyword:
			ls.SetValue(key, style.Points(fs*LineHeightNormal))
		case style.TypeNumber:
			ls.SetValue(key, style.Points(fs*v.Num))
		case style.TypePercentage:
			ls.SetValue(key, style.Points(fs*v.Num/100))
		case style.TypeLength:
			return convertLength(doc, el, key)
		default:
			return fmt.Errorf("invalid line height %v", v)
		}
		return nil
	},
}
