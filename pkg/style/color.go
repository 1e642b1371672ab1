package style

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var namedColors = map[string]color.RGBA{
	"black":   {0, 0, 0, 255},
	"white":   {255, 255, 255, 255},
	"red":     {255, 0, 0, 255},
	"green":   {0, 128, 0, 255},
	"blue":    {0, 0, 255, 255},
	"yellow":  {255, 255, 0, 255},
	"cyan":    {0, 255, 255, 255},
	"aqua":    {0, 255, 255, 255},
	"magenta": {255, 0, 255, 255},
	"fuchsia": {255, 0, 255, 255},
	"gray":    {128, 128, 128, 255},
	"grey":    {128, 128, 128, 255},
	"silver":  {192, 192, 192, 255},
	"maroon":  {128, 0, 0, 255},
	"olive":   {128, 128, 0, 255},
	"orange":  {255, 165, 0, 255},
	"purple":  {128, 0, 128, 255},
	"pink":    {255, 192, 203, 255},
	"brown":   {165, 42, 42, 255},
	"lime":    {0, 255, 0, 255},
	"navy":    {0, 0, 128, 255},
	"teal":    {0, 128, 128, 255},

	"lightgray": {211, 211, 211, 255},
	"darkgray":  {169, 169, 169, 255},
}

// ParseColor parses named colors, #rgb, #rrggbb, rgb(), rgba() and hsl().
// "transparent" is fully transparent black.
func ParseColor(s string) (color.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "transparent" {
		return color.RGBA{}, true
	}
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s[1:])
	}
	if strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(") {
		return parseRGBFunc(s)
	}
	if strings.HasPrefix(s, "hsl(") {
		return parseHSLFunc(s)
	}
	return color.RGBA{}, false
}

// parseHSLFunc handles hsl(h, s%, l%).
func parseHSLFunc(s string) (color.RGBA, bool) {
	if !strings.HasSuffix(s, ")") {
		return color.RGBA{}, false
	}
	parts := strings.Split(s[len("hsl("):len(s)-1], ",")
	if len(parts) != 3 {
		return color.RGBA{}, false
	}
	var v [3]float64
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i > 0 {
			if !strings.HasSuffix(p, "%") {
				return color.RGBA{}, false
			}
			p = strings.TrimSuffix(p, "%")
		}
		n, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return color.RGBA{}, false
		}
		v[i] = n
	}
	if v[1] < 0 || v[1] > 100 || v[2] < 0 || v[2] > 100 {
		return color.RGBA{}, false
	}
	r, g, b := colorful.Hsl(v[0], v[1]/100, v[2]/100).Clamped().RGB255()
	return color.RGBA{r, g, b, 255}, true
}

func parseHexColor(h string) (color.RGBA, bool) {
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	case 6:
	default:
		return color.RGBA{}, false
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{uint8(n >> 16), uint8(n >> 8), uint8(n), 255}, true
}

func parseRGBFunc(s string) (color.RGBA, bool) {
	open := strings.IndexByte(s, '(')
	if !strings.HasSuffix(s, ")") {
		return color.RGBA{}, false
	}
	parts := strings.Split(s[open+1:len(s)-1], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, false
	}
	var ch [4]uint8
	ch[3] = 255
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i == 3 {
			a, err := strconv.ParseFloat(p, 64)
			if err != nil || a < 0 || a > 1 {
				return color.RGBA{}, false
			}
			ch[3] = uint8(a*255 + 0.5)
			continue
		}
		scale := 1.0
		if strings.HasSuffix(p, "%") {
			p = strings.TrimSuffix(p, "%")
			scale = 2.55
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 || v*scale > 255 {
			return color.RGBA{}, false
		}
		ch[i] = uint8(v*scale + 0.5)
	}
	// image/color uses premultiplied alpha
	a := uint32(ch[3])
	return color.RGBA{
		R: uint8(uint32(ch[0]) * a / 255),
		G: uint8(uint32(ch[1]) * a / 255),
		B: uint8(uint32(ch[2]) * a / 255),
		A: ch[3],
	}, true
}
