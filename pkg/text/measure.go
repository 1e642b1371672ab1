// Package text measures and wraps text for layout.
package text

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/rivo/uniseg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// ErrFontUnavailable is returned when no face can be loaded for a font.
var ErrFontUnavailable = errors.New("font unavailable")

// Font selects a face.
type Font struct {
	Family string
	Size   float64
	Bold   bool
	Italic bool
}

// Measurer reports text extents in points.
type Measurer interface {
	Measure(s string, f Font) (width, height float64, err error)
	LineHeight(f Font) float64
}

// FixedMeasurer estimates every grapheme as 0.6em wide. It never fails and
// never touches font files.
type FixedMeasurer struct{}

func (FixedMeasurer) Measure(s string, f Font) (float64, float64, error) {
	return float64(uniseg.GraphemeClusterCount(s)) * f.Size * 0.6, f.Size * 1.2, nil
}

func (FixedMeasurer) LineHeight(f Font) float64 { return f.Size * 1.2 }

// GGMeasurer measures with real font faces. Faces come from the configured
// font files, then from the built-in Go fonts. When Strict is false a font
// that cannot be loaded falls back to the fixed estimate.
type GGMeasurer struct {
	// Files maps lower case family names to TrueType files. Bold and italic
	// variants use the keys "<family> bold", "<family> italic" and
	// "<family> bold italic".
	Files  map[string]string
	Strict bool

	mu    sync.Mutex
	faces map[Font]font.Face
	fonts map[string]*truetype.Font
}

func NewGGMeasurer(files map[string]string, strict bool) *GGMeasurer {
	return &GGMeasurer{
		Files:  files,
		Strict: strict,
		faces:  make(map[Font]font.Face),
		fonts:  make(map[string]*truetype.Font),
	}
}

func (m *GGMeasurer) Measure(s string, f Font) (float64, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	face, err := m.face(f)
	if err != nil {
		if m.Strict {
			return 0, 0, err
		}
		return FixedMeasurer{}.Measure(s, f)
	}
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(face)
	w, _ := dc.MeasureString(s)
	return w, m.lineHeight(face, f), nil
}

func (m *GGMeasurer) LineHeight(f Font) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	face, err := m.face(f)
	if err != nil {
		return f.Size * 1.2
	}
	return m.lineHeight(face, f)
}

func (m *GGMeasurer) lineHeight(face font.Face, f Font) float64 {
	h := float64(face.Metrics().Height) / 64
	if h <= 0 {
		return f.Size * 1.2
	}
	return h
}

// Face returns the face for f. Faces are cached and shared; callers must
// not use them from several goroutines at once.
func (m *GGMeasurer) Face(f Font) (font.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.face(f)
}

func (m *GGMeasurer) face(f Font) (font.Face, error) {
	if face, ok := m.faces[f]; ok {
		return face, nil
	}
	if f.Size <= 0 {
		return nil, fmt.Errorf("%w: size %v", ErrFontUnavailable, f.Size)
	}
	family := strings.ToLower(strings.TrimSpace(f.Family))
	var face font.Face
	if path, ok := m.Files[variantKey(family, f.Bold, f.Italic)]; ok {
		loaded, err := gg.LoadFontFace(path, f.Size)
		if err != nil {
			if m.Strict {
				return nil, fmt.Errorf("%w: %s: %v", ErrFontUnavailable, path, err)
			}
		} else {
			face = loaded
		}
	}
	if face == nil {
		ttf, err := m.builtin(family, f.Bold, f.Italic)
		if err != nil {
			return nil, err
		}
		face = truetype.NewFace(ttf, &truetype.Options{Size: f.Size})
	}
	m.faces[f] = face
	return face, nil
}

func variantKey(family string, bold, italic bool) string {
	switch {
	case bold && italic:
		return family + " bold italic"
	case bold:
		return family + " bold"
	case italic:
		return family + " italic"
	}
	return family
}

func (m *GGMeasurer) builtin(family string, bold, italic bool) (*truetype.Font, error) {
	var name string
	var data []byte
	switch {
	case strings.Contains(family, "mono") && bold:
		name, data = "gomonobold", gomonobold.TTF
	case strings.Contains(family, "mono"):
		name, data = "gomono", gomono.TTF
	case strings.Contains(family, "medium") && italic:
		name, data = "gomediumitalic", gomediumitalic.TTF
	case strings.Contains(family, "medium"):
		name, data = "gomedium", gomedium.TTF
	case bold && italic:
		name, data = "gobolditalic", gobolditalic.TTF
	case bold:
		name, data = "gobold", gobold.TTF
	case italic:
		name, data = "goitalic", goitalic.TTF
	default:
		name, data = "goregular", goregular.TTF
	}
	if f, ok := m.fonts[name]; ok {
		return f, nil
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFontUnavailable, name, err)
	}
	m.fonts[name] = f
	return f, nil
}
