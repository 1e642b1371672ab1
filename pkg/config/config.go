// Package config holds the engine configuration. A Config is built once at
// startup and handed to the engine; nothing in pressroom reads global
// configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"pressroom/pkg/geom"
)

// SizeSteps are the predefined font size names, smallest first.
var SizeSteps = [7]string{"xx-small", "x-small", "small", "medium", "large", "x-large", "xx-large"}

type Config struct {
	Fonts  Fonts  `toml:"fonts"`
	Layout Layout `toml:"layout"`
	Page   Page   `toml:"page"`
	Output Output `toml:"output"`
	Log    Log    `toml:"log"`
}

type Fonts struct {
	DefaultFamily string  `toml:"default_family"`
	DefaultSize   float64 `toml:"default_size"`
	// SizeFactors holds the scaling factor in percent per size step.
	SizeFactors map[string]float64 `toml:"size_factors"`
	// Families maps generic family names to concrete ones.
	Families map[string]string `toml:"families"`
	// Files maps a family name to a TrueType file.
	Files map[string]string `toml:"files"`
}

type Layout struct {
	// LayoutWeight is the cost of the pagination pass in data passes.
	LayoutWeight     int     `toml:"layout_weight"`
	StructuralBudget float64 `toml:"structural_budget"`
	DeviceResolution float64 `toml:"device_resolution"`
	StrictText       bool    `toml:"strict_text"`
}

type Page struct {
	Paper        string  `toml:"paper"`
	Landscape    bool    `toml:"landscape"`
	MarginTop    float64 `toml:"margin_top"`
	MarginRight  float64 `toml:"margin_right"`
	MarginBottom float64 `toml:"margin_bottom"`
	MarginLeft   float64 `toml:"margin_left"`
}

type Output struct {
	Format string  `toml:"format"`
	DPI    float64 `toml:"dpi"`
	Locale string  `toml:"locale"`
}

type Log struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Fonts: Fonts{
			DefaultFamily: "sans-serif",
			DefaultSize:   12,
			SizeFactors: map[string]float64{
				"xx-small": 60,
				"x-small":  75,
				"small":    89,
				"medium":   100,
				"large":    120,
				"x-large":  150,
				"xx-large": 200,
			},
			Families: map[string]string{
				"serif":      "Go Medium",
				"sans-serif": "Go",
				"monospace":  "Go Mono",
				"cursive":    "Go",
				"fantasy":    "Go",
			},
			Files: map[string]string{},
		},
		Layout: Layout{
			LayoutWeight:     5,
			StructuralBudget: 10,
			DeviceResolution: 72,
		},
		Page: Page{
			Paper:        "A4",
			MarginTop:    36,
			MarginRight:  36,
			MarginBottom: 36,
			MarginLeft:   36,
		},
		Output: Output{
			Format: "pdf",
			DPI:    96,
			Locale: "en-US",
		},
		Log: Log{Level: "info"},
	}
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if err := c.LoadFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile overlays the values of a TOML file onto c.
func (c *Config) LoadFile(path string) error {
	p, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return c.Validate()
}

// Parse overlays TOML text onto c.
func (c *Config) Parse(text string) error {
	if err := toml.Unmarshal([]byte(text), c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return c.Validate()
}

// Validate checks values that would make layout impossible.
func (c *Config) Validate() error {
	if c.Fonts.DefaultSize <= 0 {
		return fmt.Errorf("config: fonts.default_size must be positive, got %v", c.Fonts.DefaultSize)
	}
	if c.Layout.LayoutWeight < 1 {
		return fmt.Errorf("config: layout.layout_weight must be at least 1, got %d", c.Layout.LayoutWeight)
	}
	if _, err := geom.LookupPaper(c.Page.Paper); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := &Config{}
	if err := copier.CopyWithOption(out, c, copier.Option{DeepCopy: true}); err != nil {
		// copying between identical struct types cannot fail
		panic(err)
	}
	return out
}

// Marshal encodes c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// FontSizeFactor returns the factor for a size step in percent. Missing
// entries count as 100.
func (c *Config) FontSizeFactor(step string) float64 {
	if f, ok := c.Fonts.SizeFactors[step]; ok && f > 0 {
		return f
	}
	return 100
}

// PredefinedSizes returns the seven font sizes in points, smallest first.
func (c *Config) PredefinedSizes() [7]float64 {
	var out [7]float64
	for i, step := range SizeSteps {
		out[i] = c.Fonts.DefaultSize * c.FontSizeFactor(step) / 100
	}
	return out
}

// FontFile returns the expanded path of the font file for family.
func (c *Config) FontFile(family string) (string, bool) {
	p, ok := c.Fonts.Files[strings.ToLower(family)]
	if !ok || p == "" {
		return "", false
	}
	exp, err := homedir.Expand(p)
	if err != nil {
		return p, true
	}
	return exp, true
}

// PaperSize returns the configured paper size with orientation applied.
func (c *Config) PaperSize() (geom.PaperSize, error) {
	ps, err := geom.LookupPaper(c.Page.Paper)
	if err != nil {
		return ps, err
	}
	if c.Page.Landscape {
		ps = ps.Landscape()
	}
	return ps, nil
}

// PageMargins returns the page margins in internal units.
func (c *Config) PageMargins() geom.Insets {
	return geom.Insets{
		Top:    geom.Pt(c.Page.MarginTop),
		Right:  geom.Pt(c.Page.MarginRight),
		Bottom: geom.Pt(c.Page.MarginBottom),
		Left:   geom.Pt(c.Page.MarginLeft),
	}
}

// SlogLevel maps the log level name. Unknown names map to info.
func (c *Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
