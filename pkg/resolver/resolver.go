// Package resolver turns specified style values into resolved ones.
//
// Each style key may have up to three resolve handlers: an auto handler that
// replaces an "auto" placeholder, a computed handler that normalises keywords
// and units, and a percentage handler that resolves percentages against a
// basis such as the containing block. Handlers declare the keys they read;
// the Factory orders them once so that a key is only resolved after every key
// it depends on.
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"pressroom/pkg/config"
	"pressroom/pkg/style"
)

var (
	ErrCyclicDependency = errors.New("cyclic style resolver dependency")
	ErrUnknownStyleKey  = errors.New("unknown style key")
	ErrFactoryBuilt     = errors.New("resolver factory already built")
	ErrNotBuilt         = errors.New("resolver factory not built")
)

// CycleError names the keys that could not be ordered because they are part
// of, or depend on, a dependency cycle.
type CycleError struct {
	Keys []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCyclicDependency, strings.Join(e.Keys, ", "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicDependency }

// LayoutStyle holds the values of one element while it is being resolved.
type LayoutStyle struct {
	values []style.Value
}

func NewLayoutStyle(n int) *LayoutStyle {
	return &LayoutStyle{values: make([]style.Value, n)}
}

func (s *LayoutStyle) Value(k *style.Key) style.Value {
	if k.Index >= len(s.values) {
		return style.Unset
	}
	return s.values[k.Index]
}

func (s *LayoutStyle) SetValue(k *style.Key, v style.Value) {
	if k.Index >= len(s.values) {
		grown := make([]style.Value, k.Index+1)
		copy(grown, s.values)
		s.values = grown
	}
	s.values[k.Index] = v
}

// Points returns the value of k if it is a point length.
func (s *LayoutStyle) Points(k *style.Key) (float64, bool) {
	return s.Value(k).PointValue()
}

// Resolved copies the values into a read-only style sheet.
func (s *LayoutStyle) Resolved() *style.ResolvedStyleSheet {
	out := make([]style.Value, len(s.values))
	copy(out, s.values)
	return style.NewResolvedStyleSheet(out)
}

// LayoutElement is the element being resolved.
type LayoutElement interface {
	LayoutStyle() *LayoutStyle
	// ParentElement returns nil for the root.
	ParentElement() LayoutElement
	// ContainingBlockWidth returns the width in points, or a negative value
	// when it is not known yet.
	ContainingBlockWidth() float64
}

// heightContext is implemented by elements that know the containing block
// height.
type heightContext interface {
	ContainingBlockHeight() float64
}

// OutputMetaData describes the output target.
type OutputMetaData struct {
	DeviceResolution  float64
	DefaultFontFamily string
	DefaultFontSize   float64
	// Families maps generic family names to concrete ones.
	Families map[string]string
	// Available lists the concrete families the target can render. An empty
	// set accepts every family.
	Available map[string]bool

	sizes   [7]float64
	factors [7]float64
}

// NewOutputMetaData derives the output metadata from the configuration.
func NewOutputMetaData(cfg *config.Config) *OutputMetaData {
	m := &OutputMetaData{
		DeviceResolution:  cfg.Layout.DeviceResolution,
		DefaultFontFamily: cfg.Fonts.DefaultFamily,
		DefaultFontSize:   cfg.Fonts.DefaultSize,
		Families:          make(map[string]string, len(cfg.Fonts.Families)),
		Available:         map[string]bool{},
		sizes:             cfg.PredefinedSizes(),
	}
	for k, v := range cfg.Fonts.Families {
		m.Families[strings.ToLower(k)] = v
	}
	for i, step := range config.SizeSteps {
		m.factors[i] = cfg.FontSizeFactor(step)
	}
	if m.DeviceResolution <= 0 {
		m.DeviceResolution = 72
	}
	return m
}

// PredefinedSizes returns the xx-small..xx-large sizes in points.
func (m *OutputMetaData) PredefinedSizes() [7]float64 { return m.sizes }

// NormalizeFontFamily maps a generic family to its concrete family and
// checks concrete families against the available set.
func (m *OutputMetaData) NormalizeFontFamily(name string) (string, bool) {
	name = strings.Trim(strings.TrimSpace(name), `"'`)
	if name == "" {
		return "", false
	}
	if f, ok := m.Families[strings.ToLower(name)]; ok {
		return f, true
	}
	if len(m.Available) == 0 || m.Available[strings.ToLower(name)] {
		return name, true
	}
	return "", false
}

// DocumentContext gives handlers access to the output target.
type DocumentContext interface {
	OutputMetaData() *OutputMetaData
}

// Handler resolves one key of an element.
type Handler interface {
	// RequiredStyles lists the keys that must be resolved before this
	// handler runs.
	RequiredStyles() []*style.Key
	Resolve(doc DocumentContext, el LayoutElement, key *style.Key) error
}

// Stage is one of the three resolution stages.
type Stage int

const (
	StageAuto Stage = iota
	StageComputed
	StagePercentage
)

func (s Stage) String() string {
	switch s {
	case StageAuto:
		return "auto"
	case StageComputed:
		return "computed"
	case StagePercentage:
		return "percentage"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Module bundles the handlers of one key.
type Module struct {
	Key        *style.Key
	Auto       Handler
	Computed   Handler
	Percentage Handler
}

// RequiredStyles is the union of the handlers' required keys.
func (m *Module) RequiredStyles() []*style.Key {
	var out []*style.Key
	seen := map[*style.Key]bool{}
	for _, h := range []Handler{m.Auto, m.Computed, m.Percentage} {
		if h == nil {
			continue
		}
		for _, k := range h.RequiredStyles() {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
