package resolver

import (
	"fmt"
	"log/slog"

	"pressroom/pkg/config"
	"pressroom/pkg/style"
)

// Factory holds the resolve handlers of all keys. It is built once and
// read-only afterwards, so one Factory can serve any number of report runs.
type Factory struct {
	reg      *style.Registry
	meta     *OutputMetaData
	logger   *slog.Logger
	modules  map[*style.Key]*Module
	order    []*Module
	built    bool
	defaults bool
}

type Option func(*Factory)

func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) { f.logger = l }
}

// WithoutDefaults leaves the handler table empty.
func WithoutDefaults() Option {
	return func(f *Factory) { f.defaults = false }
}

// WithOutputMetaData replaces the metadata derived from the configuration.
func WithOutputMetaData(m *OutputMetaData) Option {
	return func(f *Factory) { f.meta = m }
}

func NewFactory(cfg *config.Config, reg *style.Registry, opts ...Option) *Factory {
	if cfg == nil {
		cfg = config.Default()
	}
	if reg == nil {
		reg = style.DefaultRegistry
	}
	f := &Factory{
		reg:      reg,
		modules:  make(map[*style.Key]*Module),
		defaults: true,
	}
	for _, o := range opts {
		o(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.meta == nil {
		f.meta = NewOutputMetaData(cfg)
	}
	if f.defaults {
		f.registerDefaults()
	}
	return f
}

// OutputMetaData implements DocumentContext.
func (f *Factory) OutputMetaData() *OutputMetaData { return f.meta }

func (f *Factory) Registry() *style.Registry { return f.reg }

// Register installs h for one stage of key. Registering replaces an earlier
// handler of the same stage.
func (f *Factory) Register(key *style.Key, stage Stage, h Handler) error {
	if f.built {
		return ErrFactoryBuilt
	}
	if key == nil || f.reg.FindKeyByName(key.Name) != key {
		return fmt.Errorf("register %v: %w", key, ErrUnknownStyleKey)
	}
	m, ok := f.modules[key]
	if !ok {
		m = &Module{Key: key}
		f.modules[key] = m
	}
	switch stage {
	case StageAuto:
		m.Auto = h
	case StageComputed:
		m.Computed = h
	case StagePercentage:
		m.Percentage = h
	default:
		return fmt.Errorf("register %s: invalid stage %v", key.Name, stage)
	}
	return nil
}

// RegisterByName registers a handler for a key looked up by name.
func (f *Factory) RegisterByName(name string, stage Stage, h Handler) error {
	k := f.reg.FindKeyByName(name)
	if k == nil {
		return fmt.Errorf("register %q: %w", name, ErrUnknownStyleKey)
	}
	return f.Register(k, stage, h)
}

// Build sorts the modules. A cycle is a configuration error.
func (f *Factory) Build() error {
	if f.built {
		return nil
	}
	mods := make([]*Module, 0, len(f.modules))
	for _, m := range f.modules {
		mods = append(mods, m)
	}
	order, err := Sort(mods)
	if err != nil {
		return err
	}
	f.order = order
	f.built = true
	f.logger.Debug("style resolver ready", "modules", len(order))
	return nil
}

// Order returns the keys in resolution order.
func (f *Factory) Order() []*style.Key {
	out := make([]*style.Key, len(f.order))
	for i, m := range f.order {
		out[i] = m.Key
	}
	return out
}

// PerformResolve runs all handlers over el in dependency order. A failing
// handler is logged and its key falls back to a safe value; the pass goes on.
func (f *Factory) PerformResolve(doc DocumentContext, el LayoutElement) error {
	if !f.built {
		return ErrNotBuilt
	}
	if doc == nil {
		doc = f
	}
	ls := el.LayoutStyle()
	for _, m := range f.order {
		if m.Auto != nil && ls.Value(m.Key).IsAuto() {
			f.run(doc, el, m.Key, StageAuto, m.Auto)
		}
		if m.Computed != nil {
			f.run(doc, el, m.Key, StageComputed, m.Computed)
		}
		if m.Percentage != nil {
			f.run(doc, el, m.Key, StagePercentage, m.Percentage)
		}
	}
	for _, k := range f.reg.Keys() {
		if err := checkResolved(k, ls.Value(k)); err != nil {
			f.logger.Warn("style value not resolved", "element", elementName(el), "key", k.Name, "err", err)
			ls.SetValue(k, Fallback(k))
		}
	}
	return nil
}

func (f *Factory) run(doc DocumentContext, el LayoutElement, k *style.Key, stage Stage, h Handler) {
	if err := h.Resolve(doc, el, k); err != nil {
		f.logger.Warn("style resolution failed", "element", elementName(el), "key", k.Name, "stage", stage, "err", err)
		el.LayoutStyle().SetValue(k, Fallback(k))
	}
}

// Verify reports the first value of ls outside its key's resolved domain.
func (f *Factory) Verify(ls *LayoutStyle) error {
	for _, k := range f.reg.Keys() {
		if err := checkResolved(k, ls.Value(k)); err != nil {
			return fmt.Errorf("%s: %w", k.Name, err)
		}
	}
	return nil
}

func checkResolved(k *style.Key, v style.Value) error {
	if !k.Resolved.Has(v.Type) {
		return fmt.Errorf("value %v of type %v outside resolved domain", v, v.Type)
	}
	if v.Type == style.TypeLength && v.Unit != style.UnitPt {
		return fmt.Errorf("length %v not converted to points", v)
	}
	if v.Type == style.TypeKeyword && !k.AcceptsKeyword(v.Str) {
		return fmt.Errorf("keyword %q not allowed", v.Str)
	}
	return nil
}

// Fallback is the safe value substituted for a key whose resolution failed:
// the key default when it is already resolved, otherwise the zero value of
// the resolved domain.
func Fallback(k *style.Key) style.Value {
	if checkResolved(k, k.Default) == nil {
		return k.Default
	}
	switch {
	case k.Resolved.Has(style.TypeLength):
		return style.Points(0)
	case k.Resolved.Has(style.TypeAuto):
		return style.Auto
	case k.Resolved.Has(style.TypeKeyword) && len(k.Keywords) > 0:
		return style.Keyword(k.Keywords[0])
	case k.Resolved.Has(style.TypeBoolean):
		return style.Bool(false)
	case k.Resolved.Has(style.TypeNumber):
		return style.Number(0)
	case k.Resolved.Has(style.TypeColor):
		return style.ColorValue(defaultInk)
	case k.Resolved.Has(style.TypeString):
		return style.String("")
	}
	return k.Default
}

// Specify builds the layout style of an element from its style sheet and
// the resolved style of its parent. Inherited keys that are not set locally
// and explicit "inherit" values take the parent's resolved value.
func (f *Factory) Specify(sheet style.StyleSheet, parent *LayoutStyle) *LayoutStyle {
	ls := NewLayoutStyle(f.reg.Len())
	local, hasLocal := sheet.(interface {
		Local(*style.Key) (style.Value, bool)
	})
	for _, k := range f.reg.Keys() {
		var v style.Value
		var set bool
		if hasLocal {
			v, set = local.Local(k)
		} else {
			v = sheet.StyleProperty(k)
			set = v.IsSet()
		}
		switch {
		case set && v.Type != style.TypeInherit:
		case set || k.Inherited:
			if parent != nil {
				v = parent.Value(k)
			} else {
				v = sheet.StyleProperty(k)
				if v.Type == style.TypeInherit {
					v = k.Default
				}
			}
		default:
			v = k.Default
		}
		ls.SetValue(k, v)
	}
	return ls
}

// ResolveElementStyle specifies and resolves the style of one element.
// parent may be nil for the root. A negative containing block size means
// unknown.
func (f *Factory) ResolveElementStyle(name string, sheet style.StyleSheet, parent *style.ResolvedStyleSheet, cbWidth, cbHeight float64) (*style.ResolvedStyleSheet, error) {
	var pnode *Node
	var pstyle *LayoutStyle
	if parent != nil {
		pstyle = NewLayoutStyle(f.reg.Len())
		for _, k := range f.reg.Keys() {
			pstyle.SetValue(k, parent.StyleProperty(k))
		}
		pnode = &Node{Style: pstyle, CBWidth: -1, CBHeight: -1}
	}
	n := &Node{
		Name:     name,
		Style:    f.Specify(sheet, pstyle),
		Parent:   pnode,
		CBWidth:  cbWidth,
		CBHeight: cbHeight,
	}
	if err := f.PerformResolve(f, n); err != nil {
		return nil, err
	}
	return n.Style.Resolved(), nil
}

// Node is a plain LayoutElement.
type Node struct {
	Name     string
	Style    *LayoutStyle
	Parent   *Node
	CBWidth  float64
	CBHeight float64
}

func (n *Node) LayoutStyle() *LayoutStyle { return n.Style }

func (n *Node) ParentElement() LayoutElement {
	if n.Parent == nil {
		return nil
	}
	return n.Parent
}

func (n *Node) ContainingBlockWidth() float64  { return n.CBWidth }
func (n *Node) ContainingBlockHeight() float64 { return n.CBHeight }
func (n *Node) String() string                 { return n.Name }

func elementName(el LayoutElement) string {
	if s, ok := el.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", el)
}
