package style

import (
	"image/color"
	"math"
	"sort"
)

// StyleSheet is the read side of a style sheet.
type StyleSheet interface {
	StyleProperty(k *Key) Value
	BoolProperty(k *Key) bool
	IntProperty(k *Key, def int) int
	// LengthProperty returns the value of a point length.
	LengthProperty(k *Key) (float64, bool)
}

// ElementStyleSheet is the mutable style of a single element. Values that are
// not set locally are taken from the parent sheet for inherited keys and from
// the key default otherwise.
type ElementStyleSheet struct {
	parent  StyleSheet
	locals  map[*Key]Value
	changes uint64
}

func NewElementStyleSheet() *ElementStyleSheet {
	return &ElementStyleSheet{locals: make(map[*Key]Value)}
}

// SetParent links the sheet values of inherited keys are read from.
func (s *ElementStyleSheet) SetParent(p StyleSheet) {
	s.parent = p
	s.changes++
}

func (s *ElementStyleSheet) Parent() StyleSheet { return s.parent }

func (s *ElementStyleSheet) Set(k *Key, v Value) {
	if !v.IsSet() {
		s.Unset(k)
		return
	}
	s.locals[k] = v
	s.changes++
}

func (s *ElementStyleSheet) Unset(k *Key) {
	if _, ok := s.locals[k]; ok {
		delete(s.locals, k)
		s.changes++
	}
}

func (s *ElementStyleSheet) IsLocal(k *Key) bool {
	_, ok := s.locals[k]
	return ok
}

// Local returns the value set on this sheet, if any.
func (s *ElementStyleSheet) Local(k *Key) (Value, bool) {
	v, ok := s.locals[k]
	return v, ok
}

// LocalKeys returns the locally set keys ordered by key index.
func (s *ElementStyleSheet) LocalKeys() []*Key {
	keys := make([]*Key, 0, len(s.locals))
	for k := range s.locals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Index < keys[j].Index })
	return keys
}

// ChangeTracker increases on every modification.
func (s *ElementStyleSheet) ChangeTracker() uint64 { return s.changes }

// Clone copies the local values. The parent link is shared.
func (s *ElementStyleSheet) Clone() *ElementStyleSheet {
	c := &ElementStyleSheet{parent: s.parent, locals: make(map[*Key]Value, len(s.locals))}
	for k, v := range s.locals {
		c.locals[k] = v
	}
	return c
}

// Derive copies the local values into a sheet without a parent.
func (s *ElementStyleSheet) Derive() *ElementStyleSheet {
	c := s.Clone()
	c.parent = nil
	return c
}

// Merge copies all local values of o into s, overwriting existing ones.
func (s *ElementStyleSheet) Merge(o *ElementStyleSheet) {
	for k, v := range o.locals {
		s.locals[k] = v
	}
	if len(o.locals) > 0 {
		s.changes++
	}
}

func (s *ElementStyleSheet) StyleProperty(k *Key) Value {
	if v, ok := s.locals[k]; ok {
		if v.Type == TypeInherit {
			if s.parent != nil {
				return s.parent.StyleProperty(k)
			}
			return k.Default
		}
		return v
	}
	if k.Inherited && s.parent != nil {
		return s.parent.StyleProperty(k)
	}
	return k.Default
}

func (s *ElementStyleSheet) BoolProperty(k *Key) bool { return boolOf(s.StyleProperty(k)) }

func (s *ElementStyleSheet) IntProperty(k *Key, def int) int { return intOf(s.StyleProperty(k), def) }

func (s *ElementStyleSheet) LengthProperty(k *Key) (float64, bool) {
	return s.StyleProperty(k).PointValue()
}

// ResolvedStyleSheet is the flattened output of style resolution, indexed by
// key index. It is not modified after construction.
type ResolvedStyleSheet struct {
	values []Value
}

// NewResolvedStyleSheet wraps values. The slice is owned by the sheet.
func NewResolvedStyleSheet(values []Value) *ResolvedStyleSheet {
	return &ResolvedStyleSheet{values: values}
}

func (s *ResolvedStyleSheet) StyleProperty(k *Key) Value {
	if s == nil || k.Index >= len(s.values) || !s.values[k.Index].IsSet() {
		return k.Default
	}
	return s.values[k.Index]
}

func (s *ResolvedStyleSheet) BoolProperty(k *Key) bool { return boolOf(s.StyleProperty(k)) }

func (s *ResolvedStyleSheet) IntProperty(k *Key, def int) int {
	return intOf(s.StyleProperty(k), def)
}

func (s *ResolvedStyleSheet) LengthProperty(k *Key) (float64, bool) {
	return s.StyleProperty(k).PointValue()
}

// Points returns a point length or 0.
func (s *ResolvedStyleSheet) Points(k *Key) float64 {
	v, _ := s.LengthProperty(k)
	return v
}

func (s *ResolvedStyleSheet) IsAuto(k *Key) bool { return s.StyleProperty(k).IsAuto() }

// Keyword returns the keyword of k or "".
func (s *ResolvedStyleSheet) Keyword(k *Key) string {
	v := s.StyleProperty(k)
	if v.Type != TypeKeyword {
		return ""
	}
	return v.Str
}

// Color returns the color of k. Non-color values are transparent.
func (s *ResolvedStyleSheet) Color(k *Key) color.RGBA {
	v := s.StyleProperty(k)
	if v.Type != TypeColor {
		return color.RGBA{}
	}
	return v.Color
}

// Len is the number of value slots.
func (s *ResolvedStyleSheet) Len() int { return len(s.values) }

func boolOf(v Value) bool {
	switch v.Type {
	case TypeBoolean:
		return v.Bool
	case TypeNumber:
		return v.Num != 0
	case TypeKeyword:
		return v.Str == "true"
	}
	return false
}

func intOf(v Value, def int) int {
	switch v.Type {
	case TypeNumber, TypeLength:
		if math.IsNaN(v.Num) {
			return def
		}
		return int(v.Num)
	}
	return def
}
