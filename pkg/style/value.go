package style

import (
	"fmt"
	"image/color"
	"strconv"
)

// ValueType is the domain a style value belongs to.
type ValueType int

const (
	TypeNone ValueType = iota
	TypeLength
	TypePercentage
	TypeAuto
	TypeKeyword
	TypeColor
	TypeNumber
	TypeBoolean
	TypeString
	TypeInherit
)

var valueTypeNames = [...]string{"none", "length", "percentage", "auto", "keyword", "color", "number", "boolean", "string", "inherit"}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return "ValueType(" + strconv.Itoa(int(t)) + ")"
}

// Domain is a set of value types.
type Domain uint16

// DomainOf builds a domain from value types.
func DomainOf(types ...ValueType) Domain {
	var d Domain
	for _, t := range types {
		d |= 1 << t
	}
	return d
}

// Has reports whether t is a member of d.
func (d Domain) Has(t ValueType) bool { return d&(1<<t) != 0 }

// LengthUnit is the unit of a specified length. Resolved lengths are always
// in points.
type LengthUnit int

const (
	UnitPt LengthUnit = iota
	UnitPx
	UnitMm
	UnitCm
	UnitIn
	UnitEm
)

var unitSuffix = [...]string{"pt", "px", "mm", "cm", "in", "em"}

func (u LengthUnit) String() string { return unitSuffix[u] }

// Value is a single style property value. It is comparable.
type Value struct {
	Type  ValueType
	Num   float64
	Unit  LengthUnit
	Str   string
	Color color.RGBA
	Bool  bool
}

var (
	Unset   = Value{}
	Auto    = Value{Type: TypeAuto}
	Inherit = Value{Type: TypeInherit}
)

func Length(v float64, u LengthUnit) Value { return Value{Type: TypeLength, Num: v, Unit: u} }
func Points(v float64) Value               { return Value{Type: TypeLength, Num: v} }
func Percent(v float64) Value              { return Value{Type: TypePercentage, Num: v} }
func Keyword(k string) Value               { return Value{Type: TypeKeyword, Str: k} }
func Number(v float64) Value               { return Value{Type: TypeNumber, Num: v} }
func Bool(b bool) Value                    { return Value{Type: TypeBoolean, Bool: b} }
func String(s string) Value                { return Value{Type: TypeString, Str: s} }
func ColorValue(c color.RGBA) Value        { return Value{Type: TypeColor, Color: c} }

func (v Value) IsSet() bool  { return v.Type != TypeNone }
func (v Value) IsAuto() bool { return v.Type == TypeAuto }

// IsKeyword reports whether v is the keyword k.
func (v Value) IsKeyword(k string) bool { return v.Type == TypeKeyword && v.Str == k }

// PointValue returns the value of a length already expressed in points.
func (v Value) PointValue() (float64, bool) {
	if v.Type != TypeLength || v.Unit != UnitPt {
		return 0, false
	}
	return v.Num, true
}

// String renders the value in CSS syntax.
func (v Value) String() string {
	switch v.Type {
	case TypeNone:
		return "<unset>"
	case TypeLength:
		return strconv.FormatFloat(v.Num, 'f', -1, 64) + v.Unit.String()
	case TypePercentage:
		return strconv.FormatFloat(v.Num, 'f', -1, 64) + "%"
	case TypeAuto:
		return "auto"
	case TypeInherit:
		return "inherit"
	case TypeKeyword:
		return v.Str
	case TypeString:
		return strconv.Quote(v.Str)
	case TypeNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case TypeBoolean:
		return strconv.FormatBool(v.Bool)
	case TypeColor:
		return fmt.Sprintf("#%02x%02x%02x", v.Color.R, v.Color.G, v.Color.B)
	}
	return "?"
}
