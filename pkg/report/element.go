// Package report holds the document model of a report: bands, elements,
// sub-reports, their attributes and styles, and the data row abstraction
// the layout engine pulls values from.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"pressroom/pkg/style"
)

// InstanceID identifies an element independent of its geometry. IDs are
// unique within the process.
type InstanceID uint64

var lastID atomic.Uint64

func NewInstanceID() InstanceID { return InstanceID(lastID.Add(1)) }

func (id InstanceID) String() string { return "e" + strconv.FormatUint(uint64(id), 10) }

// ElementType is the closed set of element kinds.
type ElementType int

const (
	TypeLabel ElementType = iota
	TypeTextField
	TypeNumberField
	TypeDateField
	TypeMessage
	TypeImage
	TypeBarcode
	TypeHorizontalLine
	TypeRectangle
	TypeBand
	TypeSubReport
	TypeTable
	TypeTableHeader
	TypeTableBody
	TypeTableFooter
	TypeTableRow
	TypeTableCell
	TypeTableColGroup
	TypeTableCol
	TypePageHeader
	TypePageFooter
	TypeReportHeader
	TypeReportFooter
	TypeGroupHeader
	TypeGroupFooter
	TypeItemBand
	TypeNoDataBand
)

var elementTypeNames = [...]string{
	TypeLabel:          "label",
	TypeTextField:      "text-field",
	TypeNumberField:    "number-field",
	TypeDateField:      "date-field",
	TypeMessage:        "message",
	TypeImage:          "image",
	TypeBarcode:        "barcode",
	TypeHorizontalLine: "horizontal-line",
	TypeRectangle:      "rectangle",
	TypeBand:           "band",
	TypeSubReport:      "sub-report",
	TypeTable:          "table",
	TypeTableHeader:    "table-header",
	TypeTableBody:      "table-body",
	TypeTableFooter:    "table-footer",
	TypeTableRow:       "table-row",
	TypeTableCell:      "table-cell",
	TypeTableColGroup:  "table-col-group",
	TypeTableCol:       "table-col",
	TypePageHeader:     "page-header",
	TypePageFooter:     "page-footer",
	TypeReportHeader:   "report-header",
	TypeReportFooter:   "report-footer",
	TypeGroupHeader:    "group-header",
	TypeGroupFooter:    "group-footer",
	TypeItemBand:       "item-band",
	TypeNoDataBand:     "no-data-band",
}

func (t ElementType) String() string {
	if t >= 0 && int(t) < len(elementTypeNames) {
		return elementTypeNames[t]
	}
	return "ElementType(" + strconv.Itoa(int(t)) + ")"
}

// ParseElementType looks an element type up by name.
func ParseElementType(s string) (ElementType, error) {
	for i, n := range elementTypeNames {
		if n == s {
			return ElementType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown element type %q", s)
}

// IsContainer reports whether elements of this type hold children.
func (t ElementType) IsContainer() bool {
	switch t {
	case TypeBand, TypeTable, TypeTableHeader, TypeTableBody, TypeTableFooter,
		TypeTableRow, TypeTableCell, TypeTableColGroup, TypePageHeader, TypePageFooter,
		TypeReportHeader, TypeReportFooter, TypeGroupHeader, TypeGroupFooter,
		TypeItemBand, TypeNoDataBand, TypeSubReport:
		return true
	}
	return false
}

// Attribute namespaces.
const (
	NSCore     = style.NSCore
	NSTable    = style.NSTable
	NSHtml     = style.NSHtml
	NSPdf      = style.NSPdf
	NSExcel    = style.NSExcel
	NSBarcode  = style.NSBarcode
	NSInternal = style.NSInternal
)

// Well known attribute names.
const (
	AttrValue      = "value"
	AttrField      = "field"
	AttrFormat     = "format"
	AttrNullValue  = "null-value"
	AttrStyleClass = "style-class"
	AttrSource     = "source"
	AttrColspan    = "colspan"
	AttrRowspan    = "rowspan"
	AttrSymbology  = "type"
	AttrTitle      = "title"
)

// AttrKey is a namespaced attribute name.
type AttrKey struct {
	NS   string
	Name string
}

// AttributeMap holds the attributes of an element.
type AttributeMap map[AttrKey]any

func (m AttributeMap) Get(ns, name string) (any, bool) {
	v, ok := m[AttrKey{ns, name}]
	return v, ok
}

func (m AttributeMap) Set(ns, name string, v any) {
	if v == nil {
		delete(m, AttrKey{ns, name})
		return
	}
	m[AttrKey{ns, name}] = v
}

// String returns the attribute as text, or "" when absent.
func (m AttributeMap) String(ns, name string) string {
	v, ok := m.Get(ns, name)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns the attribute as an int or def when absent or not numeric.
func (m AttributeMap) Int(ns, name string, def int) int {
	v, ok := m.Get(ns, name)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return def
}

func (m AttributeMap) Clone() AttributeMap {
	out := make(AttributeMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ReportElement is implemented by every node of the document tree.
type ReportElement interface {
	ID() InstanceID
	Type() ElementType
	Name() string
	Attributes() AttributeMap
	StyleSheet() *style.ElementStyleSheet
	Parent() *Band
	setParent(*Band)

	style.Matchable
}

type element struct {
	id     InstanceID
	typ    ElementType
	name   string
	attrs  AttributeMap
	style  *style.ElementStyleSheet
	parent *Band
}

func newElementBase(t ElementType, name string) element {
	return element{
		id:    NewInstanceID(),
		typ:   t,
		name:  name,
		attrs: AttributeMap{},
		style: style.NewElementStyleSheet(),
	}
}

func (e *element) ID() InstanceID                       { return e.id }
func (e *element) Type() ElementType                    { return e.typ }
func (e *element) Name() string                         { return e.name }
func (e *element) SetName(n string)                     { e.name = n }
func (e *element) Attributes() AttributeMap             { return e.attrs }
func (e *element) StyleSheet() *style.ElementStyleSheet { return e.style }
func (e *element) Parent() *Band                        { return e.parent }
func (e *element) setParent(b *Band)                    { e.parent = b }
func (e *element) ElementTypeName() string              { return e.typ.String() }
func (e *element) ElementName() string                  { return e.name }

// StyleClasses returns the whitespace separated core style-class attribute.
func (e *element) StyleClasses() []string {
	return strings.Fields(e.attrs.String(NSCore, AttrStyleClass))
}

// Element is a leaf of the document tree.
type Element struct {
	element
}

func NewElement(t ElementType, name string) *Element {
	return &Element{element: newElementBase(t, name)}
}

// Band is an ordered container of elements. Structural changes bump the
// change tracker of the band and of all its ancestors, which invalidates any
// layout computed for the subtree.
type Band struct {
	element
	children []ReportElement
	changes  uint64
}

func NewBand(t ElementType, name string) *Band {
	return &Band{element: newElementBase(t, name)}
}

// Elements returns the children in layout order.
func (b *Band) Elements() []ReportElement {
	out := make([]ReportElement, len(b.children))
	copy(out, b.children)
	return out
}

func (b *Band) Len() int { return len(b.children) }

func (b *Band) Element(i int) ReportElement { return b.children[i] }

// AddElement appends e. An element already placed elsewhere is moved.
func (b *Band) AddElement(e ReportElement) {
	b.InsertElement(len(b.children), e)
}

// InsertElement places e at position i.
func (b *Band) InsertElement(i int, e ReportElement) {
	if p := e.Parent(); p != nil {
		p.RemoveElement(e)
	}
	if i < 0 {
		i = 0
	}
	if i > len(b.children) {
		i = len(b.children)
	}
	b.children = append(b.children, nil)
	copy(b.children[i+1:], b.children[i:])
	b.children[i] = e
	e.setParent(b)
	b.touch()
}

// RemoveElement removes e and reports whether it was a child of b.
func (b *Band) RemoveElement(e ReportElement) bool {
	for i, c := range b.children {
		if c == e {
			b.children = append(b.children[:i], b.children[i+1:]...)
			e.setParent(nil)
			b.touch()
			return true
		}
	}
	return false
}

// Reorder moves the child at from to position to.
func (b *Band) Reorder(from, to int) error {
	if from < 0 || from >= len(b.children) || to < 0 || to >= len(b.children) {
		return fmt.Errorf("reorder %d -> %d: index out of range [0,%d)", from, to, len(b.children))
	}
	if from == to {
		return nil
	}
	e := b.children[from]
	b.children = append(b.children[:from], b.children[from+1:]...)
	b.children = append(b.children, nil)
	copy(b.children[to+1:], b.children[to:])
	b.children[to] = e
	b.touch()
	return nil
}

// ChangeTracker increases whenever the subtree's structure or any style
// sheet in it changes.
func (b *Band) ChangeTracker() uint64 {
	n := b.changes + b.style.ChangeTracker()
	for _, c := range b.children {
		if cb, ok := c.(interface{ ChangeTracker() uint64 }); ok {
			n += cb.ChangeTracker()
		} else {
			n += c.StyleSheet().ChangeTracker()
		}
	}
	return n
}

func (b *Band) touch() {
	for p := b; p != nil; p = p.parent {
		p.changes++
	}
}

// Walk visits b and its descendants depth first. Returning false from fn
// skips the children of the visited element.
func Walk(e ReportElement, fn func(ReportElement) bool) {
	if !fn(e) {
		return
	}
	if b, ok := e.(*Band); ok {
		for _, c := range b.children {
			Walk(c, fn)
		}
	}
	if s, ok := e.(*SubReport); ok {
		for _, sb := range s.Bands() {
			Walk(sb, fn)
		}
	}
}
