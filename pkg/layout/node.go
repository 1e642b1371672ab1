// Package layout turns report bands into trees of positioned render nodes.
//
// Coordinates are fixed point (geom.Unit). Every node stores its border box
// relative to the border box of its parent, so moving a band only touches
// the band's own X and Y.
package layout

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"

	"pressroom/pkg/geom"
	"pressroom/pkg/report"
	"pressroom/pkg/state"
	"pressroom/pkg/style"
	"pressroom/pkg/text"
)

// NodeType tags a render node. Output modules switch on it.
type NodeType int

const (
	NodeLogicalPage NodeType = iota
	NodePageArea
	NodeBlock
	NodeRow
	NodeCanvas
	NodeInline
	NodeParagraph
	NodeLine
	NodeTable
	NodeTableSection
	NodeTableRow
	NodeTableCell
	NodeTableColGroup
	NodeTableCol
	NodeText
	NodeImage
	NodeHorizontalLine
	NodeRectangle
	NodeSpacer
)

var nodeTypeNames = [...]string{
	NodeLogicalPage:    "logical-page",
	NodePageArea:       "page-area",
	NodeBlock:          "block",
	NodeRow:            "row",
	NodeCanvas:         "canvas",
	NodeInline:         "inline",
	NodeParagraph:      "paragraph",
	NodeLine:           "line",
	NodeTable:          "table",
	NodeTableSection:   "table-section",
	NodeTableRow:       "table-row",
	NodeTableCell:      "table-cell",
	NodeTableColGroup:  "table-col-group",
	NodeTableCol:       "table-col",
	NodeText:           "text",
	NodeImage:          "image",
	NodeHorizontalLine: "horizontal-line",
	NodeRectangle:      "rectangle",
	NodeSpacer:         "spacer",
}

func (t NodeType) String() string {
	if t < 0 || int(t) >= len(nodeTypeNames) {
		return "node(" + strconv.Itoa(int(t)) + ")"
	}
	return nodeTypeNames[t]
}

// IsBox reports whether nodes of this type may hold children.
func (t NodeType) IsBox() bool {
	switch t {
	case NodeText, NodeImage, NodeHorizontalLine, NodeRectangle, NodeSpacer, NodeTableCol:
		return false
	}
	return true
}

// Axis is a layout direction.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

// Axes names the major (flow) and minor axis of a box.
type Axes struct {
	Major Axis
	Minor Axis
}

var (
	verticalAxes   = Axes{Major: Vertical, Minor: Horizontal}
	horizontalAxes = Axes{Major: Horizontal, Minor: Vertical}
)

// Auto marks an unconstrained size in a BoxDefinition.
const Auto geom.Unit = -1

// BoxDefinition holds the box model of a node, taken from its resolved
// style.
type BoxDefinition struct {
	Margin       geom.Insets
	Border       geom.Insets
	Padding      geom.Insets
	BorderStyles [4]string
	BorderColors [4]color.RGBA
	Background   color.RGBA

	PreferredWidth  geom.Unit
	PreferredHeight geom.Unit
	MinWidth        geom.Unit
	MinHeight       geom.Unit
	MaxWidth        geom.Unit
	MaxHeight       geom.Unit
}

// NewBoxDefinition reads the box model from rs. A nil style yields an empty
// definition with auto sizes.
func NewBoxDefinition(rs *style.ResolvedStyleSheet) BoxDefinition {
	d := BoxDefinition{PreferredWidth: Auto, PreferredHeight: Auto, MaxWidth: Auto, MaxHeight: Auto}
	if rs == nil {
		return d
	}
	edge := func(get func(style.Side) *style.Key) geom.Insets {
		return geom.Insets{
			Top:    geom.Pt(rs.Points(get(style.Sides[0]))),
			Right:  geom.Pt(rs.Points(get(style.Sides[1]))),
			Bottom: geom.Pt(rs.Points(get(style.Sides[2]))),
			Left:   geom.Pt(rs.Points(get(style.Sides[3]))),
		}
	}
	d.Margin = edge(func(s style.Side) *style.Key { return s.Margin })
	d.Padding = edge(func(s style.Side) *style.Key { return s.Padding })
	d.Border = edge(func(s style.Side) *style.Key { return s.BorderWidth })
	for i, s := range style.Sides {
		d.BorderStyles[i] = rs.Keyword(s.BorderStyle)
		d.BorderColors[i] = rs.Color(s.BorderColor)
	}
	d.Background = rs.Color(style.BackgroundColor)
	d.PreferredWidth = sizeOf(rs, style.Width)
	d.PreferredHeight = sizeOf(rs, style.Height)
	d.MaxWidth = sizeOf(rs, style.MaxWidth)
	d.MaxHeight = sizeOf(rs, style.MaxHeight)
	d.MinWidth = geom.Pt(rs.Points(style.MinWidth))
	d.MinHeight = geom.Pt(rs.Points(style.MinHeight))
	return d
}

func sizeOf(rs *style.ResolvedStyleSheet, k *style.Key) geom.Unit {
	if rs.IsAuto(k) {
		return Auto
	}
	if pt, ok := rs.StyleProperty(k).PointValue(); ok {
		return geom.Pt(pt)
	}
	return Auto
}

// Insets returns border plus padding.
func (d *BoxDefinition) Insets() geom.Insets { return d.Border.Add(d.Padding) }

// Line is the payload of a line node.
type Line struct {
	Baseline geom.Unit
}

// ColumnInfo is the payload of a table column node.
type ColumnInfo struct {
	colspan   int
	index     int
	finalized bool
}

// CellInfo is the payload of a table cell node.
type CellInfo struct {
	Colspan int
	Rowspan int
	Row     int
	Col     int
}

// TableInfo is the payload of a table node, filled by table layout.
type TableInfo struct {
	ColumnWidths []geom.Unit
	RowHeights   []geom.Unit
	Collapse     bool
	Spacing      geom.Unit
}

// BorderEdge is one resolved border of the collapsing border model.
type BorderEdge struct {
	Width geom.Unit
	Style string
	Color color.RGBA
}

var (
	ErrColumnFinalized = errors.New("column index is final")
	ErrNotAColumn      = errors.New("not a table column")
)

// RenderNode is a positioned unit of laid out content. Type selects which
// of the role fields are meaningful.
type RenderNode struct {
	Type        NodeType
	ID          report.InstanceID
	ElementType report.ElementType
	Name        string
	Attrs       report.AttributeMap
	Style       *style.ResolvedStyleSheet
	Def         BoxDefinition
	Key         *state.Key
	Axes        Axes

	X      geom.Unit
	Y      geom.Unit
	Width  geom.Unit
	Height geom.Unit

	Parent   *RenderNode
	Children []*RenderNode
	// Visible is false for boxes that reserve space but are not painted.
	Visible bool

	// text and paragraph
	Content string
	Font    text.Font
	Color   color.RGBA
	Line    *Line

	// image
	Image image.Image

	// table roles
	Column *ColumnInfo
	Cell   *CellInfo
	Table  *TableInfo
	// Borders holds the collapsed borders of a cell in top, right, bottom,
	// left order. Rows and columns of a collapsing table get empty ones.
	Borders *[4]BorderEdge
}

// NewBox creates a node for an element. rs may be nil for anonymous boxes.
func NewBox(t NodeType, id report.InstanceID, et report.ElementType, rs *style.ResolvedStyleSheet, attrs report.AttributeMap, key *state.Key) *RenderNode {
	n := &RenderNode{
		Type:        t,
		ID:          id,
		ElementType: et,
		Attrs:       attrs,
		Style:       rs,
		Def:         NewBoxDefinition(rs),
		Key:         key,
		Axes:        verticalAxes,
		Visible:     true,
	}
	if t == NodeRow || t == NodeInline || t == NodeLine || t == NodeTableRow {
		n.Axes = horizontalAxes
	}
	if attrs == nil {
		n.Attrs = report.AttributeMap{}
	}
	if rs != nil {
		n.Color = rs.Color(style.TextColor)
	}
	return n
}

// NewTableColumn creates a column node. The colspan is read from the table
// colspan attribute once; it defaults to 1.
func NewTableColumn(id report.InstanceID, rs *style.ResolvedStyleSheet, attrs report.AttributeMap, key *state.Key) *RenderNode {
	n := NewBox(NodeTableCol, id, report.TypeTableCol, rs, attrs, key)
	span := n.Attrs.Int(report.NSTable, report.AttrColspan, 1)
	if span < 1 {
		span = 1
	}
	n.Column = &ColumnInfo{colspan: span, index: -1}
	return n
}

// NewTableCell creates a cell node with its spans read from the table
// attributes.
func NewTableCell(id report.InstanceID, rs *style.ResolvedStyleSheet, attrs report.AttributeMap, key *state.Key) *RenderNode {
	n := NewBox(NodeTableCell, id, report.TypeTableCell, rs, attrs, key)
	n.Cell = &CellInfo{
		Colspan: max(1, n.Attrs.Int(report.NSTable, report.AttrColspan, 1)),
		Rowspan: max(1, n.Attrs.Int(report.NSTable, report.AttrRowspan, 1)),
	}
	return n
}

// Colspan returns the number of columns a column node covers, 0 for other
// nodes.
func (n *RenderNode) Colspan() int {
	if n.Column == nil {
		return 0
	}
	return n.Column.colspan
}

// ColumnIndex returns the first column index covered by a column node or
// -1 while unassigned.
func (n *RenderNode) ColumnIndex() int {
	if n.Column == nil {
		return -1
	}
	return n.Column.index
}

// SetColumnIndex assigns the first covered column. It fails once the table
// layout has finalized the columns.
func (n *RenderNode) SetColumnIndex(i int) error {
	if n.Column == nil {
		return fmt.Errorf("%w: %s", ErrNotAColumn, n.Type)
	}
	if n.Column.finalized {
		return ErrColumnFinalized
	}
	n.Column.index = i
	return nil
}

// FinalizeColumns freezes the column indices of every column below table.
func FinalizeColumns(table *RenderNode) {
	Walk(table, func(c *RenderNode) bool {
		if c.Column != nil {
			c.Column.finalized = true
		}
		return c == table || c.Type == NodeTableColGroup
	})
}

// AddChild appends c and sets its parent.
func (n *RenderNode) AddChild(c *RenderNode) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// RemoveChild detaches c.
func (n *RenderNode) RemoveChild(c *RenderNode) bool {
	for i, x := range n.Children {
		if x == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			c.Parent = nil
			return true
		}
	}
	return false
}

// Rect returns the border box relative to the parent.
func (n *RenderNode) Rect() geom.Rect {
	return geom.Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

// AbsRect returns the border box in the coordinates of the root.
func (n *RenderNode) AbsRect() geom.Rect {
	r := n.Rect()
	for p := n.Parent; p != nil; p = p.Parent {
		r.X += p.X
		r.Y += p.Y
	}
	return r
}

// ContentRect returns the content box relative to the node's own border
// box origin.
func (n *RenderNode) ContentRect() geom.Rect {
	in := n.Def.Insets()
	return geom.Rect{
		X:      in.Left,
		Y:      in.Top,
		Width:  geom.Max(0, n.Width-in.Horizontal()),
		Height: geom.Max(0, n.Height-in.Vertical()),
	}
}

// MarginHeight returns the height including vertical margins.
func (n *RenderNode) MarginHeight() geom.Unit { return n.Height + n.Def.Margin.Vertical() }

// MarginWidth returns the width including horizontal margins.
func (n *RenderNode) MarginWidth() geom.Unit { return n.Width + n.Def.Margin.Horizontal() }

// StyleBool reads a boolean style key, false without a style.
func (n *RenderNode) StyleBool(k *style.Key) bool {
	if n.Style == nil {
		return false
	}
	return n.Style.BoolProperty(k)
}

// Clone deep copies the subtree. The copy has no parent.
func (n *RenderNode) Clone() *RenderNode {
	c := *n
	c.Parent = nil
	c.Children = nil
	if n.Column != nil {
		col := *n.Column
		c.Column = &col
	}
	if n.Cell != nil {
		cell := *n.Cell
		c.Cell = &cell
	}
	if n.Table != nil {
		t := *n.Table
		t.ColumnWidths = append([]geom.Unit(nil), n.Table.ColumnWidths...)
		t.RowHeights = append([]geom.Unit(nil), n.Table.RowHeights...)
		c.Table = &t
	}
	if n.Line != nil {
		l := *n.Line
		c.Line = &l
	}
	if n.Borders != nil {
		b := *n.Borders
		c.Borders = &b
	}
	for _, ch := range n.Children {
		c.AddChild(ch.Clone())
	}
	return &c
}

func (n *RenderNode) String() string {
	return fmt.Sprintf("%s[%s %s] (%.2f,%.2f %.2fx%.2f)", n.Type, n.ID, n.Name,
		geom.ToPt(n.X), geom.ToPt(n.Y), geom.ToPt(n.Width), geom.ToPt(n.Height))
}
