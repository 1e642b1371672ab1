package layout

import (
	"pressroom/pkg/geom"
	"pressroom/pkg/report"
)

// LogicalPageBox is the root of one laid out page. The header, content and
// footer areas are stacked inside the page margins.
type LogicalPageBox struct {
	*RenderNode
	Number  int
	Margins geom.Insets
	Header  *RenderNode
	Content *RenderNode
	Footer  *RenderNode
}

// NewLogicalPage creates an empty page of the given definition.
func NewLogicalPage(number int, def report.PageDefinition) *LogicalPageBox {
	root := NewBox(NodeLogicalPage, 0, report.TypeBand, nil, nil, nil)
	root.Name = "page"
	root.Width = geom.Pt(def.Paper.Width)
	root.Height = geom.Pt(def.Paper.Height)

	p := &LogicalPageBox{RenderNode: root, Number: number, Margins: def.Margins}
	area := func(name string) *RenderNode {
		a := NewBox(NodePageArea, 0, report.TypeBand, nil, nil, nil)
		a.Name = name
		a.X = def.Margins.Left
		a.Width = def.ContentWidth()
		root.AddChild(a)
		return a
	}
	p.Header = area("header")
	p.Content = area("content")
	p.Footer = area("footer")
	p.Arrange()
	return p
}

// ContentWidth returns the width available to bands.
func (p *LogicalPageBox) ContentWidth() geom.Unit { return p.Content.Width }

// UsableHeight returns the height left for content between header and
// footer.
func (p *LogicalPageBox) UsableHeight() geom.Unit {
	return geom.Max(0, p.Height-p.Margins.Vertical()-p.Header.Height-p.Footer.Height)
}

// Arrange positions the areas after their heights changed: the header sits
// at the top margin, the footer at the bottom margin and the content area
// fills the space between them.
func (p *LogicalPageBox) Arrange() {
	p.Header.Y = p.Margins.Top
	p.Content.Y = p.Header.Y + p.Header.Height
	p.Footer.Y = p.Height - p.Margins.Bottom - p.Footer.Height
}

// StackArea appends boxes to an area vertically and grows the area.
func StackArea(area *RenderNode, boxes ...*RenderNode) {
	y := area.Height
	for _, b := range boxes {
		b.X = b.Def.Margin.Left
		b.Y = y + b.Def.Margin.Top
		y += b.MarginHeight()
		area.AddChild(b)
	}
	area.Height = y
}
