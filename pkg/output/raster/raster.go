// Package raster paints logical pages into images with gg.
package raster

import (
	"image"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"pressroom/pkg/geom"
	"pressroom/pkg/images"
	"pressroom/pkg/layout"
	"pressroom/pkg/text"
)

// FaceSource supplies font faces for text nodes. text.GGMeasurer is one.
type FaceSource interface {
	Face(f text.Font) (font.Face, error)
}

// Renderer paints pages. It may be shared; painting is serialized because
// font faces are not safe for concurrent use.
type Renderer struct {
	// DPI is the output resolution; 72 paints one pixel per point.
	DPI   float64
	Faces FaceSource

	mu sync.Mutex
}

func NewRenderer(dpi float64, faces FaceSource) *Renderer {
	if dpi <= 0 {
		dpi = 72
	}
	if faces == nil {
		faces = text.NewGGMeasurer(nil, false)
	}
	return &Renderer{DPI: dpi, Faces: faces}
}

func (r *Renderer) scale() float64 { return r.DPI / 72 }

// Size returns the pixel size of a page.
func (r *Renderer) Size(page *layout.LogicalPageBox) (w, h int) {
	s := r.scale()
	return int(geom.ToPt(page.Width)*s + 0.5), int(geom.ToPt(page.Height)*s + 0.5)
}

// Render paints page on a white background.
func (r *Renderer) Render(page *layout.LogicalPageBox) image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, h := r.Size(page)
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	p := painter{dc: dc, scale: r.scale(), faces: r.Faces}
	p.paint(page.RenderNode, 0, 0)
	return dc.Image()
}

type painter struct {
	dc    *gg.Context
	scale float64
	faces FaceSource
}

func (p *painter) px(u geom.Unit) float64 { return geom.ToPt(u) * p.scale }

// paint draws n whose parent's border box starts at (ox, oy), then its
// children. Invisible boxes hide their whole subtree.
func (p *painter) paint(n *layout.RenderNode, ox, oy geom.Unit) {
	if !n.Visible && n.Type != layout.NodeLogicalPage && n.Type != layout.NodePageArea {
		return
	}
	x, y := ox+n.X, oy+n.Y
	p.background(n, x, y)
	p.borders(n, x, y)

	switch n.Type {
	case layout.NodeText:
		p.text(n, x, y)
	case layout.NodeImage:
		p.image(n, x, y)
	case layout.NodeHorizontalLine:
		p.hline(n, x, y)
	}
	for _, c := range n.Children {
		p.paint(c, x, y)
	}
}

func (p *painter) background(n *layout.RenderNode, x, y geom.Unit) {
	bg := n.Def.Background
	if bg.A == 0 || n.Width <= 0 || n.Height <= 0 {
		return
	}
	p.dc.SetColor(bg)
	p.dc.DrawRectangle(p.px(x), p.px(y), p.px(n.Width), p.px(n.Height))
	p.dc.Fill()
}

// borders draws each side as a mitered trapezoid.
func (p *painter) borders(n *layout.RenderNode, x, y geom.Unit) {
	edges := Edges(n)
	// collapsed borders straddle the cell edge
	d := n.Def.Border
	ol, ot := p.px(x-(edges[3].Width-d.Left)), p.px(y-(edges[0].Width-d.Top))
	or, ob := p.px(x+n.Width+edges[1].Width-d.Right), p.px(y+n.Height+edges[2].Width-d.Bottom)
	il, it := ol+p.px(edges[3].Width), ot+p.px(edges[0].Width)
	ir, ib := or-p.px(edges[1].Width), ob-p.px(edges[2].Width)

	quads := [4][4][2]float64{
		{{ol, ot}, {or, ot}, {ir, it}, {il, it}},
		{{or, ot}, {or, ob}, {ir, ib}, {ir, it}},
		{{ol, ob}, {or, ob}, {ir, ib}, {il, ib}},
		{{ol, ot}, {ol, ob}, {il, ib}, {il, it}},
	}
	for side, e := range edges {
		if e.Width <= 0 || e.Style == "none" || e.Style == "hidden" || e.Style == "" {
			continue
		}
		p.dc.SetColor(opaque(e.Color))
		switch e.Style {
		case "dashed", "dotted":
			p.dashed(quads[side], p.px(e.Width), e.Style == "dotted", side%2 == 0)
		default:
			q := quads[side]
			p.dc.MoveTo(q[0][0], q[0][1])
			for _, pt := range q[1:] {
				p.dc.LineTo(pt[0], pt[1])
			}
			p.dc.ClosePath()
			p.dc.Fill()
		}
	}
}

// dashed strokes the centre line of a border side.
func (p *painter) dashed(q [4][2]float64, w float64, dotted, horizontal bool) {
	p.dc.SetLineWidth(w)
	if dotted {
		p.dc.SetDash(w, w*2)
	} else {
		p.dc.SetDash(w*3, w*2)
	}
	if horizontal {
		cy := (q[0][1] + q[3][1]) / 2
		p.dc.DrawLine(q[0][0], cy, q[1][0], cy)
	} else {
		cx := (q[0][0] + q[3][0]) / 2
		p.dc.DrawLine(cx, q[0][1], cx, q[1][1])
	}
	p.dc.Stroke()
	p.dc.SetDash()
}

func (p *painter) text(n *layout.RenderNode, x, y geom.Unit) {
	if n.Content == "" {
		return
	}
	f := n.Font
	f.Size *= p.scale
	face, err := p.faces.Face(f)
	if err != nil {
		return
	}
	p.dc.SetFontFace(face)
	p.dc.SetColor(opaque(n.Color))
	baseline := y + n.Height
	if parent := n.Parent; parent != nil && parent.Line != nil {
		baseline = y - n.Y + parent.Line.Baseline
	}
	p.dc.DrawString(n.Content, p.px(x), p.px(baseline))
}

func (p *painter) image(n *layout.RenderNode, x, y geom.Unit) {
	if n.Image == nil {
		return
	}
	in := n.Def.Insets()
	w := int(p.px(n.Width-in.Horizontal()) + 0.5)
	h := int(p.px(n.Height-in.Vertical()) + 0.5)
	if w <= 0 || h <= 0 {
		return
	}
	img := images.Scale(n.Image, w, h)
	p.dc.DrawImage(img, int(p.px(x+in.Left)+0.5), int(p.px(y+in.Top)+0.5))
}

func (p *painter) hline(n *layout.RenderNode, x, y geom.Unit) {
	w := p.px(n.Height)
	if w <= 0 {
		w = 1
	}
	p.dc.SetColor(opaque(n.Color))
	p.dc.SetLineWidth(w)
	cy := p.px(y) + w/2
	p.dc.DrawLine(p.px(x), cy, p.px(x+n.Width), cy)
	p.dc.Stroke()
}

// Edges returns the painted borders of n in top, right, bottom, left
// order: the collapsed borders of a cell or the declared ones.
func Edges(n *layout.RenderNode) [4]layout.BorderEdge {
	if n.Borders != nil {
		return *n.Borders
	}
	d := n.Def
	return [4]layout.BorderEdge{
		{Width: d.Border.Top, Style: d.BorderStyles[0], Color: d.BorderColors[0]},
		{Width: d.Border.Right, Style: d.BorderStyles[1], Color: d.BorderColors[1]},
		{Width: d.Border.Bottom, Style: d.BorderStyles[2], Color: d.BorderColors[2]},
		{Width: d.Border.Left, Style: d.BorderStyles[3], Color: d.BorderColors[3]},
	}
}

// opaque treats a fully transparent color as black, the default ink.
func opaque(c color.RGBA) color.RGBA {
	if c == (color.RGBA{}) {
		return color.RGBA{A: 0xff}
	}
	return c
}
