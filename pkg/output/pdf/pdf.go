// Package pdf writes logical pages into a PDF document with fpdf. Text uses
// the PDF core fonts so documents need no embedded font files.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
	"pressroom/pkg/output/raster"
	"pressroom/pkg/text"
)

// Sink collects pages into one document and writes it to W on Close.
type Sink struct {
	W       io.Writer
	Title   string
	Creator string
	// Compress deflates page streams. Tests turn it off to read content.
	Compress bool

	doc    *fpdf.Fpdf
	tr     func(string) string
	images int
}

func NewSink(w io.Writer, title string) *Sink {
	return &Sink{W: w, Title: title, Creator: "pressroom", Compress: true}
}

func (s *Sink) init() {
	if s.doc != nil {
		return
	}
	s.doc = fpdf.New("P", "pt", "A4", "")
	s.doc.SetAutoPageBreak(false, 0)
	s.doc.SetMargins(0, 0, 0)
	s.doc.SetCompression(s.Compress)
	if s.Title != "" {
		s.doc.SetTitle(s.Title, true)
	}
	s.doc.SetCreator(s.Creator, true)
	s.tr = s.doc.UnicodeTranslatorFromDescriptor("")
}

// ProcessPage appends page as a new PDF page of the same size.
func (s *Sink) ProcessPage(ctx context.Context, page *layout.LogicalPageBox, _ int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.init()
	s.doc.AddPageFormat("P", fpdf.SizeType{Wd: geom.ToPt(page.Width), Ht: geom.ToPt(page.Height)})
	s.paint(page.RenderNode, 0, 0)
	if s.doc.Err() {
		return fmt.Errorf("pdf page %d: %w", page.Number, s.doc.Error())
	}
	return nil
}

// PageCount returns the pages added so far.
func (s *Sink) PageCount() int {
	if s.doc == nil {
		return 0
	}
	return s.doc.PageCount()
}

func (s *Sink) Close() error {
	s.init()
	if s.doc.PageCount() == 0 {
		s.doc.AddPage()
	}
	if s.doc.Err() {
		return s.doc.Error()
	}
	return s.doc.Output(s.W)
}

// Discard drops the document; nothing is written.
func (s *Sink) Discard() { s.doc = nil }

func (s *Sink) paint(n *layout.RenderNode, ox, oy geom.Unit) {
	if !n.Visible && n.Type != layout.NodeLogicalPage && n.Type != layout.NodePageArea {
		return
	}
	x, y := ox+n.X, oy+n.Y
	s.background(n, x, y)
	s.borders(n, x, y)
	switch n.Type {
	case layout.NodeText:
		s.text(n, x, y)
	case layout.NodeImage:
		s.image(n, x, y)
	case layout.NodeHorizontalLine:
		s.hline(n, x, y)
	}
	for _, c := range n.Children {
		s.paint(c, x, y)
	}
}

func pt(u geom.Unit) float64 { return geom.ToPt(u) }

func (s *Sink) background(n *layout.RenderNode, x, y geom.Unit) {
	bg := n.Def.Background
	if bg.A == 0 || n.Width <= 0 || n.Height <= 0 {
		return
	}
	s.doc.SetFillColor(int(bg.R), int(bg.G), int(bg.B))
	s.doc.Rect(pt(x), pt(y), pt(n.Width), pt(n.Height), "F")
}

func (s *Sink) borders(n *layout.RenderNode, x, y geom.Unit) {
	edges := raster.Edges(n)
	d := n.Def.Border
	ol, ot := pt(x-(edges[3].Width-d.Left)), pt(y-(edges[0].Width-d.Top))
	or, ob := pt(x+n.Width+edges[1].Width-d.Right), pt(y+n.Height+edges[2].Width-d.Bottom)
	il, it := ol+pt(edges[3].Width), ot+pt(edges[0].Width)
	ir, ib := or-pt(edges[1].Width), ob-pt(edges[2].Width)

	quads := [4][]fpdf.PointType{
		{{X: ol, Y: ot}, {X: or, Y: ot}, {X: ir, Y: it}, {X: il, Y: it}},
		{{X: or, Y: ot}, {X: or, Y: ob}, {X: ir, Y: ib}, {X: ir, Y: it}},
		{{X: ol, Y: ob}, {X: or, Y: ob}, {X: ir, Y: ib}, {X: il, Y: ib}},
		{{X: ol, Y: ot}, {X: ol, Y: ob}, {X: il, Y: ib}, {X: il, Y: it}},
	}
	for side, e := range edges {
		if e.Width <= 0 || e.Style == "none" || e.Style == "hidden" || e.Style == "" {
			continue
		}
		c := ink(e.Color)
		q := quads[side]
		switch e.Style {
		case "dashed", "dotted":
			w := pt(e.Width)
			s.doc.SetDrawColor(int(c.R), int(c.G), int(c.B))
			s.doc.SetLineWidth(w)
			if e.Style == "dotted" {
				s.doc.SetDashPattern([]float64{w, w * 2}, 0)
			} else {
				s.doc.SetDashPattern([]float64{w * 3, w * 2}, 0)
			}
			if side%2 == 0 {
				cy := (q[0].Y + q[3].Y) / 2
				s.doc.Line(q[0].X, cy, q[1].X, cy)
			} else {
				cx := (q[0].X + q[3].X) / 2
				s.doc.Line(cx, q[0].Y, cx, q[1].Y)
			}
			s.doc.SetDashPattern(nil, 0)
		default:
			s.doc.SetFillColor(int(c.R), int(c.G), int(c.B))
			s.doc.Polygon(q, "F")
		}
	}
}

func (s *Sink) text(n *layout.RenderNode, x, y geom.Unit) {
	if n.Content == "" {
		return
	}
	family, st := coreFont(n.Font)
	size := n.Font.Size
	if size <= 0 {
		size = 10
	}
	s.doc.SetFont(family, st, size)
	c := ink(n.Color)
	s.doc.SetTextColor(int(c.R), int(c.G), int(c.B))
	baseline := y + n.Height
	if parent := n.Parent; parent != nil && parent.Line != nil {
		baseline = y - n.Y + parent.Line.Baseline
	}
	s.doc.Text(pt(x), pt(baseline), s.tr(n.Content))
}

func (s *Sink) image(n *layout.RenderNode, x, y geom.Unit) {
	if n.Image == nil {
		return
	}
	in := n.Def.Insets()
	w, h := n.Width-in.Horizontal(), n.Height-in.Vertical()
	if w <= 0 || h <= 0 {
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, n.Image); err != nil {
		s.doc.SetError(err)
		return
	}
	s.images++
	name := fmt.Sprintf("img%d", s.images)
	opt := fpdf.ImageOptions{ImageType: "PNG"}
	s.doc.RegisterImageOptionsReader(name, opt, &buf)
	s.doc.ImageOptions(name, pt(x+in.Left), pt(y+in.Top), pt(w), pt(h), false, opt, 0, "")
}

func (s *Sink) hline(n *layout.RenderNode, x, y geom.Unit) {
	w := pt(n.Height)
	if w <= 0 {
		w = 1
	}
	c := ink(n.Color)
	s.doc.SetDrawColor(int(c.R), int(c.G), int(c.B))
	s.doc.SetLineWidth(w)
	cy := pt(y) + w/2
	s.doc.Line(pt(x), cy, pt(x+n.Width), cy)
}

// coreFont maps a font onto one of the three PDF core families.
func coreFont(f text.Font) (family, style string) {
	fam := strings.ToLower(f.Family)
	switch {
	case strings.Contains(fam, "mono"), strings.Contains(fam, "courier"):
		family = "Courier"
	case strings.Contains(fam, "times"), fam == "serif":
		family = "Times"
	default:
		family = "Helvetica"
	}
	if f.Bold {
		style += "B"
	}
	if f.Italic {
		style += "I"
	}
	return family, style
}

func ink(c color.RGBA) color.RGBA {
	if c == (color.RGBA{}) {
		return color.RGBA{A: 0xff}
	}
	return c
}
