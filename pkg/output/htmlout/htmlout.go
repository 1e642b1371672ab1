// Package htmlout writes pages as one HTML document. Every page is a
// positioned container and every painted box an absolutely positioned
// element inside it.
package htmlout

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
	"pressroom/pkg/output/raster"
)

const pageCSS = `body{background:#ddd;margin:0}
.page{position:relative;background:#fff;margin:1em auto;overflow:hidden}
.page div,.page img{position:absolute;box-sizing:border-box}
.page p{position:absolute;margin:0;white-space:pre}`

// Sink builds the document in memory and renders it to W on Close.
type Sink struct {
	W     io.Writer
	Title string

	doc  *html.Node
	body *html.Node
}

func NewSink(w io.Writer, title string) *Sink { return &Sink{W: w, Title: title} }

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func textNode(s string) *html.Node { return &html.Node{Type: html.TextNode, Data: s} }

func (s *Sink) init() {
	if s.doc != nil {
		return
	}
	s.doc = &html.Node{Type: html.DocumentNode}
	s.doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	root := element(atom.Html)
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, "charset", "utf-8"))
	title := element(atom.Title)
	title.AppendChild(textNode(s.Title))
	head.AppendChild(title)
	st := element(atom.Style)
	st.AppendChild(textNode(pageCSS))
	head.AppendChild(st)
	s.body = element(atom.Body)
	root.AppendChild(head)
	root.AppendChild(s.body)
	s.doc.AppendChild(root)
}

func (s *Sink) ProcessPage(ctx context.Context, page *layout.LogicalPageBox, total int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.init()
	div := element(atom.Div,
		"class", "page",
		"id", fmt.Sprintf("page-%d", page.Number),
		"data-page", fmt.Sprint(page.Number),
		"data-pages", fmt.Sprint(total),
		"style", fmt.Sprintf("width:%s;height:%s", px(page.Width), px(page.Height)))
	for _, c := range page.Children {
		if err := s.emit(div, c, 0, 0); err != nil {
			return fmt.Errorf("page %d: %w", page.Number, err)
		}
	}
	s.body.AppendChild(div)
	return nil
}

// emit appends the painted parts of n and its subtree to the page container.
// Positions are page absolute so nesting stays flat.
func (s *Sink) emit(page *html.Node, n *layout.RenderNode, ox, oy geom.Unit) error {
	if !n.Visible && n.Type != layout.NodePageArea {
		return nil
	}
	x, y := ox+n.X, oy+n.Y
	if decl := boxCSS(n); decl != "" {
		page.AppendChild(element(atom.Div, "style", position(x, y, n.Width, n.Height)+decl))
	}
	switch n.Type {
	case layout.NodeParagraph:
		if n.Content != "" {
			for _, line := range n.Children {
				s.line(page, line, x, y)
			}
			return nil
		}
	case layout.NodeImage:
		if n.Image != nil {
			var buf bytes.Buffer
			if err := png.Encode(&buf, n.Image); err != nil {
				return err
			}
			in := n.Def.Insets()
			page.AppendChild(element(atom.Img,
				"src", "data:image/png;base64,"+base64.StdEncoding.EncodeToString(buf.Bytes()),
				"style", position(x+in.Left, y+in.Top, n.Width-in.Horizontal(), n.Height-in.Vertical())))
		}
	case layout.NodeHorizontalLine:
		page.AppendChild(element(atom.Div, "class", "hr",
			"style", position(x, y, n.Width, geom.Max(n.Height, geom.PtInt(1)))+"background:"+css(ink(n.Color))))
	}
	for _, c := range n.Children {
		if err := s.emit(page, c, x, y); err != nil {
			return err
		}
	}
	return nil
}

// line writes one line box of a paragraph as a p element.
func (s *Sink) line(page *html.Node, line *layout.RenderNode, ox, oy geom.Unit) {
	x, y := ox+line.X, oy+line.Y
	for _, t := range line.Children {
		if t.Type != layout.NodeText || t.Content == "" {
			continue
		}
		decl := []string{position(x+t.X, y+t.Y, t.Width, t.Height)}
		if t.Font.Family != "" {
			decl = append(decl, "font-family:"+t.Font.Family)
		}
		if t.Font.Size > 0 {
			decl = append(decl, fmt.Sprintf("font-size:%gpt;line-height:%s", t.Font.Size, px(t.Height)))
		}
		if t.Font.Bold {
			decl = append(decl, "font-weight:bold")
		}
		if t.Font.Italic {
			decl = append(decl, "font-style:italic")
		}
		decl = append(decl, "color:"+css(ink(t.Color)))
		p := element(atom.P, "style", strings.Join(decl, ";"))
		p.AppendChild(textNode(t.Content))
		page.AppendChild(p)
	}
}

func boxCSS(n *layout.RenderNode) string {
	var b strings.Builder
	if bg := n.Def.Background; bg.A != 0 {
		fmt.Fprintf(&b, "background:%s;", css(bg))
	}
	names := [4]string{"top", "right", "bottom", "left"}
	for i, e := range raster.Edges(n) {
		if e.Width <= 0 || e.Style == "" || e.Style == "none" || e.Style == "hidden" {
			continue
		}
		fmt.Fprintf(&b, "border-%s:%s %s %s;", names[i], px(e.Width), e.Style, css(ink(e.Color)))
	}
	return b.String()
}

func position(x, y, w, h geom.Unit) string {
	return fmt.Sprintf("left:%s;top:%s;width:%s;height:%s;", px(x), px(y), px(w), px(h))
}

// px writes a length in CSS pixels, 96 per inch.
func px(u geom.Unit) string { return fmt.Sprintf("%.2fpx", geom.ToPt(u)*96/72) }

func css(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%.3f)", c.R, c.G, c.B, float64(c.A)/255)
}

func ink(c color.RGBA) color.RGBA {
	if c == (color.RGBA{}) {
		return color.RGBA{A: 0xff}
	}
	return c
}

func (s *Sink) Close() error {
	s.init()
	return html.Render(s.W, s.doc)
}

// Discard drops the document.
func (s *Sink) Discard() { s.doc, s.body = nil, nil }
