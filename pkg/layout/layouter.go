package layout

import (
	"log/slog"
	"strings"

	"pressroom/pkg/geom"
	"pressroom/pkg/style"
	"pressroom/pkg/text"
)

// TableLayouter computes table geometry for the Layouter. LayoutTable
// receives the resolved border box width; the table may grow beyond it when
// its columns need more room.
type TableLayouter interface {
	LayoutTable(l *Layouter, table *RenderNode, width geom.Unit) error
	TableContentWidths(l *Layouter, table *RenderNode) (minW, maxW geom.Unit, err error)
}

// Layouter assigns sizes and positions to built node trees.
type Layouter struct {
	Measurer text.Measurer
	Tables   TableLayouter
	// DPI converts image pixels to points.
	DPI    float64
	Logger *slog.Logger
}

func NewLayouter(m text.Measurer, tables TableLayouter, logger *slog.Logger) *Layouter {
	if m == nil {
		m = text.FixedMeasurer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Layouter{Measurer: m, Tables: tables, DPI: 72, Logger: logger}
}

// Layout sizes n to fill avail, the width available to its margin box,
// unless it has a preferred width.
func (l *Layouter) Layout(n *RenderNode, avail geom.Unit) error {
	return l.LayoutBox(n, avail, true)
}

// LayoutBox lays out n. With stretch the border box fills avail minus the
// margins when the width is auto; otherwise an auto width shrinks to fit
// the content.
func (l *Layouter) LayoutBox(n *RenderNode, avail geom.Unit, stretch bool) error {
	w, err := l.resolveWidth(n, avail, stretch)
	if err != nil {
		return err
	}
	if n.Type == NodeTable && l.Tables != nil {
		return l.Tables.LayoutTable(l, n, w)
	}
	return l.LayoutWithWidth(n, w)
}

// LayoutWithWidth lays out n with a fixed border box width.
func (l *Layouter) LayoutWithWidth(n *RenderNode, width geom.Unit) error {
	in := n.Def.Insets()
	n.Width = geom.Max(width, in.Horizontal())
	cw := n.Width - in.Horizontal()

	var contentH geom.Unit
	var err error
	switch n.Type {
	case NodeRow, NodeTableRow:
		contentH, err = l.layoutRow(n, cw)
	case NodeCanvas:
		contentH, err = l.layoutCanvas(n, cw)
	case NodeInline:
		contentH, err = l.layoutInline(n, cw)
	case NodeParagraph:
		contentH, err = l.layoutParagraph(n, cw)
	case NodeImage:
		contentH = l.imageHeight(n, cw)
	case NodeHorizontalLine:
		if n.Def.PreferredHeight == Auto && in.Vertical() == 0 {
			contentH = geom.PtInt(1)
		}
	case NodeText, NodeRectangle, NodeSpacer, NodeTableCol, NodeTableColGroup:
	default:
		contentH, err = l.layoutBlock(n, cw)
	}
	if err != nil {
		return err
	}

	h := contentH + in.Vertical()
	if n.Def.PreferredHeight != Auto && n.Def.PreferredHeight > h {
		h = n.Def.PreferredHeight
	}
	n.Height = geom.Max(h, n.Def.MinHeight)
	l.fitChildren(n)
	if n.Type == NodeParagraph {
		alignLines(n, contentH)
	}
	return nil
}

// fitChildren grows n so that every child lies inside its border box.
func (l *Layouter) fitChildren(n *RenderNode) {
	in := n.Def.Insets()
	for _, c := range n.Children {
		n.Width = geom.Max(n.Width, c.X+c.Width+c.Def.Margin.Right+in.Right)
		n.Height = geom.Max(n.Height, c.Y+c.Height+c.Def.Margin.Bottom+in.Bottom)
	}
}

func (l *Layouter) resolveWidth(n *RenderNode, avail geom.Unit, stretch bool) (geom.Unit, error) {
	d := &n.Def
	var w geom.Unit
	switch {
	case d.PreferredWidth != Auto:
		w = d.PreferredWidth
	case stretch:
		w = avail - d.Margin.Horizontal()
	default:
		minW, maxW, err := l.ContentWidths(n)
		if err != nil {
			return 0, err
		}
		w = geom.Min(geom.Max(minW, avail-d.Margin.Horizontal()), maxW)
	}
	if d.MaxWidth != Auto {
		w = geom.Min(w, d.MaxWidth)
	}
	w = geom.Max(w, d.MinWidth)
	return geom.Max(w, d.Insets().Horizontal()), nil
}

func (l *Layouter) layoutBlock(n *RenderNode, cw geom.Unit) (geom.Unit, error) {
	in := n.Def.Insets()
	y := in.Top
	for _, c := range n.Children {
		if err := l.LayoutBox(c, cw, true); err != nil {
			return 0, err
		}
		c.X = in.Left + c.Def.Margin.Left
		c.Y = y + c.Def.Margin.Top
		y += c.MarginHeight()
	}
	return y - in.Top, nil
}

func (l *Layouter) layoutRow(n *RenderNode, cw geom.Unit) (geom.Unit, error) {
	in := n.Def.Insets()
	x := in.Left
	var h geom.Unit
	for _, c := range n.Children {
		remaining := geom.Max(0, cw-(x-in.Left))
		if err := l.LayoutBox(c, remaining, false); err != nil {
			return 0, err
		}
		c.X = x + c.Def.Margin.Left
		c.Y = in.Top + c.Def.Margin.Top
		x += c.MarginWidth()
		h = geom.Max(h, c.MarginHeight())
	}
	return h, nil
}

func (l *Layouter) layoutCanvas(n *RenderNode, cw geom.Unit) (geom.Unit, error) {
	in := n.Def.Insets()
	var h geom.Unit
	for _, c := range n.Children {
		px, py := position(c)
		if err := l.LayoutBox(c, geom.Max(0, cw-px), false); err != nil {
			return 0, err
		}
		c.X = in.Left + px + c.Def.Margin.Left
		c.Y = in.Top + py + c.Def.Margin.Top
		h = geom.Max(h, py+c.MarginHeight())
	}
	return h, nil
}

func position(n *RenderNode) (x, y geom.Unit) {
	if n.Style == nil {
		return 0, 0
	}
	return geom.Max(0, geom.Pt(n.Style.Points(style.PosX))), geom.Max(0, geom.Pt(n.Style.Points(style.PosY)))
}

// layoutInline flows children left to right and wraps them onto new lines.
func (l *Layouter) layoutInline(n *RenderNode, cw geom.Unit) (geom.Unit, error) {
	in := n.Def.Insets()
	x, y := in.Left, in.Top
	var lineH geom.Unit
	for _, c := range n.Children {
		if err := l.LayoutBox(c, cw, false); err != nil {
			return 0, err
		}
		if x > in.Left && x+c.MarginWidth() > in.Left+cw {
			x = in.Left
			y += lineH
			lineH = 0
		}
		c.X = x + c.Def.Margin.Left
		c.Y = y + c.Def.Margin.Top
		x += c.MarginWidth()
		lineH = geom.Max(lineH, c.MarginHeight())
	}
	return y + lineH - in.Top, nil
}

func (l *Layouter) measure(n *RenderNode, s string) (geom.Unit, error) {
	w, _, err := l.Measurer.Measure(s, n.Font)
	if err != nil {
		return 0, &ContentProcessingError{Element: n.Name, ID: n.ID, Err: err}
	}
	return geom.Pt(w), nil
}

func (l *Layouter) lineHeight(n *RenderNode) geom.Unit {
	if n.Style != nil {
		if lh := n.Style.Points(style.LineHeight); lh > 0 {
			return geom.Pt(lh)
		}
	}
	return geom.Pt(l.Measurer.LineHeight(n.Font))
}

// lines splits the paragraph text according to its white-space mode.
func (l *Layouter) lines(n *RenderNode, cw geom.Unit) ([]string, error) {
	mode := "normal"
	if n.Style != nil {
		mode = n.Style.Keyword(style.WhiteSpace)
	}
	hard := strings.Split(strings.ReplaceAll(n.Content, "\r\n", "\n"), "\n")
	if mode != "pre" {
		for i, h := range hard {
			hard[i] = strings.Join(strings.Fields(h), " ")
		}
	}
	if mode == "nowrap" || mode == "pre" {
		return hard, nil
	}
	measure := func(s string) (float64, error) {
		w, _, err := l.Measurer.Measure(s, n.Font)
		return w, err
	}
	var out []string
	for _, h := range hard {
		broken, err := text.BreakLines(h, geom.ToPt(cw), measure)
		if err != nil {
			return nil, &ContentProcessingError{Element: n.Name, ID: n.ID, Err: err}
		}
		out = append(out, broken...)
	}
	return out, nil
}

func (l *Layouter) layoutParagraph(n *RenderNode, cw geom.Unit) (geom.Unit, error) {
	n.Children = nil
	if n.Content == "" {
		return 0, nil
	}
	lines, err := l.lines(n, cw)
	if err != nil {
		return 0, err
	}
	in := n.Def.Insets()
	lh := l.lineHeight(n)
	align := "left"
	if n.Style != nil {
		align = n.Style.Keyword(style.TextAlign)
	}
	baseline := lh - (lh-geom.Pt(n.Font.Size))/2 - geom.Pt(n.Font.Size*0.2)
	for i, s := range lines {
		w, err := l.measure(n, s)
		if err != nil {
			return 0, err
		}
		var off geom.Unit
		switch align {
		case "center":
			off = geom.Max(0, (cw-w)/2)
		case "right":
			off = geom.Max(0, cw-w)
		}
		line := NewBox(NodeLine, n.ID, n.ElementType, nil, nil, n.Key)
		line.X = in.Left + off
		line.Y = in.Top + lh*geom.Unit(i)
		line.Width = w
		line.Height = lh
		line.Line = &Line{Baseline: baseline}
		line.Visible = n.Visible

		t := NewBox(NodeText, n.ID, n.ElementType, nil, nil, n.Key)
		t.Content = s
		t.Font = n.Font
		t.Color = n.Color
		t.Width = w
		t.Height = lh
		t.Visible = n.Visible
		line.AddChild(t)
		n.AddChild(line)
	}
	return lh * geom.Unit(len(lines)), nil
}

// alignLines applies vertical-align when the paragraph is taller than its
// lines.
func alignLines(n *RenderNode, linesH geom.Unit) {
	if n.Style == nil {
		return
	}
	extra := n.ContentRect().Height - linesH
	if extra <= 0 {
		return
	}
	var shift geom.Unit
	switch n.Style.Keyword(style.VerticalAlign) {
	case "middle":
		shift = extra / 2
	case "bottom":
		shift = extra
	default:
		return
	}
	for _, c := range n.Children {
		c.Y += shift
	}
}

func (l *Layouter) imageHeight(n *RenderNode, cw geom.Unit) geom.Unit {
	if n.Image == nil || n.Def.PreferredHeight != Auto {
		return 0
	}
	b := n.Image.Bounds()
	if b.Dx() == 0 {
		return 0
	}
	return geom.MulDiv(cw, geom.PtInt(b.Dy()), geom.PtInt(b.Dx()))
}

func (l *Layouter) pixels(px int) geom.Unit {
	dpi := l.DPI
	if dpi <= 0 {
		dpi = 72
	}
	return geom.Pt(float64(px) * 72 / dpi)
}

// ContentWidths returns the minimum and maximum content widths of n as
// border box widths.
func (l *Layouter) ContentWidths(n *RenderNode) (minW, maxW geom.Unit, err error) {
	d := &n.Def
	if d.PreferredWidth != Auto {
		return d.PreferredWidth, d.PreferredWidth, nil
	}
	in := d.Insets().Horizontal()
	switch n.Type {
	case NodeTable:
		if l.Tables != nil {
			return l.Tables.TableContentWidths(l, n)
		}
	case NodeParagraph:
		minW, maxW, err = l.textWidths(n)
	case NodeImage:
		if n.Image != nil {
			w := l.pixels(n.Image.Bounds().Dx())
			minW, maxW = w, w
		}
	case NodeRow, NodeTableRow:
		for _, c := range n.Children {
			cmin, cmax, err := l.ContentWidths(c)
			if err != nil {
				return 0, 0, err
			}
			minW += cmin + c.Def.Margin.Horizontal()
			maxW += cmax + c.Def.Margin.Horizontal()
		}
	case NodeInline:
		for _, c := range n.Children {
			cmin, cmax, err := l.ContentWidths(c)
			if err != nil {
				return 0, 0, err
			}
			minW = geom.Max(minW, cmin+c.Def.Margin.Horizontal())
			maxW += cmax + c.Def.Margin.Horizontal()
		}
	case NodeCanvas:
		for _, c := range n.Children {
			cmin, cmax, err := l.ContentWidths(c)
			if err != nil {
				return 0, 0, err
			}
			px, _ := position(c)
			minW = geom.Max(minW, px+cmin+c.Def.Margin.Horizontal())
			maxW = geom.Max(maxW, px+cmax+c.Def.Margin.Horizontal())
		}
	default:
		for _, c := range n.Children {
			cmin, cmax, err := l.ContentWidths(c)
			if err != nil {
				return 0, 0, err
			}
			minW = geom.Max(minW, cmin+c.Def.Margin.Horizontal())
			maxW = geom.Max(maxW, cmax+c.Def.Margin.Horizontal())
		}
	}
	if err != nil {
		return 0, 0, err
	}
	minW = geom.Max(minW+in, d.MinWidth)
	maxW = geom.Max(maxW+in, minW)
	return minW, maxW, nil
}

// textWidths returns the widest word and the widest hard line.
func (l *Layouter) textWidths(n *RenderNode) (minW, maxW geom.Unit, err error) {
	mode := "normal"
	if n.Style != nil {
		mode = n.Style.Keyword(style.WhiteSpace)
	}
	nowrap := mode != "normal"
	for _, line := range strings.Split(strings.ReplaceAll(n.Content, "\r\n", "\n"), "\n") {
		shown := line
		if mode != "pre" {
			shown = strings.Join(strings.Fields(line), " ")
		}
		w, err := l.measure(n, shown)
		if err != nil {
			return 0, 0, err
		}
		maxW = geom.Max(maxW, w)
		if nowrap {
			minW = geom.Max(minW, w)
			continue
		}
		for _, word := range strings.Fields(line) {
			ww, err := l.measure(n, word)
			if err != nil {
				return 0, 0, err
			}
			minW = geom.Max(minW, ww)
		}
	}
	return minW, maxW, nil
}
