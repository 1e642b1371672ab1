package layout

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"pressroom/pkg/geom"
	"pressroom/pkg/images"
	"pressroom/pkg/report"
	"pressroom/pkg/resolver"
	"pressroom/pkg/state"
	"pressroom/pkg/style"
	"pressroom/pkg/text"
)

// Mode selects how visibility affects the box tree.
type Mode int

const (
	// ModeRunTime elides invisible elements unless their style says that
	// invisible elements consume space.
	ModeRunTime Mode = iota
	// ModeDesignTime keeps every element and its space.
	ModeDesignTime
)

func (m Mode) String() string {
	if m == ModeDesignTime {
		return "design-time"
	}
	return "run-time"
}

// Builder converts report elements into unpositioned render nodes.
type Builder struct {
	Resolver  *resolver.Factory
	Rules     []style.Rule
	Formatter *report.Formatter
	// Images loads image sources. Without a loader image elements stay
	// empty.
	Images *images.Loader
	Mode   Mode
	// Strict turns content failures such as unreadable images into errors.
	Strict bool
	Logger *slog.Logger
}

// Build creates the node tree of el for the current data row. parent is the
// resolved style of the enclosing box and may be nil; cbWidth is the width
// of the containing block. The result is nil when el is elided.
// Sub-reports are not built; their content is produced by the engine.
func (b *Builder) Build(ctx context.Context, el report.ReportElement, row report.DataRow, parent *style.ResolvedStyleSheet, cbWidth geom.Unit, key *state.Key) (*RenderNode, error) {
	if b.Formatter == nil {
		b.Formatter = report.NewFormatter("en-US")
	}
	if b.Logger == nil {
		b.Logger = slog.Default()
	}
	if row == nil {
		row = report.StaticDataRow{}
	}
	return b.build(ctx, el, row, parent, cbWidth, key)
}

func (b *Builder) build(ctx context.Context, el report.ReportElement, row report.DataRow, parent *style.ResolvedStyleSheet, cbWidth geom.Unit, key *state.Key) (*RenderNode, error) {
	if _, ok := el.(*report.SubReport); ok {
		return nil, nil
	}
	sheet := style.Cascade(b.Rules, el, el.StyleSheet())
	rs, err := b.Resolver.ResolveElementStyle(el.Name(), sheet, parent, geom.ToPt(cbWidth), -1)
	if err != nil {
		return nil, err
	}

	visible := rs.BoolProperty(style.Visible) && rs.Keyword(style.Visibility) == "visible"
	if el.Type() == report.TypeTableCol {
		// collapsed columns keep their index; table layout gives them no width
		visible = true
	}
	if !visible && b.Mode == ModeRunTime && !rs.BoolProperty(style.InvisibleConsumesSpace) {
		return nil, nil
	}

	n := b.newNode(el, rs, key)
	n.Name = el.Name()
	n.Visible = visible || b.Mode == ModeDesignTime

	switch el.Type() {
	case report.TypeLabel, report.TypeTextField, report.TypeNumberField, report.TypeDateField, report.TypeMessage:
		n.Content = b.textOf(el, row)
		n.Font = FontOf(rs)
	case report.TypeImage:
		if err := b.loadImage(ctx, n, el, row); err != nil {
			return nil, err
		}
	case report.TypeBarcode:
		if err := b.barcode(n, el, row); err != nil {
			return nil, err
		}
	}

	band, ok := el.(*report.Band)
	if !ok {
		return n, nil
	}
	cb := cbWidth - n.Def.Margin.Horizontal()
	if n.Def.PreferredWidth != Auto {
		cb = n.Def.PreferredWidth
	}
	cb = geom.Max(0, cb-n.Def.Insets().Horizontal())
	for _, child := range band.Elements() {
		c, err := b.build(ctx, child, row, rs, cb, key)
		if err != nil {
			return nil, err
		}
		if c != nil {
			n.AddChild(c)
		}
	}
	return n, nil
}

func (b *Builder) newNode(el report.ReportElement, rs *style.ResolvedStyleSheet, key *state.Key) *RenderNode {
	var t NodeType
	switch el.Type() {
	case report.TypeLabel, report.TypeTextField, report.TypeNumberField, report.TypeDateField, report.TypeMessage:
		t = NodeParagraph
	case report.TypeImage, report.TypeBarcode:
		t = NodeImage
	case report.TypeHorizontalLine:
		t = NodeHorizontalLine
	case report.TypeRectangle:
		t = NodeRectangle
	case report.TypeTable:
		t = NodeTable
	case report.TypeTableHeader, report.TypeTableBody, report.TypeTableFooter:
		t = NodeTableSection
	case report.TypeTableRow:
		t = NodeTableRow
	case report.TypeTableCell:
		return NewTableCell(el.ID(), rs, el.Attributes().Clone(), key)
	case report.TypeTableColGroup:
		t = NodeTableColGroup
	case report.TypeTableCol:
		return NewTableColumn(el.ID(), rs, el.Attributes().Clone(), key)
	default:
		t = containerType(rs.Keyword(style.Layout))
	}
	n := NewBox(t, el.ID(), el.Type(), rs, el.Attributes().Clone(), key)
	if t == NodeTable {
		n.Table = &TableInfo{
			Collapse: rs.Keyword(style.BorderCollapse) == "collapse",
			Spacing:  geom.Pt(rs.Points(style.BorderSpacing)),
		}
	}
	return n
}

func containerType(layout string) NodeType {
	switch layout {
	case style.LayoutBlock:
		return NodeBlock
	case style.LayoutRow:
		return NodeRow
	case style.LayoutInline:
		return NodeInline
	case style.LayoutTable:
		return NodeTable
	}
	return NodeCanvas
}

// FontOf derives the text font of a resolved style.
func FontOf(rs *style.ResolvedStyleSheet) text.Font {
	fs := rs.Keyword(style.FontStyle)
	return text.Font{
		Family: rs.StyleProperty(style.FontFamily).Str,
		Size:   resolver.EffectiveFontSize(rs),
		Bold:   rs.IntProperty(style.FontWeight, 400) >= 600,
		Italic: fs == "italic" || fs == "oblique",
	}
}

var messageField = regexp.MustCompile(`\$\(([^)]+)\)`)

// textOf produces the display text of a text element. Values that cannot
// be formatted show the null value text.
func (b *Builder) textOf(el report.ReportElement, row report.DataRow) string {
	attrs := el.Attributes()
	nullText := attrs.String(report.NSCore, report.AttrNullValue)
	format := attrs.String(report.NSCore, report.AttrFormat)
	if el.Type() == report.TypeLabel {
		return attrs.String(report.NSCore, report.AttrValue)
	}
	if el.Type() == report.TypeMessage {
		return messageField.ReplaceAllStringFunc(attrs.String(report.NSCore, report.AttrValue), func(m string) string {
			v, ok := row.Get(strings.TrimSpace(m[2 : len(m)-1]))
			if !ok || v == nil {
				return nullText
			}
			return b.Formatter.FormatText(v)
		})
	}

	v, ok := fieldValue(el, row)
	if !ok || v == nil {
		return nullText
	}
	switch el.Type() {
	case report.TypeNumberField:
		s, err := b.Formatter.FormatNumber(v, format)
		if err != nil {
			b.Logger.Debug("number format failed", "element", el.Name(), "err", err)
			return nullText
		}
		return s
	case report.TypeDateField:
		s, err := b.Formatter.FormatDate(v, format)
		if err != nil {
			b.Logger.Debug("date format failed", "element", el.Name(), "err", err)
			return nullText
		}
		return s
	}
	if format != "" {
		return b.Formatter.Sprintf(format, v)
	}
	return b.Formatter.FormatText(v)
}

func fieldValue(el report.ReportElement, row report.DataRow) (any, bool) {
	attrs := el.Attributes()
	if f := attrs.String(report.NSCore, report.AttrField); f != "" {
		return row.Get(f)
	}
	return attrs.Get(report.NSCore, report.AttrValue)
}

func (b *Builder) loadImage(ctx context.Context, n *RenderNode, el report.ReportElement, row report.DataRow) error {
	var err error
	switch v, _ := fieldValue(el, row); src := v.(type) {
	case []byte:
		n.Image, _, err = images.Decode(src)
	case string:
		if b.Images != nil {
			n.Image, err = b.Images.Load(ctx, src)
		}
	default:
		if uri := el.Attributes().String(report.NSCore, report.AttrSource); uri != "" && b.Images != nil {
			n.Image, err = b.Images.Load(ctx, uri)
		}
	}
	return b.contentFailure(el, err)
}

func (b *Builder) barcode(n *RenderNode, el report.ReportElement, row report.DataRow) error {
	v, ok := fieldValue(el, row)
	if !ok || v == nil {
		return nil
	}
	w, h := 120, 40
	if n.Def.PreferredWidth != Auto {
		w = int(geom.ToPt(n.Def.PreferredWidth-n.Def.Insets().Horizontal())) * 2
	}
	if n.Def.PreferredHeight != Auto {
		h = int(geom.ToPt(n.Def.PreferredHeight-n.Def.Insets().Vertical())) * 2
	}
	sym := el.Attributes().String(report.NSBarcode, report.AttrSymbology)
	img, err := images.Barcode(sym, b.Formatter.FormatText(v), w, h)
	if err == nil {
		n.Image = img
	}
	return b.contentFailure(el, err)
}

func (b *Builder) contentFailure(el report.ReportElement, err error) error {
	if err == nil {
		return nil
	}
	if b.Strict {
		return &ContentProcessingError{Element: el.Name(), ID: el.ID(), Err: err}
	}
	b.Logger.Warn("content unavailable", "element", el.Name(), "err", err)
	return nil
}

// ContentProcessingError reports content that could not be extracted or
// measured. It aborts the run.
type ContentProcessingError struct {
	Element string
	ID      report.InstanceID
	Err     error
}

func (e *ContentProcessingError) Error() string {
	return fmt.Sprintf("content processing failed for %s (%s): %v", e.Element, e.ID, e.Err)
}

func (e *ContentProcessingError) Unwrap() error { return e.Err }
