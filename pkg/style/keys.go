package style

import "image/color"

// DefaultRegistry holds the engine's style keys. It is frozen once the
// package is initialised.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Freeze()
}

var (
	lengthDomain      = DomainOf(TypeLength, TypeInherit)
	sizeDomain        = DomainOf(TypeLength, TypePercentage, TypeAuto, TypeInherit)
	sizeResolved      = DomainOf(TypeLength, TypeAuto)
	boxEdgeDomain     = DomainOf(TypeLength, TypePercentage, TypeInherit)
	pointsResolved    = DomainOf(TypeLength)
	keywordDomain     = DomainOf(TypeKeyword, TypeInherit)
	keywordResolved   = DomainOf(TypeKeyword)
	boolDomain        = DomainOf(TypeBoolean, TypeInherit)
	boolResolved      = DomainOf(TypeBoolean)
	colorDomain       = DomainOf(TypeColor, TypeKeyword, TypeInherit)
	colorResolved     = DomainOf(TypeColor)
	borderWidthDomain = DomainOf(TypeLength, TypeKeyword, TypeInherit)
)

// Layout keywords of the layout key.
const (
	LayoutCanvas = "canvas"
	LayoutBlock  = "block"
	LayoutRow    = "row"
	LayoutInline = "inline"
	LayoutTable  = "table"
)

// Border style keywords, in ascending collapse precedence (hidden is special).
var BorderStyles = []string{"none", "inset", "groove", "outset", "ridge", "dotted", "dashed", "solid", "double", "hidden"}

// Geometry.
var (
	Width     = DefaultRegistry.Register(Key{Name: "width", Domain: sizeDomain, Resolved: sizeResolved, Default: Auto})
	Height    = DefaultRegistry.Register(Key{Name: "height", Domain: sizeDomain, Resolved: sizeResolved, Default: Auto})
	MinWidth  = DefaultRegistry.Register(Key{Name: "min-width", Domain: boxEdgeDomain, Resolved: pointsResolved, Default: Points(0)})
	MinHeight = DefaultRegistry.Register(Key{Name: "min-height", Domain: boxEdgeDomain, Resolved: pointsResolved, Default: Points(0)})
	MaxWidth  = DefaultRegistry.Register(Key{Name: "max-width", Domain: sizeDomain, Resolved: sizeResolved, Default: Auto})
	MaxHeight = DefaultRegistry.Register(Key{Name: "max-height", Domain: sizeDomain, Resolved: sizeResolved, Default: Auto})
	PosX      = DefaultRegistry.Register(Key{Name: "x", Domain: boxEdgeDomain, Resolved: pointsResolved, Default: Points(0)})
	PosY      = DefaultRegistry.Register(Key{Name: "y", Domain: boxEdgeDomain, Resolved: pointsResolved, Default: Points(0)})
)

// Box model.
var (
	MarginTop    = DefaultRegistry.Register(Key{Name: "margin-top", Domain: boxEdgeDomain, Resolved: pointsResolved, Default: Points(0)})
	MarginRight  = DefaultRegistry.Register(Key{Name: "margin-right", Domain: boxEdgeDomain, Resolved: pointsResolved, Default: Points(0)})
	MarginBottom = DefaultRegistry.Register(Key{Name: "margin-bottom", Domain: boxEdgeDomain, Resolved: pointsResolved, Default: Points(0)})
	MarginLeft   = DefaultRegistry.Register(Key{Name: "margin-left", Domain: boxEdgeDomain, Resolved: pointsResolved, Default: Points(0)})

	PaddingTop    = DefaultRegistry.Register(Key{Name: "padding-top", Domain: boxEdgeDomain, Resolved: pointsResolved, Default: Points(0)})
	PaddingRight  = DefaultRegistry.Register(Key{Name: "padding-right", Domain: boxEdgeDomain, Resolved: pointsResolved, Default: Points(0)})
	PaddingBottom = DefaultRegistry.Register(Key{Name: "padding-bottom", Domain: boxEdgeDomain, Resolved: pointsResolved, Default: Points(0)})
	PaddingLeft   = DefaultRegistry.Register(Key{Name: "padding-left", Domain: boxEdgeDomain, Resolved: pointsResolved, Default: Points(0)})

	BorderTopStyle    = DefaultRegistry.Register(Key{Name: "border-top-style", Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword("none"), Keywords: BorderStyles})
	BorderRightStyle  = DefaultRegistry.Register(Key{Name: "border-right-style", Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword("none"), Keywords: BorderStyles})
	BorderBottomStyle = DefaultRegistry.Register(Key{Name: "border-bottom-style", Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword("none"), Keywords: BorderStyles})
	BorderLeftStyle   = DefaultRegistry.Register(Key{Name: "border-left-style", Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword("none"), Keywords: BorderStyles})

	BorderTopWidth    = DefaultRegistry.Register(Key{Name: "border-top-width", Domain: borderWidthDomain, Resolved: pointsResolved, Default: Keyword("medium"), Keywords: []string{"thin", "medium", "thick"}})
	BorderRightWidth  = DefaultRegistry.Register(Key{Name: "border-right-width", Domain: borderWidthDomain, Resolved: pointsResolved, Default: Keyword("medium"), Keywords: []string{"thin", "medium", "thick"}})
	BorderBottomWidth = DefaultRegistry.Register(Key{Name: "border-bottom-width", Domain: borderWidthDomain, Resolved: pointsResolved, Default: Keyword("medium"), Keywords: []string{"thin", "medium", "thick"}})
	BorderLeftWidth   = DefaultRegistry.Register(Key{Name: "border-left-width", Domain: borderWidthDomain, Resolved: pointsResolved, Default: Keyword("medium"), Keywords: []string{"thin", "medium", "thick"}})

	BorderTopColor    = DefaultRegistry.Register(Key{Name: "border-top-color", Domain: colorDomain, Resolved: colorResolved, Default: Keyword("currentcolor")})
	BorderRightColor  = DefaultRegistry.Register(Key{Name: "border-right-color", Domain: colorDomain, Resolved: colorResolved, Default: Keyword("currentcolor")})
	BorderBottomColor = DefaultRegistry.Register(Key{Name: "border-bottom-color", Domain: colorDomain, Resolved: colorResolved, Default: Keyword("currentcolor")})
	BorderLeftColor   = DefaultRegistry.Register(Key{Name: "border-left-color", Domain: colorDomain, Resolved: colorResolved, Default: Keyword("currentcolor")})
)

// Fonts and text.
var (
	FontFamily  = DefaultRegistry.Register(Key{Name: "font-family", Inherited: true, Domain: DomainOf(TypeString, TypeKeyword, TypeInherit), Resolved: DomainOf(TypeString, TypeKeyword), Default: Keyword("sans-serif")})
	FontSize    = DefaultRegistry.Register(Key{Name: "font-size", Inherited: true, Domain: DomainOf(TypeLength, TypePercentage, TypeKeyword, TypeInherit), Resolved: pointsResolved, Default: Keyword("medium"), Keywords: []string{"xx-small", "x-small", "small", "medium", "large", "x-large", "xx-large", "larger", "smaller"}})
	FontWeight  = DefaultRegistry.Register(Key{Name: "font-weight", Inherited: true, Domain: DomainOf(TypeNumber, TypeKeyword, TypeInherit), Resolved: DomainOf(TypeNumber), Default: Keyword("normal"), Keywords: []string{"normal", "bold", "bolder", "lighter"}})
	FontStyle   = DefaultRegistry.Register(Key{Name: "font-style", Inherited: true, Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword("normal"), Keywords: []string{"normal", "italic", "oblique"}})
	FontVariant = DefaultRegistry.Register(Key{Name: "font-variant", Inherited: true, Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword("normal"), Keywords: []string{"normal", "small-caps"}})
	FontSmooth  = DefaultRegistry.Register(Key{Name: "font-smooth", Inherited: true, Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword("auto"), Keywords: []string{"auto", "never", "always"}})
	FontStretch = DefaultRegistry.Register(Key{Name: "font-stretch", Inherited: true, Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword("normal")})
	MinFontSize = DefaultRegistry.Register(Key{Name: "min-font-size", Inherited: true, Domain: DomainOf(TypeLength, TypePercentage, TypeKeyword, TypeInherit), Resolved: pointsResolved, Default: Keyword("none")})
	MaxFontSize = DefaultRegistry.Register(Key{Name: "max-font-size", Inherited: true, Domain: DomainOf(TypeLength, TypePercentage, TypeKeyword, TypeInherit), Resolved: pointsResolved, Default: Keyword("none")})

	TextColor       = DefaultRegistry.Register(Key{Name: "color", Inherited: true, Domain: colorDomain, Resolved: colorResolved, Default: ColorValue(color.RGBA{A: 255})})
	BackgroundColor = DefaultRegistry.Register(Key{Name: "background-color", Domain: colorDomain, Resolved: colorResolved, Default: Keyword("transparent")})
	TextAlign       = DefaultRegistry.Register(Key{Name: "text-align", Inherited: true, Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword("left"), Keywords: []string{"left", "center", "right", "justify"}})
	VerticalAlign   = DefaultRegistry.Register(Key{Name: "vertical-align", Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword("top"), Keywords: []string{"top", "middle", "bottom"}})
	LineHeight      = DefaultRegistry.Register(Key{Name: "line-height", Domain: DomainOf(TypeLength, TypePercentage, TypeNumber, TypeKeyword, TypeInherit), Resolved: pointsResolved, Default: Keyword("normal"), Keywords: []string{"normal"}})
	WhiteSpace      = DefaultRegistry.Register(Key{Name: "white-space", Inherited: true, Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword("normal"), Keywords: []string{"normal", "nowrap", "pre"}})
)

// Flow and visibility.
var (
	Layout                 = DefaultRegistry.Register(Key{Name: "layout", Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword(LayoutCanvas), Keywords: []string{LayoutCanvas, LayoutBlock, LayoutRow, LayoutInline, LayoutTable}})
	Visible                = DefaultRegistry.Register(Key{Name: "visible", Domain: boolDomain, Resolved: boolResolved, Default: Bool(true)})
	Visibility             = DefaultRegistry.Register(Key{Name: "visibility", Inherited: true, Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword("visible"), Keywords: []string{"visible", "hidden", "collapse"}})
	InvisibleConsumesSpace = DefaultRegistry.Register(Key{Name: "invisible-consumes-space", Inherited: true, Domain: boolDomain, Resolved: boolResolved, Default: Bool(false)})
	PageBreakBefore        = DefaultRegistry.Register(Key{Name: "page-break-before", Domain: boolDomain, Resolved: boolResolved, Default: Bool(false)})
	PageBreakAfter         = DefaultRegistry.Register(Key{Name: "page-break-after", Domain: boolDomain, Resolved: boolResolved, Default: Bool(false)})
	AvoidPageBreak         = DefaultRegistry.Register(Key{Name: "avoid-page-break", Domain: boolDomain, Resolved: boolResolved, Default: Bool(false)})
	RepeatHeader           = DefaultRegistry.Register(Key{Name: "repeat-header", Domain: boolDomain, Resolved: boolResolved, Default: Bool(false)})
)

// Tables.
var (
	TableLayout    = DefaultRegistry.Register(Key{Name: "table-layout", Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword("auto"), Keywords: []string{"auto", "fixed"}})
	BorderCollapse = DefaultRegistry.Register(Key{Name: "border-collapse", Inherited: true, Domain: keywordDomain, Resolved: keywordResolved, Default: Keyword("separate"), Keywords: []string{"separate", "collapse"}})
	BorderSpacing  = DefaultRegistry.Register(Key{Name: "border-spacing", Inherited: true, Domain: lengthDomain, Resolved: pointsResolved, Default: Points(0)})
)

// Side groups box edge keys in top, right, bottom, left order.
type Side struct {
	Margin, Padding, BorderStyle, BorderWidth, BorderColor *Key
}

// Sides lists the four box sides in top, right, bottom, left order.
var Sides = [4]Side{
	{MarginTop, PaddingTop, BorderTopStyle, BorderTopWidth, BorderTopColor},
	{MarginRight, PaddingRight, BorderRightStyle, BorderRightWidth, BorderRightColor},
	{MarginBottom, PaddingBottom, BorderBottomStyle, BorderBottomWidth, BorderBottomColor},
	{MarginLeft, PaddingLeft, BorderLeftStyle, BorderLeftWidth, BorderLeftColor},
}
