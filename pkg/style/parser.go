package style

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// Attribute namespaces known to every parser.
const (
	NSCore     = "urn:pressroom:core"
	NSTable    = "urn:pressroom:table"
	NSHtml     = "urn:pressroom:html"
	NSPdf      = "urn:pressroom:pdf"
	NSExcel    = "urn:pressroom:excel"
	NSBarcode  = "urn:pressroom:barcode"
	NSInternal = "urn:pressroom:internal"
	NSXml      = "http://www.w3.org/XML/1998/namespace"
)

var (
	ErrUnknownProperty = errors.New("unknown style property")
	ErrInvalidValue    = errors.New("invalid style value")
)

// Parser turns CSS text into style sheets. It is built once per engine and
// read-only afterwards.
type Parser struct {
	reg        *Registry
	namespaces map[string]string
	logger     *slog.Logger
}

func NewParser(reg *Registry, logger *slog.Logger) *Parser {
	if reg == nil {
		reg = DefaultRegistry
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		reg: reg,
		namespaces: map[string]string{
			"core":     NSCore,
			"table":    NSTable,
			"html":     NSHtml,
			"pdf":      NSPdf,
			"excel":    NSExcel,
			"barcode":  NSBarcode,
			"internal": NSInternal,
			"xml":      NSXml,
		},
		logger: logger,
	}
}

// AddNamespace maps prefix to uri.
func (p *Parser) AddNamespace(prefix, uri string) { p.namespaces[prefix] = uri }

// LookupNamespace returns the uri of a prefix or "".
func (p *Parser) LookupNamespace(prefix string) string { return p.namespaces[prefix] }

// Namespaces returns a copy of the prefix table.
func (p *Parser) Namespaces() map[string]string {
	out := make(map[string]string, len(p.namespaces))
	for k, v := range p.namespaces {
		out[k] = v
	}
	return out
}

// ParseNamespaceIdent splits "prefix|name". An empty or missing prefix yields
// an empty namespace, "*" is kept as the wildcard and unknown prefixes yield
// an empty namespace.
func (p *Parser) ParseNamespaceIdent(ident string) (ns, name string) {
	prefix, local, ok := strings.Cut(ident, "|")
	if !ok || local == "" {
		return "", strings.Trim(ident, "|")
	}
	switch prefix {
	case "":
		return "", local
	case "*":
		return "*", local
	}
	return p.namespaces[prefix], local
}

// ParseValue parses text into a value of key k.
func (p *Parser) ParseValue(k *Key, text string) (Value, error) {
	return ParseValue(k, text)
}

// ParseValue parses text according to the domain of k.
func ParseValue(k *Key, text string) (Value, error) {
	raw := strings.TrimSpace(text)
	lc := strings.ToLower(raw)
	d := k.Domain
	switch {
	case lc == "":
		return Unset, fmt.Errorf("%s: %w: empty", k.Name, ErrInvalidValue)
	case lc == "inherit" && d.Has(TypeInherit):
		return Inherit, nil
	case lc == "auto" && d.Has(TypeAuto):
		return Auto, nil
	}
	if d.Has(TypeBoolean) {
		if b, err := strconv.ParseBool(lc); err == nil {
			return Bool(b), nil
		}
	}
	if d.Has(TypeKeyword) && k.AcceptsKeyword(lc) && len(k.Keywords) > 0 {
		return Keyword(lc), nil
	}
	if d.Has(TypeColor) {
		if lc == "currentcolor" {
			return Keyword(lc), nil
		}
		if c, ok := ParseColor(lc); ok {
			return ColorValue(c), nil
		}
	}
	if strings.HasSuffix(lc, "%") && d.Has(TypePercentage) {
		n, err := strconv.ParseFloat(strings.TrimSuffix(lc, "%"), 64)
		if err == nil {
			return Percent(n), nil
		}
	}
	if n, err := strconv.ParseFloat(lc, 64); err == nil {
		if d.Has(TypeNumber) {
			return Number(n), nil
		}
		if d.Has(TypeLength) {
			return Points(n), nil
		}
	}
	if d.Has(TypeLength) {
		if v, ok := parseLength(lc); ok {
			return v, nil
		}
	}
	if d.Has(TypeString) {
		return String(strings.Trim(raw, `"'`)), nil
	}
	if d.Has(TypeKeyword) && len(k.Keywords) == 0 && isIdent(lc) {
		return Keyword(lc), nil
	}
	return Unset, fmt.Errorf("%s: %w: %q", k.Name, ErrInvalidValue, raw)
}

func parseLength(s string) (Value, bool) {
	for u, suffix := range unitSuffix {
		if !strings.HasSuffix(s, suffix) {
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSuffix(s, suffix), 64)
		if err != nil {
			return Unset, false
		}
		return Length(n, LengthUnit(u)), true
	}
	return Unset, false
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r == '-' && i > 0, r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}

// ParseDeclarations parses a declaration block ("width: 10pt; margin: 2pt").
// Unknown properties and bad values are logged and skipped.
func (p *Parser) ParseDeclarations(text string) (*ElementStyleSheet, error) {
	// douceur drops the value of an unterminated last declaration
	if t := strings.TrimSpace(text); t != "" && !strings.HasSuffix(t, ";") {
		text = t + ";"
	}
	decls, err := parser.ParseDeclarations(text)
	if err != nil {
		return nil, fmt.Errorf("parse declarations: %w", err)
	}
	sheet := NewElementStyleSheet()
	p.applyDeclarations(sheet, decls)
	return sheet, nil
}

func (p *Parser) applyDeclarations(sheet *ElementStyleSheet, decls []*css.Declaration) {
	for _, d := range decls {
		name := strings.ToLower(strings.TrimSpace(d.Property))
		for _, pv := range expandShorthand(name, d.Value) {
			k := p.reg.FindKeyByName(pv.name)
			if k == nil {
				p.logger.Debug("skipping style declaration", "property", pv.name, "err", ErrUnknownProperty)
				continue
			}
			v, err := ParseValue(k, pv.value)
			if err != nil {
				p.logger.Warn("skipping style declaration", "property", pv.name, "err", err)
				continue
			}
			sheet.Set(k, v)
		}
	}
}

type propValue struct{ name, value string }

var sideNames = [4]string{"top", "right", "bottom", "left"}

func expandShorthand(name, value string) []propValue {
	switch name {
	case "margin", "padding":
		return expandBoxProperty(name+"-%s", value)
	case "border-width":
		return expandBoxProperty("border-%s-width", value)
	case "border-style":
		return expandBoxProperty("border-%s-style", value)
	case "border-color":
		return expandBoxProperty("border-%s-color", value)
	case "border":
		var out []propValue
		for _, side := range sideNames {
			out = append(out, expandBorderSide(side, value)...)
		}
		return out
	case "border-top", "border-right", "border-bottom", "border-left":
		return expandBorderSide(strings.TrimPrefix(name, "border-"), value)
	case "font":
		return expandFont(value)
	}
	return []propValue{{name, value}}
}

// expandBoxProperty follows the CSS one to four value rule.
func expandBoxProperty(pattern, value string) []propValue {
	parts := strings.Fields(value)
	var v [4]string
	switch len(parts) {
	case 1:
		v = [4]string{parts[0], parts[0], parts[0], parts[0]}
	case 2:
		v = [4]string{parts[0], parts[1], parts[0], parts[1]}
	case 3:
		v = [4]string{parts[0], parts[1], parts[2], parts[1]}
	case 4:
		v = [4]string{parts[0], parts[1], parts[2], parts[3]}
	default:
		return nil
	}
	out := make([]propValue, 4)
	for i, side := range sideNames {
		out[i] = propValue{fmt.Sprintf(pattern, side), v[i]}
	}
	return out
}

// expandBorderSide expands "1pt solid black" for one side.
func expandBorderSide(side, value string) []propValue {
	var out []propValue
	for _, part := range strings.Fields(value) {
		lc := strings.ToLower(part)
		switch {
		case isBorderStyle(lc):
			out = append(out, propValue{"border-" + side + "-style", lc})
		case lc == "thin" || lc == "medium" || lc == "thick" || startsWithDigit(lc):
			out = append(out, propValue{"border-" + side + "-width", lc})
		default:
			out = append(out, propValue{"border-" + side + "-color", lc})
		}
	}
	return out
}

func isBorderStyle(s string) bool {
	for _, b := range BorderStyles {
		if b == s {
			return true
		}
	}
	return false
}

func startsWithDigit(s string) bool {
	return s != "" && (s[0] >= '0' && s[0] <= '9' || s[0] == '.')
}

// expandFont handles "[style] [variant] [weight] size[/line-height] family".
func expandFont(value string) []propValue {
	parts := strings.Fields(value)
	var out []propValue
	for i, part := range parts {
		lc := strings.ToLower(part)
		switch lc {
		case "italic", "oblique":
			out = append(out, propValue{"font-style", lc})
			continue
		case "small-caps":
			out = append(out, propValue{"font-variant", lc})
			continue
		case "bold", "bolder", "lighter":
			out = append(out, propValue{"font-weight", lc})
			continue
		case "normal":
			continue
		}
		if n, err := strconv.Atoi(lc); err == nil && n >= 100 && n <= 900 && n%100 == 0 {
			out = append(out, propValue{"font-weight", lc})
			continue
		}
		size, lh, _ := strings.Cut(lc, "/")
		out = append(out, propValue{"font-size", size})
		if lh != "" {
			out = append(out, propValue{"line-height", lh})
		}
		if rest := strings.Join(parts[i+1:], " "); rest != "" {
			out = append(out, propValue{"font-family", strings.Trim(rest, `"'`)})
		}
		break
	}
	return out
}

// Selector is a simple selector: an optional element type with optional
// class and name parts, or the universal selector.
type Selector struct {
	Type    string
	Class   string
	Name    string
	Literal string
}

// Specificity counts name, class and type parts.
func (s Selector) Specificity() int {
	n := 0
	if s.Name != "" {
		n += 100
	}
	if s.Class != "" {
		n += 10
	}
	if s.Type != "" && s.Type != "*" {
		n++
	}
	return n
}

// Matchable is anything a selector can be tested against.
type Matchable interface {
	ElementTypeName() string
	ElementName() string
	StyleClasses() []string
}

func (s Selector) Matches(m Matchable) bool {
	if s.Type != "" && s.Type != "*" && s.Type != m.ElementTypeName() {
		return false
	}
	if s.Name != "" && s.Name != m.ElementName() {
		return false
	}
	if s.Class != "" {
		found := false
		for _, c := range m.StyleClasses() {
			if c == s.Class {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ParseSelector parses a simple selector such as "label.title", ".total",
// "#footer" or "*". Combinators are rejected.
func ParseSelector(text string) (Selector, error) {
	text = strings.TrimSpace(text)
	sel := Selector{Literal: text}
	if text == "" || strings.ContainsAny(text, " >+~[:") {
		return sel, fmt.Errorf("unsupported selector %q", text)
	}
	rest := text
	i := strings.IndexAny(rest, ".#")
	if i < 0 {
		sel.Type = rest
		return sel, nil
	}
	sel.Type = rest[:i]
	rest = rest[i:]
	for rest != "" {
		marker := rest[0]
		rest = rest[1:]
		j := strings.IndexAny(rest, ".#")
		part := rest
		if j >= 0 {
			part, rest = rest[:j], rest[j:]
		} else {
			rest = ""
		}
		if part == "" {
			return sel, fmt.Errorf("empty selector part in %q", text)
		}
		if marker == '.' {
			if sel.Class != "" {
				return sel, fmt.Errorf("multiple classes in %q", text)
			}
			sel.Class = part
		} else {
			sel.Name = part
		}
	}
	return sel, nil
}

// Rule is one selector with its declarations. Order is the source order.
type Rule struct {
	Selector     Selector
	Declarations *ElementStyleSheet
	Order        int
}

// ParseStyleSheet parses a style sheet into rules, one per selector.
// @namespace rules extend the parser's namespace table; other at-rules and
// unsupported selectors are skipped with a log message.
func (p *Parser) ParseStyleSheet(text string) ([]Rule, error) {
	sheet, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse style sheet: %w", err)
	}
	var rules []Rule
	for _, r := range sheet.Rules {
		if r.Kind == css.AtRule {
			if strings.TrimPrefix(r.Name, "@") == "namespace" {
				p.addNamespaceRule(r.Prelude)
			} else {
				p.logger.Debug("ignoring at-rule", "rule", r.Name)
			}
			continue
		}
		decls := NewElementStyleSheet()
		p.applyDeclarations(decls, r.Declarations)
		for _, s := range r.Selectors {
			sel, err := ParseSelector(s)
			if err != nil {
				p.logger.Warn("skipping style rule", "selector", s, "err", err)
				continue
			}
			rules = append(rules, Rule{Selector: sel, Declarations: decls, Order: len(rules)})
		}
	}
	return rules, nil
}

// addNamespaceRule handles `prefix url("uri")` and `prefix "uri"`.
func (p *Parser) addNamespaceRule(prelude string) {
	fields := strings.Fields(prelude)
	if len(fields) != 2 {
		return
	}
	uri := fields[1]
	uri = strings.TrimSuffix(strings.TrimPrefix(uri, "url("), ")")
	p.AddNamespace(fields[0], strings.Trim(uri, `"'`))
}

// Cascade merges the rules matching m in ascending specificity and source
// order, then the element's own values. The result keeps the parent of local.
func Cascade(rules []Rule, m Matchable, local *ElementStyleSheet) *ElementStyleSheet {
	var matched []Rule
	for _, r := range rules {
		if r.Selector.Matches(m) {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		si, sj := matched[i].Selector.Specificity(), matched[j].Selector.Specificity()
		if si != sj {
			return si < sj
		}
		return matched[i].Order < matched[j].Order
	})
	out := NewElementStyleSheet()
	for _, r := range matched {
		out.Merge(r.Declarations)
	}
	if local != nil {
		out.Merge(local)
		out.parent = local.parent
	}
	return out
}
