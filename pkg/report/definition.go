package report

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"pressroom/pkg/geom"
	"pressroom/pkg/style"
)

// SupportedVersions is the range of definition versions the loader reads.
const SupportedVersions = ">= 1.0, < 2.0"

var ErrUnsupportedVersion = errors.New("unsupported report definition version")

type definition struct {
	Version     string          `yaml:"version"`
	Name        string          `yaml:"name"`
	Locale      string          `yaml:"locale"`
	Query       string          `yaml:"query"`
	Page        pageDef         `yaml:"page"`
	Style       string          `yaml:"style"`
	Parameters  map[string]any  `yaml:"parameters"`
	Expressions []ExpressionDef `yaml:"expressions"`
	Groups      []groupDef      `yaml:"groups"`
	Bands       sectionsDef     `yaml:"bands"`
}

type pageDef struct {
	Paper     string    `yaml:"paper"`
	Landscape bool      `yaml:"landscape"`
	Margins   []float64 `yaml:"margins"`
}

type groupDef struct {
	Name   string      `yaml:"name"`
	Fields []string    `yaml:"fields"`
	Header *elementDef `yaml:"header"`
	Footer *elementDef `yaml:"footer"`
}

type sectionsDef struct {
	PageHeader   *elementDef `yaml:"page-header"`
	PageFooter   *elementDef `yaml:"page-footer"`
	ReportHeader *elementDef `yaml:"report-header"`
	ReportFooter *elementDef `yaml:"report-footer"`
	Item         *elementDef `yaml:"item"`
	NoData       *elementDef `yaml:"no-data"`
}

type elementDef struct {
	Type      string         `yaml:"type"`
	Name      string         `yaml:"name"`
	Value     string         `yaml:"value"`
	Field     string         `yaml:"field"`
	Format    string         `yaml:"format"`
	NullValue string         `yaml:"null-value"`
	Source    string         `yaml:"source"`
	Symbology string         `yaml:"symbology"`
	Class     string         `yaml:"class"`
	Style     string         `yaml:"style"`
	Colspan   int            `yaml:"colspan"`
	Rowspan   int            `yaml:"rowspan"`
	Attrs     map[string]any `yaml:"attributes"`
	Elements  []elementDef   `yaml:"elements"`

	Query       string            `yaml:"query"`
	Parameters  map[string]string `yaml:"parameters"`
	Expressions []ExpressionDef   `yaml:"expressions"`
	Groups      []groupDef        `yaml:"groups"`
	Bands       *sectionsDef      `yaml:"bands"`
}

// Loader reads YAML report definitions.
type Loader struct {
	Parser *style.Parser
}

func NewLoader(p *style.Parser) *Loader {
	if p == nil {
		p = style.NewParser(nil, nil)
	}
	return &Loader{Parser: p}
}

func (l *Loader) LoadFile(path string) (*MasterReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	defer f.Close()
	r, err := l.Load(f)
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", path, err)
	}
	return r, nil
}

func (l *Loader) Load(r io.Reader) (*MasterReport, error) {
	var def definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := checkVersion(def.Version); err != nil {
		return nil, err
	}

	rep := NewMasterReport(def.Name)
	rep.Version = def.Version
	rep.Query = def.Query
	rep.Expressions = def.Expressions
	if def.Locale != "" {
		rep.Locale = def.Locale
	}
	for k, v := range def.Parameters {
		rep.Parameters[k] = v
	}
	if err := applyPage(&rep.Page, def.Page); err != nil {
		return nil, err
	}
	if def.Style != "" {
		rules, err := l.Parser.ParseStyleSheet(def.Style)
		if err != nil {
			return nil, err
		}
		rep.Rules = rules
	}
	if err := l.buildSections(&rep.Sections, &def.Bands, def.Groups); err != nil {
		return nil, err
	}
	return rep, nil
}

func checkVersion(v string) error {
	if v == "" {
		v = "1.0"
	}
	ver, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsupportedVersion, v, err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	if !c.Check(ver) {
		return fmt.Errorf("%w: %s not in %s", ErrUnsupportedVersion, ver, SupportedVersions)
	}
	return nil
}

func applyPage(p *PageDefinition, def pageDef) error {
	if def.Paper != "" {
		ps, err := geom.LookupPaper(def.Paper)
		if err != nil {
			return err
		}
		p.Paper = ps
	}
	if def.Landscape {
		p.Paper = p.Paper.Landscape()
	}
	m := def.Margins
	switch len(m) {
	case 0:
	case 1:
		p.Margins = geom.Uniform(geom.Pt(m[0]))
	case 4:
		p.Margins = geom.Insets{Top: geom.Pt(m[0]), Right: geom.Pt(m[1]), Bottom: geom.Pt(m[2]), Left: geom.Pt(m[3])}
	default:
		return fmt.Errorf("page margins: want 1 or 4 values, got %d", len(m))
	}
	return nil
}

func (l *Loader) buildSections(s *Sections, def *sectionsDef, groups []groupDef) error {
	var err error
	section := func(d *elementDef, t ElementType, name string) *Band {
		if d == nil || err != nil {
			return nil
		}
		var b *Band
		b, err = l.buildBand(d, t, name)
		return b
	}
	s.PageHeader = section(def.PageHeader, TypePageHeader, "page-header")
	s.PageFooter = section(def.PageFooter, TypePageFooter, "page-footer")
	s.ReportHeader = section(def.ReportHeader, TypeReportHeader, "report-header")
	s.ReportFooter = section(def.ReportFooter, TypeReportFooter, "report-footer")
	if def.Item != nil {
		s.ItemBand = section(def.Item, TypeItemBand, "item")
	} else if s.ItemBand == nil {
		s.ItemBand = NewBand(TypeItemBand, "item")
	}
	s.NoDataBand = section(def.NoData, TypeNoDataBand, "no-data")
	for _, g := range groups {
		if len(g.Fields) == 0 {
			return fmt.Errorf("group %q has no fields", g.Name)
		}
		grp := &Group{Name: g.Name, Fields: g.Fields}
		grp.Header = section(g.Header, TypeGroupHeader, g.Name+"-header")
		grp.Footer = section(g.Footer, TypeGroupFooter, g.Name+"-footer")
		s.Groups = append(s.Groups, grp)
	}
	return err
}

func (l *Loader) buildBand(d *elementDef, t ElementType, name string) (*Band, error) {
	if d.Type != "" {
		pt, err := ParseElementType(d.Type)
		if err != nil {
			return nil, err
		}
		t = pt
	}
	if d.Name != "" {
		name = d.Name
	}
	b := NewBand(t, name)
	if err := l.decorate(&b.element, d); err != nil {
		return nil, err
	}
	for i := range d.Elements {
		e, err := l.buildElement(&d.Elements[i])
		if err != nil {
			return nil, err
		}
		b.AddElement(e)
	}
	return b, nil
}

func (l *Loader) buildElement(d *elementDef) (ReportElement, error) {
	t := TypeLabel
	if len(d.Elements) > 0 {
		t = TypeBand
	}
	if d.Type != "" {
		pt, err := ParseElementType(d.Type)
		if err != nil {
			return nil, err
		}
		t = pt
	}
	switch {
	case t == TypeSubReport:
		sr := NewSubReport(d.Name, d.Query)
		for k, v := range d.Parameters {
			sr.Parameters[k] = v
		}
		sr.Expressions = d.Expressions
		if err := l.decorate(&sr.element, d); err != nil {
			return nil, err
		}
		sections := d.Bands
		if sections == nil {
			sections = &sectionsDef{}
		}
		if err := l.buildSections(&sr.Sections, sections, d.Groups); err != nil {
			return nil, fmt.Errorf("sub-report %q: %w", d.Name, err)
		}
		return sr, nil
	case t.IsContainer():
		return l.buildBand(d, t, d.Name)
	}
	e := NewElement(t, d.Name)
	if err := l.decorate(&e.element, d); err != nil {
		return nil, err
	}
	return e, nil
}

func (l *Loader) decorate(e *element, d *elementDef) error {
	a := e.attrs
	set := func(ns, name, v string) {
		if v != "" {
			a.Set(ns, name, v)
		}
	}
	set(NSCore, AttrValue, d.Value)
	set(NSCore, AttrField, d.Field)
	set(NSCore, AttrFormat, d.Format)
	set(NSCore, AttrNullValue, d.NullValue)
	set(NSCore, AttrSource, d.Source)
	set(NSBarcode, AttrSymbology, d.Symbology)
	set(NSCore, AttrStyleClass, d.Class)
	if d.Colspan > 0 {
		a.Set(NSTable, AttrColspan, d.Colspan)
	}
	if d.Rowspan > 0 {
		a.Set(NSTable, AttrRowspan, d.Rowspan)
	}
	for k, v := range d.Attrs {
		ns, name := l.Parser.ParseNamespaceIdent(k)
		if ns == "" {
			ns = NSCore
		}
		a.Set(ns, name, v)
	}
	if d.Style != "" {
		sheet, err := l.Parser.ParseDeclarations(d.Style)
		if err != nil {
			return fmt.Errorf("element %q: %w", d.Name, err)
		}
		e.style.Merge(sheet)
	}
	return nil
}
