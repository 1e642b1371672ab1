package report

import (
	"pressroom/pkg/geom"
	"pressroom/pkg/style"
)

// Group splits the item rows whenever the value of one of its fields
// changes.
type Group struct {
	Name   string
	Fields []string
	Header *Band
	Footer *Band
}

// Sections are the bands of a report or sub-report.
type Sections struct {
	PageHeader   *Band
	PageFooter   *Band
	ReportHeader *Band
	ReportFooter *Band
	Groups       []*Group
	ItemBand     *Band
	NoDataBand   *Band
}

// Bands returns the non-nil bands in document order.
func (s *Sections) Bands() []*Band {
	var out []*Band
	add := func(b *Band) {
		if b != nil {
			out = append(out, b)
		}
	}
	add(s.PageHeader)
	add(s.ReportHeader)
	for _, g := range s.Groups {
		add(g.Header)
	}
	add(s.ItemBand)
	add(s.NoDataBand)
	for i := len(s.Groups) - 1; i >= 0; i-- {
		add(s.Groups[i].Footer)
	}
	add(s.ReportFooter)
	add(s.PageFooter)
	return out
}

// SubReport is a band with its own query and data scope. It is placed
// inside a band of its parent report.
type SubReport struct {
	element
	Query string
	// Parameters maps parameter names of the sub-report to fields of the
	// parent's data row.
	Parameters  map[string]string
	Expressions []ExpressionDef
	Sections
}

func NewSubReport(name, query string) *SubReport {
	return &SubReport{element: newElementBase(TypeSubReport, name), Query: query, Parameters: map[string]string{}}
}

func (s *SubReport) ChangeTracker() uint64 {
	n := s.style.ChangeTracker()
	for _, b := range s.Bands() {
		n += b.ChangeTracker()
	}
	return n
}

// ExpressionDef declares an expression or function of a report.
type ExpressionDef struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"type"`
	Field   string `yaml:"field,omitempty"`
	Group   string `yaml:"group,omitempty"`
	Formula string `yaml:"formula,omitempty"`
	// Level overrides the dependency level of the expression.
	Level *int `yaml:"level,omitempty"`
}

// PageDefinition describes the physical page.
type PageDefinition struct {
	Paper   geom.PaperSize
	Margins geom.Insets
}

// ContentWidth returns the usable width in internal units.
func (p PageDefinition) ContentWidth() geom.Unit {
	return geom.Pt(p.Paper.Width) - p.Margins.Horizontal()
}

// ContentHeight returns the usable height in internal units.
func (p PageDefinition) ContentHeight() geom.Unit {
	return geom.Pt(p.Paper.Height) - p.Margins.Vertical()
}

// MasterReport is the root of a report document.
type MasterReport struct {
	Name        string
	Version     string
	Page        PageDefinition
	Locale      string
	Query       string
	DataFactory DataFactory
	Parameters  map[string]any
	Expressions []ExpressionDef
	// Rules are the report's style rules, applied before element styles.
	Rules []style.Rule
	Sections
}

func NewMasterReport(name string) *MasterReport {
	return &MasterReport{
		Name:       name,
		Locale:     "en-US",
		Parameters: map[string]any{},
		Page: PageDefinition{
			Paper:   geom.PaperA4,
			Margins: geom.Uniform(geom.PtInt(36)),
		},
		Sections: Sections{ItemBand: NewBand(TypeItemBand, "item")},
	}
}

// ChangeTracker sums the trackers of all bands.
func (r *MasterReport) ChangeTracker() uint64 {
	var n uint64
	for _, b := range r.Bands() {
		n += b.ChangeTracker()
	}
	return n
}
