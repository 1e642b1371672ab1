// Package engine runs reports: it queries data, evaluates expressions,
// lays out bands and hands finished pages to a sink.
package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"pressroom/pkg/config"
	"pressroom/pkg/images"
	"pressroom/pkg/layout"
	"pressroom/pkg/report"
	"pressroom/pkg/resolver"
	"pressroom/pkg/resource"
	"pressroom/pkg/state"
	"pressroom/pkg/style"
	"pressroom/pkg/table"
	"pressroom/pkg/text"
)

// Engine holds everything that is built once per process: the style
// registry, the resolver, the text measurer and the image loader. An Engine
// is read-only after New and may run any number of reports, one Processor
// per run.
type Engine struct {
	Config   *config.Config
	Registry *style.Registry
	Resolver *resolver.Factory
	Parser   *style.Parser
	Measurer text.Measurer
	Images   *images.Loader
	Logger   *slog.Logger

	fetcher resource.Fetcher
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.Logger = l }
}

// WithMeasurer replaces the font based text measurer.
func WithMeasurer(m text.Measurer) Option {
	return func(e *Engine) { e.Measurer = m }
}

// WithFetcher sets how images and data files are read.
func WithFetcher(f resource.Fetcher) Option {
	return func(e *Engine) { e.fetcher = f }
}

// New builds an engine from cfg. A nil cfg uses config.Default. The
// configuration is copied; later changes to cfg do not reach the engine.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{Config: cfg.Clone(), Registry: style.DefaultRegistry}
	for _, o := range opts {
		o(e)
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}

	e.Resolver = resolver.NewFactory(e.Config, e.Registry, resolver.WithLogger(e.Logger))
	if err := e.Resolver.Build(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.Parser = style.NewParser(e.Registry, e.Logger)

	if e.Measurer == nil {
		files := make(map[string]string, len(e.Config.Fonts.Files))
		for family := range e.Config.Fonts.Files {
			if p, ok := e.Config.FontFile(family); ok {
				files[strings.ToLower(family)] = p
			}
		}
		e.Measurer = text.NewGGMeasurer(files, e.Config.Layout.StrictText)
	}
	if e.fetcher == nil {
		e.fetcher = resource.NewFetcher("")
	}
	e.Images = images.NewLoader(e.fetcher)
	return e, nil
}

// Fetcher returns the resource fetcher used for images.
func (e *Engine) Fetcher() resource.Fetcher { return e.fetcher }

// LoadReport reads a report definition file.
func (e *Engine) LoadReport(path string) (*report.MasterReport, error) {
	return report.NewLoader(e.Parser).LoadFile(path)
}

// NewLayouter returns a band layouter with table support.
func (e *Engine) NewLayouter() *layout.Layouter {
	l := layout.NewLayouter(e.Measurer, table.New(), e.Logger)
	if dpi := e.Config.Layout.DeviceResolution; dpi > 0 {
		l.DPI = dpi
	}
	return l
}

func (e *Engine) newBuilder(r *report.MasterReport, mode layout.Mode) *layout.Builder {
	locale := r.Locale
	if locale == "" {
		locale = e.Config.Output.Locale
	}
	return &layout.Builder{
		Resolver:  e.Resolver,
		Rules:     r.Rules,
		Formatter: report.NewFormatter(locale),
		Images:    e.Images,
		Mode:      mode,
		Strict:    e.Config.Layout.StrictText,
		Logger:    e.Logger,
	}
}

// NewProcessor prepares a run of r.
func (e *Engine) NewProcessor(r *report.MasterReport) *Processor {
	return &Processor{
		Engine: e,
		Report: r,
		Weights: state.Weights{
			Structural: e.Config.Layout.StructuralBudget,
			Layout:     e.Config.Layout.LayoutWeight,
		},
	}
}

// pageDefinition returns the page of r, falling back to the configured
// paper when the report does not define one.
func (e *Engine) pageDefinition(r *report.MasterReport) (report.PageDefinition, error) {
	if r.Page.Paper.Width > 0 && r.Page.Paper.Height > 0 {
		return r.Page, nil
	}
	paper, err := e.Config.PaperSize()
	if err != nil {
		return report.PageDefinition{}, err
	}
	return report.PageDefinition{Paper: paper, Margins: e.Config.PageMargins()}, nil
}
