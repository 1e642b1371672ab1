package engine

import (
	"context"

	"pressroom/pkg/layout"
	"pressroom/pkg/report"
	"pressroom/pkg/state"
)

// LayoutSingleBand builds and lays out one band of the processor's report
// for row, outside of a report run. Invisible elements are removed.
func (p *Processor) LayoutSingleBand(ctx context.Context, band *report.Band, row report.DataRow) (*layout.RenderNode, error) {
	return p.layoutSingle(ctx, band, row, layout.ModeRunTime)
}

// LayoutSingleBandInDesignTime is LayoutSingleBand with every element kept,
// the way a designer shows a band.
func (p *Processor) LayoutSingleBandInDesignTime(ctx context.Context, band *report.Band, row report.DataRow) (*layout.RenderNode, error) {
	return p.layoutSingle(ctx, band, row, layout.ModeDesignTime)
}

func (p *Processor) layoutSingle(ctx context.Context, band *report.Band, row report.DataRow, mode layout.Mode) (*layout.RenderNode, error) {
	var err error
	if p.page, err = p.Engine.pageDefinition(p.Report); err != nil {
		return nil, err
	}
	p.layouter = p.Engine.NewLayouter()
	p.builder = p.Engine.newBuilder(p.Report, mode)

	key := state.Key{Path: p.Report.Name, Event: "band"}
	box, err := p.builder.Build(ctx, band, row, nil, p.bandWidth(), &key)
	if err != nil || box == nil {
		return box, err
	}
	if err := p.layouter.Layout(box, p.bandWidth()); err != nil {
		return nil, p.layoutErr(err)
	}
	return box, nil
}
