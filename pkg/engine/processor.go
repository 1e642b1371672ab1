package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pressroom/pkg/expr"
	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
	"pressroom/pkg/paginate"
	"pressroom/pkg/report"
	"pressroom/pkg/state"
	"pressroom/pkg/style"
)

// ErrPageBreaksChanged is reported when the content pass breaks pages
// differently from the paginating pass.
var ErrPageBreaksChanged = errors.New("page breaks differ from the paginating pass")

// Processor runs one report. It is not safe for concurrent use; run
// reports in parallel with one Processor each.
type Processor struct {
	Engine   *Engine
	Report   *report.MasterReport
	Notifier *state.Notifier
	// OnlyPagination ends the run after the paginating pass. The sink
	// receives no pages.
	OnlyPagination bool
	Mode           layout.Mode
	Weights        state.Weights

	stack      state.Stack
	tracker    state.ProgressTracker
	layouter   *layout.Layouter
	builder    *layout.Builder
	page       report.PageDefinition
	totalPages int
	pageStarts []state.Key
}

// scope is the data of the master report or of one sub-report instance.
type scope struct {
	name     string
	frame    *state.Frame
	sections *report.Sections
	data     report.TableModel
	rt       *expr.Runtime
	row      *expr.MasterRow
	// repeats holds the repeating header box of every open group.
	repeats []*layout.RenderNode
}

// pass is one walk over the data. Precompute passes have no paginator.
type pass struct {
	activity state.Activity
	pg       *paginate.Paginator
	sink     PageSink
	pages    int
	runtimes []*expr.Runtime
}

// TotalPages returns the page count found by the paginating pass.
func (p *Processor) TotalPages() int { return p.totalPages }

// Percentage maps a progress event of this run to [0,100].
func (p *Processor) Percentage(ev state.ProgressEvent) float64 {
	return state.PercentageComplete(ev, p.OnlyPagination, p.Weights)
}

// Run processes the report and sends the pages of the content pass to
// sink. The context is checked between rows and pages; a cancelled run
// returns the context error. After a failure the sink is discarded when it
// implements Discarder, otherwise it is left unclosed.
func (p *Processor) Run(ctx context.Context, sink PageSink) (err error) {
	log := p.Engine.Logger.With("report", p.Report.Name)
	defer func() {
		if sink == nil {
			return
		}
		if err != nil {
			if d, ok := sink.(Discarder); ok {
				d.Discard()
			}
			return
		}
		err = sink.Close()
	}()

	p.stack = state.Stack{}
	p.totalPages, p.pageStarts = 0, nil
	p.layouter = p.Engine.NewLayouter()
	p.builder = p.Engine.newBuilder(p.Report, p.Mode)
	if p.page, err = p.Engine.pageDefinition(p.Report); err != nil {
		return err
	}

	// structural computation: data and expressions
	name := p.Report.Name
	if name == "" {
		name = "master"
	}
	root := p.stack.Push(name, 0)
	p.notify(state.ComputingLayout, 0, 0)
	params := report.StaticDataRow(p.Report.Parameters)
	data, err := p.query(ctx, p.Report.Query, params)
	if err != nil {
		return err
	}
	root.MaximumRow = data.RowCount()
	rt, err := expr.Build(p.Report.Expressions)
	if err != nil {
		return fmt.Errorf("report %s: %w", name, err)
	}
	stop := rt.Bind(ctx)
	defer stop()
	sc := &scope{
		name:     name,
		frame:    root,
		sections: &p.Report.Sections,
		data:     data,
		rt:       rt,
		row:      expr.NewMasterRow(params, rt),
		repeats:  make([]*layout.RenderNode, len(p.Report.Groups)),
	}
	sc.row.SetTable(data)
	root.Row = root.MaximumRow
	p.notify(state.ComputingLayout, 0, 0)

	levels := rt.PrecomputeLevels()
	root.PassCount = len(levels)
	root.MaximumLevel = rt.MaxLevel()
	for i, level := range levels {
		if i == 0 {
			err = root.SetActivity(state.PrecomputingValues, level)
		} else {
			err = root.AdvanceLevel(level)
		}
		if err != nil {
			return err
		}
		log.Debug("precompute pass", "level", level)
		rt.StartPass(level)
		if err := p.flow(ctx, sc, &pass{activity: state.PrecomputingValues}); err != nil {
			return err
		}
	}

	paginating, err := p.layoutPass(ctx, sc, state.Paginating, nil)
	if err != nil {
		return err
	}
	p.totalPages = paginating.pages
	p.pageStarts = paginating.pg.PageStarts()
	log.Debug("paginated", "pages", p.totalPages)
	if p.OnlyPagination {
		return nil
	}

	content, err := p.layoutPass(ctx, sc, state.GeneratingContent, sink)
	if err != nil {
		return err
	}
	if !equalKeys(content.pg.PageStarts(), p.pageStarts) || content.pages != p.totalPages {
		return &state.InvalidReportStateError{Op: "GeneratingContent", Err: ErrPageBreaksChanged}
	}
	log.Debug("content generated", "pages", content.pages)
	return nil
}

func (p *Processor) layoutPass(ctx context.Context, sc *scope, a state.Activity, sink PageSink) (*pass, error) {
	if err := sc.frame.SetActivity(a, expr.LayoutLevel); err != nil {
		return nil, err
	}
	sc.rt.StartPass(expr.LayoutLevel)
	total := 0
	if a == state.GeneratingContent {
		total = p.totalPages
	}
	sc.rt.SetPage(0, total)
	for i := range sc.repeats {
		sc.repeats[i] = nil
	}

	ps := &pass{activity: a, sink: sink, runtimes: []*expr.Runtime{sc.rt}}
	ps.pg = paginate.New(p.page, p.Engine.Logger)
	ps.pg.Header = p.pageArea(ctx, sc, ps, sc.sections.PageHeader, "page-header")
	ps.pg.Footer = p.pageArea(ctx, sc, ps, sc.sections.PageFooter, "page-footer")

	if err := p.flow(ctx, sc, ps); err != nil {
		return nil, err
	}
	pages, err := ps.pg.Finish()
	if err != nil {
		return nil, p.layoutErr(err)
	}
	if err := p.emit(ctx, ps, pages); err != nil {
		return nil, err
	}
	return ps, nil
}

// pageArea returns the paginator callback for a page header or footer. It
// also publishes the page number to every active expression runtime.
func (p *Processor) pageArea(ctx context.Context, sc *scope, ps *pass, band *report.Band, event string) paginate.AreaFunc {
	return func(page int) (*layout.RenderNode, error) {
		total := 0
		if ps.activity == state.GeneratingContent {
			total = p.totalPages
		}
		for _, rt := range ps.runtimes {
			rt.SetPage(page, total)
		}
		if band == nil {
			return nil, nil
		}
		key := state.Key{Path: sc.name, Event: event, Sequence: page}
		return p.layoutBand(ctx, sc, band, &key)
	}
}

// flow walks the rows of a scope and produces its bands in report order.
func (p *Processor) flow(ctx context.Context, sc *scope, ps *pass) error {
	s := sc.sections
	rows := sc.data.RowCount()
	if err := sc.frame.SetRow(0); err != nil {
		return err
	}
	sc.row.SetRow(0)

	if err := p.place(ctx, sc, ps, s.ReportHeader, "report-header"); err != nil {
		return err
	}
	if rows == 0 {
		if err := p.place(ctx, sc, ps, s.NoDataBand, "no-data"); err != nil {
			return err
		}
	}

	prev := make([]string, len(s.Groups))
	for r := 0; r < rows; r++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.setRow(sc, r); err != nil {
			return err
		}
		changed := len(s.Groups)
		for gi, g := range s.Groups {
			if r == 0 || groupValue(sc.row, g) != prev[gi] {
				changed = gi
				break
			}
		}
		if r > 0 && changed < len(s.Groups) {
			// footers belong to the last row of the finished group
			if err := p.setRow(sc, r-1); err != nil {
				return err
			}
			if err := p.closeGroups(ctx, sc, ps, changed); err != nil {
				return err
			}
			if err := p.setRow(sc, r); err != nil {
				return err
			}
		}
		for gi := changed; gi < len(s.Groups); gi++ {
			g := s.Groups[gi]
			prev[gi] = groupValue(sc.row, g)
			sc.rt.GroupStarted(g.Name)
			if err := p.placeGroupHeader(ctx, sc, ps, gi); err != nil {
				return err
			}
		}
		if err := sc.rt.Advance(sc.row); err != nil {
			return p.exprErr(ctx, err)
		}
		if err := p.place(ctx, sc, ps, s.ItemBand, "item"); err != nil {
			return err
		}
		if sc.frame == p.stack.Root() {
			page := 0
			if ps.pg != nil {
				page = ps.pg.PageNumber()
			}
			p.notify(ps.activity, page, p.totalPages)
		}
	}
	if rows > 0 {
		if err := p.closeGroups(ctx, sc, ps, 0); err != nil {
			return err
		}
	}
	if err := sc.frame.SetRow(sc.frame.MaximumRow); err != nil {
		return err
	}
	return p.place(ctx, sc, ps, s.ReportFooter, "report-footer")
}

func (p *Processor) setRow(sc *scope, r int) error {
	sc.row.SetRow(r)
	return sc.frame.SetRow(r)
}

// closeGroups emits the footers of the groups from the innermost down to
// group index from.
func (p *Processor) closeGroups(ctx context.Context, sc *scope, ps *pass, from int) error {
	groups := sc.sections.Groups
	for gi := len(groups) - 1; gi >= from; gi-- {
		g := groups[gi]
		if err := p.place(ctx, sc, ps, g.Footer, "group-footer:"+g.Name); err != nil {
			return err
		}
		sc.rt.GroupFinished(g.Name)
		if gi < len(sc.repeats) && sc.repeats[gi] != nil {
			sc.repeats[gi] = nil
			p.updateRepeats(sc, ps)
		}
	}
	return nil
}

func (p *Processor) placeGroupHeader(ctx context.Context, sc *scope, ps *pass, gi int) error {
	g := sc.sections.Groups[gi]
	box, err := p.place1(ctx, sc, ps, g.Header, "group-header:"+g.Name)
	if err != nil || box == nil {
		return err
	}
	if box.StyleBool(style.RepeatHeader) && sc.frame == p.stack.Root() {
		sc.repeats[gi] = box
		p.updateRepeats(sc, ps)
	}
	return nil
}

func (p *Processor) updateRepeats(sc *scope, ps *pass) {
	if ps.pg == nil {
		return
	}
	ps.pg.Repeat = ps.pg.Repeat[:0]
	for _, b := range sc.repeats {
		if b != nil {
			ps.pg.Repeat = append(ps.pg.Repeat, b)
		}
	}
}

func (p *Processor) place(ctx context.Context, sc *scope, ps *pass, band *report.Band, event string) error {
	_, err := p.place1(ctx, sc, ps, band, event)
	return err
}

// place1 lays out band for the current row, hands it to the paginator and
// then runs the sub-reports the band contains. It returns an unplaced copy
// of the laid out box.
func (p *Processor) place1(ctx context.Context, sc *scope, ps *pass, band *report.Band, event string) (*layout.RenderNode, error) {
	if band == nil || ps.pg == nil {
		return nil, nil
	}
	key := p.stack.Key(event)
	box, err := p.layoutBand(ctx, sc, band, &key)
	if err != nil || box == nil {
		return nil, err
	}
	keep := box.Clone()
	pages, err := ps.pg.Add(box, key)
	if err != nil {
		return nil, p.layoutErr(err)
	}
	if err := p.emit(ctx, ps, pages); err != nil {
		return nil, err
	}

	var subs []*report.SubReport
	report.Walk(band, func(e report.ReportElement) bool {
		if sr, ok := e.(*report.SubReport); ok {
			subs = append(subs, sr)
			return false
		}
		return true
	})
	for _, sr := range subs {
		if err := p.runSubReport(ctx, sc, ps, sr); err != nil {
			return nil, err
		}
	}
	return keep, nil
}

// layoutBand builds and lays out one band at the page content width.
func (p *Processor) layoutBand(ctx context.Context, sc *scope, band *report.Band, key *state.Key) (*layout.RenderNode, error) {
	width := p.bandWidth()
	box, err := p.builder.Build(ctx, band, sc.row, nil, width, key)
	if rowErr := sc.row.Err(); rowErr != nil && err == nil {
		err = rowErr
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, p.layoutErr(fmt.Errorf("band %s: %w", band.Name(), err))
	}
	if box == nil {
		return nil, nil
	}
	if err := p.layouter.Layout(box, width); err != nil {
		return nil, p.layoutErr(err)
	}
	return box, nil
}

// runSubReport runs sr for the current row of its parent. Its bands flow
// into the parent's pages; page bands of a sub-report are not used.
func (p *Processor) runSubReport(ctx context.Context, parent *scope, ps *pass, sr *report.SubReport) error {
	params := report.StaticDataRow{}
	for name, field := range sr.Parameters {
		if v, ok := parent.row.Get(field); ok {
			params[name] = v
		}
	}
	data, err := p.query(ctx, sr.Query, params)
	if err != nil {
		return err
	}
	frame := p.stack.Push(sr.Name(), data.RowCount())
	defer func() { _, _ = p.stack.Pop() }()

	rt, err := expr.Build(sr.Expressions)
	if err != nil {
		return fmt.Errorf("sub-report %s: %w", sr.Name(), err)
	}
	stop := rt.Bind(ctx)
	defer stop()
	sc := &scope{
		name:     sr.Name(),
		frame:    frame,
		sections: &sr.Sections,
		data:     data,
		rt:       rt,
		row:      expr.NewMasterRow(params, rt),
	}
	sc.row.SetTable(data)

	levels := rt.PrecomputeLevels()
	frame.PassCount = len(levels)
	frame.MaximumLevel = rt.MaxLevel()
	for i, level := range levels {
		if i == 0 {
			err = frame.SetActivity(state.PrecomputingValues, level)
		} else {
			err = frame.AdvanceLevel(level)
		}
		if err != nil {
			return err
		}
		rt.StartPass(level)
		if err := p.flow(ctx, sc, &pass{activity: state.PrecomputingValues}); err != nil {
			return err
		}
	}
	if err := frame.SetActivity(ps.activity, expr.LayoutLevel); err != nil {
		return err
	}
	rt.StartPass(expr.LayoutLevel)
	rt.SetPage(parent.rt.Page())

	ps.runtimes = append(ps.runtimes, rt)
	defer func() { ps.runtimes = ps.runtimes[:len(ps.runtimes)-1] }()
	return p.flow(ctx, sc, ps)
}

// emit delivers completed pages. Only the content pass reaches the sink.
func (p *Processor) emit(ctx context.Context, ps *pass, pages []*layout.LogicalPageBox) error {
	for _, pg := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		ps.pages++
		if ps.activity == state.GeneratingContent && ps.sink != nil {
			if err := ps.sink.ProcessPage(ctx, pg, p.totalPages); err != nil {
				return fmt.Errorf("page %d: %w", pg.Number, err)
			}
		}
		p.notify(ps.activity, pg.Number, p.totalPages)
	}
	return nil
}

func (p *Processor) query(ctx context.Context, query string, params report.DataRow) (report.TableModel, error) {
	f := p.Report.DataFactory
	if f == nil || query == "" {
		return report.NewTypedTableModel(), nil
	}
	if c, ok := f.(report.Canceller); ok {
		stop := context.AfterFunc(ctx, c.CancelRunningQuery)
		defer stop()
	}
	m, err := f.QueryData(ctx, query, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var dfe *report.DataFactoryError
		if errors.As(err, &dfe) {
			return nil, err
		}
		return nil, &report.DataFactoryError{Query: query, Err: err}
	}
	return m, nil
}

// layoutErr keeps content and state errors and reports everything else
// as an invalid report state.
func (p *Processor) layoutErr(err error) error {
	var cpe *layout.ContentProcessingError
	var ise *state.InvalidReportStateError
	switch {
	case errors.As(err, &cpe), errors.As(err, &ise):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return &state.InvalidReportStateError{Op: "layout", Err: err}
}

func (p *Processor) exprErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &state.InvalidReportStateError{Op: "expression", Err: err}
}

func (p *Processor) notify(a state.Activity, page, total int) {
	if p.Notifier == nil {
		return
	}
	p.Notifier.Notify(p.tracker.Reuse(a, &p.stack, page, total))
}

// groupValue joins the values of the group fields of the current row.
func groupValue(row report.DataRow, g *report.Group) string {
	var b strings.Builder
	for i, f := range g.Fields {
		if i > 0 {
			b.WriteByte(0)
		}
		v, _ := row.Get(f)
		fmt.Fprint(&b, v)
	}
	return b.String()
}

func equalKeys(a, b []state.Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// bandWidth is the width bands are laid out at.
func (p *Processor) bandWidth() geom.Unit { return p.page.ContentWidth() }
