// Package paginate distributes laid out bands over pages.
package paginate

import (
	"log/slog"

	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
	"pressroom/pkg/report"
	"pressroom/pkg/state"
	"pressroom/pkg/style"
)

// AreaFunc builds the laid out page header or footer of a page. It may
// return nil for an empty area.
type AreaFunc func(page int) (*layout.RenderNode, error)

// Paginator places band boxes on logical pages. Boxes are added in flow
// order; a page is complete as soon as a box no longer fits on it.
type Paginator struct {
	Page   report.PageDefinition
	Header AreaFunc
	Footer AreaFunc
	// Repeat holds boxes placed at the top of every page opened by an
	// overflow, such as a group header that repeats.
	Repeat []*layout.RenderNode
	Logger *slog.Logger

	current   *layout.LogicalPageBox
	number    int
	hasBoxes  bool
	breakNext bool
	starts    []state.Key
}

func New(def report.PageDefinition, logger *slog.Logger) *Paginator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Paginator{Page: def, Logger: logger}
}

// PageStarts returns the key of the first box of every page so far.
func (p *Paginator) PageStarts() []state.Key { return p.starts }

// PageNumber returns the number of the open page, 0 before the first.
func (p *Paginator) PageNumber() int { return p.number }

// Add places box on the current page. It returns the pages completed by
// this call. The box must be laid out for the page content width.
func (p *Paginator) Add(box *layout.RenderNode, key state.Key) ([]*layout.LogicalPageBox, error) {
	var done []*layout.LogicalPageBox
	flush := func() error {
		pg, err := p.closePage()
		if err != nil {
			return err
		}
		if pg != nil {
			done = append(done, pg)
		}
		return nil
	}

	if (p.breakNext || box.StyleBool(style.PageBreakBefore)) && p.hasBoxes {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	p.breakNext = false

	for box != nil {
		if p.current == nil {
			if err := p.openPage(len(done) > 0 || p.number > 0); err != nil {
				return nil, err
			}
		}
		space := p.current.UsableHeight() - p.current.Content.Height
		if box.MarginHeight() <= space {
			p.place(box, key)
			break
		}

		keep := box.StyleBool(style.AvoidPageBreak)
		if !keep {
			if head, tail := Split(box, space); head != nil {
				p.place(head, key)
				if err := flush(); err != nil {
					return nil, err
				}
				box = tail
				continue
			}
		}
		if p.hasBoxes {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		// an empty page and the box still does not fit
		p.Logger.Warn("box taller than the page content area",
			"key", key.String(), "height", geom.ToPt(box.MarginHeight()), "available", geom.ToPt(space))
		p.place(box, key)
		if err := flush(); err != nil {
			return nil, err
		}
		break
	}

	if box != nil && box.StyleBool(style.PageBreakAfter) {
		p.breakNext = true
	}
	return done, nil
}

// Finish completes the last page. A run without any box still yields one
// page carrying header and footer.
func (p *Paginator) Finish() ([]*layout.LogicalPageBox, error) {
	if p.current == nil && p.number == 0 {
		if err := p.openPage(false); err != nil {
			return nil, err
		}
	}
	pg, err := p.closePage()
	if err != nil || pg == nil {
		return nil, err
	}
	return []*layout.LogicalPageBox{pg}, nil
}

func (p *Paginator) openPage(overflow bool) error {
	p.number++
	pg := layout.NewLogicalPage(p.number, p.Page)
	for _, area := range []struct {
		fn   AreaFunc
		node *layout.RenderNode
	}{{p.Header, pg.Header}, {p.Footer, pg.Footer}} {
		if area.fn == nil {
			continue
		}
		box, err := area.fn(p.number)
		if err != nil {
			return err
		}
		if box != nil {
			layout.StackArea(area.node, box)
		}
	}
	pg.Arrange()
	p.current = pg
	p.hasBoxes = false
	if overflow {
		for _, r := range p.Repeat {
			layout.StackArea(pg.Content, r.Clone())
		}
	}
	return nil
}

func (p *Paginator) place(box *layout.RenderNode, key state.Key) {
	if !p.hasBoxes {
		p.starts = append(p.starts, key)
	}
	layout.StackArea(p.current.Content, box)
	p.hasBoxes = true
}

func (p *Paginator) closePage() (*layout.LogicalPageBox, error) {
	pg := p.current
	if pg == nil {
		return nil, nil
	}
	p.current = nil
	p.hasBoxes = false
	pg.Arrange()
	return pg, nil
}

// Split cuts a vertically stacked box between two children so that the
// head fits into space. Children that avoid page breaks are never cut; a
// box whose first child does not fit is not split. It returns nils when no
// cut is possible.
func Split(box *layout.RenderNode, space geom.Unit) (head, tail *layout.RenderNode) {
	if box.Type != layout.NodeBlock || len(box.Children) < 2 {
		return nil, nil
	}
	in := box.Def.Insets()
	avail := space - box.Def.Margin.Top - in.Bottom
	k := 0
	for k < len(box.Children) {
		c := box.Children[k]
		if c.Y+c.Height+c.Def.Margin.Bottom > avail {
			break
		}
		k++
	}
	if k == 0 || k == len(box.Children) {
		return nil, nil
	}

	head = shell(box)
	tail = shell(box)
	last := box.Children[k-1]
	head.Height = last.Y + last.Height + last.Def.Margin.Bottom + in.Bottom
	head.Def.Margin.Bottom = 0
	tail.Def.Margin.Top = 0

	first := box.Children[k]
	shift := first.Y - first.Def.Margin.Top - in.Top
	for i, c := range box.Children {
		c := c.Clone()
		if i < k {
			head.AddChild(c)
			continue
		}
		c.Y -= shift
		tail.AddChild(c)
	}
	tail.Height = box.Height - shift
	return head, tail
}

// shell copies a box without its children.
func shell(box *layout.RenderNode) *layout.RenderNode {
	saved := box.Children
	box.Children = nil
	c := box.Clone()
	box.Children = saved
	return c
}
