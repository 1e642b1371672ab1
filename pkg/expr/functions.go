package expr

import (
	"pressroom/pkg/report"
)

// ItemCount counts the item rows seen so far, restarting at every start of
// its group. An empty group counts over the whole report.
type ItemCount struct {
	named
	Group string
	count int
}

func NewItemCount(name, group string) *ItemCount {
	return &ItemCount{named: named{name: name, level: LayoutLevel}, Group: group}
}

func (c *ItemCount) Value(report.DataRow) (any, error) { return c.count, nil }
func (c *ItemCount) Reset()                            { c.count = 0 }

func (c *ItemCount) Advance(report.DataRow) error {
	c.count++
	return nil
}

func (c *ItemCount) GroupStarted(g string) {
	if c.Group != "" && g == c.Group {
		c.count = 0
	}
}

func (c *ItemCount) GroupFinished(string) {}

// ItemSum adds up a numeric field. Values that are not numbers are skipped.
type ItemSum struct {
	named
	Field string
	Group string
	sum   float64
}

func NewItemSum(name, field, group string) *ItemSum {
	return &ItemSum{named: named{name: name, level: LayoutLevel}, Field: field, Group: group}
}

func (s *ItemSum) Value(report.DataRow) (any, error) { return s.sum, nil }
func (s *ItemSum) Reset()                            { s.sum = 0 }

func (s *ItemSum) Advance(row report.DataRow) error {
	v, ok := row.Get(s.Field)
	if !ok || v == nil {
		return nil
	}
	if f, ok := report.ToFloat(v); ok {
		s.sum += f
	}
	return nil
}

func (s *ItemSum) GroupStarted(g string) {
	if s.Group != "" && g == s.Group {
		s.sum = 0
	}
}

func (s *ItemSum) GroupFinished(string) {}

// TotalItemCount knows the number of rows of the current group before the
// group is printed. It records one count per group instance during its own
// precompute pass and replays them in later passes.
type TotalItemCount struct {
	named
	Group string

	recording bool
	counts    []int
	cursor    int
}

func NewTotalItemCount(name, group string) *TotalItemCount {
	return &TotalItemCount{named: named{name: name, level: PrecomputeLevel}, Group: group}
}

func (t *TotalItemCount) StartPass(level int) {
	t.recording = level == t.level
	if t.recording {
		t.counts = t.counts[:0]
	}
	t.cursor = -1
	if t.Group == "" {
		t.cursor = 0
		if t.recording {
			t.counts = append(t.counts, 0)
		}
	}
}

func (t *TotalItemCount) Value(report.DataRow) (any, error) {
	if t.cursor < 0 || t.cursor >= len(t.counts) {
		return 0, nil
	}
	return t.counts[t.cursor], nil
}

func (t *TotalItemCount) Reset() {}

func (t *TotalItemCount) Advance(report.DataRow) error {
	if t.recording && t.cursor >= 0 && t.cursor < len(t.counts) {
		t.counts[t.cursor]++
	}
	return nil
}

func (t *TotalItemCount) GroupStarted(g string) {
	if t.Group == "" || g != t.Group {
		return
	}
	t.cursor++
	if t.recording {
		t.counts = append(t.counts, 0)
	}
}

func (t *TotalItemCount) GroupFinished(string) {}

// PageNumber yields the number of the page being laid out.
type PageNumber struct {
	named
	rt *Runtime
}

func (p *PageNumber) Value(report.DataRow) (any, error) {
	n, _ := p.rt.Page()
	return n, nil
}

// TotalPages yields the page count. It is 0 until pagination has finished.
type TotalPages struct {
	named
	rt *Runtime
}

func (p *TotalPages) Value(report.DataRow) (any, error) {
	_, n := p.rt.Page()
	return n, nil
}

func NewPageNumber(name string, rt *Runtime) *PageNumber {
	return &PageNumber{named: named{name: name, level: LayoutLevel}, rt: rt}
}

func NewTotalPages(name string, rt *Runtime) *TotalPages {
	return &TotalPages{named: named{name: name, level: LayoutLevel}, rt: rt}
}
