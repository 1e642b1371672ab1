// Package expr evaluates report expressions and functions.
//
// Every expression has a dependency level. Levels below LayoutLevel are
// computed in precompute passes over the data before pagination starts, so
// their results are available while pages are laid out. Levels at or above
// LayoutLevel advance during the layout passes themselves.
package expr

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"pressroom/pkg/report"
)

const (
	// LayoutLevel is the level of the pagination and content passes.
	LayoutLevel = 0
	// PrecomputeLevel is the default level of functions that need a full
	// pass over the data before layout.
	PrecomputeLevel = -1
)

var (
	ErrDuplicateName = errors.New("duplicate expression name")
	ErrCycle         = errors.New("expression references itself")
	ErrUnknownKind   = errors.New("unknown expression type")
)

// Expression computes a value from the current row.
type Expression interface {
	Name() string
	DependencyLevel() int
	Value(row report.DataRow) (any, error)
}

// Function is a stateful expression that observes the row stream.
type Function interface {
	Expression
	Reset()
	Advance(row report.DataRow) error
	GroupStarted(group string)
	GroupFinished(group string)
}

// PassAware functions are told which level a pass runs at.
type PassAware interface {
	StartPass(level int)
}

// Interruptible expressions can abort a running evaluation.
type Interruptible interface {
	Interrupt(reason any)
	ClearInterrupt()
}

// Runtime holds the expressions of one report scope and routes row and
// group events to them. It is used by a single goroutine.
type Runtime struct {
	exprs  []Expression
	byName map[string]Expression

	page       int
	totalPages int
	evaluating map[string]bool
}

func NewRuntime(exprs ...Expression) (*Runtime, error) {
	r := &Runtime{
		byName:     make(map[string]Expression, len(exprs)),
		evaluating: make(map[string]bool),
	}
	for _, e := range exprs {
		if err := r.Add(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers another expression.
func (r *Runtime) Add(e Expression) error {
	if _, dup := r.byName[e.Name()]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateName, e.Name())
	}
	r.byName[e.Name()] = e
	r.exprs = append(r.exprs, e)
	sort.SliceStable(r.exprs, func(i, j int) bool {
		return r.exprs[i].DependencyLevel() < r.exprs[j].DependencyLevel()
	})
	return nil
}

// Expressions returns the expressions ordered by level.
func (r *Runtime) Expressions() []Expression { return r.exprs }

// Has reports whether name is an expression of this runtime.
func (r *Runtime) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// PrecomputeLevels returns the distinct levels below LayoutLevel in the
// order their passes run.
func (r *Runtime) PrecomputeLevels() []int {
	var levels []int
	for _, e := range r.exprs {
		l := e.DependencyLevel()
		if l >= LayoutLevel {
			continue
		}
		if len(levels) == 0 || levels[len(levels)-1] != l {
			levels = append(levels, l)
		}
	}
	return levels
}

// MaxLevel returns the highest dependency level of the runtime, at least
// LayoutLevel.
func (r *Runtime) MaxLevel() int {
	if n := len(r.exprs); n > 0 {
		return max(LayoutLevel, r.exprs[n-1].DependencyLevel())
	}
	return LayoutLevel
}

// StartPass resets every function for a new pass over the data.
func (r *Runtime) StartPass(level int) {
	for _, e := range r.exprs {
		if f, ok := e.(Function); ok {
			f.Reset()
		}
		if p, ok := e.(PassAware); ok {
			p.StartPass(level)
		}
	}
}

// Advance feeds the next item row to every function.
func (r *Runtime) Advance(row report.DataRow) error {
	for _, e := range r.exprs {
		if f, ok := e.(Function); ok {
			if err := f.Advance(row); err != nil {
				return fmt.Errorf("expression %s: %w", e.Name(), err)
			}
		}
	}
	return nil
}

func (r *Runtime) GroupStarted(group string) {
	for _, e := range r.exprs {
		if f, ok := e.(Function); ok {
			f.GroupStarted(group)
		}
	}
}

func (r *Runtime) GroupFinished(group string) {
	for _, e := range r.exprs {
		if f, ok := e.(Function); ok {
			f.GroupFinished(group)
		}
	}
}

// SetPage records the current page number (1 based) and the page count.
// The count is 0 while it is still unknown.
func (r *Runtime) SetPage(page, total int) {
	r.page = page
	r.totalPages = total
}

func (r *Runtime) Page() (page, total int) { return r.page, r.totalPages }

// Value evaluates the named expression against row.
func (r *Runtime) Value(name string, row report.DataRow) (any, bool, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, false, nil
	}
	if r.evaluating[name] {
		return nil, true, fmt.Errorf("%w: %s", ErrCycle, name)
	}
	r.evaluating[name] = true
	defer delete(r.evaluating, name)
	v, err := e.Value(row)
	return v, true, err
}

// Bind interrupts running formulas when ctx is cancelled. The returned
// function releases the binding.
func (r *Runtime) Bind(ctx context.Context) (stop func()) {
	var targets []Interruptible
	for _, e := range r.exprs {
		if i, ok := e.(Interruptible); ok {
			i.ClearInterrupt()
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return func() {}
	}
	cancel := context.AfterFunc(ctx, func() {
		for _, t := range targets {
			t.Interrupt(ctx.Err())
		}
	})
	return func() { cancel() }
}

type named struct {
	name  string
	level int
}

func (n named) Name() string         { return n.name }
func (n named) DependencyLevel() int { return n.level }
