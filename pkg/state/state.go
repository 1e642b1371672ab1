// Package state tracks where a report run is: the activity, dependency
// level, data row and page of every nested report scope.
package state

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Activity is a phase of a report run.
type Activity int

const (
	ComputingLayout Activity = iota
	PrecomputingValues
	Paginating
	GeneratingContent
)

var activityNames = [...]string{
	ComputingLayout:    "computing-layout",
	PrecomputingValues: "precomputing-values",
	Paginating:         "paginating",
	GeneratingContent:  "generating-content",
}

func (a Activity) String() string {
	if a < 0 || int(a) >= len(activityNames) {
		return "activity(" + strconv.Itoa(int(a)) + ")"
	}
	return activityNames[a]
}

// StructuralLevel is the level reported while the report structure is
// prepared, before any data level runs.
const StructuralLevel = math.MaxInt

var ErrInvalidReportState = errors.New("invalid report state")

// InvalidReportStateError aborts the layout of the current page.
type InvalidReportStateError struct {
	Op  string
	Err error
}

func (e *InvalidReportStateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid report state: %s: %v", e.Op, e.Err)
	}
	return "invalid report state: " + e.Op
}

func (e *InvalidReportStateError) Unwrap() error { return e.Err }

func (e *InvalidReportStateError) Is(target error) bool {
	return target == ErrInvalidReportState
}

func invalid(op, format string, args ...any) error {
	return &InvalidReportStateError{Op: op, Err: fmt.Errorf(format, args...)}
}

// Key names the report event a box was produced by. Keys are comparable
// and stay valid after the run that created them.
type Key struct {
	// Path lists the scopes from the master report down, separated by '/'.
	Path     string
	Row      int
	Level    int
	Event    string
	Sequence int
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%d@%d:%s/%d", k.Path, k.Row, k.Level, k.Event, k.Sequence)
}

// Frame is the state of one report scope: the master report or one
// instance of a sub-report.
type Frame struct {
	Name     string
	Activity Activity
	Level    int
	// MaximumLevel is the highest dependency level the run reaches.
	MaximumLevel int
	Pass         int
	PassCount    int
	Row          int
	MaximumRow   int
	Page         int

	sequence int
	depth    int
}

// SetRow moves the row cursor. Valid rows are 0..MaximumRow; MaximumRow
// marks the end of the data.
func (f *Frame) SetRow(row int) error {
	if row < 0 || row > f.MaximumRow {
		return invalid("SetRow", "row %d outside [0,%d] in %s", row, f.MaximumRow, f.Name)
	}
	f.Row = row
	return nil
}

// SetActivity starts a new activity at the given level. Activities only
// move forward within a frame. Key sequences restart so that every pass
// produces the same keys for the same events.
func (f *Frame) SetActivity(a Activity, level int) error {
	if a < f.Activity {
		return invalid("SetActivity", "%s after %s in %s", a, f.Activity, f.Name)
	}
	f.Activity = a
	f.Level = level
	f.Row = 0
	f.sequence = 0
	return nil
}

// AdvanceLevel moves to the next dependency level of the current
// activity. Levels never decrease within an activity.
func (f *Frame) AdvanceLevel(level int) error {
	if level < f.Level {
		return invalid("AdvanceLevel", "level %d before %d in %s", level, f.Level, f.Name)
	}
	if level != f.Level {
		f.Pass++
	}
	f.Level = level
	f.Row = 0
	return nil
}

// Stack is the chain of active frames, root first.
type Stack struct {
	frames []*Frame
}

// Push opens a new scope.
func (s *Stack) Push(name string, maximumRow int) *Frame {
	f := &Frame{Name: name, MaximumRow: maximumRow, Level: StructuralLevel, depth: len(s.frames)}
	s.frames = append(s.frames, f)
	return f
}

// Pop closes the innermost scope.
func (s *Stack) Pop() (*Frame, error) {
	if len(s.frames) == 0 {
		return nil, invalid("Pop", "empty state stack")
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, nil
}

// Top returns the innermost frame or nil.
func (s *Stack) Top() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Root returns the master report frame or nil.
func (s *Stack) Root() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[0]
}

func (s *Stack) Depth() int { return len(s.frames) }

// ParentState returns the frame enclosing f, or nil for the root or for a
// frame that is not on the stack.
func (s *Stack) ParentState(f *Frame) *Frame {
	if f == nil || f.depth == 0 || f.depth >= len(s.frames) || s.frames[f.depth] != f {
		return nil
	}
	return s.frames[f.depth-1]
}

// Path joins the frame names from the root to the top.
func (s *Stack) Path() string {
	var b strings.Builder
	for i, f := range s.frames {
		if i > 0 {
			b.WriteByte('/')
			b.WriteString(strconv.Itoa(s.frames[i-1].Row))
			b.WriteByte('/')
		}
		b.WriteString(f.Name)
	}
	return b.String()
}

// Key returns a key for an event in the innermost scope.
func (s *Stack) Key(event string) Key {
	top := s.Top()
	if top == nil {
		return Key{Event: event}
	}
	top.sequence++
	return Key{
		Path:     s.Path(),
		Row:      top.Row,
		Level:    top.Level,
		Event:    event,
		Sequence: top.sequence,
	}
}
