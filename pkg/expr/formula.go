package expr

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"pressroom/pkg/report"
)

// ErrInterrupted is returned when a formula was interrupted.
var ErrInterrupted = errors.New("formula interrupted")

// Formula is a JavaScript expression evaluated against the current row,
// which scripts see as the global object "row". The script is compiled
// once; its completion value is the result.
type Formula struct {
	named
	Source string

	prog *goja.Program
	vm   *goja.Runtime
}

func NewFormula(name, src string) (*Formula, error) {
	prog, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, fmt.Errorf("compile formula %s: %w", name, err)
	}
	return &Formula{
		named:  named{name: name, level: LayoutLevel},
		Source: src,
		prog:   prog,
		vm:     goja.New(),
	}, nil
}

func (f *Formula) Value(row report.DataRow) (any, error) {
	f.vm.Set("row", f.vm.NewDynamicObject(&rowAccessor{vm: f.vm, row: row}))
	v, err := f.vm.RunProgram(f.prog)
	if err != nil {
		var ie *goja.InterruptedError
		if errors.As(err, &ie) {
			return nil, fmt.Errorf("%w: %s", ErrInterrupted, f.name)
		}
		return nil, fmt.Errorf("formula %s: %w", f.name, err)
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	return v.Export(), nil
}

func (f *Formula) Interrupt(reason any) { f.vm.Interrupt(reason) }
func (f *Formula) ClearInterrupt()      { f.vm.ClearInterrupt() }

// rowAccessor exposes a DataRow to scripts as a read-only object.
type rowAccessor struct {
	vm  *goja.Runtime
	row report.DataRow
}

func (a *rowAccessor) Get(key string) goja.Value {
	if a.row == nil {
		return goja.Undefined()
	}
	v, ok := a.row.Get(key)
	if !ok {
		return goja.Undefined()
	}
	if v == nil {
		return goja.Null()
	}
	return a.vm.ToValue(v)
}

func (a *rowAccessor) Set(string, goja.Value) bool { return false }
func (a *rowAccessor) Delete(string) bool          { return false }

func (a *rowAccessor) Has(key string) bool {
	if a.row == nil {
		return false
	}
	_, ok := a.row.Get(key)
	return ok
}

func (a *rowAccessor) Keys() []string {
	if a.row == nil {
		return nil
	}
	return a.row.Names()
}
