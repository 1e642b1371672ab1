package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// DataRow gives named access to the values of the current row. Layout pulls
// values from it while building boxes.
type DataRow interface {
	Get(name string) (any, bool)
	Names() []string
}

// StaticDataRow is a DataRow over a map.
type StaticDataRow map[string]any

func (r StaticDataRow) Get(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

func (r StaticDataRow) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TableModel is a query result.
type TableModel interface {
	RowCount() int
	ColumnCount() int
	ColumnName(col int) string
	ValueAt(row, col int) any
}

// TypedTableModel is an in-memory TableModel with column types.
type TypedTableModel struct {
	Columns []string
	// Types holds a type name per column: "string", "number", "bool",
	// "date" or "" when unknown.
	Types []string
	Rows  [][]any
}

func NewTypedTableModel(columns ...string) *TypedTableModel {
	return &TypedTableModel{Columns: columns, Types: make([]string, len(columns))}
}

// AddRow appends a row. Missing cells are nil.
func (m *TypedTableModel) AddRow(values ...any) {
	row := make([]any, len(m.Columns))
	copy(row, values)
	m.Rows = append(m.Rows, row)
}

func (m *TypedTableModel) RowCount() int             { return len(m.Rows) }
func (m *TypedTableModel) ColumnCount() int          { return len(m.Columns) }
func (m *TypedTableModel) ColumnName(col int) string { return m.Columns[col] }
func (m *TypedTableModel) ValueAt(row, col int) any  { return m.Rows[row][col] }

func (m *TypedTableModel) ColumnType(col int) string {
	if col < len(m.Types) {
		return m.Types[col]
	}
	return ""
}

// ColumnIndex returns the index of a named column or -1.
func ColumnIndex(m TableModel, name string) int {
	for i := 0; i < m.ColumnCount(); i++ {
		if m.ColumnName(i) == name {
			return i
		}
	}
	return -1
}

// TableDataRow is a cursor over a TableModel.
type TableDataRow struct {
	Model TableModel
	Row   int
}

func (r *TableDataRow) Get(name string) (any, bool) {
	if r.Model == nil || r.Row < 0 || r.Row >= r.Model.RowCount() {
		return nil, false
	}
	col := ColumnIndex(r.Model, name)
	if col < 0 {
		return nil, false
	}
	return r.Model.ValueAt(r.Row, col), true
}

func (r *TableDataRow) Names() []string {
	if r.Model == nil {
		return nil
	}
	names := make([]string, r.Model.ColumnCount())
	for i := range names {
		names[i] = r.Model.ColumnName(i)
	}
	return names
}

// DataFactory runs named queries.
type DataFactory interface {
	QueryData(ctx context.Context, query string, params DataRow) (TableModel, error)
}

// Canceller is implemented by data factories that can abort a query that is
// in flight. Cancellation is best effort.
type Canceller interface {
	CancelRunningQuery()
}

var (
	ErrQueryCancelled = errors.New("query cancelled")
	ErrQueryNotFound  = errors.New("query not found")
)

// DataFactoryError wraps every failure of a data factory.
type DataFactoryError struct {
	Query string
	Err   error
}

func (e *DataFactoryError) Error() string {
	return fmt.Sprintf("data factory: query %q: %v", e.Query, e.Err)
}

func (e *DataFactoryError) Unwrap() error { return e.Err }
