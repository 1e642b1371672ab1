package expr

import (
	"sort"

	"pressroom/pkg/report"
)

// MasterRow is the data row handed to layout. Lookups check the current
// table row first, then the expressions and finally the parameters.
// Expression errors read as missing values; Err reports the last one.
type MasterRow struct {
	Params  report.DataRow
	Data    *report.TableDataRow
	Runtime *Runtime

	err error
}

func NewMasterRow(params report.DataRow, rt *Runtime) *MasterRow {
	if params == nil {
		params = report.StaticDataRow{}
	}
	return &MasterRow{Params: params, Data: &report.TableDataRow{}, Runtime: rt}
}

// SetTable points the row cursor at a new query result.
func (m *MasterRow) SetTable(t report.TableModel) {
	m.Data.Model = t
	m.Data.Row = 0
}

// SetRow moves the cursor.
func (m *MasterRow) SetRow(row int) { m.Data.Row = row }

func (m *MasterRow) Row() int { return m.Data.Row }

func (m *MasterRow) Get(name string) (any, bool) {
	if v, ok := m.Data.Get(name); ok {
		return v, true
	}
	if m.Runtime != nil {
		v, ok, err := m.Runtime.Value(name, m)
		if err != nil {
			m.err = err
			return nil, false
		}
		if ok {
			return v, true
		}
	}
	return m.Params.Get(name)
}

func (m *MasterRow) Names() []string {
	seen := map[string]bool{}
	var names []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, n := range m.Data.Names() {
		add(n)
	}
	if m.Runtime != nil {
		for _, e := range m.Runtime.Expressions() {
			add(e.Name())
		}
	}
	for _, n := range m.Params.Names() {
		add(n)
	}
	sort.Strings(names)
	return names
}

// Err returns and clears the last expression error.
func (m *MasterRow) Err() error {
	err := m.err
	m.err = nil
	return err
}
