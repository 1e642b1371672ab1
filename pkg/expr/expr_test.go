package expr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressroom/pkg/report"
)

func salesTable() *report.TypedTableModel {
	m := report.NewTypedTableModel("region", "amount")
	m.AddRow("north", 10.0)
	m.AddRow("north", 5.0)
	m.AddRow("south", 2.5)
	return m
}

// runPass drives rt over the table the way the engine does, grouping on
// region, and returns the value of name observed on every row.
func runPass(t *testing.T, rt *Runtime, level int, name string) []any {
	t.Helper()
	m := salesTable()
	row := NewMasterRow(nil, rt)
	row.SetTable(m)
	rt.StartPass(level)
	var out []any
	prev := ""
	for i := 0; i < m.RowCount(); i++ {
		row.SetRow(i)
		region, _ := row.Get("region")
		if region != prev {
			if prev != "" {
				rt.GroupFinished("by-region")
			}
			rt.GroupStarted("by-region")
			prev = region.(string)
		}
		require.NoError(t, rt.Advance(row))
		v, ok := row.Get(name)
		require.True(t, ok)
		out = append(out, v)
	}
	rt.GroupFinished("by-region")
	return out
}

func TestItemCountAndSum(t *testing.T) {
	rt, err := NewRuntime(
		NewItemCount("count", ""),
		NewItemCount("group-count", "by-region"),
		NewItemSum("sum", "amount", "by-region"),
	)
	require.NoError(t, err)

	assert.Equal(t, []any{1, 2, 3}, runPass(t, rt, LayoutLevel, "count"))
	assert.Equal(t, []any{1, 2, 1}, runPass(t, rt, LayoutLevel, "group-count"))
	assert.Equal(t, []any{10.0, 15.0, 2.5}, runPass(t, rt, LayoutLevel, "sum"))
}

func TestTotalItemCountNeedsPrecompute(t *testing.T) {
	rt, err := NewRuntime(NewTotalItemCount("total", "by-region"), NewTotalItemCount("all", ""))
	require.NoError(t, err)
	assert.Equal(t, []int{PrecomputeLevel}, rt.PrecomputeLevels())
	assert.Equal(t, LayoutLevel, rt.MaxLevel())

	runPass(t, rt, PrecomputeLevel, "total")
	assert.Equal(t, []any{2, 2, 1}, runPass(t, rt, LayoutLevel, "total"))
	// a second layout pass replays the same counts
	assert.Equal(t, []any{2, 2, 1}, runPass(t, rt, LayoutLevel, "total"))
	assert.Equal(t, []any{3, 3, 3}, runPass(t, rt, LayoutLevel, "all"))
}

func TestDuplicateName(t *testing.T) {
	_, err := NewRuntime(NewItemCount("a", ""), NewItemSum("a", "x", ""))
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestFormula(t *testing.T) {
	f, err := NewFormula("double", "row.amount * 2")
	require.NoError(t, err)
	v, err := f.Value(report.StaticDataRow{"amount": 21})
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)

	f, err = NewFormula("label", `row.region ? row.region.toUpperCase() : "n/a"`)
	require.NoError(t, err)
	v, err = f.Value(report.StaticDataRow{"region": "north"})
	require.NoError(t, err)
	assert.Equal(t, "NORTH", v)
	v, err = f.Value(report.StaticDataRow{})
	require.NoError(t, err)
	assert.Equal(t, "n/a", v)

	_, err = NewFormula("bad", "row.(")
	assert.Error(t, err)
}

func TestFormulaSeesExpressions(t *testing.T) {
	rt, err := Build([]report.ExpressionDef{
		{Name: "count", Kind: "item-count"},
		{Name: "label", Kind: "formula", Formula: `"#" + row.count + " " + row.region`},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"#1 north", "#2 north", "#3 south"}, runPass(t, rt, LayoutLevel, "label"))
}

func TestFormulaCycle(t *testing.T) {
	rt, err := Build([]report.ExpressionDef{{Name: "loop", Kind: "formula", Formula: "row.loop"}})
	require.NoError(t, err)
	row := NewMasterRow(nil, rt)
	_, ok := row.Get("loop")
	assert.True(t, ok)
	assert.ErrorIs(t, row.Err(), ErrCycle)
}

func TestFormulaInterrupt(t *testing.T) {
	rt, err := Build([]report.ExpressionDef{{Name: "spin", Kind: "formula", Formula: "for(;;){}"}})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	stop := rt.Bind(ctx)
	defer stop()
	cancel()

	_, _, err = rt.Value("spin", report.StaticDataRow{})
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestPageExpressions(t *testing.T) {
	rt, err := Build([]report.ExpressionDef{
		{Name: "page", Kind: "page-number"},
		{Name: "pages", Kind: "total-pages"},
	})
	require.NoError(t, err)
	rt.SetPage(2, 5)
	row := NewMasterRow(report.StaticDataRow{"title": "Sales"}, rt)
	p, _ := row.Get("page")
	n, _ := row.Get("pages")
	title, _ := row.Get("title")
	assert.Equal(t, 2, p)
	assert.Equal(t, 5, n)
	assert.Equal(t, "Sales", title)
	assert.Equal(t, []string{"page", "pages", "title"}, row.Names())
}

func TestFromDefErrors(t *testing.T) {
	_, err := FromDef(report.ExpressionDef{Name: "x", Kind: "nope"}, nil)
	assert.ErrorIs(t, err, ErrUnknownKind)

	lvl := -3
	e, err := FromDef(report.ExpressionDef{Name: "c", Kind: "item-count", Level: &lvl}, nil)
	require.NoError(t, err)
	assert.Equal(t, -3, e.DependencyLevel())
}
