package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressroom/pkg/style"
)

func TestInstanceIDsAreUnique(t *testing.T) {
	a := NewElement(TypeLabel, "a")
	b := NewElement(TypeLabel, "b")
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestElementTypeNames(t *testing.T) {
	for i := range elementTypeNames {
		et := ElementType(i)
		got, err := ParseElementType(et.String())
		require.NoError(t, err)
		assert.Equal(t, et, got)
	}
	_, err := ParseElementType("chart")
	assert.Error(t, err)
}

func TestBandStructureChangesBumpTracker(t *testing.T) {
	root := NewBand(TypeReportHeader, "root")
	inner := NewBand(TypeBand, "inner")
	root.AddElement(inner)

	a := NewElement(TypeLabel, "a")
	b := NewElement(TypeLabel, "b")
	c := NewElement(TypeLabel, "c")
	inner.AddElement(a)
	inner.AddElement(b)

	before := root.ChangeTracker()
	inner.InsertElement(0, c)
	assert.Greater(t, root.ChangeTracker(), before)
	assert.Equal(t, []ReportElement{c, a, b}, inner.Elements())

	before = root.ChangeTracker()
	require.NoError(t, inner.Reorder(0, 2))
	assert.Greater(t, root.ChangeTracker(), before)
	assert.Equal(t, []ReportElement{a, b, c}, inner.Elements())

	before = root.ChangeTracker()
	assert.True(t, inner.RemoveElement(b))
	assert.False(t, inner.RemoveElement(b))
	assert.Greater(t, root.ChangeTracker(), before)
	assert.Nil(t, b.Parent())

	before = root.ChangeTracker()
	a.StyleSheet().Set(style.Width, style.Points(10))
	assert.Greater(t, root.ChangeTracker(), before, "style changes count too")

	assert.Error(t, inner.Reorder(0, 5))
}

func TestAddElementMovesBetweenBands(t *testing.T) {
	x := NewBand(TypeBand, "x")
	y := NewBand(TypeBand, "y")
	e := NewElement(TypeLabel, "e")
	x.AddElement(e)
	y.AddElement(e)
	assert.Equal(t, 0, x.Len())
	assert.Equal(t, y, e.Parent())
}

func TestAttributeMap(t *testing.T) {
	a := AttributeMap{}
	a.Set(NSTable, AttrColspan, "3")
	assert.Equal(t, 3, a.Int(NSTable, AttrColspan, 1))
	assert.Equal(t, 1, a.Int(NSTable, AttrRowspan, 1))
	a.Set(NSTable, AttrColspan, nil)
	_, ok := a.Get(NSTable, AttrColspan)
	assert.False(t, ok)
}

func TestStyleClasses(t *testing.T) {
	e := NewElement(TypeLabel, "x")
	e.Attributes().Set(NSCore, AttrStyleClass, " title  total ")
	assert.Equal(t, []string{"title", "total"}, e.StyleClasses())
	assert.Equal(t, "label", e.ElementTypeName())
}

func TestTableDataRow(t *testing.T) {
	m := NewTypedTableModel("region", "amount")
	m.AddRow("north", 10.0)
	m.AddRow("south")
	row := &TableDataRow{Model: m}
	v, ok := row.Get("amount")
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)
	row.Row = 1
	v, ok = row.Get("amount")
	assert.True(t, ok)
	assert.Nil(t, v)
	_, ok = row.Get("missing")
	assert.False(t, ok)
	row.Row = 2
	_, ok = row.Get("region")
	assert.False(t, ok)
	assert.Equal(t, []string{"region", "amount"}, row.Names())
}

func TestFormatNumber(t *testing.T) {
	f := NewFormatter("en-US")
	tests := []struct {
		v       any
		pattern string
		want    string
	}{
		{1234.5, "#,##0.00", "1,234.50"},
		{1234.5, "0.00", "1234.50"},
		{1234.567, "#,##0.#", "1,234.6"},
		{42, "#,##0", "42"},
		{0.25, "0%", "25%"},
		{"7", "0.0", "7.0"},
	}
	for _, tt := range tests {
		got, err := f.FormatNumber(tt.v, tt.pattern)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v %s", tt.v, tt.pattern)
	}
	_, err := f.FormatNumber("abc", "0")
	assert.Error(t, err)

	de := NewFormatter("de-DE")
	got, err := de.FormatNumber(1234.5, "#,##0.00")
	require.NoError(t, err)
	assert.Equal(t, "1.234,50", got)
}

func TestFormatDate(t *testing.T) {
	f := NewFormatter("en-US")
	got, err := f.FormatDate(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), "02.01.2006")
	require.NoError(t, err)
	assert.Equal(t, "09.03.2024", got)

	got, err = f.FormatDate("2024-03-09", "Jan 2, 2006")
	require.NoError(t, err)
	assert.Equal(t, "Mar 9, 2024", got)

	_, err = f.FormatDate("yesterday", "")
	assert.Error(t, err)
}

const sampleDefinition = `
version: "1.2"
name: sales
locale: de-DE
query: sales
page:
  paper: letter
  margins: [20]
style: |
  .total { font-weight: bold }
expressions:
  - name: count
    type: item-count
groups:
  - name: region
    fields: [region]
    header:
      style: "layout: row"
      elements:
        - type: text-field
          field: region
bands:
  item:
    style: "layout: row; height: 14pt"
    elements:
      - type: text-field
        field: product
        style: "width: 100pt"
      - type: number-field
        field: amount
        format: "#,##0.00"
        class: total
      - type: sub-report
        name: details
        query: details
        parameters:
          product: product
        bands:
          item:
            elements:
              - value: detail
  page-footer:
    elements:
      - type: message
        value: "Page $(page) of $(total-pages)"
        attributes:
          "pdf|bookmark": footer
`

func TestLoadDefinition(t *testing.T) {
	rep, err := NewLoader(nil).Load(strings.NewReader(sampleDefinition))
	require.NoError(t, err)

	assert.Equal(t, "sales", rep.Name)
	assert.Equal(t, "de-DE", rep.Locale)
	assert.Equal(t, "Letter", rep.Page.Paper.Name)
	require.Len(t, rep.Rules, 1)
	require.Len(t, rep.Groups, 1)
	assert.Equal(t, []string{"region"}, rep.Groups[0].Fields)
	assert.Equal(t, TypeGroupHeader, rep.Groups[0].Header.Type())

	item := rep.ItemBand
	require.Equal(t, 3, item.Len())
	assert.Equal(t, TypeItemBand, item.Type())
	assert.Equal(t, style.Keyword("row"), item.StyleSheet().StyleProperty(style.Layout))

	num := item.Element(1)
	assert.Equal(t, TypeNumberField, num.Type())
	assert.Equal(t, "#,##0.00", num.Attributes().String(NSCore, AttrFormat))
	assert.Equal(t, []string{"total"}, num.StyleClasses())

	sr, ok := item.Element(2).(*SubReport)
	require.True(t, ok)
	assert.Equal(t, "details", sr.Query)
	assert.Equal(t, "product", sr.Parameters["product"])
	require.NotNil(t, sr.ItemBand)
	assert.Equal(t, 1, sr.ItemBand.Len())
	assert.Equal(t, item, sr.Parent())

	footer := rep.PageFooter.Element(0)
	assert.Equal(t, "footer", footer.Attributes().String(NSPdf, "bookmark"))

	var count int
	Walk(rep.ItemBand, func(ReportElement) bool { count++; return true })
	assert.Equal(t, 6, count)
}

func TestLoadRejectsVersion(t *testing.T) {
	_, err := NewLoader(nil).Load(strings.NewReader("version: \"2.1\"\n"))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := NewLoader(nil).Load(strings.NewReader("version: \"1.0\"\ncolour: red\n"))
	assert.Error(t, err)
}
