package datasource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressroom/pkg/report"
	"pressroom/pkg/resource"
)

func TestTableFactory(t *testing.T) {
	f := NewTableFactory()
	m := report.NewTypedTableModel("a")
	m.AddRow(1)
	f.Add("q", m)

	got, err := f.QueryData(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RowCount())

	_, err = f.QueryData(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, report.ErrQueryNotFound)
	var dfe *report.DataFactoryError
	assert.ErrorAs(t, err, &dfe)
	assert.Equal(t, "missing", dfe.Query)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.QueryData(ctx, "q", nil)
	assert.ErrorIs(t, err, report.ErrQueryCancelled)
}

func TestCompoundFactory(t *testing.T) {
	a := NewTableFactory()
	b := NewTableFactory()
	m := report.NewTypedTableModel("x")
	b.Add("only-b", m)

	got, err := CompoundFactory{a, b}.QueryData(context.Background(), "only-b", nil)
	require.NoError(t, err)
	assert.Same(t, m, got)

	_, err = CompoundFactory{a, b}.QueryData(context.Background(), "none", nil)
	assert.ErrorIs(t, err, report.ErrQueryNotFound)
}

func TestParseCSV(t *testing.T) {
	m, err := ParseCSV([]byte("region,amount,day\nnorth,10.5,2024-01-02\nsouth,,2024-01-03\neast,7,x\n"), ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "amount", "day"}, m.Columns)
	assert.Equal(t, []string{"string", "number", "string"}, m.Types)
	assert.Equal(t, 3, m.RowCount())
	assert.Equal(t, 10.5, m.ValueAt(0, 1))
	assert.Nil(t, m.ValueAt(1, 1))
	assert.Equal(t, "x", m.ValueAt(2, 2))

	_, err = ParseCSV(nil, ',')
	assert.Error(t, err)
}

func TestCSVFactory(t *testing.T) {
	f := NewCSVFactory(resource.NewFetcher(""))
	f.Files["sales"] = "data:text/csv,a%2Cb%0A1%2C2%0A"

	m, err := f.QueryData(context.Background(), "sales", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, m.RowCount())
	assert.Equal(t, 2.0, m.ValueAt(0, 1))

	_, err = f.QueryData(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, report.ErrQueryNotFound)
}

const resultJSON = `{
  "metadata": [
    {"colIndex":0,"colName":"name","colType":"String"},
    {"colIndex":1,"colName":"total","colType":"Numeric"},
    {"colIndex":2,"colName":"day","colType":"Date"}
  ],
  "resultset": [["a", 1.5, "2024-03-01"], ["b", null, null]]
}`

func TestHTTPFactory(t *testing.T) {
	var gotQuery, gotParam string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotParam = r.URL.Query().Get("paramregion")
		if gotQuery == "missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, resultJSON)
	}))
	defer srv.Close()

	f := NewHTTPFactory(srv.URL+"/query", srv.Client(), nil)
	m, err := f.QueryData(context.Background(), "sales", report.StaticDataRow{"region": "north"})
	require.NoError(t, err)
	assert.Equal(t, "sales", gotQuery)
	assert.Equal(t, "north", gotParam)
	assert.Equal(t, 2, m.RowCount())
	assert.Equal(t, 1.5, m.ValueAt(0, 1))
	assert.Nil(t, m.ValueAt(1, 1))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), m.ValueAt(0, 2))

	_, err = f.QueryData(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, report.ErrQueryNotFound)
}

func TestHTTPFactoryCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewHTTPFactory(srv.URL, srv.Client(), nil)
	errc := make(chan error, 1)
	go func() {
		_, err := f.QueryData(context.Background(), "slow", nil)
		errc <- err
	}()
	<-started
	f.CancelRunningQuery()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, report.ErrQueryCancelled)
	case <-time.After(5 * time.Second):
		t.Fatal("query was not cancelled")
	}
}

func TestDecodeResultInvalid(t *testing.T) {
	_, err := DecodeResult([]byte("{"))
	assert.Error(t, err)
}
