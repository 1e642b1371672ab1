package datasource

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pressroom/pkg/report"
	"pressroom/pkg/resource"
)

// CSVFactory reads one CSV resource per query. The first record holds the
// column names. Columns whose every non-empty cell parses as a number are
// typed "number" and hold float64 values.
type CSVFactory struct {
	Fetcher resource.Fetcher
	// Files maps query names to resource URIs.
	Files map[string]string
	Comma rune
}

func NewCSVFactory(f resource.Fetcher) *CSVFactory {
	return &CSVFactory{Fetcher: f, Files: map[string]string{}, Comma: ','}
}

func (f *CSVFactory) QueryData(ctx context.Context, query string, _ report.DataRow) (report.TableModel, error) {
	uri, ok := f.Files[query]
	if !ok {
		return nil, &report.DataFactoryError{Query: query, Err: report.ErrQueryNotFound}
	}
	body, _, err := f.Fetcher.Fetch(ctx, uri)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", report.ErrQueryCancelled, err)
		}
		return nil, &report.DataFactoryError{Query: query, Err: err}
	}
	m, err := ParseCSV(body, f.Comma)
	if err != nil {
		return nil, &report.DataFactoryError{Query: query, Err: err}
	}
	return m, nil
}

// ParseCSV builds a typed table from CSV data.
func ParseCSV(data []byte, comma rune) (*report.TypedTableModel, error) {
	r := csv.NewReader(bytes.NewReader(data))
	if comma != 0 {
		r.Comma = comma
	}
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("parse csv: missing header row")
	}
	m := report.NewTypedTableModel(records[0]...)
	for i := range m.Columns {
		m.Types[i] = sniffColumn(records[1:], i)
	}
	for _, rec := range records[1:] {
		row := make([]any, len(m.Columns))
		for i := range row {
			if i >= len(rec) || rec[i] == "" {
				continue
			}
			row[i] = convertCell(rec[i], m.Types[i])
		}
		m.Rows = append(m.Rows, row)
	}
	return m, nil
}

func sniffColumn(rows [][]string, col int) string {
	typ := ""
	for _, rec := range rows {
		if col >= len(rec) || rec[col] == "" {
			continue
		}
		cell := strings.TrimSpace(rec[col])
		var t string
		switch {
		case isNumber(cell):
			t = "number"
		case isDate(cell):
			t = "date"
		default:
			return "string"
		}
		if typ != "" && typ != t {
			return "string"
		}
		typ = t
	}
	if typ == "" {
		return "string"
	}
	return typ
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func convertCell(s, typ string) any {
	s = strings.TrimSpace(s)
	switch typ {
	case "number":
		n, _ := strconv.ParseFloat(s, 64)
		return n
	case "date":
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	return s
}

func isNotFound(err error) bool {
	return errors.Is(err, report.ErrQueryNotFound)
}
