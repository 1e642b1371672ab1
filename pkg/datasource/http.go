package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"pressroom/pkg/report"
	stdnet "pressroom/std/net"
)

// HTTPFactory runs queries against a remote query service. Each query is a
// GET of Endpoint with the query name in the "query" parameter and report
// parameters as "param<name>" values. The response is a JSON document with
// a metadata array and a resultset matrix.
type HTTPFactory struct {
	Endpoint string
	Client   *http.Client
	Logger   *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewHTTPFactory(endpoint string, client *http.Client, logger *slog.Logger) *HTTPFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFactory{
		Endpoint: endpoint,
		Client:   client,
		Logger:   logger,
		cancels:  make(map[string]context.CancelFunc),
	}
}

type queryResult struct {
	Metadata []struct {
		ColIndex int    `json:"colIndex"`
		ColName  string `json:"colName"`
		ColType  string `json:"colType"`
	} `json:"metadata"`
	ResultSet [][]any `json:"resultset"`
}

func (f *HTTPFactory) QueryData(ctx context.Context, query string, params report.DataRow) (report.TableModel, error) {
	ctx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.cancels[query] = cancel
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		delete(f.cancels, query)
		f.mu.Unlock()
		cancel()
	}()

	u, err := f.queryURL(query, params)
	if err != nil {
		return nil, &report.DataFactoryError{Query: query, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &report.DataFactoryError{Query: query, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	body, _, err := stdnet.Do(f.Client, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &report.DataFactoryError{Query: query, Err: fmt.Errorf("%w: %v", report.ErrQueryCancelled, err)}
		}
		var se *stdnet.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, &report.DataFactoryError{Query: query, Err: report.ErrQueryNotFound}
		}
		return nil, &report.DataFactoryError{Query: query, Err: err}
	}
	f.Logger.Debug("query completed", "query", query, "bytes", len(body), "elapsed", time.Since(start))

	m, err := DecodeResult(body)
	if err != nil {
		return nil, &report.DataFactoryError{Query: query, Err: err}
	}
	return m, nil
}

// CancelRunningQuery aborts every query in flight.
func (f *HTTPFactory) CancelRunningQuery() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for q, cancel := range f.cancels {
		f.Logger.Info("cancelling query", "query", q)
		cancel()
	}
}

func (f *HTTPFactory) queryURL(query string, params report.DataRow) (string, error) {
	u, err := url.Parse(f.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", f.Endpoint, err)
	}
	q := u.Query()
	q.Set("query", query)
	if params != nil {
		for _, name := range params.Names() {
			v, _ := params.Get(name)
			if v == nil {
				continue
			}
			q.Set("param"+name, fmt.Sprint(v))
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DecodeResult parses a query service response into a table.
func DecodeResult(body []byte) (*report.TypedTableModel, error) {
	var res queryResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	cols := make([]string, len(res.Metadata))
	for i, md := range res.Metadata {
		cols[i] = md.ColName
	}
	m := report.NewTypedTableModel(cols...)
	for i, md := range res.Metadata {
		m.Types[i] = columnType(md.ColType)
	}
	for _, row := range res.ResultSet {
		values := make([]any, len(cols))
		for i := range values {
			if i < len(row) {
				values[i] = convertValue(row[i], m.Types[i])
			}
		}
		m.Rows = append(m.Rows, values)
	}
	return m, nil
}

func columnType(t string) string {
	switch t {
	case "Numeric", "Integer", "Double", "Long", "Float", "BigDecimal", "number":
		return "number"
	case "Boolean", "bool":
		return "bool"
	case "Date", "Timestamp", "date":
		return "date"
	}
	return "string"
}

func convertValue(v any, typ string) any {
	if v == nil {
		return nil
	}
	if typ == "date" {
		if s, ok := v.(string); ok {
			for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
				if t, err := time.Parse(layout, s); err == nil {
					return t
				}
			}
		}
	}
	return v
}
