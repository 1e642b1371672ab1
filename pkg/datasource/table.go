// Package datasource provides the data factories a report can query: static
// tables, CSV files and an HTTP query service.
package datasource

import (
	"context"
	"sync"

	"pressroom/pkg/report"
)

// TableFactory serves in-memory tables by query name.
type TableFactory struct {
	mu     sync.RWMutex
	tables map[string]report.TableModel
}

func NewTableFactory() *TableFactory {
	return &TableFactory{tables: make(map[string]report.TableModel)}
}

// Add registers a table under a query name.
func (f *TableFactory) Add(query string, m report.TableModel) {
	f.mu.Lock()
	f.tables[query] = m
	f.mu.Unlock()
}

func (f *TableFactory) QueryData(ctx context.Context, query string, _ report.DataRow) (report.TableModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, &report.DataFactoryError{Query: query, Err: report.ErrQueryCancelled}
	}
	f.mu.RLock()
	m, ok := f.tables[query]
	f.mu.RUnlock()
	if !ok {
		return nil, &report.DataFactoryError{Query: query, Err: report.ErrQueryNotFound}
	}
	return m, nil
}

// CompoundFactory asks each factory in turn and returns the first result for
// a query one of them knows.
type CompoundFactory []report.DataFactory

func (c CompoundFactory) QueryData(ctx context.Context, query string, params report.DataRow) (report.TableModel, error) {
	for _, f := range c {
		m, err := f.QueryData(ctx, query, params)
		if err == nil {
			return m, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}
	return nil, &report.DataFactoryError{Query: query, Err: report.ErrQueryNotFound}
}

// CancelRunningQuery forwards to every factory that supports it.
func (c CompoundFactory) CancelRunningQuery() {
	for _, f := range c {
		if cf, ok := f.(report.Canceller); ok {
			cf.CancelRunningQuery()
		}
	}
}
