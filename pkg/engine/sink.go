package engine

import (
	"context"

	"pressroom/pkg/layout"
)

// PageSink receives the pages of the content pass in order. Close is
// called once after the last page of a successful run.
type PageSink interface {
	ProcessPage(ctx context.Context, page *layout.LogicalPageBox, totalPages int) error
	Close() error
}

// Discarder is implemented by sinks that can drop partial output. A failed
// run calls Discard instead of Close.
type Discarder interface {
	Discard()
}

// PageCollector keeps every page in memory.
type PageCollector struct {
	Pages      []*layout.LogicalPageBox
	TotalPages int
	Closed     bool
	Discarded  bool
}

func (c *PageCollector) ProcessPage(_ context.Context, page *layout.LogicalPageBox, total int) error {
	c.Pages = append(c.Pages, page)
	c.TotalPages = total
	return nil
}

func (c *PageCollector) Close() error {
	c.Closed = true
	return nil
}

func (c *PageCollector) Discard() {
	c.Pages = nil
	c.Discarded = true
}

// MultiSink fans pages out to several sinks.
type MultiSink []PageSink

func (m MultiSink) ProcessPage(ctx context.Context, page *layout.LogicalPageBox, total int) error {
	for _, s := range m {
		if err := s.ProcessPage(ctx, page, total); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiSink) Discard() {
	for _, s := range m {
		if d, ok := s.(Discarder); ok {
			d.Discard()
		}
	}
}
