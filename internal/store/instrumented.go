package store

import (
	"context"
	"time"

	"absensi/internal/metrics"
)

// Instrumented records latency and outcome of every call on the wrapped Store.
type Instrumented struct {
	next    Store
	metrics *metrics.Metrics
}

func NewInstrumented(next Store, m *metrics.Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

func (s *Instrumented) Scan(ctx context.Context, t Table, cols Columns) ([]Row, error) {
	start := time.Now()
	rows, err := s.next.Scan(ctx, t, cols)
	s.metrics.ObserveStore(t.Name, "scan", start, err)
	return rows, err
}

func (s *Instrumented) Append(ctx context.Context, t Table, row Row) error {
	start := time.Now()
	err := s.next.Append(ctx, t, row)
	s.metrics.ObserveStore(t.Name, "append", start, err)
	return err
}

func (s *Instrumented) UpdateAt(ctx context.Context, t Table, position int, row Row) error {
	start := time.Now()
	err := s.next.UpdateAt(ctx, t, position, row)
	s.metrics.ObserveStore(t.Name, "update", start, err)
	return err
}

func (s *Instrumented) ClearAt(ctx context.Context, t Table, position int) error {
	start := time.Now()
	err := s.next.ClearAt(ctx, t, position)
	s.metrics.ObserveStore(t.Name, "clear", start, err)
	return err
}
