package store

import (
	"context"
	"sync"

	"absensi/internal/apperr"
)

// Memory is an in-process Store for development and tests.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][]Row
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string][]Row)}
}

func (m *Memory) Scan(ctx context.Context, t Table, cols Columns) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Unavailable(err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.tables[t.Name]
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = project(r, cols)
	}
	return trimTrailingBlank(out), nil
}

func (m *Memory) Append(ctx context.Context, t Table, row Row) error {
	if err := ctx.Err(); err != nil {
		return apperr.Unavailable(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.Name] = append(m.tables[t.Name], fit(row, t.Width))
	return nil
}

func (m *Memory) UpdateAt(ctx context.Context, t Table, position int, row Row) error {
	if err := ctx.Err(); err != nil {
		return apperr.Unavailable(err)
	}
	if err := checkPosition(position); err != nil {
		return apperr.Unavailable(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[t.Name]
	idx := position - FirstPosition
	for len(rows) <= idx {
		rows = append(rows, Row{})
	}
	rows[idx] = fit(row, t.Width)
	m.tables[t.Name] = rows
	return nil
}

func (m *Memory) ClearAt(ctx context.Context, t Table, position int) error {
	if err := ctx.Err(); err != nil {
		return apperr.Unavailable(err)
	}
	if err := checkPosition(position); err != nil {
		return apperr.Unavailable(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := position - FirstPosition
	if rows := m.tables[t.Name]; idx < len(rows) {
		rows[idx] = Row{}
	}
	return nil
}
