// Package store is the tabular backing store: flat tables with a header row
// whose data rows are addressed only by position.
//
// Position 1 is the header, so the first data row is position 2. Scan returns
// rows in table order and the row at index i lives at position i+2. Clearing
// a row leaves it in place as a blank row, so no other position ever shifts.
// Single-row writes replace the whole row; nothing spans rows or calls.
package store

import (
	"context"
	"fmt"
	"strings"
)

// FirstPosition is the first addressable data row.
const FirstPosition = 2

// Table names a sheet and its fixed column count.
type Table struct {
	Name  string
	Width int
}

// Row is one table row. Stores may trim trailing empty cells.
type Row []string

// Cell returns column i, or "" when the row is shorter.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Blank reports whether every cell is empty.
func (r Row) Blank() bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Columns is a zero-based inclusive column span.
type Columns struct {
	First, Last int
}

// All spans every column of t.
func All(t Table) Columns {
	return Columns{First: 0, Last: t.Width - 1}
}

// Column spans the single column i.
func Column(i int) Columns {
	return Columns{First: i, Last: i}
}

type Store interface {
	Scan(ctx context.Context, t Table, cols Columns) ([]Row, error)
	Append(ctx context.Context, t Table, row Row) error
	UpdateAt(ctx context.Context, t Table, position int, row Row) error
	ClearAt(ctx context.Context, t Table, position int) error
}

// PositionOf maps a Scan index to its table position.
func PositionOf(index int) int {
	return index + FirstPosition
}

func checkPosition(position int) error {
	if position < FirstPosition {
		return fmt.Errorf("position %d is outside the data range", position)
	}
	return nil
}

// fit pads or truncates row to exactly width cells.
func fit(row Row, width int) Row {
	out := make(Row, width)
	copy(out, row)
	return out
}

// project keeps cols of row and drops trailing empty cells.
func project(row Row, cols Columns) Row {
	if cols.First >= len(row) {
		return Row{}
	}
	last := cols.Last
	if last >= len(row) {
		last = len(row) - 1
	}
	out := append(Row(nil), row[cols.First:last+1]...)
	return trimRight(out)
}

func trimRight(row Row) Row {
	n := len(row)
	for n > 0 && row[n-1] == "" {
		n--
	}
	return row[:n]
}

// trimTrailingBlank drops blank rows at the end of a scan, which is how the
// Sheets API reports a table.
func trimTrailingBlank(rows []Row) []Row {
	n := len(rows)
	for n > 0 && len(rows[n-1]) == 0 {
		n--
	}
	return rows[:n]
}
