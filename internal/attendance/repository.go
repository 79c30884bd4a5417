// Package attendance exposes attendance records stored in the tabular store,
// filtered and guarded by the caller's policy.
//
// Records are addressed by table position. Scope is applied after reading
// and before writing; update deliberately does not check that the target row
// is in the caller's scope.
package attendance

import (
	"context"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"absensi/internal/apperr"
	"absensi/internal/policy"
	"absensi/internal/store"
)

type Repository struct {
	store store.Store
	table store.Table
}

func NewRepository(s store.Store, table store.Table) *Repository {
	return &Repository{store: s, table: table}
}

// ParsePosition parses a position taken from a request path. Anything that is
// not an integer of at least 2 is an invalid position.
func ParsePosition(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < store.FirstPosition {
		return 0, apperr.ErrInvalidPosition
	}
	return p, nil
}

func checkPosition(position int) error {
	if position < store.FirstPosition {
		return apperr.ErrInvalidPosition
	}
	return nil
}

func (r *Repository) scan(ctx context.Context) ([]store.Row, error) {
	rows, err := r.store.Scan(ctx, r.table, store.All(r.table))
	if err != nil {
		log.Printf("[Attendance] scan %s failed: %v", r.table.Name, err)
		return nil, apperr.Unavailable(err)
	}
	return rows, nil
}

type dateRange struct {
	start, end       time.Time
	hasStart, hasEnd bool
}

func parseRange(f Filter) (dateRange, error) {
	var dr dateRange
	fields := map[string]string{}
	if f.StartDate != "" {
		t, err := time.Parse(DateLayout, f.StartDate)
		if err != nil {
			fields["startDate"] = "must be YYYY-MM-DD"
		}
		dr.start, dr.hasStart = t, true
	}
	if f.EndDate != "" {
		t, err := time.Parse(DateLayout, f.EndDate)
		if err != nil {
			fields["endDate"] = "must be YYYY-MM-DD"
		}
		dr.end, dr.hasEnd = t, true
	}
	if len(fields) > 0 {
		return dateRange{}, apperr.Validation("invalid date filter", fields)
	}
	return dr, nil
}

// contains reports whether date lies within the bounds. A date that does not
// parse never satisfies a bound.
func (dr dateRange) contains(date string) bool {
	if !dr.hasStart && !dr.hasEnd {
		return true
	}
	d, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return false
	}
	if dr.hasStart && d.Before(dr.start) {
		return false
	}
	if dr.hasEnd && d.After(dr.end) {
		return false
	}
	return true
}

// List returns the records visible to id that also match f, in table order.
// Visibility is applied first, so f can only narrow the result.
func (r *Repository) List(ctx context.Context, id policy.Identity, f Filter) ([]Record, error) {
	dr, err := parseRange(f)
	if err != nil {
		return nil, err
	}
	rows, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	visible := policy.Visible(id)
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if row.Blank() {
			continue
		}
		rec := recordAt(store.PositionOf(i), row)
		if !visible(rec) {
			continue
		}
		if f.Class != "" && rec.Class != f.Class {
			continue
		}
		if !dr.contains(rec.Date) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Get re-reads a single position. A cleared or never written position yields
// a blank record.
func (r *Repository) Get(ctx context.Context, id policy.Identity, position int) (Record, error) {
	if err := checkPosition(position); err != nil {
		return Record{}, err
	}
	rows, err := r.scan(ctx)
	if err != nil {
		return Record{}, err
	}
	idx := position - store.FirstPosition
	if idx >= len(rows) {
		return Record{Position: position}, nil
	}
	rec := recordAt(position, rows[idx])
	if rec.Blank() {
		return Record{Position: position}, nil
	}
	if !policy.Visible(id)(rec) {
		return Record{}, apperr.ErrForbidden
	}
	return rec, nil
}

// Validate checks a record's fields. Note may be empty and Position is
// ignored. The date must be a real calendar day, so 2024-02-30 is rejected
// even though it has the YYYY-MM-DD shape.
func (rec Record) Validate() error {
	fields := map[string]string{}
	if rec.Date == "" {
		fields["date"] = "required"
	} else if _, err := time.Parse(DateLayout, rec.Date); err != nil {
		fields["date"] = "must be YYYY-MM-DD"
	}
	if strings.TrimSpace(rec.StudentName) == "" {
		fields["studentName"] = "required"
	}
	if strings.TrimSpace(rec.Class) == "" {
		fields["class"] = "required"
	}
	if rec.Status == "" {
		fields["status"] = "required"
	} else if !rec.Status.Valid() {
		fields["status"] = "must be one of Hadir, Sakit, Izin, Alpha"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid attendance data", fields)
	}
	return nil
}

// Create appends rec. Duplicates are accepted as separate records.
func (r *Repository) Create(ctx context.Context, id policy.Identity, rec Record) error {
	if !policy.CanWriteAttendance(id) {
		return apperr.ErrForbidden
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := r.store.Append(ctx, r.table, rec.row()); err != nil {
		log.Printf("[Attendance] append %s failed: %v", r.table.Name, err)
		return apperr.Unavailable(err)
	}
	log.Printf("[Attendance] %s recorded %s for %s (%s) on %s", id.Username, rec.Status, rec.StudentName, rec.Class, rec.Date)
	return nil
}

// Update replaces the row at position. The position is checked before the
// caller's role, so a bad position is reported the same way to everyone.
func (r *Repository) Update(ctx context.Context, id policy.Identity, position int, rec Record) error {
	if err := checkPosition(position); err != nil {
		return err
	}
	if !policy.CanWriteAttendance(id) {
		return apperr.ErrForbidden
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := r.store.UpdateAt(ctx, r.table, position, rec.row()); err != nil {
		log.Printf("[Attendance] update %s@%d failed: %v", r.table.Name, position, err)
		return apperr.Unavailable(err)
	}
	log.Printf("[Attendance] %s updated position %d", id.Username, position)
	return nil
}

// Delete clears the row at position. Later rows keep their positions.
// Only a teacher may delete, so the role is checked before the position.
func (r *Repository) Delete(ctx context.Context, id policy.Identity, position int) error {
	if !policy.CanDeleteAttendance(id) {
		return apperr.ErrForbidden
	}
	if err := checkPosition(position); err != nil {
		return err
	}
	if err := r.store.ClearAt(ctx, r.table, position); err != nil {
		log.Printf("[Attendance] clear %s@%d failed: %v", r.table.Name, position, err)
		return apperr.Unavailable(err)
	}
	log.Printf("[Attendance] %s cleared position %d", id.Username, position)
	return nil
}

// ListClasses returns the distinct non-blank values of the class column,
// sorted. It is not limited to the caller's scope.
func (r *Repository) ListClasses(ctx context.Context, _ policy.Identity) ([]string, error) {
	rows, err := r.store.Scan(ctx, r.table, store.Column(colClass))
	if err != nil {
		log.Printf("[Attendance] scan classes of %s failed: %v", r.table.Name, err)
		return nil, apperr.Unavailable(err)
	}
	seen := make(map[string]struct{})
	classes := []string{}
	for _, row := range rows {
		class := row.Cell(0)
		if strings.TrimSpace(class) == "" {
			continue
		}
		if _, dup := seen[class]; dup {
			continue
		}
		seen[class] = struct{}{}
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes, nil
}
