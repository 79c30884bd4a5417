package store

import (
	"context"
	"fmt"
	"log"

	"absensi/internal/config"
	"absensi/internal/db"
	"absensi/internal/metrics"
)

// Column counts of the two tables.
const (
	UsersWidth      = 4
	AttendanceWidth = 5
)

// Tables returns the Users and Attendance tables named in cfg.
func Tables(cfg *config.Config) (users, attendance Table) {
	return Table{Name: cfg.Sheets.UsersSheet, Width: UsersWidth},
		Table{Name: cfg.Sheets.AttendanceSheet, Width: AttendanceWidth}
}

// Open builds the Store selected by cfg.Store.Driver. When m is non-nil the
// store is instrumented.
func Open(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (Store, error) {
	var s Store
	switch cfg.Store.Driver {
	case config.DriverSheets:
		sh, err := NewSheets(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.ValueInputOption,
			ServiceAccount(ctx, cfg.Sheets.ClientEmail, cfg.Sheets.PrivateKey))
		if err != nil {
			return nil, err
		}
		s = sh
	case config.DriverPostgres, config.DriverSQLite:
		conn, err := db.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		g, err := NewGorm(conn)
		if err != nil {
			return nil, err
		}
		s = g
	case config.DriverMemory:
		log.Printf("[Store] using in-memory store; data is lost on restart")
		s = NewMemory()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if m != nil {
		s = NewInstrumented(s, m)
	}
	return s, nil
}
