package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"absensi/internal/config"
)

// Open connects to the SQL database selected by cfg.Store.Driver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.Postgres.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("driver %q is not a SQL driver", cfg.Store.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if cfg.Store.Driver == config.DriverPostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Printf("[DB] connected (%s)", cfg.Store.Driver)
	return db, nil
}
