package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"absensi/internal/apperr"
)

// SheetRow stores one table row; Sheet and Position together are its address.
type SheetRow struct {
	ID        uint                        `gorm:"primaryKey"`
	Sheet     string                      `gorm:"size:64;not null;uniqueIndex:idx_sheet_position"`
	Position  int                         `gorm:"not null;uniqueIndex:idx_sheet_position"`
	Cells     datatypes.JSONSlice[string] `gorm:"not null"`
	UpdatedAt time.Time
}

func (SheetRow) TableName() string { return "sheet_rows" }

// Gorm keeps tables in a SQL database, one record per occupied position.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&SheetRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sheet rows: %w", err)
	}
	log.Printf("[Store] sheet_rows table ready")
	return &Gorm{db: db}, nil
}

func (g *Gorm) Scan(ctx context.Context, t Table, cols Columns) ([]Row, error) {
	var records []SheetRow
	err := g.db.WithContext(ctx).
		Where("sheet = ? AND position >= ?", t.Name, FirstPosition).
		Order("position").
		Find(&records).Error
	if err != nil {
		return nil, apperr.Unavailable(fmt.Errorf("scan %s: %w", t.Name, err))
	}
	if len(records) == 0 {
		return nil, nil
	}
	last := records[len(records)-1].Position
	out := make([]Row, last-FirstPosition+1)
	for i := range out {
		out[i] = Row{}
	}
	for _, r := range records {
		out[r.Position-FirstPosition] = project(Row(r.Cells), cols)
	}
	return trimTrailingBlank(out), nil
}

// Append takes the position after the highest one in use. Two concurrent
// appends can collide on the unique index; the loser fails and may retry.
func (g *Gorm) Append(ctx context.Context, t Table, row Row) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPos int
		if err := tx.Model(&SheetRow{}).
			Where("sheet = ?", t.Name).
			Select("COALESCE(MAX(position), ?)", FirstPosition-1).
			Scan(&maxPos).Error; err != nil {
			return err
		}
		rec := SheetRow{
			Sheet:    t.Name,
			Position: maxPos + 1,
			Cells:    datatypes.JSONSlice[string](fit(row, t.Width)),
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("append %s: %w", t.Name, err))
	}
	return nil
}

func (g *Gorm) UpdateAt(ctx context.Context, t Table, position int, row Row) error {
	if err := checkPosition(position); err != nil {
		return apperr.Unavailable(err)
	}
	rec := SheetRow{
		Sheet:    t.Name,
		Position: position,
		Cells:    datatypes.JSONSlice[string](fit(row, t.Width)),
	}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sheet"}, {Name: "position"}},
		DoUpdates: clause.AssignmentColumns([]string{"cells", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("update %s!%d: %w", t.Name, position, err))
	}
	return nil
}

func (g *Gorm) ClearAt(ctx context.Context, t Table, position int) error {
	if err := checkPosition(position); err != nil {
		return apperr.Unavailable(err)
	}
	err := g.db.WithContext(ctx).Model(&SheetRow{}).
		Where("sheet = ? AND position = ?", t.Name, position).
		Updates(map[string]any{
			"cells":      datatypes.JSONSlice[string]{},
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("clear %s!%d: %w", t.Name, position, err))
	}
	return nil
}
