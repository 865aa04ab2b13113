// Package click implements the raw click log's storage contract with GORM.
package click

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"gorm.io/gorm"

	"shortcut/internal/core/domain/click"
)

// repository implements click.Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new raw click log repository instance.
func NewRepository(db *gorm.DB) click.Repository {
	return &repository{db: db}
}

// InsertBatch idempotently inserts rows keyed on ClickID, ignoring rows whose
// ClickID already exists so redelivered queue messages collapse into a
// single row.
func (r *repository) InsertBatch(ctx context.Context, rows []*click.RawClick) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "click_id"}}, DoNothing: true}).
		Create(rows).Error
}

// ListSince returns up to limit rows with TS > since, ordered by TS
// ascending, for the Aggregator's incremental scan.
func (r *repository) ListSince(ctx context.Context, since time.Time, limit int) ([]*click.RawClick, error) {
	var rows []*click.RawClick
	err := r.db.WithContext(ctx).
		Where("ts > ?", since).
		Order("ts ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteOlderThan removes up to limit rows with TS < cutoff and reports how
// many were deleted, for the Retention Job's bounded-batch loop.
func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	sub := r.db.WithContext(ctx).
		Model(&click.RawClick{}).
		Select("click_id").
		Where("ts < ?", cutoff).
		Order("ts ASC").
		Limit(limit)

	result := r.db.WithContext(ctx).
		Where("click_id IN (?)", sub).
		Delete(&click.RawClick{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
