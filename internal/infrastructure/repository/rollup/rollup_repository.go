// Package rollup implements the Aggregator's and Analytics Read API's
// storage contract with GORM.
package rollup

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shortcut/internal/core/domain/rollup"
	"shortcut/pkg/ulid"
)

const highWaterMarkID = 1

// repository implements rollup.Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new rollup repository instance.
func NewRepository(db *gorm.DB) rollup.Repository {
	return &repository{db: db}
}

// GetHighWaterMark returns the singleton high-water-mark row, creating one
// at the zero time if none exists yet.
func (r *repository) GetHighWaterMark(ctx context.Context) (time.Time, error) {
	var hwm rollup.HighWaterMark
	err := r.db.WithContext(ctx).Where("id = ?", highWaterMarkID).First(&hwm).Error
	if err == nil {
		return hwm.LastProcessedTS, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, err
	}

	hwm = rollup.HighWaterMark{ID: highWaterMarkID, LastProcessedTS: time.Time{}}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&hwm).Error; err != nil {
		return time.Time{}, err
	}
	return hwm.LastProcessedTS, nil
}

// ApplyBatch atomically upserts every bucket in batch (additive merge) and
// advances the high-water mark to batch.MaxTS, in one transaction.
func (r *repository) ApplyBatch(ctx context.Context, batch *rollup.Batch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, count := range batch.WorkspaceDaily {
			row := rollup.WorkspaceDaily{WorkspaceID: key.WorkspaceID, Date: key.Date, TotalClicks: count}
			if err := upsertAdditive(tx, &row, []string{"workspace_id", "date"}, "total_clicks", count); err != nil {
				return err
			}
		}
		for key, count := range batch.LinkDaily {
			row := rollup.LinkDaily{LinkID: key.LinkID, Date: key.Date, TotalClicks: count}
			if err := upsertAdditive(tx, &row, []string{"link_id", "date"}, "total_clicks", count); err != nil {
				return err
			}
		}
		for key, count := range batch.ReferrerDaily {
			row := rollup.ReferrerDaily{WorkspaceID: key.WorkspaceID, Date: key.Date, Referrer: key.Referrer, TotalClicks: count}
			if err := upsertAdditive(tx, &row, []string{"workspace_id", "date", "referrer"}, "total_clicks", count); err != nil {
				return err
			}
		}
		for key, count := range batch.CountryDaily {
			row := rollup.CountryDaily{WorkspaceID: key.WorkspaceID, Date: key.Date, Country: key.Country, TotalClicks: count}
			if err := upsertAdditive(tx, &row, []string{"workspace_id", "date", "country"}, "total_clicks", count); err != nil {
				return err
			}
		}
		for key, count := range batch.DeviceDaily {
			row := rollup.DeviceDaily{WorkspaceID: key.WorkspaceID, Date: key.Date, DeviceClass: key.DeviceClass, TotalClicks: count}
			if err := upsertAdditive(tx, &row, []string{"workspace_id", "date", "device_class"}, "total_clicks", count); err != nil {
				return err
			}
		}

		if batch.MaxTS.IsZero() {
			return nil
		}
		hwm := rollup.HighWaterMark{ID: highWaterMarkID, LastProcessedTS: batch.MaxTS}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_processed_ts"}),
		}).Create(&hwm).Error
	})
}

// upsertAdditive inserts row, or on a conflict over conflictCols adds delta
// to the existing column value — the additive merge every rollup bucket
// requires so re-processing a batch never double-counts beyond what the
// batch itself contains.
func upsertAdditive(tx *gorm.DB, row interface{}, conflictCols []string, column string, delta int64) error {
	cols := make([]clause.Column, len(conflictCols))
	for i, c := range conflictCols {
		cols[i] = clause.Column{Name: c}
	}
	return tx.Clauses(clause.OnConflict{
		Columns: cols,
		DoUpdates: clause.Assignments(map[string]interface{}{
			column: gorm.Expr(column+" + ?", delta),
		}),
	}).Create(row).Error
}

func (r *repository) SumWorkspaceDaily(ctx context.Context, workspaceID ulid.ULID, from, to string) ([]rollup.WorkspaceDaily, error) {
	var rows []rollup.WorkspaceDaily
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND date >= ? AND date <= ?", workspaceID, from, to).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) SumWorkspaceTotal(ctx context.Context, workspaceID ulid.ULID, from, to string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&rollup.WorkspaceDaily{}).
		Select("COALESCE(SUM(total_clicks), 0)").
		Where("workspace_id = ? AND date >= ? AND date <= ?", workspaceID, from, to).
		Scan(&total).Error
	return total, err
}

func (r *repository) SumLinkDaily(ctx context.Context, workspaceID ulid.ULID, from, to string, limit int) ([]rollup.LinkTotal, error) {
	var rows []rollup.LinkTotal
	err := r.db.WithContext(ctx).
		Model(&rollup.LinkDaily{}).
		Select("link_daily.link_id AS link_id, SUM(link_daily.total_clicks) AS total_clicks").
		Table("rollup_daily_link AS link_daily").
		Joins("JOIN links ON links.id = link_daily.link_id").
		Where("links.workspace_id = ? AND link_daily.date >= ? AND link_daily.date <= ?", workspaceID, from, to).
		Group("link_daily.link_id").
		Order("total_clicks DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *repository) SumReferrerDaily(ctx context.Context, workspaceID ulid.ULID, from, to string, limit int) ([]rollup.ReferrerTotal, error) {
	var rows []rollup.ReferrerTotal
	err := r.db.WithContext(ctx).
		Model(&rollup.ReferrerDaily{}).
		Select("referrer, SUM(total_clicks) AS total_clicks").
		Where("workspace_id = ? AND date >= ? AND date <= ?", workspaceID, from, to).
		Group("referrer").
		Order("total_clicks DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *repository) SumCountryDaily(ctx context.Context, workspaceID ulid.ULID, from, to string, limit int) ([]rollup.CountryTotal, error) {
	var rows []rollup.CountryTotal
	err := r.db.WithContext(ctx).
		Model(&rollup.CountryDaily{}).
		Select("country, SUM(total_clicks) AS total_clicks").
		Where("workspace_id = ? AND date >= ? AND date <= ?", workspaceID, from, to).
		Group("country").
		Order("total_clicks DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *repository) SumDeviceDaily(ctx context.Context, workspaceID ulid.ULID, from, to string) ([]rollup.DeviceTotal, error) {
	var rows []rollup.DeviceTotal
	err := r.db.WithContext(ctx).
		Model(&rollup.DeviceDaily{}).
		Select("device_class, SUM(total_clicks) AS total_clicks").
		Where("workspace_id = ? AND date >= ? AND date <= ?", workspaceID, from, to).
		Group("device_class").
		Order("total_clicks DESC").
		Scan(&rows).Error
	return rows, err
}
