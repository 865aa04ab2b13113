// Package billing implements the billing usage period / mismatch storage
// contract with GORM.
package billing

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"shortcut/internal/core/domain/billing"
	"shortcut/pkg/ulid"
)

// repository implements billing.UsagePeriodRepository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new billing usage period repository instance.
func NewRepository(db *gorm.DB) billing.UsagePeriodRepository {
	return &repository{db: db}
}

// Create inserts a usage period row. Returns ErrUsagePeriodAlreadyReported on
// a (workspace_id, period_start, period_end) uniqueness violation so the
// Reporter can treat a duplicate report attempt as a no-op.
func (r *repository) Create(ctx context.Context, p *billing.UsagePeriod) error {
	if p.ID.IsZero() {
		p.ID = ulid.New()
	}
	err := r.db.WithContext(ctx).Create(p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return billing.ErrUsagePeriodAlreadyReported
		}
		return err
	}
	return nil
}

// Exists reports whether a usage period row already exists for the triple.
func (r *repository) Exists(ctx context.Context, workspaceID ulid.ULID, periodStart, periodEnd time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&billing.UsagePeriod{}).
		Where("workspace_id = ? AND period_start = ? AND period_end = ?", workspaceID, periodStart, periodEnd).
		Count(&count).Error
	return count > 0, err
}

// ListReportedSince returns usage periods reported on or after since, for
// the Reconciler's lookback window.
func (r *repository) ListReportedSince(ctx context.Context, since time.Time) ([]*billing.UsagePeriod, error) {
	var rows []*billing.UsagePeriod
	err := r.db.WithContext(ctx).
		Where("reported_at >= ?", since).
		Order("reported_at ASC").
		Find(&rows).Error
	return rows, err
}

// CreateMismatch records a reconciliation finding.
func (r *repository) CreateMismatch(ctx context.Context, m *billing.Mismatch) error {
	if m.ID.IsZero() {
		m.ID = ulid.New()
	}
	return r.db.WithContext(ctx).Create(m).Error
}
