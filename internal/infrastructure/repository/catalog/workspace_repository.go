package catalog

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"shortcut/internal/core/domain/catalog"
	"shortcut/pkg/ulid"
)

// workspaceRepository implements catalog.WorkspaceRepository using GORM.
type workspaceRepository struct {
	db *gorm.DB
}

// NewWorkspaceRepository creates a new workspace repository instance.
func NewWorkspaceRepository(db *gorm.DB) catalog.WorkspaceRepository {
	return &workspaceRepository{db: db}
}

// GetByID retrieves a workspace by ID.
func (r *workspaceRepository) GetByID(ctx context.Context, id ulid.ULID) (*catalog.Workspace, error) {
	var ws catalog.Workspace
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ws).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return &ws, nil
}

// ListProPastPeriodEnd retrieves every Pro workspace whose billing period
// has already closed.
func (r *workspaceRepository) ListProPastPeriodEnd(ctx context.Context, cutoff time.Time) ([]*catalog.Workspace, error) {
	var workspaces []*catalog.Workspace
	err := r.db.WithContext(ctx).
		Where("plan = ?", catalog.PlanPro).
		Where("current_period_end IS NOT NULL AND current_period_end < ?", cutoff).
		Find(&workspaces).Error
	if err != nil {
		return nil, err
	}
	return workspaces, nil
}
