// Package counter implements the Workspace Counter's storage contract with GORM.
package counter

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"shortcut/internal/core/domain/counter"
	"shortcut/pkg/ulid"
)

// repository implements counter.Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new workspace counter repository instance.
func NewRepository(db *gorm.DB) counter.Repository {
	return &repository{db: db}
}

// Get loads the counter row for a workspace, creating a zero-valued one
// (stamped with the current UTC month key) if none exists yet.
func (r *repository) Get(ctx context.Context, workspaceID ulid.ULID) (*counter.WorkspaceCounter, error) {
	var c counter.WorkspaceCounter
	err := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c = counter.WorkspaceCounter{
		WorkspaceID:  workspaceID,
		FreeMonthKey: counter.CurrentMonthKey(time.Now()),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		// Lost the create race against a concurrent first-read: re-fetch.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing counter.WorkspaceCounter
			if err := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).First(&existing).Error; err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, err
	}
	return &c, nil
}

// Save persists the full counter row.
func (r *repository) Save(ctx context.Context, c *counter.WorkspaceCounter) error {
	c.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(c).Error
}
