package catalog

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"shortcut/internal/core/domain/catalog"
	"shortcut/pkg/ulid"
)

// linkRepository implements catalog.LinkRepository using GORM.
type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates a new link repository instance.
func NewLinkRepository(db *gorm.DB) catalog.LinkRepository {
	return &linkRepository{db: db}
}

// GetByDomainAndSlug looks up a link by (domain_id, slug), any status. Slug
// matching is case-insensitive, folded the same way hostnames are in the
// domain repository.
func (r *linkRepository) GetByDomainAndSlug(ctx context.Context, domainID ulid.ULID, slug string) (*catalog.Link, error) {
	var l catalog.Link
	err := r.db.WithContext(ctx).
		Where("domain_id = ? AND lower(slug) = ?", domainID, strings.ToLower(slug)).
		First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrLinkNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ListByIDs returns the links matching ids, omitting any without a match.
func (r *linkRepository) ListByIDs(ctx context.Context, ids []ulid.ULID) ([]*catalog.Link, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var links []*catalog.Link
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}
