package catalog

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"shortcut/internal/core/domain/catalog"
)

// domainRepository implements catalog.DomainRepository using GORM.
type domainRepository struct {
	db *gorm.DB
}

// NewDomainRepository creates a new domain repository instance.
func NewDomainRepository(db *gorm.DB) catalog.DomainRepository {
	return &domainRepository{db: db}
}

// GetVerifiedByHostname looks up a verified domain by its lowercased hostname.
func (r *domainRepository) GetVerifiedByHostname(ctx context.Context, hostname string) (*catalog.Domain, error) {
	var d catalog.Domain
	err := r.db.WithContext(ctx).
		Where("lower(hostname) = ? AND status = ?", strings.ToLower(hostname), catalog.DomainStatusVerified).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrDomainNotFound
		}
		return nil, err
	}
	return &d, nil
}
