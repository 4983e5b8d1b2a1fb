package repositories

import (
	"context"

	"unibooks/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// siteInfoRepository implements SiteInfoRepository interface
type siteInfoRepository struct {
	db *gorm.DB
}

// NewSiteInfoRepository creates a new site info repository
func NewSiteInfoRepository(db *gorm.DB) SiteInfoRepository {
	return &siteInfoRepository{db: db}
}

// Latest returns the most recently updated site info row
func (r *siteInfoRepository) Latest(ctx context.Context) (*models.SiteInfo, error) {
	var info models.SiteInfo
	err := r.db.WithContext(ctx).Order("updated_at DESC").First(&info).Error
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Save creates or updates a site info row
func (r *siteInfoRepository) Save(ctx context.Context, info *models.SiteInfo) error {
	return r.db.WithContext(ctx).Save(info).Error
}
