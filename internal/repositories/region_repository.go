package repositories

import (
	"context"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RegionRepository struct {
	db *gorm.DB
}

func NewRegionRepository(db *gorm.DB) *RegionRepository {
	return &RegionRepository{db: db}
}

func (r *RegionRepository) GetRegion(ctx context.Context, id string) (*models.Region, error) {
	var region models.Region
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&region)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "region not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get region")
	}

	return &region, nil
}

func (r *RegionRepository) GetRegionBySlug(ctx context.Context, slug string) (*models.Region, error) {
	var region models.Region
	result := r.db.WithContext(ctx).Where("slug = ?", slug).First(&region)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "region not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get region")
	}

	return &region, nil
}

// EnsureRegion inserts the region if its slug is new, then returns the stored row
func (r *RegionRepository) EnsureRegion(ctx context.Context, name string) (*models.Region, error) {
	slug := models.RegionSlug(name)
	if slug == "" {
		return nil, errors.New(errors.ErrCodeValidation, "region name has no usable slug")
	}

	region := &models.Region{Name: name, Slug: slug}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(region).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to ensure region")
	}

	return r.GetRegionBySlug(ctx, slug)
}
