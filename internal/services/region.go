package services

import (
	"context"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/internal/repositories"
	"github.com/sbpickleball/match_app/pkg/errors"
)

// RegionResolver picks the region a user acts in: an explicit slug, then the
// profile's region, then the configured default.
type RegionResolver struct {
	regions       repositories.RegionStore
	defaultRegion string
}

func NewRegionResolver(regions repositories.RegionStore, defaultRegion string) *RegionResolver {
	return &RegionResolver{regions: regions, defaultRegion: defaultRegion}
}

func (r *RegionResolver) Resolve(ctx context.Context, slug string, profile *models.Profile) (*models.Region, error) {
	if slug != "" {
		region, err := r.regions.GetRegionBySlug(ctx, slug)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeNotFound) {
				return nil, errors.New(errors.ErrCodeValidation, "알 수 없는 지역이에요")
			}
			return nil, err
		}
		return region, nil
	}

	if profile != nil && profile.RegionID != nil && *profile.RegionID != "" {
		region, err := r.regions.GetRegion(ctx, *profile.RegionID)
		if err == nil {
			return region, nil
		}
		if !errors.HasCode(err, errors.ErrCodeNotFound) {
			return nil, err
		}
	}

	return r.Default(ctx)
}

// Default returns the configured region, creating it on first use.
func (r *RegionResolver) Default(ctx context.Context) (*models.Region, error) {
	return r.regions.EnsureRegion(ctx, r.defaultRegion)
}
