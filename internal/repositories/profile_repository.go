package repositories

import (
	"context"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/pkg/errors"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile retrieves a profile by user id
func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&profile)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "profile not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get profile")
	}

	return &profile, nil
}

func (r *ProfileRepository) FindProfileByProvider(ctx context.Context, provider, providerUserID string) (*models.Profile, error) {
	var profile models.Profile
	result := r.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&profile)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to find profile")
	}

	return &profile, nil
}

func (r *ProfileRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if isDuplicate(err) {
			return errors.Wrap(err, errors.ErrCodeAlreadyExists, "profile already exists")
		}
		if err == gorm.ErrInvalidData {
			return errors.Wrap(err, errors.ErrCodeValidation, "invalid profile")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create profile")
	}
	return nil
}

// UpdateProfile applies the non-nil fields of update.
// Field validation happens in the service; the model's save hooks are skipped.
func (r *ProfileRepository) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error {
	result := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		UpdateColumns(update.columns())

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update profile")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "profile not found")
	}

	return nil
}
