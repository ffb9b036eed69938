package repositories

import (
	"context"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/pkg/errors"
	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) CreateReview(ctx context.Context, review *models.UserReview) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		if isDuplicate(err) {
			return errors.Wrap(err, errors.ErrCodeAlreadyExists, "review already submitted")
		}
		if err == gorm.ErrInvalidData {
			return errors.Wrap(err, errors.ErrCodeValidation, "invalid review")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create review")
	}
	return nil
}

func (r *ReviewRepository) ReviewExists(ctx context.Context, reviewerID, reviewedID, matchID string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.UserReview{}).
		Where("reviewer_id = ? AND reviewed_id = ? AND match_id = ?", reviewerID, reviewedID, matchID).
		Count(&count)

	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to check review")
	}
	return count > 0, nil
}

func (r *ReviewRepository) ListReviewsFor(ctx context.Context, reviewedID string) ([]models.UserReview, error) {
	var reviews []models.UserReview
	result := r.db.WithContext(ctx).
		Where("reviewed_id = ?", reviewedID).
		Order("created_at DESC, id DESC").
		Find(&reviews)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list reviews")
	}

	return reviews, nil
}
