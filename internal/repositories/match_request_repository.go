package repositories

import (
	"context"
	"time"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/pkg/errors"
	"gorm.io/gorm"
)

type MatchRequestRepository struct {
	db *gorm.DB
}

func NewMatchRequestRepository(db *gorm.DB) *MatchRequestRepository {
	return &MatchRequestRepository{db: db}
}

func (r *MatchRequestRepository) CreateRequest(ctx context.Context, req *models.MatchRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if err == gorm.ErrInvalidData {
			return errors.Wrap(err, errors.ErrCodeValidation, "invalid match request")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create match request")
	}
	return nil
}

func (r *MatchRequestRepository) GetRequest(ctx context.Context, id string) (*models.MatchRequest, error) {
	var req models.MatchRequest
	result := r.db.WithContext(ctx).Preload("Owner").Where("id = ?", id).First(&req)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "match request not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get match request")
	}

	return &req, nil
}

func (r *MatchRequestRepository) ListWaiting(ctx context.Context, regionID string) ([]models.MatchRequest, error) {
	var reqs []models.MatchRequest
	query := r.db.WithContext(ctx).
		Joins("Owner").
		Where("match_requests.status = ?", models.RequestStatusWaiting).
		Where(`"Owner"."available" = ?`, true)

	if regionID != "" {
		query = query.Where("match_requests.region_id = ?", regionID)
	}

	result := query.Order("match_requests.created_at DESC, match_requests.id DESC").Find(&reqs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list waiting requests")
	}

	return reqs, nil
}

// TransitionRequest moves a request from one status to another only if it is still in from
func (r *MatchRequestRepository) TransitionRequest(ctx context.Context, id, from, to string) (Outcome, error) {
	if !models.IsValidRequestStatus(from) || !models.IsValidRequestStatus(to) {
		return OutcomeConflict, errors.New(errors.ErrCodeValidation, "unknown request status")
	}
	return transitionStatus(r.db.WithContext(ctx), &models.MatchRequest{}, id, from, to)
}

// transitionStatus is the shared compare-and-set on a status column.
// Zero affected rows is split into conflict or not found by an existence check.
// UpdateColumns skips the model's save hooks, which would validate the empty model.
func transitionStatus(db *gorm.DB, model interface{}, id, from, to string) (Outcome, error) {
	result := db.Model(model).
		Where("id = ? AND status = ?", id, from).
		UpdateColumns(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		return OutcomeConflict, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update status")
	}
	if result.RowsAffected > 0 {
		return OutcomeApplied, nil
	}

	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return OutcomeConflict, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check row existence")
	}
	if count == 0 {
		return OutcomeNotFound, nil
	}
	return OutcomeConflict, nil
}
