package repositories

import (
	"context"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/pkg/errors"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		if err == gorm.ErrInvalidData {
			return errors.Wrap(err, errors.ErrCodeValidation, "message content is empty")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create message")
	}
	return nil
}

func (r *MessageRepository) ListMessages(ctx context.Context, matchID string) ([]models.Message, error) {
	var msgs []models.Message
	result := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at ASC, id ASC").
		Find(&msgs)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list messages")
	}

	return msgs, nil
}

func (r *MessageRepository) CountMessages(ctx context.Context, matchIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(matchIDs))
	if len(matchIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		MatchID string
		Count   int64
	}
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Select("match_id, COUNT(*) AS count").
		Where("match_id IN ?", matchIDs).
		Group("match_id").
		Scan(&rows)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to count messages")
	}

	for _, row := range rows {
		counts[row.MatchID] = row.Count
	}
	return counts, nil
}
