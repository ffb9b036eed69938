package repositories

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/pkg/errors"
	"gorm.io/gorm"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// AcceptRequest creates the match and both participants, then flips the request
// to matched and adds the opening message. The flip is conditional on the request
// still waiting; if another acceptor got there first the transaction rolls back.
func (r *MatchRepository) AcceptRequest(ctx context.Context, requestID, acceptorID, opening string) (*models.Match, *models.Message, error) {
	var match *models.Match
	var message *models.Message

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.MatchRequest
		if err := tx.Where("id = ?", requestID).First(&req).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.New(errors.ErrCodeNotFound, "match request not found")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get match request")
		}

		if req.UserID == acceptorID {
			return errors.New(errors.ErrCodeValidation, "cannot accept your own request")
		}
		switch req.Status {
		case models.RequestStatusWaiting:
		case models.RequestStatusMatched:
			return errors.New(errors.ErrCodeAlreadyTaken, "match request already taken")
		default:
			return errors.New(errors.ErrCodeConflict, "match request is no longer open")
		}

		m := &models.Match{
			RegionID:  req.RegionID,
			MatchType: req.MatchType,
			Status:    models.MatchStatusActive,
		}
		if err := tx.Create(m).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create match")
		}

		participants := []models.MatchParticipant{
			{MatchID: m.ID, UserID: req.UserID, Team: models.TeamA},
			{MatchID: m.ID, UserID: acceptorID, Team: models.TeamB},
		}
		if err := tx.Create(&participants).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create participants")
		}

		result := tx.Model(&models.MatchRequest{}).
			Where("id = ? AND status = ?", requestID, models.RequestStatusWaiting).
			UpdateColumns(map[string]interface{}{
				"status":     models.RequestStatusMatched,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to mark request matched")
		}
		if result.RowsAffected == 0 {
			return errors.New(errors.ErrCodeAlreadyTaken, "match request already taken")
		}

		msg := &models.Message{MatchID: m.ID, UserID: acceptorID, Content: opening}
		if err := tx.Create(msg).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create opening message")
		}

		m.Participants = participants
		match = m
		message = msg
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return match, message, nil
}

// CreateMatch inserts an operator-created match in one transaction
func (r *MatchRepository) CreateMatch(ctx context.Context, match *models.Match, participants []models.MatchParticipant, first *models.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Participants").Create(match).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create match")
		}

		for i := range participants {
			participants[i].MatchID = match.ID
		}
		if err := tx.Create(&participants).Error; err != nil {
			if isDuplicate(err) {
				return errors.Wrap(err, errors.ErrCodeValidation, "user already in match")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create participants")
		}

		if first != nil {
			first.MatchID = match.ID
			if err := tx.Create(first).Error; err != nil {
				return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create first message")
			}
		}

		match.Participants = participants
		return nil
	})
}

// GetMatch retrieves a match with participants
func (r *MatchRepository) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	var match models.Match
	result := r.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("team ASC, created_at ASC")
		}).
		Preload("Participants.Profile").
		Where("id = ?", id).
		First(&match)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "match not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get match")
	}

	return &match, nil
}

func (r *MatchRepository) TransitionMatch(ctx context.Context, id, from, to string) (Outcome, error) {
	if !models.IsValidMatchStatus(from) || !models.IsValidMatchStatus(to) {
		return OutcomeConflict, errors.New(errors.ErrCodeValidation, "unknown match status")
	}
	return transitionStatus(r.db.WithContext(ctx), &models.Match{}, id, from, to)
}

func (r *MatchRepository) ListParticipations(ctx context.Context, userID string) ([]models.MatchParticipant, error) {
	var rows []models.MatchParticipant
	result := r.db.WithContext(ctx).
		Preload("Match").
		Where("user_id = ?", userID).
		Find(&rows)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list participations")
	}

	SortParticipationsNewestFirst(rows)
	return rows, nil
}

func (r *MatchRepository) ListMatches(ctx context.Context, ids []string, limit int) ([]models.Match, error) {
	var matches []models.Match
	query := r.db.WithContext(ctx).
		Preload("Participants").
		Preload("Participants.Profile").
		Order("created_at DESC, id DESC")

	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&matches).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list matches")
	}

	return matches, nil
}

// SortParticipationsNewestFirst orders rows by their match creation time, newest first.
// Rows without a loaded match sort last.
func SortParticipationsNewestFirst(rows []models.MatchParticipant) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Match, rows[j].Match
		if a == nil || b == nil {
			return a != nil
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

func isDuplicate(err error) bool {
	return stderrors.Is(err, gorm.ErrDuplicatedKey)
}
