package services

import (
	"context"
	"fmt"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/internal/repositories"
	"github.com/sbpickleball/match_app/internal/security"
	"github.com/sbpickleball/match_app/pkg/errors"
	"github.com/sbpickleball/match_app/pkg/logger"
	"github.com/sbpickleball/match_app/pkg/utils"
)

type ReviewService struct {
	matches repositories.MatchStore
	reviews repositories.ReviewStore
}

func NewReviewService(store *repositories.Store) *ReviewService {
	return &ReviewService{
		matches: store.Matches,
		reviews: store.Reviews,
	}
}

type SubmitReviewInput struct {
	ReviewedID       string `json:"reviewed_id"`
	TeamworkScore    int    `json:"teamwork_score"`
	LanguageScore    int    `json:"language_score"`
	RuleScore        int    `json:"rule_score"`
	PunctualityScore int    `json:"punctuality_score"`
	Comment          string `json:"comment"`
}

// SubmitReview records one manner review of a fellow participant after a
// completed match. Every check runs before the write.
func (s *ReviewService) SubmitReview(ctx context.Context, reviewerID, matchID string, in SubmitReviewInput) (*models.UserReview, error) {
	for _, score := range []int{in.TeamworkScore, in.LanguageScore, in.RuleScore, in.PunctualityScore} {
		if !models.IsValidScore(score) {
			return nil, errors.New(errors.ErrCodeValidation,
				fmt.Sprintf("모든 항목을 %d~%d점으로 평가해 주세요", models.ReviewScoreMin, models.ReviewScoreMax))
		}
	}

	comment := security.CleanText(in.Comment)
	if utils.RuneLen(comment) > models.ReviewCommentMaxLength {
		return nil, errors.New(errors.ErrCodeValidation,
			fmt.Sprintf("후기는 %d자 이내로 입력해 주세요", models.ReviewCommentMaxLength))
	}

	if in.ReviewedID == "" || in.ReviewedID == reviewerID {
		return nil, errors.New(errors.ErrCodeValidation, "자기 자신은 평가할 수 없어요")
	}

	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusCompleted {
		return nil, errors.New(errors.ErrCodeValidation, "완료된 매칭만 평가할 수 있어요")
	}
	if !match.HasParticipant(reviewerID) {
		return nil, errors.New(errors.ErrCodeForbidden, "참가한 매칭만 평가할 수 있어요")
	}
	if !match.HasParticipant(in.ReviewedID) {
		return nil, errors.New(errors.ErrCodeValidation, "이 매칭의 참가자만 평가할 수 있어요")
	}

	exists, err := s.reviews.ReviewExists(ctx, reviewerID, in.ReviewedID, matchID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New(errors.ErrCodeAlreadyExists, "이미 평가를 남겼어요")
	}

	review := &models.UserReview{
		ReviewerID:       reviewerID,
		ReviewedID:       in.ReviewedID,
		MatchID:          matchID,
		TeamworkScore:    in.TeamworkScore,
		LanguageScore:    in.LanguageScore,
		RuleScore:        in.RuleScore,
		PunctualityScore: in.PunctualityScore,
		Comment:          comment,
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		if errors.HasCode(err, errors.ErrCodeAlreadyExists) {
			return nil, errors.Wrap(err, errors.ErrCodeAlreadyExists, "이미 평가를 남겼어요")
		}
		return nil, err
	}

	logger.Info("Review submitted", "match_id", matchID, "reviewer_id", reviewerID, "reviewed_id", in.ReviewedID)
	return review, nil
}

type ReviewTarget struct {
	Profile  models.Profile `json:"profile"`
	Team     string         `json:"team"`
	Reviewed bool           `json:"reviewed"`
}

// ReviewTargets lists the other participants the reviewer can rate.
func (s *ReviewService) ReviewTargets(ctx context.Context, reviewerID, matchID string) ([]ReviewTarget, error) {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasParticipant(reviewerID) {
		return nil, errors.New(errors.ErrCodeForbidden, "참가한 매칭만 평가할 수 있어요")
	}
	if match.Status != models.MatchStatusCompleted {
		return nil, errors.New(errors.ErrCodeValidation, "완료된 매칭만 평가할 수 있어요")
	}

	targets := []ReviewTarget{}
	for _, p := range match.Participants {
		if p.UserID == reviewerID {
			continue
		}
		done, err := s.reviews.ReviewExists(ctx, reviewerID, p.UserID, matchID)
		if err != nil {
			return nil, err
		}
		t := ReviewTarget{Team: p.Team, Reviewed: done}
		if p.Profile != nil {
			t.Profile = *p.Profile
		} else {
			t.Profile = models.Profile{ID: p.UserID, Nickname: models.DefaultNickname}
		}
		targets = append(targets, t)
	}
	return targets, nil
}
