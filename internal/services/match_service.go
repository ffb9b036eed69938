package services

import (
	"context"
	"time"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/internal/realtime"
	"github.com/sbpickleball/match_app/internal/repositories"
	"github.com/sbpickleball/match_app/internal/security"
	"github.com/sbpickleball/match_app/pkg/errors"
	"github.com/sbpickleball/match_app/pkg/logger"
	"github.com/sbpickleball/match_app/pkg/utils"
)

const (
	DefaultOpeningMessage = "매칭이 성사되었어요! 일정을 조율해 보세요 🏓"
	TestMatchMessage      = "관리자 테스트 메시지입니다."
)

// Notifier tells operators about lifecycle events. Failures are the notifier's problem.
type Notifier interface {
	MatchCreated(ctx context.Context, match *models.Match, source string)
}

type NopNotifier struct{}

func (NopNotifier) MatchCreated(ctx context.Context, match *models.Match, source string) {}

type MatchService struct {
	requests  repositories.RequestStore
	matches   repositories.MatchStore
	profiles  repositories.ProfileStore
	messages  repositories.MessageStore
	regions   *RegionResolver
	publisher realtime.Publisher
	notifier  Notifier
	opening   string
}

func NewMatchService(store *repositories.Store, regions *RegionResolver, publisher realtime.Publisher, notifier Notifier, opening string) *MatchService {
	if opening == "" {
		opening = DefaultOpeningMessage
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &MatchService{
		requests:  store.Requests,
		matches:   store.Matches,
		profiles:  store.Profiles,
		messages:  store.Messages,
		regions:   regions,
		publisher: publisher,
		notifier:  notifier,
		opening:   opening,
	}
}

type SubmitRequestInput struct {
	MatchType     string  `json:"match_type"`
	PreferredDate *string `json:"preferred_date"`
	PreferredTime *string `json:"preferred_time"`
	Message       *string `json:"message"`
	RegionSlug    string  `json:"region"`
}

// SubmitRequest validates and stores a new waiting request.
func (s *MatchService) SubmitRequest(ctx context.Context, userID string, in SubmitRequestInput) (*models.MatchRequest, error) {
	if !models.IsValidMatchType(in.MatchType) {
		return nil, errors.New(errors.ErrCodeValidation, "경기 방식은 1v1 또는 2v2만 가능해요")
	}

	date, err := optionalFormatted(in.PreferredDate, "2006-01-02")
	if err != nil {
		return nil, errors.New(errors.ErrCodeValidation, "희망 날짜 형식이 올바르지 않아요 (YYYY-MM-DD)")
	}
	clock, err := optionalFormatted(in.PreferredTime, "15:04")
	if err != nil {
		return nil, errors.New(errors.ErrCodeValidation, "희망 시간 형식이 올바르지 않아요 (HH:MM)")
	}

	var message *string
	if in.Message != nil {
		cleaned := security.CleanText(*in.Message)
		if utils.RuneLen(cleaned) > models.RequestMessageMaxLength {
			return nil, errors.New(errors.ErrCodeValidation, "메시지는 100자 이내로 입력해 주세요")
		}
		if cleaned != "" {
			message = &cleaned
		}
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	region, err := s.regions.Resolve(ctx, in.RegionSlug, profile)
	if err != nil {
		return nil, err
	}

	req := &models.MatchRequest{
		UserID:        userID,
		RegionID:      region.ID,
		MatchType:     in.MatchType,
		Status:        models.RequestStatusWaiting,
		PreferredDate: date,
		PreferredTime: clock,
		Message:       message,
	}
	if err := s.requests.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	logger.Info("Match request submitted", "request_id", req.ID, "user_id", userID, "match_type", req.MatchType)
	return req, nil
}

// optionalFormatted returns nil for an absent or blank value, otherwise the
// value normalized and checked against layout.
func optionalFormatted(value *string, layout string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	v := utils.NormalizeFullWidthDigits(utils.NormalizeSpace(*value))
	if v == "" {
		return nil, nil
	}
	if _, err := time.Parse(layout, v); err != nil {
		return nil, err
	}
	return &v, nil
}

// CancelRequest withdraws a waiting request. Only the owner may cancel, and
// only while it is still waiting.
func (s *MatchService) CancelRequest(ctx context.Context, requestID, ownerID string) error {
	req, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.UserID != ownerID {
		return errors.New(errors.ErrCodeForbidden, "본인의 매칭 신청만 취소할 수 있어요")
	}

	outcome, err := s.requests.TransitionRequest(ctx, requestID, models.RequestStatusWaiting, models.RequestStatusCancelled)
	if err != nil {
		return err
	}

	switch outcome {
	case repositories.OutcomeApplied:
		logger.Info("Match request cancelled", "request_id", requestID)
		return nil
	case repositories.OutcomeNotFound:
		return errors.New(errors.ErrCodeNotFound, "매칭 신청을 찾을 수 없어요")
	default:
		return errors.New(errors.ErrCodeConflict, "이미 처리된 매칭 신청이라 취소할 수 없어요")
	}
}

// AcceptRequest converts a waiting request into an active match. Of several
// concurrent acceptors exactly one wins; the rest get ErrCodeAlreadyTaken.
func (s *MatchService) AcceptRequest(ctx context.Context, requestID, acceptorID string) (*models.Match, error) {
	req, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID == acceptorID {
		return nil, errors.New(errors.ErrCodeValidation, "내 매칭 신청은 수락할 수 없어요")
	}
	switch req.Status {
	case models.RequestStatusWaiting:
	case models.RequestStatusMatched:
		return nil, errors.New(errors.ErrCodeAlreadyTaken, "이미 다른 분이 수락한 매칭이에요")
	default:
		return nil, errors.New(errors.ErrCodeConflict, "취소된 매칭 신청이에요")
	}

	match, opening, err := s.matches.AcceptRequest(ctx, requestID, acceptorID, s.opening)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeAlreadyTaken) {
			logger.Info("Match request lost acceptance race", "request_id", requestID, "user_id", acceptorID)
			return nil, errors.New(errors.ErrCodeAlreadyTaken, "이미 다른 분이 수락한 매칭이에요")
		}
		return nil, err
	}

	logger.Info("Match request accepted", "request_id", requestID, "match_id", match.ID, "user_id", acceptorID)

	s.publisher.Publish(ctx, *opening)
	s.notifier.MatchCreated(ctx, match, "accept")

	return match, nil
}

// CompleteMatch marks an active match completed. Completing an already
// completed match succeeds without change so callers can retry.
func (s *MatchService) CompleteMatch(ctx context.Context, matchID string) (*models.Match, error) {
	return s.finish(ctx, matchID, models.MatchStatusCompleted)
}

// CancelMatch marks an active match cancelled, with the same retry semantics.
func (s *MatchService) CancelMatch(ctx context.Context, matchID string) (*models.Match, error) {
	return s.finish(ctx, matchID, models.MatchStatusCancelled)
}

// CompleteMatchAs completes the match on behalf of a participant.
func (s *MatchService) CompleteMatchAs(ctx context.Context, matchID, userID string) (*models.Match, error) {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasParticipant(userID) {
		return nil, errors.New(errors.ErrCodeForbidden, "참가한 매칭만 완료할 수 있어요")
	}
	return s.CompleteMatch(ctx, matchID)
}

func (s *MatchService) finish(ctx context.Context, matchID, to string) (*models.Match, error) {
	outcome, err := s.matches.TransitionMatch(ctx, matchID, models.MatchStatusActive, to)
	if err != nil {
		return nil, err
	}

	switch outcome {
	case repositories.OutcomeNotFound:
		return nil, errors.New(errors.ErrCodeNotFound, "매칭을 찾을 수 없어요")
	case repositories.OutcomeApplied:
		logger.Info("Match finished", "match_id", matchID, "status", to)
	}

	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != to {
		return nil, errors.New(errors.ErrCodeConflict, "이미 "+match.Status+" 상태인 매칭이에요")
	}
	return match, nil
}

// CreateTestMatch builds a match directly, bypassing requests. Operator tool.
func (s *MatchService) CreateTestMatch(ctx context.Context, creatorID, opponentID, matchType, operatorID string) (*models.Match, error) {
	if creatorID == "" || opponentID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "두 명의 테스트 계정을 선택해 주세요")
	}
	if creatorID == opponentID {
		return nil, errors.New(errors.ErrCodeValidation, "서로 다른 계정을 선택해 주세요")
	}
	if matchType == "" {
		matchType = models.MatchTypeSingles
	}
	if !models.IsValidMatchType(matchType) {
		return nil, errors.New(errors.ErrCodeValidation, "경기 방식은 1v1 또는 2v2만 가능해요")
	}

	creator, err := s.profiles.GetProfile(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if creator.RegionID == nil || *creator.RegionID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "선택한 팀 A 계정의 지역 정보가 없어 매칭을 만들 수 없어요")
	}
	if _, err := s.profiles.GetProfile(ctx, opponentID); err != nil {
		return nil, err
	}

	match := &models.Match{
		RegionID:  *creator.RegionID,
		MatchType: matchType,
		Status:    models.MatchStatusActive,
	}
	participants := []models.MatchParticipant{
		{UserID: creatorID, Team: models.TeamA},
		{UserID: opponentID, Team: models.TeamB},
	}

	var first *models.Message
	if operatorID != "" {
		first = &models.Message{UserID: operatorID, Content: TestMatchMessage}
	}

	if err := s.matches.CreateMatch(ctx, match, participants, first); err != nil {
		return nil, err
	}

	logger.Info("Test match created", "match_id", match.ID, "operator_id", operatorID)
	if first != nil {
		s.publisher.Publish(ctx, *first)
	}
	s.notifier.MatchCreated(ctx, match, "admin")

	return match, nil
}

type WaitingList struct {
	Requests []models.MatchRequest `json:"requests"`
	// AvailableCount excludes the viewer's own requests.
	AvailableCount int `json:"available_count"`
}

// ListWaiting returns the waiting requests in the viewer's region, newest first.
func (s *MatchService) ListWaiting(ctx context.Context, viewerID string) (*WaitingList, error) {
	profile, err := s.profiles.GetProfile(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	region, err := s.regions.Resolve(ctx, "", profile)
	if err != nil {
		return nil, err
	}

	reqs, err := s.requests.ListWaiting(ctx, region.ID)
	if err != nil {
		return nil, err
	}

	list := &WaitingList{Requests: reqs}
	if list.Requests == nil {
		list.Requests = []models.MatchRequest{}
	}
	for _, r := range reqs {
		if r.UserID != viewerID {
			list.AvailableCount++
		}
	}
	return list, nil
}

type MyMatch struct {
	Match     models.Match       `json:"match"`
	MyTeam    string             `json:"my_team"`
	Opponents []models.Profile   `json:"opponents"`
	Teammates []models.Profile   `json:"teammates"`
}

// ListMyMatches returns the user's matches, newest first.
func (s *MatchService) ListMyMatches(ctx context.Context, userID string) ([]MyMatch, error) {
	participations, err := s.matches.ListParticipations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(participations) == 0 {
		return []MyMatch{}, nil
	}

	ids := make([]string, 0, len(participations))
	teams := make(map[string]string, len(participations))
	for _, p := range participations {
		ids = append(ids, p.MatchID)
		teams[p.MatchID] = p.Team
	}

	matches, err := s.matches.ListMatches(ctx, ids, 0)
	if err != nil {
		return nil, err
	}

	out := make([]MyMatch, 0, len(matches))
	for _, m := range matches {
		mine := MyMatch{Match: m, MyTeam: teams[m.ID], Opponents: []models.Profile{}, Teammates: []models.Profile{}}
		for _, p := range m.Participants {
			if p.UserID == userID || p.Profile == nil {
				continue
			}
			if p.Team == mine.MyTeam {
				mine.Teammates = append(mine.Teammates, *p.Profile)
			} else {
				mine.Opponents = append(mine.Opponents, *p.Profile)
			}
		}
		out = append(out, mine)
	}
	return out, nil
}

type MatchOverview struct {
	Match        models.Match `json:"match"`
	MessageCount int64        `json:"message_count"`
}

// AdminOverview lists recent matches with participants and message counts.
func (s *MatchService) AdminOverview(ctx context.Context, limit int) ([]MatchOverview, error) {
	matches, err := s.matches.ListMatches(ctx, nil, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	counts, err := s.messages.CountMessages(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]MatchOverview, 0, len(matches))
	for _, m := range matches {
		out = append(out, MatchOverview{Match: m, MessageCount: counts[m.ID]})
	}
	return out, nil
}
