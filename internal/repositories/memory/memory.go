// Package memory is an in-process data backend with the same semantics as the
// GORM repositories. It backs tests and BACKEND=memory runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/internal/repositories"
	"github.com/sbpickleball/match_app/pkg/errors"
)

var (
	_ repositories.ProfileStore = (*Backend)(nil)
	_ repositories.RegionStore  = (*Backend)(nil)
	_ repositories.RequestStore = (*Backend)(nil)
	_ repositories.MatchStore   = (*Backend)(nil)
	_ repositories.MessageStore = (*Backend)(nil)
	_ repositories.ReviewStore  = (*Backend)(nil)
)

// Backend holds every table behind one mutex, so multi-row operations are atomic.
type Backend struct {
	mu sync.Mutex

	profiles     map[string]models.Profile
	regions      map[string]models.Region
	requests     map[string]models.MatchRequest
	matches      map[string]models.Match
	participants []models.MatchParticipant
	messages     []models.Message
	reviews      []models.UserReview

	now func() time.Time

	// failNext makes the next call of the named operation fail. Tests only.
	failNext map[string]error
}

func New() *Backend {
	return &Backend{
		profiles: make(map[string]models.Profile),
		regions:  make(map[string]models.Region),
		requests: make(map[string]models.MatchRequest),
		matches:  make(map[string]models.Match),
		now:      func() time.Time { return time.Now().UTC() },
		failNext: make(map[string]error),
	}
}

// NewStore returns a Store whose capabilities are all served by one Backend.
func NewStore() (*repositories.Store, *Backend) {
	b := New()
	return &repositories.Store{
		Profiles: b,
		Regions:  b,
		Requests: b,
		Matches:  b,
		Messages: b,
		Reviews:  b,
	}, b
}

// SetClock replaces the timestamp source.
func (b *Backend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// FailNext arms a one-shot failure for the named operation, e.g. "ListReviewsFor".
func (b *Backend) FailNext(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext[op] = err
}

func (b *Backend) injected(op string) error {
	if err, ok := b.failNext[op]; ok {
		delete(b.failNext, op)
		return errors.Wrap(err, errors.ErrCodeInternalError, "injected failure: "+op)
	}
	return nil
}

func (b *Backend) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return b.now()
	}
	return t
}

// Profiles

func (b *Backend) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.injected("GetProfile"); err != nil {
		return nil, err
	}
	p, ok := b.profiles[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "profile not found")
	}
	return b.profileWithRegion(p), nil
}

func (b *Backend) profileWithRegion(p models.Profile) *models.Profile {
	if p.RegionID != nil {
		if r, ok := b.regions[*p.RegionID]; ok {
			p.Region = &r
		}
	}
	return &p
}

func (b *Backend) FindProfileByProvider(ctx context.Context, provider, providerUserID string) (*models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.profiles {
		if p.Provider == provider && p.ProviderUserID == providerUserID {
			return b.profileWithRegion(p), nil
		}
	}
	return nil, nil
}

func (b *Backend) CreateProfile(ctx context.Context, profile *models.Profile) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := profile.BeforeCreate(nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid profile")
	}
	if err := profile.BeforeSave(nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid profile")
	}
	if _, exists := b.profiles[profile.ID]; exists {
		return errors.New(errors.ErrCodeAlreadyExists, "profile already exists")
	}
	for _, p := range b.profiles {
		if p.Provider == profile.Provider && p.ProviderUserID == profile.ProviderUserID {
			return errors.New(errors.ErrCodeAlreadyExists, "profile already exists")
		}
	}

	now := b.now()
	profile.CreatedAt = b.stamp(profile.CreatedAt)
	profile.UpdatedAt = now
	stored := *profile
	stored.Region = nil
	b.profiles[profile.ID] = stored
	return nil
}

func (b *Backend) UpdateProfile(ctx context.Context, id string, update repositories.ProfileUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.profiles[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "profile not found")
	}
	if update.Nickname != nil {
		p.Nickname = *update.Nickname
	}
	if update.SkillLevel != nil {
		level := *update.SkillLevel
		p.SkillLevel = &level
	}
	if update.AvatarURL != nil {
		p.AvatarURL = *update.AvatarURL
	}
	if update.Available != nil {
		p.Available = *update.Available
	}
	if update.RegionID != nil {
		region := *update.RegionID
		p.RegionID = &region
	}
	p.UpdatedAt = b.now()
	b.profiles[id] = p
	return nil
}

// Regions

func (b *Backend) GetRegion(ctx context.Context, id string) (*models.Region, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.regions[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "region not found")
	}
	return &r, nil
}

func (b *Backend) GetRegionBySlug(ctx context.Context, slug string) (*models.Region, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, r := range b.regions {
		if r.Slug == slug {
			r := r
			return &r, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "region not found")
}

func (b *Backend) EnsureRegion(ctx context.Context, name string) (*models.Region, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	slug := models.RegionSlug(name)
	if slug == "" {
		return nil, errors.New(errors.ErrCodeValidation, "region name has no usable slug")
	}
	for _, r := range b.regions {
		if r.Slug == slug {
			r := r
			return &r, nil
		}
	}

	region := models.Region{Name: name, Slug: slug}
	if err := region.BeforeCreate(nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid region")
	}
	region.CreatedAt = b.now()
	b.regions[region.ID] = region
	return &region, nil
}

// Match requests

func (b *Backend) CreateRequest(ctx context.Context, req *models.MatchRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.injected("CreateRequest"); err != nil {
		return err
	}
	if err := req.BeforeCreate(nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid match request")
	}
	if err := req.BeforeSave(nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid match request")
	}

	req.CreatedAt = b.stamp(req.CreatedAt)
	req.UpdatedAt = req.CreatedAt
	stored := *req
	stored.Owner = nil
	b.requests[req.ID] = stored
	return nil
}

func (b *Backend) GetRequest(ctx context.Context, id string) (*models.MatchRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	req, ok := b.requests[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "match request not found")
	}
	if owner, ok := b.profiles[req.UserID]; ok {
		req.Owner = &owner
	}
	return &req, nil
}

func (b *Backend) ListWaiting(ctx context.Context, regionID string) ([]models.MatchRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.injected("ListWaiting"); err != nil {
		return nil, err
	}

	var out []models.MatchRequest
	for _, req := range b.requests {
		if req.Status != models.RequestStatusWaiting {
			continue
		}
		if regionID != "" && req.RegionID != regionID {
			continue
		}
		owner, ok := b.profiles[req.UserID]
		if !ok || !owner.Available {
			continue
		}
		req.Owner = &owner
		out = append(out, req)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (b *Backend) TransitionRequest(ctx context.Context, id, from, to string) (repositories.Outcome, error) {
	if !models.IsValidRequestStatus(from) || !models.IsValidRequestStatus(to) {
		return repositories.OutcomeConflict, errors.New(errors.ErrCodeValidation, "unknown request status")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	req, ok := b.requests[id]
	if !ok {
		return repositories.OutcomeNotFound, nil
	}
	if req.Status != from {
		return repositories.OutcomeConflict, nil
	}
	req.Status = to
	req.UpdatedAt = b.now()
	b.requests[id] = req
	return repositories.OutcomeApplied, nil
}

// Matches

func (b *Backend) AcceptRequest(ctx context.Context, requestID, acceptorID, opening string) (*models.Match, *models.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.injected("AcceptRequest"); err != nil {
		return nil, nil, err
	}

	req, ok := b.requests[requestID]
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeNotFound, "match request not found")
	}
	if req.UserID == acceptorID {
		return nil, nil, errors.New(errors.ErrCodeValidation, "cannot accept your own request")
	}
	switch req.Status {
	case models.RequestStatusWaiting:
	case models.RequestStatusMatched:
		return nil, nil, errors.New(errors.ErrCodeAlreadyTaken, "match request already taken")
	default:
		return nil, nil, errors.New(errors.ErrCodeConflict, "match request is no longer open")
	}

	match := models.Match{RegionID: req.RegionID, MatchType: req.MatchType, Status: models.MatchStatusActive}
	participants := []models.MatchParticipant{
		{UserID: req.UserID, Team: models.TeamA},
		{UserID: acceptorID, Team: models.TeamB},
	}
	msg := &models.Message{UserID: acceptorID, Content: opening}

	if err := b.insertMatch(&match, participants, msg); err != nil {
		return nil, nil, err
	}

	req.Status = models.RequestStatusMatched
	req.UpdatedAt = b.now()
	b.requests[requestID] = req

	return b.loadMatch(match.ID), msg, nil
}

func (b *Backend) CreateMatch(ctx context.Context, match *models.Match, participants []models.MatchParticipant, first *models.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.insertMatch(match, participants, first); err != nil {
		return err
	}
	match.Participants = b.loadMatch(match.ID).Participants
	return nil
}

// insertMatch validates everything before writing anything.
func (b *Backend) insertMatch(match *models.Match, participants []models.MatchParticipant, first *models.Message) error {
	if err := match.BeforeCreate(nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid match")
	}
	if err := match.BeforeSave(nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid match")
	}

	seen := make(map[string]bool, len(participants))
	for i := range participants {
		if seen[participants[i].UserID] {
			return errors.New(errors.ErrCodeValidation, "user already in match")
		}
		seen[participants[i].UserID] = true
		participants[i].MatchID = match.ID
		if err := participants[i].BeforeCreate(nil); err != nil {
			return errors.Wrap(err, errors.ErrCodeValidation, "invalid participant")
		}
	}
	if first != nil {
		first.MatchID = match.ID
		if err := first.BeforeCreate(nil); err != nil {
			return errors.Wrap(err, errors.ErrCodeValidation, "message content is empty")
		}
	}

	match.CreatedAt = b.stamp(match.CreatedAt)
	match.UpdatedAt = match.CreatedAt
	stored := *match
	stored.Participants = nil
	b.matches[match.ID] = stored

	for i := range participants {
		participants[i].CreatedAt = match.CreatedAt
		p := participants[i]
		p.Match, p.Profile = nil, nil
		b.participants = append(b.participants, p)
	}
	if first != nil {
		first.CreatedAt = b.stamp(first.CreatedAt)
		b.messages = append(b.messages, *first)
	}
	return nil
}

func (b *Backend) loadMatch(id string) *models.Match {
	m, ok := b.matches[id]
	if !ok {
		return nil
	}
	m.Participants = nil
	for _, p := range b.participants {
		if p.MatchID != id {
			continue
		}
		if profile, ok := b.profiles[p.UserID]; ok {
			p.Profile = &profile
		}
		m.Participants = append(m.Participants, p)
	}
	sort.SliceStable(m.Participants, func(i, j int) bool {
		return m.Participants[i].Team < m.Participants[j].Team
	})
	return &m
}

func (b *Backend) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.injected("GetMatch"); err != nil {
		return nil, err
	}
	m := b.loadMatch(id)
	if m == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "match not found")
	}
	return m, nil
}

func (b *Backend) TransitionMatch(ctx context.Context, id, from, to string) (repositories.Outcome, error) {
	if !models.IsValidMatchStatus(from) || !models.IsValidMatchStatus(to) {
		return repositories.OutcomeConflict, errors.New(errors.ErrCodeValidation, "unknown match status")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.matches[id]
	if !ok {
		return repositories.OutcomeNotFound, nil
	}
	if m.Status != from {
		return repositories.OutcomeConflict, nil
	}
	m.Status = to
	m.UpdatedAt = b.now()
	b.matches[id] = m
	return repositories.OutcomeApplied, nil
}

func (b *Backend) ListParticipations(ctx context.Context, userID string) ([]models.MatchParticipant, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.injected("ListParticipations"); err != nil {
		return nil, err
	}

	var out []models.MatchParticipant
	for _, p := range b.participants {
		if p.UserID != userID {
			continue
		}
		if m, ok := b.matches[p.MatchID]; ok {
			p.Match = &m
		}
		out = append(out, p)
	}
	repositories.SortParticipationsNewestFirst(out)
	return out, nil
}

func (b *Backend) ListMatches(ctx context.Context, ids []string, limit int) ([]models.Match, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var out []models.Match
	for id := range b.matches {
		if len(ids) > 0 && !want[id] {
			continue
		}
		out = append(out, *b.loadMatch(id))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Messages

func (b *Backend) CreateMessage(ctx context.Context, msg *models.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.injected("CreateMessage"); err != nil {
		return err
	}
	if err := msg.BeforeCreate(nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "message content is empty")
	}
	msg.CreatedAt = b.stamp(msg.CreatedAt)
	b.messages = append(b.messages, *msg)
	return nil
}

func (b *Backend) ListMessages(ctx context.Context, matchID string) ([]models.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.injected("ListMessages"); err != nil {
		return nil, err
	}

	var out []models.Message
	for _, m := range b.messages {
		if m.MatchID == matchID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(&out[j]) })
	return out, nil
}

func (b *Backend) CountMessages(ctx context.Context, matchIDs []string) (map[string]int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := make(map[string]int64, len(matchIDs))
	want := make(map[string]bool, len(matchIDs))
	for _, id := range matchIDs {
		want[id] = true
	}
	for _, m := range b.messages {
		if want[m.MatchID] {
			counts[m.MatchID]++
		}
	}
	return counts, nil
}

// Reviews

func (b *Backend) CreateReview(ctx context.Context, review *models.UserReview) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := review.BeforeCreate(nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid review")
	}
	if err := review.BeforeSave(nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid review")
	}
	if b.reviewExists(review.ReviewerID, review.ReviewedID, review.MatchID) {
		return errors.New(errors.ErrCodeAlreadyExists, "review already submitted")
	}

	review.CreatedAt = b.stamp(review.CreatedAt)
	b.reviews = append(b.reviews, *review)
	return nil
}

func (b *Backend) reviewExists(reviewerID, reviewedID, matchID string) bool {
	for _, r := range b.reviews {
		if r.ReviewerID == reviewerID && r.ReviewedID == reviewedID && r.MatchID == matchID {
			return true
		}
	}
	return false
}

func (b *Backend) ReviewExists(ctx context.Context, reviewerID, reviewedID, matchID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.reviewExists(reviewerID, reviewedID, matchID), nil
}

func (b *Backend) ListReviewsFor(ctx context.Context, reviewedID string) ([]models.UserReview, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.injected("ListReviewsFor"); err != nil {
		return nil, err
	}

	var out []models.UserReview
	for _, r := range b.reviews {
		if r.ReviewedID == reviewedID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
