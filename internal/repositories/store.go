package repositories

import (
	"context"
	"time"

	"github.com/sbpickleball/match_app/internal/models"
	"gorm.io/gorm"
)

// Outcome is the result of a conditional status update.
type Outcome int

const (
	// OutcomeApplied: the row was in the expected state and moved.
	OutcomeApplied Outcome = iota
	// OutcomeConflict: the row exists but was not in the expected state.
	OutcomeConflict
	// OutcomeNotFound: no row with that id.
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeConflict:
		return "conflict"
	case OutcomeNotFound:
		return "not_found"
	}
	return "unknown"
}

// ProfileUpdate carries owner-editable fields. Nil fields are left alone.
type ProfileUpdate struct {
	Nickname   *string
	SkillLevel *string
	AvatarURL  *string
	Available  *bool
	RegionID   *string
}

// IsEmpty reports whether the update would change nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Nickname == nil && u.SkillLevel == nil && u.AvatarURL == nil && u.Available == nil && u.RegionID == nil
}

func (u ProfileUpdate) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Nickname != nil {
		cols["nickname"] = *u.Nickname
	}
	if u.SkillLevel != nil {
		cols["skill_level"] = *u.SkillLevel
	}
	if u.AvatarURL != nil {
		cols["avatar_url"] = *u.AvatarURL
	}
	if u.Available != nil {
		cols["available"] = *u.Available
	}
	if u.RegionID != nil {
		cols["region_id"] = *u.RegionID
	}
	cols["updated_at"] = time.Now().UTC()
	return cols
}

type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	// FindProfileByProvider returns nil, nil when no profile is linked to the identity.
	FindProfileByProvider(ctx context.Context, provider, providerUserID string) (*models.Profile, error)
	CreateProfile(ctx context.Context, profile *models.Profile) error
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error
}

type RegionStore interface {
	GetRegion(ctx context.Context, id string) (*models.Region, error)
	GetRegionBySlug(ctx context.Context, slug string) (*models.Region, error)
	// EnsureRegion returns the region with the name's slug, creating it if needed.
	EnsureRegion(ctx context.Context, name string) (*models.Region, error)
}

type RequestStore interface {
	CreateRequest(ctx context.Context, req *models.MatchRequest) error
	GetRequest(ctx context.Context, id string) (*models.MatchRequest, error)
	// ListWaiting returns waiting requests of available owners, newest first, with Owner loaded.
	// An empty regionID lists every region.
	ListWaiting(ctx context.Context, regionID string) ([]models.MatchRequest, error)
	TransitionRequest(ctx context.Context, id, from, to string) (Outcome, error)
}

type MatchStore interface {
	// AcceptRequest turns a waiting request into an active match with two
	// participants and an opening message, all or nothing. Fails with
	// ErrCodeAlreadyTaken when the request left waiting first.
	AcceptRequest(ctx context.Context, requestID, acceptorID, opening string) (*models.Match, *models.Message, error)
	// CreateMatch inserts a match, its participants and an optional first message in one transaction.
	CreateMatch(ctx context.Context, match *models.Match, participants []models.MatchParticipant, first *models.Message) error
	// GetMatch loads a match with its participants.
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	TransitionMatch(ctx context.Context, id, from, to string) (Outcome, error)
	// ListParticipations returns the user's participant rows with Match loaded, newest match first.
	ListParticipations(ctx context.Context, userID string) ([]models.MatchParticipant, error)
	// ListMatches returns matches with participants and their profiles, newest first.
	// Empty ids lists the latest matches up to limit.
	ListMatches(ctx context.Context, ids []string, limit int) ([]models.Match, error)
}

type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	// ListMessages returns the match's messages ordered by (created_at, id).
	ListMessages(ctx context.Context, matchID string) ([]models.Message, error)
	CountMessages(ctx context.Context, matchIDs []string) (map[string]int64, error)
}

type ReviewStore interface {
	// CreateReview fails with ErrCodeAlreadyExists on a repeated (reviewer, reviewed, match).
	CreateReview(ctx context.Context, review *models.UserReview) error
	ReviewExists(ctx context.Context, reviewerID, reviewedID, matchID string) (bool, error)
	// ListReviewsFor returns reviews about the user, newest first.
	ListReviewsFor(ctx context.Context, reviewedID string) ([]models.UserReview, error)
}

// Store bundles the data backend capabilities handed to services.
type Store struct {
	Profiles ProfileStore
	Regions  RegionStore
	Requests RequestStore
	Matches  MatchStore
	Messages MessageStore
	Reviews  ReviewStore
}

// NewStore wires the GORM repositories into a Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		Profiles: NewProfileRepository(db),
		Regions:  NewRegionRepository(db),
		Requests: NewMatchRequestRepository(db),
		Matches:  NewMatchRepository(db),
		Messages: NewMessageRepository(db),
		Reviews:  NewReviewRepository(db),
	}
}
