package services

import (
	"context"
	"sort"
	"time"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/internal/repositories"
	"github.com/sbpickleball/match_app/pkg/logger"
)

type BadgeID string

const (
	BadgeNoNoShow     BadgeID = "no_noshow"
	BadgeActive30     BadgeID = "active_30"
	BadgeActiveRecent BadgeID = "active_recent"
	BadgeMannerKing   BadgeID = "manner_king"
)

type BadgeDefinition struct {
	ID    BadgeID `json:"id"`
	Label string  `json:"label"`
	Icon  string  `json:"icon"`
}

// BadgeDefinitions is the display metadata, in display order.
var BadgeDefinitions = []BadgeDefinition{
	{ID: BadgeNoNoShow, Label: "노쇼 없음 6개월", Icon: "✅"},
	{ID: BadgeActive30, Label: "30경기 이상", Icon: "🏅"},
	{ID: BadgeActiveRecent, Label: "최근 활동중", Icon: "🔥"},
	{ID: BadgeMannerKing, Label: "매너왕", Icon: "👑"},
}

const (
	active30Threshold      = 30
	activeRecentThreshold  = 5
	activeRecentMonths     = 3
	mannerKingMinSamples   = 5
	mannerKingMinAverage   = 4.7
	recentReviewsLimit     = 3
	scoreComparisonEpsilon = 1e-9
)

type ActivityStats struct {
	TotalGames        int        `json:"total_games"`
	RecentMonthsGames int        `json:"recent_months_games"`
	ActiveTeamCount   int        `json:"active_team_count"`
	LastMatchDate     *time.Time `json:"last_match_date"`
}

// MannerStats holds per-category means. 0 means no data and renders as "—".
type MannerStats struct {
	Teamwork    float64 `json:"teamwork"`
	Language    float64 `json:"language"`
	Rule        float64 `json:"rule"`
	Punctuality float64 `json:"punctuality"`
	SampleCount int     `json:"sample_count"`
}

// Overall is the mean of the categories that have data.
func (m MannerStats) Overall() float64 {
	return averageNonZero([]float64{m.Teamwork, m.Language, m.Rule, m.Punctuality})
}

type ReliabilityStats struct {
	NoShowCount6m        int `json:"no_show_count_6m"`
	SameDayCancelCount6m int `json:"same_day_cancel_count_6m"`
	LateCount6m          int `json:"late_count_6m"`
}

type ReviewSummary struct {
	ID        string    `json:"id"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type Snapshot struct {
	SkillLevel    *string          `json:"skill_level"`
	Reliability   ReliabilityStats `json:"reliability"`
	Activity      ActivityStats    `json:"activity"`
	Manner        MannerStats      `json:"manner"`
	Overall       float64          `json:"overall"`
	RecentReviews []ReviewSummary  `json:"recent_reviews"`
	Badges        []BadgeID        `json:"badges"`
}

// SnapshotInput is everything the computation reads. Participations must have Match loaded.
type SnapshotInput struct {
	Profile        *models.Profile
	Participations []models.MatchParticipant
	Reviews        []models.UserReview
}

// reliabilityStub has no source columns yet; the zeros are part of the displayed contract.
func reliabilityStub() ReliabilityStats {
	return ReliabilityStats{}
}

// ComputeSnapshot is a pure function of its input and the clock.
func ComputeSnapshot(in SnapshotInput, now time.Time) Snapshot {
	var snap Snapshot
	if in.Profile != nil {
		snap.SkillLevel = in.Profile.SkillLevel
	}
	snap.Reliability = reliabilityStub()

	windowStart := now.AddDate(0, -activeRecentMonths, 0)
	activeTeams := make(map[string]struct{})

	for _, p := range in.Participations {
		if p.Match == nil {
			continue
		}
		switch p.Match.Status {
		case models.MatchStatusCompleted:
			snap.Activity.TotalGames++
			created := p.Match.CreatedAt
			if created.After(windowStart) {
				snap.Activity.RecentMonthsGames++
			}
			if snap.Activity.LastMatchDate == nil || created.After(*snap.Activity.LastMatchDate) {
				last := created
				snap.Activity.LastMatchDate = &last
			}
		case models.MatchStatusActive:
			if p.Team != "" {
				activeTeams[p.Team] = struct{}{}
			}
		}
	}
	snap.Activity.ActiveTeamCount = len(activeTeams)

	var teamwork, language, rule, punctuality []float64
	for _, r := range in.Reviews {
		teamwork = append(teamwork, float64(r.TeamworkScore))
		language = append(language, float64(r.LanguageScore))
		rule = append(rule, float64(r.RuleScore))
		punctuality = append(punctuality, float64(r.PunctualityScore))
	}
	snap.Manner = MannerStats{
		Teamwork:    averageNonZero(teamwork),
		Language:    averageNonZero(language),
		Rule:        averageNonZero(rule),
		Punctuality: averageNonZero(punctuality),
		SampleCount: len(in.Reviews),
	}
	snap.Overall = snap.Manner.Overall()

	snap.RecentReviews = recentReviews(in.Reviews)
	snap.Badges = DeriveBadges(snap)
	return snap
}

// DeriveBadges recomputes badges from a snapshot. Never stored.
func DeriveBadges(s Snapshot) []BadgeID {
	badges := []BadgeID{}
	if s.Activity.TotalGames > 0 && s.Reliability.NoShowCount6m == 0 {
		badges = append(badges, BadgeNoNoShow)
	}
	if s.Activity.TotalGames >= active30Threshold {
		badges = append(badges, BadgeActive30)
	}
	if s.Activity.RecentMonthsGames >= activeRecentThreshold {
		badges = append(badges, BadgeActiveRecent)
	}
	if s.Manner.SampleCount >= mannerKingMinSamples && s.Manner.Overall()+scoreComparisonEpsilon >= mannerKingMinAverage {
		badges = append(badges, BadgeMannerKing)
	}
	return badges
}

// BadgeDetails resolves ids to their display metadata, keeping display order.
func BadgeDetails(ids []BadgeID) []BadgeDefinition {
	out := []BadgeDefinition{}
	for _, def := range BadgeDefinitions {
		for _, id := range ids {
			if id == def.ID {
				out = append(out, def)
				break
			}
		}
	}
	return out
}

// HasBadge reports whether id is among the snapshot's badges.
func (s Snapshot) HasBadge(id BadgeID) bool {
	for _, b := range s.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// recentReviews keeps commented reviews, newest first, at most three.
func recentReviews(reviews []models.UserReview) []ReviewSummary {
	sorted := make([]models.UserReview, 0, len(reviews))
	for _, r := range reviews {
		if r.Comment != "" {
			sorted = append(sorted, r)
		}
	}
	sortReviewsNewestFirst(sorted)

	out := []ReviewSummary{}
	for _, r := range sorted {
		if len(out) == recentReviewsLimit {
			break
		}
		out = append(out, ReviewSummary{ID: r.ID, Comment: r.Comment, CreatedAt: r.CreatedAt})
	}
	return out
}

func sortReviewsNewestFirst(reviews []models.UserReview) {
	sort.SliceStable(reviews, func(i, j int) bool {
		if !reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
		}
		return reviews[i].ID > reviews[j].ID
	})
}

// averageNonZero treats zero as missing. No values yields 0.
func averageNonZero(values []float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v != 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

type TrustService struct {
	profiles repositories.ProfileStore
	matches  repositories.MatchStore
	reviews  repositories.ReviewStore
	now      func() time.Time
}

func NewTrustService(store *repositories.Store) *TrustService {
	return &TrustService{
		profiles: store.Profiles,
		matches:  store.Matches,
		reviews:  store.Reviews,
		now:      time.Now,
	}
}

// GetSnapshot fetches the inputs and computes the snapshot. If any fetch fails
// the second result is false and no snapshot is returned.
func (s *TrustService) GetSnapshot(ctx context.Context, userID string) (*Snapshot, bool) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		logger.Warn("trust snapshot unavailable: profile", "user_id", userID, "error", err)
		return nil, false
	}

	participations, err := s.matches.ListParticipations(ctx, userID)
	if err != nil {
		logger.Warn("trust snapshot unavailable: participations", "user_id", userID, "error", err)
		return nil, false
	}

	reviews, err := s.reviews.ListReviewsFor(ctx, userID)
	if err != nil {
		logger.Warn("trust snapshot unavailable: reviews", "user_id", userID, "error", err)
		return nil, false
	}

	snap := ComputeSnapshot(SnapshotInput{
		Profile:        profile,
		Participations: participations,
		Reviews:        reviews,
	}, s.now())
	return &snap, true
}
