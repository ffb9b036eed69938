package memory

import (
	"context"
	"testing"
	"time"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/internal/repositories"
	"github.com/sbpickleball/match_app/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProfile(t *testing.T, b *Backend, id string, available bool) {
	t.Helper()
	require.NoError(t, b.CreateProfile(context.Background(), &models.Profile{
		ID: id, Provider: "dev", ProviderUserID: id, Nickname: id, Available: available,
	}))
}

func TestBackend_ListWaitingHidesUnavailableOwners(t *testing.T) {
	ctx := context.Background()
	b := New()
	seedProfile(t, b, "alice", true)
	seedProfile(t, b, "bob", false)

	require.NoError(t, b.CreateRequest(ctx, &models.MatchRequest{UserID: "alice", RegionID: "r", MatchType: models.MatchTypeSingles}))
	require.NoError(t, b.CreateRequest(ctx, &models.MatchRequest{UserID: "bob", RegionID: "r", MatchType: models.MatchTypeSingles}))

	reqs, err := b.ListWaiting(ctx, "r")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "alice", reqs[0].UserID)
	require.NotNil(t, reqs[0].Owner)
}

func TestBackend_CreateMatchRejectsDuplicateParticipant(t *testing.T) {
	b := New()

	err := b.CreateMatch(context.Background(),
		&models.Match{RegionID: "r", MatchType: models.MatchTypeSingles},
		[]models.MatchParticipant{{UserID: "a", Team: models.TeamA}, {UserID: "a", Team: models.TeamB}},
		nil,
	)

	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
	matches, _ := b.ListMatches(context.Background(), nil, 0)
	assert.Empty(t, matches)
}

func TestBackend_CreateMatchValidatesBeforeWriting(t *testing.T) {
	ctx := context.Background()
	b := New()
	participants := func() []models.MatchParticipant {
		return []models.MatchParticipant{{UserID: "a", Team: models.TeamA}, {UserID: "b", Team: models.TeamB}}
	}

	err := b.CreateMatch(ctx, &models.Match{RegionID: "r", MatchType: models.MatchTypeSingles}, participants(), &models.Message{UserID: "a"})
	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
	matches, _ := b.ListMatches(ctx, nil, 0)
	assert.Empty(t, matches)

	match := &models.Match{RegionID: "r", MatchType: models.MatchTypeSingles}
	require.NoError(t, b.CreateMatch(ctx, match, participants(), &models.Message{UserID: "a", Content: "안녕하세요"}))
	require.Len(t, match.Participants, 2)
	for _, p := range match.Participants {
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, match.ID, p.MatchID)
	}
}

func TestBackend_ReviewUniqueness(t *testing.T) {
	ctx := context.Background()
	b := New()
	review := func() *models.UserReview {
		return &models.UserReview{ReviewerID: "a", ReviewedID: "b", MatchID: "m", TeamworkScore: 5, LanguageScore: 5, RuleScore: 5, PunctualityScore: 5}
	}

	require.NoError(t, b.CreateReview(ctx, review()))
	err := b.CreateReview(ctx, review())

	assert.Equal(t, errors.ErrCodeAlreadyExists, errors.CodeOf(err))
}

func TestBackend_TransitionOutcomes(t *testing.T) {
	ctx := context.Background()
	b := New()
	req := &models.MatchRequest{UserID: "a", RegionID: "r", MatchType: models.MatchTypeDoubles}
	require.NoError(t, b.CreateRequest(ctx, req))

	got, err := b.TransitionRequest(ctx, req.ID, models.RequestStatusWaiting, models.RequestStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, repositories.OutcomeApplied, got)

	got, _ = b.TransitionRequest(ctx, req.ID, models.RequestStatusWaiting, models.RequestStatusMatched)
	assert.Equal(t, repositories.OutcomeConflict, got)

	got, _ = b.TransitionRequest(ctx, "missing", models.RequestStatusWaiting, models.RequestStatusMatched)
	assert.Equal(t, repositories.OutcomeNotFound, got)

	_, err = b.TransitionRequest(ctx, req.ID, models.RequestStatusCancelled, "done")
	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
}

func TestBackend_ListMessagesOrdersByTimeThenID(t *testing.T) {
	ctx := context.Background()
	b := New()
	t0 := time.Date(2026, 10, 16, 19, 0, 0, 0, time.UTC)

	for _, m := range []models.Message{
		{ID: "c", MatchID: "m", UserID: "u", Content: "3", CreatedAt: t0.Add(2 * time.Second)},
		{ID: "b", MatchID: "m", UserID: "u", Content: "2", CreatedAt: t0},
		{ID: "a", MatchID: "m", UserID: "u", Content: "1", CreatedAt: t0},
	} {
		m := m
		require.NoError(t, b.CreateMessage(ctx, &m))
	}

	msgs, err := b.ListMessages(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}

func TestBackend_FailNextIsOneShot(t *testing.T) {
	b := New()
	b.FailNext("ListReviewsFor", assert.AnError)

	_, err := b.ListReviewsFor(context.Background(), "x")
	assert.Error(t, err)

	_, err = b.ListReviewsFor(context.Background(), "x")
	assert.NoError(t, err)
}
