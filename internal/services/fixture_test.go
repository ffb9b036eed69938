package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/internal/realtime"
	"github.com/sbpickleball/match_app/internal/repositories"
	"github.com/sbpickleball/match_app/internal/repositories/memory"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *repositories.Store
	backend  *memory.Backend
	hub      *realtime.Hub
	regions  *RegionResolver
	matches  *MatchService
	chat     *ChatService
	reviews  *ReviewService
	trust    *TrustService
	profiles *ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, backend := memory.NewStore()
	// Strictly increasing timestamps keep ordering independent of random ids.
	clock := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	backend.SetClock(func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	})
	hub := realtime.NewHub(16)
	regions := NewRegionResolver(store.Regions, "Jeonju")

	return &fixture{
		store:    store,
		backend:  backend,
		hub:      hub,
		regions:  regions,
		matches:  NewMatchService(store, regions, hub, nil, ""),
		chat:     NewChatService(store, hub, hub),
		reviews:  NewReviewService(store),
		trust:    NewTrustService(store),
		profiles: NewProfileService(store, regions, nil, 1024),
	}
}

func (f *fixture) addProfile(t *testing.T, id string) *models.Profile {
	t.Helper()

	skill := models.SkillIntermediate
	p := &models.Profile{
		ID:             id,
		Provider:       "dev",
		ProviderUserID: id,
		Nickname:       id,
		SkillLevel:     &skill,
		Available:      true,
	}
	require.NoError(t, f.store.Profiles.CreateProfile(context.Background(), p))
	return p
}

// activeMatch builds an accepted 1v1 between owner and acceptor.
func (f *fixture) activeMatch(t *testing.T, owner, acceptor string) *models.Match {
	t.Helper()
	ctx := context.Background()

	req, err := f.matches.SubmitRequest(ctx, owner, SubmitRequestInput{MatchType: models.MatchTypeSingles})
	require.NoError(t, err)
	match, err := f.matches.AcceptRequest(ctx, req.ID, acceptor)
	require.NoError(t, err)
	return match
}

func (f *fixture) completedMatch(t *testing.T, owner, acceptor string) *models.Match {
	t.Helper()

	match := f.activeMatch(t, owner, acceptor)
	_, err := f.matches.CompleteMatch(context.Background(), match.ID)
	require.NoError(t, err)
	return match
}

func strPtr(s string) *string {
	return &s
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []models.Message
}

func (p *recordingPublisher) Publish(ctx context.Context, msg models.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
}
