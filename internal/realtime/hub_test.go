package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, sub *Subscription) (models.Message, bool) {
	t.Helper()
	select {
	case m, ok := <-sub.C:
		return m, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return models.Message{}, false
	}
}

func TestHub_PublishReachesOnlyThatMatch(t *testing.T) {
	hub := NewHub(4)
	a := hub.Subscribe("m1")
	b := hub.Subscribe("m2")
	defer a.Close()
	defer b.Close()

	hub.Publish(context.Background(), models.Message{ID: "x", MatchID: "m1", Content: "hi"})

	got, ok := recv(t, a)
	require.True(t, ok)
	assert.Equal(t, "x", got.ID)

	select {
	case m := <-b.C:
		t.Fatalf("unexpected message on other match: %+v", m)
	default:
	}
}

func TestHub_CloseReleasesAndSweeps(t *testing.T) {
	hub := NewHub(4)
	sub := hub.Subscribe("m1")

	rooms, subs := hub.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, subs)

	sub.Close()
	sub.Close()

	_, ok := <-sub.C
	assert.False(t, ok)

	_, subs = hub.Stats()
	assert.Equal(t, 0, subs)
	assert.Equal(t, 1, hub.Sweep())

	rooms, _ = hub.Stats()
	assert.Equal(t, 0, rooms)
}

func TestHub_SlowSubscriberIsDropped(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe("m1")

	hub.Publish(context.Background(), models.Message{ID: "1", MatchID: "m1"})
	hub.Publish(context.Background(), models.Message{ID: "2", MatchID: "m1"})

	got, ok := recv(t, sub)
	require.True(t, ok)
	assert.Equal(t, "1", got.ID)

	_, ok = recv(t, sub)
	assert.False(t, ok, "channel should be closed after overflow")

	sub.Close()
}

func TestRedisBridge_HandleSkipsOwnOrigin(t *testing.T) {
	hub := NewHub(4)
	bridge := &RedisBridge{hub: hub, origin: "self"}
	sub := hub.Subscribe("m1")
	defer sub.Close()

	own, _ := json.Marshal(envelope{Origin: "self", Message: models.Message{ID: "own", MatchID: "m1"}})
	other, _ := json.Marshal(envelope{Origin: "peer", Message: models.Message{ID: "peer", MatchID: "m1"}})

	bridge.handle(context.Background(), channelPrefix+"m1", string(own))
	bridge.handle(context.Background(), channelPrefix+"m1", "not json")
	bridge.handle(context.Background(), channelPrefix+"m1", string(other))

	got, ok := recv(t, sub)
	require.True(t, ok)
	assert.Equal(t, "peer", got.ID)
}
