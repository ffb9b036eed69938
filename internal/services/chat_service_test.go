package services

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contents(msgs []models.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}

func TestHistory_OrderedByTimestampNotInsertion(t *testing.T) {
	f := newFixture(t)
	f.addProfile(t, "alice")
	f.addProfile(t, "bob")
	match := f.activeMatch(t, "alice", "bob")
	ctx := context.Background()

	// The opening message is stamped now; history rows below are older.
	t1 := time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)
	for _, m := range []models.Message{
		{MatchID: match.ID, UserID: "alice", Content: "t3", CreatedAt: t1.Add(2 * time.Second)},
		{MatchID: match.ID, UserID: "bob", Content: "t1", CreatedAt: t1},
		{MatchID: match.ID, UserID: "alice", Content: "t2", CreatedAt: t1.Add(time.Second)},
	} {
		msg := m
		require.NoError(t, f.store.Messages.CreateMessage(ctx, &msg))
	}

	msgs, err := f.chat.History(ctx, match.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3", DefaultOpeningMessage}, contents(msgs))
}

func TestHistory_NonParticipantForbidden(t *testing.T) {
	f := newFixture(t)
	f.addProfile(t, "alice")
	f.addProfile(t, "bob")
	match := f.activeMatch(t, "alice", "bob")

	_, err := f.chat.History(context.Background(), match.ID, "mallory")
	assert.Equal(t, errors.ErrCodeForbidden, errors.CodeOf(err))
}

func TestFeed_LiveInsertAppendsWithoutDuplicates(t *testing.T) {
	t0 := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	m := func(id string, offset int) models.Message {
		return models.Message{ID: id, Content: id, CreatedAt: t0.Add(time.Duration(offset) * time.Second)}
	}

	feed := NewFeed([]models.Message{m("t2", 2), m("t1", 1), m("t3", 3)})
	assert.Equal(t, []string{"t1", "t2", "t3"}, contents(feed.Messages()))

	assert.True(t, feed.Add(m("t4", 4)))
	assert.False(t, feed.Add(m("t2", 2)))
	assert.False(t, feed.Add(m("t4", 4)))

	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, contents(feed.Messages()))
	assert.Equal(t, 4, feed.Len())
}

func TestFeed_TiesBrokenByID(t *testing.T) {
	same := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	feed := NewFeed(nil)
	feed.Add(models.Message{ID: "b", Content: "b", CreatedAt: same})
	feed.Add(models.Message{ID: "a", Content: "a", CreatedAt: same})
	feed.Add(models.Message{ID: "c", Content: "c", CreatedAt: same})

	assert.Equal(t, []string{"a", "b", "c"}, contents(feed.Messages()))
}

func TestFeed_After(t *testing.T) {
	t0 := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	feed := NewFeed([]models.Message{
		{ID: "1", Content: "1", CreatedAt: t0},
		{ID: "2", Content: "2", CreatedAt: t0.Add(time.Second)},
		{ID: "3", Content: "3", CreatedAt: t0.Add(2 * time.Second)},
	})

	assert.Equal(t, []string{"2", "3"}, contents(feed.After("1")))
	assert.Empty(t, feed.After("3"))
	assert.Len(t, feed.After(""), 3)
	assert.Len(t, feed.After("unknown"), 3)
}

func TestSend(t *testing.T) {
	f := newFixture(t)
	f.addProfile(t, "alice")
	f.addProfile(t, "bob")
	match := f.activeMatch(t, "alice", "bob")

	tests := []struct {
		name     string
		user     string
		content  string
		wantCode string
		want     string
	}{
		{name: "trimmed", user: "alice", content: "  토요일 10시 어때요?  ", want: "토요일 10시 어때요?"},
		{name: "markup stripped", user: "bob", content: "<script>x</script>좋아요", want: "좋아요"},
		{name: "blank", user: "alice", content: "   ", wantCode: errors.ErrCodeValidation},
		{name: "only markup", user: "alice", content: "<b></b>", wantCode: errors.ErrCodeValidation},
		{name: "not a participant", user: "mallory", content: "hi", wantCode: errors.ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := f.chat.Send(context.Background(), match.ID, tt.user, tt.content)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.CodeOf(err))

				var draft *DraftError
				require.True(t, stderrors.As(err, &draft))
				assert.Equal(t, tt.content, draft.Draft)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg.Content)
			assert.NotEmpty(t, msg.ID)
		})
	}
}

func TestSend_StoreFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	f.addProfile(t, "alice")
	f.addProfile(t, "bob")
	match := f.activeMatch(t, "alice", "bob")

	f.backend.FailNext("CreateMessage", stderrors.New("write timeout"))
	_, err := f.chat.Send(context.Background(), match.ID, "alice", "내일 봬요")

	var draft *DraftError
	require.True(t, stderrors.As(err, &draft))
	assert.Equal(t, "내일 봬요", draft.Draft)
	assert.Equal(t, errors.ErrCodeInternalError, errors.CodeOf(err))

	msgs, err := f.chat.History(context.Background(), match.ID, "alice")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestStream_BackfillThenLive(t *testing.T) {
	f := newFixture(t)
	f.addProfile(t, "alice")
	f.addProfile(t, "bob")
	match := f.activeMatch(t, "alice", "bob")

	first, err := f.chat.Send(context.Background(), match.ID, "alice", "첫번째")
	require.NoError(t, err)
	_, err = f.chat.Send(context.Background(), match.ID, "bob", "두번째")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitted := make(chan models.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- f.chat.Stream(ctx, match.ID, "bob", first.ID, func(m models.Message) error {
			emitted <- m
			return nil
		})
	}()

	next := func() models.Message {
		t.Helper()
		select {
		case m := <-emitted:
			return m
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for stream")
			return models.Message{}
		}
	}

	assert.Equal(t, "두번째", next().Content)

	live, err := f.chat.Send(context.Background(), match.ID, "alice", "세번째")
	require.NoError(t, err)
	assert.Equal(t, live.ID, next().ID)

	// A replay of an already rendered message is dropped.
	f.hub.Publish(context.Background(), *live)
	_, err = f.chat.Send(context.Background(), match.ID, "alice", "네번째")
	require.NoError(t, err)
	assert.Equal(t, "네번째", next().Content)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop")
	}

	_, subs := f.hub.Stats()
	assert.Zero(t, subs)
}

func TestStream_NonParticipantForbidden(t *testing.T) {
	f := newFixture(t)
	f.addProfile(t, "alice")
	f.addProfile(t, "bob")
	match := f.activeMatch(t, "alice", "bob")

	err := f.chat.Stream(context.Background(), match.ID, "mallory", "", func(models.Message) error { return nil })
	assert.Equal(t, errors.ErrCodeForbidden, errors.CodeOf(err))
}
