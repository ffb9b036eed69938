package notify

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sbpickleball/match_app/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	failures int
	sent     []tgbotapi.MessageConfig
	calls    int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.failures > 0 {
		f.failures--
		return tgbotapi.Message{}, stderrors.New("bad gateway")
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func testMatch() *models.Match {
	return &models.Match{
		ID:        "m-1",
		MatchType: models.MatchTypeSingles,
		Participants: []models.MatchParticipant{
			{UserID: "u1", Team: models.TeamA, Profile: &models.Profile{Nickname: "<앨리스>"}},
			{UserID: "u2", Team: models.TeamB},
		},
	}
}

func TestFormatMatchCreated(t *testing.T) {
	text := FormatMatchCreated(testMatch(), "accept")

	assert.Contains(t, text, "새 매칭")
	assert.Contains(t, text, "팀 A: &lt;앨리스&gt;")
	assert.Contains(t, text, "팀 B: u2")
	assert.Contains(t, text, "<code>m-1</code>")

	assert.Contains(t, FormatMatchCreated(testMatch(), "admin"), "테스트 매칭")
}

func TestTelegramNotifier_RetriesThenSends(t *testing.T) {
	api := &fakeSender{failures: 2}
	n := newTelegramNotifier(api, -100)
	n.backoff = 0

	n.MatchCreated(context.Background(), testMatch(), "accept")
	n.Wait()

	assert.Equal(t, 3, api.calls)
	require.Len(t, api.sent, 1)
	assert.Equal(t, int64(-100), api.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, api.sent[0].ParseMode)
}

func TestTelegramNotifier_GivesUp(t *testing.T) {
	api := &fakeSender{failures: 10}
	n := newTelegramNotifier(api, -100)
	n.backoff = 0

	n.MatchCreated(context.Background(), testMatch(), "accept")
	n.Wait()

	assert.Equal(t, maxRetries, api.calls)
	assert.Empty(t, api.sent)
}
