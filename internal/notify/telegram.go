package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/pkg/logger"
)

const maxRetries = 3

// sender is the part of *tgbotapi.BotAPI the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts match events to an operator chat. Sends run in the
// background so a slow Telegram API never delays a user request.
type TelegramNotifier struct {
	api     sender
	chatID  int64
	backoff time.Duration
	wg      sync.WaitGroup
}

func NewTelegramNotifier(token string, chatID int64, debug bool) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	api.Debug = debug

	logger.Info("Telegram notifier authorized", "username", api.Self.UserName)
	return newTelegramNotifier(api, chatID), nil
}

func newTelegramNotifier(api sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID, backoff: time.Second}
}

func (n *TelegramNotifier) MatchCreated(ctx context.Context, match *models.Match, source string) {
	text := FormatMatchCreated(match, source)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.send(text)
	}()
}

// Wait blocks until queued notifications are sent or given up.
func (n *TelegramNotifier) Wait() {
	n.wg.Wait()
}

func (n *TelegramNotifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	for i := 0; i < maxRetries; i++ {
		if _, err := n.api.Send(msg); err != nil {
			logger.Error("Failed to send telegram notification", "error", err, "chat_id", n.chatID, "attempt", i+1)
			time.Sleep(n.backoff * time.Duration(i+1))
			continue
		}
		return
	}
}

// FormatMatchCreated renders the operator message for a new match.
func FormatMatchCreated(match *models.Match, source string) string {
	var b strings.Builder

	title := "🏓 새 매칭이 성사됐어요"
	if source == "admin" {
		title = "🧪 테스트 매칭이 생성됐어요"
	}
	b.WriteString("<b>" + title + "</b>\n")
	fmt.Fprintf(&b, "방식: %s\n", html.EscapeString(match.MatchType))

	for _, p := range match.Participants {
		name := p.UserID
		if p.Profile != nil && p.Profile.Nickname != "" {
			name = p.Profile.Nickname
		}
		fmt.Fprintf(&b, "팀 %s: %s\n", p.Team, html.EscapeString(name))
	}
	fmt.Fprintf(&b, "<code>%s</code>", match.ID)
	return b.String()
}
