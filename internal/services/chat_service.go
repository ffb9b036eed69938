package services

import (
	"context"
	"fmt"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/internal/realtime"
	"github.com/sbpickleball/match_app/internal/repositories"
	"github.com/sbpickleball/match_app/internal/security"
	"github.com/sbpickleball/match_app/pkg/errors"
	"github.com/sbpickleball/match_app/pkg/logger"
	"github.com/sbpickleball/match_app/pkg/utils"
)

// Subscriber opens a live subscription for a match.
type Subscriber interface {
	Subscribe(matchID string) *realtime.Subscription
}

// DraftError is a failed send. Draft is what the user typed, handed back so
// the client can restore its input.
type DraftError struct {
	Draft string
	Err   error
}

func (e *DraftError) Error() string { return e.Err.Error() }

func (e *DraftError) Unwrap() error { return e.Err }

type ChatService struct {
	matches    repositories.MatchStore
	messages   repositories.MessageStore
	publisher  realtime.Publisher
	subscriber Subscriber
}

func NewChatService(store *repositories.Store, publisher realtime.Publisher, subscriber Subscriber) *ChatService {
	return &ChatService{
		matches:    store.Matches,
		messages:   store.Messages,
		publisher:  publisher,
		subscriber: subscriber,
	}
}

// authorize loads the match and checks the viewer takes part in it.
func (s *ChatService) authorize(ctx context.Context, matchID, userID string) (*models.Match, error) {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasParticipant(userID) {
		return nil, errors.New(errors.ErrCodeForbidden, "참가한 매칭의 채팅만 볼 수 있어요")
	}
	return match, nil
}

// CanView returns nil when viewerID may read the match's chat.
func (s *ChatService) CanView(ctx context.Context, matchID, viewerID string) error {
	_, err := s.authorize(ctx, matchID, viewerID)
	return err
}

// History returns every message of the match in (created_at, id) order.
func (s *ChatService) History(ctx context.Context, matchID, viewerID string) ([]models.Message, error) {
	if _, err := s.authorize(ctx, matchID, viewerID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListMessages(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return NewFeed(msgs).Messages(), nil
}

// Send appends a message. Any failure comes back as a *DraftError.
func (s *ChatService) Send(ctx context.Context, matchID, userID, content string) (*models.Message, error) {
	msg, err := s.send(ctx, matchID, userID, content)
	if err != nil {
		return nil, &DraftError{Draft: content, Err: err}
	}
	return msg, nil
}

func (s *ChatService) send(ctx context.Context, matchID, userID, content string) (*models.Message, error) {
	text := security.CleanText(content)
	if text == "" {
		return nil, errors.New(errors.ErrCodeValidation, "메시지를 입력해 주세요")
	}
	if utils.RuneLen(text) > models.MessageMaxLength {
		return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("메시지는 %d자 이내로 보내 주세요", models.MessageMaxLength))
	}

	if _, err := s.authorize(ctx, matchID, userID); err != nil {
		return nil, err
	}

	msg := &models.Message{MatchID: matchID, UserID: userID, Content: text}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		logger.Error("Failed to store chat message", "match_id", matchID, "user_id", userID, "error", err)
		return nil, err
	}

	s.publisher.Publish(ctx, *msg)
	return msg, nil
}

// Stream writes the messages after lastEventID and then every live insert
// until ctx ends or the subscription is dropped. Subscribing happens before
// the backfill fetch so an insert racing the fetch is not lost; the Feed
// discards whichever copy arrives second.
func (s *ChatService) Stream(ctx context.Context, matchID, viewerID, lastEventID string, emit func(models.Message) error) error {
	if _, err := s.authorize(ctx, matchID, viewerID); err != nil {
		return err
	}

	sub := s.subscriber.Subscribe(matchID)
	defer sub.Close()

	msgs, err := s.messages.ListMessages(ctx, matchID)
	if err != nil {
		return err
	}
	feed := NewFeed(msgs)
	for _, m := range feed.After(lastEventID) {
		if err := emit(m); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-sub.C:
			if !ok {
				return nil
			}
			if !feed.Add(m) {
				continue
			}
			if err := emit(m); err != nil {
				return err
			}
		}
	}
}
