package realtime

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/pkg/logger"
)

const channelPrefix = "match:messages:"

type envelope struct {
	Origin  string         `json:"origin"`
	Message models.Message `json:"message"`
}

// RedisBridge delivers locally and relays through Redis pub/sub so that
// subscribers connected to other instances see the insert too.
type RedisBridge struct {
	client redis.UniversalClient
	hub    *Hub
	origin string
}

func NewRedisBridge(client redis.UniversalClient, hub *Hub) *RedisBridge {
	return &RedisBridge{client: client, hub: hub, origin: uuid.NewString()}
}

func (b *RedisBridge) Publish(ctx context.Context, msg models.Message) {
	b.hub.Publish(ctx, msg)

	payload, err := json.Marshal(envelope{Origin: b.origin, Message: msg})
	if err != nil {
		logger.Error("Failed to encode realtime message", "error", err)
		return
	}
	if err := b.client.Publish(ctx, channelPrefix+msg.MatchID, payload).Err(); err != nil {
		logger.Warn("Failed to relay realtime message", "match_id", msg.MatchID, "error", err)
	}
}

// Run forwards messages from other instances into the local hub until ctx ends.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	logger.Info("Realtime redis bridge subscribed", "pattern", channelPrefix+"*")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(ctx, m.Channel, m.Payload)
		}
	}
}

func (b *RedisBridge) handle(ctx context.Context, channel, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		logger.Warn("Ignoring malformed realtime payload", "channel", channel, "error", err)
		return
	}
	if env.Origin == b.origin {
		return
	}
	if strings.TrimPrefix(channel, channelPrefix) != env.Message.MatchID {
		return
	}
	b.hub.Publish(ctx, env.Message)
}
