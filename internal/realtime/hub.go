package realtime

import (
	"context"
	"sync"

	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/pkg/logger"
)

// Publisher fans a stored message out to live subscribers of its match.
type Publisher interface {
	Publish(ctx context.Context, msg models.Message)
}

const DefaultBuffer = 64

type room struct {
	subs map[*Subscription]struct{}
}

// Hub keeps one room per match id. Rooms with no subscribers are removed by Sweep.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]*room
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		rooms:  make(map[string]*room),
		buffer: buffer,
	}
}

// Subscription receives inserts for one match until Close.
// C is closed when the subscription ends, including when the hub drops a
// subscriber that fell behind; the client then reconnects and backfills.
type Subscription struct {
	MatchID string
	C       <-chan models.Message

	ch     chan models.Message
	hub    *Hub
	once   sync.Once
	closed bool
}

func (h *Hub) Subscribe(matchID string) *Subscription {
	ch := make(chan models.Message, h.buffer)
	sub := &Subscription{MatchID: matchID, C: ch, ch: ch, hub: h}

	h.mu.Lock()
	r := h.rooms[matchID]
	if r == nil {
		r = &room{subs: make(map[*Subscription]struct{})}
		h.rooms[matchID] = r
	}
	r.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		if r := s.hub.rooms[s.MatchID]; r != nil {
			delete(r.subs, s)
		}
		s.closeLocked()
	})
}

// closeLocked closes the channel; hub.mu must be held.
func (s *Subscription) closeLocked() {
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (h *Hub) Publish(ctx context.Context, msg models.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.rooms[msg.MatchID]
	if r == nil {
		return
	}

	for sub := range r.subs {
		select {
		case sub.ch <- msg:
		default:
			logger.Warn("dropping slow realtime subscriber", "match_id", msg.MatchID)
			delete(r.subs, sub)
			sub.closeLocked()
		}
	}
}

// Sweep removes rooms without subscribers and returns how many went.
func (h *Hub) Sweep() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for id, r := range h.rooms {
		if len(r.subs) == 0 {
			delete(h.rooms, id)
			removed++
		}
	}
	return removed
}

// Stats reports the number of rooms and live subscriptions.
func (h *Hub) Stats() (rooms, subscribers int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, r := range h.rooms {
		subscribers += len(r.subs)
	}
	return len(h.rooms), subscribers
}
