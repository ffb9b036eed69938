package services

import (
	"sort"

	"github.com/sbpickleball/match_app/internal/models"
)

// Feed is the rendered message list of one match. Messages are unique by id
// and kept in (created_at, id) order, whether they came from a fetch or a
// live event, so a reconnect that replays history neither drops nor repeats.
type Feed struct {
	msgs []models.Message
	seen map[string]bool
}

func NewFeed(initial []models.Message) *Feed {
	f := &Feed{seen: make(map[string]bool, len(initial))}
	for _, m := range initial {
		f.Add(m)
	}
	return f
}

// Add inserts msg in order and reports whether it was new.
func (f *Feed) Add(msg models.Message) bool {
	if f.seen[msg.ID] {
		return false
	}
	f.seen[msg.ID] = true

	i := sort.Search(len(f.msgs), func(i int) bool { return msg.Before(&f.msgs[i]) })
	f.msgs = append(f.msgs, models.Message{})
	copy(f.msgs[i+1:], f.msgs[i:])
	f.msgs[i] = msg
	return true
}

func (f *Feed) Len() int {
	return len(f.msgs)
}

// Messages returns a copy of the feed.
func (f *Feed) Messages() []models.Message {
	out := make([]models.Message, len(f.msgs))
	copy(out, f.msgs)
	return out
}

// After returns the messages that follow the one with id lastID. An unknown
// or empty id returns everything.
func (f *Feed) After(lastID string) []models.Message {
	if lastID == "" || !f.seen[lastID] {
		return f.Messages()
	}
	for i := range f.msgs {
		if f.msgs[i].ID == lastID {
			out := make([]models.Message, len(f.msgs)-i-1)
			copy(out, f.msgs[i+1:])
			return out
		}
	}
	return f.Messages()
}
