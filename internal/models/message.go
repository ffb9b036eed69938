package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	MatchID   string    `gorm:"type:varchar(36);not null;index:idx_message_match_created" json:"match_id"`
	UserID    string    `gorm:"type:varchar(36);not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_message_match_created" json:"created_at"`
}

const MessageMaxLength = 1000

func (Message) TableName() string {
	return "messages"
}

// NewMessageID returns a time-ordered id so that ids created in sequence
// also sort in sequence.
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewMessageID()
	}
	if m.Content == "" {
		return gorm.ErrInvalidData
	}
	return nil
}

// Before reports whether m sorts ahead of o in a feed: created_at, then id.
func (m *Message) Before(o *Message) bool {
	if !m.CreatedAt.Equal(o.CreatedAt) {
		return m.CreatedAt.Before(o.CreatedAt)
	}
	return m.ID < o.ID
}
