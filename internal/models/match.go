package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Match struct {
	ID           string             `gorm:"type:varchar(36);primaryKey" json:"id"`
	RegionID     string             `gorm:"type:varchar(36);not null;index" json:"region_id"`
	MatchType    string             `gorm:"type:varchar(5);not null" json:"match_type"`
	Status       string             `gorm:"type:varchar(20);default:'active';index" json:"status"`
	Participants []MatchParticipant `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	CreatedAt    time.Time          `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

// Match status constants
const (
	MatchStatusActive    = "active"
	MatchStatusCompleted = "completed"
	MatchStatusCancelled = "cancelled"
)

// Team tags
const (
	TeamA = "A"
	TeamB = "B"
)

func (Match) TableName() string {
	return "matches"
}

func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = MatchStatusActive
	}
	return nil
}

func (m *Match) BeforeSave(tx *gorm.DB) error {
	if !IsValidMatchType(m.MatchType) {
		return gorm.ErrInvalidData
	}

	if !IsValidMatchStatus(m.Status) {
		return gorm.ErrInvalidData
	}

	return nil
}

func IsValidMatchStatus(status string) bool {
	switch status {
	case MatchStatusActive, MatchStatusCompleted, MatchStatusCancelled:
		return true
	}
	return false
}

// HasParticipant reports whether userID is among the loaded participants.
func (m *Match) HasParticipant(userID string) bool {
	for _, p := range m.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// MatchParticipant links a user to a match. A user appears at most once per match.
type MatchParticipant struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	MatchID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_participant_match_user" json:"match_id"`
	Match     *Match    `gorm:"foreignKey:MatchID" json:"match,omitempty"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_participant_match_user;index" json:"user_id"`
	Profile   *Profile  `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Team      string    `gorm:"type:varchar(1)" json:"team"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (MatchParticipant) TableName() string {
	return "match_participants"
}

func (p *MatchParticipant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
