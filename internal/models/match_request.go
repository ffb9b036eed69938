package models

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MatchRequest struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID        string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Owner         *Profile  `gorm:"foreignKey:UserID" json:"owner,omitempty"`
	RegionID      string    `gorm:"type:varchar(36);not null;index" json:"region_id"`
	MatchType     string    `gorm:"type:varchar(5);not null" json:"match_type"`
	Status        string    `gorm:"type:varchar(20);default:'waiting';index" json:"status"`
	PreferredDate *string   `gorm:"type:varchar(10)" json:"preferred_date"`
	PreferredTime *string   `gorm:"type:varchar(5)" json:"preferred_time"`
	Message       *string   `gorm:"type:varchar(400)" json:"message"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Match request status constants
const (
	RequestStatusWaiting   = "waiting"
	RequestStatusMatched   = "matched"
	RequestStatusCancelled = "cancelled"
)

// Match types
const (
	MatchTypeSingles = "1v1"
	MatchTypeDoubles = "2v2"
)

const RequestMessageMaxLength = 100

func IsValidMatchType(matchType string) bool {
	return matchType == MatchTypeSingles || matchType == MatchTypeDoubles
}

func IsValidRequestStatus(status string) bool {
	switch status {
	case RequestStatusWaiting, RequestStatusMatched, RequestStatusCancelled:
		return true
	}
	return false
}

func (MatchRequest) TableName() string {
	return "match_requests"
}

func (r *MatchRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = RequestStatusWaiting
	}
	return nil
}

func (r *MatchRequest) BeforeSave(tx *gorm.DB) error {
	if !IsValidMatchType(r.MatchType) {
		return gorm.ErrInvalidData
	}

	if !IsValidRequestStatus(r.Status) {
		return gorm.ErrInvalidData
	}

	if r.Message != nil && utf8.RuneCountInString(*r.Message) > RequestMessageMaxLength {
		return gorm.ErrInvalidData
	}

	return nil
}
