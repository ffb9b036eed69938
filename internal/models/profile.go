package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Profile struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Provider       string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_profile_provider_user" json:"provider"`
	ProviderUserID string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_profile_provider_user" json:"-"`
	Nickname       string    `gorm:"type:varchar(80);not null" json:"nickname"`
	SkillLevel     *string   `gorm:"type:varchar(20)" json:"skill_level"`
	AvatarURL      string    `gorm:"type:varchar(500)" json:"avatar_url"`
	RegionID       *string   `gorm:"type:varchar(36);index" json:"region_id"`
	Region         *Region   `gorm:"foreignKey:RegionID" json:"region,omitempty"`
	Available      bool      `gorm:"not null;default:true" json:"available"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Skill levels
const (
	SkillFun          = "fun"
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"
)

const (
	DefaultNickname   = "피클볼러"
	NicknameMaxLength = 20
)

var validSkillLevels = map[string]bool{
	SkillFun:          true,
	SkillBeginner:     true,
	SkillIntermediate: true,
	SkillAdvanced:     true,
}

func IsValidSkillLevel(level string) bool {
	return validSkillLevels[level]
}

// IsValidNickname checks the trimmed rune length.
func IsValidNickname(nickname string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(nickname))
	return n >= 1 && n <= NicknameMaxLength
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave hook for validation
func (p *Profile) BeforeSave(tx *gorm.DB) error {
	if !IsValidNickname(p.Nickname) {
		return gorm.ErrInvalidData
	}
	if p.SkillLevel != nil && !IsValidSkillLevel(*p.SkillLevel) {
		return gorm.ErrInvalidData
	}
	return nil
}
