package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserReview is a post-match manner review. One per (reviewer, reviewed, match).
type UserReview struct {
	ID               string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ReviewerID       string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_review_unique" json:"reviewer_id"`
	ReviewedID       string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_review_unique;index" json:"reviewed_id"`
	MatchID          string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_review_unique" json:"match_id"`
	TeamworkScore    int       `gorm:"not null" json:"teamwork_score"`
	LanguageScore    int       `gorm:"not null" json:"language_score"`
	RuleScore        int       `gorm:"not null" json:"rule_score"`
	PunctualityScore int       `gorm:"not null" json:"punctuality_score"`
	Comment          string    `gorm:"type:varchar(800)" json:"comment"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

const (
	ReviewScoreMin         = 1
	ReviewScoreMax         = 5
	ReviewCommentMaxLength = 200
)

func IsValidScore(score int) bool {
	return score >= ReviewScoreMin && score <= ReviewScoreMax
}

func (UserReview) TableName() string {
	return "user_reviews"
}

func (r *UserReview) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r *UserReview) BeforeSave(tx *gorm.DB) error {
	for _, s := range []int{r.TeamworkScore, r.LanguageScore, r.RuleScore, r.PunctualityScore} {
		if !IsValidScore(s) {
			return gorm.ErrInvalidData
		}
	}
	if r.ReviewerID == r.ReviewedID {
		return gorm.ErrInvalidData
	}
	return nil
}
