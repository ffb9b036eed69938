package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type Region struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Region) TableName() string {
	return "regions"
}

// BeforeCreate fills the id and derives the slug from the name.
func (r *Region) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Slug == "" {
		r.Slug = RegionSlug(r.Name)
	}
	if r.Slug == "" {
		return gorm.ErrInvalidData
	}
	return nil
}

// RegionSlug is the URL key for a region name, e.g. "Jeonju" -> "jeonju".
func RegionSlug(name string) string {
	return slug.Make(name)
}
