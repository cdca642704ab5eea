package domain

import (
	"time"

	"github.com/google/uuid"
)

type Artist struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Slug              string    `gorm:"uniqueIndex;size:140"`
	Name              string    `gorm:"size:140;not null"`
	Email             string    `gorm:"size:140;index"`
	ThankYouNote      string    `gorm:"type:text"`
	TotalSales        int       `gorm:"not null;default:0"`
	TotalRevenueCents int64     `gorm:"not null;default:0"` // sum of artist payouts
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type ArtistFilter struct {
	Query string
	Limit int
}
