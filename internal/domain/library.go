package domain

import (
	"time"

	"github.com/google/uuid"
)

// LibraryItem is a buyer's entitlement to a product. Display fields are
// copied from the product at purchase time and never refreshed.
type LibraryItem struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	BuyerEmail       string    `gorm:"size:140;not null;uniqueIndex:idx_library_items_buyer_product"`
	ProductID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_library_items_buyer_product"`
	OrderID          uuid.UUID `gorm:"type:uuid;index"`
	ProductTitle     string    `gorm:"size:180"`
	ArtistName       string    `gorm:"size:140"`
	ArtistSlug       string    `gorm:"size:140"`
	CoverURL         string    `gorm:"size:255"`
	AudioURLs        []string  `gorm:"type:jsonb;serializer:json"`
	TrackNames       []string  `gorm:"type:jsonb;serializer:json"`
	AccessToken      string    `gorm:"size:64;not null"`
	EditionName      string    `gorm:"size:120"`
	EditionNumber    *int
	DownloadCount    int `gorm:"not null;default:0"`
	LastDownloadedAt *time.Time
	PurchasedAt      time.Time `gorm:"index"`
	CreatedAt        time.Time
}

type LibraryAccessToken struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BuyerEmail string    `gorm:"size:140;index;not null"`
	Token      string    `gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt  time.Time `gorm:"not null"`
	CreatedAt  time.Time
}

func (t *LibraryAccessToken) Valid(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}
