package domain

import (
	"time"

	"github.com/google/uuid"
)

type EditionType string

const (
	EditionUnlimited EditionType = "unlimited"
	EditionLimited   EditionType = "limited"
)

type Product struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ArtistID              uuid.UUID `gorm:"type:uuid;index"`
	ArtistName            string    `gorm:"size:140"`
	ArtistSlug            string    `gorm:"size:140"`
	Title                 string    `gorm:"size:180;not null"`
	Genre                 string    `gorm:"size:60"`
	CoverURL              string    `gorm:"size:255"`
	AudioURLs             []string  `gorm:"type:jsonb;serializer:json"`
	PreviewURLs           []string  `gorm:"type:jsonb;serializer:json"`
	TrackNames            []string  `gorm:"type:jsonb;serializer:json"`
	PriceCents            int64     `gorm:"not null"`
	ArchivePriceCents     *int64
	EditionType           EditionType `gorm:"type:varchar(20);not null;default:'unlimited'"`
	EditionName           string      `gorm:"size:120"`
	EditionLimit          int         `gorm:"default:0"`
	TotalSales            int         `gorm:"not null;default:0"`
	TotalRevenueCents     int64       `gorm:"not null;default:0"`
	DropWindowEnabled     bool        `gorm:"default:false"`
	DropWindowEnd         *time.Time
	BundleProductIDs      []string `gorm:"type:jsonb;serializer:json"`
	BundleDiscountPercent int      `gorm:"default:0"`
	Active                bool     `gorm:"default:true;index"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (p *Product) IsLimited() bool { return p.EditionType == EditionLimited }

// SoldOut reports whether a limited edition has no units left.
func (p *Product) SoldOut() bool {
	return p.IsLimited() && p.TotalSales >= p.EditionLimit
}

// Pricing returns the tagged pricing variant for the product. A drop window
// without an end or without an archive price is treated as standard pricing.
func (p *Product) Pricing() Pricing {
	if p.DropWindowEnabled && p.DropWindowEnd != nil && p.ArchivePriceCents != nil && *p.ArchivePriceCents > 0 {
		return TimedDrop{Price: p.PriceCents, ArchivePrice: *p.ArchivePriceCents, EndsAt: *p.DropWindowEnd}
	}
	return Standard{Price: p.PriceCents}
}

// Pricing is either Standard or TimedDrop.
type Pricing interface {
	PriceAt(t time.Time) int64
	isPricing()
}

type Standard struct {
	Price int64
}

func (s Standard) PriceAt(time.Time) int64 { return s.Price }
func (Standard) isPricing()                {}

type TimedDrop struct {
	Price        int64
	ArchivePrice int64
	EndsAt       time.Time
}

// PriceAt returns the drop price until EndsAt and the archive price after it.
func (d TimedDrop) PriceAt(t time.Time) int64 {
	if d.EndsAt.Before(t) {
		return d.ArchivePrice
	}
	return d.Price
}
func (TimedDrop) isPricing() {}

type ProductFilter struct {
	ArtistID *uuid.UUID
	// IncludeInactive also returns unpublished products; only dashboards set it.
	IncludeInactive bool
	Genre           string
	Query           string
	Sort            string
	Page            int
	PageSize        int
}
