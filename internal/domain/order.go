package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusRefunded OrderStatus = "refunded"
)

type Order struct {
	ID                  uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Status              OrderStatus `gorm:"type:varchar(20);index;not null"`
	BuyerEmail          string      `gorm:"size:140;index;not null"`
	ArtistID            uuid.UUID   `gorm:"type:uuid;index"`
	ProductID           uuid.UUID   `gorm:"type:uuid;index"`
	ProductTitle        string      `gorm:"size:180"`
	ArtistName          string      `gorm:"size:140"`
	AmountCents         int64       `gorm:"not null"`
	PlatformFeeCents    int64       `gorm:"not null"`
	ArtistPayoutCents   int64       `gorm:"not null"`
	Currency            string      `gorm:"size:3;not null"`
	StripeSessionID     string      `gorm:"size:255;index"`
	StripePaymentIntent string      `gorm:"size:255"`
	EditionName         string      `gorm:"size:120"`
	EditionNumber       *int
	DownloadCount       int `gorm:"not null;default:0"`
	RefundedAt          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type OrderFilter struct {
	BuyerEmail string
	ArtistID   *uuid.UUID
	Status     OrderStatus
	Limit      int
}
