package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProductRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	Save(ctx context.Context, p *Product) error
}

type ArtistRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Artist, error)
	FindBySlug(ctx context.Context, slug string) (*Artist, error)
	List(ctx context.Context, f ArtistFilter) ([]Artist, error)
	Save(ctx context.Context, a *Artist) error
}

type OrderRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, f OrderFilter) ([]Order, error)
	MarkRefunded(ctx context.Context, id uuid.UUID, at time.Time) error
}

type LibraryRepo interface {
	Exists(ctx context.Context, email string, productID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*LibraryItem, error)
	FindByOwner(ctx context.Context, email string, productID uuid.UUID) (*LibraryItem, error)
	ListByEmail(ctx context.Context, email string) ([]LibraryItem, error)
	ListAll(ctx context.Context) ([]LibraryItem, error)
	// RecordDownload bumps the item's and its order's download counters and
	// returns the item's new count.
	RecordDownload(ctx context.Context, id uuid.UUID, at time.Time) (int, error)
}

type AccessTokenRepo interface {
	Create(ctx context.Context, t *LibraryAccessToken) error
	FindValid(ctx context.Context, email, token string, now time.Time) (*LibraryAccessToken, error)
}

// Fulfillment is the set of writes for one purchased product.
type Fulfillment struct {
	Order   *Order
	Item    *LibraryItem
	Product *Product
}

// FulfillmentStore persists a fulfillment as one unit. Commit reserves the
// next edition number for limited products and writes it into Order and Item
// before they are stored. It returns ErrSoldOut when no unit is left and
// ErrAlreadyOwned when the buyer already has the product; in both cases
// nothing is written.
type FulfillmentStore interface {
	Commit(ctx context.Context, f *Fulfillment) error
}

type Mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// RateLimiter allows one action per key per window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) error
}
