package domain

import (
	"context"
	"time"
)

// Backup is a full copy of every stored entity.
type Backup struct {
	CreatedAt    time.Time
	Artists      []Artist
	Products     []Product
	Orders       []Order
	LibraryItems []LibraryItem
	AccessTokens []LibraryAccessToken
}

func (b *Backup) Records() int {
	return len(b.Artists) + len(b.Products) + len(b.Orders) + len(b.LibraryItems) + len(b.AccessTokens)
}

type BackupSource interface {
	Snapshot(ctx context.Context) (*Backup, error)
}
