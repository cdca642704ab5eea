package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cratey/cratey/internal/domain"
)

type BackupRepo struct{ db *gorm.DB }

func NewBackupRepo(db *gorm.DB) *BackupRepo { return &BackupRepo{db: db} }

// Snapshot reads every table inside one read-only transaction so the copy is
// consistent.
func (r *BackupRepo) Snapshot(ctx context.Context) (*domain.Backup, error) {
	b := &domain.Backup{CreatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			name string
			dest any
		}{
			{"artists", &b.Artists},
			{"products", &b.Products},
			{"orders", &b.Orders},
			{"library items", &b.LibraryItems},
			{"access tokens", &b.AccessTokens},
		}
		for _, s := range steps {
			if err := tx.Order("created_at asc").Find(s.dest).Error; err != nil {
				return fmt.Errorf("backup %s: %w", s.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}
