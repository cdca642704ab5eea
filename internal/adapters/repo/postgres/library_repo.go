package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cratey/cratey/internal/domain"
)

type LibraryRepo struct{ db *gorm.DB }

func NewLibraryRepo(db *gorm.DB) *LibraryRepo { return &LibraryRepo{db: db} }

func normEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// Exists is the ownership predicate. It always hits the database.
func (r *LibraryRepo) Exists(ctx context.Context, email string, productID uuid.UUID) (bool, error) {
	e := normEmail(email)
	if e == "" {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.LibraryItem{}).
		Where("buyer_email = ? AND product_id = ?", e, productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *LibraryRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.LibraryItem, error) {
	var it domain.LibraryItem
	if err := r.db.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (r *LibraryRepo) FindByOwner(ctx context.Context, email string, productID uuid.UUID) (*domain.LibraryItem, error) {
	var it domain.LibraryItem
	if err := r.db.WithContext(ctx).First(&it, "buyer_email = ? AND product_id = ?", normEmail(email), productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (r *LibraryRepo) ListByEmail(ctx context.Context, email string) ([]domain.LibraryItem, error) {
	var list []domain.LibraryItem
	e := normEmail(email)
	if e == "" {
		return nil, errors.New("empty email")
	}
	if err := r.db.WithContext(ctx).Where("buyer_email = ?", e).Order("purchased_at desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *LibraryRepo) ListAll(ctx context.Context) ([]domain.LibraryItem, error) {
	var list []domain.LibraryItem
	if err := r.db.WithContext(ctx).Order("buyer_email asc, purchased_at asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *LibraryRepo) RecordDownload(ctx context.Context, id uuid.UUID, at time.Time) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it domain.LibraryItem
		if err := tx.First(&it, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if err := tx.Model(&domain.LibraryItem{}).Where("id = ?", id).
			Updates(map[string]any{
				"download_count":     gorm.Expr("COALESCE(download_count,0) + 1"),
				"last_downloaded_at": at,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Order{}).Where("id = ?", it.OrderID).
			UpdateColumn("download_count", gorm.Expr("COALESCE(download_count,0) + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&domain.LibraryItem{}).Select("download_count").Where("id = ?", id).Row().Scan(&count)
	})
	return count, err
}
