package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cratey/cratey/internal/domain"
)

type ArtistRepo struct{ db *gorm.DB }

func NewArtistRepo(db *gorm.DB) *ArtistRepo { return &ArtistRepo{db: db} }

func (r *ArtistRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Artist, error) {
	var a domain.Artist
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *ArtistRepo) FindBySlug(ctx context.Context, slug string) (*domain.Artist, error) {
	var a domain.Artist
	if err := r.db.WithContext(ctx).First(&a, "slug = ?", strings.ToLower(strings.TrimSpace(slug))).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// List returns artists with the best sellers first.
func (r *ArtistRepo) List(ctx context.Context, f domain.ArtistFilter) ([]domain.Artist, error) {
	var list []domain.Artist
	q := r.db.WithContext(ctx).Model(&domain.Artist{})
	if query := strings.TrimSpace(f.Query); query != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+query+"%")
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if err := q.Order("total_sales desc").Order("name asc").Limit(f.Limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ArtistRepo) Save(ctx context.Context, a *domain.Artist) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Save(a).Error
}
