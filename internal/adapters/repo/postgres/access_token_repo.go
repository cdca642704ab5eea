package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cratey/cratey/internal/domain"
)

type AccessTokenRepo struct{ db *gorm.DB }

func NewAccessTokenRepo(db *gorm.DB) *AccessTokenRepo { return &AccessTokenRepo{db: db} }

func (r *AccessTokenRepo) Create(ctx context.Context, t *domain.LibraryAccessToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.BuyerEmail = normEmail(t.BuyerEmail)
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *AccessTokenRepo) FindValid(ctx context.Context, email, token string, now time.Time) (*domain.LibraryAccessToken, error) {
	var t domain.LibraryAccessToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND buyer_email = ? AND expires_at > ?", token, normEmail(email), now).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
