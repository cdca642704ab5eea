package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/cratey/cratey/internal/domain"
)

type ProductUC struct {
	Products domain.ProductRepo
	Library  domain.LibraryRepo
}

// ProductView is a product as shown to one visitor: owners get the full
// audio, everyone else the previews.
type ProductView struct {
	Product   *domain.Product
	Owned     bool
	AudioURLs []string
	Remaining *int
}

func (uc *ProductUC) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	if f.PageSize == 0 {
		f.PageSize = 20
	}
	return uc.Products.List(ctx, f)
}

func (uc *ProductUC) Get(ctx context.Context, id uuid.UUID, email string) (*ProductView, error) {
	if id == uuid.Nil {
		return nil, errors.New("product id")
	}
	p, err := uc.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, domain.ErrNotFound
	}
	v := &ProductView{Product: p, AudioURLs: p.PreviewURLs}
	if strings.TrimSpace(email) != "" && uc.Library != nil {
		owned, err := uc.Library.Exists(ctx, email, id)
		if err != nil {
			return nil, err
		}
		if owned {
			v.Owned = true
			v.AudioURLs = p.AudioURLs
		}
	}
	if p.IsLimited() {
		left := p.EditionLimit - p.TotalSales
		if left < 0 {
			left = 0
		}
		v.Remaining = &left
	}
	return v, nil
}

func (uc *ProductUC) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.EditionType == "" {
		p.EditionType = domain.EditionUnlimited
	}
	if p.ArtistSlug == "" {
		p.ArtistSlug = strings.ToLower(strings.ReplaceAll(p.ArtistName, " ", "-"))
	}
	return uc.Products.Save(ctx, p)
}
