package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cratey/cratey/internal/domain"
)

const artistProductPage = 100

type ArtistUC struct {
	Artists  domain.ArtistRepo
	Products domain.ProductRepo
}

type ArtistSummary struct {
	Artist       domain.Artist
	ProductCount int64
}

type ArtistProfile struct {
	Artist   *domain.Artist
	Products []domain.Product
}

type ProductStats struct {
	ProductID    uuid.UUID
	Title        string
	Active       bool
	TotalSales   int
	RevenueCents int64
}

// ArtistStats is the sales dashboard for one artist. Gross figures come from
// product counters, payouts from the artist's own running total.
type ArtistStats struct {
	ArtistID          uuid.UUID
	Name              string
	TotalProducts     int
	TotalSales        int
	GrossRevenueCents int64
	PayoutCents       int64
	Products          []ProductStats
}

func (uc *ArtistUC) List(ctx context.Context, f domain.ArtistFilter) ([]ArtistSummary, error) {
	artists, err := uc.Artists.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]ArtistSummary, 0, len(artists))
	for _, a := range artists {
		id := a.ID
		_, n, err := uc.Products.List(ctx, domain.ProductFilter{ArtistID: &id, PageSize: 1})
		if err != nil {
			return nil, err
		}
		out = append(out, ArtistSummary{Artist: a, ProductCount: n})
	}
	return out, nil
}

// Profile returns an artist's storefront: the artist and their active
// products, newest first.
func (uc *ArtistUC) Profile(ctx context.Context, slug string) (*ArtistProfile, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, fmt.Errorf("%w: slug", domain.ErrInvalidInput)
	}
	a, err := uc.Artists.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	products, err := uc.products(ctx, a.ID, false)
	if err != nil {
		return nil, err
	}
	return &ArtistProfile{Artist: a, Products: products}, nil
}

func (uc *ArtistUC) Stats(ctx context.Context, id uuid.UUID) (*ArtistStats, error) {
	a, err := uc.Artists.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	products, err := uc.products(ctx, a.ID, true)
	if err != nil {
		return nil, err
	}
	st := &ArtistStats{
		ArtistID:      a.ID,
		Name:          a.Name,
		TotalProducts: len(products),
		TotalSales:    a.TotalSales,
		PayoutCents:   a.TotalRevenueCents,
	}
	for _, p := range products {
		st.GrossRevenueCents += p.TotalRevenueCents
		st.Products = append(st.Products, ProductStats{
			ProductID:    p.ID,
			Title:        p.Title,
			Active:       p.Active,
			TotalSales:   p.TotalSales,
			RevenueCents: p.TotalRevenueCents,
		})
	}
	return st, nil
}

func (uc *ArtistUC) products(ctx context.Context, artistID uuid.UUID, inactive bool) ([]domain.Product, error) {
	var all []domain.Product
	for page := 1; ; page++ {
		list, _, err := uc.Products.List(ctx, domain.ProductFilter{
			ArtistID:        &artistID,
			IncludeInactive: inactive,
			Sort:            "newest",
			Page:            page,
			PageSize:        artistProductPage,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, list...)
		if len(list) < artistProductPage {
			return all, nil
		}
	}
}
