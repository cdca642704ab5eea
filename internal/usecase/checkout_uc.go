package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cratey/cratey/internal/domain"
)

type CheckoutInput struct {
	ProductIDs []string
	BuyerEmail string
	IsBundle   bool
}

type CheckoutUC struct {
	Products domain.ProductRepo
	Library  domain.LibraryRepo
	Gateway  domain.PaymentGateway
	BaseURL  string
	Currency string
	Now      func() time.Time
}

// CreateSession validates a cart and opens a hosted checkout session whose
// metadata the webhook later expands back into the same product list.
func (uc *CheckoutUC) CreateSession(ctx context.Context, in CheckoutInput) (*domain.CheckoutSessionRef, error) {
	if uc.Gateway == nil {
		return nil, domain.ErrNotConfigured
	}
	email := strings.ToLower(strings.TrimSpace(in.BuyerEmail))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: buyer_email", domain.ErrInvalidInput)
	}
	if len(in.ProductIDs) == 0 {
		return nil, fmt.Errorf("%w: product_ids", domain.ErrInvalidInput)
	}

	var ids []uuid.UUID
	seen := map[uuid.UUID]bool{}
	for _, raw := range in.ProductIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: product id %q", domain.ErrInvalidInput, raw)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	// Only a bundle can carry more than one product through session metadata.
	if len(ids) > 1 && !in.IsBundle {
		return nil, fmt.Errorf("%w: multiple products require is_bundle", domain.ErrInvalidInput)
	}

	now := time.Now()
	if uc.Now != nil {
		now = uc.Now()
	}
	bundle := in.IsBundle && len(ids) > 1

	var (
		products []*domain.Product
		items    []domain.CheckoutLineItem
	)
	for _, id := range ids {
		p, err := uc.Products.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
			}
			return nil, err
		}
		if !p.Active {
			return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
		}
		owned, err := uc.Library.Exists(ctx, email, id)
		if err != nil {
			return nil, err
		}
		if owned {
			return nil, domain.ErrAlreadyOwned
		}
		if p.SoldOut() {
			return nil, fmt.Errorf("%s: %w", p.Title, domain.ErrSoldOut)
		}

		amount := p.Pricing().PriceAt(now)
		if bundle {
			amount = domain.ApplyDiscount(amount, p.BundleDiscountPercent)
		}
		name := p.Title + " - " + p.ArtistName
		if p.IsLimited() {
			name += fmt.Sprintf(" (%s #%d of %d)", p.EditionName, p.TotalSales+1, p.EditionLimit)
		}
		products = append(products, p)
		items = append(items, domain.CheckoutLineItem{Name: name, ImageURL: p.CoverURL, UnitAmount: amount})
	}

	md := map[string]string{
		domain.MetaProductID:  products[0].ID.String(),
		domain.MetaBuyerEmail: email,
		domain.MetaIsBundle:   "false",
	}
	if bundle {
		rest := make([]string, 0, len(products)-1)
		for _, p := range products[1:] {
			rest = append(rest, p.ID.String())
		}
		b, err := json.Marshal(rest)
		if err != nil {
			return nil, err
		}
		md[domain.MetaIsBundle] = "true"
		md[domain.MetaBundleProductIDs] = string(b)
	}

	base := strings.TrimRight(uc.BaseURL, "/")
	currency := uc.Currency
	if currency == "" {
		currency = "usd"
	}
	return uc.Gateway.CreateCheckoutSession(ctx, domain.CheckoutSessionRequest{
		BuyerEmail: email,
		Currency:   currency,
		LineItems:  items,
		Metadata:   md,
		SuccessURL: base + "/library?email=" + url.QueryEscape(email) + "&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  base + "/products/" + products[0].ID.String(),
	})
}
