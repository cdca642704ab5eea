package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cratey/cratey/internal/domain"
)

func newCheckout(f *fixture, gw *fakeGateway) *CheckoutUC {
	return &CheckoutUC{
		Products: f.store.Products(),
		Library:  f.store.Library(),
		Gateway:  gw,
		BaseURL:  "https://cratey.test/",
	}
}

func TestCheckoutSingle(t *testing.T) {
	f := newFixture(t)
	gw := &fakeGateway{}
	p := f.product(t, "neon", nil)

	ref, err := newCheckout(f, gw).CreateSession(context.Background(), CheckoutInput{
		ProductIDs: []string{p.ID.String()},
		BuyerEmail: " Fan@X.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", ref.ID)

	req := gw.last
	require.NotNil(t, req)
	assert.Equal(t, "fan@x.com", req.BuyerEmail)
	assert.Equal(t, "usd", req.Currency)
	require.Len(t, req.LineItems, 1)
	assert.Equal(t, int64(999), req.LineItems[0].UnitAmount)
	assert.Equal(t, p.ID.String(), req.Metadata[domain.MetaProductID])
	assert.Equal(t, "false", req.Metadata[domain.MetaIsBundle])
	assert.NotContains(t, req.Metadata, domain.MetaBundleProductIDs)
	assert.Contains(t, req.SuccessURL, "https://cratey.test/library?email=fan%40x.com")
}

func TestCheckoutBundleRoundTripsThroughExpand(t *testing.T) {
	f := newFixture(t)
	gw := &fakeGateway{}
	p1 := f.product(t, "one", func(p *domain.Product) { p.BundleDiscountPercent = 20 })
	p2 := f.product(t, "two", func(p *domain.Product) { p.BundleDiscountPercent = 20; p.PriceCents = 1000 })

	_, err := newCheckout(f, gw).CreateSession(context.Background(), CheckoutInput{
		ProductIDs: []string{p1.ID.String(), p2.ID.String()},
		BuyerEmail: "fan@x.com",
		IsBundle:   true,
	})
	require.NoError(t, err)
	req := gw.last
	assert.Equal(t, int64(799), req.LineItems[0].UnitAmount)
	assert.Equal(t, int64(800), req.LineItems[1].UnitAmount)

	var rest []string
	require.NoError(t, json.Unmarshal([]byte(req.Metadata[domain.MetaBundleProductIDs]), &rest))
	assert.Equal(t, []string{p2.ID.String()}, rest)

	purchase, err := ExpandSession(&domain.CheckoutSession{Metadata: req.Metadata})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p1.ID, p2.ID}, purchase.ProductIDs)
}

func TestCheckoutMultipleProductsRequireBundle(t *testing.T) {
	f := newFixture(t)
	gw := &fakeGateway{}
	p1, p2 := f.product(t, "one", nil), f.product(t, "two", nil)
	uc := newCheckout(f, gw)

	_, err := uc.CreateSession(context.Background(), CheckoutInput{
		ProductIDs: []string{p1.ID.String(), p2.ID.String()},
		BuyerEmail: "fan@x.com",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, gw.last, "no session for a cart the webhook could not expand")

	// the same product twice collapses to a single line
	_, err = uc.CreateSession(context.Background(), CheckoutInput{
		ProductIDs: []string{p1.ID.String(), p1.ID.String()},
		BuyerEmail: "fan@x.com",
	})
	require.NoError(t, err)
	require.Len(t, gw.last.LineItems, 1)

	// every charged line item comes back out of the metadata
	_, err = uc.CreateSession(context.Background(), CheckoutInput{
		ProductIDs: []string{p1.ID.String(), p2.ID.String()},
		BuyerEmail: "fan@x.com",
		IsBundle:   true,
	})
	require.NoError(t, err)
	purchase, err := ExpandSession(&domain.CheckoutSession{ID: "cs_rt", Metadata: gw.last.Metadata})
	require.NoError(t, err)
	assert.Len(t, purchase.ProductIDs, len(gw.last.LineItems))
	assert.Equal(t, []uuid.UUID{p1.ID, p2.ID}, purchase.ProductIDs)
}

func TestCheckoutRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gw := &fakeGateway{}
	uc := newCheckout(f, gw)
	owned := f.product(t, "owned", nil)
	soldOut := f.product(t, "gone", func(p *domain.Product) {
		p.EditionType = domain.EditionLimited
		p.EditionLimit = 1
		p.TotalSales = 1
	})

	_, err := f.uc.HandleEvent(ctx, completedEvent("cs_own", 999, map[string]string{
		"product_id": owned.ID.String(), "buyer_email": "fan@x.com", "is_bundle": "false",
	}))
	require.NoError(t, err)

	_, err = uc.CreateSession(ctx, CheckoutInput{ProductIDs: []string{owned.ID.String()}, BuyerEmail: "FAN@x.com"})
	assert.ErrorIs(t, err, domain.ErrAlreadyOwned)

	_, err = uc.CreateSession(ctx, CheckoutInput{ProductIDs: []string{soldOut.ID.String()}, BuyerEmail: "new@x.com"})
	assert.ErrorIs(t, err, domain.ErrSoldOut)

	_, err = uc.CreateSession(ctx, CheckoutInput{ProductIDs: []string{uuid.NewString()}, BuyerEmail: "new@x.com"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.CreateSession(ctx, CheckoutInput{ProductIDs: []string{owned.ID.String()}, BuyerEmail: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.CreateSession(ctx, CheckoutInput{BuyerEmail: "new@x.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = (&CheckoutUC{}).CreateSession(ctx, CheckoutInput{})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.Nil(t, gw.last)
}
