package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cratey/cratey/internal/domain"
)

func TestExpandSession(t *testing.T) {
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()

	t.Run("single", func(t *testing.T) {
		got, err := ExpandSession(&domain.CheckoutSession{ID: "cs_1", Metadata: map[string]string{
			"product_id": p1.String(), "buyer_email": "  A@X.com ", "is_bundle": "false",
		}})
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", got.BuyerEmail)
		assert.Equal(t, []uuid.UUID{p1}, got.ProductIDs)
		assert.False(t, got.IsBundle)
	})

	t.Run("bundle keeps order", func(t *testing.T) {
		got, err := ExpandSession(&domain.CheckoutSession{Metadata: map[string]string{
			"product_id": p1.String(), "buyer_email": "b@x.com", "is_bundle": "true",
			"bundle_product_ids": `["` + p2.String() + `","` + p3.String() + `"]`,
		}})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{p1, p2, p3}, got.ProductIDs)
		assert.True(t, got.IsBundle)
	})

	t.Run("bundle ids ignored when not a bundle", func(t *testing.T) {
		got, err := ExpandSession(&domain.CheckoutSession{Metadata: map[string]string{
			"product_id": p1.String(), "buyer_email": "b@x.com", "is_bundle": "false",
			"bundle_product_ids": `["` + p2.String() + `"]`,
		}})
		require.NoError(t, err)
		assert.Len(t, got.ProductIDs, 1)
	})

	bad := []map[string]string{
		nil,
		{"buyer_email": "a@x.com"},
		{"product_id": p1.String()},
		{"product_id": "P1", "buyer_email": "a@x.com"},
		{"product_id": p1.String(), "buyer_email": "a@x.com", "is_bundle": "true", "bundle_product_ids": "not json"},
		{"product_id": p1.String(), "buyer_email": "a@x.com", "is_bundle": "true", "bundle_product_ids": `["nope"]`},
	}
	for _, md := range bad {
		_, err := ExpandSession(&domain.CheckoutSession{Metadata: md})
		assert.ErrorIs(t, err, domain.ErrMissingMetadata, "%v", md)
	}
}

func TestFulfillSinglePurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "neon", nil)

	owned, err := f.store.Library().Exists(ctx, "a@x.com", p.ID)
	require.NoError(t, err)
	assert.False(t, owned)

	res, err := f.uc.HandleEvent(ctx, completedEvent("cs_1", 999, map[string]string{
		"product_id": p.ID.String(), "buyer_email": "A@x.com", "is_bundle": "false",
	}))
	require.NoError(t, err)
	require.Len(t, res.Fulfilled(), 1)

	orders := f.orders(t)
	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, int64(999), o.AmountCents)
	assert.Equal(t, int64(80), o.PlatformFeeCents)
	assert.Equal(t, int64(919), o.ArtistPayoutCents)
	assert.Equal(t, "a@x.com", o.BuyerEmail)
	assert.Equal(t, "USD", o.Currency)
	assert.Equal(t, "pi_cs_1", o.StripePaymentIntent)

	items := f.items(t)
	require.Len(t, items, 1)
	assert.Equal(t, "a@x.com", items[0].BuyerEmail)
	assert.Equal(t, p.ID, items[0].ProductID)
	assert.Equal(t, o.ID, items[0].OrderID)
	assert.NotEmpty(t, items[0].AccessToken)

	owned, err = f.store.Library().Exists(ctx, "a@x.com", p.ID)
	require.NoError(t, err)
	assert.True(t, owned)

	got, err := f.store.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalSales)
	assert.Equal(t, int64(999), got.TotalRevenueCents)

	artist, err := f.store.Artists().FindByID(ctx, f.artist.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(919), artist.TotalRevenueCents)

	f.uc.WaitForMail()
	require.Equal(t, 1, f.mailer.count())
	assert.Equal(t, "a@x.com", f.mailer.sent[0].To)
	assert.Contains(t, f.mailer.sent[0].Body, "neon")
	assert.Contains(t, f.mailer.sent[0].Body, "Thanks for riding along.")
}

func TestFulfillBundleSplitsCapturedTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.product(t, "one", nil)
	p2 := f.product(t, "two", func(p *domain.Product) { p.PriceCents = 1299 })

	res, err := f.uc.HandleEvent(ctx, completedEvent("cs_b", 1500, map[string]string{
		"product_id": p1.ID.String(), "buyer_email": "B@x.com", "is_bundle": "true",
		"bundle_product_ids": `["` + p2.ID.String() + `"]`,
	}))
	require.NoError(t, err)
	assert.Len(t, res.Fulfilled(), 2)

	orders := f.orders(t)
	require.Len(t, orders, 2)
	var sum int64
	for _, o := range orders {
		assert.Equal(t, int64(750), o.AmountCents)
		assert.Equal(t, o.AmountCents, o.PlatformFeeCents+o.ArtistPayoutCents)
		assert.Equal(t, int64(60), o.PlatformFeeCents)
		sum += o.AmountCents
	}
	assert.Equal(t, int64(1500), sum)
	f.uc.WaitForMail()
	assert.Equal(t, 1, f.mailer.count(), "one consolidated email per delivery")
}

func TestFulfillThreeProductBundle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1, p2, p3 := f.product(t, "a", nil), f.product(t, "b", nil), f.product(t, "c", nil)

	_, err := f.uc.HandleEvent(ctx, completedEvent("cs_3", 2000, map[string]string{
		"product_id": p1.ID.String(), "buyer_email": "c@x.com", "is_bundle": "true",
		"bundle_product_ids": `["` + p2.ID.String() + `","` + p3.ID.String() + `"]`,
	}))
	require.NoError(t, err)

	orders := f.orders(t)
	require.Len(t, orders, 3)
	seen := map[uuid.UUID]bool{}
	var sum int64
	for _, o := range orders {
		seen[o.ProductID] = true
		sum += o.AmountCents
	}
	assert.Len(t, seen, 3)
	assert.InDelta(t, 2000, sum, 2)
	assert.Len(t, f.items(t), 3)
}

func TestFulfillUsesArchivePriceAfterDrop(t *testing.T) {
	f := newFixture(t)
	archive := int64(1499)
	end := time.Now().Add(-time.Hour)
	p := f.product(t, "drop", func(p *domain.Product) {
		p.DropWindowEnabled = true
		p.DropWindowEnd = &end
		p.ArchivePriceCents = &archive
	})

	_, err := f.uc.HandleEvent(context.Background(), completedEvent("cs_d", 1499, map[string]string{
		"product_id": p.ID.String(), "buyer_email": "d@x.com", "is_bundle": "false",
	}))
	require.NoError(t, err)
	orders := f.orders(t)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(1499), orders[0].AmountCents)
	assert.Equal(t, int64(120), orders[0].PlatformFeeCents)
}

func TestFulfillSoldOutIsSkipped(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "rare", func(p *domain.Product) {
		p.EditionType = domain.EditionLimited
		p.EditionLimit = 1
		p.TotalSales = 1
	})

	res, err := f.uc.HandleEvent(context.Background(), completedEvent("cs_s", 999, map[string]string{
		"product_id": p.ID.String(), "buyer_email": "e@x.com", "is_bundle": "false",
	}))
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, SkipSoldOut, res.Lines[0].Reason)
	assert.Empty(t, f.orders(t))
	assert.Empty(t, f.items(t))
	f.uc.WaitForMail()
	assert.Zero(t, f.mailer.count())
}

func TestFulfillEditionNumbersIncrease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "lathe", func(p *domain.Product) {
		p.EditionType = domain.EditionLimited
		p.EditionLimit = 3
		p.EditionName = "Lathe Cut"
	})

	var numbers []int
	for i, email := range []string{"1@x.com", "2@x.com", "3@x.com", "4@x.com"} {
		res, err := f.uc.HandleEvent(ctx, completedEvent("cs_e"+email, 999, map[string]string{
			"product_id": p.ID.String(), "buyer_email": email, "is_bundle": "false",
		}))
		require.NoError(t, err)
		if i < 3 {
			require.Len(t, res.Fulfilled(), 1)
			o := res.Fulfilled()[0].Order
			require.NotNil(t, o.EditionNumber)
			assert.Equal(t, "Lathe Cut", o.EditionName)
			numbers = append(numbers, *o.EditionNumber)
		} else {
			assert.Empty(t, res.Fulfilled())
			assert.Equal(t, SkipSoldOut, res.Lines[0].Reason)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, numbers)

	got, err := f.store.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalSales)
}

func TestFulfillDuplicateDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1, p2 := f.product(t, "one", nil), f.product(t, "two", nil)
	ev := completedEvent("cs_dup", 1800, map[string]string{
		"product_id": p1.ID.String(), "buyer_email": "dup@x.com", "is_bundle": "true",
		"bundle_product_ids": `["` + p2.ID.String() + `"]`,
	})

	_, err := f.uc.HandleEvent(ctx, ev)
	require.NoError(t, err)
	res, err := f.uc.HandleEvent(ctx, ev)
	require.NoError(t, err)

	assert.Empty(t, res.Fulfilled())
	for _, l := range res.Lines {
		assert.Equal(t, SkipDuplicate, l.Reason)
	}
	assert.Len(t, f.orders(t), 2)
	assert.Len(t, f.items(t), 2)
	f.uc.WaitForMail()
	assert.Equal(t, 1, f.mailer.count(), "no email for a delivery that fulfilled nothing")
}

func TestFulfillMissingProductSkip(t *testing.T) {
	f := newFixture(t)
	p1 := f.product(t, "kept", nil)
	gone := uuid.New()

	res, err := f.uc.HandleEvent(context.Background(), completedEvent("cs_m", 1998, map[string]string{
		"product_id": gone.String(), "buyer_email": "m@x.com", "is_bundle": "true",
		"bundle_product_ids": `["` + p1.ID.String() + `"]`,
	}))
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, SkipMissing, res.Lines[0].Reason)
	assert.Equal(t, LineFulfilled, res.Lines[1].Status)
	assert.False(t, res.NeedsRefund)

	orders := f.orders(t)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(999), orders[0].AmountCents)
}

func TestFulfillMissingProductAbort(t *testing.T) {
	f := newFixture(t)
	f.uc.MissingProducts = MissingProductAbort
	p1 := f.product(t, "kept", nil)
	gone := uuid.New()

	res, err := f.uc.HandleEvent(context.Background(), completedEvent("cs_a", 1998, map[string]string{
		"product_id": p1.ID.String(), "buyer_email": "m@x.com", "is_bundle": "true",
		"bundle_product_ids": `["` + gone.String() + `"]`,
	}))
	require.NoError(t, err)
	assert.True(t, res.NeedsRefund)
	assert.Empty(t, res.Fulfilled())
	assert.Equal(t, SkipAborted, res.Lines[0].Reason)
	assert.Equal(t, SkipMissing, res.Lines[1].Reason)
	assert.Empty(t, f.orders(t))
	f.uc.WaitForMail()
	assert.Zero(t, f.mailer.count())
}

func TestFulfillEmailFailureKeepsRecords(t *testing.T) {
	f := newFixture(t)
	f.mailer.fail = true
	p := f.product(t, "neon", nil)

	res, err := f.uc.HandleEvent(context.Background(), completedEvent("cs_f", 999, map[string]string{
		"product_id": p.ID.String(), "buyer_email": "f@x.com", "is_bundle": "false",
	}))
	require.NoError(t, err)
	assert.Len(t, res.Fulfilled(), 1)
	assert.Len(t, f.orders(t), 1)
	assert.Len(t, f.items(t), 1)
	f.uc.WaitForMail()
	assert.Zero(t, f.mailer.count())
}

// failingStore fails the nth Commit and passes every other call through.
type failingStore struct {
	domain.FulfillmentStore
	failOn int
	calls  int
}

func (s *failingStore) Commit(ctx context.Context, fl *domain.Fulfillment) error {
	s.calls++
	if s.calls == s.failOn {
		return errors.New("connection reset by peer")
	}
	return s.FulfillmentStore.Commit(ctx, fl)
}

func TestFulfillStorageFailureMidBundle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1, p2 := f.product(t, "one", nil), f.product(t, "two", nil)
	f.uc.Store = &failingStore{FulfillmentStore: f.store, failOn: 2}
	ev := completedEvent("cs_infra", 1500, map[string]string{
		"product_id": p1.ID.String(), "buyer_email": "i@x.com", "is_bundle": "true",
		"bundle_product_ids": `["` + p2.ID.String() + `"]`,
	})

	res, err := f.uc.HandleEvent(ctx, ev)
	require.Error(t, err)
	require.Len(t, res.Fulfilled(), 1)
	assert.Equal(t, p1.ID, res.Fulfilled()[0].ProductID)
	f.uc.WaitForMail()
	assert.Zero(t, f.mailer.count())
	require.Len(t, f.orders(t), 1)

	// provider redelivery
	res, err = f.uc.HandleEvent(ctx, ev)
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, SkipDuplicate, res.Lines[0].Reason)
	assert.Equal(t, LineFulfilled, res.Lines[1].Status)
	assert.Equal(t, p2.ID, res.Lines[1].ProductID)

	orders := f.orders(t)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, int64(750), o.AmountCents)
	}
	f.uc.WaitForMail()
	assert.Equal(t, 1, f.mailer.count())
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	f := newFixture(t)
	res, err := f.uc.HandleEvent(context.Background(), &domain.PaymentEvent{Type: "payment_intent.created"})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestParseMissingProductPolicy(t *testing.T) {
	assert.Equal(t, MissingProductAbort, ParseMissingProductPolicy(" ABORT "))
	assert.Equal(t, MissingProductSkip, ParseMissingProductPolicy(""))
	assert.Equal(t, MissingProductSkip, ParseMissingProductPolicy("whatever"))
}
