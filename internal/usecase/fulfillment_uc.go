package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cratey/cratey/internal/domain"
)

// MissingProductPolicy decides what happens when a purchased product id no
// longer resolves to a product.
type MissingProductPolicy string

const (
	MissingProductSkip  MissingProductPolicy = "skip"
	MissingProductAbort MissingProductPolicy = "abort"
)

func ParseMissingProductPolicy(s string) MissingProductPolicy {
	if strings.EqualFold(strings.TrimSpace(s), string(MissingProductAbort)) {
		return MissingProductAbort
	}
	return MissingProductSkip
}

type LineStatus string

const (
	LineFulfilled LineStatus = "fulfilled"
	LineSkipped   LineStatus = "skipped"
)

type SkipReason string

const (
	SkipMissing   SkipReason = "missing"
	SkipDuplicate SkipReason = "duplicate"
	SkipSoldOut   SkipReason = "sold_out"
	SkipAborted   SkipReason = "aborted"
)

// Purchase is a completed checkout session expanded into product ids.
type Purchase struct {
	SessionID       string
	PaymentIntentID string
	BuyerEmail      string
	ProductIDs      []uuid.UUID
	IsBundle        bool
	AmountTotal     int64
	Currency        string
	CreatedAt       time.Time
}

type LineResult struct {
	ProductID uuid.UUID
	Status    LineStatus
	Reason    SkipReason
	Product   *domain.Product
	Order     *domain.Order
	Item      *domain.LibraryItem
}

type FulfillmentResult struct {
	SessionID   string
	BuyerEmail  string
	IsBundle    bool
	Lines       []LineResult
	NeedsRefund bool
}

func (r *FulfillmentResult) Fulfilled() []LineResult {
	var out []LineResult
	for _, l := range r.Lines {
		if l.Status == LineFulfilled {
			out = append(out, l)
		}
	}
	return out
}

func (r *FulfillmentResult) Skipped() []LineResult {
	var out []LineResult
	for _, l := range r.Lines {
		if l.Status == LineSkipped {
			out = append(out, l)
		}
	}
	return out
}

// ExpandSession turns checkout metadata into a Purchase. Any missing or
// malformed field yields ErrMissingMetadata.
func ExpandSession(s *domain.CheckoutSession) (*Purchase, error) {
	if s == nil || s.Metadata == nil {
		return nil, domain.ErrMissingMetadata
	}
	md := s.Metadata
	email := strings.ToLower(strings.TrimSpace(md[domain.MetaBuyerEmail]))
	rawID := strings.TrimSpace(md[domain.MetaProductID])
	if email == "" || rawID == "" {
		return nil, domain.ErrMissingMetadata
	}
	first, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: product_id: %v", domain.ErrMissingMetadata, err)
	}

	p := &Purchase{
		SessionID:       s.ID,
		PaymentIntentID: s.PaymentIntentID,
		BuyerEmail:      email,
		ProductIDs:      []uuid.UUID{first},
		IsBundle:        md[domain.MetaIsBundle] == "true",
		AmountTotal:     s.AmountTotal,
		Currency:        strings.ToUpper(s.Currency),
		CreatedAt:       s.CreatedAt,
	}
	if !p.IsBundle {
		return p, nil
	}

	raw := strings.TrimSpace(md[domain.MetaBundleProductIDs])
	if raw == "" || raw == "null" {
		return p, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("%w: bundle_product_ids: %v", domain.ErrMissingMetadata, err)
	}
	for _, s := range ids {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: bundle_product_ids: %v", domain.ErrMissingMetadata, err)
		}
		p.ProductIDs = append(p.ProductIDs, id)
	}
	return p, nil
}

// DefaultMailTimeout bounds one purchase confirmation send.
const DefaultMailTimeout = 30 * time.Second

type FulfillmentUC struct {
	Products        domain.ProductRepo
	Library         domain.LibraryRepo
	Store           domain.FulfillmentStore
	Notifier        *Notifier
	MissingProducts MissingProductPolicy
	MailTimeout     time.Duration
	Now             func() time.Time

	mail sync.WaitGroup
}

// WaitForMail blocks until every dispatched confirmation email has finished.
func (uc *FulfillmentUC) WaitForMail() { uc.mail.Wait() }

// sendConfirmation mails the buyer off the request path. The send outlives the
// webhook request but not its own timeout.
func (uc *FulfillmentUC) sendConfirmation(ctx context.Context, res *FulfillmentResult) {
	if uc.Notifier == nil || res == nil || len(res.Fulfilled()) == 0 {
		return
	}
	timeout := uc.MailTimeout
	if timeout <= 0 {
		timeout = DefaultMailTimeout
	}
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	uc.mail.Add(1)
	go func() {
		defer uc.mail.Done()
		defer cancel()
		uc.Notifier.PurchaseConfirmation(mctx, res)
	}()
}

func (uc *FulfillmentUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

// HandleEvent processes one verified provider event. Events other than a
// completed checkout return a nil result.
func (uc *FulfillmentUC) HandleEvent(ctx context.Context, ev *domain.PaymentEvent) (*FulfillmentResult, error) {
	if ev == nil || ev.Type != domain.EventCheckoutSessionCompleted {
		return nil, nil
	}
	purchase, err := ExpandSession(ev.Session)
	if err != nil {
		return nil, err
	}
	res, err := uc.Fulfill(ctx, purchase)
	if err != nil {
		return res, err
	}
	uc.sendConfirmation(ctx, res)
	return res, nil
}

// Fulfill grants every product of the purchase in list order. Business-rule
// skips are recorded per line; infrastructure errors stop the loop.
func (uc *FulfillmentUC) Fulfill(ctx context.Context, p *Purchase) (*FulfillmentResult, error) {
	res := &FulfillmentResult{SessionID: p.SessionID, BuyerEmail: p.BuyerEmail, IsBundle: p.IsBundle}
	logger := log.With().Str("session_id", p.SessionID).Str("buyer", p.BuyerEmail).Logger()

	if uc.MissingProducts == MissingProductAbort {
		missing, err := uc.missingProducts(ctx, p.ProductIDs)
		if err != nil {
			return res, err
		}
		if len(missing) > 0 {
			gone := map[string]bool{}
			for _, m := range missing {
				gone[m] = true
			}
			for _, id := range p.ProductIDs {
				line := LineResult{ProductID: id, Status: LineSkipped, Reason: SkipAborted}
				if gone[id.String()] {
					line.Reason = SkipMissing
				}
				res.Lines = append(res.Lines, line)
			}
			res.NeedsRefund = true
			logger.Error().Strs("missing_products", missing).Int64("amount_total", p.AmountTotal).
				Msg("purchase references missing products, nothing fulfilled; manual refund required")
			return res, nil
		}
	}

	bundleShare := domain.EvenShare(p.AmountTotal, len(p.ProductIDs))
	for _, id := range p.ProductIDs {
		line, err := uc.fulfillOne(ctx, p, id, bundleShare)
		if err != nil {
			return res, fmt.Errorf("fulfill product %s: %w", id, err)
		}
		if line.Status == LineSkipped {
			ev := logger.Info()
			if line.Reason == SkipMissing {
				ev = logger.Warn()
			}
			ev.Str("product_id", id.String()).Str("reason", string(line.Reason)).Msg("purchase line skipped")
		} else {
			logger.Info().Str("product_id", id.String()).Str("order_id", line.Order.ID.String()).
				Int64("amount_cents", line.Order.AmountCents).Msg("purchase line fulfilled")
		}
		res.Lines = append(res.Lines, line)
	}
	return res, nil
}

func (uc *FulfillmentUC) missingProducts(ctx context.Context, ids []uuid.UUID) ([]string, error) {
	var missing []string
	for _, id := range ids {
		_, err := uc.Products.FindByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			missing = append(missing, id.String())
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return missing, nil
}

func (uc *FulfillmentUC) fulfillOne(ctx context.Context, p *Purchase, id uuid.UUID, bundleShare int64) (LineResult, error) {
	line := LineResult{ProductID: id, Status: LineSkipped}

	product, err := uc.Products.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		line.Reason = SkipMissing
		return line, nil
	}
	if err != nil {
		return line, err
	}
	line.Product = product

	owned, err := uc.Library.Exists(ctx, p.BuyerEmail, id)
	if err != nil {
		return line, err
	}
	if owned {
		line.Reason = SkipDuplicate
		return line, nil
	}
	if product.SoldOut() {
		line.Reason = SkipSoldOut
		return line, nil
	}

	price := product.Pricing().PriceAt(p.CreatedAt)
	if p.IsBundle {
		price = bundleShare
	}
	split := domain.SplitRevenue(price)
	now := uc.now()

	order := &domain.Order{
		ID:                  uuid.New(),
		Status:              domain.OrderStatusPaid,
		BuyerEmail:          p.BuyerEmail,
		ArtistID:            product.ArtistID,
		ProductID:           product.ID,
		ProductTitle:        product.Title,
		ArtistName:          product.ArtistName,
		AmountCents:         split.AmountCents,
		PlatformFeeCents:    split.PlatformFeeCents,
		ArtistPayoutCents:   split.ArtistPayoutCents,
		Currency:            p.Currency,
		StripeSessionID:     p.SessionID,
		StripePaymentIntent: p.PaymentIntentID,
	}
	if product.IsLimited() {
		order.EditionName = product.EditionName
	}
	item := &domain.LibraryItem{
		ID:           uuid.New(),
		BuyerEmail:   p.BuyerEmail,
		ProductID:    product.ID,
		OrderID:      order.ID,
		ProductTitle: product.Title,
		ArtistName:   product.ArtistName,
		ArtistSlug:   product.ArtistSlug,
		CoverURL:     product.CoverURL,
		AudioURLs:    append([]string(nil), product.AudioURLs...),
		TrackNames:   append([]string(nil), product.TrackNames...),
		AccessToken:  uuid.NewString(),
		EditionName:  order.EditionName,
		PurchasedAt:  now,
	}

	err = uc.Store.Commit(ctx, &domain.Fulfillment{Order: order, Item: item, Product: product})
	switch {
	case errors.Is(err, domain.ErrAlreadyOwned):
		line.Reason = SkipDuplicate
		return line, nil
	case errors.Is(err, domain.ErrSoldOut):
		line.Reason = SkipSoldOut
		return line, nil
	case errors.Is(err, domain.ErrNotFound):
		line.Reason = SkipMissing
		return line, nil
	case err != nil:
		return line, err
	}

	line.Status = LineFulfilled
	line.Order = order
	line.Item = item
	return line, nil
}
