package domain

import (
	"context"
	"time"
)

const EventCheckoutSessionCompleted = "checkout.session.completed"

// Metadata keys written at checkout and read back by the webhook.
const (
	MetaProductID        = "product_id"
	MetaBuyerEmail       = "buyer_email"
	MetaIsBundle         = "is_bundle"
	MetaBundleProductIDs = "bundle_product_ids"
)

// CheckoutSession is the provider-neutral view of a completed checkout.
type CheckoutSession struct {
	ID              string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	Metadata        map[string]string
	CreatedAt       time.Time
}

type PaymentEvent struct {
	ID      string
	Type    string
	Session *CheckoutSession
}

type CheckoutLineItem struct {
	Name       string
	ImageURL   string
	UnitAmount int64
}

type CheckoutSessionRequest struct {
	BuyerEmail string
	Currency   string
	LineItems  []CheckoutLineItem
	Metadata   map[string]string
	SuccessURL string
	CancelURL  string
}

type CheckoutSessionRef struct {
	ID  string
	URL string
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSessionRef, error)
	Refund(ctx context.Context, paymentIntentID string) error
}

// WebhookVerifier authenticates a raw webhook body. It must see the exact
// bytes received.
type WebhookVerifier interface {
	VerifyEvent(payload []byte, signatureHeader string) (*PaymentEvent, error)
}
