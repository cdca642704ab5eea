package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/cratey/cratey/internal/domain"
)

// Gateway talks to Stripe Checkout. Either key may be empty; the calls that
// need it then fail with domain.ErrNotConfigured.
type Gateway struct {
	api           *client.API
	webhookSecret string
}

func NewGateway(secretKey, webhookSecret string) *Gateway {
	g := &Gateway{webhookSecret: webhookSecret}
	if secretKey != "" {
		sc := &client.API{}
		sc.Init(secretKey, nil)
		g.api = sc
	}
	return g
}

func NewGatewayWithBackends(secretKey, webhookSecret string, backends *stripe.Backends) *Gateway {
	sc := &client.API{}
	sc.Init(secretKey, backends)
	return &Gateway{api: sc, webhookSecret: webhookSecret}
}

func (g *Gateway) WebhookConfigured() bool { return g.webhookSecret != "" }

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req domain.CheckoutSessionRequest) (*domain.CheckoutSessionRef, error) {
	if g.api == nil {
		return nil, domain.ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.BuyerEmail),
		SuccessURL:    stripe.String(req.SuccessURL),
		CancelURL:     stripe.String(req.CancelURL),
	}
	for _, li := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripe.String(li.Name)}
		if li.ImageURL != "" {
			product.Images = []*string{stripe.String(li.ImageURL)}
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(1),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return &domain.CheckoutSessionRef{ID: s.ID, URL: s.URL}, nil
}

func (g *Gateway) Refund(ctx context.Context, paymentIntentID string) error {
	if g.api == nil {
		return domain.ErrNotConfigured
	}
	params := &stripe.RefundParams{PaymentIntent: stripe.String(paymentIntentID)}
	params.Context = ctx
	if _, err := g.api.Refunds.New(params); err != nil {
		return mapStripeError(err)
	}
	return nil
}

// VerifyEvent checks the Stripe-Signature header against the exact payload
// and decodes checkout sessions. Other event types come back without a
// session.
func (g *Gateway) VerifyEvent(payload []byte, signatureHeader string) (*domain.PaymentEvent, error) {
	if g.webhookSecret == "" {
		return nil, domain.ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := &domain.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != domain.EventCheckoutSessionCompleted || event.Data == nil {
		return out, nil
	}
	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("%w: decode checkout session: %v", domain.ErrMissingMetadata, err)
	}
	out.Session = &domain.CheckoutSession{
		ID:          s.ID,
		AmountTotal: s.AmountTotal,
		Currency:    string(s.Currency),
		Metadata:    s.Metadata,
		CreatedAt:   time.Unix(s.Created, 0),
	}
	if s.PaymentIntent != nil {
		out.Session.PaymentIntentID = s.PaymentIntent.ID
	}
	return out, nil
}

func mapStripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		if se.Code != "" {
			return fmt.Errorf("stripe %s (%s): %s", se.Type, se.Code, se.Msg)
		}
		return fmt.Errorf("stripe %s: %s", se.Type, se.Msg)
	}
	return fmt.Errorf("stripe: %w", err)
}
