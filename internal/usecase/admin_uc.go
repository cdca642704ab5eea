package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cratey/cratey/internal/domain"
)

// OrderExporter writes an orders report.
type OrderExporter interface {
	WriteOrders(w io.Writer, orders []domain.Order) error
}

type AdminUC struct {
	Orders   domain.OrderRepo
	Gateway  domain.PaymentGateway
	Exporter OrderExporter
	Backups  domain.BackupSource
	Now      func() time.Time
}

// Backup returns a copy of every stored entity.
func (uc *AdminUC) Backup(ctx context.Context) (*domain.Backup, error) {
	if uc.Backups == nil {
		return nil, domain.ErrNotConfigured
	}
	b, err := uc.Backups.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	log.Info().Int("records", b.Records()).Msg("backup created")
	return b, nil
}

func (uc *AdminUC) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	if f.Limit == 0 {
		f.Limit = 500
	}
	return uc.Orders.List(ctx, f)
}

func (uc *AdminUC) ExportOrders(ctx context.Context, w io.Writer, f domain.OrderFilter) error {
	if uc.Exporter == nil {
		return domain.ErrNotConfigured
	}
	f.Limit = -1
	list, err := uc.Orders.List(ctx, f)
	if err != nil {
		return err
	}
	return uc.Exporter.WriteOrders(w, list)
}

// Refund returns the captured payment to the buyer and marks the order
// refunded. Counters and edition numbers are left as they are.
func (uc *AdminUC) Refund(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.OrderStatusPaid {
		return nil, fmt.Errorf("%w: order is %s", domain.ErrInvalidInput, o.Status)
	}
	if o.StripePaymentIntent == "" {
		return nil, fmt.Errorf("%w: order has no payment intent", domain.ErrInvalidInput)
	}
	if uc.Gateway == nil {
		return nil, domain.ErrNotConfigured
	}
	if err := uc.Gateway.Refund(ctx, o.StripePaymentIntent); err != nil {
		return nil, fmt.Errorf("refund %s: %w", o.StripePaymentIntent, err)
	}
	now := time.Now()
	if uc.Now != nil {
		now = uc.Now()
	}
	if err := uc.Orders.MarkRefunded(ctx, id, now); err != nil {
		return nil, err
	}
	log.Info().Str("order_id", id.String()).Str("payment_intent", o.StripePaymentIntent).
		Int64("amount_cents", o.AmountCents).Msg("order refunded")
	return uc.Orders.FindByID(ctx, id)
}

type ReaccessReport struct {
	Buyers int
	Sent   int
	Failed int
}

type ReaccessUC struct {
	Library  domain.LibraryRepo
	Notifier *Notifier
}

// Run sends one reminder per buyer. A failed send is logged and counted and
// the batch moves on.
func (uc *ReaccessUC) Run(ctx context.Context) (ReaccessReport, error) {
	var rep ReaccessReport
	items, err := uc.Library.ListAll(ctx)
	if err != nil {
		return rep, err
	}
	var order []string
	byBuyer := map[string][]domain.LibraryItem{}
	for _, it := range items {
		if _, ok := byBuyer[it.BuyerEmail]; !ok {
			order = append(order, it.BuyerEmail)
		}
		byBuyer[it.BuyerEmail] = append(byBuyer[it.BuyerEmail], it)
	}
	rep.Buyers = len(order)
	for _, email := range order {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := uc.Notifier.Reaccess(ctx, email, byBuyer[email]); err != nil {
			rep.Failed++
			log.Error().Err(err).Str("buyer", email).Msg("reaccess email failed")
			continue
		}
		rep.Sent++
	}
	return rep, nil
}
