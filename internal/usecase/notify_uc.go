package usecase

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cratey/cratey/internal/domain"
)

// Notifier renders and sends buyer emails. Every send is best-effort: errors
// are logged and never returned to the purchase flow.
type Notifier struct {
	Mailer  domain.Mailer
	Artists domain.ArtistRepo
	Tmpl    *template.Template
	BaseURL string
}

type purchaseLine struct {
	Title         string
	ArtistName    string
	EditionName   string
	EditionNumber *int
	AmountCents   int64
}

type purchaseEmail struct {
	Year            int
	IsBundle        bool
	DiscountPercent int
	Lines           []purchaseLine
	TotalCents      int64
	ThankYouNote    string
	LibraryURL      string
}

func (n *Notifier) libraryURL(email string) string {
	return strings.TrimRight(n.BaseURL, "/") + "/library?email=" + url.QueryEscape(email)
}

// PurchaseConfirmation sends one email covering every fulfilled line of the
// result. Nothing is sent when no line was fulfilled.
func (n *Notifier) PurchaseConfirmation(ctx context.Context, res *FulfillmentResult) {
	if res == nil {
		return
	}
	fulfilled := res.Fulfilled()
	if len(fulfilled) == 0 {
		return
	}
	logger := log.With().Str("session_id", res.SessionID).Str("buyer", res.BuyerEmail).Logger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("purchase email panicked")
		}
	}()

	data := purchaseEmail{
		Year:       time.Now().Year(),
		IsBundle:   res.IsBundle,
		LibraryURL: n.libraryURL(res.BuyerEmail),
	}
	for _, l := range fulfilled {
		data.Lines = append(data.Lines, purchaseLine{
			Title:         l.Order.ProductTitle,
			ArtistName:    l.Order.ArtistName,
			EditionName:   l.Order.EditionName,
			EditionNumber: l.Order.EditionNumber,
			AmountCents:   l.Order.AmountCents,
		})
		data.TotalCents += l.Order.AmountCents
		if l.Product != nil && l.Product.BundleDiscountPercent > data.DiscountPercent {
			data.DiscountPercent = l.Product.BundleDiscountPercent
		}
	}
	if n.Artists != nil {
		a, err := n.Artists.FindByID(ctx, fulfilled[0].Order.ArtistID)
		if err != nil {
			logger.Warn().Err(err).Msg("artist lookup for thank-you note failed")
		} else {
			data.ThankYouNote = a.ThankYouNote
		}
	}

	subject := "Your CRATEY purchase: " + fulfilled[0].Order.ProductTitle
	if len(fulfilled) > 1 {
		subject = fmt.Sprintf("Your CRATEY purchase: %d items", len(fulfilled))
	}
	if err := n.send(ctx, res.BuyerEmail, subject, "purchase_confirmation.html", data); err != nil {
		logger.Error().Err(err).Msg("purchase confirmation email failed")
		return
	}
	logger.Info().Int("items", len(fulfilled)).Msg("purchase confirmation sent")
}

// LibraryAccess sends the magic link for a freshly issued access token.
func (n *Notifier) LibraryAccess(ctx context.Context, email, token string, count int) error {
	access := n.libraryURL(email) + "&token=" + url.QueryEscape(token)
	data := map[string]any{
		"Year":      time.Now().Year(),
		"Count":     count,
		"AccessURL": access,
	}
	return n.send(ctx, email, "Access Your CRATEY Music Library", "library_access.html", data)
}

// Reaccess reminds a buyer that their purchases are still available.
func (n *Notifier) Reaccess(ctx context.Context, email string, items []domain.LibraryItem) error {
	data := map[string]any{
		"Year":       time.Now().Year(),
		"Items":      items,
		"LibraryURL": n.libraryURL(email),
	}
	return n.send(ctx, email, "Your CRATEY music is still yours", "reaccess.html", data)
}

func (n *Notifier) send(ctx context.Context, to, subject, tmpl string, data any) error {
	if n.Mailer == nil || n.Tmpl == nil {
		return domain.ErrNotConfigured
	}
	var buf bytes.Buffer
	if err := n.Tmpl.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return fmt.Errorf("render %s: %w", tmpl, err)
	}
	return n.Mailer.SendEmail(ctx, to, subject, buf.String())
}
