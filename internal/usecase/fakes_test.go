package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cratey/cratey/internal/adapters/repo/memory"
	"github.com/cratey/cratey/internal/domain"
	"github.com/cratey/cratey/internal/views"
)

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	fail bool
	sent []sentMail
}

func (m *fakeMailer) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeGateway struct {
	last     *domain.CheckoutSessionRequest
	refunded []string
	err      error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req domain.CheckoutSessionRequest) (*domain.CheckoutSessionRef, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.last = &req
	return &domain.CheckoutSessionRef{ID: "cs_test_123", URL: "https://checkout.stripe.test/cs_test_123"}, nil
}

func (g *fakeGateway) Refund(_ context.Context, pi string) error {
	if g.err != nil {
		return g.err
	}
	g.refunded = append(g.refunded, pi)
	return nil
}

type fixture struct {
	store    *memory.Store
	mailer   *fakeMailer
	notifier *Notifier
	artist   *domain.Artist
	uc       *FulfillmentUC
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tmpl, err := views.EmailTemplates()
	require.NoError(t, err)
	st := memory.New()
	m := &fakeMailer{}
	a := &domain.Artist{Name: "Night Drive", Slug: "night-drive", ThankYouNote: "Thanks for riding along."}
	require.NoError(t, st.Artists().Save(context.Background(), a))
	n := &Notifier{Mailer: m, Artists: st.Artists(), Tmpl: tmpl, BaseURL: "https://cratey.test"}
	uc := &FulfillmentUC{
		Products:        st.Products(),
		Library:         st.Library(),
		Store:           st,
		Notifier:        n,
		MissingProducts: MissingProductSkip,
	}
	t.Cleanup(uc.WaitForMail)
	return &fixture{
		store:    st,
		mailer:   m,
		notifier: n,
		artist:   a,
		uc:       uc,
	}
}

func (f *fixture) product(t *testing.T, title string, mutate func(p *domain.Product)) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:          uuid.New(),
		ArtistID:    f.artist.ID,
		ArtistName:  f.artist.Name,
		ArtistSlug:  f.artist.Slug,
		Title:       title,
		PriceCents:  999,
		EditionType: domain.EditionUnlimited,
		AudioURLs:   []string{"https://cdn.test/" + title + "/1.mp3", "https://cdn.test/" + title + "/2.mp3"},
		PreviewURLs: []string{"https://cdn.test/" + title + "/preview.mp3"},
		Active:      true,
		CreatedAt:   time.Now(),
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, f.store.Products().Save(context.Background(), p))
	return p
}

func (f *fixture) orders(t *testing.T) []domain.Order {
	t.Helper()
	list, err := f.store.Orders().List(context.Background(), domain.OrderFilter{})
	require.NoError(t, err)
	return list
}

func (f *fixture) items(t *testing.T) []domain.LibraryItem {
	t.Helper()
	list, err := f.store.Library().ListAll(context.Background())
	require.NoError(t, err)
	return list
}

func completedEvent(sessionID string, amount int64, md map[string]string) *domain.PaymentEvent {
	return &domain.PaymentEvent{
		ID:   "evt_" + sessionID,
		Type: domain.EventCheckoutSessionCompleted,
		Session: &domain.CheckoutSession{
			ID:              sessionID,
			PaymentIntentID: "pi_" + sessionID,
			AmountTotal:     amount,
			Currency:        "usd",
			Metadata:        md,
			CreatedAt:       time.Now(),
		},
	}
}
