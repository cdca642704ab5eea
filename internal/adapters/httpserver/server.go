package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cratey/cratey/internal/domain"
	"github.com/cratey/cratey/internal/usecase"
)

type Deps struct {
	Verifier    domain.WebhookVerifier
	Fulfillment *usecase.FulfillmentUC
	Checkout    *usecase.CheckoutUC
	Library     *usecase.LibraryUC
	Products    *usecase.ProductUC
	Artists     *usecase.ArtistUC
	Admin       *usecase.AdminUC
	AdminKey    string
}

type Server struct {
	verifier    domain.WebhookVerifier
	fulfillment *usecase.FulfillmentUC
	checkout    *usecase.CheckoutUC
	library     *usecase.LibraryUC
	products    *usecase.ProductUC
	artists     *usecase.ArtistUC
	admin       *usecase.AdminUC
	adminKey    string
}

func New(d Deps) http.Handler {
	s := &Server{
		verifier:    d.Verifier,
		fulfillment: d.Fulfillment,
		checkout:    d.Checkout,
		library:     d.Library,
		products:    d.Products,
		artists:     d.Artists,
		admin:       d.Admin,
		adminKey:    d.AdminKey,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(Recovery)
	r.Use(Logging)
	s.routes(r)
	return r
}

func (s *Server) routes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/webhooks/stripe", s.webhookStripe)
	r.Get("/media", s.handleMedia)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", s.apiProducts)
		r.Get("/products/{id}", s.apiProductByID)
		r.Post("/checkout", s.apiCheckout)
		r.Get("/artists", s.apiArtists)
		r.Get("/artists/{slug}", s.apiArtistBySlug)

		r.Route("/library", func(r chi.Router) {
			r.Get("/", s.apiLibrary)
			r.Post("/verify", s.apiLibraryVerify)
			r.Post("/audio-url", s.apiLibraryAudioURL)
			r.Post("/access-link", s.apiLibraryAccessLink)
			r.Get("/{id}/access", s.apiLibraryItemAccess)
			r.Post("/{id}/download", s.apiLibraryDownload)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminOnly(s.adminKey))
		r.Get("/orders", s.adminOrders)
		r.Get("/orders/export.xlsx", s.adminOrdersExport)
		r.Post("/orders/{id}/refund", s.adminRefund)
		r.Get("/artists/{id}/stats", s.adminArtistStats)
		r.Get("/backup", s.adminBackup)
	})
}
