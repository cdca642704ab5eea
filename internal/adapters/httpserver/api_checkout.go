package httpserver

import (
	"net/http"

	"github.com/cratey/cratey/internal/usecase"
)

type checkoutRequest struct {
	ProductIDs []string `json:"product_ids"`
	ProductID  string   `json:"product_id"`
	BuyerEmail string   `json:"buyer_email"`
	IsBundle   bool     `json:"is_bundle"`
}

func (s *Server) apiCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ids := req.ProductIDs
	if len(ids) == 0 && req.ProductID != "" {
		ids = []string{req.ProductID}
	}
	ref, err := s.checkout.CreateSession(r.Context(), usecase.CheckoutInput{
		ProductIDs: ids,
		BuyerEmail: req.BuyerEmail,
		IsBundle:   req.IsBundle,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]string{"session_id": ref.ID, "url": ref.URL})
}
