package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/cratey/cratey/internal/domain"
)

const maxWebhookBody = 1 << 20

// webhookStripe verifies the raw body before anything else reads it. Once an
// event is authentic every business outcome answers 200 so Stripe stops
// retrying; only infrastructure failures answer 500.
func (s *Server) webhookStripe(w http.ResponseWriter, r *http.Request) {
	if s.verifier == nil || s.fulfillment == nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("Stripe webhook not configured"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Warn().Err(err).Msg("stripe webhook body read")
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid payload"))
		return
	}

	ev, err := s.verifier.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotConfigured):
			log.Error().Msg("stripe webhook secret missing")
			writeJSON(w, http.StatusInternalServerError, errorBody("Stripe webhook not configured"))
		case errors.Is(err, domain.ErrMissingMetadata):
			writeJSON(w, http.StatusBadRequest, errorBody("Missing metadata"))
		default:
			log.Warn().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("stripe webhook signature rejected")
			writeJSON(w, http.StatusBadRequest, errorBody("Invalid signature"))
		}
		return
	}

	res, err := s.fulfillment.HandleEvent(r.Context(), ev)
	if err != nil {
		if errors.Is(err, domain.ErrMissingMetadata) {
			log.Warn().Err(err).Str("event_id", ev.ID).Msg("checkout session without usable metadata")
			writeJSON(w, http.StatusBadRequest, errorBody("Missing metadata"))
			return
		}
		log.Error().Err(err).Str("event_id", ev.ID).Msg("fulfillment failed")
		writeJSON(w, http.StatusInternalServerError, errorBody("Fulfillment failed"))
		return
	}
	if res != nil {
		log.Info().Str("event_id", ev.ID).Str("session_id", res.SessionID).
			Int("fulfilled", len(res.Fulfilled())).Int("skipped", len(res.Skipped())).
			Bool("needs_refund", res.NeedsRefund).Msg("checkout session processed")
	} else {
		log.Debug().Str("event_id", ev.ID).Str("type", ev.Type).Msg("stripe event ignored")
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
