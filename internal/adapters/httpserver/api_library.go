package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) apiLibrary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.library.List(r.Context(), q.Get("email"), q.Get("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]libraryItemJSON, 0, len(items))
	for i := range items {
		out = append(out, toLibraryItemJSON(&items[i]))
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) apiLibraryVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		ProductID string `json:"product_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]bool{"hasAccess": false})
		return
	}
	ok, err := s.library.Owns(r.Context(), req.Email, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hasAccess": ok})
}

func (s *Server) apiLibraryItemAccess(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("Not found"))
		return
	}
	it, err := s.library.Access(r.Context(), id, r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, toLibraryItemJSON(it))
}

func (s *Server) apiLibraryDownload(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("Not found"))
		return
	}
	n, err := s.library.RecordDownload(r.Context(), id, r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"download_count": n})
}

func (s *Server) apiLibraryAudioURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BuyerEmail string `json:"buyer_email"`
		ProductID  string `json:"product_id"`
		TrackIndex int    `json:"track_index"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := uuid.Parse(req.ProductID)
	if err != nil || req.BuyerEmail == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Missing required fields"))
		return
	}
	signed, err := s.library.AudioURL(r.Context(), req.BuyerEmail, id, req.TrackIndex)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"url": signed.URL, "expires_in": signed.ExpiresIn})
}

func (s *Server) apiLibraryAccessLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.library.RequestAccessLink(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Library access link sent"})
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	src, err := s.library.ResolveMedia(q.Get("src"), q.Get("expires"), q.Get("sig"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "private, no-store")
	http.Redirect(w, r, src, http.StatusFound)
}
