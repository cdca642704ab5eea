package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cratey/cratey/internal/domain"
)

func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	if size > 100 {
		size = 100
	}
	f := domain.ProductFilter{
		Genre:    q.Get("genre"),
		Query:    q.Get("q"),
		Sort:     q.Get("sort"),
		Page:     page,
		PageSize: size,
	}
	if raw := q.Get("artist_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid artist_id"))
			return
		}
		f.ArtistID = &id
	}
	list, total, err := s.products.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	now := time.Now()
	items := make([]productJSON, 0, len(list))
	for i := range list {
		items = append(items, toProductJSON(&list[i], now))
	}
	if page <= 0 {
		page = 1
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "page": page})
}

func (s *Server) apiProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("Not found"))
		return
	}
	v, err := s.products.Get(r.Context(), id, r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDetailJSON(v, time.Now()))
}
