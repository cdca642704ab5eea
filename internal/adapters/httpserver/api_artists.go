package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cratey/cratey/internal/domain"
)

func (s *Server) apiArtists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit > 100 {
		limit = 100
	}
	list, err := s.artists.List(r.Context(), domain.ArtistFilter{Query: q.Get("q"), Limit: limit})
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]artistJSON, 0, len(list))
	for i := range list {
		a := toArtistJSON(&list[i].Artist)
		n := list[i].ProductCount
		a.ProductCount = &n
		out = append(out, a)
	}
	writeJSON(w, http.StatusOK, map[string]any{"artists": out, "total": len(out)})
}

func (s *Server) apiArtistBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := s.artists.Profile(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	now := time.Now()
	products := make([]productJSON, 0, len(p.Products))
	for i := range p.Products {
		products = append(products, toProductJSON(&p.Products[i], now))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"artist":   toArtistJSON(p.Artist),
		"products": products,
	})
}
