package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cratey/cratey/internal/domain"
)

func orderFilterFrom(r *http.Request) domain.OrderFilter {
	q := r.URL.Query()
	f := domain.OrderFilter{
		BuyerEmail: q.Get("email"),
		Status:     domain.OrderStatus(q.Get("status")),
	}
	if raw := q.Get("artist_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			f.ArtistID = &id
		}
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		f.Limit = n
	}
	return f
}

func (s *Server) adminOrders(w http.ResponseWriter, r *http.Request) {
	list, err := s.admin.ListOrders(r.Context(), orderFilterFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]orderJSON, 0, len(list))
	for i := range list {
		out = append(out, toOrderJSON(&list[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out, "count": len(out)})
}

func (s *Server) adminOrdersExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.admin.ExportOrders(r.Context(), &buf, orderFilterFrom(r)); err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("cratey-orders-%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) adminRefund(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("Not found"))
		return
	}
	o, err := s.admin.Refund(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderJSON(o))
}

func (s *Server) adminArtistStats(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("Not found"))
		return
	}
	st, err := s.artists.Stats(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toArtistStatsJSON(st))
}

func (s *Server) adminBackup(w http.ResponseWriter, r *http.Request) {
	b, err := s.admin.Backup(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("cratey-backup-%s.json", b.CreatedAt.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	writeJSON(w, http.StatusOK, toBackupJSON(b))
}
