package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"rotorgo/pkg/geo"
	"rotorgo/pkg/model"
	"rotorgo/pkg/store"
)

// QSOHandler lists imported contacts as seen from the station.
type QSOHandler struct {
	store  store.QSOStore
	origin geo.Point
}

func NewQSOHandler(s store.QSOStore, origin geo.Point) *QSOHandler {
	return &QSOHandler{store: s, origin: origin}
}

func (h *QSOHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	qs, err := h.store.RecentQSOs(r.Context(), parseLimit(r, 100, 1000))
	if err != nil {
		slog.Error("Failed to load QSOs", "error", err)
		http.Error(w, "failed to load qsos", http.StatusInternalServerError)
		return
	}
	if qs == nil {
		qs = []*model.QSO{}
	}
	withStationView(h.origin, qs)
	writeJSON(w, http.StatusOK, qs)
}

func (h *QSOHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	q, err := h.store.GetQSO(r.Context(), id)
	if err != nil {
		slog.Error("Failed to load QSO", "id", id, "error", err)
		http.Error(w, "failed to load qso", http.StatusInternalServerError)
		return
	}
	if q == nil {
		http.Error(w, "qso not found", http.StatusNotFound)
		return
	}
	withStationView(h.origin, []*model.QSO{q})
	writeJSON(w, http.StatusOK, q)
}
