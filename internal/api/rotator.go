package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"rotorgo/pkg/geo"
	"rotorgo/pkg/model"
	"rotorgo/pkg/rotator"
	"rotorgo/pkg/store"
)

// Commander is the controller surface the API drives.
type Commander interface {
	IssueCommand(ctx context.Context, bearing float64, source string) (*rotator.CommandRecord, error)
	Status() rotator.Status
}

// RotatorHandler serves rotator status and accepts commands.
type RotatorHandler struct {
	ctrl    Commander
	history store.CommandStore
	qsos    store.QSOStore
	origin  geo.Point
}

// NewRotatorHandler creates a handler. history and qsos may be nil.
func NewRotatorHandler(ctrl Commander, history store.CommandStore, qsos store.QSOStore, origin geo.Point) *RotatorHandler {
	return &RotatorHandler{ctrl: ctrl, history: history, qsos: qsos, origin: origin}
}

// StatusResponse is the body of GET /api/rotator.
type StatusResponse struct {
	rotator.Status
	Origin geo.Point `json:"origin"`
}

// CommandRequest is the body of POST /api/rotator/command.
type CommandRequest struct {
	Bearing *float64 `json:"bearing"`
	Source  string   `json:"source"`
}

// PointRequest is the body of POST /api/rotator/point. Exactly one target form is used,
// checked in the order grid, qso_id, lat/lon.
type PointRequest struct {
	Grid   string   `json:"grid,omitempty"`
	QSOID  int64    `json:"qso_id,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
	Source string   `json:"source,omitempty"`
}

// CommandResponse is returned for accepted commands.
type CommandResponse struct {
	Command    *rotator.CommandRecord `json:"command"`
	Target     *geo.Point             `json:"target,omitempty"`
	DistanceKm float64                `json:"distance_km,omitempty"`
}

func (h *RotatorHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: h.ctrl.Status(), Origin: h.origin})
}

func (h *RotatorHandler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Bearing == nil {
		http.Error(w, "bearing is required", http.StatusBadRequest)
		return
	}
	if req.Source == "" {
		req.Source = "api"
	}

	rec, err := h.ctrl.IssueCommand(r.Context(), *req.Bearing, req.Source)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, CommandResponse{Command: rec})
}

func (h *RotatorHandler) HandlePoint(w http.ResponseWriter, r *http.Request) {
	var req PointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	target, status, err := h.resolveTarget(r.Context(), &req)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	source := req.Source
	if source == "" {
		source = "point"
	}
	bearing := geo.BearingBetween(h.origin, target)
	rec, err := h.ctrl.IssueCommand(r.Context(), bearing, source)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, CommandResponse{
		Command:    rec,
		Target:     &target,
		DistanceKm: math.Round(geo.Distance(h.origin, target)),
	})
}

var errNoTarget = errors.New("one of grid, qso_id or lat/lon is required")

func (h *RotatorHandler) resolveTarget(ctx context.Context, req *PointRequest) (geo.Point, int, error) {
	switch {
	case req.Grid != "":
		p, err := geo.ParseLocator(req.Grid)
		if err != nil {
			return geo.Point{}, http.StatusBadRequest, err
		}
		return p, 0, nil

	case req.QSOID != 0:
		if h.qsos == nil {
			return geo.Point{}, http.StatusServiceUnavailable, errors.New("qso log not available")
		}
		q, err := h.qsos.GetQSO(ctx, req.QSOID)
		if err != nil {
			slog.Error("Failed to load QSO", "id", req.QSOID, "error", err)
			return geo.Point{}, http.StatusInternalServerError, errors.New("failed to load qso")
		}
		if q == nil {
			return geo.Point{}, http.StatusNotFound, errors.New("qso not found")
		}
		if !q.HasPosition {
			return geo.Point{}, http.StatusUnprocessableEntity, errors.New("qso has no known position")
		}
		return geo.Point{Lat: q.Lat, Lon: q.Lon}, 0, nil

	case req.Lat != nil && req.Lon != nil:
		p := geo.Point{Lat: *req.Lat, Lon: *req.Lon}
		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			return geo.Point{}, http.StatusBadRequest, errors.New("lat/lon out of range")
		}
		return p, 0, nil
	}
	return geo.Point{}, http.StatusBadRequest, errNoTarget
}

func (h *RotatorHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, []*rotator.CommandRecord{})
		return
	}
	recs, err := h.history.RecentCommands(r.Context(), parseLimit(r, 50, 500))
	if err != nil {
		slog.Error("Failed to load command history", "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []*rotator.CommandRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// writeCommandError maps controller errors to HTTP status codes.
func writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rotator.ErrInvalidBearing):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, rotator.ErrNotConnected):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		slog.Error("Rotator command failed", "error", err)
		http.Error(w, "command failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// parseLimit reads ?limit=N, falling back to def and capping at max.
func parseLimit(r *http.Request, def, maxLimit int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, maxLimit)
}

// withStationView annotates QSOs with bearing and distance from origin.
func withStationView(origin geo.Point, qs []*model.QSO) {
	for _, q := range qs {
		if !q.HasPosition {
			continue
		}
		p := geo.Point{Lat: q.Lat, Lon: q.Lon}
		q.BearingDeg = geo.BearingBetween(origin, p)
		q.DistanceKm = math.Round(geo.Distance(origin, p))
	}
}
