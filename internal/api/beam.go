package api

import (
	"log/slog"
	"net/http"

	"rotorgo/pkg/core"
)

// FrameProvider returns the most recent rendered frame.
type FrameProvider interface {
	Latest() *core.Frame
}

// BeamHandler exposes the current beam geometry.
type BeamHandler struct {
	frames FrameProvider
}

func NewBeamHandler(frames FrameProvider) *BeamHandler {
	return &BeamHandler{frames: frames}
}

// Handle serves the beam as GeoJSON, or the raw frame with ?format=frame.
func (h *BeamHandler) Handle(w http.ResponseWriter, r *http.Request) {
	f := h.frames.Latest()
	if f == nil {
		http.Error(w, "no frame rendered yet", http.StatusServiceUnavailable)
		return
	}

	if r.URL.Query().Get("format") == "frame" {
		writeJSON(w, http.StatusOK, f)
		return
	}

	data, err := f.Beam.GeoJSON().MarshalJSON()
	if err != nil {
		slog.Error("Failed to encode beam", "error", err)
		http.Error(w, "encoding error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}
