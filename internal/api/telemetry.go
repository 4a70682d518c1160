package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"rotorgo/pkg/rotator"
)

// TelemetryResponse is the API response structure.
type TelemetryResponse struct {
	rotator.Telemetry
	Decision     rotator.Decision `json:"decision,omitempty"`
	RotatorState string           `json:"rotatorState"`
}

// TelemetryHandler keeps the latest raw rotator sample and how it was filtered.
type TelemetryHandler struct {
	mu        sync.RWMutex
	telemetry rotator.Telemetry
	decision  rotator.Decision
	state     rotator.State
}

func NewTelemetryHandler() *TelemetryHandler {
	return &TelemetryHandler{state: rotator.StateDisconnected}
}

// Update implements core.TelemetrySink.
func (h *TelemetryHandler) Update(t *rotator.Telemetry, d rotator.Decision) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.telemetry = *t
	h.decision = d
}

// UpdateState updates the rotator connection state.
func (h *TelemetryHandler) UpdateState(s rotator.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
}

func (h *TelemetryHandler) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	resp := TelemetryResponse{
		Telemetry:    h.telemetry,
		Decision:     h.decision,
		RotatorState: string(h.state),
	}
	h.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode telemetry response", "error", err)
	}
}
