package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"rotorgo/pkg/version"
)

// Handlers groups the endpoint handlers for NewServer. Nil QSO disables /api/qso.
type Handlers struct {
	Telemetry *TelemetryHandler
	Rotator   *RotatorHandler
	Beam      *BeamHandler
	QSO       *QSOHandler
	Hub       *Hub
	StaticDir string
}

// NewServer creates and configures the HTTP server.
// shutdown is called from POST /api/shutdown.
func NewServer(addr string, h Handlers, shutdown func()) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewMux(h, shutdown),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers every route. It is separate from NewServer for tests.
func NewMux(h Handlers, shutdown func()) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	if h.Telemetry != nil {
		mux.HandleFunc("GET /api/telemetry", h.Telemetry.handleTelemetry)
	}

	if h.Rotator != nil {
		mux.HandleFunc("GET /api/rotator", h.Rotator.HandleStatus)
		mux.HandleFunc("POST /api/rotator/command", h.Rotator.HandleCommand)
		mux.HandleFunc("POST /api/rotator/point", h.Rotator.HandlePoint)
		mux.HandleFunc("GET /api/rotator/history", h.Rotator.HandleHistory)
	}

	if h.Beam != nil {
		mux.HandleFunc("GET /api/beam", h.Beam.Handle)
	}

	if h.QSO != nil {
		mux.HandleFunc("GET /api/qso", h.QSO.HandleList)
		mux.HandleFunc("GET /api/qso/{id}", h.QSO.HandleGet)
	}

	if h.Hub != nil {
		mux.HandleFunc("GET /ws", h.Hub.ServeWS)
	}

	if shutdown != nil {
		mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
			slog.Info("Graceful shutdown initiated via API")
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("Shutting down...")); err != nil {
				slog.Error("Failed to write shutdown response", "error", err)
			}
			// Let the response flush first
			go func() {
				time.Sleep(100 * time.Millisecond)
				shutdown()
			}()
		})
	}

	if h.StaticDir != "" {
		mux.Handle("/", http.FileServer(&spaFileSystem{root: http.Dir(h.StaticDir)}))
	}

	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
