// Package core drives the telemetry and animation loops around the rotator controller.
package core

import (
	"context"
	"log/slog"
	"time"

	"rotorgo/pkg/config"
	"rotorgo/pkg/rotator"
)

// Observer reconciles telemetry into the displayed bearing.
type Observer interface {
	Observe(t rotator.Telemetry) rotator.Decision
}

// TelemetrySink is an interface for consumers of the telemetry stream.
type TelemetrySink interface {
	Update(t *rotator.Telemetry, d rotator.Decision)
	UpdateState(s rotator.State)
}

// Scheduler polls the rotator, feeds the controller and runs scheduled jobs.
type Scheduler struct {
	cfg       *config.Config
	client    rotator.Client
	observer  Observer
	sink      TelemetrySink
	jobs      []Job
	lastState rotator.State
}

// NewScheduler creates a new Scheduler. sink may be nil.
func NewScheduler(cfg *config.Config, client rotator.Client, observer Observer, sink TelemetrySink) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		client:   client,
		observer: observer,
		sink:     sink,
		jobs:     []Job{},
	}
}

// AddJob registers a job.
func (s *Scheduler) AddJob(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start runs the main loop. It blocks until context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	interval := time.Duration(s.cfg.Ticker.TelemetryLoop)
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Scheduler started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	state := s.client.GetState()
	if state != s.lastState {
		slog.Info("Rotator state changed", "from", s.lastState, "to", state)
		s.lastState = state
	}
	if s.sink != nil {
		s.sink.UpdateState(state)
	}

	// A disconnected rotator has no telemetry; the frame loop clears the beam
	if state != rotator.StateConnected {
		return
	}

	tel, err := s.client.GetTelemetry(ctx)
	if err != nil {
		slog.Debug("failed to read telemetry", "error", err)
		return
	}

	d := s.observer.Observe(tel)

	if s.sink != nil {
		s.sink.Update(&tel, d)
	}

	for _, job := range s.jobs {
		if job.ShouldFire(&tel) {
			go job.Run(ctx, &tel)
		}
	}
}
