package rotator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"rotorgo/pkg/geo"
	"rotorgo/pkg/logging"
)

// CommandRecord describes one issued command.
type CommandRecord struct {
	ID       string    `json:"id"`
	Bearing  float64   `json:"bearing"`
	Source   string    `json:"source"`
	IssuedAt time.Time `json:"issuedAt"`
}

// CommandRecorder persists issued commands.
type CommandRecorder interface {
	RecordCommand(ctx context.Context, rec *CommandRecord) error
}

// ControllerConfig holds the tunables for a Controller.
type ControllerConfig struct {
	InitialBearing float64
	Thresholds     Thresholds
	CommandTimeout time.Duration
}

// Status is a point-in-time view of the controller for API consumers.
type Status struct {
	Displayed   float64          `json:"displayed"`
	Phase       Phase            `json:"phase"`
	State       State            `json:"state"`
	Telemetry   *Sample          `json:"telemetry,omitempty"`
	LastCommand *CommandRecord   `json:"lastCommand,omitempty"`
	Decisions   map[Decision]int `json:"decisions"`
}

// Controller owns the shared Reconciler and forwards commands to the rotator.
// Every panel reads the same displayed bearing from it.
type Controller struct {
	mu          sync.Mutex
	rec         *Reconciler
	client      Client
	recorder    CommandRecorder
	logger      *slog.Logger
	timeout     time.Duration
	now         func() time.Time
	lastSample  *Sample
	lastCommand *CommandRecord
	decisions   map[Decision]int

	// sendMu serializes Client.Command so the rotator sees commands in issue order
	sendMu   sync.Mutex
	inflight sync.WaitGroup
}

// NewController creates a controller. recorder may be nil.
func NewController(cfg ControllerConfig, client Client, recorder CommandRecorder, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.CommandTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Controller{
		rec:       NewReconciler(geo.NormalizeBearing(cfg.InitialBearing), cfg.Thresholds),
		client:    client,
		recorder:  recorder,
		logger:    logger,
		timeout:   timeout,
		now:       time.Now,
		decisions: make(map[Decision]int),
	}
}

// IssueCommand displays bearing immediately and dispatches it to the rotator without waiting.
// Bearings outside [0, 360) are normalized; NaN and Inf are rejected. A command still
// waiting to be sent when a newer one arrives is dropped.
func (c *Controller) IssueCommand(ctx context.Context, bearing float64, source string) (*CommandRecord, error) {
	if math.IsNaN(bearing) || math.IsInf(bearing, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBearing, bearing)
	}
	if c.client.GetState() != StateConnected {
		return nil, ErrNotConnected
	}
	if source == "" {
		source = "unknown"
	}

	b := geo.NormalizeBearing(bearing)

	c.mu.Lock()
	now := c.now()
	c.rec.IssueCommand(b, now)
	rec := &CommandRecord{
		ID:       uuid.New().String(),
		Bearing:  b,
		Source:   source,
		IssuedAt: now,
	}
	c.lastCommand = rec
	c.mu.Unlock()

	c.logger.Info("Rotator command issued", "bearing", b, "source", source, "id", rec.ID)

	// Outlives the caller's request; only the timeout bounds it
	dctx := context.WithoutCancel(ctx)
	c.inflight.Add(2)
	go c.record(dctx, *rec)
	go c.dispatch(dctx, *rec)

	return rec, nil
}

// record writes the audit entry. It runs beside the dispatch, never in front of it.
func (c *Controller) record(ctx context.Context, rec CommandRecord) {
	defer c.inflight.Done()
	if c.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.recorder.RecordCommand(ctx, &rec); err != nil {
		c.logger.Error("Failed to record rotator command", "id", rec.ID, "error", err)
	}
}

// dispatch sends rec to the rotator unless a newer command has been issued meanwhile.
func (c *Controller) dispatch(ctx context.Context, rec CommandRecord) {
	defer c.inflight.Done()

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.isLatest(rec.ID) {
		logging.Trace(c.logger, "Rotator command superseded", "id", rec.ID, "bearing", rec.Bearing)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.client.Command(ctx, rec.Bearing, rec.Source); err != nil {
		c.logger.Warn("Rotator command failed", "bearing", rec.Bearing, "source", rec.Source, "error", err)
	}
}

func (c *Controller) isLatest(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCommand != nil && c.lastCommand.ID == id
}

// Observe feeds a telemetry snapshot through the reconciler.
func (c *Controller) Observe(t Telemetry) Decision {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Feeds may report 360 for north
	t.CurrentAzimuth = geo.NormalizeBearing(t.CurrentAzimuth)
	if t.TargetAzimuth != nil {
		target := geo.NormalizeBearing(*t.TargetAzimuth)
		t.TargetAzimuth = &target
	}

	now := c.now()
	s := NewSample(t, now)
	d := c.rec.Observe(s, now)
	c.lastSample = &s
	c.decisions[d]++

	if !d.Accepted() {
		logging.Trace(c.logger, "Rotator sample discarded", "azimuth", t.CurrentAzimuth, "reason", d, "displayed", c.rec.Displayed())
	}
	return d
}

// Displayed returns the bearing every panel should render.
func (c *Controller) Displayed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rec.Displayed()
}

// State returns the rotator connection state.
func (c *Controller) State() State {
	return c.client.GetState()
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	state := c.client.GetState()

	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Displayed: c.rec.Displayed(),
		Phase:     c.rec.Phase(),
		State:     state,
		Decisions: make(map[Decision]int, len(c.decisions)),
	}
	if c.lastSample != nil {
		s := *c.lastSample
		st.Telemetry = &s
	}
	if c.lastCommand != nil {
		cmd := *c.lastCommand
		st.LastCommand = &cmd
	}
	for k, v := range c.decisions {
		st.Decisions[k] = v
	}
	return st
}

// Wait blocks until all in-flight dispatches and history writes have finished.
func (c *Controller) Wait() {
	c.inflight.Wait()
}
