// Package mockrot provides a simulated antenna rotator.
package mockrot

import (
	"context"
	"math"
	"sync"
	"time"

	"rotorgo/pkg/geo"
	"rotorgo/pkg/rotator"
)

const (
	defaultTickRate = 100 * time.Millisecond
	defaultSlewRate = 6.0 // degrees per second, a typical HF rotator
	arrivalEpsilon  = 0.5
)

// Config holds the simulation parameters.
type Config struct {
	StartAzimuth float64
	SlewRate     float64       // degrees per second
	TickRate     time.Duration // physics step
	// SpuriousZeros reproduces the controller reporting azimuth 0 for one
	// reading whenever it starts or stops moving.
	SpuriousZeros bool
}

// MockClient implements rotator.Client.
type MockClient struct {
	mu          sync.Mutex
	cfg         Config
	current     float64
	target      float64
	moving      bool
	pendingZero bool
	connected   bool
	commands    int

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewClient creates a mock rotator and starts its physics loop.
func NewClient(cfg Config) *MockClient {
	m := newClient(cfg)
	m.wg.Add(1)
	go m.physicsLoop()
	return m
}

func newClient(cfg Config) *MockClient {
	if cfg.SlewRate <= 0 {
		cfg.SlewRate = defaultSlewRate
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = defaultTickRate
	}
	start := geo.NormalizeBearing(cfg.StartAzimuth)
	return &MockClient{
		cfg:       cfg,
		current:   start,
		target:    start,
		connected: true,
		stopCh:    make(chan struct{}),
	}
}

// Command sets a new target azimuth.
func (m *MockClient) Command(ctx context.Context, bearing float64, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return rotator.ErrNotConnected
	}
	m.target = geo.NormalizeBearing(bearing)
	m.commands++
	return nil
}

// GetTelemetry returns the current rotator position.
func (m *MockClient) GetTelemetry(ctx context.Context) (rotator.Telemetry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return rotator.Telemetry{}, rotator.ErrNotConnected
	}

	target := m.target
	tel := rotator.Telemetry{
		CurrentAzimuth: math.Round(m.current),
		IsMoving:       m.moving,
		TargetAzimuth:  &target,
	}
	if tel.CurrentAzimuth >= 360 {
		tel.CurrentAzimuth = 0
	}
	if m.pendingZero {
		tel.CurrentAzimuth = 0
		m.pendingZero = false
	}
	return tel, nil
}

// GetState returns the simulated connection state.
func (m *MockClient) GetState() rotator.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected {
		return rotator.StateConnected
	}
	return rotator.StateDisconnected
}

// SetConnected simulates the controller dropping off or coming back.
func (m *MockClient) SetConnected(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = v
}

// CommandCount returns how many commands the rotator has accepted.
func (m *MockClient) CommandCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commands
}

// Close stops the physics loop.
func (m *MockClient) Close() error {
	close(m.stopCh)
	m.wg.Wait()
	return nil
}

func (m *MockClient) physicsLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.step(m.cfg.TickRate)
		}
	}
}

// step advances the simulation by dt, turning along the shorter arc.
func (m *MockClient) step(dt time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	diff := geo.NormalizeAngle(m.target - m.current)
	wasMoving := m.moving

	if math.Abs(diff) <= arrivalEpsilon {
		m.current = m.target
		m.moving = false
	} else {
		maxStep := m.cfg.SlewRate * dt.Seconds()
		if math.Abs(diff) <= maxStep {
			m.current = m.target
		} else {
			m.current = geo.NormalizeBearing(m.current + math.Copysign(maxStep, diff))
		}
		m.moving = true
	}

	if m.cfg.SpuriousZeros && wasMoving != m.moving {
		m.pendingZero = true
	}
}
