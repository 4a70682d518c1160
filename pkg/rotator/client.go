// Package rotator reconciles commanded antenna bearings against rotator telemetry.
package rotator

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotConnected is returned when a client action requires a connection.
	ErrNotConnected = errors.New("rotator not connected")
	// ErrInvalidBearing is returned for bearings that cannot be normalized (NaN, Inf).
	ErrInvalidBearing = errors.New("invalid bearing")
)

// State represents the connection state of the rotator.
type State string

const (
	// StateDisconnected indicates no connection to the rotator; beams are cleared.
	StateDisconnected State = "disconnected"
	// StateConnected indicates the rotator is reachable and reporting telemetry.
	StateConnected State = "connected"
)

// Client defines the interface for rotator interaction.
type Client interface {
	// Command asks the rotator to turn to bearing. The source identifies the requesting panel.
	Command(ctx context.Context, bearing float64, source string) error
	// GetTelemetry returns the latest position snapshot.
	GetTelemetry(ctx context.Context) (Telemetry, error)
	// GetState returns the current connection state.
	GetState() State
	// Close cleans up resources associated with the client.
	Close() error
}

// Telemetry represents a position snapshot as delivered by the rotator feed.
type Telemetry struct {
	CurrentAzimuth float64  `json:"currentAzimuth"`
	IsMoving       bool     `json:"isMoving"`
	TargetAzimuth  *float64 `json:"targetAzimuth,omitempty"`
}

// Sample is a telemetry snapshot stamped with its observation time.
type Sample struct {
	Telemetry
	ObservedAt time.Time `json:"observedAt"`
}

// NewSample stamps t with the observation time.
func NewSample(t Telemetry, at time.Time) Sample {
	return Sample{Telemetry: t, ObservedAt: at}
}
