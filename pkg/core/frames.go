package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"rotorgo/pkg/beam"
	"rotorgo/pkg/geo"
	"rotorgo/pkg/rotator"
)

// DisplaySource supplies the reconciled bearing. The frame loop never writes to it.
type DisplaySource interface {
	Displayed() float64
	State() rotator.State
}

// Frame is one animation frame shared by the compass and the globe.
type Frame struct {
	Seq       uint64        `json:"seq"`
	Time      time.Time     `json:"time"`
	Bearing   *float64      `json:"bearing,omitempty"` // nil while disconnected
	Connected bool          `json:"connected"`
	Beam      beam.Beam     `json:"beam"`
	Clock     time.Duration `json:"-"`
}

// FrameSink receives rendered frames.
type FrameSink interface {
	BroadcastFrame(f *Frame)
}

// FrameLoop renders the beam at a fixed rate.
type FrameLoop struct {
	renderer *beam.Renderer
	source   DisplaySource
	origin   geo.Point
	sink     FrameSink
	interval time.Duration
	now      func() time.Time
	start    time.Time

	mu     sync.RWMutex
	seq    uint64
	latest *Frame
}

// NewFrameLoop creates a frame loop. sink may be nil.
func NewFrameLoop(r *beam.Renderer, src DisplaySource, origin geo.Point, sink FrameSink, interval time.Duration) *FrameLoop {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &FrameLoop{
		renderer: r,
		source:   src,
		origin:   origin,
		sink:     sink,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs the animation clock. It blocks until context is cancelled.
func (l *FrameLoop) Start(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	slog.Info("Frame loop started", "interval", l.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Frame loop stopped")
			return
		case <-ticker.C:
			f := l.Render()
			if l.sink != nil {
				l.sink.BroadcastFrame(f)
			}
		}
	}
}

// Render produces the next frame from the current displayed bearing and stores it as latest.
func (l *FrameLoop) Render() *Frame {
	now := l.now()
	bearing := l.source.Displayed()
	connected := l.source.State() == rotator.StateConnected

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.start.IsZero() {
		l.start = now
	}
	clock := now.Sub(l.start)
	l.seq++

	f := &Frame{
		Seq:       l.seq,
		Time:      now,
		Connected: connected,
		Beam:      l.renderer.Render(bearing, l.origin, clock, connected),
		Clock:     clock,
	}
	if connected {
		f.Bearing = &bearing
	}
	l.latest = f
	return f
}

// Latest returns the most recent frame, rendering one if none exists yet.
func (l *FrameLoop) Latest() *Frame {
	l.mu.RLock()
	f := l.latest
	l.mu.RUnlock()
	if f == nil {
		return l.Render()
	}
	return f
}

// Origin returns the station position beams are drawn from.
func (l *FrameLoop) Origin() geo.Point {
	return l.origin
}
