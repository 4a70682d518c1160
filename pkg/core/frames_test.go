package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotorgo/pkg/beam"
	"rotorgo/pkg/geo"
	"rotorgo/pkg/rotator"
)

type fakeSource struct {
	mu        sync.Mutex
	displayed float64
	state     rotator.State
}

func (f *fakeSource) Displayed() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.displayed
}

func (f *fakeSource) State() rotator.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

type chanSink struct {
	frames chan *Frame
}

func (s *chanSink) BroadcastFrame(f *Frame) {
	select {
	case s.frames <- f:
	default:
	}
}

func TestFrameLoop_Render(t *testing.T) {
	src := &fakeSource{displayed: 270, state: rotator.StateConnected}
	origin := geo.Point{Lat: 51.5, Lon: 7}
	l := NewFrameLoop(beam.NewRenderer(beam.DefaultConfig()), src, origin, nil, 0)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	l.now = func() time.Time { return now }

	f1 := l.Render()
	assert.Equal(t, uint64(1), f1.Seq)
	require.NotNil(t, f1.Bearing)
	assert.Equal(t, 270.0, *f1.Bearing)
	assert.True(t, f1.Connected)
	assert.Equal(t, time.Duration(0), f1.Clock)
	require.Len(t, f1.Beam.Lines, 3)
	assert.Equal(t, origin, l.Origin())

	now = base.Add(1200 * time.Millisecond)
	f2 := l.Render()
	assert.Equal(t, uint64(2), f2.Seq)
	assert.Equal(t, 1200*time.Millisecond, f2.Clock)
	assert.Same(t, f2, l.Latest())

	// Disconnect clears the beam and withholds the stale bearing
	src.mu.Lock()
	src.state = rotator.StateDisconnected
	src.mu.Unlock()
	f3 := l.Render()
	assert.False(t, f3.Connected)
	assert.True(t, f3.Beam.Empty())
	assert.Nil(t, f3.Bearing)
	assert.Nil(t, f3.Beam.Bearing)
	assert.Equal(t, 270.0, src.Displayed(), "the displayed bearing itself is untouched")
}

func TestFrameLoop_LatestRendersOnDemand(t *testing.T) {
	src := &fakeSource{displayed: 10, state: rotator.StateConnected}
	l := NewFrameLoop(beam.NewRenderer(beam.DefaultConfig()), src, geo.Point{}, nil, 0)
	f := l.Latest()
	require.NotNil(t, f)
	assert.Equal(t, uint64(1), f.Seq)
}

func TestFrameLoop_Start(t *testing.T) {
	src := &fakeSource{displayed: 45, state: rotator.StateConnected}
	sink := &chanSink{frames: make(chan *Frame, 4)}
	l := NewFrameLoop(beam.NewRenderer(beam.DefaultConfig()), src, geo.Point{}, sink, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Start(ctx)

	select {
	case f := <-sink.frames:
		require.NotNil(t, f.Bearing)
		assert.Equal(t, 45.0, *f.Bearing)
	case <-time.After(time.Second):
		t.Fatal("no frame broadcast")
	}
}
