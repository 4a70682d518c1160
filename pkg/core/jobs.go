package core

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"rotorgo/pkg/geo"
	"rotorgo/pkg/rotator"
)

// Job defines a scheduled task.
type Job interface {
	Name() string
	ShouldFire(t *rotator.Telemetry) bool
	Run(ctx context.Context, t *rotator.Telemetry)
}

// BaseJob provides atomic running state to prevent re-entry.
type BaseJob struct {
	name    string
	running int32 // 1 if running, 0 otherwise
}

func NewBaseJob(name string) BaseJob {
	return BaseJob{name: name}
}

func (b *BaseJob) Name() string {
	return b.name
}

// TryLock attempts to set running to 1. Returns true if successful.
func (b *BaseJob) TryLock() bool {
	return atomic.CompareAndSwapInt32(&b.running, 0, 1)
}

func (b *BaseJob) Unlock() {
	atomic.StoreInt32(&b.running, 0)
}

// AngleJob fires when the reported azimuth has swung at least threshold degrees
// since its last run.
type AngleJob struct {
	BaseJob
	lastAz    float64
	threshold float64 // degrees
	action    func(context.Context, rotator.Telemetry)
	firstRun  bool
}

func NewAngleJob(name string, thresholdDeg float64, action func(context.Context, rotator.Telemetry)) *AngleJob {
	return &AngleJob{
		BaseJob:   NewBaseJob(name),
		threshold: thresholdDeg,
		action:    action,
		firstRun:  true,
	}
}

func (j *AngleJob) ShouldFire(t *rotator.Telemetry) bool {
	if atomic.LoadInt32(&j.running) == 1 {
		return false
	}
	if j.firstRun {
		return true
	}
	return geo.CircularDistance(j.lastAz, t.CurrentAzimuth) >= j.threshold
}

func (j *AngleJob) Run(ctx context.Context, t *rotator.Telemetry) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	j.lastAz = t.CurrentAzimuth
	j.firstRun = false

	j.action(ctx, *t)
}

// TimeJob fires when time elapsed exceeds threshold.
type TimeJob struct {
	BaseJob
	lastTime  time.Time
	threshold time.Duration
	action    func(context.Context, rotator.Telemetry)
	firstRun  bool
}

func NewTimeJob(name string, threshold time.Duration, action func(context.Context, rotator.Telemetry)) *TimeJob {
	return &TimeJob{
		BaseJob:   NewBaseJob(name),
		threshold: threshold,
		action:    action,
		firstRun:  true,
	}
}

func (j *TimeJob) ShouldFire(t *rotator.Telemetry) bool {
	if atomic.LoadInt32(&j.running) == 1 {
		return false
	}
	if j.firstRun {
		return true
	}
	return time.Since(j.lastTime) >= j.threshold
}

func (j *TimeJob) Run(ctx context.Context, t *rotator.Telemetry) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	j.lastTime = time.Now()
	j.firstRun = false

	j.action(ctx, *t)
}

// HistoryPruner removes old command history.
type HistoryPruner interface {
	PruneCommands(ctx context.Context, olderThan time.Duration) (int64, error)
}

// NewHistoryPruneJob prunes command history older than maxAge every interval.
func NewHistoryPruneJob(p HistoryPruner, interval, maxAge time.Duration) *TimeJob {
	return NewTimeJob("HistoryPrune", interval, func(ctx context.Context, _ rotator.Telemetry) {
		n, err := p.PruneCommands(ctx, maxAge)
		if err != nil {
			slog.Error("HistoryPruneJob: prune failed", "error", err)
			return
		}
		if n > 0 {
			slog.Info("HistoryPruneJob: pruned command history", "removed", n)
		}
	})
}

// NewHeadingLogJob logs the physical heading whenever it has moved by thresholdDeg.
func NewHeadingLogJob(thresholdDeg float64) *AngleJob {
	return NewAngleJob("HeadingLog", thresholdDeg, func(_ context.Context, t rotator.Telemetry) {
		args := []any{"azimuth", t.CurrentAzimuth, "moving", t.IsMoving}
		if t.TargetAzimuth != nil {
			args = append(args, "target", *t.TargetAzimuth)
		}
		slog.Info("Rotator heading", args...)
	})
}

// ChangeDetector reports watched files modified since its previous check.
type ChangeDetector interface {
	CheckModified() []string
}

// NewLogWatchJob checks for modified log files every interval and calls onChange for each.
func NewLogWatchJob(w ChangeDetector, interval time.Duration, onChange func(ctx context.Context, path string)) *TimeJob {
	return NewTimeJob("LogWatch", interval, func(ctx context.Context, _ rotator.Telemetry) {
		for _, p := range w.CheckModified() {
			onChange(ctx, p)
		}
	})
}
