package beam

import (
	"math"
	"time"
)

// PulseConfig shapes the "live" opacity animation.
type PulseConfig struct {
	Period  time.Duration // one full sinusoid
	Min     float64       // opacity floor
	Max     float64       // opacity ceiling at the start of each period
	Damping float64       // how far the trough is pulled toward the midpoint, 0 disables
}

// DefaultPulseConfig returns a slow 3 second breathing pulse.
func DefaultPulseConfig() PulseConfig {
	return PulseConfig{
		Period:  3 * time.Second,
		Min:     0.35,
		Max:     0.9,
		Damping: 1.5,
	}
}

// Pulse computes a damped sinusoid opacity factor that repeats every period.
type Pulse struct {
	cfg PulseConfig
}

// NewPulse creates a pulse, falling back to defaults for an unset period or range.
func NewPulse(cfg PulseConfig) *Pulse {
	def := DefaultPulseConfig()
	if cfg.Period <= 0 {
		cfg.Period = def.Period
	}
	if cfg.Max <= 0 || cfg.Max < cfg.Min {
		cfg.Min, cfg.Max = def.Min, def.Max
	}
	return &Pulse{cfg: cfg}
}

// Opacity returns the opacity factor in [Min, Max] for the animation clock.
func (p *Pulse) Opacity(clock time.Duration) float64 {
	if clock < 0 {
		clock = 0
	}
	phase := float64(clock%p.cfg.Period) / float64(p.cfg.Period)

	// The envelope is 1 at both ends of the period, so the wrap is seamless
	// and the damping is strongest at the trough
	wave := math.Cos(2 * math.Pi * phase)
	envelope := math.Exp(-p.cfg.Damping * math.Sin(math.Pi*phase))
	unit := 0.5 + 0.5*wave*envelope

	return p.cfg.Min + (p.cfg.Max-p.cfg.Min)*unit
}
