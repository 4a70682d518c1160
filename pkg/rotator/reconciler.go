package rotator

import (
	"time"

	"rotorgo/pkg/geo"
)

// Phase is the ownership state of the displayed bearing.
type Phase string

const (
	// PhaseIdle means no command is active; telemetry is trusted as-is.
	PhaseIdle Phase = "no-active-command"
	// PhaseAwaiting means a command was issued and telemetry is checked against it
	// until the trust window has elapsed.
	PhaseAwaiting Phase = "awaiting-confirmation"
)

// Decision is the outcome of a single Observe call.
type Decision string

const (
	DecisionAccepted         Decision = "accepted"
	DecisionAcceptedInWindow Decision = "accepted-within-window"
	DecisionSpuriousZero     Decision = "rejected-spurious-zero"
	DecisionOutsideWindow    Decision = "rejected-outside-window"
)

// Accepted reports whether the sample replaced the displayed bearing.
func (d Decision) Accepted() bool {
	return d == DecisionAccepted || d == DecisionAcceptedInWindow
}

// Thresholds tunes the telemetry filters.
//
// The near-zero band exists because the rotator feed reports azimuth 0 while the
// controller switches between moving and stopped. It is a heuristic tuned against
// that behavior, not a general outlier filter; revisit it against the real feed.
type Thresholds struct {
	NearZeroLow  float64       // displayed <= this counts as near zero
	NearZeroHigh float64       // displayed >= this counts as near zero
	TrustWindow  time.Duration // how long a command outranks distant telemetry
	AcceptRadius float64       // max circular distance from the command while the window is open
}

// DefaultThresholds returns the filter values the panels have always used.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NearZeroLow:  30,
		NearZeroHigh: 330,
		TrustWindow:  1000 * time.Millisecond,
		AcceptRadius: 15,
	}
}

// ActiveCommand is the command whose bearing telemetry is checked against.
type ActiveCommand struct {
	Bearing  float64
	IssuedAt time.Time
}

// Reconciler merges commanded bearings with observed telemetry into one displayed bearing.
// It is not safe for concurrent use; Controller serializes access.
type Reconciler struct {
	th        Thresholds
	phase     Phase
	displayed float64
	active    ActiveCommand
}

// NewReconciler creates a reconciler displaying initial with no active command.
func NewReconciler(initial float64, th Thresholds) *Reconciler {
	return &Reconciler{
		th:        th,
		phase:     PhaseIdle,
		displayed: initial,
	}
}

// IssueCommand records bearing as the active command and displays it immediately.
// A newer command replaces the previous one and restarts the trust window.
func (r *Reconciler) IssueCommand(bearing float64, now time.Time) {
	r.active = ActiveCommand{Bearing: bearing, IssuedAt: now}
	r.phase = PhaseAwaiting
	r.displayed = bearing
}

// Observe decides whether the sample's current azimuth becomes the displayed bearing.
func (r *Reconciler) Observe(s Sample, now time.Time) Decision {
	az := s.CurrentAzimuth

	if az == 0 && !r.nearZero(r.displayed) {
		return DecisionSpuriousZero
	}

	if r.phase == PhaseAwaiting && now.Sub(r.active.IssuedAt) < r.th.TrustWindow {
		if geo.CircularDistance(az, r.active.Bearing) > r.th.AcceptRadius {
			return DecisionOutsideWindow
		}
		r.displayed = az
		return DecisionAcceptedInWindow
	}

	r.phase = PhaseIdle
	r.active = ActiveCommand{}
	r.displayed = az
	return DecisionAccepted
}

// Displayed returns the bearing the UI should render.
func (r *Reconciler) Displayed() float64 {
	return r.displayed
}

// Phase returns the current ownership state.
func (r *Reconciler) Phase() Phase {
	return r.phase
}

// Active returns the active command, if any.
func (r *Reconciler) Active() (ActiveCommand, bool) {
	return r.active, r.phase == PhaseAwaiting
}

func (r *Reconciler) nearZero(b float64) bool {
	return b <= r.th.NearZeroLow || b >= r.th.NearZeroHigh
}
