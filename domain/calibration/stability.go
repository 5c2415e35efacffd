package calibration

import (
	"calibrate-backend/domain/config"
	vo "calibrate-backend/domain/core/valueobjects"
)

// WindowStats are rolling-window analytics over the retained composite
// indices, surfaced to the UI alongside the verdict.
type WindowStats struct {
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
	// Slope is the least-squares index change per day over the window.
	// Negative means the index is declining.
	Slope float64 `json:"slope"`
	Days  int     `json:"days"`
}

// Verdict is the outcome of applying one submission to the stability state.
type Verdict struct {
	PhaseBefore Phase       `json:"phase_before"`
	PhaseAfter  Phase       `json:"phase_after"`
	Counter     int         `json:"counter"`
	RedFlag     bool        `json:"red_flag"`
	Stats       WindowStats `json:"stats"`
}

// EnteredStable reports whether this submission crossed into STABLE.
func (v Verdict) EnteredStable() bool {
	return v.PhaseAfter == PhaseStable && v.PhaseBefore != PhaseStable
}

// EnteredUnstable reports whether this submission crossed into UNSTABLE.
func (v Verdict) EnteredUnstable() bool {
	return v.PhaseAfter == PhaseUnstable && v.PhaseBefore != PhaseUnstable
}

// StabilityTracker folds composite indices into the per-user stability state
// machine. The caller owns loading and persisting the state; Apply is the
// single read-modify-write transition.
type StabilityTracker struct {
	tuning *config.Store
}

// NewStabilityTracker creates a stability tracker.
func NewStabilityTracker(tuning *config.Store) *StabilityTracker {
	return &StabilityTracker{tuning: tuning}
}

// Apply runs one submission through the state machine and mutates state in
// place. The rules, in priority order:
//
//  1. Any safety flag, or an index below the red-flag band, forces the
//     counter to zero. Nothing in the same submission can suppress this.
//  2. A repeat submission for the day the state already recorded never
//     advances the counter.
//  3. An index within the stable band, with the window trend not falling
//     faster than allowed, advances the counter by one.
//  4. Anything else leaves the counter untouched: one noisy day neither
//     resets progress nor advances it.
func (t *StabilityTracker) Apply(state *StabilityState, date vo.Day, score ScoreResult) Verdict {
	tuning := t.tuning.Current()
	before := state.Phase(tuning.StableDayThreshold)
	repeat := !state.LastSubmission.IsZero() && state.LastSubmission.Equals(date)

	if score.HasIndex && !repeat {
		state.PushIndex(score.CompositeIndex, tuning.WindowSize)
	}
	stats := computeWindowStats(state.Window)

	redFlag := score.SafetyTriggered() || (score.HasIndex && score.CompositeIndex < tuning.RedFlagMax)
	switch {
	case redFlag:
		state.ConsecutiveStableDays = 0
	case repeat:
		// No change.
	case score.HasIndex && score.CompositeIndex >= tuning.StableMin && slopeAcceptable(stats, tuning):
		state.ConsecutiveStableDays++
	}

	return Verdict{
		PhaseBefore: before,
		PhaseAfter:  state.Phase(tuning.StableDayThreshold),
		Counter:     state.ConsecutiveStableDays,
		RedFlag:     redFlag,
		Stats:       stats,
	}
}

// Snapshot returns the window analytics without applying a submission.
func (t *StabilityTracker) Snapshot(state *StabilityState) WindowStats {
	return computeWindowStats(state.Window)
}

func slopeAcceptable(stats WindowStats, tuning *config.Tuning) bool {
	// A one-day window has no trend yet.
	if stats.Days < 2 {
		return true
	}
	return stats.Slope >= tuning.MinStableSlope
}

func computeWindowStats(window []float64) WindowStats {
	stats := WindowStats{Days: len(window)}
	if len(window) == 0 {
		return stats
	}

	var sum float64
	stats.Max = window[0]
	for _, v := range window {
		sum += v
		if v > stats.Max {
			stats.Max = v
		}
	}
	stats.Average = sum / float64(len(window))

	if len(window) >= 2 {
		stats.Slope = regressionSlope(window)
	}
	return stats
}

// regressionSlope is the ordinary least-squares slope with day offsets
// 0..n-1 as x.
func regressionSlope(ys []float64) float64 {
	n := float64(len(ys))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
