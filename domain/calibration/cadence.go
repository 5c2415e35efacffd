package calibration

import (
	"calibrate-backend/domain/config"
	vo "calibrate-backend/domain/core/valueobjects"
)

// CadenceScheduler turns stability verdicts into sampling-frequency
// decisions. The asymmetry is deliberate hysteresis: instability snaps the
// cadence back to the highest frequency within the same submission, while
// recovery downgrades one step at a time and only on entering STABLE.
type CadenceScheduler struct {
	tuning *config.Store
}

// NewCadenceScheduler creates a cadence scheduler.
func NewCadenceScheduler(tuning *config.Store) *CadenceScheduler {
	return &CadenceScheduler{tuning: tuning}
}

// Apply updates the cadence fields of state from a verdict and reports
// whether anything changed.
func (s *CadenceScheduler) Apply(state *StabilityState, verdict Verdict) bool {
	switch {
	case verdict.EnteredUnstable() || (verdict.RedFlag && state.ShortCadence != CadenceDaily):
		state.ShortCadence = CadenceDaily
		state.LongCadence = CadenceWeekly
		state.ChangeReason = ReasonInstabilityDetected
		// A date scheduled under the old cadence would defer the next
		// check-in past tomorrow; drop it so the submission being
		// processed reschedules at the new frequency.
		state.NextDue = vo.Day{}
		return true
	case verdict.EnteredStable():
		changed := false
		if state.ShortCadence == CadenceDaily {
			state.ShortCadence = CadenceEveryOtherDay
			changed = true
		}
		if state.LongCadence == CadenceWeekly {
			state.LongCadence = CadenceBiweekly
			changed = true
		}
		if changed {
			state.ChangeReason = ReasonStabilityAchieved
		}
		return changed
	}
	return false
}

// ResetToDaily applies the explicit user override: highest-frequency
// cadences, counter zeroed, reason user_choice. Idempotent.
func (s *CadenceScheduler) ResetToDaily(state *StabilityState) {
	state.ShortCadence = CadenceDaily
	state.LongCadence = CadenceWeekly
	state.ConsecutiveStableDays = 0
	state.ChangeReason = ReasonUserChoice
	if !state.LastSubmission.IsZero() {
		state.NextDue = state.LastSubmission.AddDays(s.IntervalDays(CadenceDaily))
	} else {
		state.NextDue = vo.Day{}
	}
}

// RecordSubmission advances the due date from a submission. A submission on
// or after the due date schedules the next one; an early submission is
// accepted but never advances the due date twice within one interval.
func (s *CadenceScheduler) RecordSubmission(state *StabilityState, date vo.Day) {
	if state.NextDue.IsZero() || !date.Before(state.NextDue) {
		state.NextDue = date.AddDays(s.IntervalDays(state.ShortCadence))
	}
	if state.LastSubmission.IsZero() || state.LastSubmission.Before(date) {
		state.LastSubmission = date
	}
}

// DueToday answers the pull-based "should the user calibrate today"
// question against a caller-supplied day.
func (s *CadenceScheduler) DueToday(state *StabilityState, asOf vo.Day) bool {
	if state.NextDue.IsZero() {
		return true
	}
	return !asOf.Before(state.NextDue)
}

// IntervalDays returns the configured interval for a cadence class.
func (s *CadenceScheduler) IntervalDays(class CadenceClass) int {
	if days, ok := s.tuning.Current().CadenceIntervals[string(class)]; ok {
		return days
	}
	return 1
}
