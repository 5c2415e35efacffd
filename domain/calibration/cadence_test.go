package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"calibrate-backend/domain/config"
	vo "calibrate-backend/domain/core/valueobjects"
)

func TestCadenceDowngradeOnEnteringStable(t *testing.T) {
	s := NewCadenceScheduler(config.NewStore(config.DefaultTuning()))
	state := NewStabilityState(vo.NewUserID())
	state.ConsecutiveStableDays = 14

	changed := s.Apply(state, Verdict{PhaseBefore: PhaseStabilizing, PhaseAfter: PhaseStable, Counter: 14})

	assert.True(t, changed)
	assert.Equal(t, CadenceEveryOtherDay, state.ShortCadence)
	assert.Equal(t, CadenceBiweekly, state.LongCadence)
	assert.Equal(t, ReasonStabilityAchieved, state.ChangeReason)
}

func TestCadenceSnapsToDailyOnInstability(t *testing.T) {
	s := NewCadenceScheduler(config.NewStore(config.DefaultTuning()))
	state := NewStabilityState(vo.NewUserID())
	state.ShortCadence = CadenceEveryOtherDay
	state.LongCadence = CadenceBiweekly

	changed := s.Apply(state, Verdict{PhaseBefore: PhaseStable, PhaseAfter: PhaseUnstable, RedFlag: true})

	assert.True(t, changed)
	assert.Equal(t, CadenceDaily, state.ShortCadence)
	assert.Equal(t, CadenceWeekly, state.LongCadence)
	assert.Equal(t, ReasonInstabilityDetected, state.ChangeReason)
}

func TestCadenceRedFlagForcesDailyEvenWhenAlreadyUnstable(t *testing.T) {
	s := NewCadenceScheduler(config.NewStore(config.DefaultTuning()))
	state := NewStabilityState(vo.NewUserID())
	state.ShortCadence = CadenceEveryOtherDay

	changed := s.Apply(state, Verdict{PhaseBefore: PhaseUnstable, PhaseAfter: PhaseUnstable, RedFlag: true})

	assert.True(t, changed)
	assert.Equal(t, CadenceDaily, state.ShortCadence)
}

func TestCadenceUnchangedMidStreak(t *testing.T) {
	s := NewCadenceScheduler(config.NewStore(config.DefaultTuning()))
	state := NewStabilityState(vo.NewUserID())

	changed := s.Apply(state, Verdict{PhaseBefore: PhaseStabilizing, PhaseAfter: PhaseStabilizing, Counter: 5})

	assert.False(t, changed)
	assert.Equal(t, CadenceDaily, state.ShortCadence)
}

func TestCadenceStayingStableDoesNotDowngradeTwice(t *testing.T) {
	s := NewCadenceScheduler(config.NewStore(config.DefaultTuning()))
	state := NewStabilityState(vo.NewUserID())
	state.ShortCadence = CadenceEveryOtherDay
	state.LongCadence = CadenceBiweekly

	changed := s.Apply(state, Verdict{PhaseBefore: PhaseStable, PhaseAfter: PhaseStable, Counter: 20})

	assert.False(t, changed)
	assert.Equal(t, CadenceEveryOtherDay, state.ShortCadence)
}

func TestResetToDaily(t *testing.T) {
	s := NewCadenceScheduler(config.NewStore(config.DefaultTuning()))
	state := NewStabilityState(vo.NewUserID())
	state.ShortCadence = CadenceEveryOtherDay
	state.LongCadence = CadenceBiweekly
	state.ConsecutiveStableDays = 17

	s.ResetToDaily(state)

	assert.Equal(t, CadenceDaily, state.ShortCadence)
	assert.Equal(t, CadenceWeekly, state.LongCadence)
	assert.Equal(t, 0, state.ConsecutiveStableDays)
	assert.Equal(t, ReasonUserChoice, state.ChangeReason)

	// Idempotent.
	s.ResetToDaily(state)
	assert.Equal(t, CadenceDaily, state.ShortCadence)
	assert.Equal(t, ReasonUserChoice, state.ChangeReason)
}

func TestRecordSubmissionAdvancesDueDate(t *testing.T) {
	s := NewCadenceScheduler(config.NewStore(config.DefaultTuning()))
	state := NewStabilityState(vo.NewUserID())
	day := testDay(t, "2024-06-01")

	s.RecordSubmission(state, day)
	assert.Equal(t, "2024-06-02", state.NextDue.String())
	assert.Equal(t, day, state.LastSubmission)

	state.ShortCadence = CadenceEveryOtherDay
	s.RecordSubmission(state, day.AddDays(1))
	assert.Equal(t, "2024-06-04", state.NextDue.String())
}

func TestRecordSubmissionEarlyDoesNotDoubleAdvance(t *testing.T) {
	s := NewCadenceScheduler(config.NewStore(config.DefaultTuning()))
	state := NewStabilityState(vo.NewUserID())
	state.ShortCadence = CadenceEveryOtherDay
	day := testDay(t, "2024-06-01")

	s.RecordSubmission(state, day)
	assert.Equal(t, "2024-06-03", state.NextDue.String())

	// Early submission the next morning is accepted but the due date holds.
	s.RecordSubmission(state, day.AddDays(1))
	assert.Equal(t, "2024-06-03", state.NextDue.String())
	assert.Equal(t, day.AddDays(1), state.LastSubmission)
}

func TestCadenceSnapReschedulesNextDue(t *testing.T) {
	s := NewCadenceScheduler(config.NewStore(config.DefaultTuning()))
	state := NewStabilityState(vo.NewUserID())
	state.ShortCadence = CadenceEveryOtherDay
	state.LongCadence = CadenceBiweekly
	day := testDay(t, "2026-03-01")

	s.RecordSubmission(state, day)
	assert.Equal(t, "2026-03-03", state.NextDue.String())

	// A red flag on a same-day resubmission snaps the cadence back to
	// daily; the every-other-day due date must not survive the snap.
	changed := s.Apply(state, Verdict{PhaseBefore: PhaseStable, PhaseAfter: PhaseUnstable, RedFlag: true})
	assert.True(t, changed)
	s.RecordSubmission(state, day)

	assert.Equal(t, CadenceDaily, state.ShortCadence)
	assert.Equal(t, "2026-03-02", state.NextDue.String())
	assert.True(t, s.DueToday(state, day.AddDays(1)))
}

func TestResetToDailyReschedulesNextDue(t *testing.T) {
	s := NewCadenceScheduler(config.NewStore(config.DefaultTuning()))
	state := NewStabilityState(vo.NewUserID())
	state.ShortCadence = CadenceEveryOtherDay
	day := testDay(t, "2026-03-01")
	s.RecordSubmission(state, day)
	assert.Equal(t, "2026-03-03", state.NextDue.String())

	s.ResetToDaily(state)

	assert.Equal(t, "2026-03-02", state.NextDue.String())
	assert.True(t, s.DueToday(state, day.AddDays(1)))
}

func TestDueToday(t *testing.T) {
	s := NewCadenceScheduler(config.NewStore(config.DefaultTuning()))
	state := NewStabilityState(vo.NewUserID())
	day := testDay(t, "2024-06-01")

	// Never submitted: always due.
	assert.True(t, s.DueToday(state, day))

	s.RecordSubmission(state, day)
	assert.False(t, s.DueToday(state, day))
	assert.True(t, s.DueToday(state, day.AddDays(1)))
	assert.True(t, s.DueToday(state, day.AddDays(5)))
}

func TestIntervalDays(t *testing.T) {
	s := NewCadenceScheduler(config.NewStore(config.DefaultTuning()))

	assert.Equal(t, 1, s.IntervalDays(CadenceDaily))
	assert.Equal(t, 2, s.IntervalDays(CadenceEveryOtherDay))
	assert.Equal(t, 7, s.IntervalDays(CadenceWeekly))
	assert.Equal(t, 14, s.IntervalDays(CadenceBiweekly))
	assert.Equal(t, 1, s.IntervalDays(CadenceClass("unknown")))
}
