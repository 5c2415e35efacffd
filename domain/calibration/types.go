package calibration

import (
	"time"

	"calibrate-backend/domain/catalog"
	vo "calibrate-backend/domain/core/valueobjects"
)

// Source distinguishes where a batch of answers came from.
type Source string

// Submission sources
const (
	SourceDaily          Source = "daily"
	SourceWeekly         Source = "weekly"
	SourceFullInstrument Source = "full_instrument"
)

// Goal is one active area of focus with its priority. Lower priority values
// rank first.
type Goal struct {
	Tag      catalog.GoalTag `json:"tag"`
	Priority int             `json:"priority"`
}

// GoalProfile is the ordered set of a user's active goals. It is maintained
// by the profile-editing surfaces and read-only here.
type GoalProfile struct {
	UserID vo.UserID `json:"user_id"`
	Goals  []Goal    `json:"goals"`
}

// ActiveTags returns the goal tags ordered by priority, then by profile
// order for equal priorities.
func (p GoalProfile) ActiveTags() []catalog.GoalTag {
	goals := make([]Goal, len(p.Goals))
	copy(goals, p.Goals)
	// Insertion sort keeps equal priorities in profile order.
	for i := 1; i < len(goals); i++ {
		for j := i; j > 0 && goals[j].Priority < goals[j-1].Priority; j-- {
			goals[j], goals[j-1] = goals[j-1], goals[j]
		}
	}
	tags := make([]catalog.GoalTag, 0, len(goals))
	for _, g := range goals {
		tags = append(tags, g.Tag)
	}
	return tags
}

// Answer is one raw answer value. Slider and choice questions carry Value;
// text questions carry Text.
type Answer struct {
	Value float64 `json:"value"`
	Text  string  `json:"text,omitempty"`
}

// QuestionSet is the ordered, de-duplicated sequence of questions selected
// for one user on one calendar day. It is a derived view, re-creatable from
// the goal profile and tenure counter at any time.
type QuestionSet struct {
	Date      vo.Day                       `json:"date"`
	Questions []catalog.QuestionDefinition `json:"questions"`
}

// IDs returns the question ids in set order.
func (s QuestionSet) IDs() []string {
	ids := make([]string, 0, len(s.Questions))
	for _, q := range s.Questions {
		ids = append(ids, q.ID)
	}
	return ids
}

// Contains reports whether the set includes a question id.
func (s QuestionSet) Contains(id string) bool {
	for _, q := range s.Questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

// SetDiff describes what changed between two question sets.
type SetDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// ResponseRecord is one persisted answer, unique per
// (user, scale, question, date).
type ResponseRecord struct {
	UserID     vo.UserID `json:"user_id"`
	ScaleID    string    `json:"scale_id"`
	QuestionID string    `json:"question_id"`
	Date       vo.Day    `json:"date"`
	Value      float64   `json:"value"`
	Text       string    `json:"text,omitempty"`
	Source     Source    `json:"source"`
}

// ScoreResult is the derived outcome of scoring one submission. It is never
// persisted as its own row.
type ScoreResult struct {
	// CompositeIndex is the 0-100 daily index; higher is more stable. Only
	// meaningful when HasIndex is true, which requires at least one scored
	// component in the submission.
	CompositeIndex float64 `json:"composite_index"`
	HasIndex       bool    `json:"has_index"`

	// ScaleScores holds the per-short-scale subtotals.
	ScaleScores map[string]float64 `json:"scale_scores"`

	// SafetyFlags lists the question ids whose safety thresholds were
	// breached. Empty when nothing triggered.
	SafetyFlags []string `json:"safety_flags"`
}

// SafetyTriggered reports whether any safety flag fired.
func (r ScoreResult) SafetyTriggered() bool {
	return len(r.SafetyFlags) > 0
}

// EscalationTrigger records that a short-scale score crossed its threshold
// and the user should be offered the full instrument on the next cycle.
// Written once per (user, scale, date) for audit, never updated.
type EscalationTrigger struct {
	UserID      vo.UserID `json:"user_id"`
	ScaleID     string    `json:"scale_id"`
	Score       float64   `json:"score"`
	TargetScale string    `json:"target_scale"`
	Confidence  float64   `json:"confidence"`
	Date        vo.Day    `json:"date"`
}

// SafetySeverity grades a safety event.
type SafetySeverity string

// Safety severities
const (
	SeverityElevated SafetySeverity = "elevated"
	SeverityCritical SafetySeverity = "critical"
)

// SafetyEvent is the append-only record of a safety-critical answer crossing
// its threshold. The orchestrator writes it synchronously before anything
// else is done with the submission result.
type SafetyEvent struct {
	ID         string         `json:"id"`
	UserID     vo.UserID      `json:"user_id"`
	QuestionID string         `json:"question_id"`
	Value      float64        `json:"value"`
	Severity   SafetySeverity `json:"severity"`
	Context    string         `json:"context"`
	Date       vo.Day         `json:"date"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// CadenceClass is the sampling frequency assigned to a user.
type CadenceClass string

// Short-form and long-form cadence classes
const (
	CadenceDaily         CadenceClass = "daily"
	CadenceEveryOtherDay CadenceClass = "every_other_day"
	CadenceWeekly        CadenceClass = "weekly"
	CadenceBiweekly      CadenceClass = "biweekly"
)

// ChangeReason explains the last cadence change.
type ChangeReason string

// Cadence change reasons
const (
	ReasonUserChoice          ChangeReason = "user_choice"
	ReasonStabilityAchieved   ChangeReason = "stability_achieved"
	ReasonInstabilityDetected ChangeReason = "instability_detected"
)

// Phase is the stability state machine's current state.
type Phase string

// Stability phases
const (
	PhaseUnstable    Phase = "UNSTABLE"
	PhaseStabilizing Phase = "STABILIZING"
	PhaseStable      Phase = "STABLE"
)

// StabilityState is the per-user persisted state driving cadence. Mutated
// only by the stability tracker and the explicit reset-to-daily operation.
type StabilityState struct {
	UserID vo.UserID `json:"user_id"`

	// ConsecutiveStableDays resets to 0 on any instability or red-flag
	// event.
	ConsecutiveStableDays int `json:"consecutive_stable_days"`

	// Window holds the last N composite indices, oldest first.
	Window []float64 `json:"window"`

	ShortCadence CadenceClass `json:"short_cadence"`
	LongCadence  CadenceClass `json:"long_cadence"`
	ChangeReason ChangeReason `json:"change_reason"`

	LastSubmission vo.Day `json:"last_submission"`
	NextDue        vo.Day `json:"next_due"`

	// Version backs optimistic concurrency in the store.
	Version int64 `json:"version"`
}

// NewStabilityState returns the initial state for a user: unstable, counter
// zero, highest-frequency cadences.
func NewStabilityState(userID vo.UserID) *StabilityState {
	return &StabilityState{
		UserID:       userID,
		ShortCadence: CadenceDaily,
		LongCadence:  CadenceWeekly,
		ChangeReason: ReasonInstabilityDetected,
	}
}

// Phase derives the state machine phase from the counter and threshold.
func (s *StabilityState) Phase(stableDayThreshold int) Phase {
	switch {
	case s.ConsecutiveStableDays == 0:
		return PhaseUnstable
	case s.ConsecutiveStableDays < stableDayThreshold:
		return PhaseStabilizing
	default:
		return PhaseStable
	}
}

// PushIndex appends a composite index to the ring buffer, dropping the
// oldest entry past capacity.
func (s *StabilityState) PushIndex(index float64, capacity int) {
	s.Window = append(s.Window, index)
	if len(s.Window) > capacity {
		s.Window = s.Window[len(s.Window)-capacity:]
	}
}
