package ports

import (
	"context"

	"calibrate-backend/domain/calibration"
	vo "calibrate-backend/domain/core/valueobjects"
	"calibrate-backend/domain/events"
)

// ResponseRepository persists raw answers. Writes are idempotent upserts:
// the same (user, scale, question, date) key overwrites in place, so a
// correction or a retried submission never duplicates a row.
type ResponseRepository interface {
	// SaveBatch upserts one submission's records.
	SaveBatch(ctx context.Context, records []calibration.ResponseRecord) error

	// FindByUserAndDate returns the records stored for one user-day.
	FindByUserAndDate(ctx context.Context, userID vo.UserID, date vo.Day) ([]calibration.ResponseRecord, error)
}

// StabilityRepository persists the per-user stability state. Save enforces
// optimistic concurrency on the state's Version and returns
// ErrStaleStabilityState when another writer got there first.
type StabilityRepository interface {
	// Get returns the state, or a not-found error for users who have never
	// submitted.
	Get(ctx context.Context, userID vo.UserID) (*calibration.StabilityState, error)

	// Save writes the state if its version still matches the store.
	Save(ctx context.Context, state *calibration.StabilityState) error
}

// ProfileRepository reads the goal profile maintained by the profile-editing
// surfaces. Read-only here.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID vo.UserID) (calibration.GoalProfile, error)
}

// EscalationLog is the append-only audit record of escalation triggers.
// Record is write-once per (user, scale, date); recording an already-present
// trigger succeeds without a second row.
type EscalationLog interface {
	Record(ctx context.Context, trigger calibration.EscalationTrigger) error
	ListByUser(ctx context.Context, userID vo.UserID, limit int) ([]calibration.EscalationTrigger, error)
}

// SafetyLog is the append-only safety event record. A failed Record fails
// the whole submission.
type SafetyLog interface {
	Record(ctx context.Context, event calibration.SafetyEvent) error
	ListByUser(ctx context.Context, userID vo.UserID, limit int) ([]calibration.SafetyEvent, error)
}

// EventPublisher pushes domain events to the bus, best-effort after the
// pipeline commits.
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}

// MetricsRecorder emits operational counters. Implementations must never
// fail a request over a metric.
type MetricsRecorder interface {
	CountSubmission(ctx context.Context, safetyTriggered bool)
	CountEscalation(ctx context.Context, scaleID string)
	CountCadenceChange(ctx context.Context, reason calibration.ChangeReason)
	RecordCompositeIndex(ctx context.Context, index float64)
}
