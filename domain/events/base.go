package events

import (
	"time"

	"calibrate-backend/domain/calibration"
	vo "calibrate-backend/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// CalibrationSubmitted is raised after a submission's pipeline commits.
type CalibrationSubmitted struct {
	BaseEvent
	UserID          vo.UserID `json:"user_id"`
	Date            vo.Day    `json:"date"`
	CompositeIndex  float64   `json:"composite_index"`
	HasIndex        bool      `json:"has_index"`
	SafetyTriggered bool      `json:"safety_triggered"`
	AnswerCount     int       `json:"answer_count"`
}

// NewCalibrationSubmitted creates a CalibrationSubmitted event
func NewCalibrationSubmitted(userID vo.UserID, date vo.Day, score calibration.ScoreResult, answerCount int, timestamp time.Time) CalibrationSubmitted {
	return CalibrationSubmitted{
		BaseEvent: BaseEvent{
			AggregateID: userID.String(),
			EventType:   "calibration.submitted",
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:          userID,
		Date:            date,
		CompositeIndex:  score.CompositeIndex,
		HasIndex:        score.HasIndex,
		SafetyTriggered: score.SafetyTriggered(),
		AnswerCount:     answerCount,
	}
}

// EscalationTriggered is raised when a short-scale score crosses its
// escalation threshold.
type EscalationTriggered struct {
	BaseEvent
	UserID      vo.UserID `json:"user_id"`
	ScaleID     string    `json:"scale_id"`
	Score       float64   `json:"score"`
	TargetScale string    `json:"target_scale"`
	Confidence  float64   `json:"confidence"`
}

// NewEscalationTriggered creates an EscalationTriggered event
func NewEscalationTriggered(trigger calibration.EscalationTrigger, timestamp time.Time) EscalationTriggered {
	return EscalationTriggered{
		BaseEvent: BaseEvent{
			AggregateID: trigger.UserID.String(),
			EventType:   "calibration.escalation_triggered",
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:      trigger.UserID,
		ScaleID:     trigger.ScaleID,
		Score:       trigger.Score,
		TargetScale: trigger.TargetScale,
		Confidence:  trigger.Confidence,
	}
}

// SafetyEventRecorded is raised after a safety event has been durably
// written. It is only published once the write succeeded, so downstream
// consumers can trust the log already holds the record.
type SafetyEventRecorded struct {
	BaseEvent
	UserID     vo.UserID                  `json:"user_id"`
	QuestionID string                     `json:"question_id"`
	Severity   calibration.SafetySeverity `json:"severity"`
	Date       vo.Day                     `json:"date"`
}

// NewSafetyEventRecorded creates a SafetyEventRecorded event
func NewSafetyEventRecorded(event calibration.SafetyEvent, timestamp time.Time) SafetyEventRecorded {
	return SafetyEventRecorded{
		BaseEvent: BaseEvent{
			AggregateID: event.UserID.String(),
			EventType:   "calibration.safety_event",
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:     event.UserID,
		QuestionID: event.QuestionID,
		Severity:   event.Severity,
		Date:       event.Date,
	}
}

// CadenceChanged is raised whenever the scheduler changes a user's cadence,
// including explicit resets.
type CadenceChanged struct {
	BaseEvent
	UserID       vo.UserID                `json:"user_id"`
	ShortCadence calibration.CadenceClass `json:"short_cadence"`
	LongCadence  calibration.CadenceClass `json:"long_cadence"`
	Reason       calibration.ChangeReason `json:"reason"`
}

// NewCadenceChanged creates a CadenceChanged event
func NewCadenceChanged(userID vo.UserID, state *calibration.StabilityState, timestamp time.Time) CadenceChanged {
	return CadenceChanged{
		BaseEvent: BaseEvent{
			AggregateID: userID.String(),
			EventType:   "calibration.cadence_changed",
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:       userID,
		ShortCadence: state.ShortCadence,
		LongCadence:  state.LongCadence,
		Reason:       state.ChangeReason,
	}
}
