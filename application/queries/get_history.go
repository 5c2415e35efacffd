package queries

import (
	"calibrate-backend/domain/calibration"
	"calibrate-backend/pkg/utils"
)

// GetEscalationsQuery reads a user's recent escalation triggers, newest
// first. The client uses it to offer the full instrument on the next cycle.
type GetEscalationsQuery struct {
	UserID string `validate:"required,uuid"`
	Limit  int    `validate:"omitempty,min=1,max=100"`
}

// Validate checks the query shape
func (q *GetEscalationsQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// EscalationsView is the recent escalation history.
type EscalationsView struct {
	Escalations []calibration.EscalationTrigger `json:"escalations"`
}

// GetSafetyEventsQuery reads a user's own safety event record, newest first.
type GetSafetyEventsQuery struct {
	UserID string `validate:"required,uuid"`
	Limit  int    `validate:"omitempty,min=1,max=100"`
}

// Validate checks the query shape
func (q *GetSafetyEventsQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// SafetyEventsView is the safety event history.
type SafetyEventsView struct {
	Events []calibration.SafetyEvent `json:"events"`
}
