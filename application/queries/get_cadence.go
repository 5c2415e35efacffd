package queries

import (
	"calibrate-backend/domain/calibration"
	"calibrate-backend/pkg/utils"
)

// GetCadenceQuery reads a user's current cadence and due status.
type GetCadenceQuery struct {
	UserID string `validate:"required,uuid"`
	// AsOf is the caller's current calendar day; due status is pull-based,
	// answered against this day rather than a server clock.
	AsOf string `validate:"required,caldate"`
}

// Validate checks the query shape
func (q *GetCadenceQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// CadenceView is the cadence status bundle.
type CadenceView struct {
	ShortFormCadence calibration.CadenceClass `json:"short_form_cadence"`
	LongFormCadence  calibration.CadenceClass `json:"long_form_cadence"`
	NextDueDate      string                   `json:"next_due_date,omitempty"`
	LastChangeReason calibration.ChangeReason `json:"last_change_reason"`
	DueToday         bool                     `json:"due_today"`
}
