package queries

import (
	"calibrate-backend/domain/calibration"
	"calibrate-backend/pkg/utils"
)

// GetStabilityQuery reads a user's rolling-window stability snapshot.
type GetStabilityQuery struct {
	UserID string `validate:"required,uuid"`
}

// Validate checks the query shape
func (q *GetStabilityQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// StabilityView is the analytics snapshot surfaced to the UI.
type StabilityView struct {
	Phase                 calibration.Phase       `json:"phase"`
	ConsecutiveStableDays int                     `json:"consecutive_stable_days"`
	Window                []float64               `json:"window"`
	Stats                 calibration.WindowStats `json:"stats"`
	// CompletionRate is the share of the window actually filled with
	// submissions.
	CompletionRate float64 `json:"completion_rate"`
	LastSubmission string  `json:"last_submission,omitempty"`
}
