package commands

import "calibrate-backend/pkg/utils"

// ResetToDailyCommand is the explicit user override: back to the
// highest-frequency cadence, streak zeroed. Always succeeds idempotently.
type ResetToDailyCommand struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// Validate checks the command shape
func (c *ResetToDailyCommand) Validate() error {
	return utils.ValidateStruct(c)
}
