package commands

import (
	"calibrate-backend/domain/calibration"
	"calibrate-backend/pkg/utils"
)

// SubmitResponsesCommand carries one batch of raw answers for a user-day.
// It is the engine's only mutating entry point. The handler fills Result on
// success.
type SubmitResponsesCommand struct {
	UserID  string                         `json:"user_id" validate:"required,uuid"`
	Date    string                         `json:"date" validate:"required,caldate"`
	Source  calibration.Source             `json:"source" validate:"required,oneof=daily weekly full_instrument"`
	Answers map[string]calibration.Answer  `json:"answers" validate:"required,min=1"`

	Result *SubmissionResult `json:"-"`
}

// Validate checks the structural shape of the command. Answer-domain
// validation against the catalog happens in the handler.
func (c *SubmitResponsesCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// SubmissionResult is the bundle returned to the caller after the pipeline
// ran.
type SubmissionResult struct {
	Scores          calibration.ScoreResult         `json:"scores"`
	Escalations     []calibration.EscalationTrigger `json:"escalations,omitempty"`
	SafetyTriggered bool                            `json:"safety_triggered"`
	ShortCadence    calibration.CadenceClass        `json:"short_cadence"`
	LongCadence     calibration.CadenceClass        `json:"long_cadence"`
	NextDue         string                          `json:"next_due"`
	Stability       calibration.Verdict             `json:"stability"`
}
