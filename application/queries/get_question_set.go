package queries

import (
	"calibrate-backend/domain/calibration"
	"calibrate-backend/pkg/utils"
)

// GetQuestionSetQuery derives today's question set for a user. Read-only and
// safe to call repeatedly: the set is a pure function of the goal profile
// and stability streak.
type GetQuestionSetQuery struct {
	UserID string `validate:"required,uuid"`
	Date   string `validate:"required,caldate"`
}

// Validate checks the query shape
func (q *GetQuestionSetQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// QuestionSetView is the question set plus what changed since the previous
// day, for UI highlighting.
type QuestionSetView struct {
	Set  calibration.QuestionSet `json:"set"`
	Diff calibration.SetDiff     `json:"diff"`
}
