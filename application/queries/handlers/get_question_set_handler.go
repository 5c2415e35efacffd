package handlers

import (
	"context"
	"fmt"

	"calibrate-backend/application/ports"
	"calibrate-backend/application/queries"
	"calibrate-backend/application/queries/bus"
	"calibrate-backend/domain/calibration"
	vo "calibrate-backend/domain/core/valueobjects"
	appErrors "calibrate-backend/pkg/errors"
)

// GetQuestionSetHandler derives the daily question set from the goal
// profile and stability streak, with a diff against the previous day's
// derived set.
type GetQuestionSetHandler struct {
	generator *calibration.Generator
	profiles  ports.ProfileRepository
	stability ports.StabilityRepository
}

// NewGetQuestionSetHandler creates the handler.
func NewGetQuestionSetHandler(
	generator *calibration.Generator,
	profiles ports.ProfileRepository,
	stability ports.StabilityRepository,
) *GetQuestionSetHandler {
	return &GetQuestionSetHandler{
		generator: generator,
		profiles:  profiles,
		stability: stability,
	}
}

// Handle implements bus.QueryHandler.
func (h *GetQuestionSetHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(*queries.GetQuestionSetQuery)
	if !ok {
		return nil, appErrors.NewInternalError(fmt.Sprintf("unexpected query type %T", q))
	}

	userID, err := vo.NewUserIDFromString(query.UserID)
	if err != nil {
		return nil, appErrors.NewValidationError(err.Error())
	}
	date, err := vo.NewDayFromString(query.Date)
	if err != nil {
		return nil, appErrors.NewValidationError(err.Error())
	}

	profile, err := h.profiles.GetProfile(ctx, userID)
	if err != nil {
		if !appErrors.IsNotFound(err) {
			return nil, appErrors.NewPersistenceError("get_profile", err)
		}
		// No profile yet means no active goals: anchors only.
		profile = calibration.GoalProfile{UserID: userID}
	}

	stableDays := 0
	state, err := h.stability.Get(ctx, userID)
	switch {
	case err == nil:
		stableDays = state.ConsecutiveStableDays
	case appErrors.IsNotFound(err):
		// New user, streak starts at zero.
	default:
		return nil, appErrors.NewPersistenceError("get_stability", err)
	}

	set := h.generator.Generate(date, profile, stableDays)
	previous := h.generator.Generate(date.AddDays(-1), profile, previousStreak(stableDays))

	return &queries.QuestionSetView{
		Set:  set,
		Diff: calibration.Diff(previous, set),
	}, nil
}

// previousStreak reconstructs yesterday's streak for the diff. The streak
// can only have grown by at most one day since yesterday, so today-1 is
// right whenever the streak is advancing. After a reset both values are 0
// and the diff cannot see evolution items that dropped out of yesterday's
// set; the stored state keeps only the index window, not the prior streak,
// so yesterday's set is not reconstructable in that case.
func previousStreak(today int) int {
	if today > 0 {
		return today - 1
	}
	return 0
}
