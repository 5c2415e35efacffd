package handlers

import (
	"context"
	"fmt"

	"calibrate-backend/application/ports"
	"calibrate-backend/application/queries"
	"calibrate-backend/application/queries/bus"
	"calibrate-backend/domain/calibration"
	"calibrate-backend/domain/config"
	vo "calibrate-backend/domain/core/valueobjects"
	appErrors "calibrate-backend/pkg/errors"
)

// GetStabilityHandler builds the rolling-window snapshot: average, max,
// trend, and how much of the window the user actually filled.
type GetStabilityHandler struct {
	tracker   *calibration.StabilityTracker
	stability ports.StabilityRepository
	tuning    *config.Store
}

// NewGetStabilityHandler creates the handler.
func NewGetStabilityHandler(tracker *calibration.StabilityTracker, stability ports.StabilityRepository, tuning *config.Store) *GetStabilityHandler {
	return &GetStabilityHandler{tracker: tracker, stability: stability, tuning: tuning}
}

// Handle implements bus.QueryHandler.
func (h *GetStabilityHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(*queries.GetStabilityQuery)
	if !ok {
		return nil, appErrors.NewInternalError(fmt.Sprintf("unexpected query type %T", q))
	}

	userID, err := vo.NewUserIDFromString(query.UserID)
	if err != nil {
		return nil, appErrors.NewValidationError(err.Error())
	}

	state, err := h.stability.Get(ctx, userID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			state = calibration.NewStabilityState(userID)
		} else {
			return nil, appErrors.NewPersistenceError("get_stability", err)
		}
	}

	tuning := h.tuning.Current()
	view := &queries.StabilityView{
		Phase:                 state.Phase(tuning.StableDayThreshold),
		ConsecutiveStableDays: state.ConsecutiveStableDays,
		Window:                state.Window,
		Stats:                 h.tracker.Snapshot(state),
		CompletionRate:        float64(len(state.Window)) / float64(tuning.WindowSize),
	}
	if !state.LastSubmission.IsZero() {
		view.LastSubmission = state.LastSubmission.String()
	}
	return view, nil
}
