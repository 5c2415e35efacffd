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

// GetCadenceHandler reads the cadence status bundle for a user.
type GetCadenceHandler struct {
	scheduler *calibration.CadenceScheduler
	stability ports.StabilityRepository
}

// NewGetCadenceHandler creates the handler.
func NewGetCadenceHandler(scheduler *calibration.CadenceScheduler, stability ports.StabilityRepository) *GetCadenceHandler {
	return &GetCadenceHandler{scheduler: scheduler, stability: stability}
}

// Handle implements bus.QueryHandler.
func (h *GetCadenceHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(*queries.GetCadenceQuery)
	if !ok {
		return nil, appErrors.NewInternalError(fmt.Sprintf("unexpected query type %T", q))
	}

	userID, err := vo.NewUserIDFromString(query.UserID)
	if err != nil {
		return nil, appErrors.NewValidationError(err.Error())
	}
	asOf, err := vo.NewDayFromString(query.AsOf)
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

	view := &queries.CadenceView{
		ShortFormCadence: state.ShortCadence,
		LongFormCadence:  state.LongCadence,
		LastChangeReason: state.ChangeReason,
		DueToday:         h.scheduler.DueToday(state, asOf),
	}
	if !state.NextDue.IsZero() {
		view.NextDueDate = state.NextDue.String()
	}
	return view, nil
}
