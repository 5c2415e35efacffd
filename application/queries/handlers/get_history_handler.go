package handlers

import (
	"context"
	"fmt"

	"calibrate-backend/application/ports"
	"calibrate-backend/application/queries"
	"calibrate-backend/application/queries/bus"
	vo "calibrate-backend/domain/core/valueobjects"
	appErrors "calibrate-backend/pkg/errors"
)

// defaultHistoryLimit caps history reads when the caller does not say.
const defaultHistoryLimit = 20

// GetEscalationsHandler reads the escalation audit log.
type GetEscalationsHandler struct {
	log ports.EscalationLog
}

// NewGetEscalationsHandler creates the handler.
func NewGetEscalationsHandler(log ports.EscalationLog) *GetEscalationsHandler {
	return &GetEscalationsHandler{log: log}
}

// Handle implements bus.QueryHandler.
func (h *GetEscalationsHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(*queries.GetEscalationsQuery)
	if !ok {
		return nil, appErrors.NewInternalError(fmt.Sprintf("unexpected query type %T", q))
	}

	userID, err := vo.NewUserIDFromString(query.UserID)
	if err != nil {
		return nil, appErrors.NewValidationError(err.Error())
	}

	limit := query.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}

	triggers, err := h.log.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.NewPersistenceError("list_escalations", err)
	}
	return &queries.EscalationsView{Escalations: triggers}, nil
}

// GetSafetyEventsHandler reads the safety event log.
type GetSafetyEventsHandler struct {
	log ports.SafetyLog
}

// NewGetSafetyEventsHandler creates the handler.
func NewGetSafetyEventsHandler(log ports.SafetyLog) *GetSafetyEventsHandler {
	return &GetSafetyEventsHandler{log: log}
}

// Handle implements bus.QueryHandler.
func (h *GetSafetyEventsHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(*queries.GetSafetyEventsQuery)
	if !ok {
		return nil, appErrors.NewInternalError(fmt.Sprintf("unexpected query type %T", q))
	}

	userID, err := vo.NewUserIDFromString(query.UserID)
	if err != nil {
		return nil, appErrors.NewValidationError(err.Error())
	}

	limit := query.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}

	events, err := h.log.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.NewPersistenceError("list_safety_events", err)
	}
	return &queries.SafetyEventsView{Events: events}, nil
}
