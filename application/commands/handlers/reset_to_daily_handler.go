package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"calibrate-backend/application/commands"
	"calibrate-backend/application/commands/bus"
	"calibrate-backend/application/ports"
	"calibrate-backend/domain/calibration"
	vo "calibrate-backend/domain/core/valueobjects"
	"calibrate-backend/domain/events"
	appErrors "calibrate-backend/pkg/errors"
)

// ResetToDailyHandler applies the explicit user override to the stability
// state. The operation is idempotent: resetting an already-daily user
// succeeds and re-records the user_choice reason.
type ResetToDailyHandler struct {
	scheduler *calibration.CadenceScheduler
	stability ports.StabilityRepository
	publisher ports.EventPublisher
	metrics   ports.MetricsRecorder
	logger    *zap.Logger
}

// NewResetToDailyHandler creates the handler.
func NewResetToDailyHandler(
	scheduler *calibration.CadenceScheduler,
	stability ports.StabilityRepository,
	publisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *ResetToDailyHandler {
	return &ResetToDailyHandler{
		scheduler: scheduler,
		stability: stability,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Handle implements bus.CommandHandler.
func (h *ResetToDailyHandler) Handle(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(*commands.ResetToDailyCommand)
	if !ok {
		return appErrors.NewInternalError(fmt.Sprintf("unexpected command type %T", c))
	}

	userID, err := vo.NewUserIDFromString(cmd.UserID)
	if err != nil {
		return appErrors.NewValidationError(err.Error())
	}

	var lastErr error
	for attempt := 0; attempt < stabilitySaveRetries; attempt++ {
		state, err := h.stability.Get(ctx, userID)
		if err != nil {
			if appErrors.IsNotFound(err) {
				state = calibration.NewStabilityState(userID)
			} else {
				return appErrors.NewPersistenceError("get_stability", err)
			}
		}

		h.scheduler.ResetToDaily(state)

		if err := h.stability.Save(ctx, state); err != nil {
			if errors.Is(err, appErrors.ErrStaleStabilityState) {
				lastErr = err
				continue
			}
			return appErrors.NewPersistenceError("save_stability", err)
		}

		if err := h.publisher.Publish(ctx, events.NewCadenceChanged(userID, state, time.Now().UTC())); err != nil {
			h.logger.Warn("failed to publish cadence change",
				zap.String("userID", userID.String()),
				zap.Error(err))
		}
		h.metrics.CountCadenceChange(ctx, calibration.ReasonUserChoice)

		h.logger.Info("cadence reset to daily",
			zap.String("userID", userID.String()))
		return nil
	}
	return appErrors.NewPersistenceError("save_stability", lastErr)
}
