package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"calibrate-backend/application/commands"
	"calibrate-backend/application/commands/bus"
	"calibrate-backend/application/queries"
	querybus "calibrate-backend/application/queries/bus"
	"calibrate-backend/domain/calibration"
	vo "calibrate-backend/domain/core/valueobjects"
	"calibrate-backend/pkg/common"
	appErrors "calibrate-backend/pkg/errors"
)

// maxSubmissionBytes bounds a submission request body.
const maxSubmissionBytes = 64 * 1024

// CalibrationHandler exposes the calibration engine over REST. The user
// identity always comes from the authenticated context, never from the
// request payload.
type CalibrationHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewCalibrationHandler creates a new calibration handler
func NewCalibrationHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, logger *zap.Logger) *CalibrationHandler {
	return &CalibrationHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
	}
}

// GetQuestionSet handles GET /question-set?date=YYYY-MM-DD
func (h *CalibrationHandler) GetQuestionSet(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("missing user context"))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), &queries.GetQuestionSetQuery{
		UserID: userID,
		Date:   dateParam(r, "date"),
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// submissionRequest is the POST /submissions payload.
type submissionRequest struct {
	Date    string                        `json:"date"`
	Source  calibration.Source            `json:"source"`
	Answers map[string]calibration.Answer `json:"answers"`
}

// SubmitResponses handles POST /submissions
func (h *CalibrationHandler) SubmitResponses(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("missing user context"))
		return
	}

	var req submissionRequest
	if err := common.ParseJSONBody(r, &req, maxSubmissionBytes); err != nil {
		common.RespondAppError(w, appErrors.NewValidationError(err.Error()))
		return
	}
	if req.Date == "" {
		req.Date = vo.Today().String()
	}
	if req.Source == "" {
		req.Source = calibration.SourceDaily
	}

	cmd := &commands.SubmitResponsesCommand{
		UserID:  userID,
		Date:    req.Date,
		Source:  req.Source,
		Answers: req.Answers,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, cmd.Result)
}

// GetCadence handles GET /cadence?as_of=YYYY-MM-DD
func (h *CalibrationHandler) GetCadence(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("missing user context"))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), &queries.GetCadenceQuery{
		UserID: userID,
		AsOf:   dateParam(r, "as_of"),
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// ResetCadence handles POST /cadence/reset
func (h *CalibrationHandler) ResetCadence(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("missing user context"))
		return
	}

	if err := h.commandBus.Send(r.Context(), &commands.ResetToDailyCommand{UserID: userID}); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStability handles GET /stability
func (h *CalibrationHandler) GetStability(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("missing user context"))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), &queries.GetStabilityQuery{UserID: userID})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// GetEscalations handles GET /escalations?limit=N
func (h *CalibrationHandler) GetEscalations(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("missing user context"))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), &queries.GetEscalationsQuery{
		UserID: userID,
		Limit:  limitParam(r),
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// GetSafetyEvents handles GET /safety-events?limit=N
func (h *CalibrationHandler) GetSafetyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("missing user context"))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), &queries.GetSafetyEventsQuery{
		UserID: userID,
		Limit:  limitParam(r),
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// dateParam returns a date query parameter, defaulting to today.
func dateParam(r *http.Request, name string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return vo.Today().String()
}

func limitParam(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}
