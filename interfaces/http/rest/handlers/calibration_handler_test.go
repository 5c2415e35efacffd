package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"calibrate-backend/application/commands"
	"calibrate-backend/application/commands/bus"
	"calibrate-backend/application/queries"
	querybus "calibrate-backend/application/queries/bus"
	"calibrate-backend/domain/calibration"
	"calibrate-backend/pkg/common"
)

type handlerFixture struct {
	handler *CalibrationHandler
	userID  string

	submitted []*commands.SubmitResponsesCommand
	resets    []*commands.ResetToDailyCommand
	queried   []querybus.Query
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := &handlerFixture{userID: uuid.New().String()}

	commandBus := bus.NewCommandBus()
	require.NoError(t, commandBus.Register(&commands.SubmitResponsesCommand{},
		bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) error {
			submit := cmd.(*commands.SubmitResponsesCommand)
			f.submitted = append(f.submitted, submit)
			submit.Result = &commands.SubmissionResult{
				ShortCadence: calibration.CadenceDaily,
				LongCadence:  calibration.CadenceWeekly,
				NextDue:      "2026-03-11",
			}
			return nil
		})))
	require.NoError(t, commandBus.Register(&commands.ResetToDailyCommand{},
		bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) error {
			f.resets = append(f.resets, cmd.(*commands.ResetToDailyCommand))
			return nil
		})))

	queryBus := querybus.NewQueryBus()
	record := querybus.QueryHandlerFunc(func(ctx context.Context, q querybus.Query) (interface{}, error) {
		f.queried = append(f.queried, q)
		return map[string]string{"ok": "true"}, nil
	})
	require.NoError(t, queryBus.Register(&queries.GetQuestionSetQuery{}, record))
	require.NoError(t, queryBus.Register(&queries.GetCadenceQuery{}, record))
	require.NoError(t, queryBus.Register(&queries.GetStabilityQuery{}, record))
	require.NoError(t, queryBus.Register(&queries.GetEscalationsQuery{}, record))
	require.NoError(t, queryBus.Register(&queries.GetSafetyEventsQuery{}, record))

	f.handler = NewCalibrationHandler(commandBus, queryBus, zap.NewNop())
	return f
}

func (f *handlerFixture) request(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(common.WithUserID(req.Context(), f.userID))
}

func TestSubmitResponses_Success(t *testing.T) {
	f := newHandlerFixture(t)

	body := `{"date":"2026-03-10","source":"daily","answers":{"stress_level":{"value":1}}}`
	rec := httptest.NewRecorder()
	f.handler.SubmitResponses(rec, f.request(http.MethodPost, "/submissions", body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.submitted, 1)
	cmd := f.submitted[0]
	assert.Equal(t, f.userID, cmd.UserID)
	assert.Equal(t, "2026-03-10", cmd.Date)
	assert.Equal(t, calibration.SourceDaily, cmd.Source)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			NextDue string `json:"next_due"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "2026-03-11", envelope.Data.NextDue)
}

func TestSubmitResponses_DefaultsDateAndSource(t *testing.T) {
	f := newHandlerFixture(t)

	body := `{"answers":{"stress_level":{"value":1}}}`
	rec := httptest.NewRecorder()
	f.handler.SubmitResponses(rec, f.request(http.MethodPost, "/submissions", body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.submitted, 1)
	assert.NotEmpty(t, f.submitted[0].Date)
	assert.Equal(t, calibration.SourceDaily, f.submitted[0].Source)
}

func TestSubmitResponses_MalformedBody(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	f.handler.SubmitResponses(rec, f.request(http.MethodPost, "/submissions", `{not json`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.submitted)
}

func TestSubmitResponses_EmptyAnswersRejected(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	f.handler.SubmitResponses(rec, f.request(http.MethodPost, "/submissions", `{"answers":{}}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.submitted)
}

func TestSubmitResponses_NoUserContext(t *testing.T) {
	f := newHandlerFixture(t)

	body := `{"answers":{"stress_level":{"value":1}}}`
	req := httptest.NewRequest(http.MethodPost, "/submissions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.SubmitResponses(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.submitted)
}

func TestGetQuestionSet_UsesDateParam(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	f.handler.GetQuestionSet(rec, f.request(http.MethodGet, "/question-set?date=2026-03-10", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.queried, 1)
	q := f.queried[0].(*queries.GetQuestionSetQuery)
	assert.Equal(t, f.userID, q.UserID)
	assert.Equal(t, "2026-03-10", q.Date)
}

func TestGetQuestionSet_DefaultsToToday(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	f.handler.GetQuestionSet(rec, f.request(http.MethodGet, "/question-set", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.queried, 1)
	assert.NotEmpty(t, f.queried[0].(*queries.GetQuestionSetQuery).Date)
}

func TestResetCadence_NoContent(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	f.handler.ResetCadence(rec, f.request(http.MethodPost, "/cadence/reset", ""))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, f.resets, 1)
	assert.Equal(t, f.userID, f.resets[0].UserID)
}

func TestGetEscalations_LimitParam(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	f.handler.GetEscalations(rec, f.request(http.MethodGet, "/escalations?limit=5", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.queried, 1)
	assert.Equal(t, 5, f.queried[0].(*queries.GetEscalationsQuery).Limit)
}

func TestGetStability_QueriesForContextUser(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	f.handler.GetStability(rec, f.request(http.MethodGet, "/stability", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.queried, 1)
	assert.Equal(t, f.userID, f.queried[0].(*queries.GetStabilityQuery).UserID)
}
