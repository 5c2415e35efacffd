package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"calibrate-backend/application/commands"
	"calibrate-backend/domain/calibration"
	"calibrate-backend/domain/catalog"
	"calibrate-backend/domain/config"
	vo "calibrate-backend/domain/core/valueobjects"
	"calibrate-backend/domain/events"
	appErrors "calibrate-backend/pkg/errors"
)

// --- port fakes ---

type fakeResponseRepo struct {
	batches [][]calibration.ResponseRecord
	err     error
}

func (f *fakeResponseRepo) SaveBatch(_ context.Context, records []calibration.ResponseRecord) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, records)
	return nil
}

func (f *fakeResponseRepo) FindByUserAndDate(context.Context, vo.UserID, vo.Day) ([]calibration.ResponseRecord, error) {
	return nil, nil
}

// fakeStabilityRepo replays saveErrs one per Save call, then succeeds.
type fakeStabilityRepo struct {
	state    *calibration.StabilityState
	getErr   error
	saveErrs []error
	saves    int
}

func (f *fakeStabilityRepo) Get(context.Context, vo.UserID) (*calibration.StabilityState, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.state == nil {
		return nil, appErrors.NewNotFoundError("stability state")
	}
	clone := *f.state
	clone.Window = append([]float64(nil), f.state.Window...)
	return &clone, nil
}

func (f *fakeStabilityRepo) Save(_ context.Context, state *calibration.StabilityState) error {
	f.saves++
	if len(f.saveErrs) > 0 {
		err := f.saveErrs[0]
		f.saveErrs = f.saveErrs[1:]
		if err != nil {
			return err
		}
	}
	state.Version++
	clone := *state
	clone.Window = append([]float64(nil), state.Window...)
	f.state = &clone
	return nil
}

type fakeEscalationLog struct {
	recorded []calibration.EscalationTrigger
	err      error
}

func (f *fakeEscalationLog) Record(_ context.Context, trigger calibration.EscalationTrigger) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, trigger)
	return nil
}

func (f *fakeEscalationLog) ListByUser(context.Context, vo.UserID, int) ([]calibration.EscalationTrigger, error) {
	return f.recorded, nil
}

type fakeSafetyLog struct {
	recorded []calibration.SafetyEvent
	err      error
}

func (f *fakeSafetyLog) Record(_ context.Context, event calibration.SafetyEvent) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, event)
	return nil
}

func (f *fakeSafetyLog) ListByUser(context.Context, vo.UserID, int) ([]calibration.SafetyEvent, error) {
	return f.recorded, nil
}

type fakePublisher struct {
	published []events.DomainEvent
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, evts...)
	return nil
}

type fakeMetrics struct {
	submissions    int
	escalations    []string
	cadenceChanges []calibration.ChangeReason
	indices        []float64
}

func (f *fakeMetrics) CountSubmission(context.Context, bool)      { f.submissions++ }
func (f *fakeMetrics) CountEscalation(_ context.Context, s string) { f.escalations = append(f.escalations, s) }
func (f *fakeMetrics) CountCadenceChange(_ context.Context, r calibration.ChangeReason) {
	f.cadenceChanges = append(f.cadenceChanges, r)
}
func (f *fakeMetrics) RecordCompositeIndex(_ context.Context, v float64) {
	f.indices = append(f.indices, v)
}

// --- harness ---

type orchestratorFixture struct {
	orchestrator *SubmitResponsesOrchestrator
	responses    *fakeResponseRepo
	stability    *fakeStabilityRepo
	escalations  *fakeEscalationLog
	safety       *fakeSafetyLog
	publisher    *fakePublisher
	metrics      *fakeMetrics
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()

	tuning := config.NewStore(config.DefaultTuning())
	cat := catalog.Default()
	require.NoError(t, cat.Validate())

	f := &orchestratorFixture{
		responses:   &fakeResponseRepo{},
		stability:   &fakeStabilityRepo{},
		escalations: &fakeEscalationLog{},
		safety:      &fakeSafetyLog{},
		publisher:   &fakePublisher{},
		metrics:     &fakeMetrics{},
	}
	f.orchestrator = NewSubmitResponsesOrchestrator(
		calibration.NewScorer(cat, tuning),
		calibration.NewEscalationPolicy(tuning),
		calibration.NewStabilityTracker(tuning),
		calibration.NewCadenceScheduler(tuning),
		f.responses,
		f.stability,
		f.escalations,
		f.safety,
		f.publisher,
		f.metrics,
		nil,
		zap.NewNop(),
	)
	return f
}

func submitCmd(answers map[string]calibration.Answer) *commands.SubmitResponsesCommand {
	return &commands.SubmitResponsesCommand{
		UserID:  uuid.New().String(),
		Date:    "2026-03-10",
		Source:  calibration.SourceDaily,
		Answers: answers,
	}
}

func calmAnswers() map[string]calibration.Answer {
	return map[string]calibration.Answer{
		"sleep_hours":  {Value: 8},
		"stress_level": {Value: 0},
		"gad7_q1":      {Value: 0},
		"gad7_q2":      {Value: 0},
	}
}

// --- tests ---

func TestOrchestrator_HappyPath(t *testing.T) {
	f := newOrchestratorFixture(t)
	cmd := submitCmd(calmAnswers())

	err := f.orchestrator.Handle(context.Background(), cmd)
	require.NoError(t, err)

	require.Len(t, f.responses.batches, 1)
	assert.Len(t, f.responses.batches[0], 4)

	require.NotNil(t, cmd.Result)
	assert.True(t, cmd.Result.Scores.HasIndex)
	assert.InDelta(t, 100, cmd.Result.Scores.CompositeIndex, 0.001)
	assert.False(t, cmd.Result.SafetyTriggered)
	assert.Empty(t, cmd.Result.Escalations)
	assert.Equal(t, 1, cmd.Result.Stability.Counter)
	assert.Equal(t, calibration.CadenceDaily, cmd.Result.ShortCadence)
	assert.Equal(t, "2026-03-11", cmd.Result.NextDue)

	// One submitted event, nothing else.
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, "calibration.submitted", f.publisher.published[0].GetEventType())

	assert.Equal(t, 1, f.metrics.submissions)
	assert.Len(t, f.metrics.indices, 1)
	assert.Empty(t, f.safety.recorded)
}

func TestOrchestrator_RecordsScaleIDsOnResponses(t *testing.T) {
	f := newOrchestratorFixture(t)
	cmd := submitCmd(map[string]calibration.Answer{
		"gad7_q1": {Value: 1},
	})

	require.NoError(t, f.orchestrator.Handle(context.Background(), cmd))

	require.Len(t, f.responses.batches, 1)
	record := f.responses.batches[0][0]
	assert.Equal(t, "gad7_q1", record.QuestionID)
	assert.Equal(t, "gad2", record.ScaleID)
	assert.Equal(t, calibration.SourceDaily, record.Source)
}

func TestOrchestrator_RejectsInvalidAnswersBeforePersisting(t *testing.T) {
	f := newOrchestratorFixture(t)
	cmd := submitCmd(map[string]calibration.Answer{
		"no_such_question": {Value: 1},
	})

	err := f.orchestrator.Handle(context.Background(), cmd)
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
	assert.Empty(t, f.responses.batches)
	assert.Equal(t, 0, f.stability.saves)
	assert.Nil(t, cmd.Result)
}

func TestOrchestrator_RejectsOutOfRangeAnswer(t *testing.T) {
	f := newOrchestratorFixture(t)
	cmd := submitCmd(map[string]calibration.Answer{
		"sleep_hours": {Value: 13},
	})

	err := f.orchestrator.Handle(context.Background(), cmd)
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
	assert.Empty(t, f.responses.batches)
}

func TestOrchestrator_PersistFailureIsPersistenceError(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.responses.err = errors.New("dynamodb unavailable")

	err := f.orchestrator.Handle(context.Background(), submitCmd(calmAnswers()))
	require.Error(t, err)
	assert.True(t, appErrors.IsPersistence(err))
	assert.Equal(t, 0, f.stability.saves)
}

func TestOrchestrator_SafetyEventRecordedAndGraded(t *testing.T) {
	f := newOrchestratorFixture(t)
	answers := calmAnswers()
	answers["phq9_q9"] = calibration.Answer{Value: 2}
	cmd := submitCmd(answers)
	cmd.Source = calibration.SourceFullInstrument

	require.NoError(t, f.orchestrator.Handle(context.Background(), cmd))

	require.Len(t, f.safety.recorded, 1)
	event := f.safety.recorded[0]
	assert.Equal(t, "phq9_q9", event.QuestionID)
	assert.Equal(t, float64(2), event.Value)
	assert.Equal(t, calibration.SeverityCritical, event.Severity)
	assert.Equal(t, string(calibration.SourceFullInstrument), event.Context)
	assert.NotEmpty(t, event.ID)

	assert.True(t, cmd.Result.SafetyTriggered)
	assert.True(t, cmd.Result.Stability.RedFlag)
	assert.Equal(t, 0, cmd.Result.Stability.Counter)

	// submitted + safety event
	eventTypes := make([]string, 0, len(f.publisher.published))
	for _, e := range f.publisher.published {
		eventTypes = append(eventTypes, e.GetEventType())
	}
	assert.Contains(t, eventTypes, "calibration.safety_event")
}

func TestOrchestrator_ThresholdValueIsElevatedNotCritical(t *testing.T) {
	f := newOrchestratorFixture(t)
	answers := map[string]calibration.Answer{
		"phq9_q9": {Value: 1},
	}

	require.NoError(t, f.orchestrator.Handle(context.Background(), submitCmd(answers)))

	require.Len(t, f.safety.recorded, 1)
	assert.Equal(t, calibration.SeverityElevated, f.safety.recorded[0].Severity)
}

func TestOrchestrator_SafetyWriteFailureFailsSubmission(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.safety.err = errors.New("write throttled")
	answers := calmAnswers()
	answers["phq9_q9"] = calibration.Answer{Value: 2}
	cmd := submitCmd(answers)

	err := f.orchestrator.Handle(context.Background(), cmd)
	require.Error(t, err)
	assert.True(t, appErrors.IsSafetyWrite(err))
	assert.True(t, appErrors.IsRetryable(err))

	// Raw answers were already durable, but nothing downstream ran.
	assert.Len(t, f.responses.batches, 1)
	assert.Equal(t, 0, f.stability.saves)
	assert.Empty(t, f.publisher.published)
	assert.Nil(t, cmd.Result)
}

func TestOrchestrator_EscalationTriggeredAndLogged(t *testing.T) {
	f := newOrchestratorFixture(t)
	answers := map[string]calibration.Answer{
		"gad7_q1": {Value: 2},
		"gad7_q2": {Value: 2},
	}
	cmd := submitCmd(answers)

	require.NoError(t, f.orchestrator.Handle(context.Background(), cmd))

	require.Len(t, f.escalations.recorded, 1)
	trigger := f.escalations.recorded[0]
	assert.Equal(t, "gad2", trigger.ScaleID)
	assert.Equal(t, "gad7", trigger.TargetScale)
	assert.Equal(t, float64(4), trigger.Score)

	require.Len(t, cmd.Result.Escalations, 1)
	assert.Equal(t, []string{"gad2"}, f.metrics.escalations)
}

func TestOrchestrator_EscalationLogFailureOnlyWarns(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.escalations.err = errors.New("audit table down")
	answers := map[string]calibration.Answer{
		"gad7_q1": {Value: 2},
		"gad7_q2": {Value: 2},
	}
	cmd := submitCmd(answers)

	err := f.orchestrator.Handle(context.Background(), cmd)
	require.NoError(t, err)
	require.NotNil(t, cmd.Result)
	assert.Len(t, cmd.Result.Escalations, 1)
	assert.Equal(t, 1, f.stability.saves)
}

func TestOrchestrator_StaleStateRetriesAndSucceeds(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.stability.saveErrs = []error{appErrors.ErrStaleStabilityState}

	cmd := submitCmd(calmAnswers())
	require.NoError(t, f.orchestrator.Handle(context.Background(), cmd))

	assert.Equal(t, 2, f.stability.saves)
	assert.Equal(t, 1, cmd.Result.Stability.Counter)
}

func TestOrchestrator_StaleStateExhaustionIsPartialPipeline(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.stability.saveErrs = []error{
		appErrors.ErrStaleStabilityState,
		appErrors.ErrStaleStabilityState,
		appErrors.ErrStaleStabilityState,
	}

	cmd := submitCmd(calmAnswers())
	err := f.orchestrator.Handle(context.Background(), cmd)
	require.Error(t, err)
	assert.True(t, appErrors.IsPartialPipeline(err))
	assert.Equal(t, "stability", appErrors.PipelineStage(err))
	assert.True(t, appErrors.IsRetryable(err))
	assert.Nil(t, cmd.Result)

	// The raw answers survived the partial failure.
	assert.Len(t, f.responses.batches, 1)
}

func TestOrchestrator_ResubmissionSameDayDoesNotAdvanceStreak(t *testing.T) {
	f := newOrchestratorFixture(t)

	cmd := submitCmd(calmAnswers())
	require.NoError(t, f.orchestrator.Handle(context.Background(), cmd))
	require.Equal(t, 1, cmd.Result.Stability.Counter)
	windowAfterFirst := len(f.stability.state.Window)

	again := submitCmd(calmAnswers())
	again.UserID = cmd.UserID
	require.NoError(t, f.orchestrator.Handle(context.Background(), again))

	assert.Equal(t, 1, again.Result.Stability.Counter)
	assert.Equal(t, windowAfterFirst, len(f.stability.state.Window))
	// Two upserts of the same records, no duplicates implied.
	assert.Len(t, f.responses.batches, 2)
}

func TestOrchestrator_RedFlagOnResubmissionStillResetsStreak(t *testing.T) {
	f := newOrchestratorFixture(t)

	cmd := submitCmd(calmAnswers())
	require.NoError(t, f.orchestrator.Handle(context.Background(), cmd))
	require.Equal(t, 1, cmd.Result.Stability.Counter)

	answers := calmAnswers()
	answers["phq9_q9"] = calibration.Answer{Value: 2}
	again := submitCmd(answers)
	again.UserID = cmd.UserID
	require.NoError(t, f.orchestrator.Handle(context.Background(), again))

	assert.Equal(t, 0, again.Result.Stability.Counter)
}

func TestOrchestrator_PublisherFailureDoesNotFailSubmission(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.publisher.err = errors.New("eventbridge throttled")

	cmd := submitCmd(calmAnswers())
	require.NoError(t, f.orchestrator.Handle(context.Background(), cmd))
	require.NotNil(t, cmd.Result)
}

func TestOrchestrator_UnscoredSubmissionLeavesWindowUntouched(t *testing.T) {
	f := newOrchestratorFixture(t)
	cmd := submitCmd(map[string]calibration.Answer{
		"mood_reflection": {Text: "slept fine, felt okay"},
	})

	require.NoError(t, f.orchestrator.Handle(context.Background(), cmd))

	assert.False(t, cmd.Result.Scores.HasIndex)
	assert.Empty(t, f.stability.state.Window)
	assert.Equal(t, 0, cmd.Result.Stability.Counter)
	assert.Empty(t, f.metrics.indices)
}
