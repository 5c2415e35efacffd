package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"calibrate-backend/application/commands"
	"calibrate-backend/application/commands/bus"
	"calibrate-backend/application/ports"
	"calibrate-backend/domain/calibration"
	vo "calibrate-backend/domain/core/valueobjects"
	"calibrate-backend/domain/events"
	appErrors "calibrate-backend/pkg/errors"
	"calibrate-backend/pkg/observability"
)

// stabilitySaveRetries bounds the optimistic-concurrency loop for the
// per-user stability record.
const stabilitySaveRetries = 3

// SubmitResponsesOrchestrator runs the submission pipeline for one user-day:
// validate, persist raw responses, score, record safety events, evaluate
// escalation, update stability and cadence, publish events. Raw responses
// are durable before any post-processing runs, so a failed pipeline never
// loses an answer.
type SubmitResponsesOrchestrator struct {
	scorer     *calibration.Scorer
	escalation *calibration.EscalationPolicy
	tracker    *calibration.StabilityTracker
	scheduler  *calibration.CadenceScheduler

	responses     ports.ResponseRepository
	stability     ports.StabilityRepository
	escalationLog ports.EscalationLog
	safetyLog     ports.SafetyLog
	publisher     ports.EventPublisher
	metrics       ports.MetricsRecorder

	tracer *observability.Tracer
	logger *zap.Logger
}

// NewSubmitResponsesOrchestrator wires the submission pipeline.
func NewSubmitResponsesOrchestrator(
	scorer *calibration.Scorer,
	escalation *calibration.EscalationPolicy,
	tracker *calibration.StabilityTracker,
	scheduler *calibration.CadenceScheduler,
	responses ports.ResponseRepository,
	stability ports.StabilityRepository,
	escalationLog ports.EscalationLog,
	safetyLog ports.SafetyLog,
	publisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *SubmitResponsesOrchestrator {
	return &SubmitResponsesOrchestrator{
		scorer:        scorer,
		escalation:    escalation,
		tracker:       tracker,
		scheduler:     scheduler,
		responses:     responses,
		stability:     stability,
		escalationLog: escalationLog,
		safetyLog:     safetyLog,
		publisher:     publisher,
		metrics:       metrics,
		tracer:        tracer,
		logger:        logger,
	}
}

// Handle implements bus.CommandHandler.
func (o *SubmitResponsesOrchestrator) Handle(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(*commands.SubmitResponsesCommand)
	if !ok {
		return appErrors.NewInternalError(fmt.Sprintf("unexpected command type %T", c))
	}

	userID, err := vo.NewUserIDFromString(cmd.UserID)
	if err != nil {
		return appErrors.NewValidationError(err.Error())
	}
	date, err := vo.NewDayFromString(cmd.Date)
	if err != nil {
		return appErrors.NewValidationError(err.Error())
	}

	// Step 1: validate every answer against its catalog definition. Nothing
	// is written for a submission that fails here.
	if err := o.traced(ctx, "validate", func(context.Context) error {
		return o.scorer.Validate(cmd.Answers)
	}); err != nil {
		return err
	}

	// Step 2: persist raw responses. Idempotent upsert, so a retry of the
	// same submission overwrites in place.
	records := o.buildRecords(userID, date, cmd.Source, cmd.Answers)
	if err := o.traced(ctx, "persist_responses", func(ctx context.Context) error {
		return o.responses.SaveBatch(ctx, records)
	}); err != nil {
		return appErrors.NewPersistenceError("save_responses", err)
	}

	// Step 3: score. Pure, never fails for a validated submission.
	score := o.scorer.Score(cmd.Answers)

	// Step 4: safety events. Written synchronously before anything else is
	// done with the result; a failure here fails the whole submission even
	// though the answers are already durable.
	safetyEvents, err := o.recordSafetyEvents(ctx, userID, date, cmd, score)
	if err != nil {
		return err
	}

	// Step 5: escalation. Best-effort audit log; a write failure degrades
	// to a warning because the full instrument can still be offered next
	// cycle.
	triggers := o.escalation.Evaluate(userID, date, score.ScaleScores)
	for _, trigger := range triggers {
		if err := o.escalationLog.Record(ctx, trigger); err != nil {
			o.logger.Warn("failed to record escalation trigger",
				zap.String("userID", userID.String()),
				zap.String("scale", trigger.ScaleID),
				zap.Error(err))
		}
		o.metrics.CountEscalation(ctx, trigger.ScaleID)
	}

	// Step 6: stability and cadence, one read-modify-write on the per-user
	// state with optimistic retries.
	state, verdict, cadenceChanged, err := o.updateStability(ctx, userID, date, score)
	if err != nil {
		return err
	}

	// Step 7: publish domain events after the pipeline committed.
	o.publishEvents(ctx, userID, date, cmd, score, triggers, safetyEvents, state, cadenceChanged)

	o.metrics.CountSubmission(ctx, score.SafetyTriggered())
	if score.HasIndex {
		o.metrics.RecordCompositeIndex(ctx, score.CompositeIndex)
	}
	if cadenceChanged {
		o.metrics.CountCadenceChange(ctx, state.ChangeReason)
	}

	cmd.Result = &commands.SubmissionResult{
		Scores:          score,
		Escalations:     triggers,
		SafetyTriggered: score.SafetyTriggered(),
		ShortCadence:    state.ShortCadence,
		LongCadence:     state.LongCadence,
		NextDue:         state.NextDue.String(),
		Stability:       verdict,
	}

	o.logger.Info("calibration submission processed",
		zap.String("userID", userID.String()),
		zap.String("date", date.String()),
		zap.Bool("safetyTriggered", score.SafetyTriggered()),
		zap.Int("escalations", len(triggers)),
		zap.String("phase", string(verdict.PhaseAfter)))
	return nil
}

func (o *SubmitResponsesOrchestrator) buildRecords(userID vo.UserID, date vo.Day, source calibration.Source, answers map[string]calibration.Answer) []calibration.ResponseRecord {
	records := make([]calibration.ResponseRecord, 0, len(answers))
	for id, a := range answers {
		record := calibration.ResponseRecord{
			UserID:     userID,
			QuestionID: id,
			Date:       date,
			Value:      a.Value,
			Text:       a.Text,
			Source:     source,
		}
		if q, ok := o.scorer.Catalog().Get(id); ok {
			record.ScaleID = q.Scale
		}
		records = append(records, record)
	}
	return records
}

func (o *SubmitResponsesOrchestrator) recordSafetyEvents(ctx context.Context, userID vo.UserID, date vo.Day, cmd *commands.SubmitResponsesCommand, score calibration.ScoreResult) ([]calibration.SafetyEvent, error) {
	if !score.SafetyTriggered() {
		return nil, nil
	}

	evts := make([]calibration.SafetyEvent, 0, len(score.SafetyFlags))
	err := o.traced(ctx, "safety_log", func(ctx context.Context) error {
		for _, questionID := range score.SafetyFlags {
			event := calibration.SafetyEvent{
				ID:         uuid.New().String(),
				UserID:     userID,
				QuestionID: questionID,
				Value:      cmd.Answers[questionID].Value,
				Severity:   o.severityFor(questionID, cmd.Answers[questionID].Value),
				Context:    string(cmd.Source),
				Date:       date,
				OccurredAt: time.Now().UTC(),
			}
			if err := o.safetyLog.Record(ctx, event); err != nil {
				return err
			}
			evts = append(evts, event)
		}
		return nil
	})
	if err != nil {
		o.logger.Error("safety event write failed",
			zap.String("userID", userID.String()),
			zap.Error(err))
		return nil, appErrors.NewSafetyWriteError(err)
	}
	return evts, nil
}

// severityFor grades a flagged answer by how far past its threshold it
// landed.
func (o *SubmitResponsesOrchestrator) severityFor(questionID string, value float64) calibration.SafetySeverity {
	q, ok := o.scorer.Catalog().Get(questionID)
	if ok && value > q.SafetyThreshold {
		return calibration.SeverityCritical
	}
	return calibration.SeverityElevated
}

func (o *SubmitResponsesOrchestrator) updateStability(ctx context.Context, userID vo.UserID, date vo.Day, score calibration.ScoreResult) (*calibration.StabilityState, calibration.Verdict, bool, error) {
	var (
		state          *calibration.StabilityState
		verdict        calibration.Verdict
		cadenceChanged bool
	)

	err := o.traced(ctx, "stability", func(ctx context.Context) error {
		var lastErr error
		for attempt := 0; attempt < stabilitySaveRetries; attempt++ {
			loaded, err := o.loadOrInitState(ctx, userID)
			if err != nil {
				return err
			}

			verdict = o.tracker.Apply(loaded, date, score)
			cadenceChanged = o.scheduler.Apply(loaded, verdict)
			o.scheduler.RecordSubmission(loaded, date)

			if err := o.stability.Save(ctx, loaded); err != nil {
				if errors.Is(err, appErrors.ErrStaleStabilityState) {
					lastErr = err
					continue
				}
				return err
			}
			state = loaded
			return nil
		}
		return lastErr
	})
	if err != nil {
		return nil, calibration.Verdict{}, false, appErrors.NewPartialPipelineError("stability", err)
	}
	return state, verdict, cadenceChanged, nil
}

func (o *SubmitResponsesOrchestrator) loadOrInitState(ctx context.Context, userID vo.UserID) (*calibration.StabilityState, error) {
	state, err := o.stability.Get(ctx, userID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return calibration.NewStabilityState(userID), nil
		}
		return nil, err
	}
	return state, nil
}

func (o *SubmitResponsesOrchestrator) publishEvents(
	ctx context.Context,
	userID vo.UserID,
	date vo.Day,
	cmd *commands.SubmitResponsesCommand,
	score calibration.ScoreResult,
	triggers []calibration.EscalationTrigger,
	safetyEvents []calibration.SafetyEvent,
	state *calibration.StabilityState,
	cadenceChanged bool,
) {
	now := time.Now().UTC()
	evts := []events.DomainEvent{
		events.NewCalibrationSubmitted(userID, date, score, len(cmd.Answers), now),
	}
	for _, trigger := range triggers {
		evts = append(evts, events.NewEscalationTriggered(trigger, now))
	}
	for _, se := range safetyEvents {
		evts = append(evts, events.NewSafetyEventRecorded(se, now))
	}
	if cadenceChanged {
		evts = append(evts, events.NewCadenceChanged(userID, state, now))
	}

	if err := o.publisher.Publish(ctx, evts...); err != nil {
		// Events can be regenerated from state; never fail the submission.
		o.logger.Warn("failed to publish domain events",
			zap.String("userID", userID.String()),
			zap.Int("eventCount", len(evts)),
			zap.Error(err))
	}
}

func (o *SubmitResponsesOrchestrator) traced(ctx context.Context, stage string, fn func(context.Context) error) error {
	if o.tracer == nil {
		return fn(ctx)
	}
	return o.tracer.TracePipelineStage(ctx, stage, fn)
}
