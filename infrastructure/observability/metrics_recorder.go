package observability

import (
	"context"
	"strconv"

	"calibrate-backend/application/ports"
	"calibrate-backend/domain/calibration"
	pkgobs "calibrate-backend/pkg/observability"
)

// CloudWatchRecorder implements ports.MetricsRecorder on top of the
// CloudWatch metrics publisher. Every method is fail-silent.
type CloudWatchRecorder struct {
	publisher *pkgobs.MetricsPublisher
}

// NewCloudWatchRecorder creates the recorder.
func NewCloudWatchRecorder(publisher *pkgobs.MetricsPublisher) ports.MetricsRecorder {
	return &CloudWatchRecorder{publisher: publisher}
}

// CountSubmission counts one processed submission.
func (r *CloudWatchRecorder) CountSubmission(ctx context.Context, safetyTriggered bool) {
	r.publisher.Count(ctx, "SubmissionsProcessed", 1, map[string]string{
		"SafetyTriggered": strconv.FormatBool(safetyTriggered),
	})
}

// CountEscalation counts one escalation trigger per short scale.
func (r *CloudWatchRecorder) CountEscalation(ctx context.Context, scaleID string) {
	r.publisher.Count(ctx, "EscalationsTriggered", 1, map[string]string{
		"Scale": scaleID,
	})
}

// CountCadenceChange counts one cadence transition by reason.
func (r *CloudWatchRecorder) CountCadenceChange(ctx context.Context, reason calibration.ChangeReason) {
	r.publisher.Count(ctx, "CadenceChanges", 1, map[string]string{
		"Reason": string(reason),
	})
}

// RecordCompositeIndex gauges one composite index value.
func (r *CloudWatchRecorder) RecordCompositeIndex(ctx context.Context, index float64) {
	r.publisher.Gauge(ctx, "CompositeIndex", index, nil)
}

// NoopRecorder satisfies ports.MetricsRecorder when metrics are disabled.
type NoopRecorder struct{}

// NewNoopRecorder creates a recorder that drops everything.
func NewNoopRecorder() ports.MetricsRecorder {
	return &NoopRecorder{}
}

func (NoopRecorder) CountSubmission(context.Context, bool)                        {}
func (NoopRecorder) CountEscalation(context.Context, string)                      {}
func (NoopRecorder) CountCadenceChange(context.Context, calibration.ChangeReason) {}
func (NoopRecorder) RecordCompositeIndex(context.Context, float64)                {}
