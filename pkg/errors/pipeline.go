package errors

import (
	"fmt"
	"net/http"
)

// Submission processing runs as a pipeline: validation, response
// persistence, scoring, the safety log, then escalation, stability and
// cadence updates, then event publication. The error kinds below tell the
// caller exactly how far the pipeline got before failing.

// Sentinel errors for the submission pipeline.
var (
	// ErrSubmissionRejected indicates the submission failed validation and
	// nothing was written.
	ErrSubmissionRejected = &AppError{
		Type:       ErrorTypeValidation,
		Code:       "SUBMISSION_REJECTED",
		Message:    "submission rejected",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrStaleStabilityState indicates another writer updated the user's
	// stability record between read and write.
	ErrStaleStabilityState = &AppError{
		Type:       ErrorTypeConflict,
		Code:       "STALE_STABILITY_STATE",
		Message:    "stability state was modified concurrently",
		Retryable:  true,
		HTTPStatus: http.StatusConflict,
	}
)

// NewSafetyWriteError reports that the safety event log could not be
// written. Silence on a safety flag is never acceptable, so this fails the
// submission as a whole and the caller must retry, even though the raw
// answers are already durable.
func NewSafetyWriteError(err error) *AppError {
	return &AppError{
		Type:       ErrorTypeSafetyWrite,
		Code:       "SAFETY_WRITE_FAILED",
		Message:    "safety event could not be recorded",
		Cause:      err,
		Retryable:  true,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// NewPartialPipelineError reports that responses were durably stored but a
// later pipeline stage failed. The responses themselves do not need to be
// resubmitted; only the post-processing stages should be retried.
func NewPartialPipelineError(stage string, err error) *AppError {
	e := &AppError{
		Type:       ErrorTypePartialPipeline,
		Code:       "PARTIAL_PIPELINE_FAILURE",
		Message:    fmt.Sprintf("responses stored but pipeline stage '%s' failed", stage),
		Cause:      err,
		Retryable:  true,
		HTTPStatus: http.StatusInternalServerError,
	}
	return e.WithDetail("stage", stage)
}

// IsPartialPipeline checks if an error is a partial pipeline failure.
func IsPartialPipeline(err error) bool {
	return IsType(err, ErrorTypePartialPipeline)
}

// IsSafetyWrite checks if an error is a safety write failure.
func IsSafetyWrite(err error) bool {
	return IsType(err, ErrorTypeSafetyWrite)
}

// PipelineStage returns the failed pipeline stage recorded on a partial
// pipeline error, or "" if the error is not one.
func PipelineStage(err error) string {
	appErr := GetAppError(err)
	if appErr == nil || appErr.Type != ErrorTypePartialPipeline {
		return ""
	}
	if s, ok := appErr.Details["stage"].(string); ok {
		return s
	}
	return ""
}
