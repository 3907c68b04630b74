package pipeline

import (
	"errors"
	"fmt"

	"github.com/clipforge/clipper-api/internal/models"
)

// StageError is a fatal pipeline failure. It aborts the run and moves the
// project to the failed stage.
type StageError struct {
	Stage   models.ProjectStage
	Code    string
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s stage failed: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s stage failed: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError creates a fatal error attributed to a pipeline stage
func NewStageError(stage models.ProjectStage, code, message string, err error) *StageError {
	return &StageError{Stage: stage, Code: code, Message: message, Err: err}
}

// QuotaError reports a plan limit violation. Quota failures are never retried.
type QuotaError struct {
	Limit   string
	Allowed float64
	Actual  float64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded: %s (allowed %.0f, got %.0f)", e.Limit, e.Allowed, e.Actual)
}

// IsQuotaError reports whether err is (or wraps) a quota violation
func IsQuotaError(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}

// ClipError is an isolated per-clip failure. It marks one clip failed and
// leaves the rest of the run untouched.
type ClipError struct {
	ClipID uint
	Step   string
	Err    error
}

func (e *ClipError) Error() string {
	return fmt.Sprintf("clip %d failed at %s: %v", e.ClipID, e.Step, e.Err)
}

func (e *ClipError) Unwrap() error {
	return e.Err
}
