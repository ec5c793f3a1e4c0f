package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a run that could not be executed at all.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run, zero if it was never persisted.
	RunID int64

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeInvalidRun indicates a run without persisted id or with negative counts.
	ErrCodeInvalidRun RuntimeErrorCode = "INVALID_RUN"

	// ErrCodeAlreadyStarted indicates a runner was started twice.
	ErrCodeAlreadyStarted RuntimeErrorCode = "ALREADY_STARTED"

	// ErrCodeGraphRejected indicates the graph could not be sealed.
	ErrCodeGraphRejected RuntimeErrorCode = "GRAPH_REJECTED"

	// ErrCodeSinkFailed indicates results could not be handed to the sink.
	ErrCodeSinkFailed RuntimeErrorCode = "SINK_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RunID != 0 {
		msg += fmt.Sprintf(" (run=%d)", e.RunID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// StepError reports the step that aborted a run. Nothing collected in that
// step reached the sink.
type StepError struct {
	RunID     int64
	Iteration int
	Period    int
	// Component is the failing component, empty if none could be identified.
	Component string
	Err       error
}

func (e *StepError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("run %d: iteration %d, period %d: %v", e.RunID, e.Iteration, e.Period, e.Err)
	}
	return fmt.Sprintf("run %d: iteration %d, period %d, component %s: %v",
		e.RunID, e.Iteration, e.Period, e.Component, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// IsStepError returns true if err aborted a run inside a step.
// Uses errors.As to handle wrapped errors.
func IsStepError(err error) bool {
	var se *StepError
	return errors.As(err, &se)
}

// HasCode returns true if err is a RuntimeError with the given code.
func HasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}
