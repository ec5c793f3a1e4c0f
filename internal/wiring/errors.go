package wiring

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes graph construction and firing errors.
type ErrorCode string

const (
	// ErrCodeUnknownComponent indicates a wiring references a component that was never added.
	ErrCodeUnknownComponent ErrorCode = "UNKNOWN_COMPONENT"

	// ErrCodeUnknownChannel indicates a wiring references a channel the component does not own.
	ErrCodeUnknownChannel ErrorCode = "UNKNOWN_CHANNEL"

	// ErrCodeDuplicateComponent indicates two components share a name.
	ErrCodeDuplicateComponent ErrorCode = "DUPLICATE_COMPONENT"

	// ErrCodeDuplicateChannel indicates a component declared the same channel twice.
	ErrCodeDuplicateChannel ErrorCode = "DUPLICATE_CHANNEL"

	// ErrCodeMissingLogic indicates a component without computation.
	ErrCodeMissingLogic ErrorCode = "MISSING_LOGIC"

	// ErrCodeSealed indicates a mutation after Seal.
	ErrCodeSealed ErrorCode = "GRAPH_SEALED"

	// ErrCodeNotSealed indicates firing before Seal.
	ErrCodeNotSealed ErrorCode = "GRAPH_NOT_SEALED"

	// ErrCodeDuplicateNotification indicates a component notified twice for one transmitter in one step.
	ErrCodeDuplicateNotification ErrorCode = "DUPLICATE_NOTIFICATION"

	// ErrCodeReentrantFiring indicates a component asked to fire while it is computing.
	ErrCodeReentrantFiring ErrorCode = "REENTRANT_FIRING"

	// ErrCodeUnknownTransmitter indicates a notification from a transmitter not wired to the component.
	ErrCodeUnknownTransmitter ErrorCode = "UNKNOWN_TRANSMITTER"
)

// GraphError reports a wiring or firing protocol violation.
type GraphError struct {
	Code      ErrorCode
	Message   string
	Component string
	Channel   string
}

func (e *GraphError) Error() string {
	switch {
	case e.Component != "" && e.Channel != "":
		return fmt.Sprintf("%s: %s (component=%s, channel=%s)", e.Code, e.Message, e.Component, e.Channel)
	case e.Component != "":
		return fmt.Sprintf("%s: %s (component=%s)", e.Code, e.Message, e.Component)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func newGraphError(code ErrorCode, component, channel, format string, args ...any) *GraphError {
	return &GraphError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Component: component,
		Channel:   channel,
	}
}

// RetransmissionError is returned when a transmitter fires twice without a reset.
// It is a programming error and aborts the run.
type RetransmissionError struct {
	Sender     string
	Receiver   string
	Channel    string
	PacketType string
}

func (e *RetransmissionError) Error() string {
	return fmt.Sprintf("no retransmission allowed: %s sends to %s, packet type: %s, senderChannelName %s",
		e.Sender, e.Receiver, e.PacketType, e.Channel)
}

// CycleError is returned by Seal when the graph has no topological order.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("graph cycle detected: %s", strings.Join(e.Path, " → "))
}

// ComponentError wraps a failure raised by a component's computation.
type ComponentError struct {
	Component string
	Kind      string
	Err       error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("component %s (%s) failed: %v", e.Component, e.Kind, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

// PanicError is a panic recovered from a component's logic.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// IsRetransmissionError reports whether err wraps a *RetransmissionError.
func IsRetransmissionError(err error) bool {
	var re *RetransmissionError
	return errors.As(err, &re)
}

// IsCycleError reports whether err wraps a *CycleError.
func IsCycleError(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}

// HasCode reports whether err wraps a *GraphError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

// FailedComponent returns the name of the component err is attributed to, if any.
// Retransmission errors are attributed to the sender.
func FailedComponent(err error) string {
	var ce *ComponentError
	if errors.As(err, &ce) {
		return ce.Component
	}
	var re *RetransmissionError
	if errors.As(err, &re) {
		return re.Sender
	}
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Component
	}
	return ""
}
