package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error that aborted a run.
//
// Runtime errors include:
//   - Out-of-order fabrication: a module asked for an event in the past
//   - Quota exceeded: a run fabricated more events than allowed
//   - Invalid fabrication: the fabricated template is malformed
//   - Handler failure: a subscription or OnRunEnd hook returned an error
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Module is the module that caused the failure, if known.
	Module string

	// Position and Timestamp locate the event being dispatched when the
	// failure happened; Position is -1 outside the pass.
	Position  int64
	Timestamp int64

	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeOutOfOrderFabrication indicates a fabrication request at a
	// timestamp before the event being dispatched, or after the pass ended.
	ErrCodeOutOfOrderFabrication RuntimeErrorCode = "OUT_OF_ORDER_FABRICATION"

	// ErrCodeQuotaExceeded indicates the run exceeded its fabrication quota.
	ErrCodeQuotaExceeded RuntimeErrorCode = "FABRICATION_QUOTA_EXCEEDED"

	// ErrCodeInvalidFabrication indicates a malformed fabricated template.
	ErrCodeInvalidFabrication RuntimeErrorCode = "INVALID_FABRICATION"

	// ErrCodeHandlerFailed indicates a module callback returned an error.
	ErrCodeHandlerFailed RuntimeErrorCode = "HANDLER_FAILED"

	// ErrCodeLateSubscription indicates Subscribe was called after the
	// pass started.
	ErrCodeLateSubscription RuntimeErrorCode = "LATE_SUBSCRIPTION"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Module != "" {
		msg += fmt.Sprintf(" (module=%s, position=%d, ts=%d)", e.Module, e.Position, e.Timestamp)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the handler error, if any.
func (e *RuntimeError) Unwrap() error { return e.Err }

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsOutOfOrderFabrication returns true if err is an out-of-order
// fabrication error. Uses errors.As to handle wrapped errors.
func IsOutOfOrderFabrication(err error) bool {
	return hasCode(err, ErrCodeOutOfOrderFabrication)
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and
// FabricationsExceededError.
func IsQuotaError(err error) bool {
	if hasCode(err, ErrCodeQuotaExceeded) {
		return true
	}
	var fe *FabricationsExceededError
	return errors.As(err, &fe)
}

// IsHandlerError returns true if a module callback aborted the run.
func IsHandlerError(err error) bool {
	return hasCode(err, ErrCodeHandlerFailed)
}

// CodeOf returns the runtime error code carried by err, or "".
func CodeOf(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
