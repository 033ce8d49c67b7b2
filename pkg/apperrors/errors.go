// Package apperrors defines the typed error kinds surfaced by the solver core.
package apperrors

import (
	"errors"
	"fmt"
)

// Code identifies the kind of failure independent of the underlying message.
type Code string

const (
	// CodeInvalidInput marks a malformed or self-contradictory request payload.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeInfeasible marks a problem for which no schedule exists.
	CodeInfeasible Code = "INFEASIBLE"
	// CodeTimeout marks a search that exceeded its wall-clock budget.
	CodeTimeout Code = "TIMEOUT"
	// CodeOracleUnavailable marks a CP-SAT oracle that could not be invoked.
	CodeOracleUnavailable Code = "ORACLE_UNAVAILABLE"
	// CodeInternal marks an invariant violation that should never occur.
	CodeInternal Code = "INTERNAL"
)

// Error is a typed domain error carrying a stable Code alongside a message
// and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	TaskID  string // optional, set when the failure is attributable to one task
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.TaskID != "" {
		msg = fmt.Sprintf("%s (task %s)", msg, e.TaskID)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is makes errors.Is(err, target) report true when target is another *Error
// carrying the same Code, whatever its message.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an existing error, preserving it for
// errors.Unwrap / errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Invalid builds a CodeInvalidInput error.
func Invalid(format string, args ...any) *Error {
	return New(CodeInvalidInput, fmt.Sprintf(format, args...))
}

// Infeasible builds a CodeInfeasible error, optionally attributing it to a task.
func Infeasible(taskID, format string, args ...any) *Error {
	return &Error{Code: CodeInfeasible, Message: fmt.Sprintf(format, args...), TaskID: taskID}
}

// Timeout builds a CodeTimeout error.
func Timeout(format string, args ...any) *Error {
	return New(CodeTimeout, fmt.Sprintf(format, args...))
}

// OracleUnavailable builds a CodeOracleUnavailable error.
func OracleUnavailable(err error) *Error {
	return Wrap(err, CodeOracleUnavailable, "cp-sat oracle could not be invoked")
}

// Internal builds a CodeInternal error for invariant violations.
func Internal(format string, args ...any) *Error {
	return New(CodeInternal, fmt.Sprintf(format, args...))
}

// CodeOf extracts the Code from err if it is (or wraps) an *Error.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
