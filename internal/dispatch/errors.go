package dispatch

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a dispatch failure. Its string value is the errCode
// surfaced in the response envelope.
type ErrorKind string

// Error kinds
const (
	// KindBadRequest is a missing or malformed required field, caught before any engine call
	KindBadRequest ErrorKind = "BadRequest"
	// KindUnknownSourceCode is a source code that is not in the registry
	KindUnknownSourceCode ErrorKind = "UnknownSourceCode"
	// KindMissingSource is a request that names neither an inline source nor a code
	KindMissingSource ErrorKind = "MissingSource"
	// KindEngineFailure is a failure reported by the rule engine
	KindEngineFailure ErrorKind = "EngineFailure"
	// KindInternalError is anything not classified above
	KindInternalError ErrorKind = "InternalError"
)

// Error is a classified dispatch failure. Message is safe to show to callers;
// the cause is kept for logging only.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

// Error implements error
func (e *Error) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates a classified error. The message is shown to callers; cause is not.
func NewError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

func badRequest(format string, args ...any) *Error {
	return NewError(KindBadRequest, nil, format, args...)
}

// KindOf returns the kind of err. Errors that were never classified are
// reported as KindInternalError.
func KindOf(err error) ErrorKind {
	var dispatchErr *Error
	if errors.As(err, &dispatchErr) {
		return dispatchErr.Kind
	}
	return KindInternalError
}
