package baseline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures so the HTTP surface can choose a
// status code without the engine knowing about HTTP.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindForbidden         ErrorKind = "forbidden"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindValidationFailed  ErrorKind = "validation_failed"
)

// OpError is a structured error for rejected lifecycle operations.
type OpError struct {
	Kind     ErrorKind `json:"kind"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Blockers []string  `json:"blockers,omitempty"`
}

func (e *OpError) Error() string {
	return e.Message
}

// KindOf returns the ErrorKind of err, or "" if err is not an OpError.
func KindOf(err error) ErrorKind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

func notFoundErr(format string, args ...any) *OpError {
	return &OpError{
		Kind:    KindNotFound,
		Code:    "BASELINE_NOT_FOUND",
		Message: fmt.Sprintf(format, args...),
	}
}

func forbiddenErr(format string, args ...any) *OpError {
	return &OpError{
		Kind:    KindForbidden,
		Code:    "BASELINE_FORBIDDEN",
		Message: fmt.Sprintf(format, args...),
	}
}

func invalidTransitionErr(code, format string, args ...any) *OpError {
	return &OpError{
		Kind:    KindInvalidTransition,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func validationFailedErr(blockers []string) *OpError {
	return &OpError{
		Kind:     KindValidationFailed,
		Code:     "BASELINE_VALIDATION_FAILED",
		Message:  fmt.Sprintf("%d module validation blocker(s)", len(blockers)),
		Blockers: blockers,
	}
}
