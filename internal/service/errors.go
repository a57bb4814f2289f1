package service

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation      Kind = "VALIDATION_ERROR"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindNotFound        Kind = "NOT_FOUND"
	KindStateConflict   Kind = "STATE_CONFLICT"
	KindExternalService Kind = "EXTERNAL_SERVICE_ERROR"
	KindInternal        Kind = "INTERNAL_ERROR"
)

// Error is the error type returned by every service operation. Code is an optional
// machine-readable detail such as VIDEO_NOT_VALIDATED.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Code: string(KindValidation), Message: fmt.Sprintf(format, args...)}
}

func notFoundError(code, message string) error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func conflictError(code, message string) error {
	return &Error{Kind: KindStateConflict, Code: code, Message: message}
}

func unauthorizedError(message string) error {
	return &Error{Kind: KindUnauthorized, Code: string(KindUnauthorized), Message: message}
}

func externalError(message string, err error) error {
	return &Error{Kind: KindExternalService, Code: string(KindExternalService), Message: message, Err: err}
}

func internalError(message string, err error) error {
	return &Error{Kind: KindInternal, Code: string(KindInternal), Message: message, Err: err}
}

// KindOf returns the kind of err, INTERNAL_ERROR for anything that is not a service error.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// CodeOf returns the machine code of err, or an empty string.
func CodeOf(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return ""
}
