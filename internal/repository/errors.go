package repository

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	// ErrorInvalidArgument marks caller mistakes (e.g. a self-conversation).
	// Never retried automatically.
	ErrorInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrorStorageUnavailable marks any failure reaching or executing
	// against the store. Writes carrying it are safe to retry: index
	// upserts are idempotent overwrites and message rows deduplicate on
	// their distinct identifiers.
	ErrorStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
	// ErrorNotSupported marks operations the schema cannot serve
	// efficiently. No storage round-trip is attempted.
	ErrorNotSupported ErrorCode = "NOT_SUPPORTED"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("repository: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("repository: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf returns the ErrorCode carried by err, or the empty string when err
// is not a repository error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
