package apperrors

import (
	"errors"
	"fmt"
)

// Kind is the stable error category reported to callers
type Kind string

const (
	KindInternal              Kind = "internal"
	KindNotFound              Kind = "not_found"
	KindInvalidArgument       Kind = "invalid_argument"
	KindInvalidState          Kind = "invalid_state"
	KindInsufficientInventory Kind = "insufficient_inventory"
	KindUnauthorized          Kind = "unauthorized"
	KindConflict              Kind = "conflict"
	KindUpstreamFailure       Kind = "upstream_failure"
	KindSignatureInvalid      Kind = "signature_invalid"
	KindPaymentNotCompleted   Kind = "payment_not_completed"
	KindRateLimited           Kind = "rate_limited"
)

// Error carries a kind, a human-readable message and an optional cause
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func InvalidArgument(format string, args ...interface{}) *Error {
	return New(KindInvalidArgument, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return New(KindInvalidState, format, args...)
}

func InsufficientInventory(format string, args ...interface{}) *Error {
	return New(KindInsufficientInventory, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return New(KindUnauthorized, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

func Upstream(err error, format string, args ...interface{}) *Error {
	return Wrap(KindUpstreamFailure, err, format, args...)
}

func SignatureInvalid(err error) *Error {
	return Wrap(KindSignatureInvalid, err, "webhook signature verification failed")
}

func PaymentNotCompleted(format string, args ...interface{}) *Error {
	return New(KindPaymentNotCompleted, format, args...)
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the caller-facing message for err
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
