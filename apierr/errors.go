package apierr

import (
	"errors"
	"fmt"
)

// Code identifies the kind of a client error.
type Code string

const (
	CodeTimeout             Code = "TIMEOUT"
	CodeAuthFailed          Code = "AUTH_FAILED"
	CodeAPIError            Code = "API_ERROR"
	CodeInvalidRequest      Code = "INVALID_REQUEST"
	CodeOutOfStock          Code = "OUT_OF_STOCK"
	CodeOrderNotFound       Code = "ORDER_NOT_FOUND"
	CodeProductNotFound     Code = "PRODUCT_NOT_FOUND"
	CodeSyncConflict        Code = "SYNC_CONFLICT"
	CodeBatchPartialFailure Code = "BATCH_PARTIAL_FAILURE"
	CodeCircuitOpen         Code = "CIRCUIT_OPEN"
	CodeRateLimited         Code = "RATE_LIMITED"
)

// retryableCodes is the single source of truth for retry decisions.
// Terminal kinds (auth, validation, not-found, out-of-stock) are absent.
var retryableCodes = map[Code]bool{
	CodeTimeout:  true,
	CodeAPIError: true,
}

// RetryableCode reports whether errors of the given code may be retried.
func RetryableCode(c Code) bool {
	return retryableCodes[c]
}

// Error is the typed error carried across the client boundary.
//
// Context holds structured diagnostic data. Credentials and signatures must
// never be placed in Context; the observe package redacts known secret keys
// as a second line of defense, but the mapper does not rely on it.
type Error struct {
	Code    Code
	Message string
	// SubCode is the partner-specific error code, when the partner
	// returned one (for example "order_payment_in_progress").
	SubCode string
	Context map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.SubCode != "" {
		return fmt.Sprintf("[%s/%s] %s", e.Code, e.SubCode, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the error may be retried. Derived from the
// code table, never set per call site.
func (e *Error) Retryable() bool {
	return RetryableCode(e.Code)
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error wrapping a cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithContext returns e with the key/value added to its context.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithSubCode returns e with the partner sub-code attached.
func (e *Error) WithSubCode(sub string) *Error {
	e.SubCode = sub
	return e
}

// IsRetryable reports whether err is a retryable client error. Errors that
// are not *Error are never retried here; the mapper guarantees everything
// leaving the pipeline is typed.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return false
}

// CodeOf returns the taxonomy code of err, or "" when err is not a client
// error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// SubCodeOf returns the partner sub-code of err, or "".
func SubCodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.SubCode
	}
	return ""
}

// Is supports errors.Is matching on code: two *Error values match when
// their codes are equal, so callers can use sentinel-style comparisons
// against values built with New.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}
