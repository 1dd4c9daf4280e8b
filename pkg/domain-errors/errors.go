// Package domainerrors carries the request-scoped error taxonomy shared by
// services and transports. Services return *Error values tagged with a Code;
// transports translate the code into a status without inspecting messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// Caller-correctable input problems (bad amount, missing field, unknown enum, past date).
	CodeValidation Code = "validation_error"
	// Malformed request envelope (undecodable JSON, bad multipart form).
	CodeBadRequest Code = "bad_request"
	// Capability check failed for the caller's role.
	CodeForbidden Code = "forbidden"
	CodeNotFound  Code = "not_found"
	// Expected contention, e.g. a slot taken by a concurrent caller.
	CodeConflict Code = "conflict"
	// Upload exceeded the configured limit.
	CodePayloadTooLarge Code = "payload_too_large"
	// A non-critical collaborator timed out or failed.
	CodeUnavailable Code = "advisory_unavailable"
	CodeTimeout     Code = "timeout"
	// Caller exceeded its request allowance.
	CodeRateLimited Code = "rate_limit_exceeded"
	// Domain invariant broken inside a constructor; services convert it to CodeValidation.
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error. The message is safe to show to callers
// except for CodeInternal, whose message transports must not expose.
type Error struct {
	Code    Code
	Message string
	Err     error
	// Meta carries structured details such as the size limit of a rejected upload.
	Meta map[string]any
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

// New builds a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// WithMeta returns a copy of e carrying an extra detail.
func (e *Error) WithMeta(key string, value any) *Error {
	out := *e
	out.Meta = make(map[string]any, len(e.Meta)+1)
	for k, v := range e.Meta {
		out.Meta[k] = v
	}
	out.Meta[key] = value
	return &out
}

// CodeOf returns the code of the outermost *Error in err's chain, or
// CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost *Error in err's chain has code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability in tests.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// As extracts the outermost *Error from err.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
