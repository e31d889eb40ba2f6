package domainerrors

import "errors"

// Code represents an error category independent of transport layer.
// Codes describe what went wrong from the client's point of view: a form that
// failed validation, a session the API no longer accepts, a request the API
// rejected, or a network that never delivered an answer.
type Code string

const (
	CodeValidation     Code = "validation_failed"
	CodeBadRequest     Code = "bad_request"
	CodeUnauthorized   Code = "unauthorized"
	CodeForbidden      Code = "forbidden"
	CodeNotFound       Code = "not_found"
	CodeConflict       Code = "conflict"
	CodeRequest        Code = "request_failed"
	CodeNetwork        Code = "network"
	CodeMalformedState Code = "malformed_state"
	CodeInvariant      Code = "invariant_violation"
	CodeInternal       Code = "internal_error"
)

// Error wraps client-side or API failures with a stable code.
//
// StatusCode is the HTTP status returned by the API, zero when the failure
// never reached it. Fields holds per-field messages (form validation), Details
// the free-form error strings the API returned next to its message.
type Error struct {
	Code       Code
	Message    string
	StatusCode int
	Fields     map[string]string
	Details    []string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, StatusCode: existing.StatusCode, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// Validation creates a validation error carrying per-field messages.
func Validation(msg string, fields map[string]string) error {
	return &Error{Code: CodeValidation, Message: msg, Fields: fields}
}

// Request creates an error for a response the API rejected.
func Request(code Code, status int, msg string, details []string) error {
	return &Error{Code: code, Message: msg, StatusCode: status, Details: details}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the first domain error in the chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// FieldErrors returns the per-field messages carried by err, if any.
func FieldErrors(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// StatusCode returns the API status carried by err, or zero.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
