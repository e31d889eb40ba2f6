package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "todoweb/pkg/domain-errors"
)

// DecodeJSON decodes a JSON request body into the target type.
func DecodeJSON[T any](r *http.Request) (*T, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return &req, nil
}

// Validatable is implemented by request types that support validation.
type Validatable interface {
	Validate() error
}

// Normalizable is implemented by request types that support normalization.
type Normalizable interface {
	Normalize()
}

// Sanitizable is implemented by request types that support sanitization.
type Sanitizable interface {
	Sanitize()
}

// PrepareRequest sanitizes, normalizes, and validates a request.
// Plain errors returned by Validate are promoted to validation errors;
// domain errors keep their code.
func PrepareRequest(req any) error {
	if s, ok := req.(Sanitizable); ok {
		s.Sanitize()
	}
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	v, ok := req.(Validatable)
	if !ok {
		return nil
	}
	err := v.Validate()
	if err == nil {
		return nil
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
}

// DecodeAndPrepare combines JSON decoding with request preparation.
//
// Usage:
//
//	req, err := httputil.DecodeAndPrepare[createTodoRequest](r)
//	if err != nil {
//	    httputil.WriteError(w, err)
//	    return
//	}
func DecodeAndPrepare[T any](r *http.Request) (*T, error) {
	req, err := DecodeJSON[T](r)
	if err != nil {
		return nil, err
	}
	if err := PrepareRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}
