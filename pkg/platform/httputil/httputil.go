package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	dErrors "todoweb/pkg/domain-errors"
)

// ErrorEnvelope is the error body shape the todo API speaks:
// a human readable message plus optional detail strings.
type ErrorEnvelope struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, http.StatusInternalServerError, ErrorEnvelope{Message: "Internal server error"})
		return
	}

	details := domainErr.Details
	if len(domainErr.Fields) > 0 {
		keys := make([]string, 0, len(domainErr.Fields))
		for k := range domainErr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			details = append(details, domainErr.Fields[k])
		}
	}
	WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), ErrorEnvelope{
		Message: domainErr.Error(),
		Errors:  details,
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNetwork:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
