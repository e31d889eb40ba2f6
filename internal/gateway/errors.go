package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	dErrors "todoweb/pkg/domain-errors"
)

// errorBody is what the API sends with non-2xx responses.
type errorBody struct {
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

type apiError struct {
	Message string
	Errors  []string
	Fields  map[string]string
}

// decodeError reads the error envelope. errors is usually a list of strings
// but some endpoints send an object keyed by field name.
func decodeError(resp *http.Response) apiError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return apiError{Message: MessageGeneric}
	}

	out := apiError{Message: strings.TrimSpace(body.Message)}
	if out.Message == "" {
		out.Message = MessageGeneric
	}
	if len(body.Errors) == 0 {
		return out
	}

	var list []string
	if err := json.Unmarshal(body.Errors, &list); err == nil {
		out.Errors = list
		return out
	}
	var fields map[string]string
	if err := json.Unmarshal(body.Errors, &fields); err == nil {
		out.Fields = fields
	}
	return out
}

func requestError(status int, e apiError) error {
	return &dErrors.Error{
		Code:       codeForStatus(status),
		Message:    e.Message,
		StatusCode: status,
		Fields:     e.Fields,
		Details:    e.Errors,
	}
}

func codeForStatus(status int) dErrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return dErrors.CodeBadRequest
	case http.StatusUnauthorized:
		return dErrors.CodeUnauthorized
	case http.StatusForbidden:
		return dErrors.CodeForbidden
	case http.StatusNotFound:
		return dErrors.CodeNotFound
	case http.StatusConflict:
		return dErrors.CodeConflict
	default:
		return dErrors.CodeRequest
	}
}
