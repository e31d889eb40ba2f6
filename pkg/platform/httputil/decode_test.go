package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "todoweb/pkg/domain-errors"
)

type itemRequest struct {
	Item string `json:"item"`
}

// validatingRequest implements Validatable
type validatingRequest struct {
	Item string `json:"item"`
}

func (r *validatingRequest) Validate() error {
	if r.Item == "" {
		return errors.New("item is required")
	}
	return nil
}

// fullRequest implements all preparation interfaces
type fullRequest struct {
	Item       string `json:"item"`
	sanitized  bool
	normalized bool
}

func (r *fullRequest) Sanitize()  { r.sanitized = true }
func (r *fullRequest) Normalize() { r.normalized = true }
func (r *fullRequest) Validate() error {
	if !r.sanitized || !r.normalized {
		return errors.New("prepared out of order")
	}
	return nil
}

type domainErrorRequest struct {
	ID string `json:"id"`
}

func (r *domainErrorRequest) Validate() error {
	if r.ID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	return nil
}

func TestDecodeJSON(t *testing.T) {
	t.Run("successful decode", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"item":"milk"}`))

		result, err := DecodeJSON[itemRequest](req)

		require.NoError(t, err)
		assert.Equal(t, "milk", result.Item)
	})

	t.Run("invalid JSON returns bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{invalid json}`))

		result, err := DecodeJSON[itemRequest](req)

		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("calls all preparation methods in order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"item":"milk"}`))

		result, err := DecodeAndPrepare[fullRequest](req)

		require.NoError(t, err)
		assert.True(t, result.sanitized)
		assert.True(t, result.normalized)
	})

	t.Run("plain validation failure becomes validation error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"item":""}`))

		_, err := DecodeAndPrepare[validatingRequest](req)

		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "item is required")
	})

	t.Run("preserves domain error code from Validate", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"id":""}`))

		_, err := DecodeAndPrepare[domainErrorRequest](req)

		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestWriteError(t *testing.T) {
	t.Run("writes message and sorted field details", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Validation("Validation failed", map[string]string{
			"password": "password must be at least 8 characters",
			"email":    "email is required",
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body ErrorEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Validation failed", body.Message)
		assert.Equal(t, []string{"email is required", "password must be at least 8 characters"}, body.Errors)
	})

	t.Run("unknown errors are internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
