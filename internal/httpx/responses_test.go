package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookhive/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/books", nil)
	r = r.WithContext(ContextWithRequestID(r.Context(), "req-1"))

	JSONSuccess(w, r, map[string]string{"key": "value"}, map[string]any{"total": 10})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
		Meta    map[string]any    `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.True(t, response.Success)
	assert.Equal(t, "value", response.Data["key"])
	assert.Equal(t, "req-1", response.Meta["request_id"])
	assert.EqualValues(t, 10, response.Meta["total"])
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/books", nil)
	details := []ErrorDetail{{Field: "email", Message: "email is required"}}

	JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.False(t, response.Success)
	assert.Equal(t, "VALIDATION_ERROR", response.Error.Code)
	assert.Len(t, response.Error.Details, 1)
}

func TestJSONNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	JSONNoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"not found", apperr.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"unavailable", apperr.ErrUnavailable, http.StatusConflict, "UNAVAILABLE"},
		{"already borrowed", apperr.ErrAlreadyBorrowed, http.StatusConflict, "ALREADY_BORROWED"},
		{"no active loan", apperr.ErrNoActiveLoan, http.StatusConflict, "NO_ACTIVE_LOAN"},
		{"validation", apperr.Validation(apperr.FieldError{Field: "title", Message: "title is required"}), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"forbidden", apperr.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"storage", apperr.Storage("list books", errors.New("conn refused")), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"foreign", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			WriteError(w, r, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.wantBody, response.Error.Code)
			assert.NotContains(t, response.Error.Message, "conn refused")
		})
	}
}
