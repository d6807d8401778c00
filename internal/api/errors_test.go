package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/research-explorer/backend/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"api error", NewNotFoundError("dataset", "x"), http.StatusNotFound, "NOT_FOUND"},
		{"wrapped api error", fmt.Errorf("query: %w", NewValidationError("fundsMin")), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"echo error", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{"no valid files", fmt.Errorf("run: %w", parser.ErrEmptyInput), http.StatusUnprocessableEntity, "UNPROCESSABLE"},
		{"load error", &parser.LoadError{File: "a.xlsx", Err: parser.ErrMissingColumn}, http.StatusUnprocessableEntity, "UNPROCESSABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			ErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var out APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			assert.Equal(t, tt.wantCode, out.Code)
		})
	}
}

func TestErrorHandler_HidesDetails(t *testing.T) {
	prev := ShowErrorDetails
	t.Cleanup(func() { ShowErrorDetails = prev })

	for _, show := range []bool{true, false} {
		ShowErrorDetails = show
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		ErrorHandler(NewInternalError("failed to export", errors.New("disk full")), c)

		var out APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		if show {
			assert.Equal(t, "disk full", out.Details)
		} else {
			assert.Empty(t, out.Details)
		}
	}
}
