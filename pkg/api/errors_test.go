package api

import (
	"fmt"
	"net/http"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"

	"github.com/helixask/helixaskd/pkg/orchestrator"
	"github.com/helixask/helixaskd/pkg/safety"
	"github.com/helixask/helixaskd/pkg/store"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expectCode int
		expectTag  string
	}{
		{
			name:       "validation error maps to invalid_request",
			err:        store.NewValidationError("sessionId", "required"),
			expectCode: http.StatusBadRequest,
			expectTag:  "invalid_request",
		},
		{
			name:       "not found maps to not_found",
			err:        fmt.Errorf("wrapped: %w", store.ErrNotFound),
			expectCode: http.StatusNotFound,
			expectTag:  "not_found",
		},
		{
			name:       "forbidden maps to forbidden",
			err:        store.ErrForbidden,
			expectCode: http.StatusForbidden,
			expectTag:  "forbidden",
		},
		{
			name:       "hash mismatch maps to 409",
			err:        &store.HashMismatchError{Expected: "abc", Actual: "def"},
			expectCode: http.StatusConflict,
			expectTag:  "hash_mismatch",
		},
		{
			name:       "forbidden actuation maps to controller-boundary-violation",
			err:        &safety.ForbiddenActuationError{ActionID: "a1"},
			expectCode: http.StatusBadRequest,
			expectTag:  "controller-boundary-violation",
		},
		{
			name:       "queue full maps to concurrency_exhausted",
			err:        orchestrator.ErrQueueFull,
			expectCode: http.StatusTooManyRequests,
			expectTag:  "concurrency_exhausted",
		},
		{
			name:       "plan failed maps to 500",
			err:        fmt.Errorf("wrapped: %w", orchestrator.ErrPlanFailed),
			expectCode: http.StatusInternalServerError,
			expectTag:  "plan_failed",
		},
		{
			name:       "generation failed maps to 500",
			err:        orchestrator.ErrGenerationFailed,
			expectCode: http.StatusInternalServerError,
			expectTag:  "generation_failed",
		},
		{
			name:       "unmapped error falls back to generation_failed",
			err:        fmt.Errorf("something unexpected"),
			expectCode: http.StatusInternalServerError,
			expectTag:  "generation_failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := mapError(tt.err)
			assert.IsType(t, &echo.HTTPError{}, he)
			assert.Equal(t, tt.expectCode, he.Code)
			body, ok := he.Message.(map[string]any)
			if assert.True(t, ok, "error body should be a map") {
				assert.Equal(t, tt.expectTag, body["error"])
			}
		})
	}
}
