package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/helixask/helixaskd/pkg/orchestrator"
	"github.com/helixask/helixaskd/pkg/safety"
	"github.com/helixask/helixaskd/pkg/store"
)

// mapError translates an internal error onto the HTTP status and taxonomy
// string from spec §7. The body key is always "error" so clients can branch
// on a single field regardless of status code.
func mapError(err error) *echo.HTTPError {
	var validErr *store.ValidationError
	if errors.As(err, &validErr) {
		return taxonomyError(http.StatusBadRequest, "invalid_request")
	}

	var hashErr *store.HashMismatchError
	if errors.As(err, &hashErr) {
		return echo.NewHTTPError(http.StatusConflict, map[string]any{
			"error":    "hash_mismatch",
			"expected": hashErr.Expected,
		})
	}

	var forbiddenActuation *safety.ForbiddenActuationError
	if errors.As(err, &forbiddenActuation) {
		return taxonomyError(http.StatusBadRequest, "controller-boundary-violation")
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return taxonomyError(http.StatusNotFound, "not_found")
	case errors.Is(err, store.ErrForbidden):
		return taxonomyError(http.StatusForbidden, "forbidden")
	case errors.Is(err, orchestrator.ErrQueueFull):
		return taxonomyError(http.StatusTooManyRequests, "concurrency_exhausted")
	case errors.Is(err, orchestrator.ErrPlanFailed):
		return taxonomyError(http.StatusInternalServerError, "plan_failed")
	case errors.Is(err, orchestrator.ErrExecuteFailed):
		return taxonomyError(http.StatusInternalServerError, "execute_failed")
	case errors.Is(err, orchestrator.ErrContextOverflow):
		return taxonomyError(http.StatusInternalServerError, "context_overflow")
	case errors.Is(err, orchestrator.ErrGenerationFailed):
		return taxonomyError(http.StatusInternalServerError, "generation_failed")
	case errors.Is(err, orchestrator.ErrAborted):
		return taxonomyError(http.StatusInternalServerError, "aborted")
	}

	slog.Error("api: unmapped internal error", "error", err)
	return taxonomyError(http.StatusInternalServerError, "generation_failed")
}

func taxonomyError(status int, reason string) *echo.HTTPError {
	return echo.NewHTTPError(status, map[string]any{"error": reason})
}
