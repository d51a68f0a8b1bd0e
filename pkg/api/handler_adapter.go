package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/helixask/helixaskd/pkg/safety"
)

type adapterActionBody struct {
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Label  string         `json:"label"`
	Params map[string]any `json:"params,omitempty"`
}

type roboticsSafetyBody struct {
	CollisionMargin    float64 `json:"collisionMargin"`
	CollisionMarginMin float64 `json:"collisionMarginMin"`
	TorqueUsage        float64 `json:"torqueUsage"`
	TorqueUsageMax     float64 `json:"torqueUsageMax"`
	SpeedUsage         float64 `json:"speedUsage"`
	SpeedUsageMax      float64 `json:"speedUsageMax"`
	StabilityMargin    float64 `json:"stabilityMargin"`
	StabilityMarginMin float64 `json:"stabilityMarginMin"`
}

// adapterRunRequestBody is the wire shape for POST /api/agi/adapter/run,
// spec §4.5 Inputs / §6.
type adapterRunRequestBody struct {
	TraceID           string              `json:"traceId,omitempty"`
	Actions           []adapterActionBody `json:"actions,omitempty"`
	Premeditation     map[string]any      `json:"premeditation,omitempty"`
	RoboticsSafety    *roboticsSafetyBody `json:"roboticsSafety,omitempty"`
	ConstraintPackID  string              `json:"constraintPackId,omitempty"`
	Telemetry         map[string]float64  `json:"telemetry,omitempty"`
	PreviousTelemetry map[string]float64  `json:"previousTelemetry,omitempty"`
	Overrides         map[string]any      `json:"overrides,omitempty"`
}

// adapterRunHandler handles POST /api/agi/adapter/run.
func (s *Server) adapterRunHandler(c *echo.Context) error {
	var body adapterRunRequestBody
	if err := c.Bind(&body); err != nil {
		return taxonomyError(http.StatusBadRequest, "invalid_request")
	}

	actions := make([]safety.Action, len(body.Actions))
	for i, a := range body.Actions {
		actions[i] = safety.Action{ID: a.ID, Kind: a.Kind, Label: a.Label, Params: a.Params}
	}

	var rs *safety.RoboticsSafety
	if body.RoboticsSafety != nil {
		rs = &safety.RoboticsSafety{
			CollisionMargin:    body.RoboticsSafety.CollisionMargin,
			CollisionMarginMin: body.RoboticsSafety.CollisionMarginMin,
			TorqueUsage:        body.RoboticsSafety.TorqueUsage,
			TorqueUsageMax:     body.RoboticsSafety.TorqueUsageMax,
			SpeedUsage:         body.RoboticsSafety.SpeedUsage,
			SpeedUsageMax:      body.RoboticsSafety.SpeedUsageMax,
			StabilityMargin:    body.RoboticsSafety.StabilityMargin,
			StabilityMarginMin: body.RoboticsSafety.StabilityMarginMin,
		}
	}

	req := safety.AdapterRunRequest{
		TraceID:           body.TraceID,
		TenantID:          tenantID(c),
		Actions:           actions,
		Premeditation:     body.Premeditation,
		RoboticsSafety:    rs,
		ConstraintPackID:  body.ConstraintPackID,
		Telemetry:         body.Telemetry,
		PreviousTelemetry: body.PreviousTelemetry,
		Overrides:         body.Overrides,
	}

	result, err := s.gate.Run(c.Request().Context(), req)
	if err != nil {
		return mapError(err)
	}

	if _, err := s.traces.Append(c.Request().Context(), req.TenantID, result.Trace); err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"traceId":     result.TraceID,
		"runId":       result.RunID,
		"verdict":     result.Verdict,
		"pass":        result.Pass,
		"firstFail":   result.FirstFail,
		"deltas":      result.Deltas,
		"certificate": result.Certificate,
		"artifacts":   result.Artifacts,
	})
}
