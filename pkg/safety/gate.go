package safety

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/helixask/helixaskd/pkg/models"
)

// TelemetryCollector supplies metric values auto-collected from known
// reports-directory file paths and environment variables when a request
// doesn't carry its own telemetry, spec §4.5: "Telemetry can be supplied in
// the request or auto-collected from known file paths... and environment
// variables."
type TelemetryCollector interface {
	Collect(ctx context.Context) (map[string]float64, error)
}

// NoopTelemetryCollector always returns an empty snapshot, used when no
// auto-collection source is configured.
type NoopTelemetryCollector struct{}

func (NoopTelemetryCollector) Collect(context.Context) (map[string]float64, error) {
	return map[string]float64{}, nil
}

// AdapterRunRequest is the structured input to one adapter-run evaluation,
// spec §4.5 Inputs.
type AdapterRunRequest struct {
	TraceID           string
	TenantID          string
	Actions           []Action
	Premeditation     map[string]any
	RoboticsSafety    *RoboticsSafety
	ConstraintPackID  string
	Telemetry         map[string]float64
	PreviousTelemetry map[string]float64
	Overrides         map[string]any
}

// AdapterRunResult is the gate's decision, spec §6: "{traceId, runId,
// verdict, pass, firstFail|null, deltas, certificate|null, artifacts[]}".
type AdapterRunResult struct {
	TraceID     string
	RunID       string
	Verdict     string
	Pass        bool
	FirstFail   *models.FirstFail
	Deltas      []models.Delta
	Certificate *models.Certificate
	Artifacts   []string
	Trace       models.TraceRecord
}

// Gate evaluates adapter-run requests against the forbidden-actuation
// check, the robotics-safety HARD checks, and named constraint packs.
type Gate struct {
	telemetry TelemetryCollector
}

// NewGate constructs a Gate. A nil collector defaults to NoopTelemetryCollector.
func NewGate(collector TelemetryCollector) *Gate {
	if collector == nil {
		collector = NoopTelemetryCollector{}
	}
	return &Gate{telemetry: collector}
}

// Run evaluates one adapter-run request end to end. Forbidden actuation
// short-circuits before any trace row is emitted, matching scenario S5; any
// other outcome (pass or veto) produces exactly one TraceRecord, matching
// scenario S4.
func (g *Gate) Run(ctx context.Context, req AdapterRunRequest) (AdapterRunResult, error) {
	if violatingID, violated := CheckForbiddenActuation(req.Actions); violated {
		return AdapterRunResult{}, &ForbiddenActuationError{ActionID: violatingID}
	}

	traceID := req.TraceID
	if traceID == "" {
		traceID = "adapter:" + uuid.NewString()
	}
	runID := uuid.NewString()

	pass := true
	var firstFail *models.FirstFail
	var deltas []models.Delta
	var certificate *models.Certificate

	if req.RoboticsSafety != nil {
		ff, checks := EvaluateRoboticsSafety(*req.RoboticsSafety)
		cert := BuildCertificate("robotics-safety", checks, ff == nil, true)
		certificate = &cert
		if ff != nil {
			pass = false
			firstFail = ff
		}
	}

	if pass && req.ConstraintPackID != "" {
		if pack, ok := ConstraintPackByID(req.ConstraintPackID); ok {
			telemetry := req.Telemetry
			if telemetry == nil {
				collected, err := g.telemetry.Collect(ctx)
				if err == nil {
					telemetry = collected
				}
			}
			verdict := EvaluateConstraintPack(pack, telemetry, req.PreviousTelemetry)
			deltas = append(deltas, verdict.Deltas...)
			if !verdict.Pass {
				pass = false
				firstFail = verdict.FirstFail
			}
		}
	}

	verdictStr := "PASS"
	if !pass {
		verdictStr = "FAIL"
	}

	trace := models.TraceRecord{
		TraceID:     traceID,
		TenantID:    req.TenantID,
		Pass:        pass,
		Deltas:      deltas,
		FirstFail:   firstFail,
		Certificate: certificate,
		CreatedAt:   time.Now(),
	}

	return AdapterRunResult{
		TraceID:     traceID,
		RunID:       runID,
		Verdict:     verdictStr,
		Pass:        pass,
		FirstFail:   firstFail,
		Deltas:      deltas,
		Certificate: certificate,
		Artifacts:   []string{},
		Trace:       trace,
	}, nil
}

// ForbiddenActuationError is returned when an action attempts direct
// actuation; the HTTP layer maps it to 400 controller-boundary-violation.
type ForbiddenActuationError struct {
	ActionID string
}

func (e *ForbiddenActuationError) Error() string {
	return "controller-boundary-violation"
}
