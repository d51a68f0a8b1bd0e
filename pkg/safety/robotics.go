package safety

import "github.com/helixask/helixaskd/pkg/models"

// RoboticsSafety carries the measured values and thresholds for the four
// HARD checks spec §4.5 evaluates, in their fixed order.
type RoboticsSafety struct {
	CollisionMargin    float64
	CollisionMarginMin float64
	TorqueUsage        float64
	TorqueUsageMax     float64
	SpeedUsage         float64
	SpeedUsageMax      float64
	StabilityMargin    float64
	StabilityMarginMin float64
}

// roboticsCheck is one evaluated HARD check, used both for the firstFail
// decision and for the certificate's checks[] payload.
type roboticsCheck struct {
	id    string
	value float64
	limit float64
	pass  bool
}

// evaluateRoboticsChecks runs the four checks in the spec's fixed order:
// collision margin, torque usage, speed usage, stability margin.
func evaluateRoboticsChecks(rs RoboticsSafety) []roboticsCheck {
	return []roboticsCheck{
		{
			id:    "ROBOTICS_SAFETY_COLLISION_MARGIN",
			value: rs.CollisionMargin,
			limit: rs.CollisionMarginMin,
			pass:  rs.CollisionMargin >= rs.CollisionMarginMin,
		},
		{
			id:    "ROBOTICS_SAFETY_TORQUE_USAGE",
			value: rs.TorqueUsage,
			limit: rs.TorqueUsageMax,
			pass:  rs.TorqueUsage <= rs.TorqueUsageMax,
		},
		{
			id:    "ROBOTICS_SAFETY_SPEED_USAGE",
			value: rs.SpeedUsage,
			limit: rs.SpeedUsageMax,
			pass:  rs.SpeedUsage <= rs.SpeedUsageMax,
		},
		{
			id:    "ROBOTICS_SAFETY_STABILITY_MARGIN",
			value: rs.StabilityMargin,
			limit: rs.StabilityMarginMin,
			pass:  rs.StabilityMargin >= rs.StabilityMarginMin,
		},
	}
}

// EvaluateRoboticsSafety returns the first failing check (in fixed order)
// or nil if all four HARD checks pass, plus the full check list for
// certificate hashing.
func EvaluateRoboticsSafety(rs RoboticsSafety) (*models.FirstFail, []roboticsCheck) {
	checks := evaluateRoboticsChecks(rs)
	for _, c := range checks {
		if !c.pass {
			return &models.FirstFail{
				ID:       c.id,
				Severity: models.SeverityHard,
				Status:   "FAIL",
				Value:    c.value,
				Limit:    c.limit,
			}, checks
		}
	}
	return nil, checks
}

// checksToCanonicalValue converts the evaluated checks into the plain
// map/slice shape canon.JSON understands, for certificate hashing.
func checksToCanonicalValue(checks []roboticsCheck) []any {
	out := make([]any, len(checks))
	for i, c := range checks {
		out[i] = map[string]any{
			"id":    c.id,
			"value": c.value,
			"limit": c.limit,
			"pass":  c.pass,
		}
	}
	return out
}
