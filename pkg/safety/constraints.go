package safety

import (
	"fmt"

	"github.com/helixask/helixaskd/pkg/models"
)

// CompareOp is one of the six comparison operators a constraint check may
// declare, spec §4.5: "op ∈ {<=,<,>=,>,==,!=}".
type CompareOp string

const (
	OpLE CompareOp = "<="
	OpLT CompareOp = "<"
	OpGE CompareOp = ">="
	OpGT CompareOp = ">"
	OpEQ CompareOp = "=="
	OpNE CompareOp = "!="
)

// compare evaluates value op threshold.
func compare(op CompareOp, value, threshold float64) bool {
	switch op {
	case OpLE:
		return value <= threshold
	case OpLT:
		return value < threshold
	case OpGE:
		return value >= threshold
	case OpGT:
		return value > threshold
	case OpEQ:
		return value == threshold
	case OpNE:
		return value != threshold
	default:
		return false
	}
}

// ConstraintCheck is one metric check within a named constraint pack.
type ConstraintCheck struct {
	Key       string
	Op        CompareOp
	Threshold float64
	Severity  models.CheckSeverity
}

// ConstraintPack is a named, ordered set of metric checks, loaded once at
// package init and never mutated (§9 Design Notes: "module-level
// registries").
type ConstraintPack struct {
	ID     string
	Checks []ConstraintCheck
}

// constraintPacks are the enumerated named packs from spec §4.5:
// repo-convergence, tool-use-budget, audit-safety.
var constraintPacks = map[string]ConstraintPack{
	"repo-convergence": {
		ID: "repo-convergence",
		Checks: []ConstraintCheck{
			{Key: "convergence_ratio", Op: OpGE, Threshold: 0.8, Severity: models.SeverityHard},
			{Key: "unresolved_conflicts", Op: OpLE, Threshold: 0, Severity: models.SeverityHard},
			{Key: "drift_score", Op: OpLE, Threshold: 0.2, Severity: models.SeveritySoft},
		},
	},
	"tool-use-budget": {
		ID: "tool-use-budget",
		Checks: []ConstraintCheck{
			{Key: "tool_calls_used", Op: OpLE, Threshold: 50, Severity: models.SeverityHard},
			{Key: "tokens_used", Op: OpLE, Threshold: 200000, Severity: models.SeveritySoft},
		},
	},
	"audit-safety": {
		ID: "audit-safety",
		Checks: []ConstraintCheck{
			{Key: "policy_violations", Op: OpEQ, Threshold: 0, Severity: models.SeverityHard},
			{Key: "pii_exposure_score", Op: OpLE, Threshold: 0.05, Severity: models.SeveritySoft},
		},
	},
}

// ConstraintPackByID looks up a named pack, spec §4.5 enumerated set.
func ConstraintPackByID(id string) (ConstraintPack, bool) {
	pack, ok := constraintPacks[id]
	return pack, ok
}

// EvaluateConstraintPack runs every check in a pack's declared order against
// telemetry, producing a Verdict and the stable delta audit record (spec
// §4.5 "Deltas"). previous supplies prior values for the delta's `from`
// field when available.
func EvaluateConstraintPack(pack ConstraintPack, telemetry, previous map[string]float64) models.Verdict {
	var (
		deltas    []models.Delta
		firstFail *models.FirstFail
	)

	for _, check := range pack.Checks {
		value, have := telemetry[check.Key]
		if !have {
			value = 0
		}
		pass := compare(check.Op, value, check.Threshold)

		if !pass && firstFail == nil && check.Severity == models.SeverityHard {
			firstFail = &models.FirstFail{
				ID:       check.Key,
				Severity: check.Severity,
				Status:   "FAIL",
				Value:    value,
				Limit:    check.Threshold,
				Note:     fmt.Sprintf("expected %s %s %v", check.Key, check.Op, check.Threshold),
			}
		}

		deltas = append(deltas, buildDelta(check.Key, value, have, check.Threshold, previous))
	}

	return models.Verdict{
		Pass:      firstFail == nil,
		FirstFail: firstFail,
		Deltas:    deltas,
	}
}

// buildDelta classifies a metric's movement on (hadPrevious, hasCurrent)
// rather than hadPrevious alone, so a key the client stopped reporting is
// recorded as removed instead of a fabricated drop to zero.
func buildDelta(key string, to float64, hasCurrent bool, limit float64, previous map[string]float64) models.Delta {
	d := models.Delta{Key: key, To: to}

	prev, hadPrevious := previous[key]
	if hadPrevious {
		prevCopy := prev
		d.From = &prevCopy
	}

	switch {
	case hadPrevious && !hasCurrent:
		d.Change = models.ChangeRemoved
		d.Delta = 0 - prev
	case hadPrevious:
		d.Change = models.ChangeModified
		d.Delta = to - prev
	default:
		d.Change = models.ChangeAdded
		d.Delta = to - limit
	}
	return d
}
