package safety

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGate_S4_RoboticsSafetyVeto reproduces spec scenario S4 literally.
func TestGate_S4_RoboticsSafetyVeto(t *testing.T) {
	g := NewGate(nil)
	req := AdapterRunRequest{
		RoboticsSafety: &RoboticsSafety{
			CollisionMargin:    0.01,
			CollisionMarginMin: 0.05,
			TorqueUsage:        0.7,
			TorqueUsageMax:     0.8,
			SpeedUsage:         0.6,
			SpeedUsageMax:      0.9,
			StabilityMargin:    0.4,
			StabilityMarginMin: 0.3,
		},
	}

	result, err := g.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "FAIL", result.Verdict)
	require.NotNil(t, result.FirstFail)
	assert.Equal(t, "ROBOTICS_SAFETY_COLLISION_MARGIN", result.FirstFail.ID)
	require.NotNil(t, result.Certificate)
	assert.Equal(t, "RED", string(result.Certificate.Status))
	assert.False(t, result.Trace.Pass)
}

// TestGate_S5_ForbiddenActuation reproduces spec scenario S5 literally.
func TestGate_S5_ForbiddenActuation(t *testing.T) {
	g := NewGate(nil)
	req := AdapterRunRequest{
		Actions: []Action{
			{ID: "a", Kind: "motor.spin", Params: map[string]any{"torque": 1.0}},
		},
	}

	_, err := g.Run(context.Background(), req)
	require.Error(t, err)

	var fae *ForbiddenActuationError
	require.ErrorAs(t, err, &fae)
	assert.Equal(t, "a", fae.ActionID)
	assert.Equal(t, "controller-boundary-violation", err.Error())
}

// TestForbiddenActuation_Invariant covers property 7: any kind/label match
// on motor|actuat or any param key match on motor|torque|servo is caught.
func TestForbiddenActuation_Invariant(t *testing.T) {
	cases := []struct {
		name    string
		actions []Action
	}{
		{"kind", []Action{{ID: "1", Kind: "Actuator.Move"}}},
		{"label", []Action{{ID: "2", Kind: "generic", Label: "spin motor"}}},
		{"param-key-torque", []Action{{ID: "3", Kind: "generic", Params: map[string]any{"torqueLimit": 1}}}},
		{"param-key-servo", []Action{{ID: "4", Kind: "generic", Params: map[string]any{"servoAngle": 1}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, violated := CheckForbiddenActuation(tc.actions)
			assert.True(t, violated)
			assert.Equal(t, tc.actions[0].ID, id)
		})
	}
}

func TestForbiddenActuation_AllowsIntentOnlyActions(t *testing.T) {
	actions := []Action{
		{ID: "1", Kind: "plan.step", Label: "describe next step", Params: map[string]any{"note": "no actuation"}},
	}
	_, violated := CheckForbiddenActuation(actions)
	assert.False(t, violated)
}

// TestCertificate_Determinism covers property 6: identical inputs produce
// identical certificateHash/certificateId.
func TestCertificate_Determinism(t *testing.T) {
	rs := RoboticsSafety{
		CollisionMargin: 0.2, CollisionMarginMin: 0.05,
		TorqueUsage: 0.3, TorqueUsageMax: 0.8,
		SpeedUsage: 0.2, SpeedUsageMax: 0.9,
		StabilityMargin: 0.5, StabilityMarginMin: 0.3,
	}

	ff1, checks1 := EvaluateRoboticsSafety(rs)
	ff2, checks2 := EvaluateRoboticsSafety(rs)
	assert.Nil(t, ff1)
	assert.Nil(t, ff2)

	cert1 := BuildCertificate("robotics-safety", checks1, true, true)
	cert2 := BuildCertificate("robotics-safety", checks2, true, true)

	assert.Equal(t, cert1.CertificateHash, cert2.CertificateHash)
	assert.Equal(t, cert1.CertificateID, cert2.CertificateID)
	assert.Len(t, cert1.CertificateHash, 64)
	assert.Equal(t, "robotics-safety:"+cert1.CertificateHash[:12], cert1.CertificateID)
}

func TestEvaluateConstraintPack_HardFailVetoesSoftRecordsDelta(t *testing.T) {
	pack, ok := ConstraintPackByID("tool-use-budget")
	require.True(t, ok)

	verdict := EvaluateConstraintPack(pack, map[string]float64{
		"tool_calls_used": 75,
		"tokens_used":     250000,
	}, nil)

	assert.False(t, verdict.Pass)
	require.NotNil(t, verdict.FirstFail)
	assert.Equal(t, "tool_calls_used", verdict.FirstFail.ID)
	assert.Len(t, verdict.Deltas, 2)
}

func TestEvaluateConstraintPack_AllPass(t *testing.T) {
	pack, ok := ConstraintPackByID("repo-convergence")
	require.True(t, ok)

	verdict := EvaluateConstraintPack(pack, map[string]float64{
		"convergence_ratio":    0.95,
		"unresolved_conflicts": 0,
		"drift_score":          0.1,
	}, nil)

	assert.True(t, verdict.Pass)
	assert.Nil(t, verdict.FirstFail)
}
