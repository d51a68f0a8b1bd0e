package safety

import "regexp"

// kindLabelRe matches the forbidden-actuation vocabulary on an action's
// kind or label; paramKeyRe matches it on a param key — spec §4.5: "LLM-
// produced actions may declare intent only; they may not issue direct
// motor or actuator commands."
var (
	kindLabelRe = regexp.MustCompile(`(?i)motor|actuat`)
	paramKeyRe  = regexp.MustCompile(`(?i)motor|torque|servo`)
)

// Action is one requested adapter action, spec §4.5 Inputs.
type Action struct {
	ID     string
	Kind   string
	Label  string
	Params map[string]any
}

// ErrForbiddenActuation is a sentinel carrying the controller-boundary-
// violation taxonomy string. Gate.Run reports a violation as a
// *ForbiddenActuationError, not as this sentinel.
var ErrForbiddenActuation = errorString("controller-boundary-violation")

type errorString string

func (e errorString) Error() string { return string(e) }

// CheckForbiddenActuation scans every action's kind, label, and param keys.
// It returns the id of the first action that fails the check, or "" if all
// pass.
func CheckForbiddenActuation(actions []Action) (violatingID string, violated bool) {
	for _, a := range actions {
		if kindLabelRe.MatchString(a.Kind) || kindLabelRe.MatchString(a.Label) {
			return a.ID, true
		}
		for key := range a.Params {
			if paramKeyRe.MatchString(key) {
				return a.ID, true
			}
		}
	}
	return "", false
}
