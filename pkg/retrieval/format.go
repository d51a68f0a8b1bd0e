package retrieval

import "strings"

// FormatKind is the answer-format decision derived from the question text,
// spec §4.3 "Format decision".
type FormatKind string

const (
	FormatStepsTagged FormatKind = "steps-tagged"
	FormatSteps       FormatKind = "steps"
	FormatCompare     FormatKind = "compare"
	FormatBrief       FormatKind = "brief"
)

// stageTags is the fixed stage-tag sequence appended to each step when the
// question matches the scientific-method trigger.
const stageTags = "(observe|hypothesis|experiment|analysis|explain)"

// DecideFormat classifies the question's lowercase text into one of the four
// format kinds, in the fixed precedence order from spec §4.3.
func DecideFormat(question string) FormatKind {
	lower := strings.ToLower(question)

	switch {
	case scientificMethodRe.MatchString(lower):
		return FormatStepsTagged
	case stepIntentRe.MatchString(lower):
		return FormatSteps
	case comparativeRe.MatchString(lower):
		return FormatCompare
	default:
		return FormatBrief
	}
}

// instructionBlock renders the fixed instruction block for a format
// decision, ending in the explicit FINAL: terminator spec §4.3 requires.
func instructionBlock(kind FormatKind) string {
	var b strings.Builder
	b.WriteString("Use only the evidence above. Cite sources as (resonance|search): path.\n")
	switch kind {
	case FormatStepsTagged:
		b.WriteString("Answer in numbered steps. Tag each step with one of " + stageTags + ".\n")
	case FormatSteps:
		b.WriteString("Answer in numbered steps. Do not include stage tags.\n")
	case FormatCompare:
		b.WriteString("Answer by comparing the relevant items directly.\n")
	case FormatBrief:
		b.WriteString("Answer briefly and directly.\n")
	}
	b.WriteString("Follow the format below.\nFINAL:")
	return b.String()
}
