package retrieval

// Budgets holds the token/file/char budgets from spec §4.3, resolved from
// config.AskConfig at startup (see pkg/config) and passed by value into
// Assemble — never mutated once resolved.
type Budgets struct {
	ContextTokens int
	OutputTokens  int
	PromptBudget  int
	ContextFiles  int
	PatchFiles    int
	ContextChars  int
}

// NewBudgets derives PromptBudget and clamps the file/char budgets per
// spec §4.3's ENUMERATED defaults and bounds.
func NewBudgets(contextTokens, outputTokens, contextFiles, patchFiles, contextChars int) Budgets {
	if contextTokens <= 0 {
		contextTokens = 2048
	}
	if outputTokens <= 0 {
		outputTokens = minInt(2048, contextTokens/2)
	}
	promptBudget := contextTokens - outputTokens - 128
	if promptBudget < 256 {
		promptBudget = 256
	}
	return Budgets{
		ContextTokens: contextTokens,
		OutputTokens:  outputTokens,
		PromptBudget:  promptBudget,
		ContextFiles:  clampInt(contextFiles, 2, 48),
		PatchFiles:    clampInt(patchFiles, 2, 24),
		ContextChars:  clampInt(contextChars, 120, 2400),
	}
}

// Reduced returns a copy of b with PromptBudget scaled by factor (floored
// at 256), used by the orchestrator's context-overflow retry-once policy
// (spec §4.4: "max(256, floor(PROMPT_BUDGET · 0.6))").
func (b Budgets) Reduced(factor float64) Budgets {
	reduced := b
	scaled := int(float64(b.PromptBudget) * factor)
	if scaled < 256 {
		scaled = 256
	}
	reduced.PromptBudget = scaled
	return reduced
}

// EstimateTokens approximates tokens as ceil(len/4), per spec §4.3.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return (len(s) + 3) / 4
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
