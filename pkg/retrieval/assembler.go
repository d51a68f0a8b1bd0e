package retrieval

import (
	"fmt"
	"strings"

	"github.com/helixask/helixaskd/pkg/models"
)

// AssembleInput is everything Assemble needs to produce a PromptPlan, per
// spec §4.3: "(question, resonanceBundle?, resonanceSelection?,
// knowledgeContext?)". KnowledgeFiles is the caller's already-flattened view
// of whatever knowledge projects are in scope for this ask.
type AssembleInput struct {
	Question       string
	Bundle         *models.ResonanceBundle
	KnowledgeFiles []models.KnowledgeFile
	Budgets        Budgets
}

// clipToChars clips a preview to n chars, matching the teacher's
// clip-to-budget formatter shape.
func clipToChars(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

// renderPatchFile renders one resonance-patch file entry, spec §4.3:
// "(i) <path>\n<preview clipped to CONTEXT_CHARS>".
func renderPatchFile(i int, f models.KnowledgeFile, contextChars int) string {
	return fmt.Sprintf("(%d) %s\n%s", i, f.Path, clipToChars(f.Preview, contextChars))
}

// Assemble implements spec §4.3's prompt layout and citation rules. It is
// pure and deterministic: identical inputs always produce byte-identical
// output (property 4).
func Assemble(in AssembleInput) models.PromptPlan {
	tokens := Tokenize(in.Question)
	warpFocus := HasWarpFocus(in.Question)
	budgets := in.Budgets
	formatKind := DecideFormat(in.Question)

	var patch models.ResonancePatch
	var patchFiles []models.KnowledgeFile
	if in.Bundle != nil && len(in.Bundle.Candidates) > 0 {
		selected, _, _ := SelectPatch(tokens, in.Bundle)
		patch = selected
		patchFiles = SelectFiles(tokens, patch.Knowledge.Files, budgets.PatchFiles, false, warpFocus)
	}

	remainingSlots := budgets.ContextFiles - len(patchFiles)
	if remainingSlots < 0 {
		remainingSlots = 0
	}
	knowledgeFiles := SelectFiles(tokens, in.KnowledgeFiles, remainingSlots, true, warpFocus)

	remaining := budgets.PromptBudget
	var sections []models.PromptSection

	if len(patchFiles) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Resonance patch: %s\n", patch.Summary)
		for i, f := range patchFiles {
			b.WriteString(renderPatchFile(i+1, f, budgets.ContextChars))
			b.WriteString("\n")
		}
		if sec, ok := fitSection("patch", b.String(), &remaining); ok {
			sections = append(sections, sec)
		}
	}

	if len(knowledgeFiles) > 0 {
		var b strings.Builder
		b.WriteString("Knowledge projects:\n")
		for i, f := range knowledgeFiles {
			b.WriteString(renderPatchFile(i+1, f, budgets.ContextChars))
			b.WriteString("\n")
		}
		if sec, ok := fitSection("knowledge", b.String(), &remaining); ok {
			sections = append(sections, sec)
		}
	}

	if sec, ok := fitSection("instructions", instructionBlock(formatKind), &remaining); ok {
		sections = append(sections, sec)
	}

	patchPaths := make([]string, len(patchFiles))
	for i, f := range patchFiles {
		patchPaths[i] = f.Path
	}
	knowledgePaths := make([]string, len(knowledgeFiles))
	for i, f := range knowledgeFiles {
		knowledgePaths[i] = f.Path
	}

	return models.PromptPlan{
		Sections:        sections,
		Sources:         BuildCitations(patchPaths, knowledgePaths),
		RemainingTokens: remaining,
		FormatKind:      string(formatKind),
	}
}

// fitSection adds a candidate section if it fits the remaining token
// budget, trimming at a character boundary when it does not fully fit —
// spec §4.3: "Each candidate section is added only if it still fits within
// the remaining token budget; trailing content is trimmed at a character
// boundary." A section that cannot hold even a trimmed sliver is dropped.
func fitSection(title, body string, remaining *int) (models.PromptSection, bool) {
	if *remaining <= 0 {
		return models.PromptSection{}, false
	}

	cost := EstimateTokens(body)
	if cost <= *remaining {
		*remaining -= cost
		return models.PromptSection{Title: title, Body: body}, true
	}

	maxChars := *remaining * 4
	if maxChars <= 0 {
		return models.PromptSection{}, false
	}
	trimmed := clipToChars(body, maxChars)
	*remaining -= EstimateTokens(trimmed)
	if *remaining < 0 {
		*remaining = 0
	}
	return models.PromptSection{Title: title, Body: trimmed}, true
}
