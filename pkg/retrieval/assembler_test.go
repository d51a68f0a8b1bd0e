package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixask/helixaskd/pkg/models"
)

func warpKnowledge() []models.KnowledgeFile {
	return []models.KnowledgeFile{
		{Path: "modules/warp/warp-module.ts", Name: "warp-module.ts", Preview: "implements the warp bubble metric solver"},
		{Path: "docs/SMOKE.md", Name: "SMOKE.md", Preview: "smoke test checklist"},
		{Path: "client/src/pages/desktop.tsx", Name: "desktop.tsx", Preview: "renders the desktop shell"},
	}
}

// TestAssemble_S2 reproduces spec scenario S2 literally: warp-focused
// question, three knowledge files, expected selection order and citations.
func TestAssemble_S2(t *testing.T) {
	budgets := NewBudgets(2048, 0, 48, 12, 2400)
	plan := Assemble(AssembleInput{
		Question:       "how does the warp bubble solver work?",
		KnowledgeFiles: warpKnowledge(),
		Budgets:        budgets,
	})

	require.Len(t, plan.Sources, 2)
	assert.Equal(t, "search: modules/warp/warp-module.ts", plan.Sources[0])
	assert.Equal(t, "search: client/src/pages/desktop.tsx", plan.Sources[1])
}

func TestAssemble_Determinism(t *testing.T) {
	budgets := NewBudgets(2048, 0, 48, 12, 2400)
	in := AssembleInput{
		Question:       "how does the warp bubble solver work?",
		KnowledgeFiles: warpKnowledge(),
		Budgets:        budgets,
	}

	first := Assemble(in)
	for i := 0; i < 20; i++ {
		again := Assemble(in)
		assert.Equal(t, first.Sources, again.Sources)
		assert.Equal(t, first.Sections, again.Sections)
		assert.Equal(t, first.FormatKind, again.FormatKind)
	}
}

func TestAssemble_PromptBudgetRespected(t *testing.T) {
	budgets := NewBudgets(2048, 0, 48, 12, 2400)

	files := make([]models.KnowledgeFile, 0, 80)
	for i := 0; i < 80; i++ {
		files = append(files, models.KnowledgeFile{
			Path:    "repo/file_warp.go",
			Name:    "file_warp.go",
			Preview: "warp bubble content repeated many times over to pad the preview length well past the per-file clip budget so the assembler must trim sections to fit the overall prompt budget",
		})
	}

	plan := Assemble(AssembleInput{
		Question:       "warp bubble",
		KnowledgeFiles: files,
		Budgets:        budgets,
	})

	total := 0
	for _, s := range plan.Sections {
		total += EstimateTokens(s.Body)
	}
	assert.LessOrEqual(t, total, budgets.PromptBudget)
}

func TestSelectPatch_ZeroScorePrimaryDoesNotOverride(t *testing.T) {
	bundle := &models.ResonanceBundle{
		Candidates: []models.ResonancePatch{
			{ID: "a", Summary: "warp bubble geometry notes", Label: "a", ModeLabel: "grounded"},
			{ID: "b", Summary: "unrelated", Label: "b", ModeLabel: "grounded"},
		},
		Collapse: &models.ResonanceCollapse{PrimaryPatchID: "b"},
	}
	tokens := Tokenize("warp bubble")

	// "a" scores higher on tokens; "b" is named as primary but scores 0 on
	// these tokens, so it must NOT win the override (spec: primary only
	// wins when its own score is > 0).
	selected, score, matched := SelectPatch(tokens, bundle)
	assert.Equal(t, "a", selected.ID)
	assert.Greater(t, score, 0)
	assert.True(t, matched)
}

func TestDecideFormat(t *testing.T) {
	assert.Equal(t, FormatStepsTagged, DecideFormat("explain the scientific method here"))
	assert.Equal(t, FormatSteps, DecideFormat("what are the steps to deploy this"))
	assert.Equal(t, FormatCompare, DecideFormat("compare approach A versus approach B"))
	assert.Equal(t, FormatBrief, DecideFormat("what color is the sky"))
}

func TestSanitize_ExtractsAnswerMarkers(t *testing.T) {
	raw := "Question: how?\nUse only the evidence above.\nANSWER_START\nThe answer is 42.\nANSWER_END\ntrailer"
	out := Sanitize(raw, "how?", false)
	assert.Equal(t, "The answer is 42.", out)
}

func TestSanitize_StripsTrailingStageTagWhenNotRequested(t *testing.T) {
	raw := "FINAL:\nThe answer is here. (observe)"
	out := Sanitize(raw, "", false)
	assert.Equal(t, "The answer is here.", out)
}

func TestSanitize_KeepsStageTagWhenRequested(t *testing.T) {
	raw := "FINAL:\nThe answer is here. (observe)"
	out := Sanitize(raw, "", true)
	assert.Equal(t, "The answer is here. (observe)", out)
}
