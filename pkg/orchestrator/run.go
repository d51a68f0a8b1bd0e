package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/helixask/helixaskd/pkg/models"
	"github.com/helixask/helixaskd/pkg/retrieval"
)

// overflowMatchTerms is the literal substring set spec §4.4 step 7 checks a
// generation error message against to decide whether the context-overflow
// retry policy applies.
var overflowMatchTerms = []string{"context", "token", "exceed"}

func looksLikeContextOverflow(message string) bool {
	lower := strings.ToLower(message)
	for _, term := range overflowMatchTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// executeAsk runs the full state machine for one Ask, spec §4.4.
func (o *Orchestrator) executeAsk(run *models.AskRun, req AskRequest) (AskResult, error) {
	log := o.logger(run)
	debug := map[string]any{}
	ctx := run.Context()

	log.Info("ask started", "mode", req.Mode, "use_knowledge", req.UseKnowledge)
	o.publish(run, models.StageStart, "helix.ask.start", req.Question)

	if run.Aborted() {
		return o.abortedResult(run, ""), nil
	}

	grounded := IsRepoGrounded(req.Question)
	debug["grounded"] = grounded
	debug["mode"] = string(req.Mode)

	knowledgeFiles := req.KnowledgeFiles
	var plan *PlanResult

	if grounded && req.Mode == models.ModeExecute && o.deps.Planner != nil {
		planCtx, cancel := context.WithTimeout(ctx, PlanTimeout)
		result, err := o.runPlanner(planCtx, run, req, knowledgeFiles)
		cancel()
		if err != nil {
			return AskResult{}, fmt.Errorf("%w: %v", ErrPlanFailed, err)
		}
		plan = &result
		if result.KnowledgeFiles != nil {
			knowledgeFiles = result.KnowledgeFiles
		}
	}

	if run.Aborted() {
		return o.abortedResult(run, ""), nil
	}

	var (
		replyText string
		sources   []string
	)

	if req.Mode == models.ModeExecute && plan != nil {
		execCtx, cancel := context.WithTimeout(ctx, ExecuteTimeout)
		o.publish(run, models.StageStart, "helix.ask.execute", plan.TraceID)
		result, err := o.deps.Executor.Execute(execCtx, plan.TraceID)
		cancel()
		if err != nil {
			o.publish(run, models.StageEnd, "helix.ask.execute", err.Error())
			return AskResult{}, fmt.Errorf("%w: %v", ErrExecuteFailed, err)
		}
		o.publish(run, models.StageEnd, "helix.ask.execute", result.Summary)
		replyText = result.Summary
		sources = result.Sources
	} else {
		buildCtx, cancel := context.WithTimeout(ctx, BuildContextTimeout)
		searched := o.runSearch(buildCtx, run, req)
		cancel()
		knowledgeFiles = append(append([]models.KnowledgeFile{}, knowledgeFiles...), searched...)

		if run.Aborted() {
			return o.abortedResult(run, ""), nil
		}

		genText, genSources, overflowRetried, err := o.generate(ctx, run, req, knowledgeFiles)
		debug["overflow_retry_applied"] = overflowRetried
		if err != nil {
			if run.Aborted() {
				return o.abortedResult(run, genText), nil
			}
			return AskResult{}, err
		}
		replyText = genText
		sources = genSources
	}

	o.publish(run, models.StageEnd, "helix.ask.end", replyText)

	result := AskResult{
		ReplyText: replyText,
		Sources:   sources,
		TraceID:   run.TraceID,
	}
	if req.Debug {
		result.Debug = debug
	}
	return result, nil
}

// runPlanner calls the planner, retrying exactly once without knowledge on
// bad_request|knowledge_projects_disabled (spec §4.4 step 4).
func (o *Orchestrator) runPlanner(ctx context.Context, run *models.AskRun, req AskRequest, knowledgeFiles []models.KnowledgeFile) (PlanResult, error) {
	o.publish(run, models.StageStart, "helix.ask.plan", req.Question)

	result, err := o.deps.Planner.Plan(ctx, PlanInput{
		Question:       req.Question,
		TraceID:        req.TraceID,
		UseKnowledge:   req.UseKnowledge,
		KnowledgeFiles: knowledgeFiles,
	})
	if err == nil && (result.Reason == "bad_request" || result.Reason == "knowledge_projects_disabled") {
		result, err = o.deps.Planner.Plan(ctx, PlanInput{
			Question:     req.Question,
			TraceID:      req.TraceID,
			UseKnowledge: false,
		})
	}
	if err != nil {
		o.publish(run, models.StageEnd, "helix.ask.plan", err.Error())
		return PlanResult{}, err
	}
	o.publish(run, models.StageEnd, "helix.ask.plan", result.TraceID)
	return result, nil
}

// runSearch issues up to SearchQueryLimit derived queries (spec §4.4 step
// 6). Search failures are swallowed: search is a best-effort fallback, not
// a hard dependency.
func (o *Orchestrator) runSearch(ctx context.Context, run *models.AskRun, req AskRequest) []models.KnowledgeFile {
	if o.deps.Search == nil || !req.UseSearchFallback {
		return nil
	}

	limit := o.askCfg.SearchQueryLimit
	if limit <= 0 {
		limit = 10
	}

	queries := retrieval.Tokenize(req.Question)
	if len(queries) > limit {
		queries = queries[:limit]
	}

	var merged []models.KnowledgeFile
	for _, q := range queries {
		files, err := o.deps.Search.Search(ctx, q)
		if err != nil {
			continue
		}
		merged = append(merged, files...)
	}
	return merged
}

// generate assembles the prompt, invokes the generator, and applies the
// context-overflow retry-once policy (spec §4.4 steps 6-8).
func (o *Orchestrator) generate(ctx context.Context, run *models.AskRun, req AskRequest, knowledgeFiles []models.KnowledgeFile) (string, []string, bool, error) {
	budgets := o.budgets
	if req.MaxTokens > 0 {
		budgets.OutputTokens = req.MaxTokens
	}

	plan := retrieval.Assemble(retrieval.AssembleInput{
		Question:       req.Question,
		Bundle:         req.Bundle,
		KnowledgeFiles: knowledgeFiles,
		Budgets:        budgets,
	})

	text, stageTagged, err := o.callGenerator(ctx, run, plan, budgets)
	overflowRetried := false
	if err != nil {
		if !isContextOverflowErr(err) {
			return text, plan.Sources, false, err
		}

		reducedBudgets := budgets.Reduced(0.6)
		reducedPlan := retrieval.Assemble(retrieval.AssembleInput{
			Question:       req.Question,
			Bundle:         req.Bundle,
			KnowledgeFiles: knowledgeFiles,
			Budgets:        reducedBudgets,
		})
		overflowRetried = true
		text, stageTagged, err = o.callGenerator(ctx, run, reducedPlan, reducedBudgets)
		if err != nil {
			return text, reducedPlan.Sources, overflowRetried, err
		}
		plan = reducedPlan
	}

	sanitized := retrieval.Sanitize(text, req.Question, stageTagged)
	return sanitized, plan.Sources, overflowRetried, nil
}

func isContextOverflowErr(err error) bool {
	return looksLikeContextOverflow(err.Error())
}

// callGenerator drives one Generate call end to end, publishing streamed
// chunks to the bus and capturing partial text for the cancellation
// fallback path.
func (o *Orchestrator) callGenerator(ctx context.Context, run *models.AskRun, plan models.PromptPlan, budgets retrieval.Budgets) (string, bool, error) {
	genCtx, cancel := context.WithTimeout(ctx, GenerateTimeout)
	defer cancel()

	stageTagged := plan.FormatKind == "steps-tagged"

	chunks, err := o.deps.Generator.Generate(genCtx, &GenerateInput{
		Prompt:       renderSections(plan),
		PromptBudget: budgets.PromptBudget,
		MaxTokens:    budgets.OutputTokens,
	})
	if err != nil {
		return "", stageTagged, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	var b strings.Builder
	for chunk := range chunks {
		switch c := chunk.(type) {
		case *TextChunk:
			b.WriteString(c.Content)
			o.publish(run, models.StageChunk, "helix.ask.stream", c.Content)
		case *ErrorChunk:
			return b.String(), stageTagged, fmt.Errorf("%w: %v", ErrGenerationFailed, c.Message)
		case *UsageChunk:
			// usage accounting is surfaced via debug payload by the caller
		}
		if run.Aborted() {
			return b.String(), stageTagged, ErrAborted
		}
	}

	// The generator may react to cancellation by closing chunks without a
	// final ErrorChunk (what pkg/asklocal/client.go does), so the range loop
	// above can exit with no error even though the run was aborted. Check
	// once more here or a race between cancellation and the channel close
	// would be silently treated as a successful completion.
	if run.Aborted() {
		return b.String(), stageTagged, ErrAborted
	}

	return b.String(), stageTagged, nil
}

func renderSections(plan models.PromptPlan) string {
	var b strings.Builder
	for _, s := range plan.Sections {
		b.WriteString(s.Body)
		b.WriteString("\n")
	}
	return b.String()
}

// abortedResult implements the cancellation contract (spec §4.4): never an
// error, a streamed-fallback reply when partial text was captured (unless
// the stop was user-initiated), else the generic stopped message.
func (o *Orchestrator) abortedResult(run *models.AskRun, partial string) AskResult {
	text := partial
	streamedFallback := partial != "" && !run.UserStop()
	if !streamedFallback {
		text = "Generation stopped."
	}
	o.publish(run, models.StageEnd, "helix.ask.end", text)
	return AskResult{
		ReplyText:        text,
		TraceID:          run.TraceID,
		StreamedFallback: streamedFallback,
	}
}
