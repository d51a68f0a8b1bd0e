package orchestrator

import (
	"context"

	"github.com/helixask/helixaskd/pkg/models"
)

// Planner is the external planning capability (C6-like) consulted when a
// question is repo-grounded and mode is execute. Its runtime is out of
// scope; only this contract is depended on.
type Planner interface {
	Plan(ctx context.Context, in PlanInput) (PlanResult, error)
}

// PlanInput is what the orchestrator hands the planner.
type PlanInput struct {
	Question       string
	TraceID        string
	UseKnowledge   bool
	KnowledgeFiles []models.KnowledgeFile
}

// PlanResult is the planner's response. TraceID keys the subsequent
// executor call.
type PlanResult struct {
	TraceID        string
	KnowledgeFiles []models.KnowledgeFile
	Reason         string // e.g. "bad_request", "knowledge_projects_disabled"
}

// Executor is the external tool-chain execution capability, invoked keyed
// by the planner's traceId when mode is execute.
type Executor interface {
	Execute(ctx context.Context, traceID string) (ExecuteResult, error)
}

// ExecuteResult is the executor's summary of what ran.
type ExecuteResult struct {
	Summary string
	Sources []string
}

// SearchCapability runs one derived query against the code-lattice search
// index, the C3-consumer side of retrieval whenever an Ask is answered by
// generation rather than by the executor.
type SearchCapability interface {
	Search(ctx context.Context, query string) ([]models.KnowledgeFile, error)
}
