// Package models defines the shared data model for HelixAsk: sessions and
// their messages, ephemeral ask runs, tool-log events, and the dynamic
// shapes (resonance bundles, knowledge projects) consumed from upstream
// retrieval collaborators.
package models

import (
	"context"
	"sync/atomic"
	"time"
)

// Session is identified by (ownerID, sessionID) and holds an append-only
// message history plus a content hash over that history for cache
// validation. Invariant: UpdatedAt >= CreatedAt, and the recomputed hash of
// Messages must match ContentHash.
type Session struct {
	OwnerID     string    `json:"ownerId"`
	SessionID   string    `json:"sessionId"`
	ContextID   string    `json:"contextId,omitempty"`
	PersonaID   string    `json:"personaId,omitempty"`
	Messages    []Message `json:"messages"`
	ContentHash string    `json:"contentHash"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Message is one entry in a session's append-only history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	TraceID   string    `json:"traceId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Mode selects whether an Ask merely grounds an answer in retrieved context
// or also executes a tool-chain against the plan.
type Mode string

const (
	ModeGrounded Mode = "grounded"
	ModeExecute  Mode = "execute"
)

// AskRun is the ephemeral per-request record for one Ask. Its lifetime is a
// single request: it is destroyed on completion, error, or abort. The abort
// signal is the run's context, cancelled by the CancelFunc from NewAskRun
// (or by MarkUserStop), and is polled cooperatively via Aborted in the
// orchestrator.
type AskRun struct {
	RunID          string
	TraceID        string
	SessionID      string
	Question       string
	Mode           Mode
	StartedAt      time.Time
	ContextTokens  int
	OutputTokens   int
	PromptBudget   int
	MaxTokens      int
	UseKnowledge   bool
	SearchFallback bool
	Debug          bool

	ctx      context.Context
	cancel   context.CancelFunc
	userStop atomic.Bool
}

// NewAskRun derives a cancellable context from parent and returns the run
// along with a CancelFunc the caller owns.
func NewAskRun(parent context.Context, runID, traceID string) (*AskRun, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	run := &AskRun{
		RunID:     runID,
		TraceID:   traceID,
		StartedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
	return run, cancel
}

// Context returns the run's abort-aware context.
func (r *AskRun) Context() context.Context { return r.ctx }

// Aborted reports whether the run's context has been cancelled.
func (r *AskRun) Aborted() bool {
	select {
	case <-r.ctx.Done():
		return true
	default:
		return false
	}
}

// MarkUserStop records that cancellation was user-initiated (a "stop"
// request) rather than e.g. a client disconnect or deadline, then cancels
// the run. The distinction governs whether the orchestrator treats partial
// streamed text as a fallback reply (spec §4.4).
func (r *AskRun) MarkUserStop() {
	r.userStop.Store(true)
	r.cancel()
}

// UserStop reports whether cancellation was user-initiated.
func (r *AskRun) UserStop() bool { return r.userStop.Load() }

// EventStage is the lifecycle stage of a ToolLogEvent.
type EventStage string

const (
	StageStart EventStage = "start"
	StageChunk EventStage = "chunk"
	StageEnd   EventStage = "end"
)

// ToolLogEvent is one entry on the tool-log event bus. Seq is assigned by
// the bus at publish time and is monotonic across the whole process; ID is
// unique per event. Once published an event is immutable.
type ToolLogEvent struct {
	ID         string     `json:"id"`
	Seq        uint64     `json:"seq"`
	Ts         time.Time  `json:"ts"`
	SessionID  string     `json:"sessionId,omitempty"`
	TraceID    string     `json:"traceId,omitempty"`
	Tool       string     `json:"tool"`
	Stage      EventStage `json:"stage"`
	Text       string     `json:"text,omitempty"`
	Ok         *bool      `json:"ok,omitempty"`
	DurationMs *int64     `json:"durationMs,omitempty"`
}

// KnowledgeFile is one file within a knowledge project, consumed (not
// owned) by retrieval. Unknown upstream fields collapse into Extra per the
// "dynamic shape handling" design note.
type KnowledgeFile struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"projectId"`
	Path      string         `json:"path"`
	Name      string         `json:"name"`
	Preview   string         `json:"preview"`
	Mime      string         `json:"mime,omitempty"`
	Size      int64          `json:"size,omitempty"`
	Extra     map[string]any `json:"-"`
}

// KnowledgeProjectExport wraps a named collection of files plus a running
// summary, exported by an external knowledge-project capability.
type KnowledgeProjectExport struct {
	Project      string          `json:"project"`
	Summary      string          `json:"summary"`
	Files        []KnowledgeFile `json:"files"`
	ApproxBytes  int64           `json:"approxBytes"`
	OmittedFiles int             `json:"omittedFiles,omitempty"`
	Audit        map[string]any  `json:"audit,omitempty"`
}

// ResonancePatch is a pre-computed retrieval candidate: a labelled bundle of
// files associated with a code-lattice query.
type ResonancePatch struct {
	ID        string         `json:"id"`
	Summary   string         `json:"summary"`
	Label     string         `json:"label"`
	ModeLabel string         `json:"mode"`
	Knowledge ResonanceFiles `json:"knowledge"`
}

// ResonanceFiles wraps the file list inside a ResonancePatch's "knowledge" key.
type ResonanceFiles struct {
	Files []KnowledgeFile `json:"files"`
}

// ResonanceCollapse names the primary patch a caller has pre-selected; it
// is chosen over the best-scoring patch whenever its own score is positive.
type ResonanceCollapse struct {
	PrimaryPatchID string `json:"primaryPatchId"`
}

// ResonanceBundle carries retrieval candidates plus an optional collapse.
type ResonanceBundle struct {
	Candidates []ResonancePatch   `json:"candidates"`
	Collapse   *ResonanceCollapse `json:"collapse,omitempty"`
}

// PromptSection is one ordered block of the assembled prompt.
type PromptSection struct {
	Title string
	Body  string
}

// PromptPlan is the result of context assembly: ordered sections, a stable
// citation list, and the token budget remaining after assembly.
type PromptPlan struct {
	Sections        []PromptSection
	Sources         []string
	RemainingTokens int
	FormatKind      string
}

// CheckSeverity classifies a failed constraint check.
type CheckSeverity string

const (
	SeverityHard CheckSeverity = "HARD"
	SeveritySoft CheckSeverity = "SOFT"
)

// FirstFail describes the first failing check in a constraint evaluation,
// in the fixed order the checks were declared.
type FirstFail struct {
	ID       string        `json:"id"`
	Severity CheckSeverity `json:"severity"`
	Status   string        `json:"status"`
	Value    float64       `json:"value"`
	Limit    float64       `json:"limit"`
	Note     string        `json:"note,omitempty"`
}

// DeltaChange classifies how a metric moved relative to its prior value.
type DeltaChange string

const (
	ChangeAdded    DeltaChange = "added"
	ChangeModified DeltaChange = "modified"
	ChangeRemoved  DeltaChange = "removed"
)

// Delta is one metric's audit record: where it came from, where it landed,
// and how it's classified.
type Delta struct {
	Key    string      `json:"key"`
	From   *float64    `json:"from,omitempty"`
	To     float64     `json:"to"`
	Delta  float64     `json:"delta"`
	Change DeltaChange `json:"change"`
}

// CertificateStatus is the terminal pass/fail status of a safety evaluation.
type CertificateStatus string

const (
	CertificateGreen CertificateStatus = "GREEN"
	CertificateRed   CertificateStatus = "RED"
)

// Certificate is a deterministic hash + status pair attesting that a
// specific set of checks was evaluated over a specific input.
type Certificate struct {
	Status          CertificateStatus `json:"status"`
	CertificateHash string            `json:"certificateHash"`
	CertificateID   string            `json:"certificateId"`
	IntegrityOk     bool              `json:"integrityOk"`
}

// Verdict is the result of the Adapter Safety Gate's evaluation.
type Verdict struct {
	Pass        bool         `json:"pass"`
	FirstFail   *FirstFail   `json:"firstFail,omitempty"`
	Deltas      []Delta      `json:"deltas"`
	Certificate *Certificate `json:"certificate,omitempty"`
}

// TraceRecord is one append-only entry in the training-trace log, emitted
// by the safety gate on every veto or successful adapter run (spec §4.5)
// and served by the Session & Trace Store (§4.6).
type TraceRecord struct {
	Seq         uint64         `json:"seq"`
	TraceID     string         `json:"traceId"`
	TenantID    string         `json:"tenantId,omitempty"`
	Pass        bool           `json:"pass"`
	Deltas      []Delta        `json:"deltas"`
	FirstFail   *FirstFail     `json:"firstFail,omitempty"`
	Certificate *Certificate   `json:"certificate,omitempty"`
	Metrics     map[string]any `json:"metrics,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	Notes       []string       `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}
