// Package orchestrator drives one Ask request end-to-end: interpret, plan,
// execute or ground-and-generate, with cancellation and a bounded queue for
// requests submitted while the orchestrator is busy.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helixask/helixaskd/pkg/config"
	"github.com/helixask/helixaskd/pkg/events"
	"github.com/helixask/helixaskd/pkg/models"
	"github.com/helixask/helixaskd/pkg/retrieval"
)

// Default per-stage timeouts, spec §5.
const (
	PlanTimeout         = 60 * time.Second
	ExecuteTimeout      = 120 * time.Second
	BuildContextTimeout = 2 * time.Second
	GenerateTimeout     = 120 * time.Second
)

// AskRequest is one submitted question, spec §4.4 Inputs.
type AskRequest struct {
	Question          string
	SessionID         string
	TraceID           string
	Mode              models.Mode
	MaxTokens         int
	UseKnowledge      bool
	UseSearchFallback bool
	Debug             bool
	KnowledgeFiles    []models.KnowledgeFile
	Bundle            *models.ResonanceBundle
}

// AskResult is one completed Ask's output, spec §4.4 Output.
type AskResult struct {
	ReplyText        string
	Sources          []string
	TraceID          string
	Debug            map[string]any
	StreamedFallback bool
}

// Deps bundles the Orchestrator's external collaborators. Planner, Executor,
// and Search may be nil when the deployment runs in grounded-only mode
// without those capabilities wired.
type Deps struct {
	Bus       *events.Bus
	Generator Generator
	Planner   Planner
	Executor  Executor
	Search    SearchCapability
}

type askJob struct {
	req      AskRequest
	run      *models.AskRun
	resultCh chan jobOutcome
}

type jobOutcome struct {
	result AskResult
	err    error
}

// Orchestrator serializes Ask execution behind one worker goroutine per
// process, with a bounded FIFO ahead of it (spec §4.4 Queueing).
type Orchestrator struct {
	deps    Deps
	budgets retrieval.Budgets
	askCfg  config.AskConfig

	queue chan *askJob

	mu      sync.Mutex
	running map[string]*askJob // runID -> job, for Cancel lookups
	closed  bool
}

// New constructs an Orchestrator with a queue sized to askCfg.QueueLimit and
// starts its single worker goroutine.
func New(deps Deps, askCfg config.AskConfig) *Orchestrator {
	budgets := retrieval.NewBudgets(
		askCfg.ContextTokens, askCfg.OutputTokens,
		askCfg.ContextFiles, askCfg.PatchFiles, askCfg.ContextChars,
	)
	queueLimit := askCfg.QueueLimit
	if queueLimit <= 0 {
		queueLimit = 12
	}

	o := &Orchestrator{
		deps:    deps,
		budgets: budgets,
		askCfg:  askCfg,
		queue:   make(chan *askJob, queueLimit),
		running: make(map[string]*askJob),
	}
	go o.worker()
	return o
}

// Submit enqueues a request and blocks until it completes, is cancelled via
// ctx, or the queue is full (ErrQueueFull, never silently dropped per §5).
func (o *Orchestrator) Submit(ctx context.Context, req AskRequest) (AskResult, error) {
	if req.TraceID == "" {
		req.TraceID = "ask:" + uuid.NewString()
	}
	runID := uuid.NewString()

	run, cancel := models.NewAskRun(ctx, runID, req.TraceID)
	run.SessionID = req.SessionID
	run.Question = req.Question
	run.Mode = req.Mode
	run.MaxTokens = req.MaxTokens
	run.UseKnowledge = req.UseKnowledge
	run.SearchFallback = req.UseSearchFallback
	run.Debug = req.Debug

	job := &askJob{req: req, run: run, resultCh: make(chan jobOutcome, 1)}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		cancel()
		return AskResult{}, fmt.Errorf("orchestrator closed")
	}
	o.running[runID] = job
	o.mu.Unlock()

	select {
	case o.queue <- job:
	default:
		o.mu.Lock()
		delete(o.running, runID)
		o.mu.Unlock()
		cancel()
		return AskResult{}, ErrQueueFull
	}

	defer func() {
		o.mu.Lock()
		delete(o.running, runID)
		o.mu.Unlock()
	}()

	select {
	case outcome := <-job.resultCh:
		cancel()
		return outcome.result, outcome.err
	case <-ctx.Done():
		cancel()
		// The worker always delivers exactly one outcome, and executeAsk's
		// abort path (run.go abortedResult) already turns this into a
		// best-effort reply rather than an error — spec §4.4/§7:
		// "Cancellation is not an error." Surface that outcome as-is instead
		// of synthesizing a fresh ctx.Err().
		outcome := <-job.resultCh
		return outcome.result, outcome.err
	}
}

// Cancel flips the abort signal for an in-flight run as a user-initiated
// "stop". Cancelling a run that has already finished (or never existed) is
// a no-op, satisfying property 8.
func (o *Orchestrator) Cancel(runID string) {
	o.mu.Lock()
	job, ok := o.running[runID]
	o.mu.Unlock()
	if !ok {
		return
	}
	job.run.MarkUserStop()
}

// worker drains the queue one job at a time, the orchestrator's single
// point of serialized execution.
func (o *Orchestrator) worker() {
	for job := range o.queue {
		result, err := o.executeAsk(job.run, job.req)
		job.resultCh <- jobOutcome{result: result, err: err}
	}
}

// QueueLen reports the number of requests currently buffered ahead of the
// worker (spec §4.4 Queueing), for the /health endpoint's queue-depth stat.
func (o *Orchestrator) QueueLen() int {
	return len(o.queue)
}

// Close stops accepting new submissions and drains the queue's goroutine.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()
	close(o.queue)
}

func (o *Orchestrator) publish(run *models.AskRun, stage models.EventStage, tool, text string) {
	if o.deps.Bus == nil {
		return
	}
	o.deps.Bus.Publish(models.ToolLogEvent{
		SessionID: run.SessionID,
		TraceID:   run.TraceID,
		Tool:      tool,
		Stage:     stage,
		Text:      text,
		Ts:        time.Now(),
	})
}

func (o *Orchestrator) logger(run *models.AskRun) *slog.Logger {
	return slog.With("run_id", run.RunID, "trace_id", run.TraceID)
}
