package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixask/helixaskd/pkg/config"
	"github.com/helixask/helixaskd/pkg/events"
	"github.com/helixask/helixaskd/pkg/models"
)

// overflowThenSucceedGenerator fails its first call with a context-overflow
// style error, then succeeds, reproducing spec scenario S3.
type overflowThenSucceedGenerator struct {
	calls atomic.Int32
}

func (g *overflowThenSucceedGenerator) Generate(ctx context.Context, in *GenerateInput) (<-chan Chunk, error) {
	ch := make(chan Chunk, 2)
	if g.calls.Add(1) == 1 {
		ch <- &ErrorChunk{Message: "context length exceeded"}
		close(ch)
		return ch, nil
	}
	ch <- &TextChunk{Content: "the answer"}
	close(ch)
	return ch, nil
}

func testAskConfig() config.AskConfig {
	return config.AskConfig{
		ContextTokens: 2048,
		ContextFiles:  48,
		PatchFiles:    12,
		ContextChars:  2400,
		QueueLimit:    4,
	}
}

func TestOrchestrator_S3_ContextOverflowRetry(t *testing.T) {
	gen := &overflowThenSucceedGenerator{}
	o := New(Deps{Bus: events.NewBus(64, 16), Generator: gen}, testAskConfig())
	defer o.Close()

	result, err := o.Submit(context.Background(), AskRequest{
		Question: "how does the repo solve this problem",
		Mode:     models.ModeGrounded,
		Debug:    true,
	})

	require.NoError(t, err)
	assert.Equal(t, "the answer", result.ReplyText)
	require.NotNil(t, result.Debug)
	assert.Equal(t, true, result.Debug["overflow_retry_applied"])
	assert.Equal(t, int32(2), gen.calls.Load())
}

// blockingGenerator blocks until its context is cancelled, letting tests
// exercise cancellation mid-flight.
type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, in *GenerateInput) (<-chan Chunk, error) {
	ch := make(chan Chunk)
	go func() {
		defer close(ch)
		ch <- &TextChunk{Content: "partial "}
		<-ctx.Done()
	}()
	return ch, nil
}

func TestOrchestrator_CancellationIsIdempotent(t *testing.T) {
	o := New(Deps{Bus: events.NewBus(64, 16), Generator: blockingGenerator{}}, testAskConfig())
	defer o.Close()

	// Cancelling an unknown run is a no-op.
	o.Cancel("does-not-exist")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	// Cancellation is not an error (spec §4.4/§7): the captured partial
	// streamed text comes back as a streamed-fallback reply, not a ctx.Err().
	result, err := o.Submit(ctx, AskRequest{Question: "how does this work", Mode: models.ModeGrounded})
	require.NoError(t, err)
	assert.Equal(t, "partial ", result.ReplyText)
	assert.True(t, result.StreamedFallback)

	// Cancelling again, after completion, must still be a no-op.
	assert.NotPanics(t, func() { o.Cancel("does-not-exist") })
}
