package orchestrator

import "context"

// Generator is the black-box language-model capability the orchestrator
// drives. The runtime behind it is explicitly out of scope; this interface
// is the only contract the orchestrator depends on.
type Generator interface {
	// Generate starts a generation call and returns a channel of chunks.
	// The channel is closed when the stream ends; a failure is delivered as
	// an *ErrorChunk rather than a non-nil error return, except for setup
	// failures that never produce a stream at all.
	Generate(ctx context.Context, input *GenerateInput) (<-chan Chunk, error)
}

// GenerateInput carries the assembled prompt and budget into a Generate call.
type GenerateInput struct {
	Prompt       string
	PromptBudget int
	MaxTokens    int
}

// ChunkType identifies the kind of streaming chunk: text, usage, or error.
// There are no thinking or tool-call chunk kinds.
type ChunkType string

const (
	ChunkTypeText  ChunkType = "text"
	ChunkTypeUsage ChunkType = "usage"
	ChunkTypeError ChunkType = "error"
)

// Chunk is the sum type for one unit of a generation stream.
type Chunk interface {
	chunkType() ChunkType
}

// TextChunk carries a fragment of generated text.
type TextChunk struct{ Content string }

// UsageChunk reports token consumption once generation completes.
type UsageChunk struct{ PromptTokens, CompletionTokens int }

// ErrorChunk signals a generation failure. Message is matched against
// `context|token|exceed` by the orchestrator to decide whether to apply the
// context-overflow retry policy (spec §4.4 step 7).
type ErrorChunk struct {
	Message string
}

func (c *TextChunk) chunkType() ChunkType  { return ChunkTypeText }
func (c *UsageChunk) chunkType() ChunkType { return ChunkTypeUsage }
func (c *ErrorChunk) chunkType() ChunkType { return ChunkTypeError }
