// Package asklocal implements orchestrator.Generator against the
// black-box language-model runtime named in spec §1 ("the language-model
// runtime itself... a black-box askLocal capability"). It is an external
// collaborator seam, not the model itself: a plain HTTP client streaming
// newline-delimited JSON chunks, grounded on the teacher's GRPCLLMClient
// (pkg/agent/llm_grpc.go) goroutine-backed channel shape but over HTTP
// instead of gRPC, since no proto service is in scope here.
package asklocal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/helixask/helixaskd/pkg/orchestrator"
)

// Client calls a local askLocal HTTP endpoint that streams one JSON object
// per line: {"type": "text"|"usage"|"error", "content", "promptTokens",
// "completionTokens", "message"}.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New constructs a Client for the given endpoint (e.g. "http://127.0.0.1:9400/generate").
func New(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

type wireChunk struct {
	Type             string `json:"type"`
	Content          string `json:"content,omitempty"`
	PromptTokens     int    `json:"promptTokens,omitempty"`
	CompletionTokens int    `json:"completionTokens,omitempty"`
	Message          string `json:"message,omitempty"`
}

type generateRequestBody struct {
	Prompt       string `json:"prompt"`
	PromptBudget int    `json:"promptBudget"`
	MaxTokens    int    `json:"maxTokens"`
}

// Generate streams one Ask's generation, spec §4.4/§6. The returned channel
// is closed when the stream completes; errors surface as ErrorChunk values
// rather than a non-nil return, matching the teacher's contract.
func (c *Client) Generate(ctx context.Context, in *orchestrator.GenerateInput) (<-chan orchestrator.Chunk, error) {
	payload, err := json.Marshal(generateRequestBody{
		Prompt:       in.Prompt,
		PromptBudget: in.PromptBudget,
		MaxTokens:    in.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("asklocal: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("asklocal: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asklocal: request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("asklocal: unexpected status %d", resp.StatusCode)
	}

	ch := make(chan orchestrator.Chunk, 32)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var wc wireChunk
			if err := json.Unmarshal(line, &wc); err != nil {
				send(ctx, ch, &orchestrator.ErrorChunk{Message: err.Error()})
				return
			}
			if chunk := toChunk(wc); chunk != nil {
				if !send(ctx, ch, chunk) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			send(ctx, ch, &orchestrator.ErrorChunk{Message: err.Error()})
		}
	}()

	return ch, nil
}

func toChunk(wc wireChunk) orchestrator.Chunk {
	switch wc.Type {
	case "text":
		return &orchestrator.TextChunk{Content: wc.Content}
	case "usage":
		return &orchestrator.UsageChunk{PromptTokens: wc.PromptTokens, CompletionTokens: wc.CompletionTokens}
	case "error":
		return &orchestrator.ErrorChunk{Message: wc.Message}
	default:
		return nil
	}
}

func send(ctx context.Context, ch chan<- orchestrator.Chunk, chunk orchestrator.Chunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
