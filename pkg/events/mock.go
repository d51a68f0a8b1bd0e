package events

import (
	"context"
	"fmt"
	"time"

	"github.com/helixask/helixaskd/pkg/models"
)

// MockEventSource publishes synthesized tool-log frames onto the bus at a
// configurable rate, useful for exercising SSE consumers in tests without a
// real tool invocation in flight. Whether mock streaming is allowed is
// decided by AllowMockStream.
type MockEventSource struct {
	bus       *Bus
	sessionID string
	traceID   string
	rate      time.Duration
}

// NewMockEventSource creates a mock source bound to a (sessionID, traceID)
// pair, publishing one synthesized event every rate.
func NewMockEventSource(bus *Bus, sessionID, traceID string, rate time.Duration) *MockEventSource {
	if rate <= 0 {
		rate = 500 * time.Millisecond
	}
	return &MockEventSource{bus: bus, sessionID: sessionID, traceID: traceID, rate: rate}
}

// Run publishes synthesized events until ctx is done.
func (m *MockEventSource) Run(ctx context.Context) {
	ticker := time.NewTicker(m.rate)
	defer ticker.Stop()

	n := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n++
			m.bus.Publish(models.ToolLogEvent{
				SessionID: m.sessionID,
				TraceID:   m.traceID,
				Tool:      "helixask.mock",
				Stage:     models.StageChunk,
				Text:      fmt.Sprintf("mock frame %d", n),
			})
		}
	}
}
