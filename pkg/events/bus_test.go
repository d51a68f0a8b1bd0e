package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixask/helixaskd/pkg/models"
)

func TestBus_OrderingWithinSubscriber(t *testing.T) {
	bus := NewBus(16, 16)
	sub := bus.Subscribe(EventFilter{TraceID: "ask:42"}, 0)
	defer bus.Unsubscribe(sub)

	for i := 0; i < 5; i++ {
		bus.Publish(models.ToolLogEvent{TraceID: "ask:42", Tool: "t", Stage: models.StageChunk})
	}

	var lastSeq uint64
	for i := 0; i < 5; i++ {
		evt := <-sub.Events()
		assert.Greater(t, evt.Seq, lastSeq)
		lastSeq = evt.Seq
	}
}

func TestBus_BoundedRingBuffer(t *testing.T) {
	bus := NewBus(4, 16)
	for i := 0; i < 10; i++ {
		bus.Publish(models.ToolLogEvent{Tool: "t", Stage: models.StageChunk})
	}
	assert.LessOrEqual(t, bus.Size(), 4)
}

func TestBus_BoundedSubscriberOutbox(t *testing.T) {
	bus := NewBus(1024, 4)
	sub := bus.Subscribe(EventFilter{}, 0)
	defer bus.Unsubscribe(sub)

	for i := 0; i < 20; i++ {
		bus.Publish(models.ToolLogEvent{Tool: "t", Stage: models.StageChunk})
	}

	assert.LessOrEqual(t, len(sub.Events()), 4)
	assert.Greater(t, sub.Missed(), uint64(0))
}

func TestBus_SSEFanOutByTrace(t *testing.T) {
	bus := NewBus(64, 64)
	sub42a := bus.Subscribe(EventFilter{TraceID: "ask:42"}, 0)
	sub42b := bus.Subscribe(EventFilter{TraceID: "ask:42"}, 0)
	sub99 := bus.Subscribe(EventFilter{TraceID: "ask:99"}, 0)
	defer bus.Unsubscribe(sub42a)
	defer bus.Unsubscribe(sub42b)
	defer bus.Unsubscribe(sub99)

	for i := 0; i < 5; i++ {
		bus.Publish(models.ToolLogEvent{TraceID: "ask:42", Tool: "t", Stage: models.StageChunk})
	}

	require.Len(t, sub42a.Events(), 5)
	require.Len(t, sub42b.Events(), 5)
	require.Len(t, sub99.Events(), 0)
}

func TestBus_Since(t *testing.T) {
	bus := NewBus(64, 64)
	var last models.ToolLogEvent
	for i := 0; i < 5; i++ {
		last = bus.Publish(models.ToolLogEvent{TraceID: "ask:1", Tool: "t", Stage: models.StageChunk})
	}

	catchUp := bus.Since(last.Seq-2, EventFilter{TraceID: "ask:1"}, 10)
	require.Len(t, catchUp, 2)
	for _, evt := range catchUp {
		assert.Greater(t, evt.Seq, last.Seq-2)
	}
}

func TestBus_ReplayOnSubscribe(t *testing.T) {
	bus := NewBus(64, 64)
	for i := 0; i < 10; i++ {
		bus.Publish(models.ToolLogEvent{TraceID: "ask:1", Tool: "t", Stage: models.StageChunk})
	}

	sub := bus.Subscribe(EventFilter{TraceID: "ask:1"}, 3)
	defer bus.Unsubscribe(sub)
	require.Len(t, sub.Events(), 3)
}

func TestAllowMockStream(t *testing.T) {
	assert.True(t, AllowMockStream(true, false, "203.0.113.5:1234"))
	assert.True(t, AllowMockStream(false, true, "203.0.113.5:1234"))
	assert.True(t, AllowMockStream(false, false, "127.0.0.1:1234"))
	assert.False(t, AllowMockStream(false, false, "203.0.113.5:1234"))
}
