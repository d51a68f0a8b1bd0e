// Package events implements the tool-log event bus: an ordered,
// ring-buffered, session/trace-indexed pub/sub with SSE fan-out and
// per-subscriber back-pressure, grounded on the teacher's
// pkg/events/manager.go ConnectionManager (snapshot-then-release-lock
// pattern) generalized from WebSocket broadcast to SSE delivery.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/helixask/helixaskd/pkg/models"
)

// DefaultRingBufferSize is N_buf from spec §4.2.
const DefaultRingBufferSize = 4096

// DefaultOutboxSize is the default per-subscriber bounded outbox size.
const DefaultOutboxSize = 256

// Bus is a process-wide ordered event stream with indexed filters and
// bounded memory. The ring buffer and subscriber table are guarded by a
// single sync.RWMutex, matching ConnectionManager's locking shape: writers
// snapshot under the lock and release it before doing any (potentially
// slow) delivery work.
type Bus struct {
	mu       sync.RWMutex
	buf      []models.ToolLogEvent
	capacity int
	counter  uint64

	subs map[string]*Subscription

	outboxSize int

	// publishMu serializes the whole of Publish — seq assignment through
	// subscriber delivery — so two concurrent publishers can never deliver
	// to a shared subscriber out of seq order (spec §4.2: "within a single
	// subscriber, events are delivered in strictly increasing seq").
	publishMu sync.Mutex
}

// NewBus creates a Bus with the given ring-buffer and outbox capacities.
// Non-positive values fall back to the package defaults.
func NewBus(ringBufferSize, outboxSize int) *Bus {
	if ringBufferSize <= 0 {
		ringBufferSize = DefaultRingBufferSize
	}
	if outboxSize <= 0 {
		outboxSize = DefaultOutboxSize
	}
	return &Bus{
		buf:        make([]models.ToolLogEvent, 0, ringBufferSize),
		capacity:   ringBufferSize,
		subs:       make(map[string]*Subscription),
		outboxSize: outboxSize,
	}
}

// Publish assigns a monotonic seq (and a timestamp, if absent), appends the
// event to the ring buffer (evicting the oldest entry on overflow without
// ever reordering seq), and fans it out to every subscriber whose filter
// matches. Publish never blocks on a slow subscriber — per-subscriber
// delivery is always a non-blocking enqueue.
func (b *Bus) Publish(evt models.ToolLogEvent) models.ToolLogEvent {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	b.mu.Lock()
	b.counter++
	evt.Seq = b.counter
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Ts.IsZero() {
		evt.Ts = time.Now()
	}

	if len(b.buf) >= b.capacity {
		// Evict oldest. Seq values already assigned are never touched, so
		// eviction cannot reorder seq.
		copy(b.buf, b.buf[1:])
		b.buf[len(b.buf)-1] = evt
	} else {
		b.buf = append(b.buf, evt)
	}

	// Snapshot matching subscribers under the lock, deliver after release —
	// the ConnectionManager.Broadcast pattern.
	matching := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.filter.Matches(evt) {
			matching = append(matching, s)
		}
	}
	b.mu.Unlock()

	for _, s := range matching {
		s.enqueue(evt)
	}
	return evt
}

// Subscribe registers a new subscription, replays up to limit matching
// events from the ring buffer in seq order, then returns a Subscription
// that will keep receiving new matching events on its Events() channel
// until Unsubscribe is called. limit <= 0 means "no replay".
func (b *Bus) Subscribe(filter EventFilter, limit int) *Subscription {
	sub := &Subscription{
		id:     uuid.NewString(),
		filter: filter,
		outbox: make(chan models.ToolLogEvent, b.outboxSize),
	}
	sub.state.Store(string(StateActive))

	b.mu.Lock()
	var replay []models.ToolLogEvent
	if limit > 0 {
		replay = make([]models.ToolLogEvent, 0, limit)
		for _, evt := range b.buf {
			if filter.Matches(evt) {
				replay = append(replay, evt)
			}
		}
		if len(replay) > limit {
			replay = replay[len(replay)-limit:]
		}
	}
	b.subs[sub.id] = sub
	b.mu.Unlock()

	for _, evt := range replay {
		sub.enqueue(evt)
	}

	return sub
}

// Unsubscribe removes a subscription from the bus and marks it closed.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub.id)
	b.mu.Unlock()
	sub.close()
}

// Since returns up to max matching events published strictly after seq,
// in seq order — used for catch-up after a disconnect.
func (b *Bus) Since(seq uint64, filter EventFilter, max int) []models.ToolLogEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.ToolLogEvent, 0, max)
	for _, evt := range b.buf {
		if evt.Seq <= seq {
			continue
		}
		if !filter.Matches(evt) {
			continue
		}
		out = append(out, evt)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

// Size returns the current ring-buffer occupancy.
func (b *Bus) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.buf)
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Subscription is one subscriber's bounded delivery channel plus a
// missed-events counter, exposed so callers can surface back-pressure.
// Subscriptions are owned exclusively by the goroutine reading Events().
type Subscription struct {
	id     string
	filter EventFilter
	outbox chan models.ToolLogEvent
	missed uint64
	state  atomic.Value // SubscriptionState, stored as string
}

// Events returns the channel new (and replayed) matching events are
// delivered on.
func (s *Subscription) Events() <-chan models.ToolLogEvent { return s.outbox }

// Missed returns the count of events dropped for this subscriber because
// its outbox was full.
func (s *Subscription) Missed() uint64 { return atomic.LoadUint64(&s.missed) }

// State returns the subscription's current lifecycle state.
func (s *Subscription) State() SubscriptionState {
	v, _ := s.state.Load().(string)
	return SubscriptionState(v)
}

// Drain marks the subscription draining: the client's transport has ended
// but buffered events may still be flushed opportunistically by the caller
// before it transitions to closed via close().
func (s *Subscription) Drain() { s.state.Store(string(StateDraining)) }

func (s *Subscription) close() {
	s.state.Store(string(StateClosed))
}

// enqueue delivers evt without blocking. If the outbox is full, the oldest
// pending event is dropped and Missed is incremented — the bus itself
// never blocks a publisher on a slow subscriber.
func (s *Subscription) enqueue(evt models.ToolLogEvent) {
	select {
	case s.outbox <- evt:
		return
	default:
	}

	select {
	case <-s.outbox:
		atomic.AddUint64(&s.missed, 1)
	default:
	}

	select {
	case s.outbox <- evt:
	default:
		atomic.AddUint64(&s.missed, 1)
	}
}
