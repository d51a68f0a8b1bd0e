package events

import "github.com/helixask/helixaskd/pkg/models"

// EventFilter selects which published events a subscriber is interested in.
// A zero-value field means "match any" for that dimension.
type EventFilter struct {
	SessionID string
	TraceID   string
}

// Matches reports whether evt satisfies the filter.
func (f EventFilter) Matches(evt models.ToolLogEvent) bool {
	if f.SessionID != "" && evt.SessionID != f.SessionID {
		return false
	}
	if f.TraceID != "" && evt.TraceID != f.TraceID {
		return false
	}
	return true
}

// SubscriptionState is the subscriber-visible lifecycle state, per spec
// §4.2's "active → draining → closed" state machine.
type SubscriptionState string

const (
	StateActive   SubscriptionState = "active"
	StateDraining SubscriptionState = "draining"
	StateClosed   SubscriptionState = "closed"
)
