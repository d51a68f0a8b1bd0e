// Package ratelimit implements C1: a per-key sliding-window request limiter
// and a per-route concurrency guard, each run as a single-owner actor
// goroutine with a request/reply inbox — per §9's "Global mutable state...
// Encapsulate each in a single-owner component" and grounded on the
// teacher's securityHeaders middleware shape (pkg/api/middleware.go).
package ratelimit

import (
	"log/slog"
	"time"
)

// minWindow is the clamp floor from spec §4.1: "windowMs < 1000 is clamped
// up to 1000".
const minWindow = 1000 * time.Millisecond

// Decision is the sliding-window limiter's verdict for one request.
type Decision struct {
	Allowed      bool
	Limit        int
	Remaining    int
	ResetAt      time.Time
	RetryAfterMs int64
}

type keyState struct {
	count   int
	resetAt time.Time
}

type checkRequest struct {
	key   string
	reply chan Decision
}

type sweepRequest struct{ now time.Time }

// Limiter is a sliding-window rate limiter keyed by an arbitrary string
// (typically the first forwarded-for address or the peer address). max ==
// 0 disables the limiter (every request is allowed). All mutable state —
// the per-key counters — is owned exclusively by one goroutine; callers
// communicate over channels, never touching the map directly.
type Limiter struct {
	windowMs time.Duration
	max      int

	inbox     chan checkRequest
	sweepCh   chan sweepRequest
	closeCh   chan struct{}
	closeOnce func()
}

// NewLimiter creates and starts a Limiter actor. windowMs below 1000ms is
// clamped up per spec's edge case.
func NewLimiter(windowMs time.Duration, max int) *Limiter {
	if windowMs < minWindow {
		windowMs = minWindow
	}
	l := &Limiter{
		windowMs: windowMs,
		max:      max,
		inbox:    make(chan checkRequest),
		sweepCh:  make(chan sweepRequest),
		closeCh:  make(chan struct{}),
	}
	go l.run()
	return l
}

// Check records one request for key and returns the sliding-window
// decision. Never blocks indefinitely: the actor loop always answers.
func (l *Limiter) Check(key string) Decision {
	if l.max == 0 {
		return Decision{Allowed: true, Limit: 0, Remaining: 0, ResetAt: time.Now()}
	}
	reply := make(chan Decision, 1)
	l.inbox <- checkRequest{key: key, reply: reply}
	return <-reply
}

// Close stops the actor goroutine. Safe to call once.
func (l *Limiter) Close() {
	select {
	case <-l.closeCh:
	default:
		close(l.closeCh)
	}
}

func (l *Limiter) run() {
	keys := make(map[string]*keyState)

	// The sweep ticker is armed only while at least one key is live, per
	// spec's "Sweep MUST be re-armed only while at least one key is live, to
	// avoid idle timers" edge case. We simulate that with a self-resetting
	// timer instead of a ticker so it can be stopped and left stopped.
	var sweepTimer *time.Timer
	var sweepC <-chan time.Time

	armSweep := func() {
		if sweepTimer == nil {
			sweepTimer = time.NewTimer(l.windowMs)
			sweepC = sweepTimer.C
		}
	}
	disarmSweep := func() {
		if sweepTimer != nil {
			sweepTimer.Stop()
			sweepTimer = nil
			sweepC = nil
		}
	}

	for {
		select {
		case <-l.closeCh:
			disarmSweep()
			return

		case req := <-l.inbox:
			now := time.Now()
			st, ok := keys[req.key]
			if !ok || now.After(st.resetAt) {
				st = &keyState{count: 0, resetAt: now.Add(l.windowMs)}
				keys[req.key] = st
			}
			st.count++

			remaining := l.max - st.count
			decision := Decision{
				Limit:   l.max,
				ResetAt: st.resetAt,
			}
			if st.count <= l.max {
				decision.Allowed = true
				decision.Remaining = remaining
			} else {
				decision.Allowed = false
				decision.Remaining = 0
				remainingWindow := st.resetAt.Sub(now)
				if remainingWindow < 0 {
					remainingWindow = 0
				}
				decision.RetryAfterMs = remainingWindow.Milliseconds()
			}
			req.reply <- decision

			if len(keys) > 0 {
				armSweep()
			}

		case <-sweepC:
			now := time.Now()
			for k, st := range keys {
				if now.After(st.resetAt) {
					delete(keys, k)
				}
			}
			sweepTimer = nil
			sweepC = nil
			if len(keys) > 0 {
				armSweep()
			}
		}
	}
}

// LogDegradeOpen logs an internal limiter error and signals the caller to
// let the request through — spec §4.1's "never throw; any internal error
// degrades open".
func LogDegradeOpen(where string, err error) {
	slog.Error("ratelimit: internal error, degrading open", "where", where, "error", err)
}
