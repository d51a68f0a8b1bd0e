package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// sseHeaders sets the framing headers from spec §6: content type, no
// buffering/caching, and a hint to disable proxy buffering.
func sseHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// ServeSSE attaches a subscription to an HTTP response stream. It writes
// sseHeaders, replays/streams matching events as `data: <json>\n\n` frames,
// and sends `: ping\n\n` comments every pingInterval. It returns when ctx is
// done or the underlying ResponseWriter stops flushing (client disconnect).
//
// This is the generic bridge named in spec §4.2 — framework-agnostic aside
// from the standard http.ResponseWriter/http.Flusher contract that Echo's
// response writer (like most Go HTTP frameworks') satisfies directly.
func ServeSSE(ctx context.Context, w http.ResponseWriter, bus *Bus, filter EventFilter, limit int, pingInterval time.Duration) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("events: response writer does not support flushing")
	}

	sseHeaders(w.Header())
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := bus.Subscribe(filter, limit)
	defer bus.Unsubscribe(sub)

	if pingInterval <= 0 {
		pingInterval = 15 * time.Second
	}
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sub.Drain()
			drainOutbox(w, flusher, sub)
			return nil

		case evt, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := writeFrame(w, evt); err != nil {
				return err
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return err
			}
			flusher.Flush()
		}
	}
}

// drainOutbox opportunistically flushes any buffered events once a client
// disconnect has been observed, per the draining→closed transition in
// spec §4.2, then gives up — the caller closes the subscription right
// after this returns.
func drainOutbox(w http.ResponseWriter, flusher http.Flusher, sub *Subscription) {
	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			if writeFrame(w, evt) != nil {
				return
			}
			flusher.Flush()
		default:
			return
		}
	}
}

func writeFrame(w http.ResponseWriter, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("events: failed to marshal SSE frame", "error", err)
		return nil
	}
	var b strings.Builder
	b.WriteString("data: ")
	b.Write(data)
	b.WriteString("\n\n")
	_, err = w.Write([]byte(b.String()))
	return err
}

// AllowMockStream implements the mock-SSE policy gate from spec §4.2:
// enabled in development mode, OR via the explicit environment toggle, OR
// for a loopback client — never unconditionally in production.
func AllowMockStream(devMode, envToggle bool, remoteAddr string) bool {
	if devMode || envToggle {
		return true
	}
	return isLoopback(remoteAddr)
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
