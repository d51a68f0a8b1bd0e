package config

import (
	"errors"
	"fmt"
)

// Validator accumulates field-level validation errors across the merged
// configuration and reports them jointly, matching the teacher's hand-rolled
// fail-fast-per-field, fail-joined-overall Validator (no
// go-playground/validator — the teacher doesn't import it directly either).
type Validator struct {
	cfg  *Config
	errs []error
}

// NewValidator creates a Validator bound to cfg.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll runs every field validation and returns a single joined error,
// or nil if the configuration is valid.
func (v *Validator) ValidateAll() error {
	v.validateRateLimit()
	v.validateAsk()
	v.validateEvents()

	if len(v.errs) > 0 {
		return errors.Join(v.errs...)
	}
	return nil
}

func (v *Validator) fail(field, msg string) {
	v.errs = append(v.errs, fmt.Errorf("%s: %s", field, msg))
}

func (v *Validator) validateRateLimit() {
	rl := &v.cfg.RateLimit

	if rl.APIWindowMs < 0 {
		v.fail("rate_limit.api_window_ms", "must be non-negative")
	}
	// Edge case from spec §4.1: windowMs < 1000 is clamped up to 1000, not
	// rejected — clamp here so downstream code can assume the invariant.
	if rl.APIWindowMs > 0 && rl.APIWindowMs < 1000 {
		rl.APIWindowMs = 1000
	}
	if rl.APIMax < 0 {
		v.fail("rate_limit.api_max", "must be non-negative")
	}
	if rl.AskJobsMax < 0 {
		v.fail("rate_limit.ask_jobs_max", "must be non-negative")
	}
	if rl.ConcurrencyMax < 0 {
		v.fail("rate_limit.concurrency_max", "must be non-negative")
	}
}

func (v *Validator) validateAsk() {
	a := &v.cfg.Ask

	if a.ContextTokens <= 0 {
		v.fail("ask.context_tokens", "must be positive")
	}
	if a.OutputTokens < 0 {
		v.fail("ask.output_tokens", "must be non-negative")
	}

	// Clamp per spec §4.3 ENUMERATED bounds.
	a.ContextFiles = clampInt(a.ContextFiles, 2, 48)
	a.PatchFiles = clampInt(a.PatchFiles, 2, 24)
	a.ContextChars = clampInt(a.ContextChars, 120, 2400)

	if a.SearchQueryLimit <= 0 {
		v.fail("ask.search_query_limit", "must be positive")
	}
	if a.QueueLimit <= 0 {
		v.fail("ask.queue_limit", "must be positive")
	}
	switch a.Mode {
	case "grounded", "execute":
	default:
		v.fail("ask.mode", "must be one of: grounded, execute")
	}
}

func (v *Validator) validateEvents() {
	e := &v.cfg.Events

	if e.RingBufferSize <= 0 {
		v.fail("events.ring_buffer_size", "must be positive")
	}
	if e.SubscriberOutbox <= 0 {
		v.fail("events.subscriber_outbox", "must be positive")
	}
	if e.PingInterval <= 0 {
		v.fail("events.ping_interval_seconds", "must be positive")
	}
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
