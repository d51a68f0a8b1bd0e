// Package config loads and validates HelixAsk's runtime configuration: a
// built-in default layered with an optional helixask.yaml overlay and then
// with individual environment-variable overrides, exactly the three-tier
// shape the teacher applies to tarsy.yaml.
package config

import (
	"context"
	"fmt"
	"log/slog"
)

// RateLimitConfig configures C1 (pkg/ratelimit).
type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled"`
	APIWindowMs    int  `yaml:"api_window_ms"`
	APIMax         int  `yaml:"api_max"`
	AskJobsMax     int  `yaml:"ask_jobs_max"`
	ConcurrencyMax int  `yaml:"concurrency_max"`
}

// AskConfig configures C3/C4 token budgets and queueing.
type AskConfig struct {
	ContextTokens    int    `yaml:"context_tokens"`
	OutputTokens     int    `yaml:"output_tokens"` // 0 = derive as min(2048, 0.5*ContextTokens)
	ContextFiles     int    `yaml:"context_files"`
	PatchFiles       int    `yaml:"patch_files"`
	ContextChars     int    `yaml:"context_chars"`
	SearchFallback   bool   `yaml:"search_fallback"`
	SearchQueryLimit int    `yaml:"search_query_limit"`
	QueueLimit       int    `yaml:"queue_limit"`
	Mode             string `yaml:"mode"` // "grounded" | "execute"
}

// EventsConfig configures C2 (pkg/events).
type EventsConfig struct {
	RingBufferSize   int  `yaml:"ring_buffer_size"`
	SubscriberOutbox int  `yaml:"subscriber_outbox"`
	AllowMockStream  bool `yaml:"allow_mock_stream"`
	PingInterval     int  `yaml:"ping_interval_seconds"`
}

// FeatureGates mirrors the ENABLE_* environment toggles from spec §6.
type FeatureGates struct {
	TraceAPI bool `yaml:"enable_trace_api"`
	AGIAuth  bool `yaml:"enable_agi_auth"`
	Essence  bool `yaml:"enable_essence"`
	AGI      bool `yaml:"enable_agi"`
}

// HelixAskYAMLConfig is the shape of an optional helixask.yaml overlay file.
type HelixAskYAMLConfig struct {
	RateLimit *RateLimitConfig `yaml:"rate_limit"`
	Ask       *AskConfig       `yaml:"ask"`
	Events    *EventsConfig    `yaml:"events"`
	Features  *FeatureGates    `yaml:"features"`
}

// Config is the fully resolved, validated, ready-to-use configuration.
type Config struct {
	configDir string

	RateLimit RateLimitConfig
	Ask       AskConfig
	Events    EventsConfig
	Features  FeatureGates
}

// Stats summarizes the loaded configuration for the health endpoint.
type Stats struct {
	RateLimitEnabled bool
	AskMode          string
	RingBufferSize   int
}

// Stats returns a snapshot of notable configuration values.
func (c *Config) Stats() Stats {
	return Stats{
		RateLimitEnabled: c.RateLimit.Enabled,
		AskMode:          c.Ask.Mode,
		RingBufferSize:   c.Events.RingBufferSize,
	}
}

// Initialize loads, merges, validates, and returns ready-to-use
// configuration. This is the primary entry point for configuration
// loading, mirroring the teacher's config.Initialize(ctx, configDir).
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized successfully",
		"rate_limit_enabled", cfg.RateLimit.Enabled,
		"ask_mode", cfg.Ask.Mode,
		"ring_buffer_size", cfg.Events.RingBufferSize)

	return cfg, nil
}

func validate(cfg *Config) error {
	return NewValidator(cfg).ValidateAll()
}
