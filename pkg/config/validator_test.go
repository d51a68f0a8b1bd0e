package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAll(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "builtin defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "negative rate limit window is invalid",
			mutate:  func(c *Config) { c.RateLimit.APIWindowMs = -1 },
			wantErr: true,
			errMsg:  "rate_limit.api_window_ms",
		},
		{
			name:    "negative api max is invalid",
			mutate:  func(c *Config) { c.RateLimit.APIMax = -5 },
			wantErr: true,
			errMsg:  "rate_limit.api_max",
		},
		{
			name:    "zero context tokens is invalid",
			mutate:  func(c *Config) { c.Ask.ContextTokens = 0 },
			wantErr: true,
			errMsg:  "ask.context_tokens",
		},
		{
			name:    "unknown ask mode is invalid",
			mutate:  func(c *Config) { c.Ask.Mode = "nonsense" },
			wantErr: true,
			errMsg:  "ask.mode",
		},
		{
			name:    "zero ring buffer size is invalid",
			mutate:  func(c *Config) { c.Events.RingBufferSize = 0 },
			wantErr: true,
			errMsg:  "events.ring_buffer_size",
		},
		{
			name:    "zero subscriber outbox is invalid",
			mutate:  func(c *Config) { c.Events.SubscriberOutbox = 0 },
			wantErr: true,
			errMsg:  "events.subscriber_outbox",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := builtinConfig()
			tt.mutate(cfg)

			err := NewValidator(cfg).ValidateAll()

			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAsk_ClampsOutOfRangeBudgets(t *testing.T) {
	cfg := builtinConfig()
	cfg.Ask.ContextFiles = 1000
	cfg.Ask.PatchFiles = 0
	cfg.Ask.ContextChars = 10

	err := NewValidator(cfg).ValidateAll()

	assert.NoError(t, err)
	assert.Equal(t, 48, cfg.Ask.ContextFiles)
	assert.Equal(t, 2, cfg.Ask.PatchFiles)
	assert.Equal(t, 120, cfg.Ask.ContextChars)
}

func TestValidateRateLimit_ClampsSubSecondWindow(t *testing.T) {
	cfg := builtinConfig()
	cfg.RateLimit.APIWindowMs = 10

	err := NewValidator(cfg).ValidateAll()

	assert.NoError(t, err)
	assert.Equal(t, 1000, cfg.RateLimit.APIWindowMs)
}
