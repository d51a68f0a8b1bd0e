package config

// builtinConfig returns the built-in default configuration, merged under
// any helixask.yaml overlay and then overridden per-field by environment
// variables. Values mirror the ENUMERATED defaults in spec §6.
func builtinConfig() *Config {
	return &Config{
		RateLimit: RateLimitConfig{
			Enabled:        true,
			APIWindowMs:    60000,
			APIMax:         240,
			AskJobsMax:     1200,
			ConcurrencyMax: 4,
		},
		Ask: AskConfig{
			ContextTokens:    2048,
			OutputTokens:     0, // derived: min(2048, 0.5*ContextTokens)
			ContextFiles:     48,
			PatchFiles:       12,
			ContextChars:     2400,
			SearchFallback:   true,
			SearchQueryLimit: 10,
			QueueLimit:       12,
			Mode:             "grounded",
		},
		Events: EventsConfig{
			RingBufferSize:   4096,
			SubscriberOutbox: 256,
			AllowMockStream:  false,
			PingInterval:     15,
		},
		Features: FeatureGates{},
	}
}
