package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_BuiltinDefaultsWithNoOverlay(t *testing.T) {
	ctx := context.Background()
	configDir := t.TempDir()

	cfg, err := Initialize(ctx, configDir)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 240, cfg.RateLimit.APIMax)
	assert.Equal(t, "grounded", cfg.Ask.Mode)
	assert.Equal(t, 4096, cfg.Events.RingBufferSize)
	// OutputTokens is derived when left at zero: min(2048, 0.5*ContextTokens).
	assert.Equal(t, 1024, cfg.Ask.OutputTokens)
}

func TestInitialize_YAMLOverlayMergesOverDefaults(t *testing.T) {
	configDir := t.TempDir()
	overlay := "rate_limit:\n  api_max: 10\nask:\n  mode: execute\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "helixask.yaml"), []byte(overlay), 0o644))

	cfg, err := Initialize(context.Background(), configDir)

	require.NoError(t, err)
	assert.Equal(t, 10, cfg.RateLimit.APIMax)
	assert.Equal(t, "execute", cfg.Ask.Mode)
	// Fields the overlay didn't touch keep their built-in defaults.
	assert.Equal(t, 60000, cfg.RateLimit.APIWindowMs)
}

func TestInitialize_YAMLOverlayExpandsEnvReferences(t *testing.T) {
	configDir := t.TempDir()
	overlay := "ask:\n  mode: ${HELIXASK_TEST_MODE}\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "helixask.yaml"), []byte(overlay), 0o644))
	t.Setenv("HELIXASK_TEST_MODE", "execute")

	cfg, err := Initialize(context.Background(), configDir)

	require.NoError(t, err)
	assert.Equal(t, "execute", cfg.Ask.Mode)
}

func TestInitialize_EnvOverrideWinsOverYAMLOverlay(t *testing.T) {
	configDir := t.TempDir()
	overlay := "rate_limit:\n  api_max: 10\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "helixask.yaml"), []byte(overlay), 0o644))
	t.Setenv("RATE_LIMIT_API_MAX", "500")

	cfg, err := Initialize(context.Background(), configDir)

	require.NoError(t, err)
	assert.Equal(t, 500, cfg.RateLimit.APIMax)
}

func TestInitialize_InvalidYAMLFails(t *testing.T) {
	configDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "helixask.yaml"), []byte("rate_limit: [not a map"), 0o644))

	_, err := Initialize(context.Background(), configDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestInitialize_AbsentOverlayIsNotAnError(t *testing.T) {
	cfg, err := Initialize(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))

	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestInitialize_InvalidMergedConfigFails(t *testing.T) {
	configDir := t.TempDir()
	overlay := "ask:\n  mode: not-a-real-mode\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "helixask.yaml"), []byte(overlay), 0o644))

	_, err := Initialize(context.Background(), configDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
