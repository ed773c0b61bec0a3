package config

import (
	"testing"
	"time"

	"centerout/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "FEED_URL", "TARGET_URL", "EXPORT_DIR", "LEDGER_DSN", "TARGET_TIMEOUT"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "./data", cfg.Paths.ExportDir)
	assert.Equal(t, 2*time.Second, cfg.Targets.Timeout)
	assert.Empty(t, cfg.Feed.URL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("FEED_URL", "ws://localhost:6789/xy")
	t.Setenv("TARGET_TIMEOUT", "1s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "ws://localhost:6789/xy", cfg.Feed.URL)
	assert.Equal(t, time.Second, cfg.Targets.Timeout)
}

func TestLoad_BadPort(t *testing.T) {
	t.Setenv("PORT", "http")
	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
