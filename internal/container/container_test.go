package container

import (
	"context"
	"testing"
	"time"

	"centerout/internal/config"
	"centerout/internal/params"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", ShutdownTimeout: time.Second},
		Feed:   config.FeedConfig{ReconnectDelay: 10 * time.Millisecond},
		Paths:  config.PathConfig{ExportDir: t.TempDir()},
		Ledger: config.LedgerConfig{DSN: "file:" + t.Name() + "?mode=memory&cache=shared"},
	}
}

func TestContainer_Wiring(t *testing.T) {
	cfg := testConfig(t)
	cfg.Feed.URL = "ws://127.0.0.1:1/feed"
	cfg.Targets.URL = "http://127.0.0.1:1/"

	c, err := New(cfg, params.Default())
	require.NoError(t, err)
	db, err := c.OpenLedger(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.InitWithDatabase(db))

	assert.NotNil(t, c.Task)
	assert.NotNil(t, c.API)
	assert.NotNil(t, c.Advancer)
	assert.Len(t, c.Sources, 2)

	// the target controller is unreachable: the session falls back to target 0
	_, err = c.Task.StartSession(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Shutdown(context.Background()))
	assert.False(t, c.Task.Status().Session.Running)
}

func TestContainer_Minimal(t *testing.T) {
	c, err := New(testConfig(t), params.Default())
	require.NoError(t, err)
	db, err := c.OpenLedger(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.InitWithDatabase(db))
	defer c.Shutdown(context.Background())

	assert.Nil(t, c.Advancer)
	assert.Empty(t, c.Sources)
}

func TestContainer_Validation(t *testing.T) {
	_, err := New(nil, params.Default())
	assert.Error(t, err)

	p := params.Default()
	p.Filter.Alpha = 1.5
	_, err = New(testConfig(t), p)
	assert.Error(t, err)

	c, err := New(testConfig(t), params.Default())
	require.NoError(t, err)
	assert.Error(t, c.InitWithDatabase(nil))
}

func TestWSURL(t *testing.T) {
	assert.Equal(t, "ws://host:8090", wsURL("http://host:8090/"))
	assert.Equal(t, "wss://host", wsURL("https://host"))
	assert.Equal(t, "ws://already", wsURL("ws://already"))
}
