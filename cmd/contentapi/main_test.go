package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Commands(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "pull")

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "config.yaml", flag.DefValue)
}

func TestPullCmd_RequiresFeedURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: error\n"), 0o600))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"pull", "--config", path})

	err := root.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed.url")
}

func TestServeCmd_MissingConfig(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"serve", "--config", filepath.Join(t.TempDir(), "missing.yaml")})

	err := root.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestSetupLogger(t *testing.T) {
	ctx := context.Background()

	assert.True(t, setupLogger("debug").Enabled(ctx, slog.LevelDebug))
	assert.False(t, setupLogger("info").Enabled(ctx, slog.LevelDebug))
	assert.False(t, setupLogger("warn").Enabled(ctx, slog.LevelInfo))
	assert.True(t, setupLogger("error").Enabled(ctx, slog.LevelError))
	assert.False(t, setupLogger("").Enabled(ctx, slog.LevelDebug))
}
