package logging_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/cadence/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLogs_FanOut(t *testing.T) {
	var app bytes.Buffer
	appLogger := slog.New(slog.NewTextHandler(&app, nil))

	logs, err := logging.NewRunLogs(t.TempDir(), appLogger, slog.LevelInfo)
	require.NoError(t, err)

	logs.State.Info("task_enter", "task", 1)
	logs.Input.Info("command", "source", "TCP", "command", "alpha")
	logs.Config.Warn("setting missing", "error", "boom")
	require.NoError(t, logs.Close())

	state, err := os.ReadFile(filepath.Join(logs.Dir, "state.log"))
	require.NoError(t, err)
	assert.Contains(t, string(state), "task_enter")
	assert.Contains(t, string(state), "stream=state")
	assert.NotContains(t, string(state), "alpha")

	input, err := os.ReadFile(filepath.Join(logs.Dir, "input.log"))
	require.NoError(t, err)
	assert.Contains(t, string(input), "command=alpha")

	config, err := os.ReadFile(filepath.Join(logs.Dir, "config.log"))
	require.NoError(t, err)
	assert.Contains(t, string(config), "err=boom")

	// The application logger sees all three streams.
	assert.Contains(t, app.String(), "task_enter")
	assert.Contains(t, app.String(), "command=alpha")
	assert.Contains(t, app.String(), "setting missing")
}

func TestRunLogs_CloseTwice(t *testing.T) {
	logs, err := logging.NewRunLogs(t.TempDir(), logging.NewNop(), slog.LevelInfo)
	require.NoError(t, err)
	require.NoError(t, logs.Close())
	assert.NoError(t, logs.Close())
}

func TestRunLogs_LevelFiltersFiles(t *testing.T) {
	logs, err := logging.NewRunLogs(t.TempDir(), logging.NewNop(), slog.LevelWarn)
	require.NoError(t, err)
	logs.State.Info("quiet")
	logs.State.Warn("loud")
	require.NoError(t, logs.Close())

	state, err := os.ReadFile(filepath.Join(logs.Dir, "state.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(state), "quiet")
	assert.Contains(t, string(state), "loud")
}
