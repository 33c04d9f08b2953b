package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/cadence/internal/config"
	"github.com/aretw0/cadence/pkg/adapters/memory"
	"github.com/aretw0/cadence/pkg/adapters/sqlite"
	"github.com/aretw0/cadence/pkg/adapters/tcp"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quickProcedure = `{"Task": {
	"Interfaces": [{"InterfaceType": "Keyboard", "KeyMap": [["a"], ["act"]]}],
	"InterfaceMaster": "Keyboard",
	"TaskProcedure": [
		{"ConditionalEvent": {"EndConditions": [{"ConditionType": "Timeout", "Duration": 0.01}],
			"State": [{"StateType": "PlaySound", "File": "a.wav", "Loop": false}]}},
		{"ConditionalEvent": {"EndConditions": [{"ConditionType": "Timeout", "Duration": 0.01}],
			"State": [{"StateType": "PlaySound", "File": "b.wav", "Loop": false}]}}
	]
}}`

func writeProcedure(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "procedure.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// syncBuffer is written by the watcher goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, Validate(writeProcedure(t, dir, quickProcedure), &out))
	assert.Contains(t, out.String(), "✓")
	assert.Contains(t, out.String(), "2 tasks, master Keyboard")

	out.Reset()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"Task": {}}`), 0o644))
	assert.Error(t, Validate(bad, &out))
	assert.Contains(t, out.String(), "✗")
}

func TestWatch_RevalidatesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeProcedure(t, dir, quickProcedure)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, logs := &syncBuffer{}, &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, out, logger) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Watching")
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotContains(t, logs.String(), "Procedure invalid")

	require.NoError(t, os.WriteFile(path, []byte(`{"Task": {}}`), 0o644))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "✗")
	}, 3*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "level=WARN msg=\"Procedure invalid\"")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, logs.String(), "procedure.json")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop")
	}
}

func TestSettingsCommands(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)

	require.NoError(t, SetSettings(ctx, store, []string{"participantID=P01", " placeIndex = 2"}))
	assert.Error(t, SetSettings(ctx, store, []string{"novalue"}))
	assert.Error(t, SetSettings(ctx, store, []string{"=x"}))

	var out bytes.Buffer
	require.NoError(t, ListSettings(ctx, store, &out))
	assert.Equal(t, "participantID=P01\nplaceIndex=2\n", out.String())
}

func TestOpenSettings(t *testing.T) {
	cfg := config.RunConfig{SettingsBackend: config.BackendFile, SettingsFile: filepath.Join(t.TempDir(), "s.yaml")}
	store, closeFn, err := OpenSettings(cfg)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "k", "v"))
	assert.NoError(t, closeFn())
	assert.FileExists(t, cfg.SettingsFile)

	_, _, err = OpenSettings(config.RunConfig{SettingsBackend: "etcd"})
	assert.Error(t, err)
}

func TestSend(t *testing.T) {
	srv := tcp.NewServer(0, tcp.WithAddress("127.0.0.1:0"))
	require.NoError(t, srv.Start(context.Background()))
	defer func() {
		srv.SafeShutdown()
		srv.Wait()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- Send(ctx, srv.Addr().String(), []string{"left", "right"}, true, &out) }()

	require.Eventually(t, func() bool { return srv.Pending() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"left", "right"}, srv.Drain(true))

	srv.SafeShutdown()
	require.NoError(t, <-done)
	assert.Contains(t, out.String(), `sent "left"`)
	assert.Contains(t, out.String(), "Run finished.")
}

func TestExecute_HeadlessRun(t *testing.T) {
	dir := t.TempDir()
	path := writeProcedure(t, dir, quickProcedure)
	dbPath := filepath.Join(dir, "events.db")

	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		StartIndex: -1,
		Headless:   true,
		Stdout:     &out,
		Config: config.RunConfig{
			TickInterval:    time.Millisecond,
			LogLevel:        "info",
			LogDir:          filepath.Join(dir, "logs"),
			SettingsBackend: config.BackendFile,
			SettingsFile:    filepath.Join(dir, "settings.yaml"),
			RecordPath:      dbPath,
			PauseKey:        "`",
			QuitKey:         "escape",
		},
		ProcedurePath: path,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Procedure complete after 2 tasks.")

	runs, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	state, err := os.ReadFile(filepath.Join(dir, "logs", runs[0].Name(), "state.log"))
	require.NoError(t, err)
	assert.Contains(t, string(state), "Enter Task")

	rec, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer rec.Close()
	runID := strings.Fields(strings.TrimPrefix(strings.SplitN(out.String(), "\n", 2)[0], ">>> Run "))[0]
	runID = strings.TrimSuffix(runID, ":")
	events, err := rec.Events(context.Background(), runID)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventComplete, events[len(events)-1].Type)
}

func TestExecute_ProcedureFromSettings(t *testing.T) {
	dir := t.TempDir()
	path := writeProcedure(t, dir, quickProcedure)
	settings := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("conditionFile: "+path+"\nplaceIndex: \"1\"\n"), 0o644))

	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		StartIndex: -1,
		Headless:   true,
		Stdout:     &out,
		Config: config.RunConfig{
			TickInterval:    time.Millisecond,
			LogLevel:        "info",
			LogDir:          filepath.Join(dir, "logs"),
			SettingsBackend: config.BackendFile,
			SettingsFile:    settings,
		},
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Procedure complete")
}

func TestExecute_NoProcedure(t *testing.T) {
	err := Execute(context.Background(), RunOptions{
		StartIndex: -1,
		Headless:   true,
		Stdout:     &bytes.Buffer{},
		Config:     config.RunConfig{SettingsBackend: config.BackendMemory, TickInterval: time.Millisecond},
	})
	assert.ErrorContains(t, err, "no procedure file")
}
