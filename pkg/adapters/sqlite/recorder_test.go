package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/cadence/pkg/adapters/sqlite"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Recorder = (*sqlite.Recorder)(nil)

func openRecorder(t *testing.T) *sqlite.Recorder {
	t.Helper()
	rec, err := sqlite.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })
	return rec
}

func TestRecorder_RoundTrip(t *testing.T) {
	rec := openRecorder(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	base := func(typ domain.EventType, taskTime time.Duration) domain.EventBase {
		return domain.EventBase{Timestamp: at, Type: typ, RunID: "run-1", TaskTime: taskTime}
	}

	require.NoError(t, rec.RecordTask(ctx, &domain.TaskEvent{
		EventBase: base(domain.EventTaskEnter, 0), TaskIndex: 0, TaskName: "intro",
	}))
	require.NoError(t, rec.RecordCondition(ctx, &domain.ConditionEvent{
		EventBase: base(domain.EventConditionMet, 1500*time.Millisecond),
		TaskIndex: 0, ConditionIndex: 1, Kind: domain.ConditionTimeout, Target: 2,
	}))
	require.NoError(t, rec.RecordRun(ctx, &domain.RunEvent{
		EventBase: base(domain.EventResume, 1500*time.Millisecond), TaskIndex: 2, Paused: 4 * time.Second,
	}))
	require.NoError(t, rec.RecordTask(ctx, &domain.TaskEvent{
		EventBase: domain.EventBase{Timestamp: at, Type: domain.EventTaskEnter, RunID: "run-2"},
	}))

	rows, err := rec.Events(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, domain.EventTaskEnter, rows[0].Type)
	assert.Equal(t, "intro", rows[0].TaskName)
	assert.Nil(t, rows[0].ConditionIndex)
	assert.Equal(t, at, rows[0].At)

	assert.Equal(t, domain.EventConditionMet, rows[1].Type)
	require.NotNil(t, rows[1].ConditionIndex)
	assert.Equal(t, 1, *rows[1].ConditionIndex)
	assert.Equal(t, domain.ConditionTimeout, rows[1].ConditionKind)
	require.NotNil(t, rows[1].Target)
	assert.Equal(t, 2, *rows[1].Target)
	assert.Equal(t, 1500*time.Millisecond, rows[1].TaskTime)

	assert.Equal(t, domain.EventResume, rows[2].Type)
	assert.Equal(t, 4*time.Second, rows[2].Paused)
	assert.Equal(t, 2, rows[2].TaskIndex)
}

func TestRecorder_ReopenKeepsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	ctx := context.Background()

	rec, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, rec.RecordRun(ctx, &domain.RunEvent{
		EventBase: domain.EventBase{Type: domain.EventComplete, RunID: "r"},
	}))
	require.NoError(t, rec.Close())

	rec, err = sqlite.Open(path)
	require.NoError(t, err)
	defer rec.Close()

	rows, err := rec.Events(ctx, "r")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.EventComplete, rows[0].Type)
	assert.False(t, rows[0].At.IsZero())
}

func TestRecorder_Errors(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)

	rec := openRecorder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = rec.RecordTask(ctx, &domain.TaskEvent{})
	assert.ErrorIs(t, err, context.Canceled)

	var nilRec *sqlite.Recorder
	assert.NoError(t, nilRec.Close())
}
