package ports

import (
	"context"

	"github.com/aretw0/cadence/pkg/domain"
)

// SettingsStore persists run-scoped key/value settings between sessions.
type SettingsStore interface {
	// Get returns domain.ErrSettingNotFound when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// All returns a copy of every stored setting.
	All(ctx context.Context) (map[string]string, error)
}

// Recorder stores lifecycle events of a run for later analysis.
type Recorder interface {
	RecordTask(ctx context.Context, e *domain.TaskEvent) error
	RecordCondition(ctx context.Context, e *domain.ConditionEvent) error
	RecordRun(ctx context.Context, e *domain.RunEvent) error
	Close() error
}
