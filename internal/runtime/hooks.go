package runtime

import (
	"context"
	"log/slog"

	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/ports"
)

// RecorderHooks forwards lifecycle events to rec. Recording failures are
// logged and never interrupt the run.
func RecorderHooks(rec ports.Recorder, logger *slog.Logger) domain.LifecycleHooks {
	check := func(kind domain.EventType, err error) {
		if err != nil {
			logger.Error("failed to record event", "type", kind, "error", err)
		}
	}
	return domain.LifecycleHooks{
		OnTaskEnter: func(ctx context.Context, e *domain.TaskEvent) {
			check(e.Type, rec.RecordTask(ctx, e))
		},
		OnTaskLeave: func(ctx context.Context, e *domain.TaskEvent) {
			check(e.Type, rec.RecordTask(ctx, e))
		},
		OnConditionMet: func(ctx context.Context, e *domain.ConditionEvent) {
			check(e.Type, rec.RecordCondition(ctx, e))
		},
		OnRunEvent: func(ctx context.Context, e *domain.RunEvent) {
			check(e.Type, rec.RecordRun(ctx, e))
		},
	}
}
