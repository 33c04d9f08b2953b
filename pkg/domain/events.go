package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTaskEnter    EventType = "task_enter"
	EventTaskLeave    EventType = "task_leave"
	EventConditionMet EventType = "condition_met"
	EventPause        EventType = "pause"
	EventResume       EventType = "resume"
	EventAbort        EventType = "abort"
	EventComplete     EventType = "complete"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	// TaskTime is the task-clock reading, which excludes paused time.
	TaskTime time.Duration `json:"task_time"`
}

// TaskEvent represents entry into or exit from a task.
type TaskEvent struct {
	EventBase
	TaskIndex int    `json:"task_index"`
	TaskName  string `json:"task_name"`
}

// ConditionEvent represents an end condition firing.
type ConditionEvent struct {
	EventBase
	TaskIndex      int           `json:"task_index"`
	ConditionIndex int           `json:"condition_index"`
	Kind           ConditionKind `json:"kind"`
	Target         int           `json:"target"`
}

// RunEvent represents a change of the run state (pause, resume, abort, complete).
type RunEvent struct {
	EventBase
	TaskIndex int           `json:"task_index"`
	Paused    time.Duration `json:"paused,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTaskEnter    func(context.Context, *TaskEvent)
	OnTaskLeave    func(context.Context, *TaskEvent)
	OnConditionMet func(context.Context, *ConditionEvent)
	OnRunEvent     func(context.Context, *RunEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTaskEnter:    chain(h.OnTaskEnter, other.OnTaskEnter),
		OnTaskLeave:    chain(h.OnTaskLeave, other.OnTaskLeave),
		OnConditionMet: chain(h.OnConditionMet, other.OnConditionMet),
		OnRunEvent:     chain(h.OnRunEvent, other.OnRunEvent),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
