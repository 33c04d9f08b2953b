package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/cadence/pkg/domain"
)

// Message is one serialized lifecycle event.
type Message struct {
	Type domain.EventType
	Data string
}

// StreamManager fans lifecycle events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan Message]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan Message]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe() (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 16)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast never blocks; slow subscribers lose messages.
func (sm *StreamManager) Broadcast(msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "type", msg.Type)
		}
	}
}

// Hooks returns lifecycle hooks that broadcast every event as JSON.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTaskEnter: func(_ context.Context, e *domain.TaskEvent) {
			sm.publish(e.Type, e)
		},
		OnTaskLeave: func(_ context.Context, e *domain.TaskEvent) {
			sm.publish(e.Type, e)
		},
		OnConditionMet: func(_ context.Context, e *domain.ConditionEvent) {
			sm.publish(e.Type, e)
		},
		OnRunEvent: func(_ context.Context, e *domain.RunEvent) {
			sm.publish(e.Type, e)
		},
	}
}

func (sm *StreamManager) publish(t domain.EventType, e any) {
	b, err := json.Marshal(e)
	if err != nil {
		sm.logger.Error("SSE: failed to encode event", "type", t, "error", err)
		return
	}
	sm.Broadcast(Message{Type: t, Data: string(b)})
}
