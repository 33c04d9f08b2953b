package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/cadence/internal/logging"
	"github.com/aretw0/cadence/internal/runtime"
	"github.com/aretw0/cadence/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// In raw terminal mode Ctrl-C arrives as a key instead and is handled by the quit key.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger.
// Without debug, only warnings and errors reach stderr; the run log files
// still get the configured level.
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelWarn)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// createStateHooks logs every lifecycle event to the state stream.
func createStateHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTaskEnter: func(ctx context.Context, e *domain.TaskEvent) {
			logger.Info("Enter Task", "task_index", e.TaskIndex, "task", e.TaskName)
		},
		OnTaskLeave: func(ctx context.Context, e *domain.TaskEvent) {
			logger.Info("Leave Task", "task_index", e.TaskIndex, "task", e.TaskName, "task_time", e.TaskTime)
		},
		OnConditionMet: func(ctx context.Context, e *domain.ConditionEvent) {
			logger.Info("Condition Met", "task_index", e.TaskIndex, "condition", e.ConditionIndex, "kind", e.Kind, "target", e.Target)
		},
		OnRunEvent: func(ctx context.Context, e *domain.RunEvent) {
			if e.Type == domain.EventAbort {
				logger.Warn("Run Aborted", "task_index", e.TaskIndex, "paused", e.Paused)
				return
			}
			logger.Info("Run "+string(e.Type), "task_index", e.TaskIndex, "paused", e.Paused)
		},
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

// logCompletion reports how a run ended.
func logCompletion(w io.Writer, st runtime.Status, err error, sig os.Signal) {
	switch {
	case err == nil && st.State == runtime.StateComplete.String():
		printSystemMessage(w, "Procedure complete after %d tasks.", st.TaskCount)
	case err == nil && st.State == runtime.StateAborted.String():
		printSystemMessage(w, "Aborted at task %d: pause exceeded the allowed time.", st.TaskIndex)
	case err == nil:
		printSystemMessage(w, "Stopped at task %d.", st.TaskIndex)
	case isInterrupted(err) && sig == os.Interrupt:
		fmt.Fprintf(w, "[CTRL+C]\n")
		printSystemMessage(w, "Interrupted at task %d.", st.TaskIndex)
	case isInterrupted(err):
		printSystemMessage(w, "Terminated at task %d.", st.TaskIndex)
	default:
		printSystemMessage(w, "Failed at task %d: %v", st.TaskIndex, err)
	}
}
