package ports

import (
	"time"

	"github.com/aretw0/cadence/pkg/domain"
)

// Presenter applies run-level presentation side effects. Rendering of
// individual stimuli goes through domain.StimulusFactory instead.
type Presenter interface {
	// SetPaused freezes or resumes presentation (time scale, audio, background).
	SetPaused(paused bool)
	// SetBackground sets the colour shown while running.
	SetBackground(c domain.Color)
	// Notify shows a transient message to the operator.
	Notify(message string, d time.Duration)
}

// Clock is the unscaled wall clock.
type Clock interface {
	Now() time.Time
}
