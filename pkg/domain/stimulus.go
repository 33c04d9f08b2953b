package domain

import "sync/atomic"

// StimulusKind is the StateType of a procedure state item.
type StimulusKind string

const (
	StimulusDisplayImage        StimulusKind = "DisplayImage"
	StimulusPlaySound           StimulusKind = "PlaySound"
	StimulusMultiImageAnimation StimulusKind = "MultiImageAnimation"
	StimulusDisableGlobalPause  StimulusKind = "DisableGlobalPause"
)

// Stimulus is a presentation handle owned by a task.
type Stimulus interface {
	Activate()
	Deactivate()
}

// StimulusSpec is a parsed state item. The core treats it as opaque and
// hands it to the rendering collaborator.
type StimulusSpec struct {
	Kind         StimulusKind
	Task         int
	Files        []string
	X, Y         float64
	Width        float64
	Height       float64
	Loop         bool
	TimePerImage float64
}

// StimulusFactory builds stimuli for the rendering collaborator.
type StimulusFactory interface {
	NewStimulus(spec StimulusSpec) (Stimulus, error)
}

// StimulusFactoryFunc adapts a function to StimulusFactory.
type StimulusFactoryFunc func(spec StimulusSpec) (Stimulus, error)

// NewStimulus calls f(spec).
func (f StimulusFactoryFunc) NewStimulus(spec StimulusSpec) (Stimulus, error) {
	return f(spec)
}

// PauseGate tells the driver whether the global pause key is honoured.
type PauseGate struct {
	enabled    atomic.Bool
	configured bool
}

// NewPauseGate creates a gate holding the configured GlobalPauseEnabled value.
func NewPauseGate(enabled bool) *PauseGate {
	g := &PauseGate{configured: enabled}
	g.enabled.Store(enabled)
	return g
}

// Enabled reports whether pausing is currently allowed.
func (g *PauseGate) Enabled() bool {
	return g.enabled.Load()
}

// Disable blocks pausing until Restore.
func (g *PauseGate) Disable() {
	g.enabled.Store(false)
}

// Restore returns the gate to its configured value.
func (g *PauseGate) Restore() {
	g.enabled.Store(g.configured)
}

// PauseBlocker is the DisableGlobalPause stimulus: pausing is blocked
// while its task is active.
type PauseBlocker struct {
	Gate *PauseGate
}

func (b PauseBlocker) Activate()   { b.Gate.Disable() }
func (b PauseBlocker) Deactivate() { b.Gate.Restore() }
