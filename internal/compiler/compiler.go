// Package compiler turns a JSON procedure file into a runnable domain.Configuration.
package compiler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/cadence/internal/logging"
	"github.com/aretw0/cadence/pkg/domain"
)

// Compiler builds configurations. The zero value is not usable; call New.
type Compiler struct {
	logger    *slog.Logger
	stimuli   domain.StimulusFactory
	evaluator domain.Evaluator
	notifier  domain.Notifier
	variables *domain.Variables
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger that receives skipped-entry warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithStimulusFactory sets the rendering collaborator that builds stimuli.
func WithStimulusFactory(f domain.StimulusFactory) Option {
	return func(c *Compiler) {
		c.stimuli = f
	}
}

// WithEvaluator sets the expression evaluator bound into expression conditions.
func WithEvaluator(e domain.Evaluator) Option {
	return func(c *Compiler) {
		c.evaluator = e
	}
}

// WithNotifier sets the notifier bound into every condition.
func WithNotifier(n domain.Notifier) Option {
	return func(c *Compiler) {
		c.notifier = n
	}
}

// WithVariables shares an existing variable store instead of a fresh one.
func WithVariables(v *domain.Variables) Option {
	return func(c *Compiler) {
		c.variables = v
	}
}

// New creates a compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger:  logging.NewNop(),
		stimuli: NopStimuli,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NopStimuli builds stimuli that do nothing, for headless runs and validation.
var NopStimuli = domain.StimulusFactoryFunc(func(domain.StimulusSpec) (domain.Stimulus, error) {
	return nopStimulus{}, nil
})

type nopStimulus struct{}

func (nopStimulus) Activate()   {}
func (nopStimulus) Deactivate() {}

// CompileFile reads and compiles the procedure file at path.
func (c *Compiler) CompileFile(path string) (*domain.Configuration, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &LoadError{Path: path, Err: err}
	}
	cfg, warnings, err := c.Compile(data)
	var le *LoadError
	if errors.As(err, &le) {
		le.Path = path
	}
	return cfg, warnings, err
}

// Compile parses a procedure document. A returned error is always a *LoadError.
// Warnings name entries that were skipped.
func (c *Compiler) Compile(data []byte) (*domain.Configuration, []Warning, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, nil, fatal("", "invalid JSON: %w", err)
	}
	taskRaw, ok := root["Task"]
	if !ok || isNull(taskRaw) {
		return nil, nil, fatal("", "document has no root Task object")
	}
	var task map[string]json.RawMessage
	if err := json.Unmarshal(taskRaw, &task); err != nil {
		return nil, nil, fatal("Task", "%w", err)
	}

	s := &session{
		Compiler: c,
		vars:     c.variables,
	}
	if s.vars == nil {
		s.vars = domain.NewVariables()
	}

	cfg := &domain.Configuration{
		BackgroundColor: domain.Black,
		Variables:       s.vars,
	}

	// Optional scalars first: the pause gate is needed by DisableGlobalPause stimuli.
	if raw, ok := task["GlobalPauseEnabled"]; ok && !isNull(raw) {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, nil, fatal("GlobalPauseEnabled", "%w", err)
		}
		if err := decode(v, &cfg.GlobalPauseEnabled); err != nil {
			return nil, nil, fatal("GlobalPauseEnabled", "%w", err)
		}
	} else {
		c.logger.Debug("GlobalPauseEnabled not set, defaulting", "value", cfg.GlobalPauseEnabled)
	}
	cfg.PauseGate = domain.NewPauseGate(cfg.GlobalPauseEnabled)
	s.gate = cfg.PauseGate

	if raw, ok := task["BackgroundColor"]; ok && !isNull(raw) {
		var hex string
		if err := json.Unmarshal(raw, &hex); err != nil {
			return nil, nil, fatal("BackgroundColor", "%w", err)
		}
		color, err := domain.ParseColor(hex)
		if err != nil {
			return nil, nil, fatal("BackgroundColor", "%w", err)
		}
		cfg.BackgroundColor = color
	}

	if raw, ok := task["MaximumAllowablePauseTime"]; ok && !isNull(raw) {
		var v any
		var seconds float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, nil, fatal("MaximumAllowablePauseTime", "%w", err)
		}
		if err := decode(v, &seconds); err != nil {
			return nil, nil, fatal("MaximumAllowablePauseTime", "%w", err)
		}
		if seconds < 0 {
			return nil, nil, fatal("MaximumAllowablePauseTime", "must not be negative, got %v", seconds)
		}
		cfg.MaxPause = seconds2duration(seconds)
	}

	interfaces, err := s.interfaces(task)
	if err != nil {
		return nil, nil, err
	}
	cfg.Interfaces = interfaces

	procedure, err := s.procedure(task)
	if err != nil {
		return nil, nil, err
	}
	cfg.Procedure = procedure

	return cfg, s.warnings, nil
}

// session holds per-document compile state.
type session struct {
	*Compiler
	vars     *domain.Variables
	gate     *domain.PauseGate
	warnings []Warning
}

func (s *session) warn(task, condition int, format string, args ...any) {
	w := Warning{Task: task, Condition: condition, Message: fmt.Sprintf(format, args...)}
	s.warnings = append(s.warnings, w)
	s.logger.Warn("skipping procedure entry", "task", task, "condition", condition, "reason", w.Message)
}

func (s *session) env() domain.Env {
	return domain.Env{
		Variables: s.vars,
		Evaluator: s.evaluator,
		Notifier:  s.notifier,
	}
}

func seconds2duration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
