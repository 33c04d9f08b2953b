package cadence

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/aretw0/cadence/internal/compiler"
	"github.com/aretw0/cadence/internal/logging"
	"github.com/aretw0/cadence/internal/runtime"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/ports"
)

// Version is the release version, newline included.
//
//go:embed VERSION
var Version string

// Experiment is a compiled procedure file ready to be run.
type Experiment struct {
	// Path is empty for procedures compiled from memory.
	Path     string
	Config   *domain.Configuration
	Warnings []compiler.Warning

	logger *slog.Logger
}

// Option configures how a procedure is compiled.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	stimuli   domain.StimulusFactory
	notifier  domain.Notifier
	evaluator domain.Evaluator
	variables *domain.Variables
}

// WithLogger sets the logger receiving compile warnings and the driver's state log.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStimulusFactory sets the rendering collaborator. Defaults to no-op stimuli.
func WithStimulusFactory(f domain.StimulusFactory) Option {
	return func(o *options) {
		o.stimuli = f
	}
}

// WithNotifier sets where condition notifications are shown.
func WithNotifier(n domain.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithEvaluator replaces the default expression evaluator.
func WithEvaluator(e domain.Evaluator) Option {
	return func(o *options) {
		o.evaluator = e
	}
}

// WithVariables shares a variable store, e.g. one pre-seeded with run settings.
func WithVariables(v *domain.Variables) Option {
	return func(o *options) {
		o.variables = v
	}
}

func (o *options) compiler() *compiler.Compiler {
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.evaluator == nil {
		o.evaluator = runtime.NewExprEvaluator()
	}
	opts := []compiler.Option{
		compiler.WithLogger(o.logger),
		compiler.WithEvaluator(o.evaluator),
	}
	if o.stimuli != nil {
		opts = append(opts, compiler.WithStimulusFactory(o.stimuli))
	}
	if o.notifier != nil {
		opts = append(opts, compiler.WithNotifier(o.notifier))
	}
	if o.variables != nil {
		opts = append(opts, compiler.WithVariables(o.variables))
	}
	return compiler.New(opts...)
}

// Load compiles the procedure file at path. Recoverable problems are
// reported in Warnings; the returned error is fatal.
func Load(path string, opts ...Option) (*Experiment, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cfg, warnings, err := o.compiler().CompileFile(path)
	if err != nil {
		return nil, err
	}
	return newExperiment(path, cfg, warnings, o.logger), nil
}

// Compile compiles procedure JSON held in memory.
func Compile(data []byte, opts ...Option) (*Experiment, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cfg, warnings, err := o.compiler().Compile(data)
	if err != nil {
		return nil, err
	}
	return newExperiment("", cfg, warnings, o.logger), nil
}

func newExperiment(path string, cfg *domain.Configuration, warnings []compiler.Warning, logger *slog.Logger) *Experiment {
	for _, w := range warnings {
		logger.Warn("procedure entry skipped", "warning", w.String())
	}
	logger.Info("procedure loaded",
		"path", path,
		"tasks", cfg.Procedure.Len(),
		"master", cfg.Interfaces.Master,
		"global_pause", cfg.GlobalPauseEnabled,
		"max_pause", cfg.MaxPause,
	)
	return &Experiment{Path: path, Config: cfg, Warnings: warnings, logger: logger}
}

// RunOption configures a driver.
type RunOption = runtime.Option

// WithSource registers the command source of an interface type.
func WithSource(t domain.InterfaceType, src ports.CommandSource) RunOption {
	return runtime.WithSource(t, src)
}

// WithTransport sets the network transport shut down when the run ends.
func WithTransport(t ports.CommandTransport) RunOption {
	return runtime.WithTransport(t)
}

// WithPresenter sets the run-level presentation collaborator.
func WithPresenter(p ports.Presenter) RunOption {
	return runtime.WithPresenter(p)
}

// WithControls sets the device read for the pause and quit keys.
func WithControls(k ports.KeyState) RunOption {
	return runtime.WithControls(k)
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) RunOption {
	return runtime.WithLifecycleHooks(hooks)
}

// WithStartIndex starts the run at task i instead of the first task.
func WithStartIndex(i int) RunOption {
	return runtime.WithStartIndex(i)
}

// NewDriver creates a driver for the experiment. Options run after the
// defaults, so a later WithLogger overrides the experiment's logger.
func (e *Experiment) NewDriver(opts ...RunOption) *runtime.Driver {
	base := []RunOption{runtime.WithLogger(e.logger)}
	return runtime.NewDriver(e.Config, append(base, opts...)...)
}

// String summarizes the experiment for operators.
func (e *Experiment) String() string {
	return fmt.Sprintf("%s: %d tasks, master %s, %d warnings",
		e.Path, e.Config.Procedure.Len(), e.Config.Interfaces.Master, len(e.Warnings))
}
