package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/cadence/internal/logging"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/ports"
	"github.com/google/uuid"
)

// State is the run state of a Driver.
type State int

const (
	StateRunning State = iota
	StatePaused
	StateAborted
	StateComplete
	// StateStopped means the operator ended the run with the quit key.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateAborted:
		return "aborted"
	case StateComplete:
		return "complete"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateAborted || s == StateComplete || s == StateStopped
}

// Default control keys, as named by the terminal key source.
const (
	DefaultPauseKey = "`"
	DefaultQuitKey  = "escape"
)

// ErrNotStarted is returned by Tick before Start.
var ErrNotStarted = errors.New("driver not started")

// Status is a point-in-time snapshot of a run, safe to read from any goroutine.
type Status struct {
	RunID     string        `json:"run_id"`
	State     string        `json:"state"`
	TaskIndex int           `json:"task_index"`
	TaskName  string        `json:"task_name,omitempty"`
	TaskCount int           `json:"task_count"`
	TaskTime  time.Duration `json:"task_time"`
	PausedFor time.Duration `json:"paused_for,omitempty"`
	Ticks     uint64        `json:"ticks"`
}

// Driver runs a compiled procedure tick by tick. Tick, Start and Run must
// be called from one goroutine; Status may be called from any.
type Driver struct {
	cfg       *domain.Configuration
	sources   map[domain.InterfaceType]ports.CommandSource
	transport ports.CommandTransport
	presenter ports.Presenter
	controls  ports.KeyState
	clock     ports.Clock
	logger    *slog.Logger
	input     *slog.Logger
	hooks     domain.LifecycleHooks
	metrics   *Metrics
	runID     string
	pauseKey  string
	quitKey   string
	maxLoop   int

	taskClock  *TaskClock
	started    bool
	state      State
	pausePrev  bool
	quitPrev   bool
	startIndex int
	ticks      uint64

	mu     sync.RWMutex
	status Status
}

// Option configures a Driver.
type Option func(*Driver)

// WithSource registers the command source of an interface type.
func WithSource(t domain.InterfaceType, src ports.CommandSource) Option {
	return func(d *Driver) {
		d.sources[t] = src
	}
}

// WithTransport sets the network transport shut down when the run ends.
func WithTransport(t ports.CommandTransport) Option {
	return func(d *Driver) {
		d.transport = t
	}
}

// WithPresenter sets the presentation collaborator.
func WithPresenter(p ports.Presenter) Option {
	return func(d *Driver) {
		d.presenter = p
	}
}

// WithControls sets the key state read for the pause and quit keys.
func WithControls(k ports.KeyState) Option {
	return func(d *Driver) {
		d.controls = k
	}
}

// WithControlKeys overrides the pause and quit key names.
func WithControlKeys(pause, quit string) Option {
	return func(d *Driver) {
		d.pauseKey = pause
		d.quitKey = quit
	}
}

// WithClock sets the unscaled clock.
func WithClock(c ports.Clock) Option {
	return func(d *Driver) {
		d.clock = c
	}
}

// WithLogger sets the state stream logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithInputLogger sets the logger receiving every polled command.
func WithInputLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.input = logger
	}
}

// WithLifecycleHooks adds hooks called on task and run events.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Driver) {
		d.hooks = d.hooks.Merge(hooks)
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(d *Driver) {
		d.metrics = m
	}
}

// WithRunID sets the run identifier; a random one is used otherwise.
func WithRunID(id string) Option {
	return func(d *Driver) {
		d.runID = id
	}
}

// WithStartIndex starts the run at a task other than the first.
func WithStartIndex(i int) Option {
	return func(d *Driver) {
		d.startIndex = i
	}
}

// NewDriver creates a driver for cfg.
func NewDriver(cfg *domain.Configuration, opts ...Option) *Driver {
	d := &Driver{
		cfg:      cfg,
		sources:  map[domain.InterfaceType]ports.CommandSource{},
		clock:    SystemClock{},
		logger:   logging.NewNop(),
		pauseKey: DefaultPauseKey,
		quitKey:  DefaultQuitKey,
		metrics:  NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.input == nil {
		d.input = d.logger
	}
	if d.runID == "" {
		d.runID = uuid.NewString()
	}
	d.maxLoop = max(64, 4*cfg.Procedure.Len())
	return d
}

// RunID returns the run identifier.
func (d *Driver) RunID() string {
	return d.runID
}

// Start activates the start task. An out-of-range start index falls back
// to the first task and is reported as an error alongside.
func (d *Driver) Start(ctx context.Context) error {
	d.taskClock = NewTaskClock(d.clock)
	if d.presenter != nil {
		d.presenter.SetBackground(d.cfg.BackgroundColor)
	}

	var startErr error
	proc := d.cfg.Procedure
	if err := proc.StartAt(d.startIndex, 0); err != nil {
		if errors.Is(err, domain.ErrEmptyProcedure) {
			return err
		}
		startErr = err
		d.logger.Warn("start index unusable, starting from the beginning", "index", d.startIndex, "error", err)
		if err := proc.StartFromBeginning(0); err != nil {
			return err
		}
	}

	d.started = true
	d.state = StateRunning
	d.logger.Info("run started", "run_id", d.runID, "task", proc.Index(), "tasks", proc.Len())
	d.enterTask(ctx, 0)
	d.publish()
	return startErr
}

// Tick performs one evaluation step. It returns ErrTransitionLoop when a
// cycle of always-satisfied conditions keeps the procedure from settling.
func (d *Driver) Tick(ctx context.Context) error {
	if !d.started {
		return ErrNotStarted
	}
	defer d.publish()
	d.ticks++
	d.metrics.Ticks.Inc()

	if d.state.Terminal() {
		return nil
	}

	master := d.poll()

	if d.edge(d.quitKey, &d.quitPrev) {
		d.stop(ctx)
		return nil
	}

	if d.cfg.GlobalPauseEnabled && d.cfg.PauseGate.Enabled() && d.edge(d.pauseKey, &d.pausePrev) {
		if d.state == StatePaused {
			d.resume(ctx)
		} else {
			d.pause(ctx)
		}
	}

	switch d.state {
	case StatePaused:
		return d.checkPause(ctx)
	case StateRunning:
		return d.advance(ctx, master)
	}
	return nil
}

// Run starts the procedure and ticks every interval until the run reaches a
// terminal state or ctx is done.
func (d *Driver) Run(ctx context.Context, interval time.Duration) error {
	if !d.started {
		if err := d.Start(ctx); err != nil && !errors.Is(err, domain.ErrIndexOutOfRange) {
			return err
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !d.state.Terminal() {
		select {
		case <-ctx.Done():
			d.shutdown()
			return ctx.Err()
		case <-ticker.C:
			if err := d.Tick(ctx); err != nil {
				d.shutdown()
				return err
			}
		}
	}
	return nil
}

// State returns the run state.
func (d *Driver) State() State {
	return d.state
}

// Status returns the last published snapshot.
func (d *Driver) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// poll reads every source exactly once and returns the master commands.
func (d *Driver) poll() []string {
	var master []string
	for _, t := range domain.InterfaceTypes {
		src, ok := d.sources[t]
		if !ok {
			continue
		}
		cmds := src.Commands()
		for _, c := range cmds {
			d.input.Info("command", "source", src.Name(), "command", c, "master", t == d.cfg.Interfaces.Master)
		}
		d.metrics.Commands.WithLabelValues(src.Name()).Add(float64(len(cmds)))
		if t == d.cfg.Interfaces.Master {
			master = cmds
		}
	}
	return master
}

// edge reports a rising edge of key since the previous tick.
func (d *Driver) edge(key string, prev *bool) bool {
	if d.controls == nil || key == "" {
		return false
	}
	pressed := d.controls.Pressed(key)
	rising := pressed && !*prev
	*prev = pressed
	return rising
}

func (d *Driver) advance(ctx context.Context, commands []string) error {
	proc := d.cfg.Procedure
	now := d.taskClock.Elapsed()
	proc.Feed(now, commands)

	for transitions := 0; ; transitions++ {
		if transitions > d.maxLoop {
			d.logger.Error("transition loop", "task", proc.Index(), "transitions", transitions)
			return fmt.Errorf("task %d after %d transitions: %w", proc.Index(), transitions, domain.ErrTransitionLoop)
		}

		task := proc.Current()
		if task == nil {
			d.complete(ctx)
			return nil
		}
		target, ci, ok := task.Check(now)
		if !ok {
			return nil
		}

		from := proc.Index()
		cond := task.Conditions[ci]
		d.metrics.Transitions.WithLabelValues(string(cond.Kind)).Inc()
		d.logger.Info("condition met", "task", from, "condition", ci, "kind", cond.Kind, "target", target)
		if d.hooks.OnConditionMet != nil {
			d.hooks.OnConditionMet(ctx, &domain.ConditionEvent{
				EventBase:      d.event(domain.EventConditionMet, now),
				TaskIndex:      from,
				ConditionIndex: ci,
				Kind:           cond.Kind,
				Target:         target.Resolve(from),
			})
		}
		d.leaveTask(ctx, now, from, task.Name)

		if !proc.Goto(target, now) {
			d.complete(ctx)
			return nil
		}
		d.enterTask(ctx, now)
	}
}

func (d *Driver) pause(ctx context.Context) {
	d.taskClock.Pause()
	d.state = StatePaused
	d.metrics.Paused.Set(1)
	if d.presenter != nil {
		d.presenter.SetPaused(true)
	}
	d.logger.Info("global pause", "task", d.cfg.Procedure.Index())
	d.runEvent(ctx, domain.EventPause, 0)
}

func (d *Driver) resume(ctx context.Context) {
	paused := d.taskClock.Resume()
	d.state = StateRunning
	d.metrics.Paused.Set(0)
	d.metrics.PauseSeconds.Observe(paused.Seconds())
	if d.presenter != nil {
		d.presenter.SetPaused(false)
	}
	d.logger.Info("global pause ended", "task", d.cfg.Procedure.Index(), "paused", paused)
	d.runEvent(ctx, domain.EventResume, paused)
}

// checkPause aborts the run once a pause outlasts the configured maximum.
func (d *Driver) checkPause(ctx context.Context) error {
	if d.cfg.MaxPause <= 0 {
		return nil
	}
	paused := d.taskClock.PausedFor()
	if paused <= d.cfg.MaxPause {
		return nil
	}

	d.cfg.Procedure.Abort()
	d.shutdown()
	d.state = StateAborted
	d.metrics.Aborts.Inc()
	d.metrics.Paused.Set(0)
	d.logger.Warn("pause exceeded maximum, aborting run", "paused", paused, "max", d.cfg.MaxPause)
	d.notify(fmt.Sprintf("Run aborted: paused longer than %s", d.cfg.MaxPause))
	d.runEvent(ctx, domain.EventAbort, paused)
	return nil
}

func (d *Driver) complete(ctx context.Context) {
	d.shutdown()
	d.state = StateComplete
	d.logger.Info("procedure complete", "run_id", d.runID)
	d.notify(domain.DoneMessage)
	d.runEvent(ctx, domain.EventComplete, 0)
}

func (d *Driver) stop(ctx context.Context) {
	if d.state == StatePaused {
		d.taskClock.Resume()
		if d.presenter != nil {
			d.presenter.SetPaused(false)
		}
	}
	d.shutdown()
	d.state = StateStopped
	d.logger.Info("run stopped by operator", "task", d.cfg.Procedure.Index())
}

func (d *Driver) shutdown() {
	if d.transport != nil {
		d.transport.SafeShutdown()
	}
}

func (d *Driver) notify(msg string) {
	if d.presenter != nil {
		d.presenter.Notify(msg, domain.DefaultNotificationDuration)
	}
}

func (d *Driver) enterTask(ctx context.Context, now time.Duration) {
	proc := d.cfg.Procedure
	task := proc.Current()
	d.metrics.TaskIndex.Set(float64(proc.Index()))
	d.logger.Info("task enter", "task", proc.Index(), "name", task.Name)
	if d.hooks.OnTaskEnter != nil {
		d.hooks.OnTaskEnter(ctx, &domain.TaskEvent{
			EventBase: d.event(domain.EventTaskEnter, now),
			TaskIndex: proc.Index(),
			TaskName:  task.Name,
		})
	}
}

func (d *Driver) leaveTask(ctx context.Context, now time.Duration, index int, name string) {
	if d.hooks.OnTaskLeave != nil {
		d.hooks.OnTaskLeave(ctx, &domain.TaskEvent{
			EventBase: d.event(domain.EventTaskLeave, now),
			TaskIndex: index,
			TaskName:  name,
		})
	}
}

func (d *Driver) runEvent(ctx context.Context, t domain.EventType, paused time.Duration) {
	if d.hooks.OnRunEvent == nil {
		return
	}
	d.hooks.OnRunEvent(ctx, &domain.RunEvent{
		EventBase: d.event(t, d.taskClock.Elapsed()),
		TaskIndex: d.cfg.Procedure.Index(),
		Paused:    paused,
	})
}

func (d *Driver) event(t domain.EventType, now time.Duration) domain.EventBase {
	return domain.EventBase{
		Timestamp: d.clock.Now(),
		Type:      t,
		RunID:     d.runID,
		TaskTime:  now,
	}
}

func (d *Driver) publish() {
	proc := d.cfg.Procedure
	s := Status{
		RunID:     d.runID,
		State:     d.state.String(),
		TaskIndex: proc.Index(),
		TaskCount: proc.Len(),
		TaskTime:  d.taskClock.Elapsed(),
		PausedFor: d.taskClock.PausedFor(),
		Ticks:     d.ticks,
	}
	if task := proc.Current(); task != nil {
		s.TaskName = task.Name
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = s
}
