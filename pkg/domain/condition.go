package domain

import (
	"strconv"
	"strings"
	"time"
)

// ConditionKind identifies the variant of a Condition.
// The values match the ConditionType names used by procedure files.
type ConditionKind string

const (
	ConditionTimeout           ConditionKind = "Timeout"
	ConditionCommand           ConditionKind = "InputCommand"
	ConditionCumulativeCommand ConditionKind = "CumulativeInputCommand"
	ConditionExpression        ConditionKind = "ExpressionCondition"
	ConditionChain             ConditionKind = "ChainCondition"
)

// Evaluator evaluates a boolean expression after variable substitution.
type Evaluator interface {
	EvaluateBool(expression string) (bool, error)
}

// Notifier surfaces a short message to the operator.
type Notifier interface {
	Notify(message string, duration time.Duration)
}

// Env carries the collaborators conditions need at evaluation time.
// Any field may be nil; the affected side effect is then skipped.
type Env struct {
	Variables *Variables
	Evaluator Evaluator
	Notifier  Notifier
}

// Condition is a tagged union over the supported condition variants.
// Lifecycle: Start re-arms monitoring, Feed reports the commands active on
// a tick, Check reports whether the condition fired and where to go.
// All times are task-clock readings supplied by the caller.
type Condition struct {
	Kind   ConditionKind
	Target Target

	// Duration applies to Timeout, Command and CumulativeCommand.
	Duration time.Duration
	// Commands is the watched set for Command and CumulativeCommand.
	Commands []string
	// StoreIn names the variable that receives the cumulative total.
	StoreIn string
	// Expression is the boolean source for Expression conditions.
	Expression string
	// Subconditions is the ordered chain for Chain conditions.
	Subconditions []*Condition
	// Notification is shown once when the condition fires.
	Notification string

	env Env

	armed     bool
	notified  bool
	startedAt time.Duration

	running  bool
	runStart time.Duration

	accumulated  time.Duration
	inSegment    bool
	segmentStart time.Duration

	current int
}

// ConditionOption configures a Condition at construction.
type ConditionOption func(*Condition)

// WithNotification sets the message shown when the condition fires.
func WithNotification(message string) ConditionOption {
	return func(c *Condition) {
		c.Notification = message
	}
}

// WithEnv binds the evaluation collaborators, including every sub-condition.
func WithEnv(env Env) ConditionOption {
	return func(c *Condition) {
		c.bind(env)
	}
}

func (c *Condition) bind(env Env) {
	c.env = env
	for _, sub := range c.Subconditions {
		sub.bind(env)
	}
}

func (c *Condition) apply(opts []ConditionOption) *Condition {
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewTimeout fires once strictly more than d has elapsed since Start.
func NewTimeout(target Target, d time.Duration, opts ...ConditionOption) *Condition {
	c := &Condition{Kind: ConditionTimeout, Target: target, Duration: d}
	return c.apply(opts)
}

// NewCommand fires once any of commands has been present for a contiguous run of at least d.
func NewCommand(target Target, commands []string, d time.Duration, opts ...ConditionOption) *Condition {
	c := &Condition{Kind: ConditionCommand, Target: target, Commands: commands, Duration: d}
	return c.apply(opts)
}

// NewCumulativeCommand fires once commands have been present for a total of at least d.
// When storeIn is not blank, the running total in seconds is published to the variables.
func NewCumulativeCommand(target Target, commands []string, d time.Duration, storeIn string, opts ...ConditionOption) *Condition {
	c := &Condition{
		Kind:     ConditionCumulativeCommand,
		Target:   target,
		Commands: commands,
		Duration: d,
		StoreIn:  strings.TrimSpace(storeIn),
	}
	return c.apply(opts)
}

// NewExpression fires once expression, after variable substitution, evaluates to true.
func NewExpression(target Target, expression string, opts ...ConditionOption) *Condition {
	c := &Condition{Kind: ConditionExpression, Target: target, Expression: expression}
	return c.apply(opts)
}

// NewChain fires its own target once every sub-condition has fired in order.
func NewChain(target Target, subconditions []*Condition, opts ...ConditionOption) (*Condition, error) {
	if len(subconditions) == 0 {
		return nil, ErrEmptyChain
	}
	c := &Condition{Kind: ConditionChain, Target: target, Subconditions: subconditions}
	return c.apply(opts), nil
}

// Start (re)initializes monitoring at task time now.
func (c *Condition) Start(now time.Duration) {
	c.armed = true
	c.notified = false

	switch c.Kind {
	case ConditionTimeout:
		c.startedAt = now
	case ConditionCommand:
		c.running = false
		c.runStart = 0
	case ConditionCumulativeCommand:
		c.inSegment = false
		c.segmentStart = 0
		c.setAccumulated(0)
	case ConditionExpression:
	case ConditionChain:
		c.current = 0
		c.Subconditions[0].Start(now)
	}
}

// Feed reports the commands active on the tick at time now.
func (c *Condition) Feed(now time.Duration, commands []string) {
	if !c.armed {
		return
	}

	switch c.Kind {
	case ConditionTimeout, ConditionExpression:
		// Time and variables only.
	case ConditionCommand:
		present := c.watches(commands)
		if present && !c.running {
			c.running = true
			c.runStart = now
		} else if !present {
			c.running = false
		}
	case ConditionCumulativeCommand:
		present := c.watches(commands)
		switch {
		case present && !c.inSegment:
			c.inSegment = true
			c.segmentStart = now
		case present:
			c.setAccumulated(c.accumulated + now - c.segmentStart)
			c.segmentStart = now
		case c.inSegment:
			c.setAccumulated(c.accumulated + now - c.segmentStart)
			c.inSegment = false
		}
	case ConditionChain:
		c.Subconditions[c.current].Feed(now, commands)
	}
}

// Check reports whether the condition is satisfied at time now and its target.
// It is safe to call on every tick.
func (c *Condition) Check(now time.Duration) (Target, bool) {
	if !c.armed {
		return Target{}, false
	}

	switch c.Kind {
	case ConditionTimeout:
		if now-c.startedAt > c.Duration {
			return c.fire()
		}
	case ConditionCommand:
		if c.running && now-c.runStart >= c.Duration {
			return c.fire()
		}
	case ConditionCumulativeCommand:
		if c.accumulated >= c.Duration {
			return c.fire()
		}
	case ConditionExpression:
		if c.evaluate() {
			return c.fire()
		}
	case ConditionChain:
		if _, ok := c.Subconditions[c.current].Check(now); !ok {
			return Target{}, false
		}
		if c.current == len(c.Subconditions)-1 {
			return c.fire()
		}
		c.current++
		c.Subconditions[c.current].Start(now)
	}
	return Target{}, false
}

// Accumulated returns the cumulative command time gathered since Start.
func (c *Condition) Accumulated() time.Duration {
	return c.accumulated
}

// Stage returns the index of the active sub-condition of a chain.
func (c *Condition) Stage() int {
	return c.current
}

func (c *Condition) fire() (Target, bool) {
	if !c.notified {
		c.notified = true
		if c.Notification != "" && c.env.Notifier != nil {
			c.env.Notifier.Notify(c.Notification, DefaultNotificationDuration)
		}
	}
	return c.Target, true
}

func (c *Condition) evaluate() bool {
	if c.env.Evaluator == nil {
		return false
	}
	expression := c.Expression
	if c.env.Variables != nil {
		expression = c.env.Variables.Substitute(expression)
	}
	ok, err := c.env.Evaluator.EvaluateBool(expression)
	if err != nil {
		return false
	}
	return ok
}

func (c *Condition) setAccumulated(total time.Duration) {
	c.accumulated = total
	if c.StoreIn == "" || c.env.Variables == nil {
		return
	}
	c.env.Variables.Set(c.StoreIn, strconv.FormatFloat(total.Seconds(), 'f', -1, 64))
}

func (c *Condition) watches(commands []string) bool {
	for _, cmd := range commands {
		for _, watched := range c.Commands {
			if cmd == watched {
				return true
			}
		}
	}
	return false
}
