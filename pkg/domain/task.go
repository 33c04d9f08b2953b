package domain

import "time"

// Task is one phase of the protocol: stimuli shown while active and an OR
// of end conditions evaluated in declaration order.
type Task struct {
	Name       string
	Conditions []*Condition
	Stimuli    []Stimulus

	active bool
}

// NewTask creates an empty task.
func NewTask(name string) *Task {
	return &Task{Name: name}
}

// AddCondition appends an end condition.
func (t *Task) AddCondition(c *Condition) {
	t.Conditions = append(t.Conditions, c)
}

// AddStimulus appends a stimulus.
func (t *Task) AddStimulus(s Stimulus) {
	t.Stimuli = append(t.Stimuli, s)
}

// Start re-arms every end condition.
func (t *Task) Start(now time.Duration) {
	for _, c := range t.Conditions {
		c.Start(now)
	}
}

// Feed forwards the active commands to every end condition.
func (t *Task) Feed(now time.Duration, commands []string) {
	for _, c := range t.Conditions {
		c.Feed(now, commands)
	}
}

// Check returns the target of the first end condition that fires, together
// with that condition's position. Later conditions are not evaluated.
func (t *Task) Check(now time.Duration) (Target, int, bool) {
	for i, c := range t.Conditions {
		if target, ok := c.Check(now); ok {
			return target, i, true
		}
	}
	return Target{}, -1, false
}

// SetActive shows or removes every stimulus.
func (t *Task) SetActive(active bool) {
	t.active = active
	for _, s := range t.Stimuli {
		if active {
			s.Activate()
		} else {
			s.Deactivate()
		}
	}
}

// Active reports whether the task's stimuli are currently shown.
func (t *Task) Active() bool {
	return t.active
}
