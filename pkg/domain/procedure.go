package domain

import (
	"fmt"
	"math"
	"time"
)

// abortIndex is the out-of-range position a forced abort leaves behind.
const abortIndex = math.MaxInt32

// Procedure is the ordered list of tasks and the current position.
// The index either addresses a task, is at or past the end (complete),
// or is the abort sentinel.
type Procedure struct {
	tasks   []*Task
	index   int
	aborted bool
}

// NewProcedure creates a procedure over tasks.
func NewProcedure(tasks ...*Task) *Procedure {
	return &Procedure{tasks: tasks}
}

// Add appends a task.
func (p *Procedure) Add(t *Task) {
	p.tasks = append(p.tasks, t)
}

// Tasks returns the tasks in order.
func (p *Procedure) Tasks() []*Task {
	return p.tasks
}

// Len returns the number of tasks.
func (p *Procedure) Len() int {
	return len(p.tasks)
}

// Index returns the current position.
func (p *Procedure) Index() int {
	return p.index
}

// Current returns the active task, or nil once complete.
func (p *Procedure) Current() *Task {
	if !p.inRange(p.index) {
		return nil
	}
	return p.tasks[p.index]
}

// StartFromBeginning deactivates every task and activates the first one.
func (p *Procedure) StartFromBeginning(now time.Duration) error {
	return p.StartAt(0, now)
}

// StartAt deactivates every task and activates the one at index.
func (p *Procedure) StartAt(index int, now time.Duration) error {
	if len(p.tasks) == 0 {
		return ErrEmptyProcedure
	}
	if !p.inRange(index) {
		return fmt.Errorf("start at %d of %d: %w", index, len(p.tasks), ErrIndexOutOfRange)
	}
	for _, t := range p.tasks {
		t.SetActive(false)
	}
	p.aborted = false
	p.index = index
	p.tasks[index].SetActive(true)
	p.tasks[index].Start(now)
	return nil
}

// Goto leaves the current task and enters target. An out-of-range target
// completes the procedure. Goto reports whether a task is still active.
func (p *Procedure) Goto(target Target, now time.Duration) bool {
	if p.aborted {
		return false
	}
	next := target.Resolve(p.index)
	if cur := p.Current(); cur != nil {
		cur.SetActive(false)
	}
	if p.inRange(next) {
		p.tasks[next].SetActive(true)
		p.tasks[next].Start(now)
	}
	p.index = next
	return p.inRange(p.index)
}

// Feed forwards commands to the current task only.
func (p *Procedure) Feed(now time.Duration, commands []string) {
	if cur := p.Current(); cur != nil {
		cur.Feed(now, commands)
	}
}

// IsComplete reports whether no task is active any more.
func (p *Procedure) IsComplete() bool {
	return !p.inRange(p.index)
}

// Abort deactivates the current task and parks the index on the abort sentinel.
func (p *Procedure) Abort() {
	if cur := p.Current(); cur != nil {
		cur.SetActive(false)
	}
	p.aborted = true
	p.index = abortIndex
}

// Aborted reports whether Abort was called.
func (p *Procedure) Aborted() bool {
	return p.aborted
}

func (p *Procedure) inRange(i int) bool {
	return i >= 0 && i < len(p.tasks)
}
