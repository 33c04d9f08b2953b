package compiler

import (
	"fmt"
	"strings"
)

// LoadError is a fatal problem with a procedure file. No run may be
// attempted with a configuration that produced one.
type LoadError struct {
	Path string
	// Where locates the offending entry, e.g. "TaskProcedure[2].EndConditions".
	Where string
	Err   error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Where != "" {
		b.WriteString(" at ")
		b.WriteString(e.Where)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func fatal(where, format string, args ...any) *LoadError {
	return &LoadError{Where: where, Err: fmt.Errorf(format, args...)}
}

// Warning is a recoverable problem: the entry it names was skipped.
type Warning struct {
	Task      int
	Condition int
	Message   string
}

func (w Warning) String() string {
	if w.Condition < 0 {
		return fmt.Sprintf("task %d: %s", w.Task, w.Message)
	}
	return fmt.Sprintf("task %d condition %d: %s", w.Task, w.Condition, w.Message)
}
