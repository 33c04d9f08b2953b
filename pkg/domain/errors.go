package domain

import "errors"

// ErrEmptyChain is returned when a chain condition is built without sub-conditions.
var ErrEmptyChain = errors.New("chain condition requires at least one sub-condition")

// ErrEmptyProcedure is returned when a procedure has no tasks to run.
var ErrEmptyProcedure = errors.New("procedure has no tasks")

// ErrIndexOutOfRange is returned when a start index does not address a task.
var ErrIndexOutOfRange = errors.New("task index out of range")

// ErrTransitionLoop is returned when a single tick keeps transitioning without settling.
// It means the procedure contains a cycle of conditions that are always satisfied.
var ErrTransitionLoop = errors.New("transition loop detected")

// ErrSettingNotFound is returned when a run setting is absent from the store.
var ErrSettingNotFound = errors.New("setting not found")
