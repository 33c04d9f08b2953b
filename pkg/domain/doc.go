/*
Package domain contains the core model of the cadence protocol engine.

It defines the entities of the timed task state machine: Conditions, Tasks,
the Procedure that owns the current position, and the Variables shared by
expression and cumulative conditions. This package is kept pure and free of
external dependencies like I/O, clocks or persistence. Time is always passed
in by the caller as a task-clock reading, which keeps every transition
reproducible in tests.

# Key Entities

  - Condition: a predicate over elapsed time, commands or variables that
    yields a Target when satisfied (Timeout, Command, CumulativeCommand,
    Expression, Chain).
  - Task: one phase of the protocol, an OR of end conditions plus the
    stimuli shown while it is active.
  - Procedure: the ordered tasks and the current index.
  - Target: the explicit "next task" option type.
  - Variables: named string values substituted into expressions.
*/
package domain
