/*
Package ports defines the driven ports (interfaces) for the cadence driver.

These interfaces decouple the per-tick state machine from input devices,
the network transport, presentation, persistence and time, so that every
collaborator can be replaced by a fake in tests.

# Key Interfaces

  - CommandSource: Produces the commands active on the current tick (keyboard, gamepad, TCP).
  - CommandTransport: The queue-backed network ingestion that the driver drains and shuts down.
  - Presenter: Applies pause and background side effects on the rendering side.
  - SettingsStore: Persists optional run-scoped settings (participant metadata, start index).
  - Recorder: Durable sink for lifecycle events.
  - Clock: Unscaled wall clock.
*/
package ports
