package ports

// CommandSource produces the commands that are active on the current tick.
// Sources are polled exactly once per tick from the tick goroutine.
type CommandSource interface {
	// Name identifies the source in logs (e.g. "Keyboard").
	Name() string
	// Commands returns the commands active right now. It must not block.
	Commands() []string
}

// KeyState reports level-triggered key state for a device.
type KeyState interface {
	Pressed(key string) bool
}

// CommandTransport is the network side of command ingestion.
type CommandTransport interface {
	// Drain returns every queued command; when clear is false the queue is left intact.
	Drain(clear bool) []string
	// SafeShutdown ends the active connection best-effort. Safe to call repeatedly.
	SafeShutdown()
}
