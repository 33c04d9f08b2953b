/*
Package cadence runs timed experiment procedures: an ordered list of tasks,
each showing stimuli until one of its end conditions fires and moves the
procedure to another task.

A procedure is a JSON file. It declares the input interfaces (keyboard,
gamepad, a TCP command stream) and which of them is the master whose
commands drive conditions. It also declares the global pause policy and
the task list. Conditions can be timeouts, held commands, cumulative
command time, boolean expressions over run variables, or ordered chains
of those.

# Usage

	exp, err := cadence.Load("procedure.json")
	if err != nil {
		log.Fatal(err)
	}
	for _, w := range exp.Warnings {
		log.Println("skipped:", w)
	}

	d := exp.NewDriver(cadence.WithSource(domain.InterfaceKeyboard, keyboard))
	if err := d.Run(ctx, 16*time.Millisecond); err != nil {
		log.Fatal(err)
	}

The driver is single-threaded: Start, Tick and Run belong to one
goroutine. Status snapshots may be read from any goroutine, which is how
the HTTP adapter serves them.

# Packages

  - pkg/domain: conditions, tasks, the procedure and the variable store. No I/O.
  - pkg/ports: interfaces for input, presentation, settings and recording.
  - pkg/adapters: TCP transport, input devices, settings stores (memory,
    file, redis), the SQLite event recorder and the HTTP status server.
  - cmd/cadence: the command line (run, validate, send, version).
*/
package cadence
