package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/cadence/pkg/adapters/tcp"
	"github.com/aretw0/cadence/pkg/domain"
)

// Send delivers each payload as one frame to the TCP interface at addr and
// prints the echoes. With wait it then blocks until the run sends "Done".
func Send(ctx context.Context, addr string, payloads []string, wait bool, w io.Writer) error {
	c, err := tcp.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer c.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-done:
		}
	}()

	for _, p := range payloads {
		if err := c.Send(p); err != nil {
			return fmt.Errorf("failed to send %q: %w", p, err)
		}
		echo, err := c.ReadFrame()
		if err != nil {
			return fmt.Errorf("no echo for %q: %w", p, err)
		}
		fmt.Fprintf(w, "sent %q\n", echo)
	}

	if !wait {
		return nil
	}
	for {
		frame, err := c.ReadFrame()
		if errors.Is(err, io.EOF) {
			return errors.New("connection closed before the run finished")
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if frame == domain.DoneMessage {
			printSystemMessage(w, "Run finished.")
			return nil
		}
	}
}
