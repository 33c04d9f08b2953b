package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// Client is a minimal command sender, used by the CLI and by tests.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
}

// Dial connects to a cadence TCP interface at addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &Client{conn: conn, scanner: newScanner(conn)}, nil
}

// Send writes payload as one frame.
func (c *Client) Send(payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.conn.Write(Encode(payload))
	return err
}

// ReadFrame blocks for the next frame from the server: an echo, or the
// terminal "Done" frame. io.EOF is returned once the server hangs up.
func (c *Client) ReadFrame() (string, error) {
	if c.scanner.Scan() {
		return c.scanner.Text(), nil
	}
	if err := c.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Close closes the connection.
func (c *Client) Close() error {
	if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
