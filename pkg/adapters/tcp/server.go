package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/cadence/internal/logging"
	"github.com/aretw0/cadence/pkg/domain"
)

// Server receives command frames and queues them for the tick loop.
//
// Connections are accepted continuously, but the transport keeps state for
// one active connection: the most recently accepted one receives the
// shutdown frame. Frames from any connection land in the same FIFO queue.
type Server struct {
	addr         string
	logger       *slog.Logger
	metrics      *Metrics
	writeTimeout time.Duration

	mu    sync.Mutex
	queue []string

	connMu   sync.Mutex
	listener net.Listener
	active   *conn
	conns    map[*conn]struct{}
	closed   bool
	quit     chan struct{}

	wg sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithAddress overrides the listen address (host:port), e.g. "127.0.0.1:0" in tests.
func WithAddress(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithWriteTimeout bounds echo and shutdown writes.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.writeTimeout = d
	}
}

// NewServer creates a server for port on all interfaces. Zero means the default port.
func NewServer(port int, opts ...Option) *Server {
	if port == 0 {
		port = domain.DefaultTCPPort
	}
	s := &Server{
		addr:         fmt.Sprintf(":%d", port),
		logger:       logging.NewNop(),
		metrics:      NewMetrics(nil),
		writeTimeout: 2 * time.Second,
		quit:         make(chan struct{}),
		conns:        make(map[*conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listener and accepts connections in the background until
// ctx is done or SafeShutdown is called. A bind error leaves the server
// usable but permanently empty.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.connMu.Lock()
	if s.closed {
		s.connMu.Unlock()
		_ = ln.Close()
		return net.ErrClosed
	}
	s.listener = ln
	s.connMu.Unlock()

	s.logger.Info("waiting for a connection", "addr", ln.Addr().String())

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ln)
	}()
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
			s.SafeShutdown()
		case <-s.quit:
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Drain returns every queued command in arrival order. With clear the
// queue is emptied; without it the queue is left intact.
func (s *Server) Drain(clear bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.queue))
	copy(out, s.queue)
	if clear {
		s.queue = s.queue[:0]
		s.metrics.Queued.Set(0)
	}
	return out
}

// Pending returns the queue length.
func (s *Server) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// SafeShutdown sends the terminal frame to the active connection, closes it
// and stops accepting. Errors are logged and swallowed. Safe to call any
// number of times and from any goroutine.
func (s *Server) SafeShutdown() {
	s.connMu.Lock()
	if s.closed {
		s.connMu.Unlock()
		return
	}
	s.closed = true
	close(s.quit)
	ln, active := s.listener, s.active
	s.active = nil
	others := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		if c != active {
			others = append(others, c)
		}
	}
	s.connMu.Unlock()

	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Debug("closing listener", "error", err)
		}
	}
	if active != nil {
		if err := active.send(Encode(domain.DoneMessage), s.writeTimeout); err != nil {
			s.logger.Debug("sending shutdown frame", "error", err)
		}
		active.close(s.logger)
	}
	for _, c := range others {
		c.close(s.logger)
	}
}

// Wait blocks until every background goroutine has exited.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.logger.Error("accept failed, no further TCP commands", "error", err)
			}
			return
		}

		c := &conn{Conn: nc}
		s.connMu.Lock()
		if s.closed {
			s.connMu.Unlock()
			_ = nc.Close()
			return
		}
		s.active = c
		s.conns[c] = struct{}{}
		s.connMu.Unlock()

		s.metrics.Connections.Inc()
		s.logger.Info("TCP connection established", "remote", nc.RemoteAddr().String())

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(c)
		}()
	}
}

func (s *Server) serve(c *conn) {
	defer func() {
		s.connMu.Lock()
		if s.active == c {
			s.active = nil
		}
		delete(s.conns, c)
		s.connMu.Unlock()
		c.close(s.logger)
	}()

	scanner := newScanner(c)
	for scanner.Scan() {
		raw := scanner.Text()
		s.enqueue(strings.TrimSpace(raw))
		s.logger.Debug("frame received", "bytes", len(raw)+len(Sentinel), "data", raw)

		// The echo acknowledges receipt; it is not a command response.
		if err := c.send(Encode(raw), s.writeTimeout); err != nil {
			s.logger.Debug("echo failed", "error", err)
			return
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Warn("connection dropped", "error", err)
	}
}

func (s *Server) enqueue(cmd string) {
	s.metrics.Frames.Inc()
	if cmd == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, cmd)
	s.metrics.Queued.Set(float64(len(s.queue)))
}

// conn serializes writes; echoes and the shutdown frame may race.
type conn struct {
	net.Conn
	wmu  sync.Mutex
	once sync.Once
}

func (c *conn) send(b []byte, timeout time.Duration) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if timeout > 0 {
		_ = c.SetWriteDeadline(time.Now().Add(timeout))
	}
	_, err := c.Write(b)
	return err
}

func (c *conn) close(logger *slog.Logger) {
	c.once.Do(func() {
		if tc, ok := c.Conn.(*net.TCPConn); ok {
			_ = tc.CloseWrite()
		}
		if err := c.Conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Debug("closing connection", "error", err)
		}
	})
}
