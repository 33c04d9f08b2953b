// Package http exposes a running procedure over HTTP: run status, the
// variable store, queued TCP commands, Prometheus metrics and a
// server-sent event stream of lifecycle events.
package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/aretw0/cadence/internal/logging"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CommandQueue is the read side of the TCP transport.
type CommandQueue interface {
	Drain(clear bool) []string
}

// Server serves the introspection API. Every route is read-only.
type Server struct {
	status    func() any
	variables *domain.Variables
	queue     CommandQueue
	gatherer  prometheus.Gatherer
	version   string
	logger    *slog.Logger
	Streams   *StreamManager
}

// Option configures a Server.
type Option func(*Server)

// WithStatus sets the function returning the run status snapshot.
func WithStatus(fn func() any) Option {
	return func(s *Server) {
		s.status = fn
	}
}

// WithVariables exposes the variable store.
func WithVariables(v *domain.Variables) Option {
	return func(s *Server) {
		s.variables = v
	}
}

// WithCommandQueue exposes pending TCP commands. The queue is peeked, never drained.
func WithCommandQueue(q CommandQueue) Option {
	return func(s *Server) {
		s.queue = q
	}
}

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithStreams shares a StreamManager, typically one whose Hooks are installed on the driver.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server. Routes whose collaborator is missing answer 404.
func NewServer(opts ...Option) *Server {
	s := &Server{
		version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	return s
}

// NewHandler creates the HTTP handler for a server built with opts.
func NewHandler(opts ...Option) http.Handler {
	return NewServer(opts...).Handler()
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/status", s.GetStatus)
	r.Get("/variables", s.GetVariables)
	r.Get("/commands/pending", s.GetPendingCommands)
	r.Get("/events", s.SubscribeEvents)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":     "cadence",
		"version": strings.TrimSpace(s.version),
	})
}

// GetStatus handles the GET /status request.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, s.status())
}

// GetVariables handles the GET /variables request.
func (s *Server) GetVariables(w http.ResponseWriter, r *http.Request) {
	if s.variables == nil {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, s.variables.Snapshot())
}

// GetPendingCommands handles the GET /commands/pending request.
func (s *Server) GetPendingCommands(w http.ResponseWriter, r *http.Request) {
	if s.queue == nil {
		http.NotFound(w, r)
		return
	}
	pending := s.queue.Drain(false)
	if pending == nil {
		pending = []string{}
	}
	s.writeJSON(w, map[string]any{"commands": pending})
}

// SubscribeEvents handles the GET /events request (SSE).
// The optional "types" query parameter is a comma separated event type filter.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	var filter []string
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			filter = append(filter, strings.TrimSpace(t))
		}
	}

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(filter) > 0 && !slices.Contains(filter, string(msg.Type)) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, msg.Data)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
