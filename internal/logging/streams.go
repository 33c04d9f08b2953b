package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

// Stream names. Each run writes one file per stream.
const (
	StreamState  = "state"
	StreamInput  = "input"
	StreamConfig = "config"
)

// RunLogs holds the per-run log streams. Every stream fans out to the
// application handler and to its own file in Dir.
//
//	state  - task transitions, pauses, aborts
//	input  - commands received from every source
//	config - the loaded configuration and run settings
type RunLogs struct {
	Dir    string
	State  *slog.Logger
	Input  *slog.Logger
	Config *slog.Logger

	files []*os.File
}

// NewRunLogs creates a timestamped directory under root and opens the
// stream files in it. app receives every record as well.
func NewRunLogs(root string, app *slog.Logger, level slog.Level) (*RunLogs, error) {
	dir := filepath.Join(root, time.Now().Format("2006-01-02_15-04-05"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	r := &RunLogs{Dir: dir}
	open := func(stream string) (*slog.Logger, error) {
		f, err := os.OpenFile(filepath.Join(dir, stream+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s log: %w", stream, err)
		}
		r.files = append(r.files, f)
		handler := slogmulti.Fanout(app.Handler(), newHandler(f, level))
		return slog.New(handler).With("stream", stream), nil
	}

	var err error
	if r.State, err = open(StreamState); err != nil {
		return nil, errors.Join(err, r.Close())
	}
	if r.Input, err = open(StreamInput); err != nil {
		return nil, errors.Join(err, r.Close())
	}
	if r.Config, err = open(StreamConfig); err != nil {
		return nil, errors.Join(err, r.Close())
	}
	return r, nil
}

// NopRunLogs returns streams that discard everything except what app keeps.
func NopRunLogs(app *slog.Logger) *RunLogs {
	return &RunLogs{
		State:  app.With("stream", StreamState),
		Input:  app.With("stream", StreamInput),
		Config: app.With("stream", StreamConfig),
	}
}

// Close flushes and closes the stream files.
func (r *RunLogs) Close() error {
	var errs []error
	for _, f := range r.files {
		if err := f.Sync(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	r.files = nil
	return errors.Join(errs...)
}

var _ io.Closer = (*RunLogs)(nil)
