// Package console renders a run in a terminal: operator notifications,
// the pause overlay, the background colour and stimulus activity.
package console

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/cadence/pkg/domain"
	"github.com/muesli/termenv"
)

// Console implements ports.Presenter and domain.Notifier.
type Console struct {
	out     *termenv.Output
	outOpts []termenv.OutputOption
	eol     string
	baseDir string

	mu     sync.Mutex
	bg     domain.Color
	paused bool
}

// Option configures a Console.
type Option func(*Console)

// WithRawMode ends lines with CRLF, as a terminal in raw mode needs.
func WithRawMode() Option {
	return func(c *Console) {
		c.eol = "\r\n"
	}
}

// WithProfile forces a colour profile, e.g. termenv.Ascii in tests.
func WithProfile(p termenv.Profile) Option {
	return func(c *Console) {
		c.outOpts = append(c.outOpts, termenv.WithProfile(p))
	}
}

// WithAssetDir resolves stimulus files relative to dir.
func WithAssetDir(dir string) Option {
	return func(c *Console) {
		c.baseDir = dir
	}
}

// New creates a console writing to w.
func New(w io.Writer, opts ...Option) *Console {
	c := &Console{
		eol: "\n",
		bg:  domain.Black,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.out = termenv.NewOutput(w, c.outOpts...)
	return c
}

func (c *Console) SetPaused(paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if paused == c.paused {
		return
	}
	c.paused = paused
	if paused {
		c.line(c.out.String(" PAUSED ").Bold().Reverse().String())
		return
	}
	c.line(c.out.String(" RESUMED ").Bold().String())
}

func (c *Console) SetBackground(color domain.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bg = color
	swatch := c.out.String("      ").Background(c.out.Color("#" + color.String()))
	c.line(fmt.Sprintf("background %s %s", swatch, color))
}

func (c *Console) Notify(message string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text := c.out.String("» " + message).Foreground(c.out.Color("#f472b6")).Bold()
	c.line(fmt.Sprintf("%s (%s)", text, d))
}

// Background returns the last colour set.
func (c *Console) Background() domain.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bg
}

// Stimuli returns a factory whose stimuli print their activity.
// Missing files are reported at build time so the compiler can skip the item.
func (c *Console) Stimuli() domain.StimulusFactory {
	return domain.StimulusFactoryFunc(func(spec domain.StimulusSpec) (domain.Stimulus, error) {
		if c.baseDir != "" {
			for _, f := range spec.Files {
				if _, err := os.Stat(filepath.Join(c.baseDir, f)); err != nil {
					return nil, fmt.Errorf("stimulus file %q: %w", f, err)
				}
			}
		}
		return &stimulus{console: c, spec: spec}, nil
	})
}

func (c *Console) line(s string) {
	fmt.Fprint(c.out, s+c.eol)
}

type stimulus struct {
	console *Console
	spec    domain.StimulusSpec
}

func (s *stimulus) Activate() {
	s.print("show")
}

func (s *stimulus) Deactivate() {
	s.print("hide")
}

func (s *stimulus) print(verb string) {
	c := s.console
	c.mu.Lock()
	defer c.mu.Unlock()
	desc := string(s.spec.Kind)
	if len(s.spec.Files) > 0 {
		desc += " " + strings.Join(s.spec.Files, ",")
	}
	c.line(c.out.String(verb+" ").Faint().String() + desc)
}
