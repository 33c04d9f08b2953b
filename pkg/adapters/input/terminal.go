package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/cadence/internal/logging"
	"github.com/aretw0/cadence/pkg/ports"
	"golang.org/x/term"
)

// DefaultHold is how long a key reads as pressed after its last byte.
// Terminals report no key-up events; auto-repeat keeps a held key alive,
// so the window must outlast the usual auto-repeat delay (250-600ms).
// Two taps closer together than the window read as one press.
const DefaultHold = 600 * time.Millisecond

// Key names produced by TerminalKeys for non-printable input.
const (
	KeyEscape = "escape"
	KeySpace  = "space"
	KeyEnter  = "enter"
	KeyTab    = "tab"
	KeyUp     = "up"
	KeyDown   = "down"
	KeyLeft   = "left"
	KeyRight  = "right"
)

var aliases = map[string]string{
	"return":     KeyEnter,
	"esc":        KeyEscape,
	"backquote":  "`",
	"uparrow":    KeyUp,
	"downarrow":  KeyDown,
	"leftarrow":  KeyLeft,
	"rightarrow": KeyRight,
}

// TerminalKeys implements ports.KeyState over a raw-mode terminal.
type TerminalKeys struct {
	clock  ports.Clock
	hold   time.Duration
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]time.Time

	restore func() error
}

// KeysOption configures TerminalKeys.
type KeysOption func(*TerminalKeys)

// WithHold sets the hold window.
func WithHold(d time.Duration) KeysOption {
	return func(k *TerminalKeys) {
		k.hold = d
	}
}

// WithClock sets the clock used for the hold window.
func WithClock(c ports.Clock) KeysOption {
	return func(k *TerminalKeys) {
		k.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) KeysOption {
	return func(k *TerminalKeys) {
		k.logger = logger
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NewTerminalKeys creates a key state with nothing pressed. Feed it with
// Listen or Press.
func NewTerminalKeys(opts ...KeysOption) *TerminalKeys {
	k := &TerminalKeys{
		clock:  systemClock{},
		hold:   DefaultHold,
		logger: logging.NewNop(),
		seen:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// OpenTerminal puts f into raw mode and listens to it until ctx is done.
// When f is not a terminal the input is read as-is. Close restores the mode.
func OpenTerminal(ctx context.Context, f *os.File, opts ...KeysOption) (*TerminalKeys, error) {
	k := NewTerminalKeys(opts...)
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, fmt.Errorf("failed to enter raw mode: %w", err)
		}
		k.restore = func() error { return term.Restore(fd, state) }
	} else {
		k.logger.Warn("stdin is not a terminal, key hold timing may be unreliable")
	}
	go k.Listen(ctx, f)
	return k, nil
}

// Listen reads r until EOF, an error or ctx is done.
// A read blocked on r only returns once input arrives.
func (k *TerminalKeys) Listen(ctx context.Context, r io.Reader) {
	buf := make([]byte, 64)
	for ctx.Err() == nil {
		n, err := r.Read(buf)
		if n > 0 {
			k.Press(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				k.logger.Debug("terminal read failed", "error", err)
			}
			return
		}
	}
}

// Press records every key found in chunk as pressed now.
func (k *TerminalKeys) Press(chunk []byte) {
	names := ParseKeys(chunk)
	if len(names) == 0 {
		return
	}
	now := k.clock.Now()
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, name := range names {
		k.seen[name] = now
	}
}

// Pressed reports whether key was seen within the hold window.
// Names are case-insensitive and accept a few common aliases ("return", "esc").
func (k *TerminalKeys) Pressed(key string) bool {
	key = Normalize(key)
	k.mu.Lock()
	at, ok := k.seen[key]
	k.mu.Unlock()
	return ok && k.clock.Now().Sub(at) <= k.hold
}

// Close restores the terminal mode, if it was changed.
func (k *TerminalKeys) Close() error {
	if k.restore == nil {
		return nil
	}
	restore := k.restore
	k.restore = nil
	return restore()
}

// Normalize maps a configured key name to the name TerminalKeys produces.
func Normalize(key string) string {
	if len(key) == 1 {
		return strings.ToLower(key)
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}

// ParseKeys splits raw terminal input into key names.
// Ctrl-C reads as escape so the quit key still works in raw mode.
func ParseKeys(chunk []byte) []string {
	var names []string
	for i := 0; i < len(chunk); i++ {
		b := chunk[i]
		switch {
		case b == 0x1b:
			if i+2 < len(chunk) && chunk[i+1] == '[' {
				if name, ok := arrows[chunk[i+2]]; ok {
					names = append(names, name)
					i += 2
					continue
				}
			}
			names = append(names, KeyEscape)
		case b == 0x03:
			names = append(names, KeyEscape)
		case b == ' ':
			names = append(names, KeySpace)
		case b == '\r' || b == '\n':
			names = append(names, KeyEnter)
		case b == '\t':
			names = append(names, KeyTab)
		case b > 0x20 && b < 0x7f:
			names = append(names, strings.ToLower(string(b)))
		}
	}
	return names
}

var arrows = map[byte]string{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
}
