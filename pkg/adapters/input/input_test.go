package input_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/cadence/pkg/adapters/input"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type held map[string]bool

func (h held) Pressed(key string) bool { return h[key] }

type queue struct {
	mu      sync.Mutex
	pending []string
	drains  int
}

func (q *queue) Drain(clear bool) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.drains++
	out := q.pending
	if clear {
		q.pending = nil
	}
	return out
}

func (q *queue) SafeShutdown() {}

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func TestKeyMapSource(t *testing.T) {
	m, err := domain.NewKeyMap([]string{"a", "space", "d"}, []string{"left", "look", "right"})
	require.NoError(t, err)

	src := input.NewKeyMapSource("Keyboard", held{"d": true, "a": true}, m)
	assert.Equal(t, "Keyboard", src.Name())
	assert.Equal(t, []string{"left", "right"}, src.Commands())

	idle := input.NewKeyMapSource("XBoxController", nil, m)
	assert.Empty(t, idle.Commands())
}

func TestTCPSource_DrainsOncePerPoll(t *testing.T) {
	q := &queue{pending: []string{"alpha", "k1"}}
	m, err := domain.NewKeyMap([]string{"k1"}, []string{"forward"})
	require.NoError(t, err)

	src := input.NewTCPSource(q, m)
	assert.Equal(t, "TCP", src.Name())
	assert.Equal(t, []string{"alpha", "forward"}, src.Commands())
	assert.Empty(t, src.Commands())
	assert.Equal(t, 2, q.drains)
}

func TestParseKeys(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"printable", "aB", []string{"a", "b"}},
		{"named", " \r\t`", []string{"space", "enter", "tab", "`"}},
		{"escape", "\x1b", []string{"escape"}},
		{"arrows", "\x1b[A\x1b[D", []string{"up", "left"}},
		{"ctrl-c", "\x03", []string{"escape"}},
		{"control bytes ignored", "\x01\x02", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, input.ParseKeys([]byte(tt.input)))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "enter", input.Normalize("Return"))
	assert.Equal(t, "escape", input.Normalize("Esc"))
	assert.Equal(t, "`", input.Normalize("BackQuote"))
	assert.Equal(t, "w", input.Normalize("W"))
	assert.Equal(t, "space", input.Normalize(" space "))
}

func TestTerminalKeys_HoldWindow(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0)}
	keys := input.NewTerminalKeys(input.WithClock(clock), input.WithHold(100*time.Millisecond))

	assert.False(t, keys.Pressed("w"))
	keys.Press([]byte("w"))
	assert.True(t, keys.Pressed("W"))

	clock.now = clock.now.Add(100 * time.Millisecond)
	assert.True(t, keys.Pressed("w"))

	clock.now = clock.now.Add(time.Millisecond)
	assert.False(t, keys.Pressed("w"))

	keys.Press([]byte("\r"))
	assert.True(t, keys.Pressed("Return"))
	assert.NoError(t, keys.Close())
}

func TestTerminalKeys_HeldKeySurvivesRepeatDelay(t *testing.T) {
	start := time.Unix(0, 0)
	clock := &stepClock{now: start}
	keys := input.NewTerminalKeys(input.WithClock(clock))

	// First byte at 0, then auto-repeat every 32ms from 512ms until 1s.
	nextByte := time.Duration(0)
	edges, prev := 0, false
	for tick := time.Duration(0); tick <= time.Second; tick += 16 * time.Millisecond {
		clock.now = start.Add(tick)
		for nextByte <= tick && nextByte <= time.Second {
			keys.Press([]byte("`"))
			if nextByte == 0 {
				nextByte = 512 * time.Millisecond
			} else {
				nextByte += 32 * time.Millisecond
			}
		}
		pressed := keys.Pressed("`")
		if pressed && !prev {
			edges++
		}
		prev = pressed
	}
	assert.Equal(t, 1, edges)
}

func TestTerminalKeys_Listen(t *testing.T) {
	keys := input.NewTerminalKeys(input.WithHold(time.Hour))
	done := make(chan struct{})
	go func() {
		keys.Listen(context.Background(), strings.NewReader("`x"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return at EOF")
	}
	assert.True(t, keys.Pressed("`"))
	assert.True(t, keys.Pressed("x"))
	assert.False(t, keys.Pressed("escape"))
}
