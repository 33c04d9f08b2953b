package runtime_test

import (
	"sync"
	"time"

	"github.com/aretw0/cadence/pkg/domain"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeKeys struct {
	down map[string]bool
}

func newFakeKeys() *fakeKeys {
	return &fakeKeys{down: map[string]bool{}}
}

func (k *fakeKeys) Pressed(key string) bool { return k.down[key] }
func (k *fakeKeys) Press(key string)        { k.down[key] = true }
func (k *fakeKeys) Release(key string)      { delete(k.down, key) }

type fakeSource struct {
	name     string
	commands []string
	polls    int
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Commands() []string {
	s.polls++
	return s.commands
}

type fakeTransport struct {
	mu        sync.Mutex
	shutdowns int
}

func (t *fakeTransport) Drain(bool) []string { return nil }

func (t *fakeTransport) SafeShutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shutdowns++
}

func (t *fakeTransport) Shutdowns() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shutdowns
}

type fakePresenter struct {
	paused     []bool
	background domain.Color
	notes      []string
}

func (p *fakePresenter) SetPaused(paused bool)              { p.paused = append(p.paused, paused) }
func (p *fakePresenter) SetBackground(c domain.Color)       { p.background = c }
func (p *fakePresenter) Notify(msg string, _ time.Duration) { p.notes = append(p.notes, msg) }

// config builds a keyboard-mastered configuration around tasks.
func config(tasks ...*domain.Task) *domain.Configuration {
	km, _ := domain.NewKeyMap([]string{"a"}, []string{"act"})
	return &domain.Configuration{
		Interfaces: domain.InterfaceConfiguration{
			Maps:    map[domain.InterfaceType]domain.KeyMap{domain.InterfaceKeyboard: km},
			Master:  domain.InterfaceKeyboard,
			TCPPort: domain.DefaultTCPPort,
		},
		Procedure: domain.NewProcedure(tasks...),
		Variables: domain.NewVariables(),
		PauseGate: domain.NewPauseGate(false),
	}
}

func task(name string, conds ...*domain.Condition) *domain.Task {
	t := domain.NewTask(name)
	for _, c := range conds {
		t.AddCondition(c)
	}
	t.AddStimulus(nopStimulus{})
	return t
}

type nopStimulus struct{}

func (nopStimulus) Activate()   {}
func (nopStimulus) Deactivate() {}
