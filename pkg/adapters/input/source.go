// Package input turns devices into command sources for the driver.
package input

import (
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/ports"
)

// KeyMapSource reports the commands whose keys are currently held.
type KeyMapSource struct {
	name string
	keys ports.KeyState
	m    domain.KeyMap
}

// NewKeyMapSource binds a key map to a device.
func NewKeyMapSource(name string, keys ports.KeyState, m domain.KeyMap) *KeyMapSource {
	if keys == nil {
		keys = NoKeys{}
	}
	return &KeyMapSource{name: name, keys: keys, m: m}
}

func (s *KeyMapSource) Name() string { return s.name }

// Commands returns the bound commands in key map order.
func (s *KeyMapSource) Commands() []string {
	var out []string
	for i, key := range s.m.Keys {
		if s.keys.Pressed(key) {
			out = append(out, s.m.Commands[i])
		}
	}
	return out
}

// NoKeys is a device with nothing pressed, ever.
type NoKeys struct{}

func (NoKeys) Pressed(string) bool { return false }

// TCPSource drains the transport queue on every poll.
// A payload equal to a mapped key is translated to its command; any other
// payload is passed through as the command itself.
type TCPSource struct {
	transport ports.CommandTransport
	m         domain.KeyMap
}

// NewTCPSource wraps transport. m may be empty.
func NewTCPSource(transport ports.CommandTransport, m domain.KeyMap) *TCPSource {
	return &TCPSource{transport: transport, m: m}
}

func (s *TCPSource) Name() string { return string(domain.InterfaceTCP) }

func (s *TCPSource) Commands() []string {
	payloads := s.transport.Drain(true)
	if len(payloads) == 0 {
		return nil
	}
	out := make([]string, len(payloads))
	for i, p := range payloads {
		if cmd, ok := s.m.Lookup(p); ok {
			out[i] = cmd
			continue
		}
		out[i] = p
	}
	return out
}
