package domain

import (
	"encoding/hex"
	"fmt"
	"time"
)

// InterfaceType names an input source.
type InterfaceType string

const (
	InterfaceKeyboard       InterfaceType = "Keyboard"
	InterfaceXBoxController InterfaceType = "XBoxController"
	InterfaceTCP            InterfaceType = "TCP"
)

// InterfaceTypes lists the supported sources in polling order.
var InterfaceTypes = []InterfaceType{InterfaceKeyboard, InterfaceXBoxController, InterfaceTCP}

// ParseInterfaceType validates an interface name.
func ParseInterfaceType(name string) (InterfaceType, bool) {
	for _, t := range InterfaceTypes {
		if string(t) == name {
			return t, true
		}
	}
	return "", false
}

// KeyMap pairs device keys with the commands they produce.
type KeyMap struct {
	Keys     []string
	Commands []string
}

// NewKeyMap validates that keys and commands have the same length.
func NewKeyMap(keys, commands []string) (KeyMap, error) {
	if len(keys) != len(commands) {
		return KeyMap{}, fmt.Errorf("key map has %d keys but %d commands", len(keys), len(commands))
	}
	return KeyMap{Keys: keys, Commands: commands}, nil
}

// Lookup returns the command bound to key.
func (m KeyMap) Lookup(key string) (string, bool) {
	for i, k := range m.Keys {
		if k == key {
			return m.Commands[i], true
		}
	}
	return "", false
}

// InterfaceConfiguration declares the active input sources.
// It is immutable once the loader has validated it.
type InterfaceConfiguration struct {
	Maps    map[InterfaceType]KeyMap
	Master  InterfaceType
	TCPPort int
}

// Present reports whether the source has a key map.
func (c InterfaceConfiguration) Present(t InterfaceType) bool {
	_, ok := c.Maps[t]
	return ok
}

// Color is an opaque RGB background colour.
type Color struct {
	R, G, B uint8
}

// Black is the default background.
var Black = Color{}

// ParseColor reads a 6-hex-digit RGB string such as "FF8000".
func ParseColor(s string) (Color, error) {
	if len(s) != 6 {
		return Color{}, fmt.Errorf("color %q: expected 6 hex digits", s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{R: b[0], G: b[1], B: b[2]}, nil
}

func (c Color) String() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// Configuration is a compiled procedure file.
type Configuration struct {
	Interfaces         InterfaceConfiguration
	Procedure          *Procedure
	GlobalPauseEnabled bool
	BackgroundColor    Color
	// MaxPause bounds a global pause; zero means a pause never aborts the run.
	MaxPause time.Duration

	Variables *Variables
	PauseGate *PauseGate
}
