package domain

import (
	"sort"
	"strings"
	"sync"
)

// Variables is a named string store shared by the conditions of a run.
// Writes happen on the tick goroutine; readers such as status endpoints
// may observe it concurrently.
type Variables struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewVariables creates an empty store.
func NewVariables() *Variables {
	return &Variables{values: make(map[string]string)}
}

// Set inserts or overwrites a value.
func (v *Variables) Set(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[name] = value
}

// Get returns the value for name, or "" when it is not set.
func (v *Variables) Get(name string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[name]
}

// Len returns the number of stored variables.
func (v *Variables) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.values)
}

// Snapshot returns a copy of every variable.
func (v *Variables) Snapshot() map[string]string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]string, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

// Substitute replaces every literal occurrence of a variable name in text
// with its value. Longer names are replaced first so that "AA" is never
// clobbered by a prior replacement of "A".
func (v *Variables) Substitute(text string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if len(v.values) == 0 {
		return text
	}

	keys := make([]string, 0, len(v.values))
	for k := range v.values {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		text = strings.ReplaceAll(text, k, v.values[k])
	}
	return text
}
