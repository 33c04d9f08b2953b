package domain

import "strconv"

// Target is the task index a condition transitions to once satisfied.
// The zero value means "advance to the next sequential task".
type Target struct {
	index int
	set   bool
}

// Next returns the target that advances to the task after the current one.
func Next() Target {
	return Target{}
}

// To returns an absolute target.
func To(index int) Target {
	return Target{index: index, set: true}
}

// IsNext reports whether the target carries no explicit index.
func (t Target) IsNext() bool {
	return !t.set
}

// Index returns the explicit index and whether one is set.
func (t Target) Index() (int, bool) {
	return t.index, t.set
}

// Resolve returns the absolute index the target denotes from the given position.
func (t Target) Resolve(current int) int {
	if !t.set {
		return current + 1
	}
	return t.index
}

func (t Target) String() string {
	if !t.set {
		return "next"
	}
	return strconv.Itoa(t.index)
}
