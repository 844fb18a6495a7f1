package model

import (
	"slices"
	"unicode/utf16"
)

// State is a snapshot of world variables and their values.
//
// A State is treated as an immutable value: With and Apply return fresh
// maps, and callers must never mutate a State handed to another component.
// Equality and fingerprinting are defined over the full mapping, which makes
// State usable as a search visited-set key.
type State map[string]Value

// NewState builds a State from a plain scalar map. Load-boundary helper:
// rejects non-scalar values via ValueOf.
func NewState(vars map[string]any) (State, error) {
	s := make(State, len(vars))
	for k, v := range vars {
		val, err := ValueOf(v)
		if err != nil {
			return nil, err
		}
		s[k] = val
	}
	return s, nil
}

// Clone returns an independent copy of the state.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// With returns a new State with the given assignments applied on top of the
// receiver. The receiver is not modified.
func (s State) With(assignments map[string]Value) State {
	out := s.Clone()
	for k, v := range assignments {
		out[k] = v
	}
	return out
}

// Equal reports whether two states hold exactly the same mapping.
func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func (s State) SortedKeys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering as
// required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}
