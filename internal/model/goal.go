package model

import "slices"

// Goal is a target state descriptor. Want may be partial: only the listed
// keys are checked. Provenance carries the upstream natural-language origin
// of the goal and is opaque to this core.
type Goal struct {
	Want       map[string]Value `json:"want"`
	Provenance string           `json:"provenance,omitempty"`
}

// Reached reports whether every key present in the goal matches the state.
func (g Goal) Reached(s State) bool {
	for k, want := range g.Want {
		got, ok := s[k]
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

// Diff returns the goal keys not yet matching the state, in canonical key
// order. Used by heuristics and unmet-goal reporting.
func (g Goal) Diff(s State) []string {
	var unmet []string
	for k, want := range g.Want {
		got, ok := s[k]
		if !ok || !got.Equal(want) {
			unmet = append(unmet, k)
		}
	}
	slices.SortFunc(unmet, compareKeysRFC8785)
	return unmet
}
