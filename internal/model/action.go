package model

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
)

// Predicate is a single condition over one state variable: the variable at
// Key must (or, when Negated, must not) hold exactly Value.
//
// A missing key is unsatisfied either way: "at != danger_zone" does not hold
// for a state that has no "at" variable at all. This keeps Satisfied total:
// it never panics and never invents a default.
type Predicate struct {
	Key     string `json:"key"`
	Value   Value  `json:"value"`
	Negated bool   `json:"negated,omitempty"`
}

// Satisfied reports whether the predicate holds in the given state.
func (p Predicate) Satisfied(s State) bool {
	current, ok := s[p.Key]
	if !ok {
		return false
	}
	if p.Negated {
		return !current.Equal(p.Value)
	}
	return current.Equal(p.Value)
}

// String renders the predicate in a readable form.
func (p Predicate) String() string {
	op := "=="
	if p.Negated {
		op = "!="
	}
	return fmt.Sprintf("%s %s %s", p.Key, op, Render(p.Value))
}

// Action is a named operation with preconditions, effects, a non-negative
// cost, and a declared success probability.
type Action struct {
	// ID uniquely identifies the action within a catalog.
	ID string `json:"id"`

	// Name is the human-readable name, also used by the transition
	// predictor for descriptor matching.
	Name string `json:"name"`

	// Preconditions must ALL be satisfied for the action to apply
	// (conjunction).
	Preconditions []Predicate `json:"preconditions,omitempty"`

	// Effects are the assignments applied to produce the successor state.
	Effects map[string]Value `json:"effects"`

	// Cost is the action's duration/cost. Never negative.
	Cost float64 `json:"cost"`

	// SuccessProb is the declared success probability in [0,1].
	SuccessProb float64 `json:"success_prob"`
}

// Validate checks the action invariants at construction time. Catalog
// loading calls this so malformed actions surface as a typed configuration
// error immediately rather than failing deep inside a search.
func (a Action) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("action: empty id")
	}
	if a.Cost < 0 {
		return fmt.Errorf("action %q: negative cost %v", a.ID, a.Cost)
	}
	if a.SuccessProb < 0 || a.SuccessProb > 1 {
		return fmt.Errorf("action %q: success probability %v outside [0,1]", a.ID, a.SuccessProb)
	}
	if len(a.Effects) == 0 {
		return fmt.Errorf("action %q: no effects", a.ID)
	}
	for _, p := range a.Preconditions {
		if p.Key == "" {
			return fmt.Errorf("action %q: precondition with empty key", a.ID)
		}
		if p.Value == nil {
			return fmt.Errorf("action %q: precondition %q with nil value", a.ID, p.Key)
		}
	}
	for k, v := range a.Effects {
		if k == "" {
			return fmt.Errorf("action %q: effect with empty key", a.ID)
		}
		if v == nil {
			return fmt.Errorf("action %q: effect %q with nil value", a.ID, k)
		}
	}
	return nil
}

// Applicable reports whether every precondition is satisfied in the state.
func (a Action) Applicable(s State) bool {
	for _, p := range a.Preconditions {
		if !p.Satisfied(s) {
			return false
		}
	}
	return true
}

// Apply returns the successor state produced by the action's effects.
// Fails fast with *PreconditionError before touching any effect when a
// precondition is unsatisfied; the input state is never partially mutated
// (it is never mutated at all).
func (a Action) Apply(s State) (State, error) {
	for _, p := range a.Preconditions {
		if !p.Satisfied(s) {
			return nil, &PreconditionError{ActionID: a.ID, Predicate: p}
		}
	}
	return s.With(a.Effects), nil
}

// marshalCanonical produces a deterministic byte form of the action for
// catalog hashing. Preconditions keep declaration order (it is part of the
// catalog's identity); effects are key-sorted.
func (a Action) marshalCanonical() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(a.ID)
	buf.WriteByte(0x00)
	buf.WriteString(a.Name)
	buf.WriteByte(0x00)

	for _, p := range a.Preconditions {
		v, err := marshalCanonicalValue(p.Value)
		if err != nil {
			return nil, err
		}
		buf.WriteString(p.Key)
		buf.WriteByte('=')
		buf.Write(v)
		if p.Negated {
			buf.WriteByte('!')
		}
		buf.WriteByte(';')
	}
	buf.WriteByte(0x00)

	keys := make([]string, 0, len(a.Effects))
	for k := range a.Effects {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	for _, k := range keys {
		v, err := marshalCanonicalValue(a.Effects[k])
		if err != nil {
			return nil, err
		}
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.Write(v)
		buf.WriteByte(';')
	}
	buf.WriteByte(0x00)

	buf.WriteString(strconv.FormatFloat(a.Cost, 'g', -1, 64))
	buf.WriteByte(0x00)
	buf.WriteString(strconv.FormatFloat(a.SuccessProb, 'g', -1, 64))
	return buf.Bytes(), nil
}
