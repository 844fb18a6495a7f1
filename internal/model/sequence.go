package model

// Transition is a directed edge between two concrete states, carrying the
// action that produced it. Transitions are owned by the sequence that
// contains them and are discarded with it.
type Transition struct {
	Action Action `json:"action"`
	From   State  `json:"from"`
	To     State  `json:"to"`
}

// NewTransition applies the action to the state and returns the resulting
// transition. Fails with *PreconditionError when the action is not
// applicable.
func NewTransition(from State, a Action) (Transition, error) {
	to, err := a.Apply(from)
	if err != nil {
		return Transition{}, err
	}
	return Transition{Action: a, From: from, To: to}, nil
}

// Sequence is an ordered list of transitions from an initial state toward a
// goal state.
//
// Invariant (continuity): transition i's To state equals transition i+1's
// From state, and replaying transition i's action from its From state
// reproduces its To state. CheckContinuity verifies both.
type Sequence []Transition

// Actions returns the ordered actions of the sequence.
func (seq Sequence) Actions() []Action {
	out := make([]Action, len(seq))
	for i, t := range seq {
		out[i] = t.Action
	}
	return out
}

// ActionIDs returns the ordered action ids of the sequence.
func (seq Sequence) ActionIDs() []string {
	out := make([]string, len(seq))
	for i, t := range seq {
		out[i] = t.Action.ID
	}
	return out
}

// Cost returns the summed action cost of the sequence.
func (seq Sequence) Cost() float64 {
	var total float64
	for _, t := range seq {
		total += t.Action.Cost
	}
	return total
}

// Final returns the state after the last transition, or the given initial
// state for an empty sequence.
func (seq Sequence) Final(initial State) State {
	if len(seq) == 0 {
		return initial
	}
	return seq[len(seq)-1].To
}

// Trace returns the full state trace of the sequence starting from initial:
// initial followed by each transition's To state. The trace always has
// len(seq)+1 entries; it is the input the temporal-logic validator replays.
func (seq Sequence) Trace(initial State) []State {
	trace := make([]State, 0, len(seq)+1)
	trace = append(trace, initial)
	for _, t := range seq {
		trace = append(trace, t.To)
	}
	return trace
}

// CheckContinuity verifies the continuity invariant against the given
// initial state. Returns the first *ContinuityError found, or nil.
func (seq Sequence) CheckContinuity(initial State) error {
	current := initial
	for i, t := range seq {
		if !current.Equal(t.From) {
			return &ContinuityError{Index: i, ActionID: t.Action.ID}
		}
		next, err := t.Action.Apply(t.From)
		if err != nil {
			// Precondition failures are the runtime guard's concern;
			// here the replayed To mismatch is what breaks continuity.
			return &ContinuityError{Index: i, ActionID: t.Action.ID}
		}
		if !next.Equal(t.To) {
			return &ContinuityError{Index: i, ActionID: t.Action.ID}
		}
		current = t.To
	}
	return nil
}

// Replay applies the sequence's actions in order starting from initial and
// returns the resulting state. Unlike CheckContinuity it trusts the
// recorded actions, not the recorded states; it is how callers verify the
// round-trip property (success implies the replayed final state reaches the
// goal).
func (seq Sequence) Replay(initial State) (State, error) {
	current := initial
	for _, t := range seq {
		next, err := t.Action.Apply(current)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}
