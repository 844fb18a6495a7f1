package model

import (
	"errors"
	"fmt"
)

// PreconditionError reports an attempt to apply an action to a state where
// a required predicate does not hold. During search expansion this is a
// normal, locally-recovered condition (the action is skipped), never a
// propagated fault.
type PreconditionError struct {
	ActionID  string
	Predicate Predicate
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("action %q: precondition not satisfied: %s", e.ActionID, e.Predicate)
}

// IsPreconditionError reports whether err (or anything it wraps) is a
// precondition failure.
func IsPreconditionError(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// ContinuityError reports a broken sequence continuity invariant: applying
// transition i's action to its "from" state did not reproduce transition
// i+1's "from" state.
type ContinuityError struct {
	Index    int
	ActionID string
}

func (e *ContinuityError) Error() string {
	return fmt.Sprintf("sequence: continuity broken at transition %d (action %q)", e.Index, e.ActionID)
}
