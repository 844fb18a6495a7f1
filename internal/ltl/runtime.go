package ltl

import (
	"fmt"

	"github.com/sequorlabs/sequor/internal/model"
)

// Runtime error codes. These classify structural defects in an executed
// or proposed sequence, independent of any temporal spec.
const (
	CodeContinuityBroken        = "CONTINUITY_BROKEN"
	CodePreconditionUnsatisfied = "PRECONDITION_UNSATISFIED"
	CodeUnknownAction           = "UNKNOWN_ACTION"
)

// RuntimeError describes one structural defect found at a transition.
type RuntimeError struct {
	Code     string
	Index    int
	ActionID string
	Message  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s at transition %d (action %q): %s", e.Code, e.Index, e.ActionID, e.Message)
}

// DetectRuntimeErrors walks a sequence from the initial state and reports
// every structural defect: actions absent from the catalog, transitions
// whose From state disagrees with the previous To state, and transitions
// whose action preconditions do not hold in their From state. Detection
// continues past defects so one pass reports them all.
func DetectRuntimeErrors(seq model.Sequence, initial model.State, catalog []model.Action) []RuntimeError {
	known := make(map[string]model.Action, len(catalog))
	for _, a := range catalog {
		known[a.ID] = a
	}

	var errs []RuntimeError
	current := initial
	for i, t := range seq {
		if _, ok := known[t.Action.ID]; !ok {
			errs = append(errs, RuntimeError{
				Code:     CodeUnknownAction,
				Index:    i,
				ActionID: t.Action.ID,
				Message:  "action is not in the catalog",
			})
		}
		if !current.Equal(t.From) {
			errs = append(errs, RuntimeError{
				Code:     CodeContinuityBroken,
				Index:    i,
				ActionID: t.Action.ID,
				Message:  "transition From state does not match the preceding state",
			})
		}
		for _, p := range t.Action.Preconditions {
			if !p.Satisfied(t.From) {
				errs = append(errs, RuntimeError{
					Code:     CodePreconditionUnsatisfied,
					Index:    i,
					ActionID: t.Action.ID,
					Message:  fmt.Sprintf("precondition %s does not hold", p),
				})
				break
			}
		}
		current = t.To
	}
	return errs
}
