// Package ltl validates action sequences against temporal-logic
// specifications and repairs them within a bounded attempt budget.
//
// Formulas use standard LTL operators {always, eventually, next, until,
// and, or, not} over state predicates, evaluated on the finite state trace
// of a sequence with the final state stuttering infinitely. Validation is
// a small state machine (Unvalidated -> Checking -> Valid | Invalid);
// only high-priority violations invalidate, lower priorities surface as
// warnings.
package ltl

import (
	"fmt"
	"strings"

	"github.com/sequorlabs/sequor/internal/model"
)

// Formula is a temporal-logic formula over state predicates.
type Formula interface {
	// evalAt evaluates the formula at trace position i. The trace is
	// finite; the final state is treated as stuttering infinitely, so
	// positions past the end read the last state.
	evalAt(trace []model.State, i int) bool

	// propositional reports whether the formula is temporal-free, i.e.
	// evaluable against a single state.
	propositional() bool

	String() string
}

// Eval evaluates a formula over a full state trace (position 0). An empty
// trace satisfies nothing and vacuously fails every formula; callers
// always have at least the initial state.
func Eval(f Formula, trace []model.State) bool {
	if len(trace) == 0 {
		return false
	}
	return f.evalAt(trace, 0)
}

// EvalState evaluates a propositional (temporal-free) formula against a
// single state. Returns an error for temporal formulas.
func EvalState(f Formula, s model.State) (bool, error) {
	if !f.propositional() {
		return false, fmt.Errorf("ltl: formula %s is temporal and cannot be evaluated on a single state", f)
	}
	return f.evalAt([]model.State{s}, 0), nil
}

// ---- Propositional layer ----

type atom struct {
	pred model.Predicate
}

// Atom lifts a state predicate into a formula.
func Atom(p model.Predicate) Formula {
	return atom{pred: p}
}

func (a atom) evalAt(trace []model.State, i int) bool {
	return a.pred.Satisfied(stutter(trace, i))
}

func (a atom) propositional() bool { return true }

func (a atom) String() string { return a.pred.String() }

type notF struct {
	inner Formula
}

// Not negates a formula.
func Not(f Formula) Formula { return notF{inner: f} }

func (n notF) evalAt(trace []model.State, i int) bool {
	return !n.inner.evalAt(trace, i)
}

func (n notF) propositional() bool { return n.inner.propositional() }

func (n notF) String() string { return fmt.Sprintf("not(%s)", n.inner) }

type andF struct {
	operands []Formula
}

// And is the conjunction of its operands. An empty conjunction is true.
func And(fs ...Formula) Formula { return andF{operands: fs} }

func (a andF) evalAt(trace []model.State, i int) bool {
	for _, f := range a.operands {
		if !f.evalAt(trace, i) {
			return false
		}
	}
	return true
}

func (a andF) propositional() bool { return allPropositional(a.operands) }

func (a andF) String() string { return renderNary("and", a.operands) }

type orF struct {
	operands []Formula
}

// Or is the disjunction of its operands. An empty disjunction is false.
func Or(fs ...Formula) Formula { return orF{operands: fs} }

func (o orF) evalAt(trace []model.State, i int) bool {
	for _, f := range o.operands {
		if f.evalAt(trace, i) {
			return true
		}
	}
	return false
}

func (o orF) propositional() bool { return allPropositional(o.operands) }

func (o orF) String() string { return renderNary("or", o.operands) }

// ---- Temporal layer ----

type nextF struct {
	inner Formula
}

// Next holds iff the operand holds at the following position. At the end
// of the trace the final state stutters, so Next reads the final state
// again.
func Next(f Formula) Formula { return nextF{inner: f} }

func (n nextF) evalAt(trace []model.State, i int) bool {
	return n.inner.evalAt(trace, i+1)
}

func (n nextF) propositional() bool { return false }

func (n nextF) String() string { return fmt.Sprintf("next(%s)", n.inner) }

type alwaysF struct {
	inner Formula
}

// Always holds iff the operand holds at every position from here on.
// Under stuttering, checking every remaining trace position suffices.
func Always(f Formula) Formula { return alwaysF{inner: f} }

func (a alwaysF) evalAt(trace []model.State, i int) bool {
	for j := clamp(trace, i); j < len(trace); j++ {
		if !a.inner.evalAt(trace, j) {
			return false
		}
	}
	return true
}

func (a alwaysF) propositional() bool { return false }

func (a alwaysF) String() string { return fmt.Sprintf("always(%s)", a.inner) }

type eventuallyF struct {
	inner Formula
}

// Eventually holds iff the operand holds at some position from here on.
func Eventually(f Formula) Formula { return eventuallyF{inner: f} }

func (e eventuallyF) evalAt(trace []model.State, i int) bool {
	for j := clamp(trace, i); j < len(trace); j++ {
		if e.inner.evalAt(trace, j) {
			return true
		}
	}
	return false
}

func (e eventuallyF) propositional() bool { return false }

func (e eventuallyF) String() string { return fmt.Sprintf("eventually(%s)", e.inner) }

type untilF struct {
	left  Formula
	right Formula
}

// Until holds iff the right operand holds at some position from here on
// and the left operand holds at every position before it.
func Until(left, right Formula) Formula { return untilF{left: left, right: right} }

func (u untilF) evalAt(trace []model.State, i int) bool {
	start := clamp(trace, i)
	for j := start; j < len(trace); j++ {
		if u.right.evalAt(trace, j) {
			return true
		}
		if !u.left.evalAt(trace, j) {
			return false
		}
	}
	return false
}

func (u untilF) propositional() bool { return false }

func (u untilF) String() string { return fmt.Sprintf("until(%s, %s)", u.left, u.right) }

// ---- helpers ----

// stutter reads position i of the trace with the final state repeated
// past the end.
func stutter(trace []model.State, i int) model.State {
	if i >= len(trace) {
		return trace[len(trace)-1]
	}
	return trace[i]
}

func clamp(trace []model.State, i int) int {
	if i >= len(trace) {
		return len(trace) - 1
	}
	return i
}

func allPropositional(fs []Formula) bool {
	for _, f := range fs {
		if !f.propositional() {
			return false
		}
	}
	return true
}

func renderNary(op string, fs []Formula) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%s(%s)", op, strings.Join(parts, ", "))
}

// InvariantBody returns the propositional body of an `always` formula, or
// nil when the formula is not a propositional safety invariant. The
// corrector uses this to turn high-priority safety specs into search
// pruning constraints.
func InvariantBody(f Formula) Formula {
	a, ok := f.(alwaysF)
	if !ok || !a.inner.propositional() {
		return nil
	}
	return a.inner
}
