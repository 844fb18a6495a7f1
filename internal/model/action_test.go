package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moveAction(from, to string) Action {
	return Action{
		ID:            "move_" + from + "_" + to,
		Name:          "move " + from + " to " + to,
		Preconditions: []Predicate{{Key: "at", Value: String(from)}},
		Effects:       map[string]Value{"at": String(to)},
		Cost:          1,
		SuccessProb:   0.9,
	}
}

func TestPredicate_Satisfied(t *testing.T) {
	state := State{"at": String("start"), "armed": Bool(true)}

	testCases := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"match", Predicate{Key: "at", Value: String("start")}, true},
		{"mismatch", Predicate{Key: "at", Value: String("shelf")}, false},
		{"missing key", Predicate{Key: "holding", Value: String("box")}, false},
		{"negated match", Predicate{Key: "at", Value: String("shelf"), Negated: true}, true},
		{"negated mismatch", Predicate{Key: "at", Value: String("start"), Negated: true}, false},
		{"negated missing key still unsatisfied", Predicate{Key: "holding", Value: String("box"), Negated: true}, false},
		{"bool value", Predicate{Key: "armed", Value: Bool(true)}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.pred.Satisfied(state))
		})
	}
}

func TestAction_ApplyProducesNewState(t *testing.T) {
	initial := State{"at": String("start")}
	act := moveAction("start", "shelf")

	next, err := act.Apply(initial)
	require.NoError(t, err)

	assert.True(t, next["at"].Equal(String("shelf")))
	assert.True(t, initial["at"].Equal(String("start")), "input state must not be mutated")
}

func TestAction_ApplyFailsFastOnPrecondition(t *testing.T) {
	initial := State{"at": String("dock")}
	act := moveAction("start", "shelf")

	next, err := act.Apply(initial)
	require.Error(t, err)
	assert.Nil(t, next, "no partial application")
	assert.True(t, IsPreconditionError(err))

	var pe *PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, act.ID, pe.ActionID)
	assert.Equal(t, "at", pe.Predicate.Key)
}

func TestAction_Validate(t *testing.T) {
	valid := moveAction("a", "b")
	require.NoError(t, valid.Validate())

	testCases := []struct {
		name    string
		mutate  func(*Action)
		wantErr string
	}{
		{"empty id", func(a *Action) { a.ID = "" }, "empty id"},
		{"negative cost", func(a *Action) { a.Cost = -1 }, "negative cost"},
		{"probability above one", func(a *Action) { a.SuccessProb = 1.5 }, "outside [0,1]"},
		{"probability below zero", func(a *Action) { a.SuccessProb = -0.1 }, "outside [0,1]"},
		{"no effects", func(a *Action) { a.Effects = nil }, "no effects"},
		{"nil effect value", func(a *Action) { a.Effects = map[string]Value{"x": nil} }, "nil value"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := moveAction("a", "b")
			tc.mutate(&a)
			err := a.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSequence_ContinuityAndReplay(t *testing.T) {
	initial := State{"at": String("start")}
	t1, err := NewTransition(initial, moveAction("start", "aisle"))
	require.NoError(t, err)
	t2, err := NewTransition(t1.To, moveAction("aisle", "shelf"))
	require.NoError(t, err)

	seq := Sequence{t1, t2}
	require.NoError(t, seq.CheckContinuity(initial))

	final, err := seq.Replay(initial)
	require.NoError(t, err)
	assert.True(t, final["at"].Equal(String("shelf")))
	assert.Equal(t, 2.0, seq.Cost())
	assert.Equal(t, []string{"move_start_aisle", "move_aisle_shelf"}, seq.ActionIDs())
}

func TestSequence_ContinuityBrokenDetected(t *testing.T) {
	initial := State{"at": String("start")}
	t1, err := NewTransition(initial, moveAction("start", "aisle"))
	require.NoError(t, err)
	// t2 claims to start from a state t1 did not produce.
	t2, err := NewTransition(State{"at": String("dock")}, Action{
		ID:            "move_dock_shelf",
		Name:          "move dock to shelf",
		Preconditions: []Predicate{{Key: "at", Value: String("dock")}},
		Effects:       map[string]Value{"at": String("shelf")},
		Cost:          1,
		SuccessProb:   1,
	})
	require.NoError(t, err)

	seq := Sequence{t1, t2}
	err = seq.CheckContinuity(initial)
	require.Error(t, err)

	var ce *ContinuityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Index)
}

func TestSequence_TraceIncludesInitial(t *testing.T) {
	initial := State{"at": String("start")}
	t1, err := NewTransition(initial, moveAction("start", "shelf"))
	require.NoError(t, err)

	trace := Sequence{t1}.Trace(initial)
	require.Len(t, trace, 2)
	assert.True(t, trace[0].Equal(initial))
	assert.True(t, trace[1].Equal(t1.To))

	empty := Sequence{}.Trace(initial)
	require.Len(t, empty, 1)
	assert.True(t, empty[0].Equal(initial))
}

func TestGoal_ReachedAndDiff(t *testing.T) {
	goal := Goal{Want: map[string]Value{"at": String("shelf"), "holding": String("box")}}

	partway := State{"at": String("shelf")}
	assert.False(t, goal.Reached(partway))
	assert.Equal(t, []string{"holding"}, goal.Diff(partway))

	done := State{"at": String("shelf"), "holding": String("box"), "extra": Number(1)}
	assert.True(t, goal.Reached(done), "extra keys in the state are fine")
	assert.Empty(t, goal.Diff(done))
}

func TestCatalogHash_OrderSensitive(t *testing.T) {
	a := moveAction("a", "b")
	b := moveAction("b", "c")

	h1, err := CatalogHash([]Action{a, b})
	require.NoError(t, err)
	h2, err := CatalogHash([]Action{b, a})
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "catalog identity includes declaration order")
}
