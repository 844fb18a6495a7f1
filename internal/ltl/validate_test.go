package ltl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sequorlabs/sequor/internal/model"
)

func moveAction(from, to string) model.Action {
	return model.Action{
		ID:            "move_" + from + "_" + to,
		Name:          "move " + from + " to " + to,
		Preconditions: []model.Predicate{{Key: "at", Value: model.String(from)}},
		Effects:       map[string]model.Value{"at": model.String(to)},
		Cost:          1,
		SuccessProb:   1,
	}
}

// walk builds a continuity-sound sequence visiting the given locations in
// order, starting from the first.
func walk(t *testing.T, locs ...string) (model.State, model.Sequence) {
	t.Helper()
	require.NotEmpty(t, locs)
	initial := model.State{"at": model.String(locs[0])}
	current := initial
	var seq model.Sequence
	for i := 1; i < len(locs); i++ {
		tr, err := model.NewTransition(current, moveAction(locs[i-1], locs[i]))
		require.NoError(t, err)
		seq = append(seq, tr)
		current = tr.To
	}
	return initial, seq
}

func TestValidate_PhaseTransitions(t *testing.T) {
	initial, seq := walk(t, "dock", "shelf")

	v := NewValidator()
	assert.Equal(t, PhaseUnvalidated, v.Phase())

	report := v.Validate(seq, initial, []Spec{
		{Name: "never_pit", Formula: Always(notAt("pit")), Priority: PriorityHigh},
	})
	assert.True(t, report.OK)
	assert.Equal(t, PhaseValid, v.Phase())

	report = v.Validate(seq, initial, []Spec{
		{Name: "stay_docked", Formula: Always(at("dock")), Priority: PriorityHigh},
	})
	assert.False(t, report.OK)
	assert.Equal(t, PhaseInvalid, v.Phase())
}

func TestValidate_PrioritySplit(t *testing.T) {
	// The path crosses the pit, violating one spec of each priority.
	// Only the high-priority one lands in Violations and flips OK.
	initial, seq := walk(t, "dock", "pit", "shelf")

	report := NewValidator().Validate(seq, initial, []Spec{
		{Name: "never_pit", Formula: Always(notAt("pit")), Priority: PriorityHigh},
		{Name: "prefer_aisle", Formula: Eventually(at("aisle")), Priority: PriorityMedium},
		{Name: "start_dock", Formula: at("aisle"), Priority: PriorityLow},
		{Name: "reach_shelf", Formula: Eventually(at("shelf")), Priority: PriorityHigh},
	})

	assert.False(t, report.OK)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, "never_pit", report.Violations[0].Spec)
	assert.Equal(t, PriorityHigh, report.Violations[0].Priority)
	require.Len(t, report.Warnings, 2)
	assert.Equal(t, "prefer_aisle", report.Warnings[0].Spec)
	assert.Equal(t, "start_dock", report.Warnings[1].Spec)
}

func TestValidate_EmptySequenceChecksInitialState(t *testing.T) {
	initial := model.State{"at": model.String("dock")}

	report := NewValidator().Validate(nil, initial, []Spec{
		{Name: "start_dock", Formula: at("dock"), Priority: PriorityHigh},
		{Name: "reach_shelf", Formula: Eventually(at("shelf")), Priority: PriorityHigh},
	})

	assert.False(t, report.OK)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, "reach_shelf", report.Violations[0].Spec)
}

func TestValidate_NilFormulaSkipped(t *testing.T) {
	initial, seq := walk(t, "dock", "shelf")

	report := NewValidator().Validate(seq, initial, []Spec{
		{Name: "broken", Formula: nil, Priority: PriorityHigh},
	})
	assert.True(t, report.OK)
	assert.Empty(t, report.Violations)
}

func TestParsePriority(t *testing.T) {
	for name, want := range map[string]Priority{
		"low": PriorityLow, "medium": PriorityMedium, "high": PriorityHigh,
	} {
		got, err := ParsePriority(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, name, got.String())
	}

	_, err := ParsePriority("critical")
	assert.Error(t, err)
}

func TestDetectRuntimeErrors(t *testing.T) {
	catalog := []model.Action{moveAction("dock", "aisle"), moveAction("aisle", "shelf")}
	initial, sound := walk(t, "dock", "aisle", "shelf")

	t.Run("sound sequence is clean", func(t *testing.T) {
		assert.Empty(t, DetectRuntimeErrors(sound, initial, catalog))
	})

	t.Run("unknown action", func(t *testing.T) {
		seq := model.Sequence{sound[0], sound[1]}
		seq[1].Action.ID = "teleport"
		errs := DetectRuntimeErrors(seq, initial, catalog)
		require.Len(t, errs, 1)
		assert.Equal(t, CodeUnknownAction, errs[0].Code)
		assert.Equal(t, 1, errs[0].Index)
		assert.Equal(t, "teleport", errs[0].ActionID)
	})

	t.Run("broken continuity", func(t *testing.T) {
		// Drop the middle hop: the shelf move's From no longer matches.
		seq := model.Sequence{sound[1]}
		errs := DetectRuntimeErrors(seq, initial, catalog)
		require.Len(t, errs, 1)
		assert.Equal(t, CodeContinuityBroken, errs[0].Code)
		// The precondition still holds in the recorded From state, so the
		// mismatch is the only defect reported.
		assert.Equal(t, 0, errs[0].Index)
	})

	t.Run("unsatisfied precondition", func(t *testing.T) {
		bad := sound[1]
		bad.From = model.State{"at": model.String("dock")}
		errs := DetectRuntimeErrors(model.Sequence{sound[0], bad}, initial, catalog)
		require.NotEmpty(t, errs)
		var codes []string
		for _, e := range errs {
			codes = append(codes, e.Code)
		}
		assert.Contains(t, codes, CodePreconditionUnsatisfied)
		assert.Contains(t, codes, CodeContinuityBroken)
	})
}
