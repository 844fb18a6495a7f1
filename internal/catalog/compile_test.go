package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sequorlabs/sequor/internal/ltl"
	"github.com/sequorlabs/sequor/internal/model"
)

const warehouseDomain = `
action: move_dock_shelf: {
	name: "move from dock to shelf"
	pre: [{key: "at", value: "dock"}]
	effects: at: "shelf"
	cost:    1.5
	success_prob: 0.95
}
action: drop_box: {
	pre: [
		{key: "at", value: "shelf"},
		{key: "holding", value: "nothing", negated: true},
	]
	effects: {
		holding: "nothing"
		stocked: true
	}
	cost: 1
}
spec: avoid_danger_zone: {
	priority: "high"
	formula: always: atom: {key: "at", value: "danger_zone", negated: true}
}
spec: eventually_stocked: {
	formula: eventually: atom: {key: "stocked", value: true}
}
`

func TestCompileString_FullDomain(t *testing.T) {
	d, err := CompileString(warehouseDomain, "warehouse.cue")
	require.NoError(t, err)

	require.Equal(t, 2, d.Catalog.Len())

	mv := d.Catalog.Actions()[0]
	assert.Equal(t, "move_dock_shelf", mv.ID)
	assert.Equal(t, "move from dock to shelf", mv.Name)
	require.Len(t, mv.Preconditions, 1)
	assert.Equal(t, model.Predicate{Key: "at", Value: model.String("dock")}, mv.Preconditions[0])
	assert.Equal(t, model.String("shelf"), mv.Effects["at"])
	assert.Equal(t, 1.5, mv.Cost)
	assert.Equal(t, 0.95, mv.SuccessProb)

	drop := d.Catalog.Actions()[1]
	assert.Equal(t, "drop_box", drop.ID)
	assert.Equal(t, "drop_box", drop.Name) // name defaults to the id
	require.Len(t, drop.Preconditions, 2)
	assert.True(t, drop.Preconditions[1].Negated)
	assert.Equal(t, model.Bool(true), drop.Effects["stocked"])
	assert.Equal(t, 1.0, drop.SuccessProb) // success_prob defaults to 1

	require.Len(t, d.Specs, 2)
	assert.Equal(t, "avoid_danger_zone", d.Specs[0].Name)
	assert.Equal(t, ltl.PriorityHigh, d.Specs[0].Priority)
	assert.Equal(t, "always(at != danger_zone)", d.Specs[0].Formula.String())
	assert.Equal(t, ltl.PriorityMedium, d.Specs[1].Priority) // priority defaults to medium
}

func TestCompileString_NestedFormulas(t *testing.T) {
	src := `
action: noop: {
	effects: done: true
}
spec: layered: {
	priority: "low"
	formula: always: or: [
		{atom: {key: "phase", value: "idle"}},
		{until: {
			left:  {atom: {key: "phase", value: "busy"}},
			right: {atom: {key: "done", value: true}},
		}},
		{not: {next: {atom: {key: "phase", value: "crashed"}}}},
	]
}
`
	d, err := CompileString(src, "layered.cue")
	require.NoError(t, err)
	require.Len(t, d.Specs, 1)
	assert.Equal(t,
		"always(or(phase == idle, until(phase == busy, done == true), not(next(phase == crashed))))",
		d.Specs[0].Formula.String())
}

func TestCompileString_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains string
	}{
		{
			name:     "no actions",
			src:      `spec: s: {formula: atom: {key: "a", value: 1}}`,
			contains: "at least one action is required",
		},
		{
			name:     "missing effects",
			src:      `action: broken: {cost: 1}`,
			contains: "effects are required",
		},
		{
			name: "missing formula",
			src: `
action: noop: {effects: done: true}
spec: hollow: {priority: "high"}
`,
			contains: "formula is required",
		},
		{
			name: "unknown priority",
			src: `
action: noop: {effects: done: true}
spec: odd: {
	priority: "critical"
	formula: atom: {key: "a", value: 1}
}
`,
			contains: "unknown priority",
		},
		{
			name: "unknown formula operator",
			src: `
action: noop: {effects: done: true}
spec: odd: {formula: sometimes: {atom: {key: "a", value: 1}}}
`,
			contains: "expected one of",
		},
		{
			name: "predicate missing key",
			src: `
action: noop: {
	pre: [{value: "dock"}]
	effects: done: true
}
`,
			contains: "key is required",
		},
		{
			name: "invalid action surfaces validation",
			src: `
action: bad_prob: {
	effects: done: true
	success_prob: 2.0
}
`,
			contains: "success probability",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CompileString(tc.src, tc.name+".cue")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestCompileString_ErrorCarriesPosition(t *testing.T) {
	src := `
action: broken: {
	cost: 1
}
`
	_, err := CompileString(src, "pos.cue")
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.True(t, cerr.Pos.IsValid())
	assert.True(t, strings.HasPrefix(cerr.Error(), "pos.cue:"), cerr.Error())
}

func TestCompileString_SyntaxError(t *testing.T) {
	_, err := CompileString(`action: { this is not cue`, "bad.cue")
	assert.Error(t, err)
}
