package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sequorlabs/sequor/internal/heuristic"
	"github.com/sequorlabs/sequor/internal/model"
	"github.com/sequorlabs/sequor/internal/search"
)

func TestParseProblem_Full(t *testing.T) {
	src := []byte(`
initial:
  at: dock
  holding: nothing
  battery: 0.8
goal:
  at: shelf
  stocked: true
provenance: "stock the top shelf"
descriptors:
  - name: "move toward the shelf"
    effect_keys: [at]
  - name: "drop the box"
config:
  algorithm: astar
  heuristic: state_difference
  max_depth: 12
  max_time: 2s
  cache: true
  cache_capacity: 16
  max_corrections: 2
`)

	p, err := ParseProblem(src)
	require.NoError(t, err)

	assert.Equal(t, model.String("dock"), p.Initial["at"])
	assert.Equal(t, model.Number(0.8), p.Initial["battery"])
	assert.Equal(t, model.Bool(true), p.Goal.Want["stocked"])
	assert.Equal(t, "stock the top shelf", p.Goal.Provenance)

	require.Len(t, p.Descriptors, 2)
	assert.Equal(t, "move toward the shelf", p.Descriptors[0].Name)
	assert.Equal(t, []string{"at"}, p.Descriptors[0].EffectKeys)

	assert.Equal(t, search.AStar, p.Config.Algorithm)
	assert.Equal(t, heuristic.StateDifference, p.Config.Heuristic)
	assert.Equal(t, 12, p.Config.MaxDepth)
	assert.False(t, p.Config.ZeroDepth)
	assert.Equal(t, 2*time.Second, p.Config.MaxTime)
	assert.True(t, p.Config.EnableCache)
	assert.Equal(t, 16, p.Config.CacheCapacity)
	assert.Equal(t, 2, p.Config.MaxCorrections)
}

func TestParseProblem_Minimal(t *testing.T) {
	p, err := ParseProblem([]byte("goal: {at: shelf}\n"))
	require.NoError(t, err)

	assert.Empty(t, p.Initial)
	assert.Equal(t, model.String("shelf"), p.Goal.Want["at"])
	// Zero config: assembler defaults apply downstream.
	assert.Zero(t, p.Config.Algorithm)
	assert.Zero(t, p.Config.Heuristic)
}

func TestParseProblem_ZeroDepthIsExplicit(t *testing.T) {
	p, err := ParseProblem([]byte("goal: {at: shelf}\nconfig: {max_depth: 0}\n"))
	require.NoError(t, err)
	assert.True(t, p.Config.ZeroDepth)
	assert.Zero(t, p.Config.MaxDepth)
}

func TestParseProblem_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains string
	}{
		{"missing goal", "initial: {at: dock}\n", "goal is required"},
		{"unknown algorithm", "goal: {at: shelf}\nconfig: {algorithm: dijkstra}\n", "want bfs, dfs, astar, or greedy"},
		{"unknown heuristic", "goal: {at: shelf}\nconfig: {heuristic: manhattan}\n", "want goal_distance, action_count, or state_difference"},
		{"bad duration", "goal: {at: shelf}\nconfig: {max_time: fast}\n", "max_time"},
		{"non-scalar state value", "goal: {at: shelf}\ninitial: {pose: {x: 1}}\n", "unsupported state value"},
		{"not yaml", ":\n  - [", "yaml"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseProblem([]byte(tc.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}
