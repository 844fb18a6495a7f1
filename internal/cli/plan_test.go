package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sequorlabs/sequor/internal/plan"
)

const testDomain = `
action: move_dock_aisle: {
	pre: [{key: "at", value: "dock"}]
	effects: at: "aisle"
	cost: 1
}
action: move_aisle_shelf: {
	pre: [{key: "at", value: "aisle"}]
	effects: at: "shelf"
	cost: 1
}
`

const testProblem = `
initial:
  at: dock
goal:
  at: shelf
config:
  algorithm: bfs
`

// writeTestFixtures lays the domain and problem files into a temp dir.
func writeTestFixtures(t *testing.T, domain, problem string) (domainPath, problemPath string) {
	t.Helper()
	dir := t.TempDir()
	domainPath = filepath.Join(dir, "domain.cue")
	problemPath = filepath.Join(dir, "problem.yaml")
	require.NoError(t, os.WriteFile(domainPath, []byte(domain), 0o644))
	require.NoError(t, os.WriteFile(problemPath, []byte(problem), 0o644))
	return domainPath, problemPath
}

// execPlan runs the plan command body with a fixed request id and a
// captured output buffer.
func execPlan(t *testing.T, opts *PlanOptions, requestID string) (*bytes.Buffer, error) {
	t.Helper()
	if opts.RootOptions == nil {
		opts.RootOptions = &RootOptions{Format: "text"}
	}
	opts.IDGenerator = plan.NewFixedGenerator(requestID)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(context.Background())
	return &out, runPlan(opts, cmd)
}

func TestPlanCommand_Golden(t *testing.T) {
	domainPath, problemPath := writeTestFixtures(t, testDomain, testProblem)

	out, err := execPlan(t, &PlanOptions{
		Domain:   domainPath,
		Problem:  problemPath,
		MaxDepth: -1,
	}, "req-golden-1")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "plan_ok", out.Bytes())
}

func TestPlanCommand_DegradedGolden(t *testing.T) {
	domainPath, problemPath := writeTestFixtures(t, testDomain, `
initial:
  at: dock
goal:
  holding: box
`)

	out, err := execPlan(t, &PlanOptions{
		Domain:   domainPath,
		Problem:  problemPath,
		MaxDepth: -1,
	}, "req-golden-2")

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "plan_degraded", out.Bytes())
}

func TestPlanCommand_JSONOutput(t *testing.T) {
	domainPath, problemPath := writeTestFixtures(t, testDomain, testProblem)

	out, err := execPlan(t, &PlanOptions{
		RootOptions: &RootOptions{Format: "json"},
		Domain:      domainPath,
		Problem:     problemPath,
		MaxDepth:    -1,
	}, "req-json-1")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "req-json-1", data["request_id"])
	assert.Equal(t, true, data["success"])
	assert.Equal(t, []any{"move_dock_aisle", "move_aisle_shelf"}, data["actions"])
}

func TestPlanCommand_FlagOverridesRejectBadNames(t *testing.T) {
	domainPath, problemPath := writeTestFixtures(t, testDomain, testProblem)

	_, err := execPlan(t, &PlanOptions{
		Domain:    domainPath,
		Problem:   problemPath,
		Algorithm: "dijkstra",
		MaxDepth:  -1,
	}, "req-bad-1")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPlanCommand_MissingDomainFile(t *testing.T) {
	_, problemPath := writeTestFixtures(t, testDomain, testProblem)

	_, err := execPlan(t, &PlanOptions{
		Domain:   filepath.Join(t.TempDir(), "absent.cue"),
		Problem:  problemPath,
		MaxDepth: -1,
	}, "req-missing-1")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPlanCommand_StatsDBRecordsOutcomes(t *testing.T) {
	domainPath, problemPath := writeTestFixtures(t, testDomain, testProblem)
	dbPath := filepath.Join(t.TempDir(), "stats.db")

	_, err := execPlan(t, &PlanOptions{
		Domain:   domainPath,
		Problem:  problemPath,
		MaxDepth: -1,
		StatsDB:  dbPath,
	}, "req-stats-1")
	require.NoError(t, err)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	err = runStats(&StatsOptions{
		RootOptions: &RootOptions{Format: "text"},
		Database:    dbPath,
	}, cmd)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "move_dock_aisle")
	assert.Contains(t, out.String(), "move_aisle_shelf")
}
