package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sequorlabs/sequor/internal/catalog"
	"github.com/sequorlabs/sequor/internal/heuristic"
	"github.com/sequorlabs/sequor/internal/plan"
	"github.com/sequorlabs/sequor/internal/search"
	"github.com/sequorlabs/sequor/internal/stats"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Domain    string
	Problem   string
	Algorithm string
	Heuristic string
	MaxDepth  int
	MaxTime   time.Duration
	Cache     bool
	StatsDB   string

	// IDGenerator allows overriding the request id source (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator plan.IDGenerator
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts, MaxDepth: -1}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a validated action sequence",
		Long: `Plan an action sequence from a CUE domain and a YAML problem.

The domain declares the action catalog and the temporal specifications;
the problem declares the initial state, the goal, and optional search
configuration. Flags override the problem's configuration.

Example:
  sequor plan -d warehouse.cue -p restock.yaml
  sequor plan -d warehouse.cue -p restock.yaml --algorithm astar --max-time 2s`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Domain, "domain", "d", "", "path to CUE domain file (required)")
	cmd.Flags().StringVarP(&opts.Problem, "problem", "p", "", "path to YAML problem file (required)")
	cmd.Flags().StringVar(&opts.Algorithm, "algorithm", "", "search algorithm (bfs|dfs|astar|greedy)")
	cmd.Flags().StringVar(&opts.Heuristic, "heuristic", "", "heuristic (goal_distance|action_count|state_difference)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", -1, "depth cap (0 checks only the initial state)")
	cmd.Flags().DurationVar(&opts.MaxTime, "max-time", 0, "wall-clock search budget")
	cmd.Flags().BoolVar(&opts.Cache, "cache", false, "enable the response cache")
	cmd.Flags().StringVar(&opts.StatsDB, "stats-db", "", "path to SQLite statistics database")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("problem")

	return cmd
}

func runPlan(opts *PlanOptions, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	domain, err := catalog.CompileFile(opts.Domain)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile domain", err)
	}
	problem, err := catalog.LoadProblem(opts.Problem)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load problem", err)
	}
	cfg, err := applyFlagOverrides(problem.Config, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	assemblerOpts := []plan.Option{}
	if opts.IDGenerator != nil {
		assemblerOpts = append(assemblerOpts, plan.WithIDGenerator(opts.IDGenerator))
	}
	if opts.StatsDB != "" {
		store, err := stats.Open(opts.StatsDB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open statistics database", err)
		}
		defer store.Close()
		assemblerOpts = append(assemblerOpts, plan.WithRecorder(store))
	}

	assembler, err := plan.New(domain.Catalog.Actions(), cfg, assemblerOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build assembler", err)
	}

	resp, err := assembler.Sequence(cmd.Context(), plan.Request{
		Initial:     problem.Initial,
		Goal:        problem.Goal,
		Descriptors: problem.Descriptors,
		Specs:       domain.Specs,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "planning failed", err)
	}

	report := NewPlanReport(resp)
	if err := formatter.Success(report); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	if !resp.Success {
		return NewExitError(ExitFailure, "no valid plan")
	}
	return nil
}

// applyFlagOverrides lays command flags over the problem's configuration.
func applyFlagOverrides(cfg plan.Config, opts *PlanOptions) (plan.Config, error) {
	if opts.Algorithm != "" {
		alg, err := search.ParseAlgorithm(opts.Algorithm)
		if err != nil {
			return cfg, err
		}
		cfg.Algorithm = alg
	}
	if opts.Heuristic != "" {
		kind, err := heuristic.ParseKind(opts.Heuristic)
		if err != nil {
			return cfg, err
		}
		cfg.Heuristic = kind
	}
	if opts.MaxDepth >= 0 {
		cfg.MaxDepth = opts.MaxDepth
		cfg.ZeroDepth = opts.MaxDepth == 0
	}
	if opts.MaxTime > 0 {
		cfg.MaxTime = opts.MaxTime
	}
	if opts.Cache {
		cfg.EnableCache = true
	}
	return cfg, nil
}

// PlanReport is the plan command's output payload.
type PlanReport struct {
	RequestID  string        `json:"request_id"`
	Success    bool          `json:"success"`
	Degraded   bool          `json:"degraded"`
	Actions    []string      `json:"actions"`
	Cost       float64       `json:"cost"`
	UnmetGoals []string      `json:"unmet_goals,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// NewPlanReport flattens a sequencing response into the report shape.
func NewPlanReport(resp *plan.SequencingResponse) PlanReport {
	r := PlanReport{
		RequestID:  resp.RequestID,
		Success:    resp.Success,
		Degraded:   resp.Degraded,
		Actions:    make([]string, len(resp.Sequence)),
		Cost:       resp.Cost,
		UnmetGoals: resp.UnmetGoals,
		Warnings:   resp.ValidationWarnings,
		Elapsed:    resp.Elapsed,
	}
	for i, act := range resp.Sequence {
		r.Actions[i] = act.ID
	}
	return r
}

// String renders the human-readable report.
func (r PlanReport) String() string {
	var sb strings.Builder

	status := "FAILED"
	if r.Success {
		status = "OK"
	} else if r.Degraded {
		status = "DEGRADED"
	}
	fmt.Fprintf(&sb, "Plan %s (request %s)\n", status, r.RequestID)

	if len(r.Actions) == 0 {
		sb.WriteString("  (empty plan)\n")
	}
	for i, id := range r.Actions {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, id)
	}
	fmt.Fprintf(&sb, "Cost: %g\n", r.Cost)

	if len(r.UnmetGoals) > 0 {
		fmt.Fprintf(&sb, "Unmet goals: %s\n", strings.Join(r.UnmetGoals, ", "))
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&sb, "Warning: %s\n", w)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// configureLogging routes slog to stderr at a level matching the verbose
// flag.
func configureLogging(opts *RootOptions) {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
