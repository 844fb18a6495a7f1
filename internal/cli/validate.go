package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sequorlabs/sequor/internal/catalog"
	"github.com/sequorlabs/sequor/internal/ltl"
	"github.com/sequorlabs/sequor/internal/model"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Domain  string
	Problem string
	Plan    string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a recorded plan against a domain and problem",
		Long: `Replay a recorded action-id sequence from the problem's initial state,
run the runtime guard, and check the domain's temporal specifications.

The plan file is JSON: either a bare array of action ids or an object
with an "actions" array, as emitted by the plan command.

Example:
  sequor validate -d warehouse.cue -p restock.yaml --plan plan.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Domain, "domain", "d", "", "path to CUE domain file (required)")
	cmd.Flags().StringVarP(&opts.Problem, "problem", "p", "", "path to YAML problem file (required)")
	cmd.Flags().StringVar(&opts.Plan, "plan", "", "path to JSON plan file (required)")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("problem")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
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
	ids, err := loadPlanFile(opts.Plan)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load plan", err)
	}

	seq := replayIDs(ids, problem.Initial, domain.Catalog)
	runtimeErrs := ltl.DetectRuntimeErrors(seq, problem.Initial, domain.Catalog.Actions())
	report := ltl.NewValidator().Validate(seq, problem.Initial, domain.Specs)

	result := NewValidationReport(seq, problem, report, runtimeErrs)
	if err := formatter.Success(result); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	if !result.OK {
		return NewExitError(ExitFailure, "plan failed validation")
	}
	return nil
}

// loadPlanFile reads an action-id list from a JSON plan file.
func loadPlanFile(path string) ([]string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(src, &ids); err == nil {
		return ids, nil
	}

	var doc struct {
		Actions []string `json:"actions"`
	}
	if err := json.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("plan file: want a JSON array of action ids or an object with an actions array: %w", err)
	}
	return doc.Actions, nil
}

// replayIDs rebuilds a sequence from recorded action ids. Unknown ids
// get placeholder actions and inapplicable steps keep From state, so the
// runtime guard sees and reports every defect instead of the replay
// stopping at the first one.
func replayIDs(ids []string, initial model.State, cat *catalog.Catalog) model.Sequence {
	seq := make(model.Sequence, 0, len(ids))
	current := initial
	for _, id := range ids {
		act, ok := cat.ByID(id)
		if !ok {
			act = model.Action{ID: id, Name: id}
		}
		to := current
		if next, err := act.Apply(current); err == nil {
			to = next
		}
		seq = append(seq, model.Transition{Action: act, From: current, To: to})
		current = to
	}
	return seq
}

// ValidationReport is the validate command's output payload.
type ValidationReport struct {
	OK            bool     `json:"ok"`
	GoalReached   bool     `json:"goal_reached"`
	Actions       []string `json:"actions"`
	RuntimeErrors []string `json:"runtime_errors,omitempty"`
	Violations    []string `json:"violations,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// NewValidationReport combines the guard and validator outcomes. OK
// requires a clean runtime pass, no high-priority violations, and the
// goal reached.
func NewValidationReport(seq model.Sequence, problem *catalog.Problem, report ltl.Report, runtimeErrs []ltl.RuntimeError) ValidationReport {
	r := ValidationReport{
		GoalReached: problem.Goal.Reached(seq.Final(problem.Initial)),
		Actions:     seq.ActionIDs(),
	}
	for _, e := range runtimeErrs {
		r.RuntimeErrors = append(r.RuntimeErrors, e.Error())
	}
	for _, v := range report.Violations {
		r.Violations = append(r.Violations, fmt.Sprintf("%s %s: %s", v.Priority, v.Spec, v.Formula))
	}
	for _, w := range report.Warnings {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s %s: %s", w.Priority, w.Spec, w.Formula))
	}
	r.OK = r.GoalReached && len(r.RuntimeErrors) == 0 && report.OK
	return r
}

// String renders the human-readable report.
func (r ValidationReport) String() string {
	var sb strings.Builder

	status := "FAILED"
	if r.OK {
		status = "OK"
	}
	fmt.Fprintf(&sb, "Validation %s\n", status)
	fmt.Fprintf(&sb, "Goal reached: %t\n", r.GoalReached)
	fmt.Fprintf(&sb, "Actions: %s\n", strings.Join(r.Actions, ", "))

	for _, e := range r.RuntimeErrors {
		fmt.Fprintf(&sb, "Runtime error: %s\n", e)
	}
	for _, v := range r.Violations {
		fmt.Fprintf(&sb, "Violation: %s\n", v)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&sb, "Warning: %s\n", w)
	}
	return strings.TrimRight(sb.String(), "\n")
}
