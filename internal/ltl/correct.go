package ltl

import (
	"context"
	"log/slog"

	"github.com/sequorlabs/sequor/internal/model"
	"github.com/sequorlabs/sequor/internal/search"
)

// DefaultMaxAttempts bounds how many repair strategies a corrector tries
// before giving up and returning the original sequence.
const DefaultMaxAttempts = 3

// Correction is the outcome of a repair pass. When Corrected is false the
// Sequence is the original, unmodified, and Report still carries the
// violations that triggered the attempt: a corrector never hides a
// failure it could not repair.
type Correction struct {
	Sequence model.Sequence
	Report   Report
	// Corrected is true when a repair produced a sequence that reaches
	// the goal, is structurally sound, and passes validation.
	Corrected bool
	// Attempts counts repair strategies tried.
	Attempts int
}

// Corrector repairs sequences that fail validation or the runtime guard.
// It tries a bounded series of strategies, cheapest first: splicing a
// single recovery action over a broken precondition, then re-planning
// under safety constraints derived from the violated specs, then
// re-planning the suffix from the last sound prefix. Every candidate is
// re-validated before it is accepted.
type Corrector struct {
	actions     []model.Action
	cfg         search.Config
	maxAttempts int
	logger      *slog.Logger
}

// CorrectorOption configures a Corrector.
type CorrectorOption func(*Corrector)

// WithMaxAttempts caps repair strategies per Correct call. Values below 1
// are ignored.
func WithMaxAttempts(n int) CorrectorOption {
	return func(c *Corrector) {
		if n >= 1 {
			c.maxAttempts = n
		}
	}
}

// WithCorrectorLogger sets the logger used for repair reporting.
func WithCorrectorLogger(l *slog.Logger) CorrectorOption {
	return func(c *Corrector) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCorrector creates a corrector over the given catalog. The search
// configuration is normalized here; re-planning attempts reuse it with a
// halved wall-clock budget, so correction can never cost more than the
// original search. A zero budget would otherwise re-default to the full
// budget inside each re-plan.
func NewCorrector(actions []model.Action, cfg search.Config, opts ...CorrectorOption) *Corrector {
	if norm, err := cfg.Normalized(); err == nil {
		cfg = norm
	}
	copied := make([]model.Action, len(actions))
	copy(copied, actions)

	c := &Corrector{
		actions:     copied,
		cfg:         cfg,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Correct validates seq and, when it fails, tries up to maxAttempts
// repair strategies. Returns the repaired sequence with its passing
// report, or the original sequence with the original report when no
// strategy produced a sound, valid, goal-reaching sequence.
func (c *Corrector) Correct(ctx context.Context, seq model.Sequence, initial model.State, goal model.Goal, specs []Spec) Correction {
	original := NewValidator(WithValidatorLogger(c.logger)).Validate(seq, initial, specs)
	runtimeErrs := DetectRuntimeErrors(seq, initial, c.actions)
	if original.OK && len(runtimeErrs) == 0 && goal.Reached(seq.Final(initial)) {
		return Correction{Sequence: seq, Report: original}
	}

	strategies := []func(context.Context, model.Sequence, model.State, model.Goal, []Spec) (model.Sequence, bool){
		c.spliceRecovery,
		c.replanConstrained,
		c.replanSuffix,
	}
	if len(strategies) > c.maxAttempts {
		strategies = strategies[:c.maxAttempts]
	}

	attempts := 0
	for _, strategy := range strategies {
		if ctx.Err() != nil {
			break
		}
		attempts++
		candidate, ok := strategy(ctx, seq, initial, goal, specs)
		if !ok {
			continue
		}
		report := NewValidator(WithValidatorLogger(c.logger)).Validate(candidate, initial, specs)
		if !report.OK {
			continue
		}
		if len(DetectRuntimeErrors(candidate, initial, c.actions)) != 0 {
			continue
		}
		if !goal.Reached(candidate.Final(initial)) {
			continue
		}
		c.logger.Info("sequence corrected",
			"attempts", attempts,
			"original_len", len(seq),
			"corrected_len", len(candidate))
		return Correction{Sequence: candidate, Report: report, Corrected: true, Attempts: attempts}
	}

	c.logger.Warn("correction exhausted",
		"attempts", attempts,
		"violations", len(original.Violations),
		"runtime_errors", len(runtimeErrs))
	return Correction{Sequence: seq, Report: original, Attempts: attempts}
}

// spliceRecovery repairs the first broken precondition by inserting one
// catalog action that re-establishes it, then replays the remaining
// actions. Cheapest strategy; only applies to structural defects.
func (c *Corrector) spliceRecovery(_ context.Context, seq model.Sequence, initial model.State, _ model.Goal, _ []Spec) (model.Sequence, bool) {
	plan := seq.Actions()
	current := initial
	for i, act := range plan {
		if act.Applicable(current) {
			next, err := act.Apply(current)
			if err != nil {
				return nil, false
			}
			current = next
			continue
		}

		recovery, ok := c.findRecovery(current, act)
		if !ok {
			return nil, false
		}
		patched := make([]model.Action, 0, len(plan)+1)
		patched = append(patched, plan[:i]...)
		patched = append(patched, recovery)
		patched = append(patched, plan[i:]...)
		return rebuild(initial, patched)
	}
	return nil, false
}

// findRecovery returns a catalog action applicable in the given state
// after which every precondition of blocked holds.
func (c *Corrector) findRecovery(s model.State, blocked model.Action) (model.Action, bool) {
	for _, cand := range c.actions {
		if cand.ID == blocked.ID || !cand.Applicable(s) {
			continue
		}
		after, err := cand.Apply(s)
		if err != nil {
			continue
		}
		if blocked.Applicable(after) {
			return cand, true
		}
	}
	return model.Action{}, false
}

// replanConstrained re-plans the whole sequence with states violating any
// high-priority safety invariant pruned from the search.
func (c *Corrector) replanConstrained(ctx context.Context, _ model.Sequence, initial model.State, goal model.Goal, specs []Spec) (model.Sequence, bool) {
	return c.replan(ctx, initial, goal, specs)
}

// replanSuffix keeps the longest structurally sound prefix that violates
// no safety invariant and re-plans from its final state to the goal.
func (c *Corrector) replanSuffix(ctx context.Context, seq model.Sequence, initial model.State, goal model.Goal, specs []Spec) (model.Sequence, bool) {
	forbid := forbidFromSpecs(specs)
	prefix := model.Sequence{}
	current := initial
	for _, t := range seq {
		next, err := t.Action.Apply(current)
		if err != nil {
			break
		}
		if forbid != nil && forbid(next) {
			break
		}
		prefix = append(prefix, model.Transition{Action: t.Action, From: current, To: next})
		current = next
	}
	if len(prefix) == len(seq) {
		// Nothing to cut; this strategy has no new angle.
		return nil, false
	}

	suffix, ok := c.replan(ctx, current, goal, specs)
	if !ok {
		return nil, false
	}
	return append(prefix, suffix...), true
}

func (c *Corrector) replan(ctx context.Context, from model.State, goal model.Goal, specs []Spec) (model.Sequence, bool) {
	cfg := c.cfg
	cfg.MaxTime = cfg.MaxTime / 2
	cfg.Forbid = forbidFromSpecs(specs)

	eng, err := search.New(c.actions, cfg)
	if err != nil {
		c.logger.Warn("correction re-plan rejected config", "error", err)
		return nil, false
	}
	res, err := eng.Find(ctx, from, goal)
	if err != nil || res.Degraded {
		return nil, false
	}
	return res.Sequence, true
}

// forbidFromSpecs turns the high-priority propositional safety invariants
// (always over a temporal-free body) into a state filter. Returns nil
// when no spec yields one.
func forbidFromSpecs(specs []Spec) func(model.State) bool {
	var bodies []Formula
	for _, spec := range specs {
		if spec.Priority != PriorityHigh || spec.Formula == nil {
			continue
		}
		if body := InvariantBody(spec.Formula); body != nil {
			bodies = append(bodies, body)
		}
	}
	if len(bodies) == 0 {
		return nil
	}
	return func(s model.State) bool {
		for _, body := range bodies {
			ok, err := EvalState(body, s)
			if err != nil || !ok {
				return true
			}
		}
		return false
	}
}

// rebuild replays an action list from initial into a sequence. Fails when
// any action's preconditions do not hold at its turn.
func rebuild(initial model.State, plan []model.Action) (model.Sequence, bool) {
	seq := make(model.Sequence, 0, len(plan))
	current := initial
	for _, act := range plan {
		t, err := model.NewTransition(current, act)
		if err != nil {
			return nil, false
		}
		seq = append(seq, t)
		current = t.To
	}
	return seq, true
}
