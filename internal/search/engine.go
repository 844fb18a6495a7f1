package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sequorlabs/sequor/internal/model"
)

// Reason explains why a search run stopped.
type Reason string

const (
	// ReasonGoal: the goal state was reached.
	ReasonGoal Reason = "goal"
	// ReasonExhausted: the frontier emptied without reaching the goal.
	ReasonExhausted Reason = "exhausted"
	// ReasonDepthLimited: the frontier emptied with expansions suppressed
	// by the depth cap.
	ReasonDepthLimited Reason = "depth_limited"
	// ReasonTimeout: the wall-clock budget was exceeded.
	ReasonTimeout Reason = "timeout"
	// ReasonCancelled: the caller's context was cancelled.
	ReasonCancelled Reason = "cancelled"
)

// Result is a search outcome. A degraded result (goal not reached) is a
// normal outcome, not a fault: it carries the best partial path found.
type Result struct {
	// Sequence is the path from the initial state: to the goal on
	// success, or the best partial path on a degraded result.
	Sequence model.Sequence

	// Cost is the summed action cost of Sequence.
	Cost float64

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration

	// Expanded counts states expanded.
	Expanded int

	// Degraded is true when the goal was not reached.
	Degraded bool

	// Reason explains the stop.
	Reason Reason
}

// Engine runs plan searches over a fixed action catalog.
//
// Thread safety: an Engine is pure with respect to its inputs; all run
// state lives in the call. Safe for concurrent use across independent
// requests without internal synchronization.
type Engine struct {
	actions []model.Action
	cfg     Config
}

// New creates an Engine. The catalog slice is copied; the config is
// validated and defaulted here so selector mistakes fail at construction
// with a typed error.
func New(actions []model.Action, cfg Config) (*Engine, error) {
	normalized, err := cfg.Normalized()
	if err != nil {
		return nil, err
	}

	copied := make([]model.Action, len(actions))
	copy(copied, actions)

	return &Engine{actions: copied, cfg: normalized}, nil
}

// Config returns the effective (validated, defaulted) configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Find searches for an action sequence from initial to goal.
//
// Returns an error only for malformed inputs (unhashable state). Failure to
// find a plan - exhaustion, depth cap, timeout, cancellation - returns a
// Degraded result with the best partial path, never an error.
func (e *Engine) Find(ctx context.Context, initial model.State, goal model.Goal) (*Result, error) {
	return e.run(ctx, initial, goal, nil)
}

// FindSeeded is Find with a preferred expansion order: actions appearing in
// the seed transitions are tried first, in seed order, before the rest of
// the catalog. Used by the plan controller to bias search toward predictor
// candidates. The seed changes tie-breaking only, never correctness.
func (e *Engine) FindSeeded(ctx context.Context, initial model.State, goal model.Goal, seed []model.Transition) (*Result, error) {
	return e.run(ctx, initial, goal, seed)
}

func (e *Engine) run(ctx context.Context, initial model.State, goal model.Goal, seed []model.Transition) (*Result, error) {
	start := time.Now()
	actions := e.orderActions(seed)

	initFP, err := initial.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("search: initial state: %w", err)
	}

	var (
		open         = e.newFrontier()
		insertions   int64 // monotonic counter; stable tie-break, never wall-clock
		expanded     int
		depthLimited bool

		// Visited pruning. seen is push-time membership for BFS/DFS/
		// Greedy (a state is expanded at most once, cheaper rediscovery
		// is discarded). bestG is the A* exception: reopening is allowed
		// on a strictly better g.
		seen  map[string]bool
		bestG map[string]float64
	)
	if e.cfg.Algorithm == AStar {
		bestG = make(map[string]float64)
		bestG[initFP] = 0
	} else {
		seen = map[string]bool{initFP: true}
	}

	root := &node{
		state: initial,
		fp:    initFP,
		g:     0,
		h:     e.cfg.Heuristic(initial, goal),
		depth: 0,
		seq:   insertions,
	}
	insertions++
	open.push(root)

	// Best partial path seen: lowest heuristic, ties to the deeper node.
	best := root

	finish := func(n *node, reason Reason) *Result {
		degraded := reason != ReasonGoal
		if degraded {
			slog.Debug("search degraded",
				"algorithm", e.cfg.Algorithm.String(),
				"reason", string(reason),
				"expanded", expanded,
				"best_h", best.h,
				"best_depth", best.depth,
			)
		}
		return &Result{
			Sequence: n.path,
			Cost:     n.path.Cost(),
			Elapsed:  time.Since(start),
			Expanded: expanded,
			Degraded: degraded,
			Reason:   reason,
		}
	}

	for {
		// Budget polling happens here, once per frontier pop.
		// Cancellation is cooperative: nothing preempts an expansion.
		select {
		case <-ctx.Done():
			return finish(best, ReasonCancelled), nil
		default:
		}
		if time.Since(start) >= e.cfg.MaxTime {
			return finish(best, ReasonTimeout), nil
		}

		current, ok := open.pop()
		if !ok {
			if depthLimited {
				return finish(best, ReasonDepthLimited), nil
			}
			return finish(best, ReasonExhausted), nil
		}

		// A* reopening leaves stale entries behind; skip them.
		if bestG != nil {
			if g, ok := bestG[current.fp]; ok && current.g > g {
				continue
			}
		}

		if goal.Reached(current.state) {
			return finish(current, ReasonGoal), nil
		}

		if current.h < best.h || (current.h == best.h && current.depth > best.depth) {
			best = current
		}

		if current.depth >= e.cfg.MaxDepth {
			depthLimited = true
			continue
		}

		expanded++
		for _, act := range actions {
			next, err := act.Apply(current.state)
			if err != nil {
				// Unsatisfied precondition: skip the action. Local
				// recovery, never a propagated fault.
				continue
			}

			if e.cfg.Forbid != nil && e.cfg.Forbid(next) {
				continue
			}

			fp, err := next.Fingerprint()
			if err != nil {
				return nil, fmt.Errorf("search: action %q successor: %w", act.ID, err)
			}

			g := current.g + act.Cost
			if bestG != nil {
				if known, ok := bestG[fp]; ok && g >= known {
					continue
				}
				bestG[fp] = g
			} else {
				if seen[fp] {
					continue
				}
				seen[fp] = true
			}

			path := make(model.Sequence, len(current.path), len(current.path)+1)
			copy(path, current.path)
			path = append(path, model.Transition{Action: act, From: current.state, To: next})

			child := &node{
				state: next,
				fp:    fp,
				path:  path,
				g:     g,
				h:     e.cfg.Heuristic(next, goal),
				depth: current.depth + 1,
				seq:   insertions,
			}
			insertions++
			open.push(child)
		}
	}
}

// newFrontier builds the strategy's open set.
func (e *Engine) newFrontier() frontier {
	switch e.cfg.Algorithm {
	case DFS:
		return newLIFOFrontier()
	case AStar:
		return newPriorityFrontier(astarLess)
	case Greedy:
		return newPriorityFrontier(greedyLess)
	default:
		return newFIFOFrontier()
	}
}

// orderActions returns the expansion order: seed actions first (dedup, in
// seed order), then the remaining catalog in declaration order.
func (e *Engine) orderActions(seed []model.Transition) []model.Action {
	if len(seed) == 0 {
		return e.actions
	}

	preferred := make(map[string]int, len(seed))
	for _, t := range seed {
		if _, ok := preferred[t.Action.ID]; !ok {
			preferred[t.Action.ID] = len(preferred)
		}
	}

	ordered := make([]model.Action, 0, len(e.actions))
	ranked := make([]model.Action, len(preferred))
	var rest []model.Action
	for _, a := range e.actions {
		if rank, ok := preferred[a.ID]; ok {
			ranked[rank] = a
		} else {
			rest = append(rest, a)
		}
	}
	for _, a := range ranked {
		if a.ID != "" {
			ordered = append(ordered, a)
		}
	}
	return append(ordered, rest...)
}
