// Package heuristic provides the pluggable scoring functions used to order
// plan search.
//
// A heuristic estimates the remaining cost from a state to a goal: always
// non-negative, lower is better. The three built-in kinds are admissible
// (they never overestimate the true remaining cost) as long as every action
// in the catalog has cost >= 1, which keeps the A* optimality guarantee
// intact when a built-in is selected. Callers may supply custom Funcs;
// inadmissible customs are allowed but forfeit that guarantee.
package heuristic

import (
	"fmt"

	"github.com/sequorlabs/sequor/internal/model"
)

// Kind identifies a built-in heuristic. The set is closed: algorithm choice
// is a tagged variant, not an open string-keyed registry.
type Kind int

const (
	// GoalDistance counts goal keys not yet matching the state.
	GoalDistance Kind = iota + 1
	// ActionCount estimates the minimum remaining actions. With no
	// domain-specific estimator supplied, goal distance is the default
	// lower bound (one action changes at least one goal key).
	ActionCount
	// StateDifference is the weighted sum of differing goal key/value
	// pairs, default weight 1.0 per key.
	StateDifference
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case GoalDistance:
		return "goal_distance"
	case ActionCount:
		return "action_count"
	case StateDifference:
		return "state_difference"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind resolves a configuration name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "goal_distance":
		return GoalDistance, nil
	case "action_count":
		return ActionCount, nil
	case "state_difference":
		return StateDifference, nil
	default:
		return 0, fmt.Errorf("unknown heuristic %q (want goal_distance, action_count, or state_difference)", name)
	}
}

// Func scores a (state, goal) pair. Must be pure and non-negative.
type Func func(model.State, model.Goal) float64

// Option configures heuristic construction.
type Option func(*config)

type config struct {
	weights map[string]float64
}

// WithWeights overrides per-key weights for StateDifference. Keys absent
// from the map keep the default weight 1.0. Weights above 1.0 make the
// heuristic inadmissible; that is the caller's trade to make.
func WithWeights(weights map[string]float64) Option {
	return func(c *config) {
		c.weights = weights
	}
}

// New returns the Func for a built-in kind.
func New(kind Kind, opts ...Option) (Func, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch kind {
	case GoalDistance, ActionCount:
		// ActionCount default lower bound is goal distance: any single
		// action changes at least one unmet goal key.
		return goalDistance, nil
	case StateDifference:
		weights := cfg.weights
		return func(s model.State, g model.Goal) float64 {
			var total float64
			for _, k := range g.Diff(s) {
				w := 1.0
				if weights != nil {
					if override, ok := weights[k]; ok {
						w = override
					}
				}
				total += w
			}
			return total
		}, nil
	default:
		return nil, fmt.Errorf("unknown heuristic kind %d", int(kind))
	}
}

func goalDistance(s model.State, g model.Goal) float64 {
	return float64(len(g.Diff(s)))
}
