package search

import (
	"fmt"
	"time"

	"github.com/sequorlabs/sequor/internal/heuristic"
	"github.com/sequorlabs/sequor/internal/model"
)

// Algorithm identifies a search strategy. Closed set.
type Algorithm int

const (
	// BFS is breadth-first search: FIFO frontier, minimum action-count
	// plan when all actions have unit cost.
	BFS Algorithm = iota + 1
	// DFS is depth-first search: LIFO frontier with a depth cutoff, no
	// optimality guarantee.
	DFS
	// AStar orders the frontier by f = g + h; optimal-cost plans when the
	// heuristic is admissible.
	AStar
	// Greedy orders the frontier by h alone; fastest, no optimality
	// guarantee.
	Greedy
)

// String returns the configuration name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case BFS:
		return "bfs"
	case DFS:
		return "dfs"
	case AStar:
		return "astar"
	case Greedy:
		return "greedy"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm resolves a configuration name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "bfs":
		return BFS, nil
	case "dfs":
		return DFS, nil
	case "astar":
		return AStar, nil
	case "greedy":
		return Greedy, nil
	default:
		return 0, fmt.Errorf("unknown algorithm %q (want bfs, dfs, astar, or greedy)", name)
	}
}

// Default budget bounds. Unbounded search is disallowed by contract: a
// config with no wall-clock budget gets DefaultMaxTime, and nothing may
// raise the budget past MaxTimeCeiling.
const (
	DefaultMaxDepth = 50
	DefaultMaxTime  = 5 * time.Second
	MaxTimeCeiling  = 30 * time.Second
)

// Config controls a search run.
type Config struct {
	// Algorithm selects the strategy.
	Algorithm Algorithm

	// Heuristic scores (state, goal) for AStar/Greedy ordering and for
	// ranking partial results. Nil means the default goal-distance
	// heuristic.
	Heuristic heuristic.Func

	// MaxDepth caps the action count of any path. Zero is a legal cap
	// (only the initial state is goal-checked); negative is invalid.
	MaxDepth int

	// MaxTime is the wall-clock budget. Zero means DefaultMaxTime;
	// negative is invalid.
	MaxTime time.Duration

	// Forbid, when non-nil, prunes successor states for which it returns
	// true. Sequence correction uses this to keep re-planned paths clear
	// of states that violate safety invariants. The initial state is
	// never pruned.
	Forbid func(model.State) bool
}

// DefaultConfig returns the default configuration: BFS with the
// goal-distance heuristic under the default budgets.
func DefaultConfig() Config {
	h, _ := heuristic.New(heuristic.GoalDistance)
	return Config{
		Algorithm: BFS,
		Heuristic: h,
		MaxDepth:  DefaultMaxDepth,
		MaxTime:   DefaultMaxTime,
	}
}

// Normalized validates the config and fills defaults, returning the
// effective config. Checked at engine construction so a bad selector fails
// immediately with a typed error instead of deep inside the search loop.
// Callers that derive budgets from a config (halving MaxTime for a repair
// re-plan) must normalize first, or a zero MaxTime re-defaults to the full
// budget downstream.
func (c Config) Normalized() (Config, error) {
	switch c.Algorithm {
	case BFS, DFS, AStar, Greedy:
	case 0:
		c.Algorithm = BFS
	default:
		return c, &ConfigError{Field: "algorithm", Message: fmt.Sprintf("unknown algorithm %d", int(c.Algorithm))}
	}

	if c.Heuristic == nil {
		h, err := heuristic.New(heuristic.GoalDistance)
		if err != nil {
			return c, &ConfigError{Field: "heuristic", Message: err.Error()}
		}
		c.Heuristic = h
	}

	if c.MaxDepth < 0 {
		return c, &ConfigError{Field: "max_depth", Message: fmt.Sprintf("must be >= 0, got %d", c.MaxDepth)}
	}

	switch {
	case c.MaxTime < 0:
		return c, &ConfigError{Field: "max_time", Message: fmt.Sprintf("must be > 0, got %v", c.MaxTime)}
	case c.MaxTime == 0:
		c.MaxTime = DefaultMaxTime
	case c.MaxTime > MaxTimeCeiling:
		c.MaxTime = MaxTimeCeiling
	}

	return c, nil
}

// ConfigError reports an invalid search configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("search config: %s: %s", e.Field, e.Message)
}
