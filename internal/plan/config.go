package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/sequorlabs/sequor/internal/heuristic"
	"github.com/sequorlabs/sequor/internal/search"
)

// DefaultCacheCapacity bounds the response cache when no capacity is set.
const DefaultCacheCapacity = 128

// Config controls how the assembler plans. Zero values mean defaults; the
// config is validated once at assembler construction.
type Config struct {
	// Algorithm selects the search strategy. Zero means BFS.
	Algorithm search.Algorithm

	// Heuristic selects the scoring function for ordered strategies and
	// partial-result ranking. Zero means goal distance.
	Heuristic heuristic.Kind

	// MaxDepth caps plan length. Zero here means the search default, not
	// a zero-length cap; callers wanting the literal zero cap set
	// ZeroDepth.
	MaxDepth int

	// ZeroDepth forces a zero-length depth cap. Separate flag because the
	// zero value of MaxDepth has to mean "default".
	ZeroDepth bool

	// MaxTime is the wall-clock search budget. Zero means the search
	// default; values above the ceiling are clamped.
	MaxTime time.Duration

	// EnableCache turns on the response cache.
	EnableCache bool

	// CacheCapacity bounds the cache. Zero means DefaultCacheCapacity.
	CacheCapacity int

	// MaxCorrections caps repair attempts after a failed validation.
	// Zero means the corrector default.
	MaxCorrections int
}

// ConfigError reports an invalid assembler configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("plan config: %s: %s", e.Field, e.Message)
}

// searchConfig resolves the assembler config into a validated, fully
// defaulted search config. Selector mistakes surface here, at construction.
// The stored config carries effective budgets, never zero values; the
// corrector halves MaxTime for its re-plans and relies on that.
func (c Config) searchConfig() (search.Config, error) {
	kind := c.Heuristic
	if kind == 0 {
		kind = heuristic.GoalDistance
	}
	h, err := heuristic.New(kind)
	if err != nil {
		return search.Config{}, &ConfigError{Field: "heuristic", Message: err.Error()}
	}

	depth := c.MaxDepth
	if depth == 0 && !c.ZeroDepth {
		depth = search.DefaultMaxDepth
	}

	// Let the search layer apply its own validation and defaulting, but
	// report faults in this package's terms.
	sc, err := search.Config{
		Algorithm: c.Algorithm,
		Heuristic: h,
		MaxDepth:  depth,
		MaxTime:   c.MaxTime,
	}.Normalized()
	if err != nil {
		var serr *search.ConfigError
		if errors.As(err, &serr) {
			return search.Config{}, &ConfigError{Field: serr.Field, Message: serr.Message}
		}
		return search.Config{}, &ConfigError{Field: "search", Message: err.Error()}
	}

	if c.CacheCapacity < 0 {
		return search.Config{}, &ConfigError{Field: "cache_capacity", Message: fmt.Sprintf("must be >= 0, got %d", c.CacheCapacity)}
	}
	if c.MaxCorrections < 0 {
		return search.Config{}, &ConfigError{Field: "max_corrections", Message: fmt.Sprintf("must be >= 0, got %d", c.MaxCorrections)}
	}
	return sc, nil
}

func (c Config) cacheCapacity() int {
	if c.CacheCapacity == 0 {
		return DefaultCacheCapacity
	}
	return c.CacheCapacity
}
