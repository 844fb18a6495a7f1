// Package stats tracks per-action running success rates.
//
// The recorder is the only state shared across planning requests. It is
// always passed explicitly into the components that need it - never a
// module-level singleton - and every implementation guarantees an atomic
// read-modify-write per action id plus an explicit Reset.
package stats

import (
	"fmt"
	"sync"
)

// DefaultWeight is the exponential-moving-average weight applied to each
// new outcome.
const DefaultWeight = 0.1

// Recorder tracks running success rates keyed by action id.
type Recorder interface {
	// Rate returns the current success rate for an action and whether
	// any outcome has been recorded for it.
	Rate(actionID string) (float64, bool)

	// Record folds one realized outcome into the action's running rate.
	Record(actionID string, success bool) error

	// Reset clears all recorded statistics.
	Reset() error
}

// Memory is an in-process Recorder using an exponential moving average.
//
// Update rule: rate += weight * (outcome - rate); the first outcome for an
// action seeds the rate directly rather than blending with an assumed
// prior.
//
// Thread safety: safe for concurrent use; each Record is an atomic
// read-modify-write under the mutex.
type Memory struct {
	mu     sync.Mutex
	weight float64
	rates  map[string]entry
}

type entry struct {
	rate    float64
	samples int
}

// MemoryOption configures a Memory recorder.
type MemoryOption func(*Memory)

// WithWeight overrides the EMA weight. Must be in (0,1].
func WithWeight(w float64) MemoryOption {
	return func(m *Memory) {
		m.weight = w
	}
}

// NewMemory creates an in-process recorder.
func NewMemory(opts ...MemoryOption) (*Memory, error) {
	m := &Memory{
		weight: DefaultWeight,
		rates:  make(map[string]entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.weight <= 0 || m.weight > 1 {
		return nil, fmt.Errorf("stats: EMA weight must be in (0,1], got %v", m.weight)
	}
	return m, nil
}

// Rate implements Recorder.
func (m *Memory) Rate(actionID string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.rates[actionID]
	if !ok {
		return 0, false
	}
	return e.rate, true
}

// Record implements Recorder.
func (m *Memory) Record(actionID string, success bool) error {
	outcome := 0.0
	if success {
		outcome = 1.0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.rates[actionID]
	if !ok {
		m.rates[actionID] = entry{rate: outcome, samples: 1}
		return nil
	}
	e.rate += m.weight * (outcome - e.rate)
	e.samples++
	m.rates[actionID] = e
	return nil
}

// Reset implements Recorder.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates = make(map[string]entry)
	return nil
}

// Samples returns the number of recorded outcomes for an action. Used for
// diagnostics and the stats CLI.
func (m *Memory) Samples(actionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rates[actionID].samples
}
