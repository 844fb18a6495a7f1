// Package predict turns abstract subgoal descriptors into ranked candidate
// transitions.
//
// The predictor does no language understanding: descriptors arrive from an
// upstream decomposition layer and are matched against the action catalog
// by case-folded name containment and effect-key overlap only. A
// descriptor the catalog cannot justify emits nothing - the predictor
// never fabricates a transition.
package predict

import (
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/sequorlabs/sequor/internal/model"
	"github.com/sequorlabs/sequor/internal/stats"
)

// DefaultBlendWeight is how much the historical success rate contributes
// to a candidate's score, versus the action's declared probability.
const DefaultBlendWeight = 0.1

// Descriptor is one abstract subgoal or atomic-action descriptor. Name is
// matched against action names/ids; EffectKeys against action effect keys.
// Either field alone is enough to match.
type Descriptor struct {
	Name       string   `json:"name"`
	EffectKeys []string `json:"effect_keys,omitempty"`
}

// empty reports a descriptor with nothing to match on. Such descriptors
// are malformed input: skipped with a warning, never fatal.
func (d Descriptor) empty() bool {
	return strings.TrimSpace(d.Name) == "" && len(d.EffectKeys) == 0
}

// Candidate is a scored transition proposed for one descriptor.
type Candidate struct {
	// DescriptorIndex is the position of the descriptor this candidate
	// answers. Callers detect gaps by checking which indexes are absent.
	DescriptorIndex int

	// Transition is the proposed edge. When the action is not applicable
	// to the provisional state, To equals From: the candidate is a
	// prediction to seed search with, not an executed step.
	Transition model.Transition

	// Score combines declared success probability with recorded history;
	// higher is better.
	Score float64
}

// Predictor matches descriptors against an action catalog.
//
// Thread safety: safe for concurrent use; all mutable state is the
// recorder's, which guards itself.
type Predictor struct {
	actions  []model.Action
	recorder stats.Recorder
	blend    float64
	fold     cases.Caser
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithBlendWeight overrides the history blend weight (default 0.1).
func WithBlendWeight(w float64) Option {
	return func(p *Predictor) {
		p.blend = w
	}
}

// New creates a Predictor over a catalog and a statistics recorder. The
// recorder may be nil, in which case scores use declared probabilities
// only.
func New(actions []model.Action, recorder stats.Recorder, opts ...Option) *Predictor {
	p := &Predictor{
		actions:  actions,
		recorder: recorder,
		blend:    DefaultBlendWeight,
		fold:     cases.Fold(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict emits ranked candidates for each descriptor, in descriptor order
// and, within a descriptor, in descending score (catalog order on ties).
//
// The provisional state starts at initial and advances through the best
// applicable candidate of each descriptor, so later descriptors are scored
// against the state the earlier ones are expected to produce.
func (p *Predictor) Predict(initial model.State, descriptors []Descriptor) []Candidate {
	var out []Candidate
	current := initial

	for i, d := range descriptors {
		if d.empty() {
			slog.Warn("skipping malformed descriptor", "index", i)
			continue
		}

		matches := p.match(d)
		if len(matches) == 0 {
			// Emit nothing for this descriptor; the caller detects
			// the gap. Fabricating a transition here is forbidden.
			slog.Debug("no catalog match for descriptor", "index", i, "name", d.Name)
			continue
		}

		sort.SliceStable(matches, func(a, b int) bool {
			return matches[a].score > matches[b].score
		})

		advanced := false
		for _, m := range matches {
			tr := model.Transition{Action: m.action, From: current, To: current}
			if next, err := m.action.Apply(current); err == nil {
				tr.To = next
				if !advanced {
					current = next
					advanced = true
				}
			}
			out = append(out, Candidate{
				DescriptorIndex: i,
				Transition:      tr,
				Score:           m.score,
			})
		}
	}
	return out
}

type scoredAction struct {
	action model.Action
	score  float64
}

// match finds catalog actions that plausibly satisfy the descriptor.
func (p *Predictor) match(d Descriptor) []scoredAction {
	name := p.fold.String(strings.TrimSpace(d.Name))

	var matches []scoredAction
	for _, a := range p.actions {
		if p.matches(a, name, d.EffectKeys) {
			matches = append(matches, scoredAction{action: a, score: p.score(a)})
		}
	}
	return matches
}

// matches applies the two justification rules: folded name containment in
// either direction, or any effect-key overlap.
func (p *Predictor) matches(a model.Action, foldedName string, effectKeys []string) bool {
	if foldedName != "" {
		actName := p.fold.String(a.Name)
		actID := p.fold.String(a.ID)
		if strings.Contains(actName, foldedName) || strings.Contains(foldedName, actName) ||
			strings.Contains(actID, foldedName) || strings.Contains(foldedName, actID) {
			return true
		}
	}
	for _, k := range effectKeys {
		if _, ok := a.Effects[k]; ok {
			return true
		}
	}
	return false
}

// score blends the declared success probability with the recorded rate.
// No history means the declared probability stands alone.
func (p *Predictor) score(a model.Action) float64 {
	if p.recorder == nil {
		return a.SuccessProb
	}
	rate, ok := p.recorder.Rate(a.ID)
	if !ok {
		return a.SuccessProb
	}
	return (1-p.blend)*a.SuccessProb + p.blend*rate
}
