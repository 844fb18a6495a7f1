// Package plan assembles validated action sequences. The assembler is
// the composition root of a planning cycle: predictor candidates seed the
// search, the runtime guard and temporal validator check the result, the
// corrector repairs what it can, and the fallback path reports exactly
// what was achieved and nothing more.
package plan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sequorlabs/sequor/internal/ltl"
	"github.com/sequorlabs/sequor/internal/model"
	"github.com/sequorlabs/sequor/internal/predict"
	"github.com/sequorlabs/sequor/internal/search"
	"github.com/sequorlabs/sequor/internal/stats"
)

// Request is one planning problem: where the world is, where it should
// end up, optional predictor descriptors, and the temporal specs the
// answer must satisfy.
type Request struct {
	Initial     model.State
	Goal        model.Goal
	Descriptors []predict.Descriptor
	Specs       []ltl.Spec
}

// SequencingResponse is the outcome of a planning cycle.
//
// Success invariant: Success is true exactly when replaying Sequence from
// the initial state reaches the goal AND no high-priority spec is
// violated. Degraded is the complement of Success, and every degraded
// response carries a non-empty UnmetGoals: the unmet goal keys, or the
// names of the violated specs when the goal itself is reached. A degraded
// response can carry a useful partial sequence but never claims success.
type SequencingResponse struct {
	RequestID          string
	Success            bool
	Sequence           []model.Action
	Degraded           bool
	UnmetGoals         []string
	ValidationWarnings []string
	Elapsed            time.Duration
	Cost               float64
}

// ModelingResponse carries raw candidate sequences straight from the
// predictor, for callers that want material to inspect rather than a
// validated plan. Each contiguous run of answered descriptors yields one
// provisional sequence.
type ModelingResponse struct {
	Success          bool
	Sequences        [][]model.Action
	RawSequenceCount int
}

// Assembler runs planning cycles over a fixed action catalog.
//
// Thread safety: safe for concurrent use. The response cache and the
// stats recorder are the only cross-request state; both synchronize
// internally.
type Assembler struct {
	actions     []model.Action
	catalogHash string
	cfg         Config
	searchCfg   search.Config
	recorder    stats.Recorder
	ids         IDGenerator
	cache       *responseCache
	logger      *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithRecorder attaches a statistics recorder. Without one, outcomes are
// not recorded and the predictor scores on declared probabilities alone.
func WithRecorder(r stats.Recorder) Option {
	return func(a *Assembler) { a.recorder = r }
}

// WithIDGenerator overrides the request id source. Tests pass a
// FixedGenerator for deterministic responses.
func WithIDGenerator(g IDGenerator) Option {
	return func(a *Assembler) {
		if g != nil {
			a.ids = g
		}
	}
}

// WithLogger sets the assembler's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Assembler over the given catalog. The catalog is copied
// and hashed once; config faults surface here as *ConfigError.
func New(actions []model.Action, cfg Config, opts ...Option) (*Assembler, error) {
	searchCfg, err := cfg.searchConfig()
	if err != nil {
		return nil, err
	}

	copied := make([]model.Action, len(actions))
	copy(copied, actions)

	hash, err := model.CatalogHash(copied)
	if err != nil {
		return nil, fmt.Errorf("plan: catalog hash: %w", err)
	}

	a := &Assembler{
		actions:     copied,
		catalogHash: hash,
		cfg:         cfg,
		searchCfg:   searchCfg,
		ids:         UUIDv7Generator{},
		logger:      slog.Default(),
	}
	if cfg.EnableCache {
		a.cache = newResponseCache(cfg.cacheCapacity())
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Sequence runs one full planning cycle: predictor, seeded search,
// runtime guard, temporal validation, bounded correction, fallback.
//
// A failure to plan is a degraded response, not an error. Errors are
// reserved for malformed inputs (unhashable states).
func (a *Assembler) Sequence(ctx context.Context, req Request) (*SequencingResponse, error) {
	start := time.Now()
	requestID := a.ids.Generate()

	if len(a.actions) == 0 {
		// Boundary: nothing to plan with. Degraded, never an error.
		a.logger.Warn("planning with empty catalog", "request_id", requestID)
		return &SequencingResponse{
			RequestID:  requestID,
			Degraded:   true,
			UnmetGoals: req.Goal.Diff(req.Initial),
			Elapsed:    time.Since(start),
		}, nil
	}

	key, err := a.requestKey(req)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		if cached, ok := a.cache.get(key); ok {
			a.logger.Debug("cache hit", "request_id", cached.RequestID, "key", key)
			return cached, nil
		}
	}

	seed := a.predictSeed(req)

	eng, err := search.New(a.actions, a.searchCfg)
	if err != nil {
		return nil, err
	}
	found, err := eng.FindSeeded(ctx, req.Initial, req.Goal, seed)
	if err != nil {
		return nil, err
	}

	seq := found.Sequence
	report := ltl.NewValidator(ltl.WithValidatorLogger(a.logger)).Validate(seq, req.Initial, req.Specs)
	if !report.OK || len(ltl.DetectRuntimeErrors(seq, req.Initial, a.actions)) != 0 {
		copts := []ltl.CorrectorOption{ltl.WithCorrectorLogger(a.logger)}
		if a.cfg.MaxCorrections > 0 {
			copts = append(copts, ltl.WithMaxAttempts(a.cfg.MaxCorrections))
		}
		out := ltl.NewCorrector(a.actions, a.searchCfg, copts...).
			Correct(ctx, seq, req.Initial, req.Goal, req.Specs)
		seq = out.Sequence
		report = out.Report
	}

	resp := a.assemble(requestID, req, seq, report, start)
	a.recordOutcome(resp.Success, seq)

	if a.cache != nil {
		a.cache.put(key, resp)
	}
	return resp, nil
}

// assemble is the single place the success invariant is computed.
func (a *Assembler) assemble(requestID string, req Request, seq model.Sequence, report ltl.Report, start time.Time) *SequencingResponse {
	final, err := seq.Replay(req.Initial)
	if err != nil {
		// The sequence does not even replay; treat the initial state as
		// the reachable frontier.
		final = req.Initial
	}
	goalReached := req.Goal.Reached(final)
	success := goalReached && len(report.Violations) == 0

	resp := &SequencingResponse{
		RequestID: requestID,
		Success:   success,
		Sequence:  seq.Actions(),
		Degraded:  !success,
		Elapsed:   time.Since(start),
		Cost:      seq.Cost(),
	}
	switch {
	case !goalReached:
		resp.UnmetGoals = req.Goal.Diff(final)
	case !success:
		// Goal reached but high-priority violations remain after
		// correction; the violated specs are the unmet obligations.
		for _, v := range report.Violations {
			resp.UnmetGoals = append(resp.UnmetGoals, v.Spec)
		}
	}
	for _, v := range report.Violations {
		resp.ValidationWarnings = append(resp.ValidationWarnings,
			fmt.Sprintf("%s %s: %s", v.Priority, v.Spec, v.Formula))
	}
	for _, w := range report.Warnings {
		resp.ValidationWarnings = append(resp.ValidationWarnings,
			fmt.Sprintf("%s %s: %s", w.Priority, w.Spec, w.Formula))
	}

	a.logger.Info("planning cycle finished",
		"request_id", requestID,
		"success", success,
		"degraded", resp.Degraded,
		"actions", len(resp.Sequence),
		"cost", resp.Cost,
		"violations", len(report.Violations),
	)
	return resp
}

// Model returns the predictor's raw material: the best candidate per
// descriptor, grouped into one provisional sequence per contiguous run of
// answered descriptors. Gaps split sequences; nothing is fabricated to
// bridge them.
func (a *Assembler) Model(_ context.Context, req Request) (*ModelingResponse, error) {
	candidates := a.predictor().Predict(req.Initial, req.Descriptors)

	best := make(map[int]predict.Candidate, len(candidates))
	for _, c := range candidates {
		if prev, ok := best[c.DescriptorIndex]; !ok || c.Score > prev.Score {
			best[c.DescriptorIndex] = c
		}
	}

	resp := &ModelingResponse{RawSequenceCount: len(candidates)}
	var run []model.Action
	for i := range req.Descriptors {
		c, ok := best[i]
		if !ok {
			if len(run) > 0 {
				resp.Sequences = append(resp.Sequences, run)
				run = nil
			}
			continue
		}
		run = append(run, c.Transition.Action)
	}
	if len(run) > 0 {
		resp.Sequences = append(resp.Sequences, run)
	}
	resp.Success = len(resp.Sequences) > 0
	return resp, nil
}

func (a *Assembler) predictor() *predict.Predictor {
	return predict.New(a.actions, a.recorder)
}

// predictSeed turns predictor candidates into a search seed. Candidates
// arrive ranked by score; the seed biases expansion order only.
func (a *Assembler) predictSeed(req Request) []model.Transition {
	if len(req.Descriptors) == 0 {
		return nil
	}
	candidates := a.predictor().Predict(req.Initial, req.Descriptors)
	seed := make([]model.Transition, len(candidates))
	for i, c := range candidates {
		seed[i] = c.Transition
	}
	return seed
}

// recordOutcome folds the cycle outcome into every action of the
// returned sequence. Cache hits skip this path so repeated identical
// requests do not inflate the statistics.
func (a *Assembler) recordOutcome(success bool, seq model.Sequence) {
	if a.recorder == nil {
		return
	}
	// A failed write is logged and skipped; the remaining actions still
	// get their outcome folded in.
	for _, id := range seq.ActionIDs() {
		if err := a.recorder.Record(id, success); err != nil {
			a.logger.Warn("recording action outcome failed", "action", id, "error", err)
		}
	}
}

// requestKey builds the cache key: the problem fingerprint extended with
// a digest of the request's temporal specs, since specs change the
// validated outcome for an otherwise identical problem.
func (a *Assembler) requestKey(req Request) (string, error) {
	fp, err := model.ProblemFingerprint(
		req.Initial, req.Goal, a.catalogHash,
		a.searchCfg.Algorithm.String(), a.heuristicName(),
	)
	if err != nil {
		return "", fmt.Errorf("plan: request key: %w", err)
	}
	if len(req.Specs) == 0 {
		return fp, nil
	}

	var sb strings.Builder
	for _, s := range req.Specs {
		sb.WriteString(s.Name)
		sb.WriteByte(0)
		if s.Formula != nil {
			sb.WriteString(s.Formula.String())
		}
		sb.WriteByte(0)
		sb.WriteString(s.Priority.String())
		sb.WriteByte(0)
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return fp + ":" + hex.EncodeToString(sum[:]), nil
}

func (a *Assembler) heuristicName() string {
	kind := a.cfg.Heuristic
	if kind == 0 {
		return "goal_distance"
	}
	return kind.String()
}
