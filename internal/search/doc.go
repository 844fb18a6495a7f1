// Package search implements multi-strategy state-space plan search.
//
// The engine expands frontier nodes (state, path-so-far, cost-so-far) using
// one of four strategies: breadth-first, depth-first, A*, or
// greedy-best-first. Which strategy runs is a closed tagged variant chosen
// at call time - never a runtime string comparison.
//
// DETERMINISM:
//
// Expansion order is fully deterministic. Actions are tried in catalog
// declaration order (predictor-preferred actions first when seeded), and
// priority frontiers break ties by f, then g, then a monotonic insertion
// counter. The same problem always yields the same plan.
//
// BOUNDS:
//
// Hard bounds are mandatory. Every search carries a depth cap and a
// wall-clock budget; a zero budget gets the internal default ceiling rather
// than running unbounded. Budgets and context cancellation are polled at
// each frontier pop - cancellation is cooperative, not preemptive.
//
// DEGRADED RESULTS:
//
// Exhaustion and timeout are normal, reportable outcomes, not faults. The
// engine then returns the best partial path seen (lowest heuristic, then
// deepest), tagged Degraded, and never returns an error for "no exact
// solution".
package search
