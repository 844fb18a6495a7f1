// Package model provides the core value types for sequor.
//
// This package contains type definitions and pure functions only. All other
// internal packages import model; model imports nothing internal. This keeps
// the world-state layer foundational with no circular dependencies.
//
// Key design constraints:
//   - State is an immutable value: every effect application produces a new
//     State, never a mutation of an existing one. Frontier nodes in search
//     may therefore share states freely without aliasing bugs.
//   - All identity computation (visited keys, cache keys) goes through
//     canonical JSON with NFC-normalized strings and domain-separated
//     SHA-256 hashing. Map iteration order never leaks into an identity.
//   - An action with unsatisfied preconditions is never applied; Apply
//     fails fast before touching any effect.
package model
