package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Domain prefixes for content-addressed identity. Version suffix enables
// future algorithm migration.
const (
	DomainState   = "sequor/state/v1"
	DomainProblem = "sequor/problem/v1"
	DomainCatalog = "sequor/catalog/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content-addressed identity of a state. Stable
// across processes and map iteration orders; used as the search visited key.
func (s State) Fingerprint() (string, error) {
	canonical, err := MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("state fingerprint: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error. States built from
// Value scalars cannot fail to marshal; use where the state is known valid.
func (s State) MustFingerprint() string {
	fp, err := s.Fingerprint()
	if err != nil {
		panic(err)
	}
	return fp
}

// ProblemFingerprint identifies a full planning problem for cache keying:
// initial state, goal state, catalog identity, algorithm, and heuristic.
// Two requests with the same fingerprint are the same problem and may share
// a cached response.
func ProblemFingerprint(initial State, goal Goal, catalogHash, algorithm, heuristic string) (string, error) {
	initFP, err := initial.Fingerprint()
	if err != nil {
		return "", fmt.Errorf("problem fingerprint: initial: %w", err)
	}
	goalFP, err := State(goal.Want).Fingerprint()
	if err != nil {
		return "", fmt.Errorf("problem fingerprint: goal: %w", err)
	}

	// Fixed field order; components are themselves hex digests or enum
	// names, so newline joining is unambiguous.
	payload := strings.Join([]string{initFP, goalFP, catalogHash, algorithm, heuristic}, "\n")
	return hashWithDomain(DomainProblem, []byte(payload)), nil
}

// CatalogHash identifies an action catalog by the canonical form of each
// action in declaration order.
func CatalogHash(actions []Action) (string, error) {
	var b strings.Builder
	for _, a := range actions {
		canonical, err := a.marshalCanonical()
		if err != nil {
			return "", fmt.Errorf("catalog hash: action %q: %w", a.ID, err)
		}
		b.Write(canonical)
		b.WriteByte('\n')
	}
	return hashWithDomain(DomainCatalog, []byte(b.String())), nil
}
