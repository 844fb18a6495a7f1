// Package catalog loads and validates action catalogs and temporal specs
// from CUE domain files, and planning problems from YAML.
package catalog

import (
	"fmt"

	"github.com/sequorlabs/sequor/internal/model"
)

// Catalog is a validated, ordered collection of actions. Declaration
// order is preserved; it is the deterministic tie-break for search
// expansion.
type Catalog struct {
	actions []model.Action
	index   map[string]int
	hash    string
}

// New validates the actions and builds a Catalog. Duplicate ids and
// invalid actions fail here, at load time, with a typed error.
func New(actions []model.Action) (*Catalog, error) {
	index := make(map[string]int, len(actions))
	for i, a := range actions {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: action %q: %w", a.ID, err)
		}
		if prev, ok := index[a.ID]; ok {
			return nil, &DuplicateIDError{ID: a.ID, First: prev, Second: i}
		}
		index[a.ID] = i
	}

	copied := make([]model.Action, len(actions))
	copy(copied, actions)

	hash, err := model.CatalogHash(copied)
	if err != nil {
		return nil, fmt.Errorf("catalog: hash: %w", err)
	}

	return &Catalog{actions: copied, index: index, hash: hash}, nil
}

// Actions returns the actions in declaration order. The slice is shared;
// callers must not mutate it.
func (c *Catalog) Actions() []model.Action {
	return c.actions
}

// ByID looks up an action by id.
func (c *Catalog) ByID(id string) (model.Action, bool) {
	i, ok := c.index[id]
	if !ok {
		return model.Action{}, false
	}
	return c.actions[i], true
}

// Len returns the number of actions.
func (c *Catalog) Len() int {
	return len(c.actions)
}

// Hash is the canonical content hash of the catalog, computed once at
// construction. Cache keys and fingerprints depend on it.
func (c *Catalog) Hash() string {
	return c.hash
}

// DuplicateIDError reports two actions declared with the same id.
type DuplicateIDError struct {
	ID     string
	First  int
	Second int
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("catalog: duplicate action id %q (positions %d and %d)", e.ID, e.First, e.Second)
}
