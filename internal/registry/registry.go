// Package registry holds the startup catalog of acts and their document
// stores. The registry is built once before serving begins and never mutated
// afterwards, so concurrent readers need no locking.
package registry

import (
	"fmt"

	"github.com/techvocates/nyaya/internal/domain"
	"github.com/techvocates/nyaya/internal/index"
)

// Entry pairs an act's routing metadata with its document store.
type Entry struct {
	Act   domain.Act
	Store *index.Store
}

// Registry maps act ids to entries, preserving registration order.
type Registry struct {
	entries []Entry
	byID    map[string]int
	sealed  bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byID: make(map[string]int)}
}

// Register adds an act with its document store. Startup only: registering
// after Seal, or a duplicate id, is a programming error.
func (r *Registry) Register(act domain.Act, store *index.Store) error {
	if r.sealed {
		return fmt.Errorf("registry is sealed, cannot register act %q", act.ID)
	}
	if act.ID == "" {
		return fmt.Errorf("act id is required")
	}
	if _, ok := r.byID[act.ID]; ok {
		return fmt.Errorf("act %q already registered", act.ID)
	}
	r.byID[act.ID] = len(r.entries)
	r.entries = append(r.entries, Entry{Act: act, Store: store})
	return nil
}

// Seal marks the end of the startup phase. Registration after Seal fails.
func (r *Registry) Seal() { r.sealed = true }

// List returns all registered acts in registration order.
func (r *Registry) List() []domain.Act {
	acts := make([]domain.Act, len(r.entries))
	for i, e := range r.entries {
		acts[i] = e.Act
	}
	return acts
}

// Get returns the entry for an act id.
func (r *Registry) Get(id string) (Entry, error) {
	i, ok := r.byID[id]
	if !ok {
		return Entry{}, fmt.Errorf("act %q: %w", id, domain.ErrActNotFound)
	}
	return r.entries[i], nil
}

// Len returns the number of registered acts.
func (r *Registry) Len() int { return len(r.entries) }
