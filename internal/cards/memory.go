package cards

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepository holds card definitions in memory. It ships with the
// built-in set and accepts additional definitions at runtime.
type MemoryRepository struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewMemoryRepository creates a repository pre-loaded with the built-in
// card set.
func NewMemoryRepository() *MemoryRepository {
	repo := &MemoryRepository{defs: make(map[string]Definition)}
	for _, def := range seedDefinitions() {
		repo.defs[normalize(def.Name)] = def
	}
	return repo
}

// Put adds or replaces a definition.
func (r *MemoryRepository) Put(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[normalize(def.Name)] = def
}

// Get looks up a definition by name, case-insensitively.
func (r *MemoryRepository) Get(_ context.Context, name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[normalize(name)]
	if !ok {
		return Definition{}, errNotFound(name)
	}
	return def, nil
}

// List returns all definitions sorted by name.
func (r *MemoryRepository) List(_ context.Context) ([]Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
