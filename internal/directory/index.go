package directory

import "sync"

// Index is the in-process cache tier: a map from every known alias of an
// entity (its identifier and its normalized name key) to one shared value.
// Storing both aliases on every put is what prevents the classic bug of
// "cached by name, refetched by id" and vice versa.
//
// Negative lookups are recorded here and only here: a confirmed-absent
// result is not retried within one process run but is retried fresh on
// the next run, because markers are never persisted to disk.
type Index struct {
	mu       sync.RWMutex
	entries  map[string]Entity
	negative map[string]struct{}
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		entries:  make(map[string]Entity),
		negative: make(map[string]struct{}),
	}
}

// Get retrieves an entity by alias.
func (idx *Index) Get(key string) (Entity, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ent, ok := idx.entries[key]
	return ent, ok
}

// Negative reports whether the key carries a confirmed-absent marker.
func (idx *Index) Negative(key string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.negative[key]
	return ok
}

// Put stores the entity under both its identifier and its name key, and
// clears any negative markers for those aliases. Both aliases resolve to
// the same value afterward without further I/O.
func (idx *Index) Put(id, key string, ent Entity) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if id != "" {
		idx.entries[id] = ent
		delete(idx.negative, id)
	}
	if key != "" {
		idx.entries[key] = ent
		delete(idx.negative, key)
	}
}

// PutNegative records a confirmed-absent lookup.
func (idx *Index) PutNegative(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.negative[key] = struct{}{}
}

// Delete removes the given aliases and any negative markers for them.
func (idx *Index) Delete(keys ...string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, k := range keys {
		delete(idx.entries, k)
		delete(idx.negative, k)
	}
}

// Len returns the number of stored aliases.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}
