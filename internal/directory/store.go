package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/jmgilman/go/fs/core"
)

// completeMarker is written after a full, untruncated pagination walk.
// Its presence is the only signal that the on-disk collection is complete;
// bare file existence is not trusted, since an aborted run leaves a
// partially populated directory behind.
const completeMarker = ".complete"

// Store persists one JSON document per entity under a directory.
// Filenames are a reversible, filesystem-safe percent-encoding of the
// entity identifier with a ".json" suffix, lower-cased when the entity
// type's canonical key is case-insensitive.
//
// The store assumes a single writing process per cache directory;
// concurrent runs against the same directory may race and are out of
// scope. Within one process it is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	fs    core.FS
	dir   string
	lower bool
	log   *Logger
}

// NewStore creates a store rooted at <root>/<name>, creating the
// directory if needed.
func NewStore(fsys core.FS, root, name string, lower bool, log *Logger) (*Store, error) {
	if fsys == nil {
		return nil, fmt.Errorf("filesystem cannot be nil")
	}
	if root == "" || name == "" {
		return nil, fmt.Errorf("cache root and entity type name cannot be empty")
	}
	if log == nil {
		log = NewNopLogger()
	}
	dir := path.Join(root, name)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %q: %w", dir, err)
	}
	return &Store{fs: fsys, dir: dir, lower: lower, log: log}, nil
}

// Exists reports whether a cache file exists for the identifier.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fs.Exists(s.fileName(id))
}

// Read loads the cached entity for the identifier.
// Returns ErrNotFound when no file exists and ErrCorruptEntry when the
// file cannot be parsed.
func (s *Store) Read(ctx context.Context, id string) (Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	name := s.fileName(id)
	exists, err := s.fs.Exists(name)
	if err != nil {
		return nil, fmt.Errorf("failed to check cache file %q: %w", name, err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	data, err := s.fs.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file %q: %w", name, err)
	}
	var ent Entity
	if err := json.Unmarshal(data, &ent); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptEntry, name)
	}
	return ent, nil
}

// Write persists the entity under the identifier, replacing any previous
// document whole. Write failures are propagated, not retried.
func (s *Store) Write(ctx context.Context, id string, ent Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return fmt.Errorf("failed to marshal entity %q: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.fileName(id)
	if err := s.fs.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file %q: %w", name, err)
	}
	s.log.Debug(ctx, "disk cache write", "file", name)
	return nil
}

// Invalidate removes the cache file for the identifier if present.
// Idempotent: removing a missing entry is not an error. Invalidation also
// clears the completion marker, since the collection is no longer whole.
func (s *Store) Invalidate(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.removeIfPresent(s.fileName(id)); err != nil {
		return err
	}
	return s.removeIfPresent(path.Join(s.dir, completeMarker))
}

// List loads cached entities from disk, up to limit when limit > 0.
// Corrupt files are skipped. Order follows the directory listing.
func (s *Store) List(ctx context.Context, limit int) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory %q: %w", s.dir, err)
	}
	var out []Entity
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		data, err := s.fs.ReadFile(path.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read cache file %q: %w", entry.Name(), err)
		}
		var ent Entity
		if err := json.Unmarshal(data, &ent); err != nil {
			s.log.Debug(ctx, "skipping corrupt cache file", "file", entry.Name())
			continue
		}
		out = append(out, ent)
	}
	return out, nil
}

// Count returns the number of cache files present.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory %q: %w", s.dir, err)
	}
	n := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			n++
		}
	}
	return n, nil
}

// Complete reports whether the collection carries a completion marker.
func (s *Store) Complete(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fs.Exists(path.Join(s.dir, completeMarker))
}

// MarkComplete records that the on-disk collection is the result of a
// full, untruncated pagination walk.
func (s *Store) MarkComplete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name := path.Join(s.dir, completeMarker)
	if err := s.fs.WriteFile(name, []byte("{}"), 0o644); err != nil {
		return fmt.Errorf("failed to write completion marker %q: %w", name, err)
	}
	return nil
}

// removeIfPresent removes a file, ignoring non-existence. Caller holds
// the write lock.
func (s *Store) removeIfPresent(name string) error {
	exists, err := s.fs.Exists(name)
	if err != nil {
		return fmt.Errorf("failed to check cache file %q: %w", name, err)
	}
	if !exists {
		return nil
	}
	if err := s.fs.Remove(name); err != nil {
		return fmt.Errorf("failed to remove cache file %q: %w", name, err)
	}
	return nil
}

// fileName maps an identifier to its cache file path. The encoding is
// reversible via url.QueryUnescape.
func (s *Store) fileName(id string) string {
	if s.lower {
		id = strings.ToLower(id)
	}
	return path.Join(s.dir, url.QueryEscape(id)+".json")
}
