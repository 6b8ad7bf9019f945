package directory

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jmgilman/go/fs/core"
)

// Collection is the directory-object access layer for one entity type.
// It owns the type's pair of cache tiers (memory index and disk store)
// and resolves lookups through them before touching the network.
type Collection struct {
	cfg     Config
	baseURL string
	tr      *Transport
	store   *Store
	index   *Index
	log     *Logger
	workers int
}

// NewCollection creates the access layer for one entity type. The cache
// subdirectory <root>/<cfg.Name> is created on first use.
func NewCollection(
	cfg Config,
	baseURL string,
	tr *Transport,
	fsys core.FS,
	root string,
	log *Logger,
	workers int,
) (*Collection, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}
	if log == nil {
		log = NewNopLogger()
	}
	if workers < 1 {
		workers = defaultWorkers
	}
	store, err := NewStore(fsys, root, cfg.Name, cfg.KeyCaseInsensitive, log)
	if err != nil {
		return nil, err
	}
	return &Collection{
		cfg:     cfg,
		baseURL: baseURL,
		tr:      tr,
		store:   store,
		index:   NewIndex(),
		log:     log.With("type", cfg.Name),
		workers: workers,
	}, nil
}

// Config returns the collection's entity-type configuration.
func (c *Collection) Config() Config {
	return c.cfg
}

// Resolve returns the entity for a lookup token that may be an opaque
// identifier or a name key. Lookup order is memory index, then disk store
// (identifier-form tokens only), then a single collection-filter network
// query. A network hit populates both cache tiers under both aliases;
// an empty result records a negative marker and returns ErrNotFound.
//
// With force set, both cache tiers are bypassed and overwritten with the
// fresh result.
func (c *Collection) Resolve(ctx context.Context, token string, force bool) (Entity, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty lookup token", ErrNotFound)
	}
	isID := c.cfg.IsID(token)
	key := token
	if !isID {
		key = c.cfg.normalizeKey(token)
	}

	if !force {
		if c.index.Negative(key) {
			c.log.Debug(ctx, "negative cache hit", "key", key)
			return nil, fmt.Errorf("%w: %s", ErrNotFound, token)
		}
		if ent, ok := c.index.Get(key); ok {
			return ent, nil
		}
		// Disk files are keyed by resolved identifier, so only
		// identifier-form tokens can be checked here.
		if isID {
			ent, err := c.store.Read(ctx, key)
			switch {
			case err == nil:
				c.indexEntity(ent)
				return ent, nil
			case errors.Is(err, ErrCorruptEntry):
				c.log.Debug(ctx, "corrupt disk cache entry, refetching", "id", key)
			case errors.Is(err, ErrNotFound):
			default:
				return nil, err
			}
		}
	}

	ent, err := c.fetchOne(ctx, isID, key)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		c.index.PutNegative(key)
		c.log.Debug(ctx, "lookup matched no record", "token", token)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, token)
	}

	id := ent.String(c.cfg.IDField)
	if id == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingID, token)
	}
	if err := c.store.Write(ctx, id, ent); err != nil {
		return nil, err
	}
	c.indexEntity(ent)
	return ent, nil
}

// ResolveID resolves a token and returns just the entity identifier.
func (c *Collection) ResolveID(ctx context.Context, token string, force bool) (string, error) {
	ent, err := c.Resolve(ctx, token, force)
	if err != nil {
		return "", err
	}
	return ent.String(c.cfg.IDField), nil
}

// Invalidate removes the entity from both cache tiers. The next Resolve
// for any of its aliases goes back to the network. Idempotent.
func (c *Collection) Invalidate(ctx context.Context, token string) error {
	isID := c.cfg.IsID(token)
	key := token
	if !isID {
		key = c.cfg.normalizeKey(token)
	}

	aliases := []string{key}
	id := key
	if ent, ok := c.index.Get(key); ok {
		id = ent.String(c.cfg.IDField)
		aliases = append(aliases, id, c.cfg.normalizeKey(ent.String(c.cfg.KeyField)))
	}
	c.index.Delete(aliases...)
	if !isID && id == key {
		// Name-form token never resolved in this run; there is no
		// identifier to locate a disk file with.
		return nil
	}
	return c.store.Invalidate(ctx, id)
}

// fetchOne issues exactly one collection-filter query for the token,
// by identifier or by name-key equality, never both at once. A nil entity
// with nil error means the filter matched no rows.
func (c *Collection) fetchOne(ctx context.Context, isID bool, token string) (Entity, error) {
	field := c.cfg.KeyField
	if isID {
		field = c.cfg.IDField
	}
	query := c.cfg.FilterQuery(field, token)
	mergeQuery(query, c.cfg.ExtraQuery)

	resp, err := c.tr.Get(ctx, c.baseURL+c.cfg.CollectionPath, query)
	if err != nil {
		return nil, err
	}
	items, _, err := decodePage(c.cfg.Pagination, resp)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	// The provider does not guarantee name uniqueness; the first row of
	// the response is authoritative.
	return items[0], nil
}

// indexEntity stores the entity under both of its aliases.
func (c *Collection) indexEntity(ent Entity) {
	id := ent.String(c.cfg.IDField)
	key := c.cfg.normalizeKey(ent.String(c.cfg.KeyField))
	c.index.Put(id, key, ent)
}

// mergeQuery copies extra parameters into query without overwriting
// filter parameters already present.
func mergeQuery(query, extra url.Values) {
	for k, vs := range extra {
		if _, ok := query[k]; ok {
			continue
		}
		for _, v := range vs {
			query.Add(k, v)
		}
	}
}
