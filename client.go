package idp

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmgilman/go/idp/internal/directory"
)

// Re-exported core types. The implementation lives in internal/directory;
// these aliases are the public surface.
type (
	// Entity is a single directory record. See directory.Entity.
	Entity = directory.Entity

	// Config describes one entity type. See directory.Config.
	Config = directory.Config

	// Collection is the access layer for one entity type.
	Collection = directory.Collection

	// Requester performs one authenticated HTTP call. See
	// directory.Requester.
	Requester = directory.Requester

	// Response is a provider reply. See directory.Response.
	Response = directory.Response

	// Logger is the injectable structured logger.
	Logger = directory.Logger

	// PaginationStyle selects a provider pagination convention.
	PaginationStyle = directory.PaginationStyle
)

// Pagination conventions.
const (
	PaginateOData      = directory.PaginateOData
	PaginateLinkHeader = directory.PaginateLinkHeader
)

// Client is the entry point for directory access against one provider
// tenant. It owns a shared rate limiter and transport, and hands out one
// Collection per entity type. Each collection owns its own pair of cache
// tiers; cache state is never shared across entity types.
type Client struct {
	opts      ClientOptions
	baseURL   string
	transport *directory.Transport

	mu          sync.Mutex
	collections map[string]*Collection
}

// New creates a client over the given authenticated requester.
// baseURL is the provider API root (e.g. "https://graph.microsoft.com" or
// "https://example.okta.com").
func New(requester Requester, baseURL string, opts ...Option) (*Client, error) {
	if requester == nil {
		return nil, fmt.Errorf("requester cannot be nil")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	options := defaultClientOptions()
	for _, opt := range opts {
		opt(&options)
	}

	limiter := directory.NewLimiter(options.CredentialSlots, options.RateLimit, options.RateWindow)
	return &Client{
		opts:        options,
		baseURL:     baseURL,
		transport:   directory.NewTransport(requester, limiter, options.Logger),
		collections: make(map[string]*Collection),
	}, nil
}

// Collection returns the access layer for the given entity type, creating
// it (and its cache subdirectory) on first use. Repeated calls with the
// same Config.Name return the same instance.
func (c *Client) Collection(cfg Config) (*Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if col, ok := c.collections[cfg.Name]; ok {
		return col, nil
	}
	col, err := directory.NewCollection(
		cfg,
		c.baseURL,
		c.transport,
		c.opts.FS,
		c.opts.CacheRoot,
		c.opts.Logger,
		c.opts.Workers,
	)
	if err != nil {
		return nil, err
	}
	c.collections[cfg.Name] = col
	return col, nil
}

// Flush recursively deletes the cache root's contents. It does not reset
// the in-memory state of collections already handed out; callers wanting
// a truly cold start must construct a new Client afterward.
func (c *Client) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.opts.Logger.Info(ctx, "flushing disk cache", "root", c.opts.CacheRoot)
	if err := c.opts.FS.RemoveAll(c.opts.CacheRoot); err != nil {
		return fmt.Errorf("failed to flush cache root %q: %w", c.opts.CacheRoot, err)
	}
	return nil
}
