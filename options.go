// Package idp public configuration.
// This file contains functional options for the Client.
package idp

import (
	"log/slog"
	"time"

	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"

	"github.com/jmgilman/go/idp/internal/directory"
)

// ClientOptions contains configuration options for the Client.
type ClientOptions struct {
	// FS provides filesystem operations for the disk cache tier.
	// Defaults to an OS-backed filesystem; tests inject an in-memory one.
	FS core.FS

	// CacheRoot is the directory under which one subdirectory per entity
	// type is created on first use.
	CacheRoot string

	// RateLimit is the maximum number of outbound calls per credential
	// slot in any rolling RateWindow.
	RateLimit int

	// RateWindow is the rolling interval the rate limit applies to.
	RateWindow time.Duration

	// CredentialSlots is the number of credentials the requester can
	// select between. Slots are used round-robin; provider limits are
	// per-credential, so throughput scales with slot count.
	CredentialSlots int

	// Workers bounds the parallel per-item enrichment pool.
	Workers int

	// Logger receives structured logs from every component.
	// Defaults to a no-op logger.
	Logger *Logger
}

// defaultClientOptions mirrors the limits observed against real tenants:
// 48 calls per minute per credential and five enrichment workers.
func defaultClientOptions() ClientOptions {
	return ClientOptions{
		FS:              billy.NewLocal(),
		CacheRoot:       "cache",
		RateLimit:       48,
		RateWindow:      directory.DefaultRateWindow,
		CredentialSlots: 1,
		Workers:         5,
		Logger:          directory.NewNopLogger(),
	}
}

// Option is a functional option for configuring the Client.
type Option func(*ClientOptions)

// WithFS sets the filesystem backing the disk cache tier.
// This is primarily used for testing with in-memory filesystems.
func WithFS(fsys core.FS) Option {
	return func(opts *ClientOptions) {
		opts.FS = fsys
	}
}

// WithCacheRoot sets the disk cache root directory.
func WithCacheRoot(root string) Option {
	return func(opts *ClientOptions) {
		opts.CacheRoot = root
	}
}

// WithRateLimit sets the maximum calls per credential slot per rolling
// window.
func WithRateLimit(limit int) Option {
	return func(opts *ClientOptions) {
		opts.RateLimit = limit
	}
}

// WithRateWindow overrides the rolling rate-limit interval.
// The provider default is one minute.
func WithRateWindow(window time.Duration) Option {
	return func(opts *ClientOptions) {
		opts.RateWindow = window
	}
}

// WithCredentialSlots sets the number of credentials the requester
// round-robins across.
func WithCredentialSlots(slots int) Option {
	return func(opts *ClientOptions) {
		opts.CredentialSlots = slots
	}
}

// WithWorkers bounds the parallel enrichment worker pool.
func WithWorkers(workers int) Option {
	return func(opts *ClientOptions) {
		opts.Workers = workers
	}
}

// WithLogger injects a structured logger.
func WithLogger(log *Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = log
	}
}

// NewLogger creates a logger backed by the given slog handler. A nil
// handler logs text to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	return directory.NewLogger(handler)
}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *Logger {
	return directory.NewNopLogger()
}
