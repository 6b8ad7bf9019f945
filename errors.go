package idp

import (
	stderrors "errors"

	"github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/idp/internal/directory"
)

// Sentinel errors surfaced by collection operations.
var (
	// ErrNotFound means a lookup matched no directory record, including
	// negative cache hits. Expected and recoverable: bulk callers skip
	// the record, they do not abort.
	ErrNotFound = directory.ErrNotFound

	// ErrCorruptEntry means a disk cache file failed to parse. Callers
	// normally never see it; the resolver treats it as a miss.
	ErrCorruptEntry = directory.ErrCorruptEntry
)

// IsNotFound reports whether err represents a missing directory record,
// either the package sentinel or a provider 404 classified by the
// transport.
func IsNotFound(err error) bool {
	if stderrors.Is(err, directory.ErrNotFound) {
		return true
	}
	return errors.GetCode(err) == errors.CodeNotFound
}

// IsTransient reports whether err is retryable (rate limiting, timeouts,
// connection resets). The transport already retries 429s internally, so a
// transient error escaping to the caller means the enclosing policy gave
// up.
func IsTransient(err error) bool {
	return errors.IsRetryable(err)
}
