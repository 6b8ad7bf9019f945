package directory

import (
	"errors"

	perrors "github.com/jmgilman/go/errors"
)

// ErrNotFound is returned when a lookup matched no directory record,
// including negative cache hits.
var ErrNotFound = errors.New("directory entity not found")

// ErrCorruptEntry is returned when a disk cache file cannot be parsed.
// Callers treat it as a cache miss and refetch.
var ErrCorruptEntry = errors.New("disk cache entry is corrupted")

// ErrMissingID is returned when a fetched record lacks its identifier field.
var ErrMissingID = errors.New("directory entity has no identifier field")

func errConfig(msg string) error {
	return perrors.New(perrors.CodeInvalidConfig, "directory config: "+msg)
}
