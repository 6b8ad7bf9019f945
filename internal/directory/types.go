package directory

import (
	"net/url"
	"strings"
)

// Entity is a single directory record as returned by the provider.
// The full schema is provider-defined and deliberately not modeled; the
// access layer only depends on the identifier field and the configured
// name-key field. Unknown fields are preserved opaquely so callers can
// read-modify-write records (for example patch-merging a notes field).
type Entity map[string]any

// String returns the string value at the given dotted path
// (e.g. "id" or "profile.name"). It returns "" when the path is absent
// or the value is not a string.
func (e Entity) String(path string) string {
	var cur any = map[string]any(e)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur, ok = m[part]
		if !ok {
			return ""
		}
	}
	s, _ := cur.(string)
	return s
}

// Clone returns a deep copy of the entity. Mutating the clone never
// affects values held by the cache tiers.
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	return Entity(cloneValue(map[string]any(e)).(map[string]any))
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// PaginationStyle selects the provider's pagination convention.
type PaginationStyle int

const (
	// PaginateOData follows an "@odata.nextLink" body field, with page
	// items wrapped in a "value" array (Microsoft Graph).
	PaginateOData PaginationStyle = iota

	// PaginateLinkHeader follows a Link response header with rel="next",
	// with page items as a bare top-level array (Okta).
	PaginateLinkHeader
)

// Config describes one entity type to the access layer.
type Config struct {
	// Name labels the entity type and names its on-disk cache
	// subdirectory (e.g. "entra_groups", "okta_users").
	Name string

	// CollectionPath is the provider path of the paginated collection
	// endpoint, relative to the client base URL (e.g. "/v1.0/groups").
	CollectionPath string

	// IDField is the dotted path of the stable unique identifier.
	// Defaults to "id".
	IDField string

	// KeyField is the dotted path of the human-readable lookup key
	// (e.g. "displayName", "userPrincipalName", "profile.name").
	KeyField string

	// KeyCaseInsensitive lower-cases name-form lookup tokens and cache
	// keys. True for user principal names and email addresses.
	KeyCaseInsensitive bool

	// IsID reports whether a lookup token is identifier-form. Tokens
	// that fail the check are treated as name-form lookups.
	IsID func(token string) bool

	// FilterQuery builds the query parameters selecting the single
	// record whose field equals value. Called with either IDField or
	// KeyField, never both at once.
	FilterQuery func(field, value string) url.Values

	// ExtraQuery is merged into every collection request.
	ExtraQuery url.Values

	// Pagination selects the provider's pagination convention.
	Pagination PaginationStyle

	// PageLimit is the per-page item count requested during collection
	// walks. Zero leaves the provider default in place.
	PageLimit int
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch {
	case c.Name == "":
		return errConfig("Name is required")
	case c.CollectionPath == "":
		return errConfig("CollectionPath is required")
	case c.KeyField == "":
		return errConfig("KeyField is required")
	case c.IsID == nil:
		return errConfig("IsID is required")
	case c.FilterQuery == nil:
		return errConfig("FilterQuery is required")
	}
	return nil
}

// SetDefaults fills unset optional fields.
func (c *Config) SetDefaults() {
	if c.IDField == "" {
		c.IDField = "id"
	}
}

// normalizeKey applies the entity type's case rule to a name-form key.
func (c *Config) normalizeKey(key string) string {
	if c.KeyCaseInsensitive {
		return strings.ToLower(key)
	}
	return key
}
