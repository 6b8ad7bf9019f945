package idp

import (
	"fmt"
	"net/url"
	"regexp"
)

// Okta entity-type presets. Okta object identifiers are 20-character
// alphanumeric tokens with a type prefix ("00u" users, "00g" groups,
// "0oa" apps), collections are bare JSON arrays, and pagination follows
// the Link response header with rel="next".

var (
	oktaIDPattern = regexp.MustCompile(`^00[a-zA-Z0-9]{18}$|^0oa[a-zA-Z0-9]{17}$`)
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// IsOktaID reports whether a lookup token is an Okta object identifier.
// Email-shaped tokens are always treated as name-form.
func IsOktaID(token string) bool {
	if emailPattern.MatchString(token) {
		return false
	}
	return oktaIDPattern.MatchString(token)
}

// oktaSearch builds an Okta search expression for a single field.
func oktaSearch(field, value string) url.Values {
	return url.Values{"search": {fmt.Sprintf("%s eq %q", field, value)}}
}

// oktaUserFilter looks users up with the short-form "q" parameter, which
// matches login and email fields server-side; identifier lookups use a
// search expression.
func oktaUserFilter(field, value string) url.Values {
	if field == "id" {
		return oktaSearch(field, value)
	}
	return url.Values{"q": {value}}
}

// OktaUsers configures the Okta user collection. Logins are email-shaped
// and compared case-insensitively.
func OktaUsers() Config {
	return Config{
		Name:               "okta_users",
		CollectionPath:     "/api/v1/users",
		KeyField:           "profile.login",
		KeyCaseInsensitive: true,
		IsID:               IsOktaID,
		FilterQuery:        oktaUserFilter,
		Pagination:         PaginateLinkHeader,
		PageLimit:          500,
	}
}

// OktaGroups configures the Okta group collection.
func OktaGroups() Config {
	return Config{
		Name:           "okta_groups",
		CollectionPath: "/api/v1/groups",
		KeyField:       "profile.name",
		IsID:           IsOktaID,
		FilterQuery:    oktaSearch,
		Pagination:     PaginateLinkHeader,
		PageLimit:      200,
	}
}

// OktaApps configures the Okta application collection.
func OktaApps() Config {
	return Config{
		Name:           "okta_apps",
		CollectionPath: "/api/v1/apps",
		KeyField:       "label",
		IsID:           IsOktaID,
		FilterQuery:    oktaSearch,
		Pagination:     PaginateLinkHeader,
		PageLimit:      200,
	}
}
