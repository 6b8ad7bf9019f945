package idp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Microsoft Graph entity-type presets. Graph object identifiers are
// UUIDs, collections wrap items in a "value" array, and pagination
// follows the "@odata.nextLink" body field.

// IsGraphID reports whether a lookup token is a Graph object identifier.
func IsGraphID(token string) bool {
	return uuid.Validate(token) == nil
}

// graphFilter builds an OData equality filter for a single field.
// Single quotes in the value are doubled per the OData escaping rule.
func graphFilter(field, value string) url.Values {
	escaped := strings.ReplaceAll(value, "'", "''")
	return url.Values{"$filter": {fmt.Sprintf("%s eq '%s'", field, escaped)}}
}

// GraphUsers configures the Entra user collection. Principal names are
// email-shaped and compared case-insensitively.
func GraphUsers() Config {
	return Config{
		Name:               "entra_users",
		CollectionPath:     "/v1.0/users",
		KeyField:           "userPrincipalName",
		KeyCaseInsensitive: true,
		IsID:               IsGraphID,
		FilterQuery:        graphFilter,
		Pagination:         PaginateOData,
		PageLimit:          250,
	}
}

// GraphGroups configures the Entra group collection.
func GraphGroups() Config {
	return Config{
		Name:           "entra_groups",
		CollectionPath: "/v1.0/groups",
		KeyField:       "displayName",
		IsID:           IsGraphID,
		FilterQuery:    graphFilter,
		Pagination:     PaginateOData,
		PageLimit:      250,
	}
}

// GraphApplications configures the Entra application (app registration)
// collection.
func GraphApplications() Config {
	return Config{
		Name:           "entra_apps",
		CollectionPath: "/v1.0/applications",
		KeyField:       "displayName",
		IsID:           IsGraphID,
		FilterQuery:    graphFilter,
		Pagination:     PaginateOData,
		PageLimit:      250,
	}
}

// GraphServicePrincipals configures the Entra service principal
// (enterprise application) collection.
func GraphServicePrincipals() Config {
	return Config{
		Name:           "entra_service_principals",
		CollectionPath: "/v1.0/servicePrincipals",
		KeyField:       "displayName",
		IsID:           IsGraphID,
		FilterQuery:    graphFilter,
		Pagination:     PaginateOData,
		PageLimit:      250,
	}
}
