// Package idp provides rate-limited, dual-tier cached access to
// identity-provider directory objects (users, groups, applications,
// service principals) for administrative batch jobs.
//
// The package does not implement HTTP transport or authentication: callers
// supply a Requester that performs one authenticated call with the
// credentials of a given slot, and the library layers sliding-window rate
// limiting, 429-aware retry, an in-memory alias index, and a
// JSON-per-object disk cache on top of it.
//
// Basic usage:
//
//	client, err := idp.New(requester, "https://graph.microsoft.com",
//	    idp.WithCacheRoot("/var/cache/dirsync"),
//	    idp.WithRateLimit(48),
//	)
//	if err != nil {
//	    return err
//	}
//
//	groups, err := client.Collection(idp.GraphGroups())
//	if err != nil {
//	    return err
//	}
//
//	// By name or by identifier; both aliases hit the same cached value.
//	g, err := groups.Resolve(ctx, "Finance Team", false)
//	same, err := groups.Resolve(ctx, g.String("id"), false)
//
//	// Bulk warm-up for reporting.
//	all, err := groups.FetchAll(ctx, 0)
//
// Lookups consult the in-memory index, then the disk cache, then issue a
// single collection-filter query; network hits populate both tiers under
// both the identifier and the name key. Confirmed-absent lookups are
// remembered in memory for the rest of the run.
package idp
