// Package directory implements the rate-limited, dual-tier cache access
// layer for identity-provider directory objects.
//
// The package is organized around a small number of collaborating pieces:
//   - Limiter: sliding-window admission control across credential slots
//   - Transport: a Requester wrapper with 429-aware retry and pacing
//   - Store: one-JSON-document-per-entity disk cache
//   - Index: in-memory alias map (identifier and name key) with negative
//     lookup markers
//   - Collection: ties the tiers together behind Resolve and FetchAll
//
// A Collection owns its own Store and Index; collections for different
// entity types never share cache state, so identifier collisions between
// types cannot occur.
package directory
