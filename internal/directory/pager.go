package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// defaultWorkers bounds the per-item enrichment pool.
const defaultWorkers = 5

// FetchAll materializes the full collection for this entity type.
//
// When the disk store carries a completion marker from a previous full
// walk, the collection is served wholesale from disk up to stopLimit with
// zero network calls. Otherwise the provider's pagination cursor is
// followed to exhaustion, every item feeding both cache tiers as it
// arrives. With stopLimit > 0, no further page requests are issued once
// enough items have accumulated; the final page may overshoot and is not
// truncated. The completion marker is written only after an untruncated
// walk, so a partially populated directory from an aborted or limited run
// is never mistaken for a complete collection.
func (c *Collection) FetchAll(ctx context.Context, stopLimit int) ([]Entity, error) {
	complete, err := c.store.Complete(ctx)
	if err != nil {
		return nil, err
	}
	if complete {
		c.log.Debug(ctx, "serving collection from disk cache", "stop_limit", stopLimit)
		items, err := c.store.List(ctx, stopLimit)
		if err != nil {
			return nil, err
		}
		for _, ent := range items {
			c.indexEntity(ent)
		}
		return items, nil
	}

	pageURL := c.baseURL + c.cfg.CollectionPath
	query := c.pageQuery()
	var items []Entity
	truncated := false
	for {
		c.log.Info(ctx, "fetching collection page", "url", pageURL)
		resp, err := c.tr.Get(ctx, pageURL, query)
		if err != nil {
			return nil, err
		}
		page, next, err := decodePage(c.cfg.Pagination, resp)
		if err != nil {
			return nil, err
		}
		for _, ent := range page {
			id := ent.String(c.cfg.IDField)
			if id == "" {
				return nil, fmt.Errorf("%w: collection item in %s", ErrMissingID, c.cfg.Name)
			}
			if err := c.store.Write(ctx, id, ent); err != nil {
				return nil, err
			}
			c.indexEntity(ent)
		}
		items = append(items, page...)

		if next == "" {
			break
		}
		if stopLimit > 0 && len(items) >= stopLimit {
			truncated = true
			break
		}
		// The next link embeds the original query parameters.
		pageURL, query = next, nil
	}

	if !truncated {
		if err := c.store.MarkComplete(ctx); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// ParallelEach runs fn over the items in a bounded worker pool. Item
// order is not preserved and items are independent; the first error
// cancels the remaining work. Used for per-item enrichment after a
// collection listing, such as fetching each group's membership.
func (c *Collection) ParallelEach(ctx context.Context, items []Entity, fn func(ctx context.Context, ent Entity) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, ent := range items {
		g.Go(func() error {
			return fn(gctx, ent)
		})
	}
	return g.Wait()
}

// pageQuery builds the first-page query parameters.
func (c *Collection) pageQuery() url.Values {
	query := url.Values{}
	if c.cfg.PageLimit > 0 {
		switch c.cfg.Pagination {
		case PaginateOData:
			query.Set("$top", strconv.Itoa(c.cfg.PageLimit))
		case PaginateLinkHeader:
			query.Set("limit", strconv.Itoa(c.cfg.PageLimit))
		}
	}
	mergeQuery(query, c.cfg.ExtraQuery)
	return query
}

// decodePage extracts a page of items and the next-page URL from a
// response, per the provider's pagination convention.
func decodePage(style PaginationStyle, resp *Response) ([]Entity, string, error) {
	switch style {
	case PaginateOData:
		var env struct {
			Value []Entity `json:"value"`
			Next  string   `json:"@odata.nextLink"`
		}
		if err := json.Unmarshal(resp.Body, &env); err != nil {
			return nil, "", fmt.Errorf("failed to decode response body: %w", err)
		}
		return env.Value, env.Next, nil
	case PaginateLinkHeader:
		var items []Entity
		if err := json.Unmarshal(resp.Body, &items); err != nil {
			return nil, "", fmt.Errorf("failed to decode response body: %w", err)
		}
		return items, linkNext(resp.Header.Values("Link")), nil
	default:
		return nil, "", fmt.Errorf("unknown pagination style %d", style)
	}
}

// linkNext extracts the rel="next" URL from Link header values.
func linkNext(links []string) string {
	for _, header := range links {
		for _, link := range strings.Split(header, ",") {
			if !strings.Contains(link, `rel="next"`) {
				continue
			}
			start := strings.Index(link, "<")
			end := strings.Index(link, ">")
			if start >= 0 && end > start {
				return link[start+1 : end]
			}
		}
	}
	return ""
}
