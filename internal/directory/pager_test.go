package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmgilman/go/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedRequester serves a fixed set of records in OData pages of the
// requested size, issuing @odata.nextLink cursors between them.
func pagedRequester(t *testing.T, total, pageSize int) *fakeRequester {
	t.Helper()
	return &fakeRequester{handler: func(_, _ int, _, rawURL string, query url.Values) (*Response, error) {
		offset := 0
		if strings.Contains(rawURL, "skip=") {
			parsed, err := url.Parse(rawURL)
			require.NoError(t, err)
			fmt.Sscanf(parsed.Query().Get("skip"), "%d", &offset)
		}
		var rows []string
		for i := offset; i < offset+pageSize && i < total; i++ {
			rows = append(rows, fmt.Sprintf(`{"id":"abc-%d","displayName":"Group %d"}`, i, i))
		}
		body := fmt.Sprintf(`{"value":[%s]`, strings.Join(rows, ","))
		if next := offset + pageSize; next < total {
			body += fmt.Sprintf(`,"@odata.nextLink":"https://example.test/v1.0/groups?skip=%d"`, next)
		}
		body += "}"
		return jsonResponse(200, body), nil
	}}
}

func TestCollection_FetchAllWalksAllPages(t *testing.T) {
	req := pagedRequester(t, 9, 4)
	col, fsys := newTestCollection(t, testConfig(), req)
	ctx := context.Background()

	items, err := col.FetchAll(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, items, 9)
	assert.Equal(t, 3, req.callCount())

	// Every item landed in both tiers, plus the completion marker.
	count, err := col.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, count)
	assert.Equal(t, 18, col.index.Len()) // two aliases per entity

	exists, err := fsys.Exists("/cache/groups/.complete")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCollection_FetchAllServesFromDiskWhenComplete(t *testing.T) {
	req := pagedRequester(t, 9, 4)
	cfg := testConfig()
	fsys := billy.NewMemory()
	tr := NewTransport(req, NewLimiter(1, 1000, time.Minute), NewNopLogger())
	col, err := NewCollection(cfg, "https://example.test", tr, fsys, "/cache", NewNopLogger(), 2)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = col.FetchAll(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 3, req.callCount())

	// A fresh collection over the same filesystem serves the listing
	// wholesale from disk.
	col2, err := NewCollection(cfg, "https://example.test", tr, fsys, "/cache", NewNopLogger(), 2)
	require.NoError(t, err)
	items, err := col2.FetchAll(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, items, 9)
	assert.Equal(t, 3, req.callCount())

	// A stop limit over a complete cache bounds the listing, still with
	// zero network calls.
	col3, err := NewCollection(cfg, "https://example.test", tr, fsys, "/cache", NewNopLogger(), 2)
	require.NoError(t, err)
	limited, err := col3.FetchAll(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, limited, 3)
	assert.Equal(t, 3, req.callCount())
}

func TestCollection_FetchAllIgnoresPartialDiskCache(t *testing.T) {
	req := pagedRequester(t, 6, 3)
	col, fsys := newTestCollection(t, testConfig(), req)
	ctx := context.Background()

	// Cached entries without the completion marker must not be mistaken
	// for a complete collection.
	_, err := col.Resolve(ctx, "abc-0", false)
	require.NoError(t, err)
	require.Equal(t, 1, req.callCount())
	exists, err := fsys.Exists("/cache/groups/.complete")
	require.NoError(t, err)
	require.False(t, exists)

	items, err := col.FetchAll(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, items, 6)
	assert.Equal(t, 3, req.callCount())
}

func TestCollection_FetchAllStopLimit(t *testing.T) {
	req := pagedRequester(t, 20, 4)
	col, fsys := newTestCollection(t, testConfig(), req)
	ctx := context.Background()

	// The limit stops further page requests; the final page may
	// overshoot and is kept whole.
	items, err := col.FetchAll(ctx, 6)
	require.NoError(t, err)
	assert.Len(t, items, 8)
	assert.Equal(t, 2, req.callCount())

	// A truncated walk never writes the completion marker.
	exists, err := fsys.Exists("/cache/groups/.complete")
	require.NoError(t, err)
	assert.False(t, exists)

	// The next full walk starts over on the network.
	full, err := col.FetchAll(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, full, 20)
}

func TestCollection_FetchAllLinkHeader(t *testing.T) {
	cfg := testConfig()
	cfg.Name = "okta_users"
	cfg.CollectionPath = "/api/v1/users"
	cfg.KeyField = "profile.login"
	cfg.Pagination = PaginateLinkHeader
	cfg.PageLimit = 2

	pages := map[string]struct {
		body string
		next string
	}{
		"https://example.test/api/v1/users": {
			body: `[{"id":"abc-0","profile":{"login":"a@example.com"}},{"id":"abc-1","profile":{"login":"b@example.com"}}]`,
			next: "https://example.test/api/v1/users?after=abc-1",
		},
		"https://example.test/api/v1/users?after=abc-1": {
			body: `[{"id":"abc-2","profile":{"login":"c@example.com"}}]`,
		},
	}
	req := &fakeRequester{handler: func(_, _ int, _, rawURL string, _ url.Values) (*Response, error) {
		page, ok := pages[rawURL]
		if !ok {
			return jsonResponse(404, `{}`), nil
		}
		resp := jsonResponse(200, page.body)
		resp.Header = http.Header{}
		resp.Header.Add("Link", `<https://example.test/api/v1/users>; rel="self"`)
		if page.next != "" {
			resp.Header.Add("Link", fmt.Sprintf(`<%s>; rel="next"`, page.next))
		}
		return resp, nil
	}}

	col, _ := newTestCollection(t, cfg, req)
	items, err := col.FetchAll(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "a@example.com", items[0].String("profile.login"))

	// The first request carries the page size, cursor requests do not.
	require.NotEmpty(t, req.queries)
	assert.Equal(t, "2", req.queries[0].Get("limit"))
}

func TestCollection_ParallelEach(t *testing.T) {
	col, _ := newTestCollection(t, testConfig(), &fakeRequester{})

	items := make([]Entity, 20)
	for i := range items {
		items[i] = Entity{"id": fmt.Sprintf("abc-%d", i)}
	}

	var mu sync.Mutex
	seen := map[string]bool{}
	active, peak := 0, 0
	err := col.ParallelEach(context.Background(), items, func(_ context.Context, ent Entity) error {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		seen[ent.String("id")] = true
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 20)
	assert.LessOrEqual(t, peak, 2) // collection was built with 2 workers
}

func TestCollection_ParallelEachStopsOnError(t *testing.T) {
	col, _ := newTestCollection(t, testConfig(), &fakeRequester{})

	items := []Entity{{"id": "abc-1"}, {"id": "abc-2"}, {"id": "abc-3"}}
	boom := fmt.Errorf("membership fetch failed")
	err := col.ParallelEach(context.Background(), items, func(_ context.Context, ent Entity) error {
		if ent.String("id") == "abc-2" {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestLinkNext(t *testing.T) {
	tests := []struct {
		name  string
		links []string
		want  string
	}{
		{
			name:  "single next",
			links: []string{`<https://example.test/users?after=x>; rel="next"`},
			want:  "https://example.test/users?after=x",
		},
		{
			name: "self then next",
			links: []string{
				`<https://example.test/users>; rel="self"`,
				`<https://example.test/users?after=x>; rel="next"`,
			},
			want: "https://example.test/users?after=x",
		},
		{
			name:  "combined header",
			links: []string{`<https://a>; rel="self", <https://b>; rel="next"`},
			want:  "https://b",
		},
		{
			name:  "no next",
			links: []string{`<https://example.test/users>; rel="self"`},
			want:  "",
		},
		{
			name: "empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, linkNext(tt.links))
		})
	}
}
