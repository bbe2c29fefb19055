package catalog

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Transport is the opaque fetch collaborator: GET a URL, return the body
// bytes, error on non-success status or connectivity failure.
type Transport interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Credentials supplies the opaque identifiers needed to address the
// remote catalog. Implementations may rotate the API key between calls.
type Credentials interface {
	// APIKey returns the key to authenticate the next request with.
	APIKey() string
	// CatalogID identifies the listing collection (the playlist).
	CatalogID() string
	// ChannelID scopes free-text search.
	ChannelID() string
}

// Fetcher builds one enriched page (or one search result set) from the
// remote catalog. Implementations return both envelopes unmodified;
// merging is the cache's responsibility.
type Fetcher interface {
	// FetchPage issues the listing call with the given continuation token
	// ("" on the first page), then the batched detail call for the ids it
	// found.
	FetchPage(ctx context.Context, pageToken string) (listing, detail *Envelope, err error)

	// Search issues a free-text query, then the batched detail call.
	// Zero results yield ErrNoResults.
	Search(ctx context.Context, query string) (results, detail *Envelope, err error)
}

// Options holds the query-parameter constants of the remote calls. They
// are configuration, not contract, and may be tuned freely.
type Options struct {
	// BaseURL is the API root, without a trailing slash.
	BaseURL string
	// ListingParts / DetailParts / SearchParts are the part selectors.
	ListingParts string
	DetailParts  string
	SearchParts  string
	// ListingPageSize caps the listing call (default 50).
	ListingPageSize int
	// SearchPageSize caps the search call (default 16).
	SearchPageSize int
	// SearchOrder orders search results (default "date").
	SearchOrder string
}

// DefaultOptions returns the default query parameters.
func DefaultOptions() Options {
	return Options{
		BaseURL:         "https://www.googleapis.com/youtube/v3",
		ListingParts:    "snippet,contentDetails",
		DetailParts:     "snippet,contentDetails,statistics",
		SearchParts:     "snippet",
		ListingPageSize: 50,
		SearchPageSize:  16,
		SearchOrder:     "date",
	}
}

// Client is the REST implementation of Fetcher.
type Client struct {
	transport Transport
	creds     Credentials
	opts      Options
	log       *zap.Logger
}

// NewClient creates a REST fetcher over the given transport.
func NewClient(transport Transport, creds Credentials, opts Options, log *zap.Logger) *Client {
	if opts.BaseURL == "" {
		opts = DefaultOptions()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		transport: transport,
		creds:     creds,
		opts:      opts,
		log:       log,
	}
}

// FetchPage issues the listing call, then the batched detail call keyed by
// the content ids the listing produced. An empty id set short-circuits to
// an empty detail envelope without a network call.
func (c *Client) FetchPage(ctx context.Context, pageToken string) (*Envelope, *Envelope, error) {
	params := url.Values{}
	params.Set("part", c.opts.ListingParts)
	params.Set("playlistId", c.creds.CatalogID())
	params.Set("maxResults", strconv.Itoa(c.opts.ListingPageSize))
	params.Set("key", c.creds.APIKey())
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	listing, err := c.call(ctx, "listing", "/playlistItems", params)
	if err != nil {
		return nil, nil, err
	}

	detail, err := c.fetchDetail(ctx, listing.Items)
	if err != nil {
		return nil, nil, err
	}

	c.log.Debug("fetched catalog page",
		zap.Int("listing_items", len(listing.Items)),
		zap.Int("detail_items", len(detail.Items)),
		zap.Bool("has_next", listing.NextPageToken != ""))

	return listing, detail, nil
}

// Search issues the free-text query, then the batched detail call.
func (c *Client) Search(ctx context.Context, query string) (*Envelope, *Envelope, error) {
	params := url.Values{}
	params.Set("part", c.opts.SearchParts)
	params.Set("channelId", c.creds.ChannelID())
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(c.opts.SearchPageSize))
	params.Set("order", c.opts.SearchOrder)
	params.Set("type", "video")
	params.Set("key", c.creds.APIKey())

	results, err := c.call(ctx, "search", "/search", params)
	if err != nil {
		return nil, nil, err
	}
	if len(results.Items) == 0 {
		return nil, nil, ErrNoResults
	}

	detail, err := c.fetchDetail(ctx, results.Items)
	if err != nil {
		return nil, nil, err
	}

	return results, detail, nil
}

// fetchDetail issues one batched detail call for the ids found in items.
func (c *Client) fetchDetail(ctx context.Context, items []Item) (*Envelope, error) {
	ids := contentIDs(items)
	if len(ids) == 0 {
		return &Envelope{ItemsPresent: true, Items: []Item{}}, nil
	}

	params := url.Values{}
	params.Set("part", c.opts.DetailParts)
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", c.creds.APIKey())

	return c.call(ctx, "detail", "/videos", params)
}

// call fetches and decodes one envelope. A response without an items
// field is unusable and fails with a DecodeError.
func (c *Client) call(ctx context.Context, name, path string, params url.Values) (*Envelope, error) {
	u := c.opts.BaseURL + path + "?" + params.Encode()

	body, err := c.transport.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	env, err := DecodeEnvelope(name, body)
	if err != nil {
		return nil, err
	}
	if !env.ItemsPresent {
		return nil, &DecodeError{Call: name}
	}
	return env, nil
}

// contentIDs extracts the distinct content ids of items, in order.
// Entries without a resolvable id are skipped, never failing the page.
func contentIDs(items []Item) []string {
	seen := make(map[string]bool, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id := item.ContentID()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
