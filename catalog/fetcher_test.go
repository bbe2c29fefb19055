package catalog

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// fakeTransport serves canned bodies per URL path and records every request.
type fakeTransport struct {
	responses map[string]string // path -> body
	err       error
	requests  []*url.URL
}

func (f *fakeTransport) Fetch(ctx context.Context, urlStr string) ([]byte, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}
	f.requests = append(f.requests, u)

	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.responses[u.Path]
	if !ok {
		return nil, errors.New("unexpected path: " + u.Path)
	}
	return []byte(body), nil
}

type staticCreds struct{}

func (staticCreds) APIKey() string    { return "test-key" }
func (staticCreds) CatalogID() string { return "PLcatalog" }
func (staticCreds) ChannelID() string { return "UCchannel" }

func newTestFetcher(ft *fakeTransport) *Client {
	return NewClient(ft, staticCreds{}, DefaultOptions(), zap.NewNop())
}

func TestClientFetchPageIssuesBothCalls(t *testing.T) {
	ft := &fakeTransport{responses: map[string]string{
		"/youtube/v3/playlistItems": sampleListingResponse,
		"/youtube/v3/videos":        sampleDetailResponse,
	}}

	listing, detail, err := newTestFetcher(ft).FetchPage(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	if len(ft.requests) != 2 {
		t.Fatalf("transport received %d requests, want 2", len(ft.requests))
	}

	listingQuery := ft.requests[0].Query()
	if got := listingQuery.Get("playlistId"); got != "PLcatalog" {
		t.Errorf("playlistId = %q, want PLcatalog", got)
	}
	if got := listingQuery.Get("maxResults"); got != "50" {
		t.Errorf("maxResults = %q, want 50", got)
	}
	if listingQuery.Get("pageToken") != "" {
		t.Error("first page must not send a pageToken")
	}

	detailQuery := ft.requests[1].Query()
	if got := detailQuery.Get("id"); got != "vid-1" {
		t.Errorf("detail id = %q, want vid-1 (entries without a content id skipped)", got)
	}
	if !strings.Contains(detailQuery.Get("part"), "statistics") {
		t.Errorf("detail part = %q, want statistics included", detailQuery.Get("part"))
	}

	if listing.NextPageToken != "CAUQAA" {
		t.Errorf("NextPageToken = %q", listing.NextPageToken)
	}
	if len(detail.Items) != 1 {
		t.Errorf("len(detail.Items) = %d, want 1", len(detail.Items))
	}
}

func TestClientFetchPagePassesContinuationToken(t *testing.T) {
	ft := &fakeTransport{responses: map[string]string{
		"/youtube/v3/playlistItems": sampleListingResponse,
		"/youtube/v3/videos":        sampleDetailResponse,
	}}

	_, _, err := newTestFetcher(ft).FetchPage(context.Background(), "CAUQAA")
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	if got := ft.requests[0].Query().Get("pageToken"); got != "CAUQAA" {
		t.Errorf("pageToken = %q, want CAUQAA", got)
	}
}

func TestClientFetchPageItemsAbsent(t *testing.T) {
	ft := &fakeTransport{responses: map[string]string{
		"/youtube/v3/playlistItems": `{"kind":"youtube#playlistItemListResponse","etag":"x"}`,
	}}

	_, _, err := newTestFetcher(ft).FetchPage(context.Background(), "")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("FetchPage() error = %v, want *DecodeError", err)
	}
	if decodeErr.Call != "listing" {
		t.Errorf("Call = %q, want listing", decodeErr.Call)
	}
}

func TestClientFetchPageEmptyIDSetShortCircuits(t *testing.T) {
	// A terminal page with zero items must not fail, and must not issue
	// the detail call at all.
	ft := &fakeTransport{responses: map[string]string{
		"/youtube/v3/playlistItems": `{"kind":"youtube#playlistItemListResponse","items":[]}`,
	}}

	listing, detail, err := newTestFetcher(ft).FetchPage(context.Background(), "tok")
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(ft.requests) != 1 {
		t.Errorf("transport received %d requests, want 1", len(ft.requests))
	}
	if len(listing.Items) != 0 {
		t.Errorf("len(listing.Items) = %d, want 0", len(listing.Items))
	}
	if !detail.ItemsPresent || len(detail.Items) != 0 {
		t.Errorf("detail envelope = %+v, want present and empty", detail)
	}
}

func TestClientFetchPageTransportError(t *testing.T) {
	transportErr := errors.New("connection refused")
	ft := &fakeTransport{err: transportErr}

	_, _, err := newTestFetcher(ft).FetchPage(context.Background(), "")
	if !errors.Is(err, transportErr) {
		t.Errorf("FetchPage() error = %v, want transport error passthrough", err)
	}
}

func TestClientSearch(t *testing.T) {
	ft := &fakeTransport{responses: map[string]string{
		"/youtube/v3/search": sampleSearchResponse,
		"/youtube/v3/videos": sampleDetailResponse,
	}}

	results, detail, err := newTestFetcher(ft).Search(context.Background(), "swift")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	query := ft.requests[0].Query()
	if got := query.Get("q"); got != "swift" {
		t.Errorf("q = %q, want swift", got)
	}
	if got := query.Get("channelId"); got != "UCchannel" {
		t.Errorf("channelId = %q, want UCchannel", got)
	}
	if got := query.Get("maxResults"); got != "16" {
		t.Errorf("maxResults = %q, want 16", got)
	}
	if got := query.Get("order"); got != "date" {
		t.Errorf("order = %q, want date", got)
	}

	if len(results.Items) != 1 {
		t.Errorf("len(results.Items) = %d, want 1", len(results.Items))
	}
	if detail == nil {
		t.Error("detail envelope missing")
	}
}

func TestClientSearchNoResults(t *testing.T) {
	ft := &fakeTransport{responses: map[string]string{
		"/youtube/v3/search": `{"kind":"youtube#searchListResponse","items":[]}`,
	}}

	_, _, err := newTestFetcher(ft).Search(context.Background(), "nothing")
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("Search() error = %v, want ErrNoResults", err)
	}
	if len(ft.requests) != 1 {
		t.Errorf("transport received %d requests, want 1 (no detail call)", len(ft.requests))
	}
}

func TestContentIDsDeduplicates(t *testing.T) {
	items := []Item{
		ListingItem{VideoID: "a"},
		ListingItem{VideoID: ""},
		ListingItem{VideoID: "b"},
		ListingItem{VideoID: "a"},
	}

	ids := contentIDs(items)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("contentIDs() = %v, want [a b]", ids)
	}
}
