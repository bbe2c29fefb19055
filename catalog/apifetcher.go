package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"
)

// APIFetcher implements Fetcher using the official Data API v3 client
// instead of the hand-rolled REST transport. Both implementations honor
// the same page contract; which one runs is a configuration choice.
type APIFetcher struct {
	service *youtube.Service
	creds   Credentials
	opts    Options
	log     *zap.Logger
}

// NewAPIFetcher creates an official-client fetcher.
func NewAPIFetcher(ctx context.Context, creds Credentials, opts Options, log *zap.Logger) (*APIFetcher, error) {
	key := creds.APIKey()
	if key == "" {
		return nil, fmt.Errorf("catalog: api key required")
	}
	if opts.ListingPageSize == 0 {
		opts = DefaultOptions()
	}
	if log == nil {
		log = zap.NewNop()
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &APIFetcher{
		service: service,
		creds:   creds,
		opts:    opts,
		log:     log,
	}, nil
}

// FetchPage issues the listing call, then the batched detail call.
func (a *APIFetcher) FetchPage(ctx context.Context, pageToken string) (*Envelope, *Envelope, error) {
	call := a.service.PlaylistItems.
		List(strings.Split(a.opts.ListingParts, ",")).
		PlaylistId(a.creds.CatalogID()).
		MaxResults(int64(a.opts.ListingPageSize)).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, err
	}

	listing := &Envelope{
		Kind:          resp.Kind,
		Etag:          resp.Etag,
		ItemsPresent:  true,
		NextPageToken: resp.NextPageToken,
	}
	if resp.PageInfo != nil {
		listing.PageInfo = &PageInfo{
			TotalResults:   resp.PageInfo.TotalResults,
			ResultsPerPage: resp.PageInfo.ResultsPerPage,
		}
	}
	for _, item := range resp.Items {
		if item.Snippet == nil {
			continue
		}
		li := ListingItem{
			ID:          item.Id,
			Title:       item.Snippet.Title,
			PublishedAt: item.Snippet.PublishedAt,
			Thumbnails:  convertThumbnails(item.Snippet.Thumbnails),
		}
		if item.ContentDetails != nil {
			li.VideoID = item.ContentDetails.VideoId
		}
		if li.VideoID == "" && item.Snippet.ResourceId != nil {
			li.VideoID = item.Snippet.ResourceId.VideoId
		}
		listing.Items = append(listing.Items, li)
	}

	detail, err := a.fetchDetail(ctx, listing.Items)
	if err != nil {
		return nil, nil, err
	}

	a.log.Debug("fetched catalog page via official client",
		zap.Int("listing_items", len(listing.Items)),
		zap.Int("detail_items", len(detail.Items)))

	return listing, detail, nil
}

// Search issues the free-text query, then the batched detail call.
func (a *APIFetcher) Search(ctx context.Context, query string) (*Envelope, *Envelope, error) {
	resp, err := a.service.Search.
		List(strings.Split(a.opts.SearchParts, ",")).
		ChannelId(a.creds.ChannelID()).
		Q(query).
		MaxResults(int64(a.opts.SearchPageSize)).
		Order(a.opts.SearchOrder).
		Type("video").
		Context(ctx).
		Do()
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, err
	}

	results := &Envelope{
		Kind:          resp.Kind,
		Etag:          resp.Etag,
		ItemsPresent:  true,
		NextPageToken: resp.NextPageToken,
	}
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		results.Items = append(results.Items, SearchItem{
			VideoID:     item.Id.VideoId,
			Title:       item.Snippet.Title,
			PublishedAt: item.Snippet.PublishedAt,
			Thumbnails:  convertThumbnails(item.Snippet.Thumbnails),
		})
	}

	if len(results.Items) == 0 {
		return nil, nil, ErrNoResults
	}

	detail, err := a.fetchDetail(ctx, results.Items)
	if err != nil {
		return nil, nil, err
	}

	return results, detail, nil
}

// fetchDetail issues one batched detail call for the ids found in items.
func (a *APIFetcher) fetchDetail(ctx context.Context, items []Item) (*Envelope, error) {
	ids := contentIDs(items)
	if len(ids) == 0 {
		return &Envelope{ItemsPresent: true, Items: []Item{}}, nil
	}

	resp, err := a.service.Videos.
		List(strings.Split(a.opts.DetailParts, ",")).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	detail := &Envelope{
		Kind:         resp.Kind,
		Etag:         resp.Etag,
		ItemsPresent: true,
	}
	for _, item := range resp.Items {
		if item.Id == "" {
			continue
		}
		di := DetailItem{ID: item.Id}
		if item.ContentDetails != nil {
			di.Duration = item.ContentDetails.Duration
			di.Dimension = item.ContentDetails.Dimension
			di.Definition = item.ContentDetails.Definition
			di.Caption = item.ContentDetails.Caption
		}
		if item.Statistics != nil {
			// The official client coerces the wire's decimal strings to
			// integers; convert back to keep the string contract.
			di.ViewCount = strconv.FormatUint(item.Statistics.ViewCount, 10)
			di.LikeCount = strconv.FormatUint(item.Statistics.LikeCount, 10)
		}
		detail.Items = append(detail.Items, di)
	}

	return detail, nil
}

func convertThumbnails(t *youtube.ThumbnailDetails) ThumbnailSet {
	var set ThumbnailSet
	if t == nil {
		return set
	}
	if t.Default != nil {
		set.Default.URL = t.Default.Url
	}
	if t.Medium != nil {
		set.Medium.URL = t.Medium.Url
	}
	if t.High != nil {
		set.High.URL = t.High.Url
	}
	if t.Standard != nil {
		set.Standard.URL = t.Standard.Url
	}
	if t.Maxres != nil {
		set.Maxres.URL = t.Maxres.Url
	}
	return set
}
