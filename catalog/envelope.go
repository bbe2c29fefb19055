// Package catalog models the paged responses of the remote video catalog
// and fetches enriched pages from it.
package catalog

import (
	"encoding/json"
	"strings"
)

// Envelope is the generic paged response returned by every catalog call.
//
// ItemsPresent distinguishes a response whose items field was absent
// (unusable, treat as a decode failure) from one whose items field was an
// empty list (a valid terminal page).
type Envelope struct {
	Kind          string
	Etag          string
	Items         []Item
	ItemsPresent  bool
	NextPageToken string
	PageInfo      *PageInfo
}

// PageInfo carries the result counts reported by the remote.
type PageInfo struct {
	TotalResults   int64 `json:"totalResults"`
	ResultsPerPage int64 `json:"resultsPerPage"`
}

// Item is one entry of an Envelope. The remote returns three distinct
// shapes depending on which call produced the page; all of them can
// resolve the underlying content id.
type Item interface {
	// ContentID returns the underlying content's id, or "" if the entry
	// does not carry one.
	ContentID() string
}

// ListingItem is a playlist-style entry from the listing call. Its ID is a
// composite playlist-entry id; the real content id is nested.
type ListingItem struct {
	ID          string
	Title       string
	PublishedAt string
	VideoID     string
	Thumbnails  ThumbnailSet
}

// ContentID returns the nested content id.
func (i ListingItem) ContentID() string { return i.VideoID }

// DetailItem is a statistics/content-details entry from the detail call.
// Its ID is the content id itself. View and like counts are decimal
// strings on the wire and are never coerced to integers here.
type DetailItem struct {
	ID        string
	ViewCount string
	LikeCount string
	Duration  string // compact notation, e.g. "PT4M46S"

	// Opaque passthrough flags, not interpreted by this module.
	Dimension  string
	Definition string
	Caption    string
}

// ContentID returns the item's id.
func (i DetailItem) ContentID() string { return i.ID }

// SearchItem is a free-text search result: structurally a listing item
// without detail fields, and with the content id nested directly in the
// id field.
type SearchItem struct {
	VideoID     string
	Title       string
	PublishedAt string
	Thumbnails  ThumbnailSet
}

// ContentID returns the nested content id.
func (i SearchItem) ContentID() string { return i.VideoID }

// ThumbnailSet holds the resolutions a listing entry may offer.
type ThumbnailSet struct {
	Default  Thumbnail `json:"default"`
	Medium   Thumbnail `json:"medium"`
	High     Thumbnail `json:"high"`
	Standard Thumbnail `json:"standard"`
	Maxres   Thumbnail `json:"maxres"`
}

// Thumbnail is a single thumbnail variant.
type Thumbnail struct {
	URL string `json:"url"`
}

// BestURL picks the highest available resolution deterministically
// (maxres > high > standard > medium > default). It returns "" when no
// resolution is present, never an absent value.
func (t ThumbnailSet) BestURL() string {
	for _, u := range []string{t.Maxres.URL, t.High.URL, t.Standard.URL, t.Medium.URL, t.Default.URL} {
		if u != "" {
			return u
		}
	}
	return ""
}

// Wire shapes. Pointers mark fields whose absence matters.

type wireEnvelope struct {
	Kind          string            `json:"kind"`
	Etag          string            `json:"etag"`
	Items         []json.RawMessage `json:"items"`
	NextPageToken string            `json:"nextPageToken"`
	PageInfo      *PageInfo         `json:"pageInfo"`
}

type wireSnippet struct {
	Title       string       `json:"title"`
	PublishedAt string       `json:"publishedAt"`
	Thumbnails  ThumbnailSet `json:"thumbnails"`
	ResourceID  *wireID      `json:"resourceId"`
}

type wireID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

type wireListingItem struct {
	Kind           string       `json:"kind"`
	ID             string       `json:"id"`
	Snippet        *wireSnippet `json:"snippet"`
	ContentDetails *struct {
		VideoID string `json:"videoId"`
	} `json:"contentDetails"`
}

type wireDetailItem struct {
	Kind           string `json:"kind"`
	ID             string `json:"id"`
	ContentDetails *struct {
		Duration   string `json:"duration"`
		Dimension  string `json:"dimension"`
		Definition string `json:"definition"`
		Caption    string `json:"caption"`
	} `json:"contentDetails"`
	Statistics *struct {
		ViewCount string `json:"viewCount"`
		LikeCount string `json:"likeCount"`
	} `json:"statistics"`
}

type wireSearchItem struct {
	Kind    string          `json:"kind"`
	ID      json.RawMessage `json:"id"`
	Snippet *wireSnippet    `json:"snippet"`
}

// DecodeEnvelope parses one paged response. A malformed document yields a
// DecodeError; a malformed single item is skipped, never failing the page.
func DecodeEnvelope(call string, data []byte) (*Envelope, error) {
	var wire wireEnvelope
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &DecodeError{Call: call, Err: err}
	}

	env := &Envelope{
		Kind:          wire.Kind,
		Etag:          wire.Etag,
		ItemsPresent:  wire.Items != nil,
		NextPageToken: wire.NextPageToken,
		PageInfo:      wire.PageInfo,
	}

	if wire.Items != nil {
		env.Items = make([]Item, 0, len(wire.Items))
		for _, raw := range wire.Items {
			item, ok := decodeItem(raw)
			if !ok {
				continue
			}
			env.Items = append(env.Items, item)
		}
	}

	return env, nil
}

// decodeItem resolves the union. The kind tag decides when present;
// otherwise the three shapes are tried in order: search (id is an
// object), detail (carries statistics or a duration), listing.
func decodeItem(raw json.RawMessage) (Item, bool) {
	var probe struct {
		Kind string          `json:"kind"`
		ID   json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, false
	}

	switch {
	case strings.HasSuffix(probe.Kind, "#searchResult"):
		return decodeSearchItem(raw)
	case strings.HasSuffix(probe.Kind, "#video"):
		return decodeDetailItem(raw)
	case strings.HasSuffix(probe.Kind, "#playlistItem"):
		return decodeListingItem(raw)
	}

	if len(probe.ID) > 0 && probe.ID[0] == '{' {
		return decodeSearchItem(raw)
	}
	if item, ok := decodeDetailItem(raw); ok {
		return item, true
	}
	return decodeListingItem(raw)
}

func decodeListingItem(raw json.RawMessage) (Item, bool) {
	var wire wireListingItem
	if err := json.Unmarshal(raw, &wire); err != nil || wire.Snippet == nil {
		return nil, false
	}

	item := ListingItem{
		ID:          wire.ID,
		Title:       wire.Snippet.Title,
		PublishedAt: wire.Snippet.PublishedAt,
		Thumbnails:  wire.Snippet.Thumbnails,
	}
	// The listing nests the real content id in two places; either serves.
	if wire.ContentDetails != nil {
		item.VideoID = wire.ContentDetails.VideoID
	}
	if item.VideoID == "" && wire.Snippet.ResourceID != nil {
		item.VideoID = wire.Snippet.ResourceID.VideoID
	}
	return item, true
}

func decodeDetailItem(raw json.RawMessage) (Item, bool) {
	var wire wireDetailItem
	if err := json.Unmarshal(raw, &wire); err != nil || wire.ID == "" {
		return nil, false
	}
	if wire.ContentDetails == nil && wire.Statistics == nil {
		return nil, false
	}

	item := DetailItem{ID: wire.ID}
	if wire.ContentDetails != nil {
		item.Duration = wire.ContentDetails.Duration
		item.Dimension = wire.ContentDetails.Dimension
		item.Definition = wire.ContentDetails.Definition
		item.Caption = wire.ContentDetails.Caption
	}
	if wire.Statistics != nil {
		item.ViewCount = wire.Statistics.ViewCount
		item.LikeCount = wire.Statistics.LikeCount
	}
	return item, true
}

func decodeSearchItem(raw json.RawMessage) (Item, bool) {
	var wire wireSearchItem
	if err := json.Unmarshal(raw, &wire); err != nil || wire.Snippet == nil {
		return nil, false
	}

	var id wireID
	if err := json.Unmarshal(wire.ID, &id); err != nil || id.VideoID == "" {
		return nil, false
	}

	return SearchItem{
		VideoID:     id.VideoID,
		Title:       wire.Snippet.Title,
		PublishedAt: wire.Snippet.PublishedAt,
		Thumbnails:  wire.Snippet.Thumbnails,
	}, true
}
