package storage

import (
	"html"
	"time"

	"github.com/google/uuid"

	"vidsync/catalog"
)

// MergeRecords pairs every listing entry with its detail entry and builds
// candidate records. It is the shared core of UpsertMerge and of the
// ephemeral conversion used for search results; it never touches a store.
//
// Pairs are dropped, never erroring, when:
//   - the listing entry has no resolvable content id,
//   - no detail entry matches that id (both halves are required),
//   - the detail entry's duration fails the validity filter (a zero or
//     unparseable duration means the detail call had no usable entry).
func MergeRecords(listing, detail *catalog.Envelope) []Record {
	if listing == nil || detail == nil {
		return nil
	}

	details := make(map[string]catalog.DetailItem, len(detail.Items))
	for _, item := range detail.Items {
		if d, ok := item.(catalog.DetailItem); ok && d.ID != "" {
			details[d.ID] = d
		}
	}

	now := time.Now()
	records := make([]Record, 0, len(listing.Items))
	seen := make(map[string]bool, len(listing.Items))

	for _, item := range listing.Items {
		title, publishedAt, thumbs, ok := descriptiveFields(item)
		if !ok {
			continue
		}

		contentID := item.ContentID()
		if contentID == "" || seen[contentID] {
			continue
		}

		d, found := details[contentID]
		if !found {
			continue
		}

		duration := catalog.ParseDuration(d.Duration)
		if !catalog.ValidDuration(duration) {
			continue
		}

		seen[contentID] = true
		records = append(records, Record{
			ID:           uuid.NewString(),
			ContentID:    contentID,
			Title:        html.UnescapeString(title),
			PublishedAt:  parsePublishedAt(publishedAt),
			ThumbnailURL: thumbs.BestURL(),
			ViewCount:    d.ViewCount,
			LikeCount:    d.LikeCount,
			Duration:     catalog.FormatClock(duration),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	return records
}

// descriptiveFields extracts the listing-side fields of an entry. Only
// listing and search shapes carry them; anything else is dropped.
func descriptiveFields(item catalog.Item) (title, publishedAt string, thumbs catalog.ThumbnailSet, ok bool) {
	switch v := item.(type) {
	case catalog.ListingItem:
		return v.Title, v.PublishedAt, v.Thumbnails, true
	case catalog.SearchItem:
		return v.Title, v.PublishedAt, v.Thumbnails, true
	default:
		return "", "", catalog.ThumbnailSet{}, false
	}
}

func parsePublishedAt(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// applyMerge replaces the descriptive fields of dst with those of src,
// leaving identity and user-owned fields untouched.
func applyMerge(dst *Record, src Record) {
	dst.Title = src.Title
	dst.PublishedAt = src.PublishedAt
	dst.ThumbnailURL = src.ThumbnailURL
	dst.ViewCount = src.ViewCount
	dst.LikeCount = src.LikeCount
	dst.Duration = src.Duration
	dst.UpdatedAt = time.Now()
}
