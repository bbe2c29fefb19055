package storage

import (
	"testing"
	"time"

	"vidsync/catalog"
)

func listingEnvelope(items ...catalog.Item) *catalog.Envelope {
	return &catalog.Envelope{Items: items, ItemsPresent: true}
}

func listingItem(videoID, title, publishedAt string) catalog.ListingItem {
	return catalog.ListingItem{
		ID:          "pli-" + videoID,
		Title:       title,
		PublishedAt: publishedAt,
		VideoID:     videoID,
		Thumbnails: catalog.ThumbnailSet{
			Medium: catalog.Thumbnail{URL: "https://img.example/" + videoID + "/medium.jpg"},
			High:   catalog.Thumbnail{URL: "https://img.example/" + videoID + "/high.jpg"},
		},
	}
}

func detailItem(videoID, duration, viewCount string) catalog.DetailItem {
	return catalog.DetailItem{
		ID:        videoID,
		ViewCount: viewCount,
		LikeCount: "10",
		Duration:  duration,
	}
}

func TestMergeRecords_PairsListingWithDetail(t *testing.T) {
	listing := listingEnvelope(
		listingItem("vid-1", "First", "2024-03-01T10:00:00Z"),
		listingItem("vid-2", "Second", "2024-03-02T10:00:00Z"),
		listingItem("vid-3", "Third", "2024-03-03T10:00:00Z"),
		listingItem("vid-4", "No detail", "2024-03-04T10:00:00Z"),
		listingItem("vid-5", "Zero duration", "2024-03-05T10:00:00Z"),
	)
	detail := listingEnvelope(
		detailItem("vid-1", "PT4M46S", "100"),
		detailItem("vid-2", "PT1H2M3S", "200"),
		detailItem("vid-3", "PT59S", "300"),
		detailItem("vid-5", "PT0S", "500"),
	)

	records := MergeRecords(listing, detail)

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	byID := make(map[string]Record, len(records))
	for _, r := range records {
		byID[r.ContentID] = r
	}

	if _, ok := byID["vid-4"]; ok {
		t.Error("vid-4 has no detail entry, should be dropped")
	}
	if _, ok := byID["vid-5"]; ok {
		t.Error("vid-5 has a zero duration, should be dropped")
	}

	first := byID["vid-1"]
	if first.Duration != "04:46" {
		t.Errorf("expected duration 04:46, got %q", first.Duration)
	}
	if first.ViewCount != "100" {
		t.Errorf("expected view count kept verbatim, got %q", first.ViewCount)
	}
	if first.ThumbnailURL != "https://img.example/vid-1/high.jpg" {
		t.Errorf("expected high thumbnail preferred, got %q", first.ThumbnailURL)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Errorf("expected published at %v, got %v", want, first.PublishedAt)
	}
	if first.ID == "" {
		t.Error("expected a generated internal id")
	}

	if byID["vid-2"].Duration != "01:02:03" {
		t.Errorf("expected hour-long clock format, got %q", byID["vid-2"].Duration)
	}
}

func TestMergeRecords_DecodesHTMLEntities(t *testing.T) {
	listing := listingEnvelope(listingItem("vid-1", "Tips &amp; Tricks", "2024-03-01T10:00:00Z"))
	detail := listingEnvelope(detailItem("vid-1", "PT1M", "1"))

	records := MergeRecords(listing, detail)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Title != "Tips & Tricks" {
		t.Errorf("expected entities decoded, got %q", records[0].Title)
	}
}

func TestMergeRecords_SkipsMissingAndDuplicateIDs(t *testing.T) {
	listing := listingEnvelope(
		catalog.ListingItem{ID: "pli-x", Title: "No video id", PublishedAt: "2024-03-01T10:00:00Z"},
		listingItem("vid-1", "Original", "2024-03-01T10:00:00Z"),
		listingItem("vid-1", "Duplicate", "2024-03-02T10:00:00Z"),
	)
	detail := listingEnvelope(detailItem("vid-1", "PT2M", "1"))

	records := MergeRecords(listing, detail)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Title != "Original" {
		t.Errorf("expected the first occurrence to win, got %q", records[0].Title)
	}
}

func TestMergeRecords_NilEnvelopes(t *testing.T) {
	if got := MergeRecords(nil, listingEnvelope()); got != nil {
		t.Errorf("expected nil for nil listing, got %v", got)
	}
	if got := MergeRecords(listingEnvelope(), nil); got != nil {
		t.Errorf("expected nil for nil detail, got %v", got)
	}
}

func TestMergeRecords_SearchItems(t *testing.T) {
	listing := listingEnvelope(catalog.SearchItem{
		VideoID:     "vid-9",
		Title:       "Search hit",
		PublishedAt: "2024-03-09T10:00:00Z",
	})
	detail := listingEnvelope(detailItem("vid-9", "PT30S", "9"))

	records := MergeRecords(listing, detail)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ContentID != "vid-9" {
		t.Errorf("expected vid-9, got %q", records[0].ContentID)
	}
}
