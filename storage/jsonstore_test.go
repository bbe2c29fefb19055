package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vidsync/catalog"
)

func newTestStore(t *testing.T) *JSONStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.json")
	store, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedStore(t *testing.T, store *JSONStore) []Record {
	t.Helper()
	listing := listingEnvelope(
		listingItem("vid-1", "Swift Basics", "2024-03-01T10:00:00Z"),
		listingItem("vid-2", "Advanced Swift", "2024-03-02T10:00:00Z"),
		listingItem("vid-3", "Go Routines", "2024-03-03T10:00:00Z"),
	)
	detail := listingEnvelope(
		detailItem("vid-1", "PT4M46S", "100"),
		detailItem("vid-2", "PT10M", "200"),
		detailItem("vid-3", "PT1H", "300"),
	)
	written, err := store.UpsertMerge(context.Background(), listing, detail)
	if err != nil {
		t.Fatalf("UpsertMerge() error = %v", err)
	}
	return written
}

func TestJSONStore_UpsertAndGet(t *testing.T) {
	store := newTestStore(t)
	written := seedStore(t, store)

	if len(written) != 3 {
		t.Fatalf("expected 3 records written, got %d", len(written))
	}

	record, err := store.Get(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if record.Title != "Swift Basics" {
		t.Errorf("expected title Swift Basics, got %q", record.Title)
	}
	if record.Duration != "04:46" {
		t.Errorf("expected duration 04:46, got %q", record.Duration)
	}

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestJSONStore_MergePreservesUserFields(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)
	ctx := context.Background()

	if err := store.MarkPosition(ctx, "vid-1", 93.5); err != nil {
		t.Fatalf("MarkPosition() error = %v", err)
	}
	if err := store.SetFavorite(ctx, "vid-1", true); err != nil {
		t.Fatalf("SetFavorite() error = %v", err)
	}

	before, _ := store.Get(ctx, "vid-1")

	// Re-sync with an updated title and view count.
	listing := listingEnvelope(listingItem("vid-1", "Swift Basics (updated)", "2024-03-01T10:00:00Z"))
	detail := listingEnvelope(detailItem("vid-1", "PT4M46S", "150"))
	if _, err := store.UpsertMerge(ctx, listing, detail); err != nil {
		t.Fatalf("UpsertMerge() error = %v", err)
	}

	after, err := store.Get(ctx, "vid-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if after.Title != "Swift Basics (updated)" {
		t.Errorf("expected title replaced, got %q", after.Title)
	}
	if after.ViewCount != "150" {
		t.Errorf("expected view count replaced, got %q", after.ViewCount)
	}
	if !after.Favorite {
		t.Error("favorite flag lost across merge")
	}
	if after.PlaybackPosition != 93.5 {
		t.Errorf("playback position lost across merge, got %v", after.PlaybackPosition)
	}
	if after.ID != before.ID {
		t.Errorf("internal id changed across merge: %q != %q", after.ID, before.ID)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Error("created at changed across merge")
	}

	count, _ := store.Count(ctx)
	if count != 3 {
		t.Errorf("expected merge not to add records, count = %d", count)
	}
}

func TestJSONStore_Search(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)

	matches, err := store.Search(context.Background(), "swift")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	// Newest first.
	if matches[0].ContentID != "vid-2" || matches[1].ContentID != "vid-1" {
		t.Errorf("expected [vid-2 vid-1], got [%s %s]", matches[0].ContentID, matches[1].ContentID)
	}

	none, err := store.Search(context.Background(), "rust")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no matches, got %d", len(none))
	}
}

func TestJSONStore_UnknownIDMutationsAreNoOps(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)
	ctx := context.Background()

	if err := store.MarkPosition(ctx, "missing", 10); err != nil {
		t.Errorf("MarkPosition(unknown) error = %v", err)
	}
	if err := store.SetFavorite(ctx, "missing", true); err != nil {
		t.Errorf("SetFavorite(unknown) error = %v", err)
	}

	count, _ := store.Count(ctx)
	if count != 3 {
		t.Errorf("expected count unchanged, got %d", count)
	}
}

func TestJSONStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ctx := context.Background()

	store, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	seedStore(t, store)
	if err := store.MarkPosition(ctx, "vid-2", 42); err != nil {
		t.Fatalf("MarkPosition() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	record, err := reopened.Get(ctx, "vid-2")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if record.PlaybackPosition != 42 {
		t.Errorf("expected persisted position 42, got %v", record.PlaybackPosition)
	}
	count, _ := reopened.Count(ctx)
	if count != 3 {
		t.Errorf("expected 3 records after reopen, got %d", count)
	}
}

func TestJSONStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewJSONStore(path)
	if !errors.Is(err, ErrStorageCorrupt) {
		t.Errorf("expected ErrStorageCorrupt, got %v", err)
	}
}

func TestJSONStore_EmptyEnvelopes(t *testing.T) {
	store := newTestStore(t)

	written, err := store.UpsertMerge(context.Background(),
		&catalog.Envelope{ItemsPresent: true, Items: []catalog.Item{}},
		&catalog.Envelope{ItemsPresent: true, Items: []catalog.Item{}})
	if err != nil {
		t.Fatalf("UpsertMerge() error = %v", err)
	}
	if len(written) != 0 {
		t.Errorf("expected no records written, got %d", len(written))
	}
}
