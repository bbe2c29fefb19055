package storage

import "time"

// Record is the cache's unit of storage: one catalog entry enriched with
// its detail data, plus the user-owned state that survives remote merges.
type Record struct {
	// ID is the internal unique identifier (UUID), stable across merges.
	ID string `json:"id"`
	// ContentID is the underlying content's id. Non-empty, immutable
	// once created; the store's key.
	ContentID string `json:"content_id"`

	// Descriptive fields, replaced on every merge.

	// Title is the entry's title, HTML-entity-decoded to plain text.
	Title string `json:"title"`
	// PublishedAt is when the entry was published.
	PublishedAt time.Time `json:"published_at"`
	// ThumbnailURL is the best available thumbnail, or "" when the
	// remote offered none. Never absent.
	ThumbnailURL string `json:"thumbnail_url"`
	// ViewCount and LikeCount are the remote's decimal strings, kept
	// verbatim.
	ViewCount string `json:"view_count"`
	LikeCount string `json:"like_count"`
	// Duration is the formatted clock string ("MM:SS" or "HH:MM:SS")
	// derived from the detail entry's compact duration.
	Duration string `json:"duration"`

	// User-owned fields, never overwritten by a remote merge.

	// Favorite flags the record; default false.
	Favorite bool `json:"favorite"`
	// PlaybackPosition is the saved playback offset in seconds.
	PlaybackPosition float64 `json:"playback_position"`

	// CreatedAt is when the record first entered the cache.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the record was last merged or mutated.
	UpdatedAt time.Time `json:"updated_at"`
}
