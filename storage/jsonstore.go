package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"vidsync/catalog"
)

const (
	schemaVersion = "1.0"
	lockTimeout   = 5 * time.Second
)

// JSONStore implements Store using a single JSON file. Writes go through
// a temp-file-then-rename so the file is always a complete document, and
// an advisory file lock keeps concurrent processes out.
type JSONStore struct {
	path string
	lock *fileLock
	data *storeData
	mu   sync.RWMutex
}

// storeData is the top-level JSON structure, keyed by content id.
type storeData struct {
	Version   string             `json:"version"`
	UpdatedAt time.Time          `json:"updated_at"`
	Records   map[string]*Record `json:"records"`
}

// NewJSONStore creates a JSON file store at the given path.
// If the file exists, it is loaded; otherwise an empty store is created.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{
		path: path,
		lock: newFileLock(path),
	}

	if err := s.lock.lock(lockTimeout); err != nil {
		return nil, err
	}

	if err := s.load(); err != nil {
		s.lock.unlock()
		return nil, err
	}

	return s, nil
}

// load reads the JSON file into memory. Creates empty data if the file
// doesn't exist yet.
func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.data = &storeData{
				Version:   schemaVersion,
				UpdatedAt: time.Now(),
				Records:   make(map[string]*Record),
			}
			// Save immediately to catch permission errors early
			return s.save()
		}
		return &StorageError{Op: "read", Err: err}
	}

	s.data = &storeData{}
	if err := json.Unmarshal(data, s.data); err != nil {
		return &StorageError{Op: "read", Err: ErrStorageCorrupt}
	}
	if s.data.Records == nil {
		s.data.Records = make(map[string]*Record)
	}

	return nil
}

// save persists the data to disk atomically. Callers hold s.mu.
func (s *JSONStore) save() error {
	s.data.UpdatedAt = time.Now()

	writer, err := newAtomicWriter(s.path)
	if err != nil {
		return &StorageError{Op: "write", Err: err}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		writer.abort()
		return &StorageError{Op: "write", Err: err}
	}

	if err := writer.commit(); err != nil {
		return &StorageError{Op: "write", Err: err}
	}

	return nil
}

// UpsertMerge merges one envelope pair into the store. New content ids
// are inserted with user-owned fields at their defaults; existing ids
// get their descriptive fields replaced in place.
func (s *JSONStore) UpsertMerge(ctx context.Context, listing, detail *catalog.Envelope) ([]Record, error) {
	candidates := MergeRecords(listing, detail)

	s.mu.Lock()
	defer s.mu.Unlock()

	written := make([]Record, 0, len(candidates))
	for _, candidate := range candidates {
		if existing, ok := s.data.Records[candidate.ContentID]; ok {
			applyMerge(existing, candidate)
			written = append(written, *existing)
			continue
		}

		record := candidate
		s.data.Records[record.ContentID] = &record
		written = append(written, record)
	}

	if len(written) > 0 {
		if err := s.save(); err != nil {
			return nil, err
		}
	}

	return written, nil
}

// Get retrieves a record by content id.
func (s *JSONStore) Get(ctx context.Context, contentID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data.Records[contentID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return *record, nil
}

// Search returns records whose title contains substring, case-insensitive,
// ordered by published date descending (newest first).
func (s *JSONStore) Search(ctx context.Context, substring string) ([]Record, error) {
	needle := strings.ToLower(substring)

	s.mu.RLock()
	matches := make([]Record, 0)
	for _, record := range s.data.Records {
		if strings.Contains(strings.ToLower(record.Title), needle) {
			matches = append(matches, *record)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(matches)
	return matches, nil
}

// MarkPosition saves a playback position. An unknown content id is a
// no-op: position updates for a record the cache has since forgotten are
// simply discarded.
func (s *JSONStore) MarkPosition(ctx context.Context, contentID string, seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.data.Records[contentID]
	if !ok {
		return nil
	}

	record.PlaybackPosition = seconds
	record.UpdatedAt = time.Now()
	return s.save()
}

// SetFavorite flags or unflags a record. Unknown ids are a no-op, like
// MarkPosition.
func (s *JSONStore) SetFavorite(ctx context.Context, contentID string, favorite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.data.Records[contentID]
	if !ok {
		return nil
	}

	record.Favorite = favorite
	record.UpdatedAt = time.Now()
	return s.save()
}

// Count returns the number of records in the store.
func (s *JSONStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Records), nil
}

// Close releases the file lock held by the store.
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock.unlock()
}

// sortNewestFirst orders records by published date descending, breaking
// ties by content id for determinism.
func sortNewestFirst(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].PublishedAt.Equal(records[j].PublishedAt) {
			return records[i].PublishedAt.After(records[j].PublishedAt)
		}
		return records[i].ContentID < records[j].ContentID
	})
}
