// Package syncer coordinates the remote fetcher and the local store into
// a single paged synchronization flow.
package syncer

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"vidsync/catalog"
	"vidsync/storage"
)

// State is the orchestrator's externally visible activity state.
type State string

const (
	// StateIdle means no remote work is in flight.
	StateIdle State = "idle"
	// StateLoading means a remote fetch is in progress.
	StateLoading State = "loading"
	// StateError means the last remote operation failed. The reason is
	// carried alongside; the next successful operation clears it.
	StateError State = "error"
)

// Status is a snapshot of the orchestrator's state.
type Status struct {
	State State
	// Reason is the human-readable failure description when State is
	// StateError, "" otherwise.
	Reason string
}

// DefaultLoadMoreThreshold is the band size for MaybeLoadMore when the
// configuration does not override it.
const DefaultLoadMoreThreshold = 48

// Syncer pages the remote catalog into the local store and answers
// local-first searches. All methods are safe for concurrent use.
type Syncer struct {
	fetcher   catalog.Fetcher
	store     storage.Store
	threshold int
	log       *zap.Logger

	mu            sync.Mutex
	status        Status
	pageToken     string
	exhausted     bool
	inflight      bool
	lastTriggered int
}

// New creates a Syncer over the given fetcher and store. A non-positive
// threshold falls back to DefaultLoadMoreThreshold.
func New(fetcher catalog.Fetcher, store storage.Store, threshold int, log *zap.Logger) *Syncer {
	if threshold <= 0 {
		threshold = DefaultLoadMoreThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{
		fetcher:       fetcher,
		store:         store,
		threshold:     threshold,
		log:           log,
		status:        Status{State: StateIdle},
		lastTriggered: -1,
	}
}

// Status returns a snapshot of the current state.
func (s *Syncer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Exhausted reports whether the remote catalog has been fully paged.
func (s *Syncer) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exhausted
}

// FetchNextPage fetches the next catalog page and merges it into the
// store. Concurrent calls coalesce: while a fetch is in flight, further
// calls return immediately without issuing a second request. Once the
// remote reports no continuation token, the catalog is exhausted and
// later calls are no-ops.
func (s *Syncer) FetchNextPage(ctx context.Context) error {
	s.mu.Lock()
	if s.inflight || s.exhausted {
		s.mu.Unlock()
		return nil
	}
	s.inflight = true
	s.status = Status{State: StateLoading}
	token := s.pageToken
	s.mu.Unlock()

	listing, detail, err := s.fetcher.FetchPage(ctx, token)
	if err != nil {
		s.fail("fetch page", err)
		return err
	}

	written, err := s.store.UpsertMerge(ctx, listing, detail)
	if err != nil {
		s.fail("merge page", err)
		return err
	}

	s.mu.Lock()
	s.inflight = false
	s.pageToken = listing.NextPageToken
	s.exhausted = listing.NextPageToken == ""
	s.status = Status{State: StateIdle}
	s.mu.Unlock()

	s.log.Info("synced catalog page",
		zap.Int("records", len(written)),
		zap.Bool("exhausted", listing.NextPageToken == ""))
	return nil
}

// MaybeLoadMore triggers a background page fetch when visibleIndex
// crosses into a new threshold band. Each band fires at most once, so
// scrolling back and forth over the same boundary does not refetch.
// It reports whether a fetch was triggered.
func (s *Syncer) MaybeLoadMore(ctx context.Context, visibleIndex int) bool {
	s.mu.Lock()
	trigger := visibleIndex%s.threshold == 0 &&
		visibleIndex > s.lastTriggered &&
		!s.exhausted
	if trigger {
		s.lastTriggered = visibleIndex
	}
	s.mu.Unlock()

	if !trigger {
		return false
	}

	go func() {
		if err := s.FetchNextPage(ctx); err != nil {
			s.log.Warn("background page fetch failed", zap.Error(err))
		}
	}()
	return true
}

// Search answers a free-text query, local cache first. A cache miss
// falls through to the remote; remote results are returned as ephemeral
// records and never persisted. An empty query and a remote "no results"
// are both successful empty outcomes, not errors.
func (s *Syncer) Search(ctx context.Context, query string) ([]storage.Record, error) {
	if query == "" {
		s.setIdle()
		return []storage.Record{}, nil
	}

	local, err := s.store.Search(ctx, query)
	if err != nil {
		s.fail("search cache", err)
		return nil, err
	}
	if len(local) > 0 {
		s.setIdle()
		return local, nil
	}

	s.mu.Lock()
	s.status = Status{State: StateLoading}
	s.mu.Unlock()

	results, detail, err := s.fetcher.Search(ctx, query)
	if errors.Is(err, catalog.ErrNoResults) {
		s.setIdle()
		return []storage.Record{}, nil
	}
	if err != nil {
		s.fail("search remote", err)
		return nil, err
	}

	s.setIdle()
	return storage.MergeRecords(results, detail), nil
}

// Get retrieves a cached record by content id.
func (s *Syncer) Get(ctx context.Context, contentID string) (storage.Record, error) {
	return s.store.Get(ctx, contentID)
}

// MarkPosition saves a playback position for a cached record.
func (s *Syncer) MarkPosition(ctx context.Context, contentID string, seconds float64) error {
	return s.store.MarkPosition(ctx, contentID, seconds)
}

// SetFavorite flags or unflags a cached record.
func (s *Syncer) SetFavorite(ctx context.Context, contentID string, favorite bool) error {
	return s.store.SetFavorite(ctx, contentID, favorite)
}

// Count returns the number of cached records.
func (s *Syncer) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

func (s *Syncer) setIdle() {
	s.mu.Lock()
	s.status = Status{State: StateIdle}
	s.mu.Unlock()
}

// fail records a failed remote operation. The continuation token is left
// untouched so the failed page can be retried.
func (s *Syncer) fail(op string, err error) {
	s.mu.Lock()
	s.inflight = false
	s.status = Status{State: StateError, Reason: errorReason(err)}
	s.mu.Unlock()
	s.log.Warn("sync operation failed", zap.String("op", op), zap.Error(err))
}

// errorReason renders an error for status display. Context cancellation
// gets a fixed message since its stdlib text is not user-facing.
func errorReason(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "operation cancelled"
	}
	return err.Error()
}
