// Package vidsync synchronizes a remote video catalog into a local cache.
//
// It pages the catalog's listing endpoint with continuation tokens,
// enriches each page with a batched detail call, and merges the result
// into a persistent store that preserves user-owned state (favorites,
// playback positions) across syncs. Searches are answered local-first,
// falling back to the remote only on a cache miss.
//
// Overview
//
// The work is split across focused sub-packages:
//
//   - catalog: envelope decoding, duration parsing, and the remote fetcher
//   - storage: the persistent record cache (JSON file or Postgres)
//   - syncer: the orchestrator tying fetcher and store together
//   - transport: the retrying, rate-limit-aware HTTP client
//   - creds: API key handling, including obfuscated key material
//   - config: configuration management
//   - retry: exponential backoff retry logic
//
// Quick Start
//
// Wire a syncer and fetch the first page:
//
//	store, err := storage.NewJSONStore("store.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	client := transport.New(nil)
//	fetcher := catalog.NewClient(client, creds.Static{
//		Key:     os.Getenv("VIDSYNC_API_KEY"),
//		Catalog: os.Getenv("VIDSYNC_CATALOG_ID"),
//		Channel: os.Getenv("VIDSYNC_CHANNEL_ID"),
//	}, catalog.DefaultOptions(), nil)
//
//	s := syncer.New(fetcher, store, 0, nil)
//	if err := s.FetchNextPage(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// Search the cache:
//
//	records, err := s.Search(ctx, "swift")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, r := range records {
//		fmt.Println(r.Title, r.Duration)
//	}
//
// Configuration
//
// vidsync loads settings from multiple sources:
//
//   1. Environment variables (highest priority)
//   2. Config file (vidsync.json or ~/.config/vidsync/vidsync.json)
//   3. Default values (lowest priority)
//
// Environment variables:
//
//   - VIDSYNC_API_KEY: API key for remote catalog calls
//   - VIDSYNC_CATALOG_ID: Listing collection identifier
//   - VIDSYNC_CHANNEL_ID: Search scope identifier
//   - VIDSYNC_FETCHER: Remote implementation ("rest" or "api")
//   - VIDSYNC_STORE: Cache backend ("json" or "postgres")
//   - VIDSYNC_STORE_PATH: JSON store file location
//   - VIDSYNC_POSTGRES_DSN: Postgres connection string
//   - VIDSYNC_LOAD_MORE_THRESHOLD: Scroll band size for background fetches
//   - VIDSYNC_MAX_RETRIES: Maximum retry attempts
//   - VIDSYNC_INITIAL_BACKOFF: Initial retry backoff duration
//   - VIDSYNC_MAX_BACKOFF: Maximum retry backoff duration
//   - VIDSYNC_LOG_LEVEL: Logging verbosity
//
// Error Handling
//
// All operations return errors that implement standard Go error handling.
//
// Checking for sentinel errors:
//
//	if errors.Is(err, vidsync.ErrNotFound) {
//		fmt.Println("Record not cached")
//	}
//
// Extracting wrapped error details:
//
//	var decodeErr *vidsync.DecodeError
//	if errors.As(err, &decodeErr) {
//		fmt.Printf("Decoding %s failed: %v\n", decodeErr.Call, decodeErr.Err)
//	}
//
package vidsync
