// Package httputil provides HTTP utilities for the Deep Brain API client.
//
// # Overview
//
// This package provides infrastructure used by the REST client and the LLM
// upstream calls:
//
//   - [Cache]: File-based HTTP response caching
//   - [Retry]: Automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores HTTP responses in the filesystem (~/.cache/deepbrain/)
// with configurable TTL. This speeds up repeated CLI operations such as
// viewing the same mindmap and reduces load on the server.
//
// Usage:
//
//	cache, err := httputil.NewCache("", 24*time.Hour)
//	ok, _ := cache.Get("mindmaps:abc123", &doc)  // Check cache
//	if !ok {
//	    doc = fetchFromAPI()
//	    cache.Set("mindmaps:abc123", doc)        // Store for later
//	}
//
// Cache keys should be namespaced by resource to avoid collisions.
//
// # Retry
//
// [Retry] wraps requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Wrap transient errors in [RetryableError] so the loop can tell them from
// permanent failures:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return callAPI()
//	})
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Cache directory: ~/.cache/deepbrain/
//   - Default TTL: 24 hours
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `deepbrain cache clear` or by deleting
// the cache directory.
package httputil
