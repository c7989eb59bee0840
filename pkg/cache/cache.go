// Package cache provides caching primitives for LLM results, HTTP responses
// and rendered artifacts.
//
// The package separates storage from key generation:
//
//   - [Cache]: storage backends (memory, file, Redis, null)
//   - [Keyer]: key generation for the service's cacheable results
//
// Backends are interchangeable. The CLI uses [FileCache] under the XDG cache
// directory, the server uses [RedisCache] when configured and [MemoryCache]
// otherwise, and tests use [NullCache] to disable caching entirely.
//
// Keys for LLM results hash the full request parameters, so a regenerated
// mindmap with a different depth or style never collides with a cached one.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is the storage interface implemented by all backends.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL stores without expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the service's cacheable results.
type Keyer interface {
	// HTTPKey generates a key for HTTP response caching.
	HTTPKey(namespace, key string) string

	// GenerationKey generates a key for a full mindmap generation.
	GenerationKey(topic string, opts GenerationKeyOpts) string

	// ExpansionKey generates a key for a node expansion.
	ExpansionKey(nodeLabel string, opts ExpansionKeyOpts) string

	// SuggestKey generates a key for topic suggestions.
	SuggestKey(query string) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(docHash string, opts ArtifactKeyOpts) string
}

// GenerationKeyOpts carries the generation parameters that shape the result.
type GenerationKeyOpts struct {
	Description string
	Depth       int
	Style       string
	MaxChildren int
}

// ExpansionKeyOpts carries the expansion parameters that shape the result.
type ExpansionKeyOpts struct {
	Topic       string
	Context     string
	MaxChildren int
}

// ArtifactKeyOpts carries the render parameters that shape the artifact.
type ArtifactKeyOpts struct {
	Format string
	Layout string
	Width  int
}

// DefaultKeyer generates globally-scoped keys. Wrap with [ScopedKeyer] for
// per-user isolation.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a keyer with no scoping prefix.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

// GenerationKey hashes the topic and generation options.
func (k *DefaultKeyer) GenerationKey(topic string, opts GenerationKeyOpts) string {
	return hashKey("gen", topic, opts)
}

// ExpansionKey hashes the node label and expansion options.
func (k *DefaultKeyer) ExpansionKey(nodeLabel string, opts ExpansionKeyOpts) string {
	return hashKey("expand", nodeLabel, opts)
}

// SuggestKey hashes the suggestion query.
func (k *DefaultKeyer) SuggestKey(query string) string {
	return hashKey("suggest", query)
}

// ArtifactKey hashes the document hash and render options.
func (k *DefaultKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", docHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
