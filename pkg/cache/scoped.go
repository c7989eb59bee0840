package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// Generation and expansion results are user-shaped (prompts embed the
// user's own document context), so the server scopes their keys per user.
//
// Example usage:
//
//	// User-specific keys for LLM results
//	userKeyer := NewScopedKeyer(NewDefaultKeyer(), "user:abc123:")
//
//	// Global keys for shared suggestion queries
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// GenerationKey generates a prefixed key for a full mindmap generation.
func (k *ScopedKeyer) GenerationKey(topic string, opts GenerationKeyOpts) string {
	return k.prefix + k.inner.GenerationKey(topic, opts)
}

// ExpansionKey generates a prefixed key for a node expansion.
func (k *ScopedKeyer) ExpansionKey(nodeLabel string, opts ExpansionKeyOpts) string {
	return k.prefix + k.inner.ExpansionKey(nodeLabel, opts)
}

// SuggestKey generates a prefixed key for topic suggestions.
func (k *ScopedKeyer) SuggestKey(query string) string {
	return k.prefix + k.inner.SuggestKey(query)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(docHash, opts)
}
