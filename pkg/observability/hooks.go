// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about engine mutations, LLM calls, cache
// operations, and background tasks.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach avoids import cycles (hooks are registered by main, not by
// libraries), keeps the core library free of observability frameworks, and
// allows different backends to be dropped in.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEngineHooks(&myEngineHooks{})
//	    observability.SetLLMHooks(&myLLMHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Engine().OnMutationApplied(op, seq, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from the mindmap engine. The engine invokes
// them synchronously under its write lock, so implementations must return
// quickly and never call back into the engine.
type EngineHooks interface {
	// OnMutationApplied records a successful mutation, its sequence number,
	// and how long the store change plus recomputation took.
	OnMutationApplied(op string, seq uint64, duration time.Duration)

	// OnMutationRejected records a mutation that failed validation.
	OnMutationRejected(op string, err error)

	// OnSnapshotPublished records a freshly published snapshot.
	OnSnapshotPublished(seq uint64, visibleNodes, visibleEdges int)

	// OnMalformedForest records a degraded snapshot that disabled layout.
	OnMalformedForest(reason string)
}

// =============================================================================
// LLM Hooks
// =============================================================================

// LLMHooks receives events from language-model calls.
type LLMHooks interface {
	// OnGenerationStart records an outgoing model call.
	OnGenerationStart(ctx context.Context, operation, model string)

	// OnGenerationComplete records a finished model call with token usage.
	OnGenerationComplete(ctx context.Context, operation, model string, promptTokens, completionTokens int, duration time.Duration, err error)

	// OnFallback records that a failed model call was replaced with the
	// deterministic fallback content.
	OnFallback(ctx context.Context, operation string, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Task Hooks
// =============================================================================

// TaskHooks receives lifecycle events from background tasks.
type TaskHooks interface {
	// OnTaskStart records a task leaving the pending state.
	OnTaskStart(ctx context.Context, taskType, taskID string)

	// OnTaskProgress records a progress milestone (0-100).
	OnTaskProgress(ctx context.Context, taskType, taskID string, progress int)

	// OnTaskDone records a task reaching a terminal state.
	OnTaskDone(ctx context.Context, taskType, taskID, status string, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnMutationApplied(string, uint64, time.Duration) {}
func (NoopEngineHooks) OnMutationRejected(string, error)                {}
func (NoopEngineHooks) OnSnapshotPublished(uint64, int, int)            {}
func (NoopEngineHooks) OnMalformedForest(string)                        {}

// NoopLLMHooks is a no-op implementation of LLMHooks.
type NoopLLMHooks struct{}

func (NoopLLMHooks) OnGenerationStart(context.Context, string, string) {}
func (NoopLLMHooks) OnGenerationComplete(context.Context, string, string, int, int, time.Duration, error) {
}
func (NoopLLMHooks) OnFallback(context.Context, string, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopTaskHooks is a no-op implementation of TaskHooks.
type NoopTaskHooks struct{}

func (NoopTaskHooks) OnTaskStart(context.Context, string, string)                  {}
func (NoopTaskHooks) OnTaskProgress(context.Context, string, string, int)          {}
func (NoopTaskHooks) OnTaskDone(context.Context, string, string, string, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	engineHooks EngineHooks = NoopEngineHooks{}
	llmHooks    LLMHooks    = NoopLLMHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	taskHooks   TaskHooks   = NoopTaskHooks{}
	hooksMu     sync.RWMutex
)

// SetEngineHooks registers custom engine hooks.
// This should be called once at application startup before any mutations.
func SetEngineHooks(h EngineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		engineHooks = h
	}
}

// SetLLMHooks registers custom LLM hooks.
// This should be called once at application startup before any model calls.
func SetLLMHooks(h LLMHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		llmHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetTaskHooks registers custom task hooks.
// This should be called once at application startup before any tasks run.
func SetTaskHooks(h TaskHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		taskHooks = h
	}
}

// Engine returns the registered engine hooks.
func Engine() EngineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return engineHooks
}

// LLM returns the registered LLM hooks.
func LLM() LLMHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return llmHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Tasks returns the registered task hooks.
func Tasks() TaskHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return taskHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	engineHooks = NoopEngineHooks{}
	llmHooks = NoopLLMHooks{}
	cacheHooks = NoopCacheHooks{}
	taskHooks = NoopTaskHooks{}
}
