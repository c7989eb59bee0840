package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Engine hooks
	e := NoopEngineHooks{}
	e.OnMutationApplied("add_node", 1, time.Millisecond)
	e.OnMutationRejected("move_node", nil)
	e.OnSnapshotPublished(1, 12, 11)
	e.OnMalformedForest("no locatable root")

	// LLM hooks
	l := NoopLLMHooks{}
	l.OnGenerationStart(ctx, "generate_mindmap", "gpt-3.5-turbo")
	l.OnGenerationComplete(ctx, "generate_mindmap", "gpt-3.5-turbo", 200, 800, time.Second, nil)
	l.OnFallback(ctx, "generate_mindmap", nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "llm")
	c.OnCacheMiss(ctx, "svg")
	c.OnCacheSet(ctx, "llm", 1024)

	// Task hooks
	k := NoopTaskHooks{}
	k.OnTaskStart(ctx, "generate_mindmap", "t1")
	k.OnTaskProgress(ctx, "generate_mindmap", "t1", 50)
	k.OnTaskDone(ctx, "generate_mindmap", "t1", "completed", time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Engine() should return NoopEngineHooks by default")
	}
	if _, ok := LLM().(NoopLLMHooks); !ok {
		t.Error("LLM() should return NoopLLMHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Tasks().(NoopTaskHooks); !ok {
		t.Error("Tasks() should return NoopTaskHooks by default")
	}

	// Set custom hooks
	customEngine := &testEngineHooks{}
	SetEngineHooks(customEngine)
	if Engine() != customEngine {
		t.Error("SetEngineHooks should set custom hooks")
	}

	customLLM := &testLLMHooks{}
	SetLLMHooks(customLLM)
	if LLM() != customLLM {
		t.Error("SetLLMHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customTasks := &testTaskHooks{}
	SetTaskHooks(customTasks)
	if Tasks() != customTasks {
		t.Error("SetTaskHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Reset() should restore NoopEngineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testEngineHooks{}
	SetEngineHooks(custom)

	// Setting nil should be ignored
	SetEngineHooks(nil)

	if Engine() != custom {
		t.Error("SetEngineHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testEngineHooks struct{ NoopEngineHooks }
type testLLMHooks struct{ NoopLLMHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testTaskHooks struct{ NoopTaskHooks }
