package engine

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pengpongpang/deepbrain/pkg/forest"
	"github.com/pengpongpang/deepbrain/pkg/forest/layout"
	"github.com/pengpongpang/deepbrain/pkg/observability"
)

// Options configures an Engine.
type Options struct {
	// Layout parameterizes the positioning pass run after every mutation.
	Layout layout.Options

	// Logger receives debug and warning lines. Nil means silent.
	Logger *log.Logger

	// Hooks receives engine events. Nil falls back to the process-wide
	// registry in the observability package.
	Hooks observability.EngineHooks
}

// Snapshot is the published view of the mindmap: the visible projection
// with layout positions applied. Snapshots are immutable; a new one is
// swapped in after every applied mutation, so readers never observe a
// half-applied change.
type Snapshot struct {
	// Seq increases by one with every applied mutation, including layout
	// reconfiguration. It never resets for the lifetime of the engine.
	Seq uint64

	// Nodes holds the visible nodes in depth-first order, parents before
	// children, siblings by Order.
	Nodes []forest.VisibleNode

	// Edges holds the edges with both endpoints visible, sorted by target.
	Edges []forest.Edge
}

// Engine owns one forest and keeps an eagerly recomputed snapshot.
//
// Every mutation runs store change, visibility projection, and layout under
// one lock, then atomically publishes the result. [Engine.Snapshot] is a
// single pointer load. The engine never performs I/O and never blocks on
// the network: LLM or backend results enter through [Engine.Initialize],
// [Engine.AddNode], and [Engine.UpdateNode] once the caller has them.
type Engine struct {
	mu     sync.Mutex
	f      *forest.Forest
	opts   Options
	logger *log.Logger
	seq    uint64
	snap   atomic.Pointer[Snapshot]
}

// New creates an engine with an empty forest and publishes the empty
// snapshot (Seq 0). Layout options are validated once here.
func New(opts Options) (*Engine, error) {
	if err := opts.Layout.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	e := &Engine{
		f:      forest.New(),
		opts:   opts,
		logger: opts.Logger,
	}
	e.snap.Store(&Snapshot{})
	return e, nil
}

// Snapshot returns the most recently published snapshot. It never returns
// nil and never blocks on writers.
func (e *Engine) Snapshot() *Snapshot {
	return e.snap.Load()
}

// Raw returns defensive copies of the underlying forest for persistence:
// all nodes (with their last layout positions), all edges, and the sorted
// collapse set. Hidden nodes are included; this is the full document.
func (e *Engine) Raw() ([]forest.Node, []forest.Edge, []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.f.Nodes(), e.f.Edges(), e.f.Collapsed()
}

// Validate reports whether the underlying forest currently satisfies the
// structural invariants. Degraded snapshots accepted by Initialize fail
// this check until a consistent one replaces them.
func (e *Engine) Validate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.f.Validate()
}

// =============================================================================
// Mutations
// =============================================================================

// Initialize replaces the whole forest with a snapshot from storage or an
// LLM result. With preserveCollapse, collapse entries survive for node IDs
// still present. A degraded snapshot (no locatable root) is accepted: the
// engine publishes it with prior positions and reports it through the
// malformed-forest hook instead of failing.
func (e *Engine) Initialize(nodes []forest.Node, edges []forest.Edge, preserveCollapse bool) (*Snapshot, error) {
	return e.mutate("initialize", func() error {
		return e.f.Init(nodes, edges, preserveCollapse)
	})
}

// AddNode inserts a node under parentID. An empty parentID is only valid
// for the first node (the root). A collapsed parent is expanded so the
// insert is immediately visible. An empty node ID gets a fresh UUID;
// callers that need to know the ID mint it themselves.
func (e *Engine) AddNode(n forest.Node, parentID string) (*Snapshot, error) {
	return e.mutate("add_node", func() error {
		return e.f.AddNode(n, parentID)
	})
}

// UpdateNode merges a partial patch into a node. Structural fields change
// only when the patch explicitly carries them; a patched ParentID goes
// through the full move validation.
func (e *Engine) UpdateNode(id string, p forest.Patch) (*Snapshot, error) {
	return e.mutate("update_node", func() error {
		return e.f.UpdateNode(id, p)
	})
}

// DeleteNode removes a node and its whole subtree, incident edges, and
// collapse entries. Deleting an absent ID is already satisfied: the current
// snapshot is returned unchanged, without a new sequence number.
func (e *Engine) DeleteNode(id string) *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.f.Node(id); !ok {
		return e.snap.Load()
	}
	start := time.Now()
	e.f.DeleteNode(id)
	snap := e.recomputeLocked()
	e.hooks().OnMutationApplied("delete_node", snap.Seq, time.Since(start))
	return snap
}

// MoveNode reparents a node, recomputing levels across its subtree. Moves
// that would create a cycle (including reparenting the root) are rejected.
func (e *Engine) MoveNode(id, newParentID string) (*Snapshot, error) {
	return e.mutate("move_node", func() error {
		return e.f.MoveNode(id, newParentID)
	})
}

// ReorderSiblings rewrites the child order under a parent. The ID list must
// be exactly the current child set.
func (e *Engine) ReorderSiblings(parentID string, orderedIDs []string) (*Snapshot, error) {
	return e.mutate("reorder_siblings", func() error {
		return e.f.ReorderSiblings(parentID, orderedIDs)
	})
}

// ToggleCollapse flips a node's collapse entry and republishes.
func (e *Engine) ToggleCollapse(id string) (*Snapshot, error) {
	return e.mutate("toggle_collapse", func() error {
		return e.f.ToggleCollapse(id)
	})
}

// RestoreCollapse replaces the collapse set wholesale, typically right
// after [Engine.Initialize] when loading a stored document. Unknown IDs
// are dropped, so the call cannot fail.
func (e *Engine) RestoreCollapse(ids []string) *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()
	e.f.RestoreCollapse(ids)
	snap := e.recomputeLocked()
	e.hooks().OnMutationApplied("restore_collapse", snap.Seq, time.Since(start))
	return snap
}

// SetLayout swaps the layout parameters and republishes with fresh
// positions. The forest itself is untouched.
func (e *Engine) SetLayout(opts layout.Options) (*Snapshot, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return e.mutate("set_layout", func() error {
		e.opts.Layout = opts
		return nil
	})
}

// =============================================================================
// Internals
// =============================================================================

func (e *Engine) hooks() observability.EngineHooks {
	if e.opts.Hooks != nil {
		return e.opts.Hooks
	}
	return observability.Engine()
}

// mutate runs one store change under the write lock and publishes the
// recomputed snapshot. On error nothing is republished: the store left the
// forest untouched and readers keep the previous snapshot.
func (e *Engine) mutate(op string, fn func() error) (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()
	if err := fn(); err != nil {
		e.hooks().OnMutationRejected(op, err)
		e.logger.Debug("mutation rejected", "op", op, "err", err)
		return nil, err
	}
	snap := e.recomputeLocked()
	e.hooks().OnMutationApplied(op, snap.Seq, time.Since(start))
	return snap, nil
}

// recomputeLocked projects, lays out, and publishes. Callers hold e.mu.
func (e *Engine) recomputeLocked() *Snapshot {
	positions, err := layout.Compute(e.f, e.opts.Layout)
	if err != nil {
		// Layout options were validated up front, so only a degraded
		// forest lands here; keep the echoed positions and carry on.
		e.hooks().OnMalformedForest(err.Error())
		e.logger.Warn("layout skipped", "reason", err)
	}
	e.f.ApplyPositions(positions)

	e.seq++
	snap := &Snapshot{
		Seq:   e.seq,
		Nodes: e.f.VisibleNodes(),
		Edges: e.f.VisibleEdges(),
	}
	e.snap.Store(snap)
	e.hooks().OnSnapshotPublished(snap.Seq, len(snap.Nodes), len(snap.Edges))
	return snap
}
