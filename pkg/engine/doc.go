// Package engine composes the forest store, visibility projection, and
// layout behind a snapshot-on-write facade.
//
// # Overview
//
// The engine owns exactly one forest. Every mutation applies the store
// change, reprojects visibility through the collapse set, runs the layout
// pass, and atomically publishes an immutable [Snapshot]. Reads are a
// single pointer load, so a UI can poll or re-render on every event without
// ever seeing a half-applied mutation.
//
// Recomputation is eager on purpose: mindmap documents are small (hundreds
// of nodes), and an always-current snapshot keeps the presentation layer
// trivial.
//
// # Concurrency
//
// One writer at a time: mutations serialize on an internal mutex. Any
// number of readers may call [Engine.Snapshot] concurrently. The engine
// performs no I/O; callers run network or storage work outside and feed
// results back in through Initialize, AddNode, or UpdateNode.
//
// # Failure Semantics
//
// Mutation errors are the forest's sentinel errors and leave both forest
// and snapshot untouched. A degraded document (no locatable root) is the
// one soft failure: it is accepted, published with prior positions, and
// reported through [observability.EngineHooks.OnMalformedForest] rather
// than returned, so a momentarily inconsistent backend response cannot
// take an editor session down.
package engine
