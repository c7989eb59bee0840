// Package forest provides the rooted forest that backs a mindmap document:
// raw nodes and edges plus the collapse set, with mutation primitives that
// keep the structure consistent.
//
// # Overview
//
// A mindmap is a single tree in every healthy state: one root, parent links
// that terminate at it, and levels equal to ancestor counts. ParentID is the
// authoritative structural field. Edges exist because persisted documents
// and renderers want them, but they are derived from parent links and kept
// in sync by every mutation; callers never manage edges directly.
//
// # Basic Usage
//
// Create a forest with [New], install a snapshot with [Forest.Init] or grow
// one with [Forest.AddNode], then mutate:
//
//	f := forest.New()
//	f.AddNode(forest.Node{ID: "root", Label: "Go"}, "")
//	f.AddNode(forest.Node{ID: "a", Label: "Syntax"}, "root")
//	f.AddNode(forest.Node{ID: "b", Label: "Tooling"}, "root")
//	f.ToggleCollapse("a")
//
// Every mutation either applies fully or returns a sentinel error and leaves
// the forest untouched. [Forest.Validate] checks the structural invariants
// and is the oracle the tests lean on.
//
// # Visibility
//
// The collapse set hides descendants, never the collapsed node itself:
// [Forest.VisibleNodes] walks from the root and stops at collapse entries,
// annotating each emitted node with HasChildren and Collapsed flags.
// [Forest.VisibleEdges] keeps the edges with both endpoints visible. The
// projection is a pure read; it never mutates the forest.
//
// # Degraded Snapshots
//
// [Forest.Init] deliberately accepts snapshots that are internally
// consistent but incomplete, such as nodes whose parents are missing from
// the payload. Those orphan subtrees are held invisibly and the layout pass
// keeps prior positions until a consistent snapshot arrives, so a transient
// half-fetched document can never take the editor down. Hard corruption
// (duplicate IDs, looping parent links) is rejected outright.
//
// # Concurrency
//
// Forest instances are not safe for concurrent use. The engine package
// serializes access; standalone callers must do the same.
//
// # Related Packages
//
// The [layout] subpackage positions the visible projection, and the engine
// package composes store, projection, and layout behind a snapshot API.
//
// [layout]: github.com/pengpongpang/deepbrain/pkg/forest/layout
package forest
