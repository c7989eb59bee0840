// Package pkg provides the core libraries for Deep Brain mindmaps.
//
// # Overview
//
// Deep Brain keeps a mindmap as a forest of labeled nodes and projects it
// through a collapse set into the laid-out view that editors and exports
// consume. The pkg directory is organized into four main areas:
//
//  1. [forest] - Domain logic (hierarchy store, visibility projection, layout)
//  2. [engine] - Mutation pipeline publishing immutable snapshots
//  3. [mindmap] - Document serialization shared by storage, API, and CLI
//  4. [render] - Visualization output (native SVG, Graphviz node-link)
//
// # Architecture
//
// The typical data flow through Deep Brain:
//
//	Document (JSON / MongoDB)
//	         ↓
//	    [mindmap] package (decode + normalize)
//	         ↓
//	    [forest] package (hierarchy + collapse projection)
//	         ↓
//	    [forest/layout] package (deterministic positions)
//	         ↓
//	    [engine] package (atomic snapshot publish)
//	         ↓
//	    API responses / SVG / PNG / PDF output
//
// # Quick Start
//
// Load a document, collapse a branch, and render it:
//
//	import (
//	    "github.com/pengpongpang/deepbrain/pkg/engine"
//	    "github.com/pengpongpang/deepbrain/pkg/mindmap"
//	    "github.com/pengpongpang/deepbrain/pkg/render"
//	)
//
//	// 1. Load the document
//	doc, _ := mindmap.ReadDocumentFile("plans.json")
//	f, _ := doc.Forest()
//
//	// 2. Run it through the engine
//	eng, _ := engine.New(engine.Options{})
//	eng.Initialize(f.Nodes(), f.Edges(), false)
//	snap, _ := eng.ToggleCollapse("some-node-id")
//
//	// 3. Render the visible projection
//	svg := render.SVG(snap, render.Options{})
//
// # Main Packages
//
// [forest] - The hierarchy store. Nodes with parent links and sibling
// order, structural mutations (add, patch, move, reorder, delete), the
// collapse set, and the visibility projection. All invariants live here.
//
// [forest/layout] - Deterministic recursive layout assigning positions to
// visible nodes, horizontal or vertical.
//
// [engine] - Serializes mutations, recomputes visibility and layout, and
// publishes immutable snapshots behind an atomic pointer so readers never
// block.
//
// [mindmap] - The persisted document shape (nodes, edges, collapse set,
// presentation metadata) with JSON and BSON codecs, plus conversions to
// and from the forest types.
//
// [render] - Native SVG rendering of snapshots with PDF and PNG
// conversion.
//
// [render/nodelink] - Graphviz DOT export and rendering for node-link
// diagrams.
//
// [errors] - Coded errors, the HTTP error envelope, and input validators
// shared by the API and CLI.
//
// [cache] - Cache interface with memory, file, Redis, and null backends,
// used for LLM results and rendered artifacts.
//
// [httputil] - On-disk response caching and retry helpers for HTTP
// clients.
//
// [observability] - Engine hooks for logging and metrics counters.
//
// [buildinfo] - Build-time version information injected via ldflags.
//
// [forest]: https://pkg.go.dev/github.com/pengpongpang/deepbrain/pkg/forest
// [forest/layout]: https://pkg.go.dev/github.com/pengpongpang/deepbrain/pkg/forest/layout
// [engine]: https://pkg.go.dev/github.com/pengpongpang/deepbrain/pkg/engine
// [mindmap]: https://pkg.go.dev/github.com/pengpongpang/deepbrain/pkg/mindmap
// [render]: https://pkg.go.dev/github.com/pengpongpang/deepbrain/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/pengpongpang/deepbrain/pkg/render/nodelink
// [errors]: https://pkg.go.dev/github.com/pengpongpang/deepbrain/pkg/errors
// [cache]: https://pkg.go.dev/github.com/pengpongpang/deepbrain/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/pengpongpang/deepbrain/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/pengpongpang/deepbrain/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/pengpongpang/deepbrain/pkg/buildinfo
package pkg
