// Package mindmap provides serialization types for mindmap documents.
//
// This package defines the canonical wire format for Deep Brain's mindmap
// data, used for JSON files, API responses, MongoDB storage, and the canvas
// frontend.
//
// # Architecture
//
// The package sits at the serialization boundary between the hierarchy
// engine and external formats:
//
//   - [Document], [Node], [Edge]: Serialization types (this package)
//   - pkg/forest.Forest: Internal hierarchy representation
//   - pkg/engine.Snapshot: Immutable visible projection
//
// Use [FromForest]/[ToForest] to convert stored state and [FromVisible] to
// convert a snapshot's projection for rendering.
//
// # Document Serialization
//
// Documents use the canvas frontend's node shape directly:
//
//	{
//	  "title": "Go",
//	  "nodes": [{"id": "r", "data": {"label": "Go", "isRoot": true}, "level": 0}],
//	  "edges": []
//	}
//
// Common operations:
//
//	d, _ := mindmap.ReadDocumentFile("map.json")   // File → Document
//	mindmap.WriteDocumentFile(d, "out.json")       // Document → File
//	data, _ := mindmap.MarshalDocument(d)          // Document → []byte
//	parsed, _ := mindmap.UnmarshalDocument(data)   // []byte → Document
//
// # Styles
//
// Node and edge styles are presentation data derived from the level palette
// ([NodeStyle], [EdgeStyle]). Conversions re-derive them, so custom styles
// stored by a wholesale client update survive only until the next node-level
// operation rebuilds the document.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package mindmap
