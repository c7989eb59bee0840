// Package nodelink renders mindmap snapshots as Graphviz node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz, where
// nodes appear as colored boxes connected by edges. It's an alternative to
// the native SVG renderer for cases where Graphviz's layout or its DOT
// interchange format is preferred.
//
// # Usage
//
// Convert a snapshot to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{Detailed: false})
//	svg, err := nodelink.RenderSVG(dot)
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := nodelink.RenderPDF(dot)
//	png, err := nodelink.RenderPNG(dot, 2.0)  // 2x scale
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: When true, node labels include the level and description
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [RenderSVG]
//   - Saved and processed with external Graphviz tools
//   - Customized before rendering
//
// The generated DOT uses left-to-right layout (rankdir=LR) with rounded
// box nodes filled from the level palette, matching the canvas view's
// horizontal orientation. Collapsed branches get dashed outlines.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
