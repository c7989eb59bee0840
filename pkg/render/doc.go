// Package render turns mindmap snapshots into visual outputs.
//
// # Overview
//
// This package contains the rendering layer on top of the engine. It
// provides:
//
//   - A native SVG writer ([SVG]) drawing nodes at engine positions
//   - Generic format conversion (SVG to PDF/PNG)
//   - Graphviz node-link export (in [nodelink] subpackage)
//
// # Native SVG
//
// [SVG] draws the visible projection directly: rounded boxes at the layout
// engine's positions, filled from the level palette, connected by curved
// edge paths. It needs no external tools, so it backs both the CLI render
// command and the server's render endpoint.
//
//	snap := eng.Snapshot()
//	svg := render.SVG(snap, render.Options{Background: "#ffffff"})
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). They work on both native
// and Graphviz-produced SVG.
//
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # Node-Link Export
//
// The [nodelink] subpackage emits Graphviz DOT and renders it in-process,
// for piping into external Graphviz tooling or for readers who prefer a
// classic left-to-right diagram.
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// [nodelink]: github.com/pengpongpang/deepbrain/pkg/render/nodelink
package render
