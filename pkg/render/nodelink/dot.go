package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/pengpongpang/deepbrain/pkg/engine"
	"github.com/pengpongpang/deepbrain/pkg/forest"
	"github.com/pengpongpang/deepbrain/pkg/mindmap"
	"github.com/pengpongpang/deepbrain/pkg/render"
)

// Options configures node-link diagram export.
type Options struct {
	// Detailed adds level and description lines to node labels.
	// When false, only the display label is shown.
	Detailed bool
}

// ToDOT converts a snapshot to Graphviz DOT format. The graph grows left
// to right like the canvas view; node fills follow the level palette and
// collapsed branches are rendered with dashed outlines. The resulting DOT
// string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG],
// or handed to external Graphviz tooling.
func ToDOT(snap *engine.Snapshot, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph mindmap {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowhead=none, penwidth=2];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.35;\n")
	buf.WriteString("\n")

	if snap != nil {
		levels := make(map[string]int, len(snap.Nodes))
		for _, n := range snap.Nodes {
			levels[n.ID] = n.Level
			label := fmtLabel(n, opts.Detailed)
			attrs := fmtAttrs(n, label)
			fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
		}

		buf.WriteString("\n")
		for _, e := range snap.Edges {
			color := mindmap.LevelColor(max(levels[e.Target], 1))
			fmt.Fprintf(&buf, "  %q -> %q [color=%q];\n", e.Source, e.Target, color)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n forest.VisibleNode, detailed bool) string {
	label := n.Label
	if label == "" {
		label = n.ID
	}
	if !detailed {
		return label
	}

	parts := []string{fmt.Sprintf("level: %d", n.Level)}
	if n.Description != "" {
		parts = append(parts, n.Description)
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n forest.VisibleNode, label string) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("fillcolor=%q", mindmap.LevelColor(n.Level)),
		fmt.Sprintf("color=%q", mindmap.BorderColor(n.Level, n.IsRoot)),
	}
	if n.IsRoot {
		attrs = append(attrs, "fontsize=16", "penwidth=2")
	}
	if n.Collapsed && n.HasChildren {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root <svg> tag so the viewBox starts at the
// origin. Graphviz emits offset viewBoxes that clip when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPDF].
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPNG].
//
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
