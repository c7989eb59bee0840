package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"

	"github.com/pengpongpang/deepbrain/pkg/engine"
	"github.com/pengpongpang/deepbrain/pkg/forest"
	"github.com/pengpongpang/deepbrain/pkg/mindmap"
)

// Default canvas parameters. Node boxes are sized so that the layout
// engine's default gaps leave visible space between siblings and levels.
const (
	DefaultNodeWidth  = 150.0
	DefaultNodeHeight = 48.0
	DefaultMargin     = 40.0
)

const labelCharWidth = 0.55

// Options configures the native SVG renderer. The zero value renders with
// defaults on a transparent background.
type Options struct {
	// NodeWidth and NodeHeight size every node box. Positions from the
	// layout engine are treated as box centers.
	NodeWidth  float64
	NodeHeight float64

	// Margin pads the canvas around the outermost boxes.
	Margin float64

	// Background fills the canvas when non-empty, e.g. "#ffffff".
	// Empty leaves the canvas transparent.
	Background string
}

func (o *Options) setDefaults() {
	if o.NodeWidth <= 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
}

// SVG renders a snapshot as a standalone SVG document without Graphviz.
//
// Nodes are drawn as rounded boxes centered on their layout positions,
// filled from the level palette, with edges as curved paths underneath.
// Collapsed branches get a "+" badge on their trailing edge. A nil
// snapshot renders an empty canvas.
//
// The output is self-contained and can be converted with [ToPDF] or
// [ToPNG].
func SVG(snap *engine.Snapshot, opts Options) []byte {
	opts.setDefaults()

	var nodes []forest.VisibleNode
	var edges []forest.Edge
	if snap != nil {
		nodes, edges = snap.Nodes, snap.Edges
	}

	width, height, offX, offY := frame(nodes, opts)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	if opts.Background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escapeXML(opts.Background))
	}

	centers := make(map[string]forest.Position, len(nodes))
	levels := make(map[string]int, len(nodes))
	for _, n := range nodes {
		centers[n.ID] = forest.Position{X: n.Position.X + offX, Y: n.Position.Y + offY}
		levels[n.ID] = n.Level
	}

	// Edges first so boxes cover the path endpoints.
	for _, e := range edges {
		renderEdge(&buf, e, centers, levels, opts)
	}
	for _, n := range nodes {
		renderNode(&buf, n, centers[n.ID], opts)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// frame computes the canvas size and the translation that moves layout
// coordinates into it, keeping every box inside the margin.
func frame(nodes []forest.VisibleNode, opts Options) (width, height, offX, offY float64) {
	if len(nodes) == 0 {
		side := 2 * opts.Margin
		return side, side, 0, 0
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		minX = math.Min(minX, n.Position.X)
		minY = math.Min(minY, n.Position.Y)
		maxX = math.Max(maxX, n.Position.X)
		maxY = math.Max(maxY, n.Position.Y)
	}

	width = maxX - minX + opts.NodeWidth + 2*opts.Margin
	height = maxY - minY + opts.NodeHeight + 2*opts.Margin
	offX = opts.Margin + opts.NodeWidth/2 - minX
	offY = opts.Margin + opts.NodeHeight/2 - minY
	return width, height, offX, offY
}

func renderEdge(buf *bytes.Buffer, e forest.Edge, centers map[string]forest.Position, levels map[string]int, opts Options) {
	from, ok := centers[e.Source]
	if !ok {
		return
	}
	to, ok := centers[e.Target]
	if !ok {
		return
	}

	// Leave the source box on the side facing the target so the curve
	// never crosses either box.
	x1, y1 := from.X, from.Y
	x2, y2 := to.X, to.Y
	half := opts.NodeWidth / 2
	if x2 >= x1 {
		x1 += half
		x2 -= half
	} else {
		x1 -= half
		x2 += half
	}

	bend := (x2 - x1) / 2
	color := mindmap.LevelColor(max(levels[e.Target], 1))
	fmt.Fprintf(buf, `  <path d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
		x1, y1, x1+bend, y1, x2-bend, y2, x2, y2, color)
}

func renderNode(buf *bytes.Buffer, n forest.VisibleNode, center forest.Position, opts Options) {
	w, h := opts.NodeWidth, opts.NodeHeight
	x, y := center.X-w/2, center.Y-h/2

	fill := mindmap.LevelColor(n.Level)
	stroke := mindmap.BorderColor(n.Level, n.IsRoot)
	radius, fontSize := 8.0, 14.0
	weight := "normal"
	if n.IsRoot {
		radius, fontSize = 10.0, 16.0
		weight = "bold"
	}

	fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.0f" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
		x, y, w, h, radius, fill, stroke)

	label := n.Label
	if label == "" {
		label = n.ID
	}
	label = fitLabel(label, w-16, fontSize)
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central" font-family="sans-serif" font-size="%.0f" font-weight="%s" fill="white">%s</text>`+"\n",
		center.X, center.Y, fontSize, weight, escapeXML(label))

	if n.Collapsed && n.HasChildren {
		bx := x + w
		fmt.Fprintf(buf, `  <circle cx="%.1f" cy="%.1f" r="9" fill="white" stroke="%s" stroke-width="2"/>`+"\n", bx, center.Y, stroke)
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central" font-family="sans-serif" font-size="12" font-weight="bold" fill="%s">+</text>`+"\n",
			bx, center.Y, stroke)
	}
}

// fitLabel truncates in runes so multi-byte labels never split mid-rune.
func fitLabel(label string, availWidth, fontSize float64) string {
	maxChars := int(availWidth / (fontSize * labelCharWidth))
	if maxChars < 3 {
		maxChars = 3
	}
	runes := []rune(label)
	if len(runes) <= maxChars {
		return label
	}
	return string(runes[:maxChars-2]) + ".."
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
