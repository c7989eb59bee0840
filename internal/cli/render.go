package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pengpongpang/deepbrain/internal/config"
	"github.com/pengpongpang/deepbrain/pkg/engine"
	"github.com/pengpongpang/deepbrain/pkg/forest/layout"
	"github.com/pengpongpang/deepbrain/pkg/mindmap"
	"github.com/pengpongpang/deepbrain/pkg/render"
	"github.com/pengpongpang/deepbrain/pkg/render/nodelink"
)

// Output formats accepted by --format.
const (
	formatSVG = "svg"
	formatPNG = "png"
	formatPDF = "pdf"
	formatDOT = "dot"
)

// pngScale is the raster scale for PNG export.
const pngScale = 2.0

// renderCommand creates the render command for exporting documents.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		direction  string
		background string
		graphviz   bool
		detailed   bool
	)

	cmd := &cobra.Command{
		Use:   "render <mindmap.json>",
		Short: "Export a mindmap document as SVG, PNG, PDF, or DOT",
		Long: `Export a mindmap document as a visualization.

The document is laid out with its stored direction (override with
--direction) and rendered through the native SVG renderer. With
--graphviz the node-link diagram is produced via Graphviz DOT instead,
which also unlocks the dot output format.

Collapsed branches render collapsed: hidden nodes stay hidden in the
export, matching what the interactive view shows.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			formats, err := parseFormats(formatsStr, graphviz)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cfg, renderParams{
				input:      args[0],
				output:     output,
				formats:    formats,
				direction:  direction,
				background: background,
				graphviz:   graphviz,
				detailed:   detailed,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot (comma-separated)")
	cmd.Flags().StringVar(&direction, "direction", "", "layout direction: horizontal, vertical (default from document)")
	cmd.Flags().StringVar(&background, "background", "", "canvas background color, e.g. #ffffff (native renderer)")
	cmd.Flags().BoolVar(&graphviz, "graphviz", false, "render a node-link diagram via Graphviz")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include levels and descriptions in node labels (graphviz)")

	return cmd
}

// renderParams bundles the resolved render inputs.
type renderParams struct {
	input      string
	output     string
	formats    []string
	direction  string
	background string
	graphviz   bool
	detailed   bool
}

// runRender loads the document, projects it through the engine, and
// writes one file per requested format.
func (c *CLI) runRender(ctx context.Context, cfg config.Config, p renderParams) error {
	doc, err := mindmap.ReadDocumentFile(p.input)
	if err != nil {
		return fmt.Errorf("load document %s: %w", p.input, err)
	}

	snap, err := c.documentSnapshot(cfg, doc, p.direction)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %q...", doc.Title))
	spinner.Start()

	artifacts := map[string][]byte{}
	for _, format := range p.formats {
		data, err := renderFormat(snap, format, p)
		if err != nil {
			spinner.StopWithError("Rendering failed")
			return fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	spinner.Stop()

	for _, format := range p.formats {
		path := outputPath(p.input, p.output, format, len(p.formats) > 1)
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}

	printStats(len(snap.Nodes), len(snap.Edges), false)
	return nil
}

// documentSnapshot runs the document through a one-shot engine so the
// export sees the same projection and layout the server serves.
func (c *CLI) documentSnapshot(cfg config.Config, doc *mindmap.Document, direction string) (*engine.Snapshot, error) {
	eng, err := c.documentEngine(cfg, doc, direction)
	if err != nil {
		return nil, err
	}
	return eng.Snapshot(), nil
}

// documentEngine builds a live engine holding the document's forest with
// its collapse state restored. An empty direction keeps the document's
// stored direction.
func (c *CLI) documentEngine(cfg config.Config, doc *mindmap.Document, direction string) (*engine.Engine, error) {
	f, err := doc.Forest()
	if err != nil {
		return nil, fmt.Errorf("document structure: %w", err)
	}

	opts := cfg.LayoutOptions()
	if direction != "" {
		opts.Direction = layout.ParseDirection(direction)
	} else {
		opts.Direction = layout.ParseDirection(doc.Layout)
	}

	eng, err := engine.New(engine.Options{Layout: opts, Logger: c.Logger})
	if err != nil {
		return nil, err
	}
	if _, err := eng.Initialize(f.Nodes(), f.Edges(), false); err != nil {
		return nil, fmt.Errorf("document structure: %w", err)
	}
	eng.RestoreCollapse(doc.Collapsed)
	return eng, nil
}

// renderFormat produces one artifact.
func renderFormat(snap *engine.Snapshot, format string, p renderParams) ([]byte, error) {
	if p.graphviz {
		dot := nodelink.ToDOT(snap, nodelink.Options{Detailed: p.detailed})
		switch format {
		case formatDOT:
			return []byte(dot), nil
		case formatSVG:
			return nodelink.RenderSVG(dot)
		case formatPDF:
			return nodelink.RenderPDF(dot)
		case formatPNG:
			return nodelink.RenderPNG(dot, pngScale)
		}
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	svg := render.SVG(snap, render.Options{Background: p.background})
	switch format {
	case formatSVG:
		return svg, nil
	case formatPDF:
		return render.ToPDF(svg)
	case formatPNG:
		return render.ToPNG(svg, pngScale)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string, graphviz bool) ([]string, error) {
	if s == "" {
		return []string{formatSVG}, nil
	}

	var formats []string
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(strings.ToLower(f))
		switch f {
		case formatSVG, formatPNG, formatPDF:
		case formatDOT:
			if !graphviz {
				return nil, fmt.Errorf("format dot requires --graphviz")
			}
		case "":
			continue
		default:
			return nil, fmt.Errorf("unsupported format %q (svg, png, pdf, dot)", f)
		}
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		return []string{formatSVG}, nil
	}
	return formats, nil
}

// outputPath derives the artifact path for one format. With multiple
// formats the output flag acts as a base path; otherwise it is used
// verbatim when set.
func outputPath(input, output, format string, multi bool) string {
	if output != "" && !multi {
		return output
	}
	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}
	return base + "." + format
}
