package cli

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/pengpongpang/deepbrain/internal/config"
	"github.com/pengpongpang/deepbrain/internal/llm"
	"github.com/pengpongpang/deepbrain/pkg/errors"
	"github.com/pengpongpang/deepbrain/pkg/mindmap"
)

// generateCommand creates the generate command for building mindmaps
// from a topic.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	req := llm.GenerateRequest{}

	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Generate a mindmap document from a topic",
		Long: `Generate a mindmap document from a topic using an LLM.

The model produces a hierarchical outline for the topic, which is laid
out and written as a mindmap document (JSON). The document can then be
rendered ('deepbrain render') or browsed interactively ('deepbrain view').

Results are cached locally, so regenerating the same topic with the same
parameters is instant. Use --no-cache to force a fresh model call.

Requires an OpenAI-compatible API key (OPENAI_API_KEY or the llm section
of the config file). Without one, a minimal skeleton outline is produced
for offline work.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			req.Topic = args[0]
			return c.runGenerate(cmd.Context(), cfg, req, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <topic>.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&req.Description, "description", "d", "", "extra context for the model")
	cmd.Flags().IntVar(&req.Depth, "depth", 0, fmt.Sprintf("tree depth %d-%d (0 = default)", errors.MinGenerationDepth, errors.MaxGenerationDepth))
	cmd.Flags().StringVar(&req.Style, "style", "", "generation style: comprehensive (default), simple, detailed")
	cmd.Flags().IntVar(&req.MaxChildren, "max-children", 0, "children per node cap (0 = default)")

	return cmd
}

// runGenerate calls the model and writes the resulting document.
func (c *CLI) runGenerate(ctx context.Context, cfg config.Config, req llm.GenerateRequest, output string, noCache bool) error {
	resultCache, err := newCache(noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}

	llmClient := llm.NewOpenAI(llm.Options{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: float32(cfg.LLM.Temperature),
		Cache:       resultCache,
	})

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Generating mindmap for %q...", req.Topic))
	spinner.Start()

	outline, err := llmClient.GenerateMindmap(ctx, req)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return fmt.Errorf("generate: %w", err)
	}

	doc, err := llm.BuildDocument(outline, cfg.LayoutOptions())
	if err != nil {
		spinner.StopWithError("Generation failed")
		return fmt.Errorf("build document: %w", err)
	}
	spinner.Stop()

	if output == "" {
		output = slugify(req.Topic) + ".json"
	}
	if err := mindmap.WriteDocumentFile(doc, output); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	prog.done(fmt.Sprintf("Generated %d nodes", len(doc.Nodes)))
	printSuccess("Mindmap %q", doc.Title)
	printFile(output)
	printStats(len(doc.Nodes), len(doc.Edges), false)
	printNextStep("View it", "deepbrain view "+output)
	printNextStep("Render it", "deepbrain render "+output)

	return nil
}

// slugify turns a topic into a safe default filename.
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "mindmap"
	}
	return out
}
