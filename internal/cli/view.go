package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pengpongpang/deepbrain/pkg/mindmap"
)

// viewCommand creates the view command for interactive document editing.
func (c *CLI) viewCommand() *cobra.Command {
	var direction string

	cmd := &cobra.Command{
		Use:   "view <mindmap.json>",
		Short: "Browse and edit a mindmap document in the terminal",
		Long: `Open a mindmap document in an interactive terminal outline.

The outline shows the visible projection of the document: collapsed
branches hide their descendants exactly as they would in a rendered
export. Edits go through the same engine the server uses, so every
keystroke leaves the document structurally valid.

Keys:
  ↑/↓, k/j     navigate
  space, ⏎     collapse / expand the selected branch
  a            add a child under the selected node
  r            rename the selected node
  x            delete the selected node and its subtree
  s            save changes back to the file
  q            quit (press twice to discard unsaved changes)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			doc, err := mindmap.ReadDocumentFile(args[0])
			if err != nil {
				return fmt.Errorf("load document %s: %w", args[0], err)
			}

			eng, err := c.documentEngine(cfg, doc, direction)
			if err != nil {
				return err
			}

			model := newOutlineModel(eng, doc, args[0])
			prog := tea.NewProgram(model, tea.WithContext(cmd.Context()))

			final, err := prog.Run()
			if err != nil {
				return fmt.Errorf("run viewer: %w", err)
			}

			if m, ok := final.(outlineModel); ok && m.dirty {
				printWarning("Discarded unsaved changes to %s", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "", "layout direction: horizontal, vertical (default from document)")

	return cmd
}
