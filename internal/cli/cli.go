// Package cli implements the deepbrain command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pengpongpang/deepbrain/internal/client"
	"github.com/pengpongpang/deepbrain/internal/config"
	"github.com/pengpongpang/deepbrain/pkg/buildinfo"
	"github.com/pengpongpang/deepbrain/pkg/cache"
	"github.com/pengpongpang/deepbrain/pkg/httputil"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "deepbrain"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config override, empty for the default location.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "deepbrain",
		Short:        "Deep Brain builds and edits LLM-assisted mindmaps",
		Long:         `Deep Brain is a mindmap engine with an LLM front door: generate mindmaps from a topic, edit them node by node, render them to SVG, PNG, or PDF, and serve the whole thing over a REST API.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/deepbrain/config.toml)")

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.loginCommand())
	root.AddCommand(c.logoutCommand())
	root.AddCommand(c.whoamiCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves the effective configuration for a command run.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// =============================================================================
// Client Factory
// =============================================================================

// newAPIClient builds the REST client for server-backed commands. The
// stored token is attached when present; commands that need auth get a
// clean 401 from the server otherwise.
func (c *CLI) newAPIClient(cfg config.Config) (*client.Client, error) {
	token, _ := loadToken()

	readCache, err := apiReadCache()
	if err != nil {
		c.Logger.Debug("API read cache unavailable", "err", err)
	}

	return client.New(client.Options{
		BaseURL: cfg.Server.BaseURL,
		Token:   token,
		Cache:   readCache,
	}), nil
}

// apiReadCache builds the on-disk GET cache under the api/ subdirectory
// so cache clear wipes it together with the LLM result cache.
func apiReadCache() (*httputil.Cache, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return client.NewReadCache(filepath.Join(dir, "api"))
}

// newCache builds the local result cache used by generate and render.
func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/deepbrain/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the configuration directory (~/.config/deepbrain/).
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
