package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pengpongpang/deepbrain/internal/auth"
	"github.com/pengpongpang/deepbrain/internal/config"
	"github.com/pengpongpang/deepbrain/internal/llm"
	"github.com/pengpongpang/deepbrain/internal/server"
	"github.com/pengpongpang/deepbrain/internal/store"
	"github.com/pengpongpang/deepbrain/internal/task"
	"github.com/pengpongpang/deepbrain/pkg/cache"
)

// connectTimeout bounds the initial MongoDB and Redis handshakes.
const connectTimeout = 10 * time.Second

// serveCommand creates the serve command that runs the REST API server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		dev     bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server",
		Long: `Run the deepbrain REST API server.

The server persists users, mindmaps, and tasks in MongoDB and executes
LLM generation jobs in a background worker pool. With --dev everything
runs against an in-memory store, which makes a throwaway instance for
local frontend work:

  deepbrain serve --dev

Configuration comes from ~/.config/deepbrain/config.toml (or --config)
with environment overrides such as MONGODB_URI, REDIS_URL, JWT_SECRET,
and OPENAI_API_KEY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg, dev, workers)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&dev, "dev", false, "use an in-memory store instead of MongoDB")
	cmd.Flags().IntVar(&workers, "workers", 0, "background task workers (0 = default)")

	return cmd
}

// runServe wires storage, caching, auth, and the task pool into a
// server and blocks until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, cfg config.Config, dev bool, workers int) error {
	st, closeStore, err := c.openStore(ctx, cfg, dev)
	if err != nil {
		return err
	}
	defer closeStore()

	resultCache, closeCache, err := c.openSharedCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	llmClient := llm.NewOpenAI(llm.Options{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: float32(cfg.LLM.Temperature),
		Cache:       resultCache,
	})
	if cfg.LLM.APIKey == "" {
		c.Logger.Warn("no LLM API key configured, generation endpoints will serve fallback outlines")
	}

	tasks, err := task.NewManager(task.Options{
		Store:   st,
		LLM:     llmClient,
		Layout:  cfg.LayoutOptions(),
		Logger:  c.Logger,
		Workers: workers,
	})
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Store:  st,
		Auth:   auth.NewManager(cfg.Auth.JWTSecret, cfg.TokenTTL()),
		Tasks:  tasks,
		LLM:    llmClient,
		Layout: cfg.LayoutOptions(),
		Cache:  resultCache,
		Logger: c.Logger,
	})
	if err != nil {
		return err
	}

	c.Logger.Info("starting server", "addr", cfg.Server.Addr, "dev", dev)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// openStore connects the configured store. The returned closer is safe
// to call on all paths.
func (c *CLI) openStore(ctx context.Context, cfg config.Config, dev bool) (store.Store, func(), error) {
	if dev {
		c.Logger.Warn("running with in-memory store, data is lost on exit")
		return store.NewMemory(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	mongo, err := store.NewMongo(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	closer := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := mongo.Close(closeCtx); err != nil {
			c.Logger.Error("close mongodb", "err", err)
		}
	}
	return mongo, closer, nil
}

// openSharedCache connects Redis when configured, otherwise falls back
// to the in-process cache. Both back LLM results and rendered artifacts.
func (c *CLI) openSharedCache(ctx context.Context, cfg config.Config) (cache.Cache, func(), error) {
	if cfg.Redis.URL == "" {
		return cache.NewMemoryCache(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	rc, err := cache.NewRedisCache(connectCtx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	closer := func() {
		if err := rc.Close(); err != nil {
			c.Logger.Error("close redis", "err", err)
		}
	}
	return rc, closer, nil
}
