// Package server implements the Deep Brain HTTP API.
//
// The API is a thin orchestration shell: handlers decode a request, call
// into the store, the task manager, or the mindmap engine, and encode the
// result. All domain rules (forest invariants, layout, generation
// fallbacks) live in the packages the handlers call; nothing in this
// package mutates a document except through the engine.
//
// # Routes
//
// Everything is mounted under /api:
//
//   - /auth: register, login, me
//   - /mindmaps: CRUD, public search, render, and the node-level
//     mutations that run server-side through the engine
//   - /llm: async generation and expansion, topic suggestions, usage stats
//   - /tasks: polling for async jobs
//   - /health: liveness plus a storage ping
//
// Errors are answered as a JSON envelope {detail, code}; the status comes
// from the error's code via [errors.HTTPStatus].
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/pengpongpang/deepbrain/internal/auth"
	"github.com/pengpongpang/deepbrain/internal/llm"
	"github.com/pengpongpang/deepbrain/internal/store"
	"github.com/pengpongpang/deepbrain/internal/task"
	"github.com/pengpongpang/deepbrain/pkg/cache"
	"github.com/pengpongpang/deepbrain/pkg/forest/layout"
)

// Default HTTP timeouts. Generation runs async, so nothing the server
// handles directly should take longer than these.
const (
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	// Store persists users, mindmaps, and tasks.
	Store store.Store

	// Auth issues and verifies access tokens.
	Auth *auth.Manager

	// Tasks schedules async LLM jobs.
	Tasks *task.Manager

	// LLM serves the synchronous endpoints (topic suggestions).
	LLM llm.Client

	// Layout parameterizes the engine runs behind the node-level
	// mutation endpoints.
	Layout layout.Options

	// Cache stores rendered SVG artifacts. Nil disables artifact
	// caching.
	Cache cache.Cache

	// Logger receives one line per request. Nil means silent.
	Logger *log.Logger
}

// Server is the Deep Brain HTTP API.
type Server struct {
	store  store.Store
	auth   *auth.Manager
	tasks  *task.Manager
	llm    llm.Client
	layout layout.Options
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// New creates a server. Layout options are validated once here.
func New(opts Options) (*Server, error) {
	if err := opts.Layout.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	return &Server{
		store:  opts.Store,
		auth:   opts.Auth,
		tasks:  opts.Tasks,
		llm:    opts.LLM,
		layout: opts.Layout,
		cache:  opts.Cache,
		keyer:  cache.NewDefaultKeyer(),
		logger: opts.Logger,
	}, nil
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(recoverer(s.logger))
	r.Use(requestLogger(s.logger))
	r.Use(cors)

	authed := auth.Middleware(s.auth, s.store.Users())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Group(func(r chi.Router) {
				r.Use(authed)
				r.Get("/me", s.handleMe)
				r.Put("/me", s.handleUpdateMe)
			})
		})

		r.Route("/mindmaps", func(r chi.Router) {
			r.Route("/public", func(r chi.Router) {
				r.Get("/search", s.handleSearchPublic)
			})

			r.Group(func(r chi.Router) {
				r.Use(authed)
				r.Get("/", s.handleListMindmaps)
				r.Post("/", s.handleCreateMindmap)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetMindmap)
					r.Put("/", s.handleUpdateMindmap)
					r.Delete("/", s.handleDeleteMindmap)
					r.Get("/render.svg", s.handleRenderMindmap)
					r.Post("/reorder", s.handleReorderSiblings)

					r.Route("/nodes", func(r chi.Router) {
						r.Post("/", s.handleAddNode)
						r.Patch("/{nodeID}", s.handleUpdateNode)
						r.Delete("/{nodeID}", s.handleDeleteNode)
						r.Post("/{nodeID}/move", s.handleMoveNode)
						r.Post("/{nodeID}/collapse", s.handleToggleCollapse)
					})
				})
			})
		})

		r.Route("/llm", func(r chi.Router) {
			r.Use(authed)
			r.Post("/generate-mindmap", s.handleGenerateMindmap)
			r.Post("/expand-node", s.handleExpandNode)
			r.Post("/suggest-topics", s.handleSuggestTopics)
			r.Get("/usage-stats", s.handleUsageStats)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(authed)
			r.Get("/", s.handleListTasks)
			r.Get("/{id}", s.handleGetTask)
			r.Delete("/{id}", s.handleDeleteTask)
		})
	})

	return r
}

// ListenAndServe runs the API on addr until ctx is cancelled, then shuts
// down gracefully: the listener closes, in-flight requests get
// defaultShutdownTimeout to finish, and the task manager drains.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if s.tasks != nil {
		if err := s.tasks.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("task manager shutdown", "error", err)
		}
	}
	return nil
}
