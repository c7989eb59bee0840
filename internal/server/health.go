package server

import (
	"context"
	"net/http"
	"time"

	"github.com/pengpongpang/deepbrain/pkg/buildinfo"
)

// healthTimeout bounds the storage ping so a hung backend degrades the
// health report instead of the endpoint.
const healthTimeout = 2 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status, overall, storage := http.StatusOK, "healthy", "ok"
	if err := s.store.Ping(ctx); err != nil {
		status, overall, storage = http.StatusServiceUnavailable, "degraded", "unreachable"
	}

	writeJSON(w, status, map[string]any{
		"status":  overall,
		"storage": storage,
		"version": buildinfo.Version,
	})
}
