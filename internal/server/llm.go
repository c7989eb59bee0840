package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/pengpongpang/deepbrain/internal/auth"
	"github.com/pengpongpang/deepbrain/internal/llm"
	"github.com/pengpongpang/deepbrain/internal/task"
	"github.com/pengpongpang/deepbrain/pkg/errors"
)

// taskScheduledResponse is the body both async LLM endpoints return. The
// client polls /api/tasks/{task_id} until the task reaches a terminal
// status.
type taskScheduledResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

func (s *Server) handleGenerateMindmap(w http.ResponseWriter, r *http.Request) {
	var req llm.GenerateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	t, err := s.tasks.Generate(r.Context(), auth.FromContext(r.Context()).ID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, taskScheduledResponse{
		TaskID:  t.ID,
		Message: "Mindmap generation scheduled, poll the task for status",
	})
}

func (s *Server) handleExpandNode(w http.ResponseWriter, r *http.Request) {
	var in task.ExpandInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}

	t, err := s.tasks.Expand(r.Context(), auth.FromContext(r.Context()).ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, taskScheduledResponse{
		TaskID:  t.ID,
		Message: "Node expansion scheduled, poll the task for status",
	})
}

// suggestRequest is the body of POST /api/llm/suggest-topics. Suggestions
// are cheap enough to serve synchronously.
type suggestRequest struct {
	Query string `json:"query"`
}

type suggestResponse struct {
	Success     bool             `json:"success"`
	Suggestions []llm.Suggestion `json:"suggestions"`
	Query       string           `json:"query"`
}

func (s *Server) handleSuggestTopics(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "Query cannot be empty"))
		return
	}

	suggestions, err := s.llm.SuggestTopics(r.Context(), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestResponse{
		Success:     true,
		Suggestions: suggestions,
		Query:       req.Query,
	})
}

func (s *Server) handleUsageStats(w http.ResponseWriter, r *http.Request) {
	u := auth.FromContext(r.Context())

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	stats, err := s.store.Mindmaps().Stats(r.Context(), u.ID, monthStart)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeStorage, err, "Storage operation failed"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats": map[string]any{
			"total_mindmaps":   stats.Total,
			"monthly_mindmaps": stats.Monthly,
			"user_since":       u.CreatedAt.Format(time.RFC3339),
			"last_activity":    u.UpdatedAt.Format(time.RFC3339),
		},
	})
}
