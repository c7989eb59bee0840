package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pengpongpang/deepbrain/internal/auth"
	"github.com/pengpongpang/deepbrain/internal/store"
	"github.com/pengpongpang/deepbrain/pkg/errors"
)

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	u := auth.FromContext(r.Context())

	t, err := s.store.Tasks().Get(r.Context(), chi.URLParam(r, "id"), u.ID)
	if err != nil {
		writeError(w, mapStoreErr(err, errors.ErrCodeTaskNotFound, "Task not found"))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	u := auth.FromContext(r.Context())
	skip := queryInt(r, "skip", 0, 0, 1<<31)
	limit := queryInt(r, "limit", defaultListLimit, 1, maxListLimit)

	status := store.TaskStatus(r.URL.Query().Get("status"))
	switch status {
	case "", store.StatusPending, store.StatusRunning, store.StatusCompleted, store.StatusFailed:
	default:
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "Unknown task status %q", status))
		return
	}

	tasks, err := s.store.Tasks().ListByUser(r.Context(), u.ID, status, skip, limit)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeStorage, err, "Storage operation failed"))
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	u := auth.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	t, err := s.store.Tasks().Get(r.Context(), id, u.ID)
	if err != nil {
		writeError(w, mapStoreErr(err, errors.ErrCodeTaskNotFound, "Task not found"))
		return
	}
	// A running worker still holds the record; only finished tasks can go.
	if !t.Status.Terminal() {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "Only completed or failed tasks can be deleted"))
		return
	}

	if err := s.store.Tasks().Delete(r.Context(), id, u.ID); err != nil {
		writeError(w, mapStoreErr(err, errors.ErrCodeTaskNotFound, "Task not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}
