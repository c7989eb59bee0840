package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/pengpongpang/deepbrain/internal/store"
)

// seedTask persists a task owned by the harness user.
func (h *harness) seedTask(t *testing.T, status store.TaskStatus) *store.Task {
	t.Helper()
	tk := &store.Task{
		UserID: h.user.ID,
		Type:   store.TaskGenerateMindmap,
		Status: status,
	}
	if err := h.store.Tasks().Create(context.Background(), tk); err != nil {
		t.Fatalf("Create(task) error = %v", err)
	}
	if status != store.StatusPending {
		tk.Status = status
		if err := h.store.Tasks().Update(context.Background(), tk); err != nil {
			t.Fatalf("Update(task) error = %v", err)
		}
	}
	return tk
}

func TestGetTask(t *testing.T) {
	h := newHarness(t, nil)
	tk := h.seedTask(t, store.StatusPending)

	rec := h.do(t, http.MethodGet, "/api/tasks/"+tk.ID, nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeBody[store.Task](t, rec)
	if got.ID != tk.ID || got.Status != store.StatusPending {
		t.Errorf("task = %+v, want id %s pending", got, tk.ID)
	}

	rec = h.do(t, http.MethodGet, "/api/tasks/does-not-exist", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rec.Code)
	}
}

func TestListTasksFiltersByStatus(t *testing.T) {
	h := newHarness(t, nil)
	h.seedTask(t, store.StatusPending)
	h.seedTask(t, store.StatusCompleted)
	h.seedTask(t, store.StatusFailed)

	tests := []struct {
		name   string
		query  string
		want   int
		status int
	}{
		{"all", "", 3, http.StatusOK},
		{"completed only", "?status=completed", 1, http.StatusOK},
		{"failed only", "?status=failed", 1, http.StatusOK},
		{"unknown status", "?status=bogus", 0, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, http.MethodGet, "/api/tasks/"+tt.query, nil, true)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			if got := decodeBody[[]store.Task](t, rec); len(got) != tt.want {
				t.Errorf("returned %d tasks, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDeleteTask(t *testing.T) {
	h := newHarness(t, nil)
	running := h.seedTask(t, store.StatusRunning)
	finished := h.seedTask(t, store.StatusCompleted)

	rec := h.do(t, http.MethodDelete, "/api/tasks/"+running.ID, nil, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("running task: status = %d, want 400", rec.Code)
	}

	rec = h.do(t, http.MethodDelete, "/api/tasks/"+finished.ID, nil, true)
	if rec.Code != http.StatusOK {
		t.Errorf("finished task: status = %d, want 200", rec.Code)
	}
	if _, err := h.store.Tasks().Get(context.Background(), finished.ID, h.user.ID); err == nil {
		t.Error("deleted task still readable")
	}
}
