package server

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/pengpongpang/deepbrain/pkg/mindmap"
)

func TestMindmapCRUD(t *testing.T) {
	h := newHarness(t, nil)

	create := map[string]any{
		"title": "Distributed Systems",
		"nodes": []map[string]any{
			{"id": "root", "data": map[string]any{"label": "Distributed Systems", "isRoot": true}},
		},
		"edges": []any{},
	}
	rec := h.do(t, http.MethodPost, "/api/mindmaps/", create, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d (body %s)", rec.Code, rec.Body.String())
	}
	created := decodeBody[mindmap.Document](t, rec)
	if created.ID == "" {
		t.Fatal("created document has no id")
	}
	if created.UserID != h.user.ID {
		t.Errorf("UserID = %q, want %q", created.UserID, h.user.ID)
	}
	if created.Version != 1 {
		t.Errorf("Version = %d, want 1", created.Version)
	}

	rec = h.do(t, http.MethodGet, mindmapPath(created.ID), nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/api/mindmaps/", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decodeBody[[]mindmap.Document](t, rec)
	if len(list) != 1 {
		t.Fatalf("list returned %d documents, want 1", len(list))
	}

	rec = h.do(t, http.MethodDelete, mindmapPath(created.ID), nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = h.do(t, http.MethodGet, mindmapPath(created.ID), nil, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestCreateMindmapRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"nodes": []any{}, "edges": []any{}}},
		{"oversized title", map[string]any{"title": strings.Repeat("x", 201)}},
		{
			"duplicate node ids",
			map[string]any{
				"title": "Broken",
				"nodes": []map[string]any{
					{"id": "n", "data": map[string]any{"label": "A", "isRoot": true}},
					{"id": "n", "parent_id": "n", "data": map[string]any{"label": "B"}},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			rec := h.do(t, http.MethodPost, "/api/mindmaps/", tt.body, true)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetMindmapVisibility(t *testing.T) {
	h := newHarness(t, nil)

	// A foreign private document answers 404; a foreign public one 200.
	private := &mindmap.Document{Title: "Private", UserID: "someone-else"}
	public := &mindmap.Document{Title: "Public", UserID: "someone-else", IsPublic: true}
	for _, doc := range []*mindmap.Document{private, public} {
		if err := h.store.Mindmaps().Create(context.Background(), doc); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if rec := h.do(t, http.MethodGet, mindmapPath(private.ID), nil, true); rec.Code != http.StatusNotFound {
		t.Errorf("private: status = %d, want 404", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, mindmapPath(public.ID), nil, true); rec.Code != http.StatusOK {
		t.Errorf("public: status = %d, want 200", rec.Code)
	}
}

func TestSearchPublic(t *testing.T) {
	h := newHarness(t, nil)

	doc := &mindmap.Document{Title: "Graph Algorithms", UserID: "someone-else", IsPublic: true}
	if err := h.store.Mindmaps().Create(context.Background(), doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rec := h.do(t, http.MethodGet, "/api/mindmaps/public/search?q=graph", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	got := decodeBody[[]mindmap.Document](t, rec)
	if len(got) != 1 || got[0].Title != "Graph Algorithms" {
		t.Errorf("search returned %+v, want the public document", got)
	}

	rec = h.do(t, http.MethodGet, "/api/mindmaps/public/search", nil, false)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing q: status = %d, want 400", rec.Code)
	}
}

func TestAddNode(t *testing.T) {
	h := newHarness(t, nil)
	doc := h.createMindmap(t)

	body := map[string]any{"parent_id": "a", "label": "A1"}
	rec := h.do(t, http.MethodPost, mindmapPath(doc.ID, "nodes"), body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}

	snap := decodeBody[snapshotResponse](t, rec)
	if snap.Version != doc.Version+1 {
		t.Errorf("Version = %d, want %d", snap.Version, doc.Version+1)
	}
	if len(snap.Nodes) != 4 {
		t.Fatalf("visible nodes = %d, want 4", len(snap.Nodes))
	}

	// The persisted document carries the new node too.
	stored, err := h.store.Mindmaps().Get(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(stored.Nodes) != 4 {
		t.Errorf("stored nodes = %d, want 4", len(stored.Nodes))
	}
}

func TestAddNodeInvalidParent(t *testing.T) {
	h := newHarness(t, nil)
	doc := h.createMindmap(t)

	body := map[string]any{"parent_id": "missing", "label": "X"}
	rec := h.do(t, http.MethodPost, mindmapPath(doc.ID, "nodes"), body, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	// Rejected mutations persist nothing.
	stored, err := h.store.Mindmaps().Get(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(stored.Nodes) != 3 {
		t.Errorf("stored nodes = %d, want 3 (unchanged)", len(stored.Nodes))
	}
	if stored.Version != doc.Version {
		t.Errorf("Version = %d, want %d (unchanged)", stored.Version, doc.Version)
	}
}

func TestDeleteNodeCascades(t *testing.T) {
	h := newHarness(t, nil)
	doc := h.createMindmap(t)

	// Grow a grandchild under A, then delete A.
	rec := h.do(t, http.MethodPost, mindmapPath(doc.ID, "nodes"), map[string]any{"parent_id": "a", "label": "A1"}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d", rec.Code)
	}

	rec = h.do(t, http.MethodDelete, mindmapPath(doc.ID, "nodes", "a"), nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	snap := decodeBody[snapshotResponse](t, rec)
	if len(snap.Nodes) != 2 {
		t.Errorf("visible nodes = %d, want 2 (root, b)", len(snap.Nodes))
	}
	for _, e := range snap.Edges {
		if e.Source == "a" || e.Target == "a" {
			t.Errorf("edge %q still references deleted node", e.ID)
		}
	}
}

func TestMoveNodeRejectsCycle(t *testing.T) {
	h := newHarness(t, nil)
	doc := h.createMindmap(t)

	rec := h.do(t, http.MethodPost, mindmapPath(doc.ID, "nodes", "root", "move"),
		map[string]any{"new_parent_id": "a"}, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodPost, mindmapPath(doc.ID, "nodes", "b", "move"),
		map[string]any{"new_parent_id": "a"}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid move status = %d (body %s)", rec.Code, rec.Body.String())
	}
}

func TestToggleCollapse(t *testing.T) {
	h := newHarness(t, nil)
	doc := h.createMindmap(t)

	// Add a child under A so collapsing A hides something.
	rec := h.do(t, http.MethodPost, mindmapPath(doc.ID, "nodes"), map[string]any{"parent_id": "a", "label": "A1"}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d", rec.Code)
	}

	rec = h.do(t, http.MethodPost, mindmapPath(doc.ID, "nodes", "a", "collapse"), nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("collapse status = %d", rec.Code)
	}
	snap := decodeBody[snapshotResponse](t, rec)
	if len(snap.Nodes) != 3 {
		t.Errorf("visible nodes = %d, want 3 (A1 hidden)", len(snap.Nodes))
	}
	for _, n := range snap.Nodes {
		if n.ID == "a" && !n.Data.Collapsed {
			t.Error("node a not annotated collapsed")
		}
	}

	// The collapse state round-trips through the stored document.
	stored, err := h.store.Mindmaps().Get(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(stored.Collapsed) != 1 || stored.Collapsed[0] != "a" {
		t.Errorf("stored Collapsed = %v, want [a]", stored.Collapsed)
	}
}

func TestReorderSiblings(t *testing.T) {
	h := newHarness(t, nil)
	doc := h.createMindmap(t)

	rec := h.do(t, http.MethodPost, mindmapPath(doc.ID, "reorder"),
		map[string]any{"parent_id": "root", "ordered_ids": []string{"b", "a"}}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	snap := decodeBody[snapshotResponse](t, rec)

	orders := map[string]int{}
	for _, n := range snap.Nodes {
		orders[n.ID] = n.Order
	}
	if orders["b"] != 0 || orders["a"] != 1 {
		t.Errorf("orders = b:%d a:%d, want b:0 a:1", orders["b"], orders["a"])
	}

	// A partial sibling list is rejected.
	rec = h.do(t, http.MethodPost, mindmapPath(doc.ID, "reorder"),
		map[string]any{"parent_id": "root", "ordered_ids": []string{"a"}}, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("partial set: status = %d, want 400", rec.Code)
	}
}

func TestNodeMutationForeignDocument(t *testing.T) {
	h := newHarness(t, nil)

	foreign := &mindmap.Document{Title: "Foreign", UserID: "someone-else", IsPublic: true}
	if err := h.store.Mindmaps().Create(context.Background(), foreign); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Public documents are readable but never mutable by non-owners.
	rec := h.do(t, http.MethodPost, mindmapPath(foreign.ID, "nodes"),
		map[string]any{"parent_id": "", "label": "X"}, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRenderMindmap(t *testing.T) {
	h := newHarness(t, nil)
	doc := h.createMindmap(t)

	rec := h.do(t, http.MethodGet, mindmapPath(doc.ID, "render.svg"), nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q, want image/svg+xml", ct)
	}
	svg := rec.Body.String()
	for _, label := range []string{"Root", "A", "B"} {
		if !strings.Contains(svg, label) {
			t.Errorf("rendered SVG missing label %q", label)
		}
	}
}

func TestListMindmapsPagination(t *testing.T) {
	h := newHarness(t, nil)
	for range 3 {
		h.createMindmap(t)
	}

	rec := h.do(t, http.MethodGet, "/api/mindmaps/?limit=2", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeBody[[]mindmap.Document](t, rec); len(got) != 2 {
		t.Errorf("limit=2 returned %d documents", len(got))
	}

	rec = h.do(t, http.MethodGet, "/api/mindmaps/?skip=2&limit=10", nil, true)
	if got := decodeBody[[]mindmap.Document](t, rec); len(got) != 1 {
		t.Errorf("skip=2 returned %d documents, want 1", len(got))
	}
}
