package server

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pengpongpang/deepbrain/internal/auth"
	"github.com/pengpongpang/deepbrain/internal/store"
	"github.com/pengpongpang/deepbrain/pkg/cache"
	"github.com/pengpongpang/deepbrain/pkg/engine"
	"github.com/pengpongpang/deepbrain/pkg/errors"
	"github.com/pengpongpang/deepbrain/pkg/forest"
	"github.com/pengpongpang/deepbrain/pkg/forest/layout"
	"github.com/pengpongpang/deepbrain/pkg/mindmap"
	"github.com/pengpongpang/deepbrain/pkg/render"
)

// Listing bounds, matching the limits the original API enforced.
const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// artifactTTL bounds cached rendered SVGs. Version is part of the cache
// key, so stale artifacts are only ever a space concern, not a
// correctness one.
const artifactTTL = 24 * time.Hour

// =============================================================================
// Document CRUD
// =============================================================================

func (s *Server) handleListMindmaps(w http.ResponseWriter, r *http.Request) {
	u := auth.FromContext(r.Context())
	skip := queryInt(r, "skip", 0, 0, 1<<31)
	limit := queryInt(r, "limit", defaultListLimit, 1, maxListLimit)

	docs, err := s.store.Mindmaps().ListByUser(r.Context(), u.ID, skip, limit)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeStorage, err, "Storage operation failed"))
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleCreateMindmap(w http.ResponseWriter, r *http.Request) {
	var doc mindmap.Document
	if err := decode(r, &doc); err != nil {
		writeError(w, err)
		return
	}
	doc.Normalize()
	if err := doc.Validate(); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidDocument, err, "Invalid mindmap"))
		return
	}

	doc.ID = ""
	doc.UserID = auth.FromContext(r.Context()).ID
	doc.Version = 0
	if err := s.store.Mindmaps().Create(r.Context(), &doc); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeStorage, err, "Storage operation failed"))
		return
	}
	writeJSON(w, http.StatusCreated, &doc)
}

func (s *Server) handleGetMindmap(w http.ResponseWriter, r *http.Request) {
	doc, err := s.loadReadable(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateMindmap(w http.ResponseWriter, r *http.Request) {
	owned, err := s.loadOwned(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var doc mindmap.Document
	if err := decode(r, &doc); err != nil {
		writeError(w, err)
		return
	}
	doc.Normalize()
	if err := doc.Validate(); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidDocument, err, "Invalid mindmap"))
		return
	}

	// Identity and ownership are never caller-writable.
	doc.ID = owned.ID
	doc.UserID = owned.UserID
	doc.CreatedAt = owned.CreatedAt
	doc.Version = owned.Version

	if err := s.store.Mindmaps().Update(r.Context(), &doc); err != nil {
		writeError(w, mapStoreErr(err, errors.ErrCodeMindmapNotFound, "Mindmap not found"))
		return
	}
	writeJSON(w, http.StatusOK, &doc)
}

func (s *Server) handleDeleteMindmap(w http.ResponseWriter, r *http.Request) {
	u := auth.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.store.Mindmaps().Delete(r.Context(), id, u.ID); err != nil {
		writeError(w, mapStoreErr(err, errors.ErrCodeMindmapNotFound, "Mindmap not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Mindmap deleted successfully"})
}

func (s *Server) handleSearchPublic(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "Query parameter q is required"))
		return
	}
	limit := queryInt(r, "limit", defaultListLimit, 1, maxListLimit)

	docs, err := s.store.Mindmaps().SearchPublic(r.Context(), q, limit)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeStorage, err, "Storage operation failed"))
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// =============================================================================
// Node-Level Mutations
// =============================================================================

// snapshotResponse is the body every node-level mutation returns: the
// persisted document version plus the visible projection after layout,
// annotated the way the canvas renders it.
type snapshotResponse struct {
	MindmapID string         `json:"mindmap_id"`
	Version   int            `json:"version"`
	Nodes     []mindmap.Node `json:"nodes"`
	Edges     []mindmap.Edge `json:"edges"`
}

// addNodeRequest is the body of POST /api/mindmaps/{id}/nodes.
type addNodeRequest struct {
	ParentID    string `json:"parent_id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := errors.ValidateNodeLabel(req.Label); err != nil {
		writeError(w, err)
		return
	}

	s.mutateDocument(w, r, func(eng *engine.Engine) error {
		n := forest.Node{
			ID:          mindmap.NewNodeID(),
			Label:       req.Label,
			Description: req.Description,
		}
		_, err := eng.AddNode(n, req.ParentID)
		return err
	})
}

// updateNodeRequest is the body of PATCH /api/mindmaps/{id}/nodes/{nodeID}.
// Absent fields stay untouched; position writes are drag previews the next
// layout pass overwrites.
type updateNodeRequest struct {
	Label       *string           `json:"label,omitempty"`
	Description *string           `json:"description,omitempty"`
	Position    *mindmap.Position `json:"position,omitempty"`
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	var req updateNodeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Label != nil {
		if err := errors.ValidateNodeLabel(*req.Label); err != nil {
			writeError(w, err)
			return
		}
	}

	s.mutateDocument(w, r, func(eng *engine.Engine) error {
		p := forest.Patch{Label: req.Label, Description: req.Description}
		if req.Position != nil {
			p.Position = &forest.Position{X: req.Position.X, Y: req.Position.Y}
		}
		_, err := eng.UpdateNode(nodeID, p)
		return err
	})
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	s.mutateDocument(w, r, func(eng *engine.Engine) error {
		// Cascade delete of an absent node is already satisfied.
		eng.DeleteNode(nodeID)
		return nil
	})
}

// moveNodeRequest is the body of POST .../nodes/{nodeID}/move.
type moveNodeRequest struct {
	NewParentID string `json:"new_parent_id"`
}

func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	var req moveNodeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.mutateDocument(w, r, func(eng *engine.Engine) error {
		_, err := eng.MoveNode(nodeID, req.NewParentID)
		return err
	})
}

func (s *Server) handleToggleCollapse(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	s.mutateDocument(w, r, func(eng *engine.Engine) error {
		_, err := eng.ToggleCollapse(nodeID)
		return err
	})
}

// reorderRequest is the body of POST /api/mindmaps/{id}/reorder.
type reorderRequest struct {
	ParentID   string   `json:"parent_id"`
	OrderedIDs []string `json:"ordered_ids"`
}

func (s *Server) handleReorderSiblings(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.mutateDocument(w, r, func(eng *engine.Engine) error {
		_, err := eng.ReorderSiblings(req.ParentID, req.OrderedIDs)
		return err
	})
}

// mutateDocument is the shared node-mutation path: load the owned
// document, rebuild a live engine from it, apply one mutation, persist
// the raw forest, and answer with the published visible snapshot. A
// rejected mutation persists nothing.
func (s *Server) mutateDocument(w http.ResponseWriter, r *http.Request, fn func(*engine.Engine) error) {
	doc, err := s.loadOwned(r)
	if err != nil {
		writeError(w, err)
		return
	}

	eng, err := s.documentEngine(doc)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := fn(eng); err != nil {
		writeError(w, mapForestErr(err))
		return
	}

	doc.SetRaw(eng.Raw())
	if err := s.store.Mindmaps().Update(r.Context(), doc); err != nil {
		writeError(w, mapStoreErr(err, errors.ErrCodeMindmapNotFound, "Mindmap not found"))
		return
	}

	snap := eng.Snapshot()
	nodes, edges := mindmap.FromVisible(snap.Nodes, snap.Edges)
	writeJSON(w, http.StatusOK, snapshotResponse{
		MindmapID: doc.ID,
		Version:   doc.Version,
		Nodes:     nodes,
		Edges:     edges,
	})
}

// documentEngine builds a live engine holding the document's forest with
// its collapse state restored.
func (s *Server) documentEngine(doc *mindmap.Document) (*engine.Engine, error) {
	f, err := doc.Forest()
	if err != nil {
		return nil, mapForestErr(err)
	}

	opts := s.layout
	opts.Direction = layout.ParseDirection(doc.Layout)

	eng, err := engine.New(engine.Options{Layout: opts, Logger: s.logger})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "Engine initialization failed")
	}
	if _, err := eng.Initialize(f.Nodes(), f.Edges(), false); err != nil {
		return nil, mapForestErr(err)
	}
	eng.RestoreCollapse(doc.Collapsed)
	return eng, nil
}

// =============================================================================
// Rendering
// =============================================================================

func (s *Server) handleRenderMindmap(w http.ResponseWriter, r *http.Request) {
	doc, err := s.loadReadable(r)
	if err != nil {
		writeError(w, err)
		return
	}

	key := s.keyer.ArtifactKey(
		fmt.Sprintf("%s:%d", doc.ID, doc.Version),
		cache.ArtifactKeyOpts{Format: "svg", Layout: doc.Layout},
	)
	if svg, ok, _ := s.cache.Get(r.Context(), key); ok {
		writeSVG(w, svg)
		return
	}

	eng, err := s.documentEngine(doc)
	if err != nil {
		writeError(w, err)
		return
	}

	svg := render.SVG(eng.Snapshot(), render.Options{Background: "#ffffff"})
	if err := s.cache.Set(r.Context(), key, svg, artifactTTL); err != nil {
		s.logger.Warn("caching rendered artifact", "mindmap", doc.ID, "error", err)
	}
	writeSVG(w, svg)
}

func writeSVG(w http.ResponseWriter, svg []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// =============================================================================
// Loading Helpers
// =============================================================================

// loadOwned returns the document from the id route parameter if the
// authenticated user owns it. Foreign documents answer 404, not 403, so
// ids are not probeable.
func (s *Server) loadOwned(r *http.Request) (*mindmap.Document, error) {
	doc, err := s.load(r)
	if err != nil {
		return nil, err
	}
	if doc.UserID != auth.FromContext(r.Context()).ID {
		return nil, errors.New(errors.ErrCodeMindmapNotFound, "Mindmap not found")
	}
	return doc, nil
}

// loadReadable returns the document if the user owns it or it is public.
func (s *Server) loadReadable(r *http.Request) (*mindmap.Document, error) {
	doc, err := s.load(r)
	if err != nil {
		return nil, err
	}
	if !doc.IsPublic && doc.UserID != auth.FromContext(r.Context()).ID {
		return nil, errors.New(errors.ErrCodeMindmapNotFound, "Mindmap not found")
	}
	return doc, nil
}

func (s *Server) load(r *http.Request) (*mindmap.Document, error) {
	doc, err := s.store.Mindmaps().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.New(errors.ErrCodeMindmapNotFound, "Mindmap not found")
		}
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "Storage operation failed")
	}
	return doc, nil
}
