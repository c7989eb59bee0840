package mindmap

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/pengpongpang/deepbrain/pkg/forest"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Node types recognized by the canvas frontend.
const (
	NodeTypeCustom  = "custom"
	NodeTypeDefault = "default"
)

// Edge types recognized by the canvas frontend.
const (
	EdgeTypeSmoothstep = "smoothstep"
	EdgeTypeDefault    = "default"
)

// Layout identifiers accepted in documents. Legacy aliases map onto the
// two supported directions when the layout engine parses them.
const (
	LayoutHorizontal   = "horizontal"
	LayoutRadial       = "radial"
	LayoutHierarchical = "hierarchical"
	LayoutForce        = "force"
)

// ThemeDefault is the theme applied when a document carries none.
const ThemeDefault = "default"

// Field limits enforced on create and update.
const (
	TitleMaxLen       = 200
	DescriptionMaxLen = 1000
)

// =============================================================================
// Document - Mindmap Serialization
// =============================================================================

// Document is the canonical serialization format for mindmaps. Used for API
// responses, storage, file import/export, and cross-tool compatibility.
//
// The node and edge shapes match what the canvas frontend produces, so a
// document round-trips client → API → storage → client without translation.
type Document struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID      string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Nodes       []Node    `json:"nodes" bson:"nodes"`
	Edges       []Edge    `json:"edges" bson:"edges"`
	Collapsed   []string  `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
	Layout      string    `json:"layout,omitempty" bson:"layout,omitempty"`
	Theme       string    `json:"theme,omitempty" bson:"theme,omitempty"`
	IsPublic    bool      `json:"is_public" bson:"is_public"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
	Version     int       `json:"version,omitempty" bson:"version,omitempty"`
}

// =============================================================================
// Node - Canvas Node Shape
// =============================================================================

// Node is the wire shape of a single mindmap node. ParentID, Level and Order
// mirror the hierarchy fields the store derives; Data carries the display
// payload the frontend reads.
type Node struct {
	ID       string         `json:"id" bson:"id"`
	Type     string         `json:"type,omitempty" bson:"type,omitempty"`
	Position Position       `json:"position" bson:"position"`
	Data     NodeData       `json:"data" bson:"data"`
	Style    map[string]any `json:"style,omitempty" bson:"style,omitempty"`
	ParentID string         `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Level    int            `json:"level" bson:"level"`
	Order    int            `json:"order" bson:"order"`
}

// NodeData is the display payload nested under a node. HasChildren and
// Collapsed are projection annotations: set on visible views, absent in
// stored documents.
type NodeData struct {
	Label       string `json:"label" bson:"label"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Level       int    `json:"level" bson:"level"`
	IsRoot      bool   `json:"isRoot,omitempty" bson:"isRoot,omitempty"`
	HasChildren bool   `json:"hasChildren,omitempty" bson:"hasChildren,omitempty"`
	Collapsed   bool   `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
}

// Position is a canvas coordinate pair.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Data.Label != "" {
		return n.Data.Label
	}
	return n.ID
}

// IsRoot reports whether the node is marked as the root.
func (n *Node) IsRoot() bool { return n.Data.IsRoot }

// =============================================================================
// Edge - Parent→Child Connection
// =============================================================================

// Edge represents a directed parent→child connection.
type Edge struct {
	ID       string         `json:"id" bson:"id"`
	Source   string         `json:"source" bson:"source"`
	Target   string         `json:"target" bson:"target"`
	Type     string         `json:"type,omitempty" bson:"type,omitempty"`
	Animated bool           `json:"animated,omitempty" bson:"animated,omitempty"`
	Style    map[string]any `json:"style,omitempty" bson:"style,omitempty"`
}

// =============================================================================
// Forest ↔ Document Conversion
// =============================================================================

// FromForest converts the full forest state to wire shapes, including nodes
// hidden by collapse. Nodes are sorted by ID for deterministic output, and
// styles are re-derived from the level palette.
func FromForest(f *forest.Forest) ([]Node, []Edge, []string) {
	return FromRaw(f.Nodes(), f.Edges(), f.Collapsed())
}

// FromRaw converts forest slices, as returned by the engine's Raw, to wire
// shapes. Edge styling follows the target node's level; styles are
// re-derived from the level palette.
func FromRaw(nodes []forest.Node, edges []forest.Edge, collapsed []string) ([]Node, []Edge, []string) {
	levels := make(map[string]int, len(nodes))
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = nodeFromForest(n)
		levels[n.ID] = n.Level
	}

	oe := make([]Edge, len(edges))
	for i, e := range edges {
		oe[i] = Edge{
			ID:       e.ID,
			Source:   e.Source,
			Target:   e.Target,
			Type:     EdgeTypeSmoothstep,
			Animated: true,
			Style:    EdgeStyle(max(levels[e.Target], 1)),
		}
	}

	return out, oe, collapsed
}

// FromVisible converts a visible projection to wire shapes, carrying the
// hasChildren and collapsed annotations the frontend renders. Order follows
// the projection (depth-first), not ID order.
func FromVisible(visible []forest.VisibleNode, visibleEdges []forest.Edge) ([]Node, []Edge) {
	levels := make(map[string]int, len(visible))
	nodes := make([]Node, len(visible))
	for i, v := range visible {
		n := nodeFromForest(v.Node)
		n.Data.HasChildren = v.HasChildren
		n.Data.Collapsed = v.Collapsed
		nodes[i] = n
		levels[v.ID] = v.Level
	}

	edges := make([]Edge, len(visibleEdges))
	for i, e := range visibleEdges {
		edges[i] = Edge{
			ID:       e.ID,
			Source:   e.Source,
			Target:   e.Target,
			Type:     EdgeTypeSmoothstep,
			Animated: true,
			Style:    EdgeStyle(max(levels[e.Target], 1)),
		}
	}

	return nodes, edges
}

// ToForest builds a forest from wire shapes. Structural corruption such as
// duplicate IDs or parent cycles is rejected; rootless or orphaned snapshots
// are accepted degraded, matching [forest.Forest.Init]. Collapse entries for
// unknown nodes are dropped.
func ToForest(nodes []Node, edges []Edge, collapsed []string) (*forest.Forest, error) {
	fn := make([]forest.Node, len(nodes))
	for i, n := range nodes {
		fn[i] = forest.Node{
			ID:          n.ID,
			ParentID:    n.ParentID,
			Label:       n.Data.Label,
			Description: n.Data.Description,
			Level:       n.Level,
			Order:       n.Order,
			IsRoot:      n.Data.IsRoot,
			Position:    forest.Position{X: n.Position.X, Y: n.Position.Y},
		}
	}

	fe := make([]forest.Edge, len(edges))
	for i, e := range edges {
		fe[i] = forest.Edge{ID: e.ID, Source: e.Source, Target: e.Target}
	}

	f := forest.New()
	if err := f.Init(fn, fe, false); err != nil {
		return nil, fmt.Errorf("build forest: %w", err)
	}
	f.RestoreCollapse(collapsed)
	return f, nil
}

// Forest builds the document's forest. See [ToForest] for error semantics.
func (d *Document) Forest() (*forest.Forest, error) {
	return ToForest(d.Nodes, d.Edges, d.Collapsed)
}

// SetForest replaces the document's nodes, edges and collapse set from the
// forest. Styles are re-derived, so per-node custom styles set by a wholesale
// client update survive only until the next node-level operation.
func (d *Document) SetForest(f *forest.Forest) {
	d.Nodes, d.Edges, d.Collapsed = FromForest(f)
}

// SetRaw replaces the document's nodes, edges and collapse set from forest
// slices. It accepts the engine's Raw output directly.
func (d *Document) SetRaw(nodes []forest.Node, edges []forest.Edge, collapsed []string) {
	d.Nodes, d.Edges, d.Collapsed = FromRaw(nodes, edges, collapsed)
}

// Clone returns a deep copy of the document. Style maps are cloned too, so
// neither copy observes the other's mutations.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Nodes = make([]Node, len(d.Nodes))
	for i, n := range d.Nodes {
		out.Nodes[i] = n
		out.Nodes[i].Style = maps.Clone(n.Style)
	}
	out.Edges = make([]Edge, len(d.Edges))
	for i, e := range d.Edges {
		out.Edges[i] = e
		out.Edges[i].Style = maps.Clone(e.Style)
	}
	out.Collapsed = slices.Clone(d.Collapsed)
	return &out
}

// =============================================================================
// Internal Helpers
// =============================================================================

// nodeFromForest converts a store node to its wire shape. This is the single
// point of conversion for all forest→Node operations. Projection annotations
// (hasChildren, collapsed) are left unset; [FromVisible] fills them.
func nodeFromForest(n forest.Node) Node {
	return Node{
		ID:   n.ID,
		Type: NodeTypeCustom,
		Position: Position{
			X: n.Position.X,
			Y: n.Position.Y,
		},
		Data: NodeData{
			Label:       n.Label,
			Description: n.Description,
			Level:       n.Level,
			IsRoot:      n.IsRoot,
		},
		Style:    NodeStyle(n.Level, n.IsRoot),
		ParentID: n.ParentID,
		Level:    n.Level,
		Order:    n.Order,
	}
}
