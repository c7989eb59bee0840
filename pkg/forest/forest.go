package forest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Position is a 2D canvas coordinate. Positions are owned by the layout
// pass; callers only write them directly for transient drag previews, and
// the next layout overwrites them.
type Position struct {
	X float64
	Y float64
}

// Node is a single mindmap node as stored by the Forest.
//
// ParentID is the authoritative structural link: the parent edge, the Level
// field, and sibling ordering are all derived from it and kept in sync by
// the mutation methods. The root is the only node with an empty ParentID.
type Node struct {
	ID          string
	ParentID    string
	Label       string
	Description string
	Level       int
	Order       int
	IsRoot      bool
	Position    Position
}

// Edge links a parent node (Source) to one of its children (Target). Every
// non-root node has exactly one incoming edge; edges carry their own IDs so
// persisted documents keep stable edge identities across loads.
type Edge struct {
	ID     string
	Source string
	Target string
}

// Patch describes a partial node update. Nil fields are left untouched.
// Setting ParentID reparents the node through the same checked path as
// [Forest.MoveNode], so a patch can never create a cycle.
type Patch struct {
	Label       *string
	Description *string
	Position    *Position
	ParentID    *string
}

// Forest is a mutable rooted forest of mindmap nodes plus the collapse set.
//
// In every valid steady state the forest is a single tree: exactly one node
// has an empty ParentID. [Forest.Init] also tolerates degraded snapshots
// (orphan subtrees, missing root) so that a momentarily inconsistent
// document cannot take the editor down; such snapshots only disable layout
// until the next consistent Init.
//
// A Forest is not safe for concurrent use. The engine facade serializes
// access; standalone callers must do the same.
type Forest struct {
	nodes     map[string]*Node
	edges     map[string]Edge     // keyed by target node ID
	children  map[string][]string // parent ID -> child IDs, unsorted
	collapsed map[string]bool
}

// New creates an empty forest.
func New() *Forest {
	return &Forest{
		nodes:     make(map[string]*Node),
		edges:     make(map[string]Edge),
		children:  make(map[string][]string),
		collapsed: make(map[string]bool),
	}
}

// =============================================================================
// Initialization
// =============================================================================

// Init replaces the entire forest with the given snapshot.
//
// ParentID is authoritative: edges are resynced against parent links. An
// edge matching a node's parent link keeps its ID, a missing edge is created
// with a fresh UUID, and edges that match no parent link are dropped. Node
// levels are recomputed from the parent chain wherever the chain resolves.
//
// With preserveCollapse, collapse entries are kept for IDs that survive the
// swap; otherwise the collapse set is cleared.
//
// Hard violations are rejected before any state changes: a duplicate node or
// edge ID ([ErrDuplicateID]) and a cycle in the parent links
// ([ErrCyclicReparent]). A snapshot with orphan parent references or no
// locatable root is accepted as-is; it renders nothing and keeps positions
// until a consistent snapshot arrives.
func (f *Forest) Init(nodes []Node, edges []Edge, preserveCollapse bool) error {
	staged := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		if strings.TrimSpace(n.ID) == "" {
			return fmt.Errorf("node with empty ID: %w", ErrMalformedForest)
		}
		if _, ok := staged[n.ID]; ok {
			return fmt.Errorf("node %q: %w", n.ID, ErrDuplicateID)
		}
		node := n
		staged[n.ID] = &node
	}

	if err := checkParentCycles(staged); err != nil {
		return err
	}

	byTarget := make(map[string]Edge, len(edges))
	seenEdgeIDs := make(map[string]bool, len(edges))
	for _, e := range edges {
		if e.ID != "" && seenEdgeIDs[e.ID] {
			return fmt.Errorf("edge %q: %w", e.ID, ErrDuplicateID)
		}
		seenEdgeIDs[e.ID] = true
		byTarget[e.Target] = e
	}

	// Point of no return: rebuild derived state from the staged nodes.
	f.nodes = staged
	f.edges = make(map[string]Edge, len(staged))
	f.children = make(map[string][]string, len(staged))
	for id, n := range staged {
		if n.ParentID == "" {
			continue
		}
		f.children[n.ParentID] = append(f.children[n.ParentID], id)
		if e, ok := byTarget[id]; ok && e.Source == n.ParentID {
			if e.ID == "" {
				e.ID = uuid.NewString()
			}
			f.edges[id] = e
		} else {
			f.edges[id] = Edge{ID: uuid.NewString(), Source: n.ParentID, Target: id}
		}
	}
	f.recomputeLevels()

	if preserveCollapse {
		kept := make(map[string]bool, len(f.collapsed))
		for id := range f.collapsed {
			if _, ok := f.nodes[id]; ok {
				kept[id] = true
			}
		}
		f.collapsed = kept
	} else {
		f.collapsed = make(map[string]bool)
	}
	return nil
}

// checkParentCycles rejects snapshots whose parent links loop. Chains that
// leave the snapshot (orphan references) terminate the walk and are allowed.
func checkParentCycles(nodes map[string]*Node) error {
	// 0 = unvisited, 1 = on current chain, 2 = proven terminating.
	state := make(map[string]int, len(nodes))
	for id := range nodes {
		chain := make([]string, 0, 8)
		cur := id
		for {
			if cur == "" {
				break
			}
			n, ok := nodes[cur]
			if !ok {
				break
			}
			switch state[cur] {
			case 1:
				return fmt.Errorf("parent chain of %q loops at %q: %w", id, cur, ErrCyclicReparent)
			case 2:
				cur = ""
				continue
			}
			state[cur] = 1
			chain = append(chain, cur)
			cur = n.ParentID
		}
		for _, c := range chain {
			state[c] = 2
		}
	}
	return nil
}

// recomputeLevels rederives Level from the parent chain for every node whose
// chain resolves inside the forest. Orphan subtrees keep the levels they
// arrived with, since their true depth is unknowable.
func (f *Forest) recomputeLevels() {
	memo := make(map[string]int, len(f.nodes))
	var depth func(id string) (int, bool)
	depth = func(id string) (int, bool) {
		if d, ok := memo[id]; ok {
			return d, d >= 0
		}
		n := f.nodes[id]
		if n.ParentID == "" {
			memo[id] = 0
			return 0, true
		}
		if _, ok := f.nodes[n.ParentID]; !ok {
			memo[id] = -1
			return 0, false
		}
		pd, ok := depth(n.ParentID)
		if !ok {
			memo[id] = -1
			return 0, false
		}
		memo[id] = pd + 1
		return pd + 1, true
	}
	for id, n := range f.nodes {
		if d, ok := depth(id); ok {
			n.Level = d
			n.IsRoot = n.ParentID == ""
		}
	}
}

// =============================================================================
// Mutations
// =============================================================================

// AddNode appends a node under parentID and creates the parent edge. The
// node's Level becomes parent.Level+1 and its Order is appended after the
// current siblings. A collapsed parent is expanded so the inserted node is
// immediately visible.
//
// An empty parentID creates the root and is only valid while no root exists;
// otherwise [ErrInvalidParent] is returned. Returns [ErrDuplicateID] when
// the node ID is already taken. An empty node ID is replaced with a fresh
// UUID.
func (f *Forest) AddNode(n Node, parentID string) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if _, ok := f.nodes[n.ID]; ok {
		return fmt.Errorf("node %q: %w", n.ID, ErrDuplicateID)
	}

	if parentID == "" {
		if _, ok := f.Root(); ok {
			return fmt.Errorf("root already exists: %w", ErrInvalidParent)
		}
		n.ParentID = ""
		n.Level = 0
		n.Order = 0
		n.IsRoot = true
		f.nodes[n.ID] = &n
		return nil
	}

	parent, ok := f.nodes[parentID]
	if !ok {
		return fmt.Errorf("parent %q: %w", parentID, ErrInvalidParent)
	}

	n.ParentID = parentID
	n.Level = parent.Level + 1
	n.Order = f.nextOrder(parentID)
	n.IsRoot = false
	f.nodes[n.ID] = &n
	f.children[parentID] = append(f.children[parentID], n.ID)
	f.edges[n.ID] = Edge{ID: uuid.NewString(), Source: parentID, Target: n.ID}
	delete(f.collapsed, parentID)
	return nil
}

// UpdateNode merges the patch into the node. Structural fields are never
// touched unless the patch explicitly carries them: a ParentID in the patch
// goes through [Forest.MoveNode] with all of its checks. Returns
// [ErrNodeNotFound] when the ID does not resolve.
func (f *Forest) UpdateNode(id string, p Patch) error {
	n, ok := f.nodes[id]
	if !ok {
		return fmt.Errorf("node %q: %w", id, ErrNodeNotFound)
	}
	if p.ParentID != nil && *p.ParentID != n.ParentID {
		if err := f.MoveNode(id, *p.ParentID); err != nil {
			return err
		}
	}
	if p.Label != nil {
		n.Label = *p.Label
	}
	if p.Description != nil {
		n.Description = *p.Description
	}
	if p.Position != nil {
		n.Position = *p.Position
	}
	return nil
}

// DeleteNode removes the node, its entire subtree, every incident edge, and
// all collapse entries for removed nodes. A missing ID is a silent no-op:
// the deletion is already satisfied. Deleting the root empties the forest.
func (f *Forest) DeleteNode(id string) {
	if _, ok := f.nodes[id]; !ok {
		return
	}
	doomed := f.subtreeIDs(id)
	for _, nid := range doomed {
		n := f.nodes[nid]
		if n.ParentID != "" {
			f.removeChild(n.ParentID, nid)
		}
		delete(f.nodes, nid)
		delete(f.edges, nid)
		delete(f.children, nid)
		delete(f.collapsed, nid)
	}
}

// MoveNode reparents a node under newParentID, replaces its parent edge,
// appends it to the new sibling list, and recomputes Level for the node and
// its whole subtree.
//
// The cycle check walks the parent chain upward from newParentID; if the
// walk reaches the node being moved the call fails with [ErrCyclicReparent].
// This covers newParentID == id, any descendant of id, and (because every
// node descends from the root) any attempt to reparent the root itself.
func (f *Forest) MoveNode(id, newParentID string) error {
	n, ok := f.nodes[id]
	if !ok {
		return fmt.Errorf("node %q: %w", id, ErrNodeNotFound)
	}
	parent, ok := f.nodes[newParentID]
	if !ok {
		return fmt.Errorf("parent %q: %w", newParentID, ErrInvalidParent)
	}

	for cur := newParentID; cur != ""; {
		if cur == id {
			return fmt.Errorf("node %q cannot adopt its own ancestor chain: %w", newParentID, ErrCyclicReparent)
		}
		p, ok := f.nodes[cur]
		if !ok {
			break
		}
		cur = p.ParentID
	}

	if n.ParentID == newParentID {
		return nil
	}

	if n.ParentID != "" {
		f.removeChild(n.ParentID, id)
	}
	n.ParentID = newParentID
	n.Order = f.nextOrder(newParentID)
	n.IsRoot = false
	f.children[newParentID] = append(f.children[newParentID], id)
	f.edges[id] = Edge{ID: uuid.NewString(), Source: newParentID, Target: id}

	delta := parent.Level + 1 - n.Level
	for _, sid := range f.subtreeIDs(id) {
		f.nodes[sid].Level += delta
	}
	return nil
}

// ReorderSiblings rewrites the sibling order under parentID. orderedIDs must
// contain exactly the current children (same members, any permutation);
// anything else fails with [ErrSiblingSetMismatch]. On success each child's
// Order becomes its index in orderedIDs, so re-submitting the current order
// is idempotent.
func (f *Forest) ReorderSiblings(parentID string, orderedIDs []string) error {
	if _, ok := f.nodes[parentID]; !ok {
		return fmt.Errorf("parent %q: %w", parentID, ErrNodeNotFound)
	}
	current := f.children[parentID]
	if len(orderedIDs) != len(current) {
		return fmt.Errorf("got %d ids, parent has %d children: %w", len(orderedIDs), len(current), ErrSiblingSetMismatch)
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		n, ok := f.nodes[id]
		if !ok || n.ParentID != parentID {
			return fmt.Errorf("node %q is not a child of %q: %w", id, parentID, ErrSiblingSetMismatch)
		}
		if seen[id] {
			return fmt.Errorf("node %q listed twice: %w", id, ErrSiblingSetMismatch)
		}
		seen[id] = true
	}
	for i, id := range orderedIDs {
		f.nodes[id].Order = i
	}
	return nil
}

// ApplyPositions writes layout output back onto the nodes. IDs not present
// in the forest are skipped. Only Position changes; the structural fields
// are untouched, so this is safe to call with the result of any layout pass.
func (f *Forest) ApplyPositions(positions map[string]Position) {
	for id, pos := range positions {
		if n, ok := f.nodes[id]; ok {
			n.Position = pos
		}
	}
}

// ToggleCollapse flips the collapse entry for the node. The first toggle
// creates the entry; the second removes it. Returns [ErrNodeNotFound] for
// unknown IDs, which keeps the collapse set free of stale entries.
func (f *Forest) ToggleCollapse(id string) error {
	if _, ok := f.nodes[id]; !ok {
		return fmt.Errorf("node %q: %w", id, ErrNodeNotFound)
	}
	if f.collapsed[id] {
		delete(f.collapsed, id)
	} else {
		f.collapsed[id] = true
	}
	return nil
}

// RestoreCollapse replaces the collapse set wholesale, typically from a
// persisted document. Unknown IDs are dropped rather than rejected so sets
// written before a deletion still load.
func (f *Forest) RestoreCollapse(ids []string) {
	next := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := f.nodes[id]; ok {
			next[id] = true
		}
	}
	f.collapsed = next
}

// =============================================================================
// Accessors
// =============================================================================

// Node returns a copy of the node with the given ID.
func (f *Forest) Node(id string) (Node, bool) {
	n, ok := f.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns copies of all nodes sorted by ID for deterministic output.
func (f *Forest) Nodes() []Node {
	out := make([]Node, 0, len(f.nodes))
	for _, id := range f.sortedIDs() {
		out = append(out, *f.nodes[id])
	}
	return out
}

// Edges returns copies of all edges sorted by target ID.
func (f *Forest) Edges() []Edge {
	targets := make([]string, 0, len(f.edges))
	for t := range f.edges {
		targets = append(targets, t)
	}
	slices.Sort(targets)
	out := make([]Edge, 0, len(targets))
	for _, t := range targets {
		out = append(out, f.edges[t])
	}
	return out
}

// Collapsed returns the sorted IDs currently in the collapse set.
func (f *Forest) Collapsed() []string {
	out := make([]string, 0, len(f.collapsed))
	for id := range f.collapsed {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// IsCollapsed reports whether the node itself carries a collapse entry.
// It says nothing about visibility; see [Forest.VisibleNodes] for that.
func (f *Forest) IsCollapsed(id string) bool {
	return f.collapsed[id]
}

// Children returns the node's child IDs sorted by Order (ID as tiebreak).
func (f *Forest) Children(id string) []string {
	kids := slices.Clone(f.children[id])
	slices.SortFunc(kids, func(a, b string) int {
		na, nb := f.nodes[a], f.nodes[b]
		if na.Order != nb.Order {
			return na.Order - nb.Order
		}
		return strings.Compare(a, b)
	})
	return kids
}

// HasChildren reports whether the node has at least one child.
func (f *Forest) HasChildren(id string) bool {
	return len(f.children[id]) > 0
}

// Root locates the root node: the first node (by ID order) flagged IsRoot,
// else the first with Level 0, else the first with an empty ParentID. The
// bool is false when no candidate exists, which marks the forest malformed
// for layout purposes.
func (f *Forest) Root() (Node, bool) {
	ids := f.sortedIDs()
	for _, pick := range []func(*Node) bool{
		func(n *Node) bool { return n.IsRoot },
		func(n *Node) bool { return n.Level == 0 },
		func(n *Node) bool { return n.ParentID == "" },
	} {
		for _, id := range ids {
			if pick(f.nodes[id]) {
				return *f.nodes[id], true
			}
		}
	}
	return Node{}, false
}

// Len returns the number of nodes in the forest.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// =============================================================================
// Internal helpers
// =============================================================================

// subtreeIDs collects id and all its descendants, parents before children.
func (f *Forest) subtreeIDs(id string) []string {
	out := make([]string, 0, 8)
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)
		queue = append(queue, f.Children(cur)...)
	}
	return out
}

// nextOrder returns max(sibling orders)+1, or 0 for the first child.
func (f *Forest) nextOrder(parentID string) int {
	next := 0
	for _, cid := range f.children[parentID] {
		if o := f.nodes[cid].Order; o >= next {
			next = o + 1
		}
	}
	return next
}

func (f *Forest) removeChild(parentID, id string) {
	kids := f.children[parentID]
	kids = slices.DeleteFunc(kids, func(c string) bool { return c == id })
	if len(kids) == 0 {
		delete(f.children, parentID)
	} else {
		f.children[parentID] = kids
	}
}

func (f *Forest) sortedIDs() []string {
	ids := make([]string, 0, len(f.nodes))
	for id := range f.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
