package forest

// VisibleNode is a node as seen by the presentation layer, annotated with
// the two flags renderers need: whether children exist at all (to draw a
// collapse affordance) and whether they are currently hidden.
type VisibleNode struct {
	Node
	HasChildren bool
	Collapsed   bool
}

// VisibleNodes projects the forest through the collapse set.
//
// A node is visible iff none of its ancestors carries a collapse entry. A
// collapsed node is itself visible (its descendants are not), and the root
// is always visible.
//
// # Algorithm
//
// Depth-first walk from the root, visiting children sorted by Order with ID
// as tiebreak. The walk does not descend into collapsed nodes, so a node is
// emitted exactly when its whole ancestor chain is expanded. The result
// order is therefore deterministic for a given forest and collapse set:
// parents always precede children, siblings appear in Order.
//
// # Nil Handling
//
// A forest with no locatable root (degraded snapshot) projects to nil, as
// does an empty forest. Orphan subtrees are unreachable from the root and
// never appear.
func (f *Forest) VisibleNodes() []VisibleNode {
	root, ok := f.Root()
	if !ok {
		return nil
	}
	out := make([]VisibleNode, 0, len(f.nodes))
	var walk func(id string)
	walk = func(id string) {
		n := f.nodes[id]
		out = append(out, VisibleNode{
			Node:        *n,
			HasChildren: f.HasChildren(id),
			Collapsed:   f.collapsed[id],
		})
		if f.collapsed[id] {
			return
		}
		for _, cid := range f.Children(id) {
			walk(cid)
		}
	}
	walk(root.ID)
	return out
}

// VisibleEdges returns the edges whose endpoints are both visible, sorted
// by target ID. Since every edge points from a parent to its child, this is
// exactly the set of edges whose target is visible and whose source is not
// the hidden side of a collapse.
func (f *Forest) VisibleEdges() []Edge {
	visible := f.visibleSet()
	out := make([]Edge, 0, len(f.edges))
	for _, e := range f.Edges() {
		if visible[e.Source] && visible[e.Target] {
			out = append(out, e)
		}
	}
	return out
}

// IsVisible reports whether the node would appear in [Forest.VisibleNodes].
// Unknown IDs are not visible.
func (f *Forest) IsVisible(id string) bool {
	n, ok := f.nodes[id]
	if !ok {
		return false
	}
	root, ok := f.Root()
	if !ok {
		return false
	}
	if id == root.ID {
		return true
	}
	for cur := n.ParentID; cur != ""; {
		p, ok := f.nodes[cur]
		if !ok {
			return false
		}
		if f.collapsed[cur] {
			return false
		}
		if cur == root.ID {
			return true
		}
		cur = p.ParentID
	}
	// Chain ended without meeting the root: orphan subtree.
	return false
}

// visibleSet builds the visibility map in one walk from the root.
func (f *Forest) visibleSet() map[string]bool {
	set := make(map[string]bool, len(f.nodes))
	for _, vn := range f.VisibleNodes() {
		set[vn.ID] = true
	}
	return set
}
