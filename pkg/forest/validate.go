package forest

import "fmt"

// Validate checks the structural invariants of a healthy forest and returns
// an error wrapping [ErrMalformedForest] describing the first violation.
//
// A valid non-empty forest has exactly one root, acyclic parent links that
// all terminate at that root, levels equal to ancestor counts, unique
// sibling orders, exactly one parent edge per non-root node, and a collapse
// set that only references live nodes. An empty forest is valid.
//
// Init tolerates some of these violations on purpose (orphan subtrees,
// missing root) so a degraded snapshot can be held without crashing; this
// method is how callers and tests tell a degraded forest from a healthy one.
func (f *Forest) Validate() error {
	if len(f.nodes) == 0 {
		return nil
	}

	roots := 0
	for _, id := range f.sortedIDs() {
		if f.nodes[id].ParentID == "" {
			roots++
		}
	}
	if roots != 1 {
		return fmt.Errorf("want exactly one root, have %d: %w", roots, ErrMalformedForest)
	}

	// Every parent chain must terminate at the root without revisiting a
	// node. Depth doubles as the invariant-4 check.
	for _, id := range f.sortedIDs() {
		n := f.nodes[id]
		depth := 0
		seen := map[string]bool{id: true}
		for cur := n.ParentID; cur != ""; {
			if seen[cur] {
				return fmt.Errorf("parent chain of %q loops at %q: %w", id, cur, ErrMalformedForest)
			}
			seen[cur] = true
			p, ok := f.nodes[cur]
			if !ok {
				return fmt.Errorf("node %q references missing parent %q: %w", id, cur, ErrMalformedForest)
			}
			depth++
			cur = p.ParentID
		}
		if n.Level != depth {
			return fmt.Errorf("node %q has level %d, want %d: %w", id, n.Level, depth, ErrMalformedForest)
		}
		if n.IsRoot != (n.ParentID == "") {
			return fmt.Errorf("node %q root flag disagrees with parent link: %w", id, ErrMalformedForest)
		}
	}

	for parentID := range f.children {
		orders := make(map[int]string)
		for _, cid := range f.children[parentID] {
			o := f.nodes[cid].Order
			if prev, dup := orders[o]; dup {
				return fmt.Errorf("children %q and %q of %q share order %d: %w", prev, cid, parentID, o, ErrMalformedForest)
			}
			orders[o] = cid
		}
	}

	edgeIDs := make(map[string]string, len(f.edges))
	for _, id := range f.sortedIDs() {
		n := f.nodes[id]
		e, ok := f.edges[id]
		if n.ParentID == "" {
			if ok {
				return fmt.Errorf("root %q has an incoming edge: %w", id, ErrMalformedForest)
			}
			continue
		}
		if !ok {
			return fmt.Errorf("node %q has no parent edge: %w", id, ErrMalformedForest)
		}
		if e.Source != n.ParentID || e.Target != id {
			return fmt.Errorf("edge %q does not match parent link of %q: %w", e.ID, id, ErrMalformedForest)
		}
		if prev, dup := edgeIDs[e.ID]; dup {
			return fmt.Errorf("edges into %q and %q share id %q: %w", prev, id, e.ID, ErrMalformedForest)
		}
		edgeIDs[e.ID] = id
	}
	if len(f.edges) != len(f.nodes)-1 {
		return fmt.Errorf("have %d edges for %d nodes: %w", len(f.edges), len(f.nodes), ErrMalformedForest)
	}

	for id := range f.collapsed {
		if _, ok := f.nodes[id]; !ok {
			return fmt.Errorf("collapse entry for missing node %q: %w", id, ErrMalformedForest)
		}
	}
	return nil
}
