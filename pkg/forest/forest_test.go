package forest

import (
	"errors"
	"reflect"
	"testing"
)

// buildTree returns the standard fixture:
//
//	r ── a
//	  ── b ── b1 ── b11
//	  │    ── b2
//	  ── c
func buildTree(t *testing.T) *Forest {
	t.Helper()
	f := New()
	adds := []struct{ id, parent string }{
		{"r", ""},
		{"a", "r"},
		{"b", "r"},
		{"c", "r"},
		{"b1", "b"},
		{"b2", "b"},
		{"b11", "b1"},
	}
	for _, a := range adds {
		if err := f.AddNode(Node{ID: a.id, Label: a.id}, a.parent); err != nil {
			t.Fatalf("AddNode(%q) error = %v", a.id, err)
		}
	}
	return f
}

func nodeIDs(nodes []Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestAddNode(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *Forest
		node    Node
		parent  string
		wantErr error
	}{
		{
			name:   "root into empty forest",
			build:  New,
			node:   Node{ID: "r"},
			parent: "",
		},
		{
			name: "child under existing parent",
			build: func() *Forest {
				f := New()
				f.AddNode(Node{ID: "r"}, "")
				return f
			},
			node:   Node{ID: "a"},
			parent: "r",
		},
		{
			name:    "second root rejected",
			build:   func() *Forest { return buildTree(t) },
			node:    Node{ID: "r2"},
			parent:  "",
			wantErr: ErrInvalidParent,
		},
		{
			name:    "missing parent rejected",
			build:   func() *Forest { return buildTree(t) },
			node:    Node{ID: "x"},
			parent:  "nope",
			wantErr: ErrInvalidParent,
		},
		{
			name:    "duplicate id rejected",
			build:   func() *Forest { return buildTree(t) },
			node:    Node{ID: "b1"},
			parent:  "r",
			wantErr: ErrDuplicateID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.build()
			err := f.AddNode(tt.node, tt.parent)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddNode() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			n, ok := f.Node(tt.node.ID)
			if !ok {
				t.Fatalf("node %q not stored", tt.node.ID)
			}
			if n.ParentID != tt.parent {
				t.Errorf("ParentID = %q, want %q", n.ParentID, tt.parent)
			}
			if err := f.Validate(); err != nil {
				t.Errorf("Validate() after add = %v", err)
			}
		})
	}
}

func TestAddNodeDerivesStructure(t *testing.T) {
	f := buildTree(t)

	if err := f.AddNode(Node{ID: "b3", Level: 99, Order: -7, IsRoot: true}, "b"); err != nil {
		t.Fatalf("AddNode(b3) error = %v", err)
	}
	n, _ := f.Node("b3")
	if n.Level != 2 {
		t.Errorf("Level = %d, want 2", n.Level)
	}
	if n.IsRoot {
		t.Error("IsRoot = true, want false")
	}
	// b1 and b2 hold orders 0 and 1, so the new sibling appends after them.
	if n.Order != 2 {
		t.Errorf("Order = %d, want 2", n.Order)
	}
	if e, ok := f.edges["b3"]; !ok || e.Source != "b" {
		t.Errorf("parent edge = %+v, want source b", e)
	}
}

func TestAddNodeMintsID(t *testing.T) {
	f := buildTree(t)
	before := f.Len()
	if err := f.AddNode(Node{Label: "fresh"}, "a"); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	if f.Len() != before+1 {
		t.Fatalf("Len() = %d, want %d", f.Len(), before+1)
	}
	kids := f.Children("a")
	if len(kids) != 1 || kids[0] == "" {
		t.Fatalf("Children(a) = %v, want one minted id", kids)
	}
}

func TestAddNodeExpandsCollapsedParent(t *testing.T) {
	f := buildTree(t)
	if err := f.ToggleCollapse("b"); err != nil {
		t.Fatalf("ToggleCollapse(b) error = %v", err)
	}
	if err := f.AddNode(Node{ID: "b3"}, "b"); err != nil {
		t.Fatalf("AddNode(b3) error = %v", err)
	}
	if f.IsCollapsed("b") {
		t.Error("parent b still collapsed after insert")
	}
	if !f.IsVisible("b3") {
		t.Error("inserted node not visible")
	}
}

func TestInitRoundTrip(t *testing.T) {
	nodes := []Node{
		{ID: "r", Label: "Root"},
		{ID: "a", ParentID: "r", Label: "A", Order: 0},
		{ID: "b", ParentID: "r", Label: "B", Order: 5},
		{ID: "b1", ParentID: "b", Label: "B1", Order: 2},
	}
	edges := []Edge{
		{ID: "e-a", Source: "r", Target: "a"},
		{ID: "e-b", Source: "r", Target: "b"},
		{ID: "e-b1", Source: "b", Target: "b1"},
	}

	f := New()
	if err := f.Init(nodes, edges, false); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	got := f.Nodes()
	if want := []string{"a", "b", "b1", "r"}; !reflect.DeepEqual(nodeIDs(got), want) {
		t.Fatalf("Nodes() ids = %v, want %v", nodeIDs(got), want)
	}
	for _, n := range got {
		var wantParent string
		var wantOrder int
		switch n.ID {
		case "r":
			wantParent, wantOrder = "", 0
		case "a":
			wantParent, wantOrder = "r", 0
		case "b":
			wantParent, wantOrder = "r", 5 // orders need not be contiguous
		case "b1":
			wantParent, wantOrder = "b", 2
		}
		if n.ParentID != wantParent || n.Order != wantOrder {
			t.Errorf("node %s = parent %q order %d, want parent %q order %d",
				n.ID, n.ParentID, n.Order, wantParent, wantOrder)
		}
	}

	gotEdges := f.Edges()
	if len(gotEdges) != 3 {
		t.Fatalf("Edges() len = %d, want 3", len(gotEdges))
	}
	for _, e := range gotEdges {
		if e.ID == "" {
			t.Errorf("edge %s->%s lost its id", e.Source, e.Target)
		}
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestInitRejects(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []Node
		edges   []Edge
		wantErr error
	}{
		{
			name:    "duplicate node id",
			nodes:   []Node{{ID: "r"}, {ID: "r"}},
			wantErr: ErrDuplicateID,
		},
		{
			name:  "duplicate edge id",
			nodes: []Node{{ID: "r"}, {ID: "a", ParentID: "r"}, {ID: "b", ParentID: "r"}},
			edges: []Edge{
				{ID: "e", Source: "r", Target: "a"},
				{ID: "e", Source: "r", Target: "b"},
			},
			wantErr: ErrDuplicateID,
		},
		{
			name: "parent cycle",
			nodes: []Node{
				{ID: "a", ParentID: "b"},
				{ID: "b", ParentID: "a"},
			},
			wantErr: ErrCyclicReparent,
		},
		{
			name:    "empty node id",
			nodes:   []Node{{ID: "  "}},
			wantErr: ErrMalformedForest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := buildTree(t)
			before := f.Nodes()
			err := f.Init(tt.nodes, tt.edges, false)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Init() error = %v, want %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(f.Nodes(), before) {
				t.Error("failed Init mutated the forest")
			}
		})
	}
}

func TestInitResyncsEdges(t *testing.T) {
	nodes := []Node{
		{ID: "r"},
		{ID: "a", ParentID: "r", Level: 42}, // stale level, rederived below
		{ID: "b", ParentID: "a"},
	}
	edges := []Edge{
		{ID: "keep", Source: "r", Target: "a"},
		{ID: "stale", Source: "r", Target: "b"},   // disagrees with parent link
		{ID: "ghost", Source: "a", Target: "zzz"}, // target not in snapshot
	}

	f := New()
	if err := f.Init(nodes, edges, false); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	got := map[string]Edge{}
	for _, e := range f.Edges() {
		got[e.Target] = e
	}
	if got["a"].ID != "keep" {
		t.Errorf("edge into a = %q, want kept id %q", got["a"].ID, "keep")
	}
	if e := got["b"]; e.Source != "a" || e.ID == "stale" || e.ID == "" {
		t.Errorf("edge into b = %+v, want fresh edge from a", e)
	}
	if _, ok := got["zzz"]; ok {
		t.Error("ghost edge survived resync")
	}

	if n, _ := f.Node("a"); n.Level != 1 {
		t.Errorf("level of a = %d, want rederived 1", n.Level)
	}
	if n, _ := f.Node("b"); n.Level != 2 {
		t.Errorf("level of b = %d, want rederived 2", n.Level)
	}
}

func TestInitPreserveCollapse(t *testing.T) {
	f := buildTree(t)
	for _, id := range []string{"b", "c"} {
		if err := f.ToggleCollapse(id); err != nil {
			t.Fatalf("ToggleCollapse(%q) error = %v", id, err)
		}
	}

	// The new snapshot keeps b but drops c.
	nodes := []Node{{ID: "r"}, {ID: "b", ParentID: "r"}}
	if err := f.Init(nodes, nil, true); err != nil {
		t.Fatalf("Init(preserve) error = %v", err)
	}
	if got, want := f.Collapsed(), []string{"b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Collapsed() = %v, want %v", got, want)
	}

	if err := f.Init(nodes, nil, false); err != nil {
		t.Fatalf("Init(discard) error = %v", err)
	}
	if got := f.Collapsed(); len(got) != 0 {
		t.Errorf("Collapsed() = %v, want empty", got)
	}
}

func TestInitAcceptsOrphans(t *testing.T) {
	nodes := []Node{
		{ID: "a", ParentID: "missing", Level: 3},
		{ID: "b", ParentID: "a"},
	}
	f := New()
	if err := f.Init(nodes, nil, false); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if f.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", f.Len())
	}
	if got := f.VisibleNodes(); got != nil {
		t.Errorf("VisibleNodes() = %v, want nil for rootless snapshot", got)
	}
	// Orphans keep the level they arrived with.
	if n, _ := f.Node("a"); n.Level != 3 {
		t.Errorf("orphan level = %d, want 3", n.Level)
	}
}

func TestUpdateNode(t *testing.T) {
	strptr := func(s string) *string { return &s }

	t.Run("merges patch fields", func(t *testing.T) {
		f := buildTree(t)
		pos := Position{X: 10, Y: -4}
		err := f.UpdateNode("b1", Patch{
			Label:       strptr("renamed"),
			Description: strptr("details"),
			Position:    &pos,
		})
		if err != nil {
			t.Fatalf("UpdateNode() error = %v", err)
		}
		n, _ := f.Node("b1")
		if n.Label != "renamed" || n.Description != "details" || n.Position != pos {
			t.Errorf("node after patch = %+v", n)
		}
		if n.ParentID != "b" || n.Level != 2 {
			t.Errorf("structure changed: parent %q level %d", n.ParentID, n.Level)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		f := buildTree(t)
		if err := f.UpdateNode("nope", Patch{Label: strptr("x")}); !errors.Is(err, ErrNodeNotFound) {
			t.Fatalf("UpdateNode() error = %v, want ErrNodeNotFound", err)
		}
	})

	t.Run("explicit parent goes through move checks", func(t *testing.T) {
		f := buildTree(t)
		if err := f.UpdateNode("b", Patch{ParentID: strptr("b11")}); !errors.Is(err, ErrCyclicReparent) {
			t.Fatalf("UpdateNode() error = %v, want ErrCyclicReparent", err)
		}
		if err := f.UpdateNode("b1", Patch{ParentID: strptr("c")}); err != nil {
			t.Fatalf("UpdateNode() error = %v", err)
		}
		n, _ := f.Node("b1")
		if n.ParentID != "c" || n.Level != 2 {
			t.Errorf("after move: parent %q level %d, want c 2", n.ParentID, n.Level)
		}
	})
}

func TestDeleteNodeCascades(t *testing.T) {
	f := buildTree(t)
	if err := f.ToggleCollapse("b1"); err != nil {
		t.Fatalf("ToggleCollapse(b1) error = %v", err)
	}

	f.DeleteNode("b")

	for _, id := range []string{"b", "b1", "b2", "b11"} {
		if _, ok := f.Node(id); ok {
			t.Errorf("node %q survived cascade", id)
		}
	}
	for _, e := range f.Edges() {
		if e.Source == "b" || e.Target == "b" {
			t.Errorf("dangling edge %+v", e)
		}
	}
	if got := f.Collapsed(); len(got) != 0 {
		t.Errorf("Collapsed() = %v, want empty after cascade", got)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestDeleteNodeMissingIsNoop(t *testing.T) {
	f := buildTree(t)
	before := f.Nodes()
	f.DeleteNode("nope")
	if !reflect.DeepEqual(f.Nodes(), before) {
		t.Error("deleting a missing node changed the forest")
	}
}

func TestDeleteRootEmptiesForest(t *testing.T) {
	f := buildTree(t)
	f.DeleteNode("r")
	if f.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", f.Len())
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate() on empty forest = %v", err)
	}
}

func TestMoveNode(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		newParent string
		wantErr   error
	}{
		{name: "reparent subtree", id: "b1", newParent: "a"},
		{name: "move onto itself", id: "b", newParent: "b", wantErr: ErrCyclicReparent},
		{name: "move onto descendant", id: "b", newParent: "b11", wantErr: ErrCyclicReparent},
		{name: "move the root", id: "r", newParent: "c", wantErr: ErrCyclicReparent},
		{name: "unknown node", id: "nope", newParent: "a", wantErr: ErrNodeNotFound},
		{name: "unknown parent", id: "b", newParent: "nope", wantErr: ErrInvalidParent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := buildTree(t)
			before := f.Nodes()
			err := f.MoveNode(tt.id, tt.newParent)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("MoveNode() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if !reflect.DeepEqual(f.Nodes(), before) {
					t.Error("failed move mutated the forest")
				}
				return
			}
			if err := f.Validate(); err != nil {
				t.Errorf("Validate() after move = %v", err)
			}
		})
	}
}

func TestMoveNodeRewiresSubtree(t *testing.T) {
	f := buildTree(t)
	if err := f.MoveNode("b1", "a"); err != nil {
		t.Fatalf("MoveNode() error = %v", err)
	}

	n, _ := f.Node("b1")
	if n.ParentID != "a" || n.Level != 2 {
		t.Errorf("b1 parent %q level %d, want a 2", n.ParentID, n.Level)
	}
	if deep, _ := f.Node("b11"); deep.Level != 3 {
		t.Errorf("b11 level = %d, want 3", deep.Level)
	}
	if e := f.edges["b1"]; e.Source != "a" {
		t.Errorf("edge into b1 = %+v, want source a", e)
	}
	if got, want := f.Children("b"), []string{"b2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Children(b) = %v, want %v", got, want)
	}
	if got, want := f.Children("a"), []string{"b1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Children(a) = %v, want %v", got, want)
	}
}

func TestReorderSiblings(t *testing.T) {
	tests := []struct {
		name    string
		parent  string
		order   []string
		wantErr error
	}{
		{name: "permutation", parent: "r", order: []string{"c", "a", "b"}},
		{name: "identity is idempotent", parent: "r", order: []string{"a", "b", "c"}},
		{name: "missing member", parent: "r", order: []string{"a", "b"}, wantErr: ErrSiblingSetMismatch},
		{name: "foreign member", parent: "r", order: []string{"a", "b", "b1"}, wantErr: ErrSiblingSetMismatch},
		{name: "duplicate member", parent: "r", order: []string{"a", "b", "b"}, wantErr: ErrSiblingSetMismatch},
		{name: "extra member", parent: "r", order: []string{"a", "b", "c", "b1"}, wantErr: ErrSiblingSetMismatch},
		{name: "unknown parent", parent: "nope", order: nil, wantErr: ErrNodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := buildTree(t)
			err := f.ReorderSiblings(tt.parent, tt.order)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ReorderSiblings() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if got := f.Children(tt.parent); !reflect.DeepEqual(got, tt.order) {
				t.Errorf("Children() = %v, want %v", got, tt.order)
			}
			for i, id := range tt.order {
				if n, _ := f.Node(id); n.Order != i {
					t.Errorf("node %q order = %d, want %d", id, n.Order, i)
				}
			}
		})
	}
}

func TestToggleCollapse(t *testing.T) {
	f := buildTree(t)

	if err := f.ToggleCollapse("b"); err != nil {
		t.Fatalf("ToggleCollapse() error = %v", err)
	}
	if !f.IsCollapsed("b") {
		t.Error("first toggle did not collapse")
	}
	if err := f.ToggleCollapse("b"); err != nil {
		t.Fatalf("ToggleCollapse() error = %v", err)
	}
	if f.IsCollapsed("b") {
		t.Error("second toggle did not expand")
	}
	if err := f.ToggleCollapse("nope"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("ToggleCollapse(unknown) error = %v, want ErrNodeNotFound", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(f *Forest)
		wantOK  bool
	}{
		{name: "healthy tree", corrupt: func(*Forest) {}, wantOK: true},
		{
			name:    "two roots",
			corrupt: func(f *Forest) { f.nodes["a"].ParentID = ""; delete(f.edges, "a") },
		},
		{
			name:    "level off by one",
			corrupt: func(f *Forest) { f.nodes["b11"].Level = 7 },
		},
		{
			name:    "duplicate sibling order",
			corrupt: func(f *Forest) { f.nodes["b2"].Order = f.nodes["b1"].Order },
		},
		{
			name:    "missing parent edge",
			corrupt: func(f *Forest) { delete(f.edges, "c") },
		},
		{
			name:    "edge source disagrees",
			corrupt: func(f *Forest) { f.edges["c"] = Edge{ID: "x", Source: "a", Target: "c"} },
		},
		{
			name:    "stale collapse entry",
			corrupt: func(f *Forest) { f.collapsed["ghost"] = true },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := buildTree(t)
			tt.corrupt(f)
			err := f.Validate()
			if tt.wantOK && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.wantOK && !errors.Is(err, ErrMalformedForest) {
				t.Errorf("Validate() = %v, want ErrMalformedForest", err)
			}
		})
	}
}

func TestAccessorsCopy(t *testing.T) {
	f := buildTree(t)
	nodes := f.Nodes()
	nodes[0].Label = "tampered"
	if n, _ := f.Node(nodes[0].ID); n.Label == "tampered" {
		t.Error("Nodes() exposed internal state")
	}

	kids := f.Children("r")
	kids[0] = "tampered"
	if got := f.Children("r"); got[0] == "tampered" {
		t.Error("Children() exposed internal state")
	}
}
