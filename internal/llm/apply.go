package llm

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pengpongpang/deepbrain/pkg/engine"
	"github.com/pengpongpang/deepbrain/pkg/forest"
	"github.com/pengpongpang/deepbrain/pkg/forest/layout"
	"github.com/pengpongpang/deepbrain/pkg/mindmap"
)

// BuildDocument runs an outline through the layout engine and returns a
// complete document: levels, orders, edges, positions, and styles all
// derive from the engine output. The caller assigns ownership and title
// overrides before persisting.
func BuildDocument(outline *Outline, opts layout.Options) (*mindmap.Document, error) {
	eng, err := engine.New(engine.Options{Layout: opts})
	if err != nil {
		return nil, err
	}
	if _, err := eng.Initialize(outlineNodes(outline), nil, false); err != nil {
		return nil, fmt.Errorf("apply outline: %w", err)
	}

	doc := &mindmap.Document{
		Title:  outline.CentralTopic,
		Layout: mindmap.LayoutHierarchical,
		Theme:  mindmap.ThemeDefault,
	}
	doc.SetRaw(eng.Raw())
	return doc, nil
}

// AppendBranches inserts generated branches under parentID in an engine
// already holding the target document. Branches get fresh IDs; model IDs
// are never trusted for inserts into an existing document. It returns
// the IDs of every inserted node, parents before children.
func AppendBranches(eng *engine.Engine, parentID string, branches []Branch) ([]string, error) {
	var added []string
	for i, b := range branches {
		ids, err := appendBranch(eng, parentID, b, i)
		added = append(added, ids...)
		if err != nil {
			return added, err
		}
	}
	return added, nil
}

func appendBranch(eng *engine.Engine, parentID string, b Branch, idx int) ([]string, error) {
	id := uuid.NewString()
	n := forest.Node{
		ID:          id,
		Label:       branchLabel(b.Label, idx),
		Description: b.Description,
	}
	if _, err := eng.AddNode(n, parentID); err != nil {
		return nil, err
	}
	ids := []string{id}
	for i, child := range b.Children {
		sub, err := appendBranch(eng, id, child, i)
		ids = append(ids, sub...)
		if err != nil {
			return ids, err
		}
	}
	return ids, nil
}

// outlineNodes flattens an outline into forest nodes, parents before
// children, sibling order preserved. Model-provided IDs are kept when
// unique and minted fresh otherwise, so downstream references stay
// stable across reparse.
func outlineNodes(outline *Outline) []forest.Node {
	seen := make(map[string]bool)
	rootID := claimID(seen, "root")

	nodes := []forest.Node{{
		ID:     rootID,
		Label:  outline.CentralTopic,
		IsRoot: true,
	}}
	nodes = appendOutline(nodes, seen, rootID, outline.Branches)
	return nodes
}

func appendOutline(nodes []forest.Node, seen map[string]bool, parentID string, branches []Branch) []forest.Node {
	for i, b := range branches {
		id := claimID(seen, b.ID)
		nodes = append(nodes, forest.Node{
			ID:          id,
			ParentID:    parentID,
			Label:       branchLabel(b.Label, i),
			Description: b.Description,
			Order:       i,
		})
		nodes = appendOutline(nodes, seen, id, b.Children)
	}
	return nodes
}

// claimID returns want if it is new, or a fresh UUID when want is empty
// or already taken.
func claimID(seen map[string]bool, want string) string {
	if want == "" || seen[want] {
		want = uuid.NewString()
	}
	seen[want] = true
	return want
}

// branchLabel substitutes a positional label when the model omits one.
func branchLabel(label string, idx int) string {
	if label == "" {
		return fmt.Sprintf("Node %d", idx+1)
	}
	return label
}
