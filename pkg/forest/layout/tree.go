package layout

import "github.com/pengpongpang/deepbrain/pkg/forest"

// tree is the working state of one layout pass: the visible structure
// frozen into plain maps so the passes never touch the forest again.
type tree struct {
	children map[string][]string
	order    []string // visible ids, parents before children
	depth    map[string]int
	span     map[string]float64
	lateral  map[string]float64
}

// buildTree freezes the visible projection starting at the root. Collapsed
// nodes are included but their children are not, which makes a collapsed
// branch a layout leaf.
func buildTree(f *forest.Forest, rootID string) *tree {
	t := &tree{
		children: make(map[string][]string),
		depth:    make(map[string]int),
		span:     make(map[string]float64),
		lateral:  make(map[string]float64),
	}
	var walk func(id string, d int)
	walk = func(id string, d int) {
		t.order = append(t.order, id)
		t.depth[id] = d
		if f.IsCollapsed(id) {
			return
		}
		kids := f.Children(id)
		if len(kids) == 0 {
			return
		}
		t.children[id] = kids
		for _, c := range kids {
			walk(c, d+1)
		}
	}
	walk(rootID, 0)
	return t
}

// computeSpans assigns every node the lateral width of its visible subtree:
// one unit for a leaf, the children's sum otherwise.
func (t *tree) computeSpans(id string) float64 {
	kids := t.children[id]
	if len(kids) == 0 {
		t.span[id] = 1
		return 1
	}
	sum := 0.0
	for _, c := range kids {
		sum += t.computeSpans(c)
	}
	t.span[id] = sum
	return sum
}

// placeLaterals packs each child subtree into its own half-open interval
// [cursor, cursor+span) and returns the node's lateral coordinate: the
// interval center for leaves, the centroid of the children for inner nodes.
// Summation follows sibling order, so results are bit-stable.
func (t *tree) placeLaterals(id string, offset float64) float64 {
	kids := t.children[id]
	if len(kids) == 0 {
		t.lateral[id] = offset + t.span[id]/2
		return t.lateral[id]
	}
	cursor := offset
	sum := 0.0
	for _, c := range kids {
		sum += t.placeLaterals(c, cursor)
		cursor += t.span[c]
	}
	t.lateral[id] = sum / float64(len(kids))
	return t.lateral[id]
}
