package layout

import (
	"fmt"
	"math"

	"github.com/pengpongpang/deepbrain/pkg/forest"
)

// Direction selects how the abstract (depth, lateral) plane maps onto
// canvas coordinates.
type Direction string

const (
	// DirectionHorizontal grows the tree to the right: depth maps to X,
	// lateral to Y. This is the default mindmap orientation.
	DirectionHorizontal Direction = "horizontal"

	// DirectionRadial places the root at the origin and maps depth to
	// radius and lateral to angle.
	DirectionRadial Direction = "radial"
)

// Default layout parameters. LevelGap is the fixed per-level advance along
// the depth axis; NodeGap converts one lateral span unit into canvas
// distance.
const (
	DefaultLevelGap = 180.0
	DefaultNodeGap  = 90.0
)

// Options configures a layout pass.
type Options struct {
	// Direction selects the coordinate mapping. Defaults to horizontal.
	Direction Direction `json:"direction,omitempty"`

	// LevelGap is the depth-axis increment per level (horizontal X step,
	// radial radius step). Defaults to DefaultLevelGap.
	LevelGap float64 `json:"level_gap,omitempty"`

	// NodeGap is the canvas distance of one lateral unit. Defaults to
	// DefaultNodeGap. Radial ignores it: a full circle is always shared
	// among the root's visible descendants.
	NodeGap float64 `json:"node_gap,omitempty"`

	// Origin anchors the root. Defaults to the zero point.
	Origin forest.Position `json:"origin,omitempty"`
}

// ValidateAndSetDefaults fills zero values with defaults and rejects
// parameters a layout cannot work with. Safe to call multiple times.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Direction == "" {
		o.Direction = DirectionHorizontal
	}
	if o.Direction != DirectionHorizontal && o.Direction != DirectionRadial {
		return fmt.Errorf("unknown direction %q", o.Direction)
	}
	if o.LevelGap == 0 {
		o.LevelGap = DefaultLevelGap
	}
	if o.NodeGap == 0 {
		o.NodeGap = DefaultNodeGap
	}
	if o.LevelGap < 0 || o.NodeGap < 0 {
		return fmt.Errorf("gaps must be positive, got level %v node %v", o.LevelGap, o.NodeGap)
	}
	return nil
}

// ParseDirection maps persisted layout names onto a Direction. The legacy
// editor stored "hierarchical", "radial", or "force"; hierarchical and any
// unknown name fall back to horizontal, so old documents keep loading.
func ParseDirection(name string) Direction {
	if Direction(name) == DirectionRadial {
		return DirectionRadial
	}
	return DirectionHorizontal
}

// Compute positions the visible projection of the forest.
//
// # Algorithm
//
// Two passes over the visible tree. The span pass walks bottom-up: a node
// with no visible children (a leaf, or a collapsed branch) spans one
// lateral unit, an expanded node spans the sum of its children. The
// placement pass walks top-down packing each child subtree into its own
// half-open lateral interval, sized by span, in sibling Order; a leaf sits
// at its interval's center and an inner node at the centroid of its
// children. Finally the (depth, lateral) plane is mapped onto canvas
// coordinates per [Options.Direction].
//
// The pass is pure arithmetic over deterministically ordered children, so
// the same forest and collapse state always produce bit-identical output.
// Sibling subtrees occupy disjoint intervals, which is what makes collapse
// toggles local: siblings shift rigidly and ancestors re-center, while
// relative geometry inside untouched subtrees is preserved.
//
// # Degraded Forests
//
// When no root is locatable, Compute echoes the positions currently stored
// on the nodes and reports [forest.ErrMalformedForest]. Callers keep the
// previous geometry on screen instead of failing the mutation that led
// here.
//
// # Nil Handling
//
// An empty forest yields an empty map and no error.
func Compute(f *forest.Forest, opts Options) (map[string]forest.Position, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if f.Len() == 0 {
		return map[string]forest.Position{}, nil
	}

	root, ok := f.Root()
	if !ok {
		return echoPositions(f), fmt.Errorf("no locatable root: %w", forest.ErrMalformedForest)
	}

	t := buildTree(f, root.ID)
	t.computeSpans(root.ID)
	t.placeLaterals(root.ID, 0)

	out := make(map[string]forest.Position, len(t.order))
	switch opts.Direction {
	case DirectionRadial:
		total := t.span[root.ID]
		for _, id := range t.order {
			out[id] = radialPoint(opts, t.depth[id], t.lateral[id], total)
		}
	default:
		// Center the root laterally on the origin.
		shift := t.lateral[root.ID]
		for _, id := range t.order {
			out[id] = forest.Position{
				X: opts.Origin.X + float64(t.depth[id])*opts.LevelGap,
				Y: opts.Origin.Y + (t.lateral[id]-shift)*opts.NodeGap,
			}
		}
	}
	return out, nil
}

// radialPoint maps (depth, lateral) onto a circle around the origin. The
// root sits at the origin itself; everything else shares the full turn in
// proportion to lateral spans.
func radialPoint(opts Options, depth int, lateral, total float64) forest.Position {
	if depth == 0 {
		return opts.Origin
	}
	angle := (lateral / total) * 2 * math.Pi
	r := float64(depth) * opts.LevelGap
	return forest.Position{
		X: opts.Origin.X + r*math.Cos(angle),
		Y: opts.Origin.Y + r*math.Sin(angle),
	}
}

// echoPositions snapshots the positions already stored on the nodes.
func echoPositions(f *forest.Forest) map[string]forest.Position {
	out := make(map[string]forest.Position, f.Len())
	for _, n := range f.Nodes() {
		out[n.ID] = n.Position
	}
	return out
}
