// Package layout positions the visible projection of a forest on a 2D
// canvas, deterministically.
//
// # Overview
//
// The layout is a classic tidy tree computed in two passes: a bottom-up
// span pass sizes every visible subtree in abstract lateral units, and a
// top-down placement pass packs sibling subtrees into disjoint lateral
// intervals and parks each parent at the centroid of its children. Depth
// advances by a fixed increment per level. A final mapping projects the
// abstract plane onto canvas coordinates, either horizontally (depth to X)
// or radially (depth to radius).
//
// # Guarantees
//
//   - Sibling subtrees never overlap laterally.
//   - A parent's lateral coordinate is the centroid of its children's.
//   - The same forest and collapse state produce bit-identical positions.
//   - Collapsing or expanding one branch only translates sibling subtrees
//     rigidly and re-centers ancestors; geometry inside untouched subtrees
//     is preserved.
//
// # Degraded Input
//
// A forest without a locatable root cannot be walked, so [Compute] returns
// the positions already stored on the nodes together with
// [forest.ErrMalformedForest]. The engine logs it and keeps the previous
// geometry; nothing crashes on a half-fetched document.
package layout
