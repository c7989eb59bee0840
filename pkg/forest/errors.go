package forest

import "errors"

// Validation errors returned by Forest operations. All of them are local
// validation failures: a returned error guarantees the forest was left
// exactly as it was before the call.
var (
	// ErrDuplicateID indicates a node or edge ID that already exists in the
	// forest. IDs must be unique across their kind.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrNodeNotFound indicates an operation referenced a node ID that does
	// not exist in the forest.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidParent indicates a parent reference that cannot be honored:
	// the parent ID does not resolve, or a second root was about to be
	// created while one already exists.
	ErrInvalidParent = errors.New("invalid parent")

	// ErrCyclicReparent indicates a move that would make a node its own
	// ancestor. Moving a node onto itself or onto any of its descendants is
	// rejected, which also forbids giving the root a parent.
	ErrCyclicReparent = errors.New("cyclic reparent")

	// ErrSiblingSetMismatch indicates a reorder request whose ID list is not
	// exactly the current child set of the parent (missing, extra, or
	// duplicated IDs).
	ErrSiblingSetMismatch = errors.New("sibling set mismatch")

	// ErrMalformedForest indicates structure that violates the forest
	// invariants, such as a snapshot with no locatable root. Layout treats
	// this as a signal to keep existing positions rather than fail.
	ErrMalformedForest = errors.New("malformed forest")
)
