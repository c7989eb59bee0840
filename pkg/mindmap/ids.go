package mindmap

import "github.com/google/uuid"

// NewNodeID mints a fresh node identifier. Client-supplied ids are kept
// when unique; everything the service creates itself goes through here.
func NewNodeID() string { return uuid.NewString() }

// NewEdgeID mints a fresh edge identifier.
func NewEdgeID() string { return uuid.NewString() }
