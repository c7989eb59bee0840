package llm

import (
	"github.com/pengpongpang/deepbrain/pkg/errors"
)

// Defaults applied by SetDefaults when a request leaves a field zero.
const (
	DefaultDepth       = 3
	DefaultMaxChildren = 15
)

// GenerateRequest describes a full mindmap generation.
type GenerateRequest struct {
	Topic       string `json:"topic"`
	Description string `json:"description,omitempty"`
	Depth       int    `json:"depth,omitempty"`
	Style       string `json:"style,omitempty"`
	MaxChildren int    `json:"max_children,omitempty"`
}

// SetDefaults fills zero fields with the service defaults.
func (r *GenerateRequest) SetDefaults() {
	if r.Depth == 0 {
		r.Depth = DefaultDepth
	}
	if r.Style == "" {
		r.Style = errors.StyleComprehensive
	}
	if r.MaxChildren == 0 {
		r.MaxChildren = DefaultMaxChildren
	}
}

// Validate checks the request bounds. Call SetDefaults first.
func (r *GenerateRequest) Validate() error {
	if err := errors.ValidateTitle(r.Topic); err != nil {
		return err
	}
	if err := errors.ValidateDescription(r.Description); err != nil {
		return err
	}
	if err := errors.ValidateGenerationDepth(r.Depth); err != nil {
		return err
	}
	if err := errors.ValidateGenerationStyle(r.Style); err != nil {
		return err
	}
	return errors.ValidateMaxChildren(r.MaxChildren)
}

// ExpandRequest describes a node expansion. The node itself is addressed
// by label at the call site; the request carries only the model inputs.
type ExpandRequest struct {
	// ExpansionTopic steers what the children should cover. Empty means
	// the model picks subtopics freely.
	ExpansionTopic string `json:"expansion_topic,omitempty"`

	// Context is surrounding document context, usually the path of labels
	// from the root to the node being expanded.
	Context string `json:"context,omitempty"`

	MaxChildren int `json:"max_children,omitempty"`
}

// SetDefaults fills zero fields with the service defaults.
func (r *ExpandRequest) SetDefaults() {
	if r.MaxChildren == 0 {
		r.MaxChildren = DefaultMaxChildren
	}
}

// Validate checks the request bounds. Call SetDefaults first.
func (r *ExpandRequest) Validate() error {
	return errors.ValidateMaxChildren(r.MaxChildren)
}

// Outline is the model's answer to a generation request: a topic with a
// tree of branches. It carries no positions; the layout engine computes
// those when the outline becomes a document.
type Outline struct {
	CentralTopic string   `json:"central_topic"`
	Branches     []Branch `json:"branches,omitempty"`
}

// Branch is one node of an outline. Models frequently emit unstable or
// duplicate IDs, so consumers treat ID as a hint and mint their own when
// it collides.
type Branch struct {
	ID          string   `json:"id,omitempty"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Level       int      `json:"level,omitempty"`
	Children    []Branch `json:"children,omitempty"`
}

// Suggestion is one proposed mindmap topic.
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}
