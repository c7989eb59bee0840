package llm

import (
	"fmt"
	"strings"

	"github.com/pengpongpang/deepbrain/pkg/errors"
)

// System prompts pin the model to the JSON contract. The response format
// flag enforces syntactic JSON; the prompt enforces the shape.
const (
	systemGenerate = "You are a professional mindmap generation assistant. " +
		"You must respond with valid JSON matching the requested structure, with no commentary outside the JSON."

	systemExpand = "You are a professional mindmap expansion assistant. " +
		"You must respond with valid JSON matching the requested structure, with no commentary outside the JSON."

	systemSuggest = "You are a brainstorming assistant that proposes mindmap topics. " +
		"You must respond with valid JSON matching the requested structure, with no commentary outside the JSON."
)

const generateShape = `{
  "central_topic": "the topic",
  "branches": [
    {
      "id": "branch_1",
      "label": "branch title",
      "description": "one sentence on what this branch covers",
      "level": 1,
      "children": [
        {
          "id": "branch_1_1",
          "label": "subtopic title",
          "description": "one sentence",
          "level": 2,
          "children": []
        }
      ]
    }
  ]
}`

const expandShape = `{
  "children": [
    {
      "label": "child title",
      "description": "one sentence on what this child covers"
    }
  ]
}`

const suggestShape = `{
  "suggestions": [
    {
      "title": "topic title",
      "description": "one sentence pitch",
      "category": "short category name"
    }
  ]
}`

// styleDescription translates a style name into prompt language.
func styleDescription(style string) string {
	switch style {
	case errors.StyleSimple:
		return "concise, covering only the most important points"
	case errors.StyleDetailed:
		return "deeply detailed, with concrete and specific subtopics"
	default:
		return "comprehensive and well-rounded, covering every major aspect"
	}
}

func generatePrompt(req GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a mindmap for the topic: %s\n", req.Topic)
	if req.Description != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", req.Description)
	}
	b.WriteString("\nReturn JSON with exactly this structure:\n")
	b.WriteString(generateShape)
	b.WriteString("\n\nRequirements:\n")
	fmt.Fprintf(&b, "1. The content should be %s.\n", styleDescription(req.Style))
	fmt.Fprintf(&b, "2. Build at most %d levels of branches below the central topic.\n", req.Depth)
	fmt.Fprintf(&b, "3. Give each node at most %d children.\n", req.MaxChildren)
	b.WriteString("4. Every branch needs a short, distinct label; descriptions are one sentence.\n")
	b.WriteString("5. Use sequential ids like branch_1, branch_1_2.\n")
	return b.String()
}

func expandPrompt(nodeLabel string, req ExpandRequest) string {
	topic := req.ExpansionTopic
	if topic == "" {
		topic = "(none, choose the most useful subtopics)"
	}
	docContext := req.Context
	if docContext == "" {
		docContext = "(none)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Expand the mindmap node: %s\n", nodeLabel)
	fmt.Fprintf(&b, "Expansion focus: %s\n", topic)
	fmt.Fprintf(&b, "Surrounding context: %s\n", docContext)
	b.WriteString("\nReturn JSON with exactly this structure:\n")
	b.WriteString(expandShape)
	b.WriteString("\n\nRequirements:\n")
	fmt.Fprintf(&b, "1. Propose at most %d children.\n", req.MaxChildren)
	b.WriteString("2. Children must be more specific than the node itself and must not repeat it.\n")
	b.WriteString("3. Labels stay short; descriptions are one sentence.\n")
	return b.String()
}

func suggestPrompt(query string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest 5 mindmap topics related to: %s\n", query)
	b.WriteString("\nReturn JSON with exactly this structure:\n")
	b.WriteString(suggestShape)
	b.WriteString("\n\nRequirements:\n")
	b.WriteString("1. Return exactly 5 suggestions, ordered from most to least relevant.\n")
	b.WriteString("2. Titles must be concrete enough to start a mindmap from.\n")
	b.WriteString("3. Categories are one or two words.\n")
	return b.String()
}
