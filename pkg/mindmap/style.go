package mindmap

// =============================================================================
// Level Palette
// =============================================================================

// Root styling stands apart from the branch palette.
const (
	rootBackground = "#ff6b6b"
	rootBorder     = "#ff5252"
)

// Branch colors cycle by level, clamping at the deepest entry.
var levelColors = [...]string{"#4ecdc4", "#45b7d1", "#96ceb4", "#feca57", "#ff9ff3"}

// LevelColor returns the palette color for a node level. Level 0 is the
// root color; deeper levels clamp to the last branch color.
func LevelColor(level int) string {
	if level <= 0 {
		return rootBackground
	}
	return levelColors[min(level-1, len(levelColors)-1)]
}

// BorderColor returns the border color for a node. The root gets its own
// darker border; branches reuse their fill color.
func BorderColor(level int, isRoot bool) string {
	if isRoot || level <= 0 {
		return rootBorder
	}
	return LevelColor(level)
}

// NodeStyle builds the inline style map the frontend applies to a node.
func NodeStyle(level int, isRoot bool) map[string]any {
	if isRoot || level <= 0 {
		return map[string]any{
			"background":   rootBackground,
			"color":        "white",
			"border":       "2px solid " + BorderColor(level, true),
			"borderRadius": "10px",
			"fontSize":     "16px",
			"fontWeight":   "bold",
		}
	}
	return map[string]any{
		"background":   LevelColor(level),
		"color":        "white",
		"border":       "2px solid " + BorderColor(level, false),
		"borderRadius": "8px",
		"fontSize":     "14px",
	}
}

// EdgeStyle builds the inline style map for an edge, colored by the target
// node's level.
func EdgeStyle(level int) map[string]any {
	return map[string]any{
		"stroke":      LevelColor(level),
		"strokeWidth": 2,
	}
}
