package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pengpongpang/deepbrain/pkg/engine"
	"github.com/pengpongpang/deepbrain/pkg/forest"
)

func buildSnapshot(t *testing.T) (*engine.Engine, *engine.Snapshot) {
	t.Helper()
	eng, err := engine.New(engine.Options{})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	snap, err := eng.Initialize([]forest.Node{
		{ID: "r", Label: "Go Concurrency", IsRoot: true},
		{ID: "a", ParentID: "r", Label: "Goroutines", Order: 0},
		{ID: "b", ParentID: "r", Label: "Channels", Order: 1},
	}, nil, false)
	if err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	return eng, snap
}

func TestSVG_Basic(t *testing.T) {
	_, snap := buildSnapshot(t)
	svg := string(SVG(snap, Options{}))

	if !strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg"`) {
		t.Error("SVG() output missing root <svg> tag")
	}
	if !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("SVG() output missing closing tag")
	}
	for _, label := range []string{"Go Concurrency", "Goroutines", "Channels"} {
		if !strings.Contains(svg, label) {
			t.Errorf("SVG() output missing label %q", label)
		}
	}
	if got := strings.Count(svg, "<rect"); got != 3 {
		t.Errorf("SVG() rendered %d boxes, want 3", got)
	}
	if got := strings.Count(svg, "<path"); got != 2 {
		t.Errorf("SVG() rendered %d edges, want 2", got)
	}
	if !strings.Contains(svg, `fill="#ff6b6b"`) {
		t.Error("SVG() output missing root fill color")
	}
	if !strings.Contains(svg, `fill="#4ecdc4"`) {
		t.Error("SVG() output missing level 1 fill color")
	}
}

func TestSVG_Frame(t *testing.T) {
	_, snap := buildSnapshot(t)
	svg := string(SVG(snap, Options{}))

	// Root at depth 0, two children at depth 1 (x 180) and laterals -45/45
	// under default gaps. Frame adds box size plus margins on both axes.
	if !strings.Contains(svg, `viewBox="0 0 410.0 218.0"`) {
		t.Errorf("SVG() frame mismatch: %s", svg[:strings.Index(svg, ">")+1])
	}
}

func TestSVG_Background(t *testing.T) {
	_, snap := buildSnapshot(t)
	svg := string(SVG(snap, Options{Background: "#ffffff"}))

	if got := strings.Count(svg, "<rect"); got != 4 {
		t.Errorf("SVG() rendered %d rects, want 4 with background", got)
	}
	if !strings.Contains(svg, `fill="#ffffff"`) {
		t.Error("SVG() output missing background fill")
	}
}

func TestSVG_Nil(t *testing.T) {
	svg := string(SVG(nil, Options{}))

	if !strings.Contains(svg, `viewBox="0 0 80.0 80.0"`) {
		t.Errorf("SVG(nil) should render an empty default canvas: %s", svg)
	}
	if strings.Contains(svg, "<rect") || strings.Contains(svg, "<path") {
		t.Error("SVG(nil) should render no content")
	}
}

func TestSVG_CollapsedBadge(t *testing.T) {
	eng, _ := buildSnapshot(t)
	if _, err := eng.AddNode(forest.Node{ID: "a1", Label: "Scheduler"}, "a"); err != nil {
		t.Fatalf("AddNode() failed: %v", err)
	}
	snap, err := eng.ToggleCollapse("a")
	if err != nil {
		t.Fatalf("ToggleCollapse() failed: %v", err)
	}

	svg := string(SVG(snap, Options{}))
	if !strings.Contains(svg, "<circle") {
		t.Error("SVG() collapsed branch missing badge circle")
	}
	if !strings.Contains(svg, ">+</text>") {
		t.Error("SVG() collapsed branch missing badge marker")
	}
	if strings.Contains(svg, "Scheduler") {
		t.Error("SVG() rendered a hidden node")
	}
}

func TestSVG_EscapesLabels(t *testing.T) {
	eng, err := engine.New(engine.Options{})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	snap, err := eng.Initialize([]forest.Node{
		{ID: "r", Label: `Ops <"&'> Tools`, IsRoot: true},
	}, nil, false)
	if err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	svg := string(SVG(snap, Options{}))
	if strings.Contains(svg, `<"`) {
		t.Error("SVG() output contains unescaped label markup")
	}
	if !strings.Contains(svg, "&lt;") {
		t.Error("SVG() output missing escaped label text")
	}
}

func TestFitLabel(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		width    float64
		fontSize float64
		want     string
	}{
		{"fits", "short", 200, 14, "short"},
		{"truncated", strings.Repeat("a", 20), 55, 10, "aaaaaaaa.."},
		{"unicodeRunes", "思维导图思维导图", 22, 10, "思维.."},
		{"minimumThree", "abcdef", 5, 10, "a.."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fitLabel(tt.label, tt.width, tt.fontSize)
			if got != tt.want {
				t.Errorf("fitLabel(%q) = %q, want %q", tt.label, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("fitLabel(%q) produced invalid UTF-8", tt.label)
			}
		})
	}
}
