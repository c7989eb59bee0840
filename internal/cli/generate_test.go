package cli

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Machine Learning", "machine-learning"},
		{"  Go:  the language  ", "go-the-language"},
		{"C++ & Rust!", "c-rust"},
		{"über Straßen", "über-straßen"},
		{"!!!", "mindmap"},
		{"", "mindmap"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := slugify(tt.input); got != tt.want {
				t.Errorf("slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
