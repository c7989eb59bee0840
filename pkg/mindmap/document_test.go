package mindmap

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pengpongpang/deepbrain/pkg/forest"
)

func sampleDocument() *Document {
	return &Document{
		ID:     "doc-1",
		UserID: "user-1",
		Title:  "Go Concurrency",
		Nodes: []Node{
			{ID: "r", Type: NodeTypeCustom, Data: NodeData{Label: "Go Concurrency", IsRoot: true}},
			{ID: "a", Type: NodeTypeCustom, ParentID: "r", Level: 1, Data: NodeData{Label: "Goroutines", Level: 1}},
			{ID: "b", Type: NodeTypeCustom, ParentID: "r", Level: 1, Order: 1, Data: NodeData{Label: "Channels", Level: 1}},
		},
		Edges: []Edge{
			{ID: "e-a", Source: "r", Target: "a", Type: EdgeTypeSmoothstep},
			{ID: "e-b", Source: "r", Target: "b", Type: EdgeTypeSmoothstep},
		},
		Layout:    LayoutHorizontal,
		Theme:     ThemeDefault,
		CreatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC),
		Version:   2,
	}
}

func TestMarshalDocument(t *testing.T) {
	tests := []struct {
		name  string
		doc   *Document
		check func(t *testing.T, parsed *Document)
	}{
		{
			name: "Empty",
			doc:  &Document{Title: "Blank"},
		},
		{
			name: "Sample",
			doc:  sampleDocument(),
			check: func(t *testing.T, parsed *Document) {
				if parsed.Title != "Go Concurrency" {
					t.Errorf("title = %q, want Go Concurrency", parsed.Title)
				}
				if len(parsed.Nodes) != 3 || len(parsed.Edges) != 2 {
					t.Errorf("shape = %d nodes %d edges, want 3 2",
						len(parsed.Nodes), len(parsed.Edges))
				}
				if parsed.Version != 2 {
					t.Errorf("version = %d, want 2", parsed.Version)
				}
			},
		},
		{
			name: "PreservesHierarchyFields",
			doc:  sampleDocument(),
			check: func(t *testing.T, parsed *Document) {
				if parsed.Nodes[2].ParentID != "r" || parsed.Nodes[2].Order != 1 {
					t.Errorf("node b = parent %q order %d, want r 1",
						parsed.Nodes[2].ParentID, parsed.Nodes[2].Order)
				}
				if !parsed.Nodes[0].Data.IsRoot {
					t.Error("root flag lost")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalDocument(tt.doc)
			if err != nil {
				t.Fatalf("MarshalDocument: %v", err)
			}
			parsed, err := UnmarshalDocument(data)
			if err != nil {
				t.Fatalf("UnmarshalDocument: %v", err)
			}
			if tt.check != nil {
				tt.check(t, parsed)
			}
		})
	}
}

func TestWriteReadDocumentFile(t *testing.T) {
	doc := sampleDocument()
	path := filepath.Join(t.TempDir(), "map.json")

	if err := WriteDocumentFile(doc, path); err != nil {
		t.Fatalf("WriteDocumentFile: %v", err)
	}
	got, err := ReadDocumentFile(path)
	if err != nil {
		t.Fatalf("ReadDocumentFile: %v", err)
	}

	if !reflect.DeepEqual(got, doc) {
		t.Errorf("document after file round trip = %+v, want %+v", got, doc)
	}
}

func TestReadDocumentFileMissing(t *testing.T) {
	if _, err := ReadDocumentFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadDocumentRejects(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:  "InvalidJSON",
			input: "{not json",
		},
		{
			name: "DuplicateNodeIDs",
			input: `{"title":"x","nodes":[
				{"id":"r","data":{"label":"r","isRoot":true}},
				{"id":"r","data":{"label":"again"}}],"edges":[]}`,
			wantErr: forest.ErrDuplicateID,
		},
		{
			name: "ParentCycle",
			input: `{"title":"x","nodes":[
				{"id":"a","parent_id":"b","data":{"label":"a"}},
				{"id":"b","parent_id":"a","data":{"label":"b"}}],"edges":[]}`,
			wantErr: forest.ErrCyclicReparent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDocument(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadDocumentAcceptsOrphans(t *testing.T) {
	// A snapshot whose parent references leave the document loads degraded
	// rather than failing; the layout engine echoes its positions back.
	input := `{"title":"x","nodes":[{"id":"a","parent_id":"gone","data":{"label":"a"}}],"edges":[]}`
	doc, err := ReadDocument(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if len(doc.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(doc.Nodes))
	}
}

func TestDocumentValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Document)
		wantErr bool
	}{
		{
			name:   "Valid",
			mutate: func(d *Document) {},
		},
		{
			name:    "MissingTitle",
			mutate:  func(d *Document) { d.Title = "  " },
			wantErr: true,
		},
		{
			name:    "TitleTooLong",
			mutate:  func(d *Document) { d.Title = strings.Repeat("x", TitleMaxLen+1) },
			wantErr: true,
		},
		{
			name:    "DescriptionTooLong",
			mutate:  func(d *Document) { d.Description = strings.Repeat("x", DescriptionMaxLen+1) },
			wantErr: true,
		},
		{
			name: "DuplicateIDs",
			mutate: func(d *Document) {
				d.Nodes = append(d.Nodes, Node{ID: "r"})
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDocument()
			tt.mutate(doc)
			err := doc.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	doc := &Document{
		Title: "x",
		Nodes: []Node{
			{ID: "r", Data: NodeData{IsRoot: true}},
			{ID: "a", ParentID: "r", Data: NodeData{Label: "a"}},
		},
		Edges: []Edge{{ID: "e", Source: "r", Target: "a"}},
	}
	doc.Normalize()

	if doc.Layout != LayoutHorizontal {
		t.Errorf("layout = %q, want %q", doc.Layout, LayoutHorizontal)
	}
	if doc.Theme != ThemeDefault {
		t.Errorf("theme = %q, want %q", doc.Theme, ThemeDefault)
	}
	if doc.Nodes[0].Type != NodeTypeDefault {
		t.Errorf("node type = %q, want %q", doc.Nodes[0].Type, NodeTypeDefault)
	}
	if doc.Edges[0].Type != EdgeTypeDefault {
		t.Errorf("edge type = %q, want %q", doc.Edges[0].Type, EdgeTypeDefault)
	}
}
