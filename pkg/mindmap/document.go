package mindmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// =============================================================================
// Document Serialization API
// =============================================================================

// MarshalDocument converts a document to indented JSON bytes.
func MarshalDocument(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeDocumentTo(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalDocument deserializes JSON bytes to a document. The result is
// normalized but not structurally validated; call [Document.Forest] to
// reject corrupt hierarchies.
func UnmarshalDocument(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	d.Normalize()
	return &d, nil
}

// WriteDocumentFile writes a document to a JSON file.
// The file is created with 0644 permissions.
func WriteDocumentFile(d *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeDocumentTo(d, f)
}

// WriteDocument writes a document as JSON to an io.Writer.
// Use MarshalDocument for in-memory serialization or WriteDocumentFile for
// files.
func WriteDocument(d *Document, w io.Writer) error {
	return writeDocumentTo(d, w)
}

// ReadDocumentFile reads a JSON file and returns the decoded document.
// Returns an error for malformed JSON or structural corruption such as
// duplicate IDs and parent cycles.
func ReadDocumentFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readDocumentFrom(f)
}

// ReadDocument decodes a JSON document from an io.Reader.
// Use ReadDocumentFile for files or pass bytes.NewReader for in-memory data.
func ReadDocument(r io.Reader) (*Document, error) {
	return readDocumentFrom(r)
}

// =============================================================================
// Normalization and Validation
// =============================================================================

// Normalize fills presentation defaults in place: layout, theme, and node
// and edge types. Structural fields are untouched.
func (d *Document) Normalize() {
	if d.Layout == "" {
		d.Layout = LayoutHorizontal
	}
	if d.Theme == "" {
		d.Theme = ThemeDefault
	}
	for i := range d.Nodes {
		if d.Nodes[i].Type == "" {
			d.Nodes[i].Type = NodeTypeDefault
		}
	}
	for i := range d.Edges {
		if d.Edges[i].Type == "" {
			d.Edges[i].Type = EdgeTypeDefault
		}
	}
}

// Validate checks field limits and structural integrity. Metadata errors
// come back as plain errors; structural ones wrap the forest sentinels.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return errors.New("title is required")
	}
	if len(d.Title) > TitleMaxLen {
		return fmt.Errorf("title exceeds %d characters", TitleMaxLen)
	}
	if len(d.Description) > DescriptionMaxLen {
		return fmt.Errorf("description exceeds %d characters", DescriptionMaxLen)
	}
	if _, err := d.Forest(); err != nil {
		return err
	}
	return nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeDocumentTo(d *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readDocumentFrom(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	d.Normalize()
	if _, err := d.Forest(); err != nil {
		return nil, err
	}
	return &d, nil
}
