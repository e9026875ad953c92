// Package sbom loads Surfactant-style SBOM JSON documents.
package sbom

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Software is one entry of the "software" array.
type Software struct {
	UUID        string           `json:"UUID" yaml:"uuid"`
	Name        string           `json:"name,omitempty" yaml:"name,omitempty"`
	FileName    []string         `json:"fileName,omitempty" yaml:"fileName,omitempty"`
	InstallPath []string         `json:"installPath,omitempty" yaml:"installPath,omitempty"`
	SHA256      string           `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Version     string           `json:"version,omitempty" yaml:"version,omitempty"`
	Vendor      []string         `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Metadata    []map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Label returns the display name of the entry: the first file name, the
// name, or the UUID, whichever is set first.
func (s *Software) Label() string {
	for _, f := range s.FileName {
		if f != "" {
			return f
		}
	}
	if s.Name != "" {
		return s.Name
	}
	return s.UUID
}

// Relationship is a directed relationship from XUUID to YUUID.
type Relationship struct {
	XUUID        string `json:"xUUID"`
	YUUID        string `json:"yUUID"`
	Relationship string `json:"relationship"`
}

// Document is a parsed SBOM file.
type Document struct {
	Path          string         `json:"-"`
	Software      []Software     `json:"software"`
	Relationships []Relationship `json:"relationships"`
}

// Name returns the base file name of the document, or "" if it was not
// loaded from disk.
func (d *Document) Name() string {
	if d.Path == "" {
		return ""
	}
	return filepath.Base(d.Path)
}

// Parse decodes a document from r.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode sbom: %w", err)
	}
	for i, sw := range doc.Software {
		if sw.UUID == "" {
			return nil, fmt.Errorf("software[%d]: missing UUID", i)
		}
	}
	return &doc, nil
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sbom %q: %w", path, err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// LoadAll loads every path in order. The first failure aborts.
func LoadAll(paths []string) ([]*Document, error) {
	docs := make([]*Document, 0, len(paths))
	for _, p := range paths {
		doc, err := Load(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
