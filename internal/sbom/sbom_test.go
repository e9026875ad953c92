package sbom

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `{
  "software": [
    {"UUID": "a", "fileName": ["libfoo.so"], "installPath": ["/usr/lib/libfoo.so"], "version": "1.2"},
    {"UUID": "b", "name": "bar", "installPath": ["/usr/bin/bar"]},
    {"UUID": "c"}
  ],
  "relationships": [
    {"xUUID": "b", "yUUID": "a", "relationship": "Uses"}
  ]
}`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(doc.Software) != 3 {
		t.Fatalf("software = %d, want 3", len(doc.Software))
	}
	if len(doc.Relationships) != 1 {
		t.Fatalf("relationships = %d, want 1", len(doc.Relationships))
	}
	r := doc.Relationships[0]
	if r.XUUID != "b" || r.YUUID != "a" || r.Relationship != "Uses" {
		t.Errorf("relationship = %+v", r)
	}
	if doc.Software[0].Version != "1.2" {
		t.Errorf("version = %q, want %q", doc.Software[0].Version, "1.2")
	}
}

func TestParseMissingUUID(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"software": [{"UUID": "a"}, {"name": "x"}]}`))
	if err == nil {
		t.Fatal("expected error for missing UUID")
	}
	if !strings.Contains(err.Error(), "software[1]") {
		t.Errorf("error %q does not name the entry", err)
	}
}

func TestParseInvalidJSON(t *testing.T) {
	if _, err := Parse(strings.NewReader("{")); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name string
		sw   Software
		want string
	}{
		{"file name wins", Software{UUID: "u", Name: "n", FileName: []string{"f"}}, "f"},
		{"skips empty file name", Software{UUID: "u", Name: "n", FileName: []string{""}}, "n"},
		{"name", Software{UUID: "u", Name: "n"}, "n"},
		{"uuid fallback", Software{UUID: "u"}, "u"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sw.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "one.json")
	p2 := filepath.Join(dir, "two.json")
	if err := os.WriteFile(p1, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p2, []byte(`{"software": []}`), 0o644); err != nil {
		t.Fatal(err)
	}

	docs, err := LoadAll([]string{p1, p2})
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2", len(docs))
	}
	if docs[0].Name() != "one.json" {
		t.Errorf("Name() = %q, want %q", docs[0].Name(), "one.json")
	}
}

func TestLoadAllMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")
	_, err := LoadAll([]string{missing})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "nope.json") {
		t.Errorf("error %q does not name the path", err)
	}
}
