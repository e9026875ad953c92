package graph

import (
	"testing"

	"github.com/latebit/sbomvis/internal/sbom"
)

func TestBuild(t *testing.T) {
	first := &sbom.Document{
		Path: "/tmp/first.json",
		Software: []sbom.Software{
			{UUID: "a", FileName: []string{"libfoo.so"}, InstallPath: []string{"/usr/lib/libfoo.so"}},
			{UUID: "b", FileName: []string{"bar"}, InstallPath: []string{"/usr/bin/bar"}},
		},
		Relationships: []sbom.Relationship{
			{XUUID: "b", YUUID: "a", Relationship: "Uses"},
			{XUUID: "b", YUUID: "ghost", Relationship: "Uses"},
		},
	}
	second := &sbom.Document{
		Path: "/tmp/second.json",
		Software: []sbom.Software{
			{UUID: "a", FileName: []string{"dupe"}},
			{UUID: "c", Name: "lonely"},
		},
	}

	g := Build([]*sbom.Document{first, second}, nil)

	if g.NodeCount() != 3 {
		t.Fatalf("NodeCount() = %d, want 3", g.NodeCount())
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount() = %d, want 1 (unknown endpoints skipped)", g.EdgeCount())
	}

	a, _ := g.GetNode("a")
	if a.Label != "libfoo.so" {
		t.Errorf("a.Label = %q, want first occurrence %q", a.Label, "libfoo.so")
	}
	if a.SBOMFile != "first.json" {
		t.Errorf("a.SBOMFile = %q, want %q", a.SBOMFile, "first.json")
	}
	if a.Software == nil || a.Software.UUID != "a" {
		t.Errorf("a.Software = %+v", a.Software)
	}

	c, _ := g.GetNode("c")
	if c.Label != "lonely" || c.SBOMFile != "second.json" {
		t.Errorf("c = %+v", c)
	}

	edges := g.GetEdges()
	if edges[0] != (Edge{From: "b", To: "a", Relationship: "Uses"}) {
		t.Errorf("edge = %+v", edges[0])
	}
}
