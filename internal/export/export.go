// Package export writes the SBOM graph in formats other tools can render.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/latebit/sbomvis/internal/graph"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatDOT, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want dot or json)", s)
}

// Write serializes g in format f.
func Write(w io.Writer, g *graph.Graph, f Format) error {
	switch f {
	case FormatDOT:
		return WriteDOT(w, g)
	case FormatJSON:
		return WriteJSON(w, g)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteFile writes g to path in format f.
func WriteFile(path string, g *graph.Graph, f Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if err := Write(file, g, f); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %q: %w", path, err)
	}
	return file.Close()
}

// WriteDOT writes a Graphviz digraph of the visible nodes, one cluster per
// non-empty group.
func WriteDOT(w io.Writer, g *graph.Graph) error {
	nodes := g.AllNodes()
	visible := make(map[string]bool, len(nodes))
	groups := make(map[string][]graph.Node)
	for _, n := range nodes {
		if n.Hidden || n.UserHidden {
			continue
		}
		visible[n.ID] = true
		groups[n.Group] = append(groups[n.Group], n)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("digraph SBOM {\n")
	b.WriteString("  node [shape=box, style=filled];\n")

	cluster := 0
	for _, name := range names {
		indent := "  "
		if name != "" {
			fmt.Fprintf(&b, "  subgraph cluster_%d {\n    label=%s;\n", cluster, quote(name))
			indent = "    "
			cluster++
		}
		for _, n := range groups[name] {
			fmt.Fprintf(&b, "%s%s [label=%s", indent, quote(n.ID), quote(n.Label))
			if n.Color != "" {
				fmt.Fprintf(&b, ", fillcolor=%s", quote(n.Color))
			}
			if n.FontColor != "" {
				fmt.Fprintf(&b, ", fontcolor=%s", quote(n.FontColor))
			}
			b.WriteString("];\n")
		}
		if name != "" {
			b.WriteString("  }\n")
		}
	}

	for _, e := range g.GetEdges() {
		if !visible[e.From] || !visible[e.To] {
			continue
		}
		fmt.Fprintf(&b, "  %s -> %s", quote(e.From), quote(e.To))
		if e.Relationship != "" {
			fmt.Fprintf(&b, " [label=%s]", quote(e.Relationship))
		}
		b.WriteString(";\n")
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

type jsonNode struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Group       string   `json:"group,omitempty"`
	Color       string   `json:"color,omitempty"`
	Hidden      bool     `json:"hidden"`
	SBOM        string   `json:"sbom,omitempty"`
	InstallPath []string `json:"installPath,omitempty"`
}

type jsonEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

type jsonGraph struct {
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

// WriteJSON writes every node and edge as {"nodes": [...], "edges": [...]}.
func WriteJSON(w io.Writer, g *graph.Graph) error {
	out := jsonGraph{Nodes: []jsonNode{}, Edges: []jsonEdge{}}
	for _, n := range g.AllNodes() {
		out.Nodes = append(out.Nodes, jsonNode{
			ID:          n.ID,
			Label:       n.Label,
			Group:       n.Group,
			Color:       n.Color,
			Hidden:      n.Hidden || n.UserHidden,
			SBOM:        n.SBOMFile,
			InstallPath: n.InstallPaths,
		})
	}
	for _, e := range g.GetEdges() {
		out.Edges = append(out.Edges, jsonEdge{From: e.From, To: e.To, Label: e.Relationship})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
