package viewer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/latebit/sbomvis/internal/state"
	"gopkg.in/yaml.v3"
)

// GroupSummary is one group of the active grouping.
type GroupSummary struct {
	Name  string
	Color string
	Count int
}

// Groups returns the groups of the active grouping, largest first.
func (v *Viewer) Groups() []GroupSummary {
	byName := make(map[string]*GroupSummary)
	for _, n := range v.graph.AllNodes() {
		g, ok := byName[n.Group]
		if !ok {
			g = &GroupSummary{Name: n.Group, Color: n.OriginalColor}
			byName[n.Group] = g
		}
		g.Count++
	}

	groups := make([]GroupSummary, 0, len(byName))
	for _, g := range byName {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Name < groups[j].Name
	})
	return groups
}

// SelectNode publishes the details of node id as the node panel and
// selects the node sidebar.
func (v *Viewer) SelectNode(id string) error {
	body, err := v.NodeDetails(id)
	if err != nil {
		return err
	}
	n, _ := v.graph.GetNode(id)
	panel := &state.Panel{ID: id, Title: n.Label, Body: body}
	return v.publishPanel(state.KeyNodeSidebarPanel, state.SidebarNode, panel)
}

// NodeDetails renders node id as markdown: its placement in the graph, its
// connections and the SBOM entry as YAML.
func (v *Viewer) NodeDetails(id string) (string, error) {
	n, ok := v.graph.GetNode(id)
	if !ok {
		return "", fmt.Errorf("node %q not found", id)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", n.Label)
	fmt.Fprintf(&b, "- **UUID:** `%s`\n", n.ID)
	if n.SBOMFile != "" {
		fmt.Fprintf(&b, "- **SBOM:** %s\n", n.SBOMFile)
	}
	if n.Group != "" {
		fmt.Fprintf(&b, "- **Group:** %s\n", n.Group)
	}
	for _, p := range n.InstallPaths {
		fmt.Fprintf(&b, "- **Install path:** `%s`\n", p)
	}

	if out := v.graph.Neighbors(id); len(out) > 0 {
		b.WriteString("\n## Uses\n\n")
		for _, o := range out {
			fmt.Fprintf(&b, "- %s\n", o.Label)
		}
	}
	if connected := v.graph.ConnectedNodes(id); len(connected) == 0 {
		b.WriteString("\n_Isolated: no relationships._\n")
	}

	if n.Software != nil {
		data, err := yaml.Marshal(n.Software)
		if err != nil {
			return "", fmt.Errorf("encode node %q: %w", id, err)
		}
		b.WriteString("\n## Entry\n\n```yaml\n")
		b.Write(data)
		b.WriteString("```\n")
	}
	return b.String(), nil
}

// ShowOverview publishes a summary of the graph as the overview panel and
// selects the overview sidebar.
func (v *Viewer) ShowOverview() error {
	panel := &state.Panel{
		ID:    state.SidebarOverview,
		Title: "Graph overview",
		Body:  v.Overview(),
	}
	return v.publishPanel(state.KeyGraphOverviewSidebarPanel, state.SidebarOverview, panel)
}

// Overview renders node, edge and group counts as markdown.
func (v *Viewer) Overview() string {
	nodes := v.graph.AllNodes()
	hidden := 0
	files := make(map[string]int)
	for _, n := range nodes {
		if n.Hidden || n.UserHidden {
			hidden++
		}
		files[n.SBOMFile]++
	}

	var b strings.Builder
	b.WriteString("# Graph overview\n\n")
	fmt.Fprintf(&b, "- **Nodes:** %d (%d hidden)\n", len(nodes), hidden)
	fmt.Fprintf(&b, "- **Relationships:** %d\n", v.graph.EdgeCount())
	fmt.Fprintf(&b, "- **Isolates:** %d\n", len(v.graph.Isolates()))
	fmt.Fprintf(&b, "- **Grouped by:** %s\n", v.Grouping())

	names := make([]string, 0, len(files))
	for f := range files {
		names = append(names, f)
	}
	sort.Strings(names)
	b.WriteString("\n## SBOM files\n\n")
	for _, f := range names {
		label := f
		if label == "" {
			label = "(unnamed)"
		}
		fmt.Fprintf(&b, "- %s: %d\n", label, files[f])
	}

	b.WriteString("\n## Groups\n\n")
	for _, g := range v.Groups() {
		name := g.Name
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(&b, "- %s: %d\n", name, g.Count)
	}
	return b.String()
}
