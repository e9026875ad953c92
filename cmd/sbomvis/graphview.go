package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/latebit/sbomvis/internal/graph"
)

// graphListItem is one line of the graph pane: a group header or a node.
type graphListItem struct {
	id        string
	label     string
	group     string
	color     string
	fontColor string
	links     int
	header    bool
	count     int
}

// flattenGraph builds the display list: one header per group followed by
// the group's visible nodes sorted by label. When focus is non-nil only
// those nodes are listed.
func flattenGraph(g *graph.Graph, focus []string) []graphListItem {
	if g == nil {
		return nil
	}
	var only map[string]bool
	if focus != nil {
		only = make(map[string]bool, len(focus))
		for _, id := range focus {
			only[id] = true
		}
	}

	groups := make(map[string][]graph.Node)
	for _, n := range g.AllNodes() {
		if n.Hidden || n.UserHidden {
			continue
		}
		if only != nil && !only[n.ID] {
			continue
		}
		groups[n.Group] = append(groups[n.Group], n)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var items []graphListItem
	for _, name := range names {
		nodes := groups[name]
		sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Label < nodes[j].Label })

		items = append(items, graphListItem{
			label:  name,
			group:  name,
			color:  nodes[0].OriginalColor,
			header: true,
			count:  len(nodes),
		})
		for _, n := range nodes {
			items = append(items, graphListItem{
				id:        n.ID,
				label:     n.Label,
				group:     n.Group,
				color:     n.Color,
				fontColor: n.FontColor,
				links:     len(g.ConnectedNodes(n.ID)),
			})
		}
	}
	return items
}

// keepOrder returns fresh arranged in the order of previous. Nodes that
// were not listed before are appended; nodes that disappeared are dropped.
// Nodes are kept together by their current group, groups in order of first
// appearance, and headers take their color from fresh.
func keepOrder(previous, fresh []graphListItem) []graphListItem {
	byID := make(map[string]graphListItem, len(fresh))
	headerColor := make(map[string]string)
	var freshOrder []string
	for _, it := range fresh {
		if it.header {
			headerColor[it.group] = it.color
			continue
		}
		byID[it.id] = it
		freshOrder = append(freshOrder, it.id)
	}

	var nodes []graphListItem
	seen := make(map[string]bool)
	for _, it := range previous {
		if it.header {
			continue
		}
		if n, ok := byID[it.id]; ok && !seen[it.id] {
			nodes = append(nodes, n)
			seen[it.id] = true
		}
	}
	for _, id := range freshOrder {
		if !seen[id] {
			nodes = append(nodes, byID[id])
		}
	}

	var groupOrder []string
	byGroup := make(map[string][]graphListItem)
	for _, n := range nodes {
		if _, ok := byGroup[n.group]; !ok {
			groupOrder = append(groupOrder, n.group)
		}
		byGroup[n.group] = append(byGroup[n.group], n)
	}

	items := make([]graphListItem, 0, len(nodes)+len(groupOrder))
	for _, name := range groupOrder {
		members := byGroup[name]
		items = append(items, graphListItem{
			label:  name,
			group:  name,
			color:  headerColor[name],
			header: true,
			count:  len(members),
		})
		items = append(items, members...)
	}
	return items
}

// renderGraphView renders the list as a string for the graph viewport.
func renderGraphView(items []graphListItem, selectedIdx, width int) string {
	if len(items) == 0 {
		return "\n  No nodes to show.\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, item := range items {
		cursor := "  "
		if i == selectedIdx {
			cursor = "> "
		}

		var line string
		if item.header {
			name := item.label
			if name == "" {
				name = "(ungrouped)"
			}
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(item.color)).Render("■")
			line = fmt.Sprintf("%s%s %s (%d)", cursor, swatch, lipgloss.NewStyle().Bold(true).Render(name), item.count)
		} else {
			icon := lipgloss.NewStyle().Foreground(lipgloss.Color(item.color)).Render(nodeIcon(item.links))
			label := item.label
			if item.fontColor != "" {
				label = lipgloss.NewStyle().Foreground(lipgloss.Color(item.fontColor)).Render(label)
			}
			line = fmt.Sprintf("%s    ├─ %s %s", cursor, icon, label)
		}

		if width > 5 {
			line = ansi.Truncate(line, width-2, "...")
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func nodeIcon(links int) string {
	if links == 0 {
		return "○"
	}
	return "●"
}
