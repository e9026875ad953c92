package viewer

import (
	"fmt"
	"strings"

	"github.com/latebit/sbomvis/internal/graph"
	"github.com/latebit/sbomvis/internal/state"
	"github.com/sahilm/fuzzy"
)

// Match is a node matched by Search.
type Match struct {
	ID    string
	Label string
	Path  string
	Score int
}

// searchSource adapts graph nodes to fuzzy.Source. Each node is searched by
// its label followed by its install paths.
type searchSource []graph.Node

func (s searchSource) String(i int) string {
	n := s[i]
	return n.Label + " " + strings.Join(n.InstallPaths, " ")
}

func (s searchSource) Len() int { return len(s) }

// Search fuzzy-matches query against node labels and install paths, best
// match first. It publishes the results as the search panel, selects the
// search sidebar and opens the sidebar if it is closed.
func (v *Viewer) Search(query string) ([]Match, error) {
	matches := v.find(query)

	v.mu.Lock()
	v.lastSearch = query
	v.lastSearchResult = matches
	v.mu.Unlock()

	panel := &state.Panel{
		ID:    state.SidebarSearch,
		Title: "Search",
		Body:  searchMarkdown(query, matches),
	}
	if err := v.publishPanel(state.KeySearchSidebarPanel, state.SidebarSearch, panel); err != nil {
		return matches, err
	}
	v.log.Debug("search", "query", query, "matches", len(matches))
	return matches, nil
}

// LastSearch returns the most recent query and its matches.
func (v *Viewer) LastSearch() (string, []Match) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Match, len(v.lastSearchResult))
	copy(out, v.lastSearchResult)
	return v.lastSearch, out
}

func (v *Viewer) find(query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	nodes := searchSource(v.graph.AllNodes())
	found := fuzzy.FindFrom(query, nodes)

	matches := make([]Match, 0, len(found))
	for _, f := range found {
		n := nodes[f.Index]
		path := ""
		if len(n.InstallPaths) > 0 {
			path = n.InstallPaths[0]
		}
		matches = append(matches, Match{ID: n.ID, Label: n.Label, Path: path, Score: f.Score})
	}
	return matches
}

func searchMarkdown(query string, matches []Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Search\n\nQuery: `%s`\n\n", query)
	if len(matches) == 0 {
		b.WriteString("No matching nodes.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%d matching nodes:\n\n", len(matches))
	for _, m := range matches {
		if m.Path != "" {
			fmt.Fprintf(&b, "- **%s** `%s`\n", m.Label, m.Path)
		} else {
			fmt.Fprintf(&b, "- **%s**\n", m.Label)
		}
	}
	return b.String()
}

// HighlightNodes colors ids with the highlight color, restoring any nodes
// highlighted before, and marks search results as highlighted.
func (v *Viewer) HighlightNodes(ids []string) error {
	highlight := v.opts.Colors.Highlight

	v.mu.Lock()
	previous := make([]string, 0, len(v.highlighted))
	for id := range v.highlighted {
		previous = append(previous, id)
	}
	v.highlighted = make(map[string]bool, len(ids))
	for _, id := range ids {
		v.highlighted[id] = true
	}
	v.mu.Unlock()

	v.SetNodeColors(previous, nil)
	v.SetNodeColors(ids, &highlight)
	return v.store.SetSearchHighlighted(len(ids) > 0)
}

// ClearHighlight restores the original colors of highlighted nodes.
func (v *Viewer) ClearHighlight() error {
	return v.HighlightNodes(nil)
}

// Highlighted reports whether id is currently highlighted.
func (v *Viewer) Highlighted(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.highlighted[id]
}
