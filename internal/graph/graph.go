// Package graph provides the SBOM relationship graph: one node per software
// entry and one directed edge per relationship between entries.
package graph

import (
	"sort"
	"sync"

	"github.com/latebit/sbomvis/internal/sbom"
)

// Node represents a software entry in the graph.
type Node struct {
	ID            string
	Label         string
	InstallPaths  []string
	SBOMFile      string
	Software      *sbom.Software // read-only
	Group         string
	Color         string // current fill color
	OriginalColor string // color restored after highlighting
	IconColor     string
	FontColor     string
	Hidden        bool
	UserHidden    bool // hidden by user choice, never touched by isolate toggling
}

// Edge represents a directed relationship from one node to another.
type Edge struct {
	From         string
	To           string
	Relationship string
}

// Graph is a concurrency-safe directed graph of software nodes and
// relationship edges. Accessors return copies; mutate nodes with Update.
type Graph struct {
	nodes   map[string]*Node
	edges   []Edge
	edgeSet map[Edge]struct{}
	mu      sync.RWMutex
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edgeSet: make(map[Edge]struct{}),
	}
}

// AddNode adds or replaces a node in the graph.
func (g *Graph) AddNode(n Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[n.ID] = &n
}

// AddEdge adds a directed edge. Duplicate edges are ignored.
func (g *Graph) AddEdge(from, to, relationship string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := Edge{From: from, To: to, Relationship: relationship}
	if _, exists := g.edgeSet[e]; exists {
		return
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
}

// GetNode returns a copy of the node with the given ID.
func (g *Graph) GetNode(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Neighbors returns the nodes that id has an outbound edge to.
func (g *Graph) Neighbors(id string) []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var result []Node
	for _, e := range g.edges {
		if e.From == id {
			if n, ok := g.nodes[e.To]; ok {
				result = append(result, *n)
			}
		}
	}
	return result
}

// ConnectedNodes returns the sorted IDs of nodes joined to id by an edge in
// either direction. Self-loops are ignored.
func (g *Graph) ConnectedNodes(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.connectedLocked(id)
}

func (g *Graph) connectedLocked(id string) []string {
	seen := make(map[string]bool)
	for _, e := range g.edges {
		switch {
		case e.From == id && e.To != id:
			seen[e.To] = true
		case e.To == id && e.From != id:
			seen[e.From] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for other := range seen {
		ids = append(ids, other)
	}
	sort.Strings(ids)
	return ids
}

// Isolates returns the sorted IDs of nodes with no connected nodes.
func (g *Graph) Isolates() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	connected := make(map[string]bool)
	for _, e := range g.edges {
		if e.From != e.To {
			connected[e.From] = true
			connected[e.To] = true
		}
	}
	var ids []string
	for id := range g.nodes {
		if !connected[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Update applies fn to the node with the given ID. It reports whether the
// node exists. The ID cannot be changed.
func (g *Graph) Update(id string, fn func(*Node)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	fn(n)
	n.ID = id
	return true
}

// UpdateAll applies fn to every node.
func (g *Graph) UpdateAll(fn func(*Node)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, n := range g.nodes {
		fn(n)
		n.ID = id
	}
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// GetEdges returns a copy of the edge list.
func (g *Graph) GetEdges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// AllNodes returns copies of all nodes sorted by ID.
func (g *Graph) AllNodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	nodes := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, *n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}
