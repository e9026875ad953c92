// Command sbomvis-mcp is an MCP server that exposes an SBOM relationship
// graph as tools for LLM agents. The SBOM files are loaded once at startup
// and served over stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/latebit/sbomvis/internal/config"
	"github.com/latebit/sbomvis/internal/graph"
	"github.com/latebit/sbomvis/internal/logging"
	"github.com/latebit/sbomvis/internal/sbom"
	"github.com/latebit/sbomvis/internal/state"
	"github.com/latebit/sbomvis/internal/viewer"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const maxMatches = 50

func main() {
	configPath := flag.String("config", config.DefaultPath(), "config file (TOML)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: sbomvis-mcp [-config FILE] sbom.json...\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	// stdout carries the protocol, so logs go to stderr or log_file.
	logger, closer, err := logging.Open(cfg.LogFormat, cfg.LogLevel, cfg.LogFile, os.Stderr)
	if err != nil {
		fatal(err)
	}
	defer closer.Close()

	h, err := newHandler(flag.Args(), cfg, logger)
	if err != nil {
		fatal(err)
	}

	s := server.NewMCPServer("sbomvis-mcp", "0.1.0")
	s.AddTool(overviewTool(), h.overview)
	s.AddTool(searchTool(), h.search)
	s.AddTool(nodeTool(), h.node)
	s.AddTool(groupsTool(), h.groups)
	s.AddTool(isolatesTool(), h.isolates)

	if err := server.ServeStdio(s); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// staticNetwork is a Network with nothing to draw.
type staticNetwork struct{}

func (staticNetwork) PhysicsEnabled() bool { return false }
func (staticNetwork) SetPhysics(bool)      {}
func (staticNetwork) Fit([]string)         {}

type handler struct {
	// mu serializes tool calls; sbom_groups regroups the shared viewer.
	mu     sync.Mutex
	viewer *viewer.Viewer
	log    *slog.Logger
}

func newHandler(paths []string, cfg *config.Config, logger *slog.Logger) (*handler, error) {
	docs, err := sbom.LoadAll(paths)
	if err != nil {
		return nil, err
	}
	return newGraphHandler(graph.Build(docs, logger), cfg, logger)
}

func newGraphHandler(g *graph.Graph, cfg *config.Config, logger *slog.Logger) (*handler, error) {
	grouping, err := viewer.ParseGrouping(cfg.Grouping)
	if err != nil {
		return nil, err
	}
	v, err := viewer.New(g, state.New(), staticNetwork{}, viewer.Options{
		Colors:   cfg.Colors,
		Theme:    cfg.Theme,
		Grouping: grouping,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	return &handler{viewer: v, log: logger}, nil
}

// Tool definitions.

func overviewTool() mcp.Tool {
	return mcp.NewTool("sbom_overview",
		mcp.WithDescription(
			"Summarize the loaded SBOM graph: node and relationship counts, isolates, "+
				"the SBOM files and the largest groups. Start here.",
		),
	)
}

func searchTool() mcp.Tool {
	return mcp.NewTool("sbom_search",
		mcp.WithDescription(
			"Fuzzy-search software in the SBOM graph by name and install path. "+
				"Returns matching node UUIDs, best match first. Pass a UUID to sbom_node for details.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("name or path fragment, e.g. libssl or /usr/lib"),
		),
	)
}

func nodeTool() mcp.Tool {
	return mcp.NewTool("sbom_node",
		mcp.WithDescription(
			"Show one software entry: install paths, group, the software it uses "+
				"and the full SBOM entry as YAML.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("node UUID as returned by sbom_search"),
		),
	)
}

func groupsTool() mcp.Tool {
	return mcp.NewTool("sbom_groups",
		mcp.WithDescription(
			"List node groups with their sizes, largest first. Groups are parent "+
				"directories of the install path or the SBOM file a node came from.",
		),
		mcp.WithString("by",
			mcp.Description("directory (default) or sbom"),
			mcp.Enum(string(viewer.GroupByDirectory), string(viewer.GroupBySBOM)),
		),
	)
}

func isolatesTool() mcp.Tool {
	return mcp.NewTool("sbom_isolates",
		mcp.WithDescription(
			"List software with no relationships to anything else in the graph.",
		),
	)
}

// Tool handlers.
// Handler signatures are dictated by mcp-go's ToolHandlerFunc type.

func (h *handler) overview(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	h.mu.Lock()
	defer h.mu.Unlock()
	return mcp.NewToolResultText(h.viewer.Overview()), nil
}

func (h *handler) search(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	query, err := req.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	matches, err := h.viewer.Search(query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatMatches(query, matches)), nil
}

func (h *handler) node(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	body, err := h.viewer.NodeDetails(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(body), nil
}

func (h *handler) groups(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	by, err := viewer.ParseGrouping(req.GetString("by", string(viewer.GroupByDirectory)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if by != h.viewer.Grouping() {
		if err := h.viewer.GroupGraph(by); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("grouping failed: %v", err)), nil
		}
	}
	return mcp.NewToolResultText(formatGroups(by, h.viewer.Groups())), nil
}

func (h *handler) isolates(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	h.mu.Lock()
	defer h.mu.Unlock()
	return mcp.NewToolResultText(formatIsolates(h.viewer.Graph())), nil
}

// formatMatches renders search results as plain text for LLM consumption.
func formatMatches(query string, matches []viewer.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d matches for %q\n", len(matches), query)
	for i, m := range matches {
		if i == maxMatches {
			fmt.Fprintf(&b, "  ... %d more\n", len(matches)-maxMatches)
			break
		}
		fmt.Fprintf(&b, "  %-40s %s", m.ID, m.Label)
		if m.Path != "" {
			fmt.Fprintf(&b, "  (%s)", m.Path)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func formatGroups(by viewer.Grouping, groups []viewer.GroupSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d groups by %s\n", len(groups), by)
	for _, g := range groups {
		name := g.Name
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(&b, "  %6d  %s\n", g.Count, name)
	}
	return b.String()
}

func formatIsolates(g *graph.Graph) string {
	ids := g.Isolates()
	var b strings.Builder
	fmt.Fprintf(&b, "%d isolated nodes\n", len(ids))
	for _, id := range ids {
		n, ok := g.GetNode(id)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %-40s %s\n", n.ID, n.Label)
	}
	return b.String()
}
