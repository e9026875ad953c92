package graph

import (
	"log/slog"

	"github.com/latebit/sbomvis/internal/sbom"
)

// Build creates a graph from one or more SBOM documents.
//
// Each software UUID becomes one node; when the same UUID appears in several
// documents the first occurrence wins. Relationships whose endpoints are not
// both present are skipped.
func Build(docs []*sbom.Document, logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	g := New()

	for _, doc := range docs {
		for i := range doc.Software {
			sw := &doc.Software[i]
			if _, exists := g.nodes[sw.UUID]; exists {
				logger.Debug("duplicate software entry", "uuid", sw.UUID, "sbom", doc.Name())
				continue
			}
			g.AddNode(Node{
				ID:           sw.UUID,
				Label:        sw.Label(),
				InstallPaths: sw.InstallPath,
				SBOMFile:     doc.Name(),
				Software:     sw,
			})
		}
	}

	for _, doc := range docs {
		for _, r := range doc.Relationships {
			_, okX := g.nodes[r.XUUID]
			_, okY := g.nodes[r.YUUID]
			if !okX || !okY {
				logger.Warn("relationship references unknown software",
					"from", r.XUUID, "to", r.YUUID, "relationship", r.Relationship, "sbom", doc.Name())
				continue
			}
			g.AddEdge(r.XUUID, r.YUUID, r.Relationship)
		}
	}

	logger.Info("graph built", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "documents", len(docs))
	return g
}
