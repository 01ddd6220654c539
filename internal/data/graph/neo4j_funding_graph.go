package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/fundlens/fundlens-backend/internal/platform/logger"
	"github.com/fundlens/fundlens-backend/internal/platform/neo4jdb"
	"github.com/fundlens/fundlens-backend/internal/types"
)

// SyncFundingGraph mirrors node and edge rows into neo4j for ad-hoc
// graph exploration. The relational store stays authoritative; a nil
// client makes this a no-op.
func SyncFundingGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, nodes []types.GraphNode, edges []types.GraphEdge) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	orgRows := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		if n.NodeID == "" {
			continue
		}
		orgRows = append(orgRows, map[string]any{
			"id":              n.NodeID,
			"node_type":       string(n.NodeType),
			"name":            n.Name,
			"normalized_name": n.NormalizedName,
			"attributes_json": func() string {
				if len(n.Attributes) == 0 {
					return ""
				}
				return string(n.Attributes)
			}(),
			"degree_centrality":      n.DegreeCentrality,
			"betweenness_centrality": n.BetweennessCentrality,
			"closeness_centrality":   n.ClosenessCentrality,
			"pagerank":               n.PageRank,
			"influence_score":        n.InfluenceScore,
			"data_source":            n.DataSource,
			"synced_at":              now,
		})
	}

	grantRows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e.FromNode == "" || e.ToNode == "" || e.EdgeType != types.EdgeTypeGrant {
			continue
		}
		grantRows = append(grantRows, map[string]any{
			"from_id":    e.FromNode,
			"to_id":      e.ToNode,
			"weight":     e.Weight,
			"first_year": int64(e.FirstYear),
			"last_year":  int64(e.LastYear),
			"metadata_json": func() string {
				if len(e.Metadata) == 0 {
					return ""
				}
				return string(e.Metadata)
			}(),
			"synced_at": now,
		})
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	// Schema helpers (best-effort; may fail for restricted users).
	if res, err := session.Run(ctx, `CREATE CONSTRAINT org_id_unique IF NOT EXISTS FOR (o:Org) REQUIRE o.id IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}
	if res, err := session.Run(ctx, `CREATE INDEX org_type_idx IF NOT EXISTS FOR (o:Org) ON (o.node_type)`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(orgRows) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $orgs AS n
MERGE (o:Org {id: n.id})
SET o += n
`, map[string]any{"orgs": orgRows})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(grantRows) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $grants AS r
MATCH (a:Org {id: r.from_id})
MATCH (b:Org {id: r.to_id})
MERGE (a)-[g:GRANTED]->(b)
SET g.weight = r.weight,
    g.first_year = r.first_year,
    g.last_year = r.last_year,
    g.metadata_json = r.metadata_json,
    g.synced_at = r.synced_at
`, map[string]any{"grants": grantRows})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}
