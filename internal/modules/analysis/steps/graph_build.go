package steps

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/fundlens/fundlens-backend/internal/config"
	"github.com/fundlens/fundlens-backend/internal/modules/analysis"
	"github.com/fundlens/fundlens-backend/internal/platform/logger"
	"github.com/fundlens/fundlens-backend/internal/types"
)

// GraphBuildResult carries the in-memory snapshot plus the rows the
// caller may flush to the persisted node/edge stores.
type GraphBuildResult struct {
	Graph    *analysis.Graph
	Rejected []analysis.RejectedRecord
	Nodes    []types.GraphNode
	Edges    []types.GraphEdge
}

type granteeRef struct {
	id             string
	normalizedName string
	hasEIN         bool
}

// BuildGraph folds a batch of grant records into a typed funding graph
// with entity resolution. Malformed records land in the rejection list;
// the batch itself never fails.
func BuildGraph(log *logger.Logger, tuning config.Tuning, records []types.GrantRecord) *GraphBuildResult {
	buildLog := log.With("step", "GraphBuild")
	g := analysis.NewGraph()
	result := &GraphBuildResult{Graph: g}

	// Grantee index for name-only entity resolution, in insertion
	// order so repeated builds resolve identically.
	var grantees []granteeRef
	byID := make(map[string]int)

	for i, rec := range records {
		if strings.TrimSpace(rec.FoundationID) == "" {
			result.Rejected = append(result.Rejected, analysis.RejectedRecord{
				Index: i, GranteeName: rec.GranteeName, Reason: analysis.RejectMissingFoundationID,
			})
			continue
		}
		if rec.Amount <= 0 {
			result.Rejected = append(result.Rejected, analysis.RejectedRecord{
				Index: i, FoundationID: rec.FoundationID, GranteeName: rec.GranteeName,
				Reason: analysis.RejectNonPositiveAmount,
			})
			continue
		}
		if strings.TrimSpace(rec.GranteeName) == "" {
			result.Rejected = append(result.Rejected, analysis.RejectedRecord{
				Index: i, FoundationID: rec.FoundationID, Reason: analysis.RejectMissingGranteeName,
			})
			continue
		}

		normalized := strings.TrimSpace(rec.NormalizedGranteeName)
		if normalized == "" {
			normalized = NormalizeName(rec.GranteeName)
		}

		granteeID := resolveGrantee(buildLog, tuning, rec, normalized, grantees, byID)
		if _, known := byID[granteeID]; !known {
			byID[granteeID] = len(grantees)
			grantees = append(grantees, granteeRef{
				id:             granteeID,
				normalizedName: normalized,
				hasEIN:         strings.TrimSpace(rec.GranteeID) != "",
			})
		}

		g.AddNode(analysis.Node{
			ID:   rec.FoundationID,
			Type: types.NodeTypeFoundation,
			Name: rec.FoundationName,
		})
		g.AddNode(analysis.Node{
			ID:             granteeID,
			Type:           types.NodeTypeGrantee,
			Name:           rec.GranteeName,
			NormalizedName: normalized,
			NTEECode:       rec.NTEECode,
			State:          rec.GranteeState,
			Country:        rec.GranteeCountry,
		})
		g.AddGranteePurpose(granteeID, rec.Purpose)
		g.AddGrant(rec.FoundationID, granteeID, rec.TaxYear, rec.Amount)
	}

	g.Freeze()
	result.Nodes, result.Edges = storeRows(g)

	if len(result.Rejected) > 0 {
		buildLog.Info("Skipped malformed grant records",
			"rejected", len(result.Rejected),
			"accepted", g.GrantCount(),
		)
	}
	return result
}

// resolveGrantee matches a record to an existing grantee node. Records
// carrying an EIN are authoritative; name-only records match by token
// overlap against known normalized names, preferring an EIN-bearing
// candidate on ties.
func resolveGrantee(log *logger.Logger, tuning config.Tuning, rec types.GrantRecord, normalized string, grantees []granteeRef, byID map[string]int) string {
	if id := strings.TrimSpace(rec.GranteeID); id != "" {
		return id
	}

	var candidates []granteeRef
	bestScore := 0.0
	for _, ref := range grantees {
		score := TokenOverlap(normalized, ref.normalizedName)
		if score < tuning.NameMatchThreshold {
			continue
		}
		if score > bestScore {
			bestScore = score
			candidates = candidates[:0]
		}
		if score == bestScore {
			candidates = append(candidates, ref)
		}
	}

	if len(candidates) == 0 {
		return NameNodeID(normalized)
	}
	if len(candidates) > 1 {
		log.Warn("Ambiguous grantee match, resolving conservatively",
			"grantee_name", rec.GranteeName,
			"candidates", len(candidates),
			"score", bestScore,
		)
	}
	// Prefer an EIN-bearing match, then smallest id for determinism.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].hasEIN != candidates[j].hasEIN {
			return candidates[i].hasEIN
		}
		return candidates[i].id < candidates[j].id
	})
	return candidates[0].id
}

func storeRows(g *analysis.Graph) ([]types.GraphNode, []types.GraphEdge) {
	now := time.Now().UTC()
	var nodes []types.GraphNode
	var edges []types.GraphEdge

	for _, id := range g.FoundationIDs() {
		n := g.Node(id)
		nodes = append(nodes, types.GraphNode{
			NodeID:         id,
			NodeType:       types.NodeTypeFoundation,
			Name:           n.Name,
			NormalizedName: NormalizeName(n.Name),
			DataSource:     "schedule_i",
			LastUpdated:    now,
		})
		for _, granteeID := range sortedKeys(g.GrantsFrom(id)) {
			e := g.GrantsFrom(id)[granteeID]
			meta, _ := json.Marshal(map[string]interface{}{
				"active_years": sortedIntKeys(e.AmountsByYear),
			})
			edges = append(edges, types.GraphEdge{
				FromNode:  id,
				ToNode:    granteeID,
				EdgeType:  types.EdgeTypeGrant,
				Weight:    e.Weight,
				Metadata:  datatypes.JSON(meta),
				FirstYear: e.FirstYear,
				LastYear:  e.LastYear,
				UpdatedAt: now,
			})
		}
	}

	for _, id := range g.GranteeIDs() {
		n := g.Node(id)
		attrs, _ := json.Marshal(map[string]string{
			"ntee_code": n.NTEECode,
			"state":     n.State,
			"country":   n.Country,
		})
		nodes = append(nodes, types.GraphNode{
			NodeID:         id,
			NodeType:       types.NodeTypeGrantee,
			Name:           n.Name,
			NormalizedName: n.NormalizedName,
			Attributes:     datatypes.JSON(attrs),
			DataSource:     "schedule_i",
			LastUpdated:    now,
		})
	}

	return nodes, edges
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedIntKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
