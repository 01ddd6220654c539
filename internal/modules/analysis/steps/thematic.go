package steps

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fundlens/fundlens-backend/internal/config"
	"github.com/fundlens/fundlens-backend/internal/modules/analysis"
	"github.com/fundlens/fundlens-backend/internal/types"
)

var purposeStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "of": true, "to": true, "in": true,
	"a": true, "an": true, "on": true, "with": true, "by": true, "at": true,
	"support": true, "general": true, "operating": true, "grant": true,
	"grants": true, "program": true, "programs": true, "purposes": true,
	"purpose": true, "funding": true, "fund": true, "funds": true,
	"charitable": true, "organization": true, "org": true,
}

const otherClusterID = "other"

// ClusterGrantees groups grantees deterministically by (primary NTEE
// code, dominant purpose keyword). No learned model: the keyword is the
// most frequent non-stopword token across the grantee's purpose texts.
// Clusters below MinClusterSize fold into a catch-all "Other" cluster.
func ClusterGrantees(g *analysis.Graph, tuning config.Tuning) []types.ThematicCluster {
	buckets := make(map[string]*types.ThematicCluster)

	for _, granteeID := range g.GranteeIDs() {
		node := g.Node(granteeID)
		ntee := strings.ToUpper(strings.TrimSpace(node.NTEECode))
		if ntee == "" {
			ntee = "unknown"
		}
		keyword := dominantKeyword(node.Purposes)

		key := ntee + ":" + keyword
		cluster, ok := buckets[key]
		if !ok {
			cluster = &types.ThematicCluster{
				ClusterID: key,
				Label:     fmt.Sprintf("%s / %s", ntee, keyword),
			}
			buckets[key] = cluster
		}
		addGranteeToCluster(g, cluster, granteeID)
	}

	// Fold sub-minimum clusters into "Other".
	other := &types.ThematicCluster{ClusterID: otherClusterID, Label: "Other"}
	var out []types.ThematicCluster
	for _, key := range sortedKeys(buckets) {
		cluster := buckets[key]
		if len(cluster.GranteeIDs) < tuning.MinClusterSize {
			for _, id := range cluster.GranteeIDs {
				addGranteeToCluster(g, other, id)
			}
			continue
		}
		finalizeCluster(g, cluster)
		out = append(out, *cluster)
	}
	if len(other.GranteeIDs) > 0 {
		finalizeCluster(g, other)
		out = append(out, *other)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalFunding != out[j].TotalFunding {
			return out[i].TotalFunding > out[j].TotalFunding
		}
		return out[i].ClusterID < out[j].ClusterID
	})
	return out
}

func addGranteeToCluster(g *analysis.Graph, cluster *types.ThematicCluster, granteeID string) {
	cluster.GranteeIDs = append(cluster.GranteeIDs, granteeID)
	for _, e := range g.GrantsTo(granteeID) {
		cluster.TotalFunding += e.Weight
	}
}

func finalizeCluster(g *analysis.Graph, cluster *types.ThematicCluster) {
	sort.Strings(cluster.GranteeIDs)
	cluster.GranteeCount = len(cluster.GranteeIDs)

	nteeCounts := make(map[string]int)
	stateCounts := make(map[string]int)
	for _, id := range cluster.GranteeIDs {
		node := g.Node(id)
		if code := strings.ToUpper(strings.TrimSpace(node.NTEECode)); code != "" {
			nteeCounts[code]++
		}
		if state := strings.ToUpper(strings.TrimSpace(node.State)); state != "" {
			stateCounts[state]++
		}
	}

	cluster.DominantNTEECodes = topCounted(nteeCounts, 3)
	if len(stateCounts) > 0 {
		top := topCounted(stateCounts, 1)
		cluster.TopState = top[0]
		cluster.TopStateShare = float64(stateCounts[top[0]]) / float64(cluster.GranteeCount)
	}
}

func dominantKeyword(purposes []string) string {
	counts := make(map[string]int)
	for _, p := range purposes {
		for _, tok := range strings.Fields(NormalizeName(p)) {
			if len(tok) < 3 || purposeStopwords[tok] {
				continue
			}
			counts[tok]++
		}
	}
	if len(counts) == 0 {
		return "general"
	}
	return topCounted(counts, 1)[0]
}

// topCounted returns the n highest-count keys, ties broken
// lexicographically for determinism.
func topCounted(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
