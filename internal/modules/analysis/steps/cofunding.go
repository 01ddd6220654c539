package steps

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/fundlens/fundlens-backend/internal/config"
	"github.com/fundlens/fundlens-backend/internal/modules/analysis"
	"github.com/fundlens/fundlens-backend/internal/types"
)

// CoFundingResult is the structural analysis output plus the centrality
// scores the service layer writes back to the node store.
type CoFundingResult struct {
	Output     types.CoFundingAnalysisOutput
	Centrality map[string]NodeCentrality
}

// funderProfile is everything pairwise similarity needs about one
// foundation, computed once.
type funderProfile struct {
	granteeSet map[string]bool
	nteeHist   map[string]float64
	geoSet     map[string]bool
	// amounts indexes grant dollars by grantee then year.
	amounts map[string]map[int]float64
}

// AnalyzeCoFunding derives the foundation-to-foundation similarity
// graph, partitions it into peer communities, flags bridge funders, and
// emits recommendations. Deterministic for identical input: node order
// is sorted everywhere and ties break by fixed rules.
func AnalyzeCoFunding(g *analysis.Graph, tuning config.Tuning) *CoFundingResult {
	foundations := g.FoundationIDs()
	result := &CoFundingResult{
		Output:     types.CoFundingAnalysisOutput{Converged: true},
		Centrality: map[string]NodeCentrality{},
	}
	if len(foundations) < 2 {
		return result
	}

	profiles := make(map[string]*funderProfile, len(foundations))
	for _, fid := range foundations {
		profiles[fid] = buildProfile(g, fid)
	}

	sim := newWeightedGraph(foundations)
	for i := 0; i < len(foundations); i++ {
		for j := i + 1; j < len(foundations); j++ {
			a, b := foundations[i], foundations[j]
			score, shared := similarity(profiles[a], profiles[b], tuning.Weights)
			if score < tuning.MinSimilarity {
				continue
			}
			sim.addEdge(a, b, score)
			result.Output.FunderSimilarities = append(result.Output.FunderSimilarities, types.FunderSimilarity{
				FoundationA:    a,
				FoundationB:    b,
				Score:          score,
				SharedGrantees: shared,
			})
		}
	}

	louvain := runLouvain(sim, tuning.LouvainMaxIters)
	result.Output.Converged = louvain.converged

	for i, members := range louvain.groups {
		if len(members) < 2 {
			continue
		}
		result.Output.PeerFunderGroups = append(result.Output.PeerFunderGroups, types.PeerFunderGroup{
			GroupID:              "group-" + members[0],
			MemberIDs:            members,
			Modularity:           louvain.perGroup[i],
			RepresentativeThemes: groupThemes(g, members),
		})
	}

	result.Centrality = computeCentrality(sim)
	bridges := findBridges(sim, louvain, result.Centrality, tuning)
	result.Output.BridgeFunders = bridges

	result.Output.FunderRecommendations = buildRecommendations(sim, louvain, bridges, result.Output.FunderSimilarities, tuning, louvain.converged)
	return result
}

func buildProfile(g *analysis.Graph, foundationID string) *funderProfile {
	p := &funderProfile{
		granteeSet: make(map[string]bool),
		nteeHist:   make(map[string]float64),
		geoSet:     make(map[string]bool),
		amounts:    make(map[string]map[int]float64),
	}
	for granteeID, e := range g.GrantsFrom(foundationID) {
		p.granteeSet[granteeID] = true
		p.amounts[granteeID] = e.AmountsByYear

		node := g.Node(granteeID)
		if node == nil {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(node.NTEECode))
		if code == "" {
			code = "unknown"
		}
		p.nteeHist[code]++

		geo := strings.ToUpper(strings.TrimSpace(node.State))
		if geo == "" {
			geo = strings.ToUpper(strings.TrimSpace(node.Country))
		}
		if geo != "" {
			p.geoSet[geo] = true
		}
	}
	return p
}

// similarity is the fixed linear combination of Jaccard grantee
// overlap, amount correlation on shared grantees, NTEE-histogram
// cosine, and geographic footprint overlap.
func similarity(a, b *funderProfile, w config.SimilarityWeights) (score float64, sharedCount int) {
	var shared []string
	for id := range a.granteeSet {
		if b.granteeSet[id] {
			shared = append(shared, id)
		}
	}
	sort.Strings(shared)
	sharedCount = len(shared)

	union := len(a.granteeSet) + len(b.granteeSet) - sharedCount
	jaccard := 0.0
	if union > 0 {
		jaccard = float64(sharedCount) / float64(union)
	}

	corr := amountCorrelation(a, b, shared)
	ntee := cosine(a.nteeHist, b.nteeHist)
	geo := setJaccard(a.geoSet, b.geoSet)

	score = w.Jaccard*jaccard + w.Correlation*corr + w.NTEE*ntee + w.Geographic*geo
	return score, sharedCount
}

// amountCorrelation is Pearson correlation of the two foundations'
// grant amounts to shared grantees across years, clamped at zero:
// anti-correlated giving should not raise similarity.
func amountCorrelation(a, b *funderProfile, shared []string) float64 {
	var xs, ys []float64
	for _, granteeID := range shared {
		years := make(map[int]bool)
		for y := range a.amounts[granteeID] {
			years[y] = true
		}
		for y := range b.amounts[granteeID] {
			years[y] = true
		}
		for _, y := range sortedIntKeys(years) {
			xs = append(xs, a.amounts[granteeID][y])
			ys = append(ys, b.amounts[granteeID][y])
		}
	}
	if len(xs) < 2 {
		return 0
	}

	meanX, meanY := mean(xs), mean(ys)
	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		// Flat series on both sides means perfectly aligned giving.
		if varX == 0 && varY == 0 {
			return 1
		}
		return 0
	}
	r := cov / math.Sqrt(varX*varY)
	if r < 0 {
		return 0
	}
	return r
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func cosine(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for _, k := range sortedKeys(a) {
		v := a[k]
		normA += v * v
		if bv, ok := b[k]; ok {
			dot += v * bv
		}
	}
	for _, k := range sortedKeys(b) {
		normB += b[k] * b[k]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func setJaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for k := range a {
		if b[k] {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}

// findBridges flags foundations in the top decile of betweenness whose
// edges reach at least two distinct communities.
func findBridges(sim *weightedGraph, louvain *louvainResult, centrality map[string]NodeCentrality, tuning config.Tuning) []string {
	n := len(sim.ids)
	if n == 0 {
		return nil
	}

	ranked := append([]string(nil), sim.ids...)
	sort.Slice(ranked, func(i, j int) bool {
		bi := centrality[ranked[i]].Betweenness
		bj := centrality[ranked[j]].Betweenness
		if bi != bj {
			return bi > bj
		}
		return ranked[i] < ranked[j]
	})
	topCount := int(math.Ceil(float64(n) * tuning.BridgeTopDecile))
	if topCount < 1 {
		topCount = 1
	}

	var bridges []string
	for _, id := range ranked[:topCount] {
		if centrality[id].Betweenness <= 0 {
			continue
		}
		seen := make(map[int]bool)
		for _, nbr := range sortedKeys(sim.adj[id]) {
			seen[louvain.community[nbr]] = true
		}
		if len(seen) >= tuning.MinBridgeCommunities {
			bridges = append(bridges, id)
		}
	}
	sort.Strings(bridges)
	return bridges
}

func groupThemes(g *analysis.Graph, members []string) []string {
	counts := make(map[string]int)
	for _, fid := range members {
		for granteeID := range g.GrantsFrom(fid) {
			node := g.Node(granteeID)
			if node == nil {
				continue
			}
			if code := strings.ToUpper(strings.TrimSpace(node.NTEECode)); code != "" {
				counts[code]++
			}
		}
	}
	if len(counts) == 0 {
		return nil
	}
	return topCounted(counts, 3)
}

// buildRecommendations emits one row per (foundation, peer, type). The
// type switch is exhaustive over the closed RecommendationType enum;
// confidences are discounted when community detection did not converge.
func buildRecommendations(sim *weightedGraph, louvain *louvainResult, bridges []string, similarities []types.FunderSimilarity, tuning config.Tuning, converged bool) []types.FunderRecommendation {
	discount := 1.0
	if !converged {
		discount = 0.8
	}

	simScore := make(map[string]map[string]float64, len(sim.ids))
	sharedBy := make(map[string]map[string]int, len(sim.ids))
	for _, s := range similarities {
		for _, pair := range [][2]string{{s.FoundationA, s.FoundationB}, {s.FoundationB, s.FoundationA}} {
			if simScore[pair[0]] == nil {
				simScore[pair[0]] = make(map[string]float64)
				sharedBy[pair[0]] = make(map[string]int)
			}
			simScore[pair[0]][pair[1]] = s.Score
			sharedBy[pair[0]][pair[1]] = s.SharedGrantees
		}
	}

	bridgeSet := make(map[string]bool, len(bridges))
	for _, b := range bridges {
		bridgeSet[b] = true
	}

	var recs []types.FunderRecommendation
	emit := func(source, target string, recType types.RecommendationType) {
		rec := types.FunderRecommendation{
			SourceFoundation:      source,
			RecommendedFoundation: target,
			Type:                  recType,
		}
		switch recType {
		case types.RecPeerFunder:
			rec.Confidence = clamp01(simScore[source][target]) * discount
			rec.Rationale = fmt.Sprintf("similarity %.2f across %d shared grantees", simScore[source][target], sharedBy[source][target])
		case types.RecClusterMember:
			rec.Confidence = 0.6 * discount
			rec.Rationale = "member of the same peer funder community"
		case types.RecBridgeFunder:
			rec.Confidence = 0.55 * discount
			rec.Rationale = "bridge funder connecting this community to others"
		case types.RecHighOverlap:
			rec.Confidence = clamp01(simScore[source][target]) * discount
			rec.Rationale = fmt.Sprintf("portfolio similarity %.2f exceeds high-overlap threshold", simScore[source][target])
		}
		recs = append(recs, rec)
	}

	for _, source := range sim.ids {
		// PEER_FUNDER: top-N neighbors by similarity.
		nbrs := sortedKeys(simScore[source])
		sort.Slice(nbrs, func(i, j int) bool {
			si, sj := simScore[source][nbrs[i]], simScore[source][nbrs[j]]
			if si != sj {
				return si > sj
			}
			return nbrs[i] < nbrs[j]
		})
		topN := nbrs
		if len(topN) > tuning.PeerTopN {
			topN = topN[:tuning.PeerTopN]
		}
		for _, target := range topN {
			emit(source, target, types.RecPeerFunder)
		}

		// CLUSTER_MEMBER: same community, regardless of pairwise score.
		community := louvain.community[source]
		if community < len(louvain.groups) {
			for _, member := range louvain.groups[community] {
				if member != source {
					emit(source, member, types.RecClusterMember)
				}
			}
		}

		// BRIDGE_FUNDER: bridges whose edges reach this community.
		for _, bridge := range bridges {
			if bridge == source {
				continue
			}
			reaches := false
			for _, nbr := range sortedKeys(sim.adj[bridge]) {
				if louvain.community[nbr] == community {
					reaches = true
					break
				}
			}
			if reaches {
				emit(source, bridge, types.RecBridgeFunder)
			}
		}

		// HIGH_OVERLAP: similarity above the threshold.
		for _, target := range nbrs {
			if simScore[source][target] > tuning.HighOverlap {
				emit(source, target, types.RecHighOverlap)
			}
		}
	}
	return recs
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
