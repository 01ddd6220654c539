package steps

import (
	"reflect"
	"testing"

	"github.com/fundlens/fundlens-backend/internal/config"
	"github.com/fundlens/fundlens-backend/internal/modules/analysis"
	"github.com/fundlens/fundlens-backend/internal/types"
)

// disjointFunderGroups builds two funder communities with no shared
// grantees, themes, or geography between them.
func disjointFunderGroups() *analysis.Graph {
	g := analysis.NewGraph()
	addProfiledGrant := func(foundation, grantee, ntee, state string, amount float64) {
		g.AddNode(analysis.Node{ID: foundation, Type: types.NodeTypeFoundation, Name: foundation})
		g.AddNode(analysis.Node{ID: grantee, Type: types.NodeTypeGrantee, Name: grantee, NTEECode: ntee, State: state})
		g.AddGrant(foundation, grantee, 2023, amount)
	}

	for _, f := range []string{"F1", "F2", "F3"} {
		for _, gr := range []string{"G01", "G02", "G03", "G04"} {
			addProfiledGrant(f, gr, "K31", "CA", 10000)
		}
	}
	for _, f := range []string{"F4", "F5", "F6"} {
		for _, gr := range []string{"G10", "G11", "G12", "G13"} {
			addProfiledGrant(f, gr, "B21", "NY", 5000)
		}
	}
	g.Freeze()
	return g
}

func TestAnalyzeCoFundingDisjointGroups(t *testing.T) {
	res := AnalyzeCoFunding(disjointFunderGroups(), config.Defaults())
	out := res.Output

	if !out.Converged {
		t.Fatalf("community detection did not converge")
	}
	if len(out.PeerFunderGroups) != 2 {
		t.Fatalf("peer groups = %d, want 2", len(out.PeerFunderGroups))
	}
	if !reflect.DeepEqual(out.PeerFunderGroups[0].MemberIDs, []string{"F1", "F2", "F3"}) {
		t.Fatalf("group 0 members = %v", out.PeerFunderGroups[0].MemberIDs)
	}
	if !reflect.DeepEqual(out.PeerFunderGroups[1].MemberIDs, []string{"F4", "F5", "F6"}) {
		t.Fatalf("group 1 members = %v", out.PeerFunderGroups[1].MemberIDs)
	}
	if out.PeerFunderGroups[0].GroupID != "group-F1" {
		t.Fatalf("group id = %s, want group-F1", out.PeerFunderGroups[0].GroupID)
	}

	group1 := map[string]bool{"F1": true, "F2": true, "F3": true}
	for _, s := range out.FunderSimilarities {
		if group1[s.FoundationA] != group1[s.FoundationB] {
			t.Fatalf("similarity edge crosses disjoint groups: %+v", s)
		}
		if s.Score <= 0 || s.Score > 1 {
			t.Fatalf("similarity score %v out of (0, 1]", s.Score)
		}
	}

	if len(out.BridgeFunders) != 0 {
		t.Fatalf("bridge funders in disjoint cliques = %v, want none", out.BridgeFunders)
	}
}

func TestAnalyzeCoFundingIdenticalPortfoliosScoreHigh(t *testing.T) {
	res := AnalyzeCoFunding(disjointFunderGroups(), config.Defaults())

	var f1f2 *types.FunderSimilarity
	for i := range res.Output.FunderSimilarities {
		s := &res.Output.FunderSimilarities[i]
		if s.FoundationA == "F1" && s.FoundationB == "F2" {
			f1f2 = s
		}
	}
	if f1f2 == nil {
		t.Fatalf("no similarity edge for identical portfolios F1/F2")
	}
	if f1f2.SharedGrantees != 4 {
		t.Fatalf("shared grantees = %d, want 4", f1f2.SharedGrantees)
	}
	// Jaccard 1, flat amount series, identical themes and states.
	if f1f2.Score < 0.99 {
		t.Fatalf("identical-portfolio score = %v, want ~1.0", f1f2.Score)
	}
}

func TestAnalyzeCoFundingRecommendations(t *testing.T) {
	res := AnalyzeCoFunding(disjointFunderGroups(), config.Defaults())

	byType := map[types.RecommendationType]int{}
	group1 := map[string]bool{"F1": true, "F2": true, "F3": true}
	for _, rec := range res.Output.FunderRecommendations {
		byType[rec.Type]++
		if group1[rec.SourceFoundation] != group1[rec.RecommendedFoundation] {
			t.Fatalf("recommendation crosses disjoint groups: %+v", rec)
		}
		if rec.Confidence <= 0 || rec.Confidence > 1 {
			t.Fatalf("confidence %v out of (0, 1]: %+v", rec.Confidence, rec)
		}
		if rec.Rationale == "" {
			t.Fatalf("empty rationale: %+v", rec)
		}
	}

	// Each foundation has 2 in-community peers: 6*2 rows per type.
	if byType[types.RecPeerFunder] != 12 {
		t.Fatalf("PEER_FUNDER rows = %d, want 12", byType[types.RecPeerFunder])
	}
	if byType[types.RecClusterMember] != 12 {
		t.Fatalf("CLUSTER_MEMBER rows = %d, want 12", byType[types.RecClusterMember])
	}
	if byType[types.RecHighOverlap] != 12 {
		t.Fatalf("HIGH_OVERLAP rows = %d, want 12", byType[types.RecHighOverlap])
	}
	if byType[types.RecBridgeFunder] != 0 {
		t.Fatalf("BRIDGE_FUNDER rows = %d, want 0", byType[types.RecBridgeFunder])
	}
}

func TestAnalyzeCoFundingDeterministic(t *testing.T) {
	first := AnalyzeCoFunding(disjointFunderGroups(), config.Defaults())
	for i := 0; i < 5; i++ {
		again := AnalyzeCoFunding(disjointFunderGroups(), config.Defaults())
		if !reflect.DeepEqual(first.Output, again.Output) {
			t.Fatalf("run %d output differs from first run", i)
		}
		if !reflect.DeepEqual(first.Centrality, again.Centrality) {
			t.Fatalf("run %d centrality differs from first run", i)
		}
	}
}

func TestAnalyzeCoFundingTooFewFoundations(t *testing.T) {
	g := analysis.NewGraph()
	g.AddNode(analysis.Node{ID: "F1", Type: types.NodeTypeFoundation})
	g.AddNode(analysis.Node{ID: "G1", Type: types.NodeTypeGrantee})
	g.AddGrant("F1", "G1", 2023, 1000)
	g.Freeze()

	res := AnalyzeCoFunding(g, config.Defaults())
	if len(res.Output.FunderSimilarities) != 0 || len(res.Output.PeerFunderGroups) != 0 {
		t.Fatalf("single-foundation analysis produced output: %+v", res.Output)
	}
	if !res.Output.Converged {
		t.Fatalf("trivial analysis should report converged")
	}
}
