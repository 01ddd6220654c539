package steps

import (
	"testing"

	"github.com/fundlens/fundlens-backend/internal/config"
	"github.com/fundlens/fundlens-backend/internal/modules/analysis"
	"github.com/fundlens/fundlens-backend/internal/types"
)

func addGrantee(g *analysis.Graph, id, ntee, state, purpose string, amount float64) {
	g.AddNode(analysis.Node{ID: "F1", Type: types.NodeTypeFoundation, Name: "F1"})
	g.AddNode(analysis.Node{ID: id, Type: types.NodeTypeGrantee, Name: id, NTEECode: ntee, State: state})
	g.AddGranteePurpose(id, purpose)
	g.AddGrant("F1", id, 2023, amount)
}

func TestClusterGranteesByNTEEAndKeyword(t *testing.T) {
	g := analysis.NewGraph()
	addGrantee(g, "G1", "K31", "CA", "food assistance and food distribution", 10000)
	addGrantee(g, "G2", "K31", "CA", "food pantry and food shelf network", 20000)
	addGrantee(g, "G3", "B21", "NY", "education scholarships and education access", 5000)
	addGrantee(g, "G4", "B21", "NY", "education equity and education outreach", 4000)
	g.Freeze()

	out := ClusterGrantees(g, config.Defaults())
	if len(out) != 2 {
		t.Fatalf("clusters = %d, want 2", len(out))
	}
	// Sorted by total funding descending.
	if out[0].ClusterID != "K31:food" {
		t.Fatalf("first cluster = %s, want K31:food", out[0].ClusterID)
	}
	if out[0].TotalFunding != 30000 || out[0].GranteeCount != 2 {
		t.Fatalf("food cluster = %+v", out[0])
	}
	if out[1].ClusterID != "B21:education" {
		t.Fatalf("second cluster = %s, want B21:education", out[1].ClusterID)
	}
	if out[0].TopState != "CA" || out[0].TopStateShare != 1.0 {
		t.Fatalf("food cluster geography = %s %v", out[0].TopState, out[0].TopStateShare)
	}
}

func TestClusterGranteesFoldsSmallClusters(t *testing.T) {
	g := analysis.NewGraph()
	addGrantee(g, "G1", "K31", "CA", "food assistance", 10000)
	addGrantee(g, "G2", "K31", "CA", "food assistance", 20000)
	addGrantee(g, "G3", "X99", "TX", "rodeo preservation", 100)
	g.Freeze()

	out := ClusterGrantees(g, config.Defaults())
	if len(out) != 2 {
		t.Fatalf("clusters = %d, want food plus Other", len(out))
	}
	var other *types.ThematicCluster
	for i := range out {
		if out[i].ClusterID == "other" {
			other = &out[i]
		}
	}
	if other == nil {
		t.Fatalf("no Other cluster in %+v", out)
	}
	if other.GranteeCount != 1 || other.GranteeIDs[0] != "G3" {
		t.Fatalf("Other cluster = %+v, want just G3", other)
	}
}

func TestClusterGranteesMissingNTEE(t *testing.T) {
	g := analysis.NewGraph()
	addGrantee(g, "G1", "", "CA", "community theater productions", 1000)
	addGrantee(g, "G2", "", "CA", "community theater outreach", 1000)
	g.Freeze()

	out := ClusterGrantees(g, config.Defaults())
	if len(out) != 1 {
		t.Fatalf("clusters = %d, want 1", len(out))
	}
	if out[0].ClusterID != "unknown:community" && out[0].ClusterID != "unknown:theater" {
		t.Fatalf("cluster id = %s, want unknown NTEE bucket", out[0].ClusterID)
	}
}

func TestDominantKeywordSkipsStopwords(t *testing.T) {
	got := dominantKeyword([]string{"general operating support", "general operating support"})
	if got != "general" {
		// "general", "operating", "support" are all stopwords; the
		// fallback keyword applies.
		t.Fatalf("keyword = %q, want fallback general", got)
	}
	if kw := dominantKeyword([]string{"after school tutoring", "math tutoring"}); kw != "tutoring" {
		t.Fatalf("keyword = %q, want tutoring", kw)
	}
}
