package steps

import (
	"testing"

	"github.com/fundlens/fundlens-backend/internal/config"
	"github.com/fundlens/fundlens-backend/internal/platform/logger"
	"github.com/fundlens/fundlens-backend/internal/types"
)

func TestBuildGraphRejectsMalformedRecords(t *testing.T) {
	records := []types.GrantRecord{
		{FoundationID: "", GranteeName: "No Funder Org", Amount: 1000, TaxYear: 2023},
		{FoundationID: "F1", GranteeName: "Zero Grant Org", Amount: 0, TaxYear: 2023},
		{FoundationID: "F1", GranteeName: "Negative Org", Amount: -50, TaxYear: 2023},
		{FoundationID: "F1", GranteeName: "", Amount: 1000, TaxYear: 2023},
		{FoundationID: "F1", GranteeID: "11-1111111", GranteeName: "Good Org", Amount: 1000, TaxYear: 2023},
	}

	res := BuildGraph(logger.NewNop(), config.Defaults(), records)
	if len(res.Rejected) != 4 {
		t.Fatalf("rejected = %d, want 4", len(res.Rejected))
	}
	wantReasons := []analysisReject{
		{0, "missing_foundation_id"},
		{1, "non_positive_amount"},
		{2, "non_positive_amount"},
		{3, "missing_grantee_name"},
	}
	for i, want := range wantReasons {
		got := res.Rejected[i]
		if got.Index != want.index || string(got.Reason) != want.reason {
			t.Fatalf("rejected[%d] = {%d %s}, want {%d %s}", i, got.Index, got.Reason, want.index, want.reason)
		}
	}
	if res.Graph.GrantCount() != 1 {
		t.Fatalf("grant count = %d, want 1", res.Graph.GrantCount())
	}
}

type analysisReject struct {
	index  int
	reason string
}

func TestBuildGraphResolvesByEIN(t *testing.T) {
	records := []types.GrantRecord{
		{FoundationID: "F1", GranteeID: "11-1111111", GranteeName: "Habitat for Humanity Inc", Amount: 1000, TaxYear: 2022},
		{FoundationID: "F2", GranteeID: "11-1111111", GranteeName: "HABITAT FOR HUMANITY", Amount: 2000, TaxYear: 2023},
	}
	res := BuildGraph(logger.NewNop(), config.Defaults(), records)
	grantees := res.Graph.GranteeIDs()
	if len(grantees) != 1 || grantees[0] != "11-1111111" {
		t.Fatalf("grantees = %v, want single EIN node", grantees)
	}
	if got := len(res.Graph.GrantsTo("11-1111111")); got != 2 {
		t.Fatalf("funders of merged grantee = %d, want 2", got)
	}
}

func TestBuildGraphResolvesByNameMatch(t *testing.T) {
	records := []types.GrantRecord{
		{FoundationID: "F1", GranteeID: "11-1111111", GranteeName: "Habitat for Humanity", Amount: 1000, TaxYear: 2022},
		{FoundationID: "F2", GranteeName: "Habitat for Humanity, Inc.", Amount: 2000, TaxYear: 2023},
	}
	res := BuildGraph(logger.NewNop(), config.Defaults(), records)
	grantees := res.Graph.GranteeIDs()
	if len(grantees) != 1 || grantees[0] != "11-1111111" {
		t.Fatalf("grantees = %v, want name-only record folded into EIN node", grantees)
	}
	e := res.Graph.GrantsTo("11-1111111")["F2"]
	if e == nil || e.Weight != 2000 {
		t.Fatalf("name-matched grant not attached to EIN node: %+v", e)
	}
}

func TestBuildGraphKeepsDistinctNamesApart(t *testing.T) {
	records := []types.GrantRecord{
		{FoundationID: "F1", GranteeName: "Springfield Food Bank", Amount: 1000, TaxYear: 2023},
		{FoundationID: "F2", GranteeName: "Denver Animal Shelter", Amount: 2000, TaxYear: 2023},
	}
	res := BuildGraph(logger.NewNop(), config.Defaults(), records)
	if got := len(res.Graph.GranteeIDs()); got != 2 {
		t.Fatalf("grantees = %d, want 2 distinct name nodes", got)
	}
}

func TestBuildGraphStoreRows(t *testing.T) {
	records := []types.GrantRecord{
		{FoundationID: "F1", FoundationName: "Alpha Foundation", GranteeID: "11-1111111", GranteeName: "Good Org", Amount: 1000, TaxYear: 2022},
		{FoundationID: "F1", FoundationName: "Alpha Foundation", GranteeID: "11-1111111", GranteeName: "Good Org", Amount: 500, TaxYear: 2023},
	}
	res := BuildGraph(logger.NewNop(), config.Defaults(), records)
	if len(res.Nodes) != 2 {
		t.Fatalf("node rows = %d, want 2", len(res.Nodes))
	}
	if len(res.Edges) != 1 {
		t.Fatalf("edge rows = %d, want 1", len(res.Edges))
	}
	edge := res.Edges[0]
	if edge.Weight != 1500 || edge.FirstYear != 2022 || edge.LastYear != 2023 {
		t.Fatalf("edge row = %+v, want weight 1500 across 2022-2023", edge)
	}
}
