package types

import "time"

// FundingStability classifies a bundled grantee's funding trajectory
// over the analyzed tax-year window.
type FundingStability string

const (
	StabilityStable    FundingStability = "STABLE"
	StabilityGrowing   FundingStability = "GROWING"
	StabilityDeclining FundingStability = "DECLINING"
	StabilityNew       FundingStability = "NEW"
	StabilitySporadic  FundingStability = "SPORADIC"
)

// FundingSource is one foundation's contribution to a bundled grantee.
type FundingSource struct {
	FoundationID   string          `json:"foundation_id"`
	FoundationName string          `json:"foundation_name"`
	AmountsByYear  map[int]float64 `json:"amounts_by_year"`
	TotalAmount    float64         `json:"total_amount"`
}

// BundledGrantee is an organization funded by at least the requested
// minimum number of foundations.
type BundledGrantee struct {
	GranteeID        string           `json:"grantee_id"`
	GranteeName      string           `json:"grantee_name"`
	FundingSources   []FundingSource  `json:"funding_sources"`
	TotalFunding     float64          `json:"total_funding"`
	FundingStability FundingStability `json:"funding_stability"`
	FoundationCount  int              `json:"foundation_count"`
}

// FoundationOverlap is a canonical foundation pair (smaller id first)
// with the intersection of their grantee portfolios. OverlapPercentage
// is relative to the smaller portfolio.
type FoundationOverlap struct {
	FoundationA       string   `json:"foundation_a"`
	FoundationB       string   `json:"foundation_b"`
	SharedGrantees    int      `json:"shared_grantees"`
	OverlapPercentage float64  `json:"overlap_percentage"`
	SharedGranteeIDs  []string `json:"shared_grantee_ids"`
}

type ThematicCluster struct {
	ClusterID         string   `json:"cluster_id"`
	Label             string   `json:"label"`
	GranteeIDs        []string `json:"grantee_ids"`
	GranteeCount      int      `json:"grantee_count"`
	TotalFunding      float64  `json:"total_funding"`
	DominantNTEECodes []string `json:"dominant_ntee_codes"`
	TopState          string   `json:"top_state,omitempty"`
	TopStateShare     float64  `json:"top_state_share,omitempty"`
}

type FunderSimilarity struct {
	FoundationA    string  `json:"foundation_a"`
	FoundationB    string  `json:"foundation_b"`
	Score          float64 `json:"score"`
	SharedGrantees int     `json:"shared_grantees"`
}

type PeerFunderGroup struct {
	GroupID              string   `json:"group_id"`
	MemberIDs            []string `json:"member_ids"`
	Modularity           float64  `json:"modularity"`
	RepresentativeThemes []string `json:"representative_themes"`
}

// RecommendationType is a closed enum; the output boundary switches on
// it exhaustively.
type RecommendationType string

const (
	RecPeerFunder    RecommendationType = "PEER_FUNDER"
	RecClusterMember RecommendationType = "CLUSTER_MEMBER"
	RecBridgeFunder  RecommendationType = "BRIDGE_FUNDER"
	RecHighOverlap   RecommendationType = "HIGH_OVERLAP"
)

type FunderRecommendation struct {
	SourceFoundation      string             `json:"source_foundation"`
	RecommendedFoundation string             `json:"recommended_foundation"`
	Type                  RecommendationType `json:"type"`
	Rationale             string             `json:"rationale"`
	Confidence            float64            `json:"confidence"`
}

// GranteeBundlingOutput is the portfolio half of the downstream
// contract.
type GranteeBundlingOutput struct {
	BundledGrantees    []BundledGrantee    `json:"bundled_grantees"`
	FoundationOverlaps []FoundationOverlap `json:"foundation_overlaps"`
	ThematicClusters   []ThematicCluster   `json:"thematic_clusters"`
}

// CoFundingAnalysisOutput is the structural half. Converged is false
// when community detection hit its iteration cap; recommendation
// confidences are lowered in that case.
type CoFundingAnalysisOutput struct {
	FunderSimilarities    []FunderSimilarity     `json:"funder_similarities"`
	PeerFunderGroups      []PeerFunderGroup      `json:"peer_funder_groups"`
	FunderRecommendations []FunderRecommendation `json:"funder_recommendations"`
	BridgeFunders         []string               `json:"bridge_funders"`
	Converged             bool                   `json:"converged"`
}

// AnalysisResult is the merged pipeline output. Incomplete is set when
// the time budget expired before every analyzer finished; the stages
// that did not complete are listed and their sections left empty.
type AnalysisResult struct {
	Bundling  GranteeBundlingOutput   `json:"bundling"`
	CoFunding CoFundingAnalysisOutput `json:"co_funding"`

	Incomplete       bool     `json:"incomplete"`
	IncompleteStages []string `json:"incomplete_stages,omitempty"`

	BundledGranteesCount  int       `json:"bundled_grantees_count"`
	TotalGrantsAnalyzed   int       `json:"total_grants_analyzed"`
	ProcessingTimeSeconds float64   `json:"processing_time_seconds"`
	ComputedAt            time.Time `json:"computed_at"`
}
