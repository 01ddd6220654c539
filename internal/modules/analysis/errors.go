package analysis

import "errors"

// ErrInvalidRequest marks requests that are rejected outright; every
// other issue in the pipeline is recovered locally or degrades.
var ErrInvalidRequest = errors.New("analysis: invalid request")

type RejectReason string

const (
	RejectMissingFoundationID RejectReason = "missing_foundation_id"
	RejectNonPositiveAmount   RejectReason = "non_positive_amount"
	RejectMissingGranteeName  RejectReason = "missing_grantee_name"
)

// RejectedRecord is one malformed grant record skipped during graph
// building. Rejections are never fatal to the batch.
type RejectedRecord struct {
	Index        int          `json:"index"`
	FoundationID string       `json:"foundation_id,omitempty"`
	GranteeName  string       `json:"grantee_name,omitempty"`
	Reason       RejectReason `json:"reason"`
}

// Pipeline stage names used for incomplete-result reporting.
const (
	StageBundling  = "bundling"
	StageOverlap   = "overlap"
	StageThematic  = "thematic"
	StageCoFunding = "co_funding"
)
