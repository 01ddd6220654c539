package types

import (
	"time"

	"gorm.io/datatypes"
)

type NodeType string

const (
	NodeTypeFoundation NodeType = "foundation"
	NodeTypeGrantee    NodeType = "grantee"
	NodeTypePerson     NodeType = "person"
)

type EdgeType string

const (
	EdgeTypeGrant       EdgeType = "grant"
	EdgeTypeBoardMember EdgeType = "board_member"
	EdgeTypePartnership EdgeType = "partnership"
)

// GraphNode is the persisted node store. Nodes accumulate across
// ingestion batches and are never deleted; newer writes supersede by
// LastUpdated. Centrality fields are written only by the co-funding
// analyzer's persistence step.
type GraphNode struct {
	NodeID         string         `gorm:"column:node_id;primaryKey" json:"node_id"`
	NodeType       NodeType       `gorm:"column:node_type;not null;index:idx_graph_node_type" json:"node_type"`
	Name           string         `gorm:"column:name;not null" json:"name"`
	NormalizedName string         `gorm:"column:normalized_name;index:idx_graph_node_norm_name" json:"normalized_name"`
	Attributes     datatypes.JSON `gorm:"column:attributes;type:jsonb" json:"attributes,omitempty"`

	DegreeCentrality      float64 `gorm:"column:degree_centrality" json:"degree_centrality"`
	BetweennessCentrality float64 `gorm:"column:betweenness_centrality" json:"betweenness_centrality"`
	ClosenessCentrality   float64 `gorm:"column:closeness_centrality" json:"closeness_centrality"`
	PageRank              float64 `gorm:"column:pagerank" json:"pagerank"`
	InfluenceScore        float64 `gorm:"column:influence_score" json:"influence_score"`

	DataSource  string    `gorm:"column:data_source" json:"data_source"`
	LastUpdated time.Time `gorm:"column:last_updated;not null" json:"last_updated"`
}

func (GraphNode) TableName() string { return "graph_node" }

// GraphEdge is the persisted edge store, unique on (from, to, type).
// Weight and the year range grow monotonically as new tax years are
// ingested.
type GraphEdge struct {
	FromNode string         `gorm:"column:from_node;primaryKey" json:"from_node"`
	ToNode   string         `gorm:"column:to_node;primaryKey" json:"to_node"`
	EdgeType EdgeType       `gorm:"column:edge_type;primaryKey" json:"edge_type"`
	Weight   float64        `gorm:"column:weight;not null" json:"weight"`
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	FirstYear int `gorm:"column:first_year" json:"first_year"`
	LastYear  int `gorm:"column:last_year" json:"last_year"`

	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (GraphEdge) TableName() string { return "graph_edge" }
