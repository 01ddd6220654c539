package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fundlens/fundlens-backend/internal/platform/logger"
	"github.com/fundlens/fundlens-backend/internal/types"
)

type GraphNodeRepo interface {
	UpsertBatch(ctx context.Context, tx *gorm.DB, nodes []types.GraphNode) error
	GetByType(ctx context.Context, tx *gorm.DB, nodeType types.NodeType) ([]types.GraphNode, error)
	GetByNormalizedNames(ctx context.Context, tx *gorm.DB, names []string) ([]types.GraphNode, error)
	UpdateCentrality(ctx context.Context, tx *gorm.DB, nodes []types.GraphNode) error
}

type graphNodeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGraphNodeRepo(db *gorm.DB, baseLog *logger.Logger) GraphNodeRepo {
	return &graphNodeRepo{
		db:  db,
		log: baseLog.With("repo", "GraphNodeRepo"),
	}
}

func (r *graphNodeRepo) UpsertBatch(ctx context.Context, tx *gorm.DB, nodes []types.GraphNode) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(nodes) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range nodes {
		if nodes[i].LastUpdated.IsZero() {
			nodes[i].LastUpdated = now
		}
	}
	// Centrality columns are owned by the co-funding analyzer; an
	// ingestion upsert must not zero them out.
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "node_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"node_type", "name", "normalized_name", "attributes", "data_source", "last_updated",
			}),
		}).
		CreateInBatches(nodes, 500).Error
}

func (r *graphNodeRepo) GetByType(ctx context.Context, tx *gorm.DB, nodeType types.NodeType) ([]types.GraphNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []types.GraphNode
	err := transaction.WithContext(ctx).
		Where("node_type = ?", nodeType).
		Order("node_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *graphNodeRepo) GetByNormalizedNames(ctx context.Context, tx *gorm.DB, names []string) ([]types.GraphNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(names) == 0 {
		return nil, nil
	}
	var rows []types.GraphNode
	err := transaction.WithContext(ctx).
		Where("normalized_name IN ?", names).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateCentrality overwrites the centrality columns by node id with a
// fresh last_updated stamp. Overwrite-by-timestamp, never
// read-modify-write.
func (r *graphNodeRepo) UpdateCentrality(ctx context.Context, tx *gorm.DB, nodes []types.GraphNode) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	for _, n := range nodes {
		if n.NodeID == "" {
			continue
		}
		err := transaction.WithContext(ctx).
			Model(&types.GraphNode{}).
			Where("node_id = ?", n.NodeID).
			Updates(map[string]interface{}{
				"degree_centrality":      n.DegreeCentrality,
				"betweenness_centrality": n.BetweennessCentrality,
				"closeness_centrality":   n.ClosenessCentrality,
				"pagerank":               n.PageRank,
				"influence_score":        n.InfluenceScore,
				"last_updated":           now,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
