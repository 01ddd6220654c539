package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fundlens/fundlens-backend/internal/platform/logger"
	"github.com/fundlens/fundlens-backend/internal/types"
)

type GraphEdgeRepo interface {
	UpsertBatch(ctx context.Context, tx *gorm.DB, edges []types.GraphEdge) error
	GetByFromNodes(ctx context.Context, tx *gorm.DB, fromNodes []string) ([]types.GraphEdge, error)
}

type graphEdgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGraphEdgeRepo(db *gorm.DB, baseLog *logger.Logger) GraphEdgeRepo {
	return &graphEdgeRepo{
		db:  db,
		log: baseLog.With("repo", "GraphEdgeRepo"),
	}
}

// UpsertBatch merges edges keyed by (from, to, type). Weight accumulates
// and the year range only widens; re-ingesting a year never shrinks
// either.
func (r *graphEdgeRepo) UpsertBatch(ctx context.Context, tx *gorm.DB, edges []types.GraphEdge) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(edges) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range edges {
		e := edges[i]
		e.UpdatedAt = now
		err := transaction.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "from_node"}, {Name: "to_node"}, {Name: "edge_type"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"weight":     gorm.Expr("graph_edge.weight + ?", e.Weight),
					"metadata":   e.Metadata,
					"first_year": gorm.Expr("CASE WHEN graph_edge.first_year = 0 OR graph_edge.first_year > ? THEN ? ELSE graph_edge.first_year END", e.FirstYear, e.FirstYear),
					"last_year":  gorm.Expr("CASE WHEN graph_edge.last_year < ? THEN ? ELSE graph_edge.last_year END", e.LastYear, e.LastYear),
					"updated_at": now,
				}),
			}).
			Create(&e).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *graphEdgeRepo) GetByFromNodes(ctx context.Context, tx *gorm.DB, fromNodes []string) ([]types.GraphEdge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(fromNodes) == 0 {
		return nil, nil
	}
	var rows []types.GraphEdge
	err := transaction.WithContext(ctx).
		Where("from_node IN ?", fromNodes).
		Order("from_node ASC, to_node ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
