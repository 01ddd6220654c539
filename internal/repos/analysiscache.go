package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fundlens/fundlens-backend/internal/platform/logger"
	"github.com/fundlens/fundlens-backend/internal/types"
)

type AnalysisCacheRepo interface {
	GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.AnalysisCacheEntry, error)
	Put(ctx context.Context, tx *gorm.DB, entry *types.AnalysisCacheEntry) error
	Touch(ctx context.Context, tx *gorm.DB, key string) error
	DeleteByFoundations(ctx context.Context, tx *gorm.DB, foundationIDs []string) ([]string, error)
}

type analysisCacheRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalysisCacheRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisCacheRepo {
	return &analysisCacheRepo{
		db:  db,
		log: baseLog.With("repo", "AnalysisCacheRepo"),
	}
}

func (r *analysisCacheRepo) GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.AnalysisCacheEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.AnalysisCacheEntry
	err := transaction.WithContext(ctx).
		Where("cache_key = ?", key).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// Put supersedes any existing row for the same key in place.
func (r *analysisCacheRepo) Put(ctx context.Context, tx *gorm.DB, entry *types.AnalysisCacheEntry) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"foundation_ids", "tax_years", "min_foundations", "serialized_result",
				"bundled_grantees_count", "total_grants_analyzed", "processing_time_seconds",
				"created_at", "expires_at", "hit_count", "last_accessed",
			}),
		}).
		Create(entry).Error
}

// Touch bumps hit_count and last_accessed on a cache hit.
func (r *analysisCacheRepo) Touch(ctx context.Context, tx *gorm.DB, key string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	return transaction.WithContext(ctx).
		Model(&types.AnalysisCacheEntry{}).
		Where("cache_key = ?", key).
		Updates(map[string]interface{}{
			"hit_count":     gorm.Expr("hit_count + 1"),
			"last_accessed": now,
		}).Error
}

// DeleteByFoundations drops every cache row whose foundation set
// intersects the re-ingested foundations and returns the dropped cache
// keys so layered caches can purge the same entries.
func (r *analysisCacheRepo) DeleteByFoundations(ctx context.Context, tx *gorm.DB, foundationIDs []string) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(foundationIDs) == 0 {
		return nil, nil
	}
	var rows []types.AnalysisCacheEntry
	if err := transaction.WithContext(ctx).Select("id", "cache_key", "foundation_ids").Find(&rows).Error; err != nil {
		return nil, err
	}
	targets := make(map[string]bool, len(foundationIDs))
	for _, id := range foundationIDs {
		targets[id] = true
	}
	var doomed []uuid.UUID
	var keys []string
	for _, row := range rows {
		for _, id := range decodeStringSlice(row.FoundationIDs) {
			if targets[id] {
				doomed = append(doomed, row.ID)
				keys = append(keys, row.CacheKey)
				break
			}
		}
	}
	if len(doomed) == 0 {
		return nil, nil
	}
	if err := transaction.WithContext(ctx).Where("id IN ?", doomed).Delete(&types.AnalysisCacheEntry{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
