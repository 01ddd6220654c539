package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fundlens/fundlens-backend/internal/platform/logger"
	"github.com/fundlens/fundlens-backend/internal/types"
)

type GrantRecordRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, records []types.GrantRecord) error
	ListByFoundations(ctx context.Context, tx *gorm.DB, foundationIDs []string, taxYears []int) ([]types.GrantRecord, error)
}

type grantRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGrantRecordRepo(db *gorm.DB, baseLog *logger.Logger) GrantRecordRepo {
	return &grantRecordRepo{
		db:  db,
		log: baseLog.With("repo", "GrantRecordRepo"),
	}
}

func (r *grantRecordRepo) CreateBatch(ctx context.Context, tx *gorm.DB, records []types.GrantRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range records {
		if records[i].ID == uuid.Nil {
			records[i].ID = uuid.New()
		}
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
	}
	return transaction.WithContext(ctx).CreateInBatches(records, 500).Error
}

func (r *grantRecordRepo) ListByFoundations(ctx context.Context, tx *gorm.DB, foundationIDs []string, taxYears []int) ([]types.GrantRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(foundationIDs) == 0 {
		return nil, nil
	}
	q := transaction.WithContext(ctx).Where("foundation_id IN ?", foundationIDs)
	if len(taxYears) > 0 {
		q = q.Where("tax_year IN ?", taxYears)
	}
	var rows []types.GrantRecord
	if err := q.Order("tax_year ASC, foundation_id ASC, grantee_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
