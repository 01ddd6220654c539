package services

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	redisclient "github.com/fundlens/fundlens-backend/internal/clients/redis"
	"github.com/fundlens/fundlens-backend/internal/config"
	"github.com/fundlens/fundlens-backend/internal/modules/analysis"
	"github.com/fundlens/fundlens-backend/internal/platform/logger"
	"github.com/fundlens/fundlens-backend/internal/repos"
	"github.com/fundlens/fundlens-backend/internal/types"
)

// AnalysisCacheService layers the optional redis cache over the
// authoritative relational one. Store failures degrade to recompute on
// the next request, never to a request error.
type AnalysisCacheService interface {
	Get(ctx context.Context, tx *gorm.DB, key string) (*types.AnalysisResult, bool)
	Put(ctx context.Context, tx *gorm.DB, req analysis.Request, key string, result *types.AnalysisResult)
	Invalidate(ctx context.Context, tx *gorm.DB, foundationIDs []string) (int, error)
}

type analysisCacheService struct {
	db        *gorm.DB
	log       *logger.Logger
	tuning    config.Tuning
	cacheRepo repos.AnalysisCacheRepo
	redis     *redisclient.Cache
}

func NewAnalysisCacheService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tuning config.Tuning,
	cacheRepo repos.AnalysisCacheRepo,
	redis *redisclient.Cache,
) AnalysisCacheService {
	return &analysisCacheService{
		db:        db,
		log:       baseLog.With("service", "AnalysisCacheService"),
		tuning:    tuning,
		cacheRepo: cacheRepo,
		redis:     redis,
	}
}

func (s *analysisCacheService) Get(ctx context.Context, tx *gorm.DB, key string) (*types.AnalysisResult, bool) {
	if raw, ok := s.redis.Get(ctx, key); ok {
		var result types.AnalysisResult
		if err := json.Unmarshal(raw, &result); err == nil {
			go s.touch(key)
			return &result, true
		}
		s.log.Warn("corrupt redis cache payload, treating as miss", "key", key)
		s.redis.Delete(ctx, key)
	}

	entry, err := s.cacheRepo.GetByKey(ctx, tx, key)
	if err != nil {
		s.log.Warn("cache lookup failed, recomputing", "error", err, "key", key)
		return nil, false
	}
	if entry == nil {
		return nil, false
	}

	remaining := time.Until(entry.ExpiresAt)
	if remaining <= 0 {
		return nil, false
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(entry.SerializedResult, &result); err != nil {
		s.log.Warn("corrupt cache entry, treating as miss", "error", err, "key", key)
		return nil, false
	}

	if err := s.cacheRepo.Touch(ctx, tx, key); err != nil {
		s.log.Warn("cache touch failed", "error", err, "key", key)
	}
	s.redis.Set(ctx, key, entry.SerializedResult, remaining)
	return &result, true
}

func (s *analysisCacheService) Put(ctx context.Context, tx *gorm.DB, req analysis.Request, key string, result *types.AnalysisResult) {
	if result == nil || result.Incomplete {
		// Partial results are returned to the caller but never cached;
		// the next request gets a full attempt.
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		s.log.Warn("cache serialize failed", "error", err, "key", key)
		return
	}
	foundationIDs, _ := json.Marshal(req.FoundationIDs)
	taxYears, _ := json.Marshal(req.TaxYears)

	now := time.Now().UTC()
	entry := &types.AnalysisCacheEntry{
		CacheKey:              key,
		FoundationIDs:         datatypes.JSON(foundationIDs),
		TaxYears:              datatypes.JSON(taxYears),
		MinFoundations:        req.MinFoundations,
		SerializedResult:      payload,
		BundledGranteesCount:  result.BundledGranteesCount,
		TotalGrantsAnalyzed:   result.TotalGrantsAnalyzed,
		ProcessingTimeSeconds: result.ProcessingTimeSeconds,
		CreatedAt:             now,
		ExpiresAt:             now.Add(s.tuning.CacheTTL),
	}
	if err := s.cacheRepo.Put(ctx, tx, entry); err != nil {
		s.log.Warn("cache store failed, result still served", "error", err, "key", key)
		return
	}
	s.redis.Set(ctx, key, payload, s.tuning.CacheTTL)
}

func (s *analysisCacheService) Invalidate(ctx context.Context, tx *gorm.DB, foundationIDs []string) (int, error) {
	keys, err := s.cacheRepo.DeleteByFoundations(ctx, tx, foundationIDs)
	if err != nil {
		return 0, err
	}
	s.redis.Delete(ctx, keys...)
	return len(keys), nil
}

// touch runs off the request path so a redis hit still records usage in
// the relational store.
func (s *analysisCacheService) touch(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.cacheRepo.Touch(ctx, nil, key); err != nil {
		s.log.Warn("cache touch failed", "error", err, "key", key)
	}
}
