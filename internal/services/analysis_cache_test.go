package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/fundlens/fundlens-backend/internal/config"
	"github.com/fundlens/fundlens-backend/internal/modules/analysis"
	"github.com/fundlens/fundlens-backend/internal/platform/logger"
	"github.com/fundlens/fundlens-backend/internal/repos"
	"github.com/fundlens/fundlens-backend/internal/types"
)

type fakeCacheRepo struct {
	entries map[string]*types.AnalysisCacheEntry
	touched map[string]int
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{
		entries: map[string]*types.AnalysisCacheEntry{},
		touched: map[string]int{},
	}
}

func (f *fakeCacheRepo) GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.AnalysisCacheEntry, error) {
	return f.entries[key], nil
}

func (f *fakeCacheRepo) Put(ctx context.Context, tx *gorm.DB, entry *types.AnalysisCacheEntry) error {
	f.entries[entry.CacheKey] = entry
	return nil
}

func (f *fakeCacheRepo) Touch(ctx context.Context, tx *gorm.DB, key string) error {
	f.touched[key]++
	return nil
}

func (f *fakeCacheRepo) DeleteByFoundations(ctx context.Context, tx *gorm.DB, foundationIDs []string) ([]string, error) {
	targets := make(map[string]bool, len(foundationIDs))
	for _, id := range foundationIDs {
		targets[id] = true
	}
	var keys []string
	for key := range f.entries {
		if targets[key[:2]] {
			keys = append(keys, key)
			delete(f.entries, key)
		}
	}
	return keys, nil
}

var _ repos.AnalysisCacheRepo = (*fakeCacheRepo)(nil)

func newCacheService(repo *fakeCacheRepo) AnalysisCacheService {
	return NewAnalysisCacheService(nil, logger.NewNop(), config.Defaults(), repo, nil)
}

func completeResult() *types.AnalysisResult {
	return &types.AnalysisResult{
		BundledGranteesCount: 3,
		TotalGrantsAnalyzed:  12,
		ComputedAt:           time.Now().UTC(),
	}
}

func TestCacheServicePutGetRoundtrip(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := newCacheService(repo)
	req := analysis.Request{FoundationIDs: []string{"F1", "F2"}, MinFoundations: 2}

	svc.Put(context.Background(), nil, req, "key1", completeResult())

	result, ok := svc.Get(context.Background(), nil, "key1")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if result.BundledGranteesCount != 3 || result.TotalGrantsAnalyzed != 12 {
		t.Fatalf("cached result = %+v", result)
	}
	if repo.touched["key1"] != 1 {
		t.Fatalf("touch count = %d, want 1", repo.touched["key1"])
	}
}

func TestCacheServiceMiss(t *testing.T) {
	svc := newCacheService(newFakeCacheRepo())
	if _, ok := svc.Get(context.Background(), nil, "absent"); ok {
		t.Fatalf("expected miss for absent key")
	}
}

func TestCacheServiceExpiredEntryIsMiss(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := newCacheService(repo)
	req := analysis.Request{FoundationIDs: []string{"F1"}, MinFoundations: 2}

	svc.Put(context.Background(), nil, req, "key1", completeResult())
	repo.entries["key1"].ExpiresAt = time.Now().UTC().Add(-time.Minute)

	if _, ok := svc.Get(context.Background(), nil, "key1"); ok {
		t.Fatalf("expired entry served as hit")
	}
	if repo.touched["key1"] != 0 {
		t.Fatalf("expired entry was touched")
	}
}

func TestCacheServiceCorruptEntryIsMiss(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := newCacheService(repo)

	repo.entries["key1"] = &types.AnalysisCacheEntry{
		CacheKey:         "key1",
		SerializedResult: []byte("{not json"),
		ExpiresAt:        time.Now().UTC().Add(time.Hour),
	}
	if _, ok := svc.Get(context.Background(), nil, "key1"); ok {
		t.Fatalf("corrupt entry served as hit")
	}
}

func TestCacheServiceSkipsIncompleteResults(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := newCacheService(repo)
	req := analysis.Request{FoundationIDs: []string{"F1"}, MinFoundations: 2}

	partial := completeResult()
	partial.Incomplete = true
	partial.IncompleteStages = []string{analysis.StageCoFunding}
	svc.Put(context.Background(), nil, req, "key1", partial)

	if len(repo.entries) != 0 {
		t.Fatalf("partial result was stored")
	}
}

func TestCacheServiceInvalidate(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := newCacheService(repo)

	// Fake repo matches on the key's first two characters.
	repo.entries["F1-a"] = &types.AnalysisCacheEntry{CacheKey: "F1-a"}
	repo.entries["F2-b"] = &types.AnalysisCacheEntry{CacheKey: "F2-b"}

	dropped, err := svc.Invalidate(context.Background(), nil, []string{"F1"})
	if err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}
	if _, ok := repo.entries["F2-b"]; !ok {
		t.Fatalf("unrelated entry was dropped")
	}
}
