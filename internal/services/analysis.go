package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/fundlens/fundlens-backend/internal/config"
	datagraph "github.com/fundlens/fundlens-backend/internal/data/graph"
	"github.com/fundlens/fundlens-backend/internal/modules/analysis"
	"github.com/fundlens/fundlens-backend/internal/modules/analysis/steps"
	"github.com/fundlens/fundlens-backend/internal/platform/logger"
	"github.com/fundlens/fundlens-backend/internal/platform/neo4jdb"
	"github.com/fundlens/fundlens-backend/internal/repos"
	"github.com/fundlens/fundlens-backend/internal/types"
)

// IngestSummary reports what one ingestion batch changed.
type IngestSummary struct {
	RecordsStored    int                       `json:"records_stored"`
	Rejected         []analysis.RejectedRecord `json:"rejected,omitempty"`
	NodesUpserted    int                       `json:"nodes_upserted"`
	EdgesUpserted    int                       `json:"edges_upserted"`
	CacheInvalidated int                       `json:"cache_invalidated"`
}

type AnalysisService interface {
	Run(ctx context.Context, tx *gorm.DB, req analysis.Request) (*types.AnalysisResult, error)
	Ingest(ctx context.Context, tx *gorm.DB, records []types.GrantRecord) (*IngestSummary, error)
}

type analysisService struct {
	db        *gorm.DB
	log       *logger.Logger
	tuning    config.Tuning
	grantRepo repos.GrantRecordRepo
	nodeRepo  repos.GraphNodeRepo
	edgeRepo  repos.GraphEdgeRepo
	cache     AnalysisCacheService
	pool      *ComputePool
	neo4j     *neo4jdb.Client

	group singleflight.Group
}

func NewAnalysisService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tuning config.Tuning,
	grantRepo repos.GrantRecordRepo,
	nodeRepo repos.GraphNodeRepo,
	edgeRepo repos.GraphEdgeRepo,
	cache AnalysisCacheService,
	pool *ComputePool,
	neo4jClient *neo4jdb.Client,
) AnalysisService {
	return &analysisService{
		db:        db,
		log:       baseLog.With("service", "AnalysisService"),
		tuning:    tuning,
		grantRepo: grantRepo,
		nodeRepo:  nodeRepo,
		edgeRepo:  edgeRepo,
		cache:     cache,
		pool:      pool,
		neo4j:     neo4jClient,
	}
}

// Run executes the full pipeline for one request. Identical concurrent
// requests collapse into a single computation; repeated requests are
// served from the cache until it expires or is invalidated.
func (s *analysisService) Run(ctx context.Context, tx *gorm.DB, req analysis.Request) (*types.AnalysisResult, error) {
	req = req.Normalize(s.tuning.DefaultMinFunders)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := req.CacheKey()

	if result, ok := s.cache.Get(ctx, tx, key); ok {
		s.log.Debug("analysis served from cache", "key", key)
		return result, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		if result, ok := s.cache.Get(ctx, tx, key); ok {
			return result, nil
		}
		result, err := s.compute(ctx, tx, req)
		if err != nil {
			return nil, err
		}
		s.cache.Put(ctx, tx, req, key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.AnalysisResult), nil
}

func (s *analysisService) compute(ctx context.Context, tx *gorm.DB, req analysis.Request) (*types.AnalysisResult, error) {
	started := time.Now()

	records, err := s.grantRepo.ListByFoundations(ctx, tx, req.FoundationIDs, req.TaxYears)
	if err != nil {
		s.log.Warn("compute: load grant records failed", "error", err)
		return nil, err
	}

	build := steps.BuildGraph(s.log, s.tuning, records)
	g := build.Graph

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = s.tuning.PipelineTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Analyzer stages run concurrently over the frozen snapshot. Each
	// stage publishes its output under the mutex before marking itself
	// complete, so a timed-out run can safely read whatever finished.
	var (
		mu        sync.Mutex
		completed = make(map[string]bool, 4)
		bundled   []types.BundledGrantee
		overlaps  []types.FoundationOverlap
		clusters  []types.ThematicCluster
		cofunding *steps.CoFundingResult
	)

	var wg sync.WaitGroup
	runStage := func(stage string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.pool.Do(runCtx, func() error {
				fn()
				return nil
			})
			if err != nil {
				s.log.Warn("analyzer stage skipped", "stage", stage, "error", err)
			}
		}()
	}

	runStage(analysis.StageBundling, func() {
		out := steps.FindBundledGrantees(g, s.tuning, req.MinFoundations)
		mu.Lock()
		bundled = out
		completed[analysis.StageBundling] = true
		mu.Unlock()
	})
	runStage(analysis.StageOverlap, func() {
		out := steps.ComputeOverlaps(g)
		mu.Lock()
		overlaps = out
		completed[analysis.StageOverlap] = true
		mu.Unlock()
	})
	runStage(analysis.StageThematic, func() {
		out := steps.ClusterGrantees(g, s.tuning)
		mu.Lock()
		clusters = out
		completed[analysis.StageThematic] = true
		mu.Unlock()
	})
	runStage(analysis.StageCoFunding, func() {
		out := steps.AnalyzeCoFunding(g, s.tuning)
		mu.Lock()
		cofunding = out
		completed[analysis.StageCoFunding] = true
		mu.Unlock()
	})

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()
	select {
	case <-allDone:
	case <-runCtx.Done():
	}

	mu.Lock()
	result := &types.AnalysisResult{
		TotalGrantsAnalyzed:   g.GrantCount(),
		ProcessingTimeSeconds: time.Since(started).Seconds(),
		ComputedAt:            time.Now().UTC(),
	}
	for _, stage := range []string{analysis.StageBundling, analysis.StageOverlap, analysis.StageThematic, analysis.StageCoFunding} {
		if !completed[stage] {
			result.Incomplete = true
			result.IncompleteStages = append(result.IncompleteStages, stage)
		}
	}
	if completed[analysis.StageBundling] {
		result.Bundling.BundledGrantees = bundled
		result.BundledGranteesCount = len(bundled)
	}
	if completed[analysis.StageOverlap] {
		result.Bundling.FoundationOverlaps = overlaps
	}
	if completed[analysis.StageThematic] {
		result.Bundling.ThematicClusters = clusters
	}
	var centrality map[string]steps.NodeCentrality
	if completed[analysis.StageCoFunding] && cofunding != nil {
		result.CoFunding = cofunding.Output
		centrality = cofunding.Centrality
	} else {
		result.CoFunding.Converged = false
	}
	mu.Unlock()

	if result.Incomplete {
		s.log.Warn("analysis timed out, returning partial result",
			"incomplete_stages", result.IncompleteStages,
			"timeout", timeout,
		)
	}

	if len(centrality) > 0 {
		s.persistCentrality(ctx, tx, centrality)
	}
	return result, nil
}

// persistCentrality writes the analyzer's scores back to the node store
// and mirrors them to neo4j. Best-effort: the analysis result has
// already been computed.
func (s *analysisService) persistCentrality(ctx context.Context, tx *gorm.DB, centrality map[string]steps.NodeCentrality) {
	nodes := make([]types.GraphNode, 0, len(centrality))
	for id, c := range centrality {
		nodes = append(nodes, types.GraphNode{
			NodeID:                id,
			DegreeCentrality:      c.Degree,
			BetweennessCentrality: c.Betweenness,
			ClosenessCentrality:   c.Closeness,
			PageRank:              c.PageRank,
			InfluenceScore:        c.Influence,
		})
	}
	if err := s.nodeRepo.UpdateCentrality(ctx, tx, nodes); err != nil {
		s.log.Warn("centrality write-back failed", "error", err, "nodes", len(nodes))
	}
}

// Ingest stores a batch of grant records, folds them into the persisted
// graph, and drops any cached analyses they affect.
func (s *analysisService) Ingest(ctx context.Context, tx *gorm.DB, records []types.GrantRecord) (*IngestSummary, error) {
	build := steps.BuildGraph(s.log, s.tuning, records)
	summary := &IngestSummary{Rejected: build.Rejected}

	rejected := make(map[int]bool, len(build.Rejected))
	for _, r := range build.Rejected {
		rejected[r.Index] = true
	}
	accepted := make([]types.GrantRecord, 0, len(records))
	foundationSet := make(map[string]bool)
	for i, rec := range records {
		if rejected[i] {
			continue
		}
		if rec.NormalizedGranteeName == "" {
			rec.NormalizedGranteeName = steps.NormalizeName(rec.GranteeName)
		}
		accepted = append(accepted, rec)
		foundationSet[rec.FoundationID] = true
	}
	if len(accepted) == 0 {
		return summary, nil
	}

	if err := s.grantRepo.CreateBatch(ctx, tx, accepted); err != nil {
		s.log.Warn("Ingest: store grant records failed", "error", err)
		return nil, err
	}
	summary.RecordsStored = len(accepted)

	if err := s.nodeRepo.UpsertBatch(ctx, tx, build.Nodes); err != nil {
		s.log.Warn("Ingest: upsert graph nodes failed", "error", err)
		return nil, err
	}
	summary.NodesUpserted = len(build.Nodes)

	if err := s.edgeRepo.UpsertBatch(ctx, tx, build.Edges); err != nil {
		s.log.Warn("Ingest: upsert graph edges failed", "error", err)
		return nil, err
	}
	summary.EdgesUpserted = len(build.Edges)

	if err := datagraph.SyncFundingGraph(ctx, s.neo4j, s.log, build.Nodes, build.Edges); err != nil {
		s.log.Warn("Ingest: neo4j mirror sync failed (continuing)", "error", err)
	}

	foundationIDs := make([]string, 0, len(foundationSet))
	for id := range foundationSet {
		foundationIDs = append(foundationIDs, id)
	}
	dropped, err := s.cache.Invalidate(ctx, tx, foundationIDs)
	if err != nil {
		s.log.Warn("Ingest: cache invalidation failed", "error", err)
		return nil, err
	}
	summary.CacheInvalidated = dropped

	s.log.Info("Ingested grant records",
		"stored", summary.RecordsStored,
		"rejected", len(summary.Rejected),
		"cache_invalidated", summary.CacheInvalidated,
	)
	return summary, nil
}
