package main

import (
	"context"
	"fmt"
	"os"
	"time"

	redisclient "github.com/fundlens/fundlens-backend/internal/clients/redis"
	"github.com/fundlens/fundlens-backend/internal/config"
	"github.com/fundlens/fundlens-backend/internal/db"
	fundhttp "github.com/fundlens/fundlens-backend/internal/http"
	httpH "github.com/fundlens/fundlens-backend/internal/http/handlers"
	"github.com/fundlens/fundlens-backend/internal/observability"
	"github.com/fundlens/fundlens-backend/internal/platform/envutil"
	"github.com/fundlens/fundlens-backend/internal/platform/logger"
	"github.com/fundlens/fundlens-backend/internal/platform/neo4jdb"
	"github.com/fundlens/fundlens-backend/internal/repos"
	"github.com/fundlens/fundlens-backend/internal/services"
)

func main() {
	// Logger
	logMode := envutil.Str("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "fundlens-backend",
		Environment: envutil.Str("APP_ENV", "development"),
		Version:     envutil.Str("APP_VERSION", "dev"),
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(ctx)
		}()
	}

	// Tuning
	tuning, err := config.Load("")
	if err != nil {
		log.Error("Could not load tuning config", "error", err)
		os.Exit(1)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Optional clients
	neo4jClient, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Warn("Neo4j init failed, graph mirror disabled", "error", err)
		neo4jClient = nil
	}
	defer neo4jClient.Close(context.Background())

	redisCache, err := redisclient.NewCacheFromEnv(log)
	if err != nil {
		log.Warn("Redis init failed, redis result cache disabled", "error", err)
		redisCache = nil
	}
	defer redisCache.Close()

	// Repos
	log.Info("Setting up Repos from main...")
	grantRepo := repos.NewGrantRecordRepo(thePG, log)
	nodeRepo := repos.NewGraphNodeRepo(thePG, log)
	edgeRepo := repos.NewGraphEdgeRepo(thePG, log)
	cacheRepo := repos.NewAnalysisCacheRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	pool := services.NewComputePool(log, tuning.ComputeWorkers)
	cacheService := services.NewAnalysisCacheService(thePG, log, tuning, cacheRepo, redisCache)
	analysisService := services.NewAnalysisService(thePG, log, tuning, grantRepo, nodeRepo, edgeRepo, cacheService, pool, neo4jClient)

	// HTTP
	server := fundhttp.NewServer(fundhttp.RouterConfig{
		Log:             log,
		AnalysisHandler: httpH.NewAnalysisHandler(analysisService),
		IngestHandler:   httpH.NewIngestHandler(analysisService),
		HealthHandler:   httpH.NewHealthHandler(thePG),
	})

	addr := envutil.Str("HTTP_ADDR", ":8080")
	log.Info("Starting HTTP server", "addr", addr)
	if err := server.Run(addr); err != nil {
		log.Fatal("HTTP server exited", "error", err)
	}
}
