package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/fundlens/fundlens-backend/internal/http/handlers"
	httpMW "github.com/fundlens/fundlens-backend/internal/http/middleware"
	"github.com/fundlens/fundlens-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AnalysisHandler *httpH.AnalysisHandler
	IngestHandler   *httpH.IngestHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.AnalysisHandler != nil {
			api.POST("/analysis/run", cfg.AnalysisHandler.Run)
		}
		if cfg.IngestHandler != nil {
			api.POST("/grants/ingest", cfg.IngestHandler.Ingest)
		}
	}

	return r
}
