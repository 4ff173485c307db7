package api

import (
	"github.com/gin-gonic/gin"
	"github.com/marlow/watchdex/internal/api/handler"
	"github.com/marlow/watchdex/internal/api/middleware"
	"github.com/marlow/watchdex/internal/logger"
	"github.com/marlow/watchdex/internal/repository"
	"github.com/marlow/watchdex/internal/service"
)

// RouterConfig carries the dependencies the HTTP layer needs.
type RouterConfig struct {
	RefRepo     *repository.ReferenceRepository
	HistoryRepo *repository.AnalysisHistoryRepository
	Matcher     *service.MatchService
	Analysis    *service.AnalysisService
	Logger      *logger.Logger
	Mode        string
	CORS        middleware.CORSConfig
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg RouterConfig) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(cfg.Logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	referenceHandler := handler.NewReferenceHandler(cfg.RefRepo)
	matchHandler := handler.NewMatchHandler(cfg.Matcher)
	analysisHandler := handler.NewAnalysisHandler(cfg.Analysis, cfg.HistoryRepo)
	statsHandler := handler.NewStatsHandler(cfg.RefRepo, cfg.HistoryRepo)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Reference catalog
		v1.GET("/references", referenceHandler.ListReferences)
		v1.POST("/references", referenceHandler.CreateReference)
		v1.GET("/references/:id", referenceHandler.GetReference)
		v1.PATCH("/references/:id", referenceHandler.UpdateReference)
		v1.DELETE("/references/:id", referenceHandler.DeleteReference)

		// Matching
		v1.POST("/references/match", matchHandler.FindMatches)

		// Analysis workflow and history
		v1.POST("/analyses", analysisHandler.Analyze)
		v1.GET("/analyses", analysisHandler.ListAnalyses)
		v1.GET("/analyses/:id", analysisHandler.GetAnalysis)

		// Stats
		v1.GET("/stats", statsHandler.GetStats)
	}

	return r
}
