package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marlow/watchdex/internal/api"
	"github.com/marlow/watchdex/internal/api/middleware"
	"github.com/marlow/watchdex/internal/config"
	"github.com/marlow/watchdex/internal/logger"
	"github.com/marlow/watchdex/internal/repository"
	"github.com/marlow/watchdex/internal/service"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLog := logger.NewDefault()
	logger.SetDefaultLogger(appLog)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// Initialize repositories
	refRepo := repository.NewReferenceRepository(db)
	historyRepo := repository.NewAnalysisHistoryRepository(db)

	// Initialize services
	visionService := service.NewVisionService(&service.VisionConfig{
		Provider: cfg.Vision.Provider,
		Model:    cfg.Vision.Model,
		APIKey:   cfg.Vision.APIKey,
		BaseURL:  cfg.Vision.BaseURL,
	})

	matchService := service.NewMatchService(refRepo, appLog, &service.MatchConfig{
		Weights: service.MatchWeights{
			Brand:           cfg.Match.Weights.Brand,
			ReferenceNumber: cfg.Match.Weights.ReferenceNumber,
			ModelName:       cfg.Match.Weights.ModelName,
			CaseMaterial:    cfg.Match.Weights.CaseMaterial,
			DialColor:       cfg.Match.Weights.DialColor,
			BraceletType:    cfg.Match.Weights.BraceletType,
		},
		MinScore:       cfg.Match.MinScore,
		CandidateLimit: cfg.Match.CandidateLimit,
	})

	analysisService := service.NewAnalysisService(visionService, matchService, historyRepo, appLog)

	// Setup router
	router := api.SetupRouter(api.RouterConfig{
		RefRepo:     refRepo,
		HistoryRepo: historyRepo,
		Matcher:     matchService,
		Analysis:    analysisService,
		Logger:      appLog,
		Mode:        cfg.Server.Mode,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting API server: port=%d, mode=%s", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
