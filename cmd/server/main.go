package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/finsight/finsight-go/internal/api"
	"github.com/finsight/finsight-go/internal/api/handlers"
	"github.com/finsight/finsight-go/internal/config"
	"github.com/finsight/finsight-go/internal/database"
	"github.com/finsight/finsight-go/internal/logging"
	"github.com/finsight/finsight-go/internal/marketdata"
	"github.com/finsight/finsight-go/internal/services"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	db, err := database.NewPostgresConnection(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redis, err := database.NewRedisConnection(context.Background(), cfg.Redis, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	jobs := database.NewJobRepository(db.Pool)
	reports := database.NewReportRepository(db.Pool)
	watchlist := database.NewWatchlistRepository(db.Pool)

	marketClient := marketdata.NewClient(cfg.MarketData, logger)
	newsClient := marketdata.NewNewsClient(cfg.News, logger)
	datasets := marketdata.NewService(marketClient, newsClient, redis, cfg.MarketData.CacheTTLDuration(), logger)

	pipeline := services.NewPipelineOrchestrator(datasets, jobs, reports, cfg.Analysis, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	api.SetupRoutes(router, api.Handlers{
		Analysis:  handlers.NewAnalysisHandler(jobs, reports, pipeline, logger),
		Reports:   handlers.NewReportsHandler(reports, logger),
		Chart:     handlers.NewChartHandler(marketClient, logger),
		Watchlist: handlers.NewWatchlistHandler(watchlist, logger),
		Health:    handlers.NewHealthHandler(db, redis, version),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Infof("Server starting on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
