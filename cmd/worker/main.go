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

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/narrowsfm/podgraph/pkg/validator"

	"github.com/narrowsfm/podgraph/internal/adapter/handler"
	"github.com/narrowsfm/podgraph/internal/adapter/narrows"
	"github.com/narrowsfm/podgraph/internal/adapter/repository"
	"github.com/narrowsfm/podgraph/internal/infrastructure/database"
	"github.com/narrowsfm/podgraph/internal/infrastructure/graphiti"
	"github.com/narrowsfm/podgraph/internal/infrastructure/queue"
	"github.com/narrowsfm/podgraph/internal/infrastructure/storage"
	"github.com/narrowsfm/podgraph/internal/usecase/pipeline"
	"github.com/narrowsfm/podgraph/internal/usecase/worker"
	"github.com/narrowsfm/podgraph/pkg/config"
	"github.com/narrowsfm/podgraph/pkg/llm"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance for the operator API
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run AutoMigrate only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		log.Println("🔄 Running GORM AutoMigrate (development only) ...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run AutoMigrate: %v", err)
		}
	} else {
		log.Println("🔄 Skipping GORM AutoMigrate; use sql-migrate for schema migrations in CI/CD/production")
	}

	// Initialize the episode work queue
	log.Println("📦 Connecting to Redis...")
	episodeQueue, err := queue.NewRedisQueue(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer episodeQueue.Close()

	// Initialize transcript storage
	log.Println("📦 Connecting to object storage...")
	transcriptStore, err := storage.NewMinIOStore(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	// Initialize external clients
	log.Println("🌐 Initializing Narrows client...")
	metadataAPI := narrows.NewCachingClient(narrows.NewClient(&cfg.Narrows), narrows.DefaultSeriesCacheTTL)

	log.Println("🌐 Initializing knowledge graph client...")
	graphClient := graphiti.NewClient(&cfg.Graphiti)

	log.Println("🤖 Initializing generation service client...")
	llmClient := llm.NewClient(&cfg.LLM)

	// Initialize the pipeline coordinator and job ledger
	log.Println("⚙️  Initializing pipeline coordinator...")
	coordinator := pipeline.NewCoordinator(transcriptStore, metadataAPI, graphClient, llmClient, &cfg.Pipeline, logger)
	jobRepo := repository.NewJobRepository(db)

	// Start the worker pool
	log.Printf("👷 Starting %d pipeline worker(s)...", cfg.Server.WorkerCount)
	pool := worker.NewPool(episodeQueue, jobRepo, coordinator, cfg.Server.WorkerCount, logger)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	pool.Start(workerCtx)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	pipelineHandler := handler.NewPipeline(episodeQueue, jobRepo, transcriptStore, logger)
	router := handler.NewRouter(cfg, pipelineHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down...")

	// Stop the workers first so in-flight episodes finish their jobs.
	stopWorkers()
	pool.Wait()
	log.Println("👷 Workers stopped")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
