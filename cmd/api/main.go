package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"filevault/internal/auth"
	"filevault/internal/config"
	"filevault/internal/database"
	"filevault/internal/database/migration"
	handlers "filevault/internal/http/handler"
	"filevault/internal/http/middleware"
	"filevault/internal/otel"
	"filevault/internal/queue"
	"filevault/internal/repository/postgres"
	"filevault/internal/service"
	"filevault/internal/session"
	"filevault/internal/storage"
	"filevault/internal/thumbnail"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Redis backs both the session store and the thumbnail job queue.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	sessionStore := session.NewRedisStore(redisClient)
	sessions := session.NewManager(sessionStore, time.Duration(cfg.Auth.SessionTTLHours)*time.Hour)

	jobQueue := queue.NewRedisQueue(redisClient, cfg.Thumbnail.QueueName)
	if n, err := jobQueue.RequeueInFlight(ctx); err != nil {
		log.Printf("failed to requeue in-flight jobs: %v", err)
	} else if n > 0 {
		log.Printf("requeued %d in-flight thumbnail jobs", n)
	}

	// Initialize repositories and services
	userRepo := postgres.NewUserPostgres(db)
	fileRepo := postgres.NewFilePostgres(db)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	authSvc := service.NewAuthService(userRepo, sessions, hasher)
	fileSvc := service.NewFileService(fileRepo, objStore, jobQueue)
	statsSvc := service.NewStatsService(userRepo, fileRepo)

	// Start the rendition worker pool before accepting uploads.
	worker := thumbnail.NewWorker(fileRepo, objStore, jobQueue)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Thumbnail.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	promMw, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMw.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, sessionStore, authSvc, fileSvc, statsSvc)

	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	addr := ":" + cfg.Port
	if err := app.Listen(addr); err != nil {
		log.Printf("server stopped: %v", err)
	}

	stop()
	wg.Wait()
}
