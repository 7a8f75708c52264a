package routes

import (
	"context"
	"net/http"
	"time"

	"lodgeworks/staysync/internal/api"
	"lodgeworks/staysync/internal/common"
	"lodgeworks/staysync/internal/config"
	"lodgeworks/staysync/internal/db"
	"lodgeworks/staysync/internal/db/repositories"
	"lodgeworks/staysync/internal/jobs"
	"lodgeworks/staysync/internal/logging"
	"lodgeworks/staysync/internal/metrics"
	"lodgeworks/staysync/internal/middleware"
	"lodgeworks/staysync/internal/providers"
	"lodgeworks/staysync/internal/services"
	"lodgeworks/staysync/internal/workers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// RegisterRoutes wires repositories, services, the sync orchestrator and the
// queue workers, starts the background loops on ctx, and returns the HTTP
// handler.
func RegisterRoutes(ctx context.Context, cfg *config.Config, upSince time.Time) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// Initialize metrics registry
	metricsReg := metrics.NewMetricsRegistry()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(metricsReg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:8081"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	logging.Info("Router initialized with metrics and logging middleware")

	// Shared infrastructure
	redisClient := common.NewRedisClient(cfg)
	cacheSvc := common.NewCacheService(5*time.Minute, 10*time.Minute)

	// Repositories
	propertyRepo := repositories.NewPropertyRepository(db.PgDB)
	bookingRepo := repositories.NewBookingRepository(db.PgDB)
	syncLogRepo := repositories.NewSyncLogRepository(db.PgDB)
	taskRepo := repositories.NewTaskRepository(db.DB)

	// Services
	provider := providers.NewBeds24Provider(cfg, cacheSvc)
	reconciler := services.NewReconcileService(propertyRepo, bookingRepo)
	queue := common.NewTaskQueueService(taskRepo, redisClient)

	orchestrator := jobs.NewSyncOrchestrator(
		provider, reconciler, propertyRepo, bookingRepo, syncLogRepo,
		queue, metricsReg, cfg.PageSize,
	)

	worker := workers.NewSyncWorker(
		"sync", provider, reconciler, taskRepo, syncLogRepo, queue, metricsReg,
	)
	worker.SetBootstrapRunner(orchestrator)

	go func() {
		if err := worker.Start(ctx, cfg.WorkerCount); err != nil {
			logging.Error("Worker pool stopped", "error", err.Error())
		}
	}()

	go func() {
		if err := orchestrator.Init(ctx); err != nil {
			logging.Error("Failed to derive sync state", "error", err.Error())
			return
		}
		if orchestrator.NeedsBootstrap() {
			if err := orchestrator.RunFull(ctx); err != nil {
				if retryErr := orchestrator.ScheduleBootstrapRetry(ctx); retryErr != nil {
					logging.Error("Failed to schedule bootstrap retry", "error", retryErr.Error())
				}
			}
		}
		orchestrator.RunScheduled(ctx, cfg.SyncInterval)
	}()

	// health check
	r.Get("/healthCheck", api.HealthCheckHandler(db.DB, redisClient, upSince))

	syncHandler := api.NewSyncHandler(orchestrator, syncLogRepo, queue, upSince)

	r.Get("/status", syncHandler.ServiceBanner())
	r.Get("/sync/status", syncHandler.SyncStatus())

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		protected.Post("/sync/trigger", syncHandler.TriggerSync())
	})

	return r
}
