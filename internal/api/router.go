package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kivosy/aegis/internal/api/handlers"
	mw "github.com/kivosy/aegis/internal/api/middleware"
	"github.com/kivosy/aegis/internal/config"
	"github.com/kivosy/aegis/internal/domain"
	"github.com/kivosy/aegis/internal/embedding"
	"github.com/kivosy/aegis/internal/llm"
	"github.com/kivosy/aegis/internal/security"
	"github.com/kivosy/aegis/internal/service"
	"github.com/kivosy/aegis/internal/store"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router    *chi.Mux
	Retention *service.RetentionService

	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	// Stores
	factStore := store.NewFactStore(db)
	quarantineStore := store.NewQuarantineStore(db)
	auditStore := store.NewAuditStore(db, config.AuditRetention())
	recordStore := store.NewRecordStore(db)
	sessionStore := store.NewSessionStore(db)

	// External clients via provider factory
	llmProvider := config.LLMProvider()
	llmClient, err := llm.NewClient(llmProvider, config.LLMAPIKey(), config.LMStudioURL())
	if err != nil {
		return nil, err
	}
	logger.Info("LLM client initialized", zap.String("provider", llmProvider))

	embeddingProvider := config.EmbeddingProvider()
	embeddingClient, err := embedding.NewClient(embeddingProvider, config.EmbeddingAPIKey())
	if err != nil {
		return nil, err
	}
	if embeddingClient != nil {
		logger.Info("embedding client initialized", zap.String("provider", embeddingProvider))
	} else {
		logger.Info("embedding disabled, fact recall uses recency")
	}

	// Truth table with administrative extensions
	extensions, err := security.LoadExtensions(config.TruthsFile())
	if err != nil {
		return nil, err
	}
	truths := security.NewTruthTable(extensions...)
	if len(extensions) > 0 {
		logger.Info("loaded truth extensions", zap.Int("count", len(extensions)))
	}

	// Security components
	scanner := security.NewScanner()
	wrapper := security.NewWrapper()
	auditor := security.NewAuditor(scanner, truths)

	// Services
	owner := service.DefaultOwnerProfile()
	owner.Name = config.OwnerName()

	contextSvc := service.NewContextService(factStore, quarantineStore, truths, embeddingClient, owner, logger)
	extractorSvc := service.NewExtractorService(llmClient, owner.Name, logger)
	factSvc := service.NewFactService(factStore, quarantineStore, truths, embeddingClient, logger)
	dispatcher := service.NewSafeDispatcher(logger)
	gateSvc := service.NewGateService(auditStore, dispatcher, config.SafeCommands(), logger)
	pipelineSvc := service.NewPipelineService(
		scanner, wrapper, auditor, llmClient,
		contextSvc, extractorSvc, factSvc, gateSvc,
		recordStore, sessionStore, logger,
	)
	retentionSvc := service.NewRetentionService(auditStore, config.AuditRetention(), logger)

	// Handlers
	messageHandler := handlers.NewMessageHandler(pipelineSvc)
	factHandler := handlers.NewFactHandler(factStore)
	quarantineHandler := handlers.NewQuarantineHandler(quarantineStore)
	auditHandler := handlers.NewAuditHandler(auditStore)
	recordHandler := handlers.NewRecordHandler(recordStore)
	sessionHandler := handlers.NewSessionHandler(sessionStore)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Retention: retentionSvc,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Post("/channels/{channel}/messages", messageHandler.Process)

		r.Route("/facts", func(r chi.Router) {
			r.Get("/", factHandler.List)
			r.Get("/{id}", factHandler.GetByID)
			r.Delete("/{id}", factHandler.Delete)
		})

		r.Get("/quarantine", quarantineHandler.List)
		r.Get("/audit", auditHandler.List)
		r.Get("/records", recordHandler.List)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Post("/reset", sessionHandler.Reset)
		})
	})

	return app, nil
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.FactStore       = (*store.FactStore)(nil)
	_ domain.QuarantineStore = (*store.QuarantineStore)(nil)
	_ domain.AuditStore      = (*store.AuditStore)(nil)
	_ domain.RecordStore     = (*store.RecordStore)(nil)
	_ domain.SessionStore    = (*store.SessionStore)(nil)
	_ domain.EmbeddingClient = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient = (*embedding.MockClient)(nil)
	_ domain.LLMClient       = (*llm.LMStudioClient)(nil)
	_ domain.LLMClient       = (*llm.OpenAIClient)(nil)
	_ domain.LLMClient       = (*llm.MockClient)(nil)
	_ service.Dispatcher     = (*service.SafeDispatcher)(nil)
)
