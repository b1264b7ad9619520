package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/voltlab/designdex/internal/config"
	dbRedis "github.com/voltlab/designdex/internal/db/redis"
	"github.com/voltlab/designdex/internal/domain/attribute"
	"github.com/voltlab/designdex/internal/domain/query"
	"github.com/voltlab/designdex/internal/engine"
	logpkg "github.com/voltlab/designdex/internal/logger"
	"github.com/voltlab/designdex/internal/metrics"
	catalogrepo "github.com/voltlab/designdex/internal/repository/catalog"
	chiTransport "github.com/voltlab/designdex/internal/transport/chi"
	openaiExt "github.com/voltlab/designdex/internal/transport/openai"
	cataloguc "github.com/voltlab/designdex/internal/usecase/catalog"
	healthuc "github.com/voltlab/designdex/internal/usecase/health"
	searchuc "github.com/voltlab/designdex/internal/usecase/search"
	"github.com/voltlab/designdex/internal/version"
)

func main() {
	// Optional .env for local development; real environments set vars directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting designdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterEngineMetrics()

	// Attribute universe: built-in policy unless overridden in config.
	table, err := buildTable(cfg.Matching)
	if err != nil {
		logger.Fatal("Failed to build attribute table", zap.Error(err))
	}
	logger.Info("Attribute universe loaded", zap.Int("attributes", table.Len()))

	neutral := engine.DefaultNeutralScore
	if cfg.Matching.NeutralAbsenceScore != nil {
		neutral = *cfg.Matching.NeutralAbsenceScore
	}
	comparator, err := engine.NewComparator(neutral)
	if err != nil {
		logger.Fatal("Failed to create comparator", zap.Error(err))
	}

	workers := cfg.Matching.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		logger.Fatal("Failed to create scoring pool", zap.Error(err))
	}
	defer pool.Release()

	ranker := engine.NewRanker(
		engine.NewScorer(table, comparator),
		engine.WithPool(pool),
		engine.WithParallelThreshold(cfg.Matching.ParallelThreshold),
	)

	repo := catalogrepo.New(store, cfg.Catalog.KeyPrefix)
	catalogSvc := cataloguc.New(repo, table, logger)
	if n, err := catalogSvc.Refresh(ctx); err != nil {
		logger.Warn("Initial catalog load failed, starting empty", zap.Error(err))
	} else {
		logger.Info("Catalog loaded", zap.Int("designs", n))
	}

	// Extraction is optional: without a model the NL endpoint is disabled,
	// form search keeps working.
	var extractor *openaiExt.Extractor
	var extractionChecker healthuc.ExtractionChecker
	var searchExtractor searchuc.Extractor
	if cfg.Extraction.Model != "" {
		extractor = openaiExt.NewExtractor(&openaiExt.Config{
			APIKey:  cfg.Extraction.APIKey,
			BaseURL: cfg.Extraction.BaseURL,
			Model:   cfg.Extraction.Model,
			Timeout: time.Duration(cfg.Extraction.TimeoutSec) * time.Second,
			Table:   table,
			Logger:  logger,
		})
		extractionChecker = extractor
		searchExtractor = extractor
		logger.Info("Extraction provider configured",
			zap.String("model", cfg.Extraction.Model),
			zap.String("base_url", cfg.Extraction.BaseURL),
		)
	}

	allowBoundOnly := true
	if cfg.Matching.AllowBoundOnly != nil {
		allowBoundOnly = *cfg.Matching.AllowBoundOnly
	}
	searchSvc := searchuc.New(table, ranker, catalogSvc, searchExtractor,
		query.Options{AllowBoundOnly: allowBoundOnly})

	healthSvc := healthuc.New(store, extractionChecker, func() int {
		return len(catalogSvc.Snapshot())
	})

	server := chiTransport.NewServer(searchSvc, catalogSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

	// Periodic snapshot refresh keeps the corpus close to storage without
	// locking readers out; the snapshot swap is atomic.
	stopRefresh := make(chan struct{})
	if cfg.Catalog.RefreshIntervalSec > 0 {
		go refreshLoop(ctx, catalogSvc, logger,
			time.Duration(cfg.Catalog.RefreshIntervalSec)*time.Second, stopRefresh)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	close(stopRefresh)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildTable converts configured attributes into the table, falling back
// to the built-in transformer policy when none are configured.
func buildTable(cfg config.MatchingConfig) (*attribute.Table, error) {
	if len(cfg.Attributes) == 0 {
		return engine.DefaultTable()
	}

	specs := make([]attribute.Spec, 0, len(cfg.Attributes))
	for _, a := range cfg.Attributes {
		mode := attribute.Relative
		if a.ToleranceMode == "absolute" {
			mode = attribute.Absolute
		}
		tol, err := attribute.NewTolerance(mode, a.Tolerance)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", a.Name, err)
		}
		spec, err := attribute.NewSpec(a.Name, attribute.Kind(a.Kind), a.Weight, tol, a.Classes)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return attribute.NewTable(specs)
}

// refreshLoop reloads the corpus snapshot on a fixed interval until stopped.
func refreshLoop(
	ctx context.Context, catalog *cataloguc.Service, logger *zap.Logger,
	interval time.Duration, stop <-chan struct{},
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := catalog.Refresh(ctx); err != nil {
				logger.Error("Periodic catalog refresh failed", zap.Error(err))
			}
		}
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
