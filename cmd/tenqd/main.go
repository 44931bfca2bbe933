package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tenqd/internal/config"
	"github.com/kailas-cloud/tenqd/internal/db"
	dbRedis "github.com/kailas-cloud/tenqd/internal/db/redis"
	"github.com/kailas-cloud/tenqd/internal/domain"
	logpkg "github.com/kailas-cloud/tenqd/internal/logger"
	"github.com/kailas-cloud/tenqd/internal/metrics"
	"github.com/kailas-cloud/tenqd/internal/parse"
	"github.com/kailas-cloud/tenqd/internal/repository/artifact"
	"github.com/kailas-cloud/tenqd/internal/repository/chunkstore"
	"github.com/kailas-cloud/tenqd/internal/repository/embcache"
	freshnessrepo "github.com/kailas-cloud/tenqd/internal/repository/freshness"
	chiTransport "github.com/kailas-cloud/tenqd/internal/transport/chi"
	"github.com/kailas-cloud/tenqd/internal/transport/edgar"
	geminiAnalyst "github.com/kailas-cloud/tenqd/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/tenqd/internal/transport/openai"
	healthuc "github.com/kailas-cloud/tenqd/internal/usecase/health"
	reconcileuc "github.com/kailas-cloud/tenqd/internal/usecase/reconcile"
	researchuc "github.com/kailas-cloud/tenqd/internal/usecase/research"
	"github.com/kailas-cloud/tenqd/internal/version"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting tenqd API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("analyst_provider", cfg.Analyst.Provider),
	)

	ctx := context.Background()

	// Database store. The memory driver keeps everything in-process.
	var store db.Store
	if cfg.Database.Driver == "redis" {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterReconcileMetrics()

	// Embedder: OpenAI provider behind the embedding cache when a
	// database is present.
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	var docEmbedder interface {
		domain.Embedder
		domain.BatchEmbedder
	} = baseEmbedder
	if store != nil {
		docEmbedder = embcache.New(baseEmbedder, store, metrics.EmbeddingCacheTotal, logger)
	}
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cached", store != nil),
	)

	// EDGAR transport: shared rate-limited client, ticker resolver,
	// submissions reader and idempotent document downloader.
	edgarClient := edgar.NewClient(edgar.Options{
		UserAgent:    cfg.Edgar.UserAgent,
		MaxRPS:       cfg.Edgar.MaxRPS,
		BaseURL:      cfg.Edgar.BaseURL,
		DataBaseURL:  cfg.Edgar.DataBaseURL,
		RetryBackoff: time.Duration(cfg.Edgar.RetryBackoffSec) * time.Second,
	}, logger)
	locator := edgar.NewLocator(edgar.NewResolver(edgarClient), edgar.NewSubmissions(edgarClient))

	artifacts, err := artifact.New(cfg.Storage.DataDir)
	if err != nil {
		logger.Fatal("Failed to create artifact store", zap.Error(err))
	}
	downloader := edgar.NewDownloader(edgarClient, artifacts, cfg.Edgar.ArchivesBaseURL, logger)

	// Freshness cache backend
	var freshCache reconcileuc.FreshnessCache
	switch cfg.Storage.FreshnessBackend {
	case "redis":
		freshCache = freshnessrepo.NewRedisStore(store)
	default:
		freshCache, err = freshnessrepo.NewFileStore(cfg.Storage.FreshnessPath)
		if err != nil {
			logger.Fatal("Failed to create freshness cache", zap.Error(err))
		}
	}

	// Chunk store
	var chunks interface {
		reconcileuc.ChunkStore
		researchuc.Searcher
	}
	if store != nil {
		chunks = chunkstore.NewRedis(store)
	} else {
		chunks = chunkstore.NewMemory()
	}

	parser := parse.New(cfg.Ingest.ChunkChars, cfg.Ingest.OverlapChars)

	reconcileSvc := reconcileuc.New(freshCache, chunks, locator, downloader, parser, docEmbedder, logger)

	retriever := researchuc.NewRetriever(docEmbedder, chunks,
		cfg.Retrieval.MaxTopK, cfg.Retrieval.MaxFragmentChars)

	analyst, err := buildAnalyst(ctx, cfg.Analyst, retriever, logger)
	if err != nil {
		logger.Fatal("Failed to create analyst", zap.Error(err))
	}
	researchSvc := researchuc.New(reconcileSvc, analyst, logger)

	// Health service
	var pinger healthuc.DBPinger = noopPinger{}
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(pinger, baseEmbedder)

	// Create chi server
	server := chiTransport.NewServer(researchSvc, reconcileSvc, retriever, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildAnalyst picks the report-generation provider.
func buildAnalyst(
	ctx context.Context,
	cfg config.AnalystConfig,
	retriever *researchuc.Retriever,
	logger *zap.Logger,
) (researchuc.Analyst, error) {
	switch cfg.Provider {
	case "gemini":
		return geminiAnalyst.NewAnalyst(ctx, &geminiAnalyst.Config{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		}, retriever, logger)
	default:
		return openaiTransport.NewAnalyst(&openaiTransport.AnalystConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}, retriever, logger), nil
	}
}

// noopPinger stands in for the database health check under the memory driver.
type noopPinger struct{}

func (noopPinger) Ping(context.Context) error { return nil }

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

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
