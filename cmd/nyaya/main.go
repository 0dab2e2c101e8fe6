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

	"github.com/techvocates/nyaya/internal/config"
	dbRedis "github.com/techvocates/nyaya/internal/db/redis"
	"github.com/techvocates/nyaya/internal/domain"
	"github.com/techvocates/nyaya/internal/index"
	logpkg "github.com/techvocates/nyaya/internal/logger"
	"github.com/techvocates/nyaya/internal/metrics"
	"github.com/techvocates/nyaya/internal/rag"
	"github.com/techvocates/nyaya/internal/registry"
	historyrepo "github.com/techvocates/nyaya/internal/repository/history"
	usersrepo "github.com/techvocates/nyaya/internal/repository/users"
	httpTransport "github.com/techvocates/nyaya/internal/transport/http"
	"github.com/techvocates/nyaya/internal/transport/openai"
	authuc "github.com/techvocates/nyaya/internal/usecase/auth"
	healthuc "github.com/techvocates/nyaya/internal/usecase/health"
	historyuc "github.com/techvocates/nyaya/internal/usecase/history"
	"github.com/techvocates/nyaya/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting nyaya API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Int("acts", len(cfg.Acts)),
		zap.Int("doc_acts", len(cfg.DocActs)),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
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

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterRAGMetrics()

	// Load the per-act vector indexes: one registry per pipeline.
	reg := loadRegistry(logger, cfg.Storage.IndexDir, cfg.Acts)
	var docReg *registry.Registry
	if len(cfg.DocActs) > 0 {
		docReg = loadRegistry(logger, cfg.Storage.IndexDir, cfg.DocActs)
	}

	// Model providers
	embedder := openai.NewEmbedder(&openai.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	generator := openai.NewGenerator(&openai.GeneratorConfig{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
		Timeout:     time.Duration(cfg.Generation.TimeoutSec) * time.Second,
		Logger:      logger,
	})
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("generation_model", cfg.Generation.Model),
	)

	// Question-answering pipeline
	catalog := &registryCatalog{reg: reg}
	planner := rag.NewPlanner(generator, catalog, logger)
	executor := rag.NewExecutor(embedder, generator, catalog, logger).
		WithTopK(cfg.RAG.TopK).
		WithMaxRetries(*cfg.RAG.MaxRetries)
	synthesizer := rag.NewSynthesizer(generator, logger)
	agent := rag.NewAgent(planner, executor, synthesizer, logger).
		WithMaxConcurrency(cfg.RAG.MaxConcurrency).
		WithTimeout(time.Duration(cfg.RAG.RequestTimeoutSec) * time.Second)

	// Document-drafting pipeline over its own act catalog
	var drafter httpTransport.Answerer
	if docReg != nil {
		docCatalog := &registryCatalog{reg: docReg}
		draftPlanner := rag.NewPlanner(generator, docCatalog, logger)
		draftExecutor := rag.NewExecutor(embedder, generator, docCatalog, logger).
			WithTopK(cfg.RAG.TopK).
			WithMaxRetries(*cfg.RAG.MaxRetries)
		draftSynth := rag.NewSynthesizer(generator, logger).ForDrafting()
		drafter = rag.NewAgent(draftPlanner, draftExecutor, draftSynth, logger).
			WithMaxConcurrency(cfg.RAG.MaxConcurrency).
			WithTimeout(time.Duration(cfg.RAG.RequestTimeoutSec) * time.Second).
			WithToolInfo("document-drafter",
				"Describe the legal document to draft, including the parties and jurisdiction. "+
					"Input must be a full English sentence.")
	}

	// Repositories and use case services
	userRepo := usersrepo.New(store, cfg.Storage.KeyPrefix)
	sessionRepo := historyrepo.New(store, cfg.Storage.KeyPrefix)

	authSvc := authuc.New(userRepo, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMin)*time.Minute)
	historySvc := historyuc.New(sessionRepo, time.Duration(cfg.RAG.SessionWindowMin)*time.Minute)

	indexes := indexCount{regs: []*registry.Registry{reg}}
	if docReg != nil {
		indexes.regs = append(indexes.regs, docReg)
	}
	healthSvc := healthuc.New(store, generator, indexes)

	server := httpTransport.NewServer(agent, drafter, authSvc, historySvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Router())

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

// loadRegistry loads one vector index per configured act and seals the
// registry. Any load failure is fatal at startup.
func loadRegistry(logger *zap.Logger, indexDir string, acts []config.ActConfig) *registry.Registry {
	reg := registry.New()
	for _, a := range acts {
		st, err := index.Load(indexDir, a.ID)
		if err != nil {
			logger.Fatal("Failed to load index",
				zap.String("act", a.ID),
				zap.String("dir", indexDir),
				zap.Error(err),
			)
		}
		act := domain.Act{ID: a.ID, Name: a.Name, Description: a.Description}
		if err := reg.Register(act, st); err != nil {
			logger.Fatal("Failed to register act", zap.String("act", a.ID), zap.Error(err))
		}
		logger.Info("Index loaded", zap.String("act", a.ID), zap.Int("chunks", st.Len()))
	}
	reg.Seal()
	return reg
}

// indexCount sums loaded indexes across registries for the health report.
type indexCount struct {
	regs []*registry.Registry
}

func (c indexCount) Len() int {
	n := 0
	for _, r := range c.regs {
		n += r.Len()
	}
	return n
}

// registryCatalog adapts the act registry to the pipeline's catalog contract.
type registryCatalog struct {
	reg *registry.Registry
}

func (c *registryCatalog) List() []domain.Act {
	return c.reg.List()
}

func (c *registryCatalog) Searcher(id string) (rag.Searcher, error) {
	entry, err := c.reg.Get(id)
	if err != nil {
		return nil, err
	}
	return entry.Store, nil
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
						"error": "internal error",
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

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
