// Command codelens runs the code retrieval server: it ingests C# source
// into a Postgres-backed code graph and chunk index, and answers
// questions over them through hybrid graph+vector retrieval.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/api"
	"github.com/codelens-ai/codelens/internal/chunker"
	"github.com/codelens-ai/codelens/internal/config"
	"github.com/codelens-ai/codelens/internal/db"
	"github.com/codelens-ai/codelens/internal/db/migrations"
	"github.com/codelens-ai/codelens/internal/dbpool"
	"github.com/codelens-ai/codelens/internal/llm"
	"github.com/codelens-ai/codelens/internal/parser"
	"github.com/codelens-ai/codelens/internal/retrieval"
	"github.com/codelens-ai/codelens/internal/service"
	"github.com/codelens-ai/codelens/internal/store"
	"github.com/codelens-ai/codelens/internal/structural"
)

// version is set at build time via -ldflags.
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("invalid log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	// The chunk table's vector column is fixed at the configured width; a
	// model/schema mismatch here would corrupt every similarity search.
	if err := db.EnsureVectorDimensions(ctx, pool, log, cfg.EmbeddingDimensions); err != nil {
		log.WithError(err).Fatal("embedding dimension check failed")
	}

	embedder := llm.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel)
	generator := llm.NewOllamaGenerator(cfg.OllamaURL, cfg.GenerationModel)

	base := store.Base{Pool: pool, Log: log}
	graphStore := store.NewGraphStore(base)
	chunkStore := store.NewChunkStore(base)

	graphPath := retrieval.NewGraphRetriever(
		generator,
		structural.NewValidator(cfg.GraphRowCap),
		graphStore,
		log,
		cfg.GraphMaxAttempt,
	)
	vectorPath := retrieval.NewVectorRetriever(
		embedder, generator, chunkStore, log,
		cfg.VectorK, cfg.RewriteThresh,
	)

	ingester := service.NewIngestService(
		parser.NewBuilder(log),
		chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder,
		graphStore,
		chunkStore,
		log,
		cfg.EmbedWorkers,
		cfg.EmbedRetries,
	)
	orchestrator := service.NewOrchestrator(
		graphPath, vectorPath, generator, log,
		cfg.RetrievalBudget, cfg.FusionMaxTotal,
	)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:                 log,
		Pool:                pool,
		Answerer:            orchestrator,
		Ingester:            ingester,
		Nodes:               graphStore,
		CORSOrigins:         cfg.CORSOrigins,
		Version:             version,
		OllamaURL:           cfg.OllamaURL,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.WithFields(logrus.Fields{
			"addr":    cfg.Addr(),
			"version": version,
		}).Info("codelens listening")

		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}

	log.Info("server stopped")
}
