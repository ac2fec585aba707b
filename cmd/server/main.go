// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package main is the Commendo server entry point.
//
// Commendo pairs two decision cores behind one HTTP surface:
//
//   - Recommendations: client comments are scored for sentiment, the
//     anchor product is embedded, and similar products are fused with
//     availability and reputation into a ranked list backed by a
//     tolerance-aware cache.
//   - Courier ranking: candidate couriers for a delivery announcement
//     are filtered through an elliptical pickup/dropoff zone and scored
//     with urgency-specific AHP weights and TOPSIS.
//
// Components initialize in dependency order: configuration, logging,
// the product catalog, the recommendation cache, the encoder, the
// sentiment analyzer, the vector index, the two ranking pipelines, the
// task runner, the orchestrator and finally the HTTP router. Long-lived
// pieces (task runner, websocket feed, HTTP server) run under a suture
// supervisor tree; SIGINT and SIGTERM trigger a graceful drain.
//
// Configuration is loaded via koanf with layered sources, highest
// priority first: environment variables, config.yaml, built-in
// defaults. COMMENDO_CONFIG points at an explicit config file.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/skouam/commendo/docs"
	"github.com/skouam/commendo/internal/api"
	"github.com/skouam/commendo/internal/auth"
	"github.com/skouam/commendo/internal/cache"
	"github.com/skouam/commendo/internal/catalog"
	"github.com/skouam/commendo/internal/config"
	"github.com/skouam/commendo/internal/couriers"
	"github.com/skouam/commendo/internal/embedding"
	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/orchestrator"
	"github.com/skouam/commendo/internal/ranking"
	"github.com/skouam/commendo/internal/recommend"
	"github.com/skouam/commendo/internal/sentiment"
	"github.com/skouam/commendo/internal/supervisor"
	"github.com/skouam/commendo/internal/taskfeed"
	"github.com/skouam/commendo/internal/tasks"
	"github.com/skouam/commendo/internal/vectorindex"
)

// version is overridden at build time:
//
//	go build -ldflags "-X main.version=$(git describe --tags)"
var version = "dev"

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Str("catalog_driver", cfg.Catalog.Driver).
		Str("cache_backend", cfg.Cache.Backend).
		Str("task_transport", cfg.Tasks.Transport).
		Msg("Starting Commendo")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalogStore, err := catalog.Open(ctx, cfg.Catalog)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open product catalog")
	}
	defer func() {
		if err := catalogStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing catalog")
		}
	}()

	recCache := cache.New(newCacheBackend(cfg.Cache), cache.Config{
		TTL:       cfg.Cache.TTL,
		Tolerance: cfg.Cache.SentimentTolerance,
	})
	defer func() {
		if err := recCache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache")
		}
	}()

	encoder, err := embedding.NewHashingEncoder(embedding.Config{
		ModelPath: cfg.Embedding.ModelPath,
		BatchSize: cfg.Embedding.BatchSize,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build encoder")
	}

	analyzer := sentiment.NewLexiconAnalyzer(sentiment.Config{
		ModelPath: cfg.Sentiment.ModelPath,
	})

	idx := vectorindex.New(vectorindex.Config{
		M:                 cfg.VectorIndex.M,
		EfConstruct:       cfg.VectorIndex.EfConstruct,
		EfSearch:          cfg.VectorIndex.EfSearch,
		FullScanThreshold: cfg.VectorIndex.FullScanThreshold,
		ScoreThreshold:    cfg.VectorIndex.ScoreThreshold,
	})
	collections := collectionNames(cfg.VectorIndex)
	for _, name := range collections {
		idx.EnsureCollection(name, encoder.Dimension())
	}

	engine, err := recommend.New(recommend.Config{
		Cache:   recCache,
		Catalog: catalogStore,
		Encoder: encoder,
		Index:   idx,
		Ranker: ranking.New(ranking.Config{
			SimilarityWeight:   cfg.Recommend.SimilarityWeight,
			AvailabilityWeight: cfg.Recommend.AvailabilityWeight,
			ReputationWeight:   cfg.Recommend.ReputationWeight,
			AvailabilityBoost:  cfg.Recommend.AvailabilityBoost,
			MinScore:           cfg.Recommend.MinScore,
		}),
		Collections: collections,
		TopK:        cfg.Recommend.TopK,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build recommendation engine")
	}

	courierRanker, err := couriers.New(cfg.Couriers)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build courier ranker")
	}

	taskLogger := tasks.NewWatermillLogger()
	transport, err := tasks.NewTransport(cfg.Tasks, taskLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build task transport")
	}
	defer func() {
		if err := transport.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing task transport")
		}
	}()

	taskStore, err := tasks.NewBadgerStore(cfg.Tasks.StorePath, cfg.Tasks.ResultTTL)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open task store")
	}
	defer func() {
		if err := taskStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing task store")
		}
	}()

	runner, err := tasks.NewRunner(cfg.Tasks, transport, taskStore, taskLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build task runner")
	}
	(&tasks.HandlerSet{
		Engine:   engine,
		Analyzer: analyzer,
		Catalog:  catalogStore,
		Cache:    recCache,
		Encoder:  encoder,
		Index:    idx,
	}).RegisterAll(runner)

	var feed *taskfeed.Hub
	if cfg.Feed.Enabled {
		feed = taskfeed.NewHub(cfg.Feed.SendBuffer)
		runner.SetNotifier(feed.NotifyTask)
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Engine:   engine,
		Analyzer: analyzer,
		Runner:   runner,
		Catalog:  catalogStore,
		Cache:    recCache,
		Encoder:  encoder,
		Index:    idx,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build orchestrator")
	}

	authManager, err := auth.NewManager(cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build auth manager")
	}

	docs.SwaggerInfo.Version = version

	router := api.NewRouter(api.Deps{
		Orchestrator: orch,
		Ranker:       courierRanker,
		Feed:         feed,
		Auth:         authManager,
		Index:        idx,
		Collections:  collections,
		Security:     cfg.Security,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Version:      version,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddWorkerService(supervisor.NewRunnerService(runner))
	if feed != nil {
		tree.AddFeedService(supervisor.NewFeedService(feed))
	}
	tree.AddAPIService(supervisor.NewHTTPService(server, 10*time.Second))

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Commendo ready")

	err = <-tree.ServeBackground(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
	}

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service missed shutdown timeout")
		}
	}
	logging.Info().Msg("Commendo stopped")
}

// newCacheBackend builds the configured cache backend. A redis outage at
// startup degrades to the in-process backend instead of refusing to boot;
// recommendations recompute until redis returns.
func newCacheBackend(cfg config.CacheConfig) cache.Backend {
	if cfg.Backend == "redis" {
		backend, err := cache.NewRedisBackend(cfg.RedisURL)
		if err == nil {
			return backend
		}
		logging.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory cache")
	}
	return cache.NewMemoryBackend(cfg.MemoryCapacity)
}

// collectionNames maps product types onto vector index collections.
func collectionNames(cfg config.VectorIndexConfig) map[catalog.ProductType]string {
	vehicles := cfg.CollectionVehicles
	if vehicles == "" {
		vehicles = "vehicles"
	}
	livreurs := cfg.CollectionCouriers
	if livreurs == "" {
		livreurs = "livreurs"
	}
	return map[catalog.ProductType]string{
		catalog.TypeVehicle: vehicles,
		catalog.TypeCourier: livreurs,
	}
}
