// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Catalog query performance (PostgreSQL / DuckDB)
// - API endpoint latency and throughput
// - Recommendation cache efficiency
// - Embedding and vector index operations
// - Task queue throughput and retries
// - WebSocket task feed connections

var (
	// Catalog Metrics
	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_query_duration_seconds",
			Help:    "Duration of catalog queries in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s, 0.01s, 0.025s, 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s
		},
		[]string{"operation"},
	)

	CatalogQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_query_errors_total",
			Help: "Total number of catalog query errors",
		},
		[]string{"operation"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Recommendation Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"lookup"}, // "exact", "fuzzy", "product"
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	CacheWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_writes_total",
			Help: "Total number of cache entries written",
		},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Total number of cache entries removed by invalidation",
		},
	)

	CacheBackendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_backend_errors_total",
			Help: "Total number of cache backend failures degraded to misses",
		},
		[]string{"operation"},
	)

	// Embedding Metrics
	EmbeddingBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_batch_size",
			Help:    "Number of texts per embedding batch",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		},
	)

	EmbeddingBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_batch_duration_seconds",
			Help:    "Duration of embedding batches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Sentiment Metrics
	SentimentInferences = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_inferences_total",
			Help: "Total number of sentiment inferences by resulting label",
		},
		[]string{"label"}, // "positive", "neutral", "negative"
	)

	SentimentFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentiment_failures_total",
			Help: "Total number of sentiment inferences degraded to neutral",
		},
	)

	// Vector Index Metrics
	VectorSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vector_search_duration_seconds",
			Help:    "Duration of vector similarity searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection"},
	)

	VectorPointsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vector_points_upserted_total",
			Help: "Total number of points written to the vector index",
		},
		[]string{"collection"},
	)

	VectorIndexSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vector_index_points",
			Help: "Current number of points per vector collection",
		},
		[]string{"collection"},
	)

	// Task Queue Metrics
	TasksPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_published_total",
			Help: "Total number of tasks published to queues",
		},
		[]string{"queue", "task"},
	)

	TasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_processed_total",
			Help: "Total number of tasks finished by terminal status",
		},
		[]string{"queue", "task", "status"}, // status: "SUCCESS", "FAILURE"
	)

	TaskRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_retries_total",
			Help: "Total number of task retry attempts",
		},
		[]string{"queue", "task"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "task_duration_seconds",
			Help:    "Task execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"queue", "task"},
	)

	TaskWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "task_workers",
			Help: "Configured number of task workers",
		},
	)

	// Ranking Metrics
	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "End-to-end recommendation pipeline duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"product_type", "source"}, // source: "cache", "pipeline"
	)

	CourierRankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "courier_ranking_duration_seconds",
			Help:    "Courier ranking pipeline duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CourierCandidatesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courier_candidates_rejected_total",
			Help: "Total number of courier candidates rejected by the spatial gate",
		},
	)

	// WebSocket Task Feed Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordCatalogQuery records a catalog query metric.
func RecordCatalogQuery(operation string, duration time.Duration, err error) {
	CatalogQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		CatalogQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheHit records a cache hit for one of the three lookup kinds.
func RecordCacheHit(lookup string) {
	CacheHits.WithLabelValues(lookup).Inc()
}

// RecordCacheMiss records a cache miss.
func RecordCacheMiss() {
	CacheMisses.Inc()
}

// RecordCacheBackendError records a backend failure degraded to a miss.
func RecordCacheBackendError(operation string) {
	CacheBackendErrors.WithLabelValues(operation).Inc()
}

// ObserveEmbeddingBatch records one embedding batch.
func ObserveEmbeddingBatch(batchSize int, duration time.Duration) {
	EmbeddingBatchSize.Observe(float64(batchSize))
	EmbeddingBatchDuration.Observe(duration.Seconds())
}

// RecordSentiment records an inference outcome by label.
func RecordSentiment(label string) {
	SentimentInferences.WithLabelValues(label).Inc()
}

// ObserveVectorSearch records a similarity search.
func ObserveVectorSearch(collection string, duration time.Duration) {
	VectorSearchDuration.WithLabelValues(collection).Observe(duration.Seconds())
}

// RecordVectorUpsert records points written to a collection and refreshes
// the collection size gauge.
func RecordVectorUpsert(collection string, points, total int) {
	VectorPointsUpserted.WithLabelValues(collection).Add(float64(points))
	VectorIndexSize.WithLabelValues(collection).Set(float64(total))
}

// RecordTaskPublished records a task being enqueued.
func RecordTaskPublished(queue, task string) {
	TasksPublished.WithLabelValues(queue, task).Inc()
}

// RecordTaskProcessed records a task reaching a terminal status.
func RecordTaskProcessed(queue, task, status string, duration time.Duration) {
	TasksProcessed.WithLabelValues(queue, task, status).Inc()
	TaskDuration.WithLabelValues(queue, task).Observe(duration.Seconds())
}

// RecordTaskRetry records a retry attempt.
func RecordTaskRetry(queue, task string) {
	TaskRetries.WithLabelValues(queue, task).Inc()
}

// ObserveRecommendation records a full recommendation request.
func ObserveRecommendation(productType, source string, duration time.Duration) {
	RecommendationDuration.WithLabelValues(productType, source).Observe(duration.Seconds())
}

// ObserveCourierRanking records one courier ranking run and the number of
// candidates its spatial gate rejected.
func ObserveCourierRanking(duration time.Duration, rejected int) {
	CourierRankingDuration.Observe(duration.Seconds())
	CourierCandidatesRejected.Add(float64(rejected))
}

// RecordCircuitBreakerRequest records a request outcome through a breaker.
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordCircuitBreakerTransition records a breaker state change and updates
// the state gauge.
func RecordCircuitBreakerTransition(name, from, to string, stateValue float64) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(stateValue)
}
