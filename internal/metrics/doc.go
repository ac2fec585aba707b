// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements application instrumentation using the Prometheus
client library, exposing metrics for monitoring performance, errors, and
system health.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Catalog query performance
  - Recommendation cache hit/miss rates by lookup kind
  - Embedding batch throughput
  - Vector index search latency and collection sizes
  - Task queue throughput, retries, and durations
  - Circuit breaker state transitions
  - WebSocket task feed connections

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8000/metrics

# Usage

Metrics are package-level collectors registered via promauto. Record
helpers keep call sites terse:

	start := time.Now()
	rows, err := store.ListAvailable(ctx, limit)
	metrics.RecordCatalogQuery("list_available", time.Since(start), err)
*/
package metrics
