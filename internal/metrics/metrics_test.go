// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// TestRecordCatalogQuery tests catalog query metric recording.
func TestRecordCatalogQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		duration  time.Duration
		err       error
	}{
		{
			name:      "successful get by id",
			operation: "get_by_id",
			duration:  10 * time.Millisecond,
			err:       nil,
		},
		{
			name:      "failed list",
			operation: "list_all",
			duration:  100 * time.Millisecond,
			err:       errors.New("connection refused"),
		},
		{
			name:      "fast query under 1ms",
			operation: "get_batch",
			duration:  500 * time.Microsecond,
			err:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(CatalogQueryErrors.WithLabelValues(tt.operation))

			RecordCatalogQuery(tt.operation, tt.duration, tt.err)

			after := testutil.ToFloat64(CatalogQueryErrors.WithLabelValues(tt.operation))
			if tt.err != nil && after != before+1 {
				t.Errorf("expected error counter to increment, got %f -> %f", before, after)
			}
			if tt.err == nil && after != before {
				t.Errorf("expected error counter unchanged, got %f -> %f", before, after)
			}
		})
	}
}

func TestRecordCacheHitByLookup(t *testing.T) {
	lookups := []string{"exact", "fuzzy", "product"}

	for _, lookup := range lookups {
		before := testutil.ToFloat64(CacheHits.WithLabelValues(lookup))
		RecordCacheHit(lookup)
		after := testutil.ToFloat64(CacheHits.WithLabelValues(lookup))
		if after != before+1 {
			t.Errorf("lookup %q: expected %f, got %f", lookup, before+1, after)
		}
	}
}

func TestRecordCacheMiss(t *testing.T) {
	before := testutil.ToFloat64(CacheMisses)
	RecordCacheMiss()
	RecordCacheMiss()
	after := testutil.ToFloat64(CacheMisses)
	if after != before+2 {
		t.Errorf("expected miss counter +2, got %f -> %f", before, after)
	}
}

func TestRecordTaskProcessed(t *testing.T) {
	before := testutil.ToFloat64(TasksProcessed.WithLabelValues("sentiment", "analyze_sentiment", "SUCCESS"))

	RecordTaskProcessed("sentiment", "analyze_sentiment", "SUCCESS", 50*time.Millisecond)

	after := testutil.ToFloat64(TasksProcessed.WithLabelValues("sentiment", "analyze_sentiment", "SUCCESS"))
	if after != before+1 {
		t.Errorf("expected processed counter to increment, got %f -> %f", before, after)
	}
}

func TestRecordTaskRetry(t *testing.T) {
	before := testutil.ToFloat64(TaskRetries.WithLabelValues("vectorization", "vectorize_products"))
	RecordTaskRetry("vectorization", "vectorize_products")
	after := testutil.ToFloat64(TaskRetries.WithLabelValues("vectorization", "vectorize_products"))
	if after != before+1 {
		t.Errorf("expected retry counter to increment, got %f -> %f", before, after)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != base+1 {
		t.Errorf("expected gauge %f, got %f", base+1, got)
	}

	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != base {
		t.Errorf("expected gauge %f, got %f", base, got)
	}
}

func TestRecordVectorUpsertUpdatesGauge(t *testing.T) {
	RecordVectorUpsert("vehicles", 10, 250)

	if got := testutil.ToFloat64(VectorIndexSize.WithLabelValues("vehicles")); got != 250 {
		t.Errorf("expected index size gauge 250, got %f", got)
	}
}

// TestMetricFamiliesRegistered verifies the domain metric families are
// registered on the default registry with the expected types.
func TestMetricFamiliesRegistered(t *testing.T) {
	RecordCacheHit("exact")
	ObserveEmbeddingBatch(8, 5*time.Millisecond)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	tests := []struct {
		name string
		typ  dto.MetricType
	}{
		{"cache_hits_total", dto.MetricType_COUNTER},
		{"embedding_batch_size", dto.MetricType_HISTOGRAM},
		{"api_active_requests", dto.MetricType_GAUGE},
	}

	for _, tt := range tests {
		mf, ok := byName[tt.name]
		if !ok {
			t.Errorf("metric family %q not registered", tt.name)
			continue
		}
		if mf.GetType() != tt.typ {
			t.Errorf("metric family %q has type %v, want %v", tt.name, mf.GetType(), tt.typ)
		}
	}
}

func TestRecordSentimentDoesNotPanic(t *testing.T) {
	for _, label := range []string{"positive", "neutral", "negative"} {
		RecordSentiment(label)
	}
}
