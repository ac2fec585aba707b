// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package vectorindex

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"
)

func newTestIndex(dim int) *Index {
	idx := New(DefaultConfig())
	idx.EnsureCollection("vehicles", dim)
	return idx
}

func TestEnsureCollection_Idempotent(t *testing.T) {
	idx := newTestIndex(4)

	_ = idx.Upsert("vehicles", Point{ID: "a", ProductID: "p1", Vector: []float32{1, 0, 0, 0}})
	idx.EnsureCollection("vehicles", 4)

	if got := idx.Count("vehicles"); got != 1 {
		t.Errorf("Count() = %d after re-ensure, want 1", got)
	}
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	idx := newTestIndex(4)

	err := idx.Upsert("vehicles", Point{ID: "a", ProductID: "p1", Vector: []float32{1, 0}})
	if err == nil {
		t.Error("Upsert() = nil on dimension mismatch, want error")
	}
}

func TestSearch_UnknownCollection(t *testing.T) {
	idx := New(DefaultConfig())

	if _, err := idx.Search(context.Background(), "nope", []float32{1}, 5); err == nil {
		t.Error("Search() = nil for unknown collection, want error")
	}
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	idx := newTestIndex(3)
	ctx := context.Background()

	points := []Point{
		{ID: "a", ProductID: "p1", Vector: []float32{1, 0, 0}},
		{ID: "b", ProductID: "p2", Vector: []float32{0.9, 0.1, 0}},
		{ID: "c", ProductID: "p3", Vector: []float32{0, 1, 0}},
		{ID: "d", ProductID: "p4", Vector: []float32{0, 0, 1}},
	}
	if err := idx.UpsertBatch("vehicles", points); err != nil {
		t.Fatalf("UpsertBatch() error = %v", err)
	}

	results, err := idx.Search(ctx, "vehicles", []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Search() = %d results, want 3", len(results))
	}
	if results[0].ProductID != "p1" || results[1].ProductID != "p2" {
		t.Errorf("Search() order = [%s, %s], want [p1, p2]", results[0].ProductID, results[1].ProductID)
	}
	if results[0].Score < results[1].Score || results[1].Score < results[2].Score {
		t.Errorf("Search() scores not descending: %+v", results)
	}
	if math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("Search() identical vector score = %g, want 1.0", results[0].Score)
	}
}

func TestUpsert_ReplacesExistingPoint(t *testing.T) {
	idx := newTestIndex(2)
	ctx := context.Background()

	_ = idx.Upsert("vehicles", Point{ID: "a", ProductID: "p1", Vector: []float32{1, 0}})
	_ = idx.Upsert("vehicles", Point{ID: "a", ProductID: "p1", Vector: []float32{0, 1}})

	if got := idx.Count("vehicles"); got != 1 {
		t.Errorf("Count() = %d after replace, want 1", got)
	}

	results, err := idx.Search(ctx, "vehicles", []float32{0, 1}, 1)
	if err != nil || len(results) != 1 {
		t.Fatalf("Search() = %v, %v", results, err)
	}
	if math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("Search() after replace score = %g, want 1.0", results[0].Score)
	}
}

func TestDeleteByProductID(t *testing.T) {
	idx := newTestIndex(2)
	ctx := context.Background()

	_ = idx.Upsert("vehicles", Point{ID: "a", ProductID: "p1", Vector: []float32{1, 0}})
	_ = idx.Upsert("vehicles", Point{ID: "b", ProductID: "p2", Vector: []float32{0, 1}})

	if removed := idx.DeleteByProductID("vehicles", "p1"); removed != 1 {
		t.Errorf("DeleteByProductID() = %d, want 1", removed)
	}
	if got := idx.Count("vehicles"); got != 1 {
		t.Errorf("Count() = %d after delete, want 1", got)
	}

	results, err := idx.Search(ctx, "vehicles", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, r := range results {
		if r.ProductID == "p1" {
			t.Error("Search() returned deleted product")
		}
	}
}

func TestSearch_ScoreThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScoreThreshold = 0.5
	idx := New(cfg)
	idx.EnsureCollection("vehicles", 2)
	ctx := context.Background()

	_ = idx.Upsert("vehicles", Point{ID: "a", ProductID: "close", Vector: []float32{1, 0}})
	_ = idx.Upsert("vehicles", Point{ID: "b", ProductID: "orthogonal", Vector: []float32{0, 1}})

	results, err := idx.Search(ctx, "vehicles", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].ProductID != "close" {
		t.Errorf("Search() = %+v, want only the near point", results)
	}
}

func TestSearch_CancelledContext(t *testing.T) {
	idx := newTestIndex(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := idx.Search(ctx, "vehicles", []float32{1, 0}, 5); err == nil {
		t.Error("Search() = nil on cancelled context, want error")
	}
}

// TestHNSWRecall forces the collection past the full-scan threshold and
// checks that graph search still finds the exact nearest neighbor for
// easy (well-separated) queries.
func TestHNSWRecall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FullScanThreshold = 10 // force graph search
	idx := New(cfg)

	const dim = 8
	idx.EnsureCollection("vehicles", dim)
	ctx := context.Background()

	rng := rand.New(rand.NewSource(42)) //nolint:gosec // test fixture
	const n = 500
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		v := make([]float32, dim)
		for d := range v {
			v[d] = float32(rng.NormFloat64())
		}
		vectors[i] = v
		err := idx.Upsert("vehicles", Point{
			ID:        fmt.Sprintf("pt-%d", i),
			ProductID: fmt.Sprintf("p-%d", i),
			Vector:    v,
		})
		if err != nil {
			t.Fatalf("Upsert(%d) error = %v", i, err)
		}
	}

	// Query with stored vectors: the point itself must come back first.
	hits := 0
	const probes = 50
	for i := 0; i < probes; i++ {
		results, err := idx.Search(ctx, "vehicles", vectors[i], 1)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) == 1 && results[0].ProductID == fmt.Sprintf("p-%d", i) {
			hits++
		}
	}

	// HNSW is approximate; identical-vector queries should still be
	// near-perfect.
	if hits < probes*9/10 {
		t.Errorf("graph search recall = %d/%d, want >= 90%%", hits, probes)
	}
}
