// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package vectorindex provides the in-process embedding index used for
// similarity search over product descriptions.
//
// Each product type gets its own named collection. Vectors are normalized
// at insert time, so cosine similarity reduces to a dot product. Small
// collections are searched by exhaustive scan; once a collection grows past
// the configured threshold, queries run over an HNSW graph maintained
// incrementally on insert.
package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/metrics"
)

// Config holds the HNSW build and query parameters.
type Config struct {
	// M is the maximum number of bidirectional links per node above
	// layer 0; layer 0 allows 2*M.
	M int

	// EfConstruct is the candidate list size during graph construction.
	EfConstruct int

	// EfSearch is the candidate list size during queries.
	EfSearch int

	// FullScanThreshold is the collection size below which queries use an
	// exhaustive scan instead of the graph. Exact results are cheap at
	// this scale and sidestep graph recall concerns.
	FullScanThreshold int

	// ScoreThreshold drops results scoring below it. Zero keeps everything.
	ScoreThreshold float64
}

// DefaultConfig returns the standard index parameters.
func DefaultConfig() Config {
	return Config{
		M:                 16,
		EfConstruct:       100,
		EfSearch:          128,
		FullScanThreshold: 10000,
		ScoreThreshold:    0,
	}
}

// Point is one stored embedding. ProductID carries the catalog identity the
// search results report back; the point ID is internal to the index.
type Point struct {
	ID        string
	ProductID string
	Vector    []float32
}

// SearchResult is one similarity match.
type SearchResult struct {
	ProductID string
	Score     float64
}

// Index manages the named collections.
type Index struct {
	mu          sync.RWMutex
	collections map[string]*collection
	cfg         Config
}

// New creates an empty index.
func New(cfg Config) *Index {
	if cfg.M <= 0 {
		cfg.M = 16
	}
	if cfg.EfConstruct <= 0 {
		cfg.EfConstruct = 100
	}
	if cfg.EfSearch <= 0 {
		cfg.EfSearch = 128
	}
	if cfg.FullScanThreshold < 0 {
		cfg.FullScanThreshold = 0
	}
	return &Index{
		collections: make(map[string]*collection),
		cfg:         cfg,
	}
}

// EnsureCollection creates the collection if it does not exist. Creating an
// existing collection is a no-op, so startup can call this unconditionally.
func (i *Index) EnsureCollection(name string, dim int) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.collections[name]; ok {
		return
	}
	i.collections[name] = newCollection(name, dim, i.cfg)
	logging.Info().Str("collection", name).Int("dim", dim).Msg("Vector collection created")
}

// ResetCollection discards every point in the collection while keeping its
// name and dimension. Used by vectorization tasks submitted with
// recreate=true. Resetting an unknown collection returns an error.
func (i *Index) ResetCollection(name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	c, ok := i.collections[name]
	if !ok {
		return fmt.Errorf("unknown collection %q", name)
	}
	i.collections[name] = newCollection(name, c.dim, i.cfg)
	logging.Info().Str("collection", name).Msg("Vector collection reset")
	return nil
}

// Collections returns the collection names, sorted.
func (i *Index) Collections() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	names := make([]string, 0, len(i.collections))
	for name := range i.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of live points in a collection.
func (i *Index) Count(name string) int {
	c, err := i.collection(name)
	if err != nil {
		return 0
	}
	return c.count()
}

// Upsert inserts or replaces one point.
func (i *Index) Upsert(name string, p Point) error {
	c, err := i.collection(name)
	if err != nil {
		return err
	}
	if err := c.upsert(p); err != nil {
		return err
	}
	metrics.RecordVectorUpsert(name, 1, c.count())
	return nil
}

// UpsertBatch inserts or replaces many points.
func (i *Index) UpsertBatch(name string, points []Point) error {
	c, err := i.collection(name)
	if err != nil {
		return err
	}
	for idx := range points {
		if err := c.upsert(points[idx]); err != nil {
			return fmt.Errorf("point %s: %w", points[idx].ID, err)
		}
	}
	metrics.RecordVectorUpsert(name, len(points), c.count())
	return nil
}

// Search returns up to limit points most similar to the query vector,
// best first. Results below the score threshold are dropped.
func (i *Index) Search(ctx context.Context, name string, query []float32, limit int) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := i.collection(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := c.search(query, limit)
	metrics.ObserveVectorSearch(name, time.Since(start))
	return results, err
}

// DeleteByProductID removes every point carrying the given product identity.
// Returns the number of points removed.
func (i *Index) DeleteByProductID(name, productID string) int {
	c, err := i.collection(name)
	if err != nil {
		return 0
	}
	return c.deleteByProduct(productID)
}

func (i *Index) collection(name string) (*collection, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	c, ok := i.collections[name]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", name)
	}
	return c, nil
}

// normalize returns a unit-length copy of v. Zero vectors are returned as-is;
// they score zero against everything.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// dot computes the inner product, which equals cosine similarity for
// normalized vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
