// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/skouam/commendo/internal/cache"
	"github.com/skouam/commendo/internal/catalog"
	"github.com/skouam/commendo/internal/embedding"
	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/metrics"
	"github.com/skouam/commendo/internal/ranking"
	"github.com/skouam/commendo/internal/vectorindex"
)

// Engine runs the recommendation pipeline. All dependencies are injected;
// the engine holds no mutable state of its own and is safe for concurrent
// use.
type Engine struct {
	cache       *cache.RecommendationCache
	catalog     catalog.Store
	encoder     embedding.Encoder
	index       *vectorindex.Index
	ranker      *ranking.Ranker
	collections map[catalog.ProductType]string
	topK        int
}

// Config wires the engine's collaborators.
type Config struct {
	Cache   *cache.RecommendationCache
	Catalog catalog.Store
	Encoder embedding.Encoder
	Index   *vectorindex.Index
	Ranker  *ranking.Ranker

	// Collections maps each product type to its vector index collection.
	Collections map[catalog.ProductType]string

	// TopK is the default result count. Default: DefaultTopK.
	TopK int
}

// New creates an Engine.
func New(cfg Config) (*Engine, error) {
	switch {
	case cfg.Cache == nil:
		return nil, errors.New("recommend: cache is required")
	case cfg.Catalog == nil:
		return nil, errors.New("recommend: catalog is required")
	case cfg.Encoder == nil:
		return nil, errors.New("recommend: encoder is required")
	case cfg.Index == nil:
		return nil, errors.New("recommend: index is required")
	case len(cfg.Collections) == 0:
		return nil, errors.New("recommend: collections are required")
	}

	if cfg.Ranker == nil {
		cfg.Ranker = ranking.New(ranking.DefaultConfig())
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}

	return &Engine{
		cache:       cfg.Cache,
		catalog:     cfg.Catalog,
		encoder:     cfg.Encoder,
		index:       cfg.Index,
		ranker:      cfg.Ranker,
		collections: cfg.Collections,
		topK:        cfg.TopK,
	}, nil
}

// Process runs the full pipeline for one request. The context is honored
// between stages, so a cancelled request stops before the next expensive
// step rather than mid-flight.
func (e *Engine) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if req.TopK <= 0 {
		req.TopK = e.topK
	}

	collection, ok := e.collections[req.ProductType]
	if !ok {
		return nil, fmt.Errorf("recommend: no collection for product type %q", req.ProductType)
	}

	cacheReq := cache.Request{
		ProductType: string(req.ProductType),
		ProductID:   req.ProductID,
		ClientID:    req.ClientID,
		Sentiment:   req.Sentiment,
	}

	// Stage 1: cache probe.
	if !req.SkipCache {
		if entry, kind, hit := e.cache.Lookup(ctx, cacheReq); hit {
			result, err := resultFromEntry(entry, kind, req)
			if err == nil {
				result.DurationMs = msSince(start)
				metrics.ObserveRecommendation(string(req.ProductType), result.Source, time.Since(start))
				return result, nil
			}
			logging.Ctx(ctx).Warn().Err(err).Msg("Discarding undecodable cache hit, recomputing")
		}
	}

	// Stage 2: anchor fetch. A missing anchor ends the pipeline with an
	// empty successful result.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	anchor, err := e.catalog.GetByID(ctx, req.ProductType, req.ProductID)
	if errors.Is(err, catalog.ErrNotFound) {
		logging.Ctx(ctx).Info().
			Str("product_id", req.ProductID).
			Str("product_type", string(req.ProductType)).
			Msg("Anchor product not found, returning empty result")
		return e.emptyResult(req, start), nil
	}
	if err != nil {
		return nil, fmt.Errorf("recommend: anchor fetch: %w", err)
	}

	// Stage 3: description build.
	description := anchor.Description()

	// Stage 4: embed.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vector, err := e.encoder.Encode(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("recommend: embedding: %w", err)
	}

	// Stage 5: similarity search. Over-fetch so excluding the anchor and
	// any stale index entries still leaves top_k candidates.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := e.index.Search(ctx, collection, vector, req.TopK*2)
	if err != nil {
		return nil, fmt.Errorf("recommend: vector search: %w", err)
	}

	candidates := make([]vectorindex.SearchResult, 0, req.TopK)
	for _, m := range matches {
		if m.ProductID == req.ProductID {
			continue
		}
		candidates = append(candidates, m)
		if len(candidates) == req.TopK {
			break
		}
	}

	// Stage 6: batch details.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := make([]string, len(candidates))
	similarity := make(map[string]float64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ProductID
		similarity[c.ProductID] = c.Score
	}
	products, err := e.catalog.GetBatch(ctx, req.ProductType, ids)
	if err != nil {
		return nil, fmt.Errorf("recommend: candidate fetch: %w", err)
	}

	// Stage 7: fusion rank.
	fusion := make([]ranking.Candidate, len(products))
	byID := make(map[string]catalog.Product, len(products))
	for i, p := range products {
		fusion[i] = ranking.Candidate{
			ID:         p.ID,
			Similarity: similarity[p.ID],
			Available:  p.Available,
			Rating:     p.Rating,
		}
		byID[p.ID] = p
	}
	ranked := e.ranker.Rank(fusion)

	result := &Result{
		ProductID:   req.ProductID,
		ProductType: string(req.ProductType),
		ClientID:    req.ClientID,
		Sentiment:   req.Sentiment,
		Items:       itemsFromRanked(ranked, byID),
		Source:      SourceComputed,
	}

	// Stage 8: cache put, only after a successful rank. A failed write
	// degrades silently; the response is already computed.
	if !req.SkipCache {
		if payload, err := json.Marshal(result.Items); err == nil {
			e.cache.Put(ctx, cacheReq, payload)
		} else {
			logging.Ctx(ctx).Error().Err(err).Msg("Recommendation payload serialization failed")
		}
	}

	result.DurationMs = msSince(start)
	metrics.ObserveRecommendation(string(req.ProductType), SourceComputed, time.Since(start))

	logging.Ctx(ctx).Info().
		Str("product_id", req.ProductID).
		Str("product_type", string(req.ProductType)).
		Int("count", len(result.Items)).
		Float64("sentiment", req.Sentiment).
		Msg("Recommendations computed")

	return result, nil
}

// IndexProduct embeds one product's description and upserts it into the
// type's collection. Used by the vectorization tasks and admin reindexing.
func (e *Engine) IndexProduct(ctx context.Context, productType catalog.ProductType, p *catalog.Product) error {
	collection, ok := e.collections[productType]
	if !ok {
		return fmt.Errorf("recommend: no collection for product type %q", productType)
	}

	vector, err := e.encoder.Encode(ctx, p.Description())
	if err != nil {
		return fmt.Errorf("recommend: embedding product %s: %w", p.ID, err)
	}

	return e.index.Upsert(collection, vectorindex.Point{
		ID:        p.ID,
		ProductID: p.ID,
		Vector:    vector,
	})
}

// Reindex rebuilds the collection for a product type from the catalog.
// With recreate set, existing points are discarded first; otherwise the
// rebuild is a pure upsert. Returns the number of products indexed.
func (e *Engine) Reindex(ctx context.Context, productType catalog.ProductType, recreate bool) (int, error) {
	collection, ok := e.collections[productType]
	if !ok {
		return 0, fmt.Errorf("recommend: no collection for product type %q", productType)
	}

	if recreate {
		if err := e.index.ResetCollection(collection); err != nil {
			return 0, fmt.Errorf("recommend: resetting collection: %w", err)
		}
	}

	products, err := e.catalog.ListAll(ctx, productType)
	if err != nil {
		return 0, fmt.Errorf("recommend: listing products: %w", err)
	}
	if len(products) == 0 {
		return 0, nil
	}

	texts := make([]string, len(products))
	for i := range products {
		texts[i] = products[i].Description()
	}

	vectors, err := e.encoder.EncodeBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("recommend: embedding batch: %w", err)
	}

	points := make([]vectorindex.Point, len(products))
	for i := range products {
		points[i] = vectorindex.Point{
			ID:        products[i].ID,
			ProductID: products[i].ID,
			Vector:    vectors[i],
		}
	}
	if err := e.index.UpsertBatch(collection, points); err != nil {
		return 0, fmt.Errorf("recommend: upserting batch: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("product_type", string(productType)).
		Int("count", len(points)).
		Msg("Collection reindexed")

	return len(points), nil
}

// InvalidateProduct removes a product from the cache and the vector index,
// typically after a catalog update.
func (e *Engine) InvalidateProduct(ctx context.Context, productType catalog.ProductType, productID string) int {
	removed := e.cache.Invalidate(ctx, string(productType), productID)
	if collection, ok := e.collections[productType]; ok {
		e.index.DeleteByProductID(collection, productID)
	}
	return removed
}

func (e *Engine) emptyResult(req Request, start time.Time) *Result {
	return &Result{
		ProductID:   req.ProductID,
		ProductType: string(req.ProductType),
		ClientID:    req.ClientID,
		Sentiment:   req.Sentiment,
		Items:       []Item{},
		Source:      SourceComputed,
		DurationMs:  msSince(start),
	}
}

// resultFromEntry rebuilds a Result from a cache hit.
func resultFromEntry(entry *cache.Entry, kind string, req Request) (*Result, error) {
	var items []Item
	if err := json.Unmarshal(entry.Payload, &items); err != nil {
		return nil, err
	}

	source := SourceCacheExact
	switch kind {
	case cache.LookupFuzzy:
		source = SourceCacheFuzzy
	case cache.LookupProduct:
		source = SourceCacheProduct
	}

	cachedAt := entry.CachedAt
	return &Result{
		ProductID:   req.ProductID,
		ProductType: string(req.ProductType),
		ClientID:    req.ClientID,
		Sentiment:   req.Sentiment,
		Items:       items,
		Source:      source,
		CachedAt:    &cachedAt,
	}, nil
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
