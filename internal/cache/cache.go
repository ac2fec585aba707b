// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package cache

import (
	"context"
	"crypto/md5" //nolint:gosec // cache fingerprinting, not security
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/metrics"
)

// Lookup kinds reported on cache hits.
const (
	LookupExact   = "exact"
	LookupFuzzy   = "fuzzy"
	LookupProduct = "product"
)

// DefaultTolerance is the sentiment bucket width used when none is configured.
const DefaultTolerance = 0.1

// DefaultTTL applies to both the specific and product-level keys.
const DefaultTTL = 3600 * time.Second

// Request identifies a recommendation computation for caching purposes.
type Request struct {
	ProductType string
	ProductID   string
	ClientID    string
	Sentiment   float64
}

// Entry is the stored cache record. Payload holds the serialized
// recommendation response so the cache stays decoupled from the pipeline's
// result types.
type Entry struct {
	ProductID   string          `json:"product_id"`
	ProductType string          `json:"product_type"`
	ClientID    string          `json:"client_id,omitempty"`
	Sentiment   float64         `json:"sentiment"`
	Payload     json.RawMessage `json:"payload"`
	CachedAt    time.Time       `json:"cached_at"`
}

// Config holds the cache tuning knobs.
type Config struct {
	// TTL applies to every key written.
	TTL time.Duration

	// Tolerance is the sentiment bucket width. Fuzzy lookups probe the
	// neighboring buckets at +-Tolerance, and product-level hits require the
	// cached sentiment to lie within Tolerance of the request.
	Tolerance float64
}

// RecommendationCache serves and stores recommendation responses keyed by
// sentiment-bucketed fingerprints. Every operation degrades gracefully: a
// backend failure is logged and reported as a miss (or a false put), never
// as an error to the caller.
type RecommendationCache struct {
	backend   Backend
	ttl       time.Duration
	tolerance float64
}

// New creates a RecommendationCache over the given backend.
func New(backend Backend, cfg Config) *RecommendationCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	return &RecommendationCache{
		backend:   backend,
		ttl:       cfg.TTL,
		tolerance: cfg.Tolerance,
	}
}

// Tolerance returns the configured sentiment bucket width.
func (c *RecommendationCache) Tolerance() float64 {
	return c.tolerance
}

// Bucket quantizes a sentiment score to the nearest tolerance multiple.
// Scores within the same bucket share a fingerprint.
func (c *RecommendationCache) Bucket(sentiment float64) float64 {
	return math.Round(sentiment/c.tolerance) * c.tolerance
}

// Fingerprint derives the 16-hex-char identity of a request. The sentiment
// participates through its bucket, so near-identical scores collapse onto
// the same key.
func (c *RecommendationCache) Fingerprint(req Request) string {
	return c.fingerprintAt(req, c.Bucket(req.Sentiment))
}

func (c *RecommendationCache) fingerprintAt(req Request, bucket float64) string {
	// Rounding a small negative score yields -0.0, which %.2f renders as
	// "-0.00"; fold it onto +0 so both signs of zero share a key.
	if bucket == 0 {
		bucket = 0
	}
	raw := fmt.Sprintf("%s:%s:%s:%.2f", req.ProductType, req.ProductID, req.ClientID, bucket)
	sum := md5.Sum([]byte(raw)) //nolint:gosec // cache fingerprinting, not security
	return hex.EncodeToString(sum[:])[:16]
}

// specificKey is the exact-match key for a fingerprint.
func (c *RecommendationCache) specificKey(productType, fingerprint string) string {
	return fmt.Sprintf("rec:%s:%s", productType, fingerprint)
}

// productKey is the product-level key shared by all requests for a product.
func (c *RecommendationCache) productKey(productType, productID string) string {
	return fmt.Sprintf("prod:%s:%s", productType, productID)
}

// Lookup probes the cache in order: exact fingerprint, neighboring sentiment
// buckets, then the product-level entry. The returned lookup kind is one of
// LookupExact, LookupFuzzy, or LookupProduct on a hit.
func (c *RecommendationCache) Lookup(ctx context.Context, req Request) (*Entry, string, bool) {
	bucket := c.Bucket(req.Sentiment)

	// Exact bucket first.
	if entry := c.getEntry(ctx, c.specificKey(req.ProductType, c.fingerprintAt(req, bucket))); entry != nil {
		metrics.RecordCacheHit(LookupExact)
		return entry, LookupExact, true
	}

	// Fuzzy: probe the neighboring buckets, clamped to the valid sentiment
	// range. Skip a neighbor that collapses onto the exact bucket.
	for _, neighbor := range []float64{bucket - c.tolerance, bucket + c.tolerance} {
		neighbor = clampSentiment(neighbor)
		if neighbor == bucket {
			continue
		}
		key := c.specificKey(req.ProductType, c.fingerprintAt(req, neighbor))
		if entry := c.getEntry(ctx, key); entry != nil {
			metrics.RecordCacheHit(LookupFuzzy)
			return entry, LookupFuzzy, true
		}
	}

	// Product-level: any cached result for this product qualifies as long
	// as its sentiment is within tolerance of the request.
	if entry := c.getEntry(ctx, c.productKey(req.ProductType, req.ProductID)); entry != nil {
		if math.Abs(entry.Sentiment-req.Sentiment) <= c.tolerance {
			metrics.RecordCacheHit(LookupProduct)
			return entry, LookupProduct, true
		}
	}

	metrics.RecordCacheMiss()
	return nil, "", false
}

// Put stores a recommendation payload under both the specific and the
// product-level keys. Returns false when the backend rejects the write.
func (c *RecommendationCache) Put(ctx context.Context, req Request, payload json.RawMessage) bool {
	entry := Entry{
		ProductID:   req.ProductID,
		ProductType: req.ProductType,
		ClientID:    req.ClientID,
		Sentiment:   req.Sentiment,
		Payload:     payload,
		CachedAt:    time.Now().UTC(),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Cache entry serialization failed")
		return false
	}

	specific := c.specificKey(req.ProductType, c.Fingerprint(req))
	if err := c.backend.Set(ctx, specific, raw, c.ttl); err != nil {
		c.backendError(ctx, "set", specific, err)
		return false
	}

	product := c.productKey(req.ProductType, req.ProductID)
	if err := c.backend.Set(ctx, product, raw, c.ttl); err != nil {
		c.backendError(ctx, "set", product, err)
		return false
	}

	return true
}

// Invalidate purges the cache for a product: every specific key of the
// product type plus the product-level key. Type-wide deletion over-purges
// neighbors on purpose, a recompute is cheaper than serving a stale entry
// whose fingerprint cannot be recovered from the key. Returns the number of
// keys removed.
func (c *RecommendationCache) Invalidate(ctx context.Context, productType, productID string) int {
	removed := 0

	pattern := fmt.Sprintf("rec:%s:*", productType)
	keys, err := c.backend.Scan(ctx, pattern)
	if err != nil {
		c.backendError(ctx, "scan", pattern, err)
		keys = nil
	}

	for _, key := range keys {
		if err := c.backend.Delete(ctx, key); err != nil {
			c.backendError(ctx, "delete", key, err)
			continue
		}
		removed++
	}

	product := c.productKey(productType, productID)
	if err := c.backend.Delete(ctx, product); err != nil {
		c.backendError(ctx, "delete", product, err)
	} else {
		removed++
	}

	logging.Ctx(ctx).Info().
		Str("product_type", productType).
		Str("product_id", productID).
		Int("removed", removed).
		Msg("Cache invalidated for product")

	return removed
}

// Ping reports backend reachability for health checks.
func (c *RecommendationCache) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

// Close releases the backend.
func (c *RecommendationCache) Close() error {
	return c.backend.Close()
}

// getEntry fetches and decodes one entry, treating every failure as a miss.
func (c *RecommendationCache) getEntry(ctx context.Context, key string) *Entry {
	raw, found, err := c.backend.Get(ctx, key)
	if err != nil {
		c.backendError(ctx, "get", key, err)
		return nil
	}
	if !found {
		return nil
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		return nil
	}
	return &entry
}

func (c *RecommendationCache) backendError(ctx context.Context, op, key string, err error) {
	metrics.RecordCacheBackendError(op)
	logging.Ctx(ctx).Warn().Err(err).
		Str("operation", op).
		Str("key", key).
		Msg("Cache backend unavailable, degrading to miss")
}

func clampSentiment(s float64) float64 {
	if s < -1 {
		return -1
	}
	if s > 1 {
		return 1
	}
	return s
}
