// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package cache implements the tolerance-aware recommendation cache.
//
// Recommendation responses are cached under two kinds of keys: a specific key
// derived from a fingerprint of (product type, product, client, bucketed
// sentiment), and a product-level key that lets requests with slightly
// different sentiment reuse an existing result. Lookups degrade to a miss on
// any backend failure; the pipeline then recomputes instead of erroring.
package cache

import (
	"context"
	"time"
)

// Backend is the storage layer beneath the recommendation cache.
// Implementations must be safe for concurrent use. Keys are flat strings
// with ":"-separated segments; Scan patterns use redis-style globs.
type Backend interface {
	// Get retrieves a raw value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a raw value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Scan returns all keys matching a glob pattern.
	Scan(ctx context.Context, pattern string) ([]string, error)

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
