// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/metrics"
)

// RedisBackend is a Backend over a redis server, wrapped in a circuit
// breaker so a struggling redis cannot stall the recommendation pipeline.
// When the circuit is open every operation fails fast and the cache layer
// above degrades to a miss.
type RedisBackend struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewRedisBackend connects to redis using a connection URL
// (redis://host:port/db).
//
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 30 second timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewRedisBackend(url string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	cbName := "cache-redis"

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		// ReadyToTrip determines when to open the circuit
		// Opens when failure rate >= 60% with minimum 10 requests
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening redis cache circuit")
			}

			return shouldTrip
		},

		// OnStateChange is called whenever the circuit breaker changes state
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordCircuitBreakerTransition(name, fromStr, toStr, stateToFloat(to))
		},
	})

	return &RedisBackend{
		client: client,
		cb:     cb,
		name:   cbName,
	}, nil
}

// execute wraps a redis call with circuit breaker protection.
func (b *RedisBackend) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordCircuitBreakerRequest(b.name, "rejected")
		} else {
			metrics.RecordCircuitBreakerRequest(b.name, "failure")
		}
		return nil, err
	}

	metrics.RecordCircuitBreakerRequest(b.name, "success")
	return result, nil
}

// Get retrieves a raw value. A redis.Nil reply is a plain miss and does not
// count against the circuit breaker.
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := b.execute(func() (interface{}, error) {
		raw, err := b.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return nil, false, err
	}
	if result == nil {
		return nil, false, nil
	}
	return result.([]byte), true, nil
}

// Set stores a raw value with the given TTL.
func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.client.Set(ctx, key, value, ttl).Err()
	})
	return err
}

// Scan returns all keys matching a glob pattern using cursor iteration, so
// large keyspaces never block the server the way KEYS would.
func (b *RedisBackend) Scan(ctx context.Context, pattern string) ([]string, error) {
	result, err := b.execute(func() (interface{}, error) {
		var keys []string
		iter := b.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		return keys, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// Delete removes the given keys.
func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.client.Del(ctx, keys...).Err()
	})
	return err
}

// Ping verifies connectivity with circuit breaker protection.
func (b *RedisBackend) Ping(ctx context.Context) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.client.Ping(ctx).Err()
	})
	return err
}

// Close releases the redis connection pool.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

var _ Backend = (*RedisBackend)(nil)
