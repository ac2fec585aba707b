// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package config provides layered configuration for Commendo.
//
// Configuration is loaded with Koanf v2 from three layers, later layers
// overriding earlier ones:
//
//  1. Built-in defaults (DefaultConfig)
//  2. An optional YAML config file (COMMENDO_CONFIG or well-known paths)
//  3. Environment variables (explicit mapping table, unmapped vars ignored)
//
// Everything except the log level is immutable after startup; components
// receive the sections they need at construction time and never read the
// global config afterwards.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration tree.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Security    SecurityConfig    `koanf:"security"`
	Cache       CacheConfig       `koanf:"cache"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	Embedding   EmbeddingConfig   `koanf:"embedding"`
	Sentiment   SentimentConfig   `koanf:"sentiment"`
	VectorIndex VectorIndexConfig `koanf:"vector_index"`
	Recommend   RecommendConfig   `koanf:"recommend"`
	Couriers    CouriersConfig    `koanf:"couriers"`
	Tasks       TasksConfig       `koanf:"tasks"`
	Feed        FeedConfig        `koanf:"feed"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
	CORSOrigins []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig holds authentication and rate limit settings.
type SecurityConfig struct {
	// JWTSecret signs admin bearer tokens (HS256). Required in production.
	JWTSecret string `koanf:"jwt_secret"`

	// AdminSecret is the shared secret exchanged for a token at
	// POST /admin/token.
	AdminSecret string `koanf:"admin_secret"`

	// TokenTTL is the admin token lifetime.
	TokenTTL time.Duration `koanf:"token_ttl"`

	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// CacheConfig holds recommendation cache settings.
type CacheConfig struct {
	// Backend selects the cache store: "redis" or "memory".
	Backend string `koanf:"backend"`

	// RedisURL is the connection URL for the redis backend.
	RedisURL string `koanf:"redis_url"`

	// TTL applies to both the specific and the product-level keys.
	TTL time.Duration `koanf:"ttl"`

	// SentimentTolerance is the bucket width tau for fingerprinting and
	// fuzzy lookups.
	SentimentTolerance float64 `koanf:"sentiment_tolerance"`

	// MemoryCapacity bounds the in-process backend.
	MemoryCapacity int `koanf:"memory_capacity"`
}

// CatalogConfig holds product repository settings.
type CatalogConfig struct {
	// Driver selects the SQL backend: "postgres" or "duckdb".
	Driver string `koanf:"driver"`

	// DSN is the postgres connection string.
	DSN string `koanf:"dsn"`

	// Path is the duckdb database file.
	Path string `koanf:"path"`

	MaxOpenConns int `koanf:"max_open_conns"`
	MaxIdleConns int `koanf:"max_idle_conns"`
}

// EmbeddingConfig holds bi-encoder settings.
type EmbeddingConfig struct {
	ModelPath string `koanf:"model_path"`
	BatchSize int    `koanf:"batch_size"`
}

// SentimentConfig holds sentiment classifier settings.
type SentimentConfig struct {
	ModelPath string `koanf:"model_path"`
}

// VectorIndexConfig holds the per-type collection settings and the HNSW
// build parameters.
type VectorIndexConfig struct {
	CollectionVehicles string `koanf:"collection_vehicles"`
	CollectionCouriers string `koanf:"collection_livreurs"`

	M                 int     `koanf:"m"`
	EfConstruct       int     `koanf:"ef_construct"`
	EfSearch          int     `koanf:"ef_search"`
	FullScanThreshold int     `koanf:"full_scan_threshold"`
	ScoreThreshold    float64 `koanf:"score_threshold"`
}

// RecommendConfig holds Core A pipeline settings.
type RecommendConfig struct {
	TopK int `koanf:"top_k"`

	SimilarityWeight   float64 `koanf:"similarity_weight"`
	AvailabilityWeight float64 `koanf:"availability_weight"`
	ReputationWeight   float64 `koanf:"reputation_weight"`

	// AvailabilityBoost is an optional additive post-rank boost for
	// available products, capped at 1.0. Zero disables it.
	AvailabilityBoost float64 `koanf:"availability_boost"`

	// MinScore drops ranked products below the threshold. Zero disables it.
	MinScore float64 `koanf:"min_score"`
}

// CouriersConfig holds the per-urgency spatial tolerances for Core B.
type CouriersConfig struct {
	ToleranceStandardKm float64 `koanf:"tolerance_standard_km"`
	ToleranceExpressKm  float64 `koanf:"tolerance_express_km"`
	ToleranceSameDayKm  float64 `koanf:"tolerance_sameday_km"`
}

// TasksConfig holds the background task runner settings.
type TasksConfig struct {
	// Transport selects the queue transport: "gochannel" (in-process) or
	// "nats" (JetStream).
	Transport string `koanf:"transport"`

	NATSURL      string `koanf:"nats_url"`
	EmbeddedNATS bool   `koanf:"embedded_nats"`
	NATSStoreDir string `koanf:"nats_store_dir"`

	// StorePath is the badger directory for task status and results.
	// Empty runs badger in memory.
	StorePath string `koanf:"store_path"`

	Workers              int           `koanf:"workers"`
	MaxRetries           int           `koanf:"max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	ResultTTL            time.Duration `koanf:"result_ttl"`
	HealthCheckInterval  time.Duration `koanf:"health_check_interval"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`
}

// FeedConfig holds the task event websocket feed settings.
type FeedConfig struct {
	Enabled    bool `koanf:"enabled"`
	SendBuffer int  `koanf:"send_buffer"`
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	switch c.Cache.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("cache.backend %q must be redis or memory", c.Cache.Backend)
	}
	if c.Cache.SentimentTolerance <= 0 || c.Cache.SentimentTolerance > 1 {
		return fmt.Errorf("cache.sentiment_tolerance %g must be in (0, 1]", c.Cache.SentimentTolerance)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}

	switch c.Catalog.Driver {
	case "postgres":
		if c.Catalog.DSN == "" {
			return fmt.Errorf("catalog.dsn is required for the postgres driver")
		}
	case "duckdb":
	default:
		return fmt.Errorf("catalog.driver %q must be postgres or duckdb", c.Catalog.Driver)
	}

	if w := c.Recommend.SimilarityWeight + c.Recommend.AvailabilityWeight + c.Recommend.ReputationWeight; w <= 0 {
		return fmt.Errorf("recommend weights must sum to a positive value, got %g", w)
	}
	if c.Recommend.TopK < 1 || c.Recommend.TopK > 100 {
		return fmt.Errorf("recommend.top_k %d must be in [1, 100]", c.Recommend.TopK)
	}

	for _, tol := range []struct {
		name  string
		value float64
	}{
		{"tolerance_standard_km", c.Couriers.ToleranceStandardKm},
		{"tolerance_express_km", c.Couriers.ToleranceExpressKm},
		{"tolerance_sameday_km", c.Couriers.ToleranceSameDayKm},
	} {
		if tol.value <= 0 {
			return fmt.Errorf("couriers.%s must be positive", tol.name)
		}
	}

	switch c.Tasks.Transport {
	case "gochannel", "nats":
	default:
		return fmt.Errorf("tasks.transport %q must be gochannel or nats", c.Tasks.Transport)
	}
	if c.Tasks.Workers < 1 {
		return fmt.Errorf("tasks.workers must be at least 1")
	}

	if c.isProduction() {
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 characters in production")
		}
		if c.Security.AdminSecret == "" {
			return fmt.Errorf("security.admin_secret is required in production")
		}
	}

	return nil
}

func (c *Config) isProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Clone returns a deep copy so callers can derive variants without
// mutating the shared startup config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	return &clone
}

// Addr returns the host:port the HTTP server binds to.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
