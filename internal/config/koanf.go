// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/commendo/config.yaml",
	"/etc/commendo/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "COMMENDO_CONFIG"

// DefaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			Timeout:     30 * time.Second,
			Environment: "development",
			CORSOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			AdminSecret:       "",
			TokenTTL:          30 * time.Minute,
			RateLimitReqs:     100,
			RateLimitWindow:   60 * time.Second,
			RateLimitDisabled: false,
		},
		Cache: CacheConfig{
			Backend:            "memory",
			RedisURL:           "redis://127.0.0.1:6379/0",
			TTL:                3600 * time.Second,
			SentimentTolerance: 0.1,
			MemoryCapacity:     10000,
		},
		Catalog: CatalogConfig{
			Driver:       "duckdb",
			DSN:          "",
			Path:         "/data/commendo.duckdb",
			MaxOpenConns: 30, // pool 10 + overflow 20
			MaxIdleConns: 10,
		},
		Embedding: EmbeddingConfig{
			ModelPath: "/data/models/bi-encoder",
			BatchSize: 32,
		},
		Sentiment: SentimentConfig{
			ModelPath: "/data/models/sentiment",
		},
		VectorIndex: VectorIndexConfig{
			CollectionVehicles: "vehicles",
			CollectionCouriers: "livreurs",
			M:                  16,
			EfConstruct:        100,
			EfSearch:           128,
			FullScanThreshold:  10000,
			ScoreThreshold:     0.0,
		},
		Recommend: RecommendConfig{
			TopK:               5,
			SimilarityWeight:   0.60,
			AvailabilityWeight: 0.25,
			ReputationWeight:   0.15,
			AvailabilityBoost:  0.0, // disabled
			MinScore:           0.0, // disabled
		},
		Couriers: CouriersConfig{
			ToleranceStandardKm: 2.5,
			ToleranceExpressKm:  1.5,
			ToleranceSameDayKm:  1.0,
		},
		Tasks: TasksConfig{
			Transport:            "gochannel",
			NATSURL:              "nats://127.0.0.1:4222",
			EmbeddedNATS:         false,
			NATSStoreDir:         "/data/nats/jetstream",
			StorePath:            "/data/tasks",
			Workers:              4,
			MaxRetries:           3,
			RetryInitialInterval: 1 * time.Second,
			RetryMaxInterval:     600 * time.Second,
			ResultTTL:            1 * time.Hour,
			HealthCheckInterval:  300 * time.Second,
			CloseTimeout:         30 * time.Second,
		},
		Feed: FeedConfig{
			Enabled:    true,
			SendBuffer: 64,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := DefaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// REDIS_URL -> cache.redis_url
	// TASK_WORKERS -> tasks.workers
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables are dropped so random environment noise cannot leak into
// the configuration.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - REDIS_URL -> cache.redis_url
//   - TASK_WORKERS -> tasks.workers
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",
		"cors_origins": "server.cors_origins",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Security mappings
		"jwt_secret":          "security.jwt_secret",
		"admin_secret":        "security.admin_secret",
		"token_ttl":           "security.token_ttl",
		"rate_limit_requests": "security.rate_limit_requests",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",

		// Cache mappings
		"cache_backend":             "cache.backend",
		"redis_url":                 "cache.redis_url",
		"cache_ttl":                 "cache.ttl",
		"cache_sentiment_tolerance": "cache.sentiment_tolerance",
		"cache_memory_capacity":     "cache.memory_capacity",

		// Catalog mappings
		"catalog_driver": "catalog.driver",
		"database_url":   "catalog.dsn",
		"duckdb_path":    "catalog.path",
		"db_max_open":    "catalog.max_open_conns",
		"db_max_idle":    "catalog.max_idle_conns",

		// Model mappings
		"embedding_model_path": "embedding.model_path",
		"embedding_batch_size": "embedding.batch_size",
		"sentiment_model_path": "sentiment.model_path",

		// Vector index mappings
		"vector_collection_vehicles": "vector_index.collection_vehicles",
		"vector_collection_livreurs": "vector_index.collection_livreurs",
		"vector_hnsw_m":              "vector_index.m",
		"vector_hnsw_ef_construct":   "vector_index.ef_construct",
		"vector_hnsw_ef_search":      "vector_index.ef_search",
		"vector_full_scan_threshold": "vector_index.full_scan_threshold",
		"vector_score_threshold":     "vector_index.score_threshold",

		// Recommendation mappings
		"recommend_top_k":               "recommend.top_k",
		"recommend_similarity_weight":   "recommend.similarity_weight",
		"recommend_availability_weight": "recommend.availability_weight",
		"recommend_reputation_weight":   "recommend.reputation_weight",
		"recommend_availability_boost":  "recommend.availability_boost",
		"recommend_min_score":           "recommend.min_score",

		// Courier ranking mappings
		"courier_tolerance_standard": "couriers.tolerance_standard_km",
		"courier_tolerance_express":  "couriers.tolerance_express_km",
		"courier_tolerance_sameday":  "couriers.tolerance_sameday_km",

		// Task runner mappings
		"task_transport":       "tasks.transport",
		"nats_url":             "tasks.nats_url",
		"nats_embedded":        "tasks.embedded_nats",
		"nats_store_dir":       "tasks.nats_store_dir",
		"task_store_path":      "tasks.store_path",
		"task_workers":         "tasks.workers",
		"task_max_retries":     "tasks.max_retries",
		"task_retry_interval":  "tasks.retry_initial_interval",
		"task_retry_max":       "tasks.retry_max_interval",
		"task_result_ttl":      "tasks.result_ttl",
		"task_health_interval": "tasks.health_check_interval",
		"task_close_timeout":   "tasks.close_timeout",

		// Feed mappings
		"feed_enabled":     "feed.enabled",
		"feed_send_buffer": "feed.send_buffer",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// Only the log level is safe to change at runtime; callers reload the full
// config and apply the level change themselves.
//
// Example usage:
//
//	err := WatchConfigFile(configPath, func() {
//	    newCfg, err := LoadWithKoanf()
//	    if err != nil {
//	        logging.Err(err).Msg("Config reload failed")
//	        return
//	    }
//	    logging.SetLevelString(newCfg.Logging.Level)
//	})
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	// Start watching the file for changes
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
