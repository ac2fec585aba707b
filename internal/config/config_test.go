// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that DefaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Server defaults
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Environment != "development" {
		t.Errorf("Server.Environment = %q, want development", cfg.Server.Environment)
	}

	// Cache defaults
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL != 3600*time.Second {
		t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
	}
	if cfg.Cache.SentimentTolerance != 0.1 {
		t.Errorf("Cache.SentimentTolerance = %g, want 0.1", cfg.Cache.SentimentTolerance)
	}

	// Recommendation weight defaults
	if cfg.Recommend.SimilarityWeight != 0.60 {
		t.Errorf("Recommend.SimilarityWeight = %g, want 0.60", cfg.Recommend.SimilarityWeight)
	}
	if cfg.Recommend.AvailabilityWeight != 0.25 {
		t.Errorf("Recommend.AvailabilityWeight = %g, want 0.25", cfg.Recommend.AvailabilityWeight)
	}
	if cfg.Recommend.ReputationWeight != 0.15 {
		t.Errorf("Recommend.ReputationWeight = %g, want 0.15", cfg.Recommend.ReputationWeight)
	}
	if cfg.Recommend.TopK != 5 {
		t.Errorf("Recommend.TopK = %d, want 5", cfg.Recommend.TopK)
	}

	// Courier tolerance defaults
	if cfg.Couriers.ToleranceStandardKm != 2.5 {
		t.Errorf("Couriers.ToleranceStandardKm = %g, want 2.5", cfg.Couriers.ToleranceStandardKm)
	}
	if cfg.Couriers.ToleranceExpressKm != 1.5 {
		t.Errorf("Couriers.ToleranceExpressKm = %g, want 1.5", cfg.Couriers.ToleranceExpressKm)
	}
	if cfg.Couriers.ToleranceSameDayKm != 1.0 {
		t.Errorf("Couriers.ToleranceSameDayKm = %g, want 1.0", cfg.Couriers.ToleranceSameDayKm)
	}

	// Task runner defaults
	if cfg.Tasks.Transport != "gochannel" {
		t.Errorf("Tasks.Transport = %q, want gochannel", cfg.Tasks.Transport)
	}
	if cfg.Tasks.Workers != 4 {
		t.Errorf("Tasks.Workers = %d, want 4", cfg.Tasks.Workers)
	}
	if cfg.Tasks.MaxRetries != 3 {
		t.Errorf("Tasks.MaxRetries = %d, want 3", cfg.Tasks.MaxRetries)
	}
	if cfg.Tasks.RetryMaxInterval != 600*time.Second {
		t.Errorf("Tasks.RetryMaxInterval = %v, want 10m", cfg.Tasks.RetryMaxInterval)
	}
	if cfg.Tasks.ResultTTL != time.Hour {
		t.Errorf("Tasks.ResultTTL = %v, want 1h", cfg.Tasks.ResultTTL)
	}
	if cfg.Tasks.HealthCheckInterval != 300*time.Second {
		t.Errorf("Tasks.HealthCheckInterval = %v, want 5m", cfg.Tasks.HealthCheckInterval)
	}

	// Vector index defaults
	if cfg.VectorIndex.CollectionVehicles != "vehicles" {
		t.Errorf("VectorIndex.CollectionVehicles = %q, want vehicles", cfg.VectorIndex.CollectionVehicles)
	}
	if cfg.VectorIndex.CollectionCouriers != "livreurs" {
		t.Errorf("VectorIndex.CollectionCouriers = %q, want livreurs", cfg.VectorIndex.CollectionCouriers)
	}
	if cfg.VectorIndex.M != 16 || cfg.VectorIndex.EfConstruct != 100 || cfg.VectorIndex.EfSearch != 128 {
		t.Errorf("VectorIndex HNSW params = %d/%d/%d, want 16/100/128",
			cfg.VectorIndex.M, cfg.VectorIndex.EfConstruct, cfg.VectorIndex.EfSearch)
	}

	// Defaults must pass their own validation
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

// TestLoadWithKoanf_Defaults verifies loading with no file and no env vars
func TestLoadWithKoanf_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
}

// TestLoadWithKoanf_EnvOverrides verifies env vars take precedence over defaults
func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	cleanEnv(t)

	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://cache.internal:6379/1")
	t.Setenv("TASK_WORKERS", "8")
	t.Setenv("RECOMMEND_TOP_K", "10")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Cache.Backend != "redis" {
		t.Errorf("Cache.Backend = %q, want redis", cfg.Cache.Backend)
	}
	if cfg.Cache.RedisURL != "redis://cache.internal:6379/1" {
		t.Errorf("Cache.RedisURL = %q", cfg.Cache.RedisURL)
	}
	if cfg.Tasks.Workers != 8 {
		t.Errorf("Tasks.Workers = %d, want 8", cfg.Tasks.Workers)
	}
	if cfg.Recommend.TopK != 10 {
		t.Errorf("Recommend.TopK = %d, want 10", cfg.Recommend.TopK)
	}
}

// TestLoadWithKoanf_ConfigFile verifies YAML file loading via COMMENDO_CONFIG
func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	cleanEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8443
  environment: staging
cache:
  backend: redis
  sentiment_tolerance: 0.2
couriers:
  tolerance_express_km: 2.0
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8443 {
		t.Errorf("Server.Port = %d, want 8443", cfg.Server.Port)
	}
	if cfg.Server.Environment != "staging" {
		t.Errorf("Server.Environment = %q, want staging", cfg.Server.Environment)
	}
	if cfg.Cache.SentimentTolerance != 0.2 {
		t.Errorf("Cache.SentimentTolerance = %g, want 0.2", cfg.Cache.SentimentTolerance)
	}
	if cfg.Couriers.ToleranceExpressKm != 2.0 {
		t.Errorf("Couriers.ToleranceExpressKm = %g, want 2.0", cfg.Couriers.ToleranceExpressKm)
	}
	// Untouched values fall back to defaults
	if cfg.Couriers.ToleranceStandardKm != 2.5 {
		t.Errorf("Couriers.ToleranceStandardKm = %g, want default 2.5", cfg.Couriers.ToleranceStandardKm)
	}
}

// TestLoadWithKoanf_EnvBeatsFile verifies precedence ENV > File > Defaults
func TestLoadWithKoanf_EnvBeatsFile(t *testing.T) {
	cleanEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8443\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9191")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want env override 9191", cfg.Server.Port)
	}
}

// TestLoadWithKoanf_CORSOriginsFromEnv verifies comma-separated slice parsing
func TestLoadWithKoanf_CORSOriginsFromEnv(t *testing.T) {
	cleanEnv(t)

	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	want := []string{"https://app.example.com", "https://admin.example.com"}
	if len(cfg.Server.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Server.CORSOrigins[i] != want[i] {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.Server.CORSOrigins[i], want[i])
		}
	}
}

// TestEnvTransformFunc verifies known mappings and rejection of unknown vars
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"REDIS_URL", "cache.redis_url"},
		{"DATABASE_URL", "catalog.dsn"},
		{"DUCKDB_PATH", "catalog.path"},
		{"TASK_WORKERS", "tasks.workers"},
		{"NATS_URL", "tasks.nats_url"},
		{"COURIER_TOLERANCE_SAMEDAY", "couriers.tolerance_sameday_km"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"PATH", ""},
		{"HOME", ""},
		{"RANDOM_UNRELATED_VAR", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

// TestValidate covers cross-field constraints
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, true},
		{"tolerance zero", func(c *Config) { c.Cache.SentimentTolerance = 0 }, true},
		{"tolerance above one", func(c *Config) { c.Cache.SentimentTolerance = 1.5 }, true},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }, true},
		{"postgres without dsn", func(c *Config) { c.Catalog.Driver = "postgres"; c.Catalog.DSN = "" }, true},
		{"postgres with dsn", func(c *Config) {
			c.Catalog.Driver = "postgres"
			c.Catalog.DSN = "postgres://commendo@localhost/commendo"
		}, false},
		{"unknown catalog driver", func(c *Config) { c.Catalog.Driver = "sqlite" }, true},
		{"zero weights", func(c *Config) {
			c.Recommend.SimilarityWeight = 0
			c.Recommend.AvailabilityWeight = 0
			c.Recommend.ReputationWeight = 0
		}, true},
		{"top_k too large", func(c *Config) { c.Recommend.TopK = 500 }, true},
		{"negative courier tolerance", func(c *Config) { c.Couriers.ToleranceSameDayKm = -1 }, true},
		{"bad transport", func(c *Config) { c.Tasks.Transport = "rabbitmq" }, true},
		{"zero workers", func(c *Config) { c.Tasks.Workers = 0 }, true},
		{"production without secrets", func(c *Config) { c.Server.Environment = "production" }, true},
		{"production with secrets", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.JWTSecret = "0123456789abcdef0123456789abcdef"
			c.Security.AdminSecret = "admin-secret"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestClone verifies deep copy of slice fields
func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.CORSOrigins = []string{"https://a.example.com"}

	clone := cfg.Clone()
	clone.Server.CORSOrigins[0] = "https://evil.example.com"
	clone.Server.Port = 1234

	if cfg.Server.CORSOrigins[0] != "https://a.example.com" {
		t.Errorf("Clone() shares CORSOrigins backing array")
	}
	if cfg.Server.Port == 1234 {
		t.Errorf("Clone() shares scalar fields")
	}
}

// TestServerAddr verifies the bind address formatting
func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8000}
	if got := s.Addr(); got != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8000", got)
	}
}

// cleanEnv clears every mapped environment variable so host state cannot
// leak into the layered loader during tests.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{
		"HTTP_PORT", "HTTP_HOST", "HTTP_TIMEOUT", "ENVIRONMENT", "CORS_ORIGINS",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_CALLER",
		"JWT_SECRET", "ADMIN_SECRET", "TOKEN_TTL",
		"RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW", "DISABLE_RATE_LIMIT",
		"CACHE_BACKEND", "REDIS_URL", "CACHE_TTL",
		"CACHE_SENTIMENT_TOLERANCE", "CACHE_MEMORY_CAPACITY",
		"CATALOG_DRIVER", "DATABASE_URL", "DUCKDB_PATH", "DB_MAX_OPEN", "DB_MAX_IDLE",
		"EMBEDDING_MODEL_PATH", "EMBEDDING_BATCH_SIZE", "SENTIMENT_MODEL_PATH",
		"RECOMMEND_TOP_K", "TASK_WORKERS", "TASK_TRANSPORT", "NATS_URL",
		ConfigPathEnvVar,
	} {
		t.Setenv(v, "")
		os.Unsetenv(v) //nolint:errcheck // best-effort cleanup, t.Setenv restores
	}
}
