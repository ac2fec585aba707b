// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// Database drivers. Postgres connects through the pgx stdlib adapter,
	// duckdb through its native driver.
	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/skouam/commendo/internal/config"
	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/metrics"
)

// Store is the read surface the recommendation pipeline needs from the
// catalog. All methods are safe for concurrent use.
type Store interface {
	// GetByID fetches one product. Returns ErrNotFound for unknown ids and
	// for product types the catalog does not hold.
	GetByID(ctx context.Context, productType ProductType, id string) (*Product, error)

	// GetBatch fetches many products in one query, preserving the order of
	// ids. Missing ids are skipped, not errors.
	GetBatch(ctx context.Context, productType ProductType, ids []string) ([]Product, error)

	// ListAll returns every product of the type, for index (re)builds.
	ListAll(ctx context.Context, productType ProductType) ([]Product, error)

	// ListAvailable returns only products currently open for rental.
	ListAvailable(ctx context.Context, productType ProductType) ([]Product, error)

	// Ping verifies connectivity for health checks.
	Ping(ctx context.Context) error

	// Close releases the connection pool.
	Close() error
}

// SQLStore implements Store over sqlx. The same implementation serves both
// drivers; only the DSN and the placeholder rebinding differ.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the configured catalog database and verifies the
// connection. For duckdb it also creates the schema if missing, so a fresh
// single-binary deployment starts without a migration step.
func Open(ctx context.Context, cfg config.CatalogConfig) (*SQLStore, error) {
	var driver, dsn string
	switch cfg.Driver {
	case "postgres":
		driver, dsn = "pgx", cfg.DSN
	case "duckdb":
		driver, dsn = "duckdb", cfg.Path
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping catalog database: %w", err)
	}

	store := &SQLStore{db: db, driver: driver}

	if driver == "duckdb" {
		if err := store.ensureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	logging.Info().Str("driver", cfg.Driver).Msg("Catalog database connected")
	return store, nil
}

// NewWithDB wraps an existing connection, used by tests with sqlmock.
func NewWithDB(db *sqlx.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

const vehicleColumns = `id, brand, model, year, vehicle_type, seats, transmission, fuel,
	luggage_capacity, location, available, rating, price_per_day, created_at, updated_at`

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS vehicles (
	id VARCHAR PRIMARY KEY,
	brand VARCHAR NOT NULL,
	model VARCHAR NOT NULL,
	year INTEGER NOT NULL DEFAULT 0,
	vehicle_type VARCHAR NOT NULL DEFAULT '',
	seats INTEGER NOT NULL DEFAULT 0,
	transmission VARCHAR NOT NULL DEFAULT '',
	fuel VARCHAR NOT NULL DEFAULT '',
	luggage_capacity INTEGER NOT NULL DEFAULT 0,
	location VARCHAR NOT NULL DEFAULT '',
	available BOOLEAN NOT NULL DEFAULT true,
	rating DOUBLE NOT NULL DEFAULT 0,
	price_per_day DOUBLE NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT now(),
	updated_at TIMESTAMP NOT NULL DEFAULT now()
)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create vehicles schema: %w", err)
	}
	return nil
}

// GetByID implements Store.
func (s *SQLStore) GetByID(ctx context.Context, productType ProductType, id string) (*Product, error) {
	if productType != TypeVehicle {
		return nil, ErrNotFound
	}

	start := time.Now()
	query := s.db.Rebind(fmt.Sprintf("SELECT %s FROM vehicles WHERE id = ?", vehicleColumns))

	var p Product
	err := s.db.GetContext(ctx, &p, query, id)
	metrics.RecordCatalogQuery("get_by_id", time.Since(start), err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	return &p, nil
}

// GetBatch implements Store.
func (s *SQLStore) GetBatch(ctx context.Context, productType ProductType, ids []string) ([]Product, error) {
	if productType != TypeVehicle || len(ids) == 0 {
		return nil, nil
	}

	start := time.Now()
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM vehicles WHERE id IN (?)", vehicleColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build batch query: %w", err)
	}
	query = s.db.Rebind(query)

	var rows []Product
	err = s.db.SelectContext(ctx, &rows, query, args...)
	metrics.RecordCatalogQuery("get_batch", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product batch: %w", err)
	}

	// Preserve the caller's ordering; the IN clause returns rows in
	// arbitrary order.
	byID := make(map[string]Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	ordered := make([]Product, 0, len(rows))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// ListAll implements Store.
func (s *SQLStore) ListAll(ctx context.Context, productType ProductType) ([]Product, error) {
	if productType != TypeVehicle {
		return nil, nil
	}

	start := time.Now()
	query := fmt.Sprintf("SELECT %s FROM vehicles ORDER BY id", vehicleColumns)

	var rows []Product
	err := s.db.SelectContext(ctx, &rows, query)
	metrics.RecordCatalogQuery("list_all", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return rows, nil
}

// ListAvailable implements Store.
func (s *SQLStore) ListAvailable(ctx context.Context, productType ProductType) ([]Product, error) {
	if productType != TypeVehicle {
		return nil, nil
	}

	start := time.Now()
	query := fmt.Sprintf("SELECT %s FROM vehicles WHERE available ORDER BY id", vehicleColumns)

	var rows []Product
	err := s.db.SelectContext(ctx, &rows, query)
	metrics.RecordCatalogQuery("list_available", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list available products: %w", err)
	}
	return rows, nil
}

// Ping implements Store.
func (s *SQLStore) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLStore)(nil)
