// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// ErrTaskNotFound is returned for unknown or expired task ids.
var ErrTaskNotFound = errors.New("tasks: task not found")

// Record is one task's persisted state.
type Record struct {
	ID        string          `json:"task_id"`
	Name      string          `json:"task"`
	Queue     string          `json:"queue"`
	Status    Status          `json:"status"`
	Attempts  int             `json:"attempts"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store persists task records for status polling. Entries expire after
// the configured result TTL; an expired task reads as not found.
type Store interface {
	Put(ctx context.Context, record *Record) error
	Get(ctx context.Context, id string) (*Record, error)

	// Update applies fn to the stored record inside one transaction, so
	// concurrent status transitions never interleave.
	Update(ctx context.Context, id string, fn func(*Record) error) (*Record, error)

	Close() error
}

// DefaultResultTTL bounds how long finished task results stay readable.
const DefaultResultTTL = time.Hour

// BadgerStore is the Badger-backed task store.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerStore opens the task store at path. An empty path runs Badger
// in memory, which the tests and the single-process default rely on.
func NewBadgerStore(path string, ttl time.Duration) (*BadgerStore, error) {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("tasks: opening store: %w", err)
	}

	return &BadgerStore{db: db, ttl: ttl}, nil
}

// NewBadgerStoreWithDB wraps an already-open Badger database. The caller
// keeps ownership of the database lifecycle.
func NewBadgerStoreWithDB(db *badger.DB, ttl time.Duration) *BadgerStore {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &BadgerStore{db: db, ttl: ttl}
}

func taskKey(id string) []byte {
	return []byte("task:" + id)
}

// Put implements Store.
func (s *BadgerStore) Put(_ context.Context, record *Record) error {
	record.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("tasks: encoding record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(taskKey(record.ID), data).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
}

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, id string) (*Record, error) {
	var record Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(taskKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tasks: reading record: %w", err)
	}
	return &record, nil
}

// Update implements Store.
func (s *BadgerStore) Update(_ context.Context, id string, fn func(*Record) error) (*Record, error) {
	var record Record
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(taskKey(id))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return err
		}

		if err := fn(&record); err != nil {
			return err
		}
		record.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(&record)
		if err != nil {
			return err
		}
		entry := badger.NewEntry(taskKey(id), data).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tasks: updating record: %w", err)
	}
	return &record, nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
