// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package embedding turns product descriptions and client comments into
// fixed-dimension unit vectors for the similarity index.
//
// The default encoder is a deterministic feature-hashing bi-encoder: word
// unigrams and character trigrams are hashed into a 768-bucket signed
// vector which is then L2-normalized. Determinism matters more here than
// linguistic nuance: the same text must always land on the same point so
// cache keys and index lookups stay stable across processes and restarts.
//
// Model metadata is loaded lazily on first use. When the configured model
// directory is missing or unreadable the encoder falls back to its built-in
// configuration and logs the fallback exactly once.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Dimension is the width of every produced vector.
const Dimension = 768

// DefaultBatchSize is the largest chunk encoded at once; larger inputs are
// processed in successive chunks.
const DefaultBatchSize = 32

// FallbackModel is the public model identity reported when the configured
// model directory cannot be loaded.
const FallbackModel = "sentence-transformers/paraphrase-multilingual-mpnet-base-v2"

// ErrEmptyBatch is returned by EncodeBatch when no texts are supplied.
var ErrEmptyBatch = errors.New("embedding: empty batch")

// Encoder produces unit vectors from text.
//
// Implementations must be safe for concurrent use and must return vectors
// of exactly Dimension() width with unit L2 norm.
type Encoder interface {
	// Encode returns the vector for a single text.
	Encode(ctx context.Context, text string) ([]float32, error)

	// EncodeBatch returns one vector per input text, in input order.
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector width.
	Dimension() int

	// ModelName identifies the loaded model for diagnostics.
	ModelName() string

	// HealthCheck verifies the encoder produces well-formed vectors.
	HealthCheck(ctx context.Context) error
}

// Config controls encoder construction.
type Config struct {
	// ModelPath is a directory containing model.json metadata. Empty or
	// unreadable paths trigger the fallback configuration.
	ModelPath string

	// BatchSize caps the number of texts encoded per chunk.
	// Default: DefaultBatchSize.
	BatchSize int
}

// DefaultConfig returns the default encoder configuration.
func DefaultConfig() Config {
	return Config{
		ModelPath: "",
		BatchSize: DefaultBatchSize,
	}
}

// Validate checks configuration bounds.
func (c Config) Validate() error {
	if c.BatchSize < 0 {
		return fmt.Errorf("embedding: batch size must be non-negative, got %d", c.BatchSize)
	}
	return nil
}
