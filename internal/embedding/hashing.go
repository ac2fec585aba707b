// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/metrics"
)

// trigramWeight scales character trigram contributions relative to word
// unigrams so that token identity dominates while spelling variants still
// land near each other.
const trigramWeight = 0.5

// modelMetadata mirrors the model.json file inside a model directory.
type modelMetadata struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Seed      uint64 `json:"seed"`
}

// HashingEncoder is the deterministic feature-hashing encoder.
//
// The zero value is not usable; construct with NewHashingEncoder. Loading
// is lazy: the first Encode, EncodeBatch, or HealthCheck call loads model
// metadata, and concurrent callers block on that single load.
type HashingEncoder struct {
	cfg Config

	loadOnce sync.Once
	model    modelMetadata
}

// NewHashingEncoder creates an encoder with the given configuration.
func NewHashingEncoder(cfg Config) (*HashingEncoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &HashingEncoder{cfg: cfg}, nil
}

// load resolves model metadata once. A missing or malformed model directory
// is not an error: the fallback configuration is used and logged once.
func (e *HashingEncoder) load() {
	e.loadOnce.Do(func() {
		e.model = modelMetadata{Name: FallbackModel, Dimension: Dimension, Seed: 0}

		if e.cfg.ModelPath == "" {
			logging.Warn().
				Str("component", "embedding").
				Str("fallback_model", FallbackModel).
				Msg("No model path configured, using fallback model")
			return
		}

		raw, err := os.ReadFile(filepath.Join(e.cfg.ModelPath, "model.json"))
		if err != nil {
			logging.Warn().
				Str("component", "embedding").
				Str("model_path", e.cfg.ModelPath).
				Str("fallback_model", FallbackModel).
				Err(err).
				Msg("Model directory unreadable, using fallback model")
			return
		}

		var meta modelMetadata
		if err := json.Unmarshal(raw, &meta); err != nil || meta.Name == "" {
			logging.Warn().
				Str("component", "embedding").
				Str("model_path", e.cfg.ModelPath).
				Str("fallback_model", FallbackModel).
				Msg("Model metadata malformed, using fallback model")
			return
		}
		if meta.Dimension <= 0 {
			meta.Dimension = Dimension
		}

		e.model = meta
		logging.Info().
			Str("component", "embedding").
			Str("model", meta.Name).
			Int("dimension", meta.Dimension).
			Msg("Embedding model loaded")
	})
}

// Dimension returns the vector width.
func (e *HashingEncoder) Dimension() int {
	e.load()
	return e.model.Dimension
}

// ModelName identifies the loaded model.
func (e *HashingEncoder) ModelName() string {
	e.load()
	return e.model.Name
}

// Encode returns the unit vector for a single text.
func (e *HashingEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EncodeBatch encodes texts in input order, at most the configured batch
// size per chunk. Chunks encode concurrently; slot indexing keeps the
// output aligned with the input.
func (e *HashingEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}
	e.load()

	start := time.Now()
	out := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for offset := 0; offset < len(texts); offset += e.cfg.BatchSize {
		offset := offset
		end := offset + e.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("embedding: batch cancelled: %w", err)
			}
			for i, text := range texts[offset:end] {
				out[offset+i] = e.encodeOne(text)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.ObserveEmbeddingBatch(len(texts), time.Since(start))
	return out, nil
}

// HealthCheck encodes a probe text and validates the vector shape.
func (e *HashingEncoder) HealthCheck(ctx context.Context) error {
	vec, err := e.Encode(ctx, "test")
	if err != nil {
		return fmt.Errorf("embedding: health check encode: %w", err)
	}
	if len(vec) != e.model.Dimension {
		return fmt.Errorf("embedding: health check dimension %d, want %d", len(vec), e.model.Dimension)
	}
	return nil
}

// encodeOne hashes one text into a signed bucket vector and normalizes it.
func (e *HashingEncoder) encodeOne(text string) []float32 {
	dim := e.model.Dimension
	vec := make([]float32, dim)

	tokens := tokenize(text)
	for _, token := range tokens {
		idx, sign := e.bucket(token)
		vec[idx] += sign
	}
	for _, token := range tokens {
		runes := []rune(token)
		for i := 0; i+3 <= len(runes); i++ {
			idx, sign := e.bucket("#" + string(runes[i:i+3]))
			vec[idx] += sign * trigramWeight
		}
	}

	normalize(vec)
	return vec
}

// bucket maps a feature to a vector index and a +/-1 sign.
func (e *HashingEncoder) bucket(feature string) (int, float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64() ^ e.model.Seed

	idx := int(sum % uint64(e.model.Dimension)) //nolint:gosec // dimension is small and positive
	sign := float32(1)
	if sum&(1<<63) != 0 {
		sign = -1
	}
	return idx, sign
}

// tokenize lowercases and splits on anything that is not a letter or digit.
// Accented characters survive, which matters for the French descriptions.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// normalize scales vec to unit L2 norm in place. The zero vector (empty or
// purely non-alphanumeric text) maps to a fixed basis vector so callers can
// rely on the unit-norm contract.
func normalize(vec []float32) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		vec[0] = 1
		return
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range vec {
		vec[i] /= norm
	}
}
