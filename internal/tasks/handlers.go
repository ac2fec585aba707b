// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/skouam/commendo/internal/cache"
	"github.com/skouam/commendo/internal/catalog"
	"github.com/skouam/commendo/internal/embedding"
	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/recommend"
	"github.com/skouam/commendo/internal/sentiment"
	"github.com/skouam/commendo/internal/vectorindex"
)

// HandlerSet binds the worker task names to the engine components.
type HandlerSet struct {
	Engine   *recommend.Engine
	Analyzer sentiment.Analyzer
	Catalog  catalog.Store
	Cache    *cache.RecommendationCache
	Encoder  embedding.Encoder
	Index    *vectorindex.Index
}

// RegisterAll installs every task handler on the runner.
func (h *HandlerSet) RegisterAll(runner *Runner) {
	runner.Register(TaskSentiment, h.handleSentiment)
	runner.Register(TaskRecommendation, h.handleRecommendation)
	runner.Register(TaskFullWorkflow, h.handleFullWorkflow)
	runner.Register(TaskVectorize, h.handleVectorize)
	runner.Register(TaskHealthCheck, h.handleHealthCheck)
}

// sentimentResult is the stored payload of a sentiment task.
type sentimentResult struct {
	ClientID    string  `json:"client_id"`
	ProductID   string  `json:"product_id"`
	ProductType string  `json:"product_type"`
	Score       float64 `json:"sentiment_score"`
	Label       string  `json:"sentiment_label"`
	Confidence  float64 `json:"confidence"`
}

// workflowResult combines both stages of the full workflow.
type workflowResult struct {
	Sentiment struct {
		Score      float64 `json:"score"`
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"sentiment"`
	Recommendations *recommend.Result `json:"recommendations"`
}

// vectorizeResult reports one collection rebuild.
type vectorizeResult struct {
	ProductType string `json:"product_type"`
	Indexed     int    `json:"indexed"`
	Recreated   bool   `json:"recreated"`
}

func (h *HandlerSet) handleSentiment(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var p SentimentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, Terminal(fmt.Errorf("decoding sentiment payload: %w", err))
	}

	res, err := h.Analyzer.Analyze(ctx, p.Comment)
	if err != nil {
		return nil, fmt.Errorf("analyzing sentiment: %w", err)
	}

	out := sentimentResult{
		ClientID:    p.ClientID,
		ProductID:   p.ProductID,
		ProductType: p.ProductType,
		Score:       res.Score,
		Label:       string(res.Label),
		Confidence:  res.Confidence,
	}
	return json.Marshal(out)
}

func (h *HandlerSet) handleRecommendation(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var p RecommendationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, Terminal(fmt.Errorf("decoding recommendation payload: %w", err))
	}

	result, err := h.Engine.Process(ctx, recommend.Request{
		ProductID:   p.ProductID,
		ProductType: catalog.ProductType(p.ProductType),
		ClientID:    p.ClientID,
		Sentiment:   p.Sentiment,
		TopK:        p.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("computing recommendations: %w", err)
	}
	return json.Marshal(result)
}

// handleFullWorkflow chains sentiment analysis into the recommendation
// pipeline: the analyzed score replaces any score in the payload.
func (h *HandlerSet) handleFullWorkflow(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var p WorkflowPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, Terminal(fmt.Errorf("decoding workflow payload: %w", err))
	}

	res, err := h.Analyzer.Analyze(ctx, p.Comment)
	if err != nil {
		return nil, fmt.Errorf("analyzing sentiment: %w", err)
	}

	recs, err := h.Engine.Process(ctx, recommend.Request{
		ProductID:   p.ProductID,
		ProductType: catalog.ProductType(p.ProductType),
		ClientID:    p.ClientID,
		Sentiment:   res.Score,
		TopK:        p.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("computing recommendations: %w", err)
	}

	var out workflowResult
	out.Sentiment.Score = res.Score
	out.Sentiment.Label = string(res.Label)
	out.Sentiment.Confidence = res.Confidence
	out.Recommendations = recs
	return json.Marshal(out)
}

func (h *HandlerSet) handleVectorize(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var p VectorizePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, Terminal(fmt.Errorf("decoding vectorize payload: %w", err))
	}

	count, err := h.Engine.Reindex(ctx, catalog.ProductType(p.ProductType), p.Recreate)
	if err != nil {
		return nil, fmt.Errorf("reindexing %s: %w", p.ProductType, err)
	}

	return json.Marshal(vectorizeResult{
		ProductType: p.ProductType,
		Indexed:     count,
		Recreated:   p.Recreate,
	})
}

// handleHealthCheck probes every engine dependency and stores the report.
// A degraded dependency is reported, not retried.
func (h *HandlerSet) handleHealthCheck(ctx context.Context, _ json.RawMessage) (json.RawMessage, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	services := map[string]bool{
		"cache":    h.Cache.Ping(probeCtx) == nil,
		"catalog":  h.Catalog.Ping(probeCtx) == nil,
		"encoder":  h.Encoder.HealthCheck(probeCtx) == nil,
		"analyzer": h.Analyzer.HealthCheck(probeCtx) == nil,
		"index":    len(h.Index.Collections()) > 0,
	}

	healthy := true
	for name, up := range services {
		if !up {
			healthy = false
			logging.Ctx(ctx).Warn().Str("service", name).Msg("Health check found degraded service")
		}
	}

	report := HealthReport{
		Timestamp: time.Now().UTC(),
		Services:  services,
		Healthy:   healthy,
	}
	return json.Marshal(report)
}
