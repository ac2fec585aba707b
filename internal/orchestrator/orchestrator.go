// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package orchestrator coordinates the sentiment and recommendation stages
// behind a single entry point and dispatches the same logical operations to
// either the synchronous path or the background task runner.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/skouam/commendo/internal/cache"
	"github.com/skouam/commendo/internal/catalog"
	"github.com/skouam/commendo/internal/embedding"
	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/recommend"
	"github.com/skouam/commendo/internal/sentiment"
	"github.com/skouam/commendo/internal/tasks"
	"github.com/skouam/commendo/internal/vectorindex"
)

// WorkflowRequest is one full sentiment-plus-recommendation run.
type WorkflowRequest struct {
	ProductID   string
	ProductType catalog.ProductType
	ClientID    string
	Comment     string
	TopK        int
	SkipCache   bool
}

// SentimentSummary is the analyzed polarity attached to a workflow result.
type SentimentSummary struct {
	Score      float64 `json:"score"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// WorkflowResult combines both workflow stages.
type WorkflowResult struct {
	Sentiment       SentimentSummary  `json:"sentiment"`
	Recommendations *recommend.Result `json:"recommendations"`
}

// Config wires the orchestrator's collaborators. Engine and Analyzer are
// required; Runner enables the async entry points and Catalog, Cache,
// Encoder and Index back the synchronous health probe.
type Config struct {
	Engine   *recommend.Engine
	Analyzer sentiment.Analyzer
	Runner   *tasks.Runner

	Catalog catalog.Store
	Cache   *cache.RecommendationCache
	Encoder embedding.Encoder
	Index   *vectorindex.Index
}

// Orchestrator is safe for concurrent use; it holds no per-request state.
type Orchestrator struct {
	cfg Config
}

// ErrAsyncDisabled is returned by the async entry points when no task
// runner was configured.
var ErrAsyncDisabled = errors.New("orchestrator: task runner not configured")

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Engine == nil {
		return nil, errors.New("orchestrator: engine is required")
	}
	if cfg.Analyzer == nil {
		return nil, errors.New("orchestrator: analyzer is required")
	}
	return &Orchestrator{cfg: cfg}, nil
}

// Process runs the two-stage workflow synchronously. An analyzer outage
// degrades the first stage to a neutral score instead of failing the
// request; only recommendation errors propagate.
func (o *Orchestrator) Process(ctx context.Context, req WorkflowRequest) (*WorkflowResult, error) {
	res, err := o.cfg.Analyzer.Analyze(ctx, req.Comment)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Sentiment analysis degraded to neutral")
		res = sentiment.Neutral()
	}

	recs, err := o.cfg.Engine.Process(ctx, recommend.Request{
		ProductID:   req.ProductID,
		ProductType: req.ProductType,
		ClientID:    req.ClientID,
		Sentiment:   res.Score,
		TopK:        req.TopK,
		SkipCache:   req.SkipCache,
	})
	if err != nil {
		return nil, err
	}

	return &WorkflowResult{
		Sentiment: SentimentSummary{
			Score:      res.Score,
			Label:      string(res.Label),
			Confidence: res.Confidence,
		},
		Recommendations: recs,
	}, nil
}

// ProcessAsync enqueues the full workflow and returns the task id.
func (o *Orchestrator) ProcessAsync(ctx context.Context, req WorkflowRequest) (string, error) {
	if o.cfg.Runner == nil {
		return "", ErrAsyncDisabled
	}
	return o.cfg.Runner.Submit(ctx, tasks.TaskFullWorkflow, tasks.WorkflowPayload{
		ProductID:   req.ProductID,
		ProductType: string(req.ProductType),
		ClientID:    req.ClientID,
		Comment:     req.Comment,
		TopK:        req.TopK,
	})
}

// RecommendOnly runs the recommendation stage with a caller-provided
// sentiment score, bypassing analysis.
func (o *Orchestrator) RecommendOnly(ctx context.Context, req recommend.Request) (*recommend.Result, error) {
	return o.cfg.Engine.Process(ctx, req)
}

// SentimentOnly analyzes one comment without touching the catalog.
func (o *Orchestrator) SentimentOnly(ctx context.Context, text string) (sentiment.Result, error) {
	return o.cfg.Analyzer.Analyze(ctx, text)
}

// SentimentBatch analyzes comments in input order.
func (o *Orchestrator) SentimentBatch(ctx context.Context, texts []string) ([]sentiment.Result, error) {
	return o.cfg.Analyzer.AnalyzeBatch(ctx, texts)
}

// SubmitSentiment enqueues a standalone sentiment analysis.
func (o *Orchestrator) SubmitSentiment(ctx context.Context, payload tasks.SentimentPayload) (string, error) {
	if o.cfg.Runner == nil {
		return "", ErrAsyncDisabled
	}
	return o.cfg.Runner.Submit(ctx, tasks.TaskSentiment, payload)
}

// SubmitVectorization enqueues a collection rebuild for a product type.
func (o *Orchestrator) SubmitVectorization(ctx context.Context, productType catalog.ProductType, recreate bool) (string, error) {
	if o.cfg.Runner == nil {
		return "", ErrAsyncDisabled
	}
	return o.cfg.Runner.Submit(ctx, tasks.TaskVectorize, tasks.VectorizePayload{
		ProductType: string(productType),
		Recreate:    recreate,
	})
}

// TaskStatus returns the stored record for a task id.
func (o *Orchestrator) TaskStatus(ctx context.Context, taskID string) (*tasks.Record, error) {
	if o.cfg.Runner == nil {
		return nil, ErrAsyncDisabled
	}
	return o.cfg.Runner.Status(ctx, taskID)
}

// CancelTask revokes a task that has not started.
func (o *Orchestrator) CancelTask(ctx context.Context, taskID string) error {
	if o.cfg.Runner == nil {
		return ErrAsyncDisabled
	}
	return o.cfg.Runner.Cancel(ctx, taskID)
}

// InvalidateProductCache drops the product's cached recommendations and
// its vector index entry. Returns the number of cache entries removed.
func (o *Orchestrator) InvalidateProductCache(ctx context.Context, productType catalog.ProductType, productID string) int {
	return o.cfg.Engine.InvalidateProduct(ctx, productType, productID)
}

// HealthCheck probes every configured dependency synchronously.
func (o *Orchestrator) HealthCheck(ctx context.Context) tasks.HealthReport {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	services := make(map[string]bool)
	if o.cfg.Cache != nil {
		services["cache"] = o.cfg.Cache.Ping(probeCtx) == nil
	}
	if o.cfg.Catalog != nil {
		services["catalog"] = o.cfg.Catalog.Ping(probeCtx) == nil
	}
	if o.cfg.Encoder != nil {
		services["encoder"] = o.cfg.Encoder.HealthCheck(probeCtx) == nil
	}
	services["analyzer"] = o.cfg.Analyzer.HealthCheck(probeCtx) == nil
	if o.cfg.Index != nil {
		services["index"] = len(o.cfg.Index.Collections()) > 0
	}

	healthy := true
	for _, up := range services {
		if !up {
			healthy = false
			break
		}
	}

	return tasks.HealthReport{
		Timestamp: time.Now().UTC(),
		Services:  services,
		Healthy:   healthy,
	}
}

// HealthCheckAsync runs the probe on the worker pool instead of inline.
func (o *Orchestrator) HealthCheckAsync(ctx context.Context) (string, error) {
	if o.cfg.Runner == nil {
		return "", ErrAsyncDisabled
	}
	return o.cfg.Runner.Submit(ctx, tasks.TaskHealthCheck, struct{}{})
}
