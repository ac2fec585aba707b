// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package tasks runs the asynchronous worker pool.
//
// Tasks travel as JSON envelopes over a Watermill transport, either an
// in-process Go channel or NATS JetStream for multi-host deployments.
// Delivery is at-least-once, so every task body must be idempotent: the
// recommendation cache and the upsert-based vector index provide that
// naturally. Results and status transitions live in a Badger store with a
// bounded TTL.
//
// The envelope carries the submitting request's identity scope. Workers
// install it into their context before execution so every log line a task
// writes correlates with the HTTP request that spawned it.
package tasks

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/skouam/commendo/internal/logging"
)

// Queue names. Routing is static per task name.
const (
	QueueRecommendations = "recommendations"
	QueueSentiment       = "sentiment"
	QueueVectorization   = "vectorization"
	QueueDefault         = "default"
)

// Task names.
const (
	TaskSentiment      = "process_sentiment"
	TaskRecommendation = "process_recommendation"
	TaskFullWorkflow   = "process_full_workflow"
	TaskVectorize      = "vectorize_products"
	TaskHealthCheck    = "health_check"
)

// QueueFor returns the queue a task name routes to. Unknown names land on
// the default queue.
func QueueFor(name string) string {
	switch name {
	case TaskRecommendation, TaskFullWorkflow:
		return QueueRecommendations
	case TaskSentiment:
		return QueueSentiment
	case TaskVectorize:
		return QueueVectorization
	}
	return QueueDefault
}

// Queues lists every queue the runner consumes.
func Queues() []string {
	return []string{QueueRecommendations, QueueSentiment, QueueVectorization, QueueDefault}
}

// Status is a task's lifecycle state. Transitions are monotonic except for
// RETRY, which loops back through STARTED.
type Status string

// Task lifecycle states.
const (
	StatusPending Status = "PENDING"
	StatusStarted Status = "STARTED"
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	StatusRetry   Status = "RETRY"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Envelope is the wire format of one task.
type Envelope struct {
	TaskID    string               `json:"task_id"`
	Name      string               `json:"task"`
	Queue     string               `json:"queue"`
	Payload   json.RawMessage      `json:"payload"`
	Scope     logging.RequestScope `json:"scope"`
	CreatedAt time.Time            `json:"created_at"`
}

// SentimentPayload asks for one comment to be scored.
type SentimentPayload struct {
	ProductID   string `json:"product_id"`
	ProductType string `json:"product_type"`
	ClientID    string `json:"client_id"`
	Comment     string `json:"commentaire"`
}

// RecommendationPayload asks for recommendations with a known sentiment.
type RecommendationPayload struct {
	ProductID   string  `json:"product_id"`
	ProductType string  `json:"product_type"`
	ClientID    string  `json:"client_id"`
	Sentiment   float64 `json:"sentiment_score"`
	TopK        int     `json:"top_k,omitempty"`
}

// WorkflowPayload asks for the two-stage sentiment plus recommendation
// flow from a raw comment.
type WorkflowPayload struct {
	ProductID   string `json:"product_id"`
	ProductType string `json:"product_type"`
	ClientID    string `json:"client_id"`
	Comment     string `json:"commentaire"`
	TopK        int    `json:"top_k,omitempty"`
}

// VectorizePayload asks for a product type's collection to be rebuilt.
type VectorizePayload struct {
	ProductType string `json:"product_type"`
	Recreate    bool   `json:"recreate"`
}

// HealthReport is the health_check task's result.
type HealthReport struct {
	Timestamp time.Time       `json:"timestamp"`
	Services  map[string]bool `json:"services"`
	Healthy   bool            `json:"healthy"`
}
