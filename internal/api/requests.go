// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package api

import (
	"github.com/skouam/commendo/internal/couriers"
)

// RecommendationRequest is the body of POST /recommendations/. The comment
// feeds the sentiment stage; async_processing moves the whole workflow to
// the task queue.
type RecommendationRequest struct {
	ProductID       string `json:"product_id" validate:"required"`
	ClientID        string `json:"client_id" validate:"required"`
	Comment         string `json:"commentaire" validate:"required,min=1,max=5000"`
	ProductType     string `json:"product_type" validate:"required,product_type"`
	TopK            int    `json:"top_k" validate:"omitempty,min=1,max=100"`
	AsyncProcessing bool   `json:"async_processing"`
	SkipCache       bool   `json:"skip_cache"`
}

// DirectRequest is the body of POST /recommendations/direct: the caller
// supplies the sentiment score and the analysis stage is skipped.
type DirectRequest struct {
	ProductID   string  `json:"product_id" validate:"required"`
	ClientID    string  `json:"client_id" validate:"required"`
	Sentiment   float64 `json:"sentiment_score" validate:"gte=-1,lte=1"`
	ProductType string  `json:"product_type" validate:"required,product_type"`
	TopK        int     `json:"top_k" validate:"omitempty,min=1,max=100"`
	SkipCache   bool    `json:"skip_cache"`
}

// SentimentRequest is the body of POST /sentiment/analyze and its async
// variant.
type SentimentRequest struct {
	Comment     string `json:"commentaire" validate:"required,min=1,max=5000"`
	ProductID   string `json:"product_id"`
	ProductType string `json:"product_type" validate:"omitempty,product_type"`
	ClientID    string `json:"client_id"`
}

// SentimentBatchRequest is the body of POST /sentiment/batch.
type SentimentBatchRequest struct {
	Comments []string `json:"commentaires" validate:"required,min=1,max=100,dive,required,max=5000"`
}

// VectorizeRequest is the body of POST /admin/vectorize.
type VectorizeRequest struct {
	ProductType string `json:"product_type" validate:"required,product_type"`
	Recreate    bool   `json:"recreate"`
}

// InvalidateRequest is the body of POST /admin/cache/invalidate.
type InvalidateRequest struct {
	ProductID   string `json:"product_id" validate:"required"`
	ProductType string `json:"product_type" validate:"required,product_type"`
}

// TokenRequest is the body of POST /admin/token.
type TokenRequest struct {
	Secret string `json:"secret" validate:"required"`
}

// CourierRankRequest is the body of POST /livreurs/rank.
type CourierRankRequest struct {
	Announcement couriers.Announcement `json:"annonce" validate:"required"`
	Candidates   []couriers.Candidate  `json:"livreurs_candidats" validate:"required,min=1,max=1000,dive"`
	Options      *couriers.Options     `json:"options"`
}
