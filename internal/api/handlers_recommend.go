// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/skouam/commendo/internal/catalog"
	"github.com/skouam/commendo/internal/orchestrator"
	"github.com/skouam/commendo/internal/recommend"
	"github.com/skouam/commendo/internal/validation"
)

// Recommendations runs the full sentiment-plus-recommendation workflow.
// With async_processing the workflow is queued and the caller polls
// /tasks/{id} instead.
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		RespondValidationError(w, verr)
		return
	}

	workflow := orchestrator.WorkflowRequest{
		ProductID:   req.ProductID,
		ProductType: catalog.ProductType(req.ProductType),
		ClientID:    req.ClientID,
		Comment:     req.Comment,
		TopK:        req.TopK,
		SkipCache:   req.SkipCache,
	}

	if req.AsyncProcessing {
		taskID, err := h.orch.ProcessAsync(r.Context(), workflow)
		if err != nil {
			respondAsyncError(w, err)
			return
		}
		respondAccepted(w, taskID, "recommendation workflow queued")
		return
	}

	result, err := h.orch.Process(r.Context(), workflow)
	if err != nil {
		RespondErrorDetail(w, http.StatusInternalServerError, "recommendation processing failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// RecommendationsDirect runs the recommendation stage with a
// caller-provided sentiment score, skipping analysis.
func (h *Handlers) RecommendationsDirect(w http.ResponseWriter, r *http.Request) {
	var req DirectRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		RespondValidationError(w, verr)
		return
	}

	result, err := h.orch.RecommendOnly(r.Context(), recommend.Request{
		ProductID:   req.ProductID,
		ProductType: catalog.ProductType(req.ProductType),
		ClientID:    req.ClientID,
		Sentiment:   req.Sentiment,
		TopK:        req.TopK,
		SkipCache:   req.SkipCache,
	})
	if err != nil {
		RespondErrorDetail(w, http.StatusInternalServerError, "recommendation processing failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// RecommendationsVehicles is the GET shortcut for the vehicle catalog.
func (h *Handlers) RecommendationsVehicles(w http.ResponseWriter, r *http.Request) {
	h.recommendByQuery(w, r, catalog.TypeVehicle)
}

// RecommendationsCouriers is the GET shortcut for the courier catalog.
func (h *Handlers) RecommendationsCouriers(w http.ResponseWriter, r *http.Request) {
	h.recommendByQuery(w, r, catalog.TypeCourier)
}

func (h *Handlers) recommendByQuery(w http.ResponseWriter, r *http.Request, productType catalog.ProductType) {
	q := r.URL.Query()

	productID := q.Get("product_id")
	if productID == "" {
		RespondError(w, http.StatusBadRequest, "product_id query parameter is required")
		return
	}

	sentimentScore := 0.0
	if raw := q.Get("sentiment_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil || score < -1 || score > 1 {
			RespondError(w, http.StatusBadRequest, "sentiment_score must be a number between -1 and 1")
			return
		}
		sentimentScore = score
	}

	topK := 0
	if raw := q.Get("top_k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k < 1 || k > 100 {
			RespondError(w, http.StatusBadRequest, "top_k must be an integer between 1 and 100")
			return
		}
		topK = k
	}

	result, err := h.orch.RecommendOnly(r.Context(), recommend.Request{
		ProductID:   productID,
		ProductType: productType,
		ClientID:    q.Get("client_id"),
		Sentiment:   sentimentScore,
		TopK:        topK,
	})
	if err != nil {
		RespondErrorDetail(w, http.StatusInternalServerError, "recommendation processing failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// respondAsyncError maps task submission failures. A missing runner is an
// operational gap, not a client mistake.
func respondAsyncError(w http.ResponseWriter, err error) {
	if errors.Is(err, orchestrator.ErrAsyncDisabled) {
		RespondError(w, http.StatusServiceUnavailable, "async processing is not available")
		return
	}
	RespondErrorDetail(w, http.StatusInternalServerError, "task submission failed", err.Error())
}
