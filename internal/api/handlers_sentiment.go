// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package api

import (
	"net/http"

	"github.com/skouam/commendo/internal/tasks"
	"github.com/skouam/commendo/internal/validation"
)

// SentimentAnalyze scores one comment synchronously.
func (h *Handlers) SentimentAnalyze(w http.ResponseWriter, r *http.Request) {
	var req SentimentRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		RespondValidationError(w, verr)
		return
	}

	result, err := h.orch.SentimentOnly(r.Context(), req.Comment)
	if err != nil {
		RespondErrorDetail(w, http.StatusInternalServerError, "sentiment analysis failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// SentimentAnalyzeAsync queues a standalone sentiment analysis.
func (h *Handlers) SentimentAnalyzeAsync(w http.ResponseWriter, r *http.Request) {
	var req SentimentRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		RespondValidationError(w, verr)
		return
	}

	taskID, err := h.orch.SubmitSentiment(r.Context(), tasks.SentimentPayload{
		ProductID:   req.ProductID,
		ProductType: req.ProductType,
		ClientID:    req.ClientID,
		Comment:     req.Comment,
	})
	if err != nil {
		respondAsyncError(w, err)
		return
	}
	respondAccepted(w, taskID, "sentiment analysis queued")
}

// SentimentBatch scores comments in input order.
func (h *Handlers) SentimentBatch(w http.ResponseWriter, r *http.Request) {
	var req SentimentBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		RespondValidationError(w, verr)
		return
	}

	results, err := h.orch.SentimentBatch(r.Context(), req.Comments)
	if err != nil {
		RespondErrorDetail(w, http.StatusInternalServerError, "sentiment analysis failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}
