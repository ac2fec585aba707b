// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skouam/commendo/internal/auth"
	"github.com/skouam/commendo/internal/catalog"
	"github.com/skouam/commendo/internal/validation"
)

// AdminToken exchanges the shared admin secret for a bearer token. This is
// the only admin route outside the JWT gate.
func (h *Handlers) AdminToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		RespondValidationError(w, verr)
		return
	}

	token, err := h.auth.Exchange(req.Secret, r.RemoteAddr, r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrBadSecret):
			RespondError(w, http.StatusUnauthorized, "invalid admin secret")
		case errors.Is(err, auth.ErrThrottled):
			RespondError(w, http.StatusTooManyRequests, "too many token exchange attempts")
		default:
			RespondErrorDetail(w, http.StatusInternalServerError, "token issuance failed", err.Error())
		}
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(h.auth.TokenTTL().Seconds()),
	})
}

// AdminVectorize queues a vector collection rebuild for a product type.
func (h *Handlers) AdminVectorize(w http.ResponseWriter, r *http.Request) {
	var req VectorizeRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		RespondValidationError(w, verr)
		return
	}

	taskID, err := h.orch.SubmitVectorization(r.Context(), catalog.ProductType(req.ProductType), req.Recreate)
	if err != nil {
		respondAsyncError(w, err)
		return
	}
	respondAccepted(w, taskID, "vectorization queued")
}

// AdminCacheInvalidate drops a product's cached recommendations and its
// vector index entry.
func (h *Handlers) AdminCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	var req InvalidateRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		RespondValidationError(w, verr)
		return
	}

	removed := h.orch.InvalidateProductCache(r.Context(), catalog.ProductType(req.ProductType), req.ProductID)
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"product_id":      req.ProductID,
		"product_type":    req.ProductType,
		"entries_removed": removed,
	})
}

// AdminCollection reports the vector collection backing a product type.
func (h *Handlers) AdminCollection(w http.ResponseWriter, r *http.Request) {
	productType := catalog.ProductType(chi.URLParam(r, "type"))
	if !productType.Valid() {
		RespondError(w, http.StatusBadRequest, "product type must be vehicle or livreur")
		return
	}

	name, ok := h.collections[productType]
	if !ok {
		RespondErrorDetail(w, http.StatusNotFound, "no collection for product type", string(productType))
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"product_type": string(productType),
		"collection":   name,
		"points":       h.index.Count(name),
	})
}
