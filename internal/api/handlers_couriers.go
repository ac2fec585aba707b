// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package api

import (
	"errors"
	"net/http"

	"github.com/skouam/commendo/internal/couriers"
	"github.com/skouam/commendo/internal/validation"
)

// CouriersRank ranks candidate couriers for one delivery announcement.
// The include_details query switch attaches per-criterion scoring detail
// to every ranked courier.
func (h *Handlers) CouriersRank(w http.ResponseWriter, r *http.Request) {
	var req CourierRankRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		RespondValidationError(w, verr)
		return
	}

	var opts couriers.Options
	if req.Options != nil {
		opts = *req.Options
	}
	switch r.URL.Query().Get("include_details") {
	case "true", "1":
		opts.IncludeDetails = true
	}

	result, err := h.ranker.Rank(r.Context(), req.Announcement, req.Candidates, opts)
	if err != nil {
		if errors.Is(err, couriers.ErrNoCandidates) {
			RespondError(w, http.StatusBadRequest, "at least one candidate courier is required")
			return
		}
		RespondErrorDetail(w, http.StatusInternalServerError, "courier ranking failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// CouriersHealth is the courier subsystem's liveness probe. Ranking is
// pure computation, so serving the route is the health signal.
func (h *Handlers) CouriersHealth(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "courier-ranking",
	})
}
