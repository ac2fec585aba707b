// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package api exposes the HTTP surface: recommendations, sentiment,
// courier ranking, the async task endpoints and the admin group. Success
// responses are the bare domain payloads; errors use one body shape,
// {"error", "detail"?, "status_code"}, across every endpoint.
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/validation"
)

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Error      string      `json:"error"`
	Detail     interface{} `json:"detail,omitempty"`
	StatusCode int         `json:"status_code"`
}

// RespondJSON writes a success payload.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("Encoding response failed")
	}
}

// RespondError writes the standard error body.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondErrorDetail(w, status, message, nil)
}

// RespondErrorDetail writes the standard error body with extra detail.
func RespondErrorDetail(w http.ResponseWriter, status int, message string, detail interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	body := ErrorBody{Error: message, Detail: detail, StatusCode: status}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Encoding error response failed")
	}
}

// RespondValidationError maps a validation failure onto a 400.
func RespondValidationError(w http.ResponseWriter, verr *validation.RequestValidationError) {
	RespondErrorDetail(w, http.StatusBadRequest, verr.Error(), verr.Detail())
}

// decodeJSON decodes a request body, rejecting unknown garbage early.
func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
