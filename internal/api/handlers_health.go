// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package api

import "net/http"

// Health probes every dependency and reports per-service state. Degraded
// dependencies still return 200; readiness is the gating endpoint.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	report := h.orch.HealthCheck(r.Context())

	status := "ok"
	if !report.Healthy {
		status = "degraded"
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": report.Timestamp,
		"services":  report.Services,
	})
}

// HealthLive answers as long as the process serves requests.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady returns 503 while any dependency is down so load balancers
// hold traffic.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	report := h.orch.HealthCheck(r.Context())
	if !report.Healthy {
		RespondErrorDetail(w, http.StatusServiceUnavailable, "service not ready", report.Services)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
