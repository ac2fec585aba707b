// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package api

import (
	"net/http"

	"github.com/skouam/commendo/internal/auth"
	"github.com/skouam/commendo/internal/catalog"
	"github.com/skouam/commendo/internal/couriers"
	"github.com/skouam/commendo/internal/orchestrator"
	"github.com/skouam/commendo/internal/taskfeed"
	"github.com/skouam/commendo/internal/tasks"
	"github.com/skouam/commendo/internal/vectorindex"
)

// Handlers carries the wired services behind the HTTP surface. Feed and
// the orchestrator's task runner are optional; the endpoints that need
// them degrade to 503 when absent.
type Handlers struct {
	orch        *orchestrator.Orchestrator
	ranker      *couriers.Ranker
	feed        *taskfeed.Hub
	auth        *auth.Manager
	index       *vectorindex.Index
	collections map[catalog.ProductType]string
	version     string
}

// NewHandlers builds the handler set from the router dependencies.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		orch:        deps.Orchestrator,
		ranker:      deps.Ranker,
		feed:        deps.Feed,
		auth:        deps.Auth,
		index:       deps.Index,
		collections: deps.Collections,
		version:     deps.Version,
	}
}

// Root serves the service descriptor.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"name":          "commendo",
		"version":       h.version,
		"documentation": "/swagger/index.html",
		"health":        "/api/v1/health/",
	})
}

// respondAccepted writes the 202 body shared by every async submission.
func respondAccepted(w http.ResponseWriter, taskID, message string) {
	RespondJSON(w, http.StatusAccepted, map[string]interface{}{
		"task_id": taskID,
		"status":  string(tasks.StatusPending),
		"message": message,
	})
}
