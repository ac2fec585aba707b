// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/skouam/commendo/docs"
	"github.com/skouam/commendo/internal/auth"
	"github.com/skouam/commendo/internal/catalog"
	"github.com/skouam/commendo/internal/config"
	"github.com/skouam/commendo/internal/couriers"
	mw "github.com/skouam/commendo/internal/middleware"
	"github.com/skouam/commendo/internal/orchestrator"
	"github.com/skouam/commendo/internal/taskfeed"
	"github.com/skouam/commendo/internal/vectorindex"
)

// Rate limit defaults applied when the config leaves them zero.
const (
	defaultRateLimitReqs   = 100
	defaultRateLimitWindow = 60 * time.Second
)

// Deps wires the router. Orchestrator, Ranker, Auth, Index and
// Collections are required; Feed is optional.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Ranker       *couriers.Ranker
	Feed         *taskfeed.Hub
	Auth         *auth.Manager
	Index        *vectorindex.Index
	Collections  map[catalog.ProductType]string

	Security    config.SecurityConfig
	CORSOrigins []string
	Version     string
}

// NewRouter assembles the HTTP surface under /api/v1 plus the root
// descriptor, metrics and swagger routes.
func NewRouter(deps Deps) *chi.Mux {
	h := NewHandlers(deps)
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(mw.Correlation)
	r.Use(mw.Timing)
	r.Use(mw.Prometheus)
	r.Use(chimw.Recoverer)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", mw.HeaderCorrelationID, mw.HeaderUserID, mw.HeaderSessionID},
		ExposedHeaders: []string{mw.HeaderCorrelationID, mw.HeaderProcessTime, mw.HeaderProcessTimeMs},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		RespondError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		RespondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", h.Root)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api/v1", func(r chi.Router) {
		if !deps.Security.RateLimitDisabled {
			reqs := deps.Security.RateLimitReqs
			if reqs <= 0 {
				reqs = defaultRateLimitReqs
			}
			window := deps.Security.RateLimitWindow
			if window <= 0 {
				window = defaultRateLimitWindow
			}
			r.Use(httprate.Limit(reqs, window,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					RespondError(w, http.StatusTooManyRequests, "rate limit exceeded")
				}),
			))
		}

		r.Route("/recommendations", func(r chi.Router) {
			r.Post("/", h.Recommendations)
			r.Post("/direct", h.RecommendationsDirect)
			r.Get("/vehicles", h.RecommendationsVehicles)
			r.Get("/livreurs", h.RecommendationsCouriers)
		})

		r.Route("/sentiment", func(r chi.Router) {
			r.Post("/analyze", h.SentimentAnalyze)
			r.Post("/analyze/async", h.SentimentAnalyzeAsync)
			r.Post("/batch", h.SentimentBatch)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/ws", h.TaskFeed)
			r.Get("/{id}", h.TaskStatus)
			r.Delete("/{id}", h.TaskCancel)
			r.Get("/{id}/result", h.TaskResult)
		})

		r.Route("/livreurs", func(r chi.Router) {
			r.Post("/rank", h.CouriersRank)
			r.Get("/health", h.CouriersHealth)
		})

		r.Route("/health", func(r chi.Router) {
			r.Get("/", h.Health)
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/token", h.AdminToken)

			r.Group(func(r chi.Router) {
				r.Use(deps.Auth.RequireAdmin)
				r.Post("/vectorize", h.AdminVectorize)
				r.Post("/cache/invalidate", h.AdminCacheInvalidate)
				r.Get("/collections/{type}", h.AdminCollection)
			})
		})
	})

	return r
}
