// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package recommend implements the sentiment-driven recommendation
// pipeline.
//
// A request carries an anchor product and the client's sentiment toward
// it. The engine probes the tolerance-aware cache, embeds the anchor's
// description, searches the vector index for similar products, fuses
// similarity with availability and reputation, and caches the ranked
// result. A missing anchor is a successful empty result, not an error:
// the product may have been removed between the client's session and the
// request.
package recommend

import (
	"time"

	"github.com/skouam/commendo/internal/catalog"
	"github.com/skouam/commendo/internal/ranking"
)

// Result sources reported in response metadata.
const (
	SourceComputed     = "computed"
	SourceCacheExact   = "cache_exact"
	SourceCacheFuzzy   = "cache_fuzzy"
	SourceCacheProduct = "cache_product"
)

// DefaultTopK is the number of recommendations returned when the request
// does not specify one.
const DefaultTopK = 5

// Request is one recommendation query.
type Request struct {
	ProductID   string
	ProductType catalog.ProductType
	ClientID    string
	Sentiment   float64
	TopK        int

	// SkipCache bypasses both the cache probe and the cache write. Direct
	// (uncached) processing exists for debugging and for admin-triggered
	// recomputation.
	SkipCache bool
}

// Item is one recommended product.
type Item struct {
	ID           string  `json:"id"`
	Rank         int     `json:"rank"`
	Score        float64 `json:"score"`
	Similarity   float64 `json:"similarity"`
	Available    bool    `json:"available"`
	Rating       float64 `json:"rating"`
	Brand        string  `json:"brand,omitempty"`
	Model        string  `json:"model,omitempty"`
	Location     string  `json:"location,omitempty"`
	PricePerDay  float64 `json:"price_per_day,omitempty"`
}

// Result is the pipeline output.
type Result struct {
	ProductID   string     `json:"product_id"`
	ProductType string     `json:"product_type"`
	ClientID    string     `json:"client_id,omitempty"`
	Sentiment   float64    `json:"sentiment"`
	Items       []Item     `json:"recommendations"`
	Source      string     `json:"source"`
	CachedAt    *time.Time `json:"cached_at,omitempty"`
	DurationMs  float64    `json:"duration_ms"`
}

// itemsFromRanked joins the fusion order back onto the catalog rows.
func itemsFromRanked(ranked []ranking.Ranked, products map[string]catalog.Product) []Item {
	items := make([]Item, 0, len(ranked))
	for _, r := range ranked {
		item := Item{
			ID:         r.ID,
			Rank:       r.Rank,
			Score:      r.Score,
			Similarity: r.Similarity,
			Available:  r.Available,
			Rating:     r.Rating,
		}
		if p, ok := products[r.ID]; ok {
			item.Brand = p.Brand
			item.Model = p.Model
			item.Location = p.Location
			item.PricePerDay = p.PricePerDay
		}
		items = append(items, item)
	}
	return items
}
