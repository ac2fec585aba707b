// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package ranking fuses similarity, availability, and reputation into the
// final recommendation order.
//
// Each candidate's score is a weighted sum of three normalized components:
// the embedding similarity from the vector search, a binary availability
// signal, and the star rating scaled to [0, 1]. Weights are normalized to
// sum to 1, so callers can tune relative importance without keeping the
// raw values balanced.
package ranking

import (
	"math"
	"sort"
)

// Default fusion weights.
const (
	DefaultSimilarityWeight   = 0.60
	DefaultAvailabilityWeight = 0.25
	DefaultReputationWeight   = 0.15
)

// Candidate is one scored product entering the fusion.
type Candidate struct {
	ID         string
	Similarity float64
	Available  bool
	Rating     float64
}

// Ranked is one product after fusion, in final order.
type Ranked struct {
	ID         string  `json:"id"`
	Rank       int     `json:"rank"`
	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
	Available  bool    `json:"available"`
	Rating     float64 `json:"rating"`
}

// Config holds the fusion weights and the optional post-rank adjustments.
type Config struct {
	SimilarityWeight   float64
	AvailabilityWeight float64
	ReputationWeight   float64

	// AvailabilityBoost is added to the fused score of available products
	// after weighting, capped at 1.0. Zero disables the boost.
	AvailabilityBoost float64

	// MinScore drops products scoring below the threshold after all
	// adjustments. Zero disables the filter.
	MinScore float64
}

// DefaultConfig returns the standard fusion weights with no post-rank
// adjustments.
func DefaultConfig() Config {
	return Config{
		SimilarityWeight:   DefaultSimilarityWeight,
		AvailabilityWeight: DefaultAvailabilityWeight,
		ReputationWeight:   DefaultReputationWeight,
	}
}

// Ranker computes the final recommendation order.
type Ranker struct {
	simW   float64
	availW float64
	repW   float64
	boost  float64
	minS   float64
}

// New creates a Ranker. Non-positive weight sums fall back to the defaults;
// otherwise weights are normalized to sum to 1.
func New(cfg Config) *Ranker {
	sum := cfg.SimilarityWeight + cfg.AvailabilityWeight + cfg.ReputationWeight
	if sum <= 0 {
		cfg = Config{
			SimilarityWeight:   DefaultSimilarityWeight,
			AvailabilityWeight: DefaultAvailabilityWeight,
			ReputationWeight:   DefaultReputationWeight,
			AvailabilityBoost:  cfg.AvailabilityBoost,
			MinScore:           cfg.MinScore,
		}
		sum = 1
	}

	return &Ranker{
		simW:   cfg.SimilarityWeight / sum,
		availW: cfg.AvailabilityWeight / sum,
		repW:   cfg.ReputationWeight / sum,
		boost:  cfg.AvailabilityBoost,
		minS:   cfg.MinScore,
	}
}

// Rank fuses and orders the candidates. The result is sorted by score
// descending with ties broken by similarity, then by ID for determinism.
// Ranks are 1-based.
func (r *Ranker) Rank(candidates []Candidate) []Ranked {
	ranked := make([]Ranked, 0, len(candidates))

	for _, c := range candidates {
		score := r.Score(c)
		if r.minS > 0 && score < r.minS {
			continue
		}
		ranked = append(ranked, Ranked{
			ID:         c.ID,
			Score:      score,
			Similarity: c.Similarity,
			Available:  c.Available,
			Rating:     c.Rating,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Similarity != ranked[j].Similarity {
			return ranked[i].Similarity > ranked[j].Similarity
		}
		return ranked[i].ID < ranked[j].ID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Score fuses one candidate, rounded to 4 decimal places.
func (r *Ranker) Score(c Candidate) float64 {
	availability := 0.0
	if c.Available {
		availability = 1.0
	}

	reputation := c.Rating / 5
	if reputation > 1 {
		reputation = 1
	}
	if reputation < 0 {
		reputation = 0
	}

	score := r.simW*c.Similarity + r.availW*availability + r.repW*reputation

	if c.Available && r.boost > 0 {
		score += r.boost
		if score > 1 {
			score = 1
		}
	}

	return round4(score)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
