// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package ranking

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScore_Components(t *testing.T) {
	r := New(DefaultConfig())

	tests := []struct {
		name string
		c    Candidate
		want float64
	}{
		{
			name: "perfect candidate",
			c:    Candidate{Similarity: 1, Available: true, Rating: 5},
			want: 1.0,
		},
		{
			name: "similarity only",
			c:    Candidate{Similarity: 1, Available: false, Rating: 0},
			want: 0.6,
		},
		{
			name: "availability only",
			c:    Candidate{Similarity: 0, Available: true, Rating: 0},
			want: 0.25,
		},
		{
			name: "reputation only",
			c:    Candidate{Similarity: 0, Available: false, Rating: 5},
			want: 0.15,
		},
		{
			name: "rating above scale is clamped",
			c:    Candidate{Similarity: 0, Available: false, Rating: 7},
			want: 0.15,
		},
		{
			name: "mixed",
			c:    Candidate{Similarity: 0.8, Available: true, Rating: 4},
			// 0.6*0.8 + 0.25*1 + 0.15*0.8 = 0.85
			want: 0.85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Score(tt.c); !almostEqual(got, tt.want) {
				t.Errorf("Score() = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestScore_RoundedToFourDecimals(t *testing.T) {
	r := New(DefaultConfig())

	got := r.Score(Candidate{Similarity: 0.123456, Available: false, Rating: 0})
	want := math.Round(0.6*0.123456*10000) / 10000
	if got != want {
		t.Errorf("Score() = %v, want %v", got, want)
	}
}

func TestNew_NormalizesWeights(t *testing.T) {
	// Weights 6/2.5/1.5 are the defaults scaled by 10; scores must match.
	scaled := New(Config{SimilarityWeight: 6, AvailabilityWeight: 2.5, ReputationWeight: 1.5})
	standard := New(DefaultConfig())

	c := Candidate{Similarity: 0.7, Available: true, Rating: 3.5}
	if got, want := scaled.Score(c), standard.Score(c); !almostEqual(got, want) {
		t.Errorf("scaled weights Score() = %g, want %g", got, want)
	}
}

func TestNew_ZeroWeightsFallBack(t *testing.T) {
	r := New(Config{})
	if got := r.Score(Candidate{Similarity: 1, Available: true, Rating: 5}); !almostEqual(got, 1.0) {
		t.Errorf("Score() with fallback weights = %g, want 1.0", got)
	}
}

func TestRank_OrderAndRanks(t *testing.T) {
	r := New(DefaultConfig())

	ranked := r.Rank([]Candidate{
		{ID: "low", Similarity: 0.2, Available: false, Rating: 1},
		{ID: "high", Similarity: 0.95, Available: true, Rating: 5},
		{ID: "mid", Similarity: 0.6, Available: true, Rating: 3},
	})

	if len(ranked) != 3 {
		t.Fatalf("Rank() = %d items, want 3", len(ranked))
	}
	wantOrder := []string{"high", "mid", "low"}
	for i, want := range wantOrder {
		if ranked[i].ID != want {
			t.Errorf("Rank()[%d] = %s, want %s", i, ranked[i].ID, want)
		}
		if ranked[i].Rank != i+1 {
			t.Errorf("Rank()[%d].Rank = %d, want %d", i, ranked[i].Rank, i+1)
		}
	}
}

func TestRank_TieBreaks(t *testing.T) {
	r := New(Config{SimilarityWeight: 0, AvailabilityWeight: 1, ReputationWeight: 0})

	// Both available: identical scores. Higher similarity wins, then ID.
	ranked := r.Rank([]Candidate{
		{ID: "b", Similarity: 0.5, Available: true},
		{ID: "a", Similarity: 0.5, Available: true},
		{ID: "c", Similarity: 0.9, Available: true},
	})

	wantOrder := []string{"c", "a", "b"}
	for i, want := range wantOrder {
		if ranked[i].ID != want {
			t.Errorf("Rank()[%d] = %s, want %s", i, ranked[i].ID, want)
		}
	}
}

func TestRank_AvailabilityBoost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AvailabilityBoost = 0.3
	r := New(cfg)

	// Boost is capped at 1.0.
	if got := r.Score(Candidate{Similarity: 1, Available: true, Rating: 5}); got != 1.0 {
		t.Errorf("boosted Score() = %g, want capped 1.0", got)
	}

	// Unavailable products get no boost.
	plain := New(DefaultConfig())
	c := Candidate{Similarity: 0.5, Available: false, Rating: 2}
	if got, want := r.Score(c), plain.Score(c); !almostEqual(got, want) {
		t.Errorf("unavailable Score() with boost = %g, want %g", got, want)
	}

	// A lower-similarity available product can overtake an unavailable one.
	ranked := r.Rank([]Candidate{
		{ID: "unavail", Similarity: 0.9, Available: false, Rating: 5},
		{ID: "avail", Similarity: 0.7, Available: true, Rating: 5},
	})
	if ranked[0].ID != "avail" {
		t.Errorf("Rank() with boost = %s first, want avail", ranked[0].ID)
	}
}

func TestRank_MinScoreFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinScore = 0.5
	r := New(cfg)

	ranked := r.Rank([]Candidate{
		{ID: "keep", Similarity: 0.9, Available: true, Rating: 4},
		{ID: "drop", Similarity: 0.1, Available: false, Rating: 1},
	})

	if len(ranked) != 1 || ranked[0].ID != "keep" {
		t.Errorf("Rank() with min score = %+v, want only keep", ranked)
	}
}

func TestRank_Empty(t *testing.T) {
	r := New(DefaultConfig())
	if got := r.Rank(nil); len(got) != 0 {
		t.Errorf("Rank(nil) = %+v, want empty", got)
	}
}
