// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package topsis implements the Technique for Order of Preference by
// Similarity to Ideal Solution, the multi-criteria ranking core of the
// courier pipeline.
//
// Each alternative is scored by its closeness to an ideal solution built
// from the best observed value per criterion and an anti-ideal built from
// the worst:
//
//	r_ij = x_ij / sqrt(sum_i x_ij^2)   (vector normalization)
//	v_ij = w_j * r_ij                  (weighting)
//	C_i  = d_worst / (d_best + d_worst)
//
// where d_best and d_worst are Euclidean distances to the ideal and
// anti-ideal. Closeness is always in [0, 1] and a larger value is better.
package topsis

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// epsilon guards the closeness denominator against a degenerate case where
// an alternative coincides with both ideals.
const epsilon = 1e-10

// Direction indicates whether larger or smaller criterion values are better.
type Direction int

const (
	// Benefit criteria reward larger values (reputation, capacity).
	Benefit Direction = iota
	// Cost criteria reward smaller values (distance).
	Cost
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Cost {
		return "cost"
	}
	return "benefit"
}

// Criterion describes one column of the decision matrix.
type Criterion struct {
	// Name identifies the criterion in diagnostics.
	Name string

	// Weight is the criterion's relative importance. Weights are used as
	// given; callers normalize them (the AHP step already sums to 1).
	Weight float64

	// Direction tells whether the criterion is a benefit or a cost.
	Direction Direction
}

// Alternative is one row of the decision matrix.
type Alternative struct {
	// ID identifies the alternative and breaks closeness ties
	// lexicographically.
	ID string

	// Values holds one value per criterion, in criteria order.
	Values []float64
}

// Score is the TOPSIS result for one alternative, ordered best first.
type Score struct {
	// ID is the alternative's identifier.
	ID string

	// Closeness is the relative closeness to the ideal solution in [0, 1].
	Closeness float64

	// DistanceBest is the Euclidean distance to the ideal solution.
	DistanceBest float64

	// DistanceWorst is the Euclidean distance to the anti-ideal solution.
	DistanceWorst float64
}

// ErrNoCriteria is returned when the criteria list is empty.
var ErrNoCriteria = errors.New("topsis: no criteria")

// Rank scores the alternatives against the criteria and returns them in
// descending closeness order. Ties are broken by ascending ID so the
// ordering is deterministic.
//
// An empty alternatives slice yields an empty result. A criterion column
// that is zero for every alternative contributes nothing: its normalization
// divisor is forced to 1 so the zeros survive unchanged instead of
// producing NaN.
func Rank(alternatives []Alternative, criteria []Criterion) ([]Score, error) {
	if len(criteria) == 0 {
		return nil, ErrNoCriteria
	}
	if len(alternatives) == 0 {
		return []Score{}, nil
	}

	n := len(alternatives)
	m := len(criteria)

	for _, alt := range alternatives {
		if len(alt.Values) != m {
			return nil, fmt.Errorf("topsis: alternative %q has %d values, want %d", alt.ID, len(alt.Values), m)
		}
	}

	// Vector normalization with the zero-column guard, then weighting.
	weighted := make([][]float64, n)
	for i := range weighted {
		weighted[i] = make([]float64, m)
	}
	for j := 0; j < m; j++ {
		var sumSquares float64
		for i := 0; i < n; i++ {
			v := alternatives[i].Values[j]
			sumSquares += v * v
		}
		divisor := math.Sqrt(sumSquares)
		if divisor == 0 {
			divisor = 1
		}
		for i := 0; i < n; i++ {
			weighted[i][j] = criteria[j].Weight * alternatives[i].Values[j] / divisor
		}
	}

	// Ideal and anti-ideal per criterion direction.
	best := make([]float64, m)
	worst := make([]float64, m)
	for j := 0; j < m; j++ {
		lo, hi := weighted[0][j], weighted[0][j]
		for i := 1; i < n; i++ {
			v := weighted[i][j]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if criteria[j].Direction == Cost {
			best[j], worst[j] = lo, hi
		} else {
			best[j], worst[j] = hi, lo
		}
	}

	scores := make([]Score, n)
	for i := 0; i < n; i++ {
		var dBest, dWorst float64
		for j := 0; j < m; j++ {
			db := weighted[i][j] - best[j]
			dw := weighted[i][j] - worst[j]
			dBest += db * db
			dWorst += dw * dw
		}
		dBest = math.Sqrt(dBest)
		dWorst = math.Sqrt(dWorst)

		closeness := 0.0
		if dBest+dWorst >= epsilon {
			closeness = dWorst / (dBest + dWorst)
		}

		scores[i] = Score{
			ID:            alternatives[i].ID,
			Closeness:     closeness,
			DistanceBest:  dBest,
			DistanceWorst: dWorst,
		}
	}

	sort.SliceStable(scores, func(a, b int) bool {
		if scores[a].Closeness != scores[b].Closeness {
			return scores[a].Closeness > scores[b].Closeness
		}
		return scores[a].ID < scores[b].ID
	})

	return scores, nil
}
