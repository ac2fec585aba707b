// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package ahp implements the Analytic Hierarchy Process weight derivation
// used to weight courier ranking criteria.
//
// A pairwise comparison matrix M is a positive reciprocal square matrix
// where M[i][j] expresses how much more important criterion i is than
// criterion j on Saaty's 1-9 scale. Weights are derived by normalizing each
// column to sum 1, averaging across rows, and renormalizing. Consistency is
// judged through the consistency ratio:
//
//	lambdaMax = mean over i of (M*w)_i / w_i
//	CI        = (lambdaMax - n) / (n - 1)
//	CR        = CI / RI(n)
//
// where RI is Saaty's random index. A matrix with CR below 0.1 is
// conventionally accepted as consistent.
package ahp

import (
	"errors"
	"fmt"
	"math"
)

// ConsistencyThreshold is the conventional upper bound on the consistency
// ratio below which a comparison matrix is accepted.
const ConsistencyThreshold = 0.1

// Preset upper triangles (row-major) for the three delivery urgency
// profiles, over the criteria order proximity, reputation, capacity,
// vehicle. Higher urgency concentrates weight on proximity.
var (
	UpperStandard = []float64{2, 3, 5, 2, 3, 2}
	UpperExpress  = []float64{4, 5, 6, 2, 3, 2}
	UpperSameDay  = []float64{6, 7, 7, 2, 2, 1}
)

// MaxOrder is the largest supported matrix order; Saaty's random index
// table stops at 10.
const MaxOrder = 10

// randomIndex holds Saaty's random consistency index by matrix order.
var randomIndex = map[int]float64{
	1: 0.0, 2: 0.0, 3: 0.58, 4: 0.90, 5: 1.12,
	6: 1.24, 7: 1.32, 8: 1.41, 9: 1.45, 10: 1.49,
}

// reciprocityTolerance absorbs the rounding of 1/v when comparing M[j][i]
// against the reciprocal of M[i][j].
const reciprocityTolerance = 1e-9

var (
	// ErrEmptyMatrix is returned when the comparison matrix has no rows.
	ErrEmptyMatrix = errors.New("ahp: empty comparison matrix")

	// ErrNotSquare is returned when the comparison matrix is not square.
	ErrNotSquare = errors.New("ahp: comparison matrix is not square")

	// ErrNonPositive is returned when a comparison value is zero or negative.
	ErrNonPositive = errors.New("ahp: comparison values must be positive")

	// ErrOrderTooLarge is returned for matrices beyond MaxOrder.
	ErrOrderTooLarge = errors.New("ahp: matrix order exceeds 10")

	// ErrNotReciprocal is returned when M[j][i] deviates from 1/M[i][j].
	ErrNotReciprocal = errors.New("ahp: comparison matrix is not reciprocal")
)

// Matrix is a pairwise comparison matrix.
type Matrix [][]float64

// FromUpperTriangle builds a reciprocal comparison matrix from the strict
// upper triangle given in row-major order. The matrix order is inferred
// from the triangle length n*(n-1)/2.
func FromUpperTriangle(upper []float64) (Matrix, error) {
	n := 1
	for n*(n-1)/2 < len(upper) {
		n++
	}
	if n*(n-1)/2 != len(upper) {
		return nil, fmt.Errorf("ahp: %d values do not form an upper triangle", len(upper))
	}

	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}

	k := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := upper[k]
			if v <= 0 {
				return nil, ErrNonPositive
			}
			m[i][j] = v
			m[j][i] = 1 / v
			k++
		}
	}
	return m, nil
}

// Result holds the derived weights and the consistency diagnostics.
type Result struct {
	// Weights are the derived criterion weights. They sum to 1.
	Weights []float64

	// LambdaMax is the principal eigenvalue estimate.
	LambdaMax float64

	// ConsistencyIndex is (LambdaMax - n) / (n - 1), zero for n <= 2.
	ConsistencyIndex float64

	// ConsistencyRatio is ConsistencyIndex divided by the random index.
	ConsistencyRatio float64

	// Consistent reports ConsistencyRatio < ConsistencyThreshold.
	Consistent bool
}

// Compute derives weights from the comparison matrix.
//
// Matrices of order 1 and 2 are consistent by construction and get a zero
// consistency ratio.
func (m Matrix) Compute() (*Result, error) {
	n := len(m)
	if n == 0 {
		return nil, ErrEmptyMatrix
	}
	if n > MaxOrder {
		return nil, ErrOrderTooLarge
	}
	for i := range m {
		if len(m[i]) != n {
			return nil, ErrNotSquare
		}
		for j := range m[i] {
			if m[i][j] <= 0 {
				return nil, ErrNonPositive
			}
		}
	}
	for i := 0; i < n; i++ {
		if m[i][i] != 1 {
			return nil, ErrNotReciprocal
		}
		for j := i + 1; j < n; j++ {
			if math.Abs(m[j][i]-1/m[i][j]) > reciprocityTolerance {
				return nil, ErrNotReciprocal
			}
		}
	}

	// Column sums, then column-normalized row means.
	colSums := make([]float64, n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			colSums[j] += m[i][j]
		}
	}

	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		var rowSum float64
		for j := 0; j < n; j++ {
			rowSum += m[i][j] / colSums[j]
		}
		weights[i] = rowSum / float64(n)
	}

	// Renormalize so the weights sum to exactly 1.
	var total float64
	for _, w := range weights {
		total += w
	}
	for i := range weights {
		weights[i] /= total
	}

	res := &Result{Weights: weights}

	if n <= 2 {
		res.LambdaMax = float64(n)
		res.Consistent = true
		return res, nil
	}

	// lambdaMax as the mean ratio of (M*w)_i to w_i.
	var ratioSum float64
	for i := 0; i < n; i++ {
		var mw float64
		for j := 0; j < n; j++ {
			mw += m[i][j] * weights[j]
		}
		ratioSum += mw / weights[i]
	}
	res.LambdaMax = ratioSum / float64(n)
	res.ConsistencyIndex = (res.LambdaMax - float64(n)) / float64(n-1)
	res.ConsistencyRatio = res.ConsistencyIndex / randomIndexFor(n)
	res.Consistent = res.ConsistencyRatio < ConsistencyThreshold

	return res, nil
}

// randomIndexFor returns Saaty's random index for a matrix order. Compute
// bounds n to [1, MaxOrder] before this is reached.
func randomIndexFor(n int) float64 {
	return randomIndex[n]
}
