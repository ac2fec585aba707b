// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package sentiment scores free-text client comments on a [-1, 1] polarity
// scale and labels them positive, neutral, or negative.
//
// The analyzer abstracts over k-class probability models. The score
// conversion depends on the class count:
//
//	k = 2: p(positive) - p(negative)
//	k = 3: p(positive) - p(negative), ignoring the neutral mass
//	k = 5: (sum of (i+1) * p_i - 3) / 2  (star-rating models)
//	else : argmax index mapped linearly onto [-1, 1]
//
// Labels derive from the score: above 0.2 is positive, below -0.2 is
// negative, anything between is neutral. Confidence is the maximum class
// probability. Any inference failure degrades to a neutral result with
// zero confidence rather than failing the request.
package sentiment

import (
	"context"
	"fmt"
)

// Label is the categorical sentiment of a comment.
type Label string

const (
	// LabelPositive marks scores above the positive threshold.
	LabelPositive Label = "positive"
	// LabelNeutral marks scores between the thresholds.
	LabelNeutral Label = "neutral"
	// LabelNegative marks scores below the negative threshold.
	LabelNegative Label = "negative"
)

// labelThreshold is the symmetric cut between neutral and polarized labels.
const labelThreshold = 0.2

// Result is one scored comment.
type Result struct {
	// Score is the polarity in [-1, 1].
	Score float64 `json:"score"`

	// Label is the categorical reading of Score.
	Label Label `json:"label"`

	// Confidence is the maximum class probability in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Neutral is the degraded result used when inference fails.
func Neutral() Result {
	return Result{Score: 0, Label: LabelNeutral, Confidence: 0}
}

// Analyzer scores text polarity.
//
// Implementations must be safe for concurrent use.
type Analyzer interface {
	// Analyze scores a single text.
	Analyze(ctx context.Context, text string) (Result, error)

	// AnalyzeBatch scores texts in input order.
	AnalyzeBatch(ctx context.Context, texts []string) ([]Result, error)

	// ModelName identifies the loaded model for diagnostics.
	ModelName() string

	// HealthCheck verifies the analyzer can produce a result.
	HealthCheck(ctx context.Context) error
}

// ScoreFromProbabilities converts a k-class probability vector to a
// polarity score in [-1, 1]. Class order runs from most negative to most
// positive.
func ScoreFromProbabilities(probs []float64) (float64, error) {
	k := len(probs)
	switch k {
	case 0:
		return 0, fmt.Errorf("sentiment: empty probability vector")
	case 1:
		return 0, nil
	case 2:
		return clampScore(probs[1] - probs[0]), nil
	case 3:
		return clampScore(probs[2] - probs[0]), nil
	case 5:
		var expected float64
		for i, p := range probs {
			expected += float64(i+1) * p
		}
		return clampScore((expected - 3) / 2), nil
	default:
		// Unknown class layout: fall back to the dominant class position.
		argmax := 0
		for i, p := range probs {
			if p > probs[argmax] {
				argmax = i
			}
		}
		return clampScore(float64(argmax)/float64(k-1)*2 - 1), nil
	}
}

// LabelForScore maps a polarity score onto the categorical label.
func LabelForScore(score float64) Label {
	switch {
	case score > labelThreshold:
		return LabelPositive
	case score < -labelThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// clampScore keeps floating point drift inside the documented range.
func clampScore(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
