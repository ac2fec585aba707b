// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package sentiment

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/goccy/go-json"

	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/metrics"
)

// FallbackModel is the public star-rating model identity reported when no
// model directory is configured or loadable. It fixes the class count at 5.
const FallbackModel = "nlptown/bert-base-multilingual-uncased-sentiment"

// fallbackLabels is the class layout of the fallback model, most negative
// first.
var fallbackLabels = []string{"1 star", "2 stars", "3 stars", "4 stars", "5 stars"}

// probabilityWidth shapes how sharply the polarity estimate concentrates
// probability mass on the nearest class.
const probabilityWidth = 0.35

// negationWindow is how many following tokens a negator flips.
const negationWindow = 3

// intensifierBoost scales the next polarized token after an intensifier.
const intensifierBoost = 2.0

// LexiconAnalyzer scores text against French and English polarity lexicons
// and emits a k-class probability vector shaped like the configured model.
//
// Construction is cheap; model metadata is loaded lazily on first use and
// concurrent first callers block on the single load. A missing or
// malformed model directory falls back to the built-in 5-class layout,
// logged exactly once.
type LexiconAnalyzer struct {
	cfg Config

	loadOnce sync.Once
	name     string
	labels   []string
}

// Config controls analyzer construction.
type Config struct {
	// ModelPath is a directory containing model.json metadata. Empty or
	// unreadable paths trigger the fallback configuration.
	ModelPath string
}

// DefaultConfig returns the default analyzer configuration.
func DefaultConfig() Config {
	return Config{ModelPath: ""}
}

// analyzerMetadata mirrors the model.json file inside a model directory.
type analyzerMetadata struct {
	Name   string   `json:"name"`
	Labels []string `json:"labels"`
}

// NewLexiconAnalyzer creates an analyzer with the given configuration.
func NewLexiconAnalyzer(cfg Config) *LexiconAnalyzer {
	return &LexiconAnalyzer{cfg: cfg}
}

// load resolves model metadata once, falling back on any failure.
func (a *LexiconAnalyzer) load() {
	a.loadOnce.Do(func() {
		a.name = FallbackModel
		a.labels = fallbackLabels

		if a.cfg.ModelPath == "" {
			logging.Warn().
				Str("component", "sentiment").
				Str("fallback_model", FallbackModel).
				Msg("No model path configured, using fallback model")
			return
		}

		raw, err := os.ReadFile(filepath.Join(a.cfg.ModelPath, "model.json"))
		if err != nil {
			logging.Warn().
				Str("component", "sentiment").
				Str("model_path", a.cfg.ModelPath).
				Str("fallback_model", FallbackModel).
				Err(err).
				Msg("Model directory unreadable, using fallback model")
			return
		}

		var meta analyzerMetadata
		if err := json.Unmarshal(raw, &meta); err != nil || meta.Name == "" || len(meta.Labels) < 2 {
			logging.Warn().
				Str("component", "sentiment").
				Str("model_path", a.cfg.ModelPath).
				Str("fallback_model", FallbackModel).
				Msg("Model metadata malformed, using fallback model")
			return
		}

		a.name = meta.Name
		a.labels = meta.Labels
		logging.Info().
			Str("component", "sentiment").
			Str("model", meta.Name).
			Int("classes", len(meta.Labels)).
			Msg("Sentiment model loaded")
	})
}

// ModelName identifies the loaded model.
func (a *LexiconAnalyzer) ModelName() string {
	a.load()
	return a.name
}

// Classes returns the number of output classes.
func (a *LexiconAnalyzer) Classes() int {
	a.load()
	return len(a.labels)
}

// Analyze scores a single text.
func (a *LexiconAnalyzer) Analyze(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Neutral(), fmt.Errorf("sentiment: analyze cancelled: %w", err)
	}
	a.load()

	probs := a.probabilities(text)
	score, err := ScoreFromProbabilities(probs)
	if err != nil {
		metrics.SentimentFailures.Inc()
		return Neutral(), nil
	}

	confidence := 0.0
	for _, p := range probs {
		if p > confidence {
			confidence = p
		}
	}

	result := Result{
		Score:      score,
		Label:      LabelForScore(score),
		Confidence: confidence,
	}
	metrics.RecordSentiment(string(result.Label))
	return result, nil
}

// AnalyzeBatch scores texts in input order, honoring cancellation between
// items.
func (a *LexiconAnalyzer) AnalyzeBatch(ctx context.Context, texts []string) ([]Result, error) {
	results := make([]Result, 0, len(texts))
	for _, text := range texts {
		res, err := a.Analyze(ctx, text)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// HealthCheck verifies a probe inference succeeds.
func (a *LexiconAnalyzer) HealthCheck(ctx context.Context) error {
	res, err := a.Analyze(ctx, "test")
	if err != nil {
		return err
	}
	if res.Score < -1 || res.Score > 1 {
		return fmt.Errorf("sentiment: health check score %f out of range", res.Score)
	}
	return nil
}

// probabilities estimates a polarity in [-1, 1] from lexicon hits, then
// spreads it over the class layout with a Gaussian kernel centered on the
// matching class position.
func (a *LexiconAnalyzer) probabilities(text string) []float64 {
	polarity := a.polarity(text)

	k := len(a.labels)
	probs := make([]float64, k)
	var total float64
	for i := range probs {
		center := -1 + 2*float64(i)/float64(k-1)
		d := polarity - center
		probs[i] = math.Exp(-(d * d) / (2 * probabilityWidth * probabilityWidth))
		total += probs[i]
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs
}

// polarity counts weighted lexicon hits with negation flips.
func (a *LexiconAnalyzer) polarity(text string) float64 {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	var positive, negative float64
	flipUntil := -1
	boost := 1.0

	for i, token := range tokens {
		if negators[token] {
			flipUntil = i + negationWindow
			continue
		}
		if intensifiers[token] {
			boost = intensifierBoost
			continue
		}

		weight, polarized := 0.0, false
		if positiveWords[token] {
			weight, polarized = boost, true
		} else if negativeWords[token] {
			weight, polarized = -boost, true
		}
		if !polarized {
			continue
		}
		boost = 1.0

		if i <= flipUntil {
			weight = -weight
			flipUntil = -1
		}
		if weight > 0 {
			positive += weight
		} else {
			negative -= weight
		}
	}

	if positive+negative == 0 {
		return 0
	}
	return (positive - negative) / (positive + negative)
}

var positiveWords = wordSet(
	"excellent", "excellente", "parfait", "parfaite", "super", "génial",
	"géniale", "bien", "bon", "bonne", "agréable", "propre", "rapide",
	"fiable", "sympa", "recommande", "satisfait", "satisfaite",
	"impeccable", "top", "magnifique", "confortable", "professionnel",
	"professionnelle", "courtois", "ponctuel", "ponctuelle", "merci",
	"great", "good", "amazing", "awesome", "nice", "clean", "fast",
	"reliable", "friendly", "recommend", "satisfied", "perfect",
	"comfortable", "helpful", "polite", "punctual", "love", "best",
)

var negativeWords = wordSet(
	"mauvais", "mauvaise", "horrible", "terrible", "nul", "nulle", "sale",
	"lent", "lente", "panne", "retard", "déçu", "déçue", "décevant",
	"décevante", "problème", "cher", "chère", "arnaque", "cassé", "cassée",
	"impoli", "impolie", "dangereux", "dangereuse", "médiocre",
	"bad", "awful", "dirty", "slow", "late", "disappointed",
	"disappointing", "problem", "expensive", "scam", "broken", "rude",
	"dangerous", "poor", "worst", "hate",
)

var negators = wordSet(
	"pas", "ne", "n", "jamais", "rien", "aucun", "aucune", "non", "sans",
	"not", "no", "never", "don", "doesn", "didn", "won", "isn", "wasn",
)

var intensifiers = wordSet(
	"très", "vraiment", "trop", "extrêmement", "totalement",
	"very", "really", "extremely", "totally", "absolutely",
)

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
