// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package couriers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/skouam/commendo/internal/ahp"
	"github.com/skouam/commendo/internal/config"
	"github.com/skouam/commendo/internal/geo"
	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/metrics"
	"github.com/skouam/commendo/internal/topsis"
)

// ErrNoCandidates is returned when the candidate list is empty. An empty
// list is a request defect; an empty eligible set after filtering is not.
var ErrNoCandidates = errors.New("couriers: no candidates")

// criteria order of the decision matrix. Proximity is the only cost
// criterion; everything else rewards larger values.
const (
	criterionProximity = iota
	criterionReputation
	criterionCapacity
	criterionVehicle
	criterionCount
)

// Ranker runs the three-phase courier ranking. AHP weights are derived
// once per urgency at construction and are immutable afterwards.
type Ranker struct {
	tolerances map[Urgency]float64
	weights    map[Urgency]*ahp.Result
}

// New creates a Ranker from the courier configuration.
func New(cfg config.CouriersConfig) (*Ranker, error) {
	triangles := map[Urgency][]float64{
		UrgencyStandard: ahp.UpperStandard,
		UrgencyExpress:  ahp.UpperExpress,
		UrgencySameDay:  ahp.UpperSameDay,
	}

	weights := make(map[Urgency]*ahp.Result, len(triangles))
	for urgency, upper := range triangles {
		matrix, err := ahp.FromUpperTriangle(upper)
		if err != nil {
			return nil, fmt.Errorf("couriers: %s comparison matrix: %w", urgency, err)
		}
		result, err := matrix.Compute()
		if err != nil {
			return nil, fmt.Errorf("couriers: %s weight derivation: %w", urgency, err)
		}
		weights[urgency] = result
	}

	return &Ranker{
		tolerances: map[Urgency]float64{
			UrgencyStandard: cfg.ToleranceStandardKm,
			UrgencyExpress:  cfg.ToleranceExpressKm,
			UrgencySameDay:  cfg.ToleranceSameDayKm,
		},
		weights: weights,
	}, nil
}

// Weights returns the derived AHP result for an urgency class.
func (r *Ranker) Weights(urgency Urgency) (*ahp.Result, bool) {
	res, ok := r.weights[urgency]
	return res, ok
}

// eligibleCourier pairs a candidate with its measured focal distances.
type eligibleCourier struct {
	candidate Candidate
	toPickup  float64
	toDropoff float64
	totalKm   float64
}

// Rank runs the full pipeline for one announcement.
func (r *Ranker) Rank(ctx context.Context, ann Announcement, candidates []Candidate, opts Options) (*Result, error) {
	start := time.Now()

	if !ann.Urgency.Valid() {
		return nil, fmt.Errorf("couriers: unknown urgency %q", ann.Urgency)
	}
	if !ann.Pickup.Valid() || !ann.Dropoff.Valid() {
		return nil, errors.New("couriers: announcement coordinates out of bounds")
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	tolerance := r.tolerances[ann.Urgency]
	if opts.ToleranceKm > 0 {
		tolerance = opts.ToleranceKm
	}

	// Phase 1: spatial gate. Candidates stay when the sum of their focal
	// distances does not exceed Dmax.
	focal := geo.Haversine(ann.Pickup, ann.Dropoff)
	dmax := focal + 2*tolerance

	eligible := make([]eligibleCourier, 0, len(candidates))
	rejected := make([]Rejected, 0)
	for _, c := range candidates {
		toPickup, toDropoff := geo.FocalDistances(c.Position, ann.Pickup, ann.Dropoff)
		total := toPickup + toDropoff
		if total <= dmax {
			eligible = append(eligible, eligibleCourier{
				candidate: c,
				toPickup:  toPickup,
				toDropoff: toDropoff,
				totalKm:   total,
			})
			continue
		}
		rejected = append(rejected, Rejected{
			ID:                c.ID,
			CommercialName:    c.CommercialName,
			Reason:            RejectReasonOutsideZone,
			TotalDistanceKm:   round2(total),
			MaxDistanceKm:     round2(dmax),
			PickupDistanceKm:  round2(toPickup),
			DropoffDistanceKm: round2(toDropoff),
		})
	}

	defer func() { metrics.ObserveCourierRanking(time.Since(start), len(rejected)) }()

	logging.Ctx(ctx).Info().
		Str("annonce_id", ann.ID).
		Str("urgency", string(ann.Urgency)).
		Float64("tolerance_km", tolerance).
		Int("eligible", len(eligible)).
		Int("rejected", len(rejected)).
		Msg("Spatial filtering complete")

	metadata := Metadata{
		Urgency:     ann.Urgency,
		ToleranceKm: tolerance,
		DmaxKm:      round2(dmax),
		Filter: FilterStats{
			TotalCandidates: len(candidates),
			Eligible:        len(eligible),
			RejectedCount:   len(rejected),
			Rejected:        rejected,
		},
	}

	if len(eligible) == 0 {
		logging.Ctx(ctx).Warn().Str("annonce_id", ann.ID).Msg("No eligible couriers after spatial filtering")
		metadata.DurationMs = msSince(start)
		return &Result{
			AnnouncementID: ann.ID,
			Timestamp:      time.Now().UTC(),
			Ranking:        []RankedCourier{},
			Metadata:       metadata,
			Warnings:       []string{"Aucun livreur éligible après filtrage spatial"},
		}, nil
	}

	// Phase 2: AHP weights for the urgency class.
	weights := r.weights[ann.Urgency]
	metadata.Weights = &Weights{
		Proximity:        weights.Weights[criterionProximity],
		Reputation:       weights.Weights[criterionReputation],
		Capacity:         weights.Weights[criterionCapacity],
		Vehicle:          weights.Weights[criterionVehicle],
		ConsistencyRatio: weights.ConsistencyRatio,
		Consistent:       weights.Consistent,
	}

	var warnings []string
	if !weights.Consistent {
		warnings = append(warnings, fmt.Sprintf(
			"La matrice AHP n'est pas parfaitement cohérente (CR=%.4f >= %.1f). Les résultats peuvent être moins fiables.",
			weights.ConsistencyRatio, ahp.ConsistencyThreshold))
	}

	// Phase 3: TOPSIS over the decision matrix.
	criteria := []topsis.Criterion{
		{Name: "proximite", Weight: weights.Weights[criterionProximity], Direction: topsis.Cost},
		{Name: "reputation", Weight: weights.Weights[criterionReputation], Direction: topsis.Benefit},
		{Name: "capacite", Weight: weights.Weights[criterionCapacity], Direction: topsis.Benefit},
		{Name: "type_vehicule", Weight: weights.Weights[criterionVehicle], Direction: topsis.Benefit},
	}

	byID := make(map[string]eligibleCourier, len(eligible))
	alternatives := make([]topsis.Alternative, len(eligible))
	for i, e := range eligible {
		byID[e.candidate.ID] = e
		alternatives[i] = topsis.Alternative{
			ID: e.candidate.ID,
			Values: []float64{
				e.totalKm,
				e.candidate.Reputation,
				e.candidate.MaxCapacityKg,
				e.candidate.VehicleType.Score(),
			},
		}
	}

	scores, err := topsis.Rank(alternatives, criteria)
	if err != nil {
		return nil, fmt.Errorf("couriers: topsis: %w", err)
	}

	if opts.TopK > 0 && opts.TopK < len(scores) {
		scores = scores[:opts.TopK]
	}

	var details map[string]*ScoreDetails
	if opts.IncludeDetails {
		details = buildDetails(alternatives, criteria)
	}

	ranking := make([]RankedCourier, len(scores))
	for i, s := range scores {
		e := byID[s.ID]
		rc := RankedCourier{
			Rank:            i + 1,
			ID:              s.ID,
			CommercialName:  e.candidate.CommercialName,
			Score:           s.Closeness,
			TotalDistanceKm: round2(e.totalKm),
		}
		if opts.IncludeDetails {
			rc.Details = details[s.ID]
			rc.Distances = &TOPSISDistances{
				ToIdeal:     s.DistanceBest,
				ToAntiIdeal: s.DistanceWorst,
			}
		}
		ranking[i] = rc
	}

	metadata.DurationMs = msSince(start)

	logging.Ctx(ctx).Info().
		Str("annonce_id", ann.ID).
		Int("ranked", len(ranking)).
		Float64("duration_ms", metadata.DurationMs).
		Msg("Courier ranking complete")

	return &Result{
		AnnouncementID: ann.ID,
		Timestamp:      time.Now().UTC(),
		Ranking:        ranking,
		Metadata:       metadata,
		Warnings:       warnings,
	}, nil
}

// buildDetails recomputes the normalized and weighted decision matrix for
// the explanation payload. The arithmetic mirrors the TOPSIS core, with
// the same zero-column guard.
func buildDetails(alternatives []topsis.Alternative, criteria []topsis.Criterion) map[string]*ScoreDetails {
	divisors := make([]float64, criterionCount)
	for j := 0; j < criterionCount; j++ {
		var sumSquares float64
		for _, alt := range alternatives {
			sumSquares += alt.Values[j] * alt.Values[j]
		}
		divisors[j] = math.Sqrt(sumSquares)
		if divisors[j] == 0 {
			divisors[j] = 1
		}
	}

	details := make(map[string]*ScoreDetails, len(alternatives))
	for _, alt := range alternatives {
		detail := func(j int) CriterionDetail {
			normalized := alt.Values[j] / divisors[j]
			return CriterionDetail{
				Raw:        alt.Values[j],
				Normalized: normalized,
				Weighted:   criteria[j].Weight * normalized,
			}
		}
		details[alt.ID] = &ScoreDetails{
			Proximity:  detail(criterionProximity),
			Reputation: detail(criterionReputation),
			Capacity:   detail(criterionCapacity),
			Vehicle:    detail(criterionVehicle),
		}
	}
	return details
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
