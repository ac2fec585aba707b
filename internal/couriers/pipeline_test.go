// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package couriers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/skouam/commendo/internal/config"
	"github.com/skouam/commendo/internal/geo"
)

func defaultTolerances() config.CouriersConfig {
	return config.CouriersConfig{
		ToleranceStandardKm: 2.5,
		ToleranceExpressKm:  1.5,
		ToleranceSameDayKm:  1.0,
	}
}

func newTestRanker(t *testing.T) *Ranker {
	t.Helper()
	r, err := New(defaultTolerances())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

// parisAnnouncement is a short sameday hop across central Paris.
func parisAnnouncement(urgency Urgency) Announcement {
	return Announcement{
		ID:      "annonce-1",
		Pickup:  geo.Point{Latitude: 48.8566, Longitude: 2.3522},
		Dropoff: geo.Point{Latitude: 48.8606, Longitude: 2.3376},
		Urgency: urgency,
	}
}

func parisCandidates() []Candidate {
	return []Candidate{
		{
			ID: "L1", CommercialName: "Livreur Un",
			Position:    geo.Point{Latitude: 48.8570, Longitude: 2.3500},
			Reputation:  7, DeliveryCount: 120, SuccessRate: 0.95,
			VehicleType: VehicleMoto, MaxCapacityKg: 40,
		},
		{
			ID: "L2", CommercialName: "Livreur Deux",
			Position:    geo.Point{Latitude: 48.8590, Longitude: 2.3400},
			Reputation:  9, DeliveryCount: 300, SuccessRate: 0.98,
			VehicleType: VehicleBike, MaxCapacityKg: 20,
		},
		{
			ID: "L3", CommercialName: "Livreur Trois",
			Position:    geo.Point{Latitude: 49.0000, Longitude: 3.0000},
			Reputation:  10, DeliveryCount: 500, SuccessRate: 0.99,
			VehicleType: VehicleTruck, MaxCapacityKg: 200,
		},
	}
}

func TestRank_SameDayParisScenario(t *testing.T) {
	r := newTestRanker(t)

	result, err := r.Rank(context.Background(), parisAnnouncement(UrgencySameDay), parisCandidates(), Options{})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if len(result.Ranking) != 2 {
		t.Fatalf("Ranking = %d couriers, want 2", len(result.Ranking))
	}
	for _, rc := range result.Ranking {
		if rc.ID == "L3" {
			t.Error("L3 ranked despite being far outside the zone")
		}
		if rc.Score < 0 || rc.Score > 1 {
			t.Errorf("%s score = %g, want within [0, 1]", rc.ID, rc.Score)
		}
	}
	if result.Ranking[0].Rank != 1 || result.Ranking[1].Rank != 2 {
		t.Errorf("ranks = %d, %d, want 1, 2", result.Ranking[0].Rank, result.Ranking[1].Rank)
	}

	if len(result.Metadata.Filter.Rejected) != 1 {
		t.Fatalf("Rejected = %d, want 1", len(result.Metadata.Filter.Rejected))
	}
	rej := result.Metadata.Filter.Rejected[0]
	if rej.ID != "L3" || rej.Reason != RejectReasonOutsideZone {
		t.Errorf("Rejected = %+v, want L3 with %s", rej, RejectReasonOutsideZone)
	}
	if rej.TotalDistanceKm <= rej.MaxDistanceKm {
		t.Errorf("rejected total %g not beyond Dmax %g", rej.TotalDistanceKm, rej.MaxDistanceKm)
	}

	if result.Metadata.Weights == nil {
		t.Fatal("Metadata.Weights = nil")
	}
	if result.Metadata.Weights.Proximity <= 0.6 {
		t.Errorf("sameday proximity weight = %g, want > 0.6", result.Metadata.Weights.Proximity)
	}
}

func TestRank_ProximityWeightMonotonicity(t *testing.T) {
	r := newTestRanker(t)

	var proximity []float64
	for _, u := range []Urgency{UrgencyStandard, UrgencyExpress, UrgencySameDay} {
		res, ok := r.Weights(u)
		if !ok {
			t.Fatalf("Weights(%s) missing", u)
		}
		proximity = append(proximity, res.Weights[criterionProximity])

		var sum float64
		for _, w := range res.Weights {
			sum += w
		}
		if diff := sum - 1; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s weights sum = %.12f, want 1", u, sum)
		}
		if res.ConsistencyRatio < 0 {
			t.Errorf("%s CR = %g, want >= 0", u, res.ConsistencyRatio)
		}
	}

	if !(proximity[0] < proximity[1] && proximity[1] < proximity[2]) {
		t.Errorf("proximity weights = %v, want strictly increasing with urgency", proximity)
	}
}

func TestRank_ToleranceMonotonicity(t *testing.T) {
	r := newTestRanker(t)
	ann := parisAnnouncement(UrgencySameDay)
	candidates := parisCandidates()

	eligibleAt := func(tol float64) map[string]bool {
		result, err := r.Rank(context.Background(), ann, candidates, Options{ToleranceKm: tol})
		if err != nil {
			t.Fatalf("Rank(tol=%g) error = %v", tol, err)
		}
		out := make(map[string]bool)
		for _, rc := range result.Ranking {
			out[rc.ID] = true
		}
		return out
	}

	// L3's focal distance sum is ~100.8 km against a ~1.16 km direct route,
	// so Dmax = direct + 2*tol only reaches it near 50 km of tolerance.
	narrow := eligibleAt(0.5)
	wide := eligibleAt(60)
	for id := range narrow {
		if !wide[id] {
			t.Errorf("%s eligible at 0.5 km but not at 60 km", id)
		}
	}
	if !wide["L3"] {
		t.Error("L3 still rejected at 60 km tolerance")
	}
}

func TestRank_EmptyEligibleIsSuccessWithWarning(t *testing.T) {
	r := newTestRanker(t)

	// All candidates far from the Paris route.
	candidates := []Candidate{
		{
			ID: "far-1", CommercialName: "Loin",
			Position:    geo.Point{Latitude: 43.2965, Longitude: 5.3698},
			Reputation:  8, VehicleType: VehicleCar, MaxCapacityKg: 50, SuccessRate: 0.9,
		},
	}

	result, err := r.Rank(context.Background(), parisAnnouncement(UrgencyExpress), candidates, Options{})
	if err != nil {
		t.Fatalf("Rank() error = %v, want empty success", err)
	}
	if len(result.Ranking) != 0 {
		t.Errorf("Ranking = %+v, want empty", result.Ranking)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "Aucun livreur") {
		t.Errorf("Warnings = %v, want the empty-zone warning", result.Warnings)
	}
	if result.Metadata.Weights != nil {
		t.Error("Metadata.Weights set with no eligible couriers")
	}
	if result.Metadata.Filter.RejectedCount != 1 {
		t.Errorf("RejectedCount = %d, want 1", result.Metadata.Filter.RejectedCount)
	}
}

func TestRank_NoCandidates(t *testing.T) {
	r := newTestRanker(t)

	_, err := r.Rank(context.Background(), parisAnnouncement(UrgencyStandard), nil, Options{})
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Rank() error = %v, want ErrNoCandidates", err)
	}
}

func TestRank_UnknownUrgency(t *testing.T) {
	r := newTestRanker(t)

	ann := parisAnnouncement(Urgency("overnight"))
	if _, err := r.Rank(context.Background(), ann, parisCandidates(), Options{}); err == nil {
		t.Error("Rank() = nil for unknown urgency, want error")
	}
}

func TestRank_TopKTruncation(t *testing.T) {
	r := newTestRanker(t)

	result, err := r.Rank(context.Background(), parisAnnouncement(UrgencySameDay), parisCandidates(), Options{TopK: 1})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(result.Ranking) != 1 {
		t.Errorf("Ranking = %d couriers with TopK=1, want 1", len(result.Ranking))
	}
	if result.Metadata.Filter.Eligible != 2 {
		t.Errorf("Eligible = %d, want 2 despite truncation", result.Metadata.Filter.Eligible)
	}
}

func TestRank_IncludeDetails(t *testing.T) {
	r := newTestRanker(t)

	result, err := r.Rank(context.Background(), parisAnnouncement(UrgencySameDay), parisCandidates(), Options{IncludeDetails: true})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(result.Ranking) == 0 {
		t.Fatal("Ranking empty")
	}

	for _, rc := range result.Ranking {
		if rc.Details == nil || rc.Distances == nil {
			t.Fatalf("%s missing details or distances", rc.ID)
		}
		if rc.Details.Proximity.Raw <= 0 {
			t.Errorf("%s proximity raw = %g, want > 0", rc.ID, rc.Details.Proximity.Raw)
		}
		if rc.Details.Vehicle.Weighted > rc.Details.Vehicle.Normalized {
			t.Errorf("%s weighted vehicle %g exceeds normalized %g", rc.ID, rc.Details.Vehicle.Weighted, rc.Details.Vehicle.Normalized)
		}
		if rc.Distances.ToIdeal < 0 || rc.Distances.ToAntiIdeal < 0 {
			t.Errorf("%s negative TOPSIS distance: %+v", rc.ID, rc.Distances)
		}
	}

	// Without the flag, the explanation payloads stay off the wire.
	plain, err := r.Rank(context.Background(), parisAnnouncement(UrgencySameDay), parisCandidates(), Options{})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if plain.Ranking[0].Details != nil || plain.Ranking[0].Distances != nil {
		t.Error("details attached without IncludeDetails")
	}
}

func TestRank_CloserCourierWinsOnProximityHeavyUrgency(t *testing.T) {
	r := newTestRanker(t)

	// Identical couriers except position: the closer one must rank first
	// under sameday weighting.
	candidates := []Candidate{
		{
			ID: "near", CommercialName: "Pres",
			Position:    geo.Point{Latitude: 48.8570, Longitude: 2.3500},
			Reputation:  5, VehicleType: VehicleMoto, MaxCapacityKg: 30, SuccessRate: 0.9,
		},
		{
			ID: "nearish", CommercialName: "Moins Pres",
			Position:    geo.Point{Latitude: 48.8640, Longitude: 2.3300},
			Reputation:  5, VehicleType: VehicleMoto, MaxCapacityKg: 30, SuccessRate: 0.9,
		},
	}

	result, err := r.Rank(context.Background(), parisAnnouncement(UrgencySameDay), candidates, Options{})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(result.Ranking) != 2 {
		t.Fatalf("Ranking = %d couriers, want 2", len(result.Ranking))
	}
	if result.Ranking[0].ID != "near" {
		t.Errorf("Ranking[0] = %s, want near", result.Ranking[0].ID)
	}
	if result.Ranking[0].TotalDistanceKm >= result.Ranking[1].TotalDistanceKm {
		t.Errorf("distances not ordered: %g >= %g", result.Ranking[0].TotalDistanceKm, result.Ranking[1].TotalDistanceKm)
	}
}

func TestVehicleTypeScore(t *testing.T) {
	tests := []struct {
		vt   VehicleType
		want float64
	}{
		{VehicleBike, 0.1},
		{VehicleMoto, 0.3},
		{VehicleCar, 0.8},
		{VehicleTruck, 1.0},
		{VehicleType("rocket"), 0},
	}
	for _, tt := range tests {
		if got := tt.vt.Score(); got != tt.want {
			t.Errorf("Score(%s) = %g, want %g", tt.vt, got, tt.want)
		}
	}
}
