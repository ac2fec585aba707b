// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package geo

import (
	"math"
	"testing"
)

var (
	parisPickup  = Point{Latitude: 48.8566, Longitude: 2.3522}
	parisDropoff = Point{Latitude: 48.8606, Longitude: 2.3376}
)

func TestHaversineZeroDistance(t *testing.T) {
	t.Parallel()

	if d := Haversine(parisPickup, parisPickup); d != 0 {
		t.Errorf("expected zero distance to self, got %f", d)
	}
}

func TestHaversineKnownDistances(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		a, b    Point
		wantKm  float64
		within  float64
	}{
		{
			name:   "central paris",
			a:      parisPickup,
			b:      parisDropoff,
			wantKm: 1.16,
			within: 0.05,
		},
		{
			name:   "paris to london",
			a:      Point{Latitude: 48.8566, Longitude: 2.3522},
			b:      Point{Latitude: 51.5074, Longitude: -0.1278},
			wantKm: 343.5,
			within: 2.0,
		},
		{
			name:   "equator quarter turn",
			a:      Point{Latitude: 0, Longitude: 0},
			b:      Point{Latitude: 0, Longitude: 90},
			wantKm: EarthRadiusKm * math.Pi / 2,
			within: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Haversine(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.within {
				t.Errorf("Haversine() = %f km, want %f +/- %f", got, tt.wantKm, tt.within)
			}
		})
	}
}

func TestHaversineSymmetry(t *testing.T) {
	t.Parallel()

	d1 := Haversine(parisPickup, parisDropoff)
	d2 := Haversine(parisDropoff, parisPickup)
	if math.Abs(d1-d2) > 1e-12 {
		t.Errorf("expected symmetric distance, got %f and %f", d1, d2)
	}
}

func TestHaversineAntipodalNoNaN(t *testing.T) {
	t.Parallel()

	a := Point{Latitude: 0, Longitude: 0}
	b := Point{Latitude: 0, Longitude: 180}

	got := Haversine(a, b)
	if math.IsNaN(got) {
		t.Fatal("expected clamped arcsine to avoid NaN for antipodal points")
	}
	want := EarthRadiusKm * math.Pi
	if math.Abs(got-want) > 0.001 {
		t.Errorf("antipodal distance = %f, want %f", got, want)
	}
}

func TestInEllipseMidpointAlwaysInside(t *testing.T) {
	t.Parallel()

	mid := Point{
		Latitude:  (parisPickup.Latitude + parisDropoff.Latitude) / 2,
		Longitude: (parisPickup.Longitude + parisDropoff.Longitude) / 2,
	}

	// The arithmetic midpoint sits nanometers off the great-circle path, so
	// the exact zero-tolerance boundary can fail on rounding alone; a
	// millimeter of tolerance absorbs it.
	if !InEllipse(mid, parisPickup, parisDropoff, 1e-6) {
		t.Error("expected a point between the foci to be inside at millimeter tolerance")
	}
}

func TestInEllipseFarCandidateRejected(t *testing.T) {
	t.Parallel()

	far := Point{Latitude: 49.0, Longitude: 3.0}
	if InEllipse(far, parisPickup, parisDropoff, 1.0) {
		t.Error("expected a candidate ~50 km out to be rejected at 1 km tolerance")
	}
}

func TestInEllipseToleranceMonotonicity(t *testing.T) {
	t.Parallel()

	// Slightly off the corridor: inside with a wide tolerance only.
	candidate := Point{Latitude: 48.8700, Longitude: 2.3300}

	tolerances := []float64{0.1, 0.5, 1.0, 1.5, 2.5, 5.0}
	wasInside := false
	for _, tol := range tolerances {
		inside := InEllipse(candidate, parisPickup, parisDropoff, tol)
		if wasInside && !inside {
			t.Fatalf("candidate left the zone when tolerance grew to %f km", tol)
		}
		if inside {
			wasInside = true
		}
	}
	if !wasInside {
		t.Error("expected the candidate to enter the zone at some tolerance")
	}
}

func TestInEllipseDegenerateFociIsCircle(t *testing.T) {
	t.Parallel()

	focus := parisPickup
	near := Point{Latitude: 48.8600, Longitude: 2.3522} // ~0.38 km north
	farther := Point{Latitude: 48.8800, Longitude: 2.3522}

	if !InEllipse(near, focus, focus, 1.0) {
		t.Error("expected point within the tolerance circle to be inside")
	}
	if InEllipse(farther, focus, focus, 1.0) {
		t.Error("expected point outside the tolerance circle to be rejected")
	}
}

func TestFocalDistances(t *testing.T) {
	t.Parallel()

	toPickup, toDropoff := FocalDistances(parisDropoff, parisPickup, parisDropoff)
	if toDropoff != 0 {
		t.Errorf("expected zero distance to the dropoff focus, got %f", toDropoff)
	}
	if toPickup <= 0 {
		t.Errorf("expected positive distance to the pickup focus, got %f", toPickup)
	}
}

func TestPointValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		point Point
		want  bool
	}{
		{"paris", parisPickup, true},
		{"north pole", Point{Latitude: 90, Longitude: 0}, true},
		{"date line", Point{Latitude: 0, Longitude: -180}, true},
		{"latitude too high", Point{Latitude: 90.01, Longitude: 0}, false},
		{"longitude too low", Point{Latitude: 0, Longitude: -180.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.point.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
