// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package geo provides the great-circle distance and elliptical zone
// primitives used by the courier ranking pipeline.
//
// Distances are computed with the haversine formula on a spherical Earth
// model (radius 6371 km). The elliptical eligibility gate treats the pickup
// and dropoff points as foci: a candidate is inside the working zone when
// the sum of its distances to both foci does not exceed the focal distance
// plus twice the tolerance.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the spherical distance model.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	// Latitude in decimal degrees, south negative. Valid range [-90, 90].
	Latitude float64 `json:"latitude" validate:"min=-90,max=90"`

	// Longitude in decimal degrees, west negative. Valid range [-180, 180].
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
}

// Valid reports whether the point lies within the WGS84 coordinate bounds.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// Haversine returns the great-circle distance between a and b in kilometers.
//
// The intermediate value is clamped to 1 before the arcsine so that
// antipodal points, where floating point error can push the operand
// fractionally above 1, never produce NaN.
func Haversine(a, b Point) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// InEllipse reports whether candidate lies inside the elliptical zone whose
// foci are f1 and f2, widened by toleranceKm:
//
//	d(candidate, f1) + d(candidate, f2) <= d(f1, f2) + 2*toleranceKm
//
// When f1 and f2 coincide the zone degenerates to a circle of radius
// toleranceKm around the shared focus. Growing the tolerance never removes
// a previously eligible candidate.
func InEllipse(candidate, f1, f2 Point, toleranceKm float64) bool {
	sum := Haversine(candidate, f1) + Haversine(candidate, f2)
	return sum <= Haversine(f1, f2)+2*toleranceKm
}

// FocalDistances returns the candidate's distance to each focus in
// kilometers. The courier pipeline reports these for rejected candidates.
func FocalDistances(candidate, f1, f2 Point) (toPickup, toDropoff float64) {
	return Haversine(candidate, f1), Haversine(candidate, f2)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
