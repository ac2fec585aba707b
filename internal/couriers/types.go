// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package couriers ranks delivery couriers for an announcement in three
// phases: a spherical-ellipse spatial gate, AHP criterion weighting keyed
// on the urgency class, and TOPSIS multi-criteria scoring.
//
// The pipeline is pure. It touches no storage and keeps no state between
// calls, so the synchronous HTTP path and the task workers share the same
// code and produce identical rankings for identical inputs.
package couriers

import (
	"time"

	"github.com/skouam/commendo/internal/geo"
)

// Urgency is the delivery urgency class. Higher urgency narrows the
// spatial tolerance and concentrates AHP weight on proximity.
type Urgency string

// Urgency classes.
const (
	UrgencyStandard Urgency = "standard"
	UrgencyExpress  Urgency = "express"
	UrgencySameDay  Urgency = "sameday"
)

// Valid reports whether the urgency is one of the known classes.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyStandard, UrgencyExpress, UrgencySameDay:
		return true
	}
	return false
}

// VehicleType is a courier's vehicle category.
type VehicleType string

// Vehicle categories, ordered by carrying ability.
const (
	VehicleBike  VehicleType = "bike"
	VehicleMoto  VehicleType = "moto"
	VehicleCar   VehicleType = "car"
	VehicleTruck VehicleType = "truck"
)

// Score maps the vehicle category onto the fixed [0, 1] benefit scale used
// as the fourth TOPSIS criterion. Unknown categories score zero.
func (v VehicleType) Score() float64 {
	switch v {
	case VehicleBike:
		return 0.1
	case VehicleMoto:
		return 0.3
	case VehicleCar:
		return 0.8
	case VehicleTruck:
		return 1.0
	}
	return 0
}

// Announcement is one delivery to assign.
type Announcement struct {
	ID      string    `json:"annonce_id" validate:"required"`
	Pickup  geo.Point `json:"point_ramassage"`
	Dropoff geo.Point `json:"point_livraison"`
	Urgency Urgency   `json:"type_livraison" validate:"required,urgency"`
}

// Candidate is one courier considered for the announcement.
type Candidate struct {
	ID                string      `json:"livreur_id" validate:"required"`
	CommercialName    string      `json:"nom_commercial" validate:"required"`
	Position          geo.Point   `json:"position_actuelle"`
	Reputation        float64     `json:"reputation" validate:"gte=0,lte=10"`
	DeliveryCount     int         `json:"nombre_livraisons" validate:"gte=0"`
	SuccessRate       float64     `json:"taux_reussite" validate:"gte=0,lte=1"`
	VehicleType       VehicleType `json:"type_vehicule" validate:"required,courier_vehicle"`
	MaxCapacityKg     float64     `json:"capacite_max_kg" validate:"gt=0"`
	OperatingRadiusKm float64     `json:"rayon_action_km,omitempty" validate:"omitempty,gt=0"`
}

// Options tunes one ranking run.
type Options struct {
	// TopK truncates the ranking. Zero returns every eligible courier.
	TopK int `json:"top_k,omitempty" validate:"omitempty,min=1,max=100"`

	// ToleranceKm overrides the urgency's default spatial tolerance.
	ToleranceKm float64 `json:"tolerance_spatiale_km,omitempty" validate:"omitempty,gt=0"`

	// IncludeDetails attaches per-criterion raw, normalized, and weighted
	// values plus TOPSIS distances to every ranked courier.
	IncludeDetails bool `json:"-"`
}

// RejectReasonOutsideZone marks a candidate outside the elliptical zone.
const RejectReasonOutsideZone = "hors_zone_ellipse"

// Rejected records one candidate eliminated by the spatial gate.
// Distances are rounded to 2 decimals.
type Rejected struct {
	ID                string  `json:"livreur_id"`
	CommercialName    string  `json:"nom_commercial"`
	Reason            string  `json:"raison"`
	TotalDistanceKm   float64 `json:"distance_totale_km"`
	MaxDistanceKm     float64 `json:"distance_max_km"`
	PickupDistanceKm  float64 `json:"distance_ramassage_km"`
	DropoffDistanceKm float64 `json:"distance_livraison_km"`
}

// CriterionDetail is one criterion's raw, normalized, and weighted value
// for one courier.
type CriterionDetail struct {
	Raw        float64 `json:"valeur"`
	Normalized float64 `json:"score_normalise"`
	Weighted   float64 `json:"score_pondere"`
}

// ScoreDetails breaks a courier's TOPSIS inputs down per criterion.
type ScoreDetails struct {
	Proximity  CriterionDetail `json:"proximite"`
	Reputation CriterionDetail `json:"reputation"`
	Capacity   CriterionDetail `json:"capacite"`
	Vehicle    CriterionDetail `json:"type_vehicule"`
}

// TOPSISDistances are a courier's Euclidean distances to the ideal and
// anti-ideal solutions.
type TOPSISDistances struct {
	ToIdeal     float64 `json:"distance_ideale_positive"`
	ToAntiIdeal float64 `json:"distance_ideale_negative"`
}

// RankedCourier is one eligible courier in final order.
type RankedCourier struct {
	Rank            int              `json:"rang"`
	ID              string           `json:"livreur_id"`
	CommercialName  string           `json:"nom_commercial"`
	Score           float64          `json:"score_final"`
	TotalDistanceKm float64          `json:"distance_totale_km"`
	Details         *ScoreDetails    `json:"details_scores,omitempty"`
	Distances       *TOPSISDistances `json:"distances_topsis,omitempty"`
}

// Weights reports the AHP-derived criterion weights with their consistency
// diagnostics.
type Weights struct {
	Proximity        float64 `json:"proximite_geographique"`
	Reputation       float64 `json:"reputation"`
	Capacity         float64 `json:"capacite"`
	Vehicle          float64 `json:"type_vehicule"`
	ConsistencyRatio float64 `json:"cr"`
	Consistent       bool    `json:"est_coherent"`
}

// FilterStats summarizes the spatial gate's outcome.
type FilterStats struct {
	TotalCandidates int        `json:"total_candidats"`
	Eligible        int        `json:"candidats_eligibles"`
	RejectedCount   int        `json:"candidats_rejetes"`
	Rejected        []Rejected `json:"livreurs_rejetes"`
}

// Metadata carries the diagnostics attached to every ranking response.
type Metadata struct {
	Urgency     Urgency     `json:"type_livraison"`
	ToleranceKm float64     `json:"tolerance_spatiale_km"`
	DmaxKm      float64     `json:"distance_max_km"`
	Filter      FilterStats `json:"statistiques_filtrage"`
	Weights     *Weights    `json:"poids_ahp,omitempty"`
	DurationMs  float64     `json:"duree_traitement_ms"`
}

// Result is the courier ranking output. An empty Ranking with a warning is
// a successful outcome, not an error.
type Result struct {
	AnnouncementID string          `json:"annonce_id"`
	Timestamp      time.Time       `json:"timestamp"`
	Ranking        []RankedCourier `json:"livreurs_classes"`
	Metadata       Metadata        `json:"metadata"`
	Warnings       []string        `json:"warnings,omitempty"`
}
