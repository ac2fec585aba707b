// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package catalog provides the product repository backing the recommendation
// pipeline. Products are rental vehicles stored in SQL (postgres in
// production, duckdb for single-binary deployments); couriers live outside
// the catalog and reach the ranking pipeline through the couriers package.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a product does not exist in the catalog.
var ErrNotFound = errors.New("product not found")

// ProductType discriminates the two recommendation domains.
type ProductType string

const (
	// TypeVehicle is the rental vehicle catalog.
	TypeVehicle ProductType = "vehicle"

	// TypeCourier is the delivery courier domain. Couriers are not stored
	// in the SQL catalog; catalog lookups for this type return ErrNotFound
	// so the pipeline produces an empty result instead of failing.
	TypeCourier ProductType = "livreur"
)

// Valid reports whether the product type is a known domain.
func (t ProductType) Valid() bool {
	return t == TypeVehicle || t == TypeCourier
}

// Product is a rental vehicle row.
type Product struct {
	ID              string    `db:"id" json:"id"`
	Brand           string    `db:"brand" json:"brand"`
	Model           string    `db:"model" json:"model"`
	Year            int       `db:"year" json:"year"`
	VehicleType     string    `db:"vehicle_type" json:"vehicle_type"`
	Seats           int       `db:"seats" json:"seats"`
	Transmission    string    `db:"transmission" json:"transmission"`
	Fuel            string    `db:"fuel" json:"fuel"`
	LuggageCapacity int       `db:"luggage_capacity" json:"luggage_capacity"`
	Location        string    `db:"location" json:"location"`
	Available       bool      `db:"available" json:"available"`
	Rating          float64   `db:"rating" json:"rating"`
	PricePerDay     float64   `db:"price_per_day" json:"price_per_day"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Description renders the French text fed to the bi-encoder. The segment
// order is fixed so the same product always embeds to the same vector;
// optional attributes are skipped when absent rather than rendered empty.
func (p *Product) Description() string {
	parts := []string{fmt.Sprintf("Véhicule %s %s", p.Brand, p.Model)}

	if p.Year > 0 {
		parts = append(parts, fmt.Sprintf("année %d", p.Year))
	}
	if p.VehicleType != "" {
		parts = append(parts, fmt.Sprintf("de type %s", p.VehicleType))
	}
	if p.Seats > 0 {
		segment := fmt.Sprintf("avec %d places", p.Seats)
		if p.Transmission != "" {
			segment += fmt.Sprintf(", boîte %s", p.Transmission)
		}
		if p.Fuel != "" {
			segment += fmt.Sprintf(", carburant %s", p.Fuel)
		}
		parts = append(parts, segment)
	}
	if p.LuggageCapacity > 0 {
		parts = append(parts, fmt.Sprintf("capacité bagages %dL", p.LuggageCapacity))
	}
	if p.Location != "" {
		parts = append(parts, fmt.Sprintf("situé à %s", p.Location))
	}
	if p.Available {
		parts = append(parts, "disponible à la location")
	} else {
		parts = append(parts, "actuellement indisponible")
	}
	if p.Rating > 0 {
		parts = append(parts, fmt.Sprintf("noté %.1f/5", p.Rating))
	}

	return strings.Join(parts, ", ")
}
