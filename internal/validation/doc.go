// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package validation provides struct validation using go-playground/validator v10.
//
// This package wraps the go-playground/validator library to provide a thread-safe
// singleton validator instance with custom validators and user-friendly error
// messages. API handlers validate every decoded request body through it before
// touching the recommendation or ranking pipelines.
//
// # Overview
//
// The package provides:
//   - Thread-safe singleton validator (initialized once, cached struct info)
//   - Domain enum validators: product_type, urgency, courier_vehicle
//   - Error translation to human-readable messages
//   - Detail() maps that drop straight into the API error body
//
// # Quick Start
//
//	type RecommendationRequest struct {
//	    ProductID   string  `validate:"required,uuid4"`
//	    ProductType string  `validate:"required,product_type"`
//	    ClientID    string  `validate:"omitempty,uuid4"`
//	    Sentiment   float64 `validate:"gte=-1,lte=1"`
//	    TopK        int     `validate:"omitempty,min=1,max=100"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    api.RespondValidationError(w, verr)
//	    return
//	}
//
// # Custom Validation Tags
//
//   - product_type: one of "vehicle", "livreur"
//   - urgency: one of "standard", "express", "sameday"
//   - courier_vehicle: one of "bike", "moto", "car", "truck"
//
// Built-in tags cover the rest: uuid4 for identifiers, latitude/longitude
// for delivery coordinates, gte/lte for sentiment bounds, min/max for
// result counts.
//
// # Thread Safety
//
// The singleton validator is initialized once and safe for concurrent use:
//
//	validate := validation.GetValidator()   // Thread-safe
//	verr := validation.ValidateStruct(&req) // Thread-safe
//
// # Performance
//
// The validator caches struct reflection information, so the first
// validation of a struct type pays the reflection cost and subsequent
// validations run from the cache.
package validation
