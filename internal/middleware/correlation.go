// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package middleware provides the HTTP middleware stack: correlation id
// propagation, response timing headers and Prometheus instrumentation.
package middleware

import (
	"net/http"

	"github.com/skouam/commendo/internal/logging"
)

// Inbound and outbound identity headers.
const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderUserID        = "X-User-ID"
	HeaderSessionID     = "X-Session-ID"
)

// Correlation installs the request identity into the context and echoes
// the correlation id back to the client. An inbound X-Correlation-ID is
// reused so traces span services; absent one, a fresh id is generated.
// X-User-ID and X-Session-ID are optional and carried through untouched.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = logging.GenerateCorrelationID()
		}
		w.Header().Set(HeaderCorrelationID, correlationID)

		ctx := logging.ContextWithScope(r.Context(), logging.RequestScope{
			CorrelationID: correlationID,
			UserID:        r.Header.Get(HeaderUserID),
			SessionID:     r.Header.Get(HeaderSessionID),
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
