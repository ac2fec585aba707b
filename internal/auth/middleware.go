// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package auth

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/skouam/commendo/internal/logging"
)

// RequireAdmin rejects requests without a valid admin bearer token.
func (m *Manager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(w, "missing bearer token")
			return
		}

		claims, err := m.Validate(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).
				Str("token", logging.SanitizeToken(token)).
				Msg("Admin token rejected")
			m.audit.LogTokenRejected(r.RemoteAddr, r.UserAgent(), "invalid or expired token")
			unauthorized(w, "invalid or expired token")
			return
		}
		if claims.Role != "admin" {
			m.audit.LogTokenRejected(r.RemoteAddr, r.UserAgent(), "insufficient role")
			unauthorized(w, "insufficient role")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":       "unauthorized",
		"detail":      detail,
		"status_code": http.StatusUnauthorized,
	})
}
