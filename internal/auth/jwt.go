// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package auth issues and validates the admin bearer tokens guarding the
// /admin endpoints. Tokens are short-lived HS256 JWTs exchanged for the
// shared admin secret; there is no user database and no refresh flow.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/skouam/commendo/internal/config"
	"github.com/skouam/commendo/internal/logging"
)

// DefaultTokenTTL is the admin token lifetime when none is configured.
const DefaultTokenTTL = 30 * time.Minute

// Exchange attempt budget. bcrypt comparison is deliberately slow, but a
// process-wide limiter still caps offline-style guessing through the API.
const (
	exchangeRate  = rate.Limit(1)
	exchangeBurst = 5
)

// ErrBadSecret is returned when the presented admin secret does not match.
var ErrBadSecret = errors.New("auth: invalid admin secret")

// ErrThrottled is returned when secret exchange attempts exceed the budget.
var ErrThrottled = errors.New("auth: too many token exchange attempts")

// Claims are the admin token claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager creates and validates admin tokens.
type Manager struct {
	signingKey []byte
	secretHash []byte
	ttl        time.Duration
	limiter    *rate.Limiter
	audit      *logging.SecurityLogger
}

// NewManager builds a Manager from the security configuration. The admin
// secret may be supplied pre-hashed (bcrypt, "$2" prefix) or plain; plain
// secrets are hashed at startup so the clear text is not retained.
func NewManager(cfg config.SecurityConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("auth: jwt_secret is required")
	}
	if cfg.AdminSecret == "" {
		return nil, fmt.Errorf("auth: admin_secret is required")
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	secretHash := []byte(cfg.AdminSecret)
	if len(cfg.AdminSecret) < 2 || cfg.AdminSecret[:2] != "$2" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminSecret), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("auth: hashing admin secret: %w", err)
		}
		secretHash = hash
	}

	return &Manager{
		signingKey: []byte(cfg.JWTSecret),
		secretHash: secretHash,
		ttl:        ttl,
		limiter:    rate.NewLimiter(exchangeRate, exchangeBurst),
		audit:      logging.NewSecurityLogger(),
	}, nil
}

// SetAuditLogger replaces the security audit logger, mainly so tests can
// capture the emitted events.
func (m *Manager) SetAuditLogger(audit *logging.SecurityLogger) {
	m.audit = audit
}

// TokenTTL returns the configured token lifetime.
func (m *Manager) TokenTTL() time.Duration {
	return m.ttl
}

// Exchange verifies the shared admin secret and returns a fresh token.
// Client ip and user agent feed the security audit trail.
func (m *Manager) Exchange(secret, ip, userAgent string) (string, error) {
	if !m.limiter.Allow() {
		m.audit.LogTokenRejected(ip, userAgent, "exchange throttled")
		return "", ErrThrottled
	}
	if err := bcrypt.CompareHashAndPassword(m.secretHash, []byte(secret)); err != nil {
		m.audit.LogTokenRejected(ip, userAgent, "admin secret mismatch")
		return "", ErrBadSecret
	}

	token, err := m.issue()
	if err != nil {
		return "", err
	}
	m.audit.LogTokenIssued("admin", ip, userAgent)
	return token, nil
}

func (m *Manager) issue() (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm and lifetime, returning the claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Reject anything but HMAC to close the algorithm confusion hole.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("auth: parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}
	return claims, nil
}
