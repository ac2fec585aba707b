// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	id1 := GenerateCorrelationID()
	id2 := GenerateCorrelationID()

	if id1 == "" {
		t.Fatal("expected non-empty correlation ID")
	}
	if id1 == id2 {
		t.Error("expected unique correlation IDs")
	}
	if len(id1) != 36 {
		t.Errorf("expected full UUID (36 chars), got %d: %s", len(id1), id1)
	}
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("expected empty correlation ID on fresh context, got %q", got)
	}

	ctx = ContextWithCorrelationID(ctx, "corr-123")
	if got := CorrelationIDFromContext(ctx); got != "corr-123" {
		t.Errorf("expected 'corr-123', got %q", got)
	}
}

func TestEmptyIDsLeaveContextUntouched(t *testing.T) {
	t.Parallel()

	base := context.Background()

	tests := []struct {
		name string
		set  func(context.Context) context.Context
	}{
		{"correlation", func(ctx context.Context) context.Context { return ContextWithCorrelationID(ctx, "") }},
		{"request", func(ctx context.Context) context.Context { return ContextWithRequestID(ctx, "") }},
		{"user", func(ctx context.Context) context.Context { return ContextWithUserID(ctx, "") }},
		{"session", func(ctx context.Context) context.Context { return ContextWithSessionID(ctx, "") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.set(base); got != base {
				t.Error("expected empty id to return the same context")
			}
		})
	}
}

func TestScopeRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithUserID(ctx, "user-1")
	ctx = ContextWithSessionID(ctx, "sess-1")

	scope := ScopeFromContext(ctx)
	if scope.CorrelationID != "corr-1" || scope.UserID != "user-1" || scope.SessionID != "sess-1" {
		t.Errorf("unexpected scope: %+v", scope)
	}

	restored := ContextWithScope(context.Background(), scope)
	if got := CorrelationIDFromContext(restored); got != "corr-1" {
		t.Errorf("expected restored correlation ID, got %q", got)
	}
	if got := UserIDFromContext(restored); got != "user-1" {
		t.Errorf("expected restored user ID, got %q", got)
	}
	if got := SessionIDFromContext(restored); got != "sess-1" {
		t.Errorf("expected restored session ID, got %q", got)
	}
}

func TestZeroScopeIsNoOp(t *testing.T) {
	t.Parallel()

	base := context.Background()
	if got := ContextWithScope(base, RequestScope{}); got != base {
		t.Error("expected zero scope to return the same context")
	}
}

func TestCtxAddsIdentityFields(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf).With().Timestamp().Logger())
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := context.Background()
	ctx = ContextWithCorrelationID(ctx, "corr-abc")
	ctx = ContextWithRequestID(ctx, "req-def")
	ctx = ContextWithUserID(ctx, "user-ghi")
	ctx = ContextWithSessionID(ctx, "sess-jkl")

	Ctx(ctx).Info().Msg("processing")

	output := buf.String()
	for _, want := range []string{
		`"correlation_id":"corr-abc"`,
		`"request_id":"req-def"`,
		`"user_id":"user-ghi"`,
		`"session_id":"sess-jkl"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestCtxWithoutFieldsOmitsThem(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf).With().Timestamp().Logger())
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	Ctx(context.Background()).Info().Msg("bare")

	output := buf.String()
	if strings.Contains(output, "correlation_id") {
		t.Errorf("expected no correlation_id field in output: %s", output)
	}
	if strings.Contains(output, "user_id") {
		t.Errorf("expected no user_id field in output: %s", output)
	}
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer

	custom := zerolog.New(&buf).With().Str("source", "custom").Logger()
	ctx := ContextWithLogger(context.Background(), custom)

	got := LoggerFromContext(ctx)
	got.Info().Msg("via context")

	if !strings.Contains(buf.String(), `"source":"custom"`) {
		t.Errorf("expected the context logger to be used: %s", buf.String())
	}
}
