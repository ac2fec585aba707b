// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"short", "abc123", "***"},
		{"boundary", "123456789012", "***"},
		{"long", "eyJhbGciOiJIUzI1NiJ9signature", "eyJh...ture"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeToken(tt.input); got != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"short", "admin", "***"},
		{"long", "admin-12345678", "admi...5678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeSubject(tt.input); got != tt.expected {
				t.Errorf("SanitizeSubject(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "connection refused", "connection refused"},
		{"contains password", "invalid password for user", "authentication error"},
		{"contains token", "token expired", "authentication error"},
		{"contains bearer", "Bearer header malformed", "authentication error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeError(tt.input); got != tt.expected {
				t.Errorf("SanitizeError(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeErrorTruncatesLongMessages(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 300)
	got := SanitizeError(long)
	if len(got) != 203 { // 200 chars + "..."
		t.Errorf("expected truncated error of 203 chars, got %d", len(got))
	}
}

func TestSecurityLoggerLogEvent(t *testing.T) {
	var buf bytes.Buffer

	logger := NewSecurityLoggerWithLogger(NewTestLogger(&buf))
	logger.LogTokenIssued("admin-12345678", "10.0.0.1", "curl/8.0")

	output := buf.String()
	if !strings.Contains(output, `"event":"token_issued"`) {
		t.Errorf("expected event field: %s", output)
	}
	if !strings.Contains(output, `"status":"success"`) {
		t.Errorf("expected success status: %s", output)
	}
	if strings.Contains(output, "admin-12345678") {
		t.Errorf("expected subject to be sanitized: %s", output)
	}
}

func TestSecurityLoggerRejection(t *testing.T) {
	var buf bytes.Buffer

	logger := NewSecurityLoggerWithLogger(NewTestLogger(&buf))
	logger.LogTokenRejected("10.0.0.2", "curl/8.0", "signature invalid")

	output := buf.String()
	if !strings.Contains(output, `"event":"token_rejected"`) {
		t.Errorf("expected event field: %s", output)
	}
	if !strings.Contains(output, `"status":"failed"`) {
		t.Errorf("expected failed status: %s", output)
	}
}
