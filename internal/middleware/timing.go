// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Timing headers set on every response.
const (
	HeaderProcessTime   = "X-Process-Time"
	HeaderProcessTimeMs = "X-Process-Time-Ms"
)

// timingWriter defers the header write so the timing headers can be set
// after the handler finishes but before the first byte leaves.
type timingWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (w *timingWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		elapsed := time.Since(w.start)
		w.Header().Set(HeaderProcessTime, fmt.Sprintf("%.3f", elapsed.Seconds()))
		w.Header().Set(HeaderProcessTimeMs, strconv.FormatInt(elapsed.Milliseconds(), 10))
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *timingWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Timing reports the server-side processing time on every response.
func Timing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&timingWriter{ResponseWriter: w, start: time.Now()}, r)
	})
}
