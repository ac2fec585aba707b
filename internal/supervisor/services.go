// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/skouam/commendo/internal/taskfeed"
	"github.com/skouam/commendo/internal/tasks"
)

// HTTPServer matches *http.Server's lifecycle methods so the service can
// be tested against a fake.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPService adapts http.Server's blocking ListenAndServe to suture's
// context-aware Serve: the listener runs in a goroutine and context
// cancellation triggers a bounded graceful shutdown.
type HTTPService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPService wraps an HTTP server. shutdownTimeout bounds how long
// in-flight requests may drain on shutdown.
func NewHTTPService(server HTTPServer, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (h *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// The original context is already cancelled; shutdown needs its own.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *HTTPService) String() string { return "http-server" }

// RunnerService supervises the background task runner.
type RunnerService struct {
	runner *tasks.Runner
}

// NewRunnerService wraps a task runner.
func NewRunnerService(runner *tasks.Runner) *RunnerService {
	return &RunnerService{runner: runner}
}

// Serve implements suture.Service. The runner blocks in Run until the
// context is cancelled; a premature return is a failure suture restarts.
func (r *RunnerService) Serve(ctx context.Context) error {
	err := r.runner.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (r *RunnerService) String() string { return "task-runner" }

// FeedService supervises the websocket task feed hub.
type FeedService struct {
	hub *taskfeed.Hub
}

// NewFeedService wraps a feed hub.
func NewFeedService(hub *taskfeed.Hub) *FeedService {
	return &FeedService{hub: hub}
}

// Serve implements suture.Service.
func (f *FeedService) Serve(ctx context.Context) error {
	return f.hub.Run(ctx)
}

func (f *FeedService) String() string { return "task-feed" }
