// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/taskfeed"
)

// blockingService runs until its context is cancelled and counts starts.
type blockingService struct {
	starts atomic.Int32
}

func (s *blockingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return "blocking" }

func TestTreeRunsAndStopsServices(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), DefaultTreeConfig())

	worker := &blockingService{}
	api := &blockingService{}
	tree.AddWorkerService(worker)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for worker.starts.Load() == 0 || api.starts.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("services never started: worker=%d api=%d", worker.starts.Load(), api.starts.Load())
		}
		time.Sleep(2 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree stopped with %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tree never stopped")
	}
}

func TestTreeRestartsFailedService(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureDecay:     30,
		FailureBackoff:   time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	svc := &failingOnceService{}
	tree.AddWorkerService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for svc.starts.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("service restarted %d times, want at least 2 starts", svc.starts.Load())
		}
		time.Sleep(2 * time.Millisecond)
	}
}

type failingOnceService struct {
	starts atomic.Int32
}

func (s *failingOnceService) Serve(ctx context.Context) error {
	if s.starts.Add(1) == 1 {
		return errors.New("transient failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *failingOnceService) String() string { return "failing-once" }

// fakeHTTPServer records lifecycle calls.
type fakeHTTPServer struct {
	listening chan struct{}
	release   chan struct{}
	shutdowns atomic.Int32
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{
		listening: make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	close(f.listening)
	<-f.release
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	close(f.release)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	server := newFakeHTTPServer()
	svc := NewHTTPService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	select {
	case <-server.listening:
	case <-time.After(2 * time.Second):
		t.Fatal("server never started listening")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve never returned")
	}
	if server.shutdowns.Load() != 1 {
		t.Errorf("shutdowns = %d, want 1", server.shutdowns.Load())
	}
}

func TestFeedServiceStopsWithContext(t *testing.T) {
	hub := taskfeed.NewHub(8)
	svc := NewFeedService(hub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("feed service never stopped")
	}
}
