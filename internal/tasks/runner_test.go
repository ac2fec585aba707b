// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/skouam/commendo/internal/config"
)

func testRunnerConfig() config.TasksConfig {
	return config.TasksConfig{
		Transport:            TransportGoChannel,
		Workers:              1,
		MaxRetries:           3,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     5 * time.Millisecond,
		CloseTimeout:         time.Second,
	}
}

// newTestRunner builds a runner over the in-process transport and an
// in-memory store. The caller gets a cleanup that stops the router.
func newTestRunner(t *testing.T, start bool) *Runner {
	t.Helper()

	logger := NewWatermillLogger()
	transport, err := NewTransport(testRunnerConfig(), logger)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}

	store, err := NewBadgerStore("", time.Minute)
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	runner, err := NewRunner(testRunnerConfig(), transport, store, logger)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if start {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := runner.Run(ctx); err != nil {
				t.Errorf("runner.Run: %v", err)
			}
		}()
		t.Cleanup(func() {
			cancel()
			<-done
		})

		select {
		case <-runner.Running():
		case <-time.After(5 * time.Second):
			t.Fatal("runner never became ready")
		}
	} else {
		t.Cleanup(func() { transport.Close() })
	}

	return runner
}

// waitForTerminal polls until the task reaches SUCCESS or FAILURE.
func waitForTerminal(t *testing.T, runner *Runner, taskID string) *Record {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		record, err := runner.Status(context.Background(), taskID)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if record.Status.Terminal() {
			return record
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s never reached a terminal status", taskID)
	return nil
}

func TestSubmitAndProcessSuccess(t *testing.T) {
	runner := newTestRunner(t, true)

	runner.Register(TaskSentiment, func(_ context.Context, payload json.RawMessage) (json.RawMessage, error) {
		var p SentimentPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		return json.Marshal(map[string]string{"echo": p.Comment})
	})

	taskID, err := runner.Submit(context.Background(), TaskSentiment, SentimentPayload{
		ProductID: "v1",
		ClientID:  "c1",
		Comment:   "excellent service",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	record := waitForTerminal(t, runner, taskID)
	if record.Status != StatusSuccess {
		t.Fatalf("status = %s, want %s (error: %s)", record.Status, StatusSuccess, record.Error)
	}
	if record.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", record.Attempts)
	}
	if record.Queue != QueueSentiment {
		t.Errorf("queue = %s, want %s", record.Queue, QueueSentiment)
	}

	var result map[string]string
	if err := json.Unmarshal(record.Result, &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if result["echo"] != "excellent service" {
		t.Errorf("result echo = %q", result["echo"])
	}
}

func TestRetryThenSuccess(t *testing.T) {
	runner := newTestRunner(t, true)

	var calls int
	var mu sync.Mutex
	runner.Register(TaskRecommendation, func(context.Context, json.RawMessage) (json.RawMessage, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 2 {
			return nil, errors.New("transient failure")
		}
		return json.Marshal(map[string]bool{"ok": true})
	})

	taskID, err := runner.Submit(context.Background(), TaskRecommendation, RecommendationPayload{ProductID: "v1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	record := waitForTerminal(t, runner, taskID)
	if record.Status != StatusSuccess {
		t.Fatalf("status = %s, want %s (error: %s)", record.Status, StatusSuccess, record.Error)
	}
	if record.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", record.Attempts)
	}
}

func TestRetryExhaustionFails(t *testing.T) {
	runner := newTestRunner(t, true)

	runner.Register(TaskRecommendation, func(context.Context, json.RawMessage) (json.RawMessage, error) {
		return nil, errors.New("permanent failure")
	})

	taskID, err := runner.Submit(context.Background(), TaskRecommendation, RecommendationPayload{ProductID: "v1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	record := waitForTerminal(t, runner, taskID)
	if record.Status != StatusFailure {
		t.Fatalf("status = %s, want %s", record.Status, StatusFailure)
	}
	if record.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", record.Attempts)
	}
	if record.Error == "" {
		t.Error("expected the failure reason to be recorded")
	}
}

func TestTerminalErrorSkipsRetries(t *testing.T) {
	runner := newTestRunner(t, true)

	runner.Register(TaskVectorize, func(context.Context, json.RawMessage) (json.RawMessage, error) {
		return nil, Terminal(errors.New("unknown product type"))
	})

	taskID, err := runner.Submit(context.Background(), TaskVectorize, VectorizePayload{ProductType: "bogus"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	record := waitForTerminal(t, runner, taskID)
	if record.Status != StatusFailure {
		t.Fatalf("status = %s, want %s", record.Status, StatusFailure)
	}
	if record.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", record.Attempts)
	}
}

func TestCancelPendingTask(t *testing.T) {
	runner := newTestRunner(t, false)

	runner.Register(TaskHealthCheck, func(context.Context, json.RawMessage) (json.RawMessage, error) {
		return nil, nil
	})

	taskID, err := runner.Submit(context.Background(), TaskHealthCheck, struct{}{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := runner.Cancel(context.Background(), taskID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	record, err := runner.Status(context.Background(), taskID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if record.Status != StatusFailure {
		t.Errorf("status = %s, want %s", record.Status, StatusFailure)
	}

	if err := runner.Cancel(context.Background(), taskID); !errors.Is(err, ErrNotCancellable) {
		t.Errorf("second Cancel error = %v, want ErrNotCancellable", err)
	}
}

func TestSubmitUnknownTask(t *testing.T) {
	runner := newTestRunner(t, false)

	if _, err := runner.Submit(context.Background(), "no_such_task", struct{}{}); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("Submit error = %v, want ErrUnknownTask", err)
	}
}

func TestNotifierObservesTransitions(t *testing.T) {
	runner := newTestRunner(t, true)

	var mu sync.Mutex
	var seen []Status
	runner.SetNotifier(func(record Record) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, record.Status)
	})

	runner.Register(TaskSentiment, func(context.Context, json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]bool{"ok": true})
	})

	taskID, err := runner.Submit(context.Background(), TaskSentiment, SentimentPayload{Comment: "bien"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitForTerminal(t, runner, taskID)

	mu.Lock()
	defer mu.Unlock()
	want := []Status{StatusPending, StatusStarted, StatusSuccess}
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", seen, want)
		}
	}
}

func TestQueueFor(t *testing.T) {
	cases := map[string]string{
		TaskRecommendation: QueueRecommendations,
		TaskFullWorkflow:   QueueRecommendations,
		TaskSentiment:      QueueSentiment,
		TaskVectorize:      QueueVectorization,
		TaskHealthCheck:    QueueDefault,
		"anything_else":    QueueDefault,
	}
	for name, want := range cases {
		if got := QueueFor(name); got != want {
			t.Errorf("QueueFor(%s) = %s, want %s", name, got, want)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewBadgerStore("", time.Minute)
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrTaskNotFound", err)
	}

	record := &Record{
		ID:        "t1",
		Name:      TaskSentiment,
		Queue:     QueueSentiment,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusPending || got.Name != TaskSentiment {
		t.Errorf("got %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set on Put")
	}

	updated, err := store.Update(ctx, "t1", func(rec *Record) error {
		rec.Status = StatusStarted
		rec.Attempts++
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != StatusStarted || updated.Attempts != 1 {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := store.Update(ctx, "t1", func(*Record) error {
		return ErrNotCancellable
	}); !errors.Is(err, ErrNotCancellable) {
		t.Errorf("Update fn error = %v, want it passed through", err)
	}

	if _, err := store.Update(ctx, "missing", func(*Record) error { return nil }); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrTaskNotFound", err)
	}
}
