// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/skouam/commendo/internal/config"
	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/metrics"
)

// ErrNotCancellable is returned when a task has already started or
// finished. Only queued tasks can be revoked.
var ErrNotCancellable = errors.New("tasks: task is not cancellable")

// ErrUnknownTask is returned when a task name has no registered handler.
var ErrUnknownTask = errors.New("tasks: unknown task")

// Handler executes one task. The returned payload is stored as the task
// result. A returned error triggers the retry policy unless wrapped with
// Terminal.
type Handler func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)

// Notifier observes task status transitions, for the WebSocket feed.
type Notifier func(record Record)

type terminalError struct {
	err error
}

func (t *terminalError) Error() string { return t.err.Error() }
func (t *terminalError) Unwrap() error { return t.err }

// Terminal marks an error as non-retryable. The task fails immediately
// instead of consuming its remaining attempts.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

// IsTerminal reports whether an error was marked with Terminal.
func IsTerminal(err error) bool {
	var t *terminalError
	return errors.As(err, &t)
}

// Runner consumes the task queues over a Watermill router with recovery
// and exponential backoff retry middleware.
type Runner struct {
	cfg       config.TasksConfig
	transport *Transport
	store     Store
	router    *message.Router
	logger    watermill.LoggerAdapter

	mu       sync.RWMutex
	handlers map[string]Handler
	notify   Notifier
}

// NewRunner builds the runner and registers one consumer per queue.
func NewRunner(cfg config.TasksConfig, transport *Transport, store Store, logger watermill.LoggerAdapter) (*Runner, error) {
	if transport == nil {
		return nil, errors.New("tasks: transport is required")
	}
	if store == nil {
		return nil, errors.New("tasks: store is required")
	}
	if logger == nil {
		logger = NewWatermillLogger()
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = time.Second
	}
	if cfg.RetryMaxInterval <= 0 {
		cfg.RetryMaxInterval = 600 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("tasks: creating router: %w", err)
	}

	r := &Runner{
		cfg:       cfg,
		transport: transport,
		store:     store,
		router:    router,
		logger:    logger,
		handlers:  make(map[string]Handler),
	}

	router.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:          cfg.MaxRetries,
		InitialInterval:     cfg.RetryInitialInterval,
		MaxInterval:         cfg.RetryMaxInterval,
		Multiplier:          2.0,
		RandomizationFactor: 0.25,
		Logger:              logger,
	}
	router.AddMiddleware(retry.Middleware)

	for _, queue := range Queues() {
		router.AddConsumerHandler(
			"worker-"+queue,
			queue,
			transport.Subscriber,
			r.handleMessage,
		)
	}

	metrics.TaskWorkers.Set(float64(cfg.Workers))

	return r, nil
}

// Register installs the handler for a task name.
func (r *Runner) Register(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// SetNotifier installs the status transition observer.
func (r *Runner) SetNotifier(notify Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notify = notify
}

// Submit enqueues a task and returns its opaque id. The submitting
// context's identity scope rides along in the envelope.
func (r *Runner) Submit(ctx context.Context, name string, payload interface{}) (string, error) {
	r.mu.RLock()
	_, known := r.handlers[name]
	r.mu.RUnlock()
	if !known {
		return "", fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("tasks: encoding payload: %w", err)
	}

	queue := QueueFor(name)
	taskID := uuid.New().String()
	now := time.Now().UTC()

	record := &Record{
		ID:        taskID,
		Name:      name,
		Queue:     queue,
		Status:    StatusPending,
		CreatedAt: now,
	}
	if err := r.store.Put(ctx, record); err != nil {
		return "", err
	}

	envelope := Envelope{
		TaskID:    taskID,
		Name:      name,
		Queue:     queue,
		Payload:   data,
		Scope:     logging.ScopeFromContext(ctx),
		CreatedAt: now,
	}
	envData, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("tasks: encoding envelope: %w", err)
	}

	msg := message.NewMessage(taskID, envData)
	msg.Metadata.Set("task", name)
	if err := r.transport.Publisher.Publish(queue, msg); err != nil {
		return "", fmt.Errorf("tasks: publishing to %s: %w", queue, err)
	}

	metrics.RecordTaskPublished(queue, name)
	r.emit(*record)

	logging.Ctx(ctx).Info().
		Str("task_id", taskID).
		Str("task", name).
		Str("queue", queue).
		Msg("Task submitted")

	return taskID, nil
}

// Status returns the task's stored record.
func (r *Runner) Status(ctx context.Context, taskID string) (*Record, error) {
	return r.store.Get(ctx, taskID)
}

// Cancel revokes a task that has not started yet. Started and finished
// tasks return ErrNotCancellable.
func (r *Runner) Cancel(ctx context.Context, taskID string) error {
	record, err := r.store.Update(ctx, taskID, func(rec *Record) error {
		if rec.Status != StatusPending && rec.Status != StatusRetry {
			return ErrNotCancellable
		}
		rec.Status = StatusFailure
		rec.Error = "revoked before execution"
		return nil
	})
	if err != nil {
		return err
	}
	r.emit(*record)
	return nil
}

// Run starts the workers and the periodic health check, blocking until
// the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.HealthCheckInterval > 0 {
		go r.healthCheckLoop(ctx)
	}
	return r.router.Run(ctx)
}

// Running returns a channel that closes once the router is consuming.
func (r *Runner) Running() <-chan struct{} {
	return r.router.Running()
}

// Close drains in-flight tasks up to the configured close timeout.
func (r *Runner) Close() error {
	return r.router.Close()
}

// healthCheckLoop periodically enqueues the health_check task.
func (r *Runner) healthCheckLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Submit(ctx, TaskHealthCheck, struct{}{}); err != nil {
				logging.Error().Err(err).Msg("Scheduling health check task failed")
			}
		}
	}
}

// handleMessage executes one delivery. Returning an error hands the
// message back to the retry middleware; returning nil acks it.
func (r *Runner) handleMessage(msg *message.Message) error {
	var envelope Envelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		// Undecodable envelopes can never succeed; drop them.
		logging.Error().Err(err).Str("message_id", msg.UUID).Msg("Dropping undecodable task envelope")
		return nil
	}

	// The envelope scope becomes the worker's ambient identity for the
	// duration of this execution only; the next delivery starts clean.
	ctx := logging.ContextWithScope(msg.Context(), envelope.Scope)
	log := logging.Ctx(ctx)

	record, err := r.store.Get(ctx, envelope.TaskID)
	if errors.Is(err, ErrTaskNotFound) {
		// Submitted by another instance or expired mid-flight.
		record = &Record{
			ID:        envelope.TaskID,
			Name:      envelope.Name,
			Queue:     envelope.Queue,
			Status:    StatusPending,
			CreatedAt: envelope.CreatedAt,
		}
		if err := r.store.Put(ctx, record); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if record.Status.Terminal() {
		log.Debug().Str("task_id", record.ID).Str("status", string(record.Status)).
			Msg("Skipping terminal task redelivery")
		return nil
	}

	r.mu.RLock()
	handler, ok := r.handlers[envelope.Name]
	r.mu.RUnlock()
	if !ok {
		r.finish(ctx, record, nil, fmt.Errorf("%w: %s", ErrUnknownTask, envelope.Name), time.Now())
		return nil
	}

	record, err = r.store.Update(ctx, record.ID, func(rec *Record) error {
		rec.Status = StatusStarted
		rec.Attempts++
		return nil
	})
	if err != nil {
		return err
	}
	r.emit(*record)

	log.Info().
		Str("task_id", record.ID).
		Str("task", envelope.Name).
		Int("attempt", record.Attempts).
		Msg("Task started")

	start := time.Now()
	result, execErr := handler(ctx, envelope.Payload)

	if execErr == nil {
		r.finish(ctx, record, result, nil, start)
		return nil
	}

	if IsTerminal(execErr) || record.Attempts >= r.cfg.MaxRetries {
		r.finish(ctx, record, nil, execErr, start)
		return nil
	}

	// Remaining attempts: mark RETRY and let the middleware back off.
	record, err = r.store.Update(ctx, record.ID, func(rec *Record) error {
		rec.Status = StatusRetry
		rec.Error = execErr.Error()
		return nil
	})
	if err != nil {
		return err
	}
	metrics.RecordTaskRetry(envelope.Queue, envelope.Name)
	r.emit(*record)

	log.Warn().Err(execErr).
		Str("task_id", record.ID).
		Int("attempt", record.Attempts).
		Msg("Task failed, retrying")

	return execErr
}

// finish writes the terminal state and records metrics.
func (r *Runner) finish(ctx context.Context, record *Record, result json.RawMessage, execErr error, start time.Time) {
	status := StatusSuccess
	updated, err := r.store.Update(ctx, record.ID, func(rec *Record) error {
		if execErr != nil {
			rec.Status = StatusFailure
			rec.Error = execErr.Error()
		} else {
			rec.Status = StatusSuccess
			rec.Result = result
			rec.Error = ""
		}
		status = rec.Status
		return nil
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("task_id", record.ID).Msg("Persisting terminal task state failed")
		return
	}

	metrics.RecordTaskProcessed(record.Queue, record.Name, string(status), time.Since(start))
	r.emit(*updated)

	event := logging.Ctx(ctx).Info()
	if execErr != nil {
		event = logging.Ctx(ctx).Error().Err(execErr)
	}
	event.
		Str("task_id", record.ID).
		Str("task", record.Name).
		Str("status", string(status)).
		Dur("duration", time.Since(start)).
		Msg("Task finished")
}

func (r *Runner) emit(record Record) {
	r.mu.RLock()
	notify := r.notify
	r.mu.RUnlock()
	if notify != nil {
		notify(record)
	}
}
