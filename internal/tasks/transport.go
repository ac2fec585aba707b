// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsserver "github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"

	"github.com/skouam/commendo/internal/config"
	"github.com/skouam/commendo/internal/logging"
)

// Transport names accepted by the configuration.
const (
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)

// Transport bundles the publisher and subscriber pair the runner uses.
// The in-process gochannel transport backs single-instance deployments and
// tests; NATS JetStream backs multi-host worker pools.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber

	embedded *natsserver.Server
	closers  []func() error
}

// NewTransport builds the transport selected by the configuration.
func NewTransport(cfg config.TasksConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	if logger == nil {
		logger = NewWatermillLogger()
	}

	switch cfg.Transport {
	case "", TransportGoChannel:
		return newGoChannelTransport(logger), nil
	case TransportNATS:
		return newNATSTransport(cfg, logger)
	}
	return nil, fmt.Errorf("tasks: unknown transport %q", cfg.Transport)
}

// newGoChannelTransport builds the in-process pub/sub. One GoChannel
// instance serves both roles so published tasks reach the router without
// any external broker.
func newGoChannelTransport(logger watermill.LoggerAdapter) *Transport {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, logger)

	return &Transport{
		Publisher:  pubSub,
		Subscriber: pubSub,
		closers:    []func() error{pubSub.Close},
	}
}

// newNATSTransport connects to JetStream, optionally starting an embedded
// server first for self-contained deployments.
func newNATSTransport(cfg config.TasksConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	t := &Transport{}

	url := cfg.NATSURL
	if cfg.EmbeddedNATS {
		server, err := startEmbeddedServer(cfg.NATSStoreDir)
		if err != nil {
			return nil, err
		}
		t.embedded = server
		url = server.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}
	if url == "" {
		url = natsgo.DefaultURL
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	publisher, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		t.shutdownEmbedded()
		return nil, fmt.Errorf("tasks: creating NATS publisher: %w", err)
	}
	t.Publisher = publisher
	t.closers = append(t.closers, publisher.Close)

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	subscriber, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: "commendo-workers",
		SubscribersCount: workers,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			DurablePrefix: "commendo-tasks",
		},
	}, logger)
	if err != nil {
		_ = publisher.Close()
		t.shutdownEmbedded()
		return nil, fmt.Errorf("tasks: creating NATS subscriber: %w", err)
	}
	t.Subscriber = subscriber
	t.closers = append(t.closers, subscriber.Close)

	return t, nil
}

// startEmbeddedServer boots an in-process NATS server with JetStream.
func startEmbeddedServer(storeDir string) (*natsserver.Server, error) {
	opts := &natsserver.Options{
		ServerName: "commendo-tasks",
		Host:       "127.0.0.1",
		Port:       -1, // random free port
		JetStream:  true,
		StoreDir:   storeDir,
		NoLog:      true,
	}

	server, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("tasks: creating embedded NATS server: %w", err)
	}

	go server.Start()
	if !server.ReadyForConnections(30 * time.Second) {
		server.Shutdown()
		return nil, fmt.Errorf("tasks: embedded NATS server not ready within timeout")
	}
	return server, nil
}

// Close shuts the transport down, embedded server last.
func (t *Transport) Close() error {
	var firstErr error
	for _, closeFn := range t.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	t.shutdownEmbedded()
	return firstErr
}

func (t *Transport) shutdownEmbedded() {
	if t.embedded == nil {
		return
	}
	t.embedded.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		t.embedded.WaitForShutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logging.Warn().Msg("Embedded NATS server shutdown timed out")
	}
	t.embedded = nil
}
