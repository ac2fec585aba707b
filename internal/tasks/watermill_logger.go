// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package tasks

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/skouam/commendo/internal/logging"
)

// watermillLogger adapts the process zerolog logger to Watermill's
// LoggerAdapter so router and transport internals share the application's
// log stream and format.
type watermillLogger struct {
	logger zerolog.Logger
}

// NewWatermillLogger returns a Watermill adapter over the global logger.
func NewWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{logger: logging.WithComponent("tasks")}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(l.logger.Error().Err(err), fields).Msg(msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(l.logger.Info(), fields).Msg(msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(l.logger.Debug(), fields).Msg(msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(l.logger.Trace(), fields).Msg(msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	logCtx := l.logger.With()
	for k, v := range fields {
		logCtx = logCtx.Interface(k, v)
	}
	return &watermillLogger{logger: logCtx.Logger()}
}

func (l *watermillLogger) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}
