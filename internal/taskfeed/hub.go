// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package taskfeed streams task status transitions to WebSocket clients.
// The hub receives every transition from the task runner's notifier hook
// and fans it out; clients subscribe at GET /tasks/ws and only receive,
// apart from the ping/pong keepalive.
package taskfeed

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/skouam/commendo/internal/logging"
	"github.com/skouam/commendo/internal/metrics"
	"github.com/skouam/commendo/internal/tasks"
)

// Message types on the feed.
const (
	MessageTypeTaskUpdate = "task_update"
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
)

// Message is one feed frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// TaskEvent is the payload of a task_update frame.
type TaskEvent struct {
	TaskID    string    `json:"task_id"`
	Name      string    `json:"task"`
	Queue     string    `json:"queue"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub tracks the connected clients and broadcasts task events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	sendBuffer int
	mu         sync.RWMutex
}

// DefaultSendBuffer is the per-client outbound queue depth.
const DefaultSendBuffer = 64

// NewHub creates a Hub. sendBuffer bounds each client's outbound queue; a
// slow client that falls behind is disconnected rather than blocking the
// rest.
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sendBuffer: sendBuffer,
	}
}

// NotifyTask converts one task record transition into a feed frame. Wired
// as the runner's notifier; drops the frame when the broadcast queue is
// full, status polling is the reliable channel.
func (h *Hub) NotifyTask(record tasks.Record) {
	event := TaskEvent{
		TaskID:    record.ID,
		Name:      record.Name,
		Queue:     record.Queue,
		Status:    string(record.Status),
		Attempts:  record.Attempts,
		Error:     record.Error,
		Timestamp: record.UpdatedAt,
	}

	select {
	case h.broadcast <- Message{Type: MessageTypeTaskUpdate, Data: event}:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_full").Inc()
		logging.Warn().Str("task_id", record.ID).Msg("Feed broadcast queue full, dropping task event")
	}
}

// Run services the hub until the context is cancelled. Lifecycle events
// take priority over broadcasts so client state is settled before fan-out.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.register:
			h.addClient(client)
			continue
		case client := <-h.unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Info().Int("total_clients", total).Msg("Feed client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		metrics.WSConnections.Dec()
	}
	total := len(h.clients)
	h.mu.Unlock()

	logging.Info().Int("total_clients", total).Msg("Feed client disconnected")
}

// fanOut delivers to clients in id order. A client with a full queue is
// dropped so one stalled connection cannot hold up the others.
func (h *Hub) fanOut(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			close(client.send)
			delete(h.clients, client)
			metrics.WSConnections.Dec()
			metrics.WSErrors.WithLabelValues("slow_client").Inc()
			logging.Warn().Msg("Dropping slow feed client")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
		metrics.WSConnections.Dec()
	}
	logging.Info().Int("clients_closed", len(clients)).Msg("Feed hub stopped")
}
