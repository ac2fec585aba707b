// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package taskfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/skouam/commendo/internal/metrics"
	"github.com/skouam/commendo/internal/tasks"
)

// startHub runs the hub and returns a test server speaking the feed
// protocol at /tasks/ws.
func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	t.Cleanup(server.Close)

	return hub, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", hub.ClientCount(), want)
}

func TestNotifyTaskDropsWhenQueueFull(t *testing.T) {
	// Hub deliberately not running, so frames pile up until the broadcast
	// channel is full and further notifies are counted as drops.
	hub := NewHub(1)

	counter := metrics.WSErrors.WithLabelValues("broadcast_full")
	before := testutil.ToFloat64(counter)

	for i := 0; i < 300; i++ {
		hub.NotifyTask(tasks.Record{ID: "t1", Name: "sentiment", Status: tasks.StatusSuccess})
	}

	if after := testutil.ToFloat64(counter); after <= before {
		t.Errorf("broadcast_full errors = %g, want > %g after overflowing the queue", after, before)
	}
}

func TestNotifyTaskReachesClient(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, server)
	waitForClients(t, hub, 1)

	hub.NotifyTask(tasks.Record{
		ID:        "t1",
		Name:      tasks.TaskSentiment,
		Queue:     tasks.QueueSentiment,
		Status:    tasks.StatusSuccess,
		Attempts:  1,
		UpdatedAt: time.Now().UTC(),
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if msg.Type != MessageTypeTaskUpdate {
		t.Fatalf("type = %q, want %q", msg.Type, MessageTypeTaskUpdate)
	}

	raw, err := json.Marshal(msg.Data)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	var event TaskEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	if event.TaskID != "t1" || event.Status != "SUCCESS" || event.Queue != tasks.QueueSentiment {
		t.Errorf("event = %+v", event)
	}
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	hub, server := startHub(t)
	first := dial(t, server)
	second := dial(t, server)
	waitForClients(t, hub, 2)

	hub.NotifyTask(tasks.Record{ID: "t2", Status: tasks.StatusStarted})

	for i, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("client %d ReadJSON: %v", i, err)
		}
		if msg.Type != MessageTypeTaskUpdate {
			t.Errorf("client %d type = %q", i, msg.Type)
		}
	}
}

func TestPingPong(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, server)
	waitForClients(t, hub, 1)

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if msg.Type != MessageTypePong {
		t.Errorf("type = %q, want %q", msg.Type, MessageTypePong)
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, server)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestShutdownClosesClients(t *testing.T) {
	hub := NewHub(8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	defer server.Close()

	conn := dial(t, server)
	waitForClients(t, hub, 1)

	cancel()
	<-done

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			// Close frame or dropped connection ends the read loop.
			return
		}
	}
}
