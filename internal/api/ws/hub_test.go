package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(logger.NewNop())
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) contracts.ProgressEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event contracts.ProgressEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

func TestHub_GreetsAndBroadcasts(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)

	// The greeting confirms registration; broadcasts after it are
	// guaranteed to reach this client.
	if event := readEvent(t, conn); event.Type != eventConnected {
		t.Fatalf("greeting type = %q", event.Type)
	}

	hub.Publish(contracts.ProgressEvent{
		Type:  contracts.EventRunStarted,
		RunID: "run_20250601_090000",
	})

	event := readEvent(t, conn)
	if event.Type != contracts.EventRunStarted {
		t.Errorf("event type = %q", event.Type)
	}
	if event.RunID != "run_20250601_090000" {
		t.Errorf("event run id = %q", event.RunID)
	}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub, srv := startHub(t)

	first := dial(t, srv)
	second := dial(t, srv)
	readEvent(t, first)
	readEvent(t, second)

	hub.Publish(contracts.ProgressEvent{Type: contracts.EventStageCompleted, Stage: "S1_SIMILARITY", Count: 42})

	for _, conn := range []*websocket.Conn{first, second} {
		event := readEvent(t, conn)
		if event.Type != contracts.EventStageCompleted || event.Count != 42 {
			t.Errorf("event = %+v", event)
		}
	}
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	// No Run loop draining the buffer; publishes must still return
	hub := NewHub(logger.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(contracts.ProgressEvent{Type: contracts.EventStageStarted})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}
}

func TestHub_StopDisconnectsClients(t *testing.T) {
	hub := NewHub(logger.NewNop())
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dial(t, srv)
	readEvent(t, conn)

	hub.Stop()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return // closed by the hub
		}
	}
}
