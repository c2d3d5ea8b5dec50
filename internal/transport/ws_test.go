package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// nextEvent waits for the next event on a handle.
func nextEvent(t *testing.T, h Handle) Event {
	t.Helper()
	select {
	case ev, ok := <-h.Events():
		if !ok {
			t.Fatal("events channel closed while waiting for event")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func testDialer(t *testing.T) *WSDialer {
	cfg := Config{
		HandshakeTimeout: 2 * time.Second,
		WriteTimeout:     time.Second,
		EventBuffer:      16,
	}
	return NewWSDialer(cfg, nil)
}

func TestWSDialer_Open(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Keep the connection open until the client leaves
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	h := testDialer(t).Dial(wsURL(server))
	defer h.Close()

	ev := nextEvent(t, h)
	if ev.Type != EventOpen {
		t.Fatalf("first event = %v, want open", ev.Type)
	}
	if !h.IsWritable() {
		t.Error("expected IsWritable after open")
	}
}

func TestWSDialer_DialFailure(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {})
	url := wsURL(server)
	server.Close()

	h := testDialer(t).Dial(url)

	ev := nextEvent(t, h)
	if ev.Type != EventClose {
		t.Fatalf("event = %v, want close", ev.Type)
	}
	if ev.Err == nil {
		t.Error("expected an error on a failed dial")
	}
	if h.IsWritable() {
		t.Error("failed handle must not be writable")
	}

	// The stream ends after the terminal close
	if _, ok := <-h.Events(); ok {
		t.Error("expected events channel to be closed after terminal close")
	}
}

func TestWSHandle_Send(t *testing.T) {
	var mu sync.Mutex
	var received []byte

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			mu.Lock()
			received = msg
			mu.Unlock()
		}
	})
	defer server.Close()

	h := testDialer(t).Dial(wsURL(server))
	defer h.Close()

	if ev := nextEvent(t, h); ev.Type != EventOpen {
		t.Fatalf("first event = %v, want open", ev.Type)
	}

	payload := []byte(`{"hello":"world"}`)
	if err := h.Send(payload); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	// Wait for the server to receive it
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	got := string(received)
	mu.Unlock()
	if got != string(payload) {
		t.Errorf("server received %q, want %q", got, payload)
	}
}

func TestWSHandle_SendBeforeOpen(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {})
	url := wsURL(server)
	server.Close()

	h := testDialer(t).Dial(url)
	if err := h.Send([]byte("x")); err != ErrNotWritable {
		t.Errorf("Send before open = %v, want ErrNotWritable", err)
	}
	if err := h.SendProbe(); err != ErrNotWritable {
		t.Errorf("SendProbe before open = %v, want ErrNotWritable", err)
	}
}

func TestWSHandle_Probe(t *testing.T) {
	var mu sync.Mutex
	pings := 0

	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.SetPingHandler(func(data string) error {
			mu.Lock()
			pings++
			mu.Unlock()
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	h := testDialer(t).Dial(wsURL(server))
	defer h.Close()

	if ev := nextEvent(t, h); ev.Type != EventOpen {
		t.Fatalf("first event = %v, want open", ev.Type)
	}

	if err := h.SendProbe(); err != nil {
		t.Fatalf("SendProbe failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	got := pings
	mu.Unlock()
	if got != 1 {
		t.Errorf("server saw %d pings, want 1", got)
	}
}

func TestWSHandle_Messages(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("one"))
		conn.WriteMessage(websocket.TextMessage, []byte("two"))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	h := testDialer(t).Dial(wsURL(server))
	defer h.Close()

	if ev := nextEvent(t, h); ev.Type != EventOpen {
		t.Fatalf("first event = %v, want open", ev.Type)
	}

	for _, want := range []string{"one", "two"} {
		ev := nextEvent(t, h)
		if ev.Type != EventMessage {
			t.Fatalf("event = %v, want message", ev.Type)
		}
		if string(ev.Payload) != want {
			t.Errorf("payload = %q, want %q", ev.Payload, want)
		}
	}
}

func TestWSHandle_RemoteClose(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second),
		)
		// Wait for the client's close response
		conn.ReadMessage()
	})
	defer server.Close()

	h := testDialer(t).Dial(wsURL(server))

	if ev := nextEvent(t, h); ev.Type != EventOpen {
		t.Fatalf("first event = %v, want open", ev.Type)
	}

	// A clean remote close produces no error event, just the close
	ev := nextEvent(t, h)
	if ev.Type != EventClose {
		t.Fatalf("event = %v, want close", ev.Type)
	}
	if h.IsWritable() {
		t.Error("handle must not be writable after close")
	}
	if _, ok := <-h.Events(); ok {
		t.Error("expected events channel to be closed after terminal close")
	}
}

func TestWSHandle_AbnormalClose(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Drop the TCP connection without a close frame
		conn.Close()
	})
	defer server.Close()

	h := testDialer(t).Dial(wsURL(server))

	if ev := nextEvent(t, h); ev.Type != EventOpen {
		t.Fatalf("first event = %v, want open", ev.Type)
	}

	ev := nextEvent(t, h)
	if ev.Type != EventError {
		t.Fatalf("event = %v, want error before close", ev.Type)
	}
	if ev.Err == nil {
		t.Error("error event should carry the cause")
	}

	ev = nextEvent(t, h)
	if ev.Type != EventClose {
		t.Fatalf("event = %v, want close", ev.Type)
	}
}

func TestWSHandle_LocalClose(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	h := testDialer(t).Dial(wsURL(server))

	if ev := nextEvent(t, h); ev.Type != EventOpen {
		t.Fatalf("first event = %v, want open", ev.Type)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if h.IsWritable() {
		t.Error("handle must not be writable after Close")
	}

	// Local close still surfaces as a close event, with no error event
	ev := nextEvent(t, h)
	if ev.Type != EventClose {
		t.Fatalf("event = %v, want close", ev.Type)
	}

	// Close is idempotent
	if err := h.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestWSHandle_Detach(t *testing.T) {
	release := make(chan struct{})
	server := mockWSServer(t, func(conn *websocket.Conn) {
		<-release
		conn.WriteMessage(websocket.TextMessage, []byte("late"))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	h := testDialer(t).Dial(wsURL(server))
	defer h.Close()

	if ev := nextEvent(t, h); ev.Type != EventOpen {
		t.Fatalf("first event = %v, want open", ev.Type)
	}

	h.Detach()
	h.Detach() // safe to repeat
	close(release)

	select {
	case ev, ok := <-h.Events():
		if ok {
			t.Errorf("received %v event after Detach", ev.Type)
		}
	case <-time.After(200 * time.Millisecond):
		// No events after detach
	}
}
