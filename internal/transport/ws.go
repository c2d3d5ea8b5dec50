package transport

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSDialer dials WebSocket endpoints.
type WSDialer struct {
	cfg    Config
	logger *slog.Logger
}

// NewWSDialer creates a WebSocket dialer.
func NewWSDialer(cfg Config, logger *slog.Logger) *WSDialer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = DefaultConfig().HandshakeTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if cfg.EventBuffer == 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	return &WSDialer{cfg: cfg, logger: logger}
}

// Dial begins an asynchronous connection attempt.
func (d *WSDialer) Dial(address string) Handle {
	h := &wsHandle{
		cfg:      d.cfg,
		logger:   d.logger.With("address", address),
		events:   make(chan Event, d.cfg.EventBuffer),
		detached: make(chan struct{}),
	}
	go h.dial(address)
	return h
}

// wsHandle implements Handle over a gorilla/websocket connection.
type wsHandle struct {
	cfg    Config
	logger *slog.Logger

	// Event delivery. Only the dial goroutine emits; it closes events
	// after the terminal close event.
	events     chan Event
	detached   chan struct{}
	detachOnce sync.Once

	// Write serialization
	writeMu sync.Mutex

	// State
	mu       sync.RWMutex
	conn     *websocket.Conn
	writable bool
	closed   bool
}

// dial performs the handshake and runs the read loop.
func (h *wsHandle) dial(address string) {
	dialer := websocket.Dialer{
		HandshakeTimeout: h.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.Dial(address, nil)
	if err != nil {
		h.logger.Debug("websocket dial failed", "error", err)
		h.emit(Event{Type: EventClose, Err: err})
		close(h.events)
		return
	}

	h.mu.Lock()
	if h.closed {
		// Close raced the handshake; treat the attempt as closed.
		h.mu.Unlock()
		conn.Close()
		h.emit(Event{Type: EventClose})
		close(h.events)
		return
	}
	h.conn = conn
	h.writable = true
	h.mu.Unlock()

	h.logger.Debug("websocket connected")
	h.emit(Event{Type: EventOpen})

	h.readLoop(conn)
	close(h.events)
}

// readLoop forwards inbound messages until the connection dies.
func (h *wsHandle) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			h.mu.Lock()
			h.writable = false
			requested := h.closed
			h.mu.Unlock()

			// A locally requested close and a clean remote close are
			// not errors, just the end of the connection.
			clean := websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
			)
			if !requested && !clean {
				h.emit(Event{Type: EventError, Err: err})
			}
			h.emit(Event{Type: EventClose, Err: err})
			return
		}

		h.emit(Event{Type: EventMessage, Payload: data})
	}
}

// emit delivers an event unless the handle has been detached.
func (h *wsHandle) emit(ev Event) {
	select {
	case <-h.detached:
		return
	default:
	}
	select {
	case <-h.detached:
	case h.events <- ev:
	}
}

// Send writes a payload to the connection.
func (h *wsHandle) Send(payload []byte) error {
	h.mu.RLock()
	conn, writable := h.conn, h.writable
	h.mu.RUnlock()

	if conn == nil || !writable {
		return ErrNotWritable
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// SendProbe writes an empty ping control frame.
func (h *wsHandle) SendProbe() error {
	h.mu.RLock()
	conn, writable := h.conn, h.writable
	h.mu.RUnlock()

	if conn == nil || !writable {
		return ErrNotWritable
	}

	deadline := time.Now().Add(h.cfg.WriteTimeout)
	return conn.WriteControl(websocket.PingMessage, nil, deadline)
}

// IsWritable reports whether the channel currently accepts writes.
func (h *wsHandle) IsWritable() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conn != nil && h.writable && !h.closed
}

// Close requests graceful termination.
func (h *wsHandle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.writable = false
	conn := h.conn
	h.mu.Unlock()

	if conn == nil {
		// Handshake still in flight; dial notices closed and cleans up.
		return nil
	}

	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return conn.Close()
}

// Events returns the handle's event stream.
func (h *wsHandle) Events() <-chan Event {
	return h.events
}

// Detach stops event delivery permanently.
func (h *wsHandle) Detach() {
	h.detachOnce.Do(func() { close(h.detached) })
}
