package transport

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotWritable = errors.New("channel not writable")
)

// EventType identifies a lifecycle event on a handle.
type EventType int

const (
	// EventOpen signals the connection was established.
	EventOpen EventType = iota
	// EventMessage carries an inbound payload.
	EventMessage
	// EventError reports a transport error. Terminal errors are followed
	// by EventClose; non-terminal ones leave the handle usable.
	EventError
	// EventClose is the last event a handle ever emits.
	EventClose
)

// String returns the event type name for logging.
func (t EventType) String() string {
	switch t {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventClose:
		return "close"
	}
	return "unknown"
}

// Event is a single notification from a handle.
type Event struct {
	Type    EventType
	Payload []byte // message events only
	Err     error  // error events; close events after a failure
}

// Handle is one connection attempt and, if it succeeds, the live channel.
// All events for a handle are delivered in order on its Events channel.
type Handle interface {
	// Send writes a payload to the channel.
	Send(payload []byte) error

	// SendProbe writes a zero-payload liveness probe.
	SendProbe() error

	// IsWritable reports whether the channel currently accepts writes.
	IsWritable() bool

	// Close requests graceful termination. The resulting close event is
	// still delivered through Events.
	Close() error

	// Events returns the handle's event stream. The channel is closed
	// after the terminal close event has been delivered.
	Events() <-chan Event

	// Detach stops event delivery permanently. Safe to call more than
	// once and safe on a handle that already finished.
	Detach()
}

// Dialer starts connection attempts.
type Dialer interface {
	// Dial begins an asynchronous connection attempt to address. The
	// returned handle emits EventOpen on success or EventClose on
	// failure; it never blocks the caller.
	Dial(address string) Handle
}

// Config holds the WebSocket transport settings.
type Config struct {
	HandshakeTimeout time.Duration // Dial handshake deadline
	WriteTimeout     time.Duration // Write deadline for sends and probes
	EventBuffer      int           // Event channel buffer size
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		EventBuffer:      64,
	}
}
