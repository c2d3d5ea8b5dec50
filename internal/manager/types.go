package manager

import "time"

// State is the connection lifecycle state.
type State int

const (
	// StateDisconnected means no handle is held; a reconnect may be pending.
	StateDisconnected State = iota
	// StateConnecting means an attempt is in flight.
	StateConnecting
	// StateOpen means the channel is established and the heartbeat runs.
	StateOpen
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	}
	return "unknown"
}

// Config configures a Manager.
type Config struct {
	Address         string        // Remote endpoint (required)
	ReconnectDelay  time.Duration // Fixed delay before each reconnect attempt
	HeartbeatPeriod time.Duration // Liveness probe period while Open
	CommandBuffer   int           // Buffer for Send/Close requests
}

// DefaultConfig returns the default settings for an address.
func DefaultConfig(address string) Config {
	return Config{
		Address:         address,
		ReconnectDelay:  5 * time.Second,
		HeartbeatPeriod: 10 * time.Second,
		CommandBuffer:   64,
	}
}

// withDefaults fills zero fields with defaults.
func (c Config) withDefaults() Config {
	def := DefaultConfig(c.Address)
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = def.ReconnectDelay
	}
	if c.HeartbeatPeriod == 0 {
		c.HeartbeatPeriod = def.HeartbeatPeriod
	}
	if c.CommandBuffer == 0 {
		c.CommandBuffer = def.CommandBuffer
	}
	return c
}

// Hooks are the consumer's lifecycle callbacks. Nil fields are no-ops.
// Hooks run on the manager's loop; they must not block for long.
type Hooks struct {
	Opened          func()
	MessageReceived func(payload []byte)
	Errored         func(err error)
	Closed          func()
}

func (h Hooks) opened() {
	if h.Opened != nil {
		h.Opened()
	}
}

func (h Hooks) messageReceived(payload []byte) {
	if h.MessageReceived != nil {
		h.MessageReceived(payload)
	}
}

func (h Hooks) errored(err error) {
	if h.Errored != nil {
		h.Errored(err)
	}
}

func (h Hooks) closed() {
	if h.Closed != nil {
		h.Closed()
	}
}

// Stats is a snapshot of manager counters.
type Stats struct {
	State            State
	Connects         int64 // Successful opens
	Disconnects      int64 // Close events observed
	ProbesSent       int64
	MessagesReceived int64
	MessagesSent     int64
	MessagesDropped  int64 // Sends attempted while not open/writable
}
