package manager

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vinerima/yaws/internal/transport"
)

// Manager maintains one resilient connection to a remote endpoint.
type Manager struct {
	cfg    Config
	dialer transport.Dialer
	hooks  Hooks
	logger *slog.Logger

	cmds     chan command
	stopped  chan struct{}
	stopOnce sync.Once
	loopDone chan struct{}

	// Loop-owned state. Touched only by the run loop (and by New before
	// the loop starts), never under a lock.
	state      State
	handle     transport.Handle
	events     <-chan transport.Event
	heartbeat  *time.Ticker
	heartbeatC <-chan time.Time
	redial     *time.Timer
	redialC    <-chan time.Time
	attempt    uuid.UUID

	// Snapshot for Stats/State readers on other goroutines.
	statsMu sync.RWMutex
	stats   Stats
}

type opKind int

const (
	opSend opKind = iota
	opClose
)

type command struct {
	op      opKind
	payload []byte
}

// New creates a Manager and immediately begins connecting. The manager
// reconnects after every disconnect, on a fixed delay, until Stop is
// called. A nil logger falls back to slog.Default().
func New(cfg Config, dialer transport.Dialer, hooks Hooks, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	m := &Manager{
		cfg:      cfg,
		dialer:   dialer,
		hooks:    hooks,
		logger:   logger.With("address", cfg.Address),
		cmds:     make(chan command, cfg.CommandBuffer),
		stopped:  make(chan struct{}),
		loopDone: make(chan struct{}),
	}

	m.dial()
	go m.run()

	return m
}

// Send forwards a payload to the remote endpoint, best effort. While not
// Open, or when the channel is not writable, the payload is silently
// dropped; Send never fails and never blocks the caller.
func (m *Manager) Send(payload []byte) {
	select {
	case <-m.stopped:
	case m.cmds <- command{op: opSend, payload: payload}:
	default:
		m.logger.Warn("command buffer full, dropping send")
		m.bump(func(s *Stats) { s.MessagesDropped++ })
	}
}

// Close requests graceful termination of the current connection. The
// resulting close event drives the normal Disconnected transition, so a
// reconnect is still scheduled afterwards; use Stop to shut the manager
// down for good.
func (m *Manager) Close() {
	select {
	case <-m.stopped:
	case m.cmds <- command{op: opClose}:
	default:
		m.logger.Warn("command buffer full, dropping close request")
	}
}

// Stop terminates the manager: the current handle is closed and detached,
// timers are stopped, and no further reconnects happen. It waits for the
// run loop to exit or for ctx to be done.
func (m *Manager) Stop(ctx context.Context) error {
	m.stopOnce.Do(func() { close(m.stopped) })

	select {
	case <-m.loopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.statsMu.RLock()
	defer m.statsMu.RUnlock()
	return m.stats.State
}

// Stats returns a snapshot of the manager counters.
func (m *Manager) Stats() Stats {
	m.statsMu.RLock()
	defer m.statsMu.RUnlock()
	return m.stats
}

// run serializes transport events, heartbeat ticks, scheduled reconnects
// and public commands onto one goroutine.
func (m *Manager) run() {
	defer close(m.loopDone)

	for {
		select {
		case <-m.stopped:
			m.shutdown()
			return

		case ev, ok := <-m.events:
			if !ok {
				// Handle finished after detach; nothing left to read.
				m.events = nil
				continue
			}
			m.handleEvent(ev)

		case <-m.heartbeatC:
			m.probe()

		case <-m.redialC:
			m.redial = nil
			m.redialC = nil
			m.dial()

		case cmd := <-m.cmds:
			m.handleCommand(cmd)
		}
	}
}

// handleEvent dispatches one transport notification.
func (m *Manager) handleEvent(ev transport.Event) {
	switch ev.Type {
	case transport.EventOpen:
		m.onOpen()

	case transport.EventMessage:
		m.bump(func(s *Stats) { s.MessagesReceived++ })
		m.hooks.messageReceived(ev.Payload)

	case transport.EventError:
		// Errors do not change state; a terminal error is followed by
		// its own close event.
		m.logger.Warn("transport error", "attempt", m.attempt, "error", ev.Err)
		m.hooks.errored(ev.Err)

	case transport.EventClose:
		m.onClose(ev.Err)
	}
}

func (m *Manager) handleCommand(cmd command) {
	switch cmd.op {
	case opSend:
		if m.state != StateOpen || m.handle == nil || !m.handle.IsWritable() {
			m.bump(func(s *Stats) { s.MessagesDropped++ })
			return
		}
		if err := m.handle.Send(cmd.payload); err != nil {
			m.logger.Debug("send failed", "attempt", m.attempt, "error", err)
			m.bump(func(s *Stats) { s.MessagesDropped++ })
			return
		}
		m.bump(func(s *Stats) { s.MessagesSent++ })

	case opClose:
		if m.handle != nil {
			// State change comes from the resulting close event.
			m.handle.Close()
		}
	}
}

// dial starts a new connection attempt.
func (m *Manager) dial() {
	m.attempt = uuid.New()
	m.setState(StateConnecting)
	m.logger.Info("connecting", "attempt", m.attempt)

	m.handle = m.dialer.Dial(m.cfg.Address)
	m.events = m.handle.Events()
}

// onOpen enters the Open state: notice, heartbeat, hook.
func (m *Manager) onOpen() {
	m.setState(StateOpen)
	m.logger.Info("connection open", "attempt", m.attempt)

	m.startHeartbeat()
	m.bump(func(s *Stats) { s.Connects++ })
	m.hooks.opened()
}

// onClose enters the Disconnected state and schedules the reconnect.
// Entry order: notice, stop heartbeat, close hook, detach and discard the
// dead handle, then arm the reconnect timer. Reconnection is
// unconditional; only Stop breaks the loop.
func (m *Manager) onClose(err error) {
	m.setState(StateDisconnected)
	m.logger.Info("connection closed",
		"attempt", m.attempt,
		"error", err,
		"reconnect_in", m.cfg.ReconnectDelay,
	)

	m.stopHeartbeat()
	m.bump(func(s *Stats) { s.Disconnects++ })
	m.hooks.closed()

	if m.handle != nil {
		m.handle.Detach()
		m.handle = nil
	}
	m.events = nil

	m.redial = time.NewTimer(m.cfg.ReconnectDelay)
	m.redialC = m.redial.C
}

// probe sends one liveness probe if the channel is currently writable.
// A non-writable channel makes the firing a no-op; the timer keeps going.
func (m *Manager) probe() {
	if m.handle == nil || !m.handle.IsWritable() {
		return
	}
	if err := m.handle.SendProbe(); err != nil {
		m.logger.Debug("probe failed", "attempt", m.attempt, "error", err)
		return
	}
	m.bump(func(s *Stats) { s.ProbesSent++ })
}

// startHeartbeat arms the probe ticker. One ticker per Open period.
func (m *Manager) startHeartbeat() {
	m.stopHeartbeat()
	m.heartbeat = time.NewTicker(m.cfg.HeartbeatPeriod)
	m.heartbeatC = m.heartbeat.C
}

// stopHeartbeat stops the probe ticker. Idempotent.
func (m *Manager) stopHeartbeat() {
	if m.heartbeat != nil {
		m.heartbeat.Stop()
		m.heartbeat = nil
		m.heartbeatC = nil
	}
}

// shutdown releases everything the loop owns.
func (m *Manager) shutdown() {
	m.stopHeartbeat()
	if m.redial != nil {
		m.redial.Stop()
		m.redial = nil
		m.redialC = nil
	}
	if m.handle != nil {
		m.handle.Close()
		m.handle.Detach()
		m.handle = nil
	}
	m.events = nil
	m.setState(StateDisconnected)
	m.logger.Info("manager stopped")
}

// setState updates the loop state and the shared snapshot.
func (m *Manager) setState(s State) {
	m.state = s
	m.bump(func(st *Stats) { st.State = s })
}

func (m *Manager) bump(f func(*Stats)) {
	m.statsMu.Lock()
	f(&m.stats)
	m.statsMu.Unlock()
}
