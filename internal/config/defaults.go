package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultReconnectDelay   = 5 * time.Second
	DefaultHeartbeatPeriod  = 10 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultEventBuffer      = 64
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 10
	DefaultMinConns         = 2
	DefaultBatchSize        = 100
	DefaultFlushInterval    = 1 * time.Second
	DefaultBufferSize       = 1000
)

func (c *ClientConfig) applyDefaults() {
	// Endpoint defaults
	if c.Endpoint.ReconnectDelay == 0 {
		c.Endpoint.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Endpoint.HeartbeatPeriod == 0 {
		c.Endpoint.HeartbeatPeriod = DefaultHeartbeatPeriod
	}
	if c.Endpoint.HandshakeTimeout == 0 {
		c.Endpoint.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Endpoint.WriteTimeout == 0 {
		c.Endpoint.WriteTimeout = DefaultWriteTimeout
	}
	if c.Endpoint.EventBuffer == 0 {
		c.Endpoint.EventBuffer = DefaultEventBuffer
	}

	// Database defaults
	if c.Database.Postgres.Enabled() {
		applyDBDefaults(&c.Database.Postgres)
	}

	// Journal defaults
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultBatchSize
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultFlushInterval
	}
	if c.Journal.BufferSize == 0 {
		c.Journal.BufferSize = DefaultBufferSize
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
