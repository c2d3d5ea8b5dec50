package config

import "time"

// ClientConfig is the root configuration for a yaws client instance.
type ClientConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Endpoint EndpointConfig `yaml:"endpoint"`
	Database DatabaseConfig `yaml:"database"`
	Journal  JournalConfig  `yaml:"journal"`
}

// InstanceConfig identifies this client.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// EndpointConfig holds the remote endpoint and connection behavior.
type EndpointConfig struct {
	Address          string        `yaml:"address"`           // ws:// or wss:// URL
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`   // Fixed delay between reconnect attempts
	HeartbeatPeriod  time.Duration `yaml:"heartbeat_period"`  // Liveness probe period while open
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"` // Dial handshake deadline
	WriteTimeout     time.Duration `yaml:"write_timeout"`     // Write deadline for sends and probes
	EventBuffer      int           `yaml:"event_buffer"`      // Transport event channel buffer
}

// DatabaseConfig holds the optional Postgres sink for the lifecycle journal.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Enabled reports whether a database target is configured.
func (db DBConfig) Enabled() bool {
	return db.Host != ""
}

// JournalConfig holds lifecycle journal batching settings.
type JournalConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}
