package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks that all required fields are set and values are valid.
func (c *ClientConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Endpoint.Address == "" {
		return errors.New("endpoint.address is required")
	}
	u, err := url.Parse(c.Endpoint.Address)
	if err != nil {
		return fmt.Errorf("endpoint.address is not a valid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("endpoint.address scheme must be ws or wss, got %q", u.Scheme)
	}

	if c.Endpoint.ReconnectDelay <= 0 {
		return errors.New("endpoint.reconnect_delay must be > 0")
	}
	if c.Endpoint.HeartbeatPeriod <= 0 {
		return errors.New("endpoint.heartbeat_period must be > 0")
	}

	if c.Database.Postgres.Enabled() {
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	}

	if c.Journal.BatchSize < 1 {
		return errors.New("journal.batch_size must be >= 1")
	}
	if c.Journal.BufferSize < 1 {
		return errors.New("journal.buffer_size must be >= 1")
	}

	return nil
}

func (db DBConfig) validate(prefix string) error {
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Port < 1 || db.Port > 65535 {
		return fmt.Errorf("%s.port must be 1-65535", prefix)
	}
	return nil
}
