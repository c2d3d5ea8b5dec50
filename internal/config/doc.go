// Package config loads and validates the client configuration.
//
// Configuration is YAML with ${VAR} environment substitution, so secrets
// like database passwords can stay out of the file:
//
//	instance:
//	  id: yaws-1
//	endpoint:
//	  address: wss://example.com/stream
//	  reconnect_delay: 5s
//	  heartbeat_period: 10s
//	database:
//	  postgres:
//	    host: localhost
//	    password: ${YAWS_DB_PASSWORD}
//
// The database section is optional; without it the lifecycle journal is
// disabled.
package config
