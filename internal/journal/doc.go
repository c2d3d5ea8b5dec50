// Package journal persists connection lifecycle events to Postgres.
//
// Events are batched and flushed on a size or time threshold into the
// connection_events table:
//
//	CREATE TABLE connection_events (
//	    id         UUID PRIMARY KEY,
//	    instance   TEXT NOT NULL,
//	    address    TEXT NOT NULL,
//	    event      TEXT NOT NULL,
//	    detail     TEXT NOT NULL DEFAULT '',
//	    at         TIMESTAMPTZ NOT NULL
//	);
//
// Recording is best effort: a full buffer drops events rather than
// slowing the connection manager down.
package journal
