// Package database creates the pgx connection pool used by the lifecycle
// journal.
package database
