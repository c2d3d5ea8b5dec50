// Package manager implements the connection lifecycle state machine.
//
// A Manager owns one transport handle at a time and drives it through
// Connecting → Open → Disconnected, reconnecting after a fixed delay on
// every disconnect until explicitly stopped. While Open it sends a
// liveness probe on a fixed period. Consumers observe the lifecycle
// through four optional hooks; everything else stays internal.
//
// All state transitions, hook invocations and probe firings happen on a
// single run loop goroutine, so no two notifications ever interleave.
package manager
