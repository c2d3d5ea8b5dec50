// Package transport provides the duplex channel underneath the connection
// manager.
//
// A Dialer starts connection attempts; each attempt yields a Handle that
// reports its lifecycle through an ordered event stream: open first, then
// any number of message/error events, then a terminal close. A failed
// attempt reports only the close. Handles are single-use — a reconnect
// means a new Dial and a new Handle.
package transport
