// Package transport defines the boundary between the engines and whatever
// actually moves packets between processes.
//
// The engines work in two modes, handled explicitly at every call site:
// with a Transport, broadcast and receive delegate to the network; without
// one (nil), everything stays in local channel buffers. Transport polling is
// always bounded: Receive takes a short timeout and callers loop until the
// transport reports ErrExhausted, so draining a variable-size backlog never
// blocks indefinitely.
//
// Two implementations ship with the module: Loopback, an in-memory hub for
// tests and single-process demos, and UDPMulticast, the simplest real
// network realization of the boundary.
package transport
