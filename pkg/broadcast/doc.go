// Package broadcast implements the ephemeral channel engine.
//
// A channel is a resonance-keyed mailbox with a time-to-live and a bounded
// buffer. Packets are routed to every alive channel whose window matches the
// packet's target fingerprint; nothing else about a packet influences
// delivery. Channels dissolve when their TTL elapses and are removed by
// CleanupExpiredChannels, which the caller must invoke on a timer - the
// engine runs no internal scheduler.
//
// The engine also produces decoy traffic: synthetic channels and packets
// indistinguishable from real ones, as cover against passive traffic
// analysis.
//
// # Concurrency
//
// The channel map, the buffer map, and the stats are each guarded by their
// own lock. Multi-map operations take one lock at a time and release it
// before acquiring the next, so no call site ever holds two write locks.
// Engines never panic while holding a lock; a failed operation leaves the
// maps in their last-written state.
package broadcast
