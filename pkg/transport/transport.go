package transport

import (
	"errors"
	"time"

	"github.com/ghost-network/ghost-go/pkg/ghost"
)

// PeerID identifies the peer a packet arrived from. It is opaque: no
// matching or routing logic may depend on it.
type PeerID string

// Transport errors.
var (
	// ErrExhausted signals that no packet was available within the
	// receive timeout. It is the normal end-of-backlog condition, not a
	// failure.
	ErrExhausted = errors.New("transport: no data available")

	// ErrClosed signals that the transport has been shut down.
	ErrClosed = errors.New("transport: closed")
)

// Transport moves packets between processes.
//
// Implementations live outside the engines; the engines only require these
// two operations. Broadcast may suspend on network I/O. Receive returns a
// single packet per call and is safe to call repeatedly with short timeouts.
type Transport interface {
	// Broadcast sends a packet to every reachable peer.
	Broadcast(packet *ghost.Packet) error

	// Receive waits up to timeout for one packet. It returns ErrExhausted
	// when nothing arrived in time.
	Receive(timeout time.Duration) (PeerID, *ghost.Packet, error)
}

// Compile-time interface satisfaction checks.
var (
	_ Transport = (*Loopback)(nil)
	_ Transport = (*UDPMulticast)(nil)
)
