package transport

import (
	"strconv"
	"sync"
	"time"

	"github.com/ghost-network/ghost-go/pkg/ghost"
)

// LoopbackHub connects any number of Loopback transports in one process.
// Every packet broadcast by one endpoint is delivered to all the others,
// mirroring a shared broadcast medium.
type LoopbackHub struct {
	mu        sync.Mutex
	endpoints []*Loopback
	nextID    int
}

// NewLoopbackHub creates an empty hub.
func NewLoopbackHub() *LoopbackHub {
	return &LoopbackHub{}
}

// Endpoint attaches a new transport to the hub.
func (h *LoopbackHub) Endpoint() *Loopback {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	lb := &Loopback{
		hub:   h,
		id:    PeerID("loopback-" + strconv.Itoa(h.nextID)),
		inbox: make(chan delivery, 256),
	}
	h.endpoints = append(h.endpoints, lb)
	return lb
}

func (h *LoopbackHub) dispatch(from *Loopback, packet *ghost.Packet) {
	h.mu.Lock()
	endpoints := append([]*Loopback(nil), h.endpoints...)
	h.mu.Unlock()

	for _, ep := range endpoints {
		if ep == from {
			continue
		}
		// Deliver a deep copy so endpoints never share packet memory.
		d := delivery{from: from.id, packet: packet.Clone()}
		select {
		case ep.inbox <- d:
		default:
			// Inbox full: the medium drops, delivery is not guaranteed.
		}
	}
}

type delivery struct {
	from   PeerID
	packet *ghost.Packet
}

// Loopback is an in-memory Transport endpoint attached to a LoopbackHub.
type Loopback struct {
	hub   *LoopbackHub
	id    PeerID
	inbox chan delivery

	closeMu sync.Mutex
	closed  bool
}

// Broadcast delivers the packet to every other endpoint on the hub.
func (l *Loopback) Broadcast(packet *ghost.Packet) error {
	l.closeMu.Lock()
	closed := l.closed
	l.closeMu.Unlock()
	if closed {
		return ErrClosed
	}
	l.hub.dispatch(l, packet)
	return nil
}

// Receive returns one pending packet, or ErrExhausted after the timeout.
func (l *Loopback) Receive(timeout time.Duration) (PeerID, *ghost.Packet, error) {
	l.closeMu.Lock()
	closed := l.closed
	l.closeMu.Unlock()
	if closed {
		return "", nil, ErrClosed
	}

	select {
	case d := <-l.inbox:
		return d.from, d.packet, nil
	case <-time.After(timeout):
		return "", nil, ErrExhausted
	}
}

// Close detaches the endpoint. Further calls return ErrClosed.
func (l *Loopback) Close() error {
	l.closeMu.Lock()
	defer l.closeMu.Unlock()
	l.closed = true
	return nil
}
