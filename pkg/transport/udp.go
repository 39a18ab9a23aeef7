package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ghost-network/ghost-go/pkg/ghost"
)

// DefaultMulticastAddress is the default group:port for the UDP transport.
const DefaultMulticastAddress = "239.77.71.80:47474"

// maxDatagramSize bounds a single packet's wire form. Carriers pad payloads
// (the image carrier adds 1KB of filler), so this must stay well above the
// protocol's action size limit.
const maxDatagramSize = 64 * 1024

// UDPMulticast is a Transport that fans packets out over a UDP multicast
// group. Every node on the group sees every packet, which is exactly the
// delivery model the resonance filter expects: most received traffic is
// background noise by design.
type UDPMulticast struct {
	group *net.UDPAddr
	send  *net.UDPConn
	recv  *net.UDPConn

	closeMu sync.Mutex
	closed  bool
}

// NewUDPMulticast joins the given multicast group ("ip:port").
func NewUDPMulticast(address string) (*UDPMulticast, error) {
	group, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve multicast address: %w", err)
	}

	recv, err := net.ListenMulticastUDP("udp4", nil, group)
	if err != nil {
		return nil, fmt.Errorf("failed to join multicast group: %w", err)
	}
	if err := recv.SetReadBuffer(maxDatagramSize); err != nil {
		recv.Close()
		return nil, fmt.Errorf("failed to size receive buffer: %w", err)
	}

	send, err := net.DialUDP("udp4", nil, group)
	if err != nil {
		recv.Close()
		return nil, fmt.Errorf("failed to open send socket: %w", err)
	}

	return &UDPMulticast{group: group, send: send, recv: recv}, nil
}

// Broadcast writes the packet's JSON wire form to the multicast group.
func (u *UDPMulticast) Broadcast(packet *ghost.Packet) error {
	if u.isClosed() {
		return ErrClosed
	}

	data, err := ghost.EncodePacket(packet)
	if err != nil {
		return err
	}
	if len(data) > maxDatagramSize {
		return fmt.Errorf("packet wire form %d bytes exceeds datagram limit", len(data))
	}
	if _, err := u.send.Write(data); err != nil {
		return fmt.Errorf("multicast send failed: %w", err)
	}
	return nil
}

// Receive reads one datagram from the group, or returns ErrExhausted if
// nothing arrives within the timeout. Datagrams that do not decode as
// packets are skipped; the group may carry unrelated traffic.
func (u *UDPMulticast) Receive(timeout time.Duration) (PeerID, *ghost.Packet, error) {
	if u.isClosed() {
		return "", nil, ErrClosed
	}

	deadline := time.Now().Add(timeout)
	buf := make([]byte, maxDatagramSize)

	for {
		if err := u.recv.SetReadDeadline(deadline); err != nil {
			return "", nil, fmt.Errorf("failed to set read deadline: %w", err)
		}

		n, addr, err := u.recv.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return "", nil, ErrExhausted
			}
			if u.isClosed() {
				return "", nil, ErrClosed
			}
			return "", nil, fmt.Errorf("multicast receive failed: %w", err)
		}

		packet, err := ghost.DecodePacket(buf[:n])
		if err != nil {
			continue
		}
		return PeerID(addr.String()), packet, nil
	}
}

// Close leaves the multicast group and releases both sockets.
func (u *UDPMulticast) Close() error {
	u.closeMu.Lock()
	defer u.closeMu.Unlock()
	if u.closed {
		return nil
	}
	u.closed = true
	u.send.Close()
	return u.recv.Close()
}

func (u *UDPMulticast) isClosed() bool {
	u.closeMu.Lock()
	defer u.closeMu.Unlock()
	return u.closed
}
