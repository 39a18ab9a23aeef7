package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// PacketID identifies the packet involved, if any.
	PacketID string `cbor:"4,keyasint,omitempty"`

	// ChannelID identifies the broadcast channel involved, if any.
	ChannelID string `cbor:"5,keyasint,omitempty"`

	// BeaconID identifies the discovery beacon involved, if any.
	BeaconID string `cbor:"6,keyasint,omitempty"`

	// Decoy marks events generated by cover traffic.
	Decoy bool `cbor:"7,keyasint,omitempty"`

	// Detail is an optional free-form description.
	Detail string `cbor:"8,keyasint,omitempty"`

	// Error is the error message for CategoryError events.
	Error string `cbor:"9,keyasint,omitempty"`
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerBroadcast is the channel/buffer layer.
	LayerBroadcast Layer = 0
	// LayerDiscovery is the beacon/node/event layer.
	LayerDiscovery Layer = 1
	// LayerProtocol is the message lifecycle layer.
	LayerProtocol Layer = 2
	// LayerTransport is the network hand-off layer.
	LayerTransport Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerBroadcast:
		return "BROADCAST"
	case LayerDiscovery:
		return "DISCOVERY"
	case LayerProtocol:
		return "PROTOCOL"
	case LayerTransport:
		return "TRANSPORT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryPacket indicates a packet was sent, received, or filtered.
	CategoryPacket Category = 0
	// CategoryChannel indicates a channel lifecycle change.
	CategoryChannel Category = 1
	// CategoryBeacon indicates a beacon was announced or accepted.
	CategoryBeacon Category = 2
	// CategoryState indicates an engine state change (cleanup, reset).
	CategoryState Category = 3
	// CategoryError indicates a recoverable error.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryPacket:
		return "PACKET"
	case CategoryChannel:
		return "CHANNEL"
	case CategoryBeacon:
		return "BEACON"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// NewEvent creates an event with the current timestamp.
func NewEvent(layer Layer, category Category) Event {
	return Event{
		Timestamp: time.Now(),
		Layer:     layer,
		Category:  category,
	}
}
