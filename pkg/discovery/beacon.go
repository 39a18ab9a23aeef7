package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ghost-network/ghost-go/pkg/resonance"
)

// Beacon codec errors.
var (
	// ErrMissingBeaconID is returned when a beacon has no identifier.
	ErrMissingBeaconID = errors.New("beacon has no ID")

	// ErrZeroBeaconTimestamp is returned when a beacon is not timestamped.
	ErrZeroBeaconTimestamp = errors.New("beacon timestamp is zero")

	// ErrNonPositiveBeaconTTL is returned when a beacon's lifetime is zero
	// or negative.
	ErrNonPositiveBeaconTTL = errors.New("beacon TTL must be positive")
)

// Beacon is a single self-announcement. Each announcement mints a fresh ID,
// so beacons are unlinkable across announcements by construction.
type Beacon struct {
	// ID identifies this announcement, not the node behind it.
	ID uuid.UUID `json:"id"`

	// Resonance is the announcer's current fingerprint.
	Resonance resonance.State `json:"resonance"`

	// Timestamp is when the beacon was issued, in Unix seconds.
	Timestamp int64 `json:"timestamp"`

	// TTLSeconds is how long the beacon stays valid after issue.
	TTLSeconds int64 `json:"ttl_seconds"`

	// Capabilities advertises what the announcer can do.
	Capabilities []string `json:"capabilities,omitempty"`

	// Signature is an optional detached signature over the beacon.
	Signature []byte `json:"signature,omitempty"`
}

// IsValidAt reports whether the beacon is still valid at the given instant.
func (b *Beacon) IsValidAt(now time.Time) bool {
	return b.Timestamp != 0 && now.Unix() < b.Timestamp+b.TTLSeconds
}

// Validate checks the structural constraints every beacon must satisfy.
func (b *Beacon) Validate() error {
	if b.ID == uuid.Nil {
		return ErrMissingBeaconID
	}
	if b.Timestamp == 0 {
		return ErrZeroBeaconTimestamp
	}
	if b.TTLSeconds <= 0 {
		return ErrNonPositiveBeaconTTL
	}
	if !b.Resonance.IsFinite() {
		return fmt.Errorf("beacon %s: resonance is not finite", b.ID)
	}
	return nil
}

// EncodeBeacon serializes a beacon for the wire.
func EncodeBeacon(b *Beacon) ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode beacon: %w", err)
	}
	return data, nil
}

// DecodeBeacon parses a beacon from its wire form and validates it.
func DecodeBeacon(data []byte) (*Beacon, error) {
	var b Beacon
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode beacon: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
