package broadcast

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghost-network/ghost-go/pkg/resonance"
)

// Channel is an ephemeral, resonance-keyed mailbox.
//
// A channel is alive strictly before CreatedAt+TTL. Once dead it is
// permanently eligible for removal; it is never resurrected.
type Channel struct {
	// ID uniquely identifies the channel.
	ID uuid.UUID

	// Resonance is the channel's center fingerprint.
	Resonance resonance.State

	// Epsilon is the channel's matching window around the center.
	Epsilon float64

	// CreatedAt is when the channel was allocated.
	CreatedAt time.Time

	// TTL is how long the channel stays alive after creation.
	TTL time.Duration

	// IsDecoy marks channels created as cover traffic.
	IsDecoy bool
}

// IsAliveAt reports whether the channel is alive at the given instant.
func (c Channel) IsAliveAt(now time.Time) bool {
	return now.Before(c.CreatedAt.Add(c.TTL))
}

// IsAlive reports whether the channel is alive right now.
func (c Channel) IsAlive() bool {
	return c.IsAliveAt(time.Now())
}

// Matches reports whether a target fingerprint falls within the channel's
// window.
func (c Channel) Matches(state resonance.State) bool {
	return c.Resonance.IsResonantWith(state, c.Epsilon)
}
