package discovery

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghost-network/ghost-go/pkg/resonance"
)

// EventType classifies a rendezvous event.
type EventType uint8

const (
	// EventRendezvous is an ad-hoc meeting point.
	EventRendezvous EventType = iota

	// EventScheduled is a recurring, pre-agreed meeting point.
	EventScheduled

	// EventEmergency is a high-priority meeting point for recovery.
	EventEmergency

	// EventBackground is a low-priority ambient meeting point.
	EventBackground
)

// String returns the event type's name.
func (t EventType) String() string {
	switch t {
	case EventRendezvous:
		return "rendezvous"
	case EventScheduled:
		return "scheduled"
	case EventEmergency:
		return "emergency"
	case EventBackground:
		return "background"
	default:
		return "unknown"
	}
}

// Event is a scheduled rendezvous: a resonance pattern swept over a time
// window. Participants who evaluate the pattern at the same instant derive
// the same fingerprint.
type Event struct {
	// ID uniquely identifies the event.
	ID uuid.UUID

	// Type classifies the event.
	Type EventType

	// Pattern is the ordered sequence of fingerprints the event sweeps
	// through. Never empty.
	Pattern []resonance.State

	// StartsAt is when the event window opens.
	StartsAt time.Time

	// Duration is the length of the event window.
	Duration time.Duration
}

// IsActiveAt reports whether the event window contains the given instant.
func (e *Event) IsActiveAt(now time.Time) bool {
	return !now.Before(e.StartsAt) && now.Before(e.StartsAt.Add(e.Duration))
}

// CurrentResonanceAt returns the pattern entry in effect at the given
// instant. Each entry holds for an equal share of the window; the final
// entry covers any remainder.
func (e *Event) CurrentResonanceAt(now time.Time) resonance.State {
	elapsed := now.Sub(e.StartsAt)
	index := int(float64(elapsed) / float64(e.Duration) * float64(len(e.Pattern)))
	if index < 0 {
		index = 0
	}
	if index >= len(e.Pattern) {
		index = len(e.Pattern) - 1
	}
	return e.Pattern[index]
}
