package discovery

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghost-network/ghost-go/pkg/resonance"
)

// DiscoveredNode is one entry in the discovered-node table. It is keyed by
// the beacon ID that introduced it: a node that announces again under a new
// beacon ID appears as a new entry, which is the intended unlinkability.
type DiscoveredNode struct {
	// BeaconID is the announcement that introduced this node.
	BeaconID uuid.UUID

	// Resonance is the node's last announced fingerprint.
	Resonance resonance.State

	// Capabilities is the node's last advertised capability set.
	Capabilities []string

	// DiscoveredAt is when the node was first seen.
	DiscoveredAt time.Time

	// LastSeen is when the node last announced.
	LastSeen time.Time
}

// IsActiveAt reports whether the node announced within the given timeout
// before the given instant.
func (n *DiscoveredNode) IsActiveAt(now time.Time, timeout time.Duration) bool {
	return now.Sub(n.LastSeen) < timeout
}

// HasCapabilities reports whether the node advertises every capability in
// the given set.
func (n *DiscoveredNode) HasCapabilities(required []string) bool {
	for _, want := range required {
		found := false
		for _, have := range n.Capabilities {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
