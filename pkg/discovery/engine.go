package discovery

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ghost-network/ghost-go/pkg/ghost"
	"github.com/ghost-network/ghost-go/pkg/log"
	"github.com/ghost-network/ghost-go/pkg/resonance"
	"github.com/ghost-network/ghost-go/pkg/transport"
)

// Default engine parameters.
const (
	// DefaultBeaconTTL is the lifetime of an announced beacon.
	DefaultBeaconTTL = 300 * time.Second

	// DefaultNodeTimeout is how long a discovered node stays active after
	// its last announcement.
	DefaultNodeTimeout = 600 * time.Second

	// DefaultDiscoveryEpsilon is the matching window for FindNodes.
	// Discovery is deliberately wider than packet delivery: finding a
	// neighborhood is useful, delivering into one is not.
	DefaultDiscoveryEpsilon = 0.5
)

// Engine errors.
var (
	// ErrExpiredBeacon is returned when a received beacon is past its TTL.
	ErrExpiredBeacon = errors.New("beacon has expired")

	// ErrUnknownEvent is returned when an event ID is not registered.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrEmptyPattern is returned when an event has no pattern entries.
	ErrEmptyPattern = errors.New("event pattern is empty")

	// ErrNonPositiveDuration is returned when an event window has no
	// positive length.
	ErrNonPositiveDuration = errors.New("event duration must be positive")
)

// Config holds discovery engine configuration.
type Config struct {
	// BeaconTTL is the lifetime stamped onto announced beacons.
	BeaconTTL time.Duration

	// NodeTimeout is how long a node stays active without announcing.
	NodeTimeout time.Duration

	// DiscoveryEpsilon is the matching window for node lookups.
	DiscoveryEpsilon float64

	// ReceiveTimeout is the per-poll transport timeout for PollBeacons.
	ReceiveTimeout time.Duration
}

// DefaultConfig returns the default discovery configuration.
func DefaultConfig() Config {
	return Config{
		BeaconTTL:        DefaultBeaconTTL,
		NodeTimeout:      DefaultNodeTimeout,
		DiscoveryEpsilon: DefaultDiscoveryEpsilon,
		ReceiveTimeout:   50 * time.Millisecond,
	}
}

// Stats is a snapshot of the engine's counters.
type Stats struct {
	BeaconsSent        uint64
	BeaconsReceived    uint64
	NodesDiscovered    uint64
	EventsParticipated uint64
}

// Engine owns the beacon table, the discovered-node table, and the
// rendezvous event registry. Safe for concurrent use by many callers.
type Engine struct {
	config    Config
	transport transport.Transport // nil means local-only mode
	logger    log.Logger
	timeNow   func() time.Time

	beaconMu sync.RWMutex
	beacons  map[uuid.UUID]*Beacon

	nodeMu sync.RWMutex
	nodes  map[uuid.UUID]*DiscoveredNode

	eventMu sync.RWMutex
	events  map[uuid.UUID]*Event

	statsMu sync.Mutex
	stats   Stats
}

// New creates a local-only engine: beacons are registered directly via
// ReceiveBeacon and Announce does not reach a network.
func New(config Config) *Engine {
	return NewWithTransport(config, nil)
}

// NewWithTransport creates an engine that broadcasts announcements over the
// given transport and polls it for foreign beacons.
func NewWithTransport(config Config, tr transport.Transport) *Engine {
	if config.BeaconTTL <= 0 {
		config.BeaconTTL = DefaultBeaconTTL
	}
	if config.NodeTimeout <= 0 {
		config.NodeTimeout = DefaultNodeTimeout
	}
	if config.DiscoveryEpsilon <= 0 {
		config.DiscoveryEpsilon = DefaultDiscoveryEpsilon
	}
	if config.ReceiveTimeout <= 0 {
		config.ReceiveTimeout = 50 * time.Millisecond
	}
	return &Engine{
		config:    config,
		transport: tr,
		logger:    log.NoopLogger{},
		timeNow:   time.Now,
		beacons:   make(map[uuid.UUID]*Beacon),
		nodes:     make(map[uuid.UUID]*DiscoveredNode),
		events:    make(map[uuid.UUID]*Event),
	}
}

// SetLogger installs a protocol event logger. Pass nil to disable.
func (e *Engine) SetLogger(l log.Logger) {
	if l == nil {
		l = log.NoopLogger{}
	}
	e.logger = l
}

// Announce issues a fresh beacon for the given fingerprint and capability
// set and stores it locally. Each call mints a new beacon ID. With a
// transport the beacon also travels inside a self-addressed raw packet;
// without one, distributing the returned beacon is the caller's business.
func (e *Engine) Announce(state resonance.State, capabilities []string) (*Beacon, error) {
	beacon := &Beacon{
		ID:           uuid.New(),
		Resonance:    state,
		Timestamp:    e.timeNow().Unix(),
		TTLSeconds:   int64(e.config.BeaconTTL / time.Second),
		Capabilities: capabilities,
	}
	if err := beacon.Validate(); err != nil {
		return nil, err
	}

	e.beaconMu.Lock()
	e.beacons[beacon.ID] = beacon
	e.beaconMu.Unlock()

	if e.transport != nil {
		payload, err := EncodeBeacon(beacon)
		if err != nil {
			return nil, err
		}
		// Self-addressed: the beacon targets the announcer's own
		// fingerprint, so exactly the nodes near it pick it up.
		packet := &ghost.Packet{
			ID:              beacon.ID,
			Resonance:       state,
			SenderResonance: state,
			MaskedPayload:   payload,
			StegoCarrier:    append([]byte(nil), payload...),
			CarrierType:     ghost.CarrierRaw,
			Timestamp:       beacon.Timestamp,
		}
		if err := e.transport.Broadcast(packet); err != nil {
			e.logError("announce", err)
			return nil, fmt.Errorf("failed to broadcast beacon: %w", err)
		}
	}

	e.statsMu.Lock()
	e.stats.BeaconsSent++
	e.statsMu.Unlock()

	ev := log.NewEvent(log.LayerDiscovery, log.CategoryBeacon)
	ev.BeaconID = beacon.ID.String()
	ev.Detail = "beacon announced"
	e.logger.Log(ev)

	return beacon, nil
}

// PollBeacons drains the transport backlog, registers every decodable
// beacon, and returns the number accepted. Malformed or expired payloads
// are skipped, not fatal: decoy traffic shares the same wire.
func (e *Engine) PollBeacons() (int, error) {
	if e.transport == nil {
		return 0, nil
	}

	accepted := 0
	for {
		_, packet, err := e.transport.Receive(e.config.ReceiveTimeout)
		if err != nil {
			if errors.Is(err, transport.ErrExhausted) {
				break
			}
			e.logError("poll", err)
			return accepted, fmt.Errorf("transport receive failed: %w", err)
		}

		beacon, err := DecodeBeacon(packet.MaskedPayload)
		if err != nil {
			continue
		}
		if err := e.ReceiveBeacon(beacon); err != nil {
			continue
		}
		accepted++
	}
	return accepted, nil
}

// ReceiveBeacon registers a beacon and upserts the discovered-node table.
// An expired beacon is rejected without mutating any state.
func (e *Engine) ReceiveBeacon(beacon *Beacon) error {
	if err := beacon.Validate(); err != nil {
		return err
	}

	now := e.timeNow()
	if !beacon.IsValidAt(now) {
		return ErrExpiredBeacon
	}

	e.beaconMu.Lock()
	e.beacons[beacon.ID] = beacon
	e.beaconMu.Unlock()

	isNew := false
	e.nodeMu.Lock()
	if node, ok := e.nodes[beacon.ID]; ok {
		node.Resonance = beacon.Resonance
		node.Capabilities = beacon.Capabilities
		node.LastSeen = now
	} else {
		isNew = true
		e.nodes[beacon.ID] = &DiscoveredNode{
			BeaconID:     beacon.ID,
			Resonance:    beacon.Resonance,
			Capabilities: beacon.Capabilities,
			DiscoveredAt: now,
			LastSeen:     now,
		}
	}
	e.nodeMu.Unlock()

	e.statsMu.Lock()
	e.stats.BeaconsReceived++
	if isNew {
		e.stats.NodesDiscovered++
	}
	e.statsMu.Unlock()

	ev := log.NewEvent(log.LayerDiscovery, log.CategoryBeacon)
	ev.BeaconID = beacon.ID.String()
	ev.Detail = "beacon received"
	e.logger.Log(ev)

	return nil
}

// FindNodes returns the active nodes whose fingerprint falls within the
// discovery window around the given state.
func (e *Engine) FindNodes(state resonance.State) []DiscoveredNode {
	now := e.timeNow()

	e.nodeMu.RLock()
	defer e.nodeMu.RUnlock()

	var found []DiscoveredNode
	for _, node := range e.nodes {
		if node.IsActiveAt(now, e.config.NodeTimeout) &&
			node.Resonance.IsResonantWith(state, e.config.DiscoveryEpsilon) {
			found = append(found, *node)
		}
	}
	return found
}

// FindNodesWithCapabilities returns the active nodes that advertise every
// required capability, regardless of resonance proximity.
func (e *Engine) FindNodesWithCapabilities(required []string) []DiscoveredNode {
	var found []DiscoveredNode
	for _, node := range e.GetActiveNodes() {
		if node.HasCapabilities(required) {
			found = append(found, node)
		}
	}
	return found
}

// GetActiveNodes returns every node that announced within the node timeout.
func (e *Engine) GetActiveNodes() []DiscoveredNode {
	now := e.timeNow()

	e.nodeMu.RLock()
	defer e.nodeMu.RUnlock()

	var active []DiscoveredNode
	for _, node := range e.nodes {
		if node.IsActiveAt(now, e.config.NodeTimeout) {
			active = append(active, *node)
		}
	}
	return active
}

// CreateEvent registers a rendezvous event and returns its ID.
func (e *Engine) CreateEvent(eventType EventType, pattern []resonance.State, startsAt time.Time, duration time.Duration) (uuid.UUID, error) {
	if len(pattern) == 0 {
		return uuid.Nil, ErrEmptyPattern
	}
	if duration <= 0 {
		return uuid.Nil, ErrNonPositiveDuration
	}
	for _, state := range pattern {
		if !state.IsFinite() {
			return uuid.Nil, fmt.Errorf("pattern entry is not finite")
		}
	}

	event := &Event{
		ID:       uuid.New(),
		Type:     eventType,
		Pattern:  append([]resonance.State(nil), pattern...),
		StartsAt: startsAt,
		Duration: duration,
	}

	e.eventMu.Lock()
	e.events[event.ID] = event
	e.eventMu.Unlock()

	ev := log.NewEvent(log.LayerDiscovery, log.CategoryState)
	ev.Detail = fmt.Sprintf("event %s registered (%s)", event.ID, eventType)
	e.logger.Log(ev)

	return event.ID, nil
}

// GetEvent returns the event with the given ID, or nil if unknown.
func (e *Engine) GetEvent(id uuid.UUID) *Event {
	e.eventMu.RLock()
	defer e.eventMu.RUnlock()
	return e.events[id]
}

// ParticipateInEvent derives the fingerprint in effect for the event right
// now. It returns (nil, nil) when the event exists but its window is not
// open, and ErrUnknownEvent when the ID is not registered.
func (e *Engine) ParticipateInEvent(id uuid.UUID) (*resonance.State, error) {
	e.eventMu.RLock()
	event, ok := e.events[id]
	e.eventMu.RUnlock()
	if !ok {
		return nil, ErrUnknownEvent
	}

	now := e.timeNow()
	if !event.IsActiveAt(now) {
		return nil, nil
	}

	state := event.CurrentResonanceAt(now)

	e.statsMu.Lock()
	e.stats.EventsParticipated++
	e.statsMu.Unlock()

	return &state, nil
}

// Cleanup removes expired beacons and timed-out nodes and returns how many
// of each were removed. Events are kept: past events stay queryable.
func (e *Engine) Cleanup() (beacons, nodes int) {
	now := e.timeNow()

	e.beaconMu.Lock()
	for id, beacon := range e.beacons {
		if !beacon.IsValidAt(now) {
			delete(e.beacons, id)
			beacons++
		}
	}
	e.beaconMu.Unlock()

	e.nodeMu.Lock()
	for id, node := range e.nodes {
		if !node.IsActiveAt(now, e.config.NodeTimeout) {
			delete(e.nodes, id)
			nodes++
		}
	}
	e.nodeMu.Unlock()

	if beacons > 0 || nodes > 0 {
		ev := log.NewEvent(log.LayerDiscovery, log.CategoryState)
		ev.Detail = fmt.Sprintf("cleanup removed %d beacons, %d nodes", beacons, nodes)
		e.logger.Log(ev)
	}
	return beacons, nodes
}

// NodeCount returns the total number of table entries, active or not.
func (e *Engine) NodeCount() int {
	e.nodeMu.RLock()
	defer e.nodeMu.RUnlock()
	return len(e.nodes)
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

// ResetStats zeroes all counters.
func (e *Engine) ResetStats() {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.stats = Stats{}
}

func (e *Engine) logError(op string, err error) {
	ev := log.NewEvent(log.LayerDiscovery, log.CategoryError)
	ev.Detail = op
	ev.Error = err.Error()
	e.logger.Log(ev)
}
