package broadcast

import (
	"crypto/rand"
	"errors"
	"fmt"
	mrand "math/rand"
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
	// DefaultMaxBufferSize bounds each channel's buffer. When full, the
	// oldest packet is evicted first.
	DefaultMaxBufferSize = 100

	// DefaultReceiveTimeout is the per-poll transport timeout. Receive
	// loops until the transport reports exhaustion, so the total latency
	// stays bounded by backlog size, not by this value.
	DefaultReceiveTimeout = 50 * time.Millisecond

	// DecoyEpsilon is the fixed window of decoy channels.
	DecoyEpsilon = 0.1

	// DecoyTTL is the fixed lifetime of decoy channels.
	DecoyTTL = 300 * time.Second

	// NetworkReceiveEpsilon is the fixed window the transport receive
	// path filters with, regardless of any channel's configured window.
	// This diverges from the local-buffer path, which honors per-channel
	// windows; kept for wire compatibility with existing nodes.
	NetworkReceiveEpsilon = 0.1

	// maxDecoyPayloadSize bounds the random payload of a decoy packet.
	maxDecoyPayloadSize = 256
)

// Config holds broadcast engine configuration.
type Config struct {
	// MaxBufferSize is the per-channel buffer bound.
	MaxBufferSize int

	// ReceiveTimeout is the per-poll transport timeout.
	ReceiveTimeout time.Duration
}

// DefaultConfig returns the default broadcast configuration.
func DefaultConfig() Config {
	return Config{
		MaxBufferSize:  DefaultMaxBufferSize,
		ReceiveTimeout: DefaultReceiveTimeout,
	}
}

// Stats is a snapshot of the engine's counters.
type Stats struct {
	ChannelsCreated uint64
	PacketsSent     uint64
	PacketsReceived uint64
	DecoyPackets    uint64
}

// Engine owns the ephemeral channels and their buffers.
// Safe for concurrent use by many callers.
type Engine struct {
	config    Config
	transport transport.Transport // nil means local-only mode
	logger    log.Logger
	timeNow   func() time.Time

	chMu     sync.RWMutex
	channels map[uuid.UUID]Channel

	bufMu   sync.RWMutex
	buffers map[uuid.UUID][]*ghost.Packet

	statsMu sync.Mutex
	stats   Stats
}

// New creates a local-only engine: packets stay in channel buffers.
func New(config Config) *Engine {
	return NewWithTransport(config, nil)
}

// NewWithTransport creates an engine that hands packets to the given
// transport for network fan-out and polls it on receive.
func NewWithTransport(config Config, tr transport.Transport) *Engine {
	if config.MaxBufferSize <= 0 {
		config.MaxBufferSize = DefaultMaxBufferSize
	}
	if config.ReceiveTimeout <= 0 {
		config.ReceiveTimeout = DefaultReceiveTimeout
	}
	return &Engine{
		config:    config,
		transport: tr,
		logger:    log.NoopLogger{},
		timeNow:   time.Now,
		channels:  make(map[uuid.UUID]Channel),
		buffers:   make(map[uuid.UUID][]*ghost.Packet),
	}
}

// SetLogger installs a protocol event logger. Pass nil to disable.
func (e *Engine) SetLogger(l log.Logger) {
	if l == nil {
		l = log.NoopLogger{}
	}
	e.logger = l
}

// CreateChannel allocates a channel centered on the given fingerprint with
// an empty bounded buffer.
func (e *Engine) CreateChannel(state resonance.State, epsilon float64, ttl time.Duration) uuid.UUID {
	return e.createChannel(state, epsilon, ttl, false)
}

// CreateDecoyChannel allocates a decoy channel with the fixed decoy window
// and lifetime.
func (e *Engine) CreateDecoyChannel(state resonance.State) uuid.UUID {
	return e.createChannel(state, DecoyEpsilon, DecoyTTL, true)
}

func (e *Engine) createChannel(state resonance.State, epsilon float64, ttl time.Duration, decoy bool) uuid.UUID {
	ch := Channel{
		ID:        uuid.New(),
		Resonance: state,
		Epsilon:   epsilon,
		CreatedAt: e.timeNow(),
		TTL:       ttl,
		IsDecoy:   decoy,
	}

	e.chMu.Lock()
	e.channels[ch.ID] = ch
	e.chMu.Unlock()

	e.bufMu.Lock()
	e.buffers[ch.ID] = nil
	e.bufMu.Unlock()

	e.statsMu.Lock()
	e.stats.ChannelsCreated++
	e.statsMu.Unlock()

	ev := log.NewEvent(log.LayerBroadcast, log.CategoryChannel)
	ev.ChannelID = ch.ID.String()
	ev.Decoy = decoy
	ev.Detail = "channel created"
	e.logger.Log(ev)

	return ch.ID
}

// Broadcast routes the packet to every alive channel whose window matches
// the packet's target fingerprint and returns the matched channel IDs.
//
// With a transport, the packet is handed to the network and the matched
// list is informational only: it does not gate network delivery. Without
// one, the packet is appended to every matched channel's buffer, evicting
// the oldest entry when a buffer is full.
func (e *Engine) Broadcast(packet *ghost.Packet) ([]uuid.UUID, error) {
	now := e.timeNow()

	e.chMu.RLock()
	var matched []uuid.UUID
	for id, ch := range e.channels {
		if ch.IsAliveAt(now) && ch.Matches(packet.Resonance) {
			matched = append(matched, id)
		}
	}
	e.chMu.RUnlock()

	if e.transport != nil {
		if err := e.transport.Broadcast(packet); err != nil {
			e.logTransportError("broadcast", err)
			return matched, fmt.Errorf("transport broadcast failed: %w", err)
		}
	} else {
		e.bufMu.Lock()
		for _, id := range matched {
			buf := e.buffers[id]
			if len(buf) >= e.config.MaxBufferSize {
				buf = buf[1:]
			}
			e.buffers[id] = append(buf, packet.Clone())
		}
		e.bufMu.Unlock()
	}

	e.statsMu.Lock()
	e.stats.PacketsSent++
	e.statsMu.Unlock()

	ev := log.NewEvent(log.LayerBroadcast, log.CategoryPacket)
	ev.PacketID = packet.ID.String()
	ev.Detail = fmt.Sprintf("broadcast to %d channels", len(matched))
	e.logger.Log(ev)

	return matched, nil
}

// Receive collects the packets addressed to the given node.
//
// With a transport, it drains the backlog with bounded per-poll timeouts
// and filters each packet against the node with the fixed network window.
// Without one, it drains the buffers of every channel matching the node and
// keeps the packets that still match on a second check against the same
// channel's window.
func (e *Engine) Receive(node ghost.Identity) ([]*ghost.Packet, error) {
	var packets []*ghost.Packet

	if e.transport != nil {
		for {
			_, packet, err := e.transport.Receive(e.config.ReceiveTimeout)
			if err != nil {
				if errors.Is(err, transport.ErrExhausted) {
					break
				}
				e.logTransportError("receive", err)
				return nil, fmt.Errorf("transport receive failed: %w", err)
			}
			if packet.MatchesResonance(node.Resonance, NetworkReceiveEpsilon) {
				packets = append(packets, packet)
			}
		}
	} else {
		now := e.timeNow()

		e.chMu.RLock()
		matched := make(map[uuid.UUID]float64)
		for id, ch := range e.channels {
			if ch.IsAliveAt(now) && ch.Matches(node.Resonance) {
				matched[id] = ch.Epsilon
			}
		}
		e.chMu.RUnlock()

		e.bufMu.Lock()
		for id, epsilon := range matched {
			for _, packet := range e.buffers[id] {
				if packet.MatchesResonance(node.Resonance, epsilon) {
					packets = append(packets, packet)
				}
			}
			e.buffers[id] = nil
		}
		e.bufMu.Unlock()
	}

	e.statsMu.Lock()
	e.stats.PacketsReceived += uint64(len(packets))
	e.statsMu.Unlock()

	return packets, nil
}

// GenerateDecoyTraffic creates count decoy channels at random fingerprints
// and broadcasts one synthetic packet into each.
func (e *Engine) GenerateDecoyTraffic(count int) error {
	for i := 0; i < count; i++ {
		state := resonance.Random()
		e.CreateDecoyChannel(state)

		payload := make([]byte, 1+mrand.Intn(maxDecoyPayloadSize))
		if _, err := rand.Read(payload); err != nil {
			return fmt.Errorf("failed to generate decoy payload: %w", err)
		}

		packet := &ghost.Packet{
			ID:              uuid.New(),
			Resonance:       state,
			SenderResonance: resonance.Random(),
			MaskedPayload:   payload,
			StegoCarrier:    append([]byte(nil), payload...),
			CarrierType:     ghost.CarrierRaw,
			Timestamp:       e.timeNow().Unix(),
		}
		if _, err := e.Broadcast(packet); err != nil {
			return err
		}

		e.statsMu.Lock()
		e.stats.DecoyPackets++
		e.statsMu.Unlock()
	}
	return nil
}

// CleanupExpiredChannels removes every channel that is no longer alive,
// along with its buffer, and returns the removed count. Alive channels are
// never removed.
func (e *Engine) CleanupExpiredChannels() int {
	now := e.timeNow()

	e.chMu.Lock()
	var dead []uuid.UUID
	for id, ch := range e.channels {
		if !ch.IsAliveAt(now) {
			dead = append(dead, id)
			delete(e.channels, id)
		}
	}
	e.chMu.Unlock()

	e.bufMu.Lock()
	for _, id := range dead {
		delete(e.buffers, id)
	}
	e.bufMu.Unlock()

	if len(dead) > 0 {
		ev := log.NewEvent(log.LayerBroadcast, log.CategoryState)
		ev.Detail = fmt.Sprintf("dissolved %d expired channels", len(dead))
		e.logger.Log(ev)
	}
	return len(dead)
}

// ActiveChannels returns copies of every alive channel.
func (e *Engine) ActiveChannels() []Channel {
	now := e.timeNow()

	e.chMu.RLock()
	defer e.chMu.RUnlock()

	channels := make([]Channel, 0, len(e.channels))
	for _, ch := range e.channels {
		if ch.IsAliveAt(now) {
			channels = append(channels, ch)
		}
	}
	return channels
}

// ChannelCount returns the number of alive channels.
func (e *Engine) ChannelCount() int {
	now := e.timeNow()

	e.chMu.RLock()
	defer e.chMu.RUnlock()

	count := 0
	for _, ch := range e.channels {
		if ch.IsAliveAt(now) {
			count++
		}
	}
	return count
}

// BufferSize returns the number of buffered packets for a channel, or 0 if
// the channel is unknown.
func (e *Engine) BufferSize(id uuid.UUID) int {
	e.bufMu.RLock()
	defer e.bufMu.RUnlock()
	return len(e.buffers[id])
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

func (e *Engine) logTransportError(op string, err error) {
	ev := log.NewEvent(log.LayerTransport, log.CategoryError)
	ev.Detail = op
	ev.Error = err.Error()
	e.logger.Log(ev)
}
