package protocol

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ghost-network/ghost-go/pkg/ghost"
	"github.com/ghost-network/ghost-go/pkg/log"
	"github.com/ghost-network/ghost-go/pkg/resonance"
)

// Default protocol parameters.
const (
	// DefaultEpsilon is the resonance window for the "addressed to me"
	// filter on receive.
	DefaultEpsilon = 0.1

	// DefaultMaxActionSize bounds the action bytes of one transaction.
	DefaultMaxActionSize = 4096

	// DefaultMaxClockSkew is how far in the future a timestamp may be.
	DefaultMaxClockSkew = 60 * time.Second

	// DefaultMaxPacketAge is how old a timestamp may be before the packet
	// is rejected as stale (replay window).
	DefaultMaxPacketAge = 24 * time.Hour
)

// Config holds protocol configuration.
type Config struct {
	// Epsilon is the resonance window used by the receive filter.
	Epsilon float64

	// MaxActionSize is the maximum action length in bytes.
	MaxActionSize int

	// AttachProofs controls whether created transactions carry a proof tag.
	AttachProofs bool

	// VerifyProofs controls whether carried proof tags are checked on
	// receive.
	VerifyProofs bool

	// MaxClockSkew is the future-timestamp tolerance.
	MaxClockSkew time.Duration

	// MaxPacketAge is the staleness/replay rejection window.
	MaxPacketAge time.Duration
}

// DefaultConfig returns the default protocol configuration.
func DefaultConfig() Config {
	return Config{
		Epsilon:       DefaultEpsilon,
		MaxActionSize: DefaultMaxActionSize,
		AttachProofs:  true,
		VerifyProofs:  true,
		MaxClockSkew:  DefaultMaxClockSkew,
		MaxPacketAge:  DefaultMaxPacketAge,
	}
}

// Ledger durably commits recovered transactions. Implemented outside this
// module; the returned block ID is opaque.
type Ledger interface {
	CommitToLedger(tx *ghost.Transaction) (string, error)
}

// Protocol orchestrates the message lifecycle. Safe for concurrent use:
// it holds no mutable state beyond configuration.
type Protocol struct {
	config  Config
	logger  log.Logger
	timeNow func() time.Time
}

// New creates a protocol instance with the given configuration.
func New(config Config) *Protocol {
	if config.Epsilon <= 0 {
		config.Epsilon = DefaultEpsilon
	}
	if config.MaxActionSize <= 0 {
		config.MaxActionSize = DefaultMaxActionSize
	}
	if config.MaxClockSkew <= 0 {
		config.MaxClockSkew = DefaultMaxClockSkew
	}
	if config.MaxPacketAge <= 0 {
		config.MaxPacketAge = DefaultMaxPacketAge
	}
	return &Protocol{
		config:  config,
		logger:  log.NoopLogger{},
		timeNow: time.Now,
	}
}

// SetLogger installs a protocol event logger. Pass nil to disable.
func (p *Protocol) SetLogger(l log.Logger) {
	if l == nil {
		l = log.NoopLogger{}
	}
	p.logger = l
}

// CreateTransaction builds a transaction addressed from sender to target.
// Fails if the action exceeds the configured maximum size.
func (p *Protocol) CreateTransaction(sender, target resonance.State, action []byte) (*ghost.Transaction, error) {
	if len(action) > p.config.MaxActionSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrActionTooLarge, len(action), p.config.MaxActionSize)
	}

	tx := &ghost.Transaction{
		ID:              uuid.New(),
		SenderResonance: sender,
		TargetResonance: target,
		Action:          append([]byte(nil), action...),
		Timestamp:       p.timeNow().Unix(),
	}
	if p.config.AttachProofs {
		tx.ProofTag = ProofTag(tx.Action)
	}
	return tx, nil
}

// MaskTransaction serializes the transaction and applies the masking
// transform.
func (p *Protocol) MaskTransaction(tx *ghost.Transaction, params MaskingParams) ([]byte, error) {
	data, err := ghost.EncodeTransaction(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return Mask(data, params), nil
}

// EmbedTransaction hides the masked bytes in the given carrier type.
func (p *Protocol) EmbedTransaction(masked []byte, carrierType ghost.CarrierType) ([]byte, error) {
	return ghost.Embed(masked, carrierType)
}

// CreatePacket assembles the wire packet for a masked, embedded transaction.
func (p *Protocol) CreatePacket(tx *ghost.Transaction, masked, carrier []byte, carrierType ghost.CarrierType) *ghost.Packet {
	return &ghost.Packet{
		ID:              uuid.New(),
		Resonance:       tx.TargetResonance,
		SenderResonance: tx.SenderResonance,
		MaskedPayload:   append([]byte(nil), masked...),
		StegoCarrier:    append([]byte(nil), carrier...),
		CarrierType:     carrierType,
		ProofTag:        append([]byte(nil), tx.ProofTag...),
		Timestamp:       p.timeNow().Unix(),
	}
}

// PreparePacket runs steps 1-4 in one call: create, mask, embed, packetize.
// The transaction is returned alongside the packet so the caller can destroy
// it after hand-off.
func (p *Protocol) PreparePacket(sender, target resonance.State, action []byte, carrierType ghost.CarrierType) (*ghost.Packet, *ghost.Transaction, error) {
	tx, err := p.CreateTransaction(sender, target, action)
	if err != nil {
		return nil, nil, err
	}
	masked, err := p.MaskTransaction(tx, MaskingParamsFromResonance(sender, target))
	if err != nil {
		return nil, nil, err
	}
	carrier, err := p.EmbedTransaction(masked, carrierType)
	if err != nil {
		return nil, nil, err
	}
	return p.CreatePacket(tx, masked, carrier, carrierType), tx, nil
}

// ReceivePacket runs the verified-reception pipeline against a packet
// observed by a node at nodeState.
//
// It returns (nil, nil) when the packet simply is not addressed to the node:
// that is the normal case for most observed traffic, not an error. Every
// other failed step returns a typed error.
func (p *Protocol) ReceivePacket(packet *ghost.Packet, nodeState resonance.State) (*ghost.Transaction, error) {
	now := p.timeNow()

	if err := p.validateTimestamp(packet.Timestamp, now); err != nil {
		return nil, err
	}
	if !packet.Resonance.IsFinite() || !packet.SenderResonance.IsFinite() {
		return nil, ErrNonFiniteResonance
	}
	if len(packet.MaskedPayload) == 0 {
		return nil, ErrEmptyPayload
	}

	if !packet.MatchesResonance(nodeState, p.config.Epsilon) {
		// Not addressed to this node. Silent ignore.
		return nil, nil
	}

	if !packet.VerifyIntegrity() {
		p.logError(packet, "integrity verification failed")
		return nil, ErrIntegrityFailure
	}

	// The keystream derives from the packet's own coordinates rather than
	// the node's state, so a receiver that matches within epsilon but is
	// not bit-identical to the target recovers the same keystream the
	// sender used.
	params := MaskingParamsFromResonance(packet.SenderResonance, packet.Resonance)

	extracted, err := ghost.Extract(packet.StegoCarrier, packet.CarrierType)
	if err != nil {
		return nil, fmt.Errorf("carrier extraction failed: %w", err)
	}

	plain := Unmask(extracted, params)
	tx, err := ghost.DecodeTransaction(plain)
	if err != nil {
		return nil, fmt.Errorf("transaction recovery failed: %w", err)
	}

	if err := p.validateTimestamp(tx.Timestamp, now); err != nil {
		return nil, fmt.Errorf("embedded transaction rejected: %w", err)
	}

	if len(tx.ProofTag) > 0 && p.config.VerifyProofs {
		if !bytes.Equal(ProofTag(tx.Action), tx.ProofTag) {
			p.logError(packet, "proof tag mismatch")
			return nil, ErrProofMismatch
		}
	}

	ev := log.NewEvent(log.LayerProtocol, log.CategoryPacket)
	ev.PacketID = packet.ID.String()
	ev.Detail = "transaction recovered"
	p.logger.Log(ev)

	return tx, nil
}

// ReceiveAndCommit runs the receive pipeline and hands a recovered
// transaction to the ledger collaborator, returning the opaque block ID.
// A "not for me" packet yields ("", nil, nil), mirroring ReceivePacket.
func (p *Protocol) ReceiveAndCommit(packet *ghost.Packet, nodeState resonance.State, ledger Ledger) (string, *ghost.Transaction, error) {
	tx, err := p.ReceivePacket(packet, nodeState)
	if err != nil || tx == nil {
		return "", nil, err
	}
	blockID, err := ledger.CommitToLedger(tx)
	if err != nil {
		return "", nil, fmt.Errorf("ledger commit failed: %w", err)
	}
	return blockID, tx, nil
}

func (p *Protocol) validateTimestamp(ts int64, now time.Time) error {
	switch {
	case ts == 0:
		return ErrZeroTimestamp
	case ts > now.Add(p.config.MaxClockSkew).Unix():
		return ErrFutureTimestamp
	case ts < now.Add(-p.config.MaxPacketAge).Unix():
		return ErrStaleTimestamp
	}
	return nil
}

func (p *Protocol) logError(packet *ghost.Packet, msg string) {
	ev := log.NewEvent(log.LayerProtocol, log.CategoryError)
	ev.PacketID = packet.ID.String()
	ev.Error = msg
	p.logger.Log(ev)
}
