package ghost

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghost-network/ghost-go/pkg/resonance"
)

// Identity is a node's ephemeral identity for one announcement.
//
// Identities are not stable: a node creates a fresh one per announcement,
// and the ID of a discovered node equals the beacon ID that announced it.
// This is a deliberate privacy property - there is no cross-session
// identifier to correlate.
type Identity struct {
	// ID uniquely identifies this announcement.
	ID uuid.UUID `json:"id"`

	// Resonance is the node's current fingerprint.
	Resonance resonance.State `json:"resonance"`

	// LastUpdate is when the identity was created or refreshed.
	LastUpdate time.Time `json:"last_update"`

	// PublicKey is an optional verification key.
	PublicKey []byte `json:"public_key,omitempty"`
}

// NewIdentity creates an identity with a fresh ID at the given fingerprint.
func NewIdentity(state resonance.State) Identity {
	return Identity{
		ID:         uuid.New(),
		Resonance:  state,
		LastUpdate: time.Now(),
	}
}

// Transaction is one logical message before masking.
//
// A transaction exists only at the two endpoints: the sender destroys it
// after packetization, the receiver hands it to the ledger collaborator
// after recovery.
type Transaction struct {
	// ID uniquely identifies the transaction.
	ID uuid.UUID `json:"id"`

	// SenderResonance is the sender's fingerprint at creation time.
	SenderResonance resonance.State `json:"sender_resonance"`

	// TargetResonance is the intended recipient's fingerprint.
	TargetResonance resonance.State `json:"target_resonance"`

	// Action is the opaque message body.
	Action []byte `json:"action"`

	// Timestamp is the creation time in Unix seconds.
	Timestamp int64 `json:"timestamp"`

	// ProofTag is an optional hash commitment over Action.
	// It is NOT a zero-knowledge proof; see package protocol.
	ProofTag []byte `json:"proof_tag,omitempty"`
}

// Packet is the only record that crosses process boundaries.
// Immutable once created.
type Packet struct {
	// ID uniquely identifies the packet.
	ID uuid.UUID `json:"id"`

	// Resonance is the target fingerprint; delivery is determined solely
	// by proximity to it.
	Resonance resonance.State `json:"resonance"`

	// SenderResonance is the sender's fingerprint, carried so the receiver
	// can recompute the masking parameters without any exchange.
	SenderResonance resonance.State `json:"sender_resonance"`

	// MaskedPayload is the XOR-masked serialized transaction.
	MaskedPayload []byte `json:"masked_payload"`

	// StegoCarrier is the carrier encoding of MaskedPayload.
	StegoCarrier []byte `json:"stego_carrier"`

	// CarrierType identifies the carrier encoding.
	CarrierType CarrierType `json:"carrier_type"`

	// ProofTag mirrors the transaction's proof tag.
	ProofTag []byte `json:"proof_tag,omitempty"`

	// Timestamp is the packetization time in Unix seconds.
	Timestamp int64 `json:"timestamp"`
}

// MatchesResonance reports whether the packet is addressed to a node at the
// given fingerprint, within epsilon.
func (p *Packet) MatchesResonance(state resonance.State, epsilon float64) bool {
	return p.Resonance.IsResonantWith(state, epsilon)
}

// VerifyIntegrity checks that the packet is internally consistent: the ID is
// set, the masked payload is non-empty, and the carrier decodes back to
// exactly the masked payload. A tampered carrier or payload fails closed.
func (p *Packet) VerifyIntegrity() bool {
	if p.ID == uuid.Nil {
		return false
	}
	if len(p.MaskedPayload) == 0 {
		return false
	}
	extracted, err := Extract(p.StegoCarrier, p.CarrierType)
	if err != nil {
		return false
	}
	if len(extracted) != len(p.MaskedPayload) {
		return false
	}
	for i := range extracted {
		if extracted[i] != p.MaskedPayload[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the packet.
func (p *Packet) Clone() *Packet {
	c := *p
	c.MaskedPayload = append([]byte(nil), p.MaskedPayload...)
	c.StegoCarrier = append([]byte(nil), p.StegoCarrier...)
	c.ProofTag = append([]byte(nil), p.ProofTag...)
	return &c
}
