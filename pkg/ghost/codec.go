package ghost

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Codec errors.
var (
	ErrMissingID      = errors.New("packet has no ID")
	ErrEmptyPayload   = errors.New("packet has an empty masked payload")
	ErrInvalidCarrier = errors.New("packet has an invalid carrier type")
)

// Validate checks that a packet is well-formed enough to encode.
func (p *Packet) Validate() error {
	if p.ID == uuid.Nil {
		return ErrMissingID
	}
	if len(p.MaskedPayload) == 0 {
		return ErrEmptyPayload
	}
	if !p.CarrierType.IsValid() {
		return ErrInvalidCarrier
	}
	return nil
}

// EncodePacket serializes a packet to its JSON wire form.
func EncodePacket(p *Packet) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid packet: %w", err)
	}
	return json.Marshal(p)
}

// DecodePacket deserializes a packet from its JSON wire form.
func DecodePacket(data []byte) (*Packet, error) {
	var p Packet
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode packet: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid packet: %w", err)
	}
	return &p, nil
}

// EncodeTransaction serializes a transaction. This is the byte form the
// masking transform operates on, so it is part of the wire contract.
func EncodeTransaction(tx *Transaction) ([]byte, error) {
	return json.Marshal(tx)
}

// DecodeTransaction deserializes a transaction.
func DecodeTransaction(data []byte) (*Transaction, error) {
	var tx Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	return &tx, nil
}
