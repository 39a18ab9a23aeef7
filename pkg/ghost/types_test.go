package ghost

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghost-network/ghost-go/pkg/resonance"
)

func testPacket(t *testing.T) *Packet {
	t.Helper()

	payload := []byte("masked bytes")
	carrier, err := Embed(payload, CarrierZeroWidth)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	return &Packet{
		ID:              uuid.New(),
		Resonance:       resonance.State{Psi: 2, Rho: 2, Omega: 2},
		SenderResonance: resonance.State{Psi: 1, Rho: 1, Omega: 1},
		MaskedPayload:   payload,
		StegoCarrier:    carrier,
		CarrierType:     CarrierZeroWidth,
		Timestamp:       time.Now().Unix(),
	}
}

func TestPacketMatchesResonance(t *testing.T) {
	p := testPacket(t)

	near := resonance.State{Psi: 2.05, Rho: 2.05, Omega: 2.05}
	if !p.MatchesResonance(near, 0.1) {
		t.Error("near state should match within 0.1")
	}

	far := resonance.State{Psi: 10, Rho: 10, Omega: 10}
	if p.MatchesResonance(far, 0.1) {
		t.Error("far state should not match")
	}
}

func TestPacketVerifyIntegrity(t *testing.T) {
	p := testPacket(t)
	if !p.VerifyIntegrity() {
		t.Fatal("untouched packet should verify")
	}

	tampered := p.Clone()
	tampered.MaskedPayload[0] ^= 0x01
	if tampered.VerifyIntegrity() {
		t.Error("payload tamper should fail verification")
	}

	truncated := p.Clone()
	truncated.StegoCarrier = truncated.StegoCarrier[:len(truncated.StegoCarrier)-3]
	if truncated.VerifyIntegrity() {
		t.Error("carrier tamper should fail verification")
	}

	empty := p.Clone()
	empty.MaskedPayload = nil
	if empty.VerifyIntegrity() {
		t.Error("empty payload should fail verification")
	}
}

func TestPacketWireFieldNames(t *testing.T) {
	data, err := EncodePacket(testPacket(t))
	if err != nil {
		t.Fatalf("EncodePacket failed: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("packet is not a JSON object: %v", err)
	}

	// Field names are the wire contract.
	for _, name := range []string{
		"id", "resonance", "sender_resonance",
		"masked_payload", "stego_carrier", "carrier_type", "timestamp",
	} {
		if _, ok := fields[name]; !ok {
			t.Errorf("wire form missing field %q", name)
		}
	}
}

func TestDecodePacketRejectsInvalid(t *testing.T) {
	if _, err := DecodePacket([]byte(`{"id":"00000000-0000-0000-0000-000000000000"}`)); err == nil {
		t.Error("packet without ID should be rejected")
	}
	if _, err := DecodePacket([]byte("not json")); err == nil {
		t.Error("malformed JSON should be rejected")
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := &Transaction{
		ID:              uuid.New(),
		SenderResonance: resonance.State{Psi: 1, Rho: 1, Omega: 1},
		TargetResonance: resonance.State{Psi: 2, Rho: 2, Omega: 2},
		Action:          []byte("transfer 100 tokens"),
		Timestamp:       time.Now().Unix(),
	}

	data, err := EncodeTransaction(tx)
	if err != nil {
		t.Fatalf("EncodeTransaction failed: %v", err)
	}
	got, err := DecodeTransaction(data)
	if err != nil {
		t.Fatalf("DecodeTransaction failed: %v", err)
	}
	if got.ID != tx.ID {
		t.Errorf("ID = %v, want %v", got.ID, tx.ID)
	}
	if string(got.Action) != string(tx.Action) {
		t.Errorf("Action = %q, want %q", got.Action, tx.Action)
	}
}
