package protocol

import (
	"bytes"
	"testing"

	"github.com/ghost-network/ghost-go/pkg/resonance"
)

func TestMaskIsItsOwnInverse(t *testing.T) {
	params := MaskingParamsFromSeed([]byte("test seed"))

	payloads := [][]byte{
		[]byte("transfer 100 tokens"),
		{0x00, 0x00, 0x00},
		bytes.Repeat([]byte{0xAB}, 100), // longer than one keystream block
		{},
	}
	for _, payload := range payloads {
		masked := Mask(payload, params)
		if got := Unmask(masked, params); !bytes.Equal(got, payload) {
			t.Errorf("unmask(mask(%x)) = %x", payload, got)
		}
	}
}

func TestMaskActuallyTransforms(t *testing.T) {
	params := MaskingParamsFromSeed([]byte("another seed"))
	payload := []byte("visible text")

	if bytes.Equal(Mask(payload, params), payload) {
		t.Error("masked bytes should differ from the payload")
	}
}

func TestMaskingParamsFromSeedDeterministic(t *testing.T) {
	a := MaskingParamsFromSeed([]byte("seed"))
	b := MaskingParamsFromSeed([]byte("seed"))

	if !bytes.Equal(a.Seed, b.Seed) || !bytes.Equal(a.Phase, b.Phase) {
		t.Error("equal seeds should derive equal params")
	}
	if bytes.Equal(a.Seed, a.Phase) {
		t.Error("phase should differ from seed")
	}
}

func TestMaskingParamsFromResonanceAgreement(t *testing.T) {
	sender := resonance.State{Psi: 1, Rho: 1, Omega: 1}
	target := resonance.State{Psi: 2, Rho: 2, Omega: 2}

	// One party computes from (sender, target); the other recomputes from
	// the same two values as carried in the packet.
	a := MaskingParamsFromResonance(sender, target)
	b := MaskingParamsFromResonance(sender, target)
	if !bytes.Equal(a.Seed, b.Seed) || !bytes.Equal(a.Phase, b.Phase) {
		t.Error("both parties should derive identical params")
	}

	// Different endpoints derive different params.
	c := MaskingParamsFromResonance(sender, resonance.State{Psi: 3})
	if bytes.Equal(a.Seed, c.Seed) {
		t.Error("different targets should derive different params")
	}
}

func TestProofTagBindsAction(t *testing.T) {
	tag := ProofTag([]byte("transfer 100 tokens"))
	same := ProofTag([]byte("transfer 100 tokens"))
	other := ProofTag([]byte("transfer 101 tokens"))

	if !bytes.Equal(tag, same) {
		t.Error("proof tag should be deterministic")
	}
	if bytes.Equal(tag, other) {
		t.Error("proof tag should change with the action")
	}
}
