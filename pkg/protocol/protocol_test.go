package protocol

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ghost-network/ghost-go/pkg/ghost"
	"github.com/ghost-network/ghost-go/pkg/resonance"
)

var (
	testSender = resonance.State{Psi: 1.0, Rho: 1.0, Omega: 1.0}
	testTarget = resonance.State{Psi: 2.0, Rho: 2.0, Omega: 2.0}
)

func TestCreateTransaction(t *testing.T) {
	p := New(DefaultConfig())

	tx, err := p.CreateTransaction(testSender, testTarget, []byte("transfer 100 tokens"))
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if tx.Timestamp == 0 {
		t.Error("transaction should be timestamped")
	}
	if len(tx.ProofTag) == 0 {
		t.Error("proof tag should be attached by default")
	}
	if !bytes.Equal(tx.ProofTag, ProofTag(tx.Action)) {
		t.Error("proof tag should commit to the action")
	}
}

func TestCreateTransactionActionTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxActionSize = 8
	p := New(cfg)

	_, err := p.CreateTransaction(testSender, testTarget, []byte("far too large"))
	if !errors.Is(err, ErrActionTooLarge) {
		t.Errorf("error = %v, want ErrActionTooLarge", err)
	}
}

// TestLifecycleNearMatchRecovery walks the full pipeline: a receiver close
// to the target (but not identical) must recover the original transaction.
func TestLifecycleNearMatchRecovery(t *testing.T) {
	for _, carrierType := range []ghost.CarrierType{
		ghost.CarrierRaw, ghost.CarrierZeroWidth, ghost.CarrierImageLSB,
	} {
		t.Run(carrierType.String(), func(t *testing.T) {
			p := New(DefaultConfig())
			action := []byte("transfer 100 tokens")

			packet, tx, err := p.PreparePacket(testSender, testTarget, action, carrierType)
			if err != nil {
				t.Fatalf("PreparePacket failed: %v", err)
			}

			receiver := resonance.State{Psi: 2.05, Rho: 2.05, Omega: 2.05}
			got, err := p.ReceivePacket(packet, receiver)
			if err != nil {
				t.Fatalf("ReceivePacket failed: %v", err)
			}
			if got == nil {
				t.Fatal("near-match receiver should recover the transaction")
			}
			if got.ID != tx.ID {
				t.Errorf("recovered ID = %v, want %v", got.ID, tx.ID)
			}
			if !bytes.Equal(got.Action, action) {
				t.Errorf("recovered action = %q, want %q", got.Action, action)
			}
		})
	}
}

func TestReceivePacketNotForMe(t *testing.T) {
	p := New(DefaultConfig())

	packet, _, err := p.PreparePacket(testSender, testTarget, []byte("transfer 100 tokens"), ghost.CarrierRaw)
	if err != nil {
		t.Fatalf("PreparePacket failed: %v", err)
	}

	far := resonance.State{Psi: 10, Rho: 10, Omega: 10}
	got, err := p.ReceivePacket(packet, far)
	if err != nil {
		t.Fatalf("a mismatch must not be an error, got %v", err)
	}
	if got != nil {
		t.Error("far receiver should get no transaction")
	}
}

func TestReceivePacketTimestampValidation(t *testing.T) {
	p := New(DefaultConfig())
	base := time.Now()
	p.timeNow = func() time.Time { return base }

	packet, _, err := p.PreparePacket(testSender, testTarget, []byte("x"), ghost.CarrierRaw)
	if err != nil {
		t.Fatalf("PreparePacket failed: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*ghost.Packet)
		wantErr error
	}{
		{"zero", func(pk *ghost.Packet) { pk.Timestamp = 0 }, ErrZeroTimestamp},
		{"future", func(pk *ghost.Packet) { pk.Timestamp = base.Add(2 * time.Minute).Unix() }, ErrFutureTimestamp},
		{"stale", func(pk *ghost.Packet) { pk.Timestamp = base.Add(-25 * time.Hour).Unix() }, ErrStaleTimestamp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pk := packet.Clone()
			tt.mutate(pk)
			_, err := p.ReceivePacket(pk, testTarget)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// A skew of less than a minute is tolerated.
	pk := packet.Clone()
	pk.Timestamp = base.Add(30 * time.Second).Unix()
	if _, err := p.ReceivePacket(pk, testTarget); err != nil {
		t.Errorf("30s skew should be tolerated, got %v", err)
	}
}

func TestReceivePacketStaleEmbeddedTransaction(t *testing.T) {
	p := New(DefaultConfig())
	base := time.Now()
	p.timeNow = func() time.Time { return base }

	packet, _, err := p.PreparePacket(testSender, testTarget, []byte("x"), ghost.CarrierRaw)
	if err != nil {
		t.Fatalf("PreparePacket failed: %v", err)
	}

	// The packet looks fresh but the transaction inside is ancient.
	p.timeNow = func() time.Time { return base.Add(25 * time.Hour) }
	packet.Timestamp = p.timeNow().Unix()

	if _, err := p.ReceivePacket(packet, testTarget); !errors.Is(err, ErrStaleTimestamp) {
		t.Errorf("error = %v, want ErrStaleTimestamp", err)
	}
}

func TestReceivePacketNonFiniteResonance(t *testing.T) {
	p := New(DefaultConfig())

	packet, _, err := p.PreparePacket(testSender, testTarget, []byte("x"), ghost.CarrierRaw)
	if err != nil {
		t.Fatalf("PreparePacket failed: %v", err)
	}
	packet.SenderResonance.Rho = math.NaN()

	if _, err := p.ReceivePacket(packet, testTarget); !errors.Is(err, ErrNonFiniteResonance) {
		t.Errorf("error = %v, want ErrNonFiniteResonance", err)
	}
}

func TestReceivePacketEmptyPayload(t *testing.T) {
	p := New(DefaultConfig())

	packet, _, err := p.PreparePacket(testSender, testTarget, []byte("x"), ghost.CarrierRaw)
	if err != nil {
		t.Fatalf("PreparePacket failed: %v", err)
	}
	packet.MaskedPayload = nil

	if _, err := p.ReceivePacket(packet, testTarget); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("error = %v, want ErrEmptyPayload", err)
	}
}

func TestReceivePacketIntegrityFailure(t *testing.T) {
	p := New(DefaultConfig())

	packet, _, err := p.PreparePacket(testSender, testTarget, []byte("x"), ghost.CarrierImageLSB)
	if err != nil {
		t.Fatalf("PreparePacket failed: %v", err)
	}
	packet.StegoCarrier[0] ^= 0x01 // flip one carried bit

	if _, err := p.ReceivePacket(packet, testTarget); !errors.Is(err, ErrIntegrityFailure) {
		t.Errorf("error = %v, want ErrIntegrityFailure", err)
	}
}

func TestReceivePacketProofMismatch(t *testing.T) {
	p := New(DefaultConfig())

	// Build a transaction whose proof tag does not match its action, then
	// run it through masking and packetization by hand.
	tx, err := p.CreateTransaction(testSender, testTarget, []byte("transfer 100 tokens"))
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	tx.ProofTag = ProofTag([]byte("something else"))

	masked, err := p.MaskTransaction(tx, MaskingParamsFromResonance(testSender, testTarget))
	if err != nil {
		t.Fatalf("MaskTransaction failed: %v", err)
	}
	carrier, err := p.EmbedTransaction(masked, ghost.CarrierRaw)
	if err != nil {
		t.Fatalf("EmbedTransaction failed: %v", err)
	}
	packet := p.CreatePacket(tx, masked, carrier, ghost.CarrierRaw)

	if _, err := p.ReceivePacket(packet, testTarget); !errors.Is(err, ErrProofMismatch) {
		t.Errorf("error = %v, want ErrProofMismatch", err)
	}
}

type recordingLedger struct {
	committed []*ghost.Transaction
	err       error
}

func (l *recordingLedger) CommitToLedger(tx *ghost.Transaction) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	l.committed = append(l.committed, tx)
	return "block-1", nil
}

func TestReceiveAndCommit(t *testing.T) {
	p := New(DefaultConfig())
	ledger := &recordingLedger{}

	packet, tx, err := p.PreparePacket(testSender, testTarget, []byte("transfer 100 tokens"), ghost.CarrierRaw)
	if err != nil {
		t.Fatalf("PreparePacket failed: %v", err)
	}

	blockID, got, err := p.ReceiveAndCommit(packet, testTarget, ledger)
	if err != nil {
		t.Fatalf("ReceiveAndCommit failed: %v", err)
	}
	if blockID != "block-1" {
		t.Errorf("block ID = %q, want %q", blockID, "block-1")
	}
	if got.ID != tx.ID {
		t.Errorf("committed ID = %v, want %v", got.ID, tx.ID)
	}
	if len(ledger.committed) != 1 {
		t.Fatalf("ledger received %d transactions, want 1", len(ledger.committed))
	}

	// A mismatch never reaches the ledger.
	far := resonance.State{Psi: 10, Rho: 10, Omega: 10}
	blockID, got, err = p.ReceiveAndCommit(packet, far, ledger)
	if err != nil || got != nil || blockID != "" {
		t.Errorf("mismatch should yield empty results, got (%q, %v, %v)", blockID, got, err)
	}
	if len(ledger.committed) != 1 {
		t.Errorf("ledger received %d transactions, want still 1", len(ledger.committed))
	}

	// Ledger failures propagate wrapped.
	ledger.err = errors.New("disk full")
	if _, _, err := p.ReceiveAndCommit(packet, testTarget, ledger); err == nil {
		t.Error("ledger failure should propagate")
	}
}

func TestReceivePacketProofCheckingDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VerifyProofs = false
	p := New(cfg)

	tx, err := p.CreateTransaction(testSender, testTarget, []byte("x"))
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	tx.ProofTag = []byte("garbage")

	masked, err := p.MaskTransaction(tx, MaskingParamsFromResonance(testSender, testTarget))
	if err != nil {
		t.Fatalf("MaskTransaction failed: %v", err)
	}
	packet := p.CreatePacket(tx, masked, masked, ghost.CarrierRaw)

	if _, err := p.ReceivePacket(packet, testTarget); err != nil {
		t.Errorf("disabled proof checking should accept, got %v", err)
	}
}
