package ghost

import (
	"bytes"
	"strings"
	"testing"
)

var carrierPayloads = [][]byte{
	[]byte("transfer 100 tokens"),
	{0x00},
	{0xFF, 0x00, 0xAA, 0x55},
	bytes.Repeat([]byte{0xC3}, 300),
}

func TestZeroWidthRoundTrip(t *testing.T) {
	for _, payload := range carrierPayloads {
		carrier, err := Embed(payload, CarrierZeroWidth)
		if err != nil {
			t.Fatalf("Embed failed: %v", err)
		}

		// Eight marks per byte, appended after the filler text.
		if !strings.HasPrefix(string(carrier), string(zeroWidthFiller)) {
			t.Error("carrier should start with filler text")
		}

		out, err := Extract(carrier, CarrierZeroWidth)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if !bytes.Equal(out, payload) {
			t.Errorf("round trip mismatch: got %x, want %x", out, payload)
		}
	}
}

func TestImageLSBRoundTrip(t *testing.T) {
	for _, payload := range carrierPayloads {
		carrier, err := Embed(payload, CarrierImageLSB)
		if err != nil {
			t.Fatalf("Embed failed: %v", err)
		}
		if len(carrier) != 8*len(payload)+1024 {
			t.Errorf("carrier length = %d, want %d", len(carrier), 8*len(payload)+1024)
		}

		out, err := Extract(carrier, CarrierImageLSB)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if !bytes.Equal(out, payload) {
			t.Errorf("round trip mismatch: got %x, want %x", out, payload)
		}
	}
}

func TestRawPassthrough(t *testing.T) {
	payload := []byte("plain")

	carrier, err := Embed(payload, CarrierRaw)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if !bytes.Equal(carrier, payload) {
		t.Error("raw carrier should equal payload")
	}

	out, err := Extract(carrier, CarrierRaw)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Error("raw extraction should equal payload")
	}
}

func TestAudioPassthroughStub(t *testing.T) {
	payload := []byte("not yet encoded")

	carrier, err := Embed(payload, CarrierAudio)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	out, err := Extract(carrier, CarrierAudio)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Error("audio stub should pass payload through unchanged")
	}
}

func TestExtractMalformedImageLSB(t *testing.T) {
	if _, err := Extract(make([]byte, 100), CarrierImageLSB); err == nil {
		t.Error("carrier shorter than the filler should be rejected")
	}
	if _, err := Extract(make([]byte, 1024+3), CarrierImageLSB); err == nil {
		t.Error("carrier with a partial payload byte should be rejected")
	}
}

func TestUnknownCarrier(t *testing.T) {
	if _, err := Embed([]byte("x"), CarrierType(99)); err != ErrUnknownCarrier {
		t.Errorf("Embed error = %v, want ErrUnknownCarrier", err)
	}
	if _, err := Extract([]byte("x"), CarrierType(99)); err != ErrUnknownCarrier {
		t.Errorf("Extract error = %v, want ErrUnknownCarrier", err)
	}
}
