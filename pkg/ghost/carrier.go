package ghost

import (
	"bytes"
	"errors"
)

// CarrierType identifies the steganographic carrier encoding of a packet.
type CarrierType uint8

const (
	// CarrierRaw passes the masked payload through unchanged.
	CarrierRaw CarrierType = 0

	// CarrierZeroWidth hides each bit as one of two zero-width code points
	// appended to filler text. Eight marks per payload byte.
	CarrierZeroWidth CarrierType = 1

	// CarrierImageLSB hides each bit in the low bit of one carrier byte,
	// with 1024 trailing filler bytes.
	CarrierImageLSB CarrierType = 2

	// CarrierAudio is reserved. Embedding and extraction pass the payload
	// through unchanged until an audio codec exists.
	CarrierAudio CarrierType = 3
)

// String returns the carrier type name.
func (c CarrierType) String() string {
	switch c {
	case CarrierRaw:
		return "raw"
	case CarrierZeroWidth:
		return "zero_width"
	case CarrierImageLSB:
		return "image_lsb"
	case CarrierAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// IsValid reports whether the carrier type is known.
func (c CarrierType) IsValid() bool {
	return c <= CarrierAudio
}

// Carrier errors.
var (
	ErrUnknownCarrier   = errors.New("unknown carrier type")
	ErrMalformedCarrier = errors.New("malformed stego carrier")
)

// Zero-width code points used by CarrierZeroWidth.
// U+200B (zero width space) encodes a 0 bit, U+200C (zero width
// non-joiner) encodes a 1 bit.
const (
	zeroWidthZero = '\u200b'
	zeroWidthOne  = '\u200c'
)

// zeroWidthFiller is the innocuous text the zero-width marks hide behind.
var zeroWidthFiller = []byte("The weather is expected to remain stable throughout the week.")

// imageLSBFillerSize is the number of trailing filler bytes in an
// image-LSB carrier. Extraction derives the payload length from it, so the
// value is part of the carrier format.
const imageLSBFillerSize = 1024

// Embed encodes a masked payload into the given carrier type.
func Embed(masked []byte, carrierType CarrierType) ([]byte, error) {
	switch carrierType {
	case CarrierRaw, CarrierAudio:
		return append([]byte(nil), masked...), nil
	case CarrierZeroWidth:
		return embedZeroWidth(masked), nil
	case CarrierImageLSB:
		return embedImageLSB(masked), nil
	default:
		return nil, ErrUnknownCarrier
	}
}

// Extract recovers the masked payload from a carrier. It is the exact
// inverse of Embed for every carrier type.
func Extract(carrier []byte, carrierType CarrierType) ([]byte, error) {
	switch carrierType {
	case CarrierRaw, CarrierAudio:
		return append([]byte(nil), carrier...), nil
	case CarrierZeroWidth:
		return extractZeroWidth(carrier)
	case CarrierImageLSB:
		return extractImageLSB(carrier)
	default:
		return nil, ErrUnknownCarrier
	}
}

func embedZeroWidth(masked []byte) []byte {
	var buf bytes.Buffer
	buf.Write(zeroWidthFiller)
	for _, b := range masked {
		for bit := 7; bit >= 0; bit-- {
			if b>>uint(bit)&1 == 1 {
				buf.WriteRune(zeroWidthOne)
			} else {
				buf.WriteRune(zeroWidthZero)
			}
		}
	}
	return buf.Bytes()
}

func extractZeroWidth(carrier []byte) ([]byte, error) {
	var bits []byte
	for _, r := range string(carrier) {
		switch r {
		case zeroWidthZero:
			bits = append(bits, 0)
		case zeroWidthOne:
			bits = append(bits, 1)
		}
	}
	if len(bits)%8 != 0 {
		return nil, ErrMalformedCarrier
	}
	out := make([]byte, len(bits)/8)
	for i, bit := range bits {
		out[i/8] = out[i/8]<<1 | bit
	}
	return out, nil
}

func embedImageLSB(masked []byte) []byte {
	carrier := make([]byte, 8*len(masked)+imageLSBFillerSize)
	// Filler pattern in the high bits keeps the buffer from being all
	// zeros; the low bits of the first 8*len bytes carry the payload.
	for i := range carrier {
		carrier[i] = byte(i * 37)
	}
	for i, b := range masked {
		for bit := 0; bit < 8; bit++ {
			idx := i*8 + bit
			carrier[idx] = carrier[idx]&0xFE | b>>uint(7-bit)&1
		}
	}
	return carrier
}

func extractImageLSB(carrier []byte) ([]byte, error) {
	if len(carrier) < imageLSBFillerSize || (len(carrier)-imageLSBFillerSize)%8 != 0 {
		return nil, ErrMalformedCarrier
	}
	n := (len(carrier) - imageLSBFillerSize) / 8
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		var b byte
		for bit := 0; bit < 8; bit++ {
			b = b<<1 | carrier[i*8+bit]&1
		}
		out[i] = b
	}
	return out, nil
}
