package protocol

import "errors"

// Validation errors. All reject before any state mutation and are never
// retried automatically.
var (
	ErrActionTooLarge     = errors.New("action exceeds the configured maximum size")
	ErrZeroTimestamp      = errors.New("timestamp is zero")
	ErrFutureTimestamp    = errors.New("timestamp is beyond the clock-skew tolerance")
	ErrStaleTimestamp     = errors.New("timestamp is older than the staleness window")
	ErrNonFiniteResonance = errors.New("resonance coordinate is not finite")
	ErrEmptyPayload       = errors.New("masked payload is empty")
)

// Hard rejections, distinct from a resonance mismatch.
var (
	// ErrIntegrityFailure indicates the carrier and payload disagree.
	ErrIntegrityFailure = errors.New("packet failed integrity verification")

	// ErrProofMismatch indicates the recomputed proof tag differs from
	// the one carried by the transaction.
	ErrProofMismatch = errors.New("proof tag mismatch")
)

// A resonance mismatch is NOT an error: most traffic any node observes is
// background noise by design. ReceivePacket returns (nil, nil) for it.
