package protocol

import (
	"encoding/binary"
	"math"

	"golang.org/x/crypto/sha3"

	"github.com/ghost-network/ghost-go/pkg/resonance"
)

// Domain separation strings for the protocol digests.
const (
	maskingDomain = "ghost_network_masking_v1"
	phaseDomain   = "phase"
	proofDomain   = "zk_proof"
)

// MaskingParams parameterize the XOR masking transform. Both endpoints
// derive identical params without any exchange: the sender from its own and
// the target's resonance, the receiver from the same two values carried
// inside the packet.
type MaskingParams struct {
	// Seed is the root of the keystream derivation.
	Seed []byte

	// Phase is a fixed derivation of the seed, mixed into the keystream.
	Phase []byte
}

// MaskingParamsFromSeed derives params from an explicit seed.
func MaskingParamsFromSeed(seed []byte) MaskingParams {
	return MaskingParams{
		Seed:  append([]byte(nil), seed...),
		Phase: digest(seed, []byte(phaseDomain)),
	}
}

// MaskingParamsFromResonance derives params from the two parties'
// fingerprints. Deterministic: equal inputs yield equal params.
func MaskingParamsFromResonance(sender, target resonance.State) MaskingParams {
	buf := make([]byte, 0, len(maskingDomain)+48)
	buf = append(buf, maskingDomain...)
	for _, c := range []float64{
		sender.Psi, sender.Rho, sender.Omega,
		target.Psi, target.Rho, target.Omega,
	} {
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(c))
	}
	return MaskingParamsFromSeed(digest(buf))
}

// Mask applies the repeating-keystream XOR transform. The transform is its
// own inverse: Mask(Mask(p, m), m) == p.
func Mask(data []byte, params MaskingParams) []byte {
	keystream := digest(params.Seed, params.Phase)
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ keystream[i%len(keystream)]
	}
	return out
}

// Unmask reverses Mask. Provided for call-site clarity.
func Unmask(data []byte, params MaskingParams) []byte {
	return Mask(data, params)
}

// ProofTag computes the hash commitment attached to a transaction.
// It binds the action bytes and nothing else; it is NOT a zero-knowledge
// proof (see the package doc).
func ProofTag(action []byte) []byte {
	return digest(action, []byte(proofDomain))
}

// digest concatenates its inputs and returns their SHA3-256 hash.
func digest(parts ...[]byte) []byte {
	h := sha3.New256()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}
