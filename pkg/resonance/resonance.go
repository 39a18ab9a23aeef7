package resonance

import (
	"fmt"
	"math"
	"math/rand"
)

// State is a 3-coordinate resonance fingerprint.
//
// JSON field names are part of the wire contract and must not change.
type State struct {
	// Psi is the first resonance coordinate.
	Psi float64 `json:"psi"`

	// Rho is the second resonance coordinate.
	Rho float64 `json:"rho"`

	// Omega is the third resonance coordinate.
	Omega float64 `json:"omega"`
}

// Distance returns the Euclidean distance between two states.
func Distance(a, b State) float64 {
	dp := a.Psi - b.Psi
	dr := a.Rho - b.Rho
	do := a.Omega - b.Omega
	return math.Sqrt(dp*dp + dr*dr + do*do)
}

// IsResonantWith reports whether other lies within epsilon of s.
// The boundary is inclusive: distance == epsilon matches.
func (s State) IsResonantWith(other State, epsilon float64) bool {
	return Distance(s, other) <= epsilon
}

// IsFinite reports whether all three coordinates are finite
// (not NaN and not infinite).
func (s State) IsFinite() bool {
	return !math.IsNaN(s.Psi) && !math.IsInf(s.Psi, 0) &&
		!math.IsNaN(s.Rho) && !math.IsInf(s.Rho, 0) &&
		!math.IsNaN(s.Omega) && !math.IsInf(s.Omega, 0)
}

// Random returns a state sampled uniformly from [-1, 1] on each coordinate.
// Used for decoy channels; coordinates are public by construction, so a
// statistical source is sufficient.
func Random() State {
	return State{
		Psi:   rand.Float64()*2 - 1,
		Rho:   rand.Float64()*2 - 1,
		Omega: rand.Float64()*2 - 1,
	}
}

// String returns a compact human-readable form.
func (s State) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", s.Psi, s.Rho, s.Omega)
}
