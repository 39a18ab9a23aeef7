// Package resonance implements the fingerprint type that replaces network
// addresses throughout the ghost network.
//
// A State is a point in a 3-dimensional continuous space (psi, rho, omega).
// Two parties "match" when the Euclidean distance between their states is
// within a tolerance window (epsilon). Matching is symmetric, reflexive, and
// inclusive at the boundary. There are no routing tables and no persistent
// identifiers: proximity in this space is the only addressing mechanism.
package resonance
