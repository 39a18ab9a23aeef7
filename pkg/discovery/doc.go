// Package discovery implements beacon-based node discovery and scheduled
// rendezvous events.
//
// Nodes announce themselves with short-lived beacons instead of stable
// addresses. A beacon carries a fresh identifier on every announcement, so
// observing two beacons never proves they came from the same node; peers that
// want to stay correlated must keep their resonance fingerprint stable across
// announcements. Received beacons populate a table of discovered nodes that
// ages out silently once a node stops announcing.
//
// Rendezvous events describe a shared resonance pattern over a time window.
// Every participant that evaluates the pattern at the same instant derives
// the same fingerprint, which is how mutually unknown nodes meet without
// exchanging addresses.
package discovery
