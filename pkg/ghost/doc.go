// Package ghost defines the data model shared by every layer of the ghost
// network: node identities, transactions, packets, and the steganographic
// carrier encodings.
//
// # Records
//
// All records are plain values. Engines copy them on read and never share
// them by reference across package boundaries. A Packet is the only record
// that crosses a process boundary; it is immutable once created.
//
// # Wire format
//
// Packets are serialized as JSON with fixed field names (see codec.go).
// Interoperable implementations must preserve those names and types.
//
// # Carriers
//
// A masked payload travels inside an outer carrier encoding that makes it
// look like innocuous data: zero-width marks appended to filler text, or the
// low bits of a byte buffer. Both encodings are exactly invertible. The
// packet carries the masked payload and its carrier encoding redundantly;
// integrity verification checks that the two agree.
package ghost
