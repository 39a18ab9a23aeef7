// Package protocol implements the six-step ghost message lifecycle:
//
//  1. Create a transaction (size-checked, optionally proof-tagged).
//  2. Mask it with an XOR keystream derived from both parties' resonance.
//  3. Embed the masked bytes in a steganographic carrier.
//  4. Packetize.
//  5. Receive: validate, filter by resonance, verify integrity, extract,
//     unmask, decode, check the proof tag.
//  6. Hand the recovered transaction to the ledger collaborator.
//
// # Security warning
//
// The masking transform is a single repeating XOR keystream and the proof
// tag is a plain hash commitment. Neither provides confidentiality, forward
// secrecy, integrity against an active attacker, or any zero-knowledge
// property. They are behavioral placeholders: the keystream parameters are
// derivable from fields carried inside every packet, so anyone holding a
// packet can unmask it. Do not treat any transform in this package as a
// security boundary.
package protocol
