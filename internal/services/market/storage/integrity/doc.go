// Package integrity signs and verifies the marketplace journal's hash chain.
//
// Each stored event carries its content hash and a chain hash linking it to
// its predecessor; the chain hash is signed with an HMAC key derived per
// journal from a rotating root keyring.
package integrity
