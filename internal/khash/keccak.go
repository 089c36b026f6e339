// Package khash provides the hash primitives the recognition pipeline
// builds on: Keccak-256 (the original Keccak padding, not NIST SHA3-256),
// hash-to-scalar, and the varint encoding used to domain-separate
// per-output hashes by index.
package khash

import (
	"github.com/ebfe/keccak"

	"github.com/0xAF4/xmrviewscan/internal/curve"
)

// Keccak256 hashes data with the original Keccak-256 padding. Monero's
// protocol hashes (view tags, amount masks, payment-id masks, key
// derivations) are all defined over this variant, not SHA3-256.
func Keccak256(data ...[]byte) [32]byte {
	h := keccak.New256()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HashToScalar is H_s in the Monero literature: keccak256 the input, then
// reduce the digest modulo the edwards25519 group order.
func HashToScalar(data ...[]byte) curve.Scalar {
	digest := Keccak256(data...)
	// Keccak256 always yields 32 bytes, so ScalarFromBytes can only fail
	// on a length mismatch, which cannot happen here.
	s, _ := curve.ScalarFromBytes(digest[:])
	return s
}
