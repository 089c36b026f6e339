// Package derive implements the Diffie-Hellman shared secret and
// per-output scalar at the heart of Monero's stealth-address scheme.
package derive

import (
	"github.com/0xAF4/xmrviewscan/internal/curve"
	"github.com/0xAF4/xmrviewscan/internal/khash"
)

// Derivation is the 32-byte shared secret 8*a*R, computed once per
// candidate tx public key and reused for every output index that shares
// that candidate.
type Derivation [32]byte

// KeyDerivation computes 8 * viewPriv * txPub, clearing the edwards25519
// cofactor. The factor of 8 is not optional: omitting it produces a
// derivation that never matches mainnet outputs (see P8).
func KeyDerivation(txPub curve.Point, viewPriv curve.Scalar) Derivation {
	scaledPriv := curve.Eight.Multiply(viewPriv)
	shared := txPub.ScalarMult(scaledPriv)
	return Derivation(shared.Encode())
}

// ScalarAt is H_s(d || varint(i)), the per-output scalar used both to
// recover the one-time destination key and, via AmountMaskAt, to decrypt
// the RingCT amount.
func (d Derivation) ScalarAt(index uint64) curve.Scalar {
	return khash.HashToScalar(d[:], khash.EncodeVarint(index))
}

// ViewTagAt computes the one-byte view tag Monero commits per output:
// the first byte of keccak256("view_tag" || d || varint(i)).
func (d Derivation) ViewTagAt(index uint64) byte {
	digest := khash.Keccak256([]byte("view_tag"), d[:], khash.EncodeVarint(index))
	return digest[0]
}

// AmountMaskAt returns the 8-byte XOR mask used to encrypt/decrypt the
// RingCT output amount at index: the first 8 bytes of
// keccak256("amount" || scalarAt(index)).
func (d Derivation) AmountMaskAt(index uint64) [8]byte {
	scalar := d.ScalarAt(index)
	encoded := scalar.Bytes()
	digest := khash.Keccak256([]byte("amount"), encoded[:])
	var mask [8]byte
	copy(mask[:], digest[:8])
	return mask
}

// PaymentIDMask returns the 8-byte XOR mask used to encrypt/decrypt an
// encrypted short payment id: the first 8 bytes of
// keccak256(d || 0x8d).
func (d Derivation) PaymentIDMask() [8]byte {
	digest := khash.Keccak256(d[:], []byte{0x8d})
	var mask [8]byte
	copy(mask[:], digest[:8])
	return mask
}
