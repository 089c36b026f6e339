// Package curve wraps filippo.io/edwards25519 with the narrow surface the
// scanner needs: scalar/point decode and encode, scalar-times-base,
// point addition and negation. It exists so none of the recognition
// pipeline touches edwards25519 internals directly, matching the design
// note that field/group primitives deserve their own module rather than
// being smeared across the recognizer.
package curve

import (
	"errors"

	"filippo.io/edwards25519"
)

// ErrBadScalarEncoding is returned by ScalarFromBytes when the input is
// not exactly 32 bytes. A 32-byte input is always accepted: values at or
// above the group order are reduced, never rejected.
var ErrBadScalarEncoding = errors.New("curve: scalar must be exactly 32 bytes")

// Scalar is a value in [0, l) where l is the edwards25519 group order.
type Scalar struct {
	s edwards25519.Scalar
}

// Eight is the cofactor scalar used to clear the edwards25519 cofactor
// during key derivation.
var Eight = mustScalarFromByte(8)

func mustScalarFromByte(b byte) Scalar {
	var buf [32]byte
	buf[0] = b
	s, err := ScalarFromBytes(buf[:])
	if err != nil {
		panic(err)
	}
	return s
}

// ScalarFromBytes decodes 32 little-endian bytes into a Scalar, reducing
// modulo the group order if the encoding is not already canonical. The
// only rejected inputs are ones of the wrong length.
func ScalarFromBytes(b []byte) (Scalar, error) {
	if len(b) != 32 {
		return Scalar{}, ErrBadScalarEncoding
	}
	var out Scalar
	if _, err := out.s.SetCanonicalBytes(b); err == nil {
		return out, nil
	}
	// Non-canonical (>= l) or otherwise not reduced: fall back to the
	// wide-reduction constructor, which accepts any 64-byte string and
	// reduces mod l. Zero-padding the high half is safe since it cannot
	// introduce bias against the low 256 bits already supplied.
	var wide [64]byte
	copy(wide[:32], b)
	if _, err := out.s.SetUniformBytes(wide[:]); err != nil {
		return Scalar{}, err
	}
	return out, nil
}

// Bytes returns the canonical 32-byte little-endian encoding.
func (s Scalar) Bytes() [32]byte {
	var out [32]byte
	copy(out[:], s.s.Bytes())
	return out
}

// Multiply returns s * other mod l.
func (s Scalar) Multiply(other Scalar) Scalar {
	var out Scalar
	out.s.Multiply(&s.s, &other.s)
	return out
}
