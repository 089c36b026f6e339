package curve

import (
	"errors"

	"filippo.io/edwards25519"
)

// ErrInvalidPoint is returned by PointDecode when the 32 bytes do not
// decode to a point on the curve.
var ErrInvalidPoint = errors.New("curve: bytes do not decode to a point on edwards25519")

// Point is a point on edwards25519, held in the library's extended
// coordinates and only ever touched through this file's operations.
type Point struct {
	p edwards25519.Point
}

// PointDecode decodes the 32-byte compressed form of a point. Encodable
// implies on-curve: a successful decode is always a valid group element.
func PointDecode(b []byte) (Point, error) {
	if len(b) != 32 {
		return Point{}, ErrInvalidPoint
	}
	var out Point
	if _, err := out.p.SetBytes(b); err != nil {
		return Point{}, ErrInvalidPoint
	}
	return out, nil
}

// Encode returns the 32-byte compressed encoding.
func (p Point) Encode() [32]byte {
	var out [32]byte
	copy(out[:], p.p.Bytes())
	return out
}

// ScalarMultBase returns s*G. filippo.io/edwards25519 implements
// ScalarBaseMult with constant-time table lookups, so no additional
// blinding is required here; ScalarMult, which key derivation applies to
// the private view key, is constant-time in the library as well.
func ScalarMultBase(s Scalar) Point {
	var out Point
	out.p.ScalarBaseMult(&s.s)
	return out
}

// ScalarMult returns s*p.
func (p Point) ScalarMult(s Scalar) Point {
	var out Point
	out.p.ScalarMult(&s.s, &p.p)
	return out
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	var out Point
	out.p.Add(&p.p, &q.p)
	return out
}

// Negate returns -p. For the twisted-Edwards curve used here (a = -1),
// negating a point is negating its x-coordinate and keeping y. The
// library does not expose raw coordinates, but its Point.Negate does
// exactly that coordinate negation (x and t negated, y and z kept), with
// no generic point addition or subtraction.
func (p Point) Negate() Point {
	var out Point
	out.p.Negate(&p.p)
	return out
}

// Equal reports whether p and q encode the same point.
func (p Point) Equal(q Point) bool {
	return p.p.Equal(&q.p) == 1
}
