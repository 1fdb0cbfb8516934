// Package uid generates record identifiers: the base-62 rendering of a
// random 128-bit value, truncated to its 12 least significant digits and
// front-padded with '0'. Identifiers are URL-safe, fixed-width, and unique
// across the process lifetime with overwhelming probability.
package uid

import (
	"encoding/binary"
	"math/bits"

	"github.com/google/uuid"
)

// Alphabet is the base-62 digit set, in value order.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// EncodedLen is the number of base-62 characters in an identifier.
const EncodedLen = 12

// New draws 128 random bits and returns their base-62 representation as a
// 12-character string. The value is interpreted big-endian; digits beyond
// the 12 least significant are discarded, and small values are front-padded
// with '0'. Safe for concurrent use; there is no shared mutable state.
func New() string {
	raw := uuid.New()
	hi := binary.BigEndian.Uint64(raw[0:8])
	lo := binary.BigEndian.Uint64(raw[8:16])
	return encode(hi, lo)
}

// encode renders the low 12 base-62 digits of the 128-bit value hi:lo,
// most significant digit first. Running exactly EncodedLen divisions yields
// the front padding for free: exhausted values keep emitting digit zero.
func encode(hi, lo uint64) string {
	var out [EncodedLen]byte

	for i := EncodedLen - 1; i >= 0; i-- {
		qhi := hi / 62
		qlo, rem := bits.Div64(hi%62, lo, 62)

		out[i] = Alphabet[rem]
		hi, lo = qhi, qlo
	}

	return string(out[:])
}

// Valid reports whether s is a well-formed identifier: exactly EncodedLen
// characters, all drawn from the base-62 alphabet.
func Valid(s string) bool {
	if len(s) != EncodedLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		default:
			return false
		}
	}
	return true
}
