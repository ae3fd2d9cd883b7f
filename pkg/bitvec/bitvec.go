// Package bitvec provides a fixed-length bit sequence used as the register type
// of the DUKPT derivation engine.
//
// Bit 0 is the most significant bit of the first byte. Every extraction
// (Slice, Clone, Concat) returns independent storage, so a Vector obtained from
// another never aliases it.
package bitvec

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// ErrLengthMismatch is returned when two vectors of different lengths are combined.
var ErrLengthMismatch = errors.New("bit vector length mismatch")

// Vector is a fixed-length sequence of bits.
type Vector struct {
	n    int
	data []byte
}

// New returns a zeroed vector of n bits.
func New(n int) Vector {
	if n < 0 {
		panic(fmt.Sprintf("bitvec: negative length %d", n))
	}

	return Vector{n: n, data: make([]byte, (n+7)/8)}
}

// FromBytes returns a vector holding a copy of b, len(b)*8 bits long.
func FromBytes(b []byte) Vector {
	data := make([]byte, len(b))
	copy(data, b)

	return Vector{n: len(b) * 8, data: data}
}

// FromHex decodes a hex string into a vector of len(s)*4 bits.
// Odd-length strings are accepted; the final nibble fills the high half of the last byte.
func FromHex(s string) (Vector, error) {
	s = strings.TrimSpace(s)
	odd := len(s)%2 == 1
	padded := s
	if odd {
		padded += "0"
	}

	raw, err := hex.DecodeString(padded)
	if err != nil {
		return Vector{}, fmt.Errorf("bitvec: invalid hex %q: %w", s, err)
	}

	v := FromBytes(raw)
	if odd {
		v.n -= 4
	}

	return v, nil
}

// MustFromHex is like FromHex but panics on malformed input.
// It is meant for package-level constants.
func MustFromHex(s string) Vector {
	v, err := FromHex(s)
	if err != nil {
		panic(err)
	}

	return v
}

// Len returns the number of bits in v.
func (v Vector) Len() int {
	return v.n
}

// Bit reports whether bit i is set.
func (v Vector) Bit(i int) bool {
	v.checkIndex(i)

	return v.data[i/8]&(0x80>>(i%8)) != 0
}

// SetBit sets bit i to 1 in place.
func (v *Vector) SetBit(i int) {
	v.checkIndex(i)
	v.data[i/8] |= 0x80 >> (i % 8)
}

// ClearBit sets bit i to 0 in place.
func (v *Vector) ClearBit(i int) {
	v.checkIndex(i)
	v.data[i/8] &^= 0x80 >> (i % 8)
}

// ClearRange zeroes bits [start, end) in place.
func (v *Vector) ClearRange(start, end int) {
	v.checkRange(start, end)
	for i := start; i < end; i++ {
		v.data[i/8] &^= 0x80 >> (i % 8)
	}
}

// Slice returns bits [start, end) as a new, independent vector.
func (v Vector) Slice(start, end int) Vector {
	v.checkRange(start, end)

	out := New(end - start)
	if start%8 == 0 {
		copy(out.data, v.data[start/8:])
		out.maskTail()

		return out
	}
	for i := start; i < end; i++ {
		if v.data[i/8]&(0x80>>(i%8)) != 0 {
			j := i - start
			out.data[j/8] |= 0x80 >> (j % 8)
		}
	}

	return out
}

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	data := make([]byte, len(v.data))
	copy(data, v.data)

	return Vector{n: v.n, data: data}
}

// Xor replaces v with v XOR other. Both vectors must have the same length.
func (v *Vector) Xor(other Vector) error {
	if v.n != other.n {
		return fmt.Errorf("%w: %d vs %d bits", ErrLengthMismatch, v.n, other.n)
	}
	for i := range v.data {
		v.data[i] ^= other.data[i]
	}

	return nil
}

// Xored returns a new vector holding a XOR b, leaving both operands untouched.
func Xored(a, b Vector) (Vector, error) {
	out := a.Clone()
	if err := out.Xor(b); err != nil {
		return Vector{}, err
	}

	return out, nil
}

// Concat returns a new vector holding the bits of all parts in order.
func Concat(parts ...Vector) Vector {
	total := 0
	for _, p := range parts {
		total += p.n
	}

	out := New(total)
	offset := 0
	for _, p := range parts {
		if offset%8 == 0 {
			copy(out.data[offset/8:], p.data)
		} else {
			for i := 0; i < p.n; i++ {
				if p.Bit(i) {
					out.SetBit(offset + i)
				}
			}
		}
		offset += p.n
	}
	out.maskTail()

	return out
}

// OnesCount returns the number of set bits in [start, end).
func (v Vector) OnesCount(start, end int) int {
	v.checkRange(start, end)

	count := 0
	for i := start; i < end; {
		if i%8 == 0 && end-i >= 8 {
			count += bits.OnesCount8(v.data[i/8])
			i += 8

			continue
		}
		if v.data[i/8]&(0x80>>(i%8)) != 0 {
			count++
		}
		i++
	}

	return count
}

// Equal reports whether v and other have the same length and bits.
func (v Vector) Equal(other Vector) bool {
	if v.n != other.n {
		return false
	}
	for i := range v.data {
		if v.data[i] != other.data[i] {
			return false
		}
	}

	return true
}

// Bytes packs the bits MSB-first into a new byte slice.
// It panics if the length is not a multiple of 8.
func (v Vector) Bytes() []byte {
	if v.n%8 != 0 {
		panic(fmt.Sprintf("bitvec: %d bits is not byte aligned", v.n))
	}
	out := make([]byte, len(v.data))
	copy(out, v.data)

	return out
}

// String returns the uppercase hex form of v.
func (v Vector) String() string {
	s := strings.ToUpper(hex.EncodeToString(v.data))
	if v.n%8 != 0 && v.n%8 <= 4 {
		s = s[:len(s)-1]
	}

	return s
}

// maskTail zeroes the unused low bits of the last byte.
func (v *Vector) maskTail() {
	if r := v.n % 8; r != 0 {
		v.data[len(v.data)-1] &= byte(0xFF << (8 - r))
	}
}

func (v Vector) checkIndex(i int) {
	if i < 0 || i >= v.n {
		panic(fmt.Sprintf("bitvec: index %d out of range [0,%d)", i, v.n))
	}
}

func (v Vector) checkRange(start, end int) {
	if start < 0 || end > v.n || start > end {
		panic(fmt.Sprintf("bitvec: range [%d,%d) out of bounds for %d bits", start, end, v.n))
	}
}
