// Package cryptoutils provides the binary and TDES helpers shared by the host
// commands and the CLI.
package cryptoutils

import (
	"crypto/cipher"
	"crypto/des"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	KEY_LENGTH_SINGLE = 8
	KEY_LENGTH_DOUBLE = 16
	KEY_LENGTH_TRIPLE = 24
	KCV_LENGTH        = 6
	XOR_BIT_FLIP      = 1
)

var (
	ErrLengthMismatch  = errors.New("xor: length mismatch")
	ErrInvalidKeyLen   = errors.New("invalid key length: must be 8, 16, or 24 bytes")
	ErrNotBlockAligned = errors.New("data length is not a multiple of the block size")
)

// Raw2Str converts raw binary data to an uppercase hex string.
func Raw2Str(raw []byte) string {
	return strings.ToUpper(hex.EncodeToString(raw))
}

// Raw2B returns the uppercase hex representation of raw data as bytes.
func Raw2B(raw []byte) []byte {
	return []byte(Raw2Str(raw))
}

// B2Raw decodes hex-encoded bytes.
func B2Raw(data []byte) ([]byte, error) {
	return hex.DecodeString(string(data))
}

// PrepareTripleDESKey extends a single or double length key to triple length.
func PrepareTripleDESKey(key []byte) []byte {
	var key24 []byte
	switch len(key) {
	case KEY_LENGTH_SINGLE:
		key24 = slices.Concat(key, key, key)
	case KEY_LENGTH_DOUBLE:
		key24 = slices.Concat(key, key[:KEY_LENGTH_SINGLE])
	default:
		key24 = key
	}

	return key24
}

// NewTripleDES returns a TDES block for a single, double or triple length key.
func NewTripleDES(key []byte) (cipher.Block, error) {
	switch len(key) {
	case KEY_LENGTH_SINGLE, KEY_LENGTH_DOUBLE, KEY_LENGTH_TRIPLE:
	default:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeyLen, len(key))
	}

	return des.NewTripleDESCipher(PrepareTripleDESKey(key))
}

// XORBytes returns a^b for equal-length slices.
func XORBytes(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}

	return out, nil
}

// Chunk splits b into blocks of size sz. The last block may be shorter.
func Chunk(b []byte, sz int) [][]byte {
	if sz <= 0 {
		return nil
	}
	n := (len(b) + sz - 1) / sz
	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		start := i * sz
		end := min(start+sz, len(b))
		out[i] = b[start:end]
	}

	return out
}

// PadISO9797Method1 appends the smallest number of 0x00 bytes that makes data a
// multiple of blockSize. Empty input becomes one zero block.
func PadISO9797Method1(data []byte, blockSize int) []byte {
	remainder := len(data) % blockSize
	if remainder == 0 && len(data) > 0 {
		return data
	}
	if len(data) == 0 {
		return make([]byte, blockSize)
	}

	return slices.Concat(data, make([]byte, blockSize-remainder))
}

// KeyCV returns the first kcvLen hex characters of the key encrypted over a zero block.
func KeyCV(key []byte, kcvLen int) (string, error) {
	block, err := NewTripleDES(key)
	if err != nil {
		return "", fmt.Errorf("keycv: %w", err)
	}

	out := make([]byte, des.BlockSize)
	block.Encrypt(out, make([]byte, des.BlockSize))
	hv := Raw2Str(out)
	if kcvLen > len(hv) {
		return "", fmt.Errorf("keycv: kcv_length %d too large", kcvLen)
	}

	return hv[:kcvLen], nil
}

// ParityOf returns 0 for even number of set bits, -1 for odd.
func ParityOf(x int) int {
	parity := 0
	for x != 0 {
		parity = ^parity
		x &= (x - 1)
	}

	return parity
}

// CheckKeyParity returns true if every byte in key has ODD parity.
func CheckKeyParity(key []byte) bool {
	for _, b := range key {
		if ParityOf(int(b)) != -1 {
			return false
		}
	}

	return true
}

// FixKeyParity returns a copy of key with each byte forced to ODD parity.
func FixKeyParity(key []byte) []byte {
	res := make([]byte, len(key))
	for i, b := range key {
		if ParityOf(int(b)) == -1 {
			res[i] = b
		} else {
			res[i] = b ^ XOR_BIT_FLIP
		}
	}

	return res
}
