package cryptoutils

import (
	"crypto/des"
	"errors"
	"fmt"
)

// CalculateMAC computes an s-byte MAC (4 <= s <= 8) over msg using
// ISO/IEC 9797-1 MAC algorithm 1 or 3 (algo == 1 or 3).
// ks must be 8 bytes (single DES) or 16 bytes (k1||k2).
// msg must already be padded.
func CalculateMAC(msg, ks []byte, s, algo int) ([]byte, error) {
	if s < 4 || s > 8 {
		return nil, fmt.Errorf("invalid MAC length %d", s)
	}
	if len(ks) != KEY_LENGTH_SINGLE && len(ks) != KEY_LENGTH_DOUBLE {
		return nil, fmt.Errorf("ks must be 8 or 16 bytes, got %d", len(ks))
	}
	if len(msg) == 0 || len(msg)%des.BlockSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotBlockAligned, len(msg))
	}

	k1, err := NewTripleDES(ks[:KEY_LENGTH_SINGLE])
	if err != nil {
		return nil, err
	}

	h := make([]byte, des.BlockSize)
	for _, x := range Chunk(msg, des.BlockSize) {
		in, err := XORBytes(x, h)
		if err != nil {
			return nil, err
		}
		k1.Encrypt(h, in)
	}

	switch {
	case algo == 1, len(ks) == KEY_LENGTH_SINGLE:
	case algo == 3:
		k2, err := NewTripleDES(ks[KEY_LENGTH_SINGLE:])
		if err != nil {
			return nil, err
		}
		k2.Decrypt(h, h)
		k1.Encrypt(h, h)
	default:
		return nil, errors.New("unknown algorithm, must be 1 or 3")
	}

	return h[:s], nil
}

// RetailMAC pads msg with zeros and returns the 8-byte ISO 9797-1 algorithm 3 MAC.
func RetailMAC(msg, key []byte) ([]byte, error) {
	return CalculateMAC(PadISO9797Method1(msg, des.BlockSize), key, des.BlockSize, 3)
}
