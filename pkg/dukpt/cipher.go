package dukpt

import (
	"crypto/des"
	"fmt"
)

// Cipher is the block cipher collaborator of the derivation engine.
// Keys are used verbatim; no parity adjustment is performed.
type Cipher interface {
	// EncryptSingle encrypts an 8-byte block under an 8-byte DES key.
	EncryptSingle(key, block []byte) ([]byte, error)
	// EncryptTriple encrypts an 8-byte block under a 16-byte double-length
	// TDEA key in EDE mode (K1, K2, K1).
	EncryptTriple(key, block []byte) ([]byte, error)
}

// DESCipher implements Cipher with crypto/des.
type DESCipher struct{}

// EncryptSingle implements Cipher.
func (DESCipher) EncryptSingle(key, block []byte) ([]byte, error) {
	c, err := des.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(block) != des.BlockSize {
		return nil, fmt.Errorf("des: block must be %d bytes, got %d", des.BlockSize, len(block))
	}

	out := make([]byte, des.BlockSize)
	c.Encrypt(out, block)

	return out, nil
}

// EncryptTriple implements Cipher.
func (DESCipher) EncryptTriple(key, block []byte) ([]byte, error) {
	if len(key) != KeyBits/8 {
		return nil, fmt.Errorf("tdes: key must be %d bytes, got %d", KeyBits/8, len(key))
	}
	if len(block) != des.BlockSize {
		return nil, fmt.Errorf("tdes: block must be %d bytes, got %d", des.BlockSize, len(block))
	}

	// K1 K2 K1
	full := make([]byte, 24)
	copy(full, key)
	copy(full[16:], key[:8])

	c, err := des.NewTripleDESCipher(full)
	if err != nil {
		return nil, err
	}

	out := make([]byte, des.BlockSize)
	c.Encrypt(out, block)

	return out, nil
}
