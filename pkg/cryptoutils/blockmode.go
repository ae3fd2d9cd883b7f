package cryptoutils

import (
	"crypto/cipher"
	"crypto/des"
	"fmt"
)

// EncryptECB encrypts block-aligned data with TDES in ECB mode.
func EncryptECB(key, data []byte) ([]byte, error) {
	return ecb(key, data, true)
}

// DecryptECB decrypts block-aligned data with TDES in ECB mode.
func DecryptECB(key, data []byte) ([]byte, error) {
	return ecb(key, data, false)
}

// EncryptCBC encrypts block-aligned data with TDES in CBC mode.
func EncryptCBC(key, iv, data []byte) ([]byte, error) {
	block, err := prepareBlock(key, iv, data)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, data)

	return out, nil
}

// DecryptCBC decrypts block-aligned data with TDES in CBC mode.
func DecryptCBC(key, iv, data []byte) ([]byte, error) {
	block, err := prepareBlock(key, iv, data)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)

	return out, nil
}

func ecb(key, data []byte, encrypt bool) ([]byte, error) {
	block, err := prepareBlock(key, make([]byte, des.BlockSize), data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	for i, chunk := range Chunk(data, des.BlockSize) {
		dst := out[i*des.BlockSize : (i+1)*des.BlockSize]
		if encrypt {
			block.Encrypt(dst, chunk)
		} else {
			block.Decrypt(dst, chunk)
		}
	}

	return out, nil
}

func prepareBlock(key, iv, data []byte) (cipher.Block, error) {
	if len(data)%des.BlockSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotBlockAligned, len(data))
	}
	if len(iv) != des.BlockSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", des.BlockSize, len(iv))
	}

	return NewTripleDES(key)
}
