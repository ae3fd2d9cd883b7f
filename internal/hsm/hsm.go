// Package hsm provides the host key management service: LMK wrapping of keys
// and DUKPT derivations with a per-device IPEK cache.
package hsm

import (
	"crypto/des"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/andrei-cloud/go_dukpt/pkg/cryptoutils"
	"github.com/andrei-cloud/go_dukpt/pkg/dukpt"
)

var (
	ErrUnknownKeyType = errors.New("unknown key type")
	ErrKeyLength      = errors.New("key length must be 16 bytes")
	ErrInvalidLMK     = errors.New("invalid LMK: must be 16 or 32 hex characters")
)

// HSM holds the LMK and firmware version and owns the DUKPT deriver.
type HSM struct {
	LMK             []byte
	FirmwareVersion string

	deriver *dukpt.Deriver
	cache   *ipekCache
	observe func(hit bool)
	size    int
}

// Option configures an HSM.
type Option func(*HSM)

// WithCacheSize sets the number of IPEKs kept in memory. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(h *HSM) {
		h.size = n
	}
}

// WithCacheObserver registers a callback invoked on every IPEK cache lookup.
func WithCacheObserver(fn func(hit bool)) Option {
	return func(h *HSM) {
		h.observe = fn
	}
}

// WithDeriver replaces the default DUKPT deriver.
func WithDeriver(d *dukpt.Deriver) Option {
	return func(h *HSM) {
		h.deriver = d
	}
}

// NewHSM creates a new HSM from an LMK in hex and a firmware version.
// A single length LMK is expanded to double length.
func NewHSM(lmkHex, firmwareVersion string, opts ...Option) (*HSM, error) {
	switch len(lmkHex) {
	case 16:
		lmkHex += lmkHex
	case 32:
	default:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLMK, len(lmkHex))
	}

	lmk, err := hex.DecodeString(lmkHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLMK, err)
	}

	h := &HSM{
		LMK:             lmk,
		FirmwareVersion: firmwareVersion,
		deriver:         dukpt.New(),
		size:            defaultCacheSize,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.cache, err = newIPEKCache(h.size)
	if err != nil {
		return nil, err
	}

	return h, nil
}

// Firmware returns the reported firmware version.
func (h *HSM) Firmware() string {
	return h.FirmwareVersion
}

// LMKCheckValue returns the 16 hex character check value of the LMK.
func (h *HSM) LMKCheckValue() (string, error) {
	return cryptoutils.KeyCV(h.LMK, 16)
}

// EncryptUnderLMK encrypts a double length key under the LMK variant of keyType.
func (h *HSM) EncryptUnderLMK(key []byte, keyType string) ([]byte, error) {
	return h.wrap(key, keyType, true)
}

// DecryptUnderLMK recovers a double length key encrypted under the LMK variant of keyType.
func (h *HSM) DecryptUnderLMK(cryptogram []byte, keyType string) ([]byte, error) {
	return h.wrap(cryptogram, keyType, false)
}

func (h *HSM) wrap(in []byte, keyType string, encrypt bool) ([]byte, error) {
	if len(in) != cryptoutils.KEY_LENGTH_DOUBLE {
		return nil, fmt.Errorf("%w: got %d", ErrKeyLength, len(in))
	}
	kt, err := LookupKeyType(keyType)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(in))
	for i, sv := range schemeVariants {
		block, err := des.NewTripleDESCipher(h.variantLMK(kt.VariantID, sv))
		if err != nil {
			return nil, err
		}
		dst, src := out[i*des.BlockSize:(i+1)*des.BlockSize], in[i*des.BlockSize:(i+1)*des.BlockSize]
		if encrypt {
			block.Encrypt(dst, src)
		} else {
			block.Decrypt(dst, src)
		}
	}

	return out, nil
}

// variantLMK returns the triple length LMK with the key type variant applied to
// the left half and the scheme variant to the right half.
func (h *HSM) variantLMK(variantID int, scheme byte) []byte {
	lmk := make([]byte, cryptoutils.KEY_LENGTH_DOUBLE)
	copy(lmk, h.LMK)
	lmk[0] ^= variantMap[variantID]
	lmk[8] ^= scheme

	return cryptoutils.PrepareTripleDESKey(lmk)
}
