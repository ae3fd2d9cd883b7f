// Package dukpt derives ANSI X9.24 TDEA DUKPT transaction keys.
//
// A host and a PIN entry device that share a Base Derivation Key (BDK) compute
// the same transaction key from the Key Serial Number (KSN) sent in the clear:
//
//	BDK, KSN -> IPEK -> transaction key -> usage key (IFSF mask) / data key variant
//
// The derived data key follows the ANSI X9.24-2009 annex, where the
// data-request key is encrypted under itself before use.
//
// A Deriver holds no mutable state and is safe for concurrent use.
package dukpt

import (
	"fmt"

	"github.com/andrei-cloud/go_dukpt/pkg/bitvec"
)

// Deriver computes DUKPT keys with a given block cipher.
type Deriver struct {
	cipher Cipher
}

// Option configures a Deriver.
type Option func(*Deriver)

// WithCipher replaces the default crypto/des based cipher.
func WithCipher(c Cipher) Option {
	return func(d *Deriver) {
		d.cipher = c
	}
}

// New returns a Deriver backed by DESCipher unless overridden.
func New(opts ...Option) *Deriver {
	d := &Deriver{cipher: DESCipher{}}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// ComputeKey derives the transaction key for ksn and applies the mask of usage.
// bdk must be 128 bits and ksn at least 80 bits; only the leading 80 bits of
// ksn take part in the derivation.
func (d *Deriver) ComputeKey(bdk, ksn bitvec.Vector, usage KeyUsage) (bitvec.Vector, error) {
	if err := validate(bdk, ksn); err != nil {
		return bitvec.Vector{}, err
	}
	if !usage.Valid() {
		return bitvec.Vector{}, fmt.Errorf("%w: %d", ErrUnknownKeyUsage, int(usage))
	}

	ipek, err := deriveIPEK(d.cipher, bdk, ksn)
	if err != nil {
		return bitvec.Vector{}, fmt.Errorf("derive ipek: %w", err)
	}

	return d.keyFromIPEK(ipek, ksn, usage)
}

// ComputeDataKeyVariant derives the ANSI X9.24-2009 data encryption key:
// the data-request key encrypted, half by half, under itself.
func (d *Deriver) ComputeDataKeyVariant(bdk, ksn bitvec.Vector) (bitvec.Vector, error) {
	key, err := d.ComputeKey(bdk, ksn, DataRequest)
	if err != nil {
		return bitvec.Vector{}, err
	}

	return d.dataKey(key)
}

// IPEK derives the initial PIN encryption key for the device identified by ksn.
// The transaction counter bits of ksn are ignored, so the result may be cached
// per device by the caller.
func (d *Deriver) IPEK(bdk, ksn bitvec.Vector) (bitvec.Vector, error) {
	if err := validate(bdk, ksn); err != nil {
		return bitvec.Vector{}, err
	}

	ipek, err := deriveIPEK(d.cipher, bdk, ksn)
	if err != nil {
		return bitvec.Vector{}, fmt.Errorf("derive ipek: %w", err)
	}

	return ipek, nil
}

// KeyFromIPEK is ComputeKey for callers that already hold the device IPEK.
func (d *Deriver) KeyFromIPEK(ipek, ksn bitvec.Vector, usage KeyUsage) (bitvec.Vector, error) {
	if err := validate(ipek, ksn); err != nil {
		return bitvec.Vector{}, err
	}
	if !usage.Valid() {
		return bitvec.Vector{}, fmt.Errorf("%w: %d", ErrUnknownKeyUsage, int(usage))
	}

	return d.keyFromIPEK(ipek, ksn, usage)
}

// DataKeyVariantFromIPEK is ComputeDataKeyVariant for callers that already hold the device IPEK.
func (d *Deriver) DataKeyVariantFromIPEK(ipek, ksn bitvec.Vector) (bitvec.Vector, error) {
	key, err := d.KeyFromIPEK(ipek, ksn, DataRequest)
	if err != nil {
		return bitvec.Vector{}, err
	}

	return d.dataKey(key)
}

func (d *Deriver) keyFromIPEK(ipek, ksn bitvec.Vector, usage KeyUsage) (bitvec.Vector, error) {
	key, err := deriveSessionKey(d.cipher, ipek, ksn)
	if err != nil {
		return bitvec.Vector{}, fmt.Errorf("derive session key: %w", err)
	}

	return ApplyMask(key, usage)
}

func (d *Deriver) dataKey(key bitvec.Vector) (bitvec.Vector, error) {
	out, err := selfEncrypt(d.cipher, key)
	if err != nil {
		return bitvec.Vector{}, fmt.Errorf("data key variant: %w", err)
	}

	return out, nil
}

func validate(key, ksn bitvec.Vector) error {
	if key.Len() != KeyBits {
		return fmt.Errorf("%w: got %d bits", ErrInvalidKeyLength, key.Len())
	}
	if ksn.Len() < KSNBits {
		return fmt.Errorf("%w: got %d bits", ErrInvalidKsnLength, ksn.Len())
	}

	return nil
}

var defaultDeriver = New()

// DeriveKey is ComputeKey over raw bytes with the default cipher.
// bdk must be 16 bytes and ksn at least 10 bytes.
func DeriveKey(bdk, ksn []byte, usage KeyUsage) ([]byte, error) {
	key, err := defaultDeriver.ComputeKey(bitvec.FromBytes(bdk), bitvec.FromBytes(ksn), usage)
	if err != nil {
		return nil, err
	}

	return key.Bytes(), nil
}

// DeriveDataKey is ComputeDataKeyVariant over raw bytes with the default cipher.
func DeriveDataKey(bdk, ksn []byte) ([]byte, error) {
	key, err := defaultDeriver.ComputeDataKeyVariant(bitvec.FromBytes(bdk), bitvec.FromBytes(ksn))
	if err != nil {
		return nil, err
	}

	return key.Bytes(), nil
}

// Counter returns the 21-bit transaction counter of ksn.
func Counter(ksn bitvec.Vector) (uint32, error) {
	if ksn.Len() < KSNBits {
		return 0, fmt.Errorf("%w: got %d bits", ErrInvalidKsnLength, ksn.Len())
	}

	var n uint32
	for i := CounterStart; i < KSNBits; i++ {
		n <<= 1
		if ksn.Bit(i) {
			n |= 1
		}
	}

	return n, nil
}
