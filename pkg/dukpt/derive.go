package dukpt

import (
	"fmt"

	"github.com/andrei-cloud/go_dukpt/pkg/bitvec"
)

// Register geometry of a TDEA DUKPT key serial number.
const (
	KeyBits      = 128
	KSNBits      = 80
	CounterStart = 59
	CounterBits  = KSNBits - CounterStart
	// windowStart is the first KSN bit fed to the round function.
	windowStart = 16
	halfBits    = KeyBits / 2
)

// advance runs one step of the non-linear key generation process: the key
// register is mixed with the 64-bit crypto register once as is and once under
// the key register mask, and the two results form the new key.
func advance(c Cipher, key, data bitvec.Vector) (bitvec.Vector, error) {
	keyLeft := key.Slice(0, halfBits)
	keyRight := key.Slice(halfBits, KeyBits)

	r2, err := bitvec.Xored(data, keyRight)
	if err != nil {
		return bitvec.Vector{}, err
	}
	r2, err = encryptSingle(c, keyLeft, r2)
	if err != nil {
		return bitvec.Vector{}, err
	}
	if err = r2.Xor(keyRight); err != nil {
		return bitvec.Vector{}, err
	}

	masked, err := bitvec.Xored(key, keyRegisterMask)
	if err != nil {
		return bitvec.Vector{}, err
	}
	maskedLeft := masked.Slice(0, halfBits)
	maskedRight := masked.Slice(halfBits, KeyBits)

	r1, err := bitvec.Xored(data, maskedRight)
	if err != nil {
		return bitvec.Vector{}, err
	}
	r1, err = encryptSingle(c, maskedLeft, r1)
	if err != nil {
		return bitvec.Vector{}, err
	}
	if err = r1.Xor(maskedRight); err != nil {
		return bitvec.Vector{}, err
	}

	return bitvec.Concat(r1, r2), nil
}

// deriveIPEK computes the initial key from the BDK and the KSN with its
// transaction counter cleared.
func deriveIPEK(c Cipher, bdk, ksn bitvec.Vector) (bitvec.Vector, error) {
	static := ksn.Slice(0, KSNBits)
	static.ClearRange(CounterStart, KSNBits)
	block := static.Slice(0, halfBits)

	left, err := encryptTriple(c, bdk, block)
	if err != nil {
		return bitvec.Vector{}, err
	}

	variant, err := bitvec.Xored(bdk, keyRegisterMask)
	if err != nil {
		return bitvec.Vector{}, err
	}
	right, err := encryptTriple(c, variant, block)
	if err != nil {
		return bitvec.Vector{}, err
	}

	return bitvec.Concat(left, right), nil
}

// deriveSessionKey walks the transaction counter from its most significant bit
// and advances the key once for every set bit.
func deriveSessionKey(c Cipher, ipek, ksn bitvec.Vector) (bitvec.Vector, error) {
	register := ksn.Slice(0, KSNBits)
	register.ClearRange(CounterStart, KSNBits)

	key := ipek.Clone()
	for i := CounterStart; i < KSNBits; i++ {
		if !ksn.Bit(i) {
			continue
		}
		register.SetBit(i)

		var err error
		if key, err = advance(c, key, register.Slice(windowStart, KSNBits)); err != nil {
			return bitvec.Vector{}, fmt.Errorf("counter bit %d: %w", i, err)
		}
	}

	return key, nil
}

// selfEncrypt encrypts both halves of key under key itself.
func selfEncrypt(c Cipher, key bitvec.Vector) (bitvec.Vector, error) {
	left, err := encryptTriple(c, key, key.Slice(0, halfBits))
	if err != nil {
		return bitvec.Vector{}, err
	}
	right, err := encryptTriple(c, key, key.Slice(halfBits, KeyBits))
	if err != nil {
		return bitvec.Vector{}, err
	}

	return bitvec.Concat(left, right), nil
}

func encryptSingle(c Cipher, key, block bitvec.Vector) (bitvec.Vector, error) {
	out, err := c.EncryptSingle(key.Bytes(), block.Bytes())
	if err != nil {
		return bitvec.Vector{}, fmt.Errorf("%w: %w", ErrCipherFailure, err)
	}

	return bitvec.FromBytes(out), nil
}

func encryptTriple(c Cipher, key, block bitvec.Vector) (bitvec.Vector, error) {
	out, err := c.EncryptTriple(key.Bytes(), block.Bytes())
	if err != nil {
		return bitvec.Vector{}, fmt.Errorf("%w: %w", ErrCipherFailure, err)
	}

	return bitvec.FromBytes(out), nil
}
