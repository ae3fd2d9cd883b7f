package dukpt

import (
	"fmt"
	"strings"

	"github.com/andrei-cloud/go_dukpt/pkg/bitvec"
)

// KeyUsage selects the IFSF key mask applied to a derived transaction key.
type KeyUsage int

// Supported key usages. The numeric values are the two-digit usage codes of the
// host command set.
const (
	PINRequest KeyUsage = iota
	PINResponse
	MACRequest
	MACResponse
	DataRequest
	DataResponse
)

// keyRegisterMask is XORed into the key register between the two halves of the
// round function and into the BDK for the right half of the IPEK.
var keyRegisterMask = bitvec.MustFromHex("C0C0C0C000000000C0C0C0C000000000")

type usageInfo struct {
	name        string
	description string
	mask        bitvec.Vector
}

var usages = [...]usageInfo{
	PINRequest:   {"pin-request", "PIN encryption, request", bitvec.MustFromHex("00000000000000FF00000000000000FF")},
	PINResponse:  {"pin-response", "PIN encryption, response", bitvec.MustFromHex("0000FF00000000000000FF0000000000")},
	MACRequest:   {"mac-request", "MAC generation, request", bitvec.MustFromHex("000000000000FF00000000000000FF00")},
	MACResponse:  {"mac-response", "MAC generation, response", bitvec.MustFromHex("00000000FF00000000000000FF000000")},
	DataRequest:  {"data-request", "Data encryption, request", bitvec.MustFromHex("0000000000FF00000000000000FF0000")},
	DataResponse: {"data-response", "Data encryption, response", bitvec.MustFromHex("000000FF00000000000000FF00000000")},
}

// KeyUsages returns every supported usage in code order.
func KeyUsages() []KeyUsage {
	out := make([]KeyUsage, len(usages))
	for i := range usages {
		out[i] = KeyUsage(i)
	}

	return out
}

// Valid reports whether u is a known usage.
func (u KeyUsage) Valid() bool {
	return u >= 0 && int(u) < len(usages)
}

// Mask returns a copy of the 128-bit IFSF mask for u.
func (u KeyUsage) Mask() bitvec.Vector {
	if !u.Valid() {
		return bitvec.New(KeyBits)
	}

	return usages[u].mask.Clone()
}

// String returns the usage name, e.g. "pin-request".
func (u KeyUsage) String() string {
	if !u.Valid() {
		return fmt.Sprintf("KeyUsage(%d)", int(u))
	}

	return usages[u].name
}

// Description returns a human-readable description of the usage.
func (u KeyUsage) Description() string {
	if !u.Valid() {
		return "unknown"
	}

	return usages[u].description
}

// ParseKeyUsage accepts a usage name ("mac-request") or its two-digit code ("02").
func ParseKeyUsage(s string) (KeyUsage, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, info := range usages {
		if s == info.name || s == fmt.Sprintf("%02d", i) {
			return KeyUsage(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownKeyUsage, s)
}

// ApplyMask returns key XOR the mask of usage. key is not modified.
func ApplyMask(key bitvec.Vector, usage KeyUsage) (bitvec.Vector, error) {
	if !usage.Valid() {
		return bitvec.Vector{}, fmt.Errorf("%w: %d", ErrUnknownKeyUsage, int(usage))
	}

	return bitvec.Xored(key, usages[usage].mask)
}
