// Package pinblock encodes and decodes the ISO 9564-1 clear PIN blocks that
// DUKPT terminals encrypt under their PIN key.
package pinblock

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Format selects an ISO 9564-1 PIN block format.
type Format int

// Supported formats.
const (
	ISO0 Format = iota // ISO 9564-1 Format 0 (ANSI X9.8).
	ISO1               // ISO 9564-1 Format 1, no PAN.
	ISO3               // ISO 9564-1 Format 3.
)

// BlockLen is the hex length of a PIN block.
const BlockLen = 16

var (
	ErrInvalidPinLength      = errors.New("invalid pin length")
	ErrInvalidPanLength      = errors.New("invalid pan length")
	ErrInvalidPinBlockLength = errors.New("invalid pin block length")
	ErrInvalidFormat         = errors.New("unsupported pin block format")
	ErrDecoding              = errors.New("pin block decoding failed")
)

var formatNames = map[Format]string{
	ISO0: "iso0",
	ISO1: "iso1",
	ISO3: "iso3",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}

	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat accepts "iso0", "iso1" or "iso3" (or just the digit).
func ParseFormat(s string) (Format, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "iso")
	for f, name := range formatNames {
		if s == strings.TrimPrefix(name, "iso") {
			return f, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}

// Encode builds a clear PIN block for a 4-12 digit PIN. pan is ignored by ISO1.
// Returns the PIN block as an uppercase hex string.
func Encode(pin, pan string, format Format) (string, error) {
	if len(pin) < 4 || len(pin) > 12 || !isDigits(pin) {
		return "", fmt.Errorf("%w: must be 4-12 digits", ErrInvalidPinLength)
	}

	switch format {
	case ISO0:
		return pinField('0', pin, fillF, pan)
	case ISO1:
		return pinField('1', pin, randomHexDigit, "")
	case ISO3:
		return pinField('3', pin, randomAFDigit, pan)
	default:
		return "", ErrInvalidFormat
	}
}

// Decode extracts the PIN from a clear PIN block.
func Decode(block, pan string, format Format) (string, error) {
	if len(block) != BlockLen {
		return "", ErrInvalidPinBlockLength
	}
	block = strings.ToUpper(block)
	if _, err := hex.DecodeString(block); err != nil {
		return "", fmt.Errorf("%w: not hex", ErrInvalidPinBlockLength)
	}

	switch format {
	case ISO0:
		return openField(block, pan, '0', func(c byte) bool { return c == 'F' })
	case ISO1:
		return openField(block, "", '1', isHexDigit)
	case ISO3:
		return openField(block, pan, '3', func(c byte) bool { return c >= 'A' && c <= 'F' })
	default:
		return "", ErrInvalidFormat
	}
}
