package pinblock

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/andrei-cloud/go_dukpt/pkg/cryptoutils"
)

const hexDigits = "0123456789ABCDEF"

// pinField lays out control digit, PIN length, PIN and fill, then XORs the
// account field when pan is set.
func pinField(control byte, pin string, fill func() byte, pan string) (string, error) {
	field := make([]byte, 0, BlockLen)
	field = append(field, control, hexDigits[len(pin)])
	field = append(field, pin...)
	for len(field) < BlockLen {
		field = append(field, fill())
	}

	if control == '1' {
		return string(field), nil
	}

	return xorAccount(string(field), pan)
}

// openField reverses pinField and validates the fill characters.
func openField(block, pan string, control byte, validFill func(byte) bool) (string, error) {
	if control != '1' {
		var err error
		if block, err = xorAccount(block, pan); err != nil {
			return "", err
		}
	}

	if block[0] != control {
		return "", fmt.Errorf("%w: control field %c, expected %c", ErrDecoding, block[0], control)
	}
	n, err := strconv.ParseUint(block[1:2], 16, 8)
	if err != nil || n < 4 || n > 12 {
		return "", fmt.Errorf("%w: pin length %s", ErrDecoding, block[1:2])
	}

	pin := block[2 : 2+n]
	if !isDigits(pin) {
		return "", fmt.Errorf("%w: non-numeric pin", ErrDecoding)
	}
	for i := 2 + int(n); i < BlockLen; i++ {
		if !validFill(block[i]) {
			return "", fmt.Errorf("%w: invalid fill at %d", ErrDecoding, i)
		}
	}

	return pin, nil
}

// xorAccount XORs s with 0000 and the 12 right-most PAN digits excluding the
// check digit.
func xorAccount(s, pan string) (string, error) {
	digits := make([]byte, 0, len(pan))
	for i := 0; i < len(pan); i++ {
		if pan[i] >= '0' && pan[i] <= '9' {
			digits = append(digits, pan[i])
		}
	}
	if len(digits) < 13 {
		return "", fmt.Errorf("%w: need at least 13 digits", ErrInvalidPanLength)
	}
	account := "0000" + string(digits[len(digits)-13:len(digits)-1])

	a, err := hex.DecodeString(s)
	if err != nil {
		return "", err
	}
	b, err := hex.DecodeString(account)
	if err != nil {
		return "", err
	}
	out, err := cryptoutils.XORBytes(a, b)
	if err != nil {
		return "", err
	}

	return cryptoutils.Raw2Str(out), nil
}

func fillF() byte {
	return 'F'
}

func randomHexDigit() byte {
	return hexDigits[randomNibble()]
}

func randomAFDigit() byte {
	return hexDigits[10+randomNibble()%6]
}

func randomNibble() byte {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}

	return b[0] & 0x0F
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return s != ""
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F')
}
