package logic

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/andrei-cloud/go_dukpt/internal/errorcodes"
	"github.com/andrei-cloud/go_dukpt/internal/hsm"
	"github.com/andrei-cloud/go_dukpt/pkg/cryptoutils"
	"github.com/andrei-cloud/go_dukpt/pkg/dukpt"
)

// KeyService is the host functionality command handlers rely on.
// *hsm.HSM implements it.
type KeyService interface {
	EncryptUnderLMK(key []byte, keyType string) ([]byte, error)
	DecryptUnderLMK(cryptogram []byte, keyType string) ([]byte, error)
	LMKCheckValue() (string, error)
	Firmware() string
	IPEK(bdk, ksn []byte) ([]byte, error)
	TransactionKey(bdk, ksn []byte, usage dukpt.KeyUsage) ([]byte, error)
	DataKey(bdk, ksn []byte) ([]byte, error)
}

var _ KeyService = (*hsm.HSM)(nil)

// decryptKeyField unwraps a 'U'+32H key field into the clear key.
func decryptKeyField(svc KeyService, field []byte, keyType string) ([]byte, error) {
	cryptogram, err := hex.DecodeString(string(field[1:]))
	if err != nil {
		return nil, fmt.Errorf("key field: %w", errorcodes.Err15)
	}

	key, err := svc.DecryptUnderLMK(cryptogram, keyType)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s key: %w", keyType, errorcodes.Err10)
	}

	return key, nil
}

// encryptKeyField wraps a clear key and returns 'U'+32H followed by its 6H KCV.
func encryptKeyField(svc KeyService, key []byte, keyType string) ([]byte, error) {
	cryptogram, err := svc.EncryptUnderLMK(key, keyType)
	if err != nil {
		return nil, fmt.Errorf("encrypt %s key: %w", keyType, errorcodes.Err41)
	}

	kcv, err := cryptoutils.KeyCV(key, cryptoutils.KCV_LENGTH)
	if err != nil {
		return nil, fmt.Errorf("kcv: %w", errorcodes.Err42)
	}

	out := make([]byte, 0, 1+len(cryptogram)*2+len(kcv))
	out = append(out, 'U')
	out = append(out, cryptoutils.Raw2B(cryptogram)...)
	out = append(out, kcv...)

	return out, nil
}

// decodeHexField decodes a hex field validated by the parser.
func decodeHexField(field []byte) ([]byte, error) {
	raw, err := cryptoutils.B2Raw(field)
	if err != nil {
		return nil, errorcodes.Err15
	}

	return raw, nil
}

// dukptError maps derivation failures onto host error codes.
func dukptError(err error) error {
	switch {
	case errors.Is(err, dukpt.ErrInvalidKeyLength):
		return fmt.Errorf("%w: %w", errorcodes.Err27, err)
	case errors.Is(err, dukpt.ErrInvalidKsnLength):
		return fmt.Errorf("%w: %w", errorcodes.Err15, err)
	case errors.Is(err, dukpt.ErrUnknownKeyUsage):
		return fmt.Errorf("%w: %w", errorcodes.Err21, err)
	case errors.Is(err, dukpt.ErrCipherFailure):
		return fmt.Errorf("%w: %w", errorcodes.Err42, err)
	default:
		return fmt.Errorf("%w: %w", errorcodes.Err41, err)
	}
}

// respond builds "<response code>00" followed by parts.
func respond(code string, parts ...[]byte) []byte {
	n := len(code) + 2
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	out = append(out, code...)
	out = append(out, errorcodes.Err00.Code...)
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}
